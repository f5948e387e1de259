// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jailctl/jailctl/pkg/step"
)

// This file hand-parses the variable-arity positional lists each step
// verb takes, per spec §9's "dynamic typing of arguments... becomes
// verb-specific option records at parse time."

func parseMkdir(args []string) (step.Step, int, error) {
	if len(args) < 2 {
		return step.Step{}, 0, errors.New("--mkdir requires dst and mode")
	}
	mode, err := parseOctal(args[1])
	if err != nil {
		return step.Step{}, 0, err
	}
	owner := ""
	consumed := 2
	if len(args) > 2 && !isFlag(args[2]) {
		owner = args[2]
		consumed = 3
	}
	return step.Step{Verb: step.Mkdir, Payload: step.MkdirArgs{Dst: args[0], Mode: mode, Owner: owner}}, consumed, nil
}

func parseMknod(args []string) (step.Step, int, error) {
	if len(args) < 3 {
		return step.Step{}, 0, errors.New("--mknod requires dst, type, and major")
	}
	major, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return step.Step{}, 0, errors.Wrap(err, "--mknod major")
	}
	consumed := 3
	var minor *uint32
	if len(args) > 3 && !isFlag(args[3]) {
		m, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return step.Step{}, 0, errors.Wrap(err, "--mknod minor")
		}
		mm := uint32(m)
		minor = &mm
		consumed = 4
	}
	devType := rune(args[1][0])
	return step.Step{Verb: step.Mknod, Payload: step.MknodArgs{Dst: args[0], Type: devType, Major: uint32(major), Minor: minor}}, consumed, nil
}

func parseLnS(args []string) (step.Step, int, error) {
	if len(args) < 2 {
		return step.Step{}, 0, errors.New("--ln-s requires target and link")
	}
	return step.Step{Verb: step.LnS, Payload: step.LnSArgs{Target: args[0], Link: args[1]}}, 2, nil
}

func parseChmod(args []string) (step.Step, int, error) {
	if len(args) < 2 {
		return step.Step{}, 0, errors.New("--chmod requires dst and mode")
	}
	mode, err := parseOctal(args[1])
	if err != nil {
		return step.Step{}, 0, err
	}
	return step.Step{Verb: step.Chmod, Payload: step.ChmodArgs{Dst: args[0], Mode: mode}}, 2, nil
}

func parseChown(args []string) (step.Step, int, error) {
	if len(args) < 2 {
		return step.Step{}, 0, errors.New("--chown requires dst and owner")
	}
	return step.Step{Verb: step.Chown, Payload: step.ChownArgs{Dst: args[0], Owner: args[1]}}, 2, nil
}

func parseChflags(args []string) (step.Step, int, error) {
	if len(args) < 2 {
		return step.Step{}, 0, errors.New("--chflags requires dst and flags")
	}
	flags, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return step.Step{}, 0, errors.Wrap(err, "--chflags flags")
	}
	return step.Step{Verb: step.Chflags, Payload: step.ChflagsArgs{Dst: args[0], Flags: uint32(flags)}}, 2, nil
}

func parseTouch(args []string) (step.Step, int, error) {
	if len(args) < 1 {
		return step.Step{}, 0, errors.New("--touch requires dst")
	}
	stamp := ""
	consumed := 1
	if len(args) > 1 && !isFlag(args[1]) {
		stamp = args[1]
		consumed = 2
	}
	return step.Step{Verb: step.Touch, Payload: step.TouchArgs{Dst: args[0], Stamp: stamp}}, consumed, nil
}

func parseOneDst(verb step.Verb, args []string) (step.Step, int, error) {
	if len(args) < 1 {
		return step.Step{}, 0, errors.Errorf("--%s requires a destination", verb)
	}
	var payload interface{}
	switch verb {
	case step.Rm:
		payload = step.RmArgs{Dst: args[0]}
	case step.Rmdir:
		payload = step.RmdirArgs{Dst: args[0]}
	}
	return step.Step{Verb: verb, Payload: payload}, 1, nil
}

func parseClone(args []string) (step.Step, int, error) {
	if len(args) < 2 {
		return step.Step{}, 0, errors.New("--clone requires src and dst")
	}
	return step.Step{Verb: step.Clone, Payload: step.CloneArgs{Src: args[0], Dst: args[1]}}, 2, nil
}

func parseCloneRecurse(args []string) (step.Step, int, error) {
	if len(args) < 2 {
		return step.Step{}, 0, errors.New("--clone-recurse requires src and dst")
	}
	quick := false
	consumed := 2
	if len(args) > 2 && args[2] == "quick" {
		quick = true
		consumed = 3
	}
	return step.Step{Verb: step.CloneRecurse, Payload: step.CloneRecurseArgs{Src: args[0], Dst: args[1], Quick: quick}}, consumed, nil
}

func parseCloneFrom(args []string) (step.Step, int, error) {
	if len(args) < 3 {
		return step.Step{}, 0, errors.New("--clone-from requires src, dst, and at least one file")
	}
	files, consumed := takeUntilFlag(args[2:])
	return step.Step{Verb: step.CloneFrom, Payload: step.CloneFromArgs{Src: args[0], Dst: args[1], Files: files}}, 2 + consumed, nil
}

func parseAdd(args []string) (step.Step, int, error) {
	paths, consumed := takeUntilFlag(args)
	if len(paths) == 0 {
		return step.Step{}, 0, errors.New("--add requires at least one path")
	}
	return step.Step{Verb: step.Add, Payload: step.AddArgs{Paths: paths}}, consumed, nil
}

func parseAddFrom(args []string) (step.Step, int, error) {
	if len(args) < 2 {
		return step.Step{}, 0, errors.New("--add-from requires srcdir and at least one file")
	}
	files, consumed := takeUntilFlag(args[1:])
	return step.Step{Verb: step.AddFrom, Payload: step.AddFromArgs{Srcdir: args[0], Files: files}}, 1 + consumed, nil
}

func parseAddRecurse(args []string) (step.Step, int, error) {
	paths, consumed := takeUntilFlag(args)
	quick := false
	if len(paths) > 0 && paths[len(paths)-1] == "quick" {
		quick = true
		paths = paths[:len(paths)-1]
	}
	if len(paths) == 0 {
		return step.Step{}, 0, errors.New("--add-recurse requires at least one path")
	}
	return step.Step{Verb: step.AddRecurse, Payload: step.AddRecurseArgs{Paths: paths, Quick: quick}}, consumed, nil
}

func parseBind(args []string) (step.Step, int, error) {
	if len(args) < 1 {
		return step.Step{}, 0, errors.New("--bind requires a srcpath")
	}
	srcpath := args[0]
	bindopts := "auto"
	consumed := 1
	if len(args) > 1 && !isFlag(args[1]) {
		bindopts = args[1]
		consumed = 2
	}
	return step.Step{Verb: step.Bind, Payload: step.BindArgs{
		Srcpath:  srcpath,
		Bindopts: bindopts,
		Path:     strings.TrimPrefix(srcpath, "/"),
	}}, consumed, nil
}

func parseUmount(args []string) (step.Step, int, error) {
	lazy := false
	consumed := 0
	if len(args) > 0 && args[0] == "lazy" {
		lazy = true
		consumed = 1
	}
	return step.Step{Verb: step.Umount, Payload: step.UmountArgs{Lazy: lazy}}, consumed, nil
}

func parsePrint(args []string) (step.Step, int, error) {
	if len(args) < 1 {
		return step.Step{}, 0, errors.New("--print requires a template")
	}
	return step.Step{Verb: step.Print, Payload: step.PrintArgs{Template: args[0]}}, 1, nil
}

// parseExecute consumes every remaining token: the program, then its
// arguments verbatim. It must be the last step, per spec §4.H.
func parseExecute(args []string) (step.Step, int, error) {
	if len(args) < 1 {
		return step.Step{}, 0, errors.New("--execute requires a program")
	}
	return step.Step{Verb: step.Execute, Payload: step.ExecuteArgs{
		Program: args[0],
		Args:    append([]string{}, args[1:]...),
	}}, len(args), nil
}

// takeUntilFlag collects tokens up to (not including) the next one that
// looks like a flag, the greedy-list convention spec.md's "arbitrary
// list of paths" arguments use.
func takeUntilFlag(args []string) ([]string, int) {
	var out []string
	for _, a := range args {
		if isFlag(a) {
			break
		}
		out = append(out, a)
	}
	return out, len(out)
}

func isFlag(s string) bool {
	return strings.HasPrefix(s, "-") && s != "-"
}

func parseOctal(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid mode %q", s)
	}
	return uint32(n), nil
}
