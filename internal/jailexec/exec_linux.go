// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package jailexec implements the terminal executor of spec §4.I: chroot
// into the live jail mount, drop privilege one-way, reduce the
// environment, and replace the process image.
//
// Grounded on the privilege-drop ordering in the teacher's
// internal/pkg/util/priv/priv_linux.go (Setgroups before Setresgid
// before Setresuid, never the reverse) and on the chroot+exec handoff
// pattern in xibz-firecracker-go-sdk's jailer.go.
package jailexec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/jailctl/jailctl/internal/identity"
	"github.com/jailctl/jailctl/pkg/step"
)

// passedEnv is the exact set of invoking-environment variables carried
// through to the executed program, per spec §4.I step 5.
var passedEnv = []string{"JAILBASE", "PWD", "USER", "HOME", "PATH", "LANG"}

// Executor is the real, privileged implementation of
// sequencer.Executor. Its Execute method is never exercised in unit
// tests, only its buildEnv helper is (spec.md's
// explicit note that the executor collaborator is designed to be
// stubbed), only wired from cmd/jail.
type Executor struct {
	JailMount    string
	Account      identity.Account
	JailBase     string
	DefaultUmask uint32 // used when a step doesn't override it; see jailconf's "default umask" directive
}

// Execute performs spec §4.I's six steps in order. On success it never
// returns: the process image has been replaced.
func (e *Executor) Execute(args step.ExecuteArgs) error {
	if err := unix.Chroot(e.JailMount); err != nil {
		return errors.Wrapf(err, "chroot %s", e.JailMount)
	}

	chdir := args.Chdir
	if chdir == "" {
		chdir = "/"
	}
	if err := unix.Chdir(chdir); err != nil {
		return errors.Wrapf(err, "chdir %s", chdir)
	}

	umask := args.Umask
	if umask == 0 {
		umask = e.DefaultUmask
	}
	if umask == 0 {
		umask = 0o37
	}
	unix.Umask(int(umask))

	if err := unix.Setgroups([]int{e.Account.GID}); err != nil {
		return errors.Wrap(err, "setgroups")
	}
	if err := unix.Setresgid(e.Account.GID, e.Account.GID, e.Account.GID); err != nil {
		return errors.Wrap(err, "setresgid")
	}
	if err := unix.Setresuid(e.Account.UID, e.Account.UID, e.Account.UID); err != nil {
		return errors.Wrap(err, "setresuid")
	}

	env := e.buildEnv(args.Env)

	argv := append([]string{args.Program}, args.Args...)
	path, err := lookPath(args.Program)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", args.Program)
	}

	if err := unix.Exec(path, argv, env); err != nil {
		fmt.Fprintf(os.Stderr, "jail: exec %s: %s\n", args.Program, err)
		return errors.Wrapf(err, "exec %s", args.Program)
	}
	return nil // unreachable on success
}

// buildEnv reduces the environment to exactly passedEnv sourced from the
// invoking process, plus every caller-supplied "name=value" prefix.
func (e *Executor) buildEnv(prefix []string) []string {
	env := make([]string, 0, len(passedEnv)+len(prefix))
	for _, name := range passedEnv {
		if v, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+v)
		}
	}
	env = append(env, prefix...)
	return env
}

func lookPath(program string) (string, error) {
	if filepath.IsAbs(program) {
		return program, nil
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		candidate := filepath.Join(dir, program)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}
	return "", errors.Errorf("%s: not found in PATH", program)
}
