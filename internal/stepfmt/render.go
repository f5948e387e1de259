// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package stepfmt renders steps as their shell-equivalent command text,
// the single source of truth behind --verbose, --test, and the
// {defaults_text}/{etc_text} properties (spec §4.G, §4.H: "treated as
// data, not control flow"). Grounded on the teacher's definition-list
// rendering in pkg/cmdline's usage-string generation, adapted here from
// static help text to a live step-list renderer.
package stepfmt

import (
	"fmt"
	"strings"

	"github.com/jailctl/jailctl/pkg/step"
)

// Line renders a single step as its shell-equivalent command.
func Line(s step.Step) string {
	switch p := s.Payload.(type) {
	case step.MkdirArgs:
		return fmt.Sprintf("mkdir -m %o %s", orDefault(p.Mode, 0o750), p.Dst)
	case step.MknodArgs:
		if p.Minor != nil {
			return fmt.Sprintf("mknod %s %c %d %d", p.Dst, p.Type, p.Major, *p.Minor)
		}
		return fmt.Sprintf("mknod %s %c %d", p.Dst, p.Type, p.Major)
	case step.LnSArgs:
		return fmt.Sprintf("ln -s %s %s", p.Target, p.Link)
	case step.ChmodArgs:
		return fmt.Sprintf("chmod %o %s", p.Mode, p.Dst)
	case step.ChownArgs:
		return fmt.Sprintf("chown %s %s", p.Owner, p.Dst)
	case step.ChflagsArgs:
		return fmt.Sprintf("chflags %d %s", p.Flags, p.Dst)
	case step.TouchArgs:
		return fmt.Sprintf("touch %s", p.Dst)
	case step.RmArgs:
		return fmt.Sprintf("rm -f %s", p.Dst)
	case step.RmdirArgs:
		return fmt.Sprintf("rmdir %s", p.Dst)
	case step.CloneArgs:
		return fmt.Sprintf("cp -a %s %s", p.Src, p.Dst)
	case step.CloneRecurseArgs:
		return fmt.Sprintf("cp -a -r %s %s", p.Src, p.Dst)
	case step.CloneFromArgs:
		return fmt.Sprintf("cp -a --from=%s %s %s", p.Src, strings.Join(p.Files, " "), p.Dst)
	case step.AddArgs:
		return fmt.Sprintf("add %s", strings.Join(p.Paths, " "))
	case step.AddFromArgs:
		return fmt.Sprintf("add --from=%s %s", p.Srcdir, strings.Join(p.Files, " "))
	case step.AddRecurseArgs:
		return fmt.Sprintf("add -r %s", strings.Join(p.Paths, " "))
	case step.BindArgs:
		return fmt.Sprintf("bind %s:%s %s", p.Srcpath, p.Bindopts, p.Path)
	case step.MountArgs:
		return "mount"
	case step.UmountArgs:
		if p.Lazy {
			return "umount -l"
		}
		return "umount"
	case step.RemoveArgs:
		return "remove"
	case step.CleanArgs:
		return "clean"
	case step.DefaultsArgs:
		return "defaults"
	case step.EtcArgs:
		return "etc"
	case step.DevArgs:
		return "dev"
	case step.TmpArgs:
		return "tmp"
	case step.PasswdArgs:
		return "passwd"
	case step.PrintArgs:
		return fmt.Sprintf("print %s", p.Template)
	case step.ExecuteArgs:
		return fmt.Sprintf("exec %s %s", p.Program, strings.Join(p.Args, " "))
	default:
		return fmt.Sprintf("%s", s.Verb)
	}
}

// Text joins every step's rendered line with newlines, the body behind
// {defaults_text} and {etc_text}.
func Text(steps []step.Step) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = Line(s)
	}
	return strings.Join(lines, "\n")
}

func orDefault(mode, fallback uint32) uint32 {
	if mode == 0 {
		return fallback
	}
	return mode
}
