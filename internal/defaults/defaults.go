// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package defaults implements the curated-content provider of spec
// §4.G: the /etc file list, /dev node list, and /tmp layout that
// --defaults, --etc, --dev, and --tmp expand into. Grounded directly on
// the teacher's internal/pkg/build/sources/base_environment.go, whose
// makeDirs/makeFiles populate an analogous minimal environment from
// curated, data-driven lists rather than hardcoded control flow.
package defaults

import (
	"github.com/jailctl/jailctl/pkg/step"
)

// EtcFiles is the curated set of /etc entries cloned from the host into
// every jail under --etc, the open-question data list from spec.md §9.
var EtcFiles = []string{
	"hosts",
	"resolv.conf",
	"nsswitch.conf",
	"localtime",
	"hostname",
	"host.conf",
}

// DeviceNode is one curated /dev entry with its canonical Linux
// major/minor.
type DeviceNode struct {
	Name  string
	Type  rune
	Major uint32
	Minor uint32
}

// DeviceNodes is the curated /dev set created under --dev.
var DeviceNodes = []DeviceNode{
	{Name: "null", Type: 'c', Major: 1, Minor: 3},
	{Name: "zero", Type: 'c', Major: 1, Minor: 5},
	{Name: "random", Type: 'c', Major: 1, Minor: 8},
	{Name: "urandom", Type: 'c', Major: 1, Minor: 9},
	{Name: "tty", Type: 'c', Major: 5, Minor: 0},
}

// Etc expands the --etc command: create /etc, then clone each curated
// file from the host /etc into the jail's /etc.
func Etc() []step.Step {
	steps := []step.Step{
		{Verb: step.Mkdir, Payload: step.MkdirArgs{Dst: "{jailhome}/etc", Mode: 0o755}},
	}
	for _, name := range EtcFiles {
		steps = append(steps, step.Step{
			Verb: step.Clone,
			Payload: step.CloneArgs{
				Src: "/etc/" + name,
				Dst: "{jailhome}/etc/" + name,
			},
			Try: true, // a missing host /etc entry must not abort --defaults
		})
	}
	return steps
}

// Dev expands the --dev command: create /dev, then mknod each curated
// device with its canonical major/minor.
func Dev() []step.Step {
	steps := []step.Step{
		{Verb: step.Mkdir, Payload: step.MkdirArgs{Dst: "{jailhome}/dev", Mode: 0o755}},
	}
	for _, d := range DeviceNodes {
		minor := d.Minor
		steps = append(steps, step.Step{
			Verb: step.Mknod,
			Payload: step.MknodArgs{
				Dst:   "{jailhome}/dev/" + d.Name,
				Type:  d.Type,
				Major: d.Major,
				Minor: &minor,
			},
		})
	}
	return steps
}

// Tmp expands the --tmp command: create the conventional, world-writable
// sticky /tmp directory.
func Tmp() []step.Step {
	return []step.Step{
		{Verb: step.Mkdir, Payload: step.MkdirArgs{Dst: "{jailhome}/tmp", Mode: 0o1777}},
	}
}

// Defaults expands the --defaults command into the full curated
// sequence: etc, dev, tmp, and (when DNS is requested) the NSS shim
// libraries, followed by passwd/group synchronization.
func Defaults(dns bool) []step.Step {
	var steps []step.Step
	steps = append(steps, Etc()...)
	steps = append(steps, Dev()...)
	steps = append(steps, Tmp()...)
	if dns {
		steps = append(steps, dnsSteps()...)
	}
	steps = append(steps, step.Step{Verb: step.Passwd, Payload: step.PasswdArgs{}})
	return steps
}
