// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package policy implements the write-path allowlist (spec §4.B): every
// destination a step is about to mutate is checked against a compiled
// regex before any syscall runs.
package policy

import (
	"regexp"

	"github.com/pkg/errors"
)

// ErrOutsideWritePath is wrapped into the error returned by Check when a
// path does not match the compiled allowlist.
var ErrOutsideWritePath = errors.New("policy: path outside writepath")

// Allowlist compiles a writepath regex once and checks candidate
// mutation targets against it.
type Allowlist struct {
	rx *regexp.Regexp
}

// Compile compiles pattern once for reuse across an entire run.
func Compile(pattern string) (*Allowlist, error) {
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "policy: invalid writepath pattern %q", pattern)
	}
	return &Allowlist{rx: rx}, nil
}

// Check returns nil if path matches the allowlist, or a wrapped
// ErrOutsideWritePath otherwise. Every clone/mkdir/chmod/chown/chflags/
// mknod/ln-s/rm/rmdir/touch/remove/clean destination and every mount
// point must pass Check before any syscall is issued.
func (a *Allowlist) Check(path string) error {
	if a.rx.MatchString(path) {
		return nil
	}
	return errors.Wrapf(ErrOutsideWritePath, "%s", path)
}
