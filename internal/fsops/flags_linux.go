// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

//go:build linux

package fsops

// readFlags returns the best-effort file-flags value for path. Linux has
// no BSD-style chflags(2); extended attribute flags (FS_IOC_GETFLAGS)
// are a different, filesystem-specific mechanism that most of the
// container/jail tooling in the retrieval pack does not touch either.
// Per spec.md §4.C, chflags support is explicitly "best-effort,
// platform-dependent" — on Linux that best effort is a no-op: reads
// always return 0, and a value passed to Chflags (attrs.go) is accepted
// but not stored anywhere.
func readFlags(path string) uint32 {
	return 0
}

// applyFlags is the Linux best-effort implementation: it accepts the
// value without error, since there is no portable per-file flags
// syscall to apply it through on a plain POSIX filesystem.
func applyFlags(path string, flags uint32) error {
	return nil
}
