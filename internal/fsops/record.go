// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package fsops implements the primitive file operations of spec §4.C:
// clone, chmod, chown, chflags, mknod, ln-s, mkdir, rm, rmdir, touch.
//
// It is grounded on the teacher's
// internal/pkg/build/sources/base_environment.go (makeDirs/makeSymlinks/
// makeFile — an overwrite-aware, idempotent-where-stated file builder)
// generalized from a fixed embedded file list to arbitrary clone
// sources, plus internal/pkg/util/fs/files/passwd.go's pattern of
// reading a host attribute record and re-committing it to a new
// location.
package fsops

import (
	"os"
	"syscall"
	"time"
)

// FileType enumerates the clone-relevant file types from spec §3.
type FileType int

const (
	TypeRegular FileType = iota
	TypeDirectory
	TypeSymlink
	TypeCharDevice
	TypeBlockDevice
	TypeOther
)

// Record is the transient clone record read from a source path: the
// attributes spec.md §3 says are read from the source and projected
// onto the destination.
type Record struct {
	Type    FileType
	Mode    os.FileMode // permission bits only
	UID     int
	GID     int
	ModTime time.Time
	Flags   uint32 // best-effort, platform-dependent (spec §4.C)

	// SymlinkTarget holds the link text for TypeSymlink.
	SymlinkTarget string
	// Rdev holds the packed device number for char/block devices.
	Rdev uint64
}

// Stat reads the Record for path without following a terminal symlink,
// matching spec.md's "symlinks are preserved, not followed" invariant.
func Stat(path string) (Record, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Mode:    fi.Mode().Perm(),
		ModTime: fi.ModTime(),
	}

	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		rec.Type = TypeSymlink
		target, err := os.Readlink(path)
		if err != nil {
			return Record{}, err
		}
		rec.SymlinkTarget = target
	case fi.IsDir():
		rec.Type = TypeDirectory
	case fi.Mode()&os.ModeDevice != 0:
		if fi.Mode()&os.ModeCharDevice != 0 {
			rec.Type = TypeCharDevice
		} else {
			rec.Type = TypeBlockDevice
		}
	case fi.Mode().IsRegular():
		rec.Type = TypeRegular
	default:
		rec.Type = TypeOther
	}

	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		rec.UID = int(sys.Uid)
		rec.GID = int(sys.Gid)
		rec.Rdev = uint64(sys.Rdev)
	}
	rec.Flags = readFlags(path)

	return rec, nil
}
