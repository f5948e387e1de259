// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package fsops

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

// applyAttrs sets permission bits, uid/gid, flags, and mtime on dst from
// rec, after the clone body has been written (spec §4.C: "After the
// body, permission bits, uid/gid, file flags..., and mtime are set from
// source").
func applyAttrs(dst string, rec Record) error {
	if rec.Type != TypeSymlink {
		if err := os.Chmod(dst, rec.Mode); err != nil {
			return errors.Wrapf(err, "chmod %s", dst)
		}
	}
	if err := os.Lchown(dst, rec.UID, rec.GID); err != nil {
		return errors.Wrapf(err, "chown %s", dst)
	}
	if err := applyFlags(dst, rec.Flags); err != nil {
		return errors.Wrapf(err, "chflags %s", dst)
	}
	if rec.Type != TypeSymlink {
		if err := os.Chtimes(dst, rec.ModTime, rec.ModTime); err != nil {
			return errors.Wrapf(err, "touch %s", dst)
		}
	}
	return nil
}

// Chmod sets dst's permission bits.
func Chmod(dst string, mode os.FileMode) error {
	return errors.Wrapf(os.Chmod(dst, mode), "chmod %s", dst)
}

// Chown sets dst's uid/gid (does not follow a terminal symlink).
func Chown(dst string, uid, gid int) error {
	return errors.Wrapf(os.Lchown(dst, uid, gid), "chown %s", dst)
}

// Chflags applies a best-effort, platform-dependent flags value to dst.
func Chflags(dst string, flags uint32) error {
	return errors.Wrapf(applyFlags(dst, flags), "chflags %s", dst)
}

// touchLayout is the stamp format accepted by the touch step, per
// spec §4.C: "%Y%m%d%H%M.%S".
const touchLayout = "200601021504.05"

// Touch creates dst if missing and sets its mtime/atime to stamp, or to
// now if stamp is empty.
func Touch(dst, stamp string) error {
	when := time.Now()
	if stamp != "" {
		parsed, err := time.ParseInLocation(touchLayout, stamp, time.Local)
		if err != nil {
			return errors.Wrapf(err, "touch: invalid stamp %q", stamp)
		}
		when = parsed
	}

	if f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
		return errors.Wrapf(err, "touch %s", dst)
	} else {
		f.Close()
	}

	return errors.Wrapf(os.Chtimes(dst, when, when), "touch %s", dst)
}

// Remove removes a single file or symlink.
func Remove(dst string) error {
	return errors.Wrapf(os.Remove(dst), "rm %s", dst)
}

// Rmdir removes dst, which must be an empty directory.
func Rmdir(dst string) error {
	return errors.Wrapf(os.Remove(dst), "rmdir %s", dst)
}
