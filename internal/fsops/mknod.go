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
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Mknod creates a character or block device node at dst with the given
// major and (optional) minor device numbers. If minor is nil, major is
// treated as an already-packed device number (spec §4.C). If dst
// exists, it must be the same type and devnum.
func Mknod(dst string, devType rune, major uint32, minor *uint32) error {
	var rdev uint64
	if minor == nil {
		rdev = uint64(major)
	} else {
		rdev = unix.Mkdev(major, *minor)
	}

	wantType := TypeCharDevice
	mode := uint32(0o666) | unix.S_IFCHR
	if devType == 'b' {
		wantType = TypeBlockDevice
		mode = uint32(0o666) | unix.S_IFBLK
	} else if devType != 'c' {
		return errors.Errorf("mknod: unknown device type %q", string(devType))
	}

	if existing, err := Stat(dst); err == nil {
		if existing.Type != wantType || existing.Rdev != rdev {
			return errors.Wrapf(ErrTypeMismatch, "%s", dst)
		}
		return nil
	}

	return errors.Wrapf(unix.Mknod(dst, mode, int(rdev)), "mknod %s", dst)
}
