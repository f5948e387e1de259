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
	"path/filepath"

	"github.com/pkg/errors"
)

// Mkdir creates dst with mode (0750 if mode is zero) and, if owner
// resolves, sets ownership. Missing parent directories are created with
// mode 0750. If dst exists and is a directory, it succeeds and
// re-applies the mode bits, per spec §4.C.
func Mkdir(dst string, mode os.FileMode, uid, gid int, hasOwner bool) error {
	if mode == 0 {
		mode = 0o750
	}

	if fi, err := os.Stat(dst); err == nil {
		if !fi.IsDir() {
			return errors.Errorf("mkdir: %s exists and is not a directory", dst)
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
			return errors.Wrapf(err, "mkdir: parents of %s", dst)
		}
		if err := os.Mkdir(dst, mode); err != nil {
			return errors.Wrapf(err, "mkdir %s", dst)
		}
	} else {
		return errors.Wrapf(err, "mkdir: stat %s", dst)
	}

	if err := os.Chmod(dst, mode); err != nil {
		return errors.Wrapf(err, "mkdir: chmod %s", dst)
	}
	if hasOwner {
		if err := os.Lchown(dst, uid, gid); err != nil {
			return errors.Wrapf(err, "mkdir: chown %s", dst)
		}
	}
	return nil
}
