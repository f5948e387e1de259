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

	"github.com/pkg/errors"
)

// LnS creates a symlink at link pointing to target. If link already
// exists it must already point to target, per spec §4.C.
func LnS(target, link string) error {
	if existing, err := os.Readlink(link); err == nil {
		if existing == target {
			return nil
		}
		return errors.Errorf("ln-s: %s already exists and points to %s, not %s", link, existing, target)
	}
	return errors.Wrapf(os.Symlink(target, link), "ln-s %s -> %s", link, target)
}
