// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckAllowsMatchingPath(t *testing.T) {
	a, err := Compile(`^/var/jails/`)
	require.NoError(t, err)
	require.NoError(t, a.Check("/var/jails/alice/home/etc"))
}

func TestCheckRejectsNonMatchingPath(t *testing.T) {
	a, err := Compile(`^/var/jails/`)
	require.NoError(t, err)
	err = a.Check("/etc/hack")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrOutsideWritePath)
}

func TestCompileRejectsBadPattern(t *testing.T) {
	_, err := Compile(`(unclosed`)
	require.Error(t, err)
}
