// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package properties

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandSubstitutesKnownNames(t *testing.T) {
	b := New()
	b.Set("jailbase", "/var/jails")
	b.Set("user", "alice")

	got, err := b.Expand("{jailbase}/{user}/home")
	require.NoError(t, err)
	require.Equal(t, "/var/jails/alice/home", got)
}

func TestExpandFailsOnUnknownName(t *testing.T) {
	b := New()
	_, err := b.Expand("{nope}")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnknownProperty)
}

func TestExpandDoesNotRecurse(t *testing.T) {
	b := New()
	b.Set("a", "{b}")
	b.Set("b", "final")

	got, err := b.Expand("{a}")
	require.NoError(t, err)
	require.Equal(t, "{b}", got, "expansion must be single-pass, not recursive")
}

func TestExpandReflectsLatestValue(t *testing.T) {
	b := New()
	b.Set("uid", "1000")
	first, err := b.Expand("{uid}")
	require.NoError(t, err)
	require.Equal(t, "1000", first)

	b.Set("uid", "1001")
	second, err := b.Expand("{uid}")
	require.NoError(t, err)
	require.Equal(t, "1001", second, "interpolation must use the value at step-run time")
}

func TestSnapshotIsACopy(t *testing.T) {
	b := New()
	b.Set("k", "v")
	snap := b.Snapshot()
	snap["k"] = "mutated"

	got, err := b.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}
