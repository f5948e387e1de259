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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMkdirCreatesWithMode(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "d")

	require.NoError(t, Mkdir(dst, 0o755, 0, 0, false))

	fi, err := os.Stat(dst)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
	require.Equal(t, os.FileMode(0o755), fi.Mode().Perm())
}

func TestMkdirSucceedsWhenAlreadyADirectory(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "d")
	require.NoError(t, os.Mkdir(dst, 0o700))

	require.NoError(t, Mkdir(dst, 0o755, 0, 0, false))

	fi, err := os.Stat(dst)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), fi.Mode().Perm())
}

func TestMkdirFailsWhenDestinationIsAFile(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(dst, []byte("x"), 0o644))

	require.Error(t, Mkdir(dst, 0o755, 0, 0, false))
}

func TestLnSIsIdempotentForSameTarget(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")

	require.NoError(t, LnS("/a/target", link))
	require.NoError(t, LnS("/a/target", link))

	got, err := os.Readlink(link)
	require.NoError(t, err)
	require.Equal(t, "/a/target", got)
}

func TestLnSRejectsConflictingExistingLink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink("/other", link))

	require.Error(t, LnS("/a/target", link))
}
