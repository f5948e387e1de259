// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package jailconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPopulatesEveryDirectiveField(t *testing.T) {
	f := Default()
	require.Equal(t, "/var/jails", f.JailBase)
	require.Equal(t, "ldconfig -p", f.LdconfigCmd)
	require.Equal(t, uint(31), f.DefaultUmask)
	require.Equal(t, []string{"/run/shm", "/usr"}, f.DefaultBindPath)
}

func TestParseMissingFileReturnsDefaults(t *testing.T) {
	f, err := Parse(filepath.Join(t.TempDir(), "absent.conf"))
	require.NoError(t, err)
	require.Equal(t, Default(), f)
}

func TestParseOverlaysDirectivesOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jail.conf")
	content := "# comment\njail base = /srv/jails\ndefault umask = 22\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := Parse(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/jails", f.JailBase)
	require.Equal(t, uint(22), f.DefaultUmask)
	require.Equal(t, "ldconfig -p", f.LdconfigCmd, "unrelated directives keep their default")
}

func TestParseRejectsUnknownDirective(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jail.conf")
	require.NoError(t, os.WriteFile(path, []byte("bogus directive = 1\n"), 0o644))

	_, err := Parse(path)
	require.Error(t, err)
}
