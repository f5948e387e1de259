// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package deps

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func stubResolver(t *testing.T, loaderOut, listOut string) *Resolver {
	t.Helper()
	calls := 0
	return &Resolver{
		LoaderDiscovery: Collaborator{
			CommandTemplate: "ldconfig -p",
			Pattern:         regexp.MustCompile(`=>\s*(\S+)`),
		},
		DependencyList: Collaborator{
			CommandTemplate: "{ldlinux_so} --list {path}",
			Pattern:         regexp.MustCompile(`(/\S+)`),
		},
		Runner: func(command string) ([]byte, error) {
			calls++
			if calls == 1 {
				return []byte(loaderOut), nil
			}
			return []byte(listOut), nil
		},
	}
}

func TestLoaderPicksFirstExistingExecutableMatch(t *testing.T) {
	dir := t.TempDir()
	loader := filepath.Join(dir, "ld-linux.so.2")
	require.NoError(t, os.WriteFile(loader, []byte("x"), 0o755))

	r := stubResolver(t, "libc.so.6 => /nonexistent\nld-linux.so.2 => "+loader+"\n", "")
	got, err := r.Loader()
	require.NoError(t, err)
	require.Equal(t, loader, got)
}

func TestLoaderCachesResult(t *testing.T) {
	dir := t.TempDir()
	loader := filepath.Join(dir, "ld-linux.so.2")
	require.NoError(t, os.WriteFile(loader, []byte("x"), 0o755))

	calls := 0
	r := &Resolver{
		LoaderDiscovery: Collaborator{Pattern: regexp.MustCompile(`=>\s*(\S+)`)},
		Runner: func(string) ([]byte, error) {
			calls++
			return []byte("x => " + loader), nil
		},
	}
	_, err := r.Loader()
	require.NoError(t, err)
	_, err = r.Loader()
	require.NoError(t, err)
	require.Equal(t, 1, calls, "loader discovery command must run once per resolver")
}

func TestDependenciesIncludesLoaderAndDedupsDiscardsNonExistent(t *testing.T) {
	dir := t.TempDir()
	loader := filepath.Join(dir, "ld-linux.so.2")
	require.NoError(t, os.WriteFile(loader, []byte("x"), 0o755))
	libc := filepath.Join(dir, "libc.so.6")
	require.NoError(t, os.WriteFile(libc, []byte("x"), 0o644))

	r := stubResolver(t,
		"ld-linux.so.2 => "+loader+"\n",
		libc+"\n"+libc+"\n/does/not/exist\n",
	)

	got, err := r.Dependencies("/bin/true")
	require.NoError(t, err)
	require.Contains(t, got, loader)
	require.Contains(t, got, libc)
	require.Len(t, got, 2, "duplicate and non-existent paths must be dropped")
}

func TestDependenciesWarnsWhenNoneFound(t *testing.T) {
	dir := t.TempDir()
	loader := filepath.Join(dir, "ld-linux.so.2")
	require.NoError(t, os.WriteFile(loader, []byte("x"), 0o755))

	r := stubResolver(t, "ld-linux.so.2 => "+loader+"\n", "")
	_, err := r.Dependencies("/bin/true")
	require.Error(t, err)
	require.True(t, IsNoDependenciesWarning(err))
}
