// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswdAppendsNewAccountToMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passwd")
	require.NoError(t, Passwd(path, Entry{Name: "alice", UID: 1000, GID: 1000, Home: "/home/alice"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "alice:x:1000:1000::/home/alice:/bin/sh")
}

func TestPasswdReplacesExistingLineForSameUID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passwd")
	require.NoError(t, os.WriteFile(path, []byte("root:x:0:0::/root:/bin/sh\nalice:x:1000:1000::/old:/bin/bash\n"), 0o644))

	require.NoError(t, Passwd(path, Entry{Name: "alice", UID: 1000, GID: 1000, Home: "/home/alice"}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "root:x:0:0::/root:/bin/sh")
	require.Contains(t, string(content), "alice:x:1000:1000::/home/alice:/bin/sh")
	require.NotContains(t, string(content), "/old")
}

func TestGroupAppendsNewGroupToMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "group")
	require.NoError(t, Group(path, Entry{Name: "alice", UID: 1000, GID: 1000}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "alice:x:1000:alice")
}

func TestGroupReplacesExistingLineForSameGID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "group")
	require.NoError(t, os.WriteFile(path, []byte("staff:x:1000:bob\n"), 0o644))

	require.NoError(t, Group(path, Entry{Name: "alice", UID: 1000, GID: 1000}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(content), "alice:x:1000:alice")
	require.NotContains(t, string(content), "staff:x:1000:bob")
}
