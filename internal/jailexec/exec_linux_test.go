// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package jailexec

import (
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildEnvReducesToCanonicalSetPlusPrefix(t *testing.T) {
	os.Setenv("JAILBASE", "/var/jails")
	os.Setenv("SECRET_TOKEN", "leak-me-not")
	defer os.Unsetenv("SECRET_TOKEN")

	e := &Executor{}
	env := e.buildEnv([]string{"FOO=bar"})

	names := make([]string, len(env))
	for i, kv := range env {
		names[i] = kv
	}
	sort.Strings(names)

	require.Contains(t, env, "JAILBASE=/var/jails")
	require.Contains(t, env, "FOO=bar")
	for _, kv := range env {
		require.NotContains(t, kv, "SECRET_TOKEN", "only the canonical set and explicit prefixes may pass through")
	}
}

func TestLookPathReturnsAbsoluteProgramUnchanged(t *testing.T) {
	got, err := lookPath("/bin/true")
	require.NoError(t, err)
	require.Equal(t, "/bin/true", got)
}
