// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jailctl/jailctl/pkg/step"
)

func TestParseMinimalMkdirAndPrint(t *testing.T) {
	r, err := Parse([]string{"alice", "--mkdir", "/var/empty", "0755", "alice:alice", "--print", "{jailhome}"})
	require.NoError(t, err)
	require.Equal(t, "alice", r.User)
	require.Len(t, r.Steps, 2)

	mk := r.Steps[0].Payload.(step.MkdirArgs)
	require.Equal(t, "/var/empty", mk.Dst)
	require.Equal(t, uint32(0o755), mk.Mode)
	require.Equal(t, "alice:alice", mk.Owner)
}

func TestParseRecognizesOptionsAnywhereOnTheLine(t *testing.T) {
	r, err := Parse([]string{"--writepath", "^/var/jails/", "bob", "-t", "--mkdir", "/x", "0755"})
	require.NoError(t, err)
	require.Equal(t, "^/var/jails/", r.Options.WritePath)
	require.True(t, r.Options.Test)
	require.Equal(t, "bob", r.User)
}

func TestParseUserGroupSplit(t *testing.T) {
	r, err := Parse([]string{"carol:staff", "--mount"})
	require.NoError(t, err)
	require.Equal(t, "carol", r.User)
	require.Equal(t, "staff", r.Group)
	require.Equal(t, step.Mount, r.Steps[0].Verb)
}

func TestParseShortDAliasesDefaults(t *testing.T) {
	r, err := Parse([]string{"dave", "-d"})
	require.NoError(t, err)
	require.Len(t, r.Steps, 1)
	require.Equal(t, step.Defaults, r.Steps[0].Verb)
}

func TestParseTryMarksOnlyTheNextStep(t *testing.T) {
	r, err := Parse([]string{"erin", "--try", "--rm", "/a", "--rm", "/b"})
	require.NoError(t, err)
	require.True(t, r.Steps[0].Try)
	require.False(t, r.Steps[1].Try)
}

func TestParseDoubleDashIsExecuteSynonym(t *testing.T) {
	r, err := Parse([]string{"frank", "--", "./run", "arg1"})
	require.NoError(t, err)
	exec := r.Steps[0].Payload.(step.ExecuteArgs)
	require.Equal(t, "./run", exec.Program)
	require.Equal(t, []string{"arg1"}, exec.Args)
}

func TestParseAddGreedilyConsumesPathsUntilNextFlag(t *testing.T) {
	r, err := Parse([]string{"gina", "--add", "/bin/ls", "/bin/cat", "--mount"})
	require.NoError(t, err)
	add := r.Steps[0].Payload.(step.AddArgs)
	require.Equal(t, []string{"/bin/ls", "/bin/cat"}, add.Paths)
	require.Equal(t, step.Mount, r.Steps[1].Verb)
}

func TestParseBindDerivesPathFromSrcpath(t *testing.T) {
	r, err := Parse([]string{"hank", "--bind", "/run/shm", "rw"})
	require.NoError(t, err)
	bind := r.Steps[0].Payload.(step.BindArgs)
	require.Equal(t, "/run/shm", bind.Srcpath)
	require.Equal(t, "rw", bind.Bindopts)
	require.Equal(t, "run/shm", bind.Path)
}

func TestParseMissingUserErrors(t *testing.T) {
	_, err := Parse([]string{"--mount"})
	require.Error(t, err)
}
