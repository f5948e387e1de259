// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jailctl/jailctl/internal/policy"
)

type recordedMount struct {
	source, target, fstype string
	flags                  uintptr
	data                   string
}

type fakeMounter struct {
	mounts    []recordedMount
	unmounted []string
}

func (f *fakeMounter) Mount(source, target, fstype string, flags uintptr, data string) error {
	f.mounts = append(f.mounts, recordedMount{source, target, fstype, flags, data})
	return nil
}

func (f *fakeMounter) Unmount(target string, flags int) error {
	f.unmounted = append(f.unmounted, target)
	return nil
}

func allowAll(t *testing.T) *policy.Allowlist {
	t.Helper()
	a, err := policy.Compile(".*")
	require.NoError(t, err)
	return a
}

func TestMountBindsJailHomeOntoJailMountWithNosuid(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, "home")
	mountPoint := filepath.Join(dir, "mnt")
	require.NoError(t, os.MkdirAll(home, 0o755))

	fm := &fakeMounter{}
	c := &Controller{JailHome: home, JailMount: mountPoint, Policy: allowAll(t), Mounter: fm}
	require.NoError(t, c.Mount())

	require.Len(t, fm.mounts, 1)
	require.Equal(t, home, fm.mounts[0].source)
	require.Equal(t, mountPoint, fm.mounts[0].target)
}

func TestMountAppliesBindDirectivesOnlyWhenSourceExists(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, "home")
	mountPoint := filepath.Join(dir, "mnt")
	present := filepath.Join(dir, "present")
	require.NoError(t, os.MkdirAll(home, 0o755))
	require.NoError(t, os.MkdirAll(present, 0o755))

	fm := &fakeMounter{}
	c := &Controller{
		JailHome:  home,
		JailMount: mountPoint,
		Policy:    allowAll(t),
		Mounter:   fm,
		Binds: []Bind{
			{Srcpath: present, Path: "present"},
			{Srcpath: filepath.Join(dir, "absent"), Path: "absent"},
		},
	}
	require.NoError(t, c.Mount())

	require.Len(t, fm.mounts, 2, "bind mount is bound jailhome + the one present bind")
	require.Equal(t, present, fm.mounts[1].source)
}

func TestDeriveOptionsAutoUnderJailHomeIsExecRO(t *testing.T) {
	opts := DeriveOptions("/home/jail/bin", "auto", "/home/jail")
	require.Contains(t, opts, "exec")
	require.Contains(t, opts, "ro")
	require.Contains(t, opts, "nosuid")
}

func TestDeriveOptionsExplicitAlwaysGetsNosuidAndNoexec(t *testing.T) {
	opts := DeriveOptions("/usr/lib", "ro", "/home/jail")
	require.Contains(t, opts, "ro")
	require.Contains(t, opts, "noexec")
	require.Contains(t, opts, "nosuid")
}

func TestDeriveOptionsExplicitExecOmitsNoexec(t *testing.T) {
	opts := DeriveOptions("/usr/bin", "exec,ro", "/home/jail")
	require.NotContains(t, opts, "noexec")
	require.Contains(t, opts, "nosuid")
}
