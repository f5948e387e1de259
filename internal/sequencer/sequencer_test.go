// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package sequencer

import (
	"bytes"
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jailctl/jailctl/internal/addengine"
	"github.com/jailctl/jailctl/internal/deps"
	"github.com/jailctl/jailctl/internal/mount"
	"github.com/jailctl/jailctl/internal/policy"
	"github.com/jailctl/jailctl/pkg/jlog"
	"github.com/jailctl/jailctl/pkg/properties"
	"github.com/jailctl/jailctl/pkg/step"
)

func newBag(t *testing.T, jailbase string) *properties.Bag {
	t.Helper()
	b := properties.New()
	b.Set("jailbase", jailbase)
	b.Set("jailhome", filepath.Join(jailbase, "alice", "home"))
	b.Set("jailpriv", filepath.Join(jailbase, "alice"))
	b.Set("jailmount", filepath.Join(jailbase, "mnt-alice"))
	return b
}

func newSequencer(t *testing.T, writepathPattern string, bag *properties.Bag) (*Sequencer, *bytes.Buffer) {
	t.Helper()
	allow, err := policy.Compile(writepathPattern)
	require.NoError(t, err)

	jailhome, _ := bag.Get("jailhome")
	jailmount, _ := bag.Get("jailmount")

	buf := &bytes.Buffer{}
	return &Sequencer{
		Bag:    bag,
		Policy: allow,
		AddEngine: &addengine.Engine{
			JailHome: jailhome,
			Resolver: &deps.Resolver{},
		},
		MountCtl: &mount.Controller{
			JailHome:  jailhome,
			JailMount: jailmount,
			Policy:    allow,
			Mounter:   &fakeMounter{},
		},
		Out: buf,
	}, buf
}

type fakeMounter struct {
	mounts []string
}

func (f *fakeMounter) Mount(source, target, fstype string, flags uintptr, data string) error {
	f.mounts = append(f.mounts, target)
	return nil
}
func (f *fakeMounter) Unmount(target string, flags int) error { return nil }

// TestMinimalRunCreatesDirectoryAndPrintsJailHome exercises scenario S1:
// a mkdir followed by a print of {jailhome}.
func TestMinimalRunCreatesDirectoryAndPrintsJailHome(t *testing.T) {
	dir := t.TempDir()
	bag := newBag(t, dir)
	jailhome, _ := bag.Get("jailhome")

	seq, out := newSequencer(t, "^"+dir, bag)

	dst := filepath.Join(jailhome, "var", "empty")
	steps := []step.Step{
		{Verb: step.Mkdir, Payload: step.MkdirArgs{Dst: dst, Mode: 0o755}},
		{Verb: step.Print, Payload: step.PrintArgs{Template: "{jailhome}"}},
	}
	require.NoError(t, seq.Run(steps, Options{}))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.Contains(t, out.String(), jailhome)
}

// TestWritePathViolationBlocksMutationAndReportsPolicyError exercises
// scenario S2: a destination outside writepath must fail the step
// before any syscall, with no mutation.
func TestWritePathViolationBlocksMutationAndReportsPolicyError(t *testing.T) {
	dir := t.TempDir()
	bag := newBag(t, dir)
	seq, _ := newSequencer(t, "^"+filepath.Join(dir, "alice"), bag)

	outside := filepath.Join(dir, "etc", "hack")
	steps := []step.Step{
		{Verb: step.Mkdir, Payload: step.MkdirArgs{Dst: outside, Mode: 0o755}},
	}
	err := seq.Run(steps, Options{})
	require.Error(t, err)

	se, ok := err.(*StepError)
	require.True(t, ok)
	require.Equal(t, Policy, se.Kind)

	_, statErr := os.Stat(outside)
	require.True(t, os.IsNotExist(statErr), "mkdir must not have run")
}

// TestBindDerivationAppliesNosuidAndComplementaryNoexec exercises
// scenario S4: rw/ro binds both end up nosuid, and noexec unless exec
// was requested.
func TestBindDerivationAppliesNosuidAndComplementaryNoexec(t *testing.T) {
	dir := t.TempDir()
	bag := newBag(t, dir)
	jailhome, _ := bag.Get("jailhome")
	require.NoError(t, os.MkdirAll(jailhome, 0o755))

	run := filepath.Join(dir, "run", "shm")
	usr := filepath.Join(dir, "usr")
	require.NoError(t, os.MkdirAll(run, 0o755))
	require.NoError(t, os.MkdirAll(usr, 0o755))

	seq, _ := newSequencer(t, "^"+dir, bag)

	steps := []step.Step{
		{Verb: step.Bind, Payload: step.BindArgs{Srcpath: run, Bindopts: "rw", Path: "run/shm"}},
		{Verb: step.Bind, Payload: step.BindArgs{Srcpath: usr, Bindopts: "ro", Path: "usr"}},
		{Verb: step.Mount, Payload: step.MountArgs{}},
	}
	require.NoError(t, seq.Run(steps, Options{}))
	require.True(t, seq.mounted)

	optsRW := mount.DeriveOptions(run, "rw", jailhome)
	require.Contains(t, optsRW, "rw")
	require.Contains(t, optsRW, "nosuid")
	require.Contains(t, optsRW, "noexec")

	optsRO := mount.DeriveOptions(usr, "ro", jailhome)
	require.Contains(t, optsRO, "ro")
	require.Contains(t, optsRO, "nosuid")
	require.Contains(t, optsRO, "noexec")
}

// TestModeRendersTranscriptWithoutMutatingFilesystem exercises scenario
// S5: under --test, no mutating syscall runs and a shell-equivalent
// transcript is produced instead.
func TestModeRendersTranscriptWithoutMutatingFilesystem(t *testing.T) {
	dir := t.TempDir()
	bag := newBag(t, dir)
	jailhome, _ := bag.Get("jailhome")
	seq, out := newSequencer(t, "^"+dir, bag)

	steps := []step.Step{
		{Verb: step.Defaults, Payload: step.DefaultsArgs{}},
		{Verb: step.Add, Payload: step.AddArgs{Paths: []string{"/bin/ls"}}},
	}
	require.NoError(t, seq.Run(steps, Options{Test: true}))

	_, err := os.Stat(jailhome)
	require.True(t, os.IsNotExist(err), "test mode must not touch the filesystem")
	require.NotEmpty(t, out.String())
}

// TestTrySuppressesOnlyTheImmediatelyFollowingStepFailure covers
// invariant 9 from spec.md §8.
func TestTrySuppressesOnlyTheImmediatelyFollowingStepFailure(t *testing.T) {
	dir := t.TempDir()
	bag := newBag(t, dir)
	seq, _ := newSequencer(t, "^"+dir, bag)

	steps := []step.Step{
		{Verb: step.Rm, Try: true, Payload: step.RmArgs{Dst: filepath.Join(dir, "does-not-exist")}},
		{Verb: step.Rm, Try: false, Payload: step.RmArgs{Dst: filepath.Join(dir, "also-missing")}},
	}
	err := seq.Run(steps, Options{})
	require.Error(t, err, "the second, non-Try step's failure must propagate")
}

func TestCurrentUserSmokeForOwnerResolution(t *testing.T) {
	me, err := user.Current()
	require.NoError(t, err)
	require.NotEmpty(t, me.Username)
}

// TestVerboseRoutesThroughDedicatedLogLevelNotGenericOutput covers
// SPEC_FULL.md's --verbose design note: verbose transcripts are a
// dedicated jlog level, not the sequencer's own Out writer.
func TestVerboseRoutesThroughDedicatedLogLevelNotGenericOutput(t *testing.T) {
	dir := t.TempDir()
	bag := newBag(t, dir)
	seq, out := newSequencer(t, "^"+dir, bag)

	logBuf := &bytes.Buffer{}
	prevWriter := jlog.SetWriter(logBuf)
	prevLevel := jlog.GetLevel()
	defer func() {
		jlog.SetWriter(prevWriter)
		jlog.SetLevel(prevLevel)
	}()

	steps := []step.Step{
		{Verb: step.Print, Payload: step.PrintArgs{Template: "hello"}},
	}
	require.NoError(t, seq.Run(steps, Options{Verbose: true}))

	require.Contains(t, logBuf.String(), "VERBOSE")
	require.Contains(t, logBuf.String(), "print hello")
	require.Equal(t, "hello\n", out.String(), "the step's own --print output still goes to Out")
}

// TestPasswdStepWritesAccountLineIntoJailEtc covers the --passwd
// command of spec §4.G against the real, unstubbed identity resolver.
func TestPasswdStepWritesAccountLineIntoJailEtc(t *testing.T) {
	me, err := user.Current()
	require.NoError(t, err)

	dir := t.TempDir()
	bag := newBag(t, dir)
	bag.Set("user", me.Username)
	bag.Set("group", "")
	jailhome, _ := bag.Get("jailhome")
	require.NoError(t, os.MkdirAll(jailhome, 0o755))

	seq, _ := newSequencer(t, "^"+dir, bag)

	steps := []step.Step{
		{Verb: step.Passwd, Payload: step.PasswdArgs{}},
	}
	require.NoError(t, seq.Run(steps, Options{}))

	content, err := os.ReadFile(filepath.Join(jailhome, "etc", "passwd"))
	require.NoError(t, err)
	require.Contains(t, string(content), me.Username+":x:")

	groupContent, err := os.ReadFile(filepath.Join(jailhome, "etc", "group"))
	require.NoError(t, err)
	require.Contains(t, string(groupContent), me.Username+":x:")
}
