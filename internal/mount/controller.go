// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package mount implements the jail mount/unmount controller of
// spec §4.F: bind-mounting the private jail home onto the live mount
// point, and overlaying registered bind directives with derived
// options.
//
// Grounded on the bind-flag derivation in the teacher's
// internal/pkg/runtime/engine/apptainer/container_linux.go
// (nosuid/noexec handling around addBindsMount/getBindFlags) and on the
// direct syscall.Mount/Unmount calls used for the same purpose across
// the retrieval pack's chroot/namespace tooling (wfaler-jail's
// setupJailAndExec, xibz-firecracker-go-sdk's bindMount).
package mount

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/jailctl/jailctl/internal/fsops"
	"github.com/jailctl/jailctl/internal/policy"
)

// Bind is a registered bind directive: mount srcpath at
// {jailmount}/path with options derived (or explicit) at mount time.
type Bind struct {
	Srcpath  string
	Bindopts string // "" or "auto" triggers derivation
	Path     string
}

// Mounter performs the actual privileged mount/unmount syscalls. Real
// runs use SyscallMounter; tests substitute a recording fake. Under
// --test the sequencer prints the step instead of invoking the
// controller, so no Mounter call is made at all.
type Mounter interface {
	Mount(source, target, fstype string, flags uintptr, data string) error
	Unmount(target string, flags int) error
}

// SyscallMounter issues real bind-mount and unmount syscalls.
type SyscallMounter struct{}

func (SyscallMounter) Mount(source, target, fstype string, flags uintptr, data string) error {
	return unix.Mount(source, target, fstype, flags, data)
}

func (SyscallMounter) Unmount(target string, flags int) error {
	return unix.Unmount(target, flags)
}

// Controller owns the Unmounted -> Mounted transition for one jail.
type Controller struct {
	JailHome  string
	JailMount string
	Binds     []Bind
	Policy    *policy.Allowlist
	Mounter   Mounter
}

// Mount bind-mounts JailHome onto JailMount with nosuid, then applies
// every registered bind directive, per spec §4.F.
func (c *Controller) Mount() error {
	if err := c.Policy.Check(c.JailMount); err != nil {
		return err
	}
	if err := fsops.Mkdir(c.JailMount, 0o750, 0, 0, false); err != nil {
		return errors.Wrapf(err, "mount: preparing mount point %s", c.JailMount)
	}
	if err := c.Mounter.Mount(c.JailHome, c.JailMount, "", unix.MS_BIND|unix.MS_NOSUID, ""); err != nil {
		return errors.Wrapf(err, "mount: bind %s -> %s", c.JailHome, c.JailMount)
	}

	for _, b := range c.Binds {
		if err := c.applyBind(b); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) applyBind(b Bind) error {
	if _, err := os.Stat(b.Srcpath); err != nil {
		return nil // optional binds are skipped silently when absent
	}

	opts := DeriveOptions(b.Srcpath, b.Bindopts, c.JailHome)
	mountPoint := filepath.Join(c.JailHome, b.Path)
	if err := c.Policy.Check(mountPoint); err != nil {
		return err
	}
	if err := fsops.Mkdir(mountPoint, 0o750, 0, 0, false); err != nil {
		return errors.Wrapf(err, "mount: preparing bind point %s", mountPoint)
	}

	target := filepath.Join(c.JailMount, b.Path)
	flags := flagsFromOptions(opts)
	if err := c.Mounter.Mount(b.Srcpath, target, "", flags, ""); err != nil {
		return errors.Wrapf(err, "mount: bind %s -> %s", b.Srcpath, target)
	}
	return nil
}

// DeriveOptions computes the bind-mount options for srcpath, per
// spec §4.F: explicit non-"auto" options are normalized (nosuid always
// added, noexec added unless exec was requested); "auto"/empty options
// are derived from whether srcpath is under jailHome (exec,ro) or
// writable by the host process (rw, else ro).
func DeriveOptions(srcpath, bindopts, jailHome string) []string {
	var opts []string
	if bindopts == "" || bindopts == "auto" {
		if strings.HasPrefix(srcpath, jailHome) {
			opts = []string{"exec", "ro"}
		} else if isWritable(srcpath) {
			opts = []string{"rw"}
		} else {
			opts = []string{"ro"}
		}
	} else {
		opts = strings.Split(bindopts, ",")
	}

	hasExec := false
	hasNosuid := false
	for _, o := range opts {
		switch o {
		case "exec":
			hasExec = true
		case "nosuid":
			hasNosuid = true
		}
	}
	if !hasExec {
		opts = append(opts, "noexec")
	}
	if !hasNosuid {
		opts = append(opts, "nosuid")
	}
	return opts
}

func isWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}

func flagsFromOptions(opts []string) uintptr {
	var flags uintptr = unix.MS_BIND
	for _, o := range opts {
		switch o {
		case "nosuid":
			flags |= unix.MS_NOSUID
		case "noexec":
			flags |= unix.MS_NOEXEC
		case "ro":
			flags |= unix.MS_RDONLY
		}
	}
	return flags
}

// Umount enumerates every active mount at or beneath JailMount (from
// the host's mount table), unmounts them longest-path-first, and
// finishes in the Unmounted state even if individual unmounts report
// "not mounted" (spec §4.F).
func (c *Controller) Umount(lazy bool) error {
	points, err := ActiveMountsUnder(c.JailMount)
	if err != nil {
		return errors.Wrap(err, "umount: reading mount table")
	}

	sort.Slice(points, func(i, j int) bool { return len(points[i]) > len(points[j]) })

	flags := 0
	if lazy {
		flags = unix.MNT_DETACH
	}
	for _, p := range points {
		if err := c.Mounter.Unmount(p, flags); err != nil && !errors.Is(err, unix.EINVAL) {
			return errors.Wrapf(err, "umount %s", p)
		}
	}
	return nil
}
