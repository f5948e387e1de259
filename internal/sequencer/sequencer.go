// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package sequencer implements the command sequencer of spec §4.H: it
// runs an ordered step list against a property namespace, expanding
// templated arguments, enforcing the write-path policy, invoking each
// step's handler, and honoring --try/--test/--verbose.
//
// Grounded on the teacher's ordered-call pattern in
// internal/pkg/runtime/engine/apptainer (a fixed sequence of addXMount
// calls over a mount.System) and on xibz-firecracker-go-sdk's
// Handlers.FcInit chain, generalized here from a compile-time call
// sequence into a runtime-ordered slice of step.Step values matched by a
// type switch, per the tagged-union design note.
package sequencer

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/jailctl/jailctl/internal/accounts"
	"github.com/jailctl/jailctl/internal/addengine"
	"github.com/jailctl/jailctl/internal/defaults"
	"github.com/jailctl/jailctl/internal/deps"
	"github.com/jailctl/jailctl/internal/fsops"
	"github.com/jailctl/jailctl/internal/identity"
	"github.com/jailctl/jailctl/internal/mount"
	"github.com/jailctl/jailctl/internal/policy"
	"github.com/jailctl/jailctl/internal/stepfmt"
	"github.com/jailctl/jailctl/pkg/jlog"
	"github.com/jailctl/jailctl/pkg/properties"
	"github.com/jailctl/jailctl/pkg/step"
)

// Executor runs the terminal --execute step (spec §4.I). It is
// interface-abstracted here the way the Resolver and Mounter
// collaborators are, so the sequencer's tests never need real
// chroot/setuid privileges.
type Executor interface {
	Execute(args step.ExecuteArgs) error
}

// Options holds the run-wide flags spec §4.H describes.
type Options struct {
	Test    bool
	Verbose bool
}

// Sequencer owns one jail build run: the property bag, the compiled
// write-path policy, and every collaborator a step might dispatch to.
type Sequencer struct {
	Bag      *properties.Bag
	Policy   *policy.Allowlist
	AddEngine *addengine.Engine
	Resolver *deps.Resolver
	MountCtl *mount.Controller
	Executor Executor
	Out      io.Writer

	mounted bool
}

func (s *Sequencer) out() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return os.Stdout
}

// Run executes steps in order under opts, per spec §4.H.
func (s *Sequencer) Run(steps []step.Step, opts Options) error {
	if opts.Verbose {
		prev := jlog.GetLevel()
		jlog.SetLevel(jlog.VerboseLevel)
		defer jlog.SetLevel(prev)
	}
	return s.runAll(steps, opts)
}

func (s *Sequencer) runAll(steps []step.Step, opts Options) error {
	for _, raw := range steps {
		expanded, serr := expand(s.Bag, raw)

		var checkErr *StepError
		if serr == nil {
			checkErr = s.checkPolicy(expanded)
		}

		var runErr *StepError
		if stepErr, ok := serr.(*StepError); ok {
			runErr = stepErr
		} else if checkErr != nil {
			runErr = checkErr
		}

		if opts.Verbose && !opts.Test && runErr == nil {
			jlog.Verbosef("%s", stepfmt.Line(expanded))
		}

		if opts.Test {
			if runErr != nil {
				fmt.Fprintf(s.out(), "# %s\n", runErr)
			} else {
				fmt.Fprintln(s.out(), stepfmt.Line(expanded))
			}
			continue
		}

		if runErr == nil {
			runErr = s.invoke(expanded, opts)
		}

		if runErr != nil {
			if raw.Try {
				jlog.Warningf("%s (suppressed by --try)", runErr)
				continue
			}
			jlog.Errorf("%s", runErr)
			return runErr
		}
	}
	return nil
}

func (s *Sequencer) checkPolicy(st step.Step) *StepError {
	for _, dst := range s.destinations(st) {
		if err := s.Policy.Check(dst); err != nil {
			return wrapf(Policy, err, "step %s", st.Verb)
		}
	}
	return nil
}

// destinations returns every path a step is about to mutate, the set
// the write-path policy must clear before invoke runs (spec §3's
// "every write touches a path matching writepath" invariant). Add's
// own destinations are checked per-file inside addengine.Engine (it is
// given the same *policy.Allowlist), since they aren't known until the
// dependency closure is resolved; remove/clean are checked here against
// the bag's jailpriv/jailhome before the recursive delete runs.
func (s *Sequencer) destinations(st step.Step) []string {
	switch p := st.Payload.(type) {
	case step.MkdirArgs:
		return []string{p.Dst}
	case step.MknodArgs:
		return []string{p.Dst}
	case step.LnSArgs:
		return []string{p.Link}
	case step.ChmodArgs:
		return []string{p.Dst}
	case step.ChownArgs:
		return []string{p.Dst}
	case step.ChflagsArgs:
		return []string{p.Dst}
	case step.TouchArgs:
		return []string{p.Dst}
	case step.RmArgs:
		return []string{p.Dst}
	case step.RmdirArgs:
		return []string{p.Dst}
	case step.CloneArgs:
		return []string{p.Dst}
	case step.CloneRecurseArgs:
		return []string{p.Dst}
	case step.CloneFromArgs:
		return []string{p.Dst}
	case step.AddArgs, step.AddFromArgs, step.AddRecurseArgs:
		return nil // addengine checks each mirrored destination itself
	case step.BindArgs:
		// Path is relative to the jail; check the mount point it names.
		if jailhome, err := s.Bag.Get("jailhome"); err == nil {
			return []string{jailhome + "/" + p.Path}
		}
		return []string{p.Path}
	case step.RemoveArgs:
		if jailpriv, err := s.Bag.Get("jailpriv"); err == nil {
			return []string{jailpriv}
		}
		return nil
	case step.CleanArgs:
		if jailhome, err := s.Bag.Get("jailhome"); err == nil {
			return []string{jailhome}
		}
		return nil
	default:
		return nil
	}
}

func (s *Sequencer) invoke(st step.Step, opts Options) *StepError {
	switch p := st.Payload.(type) {
	case step.MkdirArgs:
		return s.invokeMkdir(p)
	case step.MknodArgs:
		if err := fsops.Mknod(p.Dst, p.Type, p.Major, p.Minor); err != nil {
			return wrapf(Filesystem, err, "mknod %s", p.Dst)
		}
	case step.LnSArgs:
		if err := fsops.LnS(p.Target, p.Link); err != nil {
			return wrapf(Filesystem, err, "ln-s %s", p.Link)
		}
	case step.ChmodArgs:
		if err := fsops.Chmod(p.Dst, os.FileMode(p.Mode)); err != nil {
			return wrapf(Filesystem, err, "chmod %s", p.Dst)
		}
	case step.ChownArgs:
		acct, err := s.resolveOwner(p.Owner)
		if err != nil {
			return wrapf(Configuration, err, "chown %s", p.Dst)
		}
		if err := fsops.Chown(p.Dst, acct.UID, acct.GID); err != nil {
			return wrapf(Filesystem, err, "chown %s", p.Dst)
		}
	case step.ChflagsArgs:
		if err := fsops.Chflags(p.Dst, p.Flags); err != nil {
			return wrapf(Filesystem, err, "chflags %s", p.Dst)
		}
	case step.TouchArgs:
		if err := fsops.Touch(p.Dst, p.Stamp); err != nil {
			return wrapf(Filesystem, err, "touch %s", p.Dst)
		}
	case step.RmArgs:
		if err := fsops.Remove(p.Dst); err != nil {
			return wrapf(Filesystem, err, "rm %s", p.Dst)
		}
	case step.RmdirArgs:
		if err := fsops.Rmdir(p.Dst); err != nil {
			return wrapf(Filesystem, err, "rmdir %s", p.Dst)
		}
	case step.CloneArgs:
		if err := fsops.Clone(p.Src, p.Dst); err != nil {
			return wrapf(Filesystem, err, "clone %s", p.Src)
		}
	case step.CloneRecurseArgs:
		if err := fsops.CloneRecurse(p.Src, p.Dst, p.Quick); err != nil {
			return wrapf(Filesystem, err, "clone-recurse %s", p.Src)
		}
	case step.CloneFromArgs:
		if err := fsops.CloneFrom(p.Src, p.Dst, p.Files); err != nil {
			return wrapf(Filesystem, err, "clone-from %s", p.Src)
		}
	case step.AddArgs:
		if err := s.AddEngine.Add(p.Paths); err != nil {
			return wrapf(Dependency, err, "add")
		}
	case step.AddFromArgs:
		if err := s.AddEngine.AddFrom(p.Srcdir, p.Files); err != nil {
			return wrapf(Dependency, err, "add-from")
		}
	case step.AddRecurseArgs:
		if err := s.AddEngine.AddRecurse(p.Paths, p.Quick); err != nil {
			return wrapf(Dependency, err, "add-recurse")
		}
	case step.BindArgs:
		s.MountCtl.Binds = append(s.MountCtl.Binds, mount.Bind{
			Srcpath: p.Srcpath, Bindopts: p.Bindopts, Path: p.Path,
		})
	case step.MountArgs:
		if s.mounted {
			return nil
		}
		if err := s.MountCtl.Mount(); err != nil {
			return wrapf(Mount, err, "mount")
		}
		s.mounted = true
	case step.UmountArgs:
		if err := s.MountCtl.Umount(p.Lazy); err != nil {
			return wrapf(Mount, err, "umount")
		}
		s.mounted = false
	case step.RemoveArgs:
		jailpriv, err := s.Bag.Get("jailpriv")
		if err != nil {
			return wrapf(Configuration, err, "remove")
		}
		if err := os.RemoveAll(jailpriv); err != nil {
			return wrapf(Filesystem, err, "remove %s", jailpriv)
		}
	case step.CleanArgs:
		jailhome, err := s.Bag.Get("jailhome")
		if err != nil {
			return wrapf(Configuration, err, "clean")
		}
		if err := os.RemoveAll(jailhome); err != nil {
			return wrapf(Filesystem, err, "clean %s", jailhome)
		}
	case step.DefaultsArgs:
		return s.runSub(defaults.Defaults(p.DNS), opts)
	case step.EtcArgs:
		return s.runSub(defaults.Etc(), opts)
	case step.DevArgs:
		return s.runSub(defaults.Dev(), opts)
	case step.TmpArgs:
		return s.runSub(defaults.Tmp(), opts)
	case step.PasswdArgs:
		if err := s.syncPasswd(); err != nil {
			return wrapf(Filesystem, err, "passwd")
		}
	case step.PrintArgs:
		fmt.Fprintln(s.out(), p.Template)
	case step.ExecuteArgs:
		return s.invokeExecute(p, opts)
	}
	return nil
}

func (s *Sequencer) runSub(steps []step.Step, opts Options) *StepError {
	if err := s.runAll(steps, opts); err != nil {
		if se, ok := err.(*StepError); ok {
			return se
		}
		return newError(Filesystem, err)
	}
	return nil
}

func (s *Sequencer) invokeMkdir(p step.MkdirArgs) *StepError {
	mode := os.FileMode(p.Mode)
	if mode == 0 {
		mode = 0o750
	}
	acct := identity.Account{}
	hasOwner := p.Owner != ""
	if hasOwner {
		a, err := s.resolveOwner(p.Owner)
		if err != nil {
			return wrapf(Configuration, err, "mkdir %s", p.Dst)
		}
		acct = a
	}
	if err := fsops.Mkdir(p.Dst, mode, acct.UID, acct.GID, hasOwner); err != nil {
		return wrapf(Filesystem, err, "mkdir %s", p.Dst)
	}
	return nil
}

// resolveOwner parses "user[:group]" and resolves it to numeric ids.
func (s *Sequencer) resolveOwner(owner string) (identity.Account, error) {
	user, group := owner, ""
	for i, c := range owner {
		if c == ':' {
			user, group = owner[:i], owner[i+1:]
			break
		}
	}
	return identity.Lookup(user, group)
}

// syncPasswd implements the --passwd command of spec §4.G: it updates
// the jail's /etc/passwd and /etc/group with a line for the jail
// account, resolved lazily the same way --chown resolves an owner.
func (s *Sequencer) syncPasswd() error {
	user, err := s.Bag.Get("user")
	if err != nil {
		return err
	}
	group, _ := s.Bag.Get("group")
	jailhome, err := s.Bag.Get("jailhome")
	if err != nil {
		return err
	}

	acct, err := identity.Lookup(user, group)
	if err != nil {
		return err
	}

	etcDir := jailhome + "/etc"
	if err := os.MkdirAll(etcDir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", etcDir)
	}

	entry := accounts.Entry{Name: user, UID: acct.UID, GID: acct.GID, Home: "/home/" + user}
	if err := accounts.Passwd(etcDir+"/passwd", entry); err != nil {
		return err
	}
	return accounts.Group(etcDir+"/group", entry)
}

func (s *Sequencer) invokeExecute(p step.ExecuteArgs, opts Options) *StepError {
	if err := s.syncPasswd(); err != nil {
		return wrapf(Filesystem, err, "execute: implicit passwd")
	}
	if !s.mounted {
		if err := s.MountCtl.Mount(); err != nil {
			return wrapf(Mount, err, "execute: implicit mount")
		}
		s.mounted = true
	}
	if s.Executor == nil {
		return newError(Execute, errors.New("no executor configured"))
	}
	if err := s.Executor.Execute(p); err != nil {
		return wrapf(Execute, err, "execute %s", p.Program)
	}
	return nil
}
