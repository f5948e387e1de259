// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package addengine implements spec §4.E: adding files and directories
// (and their shared-library closures) into a jail, by composing
// fsops.Clone and deps.Resolver. It introduces no new mutation
// primitive, per spec.md's explicit constraint.
package addengine

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/jailctl/jailctl/internal/deps"
	"github.com/jailctl/jailctl/internal/fsops"
	"github.com/jailctl/jailctl/internal/policy"
	"github.com/jailctl/jailctl/pkg/jlog"
)

// Engine mirrors host paths into a jail home, resolving ELF dependency
// closures along the way.
type Engine struct {
	JailHome string
	Resolver *deps.Resolver
	Policy   *policy.Allowlist
}

// mirror maps an absolute host path to its mirrored location beneath
// JailHome.
func (e *Engine) mirror(hostPath string) string {
	return filepath.Join(e.JailHome, hostPath)
}

// clone checks dst against the write-path policy before cloning, so
// every mutation this engine performs is gated the same way a step's
// destination is (spec §4.B: "this applies to... and to mount points" —
// Add's mirrored destinations are no exception).
func (e *Engine) clone(src, dst string) error {
	if e.Policy != nil {
		if err := e.Policy.Check(dst); err != nil {
			return err
		}
	}
	return fsops.Clone(src, dst)
}

// Add clones each path into the jail at its mirrored location. For
// ELF-like files it also resolves and adds the dependency closure,
// skipping dependencies already present at a matching size/mtime.
func (e *Engine) Add(paths []string) error {
	for _, p := range paths {
		if err := e.addOne(p); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) addOne(hostPath string) error {
	dst := e.mirror(hostPath)
	if err := e.clone(hostPath, dst); err != nil {
		return errors.Wrapf(err, "add %s", hostPath)
	}

	if !deps.NeedsResolution(hostPath) {
		return nil
	}

	closure, err := e.Resolver.Dependencies(hostPath)
	if err != nil && !deps.IsNoDependenciesWarning(err) {
		return errors.Wrapf(err, "add: resolving dependencies of %s", hostPath)
	} else if err != nil {
		jlog.Warningf("%s", err)
	}

	for _, dep := range closure {
		if e.alreadyPresent(dep) {
			continue
		}
		if err := e.clone(dep, e.mirror(dep)); err != nil {
			return errors.Wrapf(err, "add: dependency %s of %s", dep, hostPath)
		}
	}
	return nil
}

// alreadyPresent reports whether dep's mirrored location already has
// matching size and mtime, per spec §4.E's dedup rule.
func (e *Engine) alreadyPresent(dep string) bool {
	src, err := os.Stat(dep)
	if err != nil {
		return false
	}
	dst, err := os.Stat(e.mirror(dep))
	if err != nil {
		return false
	}
	return src.Size() == dst.Size() && src.ModTime().Equal(dst.ModTime())
}

// AddFrom is like Add but relative names are resolved against srcdir,
// and the destination mirrors only the relative portion (spec §4.E).
func (e *Engine) AddFrom(srcdir string, files []string) error {
	for _, name := range files {
		hostPath := filepath.Join(srcdir, name)
		dst := filepath.Join(e.JailHome, name)
		if err := e.clone(hostPath, dst); err != nil {
			return errors.Wrapf(err, "add-from %s", hostPath)
		}
		if deps.NeedsResolution(hostPath) {
			if err := e.addDepsTo(hostPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) addDepsTo(hostPath string) error {
	closure, err := e.Resolver.Dependencies(hostPath)
	if err != nil && !deps.IsNoDependenciesWarning(err) {
		return errors.Wrapf(err, "add-from: resolving dependencies of %s", hostPath)
	} else if err != nil {
		jlog.Warningf("%s", err)
	}
	for _, dep := range closure {
		if e.alreadyPresent(dep) {
			continue
		}
		if err := e.clone(dep, e.mirror(dep)); err != nil {
			return errors.Wrapf(err, "add-from: dependency %s", dep)
		}
	}
	return nil
}

// AddRecurse adds each path, then for directories recurses into entries
// other than "." and "..". With quick, a directory is skipped when its
// existing mirror has matching size and mtime (spec §4.E).
func (e *Engine) AddRecurse(paths []string, quick bool) error {
	for _, p := range paths {
		if err := e.addRecurseOne(p, quick); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) addRecurseOne(hostPath string, quick bool) error {
	var existing os.FileInfo
	if quick {
		existing, _ = os.Stat(e.mirror(hostPath))
	}

	if err := e.addOne(hostPath); err != nil {
		return err
	}

	fi, err := os.Stat(hostPath)
	if err != nil {
		return errors.Wrapf(err, "add-recurse: stat %s", hostPath)
	}
	if !fi.IsDir() {
		return nil
	}

	if quick {
		if di := existing; di != nil && di.Size() == fi.Size() && di.ModTime().Equal(fi.ModTime()) {
			jlog.Debugf("add-recurse: skipping %s (quick match)", hostPath)
			return nil
		}
	}

	entries, err := os.ReadDir(hostPath)
	if err != nil {
		return errors.Wrapf(err, "add-recurse: readdir %s", hostPath)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." {
			continue
		}
		if err := e.addRecurseOne(filepath.Join(hostPath, name), quick); err != nil {
			return err
		}
	}
	return nil
}
