// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package fsops

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/jailctl/jailctl/pkg/jlog"
)

// ErrTypeMismatch is wrapped when dst already exists with a type
// different from src, per spec §4.C ("If destination exists it must be
// the same type").
var ErrTypeMismatch = errors.New("clone: destination exists with a different type")

// Clone replicates src onto dst: content for regular files, link text
// (not the dereferenced target) for symlinks, and the device number for
// device nodes. Parent directories are created on demand by cloning
// their metadata from the corresponding source ancestors. Permission
// bits, uid/gid, flags, and mtime are applied from src's Record after
// the body is written. Atomicity is not required (spec §4.C); on
// failure the partial result is left in place.
func Clone(src, dst string) error {
	srcRec, err := Stat(src)
	if err != nil {
		return errors.Wrapf(err, "clone: stat source %s", src)
	}

	if err := cloneParents(src, dst); err != nil {
		return err
	}

	if dstRec, err := Stat(dst); err == nil {
		if dstRec.Type != srcRec.Type {
			return errors.Wrapf(ErrTypeMismatch, "%s", dst)
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "clone: stat destination %s", dst)
	}

	switch srcRec.Type {
	case TypeRegular:
		if err := copyRegularContent(src, dst, srcRec.Mode); err != nil {
			return errors.Wrapf(err, "clone: copy content %s -> %s", src, dst)
		}
	case TypeDirectory:
		if err := os.MkdirAll(dst, srcRec.Mode|0o100); err != nil {
			return errors.Wrapf(err, "clone: mkdir %s", dst)
		}
	case TypeSymlink:
		if !symlinkExistsWithTarget(dst, srcRec.SymlinkTarget) {
			_ = os.Remove(dst)
			if err := os.Symlink(srcRec.SymlinkTarget, dst); err != nil {
				return errors.Wrapf(err, "clone: symlink %s -> %s", dst, srcRec.SymlinkTarget)
			}
		}
	case TypeCharDevice, TypeBlockDevice:
		if err := cloneDevice(dst, srcRec); err != nil {
			return errors.Wrapf(err, "clone: mknod %s", dst)
		}
	default:
		return errors.Errorf("clone: unsupported source type for %s", src)
	}

	return applyAttrs(dst, srcRec)
}

// cloneParents walks src's ancestry relative to dst's ancestry and
// clones any missing parent directory metadata from the corresponding
// source ancestor, per spec §4.C.
func cloneParents(src, dst string) error {
	parent := filepath.Dir(dst)
	if _, err := os.Stat(parent); err == nil {
		return nil
	}
	srcParent := filepath.Dir(src)
	if err := cloneParents(srcParent, parent); err != nil {
		return err
	}
	rec, err := Stat(srcParent)
	if err != nil {
		// Source ancestor outside the jailed tree; fall back to a
		// conventional directory so the child clone can proceed.
		return os.MkdirAll(parent, 0o750)
	}
	if err := os.MkdirAll(parent, rec.Mode|0o100); err != nil {
		return err
	}
	return applyAttrs(parent, rec)
}

func copyRegularContent(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode|0o200)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func symlinkExistsWithTarget(link, target string) bool {
	got, err := os.Readlink(link)
	return err == nil && got == target
}

func cloneDevice(dst string, rec Record) error {
	if existing, err := Stat(dst); err == nil {
		if existing.Type == rec.Type && existing.Rdev == rec.Rdev {
			return nil
		}
		return errors.Wrapf(ErrTypeMismatch, "%s", dst)
	}
	mode := uint32(rec.Mode) | unix.S_IFCHR
	if rec.Type == TypeBlockDevice {
		mode = uint32(rec.Mode) | unix.S_IFBLK
	}
	return unix.Mknod(dst, mode, int(rec.Rdev))
}

// CloneRecurse clones src then, if it is a directory (or a symlink to
// one), recursively clones every entry other than "." and "..". With
// quick set, a directory is skipped wholesale when its existing dst has
// matching size and mtime (spec §4.C).
func CloneRecurse(src, dst string, quick bool) error {
	quickMatch := quick && sameSizeAndMtime(src, dst)
	if err := Clone(src, dst); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src) // follows a top-level symlink-to-dir
	if err != nil {
		return errors.Wrapf(err, "clone-recurse: stat %s", src)
	}
	if !srcInfo.IsDir() {
		return nil
	}

	if quickMatch {
		jlog.Debugf("clone-recurse: skipping %s (quick match)", dst)
		return nil
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "clone-recurse: readdir %s", src)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." {
			continue
		}
		if err := CloneRecurse(filepath.Join(src, name), filepath.Join(dst, name), quick); err != nil {
			return err
		}
	}
	return nil
}

func sameSizeAndMtime(src, dst string) bool {
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	di, err := os.Stat(dst)
	if err != nil {
		return false
	}
	return si.Size() == di.Size() && si.ModTime().Equal(di.ModTime())
}

// CloneFrom clones each named entry from src/name to dst/name, per
// spec §4.C.
func CloneFrom(src, dst string, files []string) error {
	for _, name := range files {
		if err := Clone(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return err
		}
	}
	return nil
}
