// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package step

// MkdirArgs is the payload for Mkdir: dst is created with mode (default
// 0750 is applied by the caller if Mode is zero), and chowned to Owner
// if non-empty ("user[:group]").
type MkdirArgs struct {
	Dst   string
	Mode  uint32
	Owner string
}

// MknodArgs is the payload for Mknod. If Minor is nil, Major is treated
// as a packed device number.
type MknodArgs struct {
	Dst   string
	Type  rune // 'c' or 'b'
	Major uint32
	Minor *uint32
}

// LnSArgs is the payload for LnS.
type LnSArgs struct {
	Target string
	Link   string
}

// ChmodArgs is the payload for Chmod.
type ChmodArgs struct {
	Dst  string
	Mode uint32
}

// ChownArgs is the payload for Chown. Owner is "user[:group]".
type ChownArgs struct {
	Dst   string
	Owner string
}

// ChflagsArgs is the payload for Chflags.
type ChflagsArgs struct {
	Dst   string
	Flags uint32
}

// TouchArgs is the payload for Touch. Stamp is "%Y%m%d%H%M.%S", or empty
// for "now".
type TouchArgs struct {
	Dst   string
	Stamp string
}

// RmArgs is the payload for Rm.
type RmArgs struct {
	Dst string
}

// RmdirArgs is the payload for Rmdir.
type RmdirArgs struct {
	Dst string
}

// CloneArgs is the payload for Clone.
type CloneArgs struct {
	Src string
	Dst string
}

// CloneRecurseArgs is the payload for CloneRecurse.
type CloneRecurseArgs struct {
	Src   string
	Dst   string
	Quick bool
}

// CloneFromArgs is the payload for CloneFrom.
type CloneFromArgs struct {
	Src   string
	Dst   string
	Files []string
}

// AddArgs is the payload for Add.
type AddArgs struct {
	Paths []string
}

// AddFromArgs is the payload for AddFrom.
type AddFromArgs struct {
	Srcdir string
	Files  []string
}

// AddRecurseArgs is the payload for AddRecurse.
type AddRecurseArgs struct {
	Paths []string
	Quick bool
}

// BindArgs registers a bind directive evaluated at --mount time
// (spec §4.F). Bindopts is "auto" (the CLI's default) or a comma-joined
// token list; an empty Bindopts is treated like "auto".
type BindArgs struct {
	Srcpath  string
	Bindopts string
	Path     string
}

// MountArgs is the payload for Mount (no fields: the mount point and
// registered binds are resolved from prior steps and properties).
type MountArgs struct{}

// UmountArgs is the payload for Umount.
type UmountArgs struct {
	Lazy bool
}

// RemoveArgs is the payload for Remove (destroy the jail).
type RemoveArgs struct{}

// CleanArgs is the payload for Clean (delete the jailhome tree; the rest
// of jailpriv is kept).
type CleanArgs struct{}

// DefaultsArgs is the payload for Defaults: expand into the curated
// sequence described in spec.md §4.G.
type DefaultsArgs struct {
	DNS bool
}

// EtcArgs is the payload for Etc: create /etc and the curated file list.
type EtcArgs struct{}

// DevArgs is the payload for Dev: create /dev and the curated node list.
type DevArgs struct{}

// TmpArgs is the payload for Tmp: create the conventional /tmp layout.
type TmpArgs struct{}

// PasswdArgs is the payload for Passwd: update /etc/passwd and
// /etc/group inside the jail for the jail account.
type PasswdArgs struct{}

// PrintArgs is the payload for Print: write the expansion of Template
// (e.g. "{jailhome}", "{defaults_text}") to stdout.
type PrintArgs struct {
	Template string
}

// ExecuteArgs is the payload for Execute, the terminal step (spec §4.I).
type ExecuteArgs struct {
	Program string
	Args    []string
	Env     []string // "name=value" prefix entries
	Chdir   string
	Umask   uint32
}
