// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package step defines the tagged-union step records that the command
// sequencer (spec §4.H) executes in order. Each Verb carries a
// verb-specific, well-typed payload instead of being dispatched through
// an interface method, per the design note in spec.md §9: this keeps
// --test trivial (render the tag) and makes --try local (skip one
// record).
package step

// Verb identifies which operation a Step performs.
type Verb string

const (
	Mkdir        Verb = "mkdir"
	Mknod        Verb = "mknod"
	LnS          Verb = "ln-s"
	Chmod        Verb = "chmod"
	Chown        Verb = "chown"
	Chflags      Verb = "chflags"
	Touch        Verb = "touch"
	Rm           Verb = "rm"
	Rmdir        Verb = "rmdir"
	Clone        Verb = "clone"
	CloneRecurse Verb = "clone-recurse"
	CloneFrom    Verb = "clone-from"
	Add          Verb = "add"
	AddFrom      Verb = "add-from"
	AddRecurse   Verb = "add-recurse"
	Bind         Verb = "bind"
	Mount        Verb = "mount"
	Umount       Verb = "umount"
	Remove       Verb = "remove"
	Clean        Verb = "clean"
	Defaults     Verb = "defaults"
	Etc          Verb = "etc"
	Dev          Verb = "dev"
	Tmp          Verb = "tmp"
	Passwd       Verb = "passwd"
	Print        Verb = "print"
	Execute      Verb = "execute"
)

// Step is one imperative unit enqueued by the front end. Payload holds a
// Verb-specific argument struct (see payloads.go); it is immutable once
// queued, per the Step invariant in spec.md §3.
type Step struct {
	Verb Verb
	// Try marks that this step was immediately preceded by --try: its
	// failure (including a configuration error raised while expanding
	// its arguments) is logged and swallowed rather than aborting the
	// run. See spec.md §9 open question (b).
	Try bool
	// Payload is one of the *Args types in payloads.go.
	Payload interface{}
}
