// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package properties implements the jail builder's flat, templated
// string-to-string configuration namespace (spec §4.A): the set of named
// properties such as {jailhome} and {uid} that every step argument may
// reference.
package properties

import (
	"regexp"

	"github.com/pkg/errors"
)

// ErrUnknownProperty is the cause wrapped into a configuration error when
// Expand or Get references a name that was never Set.
var ErrUnknownProperty = errors.New("unknown property")

var tokenRx = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Bag is a flat mapping from property name to string value.
//
// Expansion is intentionally one-pass: a value that itself contains a
// "{name}" token is not expanded recursively, keeping interpolation
// semantics obvious per the design notes in spec.md §9.
type Bag struct {
	values map[string]string
}

// New returns an empty property bag.
func New() *Bag {
	return &Bag{values: make(map[string]string)}
}

// Set assigns value to name, overwriting any prior value.
func (b *Bag) Set(name, value string) {
	b.values[name] = value
}

// Get returns the current value of name, or a wrapped ErrUnknownProperty
// if name was never Set.
func (b *Bag) Get(name string) (string, error) {
	v, ok := b.values[name]
	if !ok {
		return "", errors.Wrapf(ErrUnknownProperty, "%q", name)
	}
	return v, nil
}

// Has reports whether name has been Set.
func (b *Bag) Has(name string) bool {
	_, ok := b.values[name]
	return ok
}

// Expand replaces every "{name}" token in template with its current
// value, in a single left-to-right pass. It fails on the first unknown
// name, which the sequencer (spec §4.H step 1) surfaces as a
// configuration error.
func (b *Bag) Expand(template string) (string, error) {
	var firstErr error
	result := tokenRx.ReplaceAllStringFunc(template, func(tok string) string {
		if firstErr != nil {
			return tok
		}
		name := tok[1 : len(tok)-1]
		v, err := b.Get(name)
		if err != nil {
			firstErr = err
			return tok
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Snapshot returns a copy of the current name/value pairs, useful for
// --print and for tests that assert on the bound property set.
func (b *Bag) Snapshot() map[string]string {
	out := make(map[string]string, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}
