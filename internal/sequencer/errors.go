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
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a step failed, per spec §7.
type Kind string

const (
	Configuration Kind = "configuration"
	Policy        Kind = "policy"
	Filesystem    Kind = "filesystem"
	Dependency    Kind = "dependency"
	Mount         Kind = "mount"
	Execute       Kind = "execute"
)

// StepError is the error kind every failing step raises. Cause carries
// the richly-wrapped github.com/pkg/errors chain produced by the
// component that actually failed.
type StepError struct {
	Kind  Kind
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

func newError(kind Kind, cause error) *StepError {
	return &StepError{Kind: kind, Cause: cause}
}

func wrapf(kind Kind, err error, format string, args ...interface{}) *StepError {
	return &StepError{Kind: kind, Cause: errors.Wrapf(err, format, args...)}
}
