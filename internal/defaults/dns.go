// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package defaults

import (
	"github.com/jailctl/jailctl/internal/deps"
	"github.com/jailctl/jailctl/pkg/step"
)

// dnsSteps clones the curated NSS shim libraries into the jail so that
// glibc's dlopen-based resolver works without a full add-dependency
// pass, per spec §4.G's dns option.
func dnsSteps() []step.Step {
	steps := make([]step.Step, 0, len(deps.DNSLibraries))
	for _, lib := range deps.DNSLibraries {
		steps = append(steps, step.Step{
			Verb:    step.Clone,
			Payload: step.CloneArgs{Src: lib, Dst: "{jailhome}" + lib},
			Try:     true,
		})
	}
	return steps
}
