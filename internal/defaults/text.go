// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package defaults

import "github.com/jailctl/jailctl/internal/stepfmt"

// EtcText renders the --etc expansion as its {etc_text} property value.
func EtcText() string { return stepfmt.Text(Etc()) }

// DefaultsText renders the --defaults expansion as its {defaults_text}
// property value.
func DefaultsText(dns bool) string { return stepfmt.Text(Defaults(dns)) }
