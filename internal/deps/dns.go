// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package deps

// DNSLibraries is the curated, host-specific set of NSS shims that the
// --defaults expansion clones into the jail when the dns option is set,
// regardless of whether any resolved binary references them — they are
// dlopen'd at runtime rather than linked. Resolver.Dependencies does not
// add them to a binary's closure, so --add never copies them. Grounded
// on the curated-list pattern in
// the teacher's pkg/util/apptainerconf (BindPath's default list) and
// internal/pkg/build/sources/base_environment.go's embedded file set.
var DNSLibraries = []string{
	"/lib/x86_64-linux-gnu/libnss_dns.so.2",
	"/lib/x86_64-linux-gnu/libnss_files.so.2",
	"/lib/x86_64-linux-gnu/libresolv.so.2",
}
