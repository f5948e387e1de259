// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package cli implements the front end of spec §4/§6: a single flat
// flag grammar (`jail [options] user[:group] [commands...]`) rather
// than a subcommand tree, because option and step flags are recognized
// anywhere on the line and steps carry variable positional arity.
//
// Grounded on the teacher's flag-registration idiom in
// cmd/internal/cli/apptainer.go, adapted from cobra/pflag's
// declare-then-Parse model (which assumes flags precede positionals) to
// a manual walk that consults a pflag.FlagSet at each token instead of
// calling FlagSet.Parse wholesale.
package cli

import "github.com/spf13/pflag"

// Options holds every property-namespace-affecting option flag, plus
// the run-mode flags the sequencer consumes directly.
type Options struct {
	JailBase  string
	WritePath string
	ConfigFile string
	Test      bool
	Verbose   bool
	Help      bool
	DNS       bool
}

// newOptionSet declares the option flags, short aliases included, the
// way the teacher declares persistent flags on its root command.
func newOptionSet(o *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("jail", pflag.ContinueOnError)
	fs.StringVar(&o.JailBase, "jailbase", "", "root of all jails on this host")
	fs.StringVar(&o.WritePath, "writepath", "", "regex of host paths safe to modify")
	fs.StringVar(&o.ConfigFile, "config", "/etc/jail.conf", "path to jail.conf")
	fs.BoolVarP(&o.Test, "test", "t", false, "print shell-equivalents without executing")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "mirror each action before running it")
	fs.BoolVarP(&o.Help, "help", "h", false, "print usage and exit")
	fs.BoolVar(&o.DNS, "dns", false, "include curated NSS shim libraries in --defaults (not in --add)")
	return fs
}
