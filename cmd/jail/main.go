// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Command jail is the front end for the chroot jail builder described
// by spec §6: `jail [options] user[:group] [commands...]`.
package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jailctl/jailctl/internal/addengine"
	"github.com/jailctl/jailctl/internal/cli"
	"github.com/jailctl/jailctl/internal/defaults"
	"github.com/jailctl/jailctl/internal/deps"
	"github.com/jailctl/jailctl/internal/identity"
	"github.com/jailctl/jailctl/internal/jailexec"
	"github.com/jailctl/jailctl/internal/mount"
	"github.com/jailctl/jailctl/internal/policy"
	"github.com/jailctl/jailctl/internal/sequencer"
	"github.com/jailctl/jailctl/pkg/jailconf"
	"github.com/jailctl/jailctl/pkg/jlog"
	"github.com/jailctl/jailctl/pkg/properties"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	result, err := cli.Parse(argv)
	if err != nil {
		jlog.Errorf("%s", err)
		return 1
	}
	if result.Options.Help {
		printUsage()
		return 0
	}

	conf, err := jailconf.Parse(result.Options.ConfigFile)
	if err != nil {
		jlog.Errorf("%s", err)
		return 1
	}

	usernameRx, err := regexp.Compile(conf.UsernameRegex)
	if err != nil {
		jlog.Errorf("%s", err)
		return 1
	}
	if !usernameRx.MatchString(result.User) {
		jlog.Errorf("user %q does not match the configured username regex %q", result.User, conf.UsernameRegex)
		return 1
	}
	if result.Group != "" && !usernameRx.MatchString(result.Group) {
		jlog.Errorf("group %q does not match the configured username regex %q", result.Group, conf.UsernameRegex)
		return 1
	}

	jailBase := conf.JailBase
	if result.Options.JailBase != "" {
		jailBase = result.Options.JailBase
	}
	writePath := conf.WritePath
	if result.Options.WritePath != "" {
		writePath = result.Options.WritePath
	}

	bag := properties.New()
	jailPriv := filepath.Join(jailBase, result.User)
	jailHome := filepath.Join(jailPriv, "home")
	jailMount := filepath.Join("/home", result.User)

	bag.Set("user", result.User)
	bag.Set("group", result.Group)
	bag.Set("jailbase", jailBase)
	bag.Set("jailpriv", jailPriv)
	bag.Set("jailhome", jailHome)
	bag.Set("jailmount", jailMount)
	bag.Set("jaildev", filepath.Join(jailHome, "dev"))
	bag.Set("jailtmp", filepath.Join(jailHome, "tmp"))
	bag.Set("writepath", writePath)
	bag.Set("defaults_text", defaults.DefaultsText(result.Options.DNS))
	bag.Set("etc_text", defaults.EtcText())

	if acct, err := identity.Lookup(result.User, result.Group); err == nil {
		bag.Set("uid", strconv.Itoa(acct.UID))
		bag.Set("gid", strconv.Itoa(acct.GID))
	} else {
		jlog.Debugf("deferring uid/gid resolution for %s: %s", result.User, err)
	}

	allow, err := policy.Compile(writePath)
	if err != nil {
		jlog.Errorf("%s", err)
		return 1
	}

	resolver := &deps.Resolver{
		LoaderDiscovery: deps.Collaborator{CommandTemplate: conf.LdconfigCmd},
		DependencyList:  deps.Collaborator{CommandTemplate: conf.LdlistCmd},
		Runner:          deps.DefaultRunner,
	}
	if rx, err := regexp.Compile(conf.LdconfigRegex); err == nil {
		resolver.LoaderDiscovery.Pattern = rx
	} else {
		jlog.Errorf("%s", err)
		return 1
	}
	if rx, err := regexp.Compile(conf.LdlistRegex); err == nil {
		resolver.DependencyList.Pattern = rx
	} else {
		jlog.Errorf("%s", err)
		return 1
	}

	seq := &sequencer.Sequencer{
		Bag:    bag,
		Policy: allow,
		AddEngine: &addengine.Engine{
			JailHome: jailHome,
			Resolver: resolver,
			Policy:   allow,
		},
		MountCtl: &mount.Controller{
			JailHome:  jailHome,
			JailMount: jailMount,
			Policy:    allow,
			Mounter:   mount.SyscallMounter{},
			Binds:     defaultBinds(conf.DefaultBindPath),
		},
		Out: os.Stdout,
	}

	if acct, err := identity.Lookup(result.User, result.Group); err == nil {
		seq.Executor = &jailexec.Executor{
			JailMount:    jailMount,
			Account:      acct,
			JailBase:     jailBase,
			DefaultUmask: uint32(conf.DefaultUmask),
		}
	}

	runErr := seq.Run(result.Steps, sequencer.Options{
		Test:    result.Options.Test,
		Verbose: result.Options.Verbose,
	})
	if runErr != nil {
		jlog.Errorf("%s", runErr)
		return 1
	}
	return 0
}

func printUsage() {
	jlog.Infof("usage: jail [options] user[:group] [commands...]")
}

// defaultBinds converts the config file's "default bind path" directive
// into the controller's seed bind list, with the same srcpath-to-Path
// derivation --bind uses on the command line.
func defaultBinds(paths []string) []mount.Bind {
	binds := make([]mount.Bind, 0, len(paths))
	for _, p := range paths {
		binds = append(binds, mount.Bind{
			Srcpath:  p,
			Bindopts: "auto",
			Path:     strings.TrimPrefix(p, "/"),
		})
	}
	return binds
}

