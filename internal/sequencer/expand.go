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
	"github.com/jailctl/jailctl/pkg/properties"
	"github.com/jailctl/jailctl/pkg/step"
)

// expand resolves every "{name}" token in s.Payload's string fields
// against bag, per spec §4.H step 1 and the interpolation-at-run-time
// invariant (spec.md §8 property 10).
func expand(bag *properties.Bag, s step.Step) (step.Step, error) {
	var err error
	one := func(v string) string {
		if err != nil {
			return v
		}
		var out string
		out, err = bag.Expand(v)
		return out
	}
	many := func(vs []string) []string {
		if vs == nil {
			return nil
		}
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = one(v)
		}
		return out
	}

	switch p := s.Payload.(type) {
	case step.MkdirArgs:
		p.Dst, p.Owner = one(p.Dst), one(p.Owner)
		s.Payload = p
	case step.MknodArgs:
		p.Dst = one(p.Dst)
		s.Payload = p
	case step.LnSArgs:
		p.Target, p.Link = one(p.Target), one(p.Link)
		s.Payload = p
	case step.ChmodArgs:
		p.Dst = one(p.Dst)
		s.Payload = p
	case step.ChownArgs:
		p.Dst, p.Owner = one(p.Dst), one(p.Owner)
		s.Payload = p
	case step.ChflagsArgs:
		p.Dst = one(p.Dst)
		s.Payload = p
	case step.TouchArgs:
		p.Dst, p.Stamp = one(p.Dst), one(p.Stamp)
		s.Payload = p
	case step.RmArgs:
		p.Dst = one(p.Dst)
		s.Payload = p
	case step.RmdirArgs:
		p.Dst = one(p.Dst)
		s.Payload = p
	case step.CloneArgs:
		p.Src, p.Dst = one(p.Src), one(p.Dst)
		s.Payload = p
	case step.CloneRecurseArgs:
		p.Src, p.Dst = one(p.Src), one(p.Dst)
		s.Payload = p
	case step.CloneFromArgs:
		p.Src, p.Dst, p.Files = one(p.Src), one(p.Dst), many(p.Files)
		s.Payload = p
	case step.AddArgs:
		p.Paths = many(p.Paths)
		s.Payload = p
	case step.AddFromArgs:
		p.Srcdir, p.Files = one(p.Srcdir), many(p.Files)
		s.Payload = p
	case step.AddRecurseArgs:
		p.Paths = many(p.Paths)
		s.Payload = p
	case step.BindArgs:
		p.Srcpath, p.Bindopts, p.Path = one(p.Srcpath), one(p.Bindopts), one(p.Path)
		s.Payload = p
	case step.PrintArgs:
		p.Template = one(p.Template)
		s.Payload = p
	case step.ExecuteArgs:
		p.Program, p.Chdir = one(p.Program), one(p.Chdir)
		p.Args, p.Env = many(p.Args), many(p.Env)
		s.Payload = p
	}

	if err != nil {
		return step.Step{}, newError(Configuration, err)
	}
	return s, nil
}
