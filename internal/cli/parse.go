// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package cli

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/jailctl/jailctl/pkg/step"
)

// Result is what Parse hands to the sequencer front end: the jail
// account, its enqueued steps, and the resolved run-mode options.
type Result struct {
	User    string
	Group   string
	Steps   []step.Step
	Options Options
}

// stepParser parses one verb's positional arguments, returning the
// built step and how many tokens it consumed.
type stepParser func(args []string) (step.Step, int, error)

var verbs = map[string]stepParser{
	"mkdir":         parseMkdir,
	"mknod":         parseMknod,
	"ln-s":          parseLnS,
	"chmod":         parseChmod,
	"chown":         parseChown,
	"chflags":       parseChflags,
	"touch":         parseTouch,
	"rm":            func(a []string) (step.Step, int, error) { return parseOneDst(step.Rm, a) },
	"rmdir":         func(a []string) (step.Step, int, error) { return parseOneDst(step.Rmdir, a) },
	"clone":         parseClone,
	"clone-recurse": parseCloneRecurse,
	"clone-from":    parseCloneFrom,
	"add":           parseAdd,
	"add-from":      parseAddFrom,
	"add-recurse":   parseAddRecurse,
	"bind":          parseBind,
	"umount":        parseUmount,
	"print":         parsePrint,
	"execute":       parseExecute,
}

// noArgVerbs are steps with no positional arguments at all.
var noArgVerbs = map[string]step.Verb{
	"mount":    step.Mount,
	"remove":   step.Remove,
	"clean":    step.Clean,
	"defaults": step.Defaults,
	"etc":      step.Etc,
	"dev":      step.Dev,
	"tmp":      step.Tmp,
	"passwd":   step.Passwd,
}

// Parse walks argv (os.Args[1:]) per spec §6: options may appear
// anywhere; the first non-flag token is "user[:group]"; everything
// after is a lexically ordered command list.
func Parse(argv []string) (*Result, error) {
	var opts Options
	fs := newOptionSet(&opts)

	var identity string
	var steps []step.Step
	pendingTry := false

	i := 0
	for i < len(argv) {
		tok := argv[i]

		if tok == "--" {
			st, consumed, err := parseExecute(argv[i+1:])
			if err != nil {
				return nil, err
			}
			steps = append(steps, applyTry(st, &pendingTry))
			i += 1 + consumed
			continue
		}

		if tok == "-d" {
			steps = append(steps, applyTry(step.Step{Verb: step.Defaults, Payload: step.DefaultsArgs{DNS: opts.DNS}}, &pendingTry))
			i++
			continue
		}

		if long, ok := stripLong(tok); ok && long == "try" {
			pendingTry = true
			i++
			continue
		}

		if long, ok := stripLong(tok); ok {
			if f := fs.Lookup(long); f != nil {
				consumed, err := consumeOption(f, argv[i:])
				if err != nil {
					return nil, err
				}
				i += consumed
				continue
			}
			if verb, ok := noArgVerbs[long]; ok {
				payload := noArgPayload(verb, opts.DNS)
				steps = append(steps, applyTry(step.Step{Verb: verb, Payload: payload}, &pendingTry))
				i++
				continue
			}
			if parser, ok := verbs[long]; ok {
				st, consumed, err := parser(argv[i+1:])
				if err != nil {
					return nil, errors.Wrapf(err, "--%s", long)
				}
				steps = append(steps, applyTry(st, &pendingTry))
				i += 1 + consumed
				continue
			}
			return nil, errors.Errorf("unknown flag --%s", long)
		}

		if short, ok := stripShort(tok); ok {
			if f := fs.ShorthandLookup(short); f != nil {
				consumed, err := consumeOption(f, argv[i:])
				if err != nil {
					return nil, err
				}
				i += consumed
				continue
			}
			return nil, errors.Errorf("unknown flag -%s", short)
		}

		if identity == "" {
			identity = tok
			i++
			continue
		}

		return nil, errors.Errorf("unexpected argument %q", tok)
	}

	if identity == "" {
		return nil, errors.New("missing required user[:group] argument")
	}
	user, group, _ := strings.Cut(identity, ":")

	// --dns may follow -d/--defaults on the line; apply its final value.
	for i := range steps {
		if steps[i].Verb == step.Defaults {
			steps[i].Payload = step.DefaultsArgs{DNS: opts.DNS}
		}
	}

	return &Result{User: user, Group: group, Steps: steps, Options: opts}, nil
}

func noArgPayload(verb step.Verb, dns bool) interface{} {
	switch verb {
	case step.Mount:
		return step.MountArgs{}
	case step.Remove:
		return step.RemoveArgs{}
	case step.Clean:
		return step.CleanArgs{}
	case step.Defaults:
		return step.DefaultsArgs{DNS: dns}
	case step.Etc:
		return step.EtcArgs{}
	case step.Dev:
		return step.DevArgs{}
	case step.Tmp:
		return step.TmpArgs{}
	case step.Passwd:
		return step.PasswdArgs{}
	}
	return nil
}

// applyTry marks st as immediately preceded by --try and resets the
// pending flag, per spec.md §8 invariant 9 ("--try suppresses exactly
// the immediately following step's failure and no other").
func applyTry(st step.Step, pendingTry *bool) step.Step {
	if *pendingTry {
		st.Try = true
		*pendingTry = false
	}
	return st
}

func stripLong(tok string) (string, bool) {
	if strings.HasPrefix(tok, "--") && len(tok) > 2 {
		return tok[2:], true
	}
	return "", false
}

func stripShort(tok string) (string, bool) {
	if strings.HasPrefix(tok, "-") && !strings.HasPrefix(tok, "--") && len(tok) == 2 {
		return tok[1:], true
	}
	return "", false
}

// consumeOption sets an already-registered pflag.Flag from the token
// stream, returning how many tokens (including the flag name itself)
// were consumed. Boolean flags take no value token, matching pflag's
// own convention for NoOptDefVal flags.
func consumeOption(f *pflag.Flag, tokens []string) (int, error) {
	if f.Value.Type() == "bool" {
		if err := f.Value.Set("true"); err != nil {
			return 0, errors.Wrapf(err, "--%s", f.Name)
		}
		return 1, nil
	}
	if len(tokens) < 2 {
		return 0, errors.Errorf("--%s requires a value", f.Name)
	}
	if err := f.Value.Set(tokens[1]); err != nil {
		return 0, errors.Wrapf(err, "--%s", f.Name)
	}
	return 2, nil
}
