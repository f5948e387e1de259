// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package jailconf parses the jail builder's configuration file
// (default /etc/jail.conf, overridable with --config). It follows the
// teacher's directive-tag struct convention in
// pkg/util/apptainerconf/config.go: each field's `directive` tag names
// the "key = value" line that sets it, and `default` supplies the
// as-if-unset value. No `authorized` tag is read: a directive's value
// is not checked against an enumerated set of tokens.
package jailconf

import (
	"bufio"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// File mirrors spec.md's configurable knobs: the write-path policy, the
// jail root, and the external dependency collaborators' command
// templates and regexes. Of these, only the jail root and write path
// also have command-line flags (--jailbase, --writepath); the commands
// and regexes are set through this file alone.
type File struct {
	JailBase        string   `default:"/var/jails" directive:"jail base"`
	WritePath       string   `default:"^/var/jails/" directive:"write path"`
	LdconfigCmd     string   `default:"ldconfig -p" directive:"ldconfig command"`
	LdconfigRegex   string   `default:"=>\\s*(\\S+)" directive:"ldconfig regex"`
	LdlistCmd       string   `default:"{ldlinux_so} --list {path}" directive:"ldlist command"`
	LdlistRegex     string   `default:"(/\\S+)" directive:"ldlist regex"`
	DefaultUmask    uint     `default:"31" directive:"default umask"`
	UsernameRegex   string   `default:"^[a-z_][a-z0-9_-]*$" directive:"username regex"`
	DefaultBindPath []string `default:"/run/shm,/usr" directive:"default bind path"`
}

// Default returns a File populated entirely from struct `default` tags,
// the value used when no configuration file is present.
func Default() *File {
	f := &File{}
	populateDefaults(reflect.ValueOf(f).Elem())
	return f
}

// Parse reads path and overlays "key = value" directive lines onto a
// Default() File. A blank path, or a path that does not exist, yields
// the defaults unchanged, matching the teacher's Parse("") convention
// for "no config file present".
func Parse(path string) (*File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	directives, err := directiveFields(f)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Errorf("%s:%d: malformed directive %q", path, lineNo, line)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		field, ok := directives[key]
		if !ok {
			return nil, errors.Errorf("%s:%d: unknown directive %q", path, lineNo, key)
		}
		if err := setField(field, value); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return f, nil
}

func populateDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok {
			continue
		}
		_ = setField(v.Field(i), def)
	}
}

func directiveFields(f *File) (map[string]reflect.Value, error) {
	v := reflect.ValueOf(f).Elem()
	t := v.Type()
	out := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("directive")
		if !ok {
			continue
		}
		out[tag] = v.Field(i)
	}
	return out, nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid unsigned value %q", value)
		}
		field.SetUint(n)
	case reflect.Bool:
		b, err := parseYesNo(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return errors.Errorf("unsupported directive field kind %s", field.Kind())
	}
	return nil
}

func parseYesNo(value string) (bool, error) {
	switch value {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, errors.Errorf("expected yes/no, got %q", value)
	}
}
