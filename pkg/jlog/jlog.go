// Copyright (c) Contributors to the Apptainer project, established as
//   Apptainer a Series of LF Projects LLC.
//   For website terms of use, trademark policy, privacy policy and other
//   project policies see https://lfprojects.org/policies
// Copyright (c) 2018-2022, Sylabs Inc. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package jlog

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
)

var messageColors = map[Level]*color.Color{
	FatalLevel: color.New(color.FgRed),
	ErrorLevel: color.New(color.FgRed),
	WarnLevel:  color.New(color.FgYellow),
}

var (
	loggerLevel = InfoLevel
	logWriter   = io.Writer(os.Stderr)
)

func init() {
	if l, err := strconv.Atoi(os.Getenv("JAIL_MESSAGELEVEL")); err == nil {
		loggerLevel = Level(l)
	}
}

func writef(msgLevel Level, format string, a ...interface{}) {
	if loggerLevel < msgLevel {
		return
	}
	message := fmt.Sprintf(format, a...)
	prefix := fmt.Sprintf("%-8s", msgLevel.String()+":")
	if c, ok := messageColors[msgLevel]; ok {
		prefix = c.Sprintf("%-8s", msgLevel.String()+":")
	}
	fmt.Fprintf(logWriter, "%s %s\n", prefix, message)
}

// Fatalf logs a FATAL-level message and terminates the process.
func Fatalf(format string, a ...interface{}) {
	writef(FatalLevel, format, a...)
	os.Exit(1)
}

// Errorf logs a failed step without terminating the process.
func Errorf(format string, a ...interface{}) {
	writef(ErrorLevel, format, a...)
}

// Warningf logs a dependency or policy warning.
func Warningf(format string, a ...interface{}) {
	writef(WarnLevel, format, a...)
}

// Infof logs routine progress information.
func Infof(format string, a ...interface{}) {
	writef(InfoLevel, format, a...)
}

// Verbosef logs a shell-equivalent action immediately before it runs,
// per --verbose in spec.md §4.H. Kept as its own level (rather than
// reusing Infof) so tests can assert on verbose transcripts in isolation.
func Verbosef(format string, a ...interface{}) {
	writef(VerboseLevel, format, a...)
}

// Debugf logs fine-grained diagnostic detail.
func Debugf(format string, a ...interface{}) {
	writef(DebugLevel, format, a...)
}

// SetLevel sets the process-wide logger level.
func SetLevel(l Level) {
	loggerLevel = l
}

// GetLevel returns the current logger level.
func GetLevel() Level {
	return loggerLevel
}

// SetWriter redirects log output, returning the previous writer so tests
// can capture and later restore it.
func SetWriter(w io.Writer) io.Writer {
	old := logWriter
	if w != nil {
		logWriter = w
	}
	return old
}
