// Package xlog is the leveled logging convention internal/vm and
// internal/bytecode share: Debugf/Logf/Errorf gated by a package-level
// level switch, built on the standard log package — the tracing needs
// here are too thin to justify a logging dependency.
package xlog

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level is one of the three severities Debugf/Logf/Errorf log at.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// current is the active level: anything below it is gated out before
// the format string is even evaluated. Defaults to Info; FLOYD_LOG_LEVEL
// overrides it (debug/info/error), matching the CLI's only other
// environment-driven knob (os.Args).
var current = LevelInfo

func init() {
	switch strings.ToLower(os.Getenv("FLOYD_LOG_LEVEL")) {
	case "debug":
		current = LevelDebug
	case "error":
		current = LevelError
	}
}

// SetLevel overrides the active level; tests use this rather than the
// environment so they don't depend on the process's env.
func SetLevel(l Level) { current = l }

func logAt(l Level, where, format string, args ...interface{}) {
	if l < current {
		return
	}
	log.Output(3, where+": "+fmt.Sprintf(format, args...)) // nolint: errcheck
}

// Debugf logs at debug level: call-by-call tracing, silent unless
// FLOYD_LOG_LEVEL=debug.
func Debugf(where, format string, args ...interface{}) { logAt(LevelDebug, where, format, args...) }

// Logf logs at info level: on by default, off only under
// FLOYD_LOG_LEVEL=error.
func Logf(where, format string, args ...interface{}) { logAt(LevelInfo, where, format, args...) }

// Errorf always logs, regardless of current.
func Errorf(where, format string, args ...interface{}) { logAt(LevelError, where, format, args...) }
