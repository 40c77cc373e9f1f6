// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gviegas/retained/driver"
)

// ConfigError is returned when a resource is created or
// configured with invalid parameters.
type ConfigError struct {
	prefix string
	Reason string
}

func newConfigError(prefix, reason string) error { return &ConfigError{prefix, reason} }

func (e *ConfigError) Error() string { return e.prefix + e.Reason }

// CompileEntry is a single shader compiler diagnostic.
type CompileEntry struct {
	Stage  driver.Stage
	Line   int
	Reason string
}

// CompileError is returned when a shader fails to
// compile. It has one entry per diagnostic line in the
// compiler log.
type CompileError struct {
	Entries []CompileEntry
	// Log is the unparsed compiler log.
	Log string
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString(passPrefix + "compilation failed")
	for _, x := range e.Entries {
		b.WriteString("\n\t" + x.Stage.String() + ":" + strconv.Itoa(x.Line) + ": " + x.Reason)
	}
	return b.String()
}

var logLine = regexp.MustCompile(`^\s*([A-Za-z]+):\s*\d+:(\d+):\s*(.*?)\s*$`)

// parseCompileLog parses lines of the form
//
//	TYPE: 0:LINE: REASON
//
// Lines that do not match are ignored.
func parseCompileLog(stage driver.Stage, log string) []CompileEntry {
	var s []CompileEntry
	for _, l := range strings.Split(log, "\n") {
		m := logLine.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[2])
		s = append(s, CompileEntry{stage, n, m[3]})
	}
	return s
}

// LinkError is returned when a program fails to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string { return passPrefix + "link failed: " + strings.TrimSpace(e.Log) }

// IntrospectError is returned when an active uniform has
// a type that is not supported.
type IntrospectError struct {
	Uniform string
	Stage   driver.Stage
}

func (e *IntrospectError) Error() string {
	return passPrefix + "unsupported type for uniform '" + e.Uniform + "' (" + e.Stage.String() + " stage)"
}

// UsageError is returned when the engine is used in a
// way that its current state does not allow.
type UsageError struct {
	prefix string
	Reason string
}

func newUsageError(prefix, reason string) error { return &UsageError{prefix, reason} }

func (e *UsageError) Error() string { return e.prefix + e.Reason }

// ErrLost is returned by operations that need a GPU
// context while the Device is lost.
var ErrLost error = &UsageError{devPrefix, "device is lost"}
