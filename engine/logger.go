// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() { loggerPtr.Store(slog.New(nopHandler{})) }

// SetLogger sets the logger used by the engine.
// By default, nothing is logged. Passing nil restores
// the default.
//
// Levels:
//   - [slog.LevelDebug]: resource creation, pass
//     compilation and uniform packing
//   - [slog.LevelInfo]: context loss, restoration and
//     output resizing
//   - [slog.LevelWarn]: skipped draws and failures to
//     restore
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the logger used by the engine.
func Logger() *slog.Logger { return loggerPtr.Load() }
