// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package obslog adapts the teacher's log package (a thin wrapper over
// github.com/luxfi/log) for the engine: a Scheduler takes a log.Logger
// the same way the teacher's core/runtime.Deps does, and this package
// supplies the no-op default so the engine runs without a configured
// sink.
package obslog

import "github.com/luxfi/log"

// NewNoOpLogger returns a logger that discards everything, the default
// for a Runtime constructed without an explicit Log.
func NewNoOpLogger() log.Logger {
	return log.NewNoOpLogger()
}
