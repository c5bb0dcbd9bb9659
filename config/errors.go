// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

// Sentinel configuration errors. Scenario construction aggregates every
// one of these it encounters via internal/utils/wrappers.Errs rather than
// failing on the first.
var (
	ErrInvalidTicks              = errors.New("ticks must be >= 1")
	ErrInvalidPhaseIncrement     = errors.New("phase_increment must be > 0")
	ErrInvalidPhaseTolerance     = errors.New("phase_tolerance must be >= 0")
	ErrInvalidReinforcementDecay = errors.New("reinforcement_decay must be >= 0")
	ErrInvalidReinforcementFloor = errors.New("reinforcement_threshold must be >= 0")
	ErrInvalidLockInThreshold    = errors.New("lock_in_threshold must be >= 1")
	ErrInvalidLockInQuorum       = errors.New("lock_in_quorum must be >= 1")
	ErrInvalidMemoryDecay        = errors.New("memory_decay must be in (0, 1]")
	ErrInvalidAdaptRate          = errors.New("adapt_rate must be >= 0")
)
