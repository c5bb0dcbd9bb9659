// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the tunable parameters of an ETM scenario: tick
// count, phase tolerances, reinforcement rates, and lock thresholds.
package config

import "github.com/luxfi/etm/internal/utils/wrappers"

// Parameters contains scenario-wide defaults. Individual identities and
// recruiters may override the per-entity fields (phase_increment,
// phase_tolerance).
type Parameters struct {
	// Duration
	Ticks int // total tick count

	// Phase
	PhaseIncrement float64 // default per-tick identity phase advance
	PhaseTolerance float64 // default recruiter acceptance window

	// Reinforcement / memory
	ReinforcementAmount    float64 // default echo strength
	ReinforcementDecay     float64 // per-tick decay rate
	ReinforcementThreshold float64 // per-ancestry support floor for is_supported
	MemoryDecay            float64 // identity memory decay per tick

	// Adaptive recruiters
	AdaptRate float64 // recruiter phase follow speed

	// Lock-in
	LockInThreshold int // consecutive-tick streak to fire lock
	LockInQuorum    int // minimum matching recruiters

	// Feature flags
	PerAncestryLedger         bool // every recruiter's ledger keyed by ancestry; also makes quorum require memory readiness
	AdaptiveRecruiters        bool // unlocked recruiters chase observed phase
	KinematicsEnabled         bool // integrate (x, y, vx, vy) each tick
	RespectNodePhaseIncrement bool // see REDESIGN FLAGS: fixes the tick_forward() default-delta bug
}

// Validate checks Parameters for internal consistency, returning every
// violated invariant via the sentinel errors in errors.go.
func (p Parameters) Validate() error {
	var errs wrappers.Errs
	if p.Ticks < 1 {
		errs.Add(ErrInvalidTicks)
	}
	if p.PhaseIncrement <= 0 {
		errs.Add(ErrInvalidPhaseIncrement)
	}
	if p.PhaseTolerance < 0 {
		errs.Add(ErrInvalidPhaseTolerance)
	}
	if p.ReinforcementDecay < 0 {
		errs.Add(ErrInvalidReinforcementDecay)
	}
	if p.ReinforcementThreshold < 0 {
		errs.Add(ErrInvalidReinforcementFloor)
	}
	if p.LockInThreshold < 1 {
		errs.Add(ErrInvalidLockInThreshold)
	}
	if p.LockInQuorum < 1 {
		errs.Add(ErrInvalidLockInQuorum)
	}
	if p.MemoryDecay <= 0 || p.MemoryDecay > 1 {
		errs.Add(ErrInvalidMemoryDecay)
	}
	if p.AdaptRate < 0 {
		errs.Add(ErrInvalidAdaptRate)
	}
	return errs.Err()
}
