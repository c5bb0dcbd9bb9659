// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

// Default returns the parameter set matching the spec's documented
// defaults (phase_increment 0.05, phase_tolerance 0.11, and so on).
func Default() Parameters {
	return Parameters{
		Ticks:                  1000,
		PhaseIncrement:         0.05,
		PhaseTolerance:         0.11,
		ReinforcementAmount:    0.1,
		ReinforcementDecay:     0.002,
		ReinforcementThreshold: 0.1,
		MemoryDecay:            0.98,
		AdaptRate:              0.01,
		LockInThreshold:        20,
		LockInQuorum:           4,
	}
}

// Strict mirrors the source repo's tightly-wound trials: a narrow phase
// tolerance (0.05, against the default 0.11) and per-ancestry ledger, for
// scenarios that need a tighter acceptance window than the default.
func Strict() Parameters {
	p := Default()
	p.PhaseTolerance = 0.05
	p.PerAncestryLedger = true
	return p
}

// Fast shortens the lock-in streak and tick count for quick iteration in
// tests and local experimentation.
func Fast() Parameters {
	p := Default()
	p.Ticks = 100
	p.LockInThreshold = 5
	p.LockInQuorum = 2
	return p
}
