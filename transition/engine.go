// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transition implements the modular TransitionEngine: a pure
// function over (current module, conditions) -> next module, with an
// append-only log. A direct, faithful port of
// original_source/etm/transition.py's attempt_transition, including its
// decay-before-re-tick rule ordering for module D (§4.8, §9).
package transition

// Module is a tagged identity-module state. The core state machine only
// defines rules for A, B, C, D; any other value (the ecosystem-defined
// P, N, S, G, E1, Z, R, H2, ...) passes through unchanged, per §3.
type Module string

const (
	ModuleA Module = "A"
	ModuleB Module = "B"
	ModuleC Module = "C"
	ModuleD Module = "D"
)

// Conditions are assembled by the Scheduler each tick for every tracked
// identity (§3).
type Conditions struct {
	RecruiterSupport   float64
	AncestryMatch      bool
	TickPhaseMatch     bool
	ReinforcementScore float64
}

// LogEntry is one transition attempt, successful or not.
type LogEntry struct {
	From       Module
	To         Module
	Conditions Conditions
	Success    bool
}

// Engine evaluates transitions and keeps an append-only log of every
// attempt.
type Engine struct {
	Log []LogEntry
}

// NewEngine returns an Engine with an empty log.
func NewEngine() *Engine {
	return &Engine{}
}

// AttemptTransition evaluates current against conditions per the
// canonical rule table (§4.8) and returns the resulting module. Every
// attempt — successful or not — is appended to Log. attempt_transition(C,
// _) = C always (§8 property 6: idempotent terminal transitions).
func (e *Engine) AttemptTransition(current Module, cond Conditions) Module {
	to := current
	success := false

	switch current {
	case ModuleA:
		if cond.RecruiterSupport > 2 && cond.AncestryMatch {
			to = ModuleD
			success = true
		}

	case ModuleD:
		// Decay check precedes the re-tick check; a D node with low
		// reinforcement decays to B even if tick_phase_match also holds,
		// shadowing the re-tick path entirely (§9 Open Question).
		if cond.ReinforcementScore < 0.2 {
			to = ModuleB
			success = true
		} else if cond.TickPhaseMatch && cond.RecruiterSupport > 1 {
			to = ModuleD
			success = true
		}

	case ModuleB:
		if cond.RecruiterSupport > 3 && cond.TickPhaseMatch {
			to = ModuleD
			success = true
		}

	case ModuleC:
		to = ModuleC
		// The source never marks this branch successful even though
		// to == from; reproduced exactly rather than "corrected" to
		// success=true, since C is tested only on its returned module
		// (§8 property 6), not its success flag.
	}

	e.Log = append(e.Log, LogEntry{From: current, To: to, Conditions: cond, Success: success})
	return to
}
