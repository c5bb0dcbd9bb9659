// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package recruiter implements RecruiterNode: a stationary phase target
// that accumulates ancestry-tagged support from echoes, decays that
// support every tick, and — once a quorum streak fires a lock-in — binds
// irrevocably to a single identity's (ancestry, phase, spin) signature.
//
// The teacher repo modeled recruiter variants (Memory, Adaptive, Snap,
// Consensus, Conflict) as a subclass hierarchy; here they collapse into
// one struct gated by capability flags, per the REDESIGN FLAGS.
package recruiter

import (
	"gonum.org/v1/gonum/stat"

	"github.com/luxfi/etm/internal/utils/linked"
	"github.com/luxfi/etm/phase"
)

// EchoLogEntry records one accepted or rejected echo for diagnostics.
type EchoLogEntry struct {
	TickIndex     int
	Ancestry      string
	Phase         phase.Phase
	AncestryMatch bool
	PhaseMatch    bool
	SupportAdded  float64
}

// Capabilities collapses the teacher's recruiter subclass hierarchy into
// a flag set driving one RecruiterNode implementation.
type Capabilities struct {
	AccumulatesPerAncestry bool // ledger keyed by ancestry instead of scalar
	Adapts                 bool // chases an observed phase each tick while unlocked
	Snaps                  bool // locks as soon as a participant is supported and phase-matched, bypassing quorum and streak
	ExclusivePerSignature  bool // modular-lock signature is exclusive across recruiters
	Catalyst               bool // accepts photon/neutrino echoes into the ledger
}

// RecruiterNode is a phase-targeted, ancestry-aware support accumulator.
type RecruiterNode struct {
	ID             string
	TargetPhase    phase.Phase
	PhaseTolerance float64
	TargetAncestry string // empty means accept any ancestry

	// X, Y are the optional stationary placement used by the positional
	// kinematics extension (§3 "position?"); never read by phase,
	// support, or lock logic.
	X, Y float64

	Caps Capabilities

	scalarSupport float64
	ledger        *linked.Hashmap[string, float64] // per-ancestry support, insertion ordered

	Memory float64 // legacy scalar memory, decayed 0.97x per echo

	EchoLog []EchoLogEntry

	Locked         bool
	LockTick       int
	LockedIdentity string // empty means unbound
	Streak         int
}

// NewRecruiterNode constructs a RecruiterNode with the spec's defaults
// (phase_tolerance 0.11 is the caller's responsibility via config).
func NewRecruiterNode(id string, targetPhase phase.Phase, phaseTolerance float64, targetAncestry string, caps Capabilities) *RecruiterNode {
	r := &RecruiterNode{
		ID:             id,
		TargetPhase:    targetPhase,
		PhaseTolerance: phaseTolerance,
		TargetAncestry: targetAncestry,
		Caps:           caps,
		Memory:         1.0,
	}
	if caps.AccumulatesPerAncestry {
		r.ledger = linked.NewHashmap[string, float64]()
	}
	return r
}

// ReceiveEcho records an incoming echo, updating support and the echo
// log. Locked recruiters still record the echo but never alter
// TargetPhase or TargetAncestry (§4.3).
func (r *RecruiterNode) ReceiveEcho(ancestry string, p phase.Phase, strength float64) {
	ancestryMatch := r.TargetAncestry == "" || ancestry == r.TargetAncestry
	phaseMatch := phase.Within(p, r.TargetPhase, r.PhaseTolerance)

	support := 0.0
	if ancestryMatch && phaseMatch {
		support = strength
	}

	r.addSupport(ancestry, support)
	r.Memory *= 0.97

	r.EchoLog = append(r.EchoLog, EchoLogEntry{
		TickIndex:     len(r.EchoLog) + 1,
		Ancestry:      ancestry,
		Phase:         p,
		AncestryMatch: ancestryMatch,
		PhaseMatch:    phaseMatch,
		SupportAdded:  support,
	})
}

func (r *RecruiterNode) addSupport(ancestry string, amount float64) {
	if amount <= 0 {
		return
	}
	if r.ledger != nil {
		cur, _ := r.ledger.Get(ancestry)
		r.ledger.Put(ancestry, cur+amount)
		return
	}
	r.scalarSupport += amount
}

// SupportFor returns the current support score for an ancestry (or the
// scalar total, if per-ancestry accumulation is disabled).
func (r *RecruiterNode) SupportFor(ancestry string) float64 {
	if r.ledger != nil {
		v, _ := r.ledger.Get(ancestry)
		return v
	}
	return r.scalarSupport
}

// TotalSupport sums every ancestry's support (or returns the scalar
// total).
func (r *RecruiterNode) TotalSupport() float64 {
	if r.ledger == nil {
		return r.scalarSupport
	}
	total := 0.0
	r.ledger.Iterate(func(_ string, v float64) bool {
		total += v
		return true
	})
	return total
}

// AverageSupport returns the mean support across tracked ancestries,
// using gonum's stat.Mean for the derived read-only view (§4.5).
func (r *RecruiterNode) AverageSupport() float64 {
	if r.ledger == nil {
		return r.scalarSupport
	}
	var values []float64
	r.ledger.Iterate(func(_ string, v float64) bool {
		values = append(values, v)
		return true
	})
	if len(values) == 0 {
		return 0
	}
	weights := make([]float64, len(values))
	for i := range weights {
		weights[i] = 1
	}
	return stat.Mean(values, weights)
}

// DecayReinforcement applies a linear per-tick decay to every tracked
// ancestry's support, floored at zero (§4.5: decay runs once per tick,
// strictly after all accumulation).
func (r *RecruiterNode) DecayReinforcement(rate float64) {
	if r.ledger == nil {
		r.scalarSupport = decayOne(r.scalarSupport, rate)
		return
	}
	r.ledger.Iterate(func(k string, v float64) bool {
		r.ledger.Put(k, decayOne(v, rate))
		return true
	})
}

func decayOne(v, rate float64) float64 {
	v -= rate
	if v < 0 {
		return 0
	}
	return v
}

// IsSupported reports whether this recruiter currently supports the
// given ancestry at the given phase: support at or above threshold and phase
// within tolerance (§4.3).
func (r *RecruiterNode) IsSupported(ancestry string, p phase.Phase, threshold float64) bool {
	return r.SupportFor(ancestry) >= threshold && phase.Within(p, r.TargetPhase, r.PhaseTolerance)
}

// TryLock attempts to bind this recruiter to identityID. Idempotent for
// the identity already bound; refuses any other identity once bound to
// one (§4.3, exclusion law §8 property 5).
func (r *RecruiterNode) TryLock(identityID, ancestry string, p phase.Phase, threshold float64) bool {
	if r.LockedIdentity == identityID && identityID != "" {
		return true
	}
	if r.LockedIdentity != "" {
		return false
	}
	if !r.IsSupported(ancestry, p, threshold) {
		return false
	}
	r.LockedIdentity = identityID
	return true
}

// Adapt moves TargetPhase toward an observed sample by rate, following
// the shortest arc. No-op once Locked or once the caller signals a
// global lock (§4.3: "must never update when locked").
func (r *RecruiterNode) Adapt(sample phase.Phase, rate float64, lockedGlobal bool) {
	if r.Locked || lockedGlobal || !r.Caps.Adapts {
		return
	}
	e := phase.ShortestArcError(sample, r.TargetPhase)
	r.TargetPhase = phase.Advance(r.TargetPhase, rate*e)
}

// Drift shifts TargetPhase by a fixed per-tick amount, used by the
// scenario's recruiter-phase-drift event (§4.9 step 1). Never applied
// once locked.
func (r *RecruiterNode) Drift(amount float64) {
	if r.Locked {
		return
	}
	r.TargetPhase = phase.Advance(r.TargetPhase, amount)
}

// PhaseMatches reports whether p falls within tolerance of TargetPhase.
// Satisfies quorum.Recruiter.
func (r *RecruiterNode) PhaseMatches(p phase.Phase) bool {
	return phase.Within(p, r.TargetPhase, r.PhaseTolerance)
}

// MemoryReady reports whether support for ancestry meets threshold.
// Satisfies quorum.Recruiter.
func (r *RecruiterNode) MemoryReady(ancestry string, threshold float64) bool {
	return r.SupportFor(ancestry) >= threshold
}

// SetLocked marks the recruiter as locked at tick, propagated by the
// LockController once a quorum streak fires (§4.7).
func (r *RecruiterNode) SetLocked(tick int) {
	r.Locked = true
	r.LockTick = tick
}
