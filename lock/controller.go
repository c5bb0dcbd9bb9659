// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lock implements LockController: streak counting over
// per-tick quorum samples, lock-in firing once the streak threshold is
// met, and the modular-lock signature set enforcing the exclusion law
// after lock (§4.7).
package lock

import (
	"fmt"
	"math"

	"github.com/luxfi/etm/internal/utils/set"
	"github.com/luxfi/etm/node"
	"github.com/luxfi/etm/phase"
)

// Signature is the modular-lock key: (ancestry, rounded phase, spin).
// Two identities sharing a Signature are mutually exclusive once any one
// of them triggers a lock-in (the "ETM Pauli" analog).
type Signature struct {
	Ancestry string
	Phase    float64 // rounded to phaseRoundingDigits
	Spin     node.Spin
}

func (s Signature) String() string {
	return fmt.Sprintf("%s@%.3f/%s", s.Ancestry, s.Phase, s.Spin)
}

const phaseRoundingDigits = 3

// NewSignature builds a Signature from an ancestry, phase, and spin,
// rounding phase to phaseRoundingDigits so near-identical phases collide
// into the same lock key (§4.7: "round(phase, 2-3)").
func NewSignature(ancestry string, p phase.Phase, spin node.Spin) Signature {
	scale := math.Pow(10, phaseRoundingDigits)
	rounded := math.Round(float64(p)*scale) / scale
	return Signature{Ancestry: ancestry, Phase: rounded, Spin: spin}
}

// Controller tracks a single quorum-gated lock: a consecutive-tick
// streak, and — once fired — the tick it locked at. A shared Signature
// set spanning every Controller in a scenario enforces cross-recruiter
// exclusion (S6, S7).
type Controller struct {
	LockInThreshold int
	LockInQuorum    int

	Streak   int
	Locked   bool
	LockTick int

	signatures *set.Set[Signature]
	owners     map[Signature]string
}

// NewController returns a Controller sharing sigs for modular-lock
// exclusion bookkeeping across an entire scenario.
func NewController(lockInThreshold, lockInQuorum int, sigs *set.Set[Signature]) *Controller {
	return &Controller{
		LockInThreshold: lockInThreshold,
		LockInQuorum:    lockInQuorum,
		signatures:      sigs,
	}
}

// Update advances the streak by one tick given the quorum count observed
// this tick, firing lock-in when the streak reaches LockInThreshold. A
// quorum below LockInQuorum resets Streak to zero (§8 property 7). Once
// Locked, Update is idempotent and never resets (§8 property 4).
func (c *Controller) Update(tick, quorum int) (fired bool) {
	if c.Locked {
		return false
	}
	if quorum >= c.LockInQuorum {
		c.Streak++
	} else {
		c.Streak = 0
	}
	if c.Streak >= c.LockInThreshold {
		c.Locked = true
		c.LockTick = tick
		return true
	}
	return false
}

// ClaimFor attempts to register sig as owned by identityID, independent
// of the scenario-wide streak. Returns true if newly claimed or already
// owned by identityID — so the same identity may bind any number of
// recruiters and ticks without ever being refused its own signature —
// and false if a different identity already holds it (the exclusion
// law, §8 property 5). Used by recruiters with ExclusivePerSignature
// (§9 REDESIGN FLAGS) that enforce the law ahead of the global lock-in.
func (c *Controller) ClaimFor(identityID string, sig Signature) bool {
	if c.signatures == nil {
		return true
	}
	if owner, ok := c.owners[sig]; ok {
		return owner == identityID
	}
	if c.owners == nil {
		c.owners = make(map[Signature]string)
	}
	c.owners[sig] = identityID
	c.signatures.Add(sig)
	return true
}

// Owner reports the identity currently holding sig via ClaimFor, if any.
func (c *Controller) Owner(sig Signature) (string, bool) {
	owner, ok := c.owners[sig]
	return owner, ok
}

// TryClaim attempts to register sig as the scenario's modular-lock key.
// Returns true if sig was not yet in the shared set (and adds it), false
// if it was already claimed by any earlier call (the exclusion law, §8
// property 5); TryClaim tracks membership only, not which identity claimed.
func (c *Controller) TryClaim(sig Signature) bool {
	if c.signatures == nil {
		return true
	}
	if c.signatures.Contains(sig) {
		return false
	}
	c.signatures.Add(sig)
	return true
}
