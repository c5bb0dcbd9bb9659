// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node implements IdentityNode, the mobile rhythm carrier of
// ETM: a ticking phase with ancestry, decaying memory, and an
// append-only history of status snapshots.
package node

import "github.com/luxfi/etm/phase"

// Spin distinguishes otherwise-identical ancestries for the modular-lock
// exclusion law (the "ETM Pauli" analog, §4.7/S7).
type Spin uint8

const (
	SpinNone Spin = iota
	SpinUp
	SpinDown
	SpinSide
)

func (s Spin) String() string {
	switch s {
	case SpinUp:
		return "up"
	case SpinDown:
		return "down"
	case SpinSide:
		return "side"
	default:
		return "none"
	}
}

// Status is an immutable snapshot of an IdentityNode at a given tick.
type Status struct {
	ID              string
	Tick            int
	Phase           phase.Phase
	Memory          float64
	Ancestry        string
	CoherenceScore  float64
}

// IdentityNode is a mobile rhythm carrier.
type IdentityNode struct {
	ID             string
	Tick           int
	Phase          phase.Phase
	Ancestry       string
	PhaseIncrement float64 // per-tick advance when respected; NewIdentityNode sets 0.05
	Memory         float64
	MemoryDecay    float64 // multiplicative decay factor per tick
	Spin           Spin
	Active         bool

	// Kinematics extension (§4, optional positional drift).
	X, Y, VX, VY float64

	History []Status
}

// NewIdentityNode constructs an IdentityNode with the spec's defaults:
// memory starts full, memory_decay 0.98, phase_increment 0.05.
func NewIdentityNode(id string, initialPhase phase.Phase, ancestry string) *IdentityNode {
	return &IdentityNode{
		ID:             id,
		Phase:          initialPhase,
		Ancestry:       ancestry,
		PhaseIncrement: 0.05,
		Memory:         1.0,
		MemoryDecay:    0.98,
		Active:         true,
	}
}

// defaultTickDelta is the hardcoded fallback the original Python
// tick_forward() used when called with no explicit delta_phase. Several
// trials set node.phase_increment but never pass it to tick_forward(),
// so the node silently always advances by this constant instead — a
// likely source bug, reproduced here for bit-compatibility (§9).
const defaultTickDelta = 0.05

// TickForward advances the node by one tick. If respectPhaseIncrement is
// false (the default, matching the source), the node advances by
// defaultTickDelta regardless of PhaseIncrement, reproducing the
// original bug exactly. If true, PhaseIncrement is honored.
func (n *IdentityNode) TickForward(respectPhaseIncrement bool) {
	delta := defaultTickDelta
	if respectPhaseIncrement {
		delta = n.PhaseIncrement
	}
	n.TickForwardBy(delta)
}

// TickForwardBy advances the node by one tick using an explicit delta,
// bypassing the RespectNodePhaseIncrement flag entirely. Event-driven
// pulses with an explicit phase_increment override use this form.
func (n *IdentityNode) TickForwardBy(deltaPhase float64) {
	n.Tick++
	n.Phase = phase.Advance(n.Phase, deltaPhase)
	n.Memory *= n.MemoryDecay
	n.recordState()
}

// SetAncestry assigns the ancestry tag.
func (n *IdentityNode) SetAncestry(tag string) {
	n.Ancestry = tag
}

// ReinforceMemory adds amount to Memory, clamped to <= 1.
func (n *IdentityNode) ReinforceMemory(amount float64) {
	n.Memory += amount
	if n.Memory > 1.0 {
		n.Memory = 1.0
	}
}

// SetPhase directly sets the phase, used by event-driven drop/return
// actions. Does not advance Tick or Memory.
func (n *IdentityNode) SetPhase(p phase.Phase) {
	n.Phase = p
}

// StatusOf returns an immutable snapshot of the node's current state.
func (n *IdentityNode) StatusOf() Status {
	return Status{
		ID:             n.ID,
		Tick:           n.Tick,
		Phase:          n.Phase,
		Memory:         n.Memory,
		Ancestry:       n.Ancestry,
		CoherenceScore: n.Memory, // coherence tracks memory until a richer model is needed
	}
}

func (n *IdentityNode) recordState() {
	n.History = append(n.History, n.StatusOf())
}
