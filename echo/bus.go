// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package echo implements the per-tick EchoBus: a deterministic,
// insertion-ordered queue of Echo records from emitters (identities,
// photons, neutrinos) to recruiters, drained once per tick strictly
// before reinforcement decay runs (§4.4).
package echo

import "github.com/luxfi/etm/phase"

// EmitterKind distinguishes an identity-sourced echo from a
// photon/neutrino pulse. Photon and neutrino carry no owning identity
// and are treated as catalysts unless a recruiter opts in (§9).
type EmitterKind uint8

const (
	EmitterIdentity EmitterKind = iota
	EmitterPhoton
	EmitterNeutrino
)

// Echo is an ephemeral per-tick message carrying ancestry, phase, and
// strength to a named recruiter.
type Echo struct {
	Recipient string // recruiter ID
	Emitter   EmitterKind
	Ancestry  string
	Phase     phase.Phase
	Strength  float64
}

// Sink is anything that can receive an echo; RecruiterNode implements
// this via ReceiveEcho.
type Sink interface {
	ReceiveEcho(ancestry string, p phase.Phase, strength float64)
}

// Bus collects echoes queued during the current tick and delivers them
// in insertion order. Accumulation must precede decay, so a just-arrived
// echo is never pre-decayed (§4.4 rationale).
type Bus struct {
	queue []Echo
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Enqueue appends an echo to the current tick's queue.
func (b *Bus) Enqueue(e Echo) {
	b.queue = append(b.queue, e)
}

// Deliver drains the queue in insertion order, routing each echo to its
// recipient via lookup, then clears the queue. Echoes addressed to an
// unknown recipient, or a photon/neutrino echo reaching a recruiter
// without the Catalyst capability, are silently dropped — recoverable
// per §7, not an error.
func (b *Bus) Deliver(lookup func(recipient string) (Sink, bool), accepts func(recipient string, emitter EmitterKind) bool) {
	for _, e := range b.queue {
		sink, ok := lookup(e.Recipient)
		if !ok {
			continue
		}
		if accepts != nil && !accepts(e.Recipient, e.Emitter) {
			continue
		}
		sink.ReceiveEcho(e.Ancestry, e.Phase, e.Strength)
	}
	b.queue = b.queue[:0]
}

// Pending returns the number of echoes currently queued, for
// observability.
func (b *Bus) Pending() int {
	return len(b.queue)
}
