// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import "github.com/luxfi/etm/phase"

// EventKind enumerates the timeline actions a scenario may schedule
// against a tick (§6 "events": {tick, kind, params}).
type EventKind uint8

const (
	// EventDrop activates an identity at a given phase.
	EventDrop EventKind = iota
	// EventRemove deactivates an identity; it stops ticking and emitting
	// echoes until a Return or Drop reactivates it.
	EventRemove
	// EventReturn reactivates a previously removed identity, setting its
	// phase to the event's Phase.
	EventReturn
	// EventPhotonPulse enqueues a catalyst echo tagged EmitterPhoton.
	EventPhotonPulse
	// EventNeutrinoPulse enqueues a catalyst echo tagged EmitterNeutrino.
	EventNeutrinoPulse
	// EventDriftStart begins per-tick recruiter target-phase drift from
	// this tick forward (§4.9 step 1).
	EventDriftStart
	// EventReinforce directly reinforces an identity's memory, bypassing
	// the echo path.
	EventReinforce
)

// Event is one scheduled timeline action. Not every field applies to
// every Kind; see the EventKind docs above.
type Event struct {
	Tick   int
	Kind   EventKind
	Target string // identity id for Drop/Remove/Return/Reinforce

	Phase    phase.Phase // Drop/Return: phase to set on activation
	Ancestry string      // Photon/NeutrinoPulse: ancestry tag carried by the pulse
	Strength float64     // Reinforce: memory amount; Photon/NeutrinoPulse: echo strength

	Recipients []string // Photon/NeutrinoPulse: recruiter ids; empty means every recruiter

	DriftPerTick float64 // DriftStart: amount added to unlocked recruiters' target phase each tick
}
