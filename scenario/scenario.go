// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scenario implements ScenarioBuilder (§4.10): a declarative,
// external description of a lattice of recruiters and identities, an
// event timeline, and scheduler policy flags, built once into a
// scheduler.Runtime. Two Scenarios with identical fields build runtimes
// that produce bit-identical logs (§4.10) because every arena is
// populated in the caller's slice order and nothing here reads wall-clock
// time or randomness.
package scenario

import (
	"github.com/luxfi/etm/config"
	"github.com/luxfi/etm/internal/utils/wrappers"
	"github.com/luxfi/etm/node"
	"github.com/luxfi/etm/phase"
	"github.com/luxfi/etm/recruiter"
	"github.com/luxfi/etm/scheduler"
	"github.com/luxfi/etm/transition"
)

// RecruiterSpec describes one recruiter to place in the arena (§6
// "recruiters": {id, target_phase, phase_tolerance?, target_ancestry?,
// position?}).
type RecruiterSpec struct {
	ID             string
	TargetPhase    phase.Phase
	PhaseTolerance float64 // zero means "use the scenario default"
	TargetAncestry string  // empty means accept any ancestry
	Position       *Position
	Caps           recruiter.Capabilities
}

// IdentitySpec describes one identity to place in the arena (§6
// "identities": {id, initial_phase, ancestry, spin?, phase_increment?,
// position?}).
type IdentitySpec struct {
	ID             string
	InitialPhase   phase.Phase
	Ancestry       string
	Spin           node.Spin
	PhaseIncrement float64 // zero means "use the scenario default"
	Position       *Position
}

// Position is the optional kinematic placement carried through to the
// identity or recruiter's (x, y) fields when Params.KinematicsEnabled.
type Position struct {
	X, Y float64
}

// TrackedModule registers an identity for TransitionEngine evaluation
// (§6 "modules_to_track": {identity_id, initial_module}).
type TrackedModule struct {
	IdentityID    string
	InitialModule transition.Module
}

// EventSpec is one entry of the scenario's event timeline (§6 "events":
// {tick, kind, params}). Kind is a string at the boundary so a caller
// assembling a scenario from external config (JSON, YAML, a DSL) can
// name it the way the spec documents; Build rejects any value outside
// the recognized set as a ConfigurationError.
type EventSpec struct {
	Tick       int
	Kind       string
	Target     string
	Phase      phase.Phase
	Ancestry   string
	Strength   float64
	Recipients []string

	DriftPerTick float64
}

var eventKindByName = map[string]scheduler.EventKind{
	"drop":           scheduler.EventDrop,
	"remove":         scheduler.EventRemove,
	"return":         scheduler.EventReturn,
	"photon_pulse":   scheduler.EventPhotonPulse,
	"neutrino_pulse": scheduler.EventNeutrinoPulse,
	"drift_start":    scheduler.EventDriftStart,
	"reinforce":      scheduler.EventReinforce,
}

// Scenario is the full declarative description of one ETM run (§4.10,
// §6). Build validates it and constructs the scheduler.Runtime that
// drives it.
type Scenario struct {
	Params config.Parameters

	Recruiters []RecruiterSpec
	Identities []IdentitySpec
	Events     []EventSpec

	ModulesToTrack []TrackedModule

	// Adjacency maps an identity id to the recruiter ids it echoes to
	// each tick. An identity absent from this map broadcasts to every
	// recruiter, the default for scenarios without an explicit lattice.
	Adjacency map[string][]string

	// QuorumParticipants names the identities sampled for the scenario's
	// global lock-in quorum (§4.7). Empty means every identity.
	QuorumParticipants []string
}

// Build validates the Scenario and constructs the scheduler.Runtime that
// drives it. ConfigurationError and ReferenceError causes are aggregated
// and returned together (§7): a malformed scenario never runs a single
// tick.
func (s Scenario) Build() (*scheduler.Runtime, error) {
	var errs wrappers.Errs

	if err := s.Params.Validate(); err != nil {
		errs.Add(err)
	}

	recruiterIDs := make(map[string]bool, len(s.Recruiters))
	for _, rs := range s.Recruiters {
		if recruiterIDs[rs.ID] {
			errs.Add(ErrDuplicateRecruiterID)
		}
		recruiterIDs[rs.ID] = true
		if float64(rs.TargetPhase) < 0 || float64(rs.TargetPhase) >= 1 {
			errs.Add(ErrPhaseOutOfRange)
		}
		if rs.PhaseTolerance < 0 {
			errs.Add(ErrNegativeTolerance)
		}
	}

	identityIDs := make(map[string]bool, len(s.Identities))
	for _, is := range s.Identities {
		if identityIDs[is.ID] {
			errs.Add(ErrDuplicateIdentityID)
		}
		identityIDs[is.ID] = true
		if float64(is.InitialPhase) < 0 || float64(is.InitialPhase) >= 1 {
			errs.Add(ErrPhaseOutOfRange)
		}
	}

	for _, ev := range s.Events {
		if ev.Tick < 0 {
			errs.Add(ErrNegativeEventTick)
		}
		if _, ok := eventKindByName[ev.Kind]; !ok {
			errs.Add(ErrUnknownEventKind)
			continue
		}
		if ev.Target != "" && !identityIDs[ev.Target] {
			errs.Add(ErrUnknownIdentityRef)
		}
		for _, rid := range ev.Recipients {
			if !recruiterIDs[rid] {
				errs.Add(ErrUnknownRecruiterRef)
			}
		}
	}

	for _, tm := range s.ModulesToTrack {
		if !identityIDs[tm.IdentityID] {
			errs.Add(ErrUnknownIdentityRef)
		}
	}

	for identityID, recs := range s.Adjacency {
		if !identityIDs[identityID] {
			errs.Add(ErrUnknownIdentityRef)
		}
		for _, rid := range recs {
			if !recruiterIDs[rid] {
				errs.Add(ErrUnknownRecruiterRef)
			}
		}
	}

	for _, pid := range s.QuorumParticipants {
		if !identityIDs[pid] {
			errs.Add(ErrUnknownIdentityRef)
		}
	}

	if errs.Errored() {
		return nil, errs.Err()
	}

	rt := scheduler.NewRuntime(s.Params)

	for _, rs := range s.Recruiters {
		tol := rs.PhaseTolerance
		if tol == 0 {
			tol = s.Params.PhaseTolerance
		}
		caps := rs.Caps
		if s.Params.PerAncestryLedger {
			caps.AccumulatesPerAncestry = true
		}
		r := recruiter.NewRecruiterNode(rs.ID, rs.TargetPhase, tol, rs.TargetAncestry, caps)
		if s.Params.KinematicsEnabled && rs.Position != nil {
			r.X, r.Y = rs.Position.X, rs.Position.Y
		}
		rt.AddRecruiter(r)
	}

	for _, is := range s.Identities {
		n := node.NewIdentityNode(is.ID, is.InitialPhase, is.Ancestry)
		n.Spin = is.Spin
		n.PhaseIncrement = s.Params.PhaseIncrement
		if is.PhaseIncrement != 0 {
			n.PhaseIncrement = is.PhaseIncrement
		}
		if s.Params.KinematicsEnabled && is.Position != nil {
			n.X, n.Y = is.Position.X, is.Position.Y
		}
		rt.AddIdentity(n)
	}

	for identityID, recs := range s.Adjacency {
		rt.SetAdjacency(identityID, recs)
	}

	rt.SetQuorumParticipants(s.QuorumParticipants)

	for _, ev := range s.Events {
		rt.AddEvent(scheduler.Event{
			Tick:         ev.Tick,
			Kind:         eventKindByName[ev.Kind],
			Target:       ev.Target,
			Phase:        ev.Phase,
			Ancestry:     ev.Ancestry,
			Strength:     ev.Strength,
			Recipients:   ev.Recipients,
			DriftPerTick: ev.DriftPerTick,
		})
	}

	for _, tm := range s.ModulesToTrack {
		rt.Track(tm.IdentityID, tm.InitialModule)
	}

	return rt, nil
}
