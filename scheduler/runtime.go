// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scheduler implements the tick-driven scheduler (§4.9): the
// fixed nine-step per-tick order that advances every IdentityNode,
// delivers the tick's echoes, accumulates and decays recruiter support,
// evaluates quorum and lock-in, and runs the TransitionEngine for every
// tracked identity. It is the one place in the engine that mutates the
// identity and recruiter arenas; every other package only reads or is
// handed individual entities to act on.
package scheduler

import (
	"context"
	"math"

	"github.com/luxfi/log"

	"github.com/luxfi/etm/config"
	"github.com/luxfi/etm/echo"
	"github.com/luxfi/etm/internal/obslog"
	"github.com/luxfi/etm/internal/utils/set"
	"github.com/luxfi/etm/kinematics"
	"github.com/luxfi/etm/lock"
	"github.com/luxfi/etm/metrics"
	"github.com/luxfi/etm/node"
	"github.com/luxfi/etm/phase"
	"github.com/luxfi/etm/quorum"
	"github.com/luxfi/etm/recruiter"
	"github.com/luxfi/etm/transition"
)

// TrackedIdentity pairs an identity id with the TransitionEngine watching
// its module state (§3 TransitionLogEntry, §4.9 step 8).
type TrackedIdentity struct {
	IdentityID string
	Module     transition.Module
	Engine     *transition.Engine
}

// Runtime owns the identity and recruiter arenas for one scenario and
// drives them through the per-tick order. Construct one via
// scenario.Build; the zero value is not usable.
type Runtime struct {
	Params config.Parameters

	identities    []*node.IdentityNode
	identityIndex map[string]int

	recruiters     []*recruiter.RecruiterNode
	recruiterIndex map[string]int

	// adjacency maps an identity id to the recruiter ids it echoes to.
	// An identity absent from this map broadcasts to every recruiter
	// (the default for scenarios that don't specify a lattice).
	adjacency map[string][]string

	bus *echo.Bus

	events         map[int][]Event
	driftStartTick int // -1 = drift never starts
	driftPerTick   float64

	lockCtrl *lock.Controller
	sigSet   set.Set[lock.Signature]

	// quorumParticipants names the identities sampled for the scenario's
	// global lock-in quorum (§4.7). Empty means every identity.
	quorumParticipants []string

	tracked []*TrackedIdentity

	tick int

	Observations  []Observation
	TransitionLog []TransitionRecord

	Metrics *metrics.Metrics
	Log     log.Logger
}

// NewRuntime constructs an empty Runtime. scenario.Build populates it;
// callers outside the scenario package should not need this directly.
func NewRuntime(params config.Parameters) *Runtime {
	rt := &Runtime{
		Params:         params,
		identityIndex:  make(map[string]int),
		recruiterIndex: make(map[string]int),
		adjacency:      make(map[string][]string),
		bus:            echo.NewBus(),
		events:         make(map[int][]Event),
		driftStartTick: -1,
		sigSet:         set.NewSet[lock.Signature](0),
		Log:            obslog.NewNoOpLogger(),
	}
	rt.lockCtrl = lock.NewController(params.LockInThreshold, params.LockInQuorum, &rt.sigSet)
	return rt
}

// AddIdentity registers an identity in the arena. Scenario.Build is
// responsible for rejecting duplicate ids before this is called.
func (rt *Runtime) AddIdentity(n *node.IdentityNode) {
	rt.identityIndex[n.ID] = len(rt.identities)
	rt.identities = append(rt.identities, n)
}

// AddRecruiter registers a recruiter in the arena.
func (rt *Runtime) AddRecruiter(r *recruiter.RecruiterNode) {
	rt.recruiterIndex[r.ID] = len(rt.recruiters)
	rt.recruiters = append(rt.recruiters, r)
}

// SetAdjacency records which recruiters an identity echoes to each tick.
// Not calling this for an identity means it broadcasts to every
// recruiter.
func (rt *Runtime) SetAdjacency(identityID string, recruiterIDs []string) {
	rt.adjacency[identityID] = recruiterIDs
}

// SetQuorumParticipants names the identities sampled for the global
// lock-in quorum. Passing nil restores the default (every identity).
func (rt *Runtime) SetQuorumParticipants(ids []string) {
	rt.quorumParticipants = ids
}

// AddEvent schedules ev against its Tick.
func (rt *Runtime) AddEvent(ev Event) {
	rt.events[ev.Tick] = append(rt.events[ev.Tick], ev)
}

// Track registers identityID for TransitionEngine evaluation, starting in
// initial.
func (rt *Runtime) Track(identityID string, initial transition.Module) {
	rt.tracked = append(rt.tracked, &TrackedIdentity{
		IdentityID: identityID,
		Module:     initial,
		Engine:     transition.NewEngine(),
	})
}

// Identity returns the identity registered under id, or nil.
func (rt *Runtime) Identity(id string) *node.IdentityNode {
	idx, ok := rt.identityIndex[id]
	if !ok {
		return nil
	}
	return rt.identities[idx]
}

// Recruiter returns the recruiter registered under id, or nil.
func (rt *Runtime) Recruiter(id string) *recruiter.RecruiterNode {
	idx, ok := rt.recruiterIndex[id]
	if !ok {
		return nil
	}
	return rt.recruiters[idx]
}

// Tick returns the next tick index to be run.
func (rt *Runtime) Tick() int {
	return rt.tick
}

// Run drives the scheduler for Params.Ticks ticks, or until ctx is
// cancelled between ticks (§5: cancellation is checked only between
// ticks, never mid-tick) or an invariant is violated. It returns the
// InvariantError on violation, ctx.Err() on cancellation, or nil on
// completing every tick.
func (rt *Runtime) Run(ctx context.Context) error {
	for rt.tick < rt.Params.Ticks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := rt.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the scheduler by exactly one tick, following the nine
// ordered steps of §4.9. It is exported directly so tests and embedders
// can single-step a scenario without driving the whole Run loop.
func (rt *Runtime) Step() error {
	t := rt.tick

	rt.injectEvents(t)
	rt.advanceIdentities()
	rt.emitEchoes()
	rt.deliverEchoes()
	if rt.Params.AdaptiveRecruiters {
		rt.adaptRecruiters()
	}
	rt.decayRecruiters()
	quorumCount, fired := rt.evaluateQuorumAndLock(t)
	rt.evaluateTransitions(t)
	rt.recordObservation(t, quorumCount, fired)

	if err := rt.checkInvariants(t); err != nil {
		return err
	}

	if rt.Metrics != nil {
		rt.Metrics.ObserveTick(quorumCount, fired, rt.averageSupportAcrossRecruiters())
	}

	rt.tick++
	return nil
}

func (rt *Runtime) injectEvents(t int) {
	for _, ev := range rt.events[t] {
		switch ev.Kind {
		case EventDrop, EventReturn:
			if id := rt.Identity(ev.Target); id != nil {
				id.SetPhase(ev.Phase)
				id.Active = true
			}
		case EventRemove:
			if id := rt.Identity(ev.Target); id != nil {
				id.Active = false
			}
		case EventPhotonPulse:
			rt.enqueuePulse(echo.EmitterPhoton, ev)
		case EventNeutrinoPulse:
			rt.enqueuePulse(echo.EmitterNeutrino, ev)
		case EventDriftStart:
			rt.driftStartTick = t
			rt.driftPerTick = ev.DriftPerTick
		case EventReinforce:
			if id := rt.Identity(ev.Target); id != nil {
				id.ReinforceMemory(ev.Strength)
			}
		}
	}

	if rt.driftStartTick >= 0 && t >= rt.driftStartTick {
		for _, r := range rt.recruiters {
			r.Drift(rt.driftPerTick)
		}
	}
}

func (rt *Runtime) enqueuePulse(kind echo.EmitterKind, ev Event) {
	recipients := ev.Recipients
	if len(recipients) == 0 {
		recipients = rt.allRecruiterIDs()
	}
	for _, rid := range recipients {
		rt.bus.Enqueue(echo.Echo{
			Recipient: rid,
			Emitter:   kind,
			Ancestry:  ev.Ancestry,
			Phase:     ev.Phase,
			Strength:  ev.Strength,
		})
	}
}

func (rt *Runtime) advanceIdentities() {
	for _, id := range rt.identities {
		if !id.Active {
			continue
		}
		id.TickForward(rt.Params.RespectNodePhaseIncrement)
		if rt.Params.KinematicsEnabled {
			body := kinematics.Body{X: id.X, Y: id.Y, VX: id.VX, VY: id.VY}
			kinematics.Integrate(&body)
			id.X, id.Y = body.X, body.Y
		}
	}
}

func (rt *Runtime) emitEchoes() {
	for _, id := range rt.identities {
		if !id.Active {
			continue
		}
		for _, rid := range rt.recipientsFor(id.ID) {
			rt.bus.Enqueue(echo.Echo{
				Recipient: rid,
				Emitter:   echo.EmitterIdentity,
				Ancestry:  id.Ancestry,
				Phase:     id.Phase,
				Strength:  rt.Params.ReinforcementAmount,
			})
		}
	}
}

func (rt *Runtime) recipientsFor(identityID string) []string {
	if ids, ok := rt.adjacency[identityID]; ok {
		return ids
	}
	return rt.allRecruiterIDs()
}

func (rt *Runtime) allRecruiterIDs() []string {
	ids := make([]string, len(rt.recruiters))
	for i, r := range rt.recruiters {
		ids[i] = r.ID
	}
	return ids
}

func (rt *Runtime) deliverEchoes() {
	rt.bus.Deliver(
		func(recipient string) (echo.Sink, bool) {
			r := rt.Recruiter(recipient)
			if r == nil {
				return nil, false
			}
			return r, true
		},
		func(recipient string, emitter echo.EmitterKind) bool {
			if emitter == echo.EmitterIdentity {
				return true
			}
			r := rt.Recruiter(recipient)
			return r != nil && r.Caps.Catalyst
		},
	)
}

// observedPhase returns the mean phase across active identities, the
// sample adaptive recruiters chase each tick. Phase is circular, but a
// plain arithmetic mean over [0,1) is the source behavior being ported
// (scenarios never place identities across the wrap boundary while
// adaptive recruiters are enabled).
func (rt *Runtime) observedPhase() phase.Phase {
	var sum float64
	n := 0
	for _, id := range rt.identities {
		if !id.Active {
			continue
		}
		sum += float64(id.Phase)
		n++
	}
	if n == 0 {
		return 0
	}
	return phase.Phase(sum / float64(n))
}

func (rt *Runtime) adaptRecruiters() {
	sample := rt.observedPhase()
	for _, r := range rt.recruiters {
		r.Adapt(sample, rt.Params.AdaptRate, rt.lockCtrl.Locked)
	}
}

func (rt *Runtime) decayRecruiters() {
	for _, r := range rt.recruiters {
		r.DecayReinforcement(rt.Params.ReinforcementDecay)
	}
}

func (rt *Runtime) participantIDs() []string {
	if len(rt.quorumParticipants) > 0 {
		return rt.quorumParticipants
	}
	ids := make([]string, len(rt.identities))
	for i, id := range rt.identities {
		ids[i] = id.ID
	}
	return ids
}

func (rt *Runtime) isParticipant(id string) bool {
	for _, p := range rt.participantIDs() {
		if p == id {
			return true
		}
	}
	return false
}

// evaluateQuorumAndLock runs step 7: QuorumEvaluator.sample followed by
// LockController.update, then propagates a freshly fired lock-in to
// every matching recruiter and enforces the exclusion law (§8 property
// 5) against every other active identity, every tick, for as long as the
// scenario runs.
func (rt *Runtime) evaluateQuorumAndLock(t int) (quorumCount int, fired bool) {
	var samples []quorum.Sample
	for _, pid := range rt.participantIDs() {
		id := rt.Identity(pid)
		if id == nil || !id.Active {
			continue
		}
		samples = append(samples, quorum.Sample{Phase: id.Phase, Ancestry: id.Ancestry})
	}

	var recs []quorum.Recruiter
	for _, r := range rt.recruiters {
		recs = append(recs, r)
	}
	quorumCount = quorum.Count(recs, samples, rt.Params.ReinforcementThreshold, rt.Params.PerAncestryLedger)

	fired = rt.lockCtrl.Update(t, quorumCount)

	if fired {
		for _, pid := range rt.participantIDs() {
			id := rt.Identity(pid)
			if id == nil || !id.Active {
				continue
			}
			sig := lock.NewSignature(id.Ancestry, id.Phase, id.Spin)
			rt.lockCtrl.TryClaim(sig)
		}
	}

	// Snap capability (§9 REDESIGN FLAGS; trial_161, trial_184, trial_239):
	// a recruiter flagged Snaps binds the instant it sees a supported,
	// phase-matching participant, bypassing the scenario-wide streak
	// entirely — it never waits for rt.lockCtrl.Locked.
	for _, pid := range rt.participantIDs() {
		id := rt.Identity(pid)
		if id == nil || !id.Active {
			continue
		}
		for _, r := range rt.recruiters {
			if !r.Caps.Snaps || r.Locked {
				continue
			}
			if !r.IsSupported(id.Ancestry, id.Phase, rt.Params.ReinforcementThreshold) {
				continue
			}
			if r.Caps.ExclusivePerSignature {
				sig := lock.NewSignature(id.Ancestry, id.Phase, id.Spin)
				if !rt.lockCtrl.ClaimFor(id.ID, sig) {
					continue
				}
			}
			r.SetLocked(t)
			r.TryLock(id.ID, id.Ancestry, id.Phase, rt.Params.ReinforcementThreshold)
		}
	}

	if rt.lockCtrl.Locked {
		for _, pid := range rt.participantIDs() {
			id := rt.Identity(pid)
			if id == nil || !id.Active {
				continue
			}
			for _, r := range rt.recruiters {
				if !r.PhaseMatches(id.Phase) {
					continue
				}
				if r.Caps.ExclusivePerSignature {
					sig := lock.NewSignature(id.Ancestry, id.Phase, id.Spin)
					if !rt.lockCtrl.ClaimFor(id.ID, sig) {
						continue
					}
				}
				if !r.Locked {
					r.SetLocked(t)
				}
				r.TryLock(id.ID, id.Ancestry, id.Phase, rt.Params.ReinforcementThreshold)
			}
		}
		// Exclusion law (§8 property 5): any active identity outside the
		// locking participant set is refused by every already-locked
		// recruiter it phase-matches, regardless of ancestry or streak.
		for _, id := range rt.identities {
			if !id.Active || rt.isParticipant(id.ID) {
				continue
			}
			for _, r := range rt.recruiters {
				if r.Locked && r.PhaseMatches(id.Phase) {
					r.TryLock(id.ID, id.Ancestry, id.Phase, rt.Params.ReinforcementThreshold)
				}
			}
		}
	}

	return quorumCount, fired
}

// conditionsFor assembles the TransitionConditions the spec's Scheduler
// hands to the TransitionEngine for one tracked identity (§3, §4.9 step
// 8): the recruiters adjacent to it vote on ancestry/phase match and
// contribute their ancestry-scoped support.
func (rt *Runtime) conditionsFor(id *node.IdentityNode) transition.Conditions {
	var support, reinforcementSum float64
	var ancestryMatch, phaseMatch bool
	n := 0
	for _, rid := range rt.recipientsFor(id.ID) {
		r := rt.Recruiter(rid)
		if r == nil {
			continue
		}
		if r.TargetAncestry == "" || r.TargetAncestry == id.Ancestry {
			ancestryMatch = true
		}
		if r.PhaseMatches(id.Phase) {
			phaseMatch = true
		}
		s := r.SupportFor(id.Ancestry)
		support += s
		reinforcementSum += s
		n++
	}
	reinforcement := 0.0
	if n > 0 {
		reinforcement = reinforcementSum / float64(n)
	}
	return transition.Conditions{
		RecruiterSupport:   support,
		AncestryMatch:      ancestryMatch,
		TickPhaseMatch:     phaseMatch,
		ReinforcementScore: reinforcement,
	}
}

func (rt *Runtime) evaluateTransitions(t int) {
	for _, ti := range rt.tracked {
		id := rt.Identity(ti.IdentityID)
		if id == nil {
			continue
		}
		cond := rt.conditionsFor(id)
		next := ti.Engine.AttemptTransition(ti.Module, cond)
		ti.Module = next
		entry := ti.Engine.Log[len(ti.Engine.Log)-1]
		rt.TransitionLog = append(rt.TransitionLog, TransitionRecord{
			Tick:       t + 1, // transition_log is 1-indexed per repo convention (§6)
			IdentityID: ti.IdentityID,
			From:       entry.From,
			To:         entry.To,
			Conditions: entry.Conditions,
			Success:    entry.Success,
		})
		if rt.Metrics != nil {
			rt.Metrics.ObserveTransition(entry.Success)
		}
	}
}

func (rt *Runtime) averageSupportAcrossRecruiters() float64 {
	if len(rt.recruiters) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rt.recruiters {
		sum += r.AverageSupport()
	}
	return sum / float64(len(rt.recruiters))
}

// checkInvariants enforces the universal properties from §8 that must
// hold at the end of every tick: phase closure (property 1) and support
// nonnegativity (property 2). A violation here means a bug upstream in
// this package, not a malformed scenario — ConfigurationError and
// ReferenceError are caught at build time instead (§7).
func (rt *Runtime) checkInvariants(t int) error {
	for _, id := range rt.identities {
		p := float64(id.Phase)
		if math.IsNaN(p) || p < 0 || p >= 1 {
			return &InvariantError{Tick: t, Component: "node." + id.ID, Detail: "phase outside [0,1)"}
		}
		if id.Memory < 0 || id.Memory > 1 {
			return &InvariantError{Tick: t, Component: "node." + id.ID, Detail: "memory outside [0,1]"}
		}
	}
	for _, r := range rt.recruiters {
		if r.TotalSupport() < 0 {
			return &InvariantError{Tick: t, Component: "recruiter." + r.ID, Detail: "support_score negative"}
		}
	}
	return nil
}
