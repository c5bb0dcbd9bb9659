// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/etm/config"
	"github.com/luxfi/etm/lock"
	"github.com/luxfi/etm/node"
	"github.com/luxfi/etm/recruiter"
	"github.com/luxfi/etm/transition"
)

func sixRecruiters(rt *Runtime) {
	for i := 0; i < 6; i++ {
		rt.AddRecruiter(recruiter.NewRecruiterNode(fmt.Sprintf("r%d", i), 0.0, 0.11, "", recruiter.Capabilities{}))
	}
}

// TestLockInFiresThenExcludesIntruder mirrors S5 (lock-in timing: locked
// becomes true at tick = lock_in_threshold, since quorum holds every tick
// from tick 1 on) and S6 (a same-ancestry intruder dropped after lock
// fires is refused by every already-locked recruiter it phase-matches).
func TestLockInFiresThenExcludesIntruder(t *testing.T) {
	require := require.New(t)

	params := config.Fast() // LockInThreshold=5, LockInQuorum=2, Ticks=100
	params.PerAncestryLedger = true
	params.RespectNodePhaseIncrement = true

	rt := NewRuntime(params)
	sixRecruiters(rt)

	p := node.NewIdentityNode("P", 0.0, "H1_proton")
	p.PhaseIncrement = 0 // parked exactly on the recruiters' target phase
	p.Spin = node.SpinUp
	rt.AddIdentity(p)
	rt.SetQuorumParticipants([]string{"P"})

	q := node.NewIdentityNode("Q", 0.0, "H1_proton")
	q.PhaseIncrement = 0
	q.Spin = node.SpinUp
	q.Active = false // dropped later, by the scheduled event
	rt.AddIdentity(q)
	rt.AddEvent(Event{Tick: 6, Kind: EventDrop, Target: "Q", Phase: 0.0})

	for i := 0; i < 10; i++ {
		require.NoError(rt.Step())
	}

	summary := rt.Summarize()
	require.True(summary.Locked)
	// Tick 0's support is decayed below threshold the instant it accrues
	// (decay runs before the quorum check every tick, §4.9), so the streak
	// only starts building at tick 1: lock fires five ticks later, at 5.
	require.Equal(5, summary.LockTick)

	for i := 0; i < 6; i++ {
		r := rt.Recruiter(fmt.Sprintf("r%d", i))
		require.True(r.Locked)
		require.Equal("P", r.LockedIdentity, "Q must never displace the already-bound identity")
	}
}

// TestSnapRecruiterBindsBeforeStreakFires confirms a recruiter with
// Caps.Snaps binds to a supported, phase-matching participant on the
// very first tick it qualifies, well before the scenario-wide streak
// (LockInThreshold ticks) would otherwise fire a lock-in.
func TestSnapRecruiterBindsBeforeStreakFires(t *testing.T) {
	require := require.New(t)

	params := config.Fast() // LockInThreshold=5
	params.RespectNodePhaseIncrement = true

	rt := NewRuntime(params)
	rt.AddRecruiter(recruiter.NewRecruiterNode("snap", 0.0, 0.11, "", recruiter.Capabilities{Snaps: true}))

	p := node.NewIdentityNode("P", 0.0, "H1_proton")
	p.PhaseIncrement = 0
	rt.AddIdentity(p)
	rt.SetQuorumParticipants([]string{"P"})

	// Tick 0's freshly-accrued support decays below threshold the instant
	// it's added (decay runs before the quorum/lock check every tick,
	// §4.9), so the snap can't fire until tick 1.
	require.NoError(rt.Step())
	require.False(rt.Recruiter("snap").Locked)
	require.NoError(rt.Step())

	require.True(rt.Recruiter("snap").Locked, "a snap recruiter must not wait on the streak threshold")
	require.Equal("P", rt.Recruiter("snap").LockedIdentity)
	require.False(rt.Summarize().Locked, "the scenario-wide streak lock-in has not fired yet")
}

// TestExclusivePerSignatureRefusesCollidingSignatureBeforeGlobalLock
// confirms an ExclusivePerSignature snap recruiter refuses to bind a
// second identity sharing an already-claimed modular-lock signature,
// even though the global streak-based lock-in never fires in this test.
func TestExclusivePerSignatureRefusesCollidingSignatureBeforeGlobalLock(t *testing.T) {
	require := require.New(t)

	params := config.Fast()
	params.RespectNodePhaseIncrement = true

	rt := NewRuntime(params)
	caps := recruiter.Capabilities{Snaps: true, ExclusivePerSignature: true}
	rt.AddRecruiter(recruiter.NewRecruiterNode("snap-1", 0.0, 0.11, "", caps))
	rt.AddRecruiter(recruiter.NewRecruiterNode("snap-2", 0.0, 0.11, "", caps))

	p := node.NewIdentityNode("P", 0.0, "H1_proton")
	p.PhaseIncrement = 0
	p.Spin = node.SpinUp
	rt.AddIdentity(p)

	q := node.NewIdentityNode("Q", 0.0, "H1_proton") // same ancestry/phase/spin signature as P
	q.PhaseIncrement = 0
	q.Spin = node.SpinUp
	rt.AddIdentity(q)

	rt.SetQuorumParticipants([]string{"P", "Q"})

	// Both P and Q echo every recruiter each tick, so unlike the
	// single-participant snap test, tick 0's combined support (0.2) already
	// clears the 0.1 threshold after decay.
	require.NoError(rt.Step())

	snap1 := rt.Recruiter("snap-1")
	snap2 := rt.Recruiter("snap-2")
	require.True(snap1.Locked)
	require.True(snap2.Locked)
	require.Equal(snap1.LockedIdentity, snap2.LockedIdentity, "P and Q share a signature; only one may ever claim it")
}

// TestSpinDistinguishedSignaturesCoexist mirrors S7: two identities
// sharing a phase but distinguished by ancestry-tagged spin ("rotor-A-up"
// vs "rotor-A-down") each recruit their own ExclusivePerSignature
// recruiters and both end up bound — the modular-lock signatures
// (ancestry, phase, spin) coexist rather than one refusing the other, the
// way same-signature collisions do in
// TestExclusivePerSignatureRefusesCollidingSignatureBeforeGlobalLock.
func TestSpinDistinguishedSignaturesCoexist(t *testing.T) {
	require := require.New(t)

	params := config.Fast()
	params.RespectNodePhaseIncrement = true

	rt := NewRuntime(params)
	caps := recruiter.Capabilities{AccumulatesPerAncestry: true, ExclusivePerSignature: true}
	for i := 0; i < 3; i++ {
		rt.AddRecruiter(recruiter.NewRecruiterNode(fmt.Sprintf("up%d", i), 0.0, 0.11, "rotor-A-up", caps))
		rt.AddRecruiter(recruiter.NewRecruiterNode(fmt.Sprintf("down%d", i), 0.0, 0.11, "rotor-A-down", caps))
	}

	up := node.NewIdentityNode("Up", 0.0, "rotor-A-up")
	up.PhaseIncrement = 0
	up.Spin = node.SpinUp
	rt.AddIdentity(up)

	down := node.NewIdentityNode("Down", 0.0, "rotor-A-down")
	down.PhaseIncrement = 0
	down.Spin = node.SpinDown
	rt.AddIdentity(down)

	rt.SetQuorumParticipants([]string{"Up", "Down"})

	for i := 0; i < 8; i++ {
		require.NoError(rt.Step())
	}

	require.True(rt.Summarize().Locked)

	sigUp := lock.NewSignature("rotor-A-up", 0.0, node.SpinUp)
	sigDown := lock.NewSignature("rotor-A-down", 0.0, node.SpinDown)

	owner, ok := rt.lockCtrl.Owner(sigUp)
	require.True(ok, "(rotor-A-up, 0.00, up) must be claimed")
	require.Equal("Up", owner)

	owner, ok = rt.lockCtrl.Owner(sigDown)
	require.True(ok, "(rotor-A-down, 0.00, down) must be claimed")
	require.Equal("Down", owner)

	var upBound, downBound int
	for i := 0; i < 3; i++ {
		if r := rt.Recruiter(fmt.Sprintf("up%d", i)); r.Locked {
			require.Equal("Up", r.LockedIdentity, "an up-targeted recruiter must never bind Down")
			upBound++
		}
		if r := rt.Recruiter(fmt.Sprintf("down%d", i)); r.Locked {
			require.Equal("Down", r.LockedIdentity, "a down-targeted recruiter must never bind Up")
			downBound++
		}
	}
	require.Greater(upBound, 0, "Up must actually bind a recruiter, not merely hold its signature")
	require.Greater(downBound, 0, "Down must actually bind a recruiter, not merely hold its signature")
}

// TestRunStopsAtTicksAndRecordsEveryTransition exercises the Scheduler
// end to end: Run drives Step until Params.Ticks, recording one
// Observation and one TransitionRecord per tick for a tracked identity.
func TestRunStopsAtTicksAndRecordsEveryTransition(t *testing.T) {
	require := require.New(t)

	params := config.Default()
	params.Ticks = 5

	rt := NewRuntime(params)
	rt.AddRecruiter(recruiter.NewRecruiterNode("r0", 0.0, 0.11, "rotor-A", recruiter.Capabilities{}))

	id := node.NewIdentityNode("id-A", 0.0, "rotor-A")
	id.PhaseIncrement = 0
	rt.AddIdentity(id)
	rt.Track("id-A", transition.ModuleA)

	require.NoError(rt.Run(context.Background()))
	require.Equal(5, rt.Tick())
	require.Len(rt.Observations, 5)
	require.Len(rt.TransitionLog, 5)
	require.Equal(1, rt.Observations[0].Tick, "observations are 1-indexed per repo convention")
}

// TestRunCancelsBetweenTicks confirms cancellation is only honored
// between ticks (§5), never used to abort a Step mid-flight.
func TestRunCancelsBetweenTicks(t *testing.T) {
	require := require.New(t)

	params := config.Default()
	params.Ticks = 1000

	rt := NewRuntime(params)
	sixRecruiters(rt)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rt.Run(ctx)
	require.ErrorIs(err, context.Canceled)
	require.Equal(0, rt.Tick())
}

// TestInvariantsHoldAcrossWraparound drives an identity through several
// full phase-ring wraps and confirms checkInvariants never fires (§8
// properties 1 and 2).
func TestInvariantsHoldAcrossWraparound(t *testing.T) {
	require := require.New(t)

	params := config.Default()
	params.Ticks = 60
	params.RespectNodePhaseIncrement = true

	rt := NewRuntime(params)
	sixRecruiters(rt)

	id := node.NewIdentityNode("wrapper", 0.0, "rotor-A")
	id.PhaseIncrement = 0.37
	rt.AddIdentity(id)

	require.NoError(rt.Run(context.Background()))
	require.Equal(60, rt.Tick())
}

// TestRemovedIdentityStopsTickingAndEchoing confirms an EventRemove
// deactivates an identity so it neither advances nor contributes
// support, and EventReturn reactivates it.
func TestRemovedIdentityStopsTickingAndEchoing(t *testing.T) {
	require := require.New(t)

	params := config.Default()
	params.Ticks = 5
	params.RespectNodePhaseIncrement = true

	rt := NewRuntime(params)
	rt.AddRecruiter(recruiter.NewRecruiterNode("r0", 0.0, 0.11, "", recruiter.Capabilities{}))

	id := node.NewIdentityNode("id-A", 0.0, "rotor-A")
	id.PhaseIncrement = 0.05
	rt.AddIdentity(id)

	rt.AddEvent(Event{Tick: 1, Kind: EventRemove, Target: "id-A"})
	rt.AddEvent(Event{Tick: 3, Kind: EventReturn, Target: "id-A", Phase: 0.0})

	require.NoError(rt.Step()) // tick 0: active, ticks forward and echoes
	require.True(rt.Identity("id-A").Active)
	supportAfterTick0 := rt.Recruiter("r0").TotalSupport()
	require.Greater(supportAfterTick0, 0.0)

	require.NoError(rt.Step()) // tick 1: removed at the top of the tick
	require.False(rt.Identity("id-A").Active)

	require.NoError(rt.Step()) // tick 2: still inactive
	require.False(rt.Identity("id-A").Active)

	require.NoError(rt.Step()) // tick 3: returned at phase 0.0, then advances once more this same tick
	require.True(rt.Identity("id-A").Active)
	require.InDelta(0.05, float64(rt.Identity("id-A").Phase), 1e-9)
}
