// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"math"

	"github.com/luxfi/etm/transition"
)

// Observation is one tick's row of the spec's transition_log (§6): the
// tracked identities' phases (rounded to 6 decimals), the mean recruiter
// support, the quorum count, and the lock state as of this tick.
type Observation struct {
	Tick             int // 1-indexed, per repo convention (§6)
	IdentityPhases   map[string]float64
	RecruiterAverage float64
	Quorum           int
	Locked           bool
	LockTick         int
	LockFiredThisTick bool
}

// TransitionRecord is one row of the spec's module_transition_log (§6):
// a TransitionLogEntry (§3) with the tracked identity id attached so a
// multi-identity run's combined log stays attributable.
type TransitionRecord struct {
	Tick       int
	IdentityID string
	From       transition.Module
	To         transition.Module
	Conditions transition.Conditions
	Success    bool
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func (rt *Runtime) recordObservation(t int, quorumCount int, fired bool) {
	phases := make(map[string]float64, len(rt.tracked))
	for _, ti := range rt.tracked {
		if id := rt.Identity(ti.IdentityID); id != nil {
			phases[ti.IdentityID] = round6(float64(id.Phase))
		}
	}
	rt.Observations = append(rt.Observations, Observation{
		Tick:              t + 1,
		IdentityPhases:    phases,
		RecruiterAverage:  round6(rt.averageSupportAcrossRecruiters()),
		Quorum:            quorumCount,
		Locked:            rt.lockCtrl.Locked,
		LockTick:          rt.lockCtrl.LockTick,
		LockFiredThisTick: fired,
	})
}

// Summary is the scenario-defined bit-exact outcome of a run (§6): tick
// count, whether and when a lock fired, and the final observable state of
// every identity and recruiter.
type Summary struct {
	TicksRun       int
	Locked         bool
	LockTick       int
	FinalPhases    map[string]float64
	AverageSupport map[string]float64 // recruiter id -> AverageSupport()
}

// Summarize builds the Summary for the run so far. Safe to call mid-run
// (e.g. from a test stepping one tick at a time) as well as after Run
// completes.
func (rt *Runtime) Summarize() Summary {
	finalPhases := make(map[string]float64, len(rt.identities))
	for _, id := range rt.identities {
		finalPhases[id.ID] = round6(float64(id.Phase))
	}
	avg := make(map[string]float64, len(rt.recruiters))
	for _, r := range rt.recruiters {
		avg[r.ID] = round6(r.AverageSupport())
	}
	return Summary{
		TicksRun:       rt.tick,
		Locked:         rt.lockCtrl.Locked,
		LockTick:       rt.lockCtrl.LockTick,
		FinalPhases:    finalPhases,
		AverageSupport: avg,
	}
}
