// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/etm/config"
	"github.com/luxfi/etm/metrics"
	"github.com/luxfi/etm/node"
	"github.com/luxfi/etm/recruiter"
	"github.com/luxfi/etm/scenario"
	"github.com/luxfi/etm/transition"
)

func main() {
	name := flag.String("scenario", "lockin", "scenario to run: fold, lockin")
	preset := flag.String("preset", "default", "parameter preset: default, strict, fast")
	ticks := flag.Int("ticks", 0, "override the scenario's tick count (0 keeps the scenario's own count)")
	verbose := flag.Bool("verbose", false, "print every observation, not just the summary")
	flag.Parse()

	params, err := parsePreset(*preset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sc, err := buildScenario(*name, params)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *ticks > 0 {
		sc.Params.Ticks = *ticks
	}

	rt, err := sc.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "scenario configuration error:", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(reg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "metrics registration error:", err)
		os.Exit(1)
	}
	rt.Metrics = m

	fmt.Printf("=== ETM Scheduler — %s (%s preset, %d ticks) ===\n\n", *name, *preset, sc.Params.Ticks)

	start := time.Now()
	runErr := rt.Run(context.Background())
	elapsed := time.Since(start)

	if *verbose {
		for _, obs := range rt.Observations {
			fmt.Printf("tick %4d: quorum=%d locked=%v avg_support=%.6f\n",
				obs.Tick, obs.Quorum, obs.Locked, obs.RecruiterAverage)
		}
		fmt.Println()
	}

	summary := rt.Summarize()
	fmt.Printf("Ticks run:       %d\n", summary.TicksRun)
	fmt.Printf("Locked:          %v\n", summary.Locked)
	if summary.Locked {
		fmt.Printf("Lock tick:       %d\n", summary.LockTick)
	}
	fmt.Printf("Transitions:     %d logged\n", len(rt.TransitionLog))
	fmt.Printf("Wall time:       %s\n", elapsed)

	if runErr != nil {
		fmt.Fprintln(os.Stderr, "\nrun aborted:", runErr)
		os.Exit(1)
	}
}

func parsePreset(name string) (config.Parameters, error) {
	switch name {
	case "default":
		return config.Default(), nil
	case "strict":
		return config.Strict(), nil
	case "fast":
		return config.Fast(), nil
	default:
		return config.Parameters{}, fmt.Errorf("unknown preset %q", name)
	}
}

// buildScenario assembles one of the engine's two canonical demonstration
// scenarios: "fold" tracks a single rotor-A identity's module, starting in
// A, against one rotor-A recruiter for 10 ticks unless -ticks overrides
// it (over those 10 ticks, with every preset's 0.1 echo strength, its
// support stays far below the A->D guard of 2, so it remains in A), and "lockin" runs the six-recruiter, two-identity quorum
// lock-in (S5).
func buildScenario(name string, params config.Parameters) (scenario.Scenario, error) {
	switch name {
	case "fold":
		return foldScenario(params), nil
	case "lockin":
		return lockinScenario(params), nil
	default:
		return scenario.Scenario{}, fmt.Errorf("unknown scenario %q", name)
	}
}

func foldScenario(params config.Parameters) scenario.Scenario {
	params.Ticks = 10
	return scenario.Scenario{
		Params: params,
		Recruiters: []scenario.RecruiterSpec{
			{ID: "r0", TargetPhase: 0.0, TargetAncestry: "rotor-A", Caps: recruiter.Capabilities{}},
		},
		Identities: []scenario.IdentitySpec{
			{ID: "id-A", InitialPhase: 0.0, Ancestry: "rotor-A", PhaseIncrement: 0.0},
		},
		ModulesToTrack: []scenario.TrackedModule{
			{IdentityID: "id-A", InitialModule: transition.ModuleA},
		},
	}
}

func lockinScenario(params config.Parameters) scenario.Scenario {
	params.Ticks = 80

	var recruiters []scenario.RecruiterSpec
	for i := 0; i < 6; i++ {
		recruiters = append(recruiters, scenario.RecruiterSpec{
			ID:          fmt.Sprintf("r%d", i),
			TargetPhase: 0.0,
		})
	}

	return scenario.Scenario{
		Params:     params,
		Recruiters: recruiters,
		Identities: []scenario.IdentitySpec{
			{ID: "P", InitialPhase: 0.0, Ancestry: "H1_proton", Spin: node.SpinUp, PhaseIncrement: 0.01},
			{ID: "N", InitialPhase: 0.0, Ancestry: "H2_neutron", Spin: node.SpinUp, PhaseIncrement: 0.01},
		},
		QuorumParticipants: []string{"P", "N"},
	}
}
