// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorum counts recruiters whose phase match and (optionally)
// memory-readiness hold for a set of identity samples. Stylistically
// grounded on the teacher's quorum/flat.go (a scenario arena counted in
// insertion order), adapted to ETM's phase/ancestry predicate instead of
// a ballot-threshold predicate.
package quorum

import "github.com/luxfi/etm/phase"

// Sample is one identity's observed phase (and optional ancestry) to be
// matched against the recruiter set.
type Sample struct {
	Phase    phase.Phase
	Ancestry string
}

// Recruiter is the minimal read view QuorumEvaluator needs. RecruiterNode
// satisfies it directly.
type Recruiter interface {
	// PhaseMatches reports whether p falls within this recruiter's
	// tolerance of its target phase.
	PhaseMatches(p phase.Phase) bool
	// MemoryReady reports whether this recruiter's support for ancestry
	// meets the memory threshold (ignored when ancestry is empty).
	MemoryReady(ancestry string, threshold float64) bool
}

// Count returns the number of recruiters, iterated in the given
// insertion order, for which every sample satisfies both the phase
// match and (when requireMemory is set) the memory-readiness predicate
// (§4.6). Tie-breaking is unnecessary: the result is a deterministic
// count.
func Count(recruiters []Recruiter, samples []Sample, memoryThreshold float64, requireMemory bool) int {
	matches := 0
	for _, r := range recruiters {
		if satisfiesAll(r, samples, memoryThreshold, requireMemory) {
			matches++
		}
	}
	return matches
}

func satisfiesAll(r Recruiter, samples []Sample, memoryThreshold float64, requireMemory bool) bool {
	for _, s := range samples {
		if !r.PhaseMatches(s.Phase) {
			return false
		}
		if requireMemory && s.Ancestry != "" && !r.MemoryReady(s.Ancestry, memoryThreshold) {
			return false
		}
	}
	return true
}
