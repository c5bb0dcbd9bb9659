// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package phase implements modular rhythm arithmetic on [0,1): the
// timing coordinate every identity and recruiter in ETM is synchronized
// against.
package phase

import "math"

// Phase is a rhythm coordinate, always kept in [0, 1).
type Phase float64

// Advance returns (p + delta) mod 1, wrapped into [0, 1) even for
// negative delta.
func Advance(p Phase, delta float64) Phase {
	v := math.Mod(float64(p)+delta, 1.0)
	if v < 0 {
		v += 1.0
	}
	return Phase(v)
}

// CircularDistance returns the shortest distance between two phases on
// the [0,1) ring, in [0, 0.5].
func CircularDistance(a, b Phase) float64 {
	d := math.Abs(float64(a) - float64(b))
	if d > 0.5 {
		d = 1.0 - d
	}
	return d
}

// Within reports whether a and b are within tol of each other under
// circular distance.
func Within(a, b Phase, tol float64) bool {
	return CircularDistance(a, b) <= tol
}

// ShortestArcError returns the signed shortest-arc error from target to
// sample, in [-0.5, 0.5). Used by adaptive recruiters to follow an
// observed phase without overshooting the far side of the ring.
func ShortestArcError(sample, target Phase) float64 {
	e := math.Mod(float64(sample)-float64(target)+0.5, 1.0)
	if e < 0 {
		e += 1.0
	}
	return e - 0.5
}
