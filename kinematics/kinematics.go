// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package kinematics implements the optional positional extension
// (§1, out of the core's scope but specified here with a defined
// contract): a 2D position/velocity integrated once per tick for trials
// that visualize rhythm pressure. It never feeds back into phase,
// memory, or transition logic.
package kinematics

import "gonum.org/v1/gonum/floats"

// Body is the minimal kinematic state an IdentityNode exposes.
type Body struct {
	X, Y, VX, VY float64
}

// Integrate advances position by velocity for one tick (simple Euler
// integration — there is no continuous-time integration requirement in
// this system, per the Non-goals in §1).
func Integrate(b *Body) {
	b.X += b.VX
	b.Y += b.VY
}

// ApplyDrift nudges velocity toward a target vector by rate, used when a
// trial wants rhythm pressure (recruiter support gradient) to visually
// pull an identity's drawn position toward a stronger field.
func ApplyDrift(b *Body, targetVX, targetVY, rate float64) {
	b.VX += (targetVX - b.VX) * rate
	b.VY += (targetVY - b.VY) * rate
}

// Distance returns the Euclidean distance between two bodies, using
// gonum's floats.Distance over their 2-vectors.
func Distance(a, b Body) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}
