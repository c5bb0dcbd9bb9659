// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/etm/internal/utils/set"
	"github.com/luxfi/etm/node"
)

func TestUpdateFiresAtThreshold(t *testing.T) {
	require := require.New(t)

	c := NewController(3, 2, nil)
	require.False(c.Update(1, 2))
	require.False(c.Update(2, 2))
	require.True(c.Update(3, 2))
	require.True(c.Locked)
	require.Equal(3, c.LockTick)
}

func TestStreakResetsBelowQuorum(t *testing.T) {
	require := require.New(t)

	c := NewController(3, 2, nil)
	require.False(c.Update(1, 2))
	require.False(c.Update(2, 1)) // below quorum resets streak
	require.Equal(0, c.Streak)
	require.False(c.Update(3, 2))
	require.False(c.Update(4, 2))
	require.True(c.Update(5, 2))
}

func TestUpdateIdempotentOnceLocked(t *testing.T) {
	require := require.New(t)

	c := NewController(1, 1, nil)
	require.True(c.Update(5, 1))
	require.Equal(5, c.LockTick)
	require.False(c.Update(6, 0)) // no further change once locked
	require.Equal(5, c.LockTick)
	require.True(c.Locked)
}

func TestSignatureExclusion(t *testing.T) {
	require := require.New(t)

	sigs := set.NewSet[Signature](0)
	a := NewController(1, 1, &sigs)
	b := NewController(1, 1, &sigs)

	sig := NewSignature("H1_proton", 0.001, node.SpinUp)
	require.True(a.TryClaim(sig))
	require.False(b.TryClaim(sig)) // same signature already claimed

	other := NewSignature("H1_proton", 0.001, node.SpinDown)
	require.True(b.TryClaim(other)) // distinct spin coexists (S7)
}

func TestClaimForAllowsSameIdentityRepeatedly(t *testing.T) {
	require := require.New(t)

	sigs := set.NewSet[Signature](0)
	c := NewController(5, 2, &sigs)
	sig := NewSignature("H1_proton", 0.0, node.SpinUp)

	require.True(c.ClaimFor("P", sig))
	require.True(c.ClaimFor("P", sig)) // reclaiming its own signature never fails
	require.True(c.ClaimFor("P", sig))
}

func TestClaimForRefusesCollidingIdentity(t *testing.T) {
	require := require.New(t)

	sigs := set.NewSet[Signature](0)
	c := NewController(5, 2, &sigs)
	sig := NewSignature("H1_proton", 0.0, node.SpinUp)

	require.True(c.ClaimFor("P", sig))
	require.False(c.ClaimFor("Q", sig)) // a different identity sharing the signature is refused
	require.True(c.ClaimFor("P", sig))  // P's own claim is unaffected by Q's refusal
}

func TestSignatureRoundsPhase(t *testing.T) {
	require := require.New(t)
	a := NewSignature("rotor-A", 0.0001, node.SpinNone)
	b := NewSignature("rotor-A", 0.0, node.SpinNone)
	require.Equal(a, b)
}
