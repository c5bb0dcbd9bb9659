// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package echo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/etm/phase"
)

type fakeSink struct {
	received []Echo
}

func (f *fakeSink) ReceiveEcho(ancestry string, p phase.Phase, strength float64) {
	f.received = append(f.received, Echo{Ancestry: ancestry, Phase: p, Strength: strength})
}

func TestDeliverIsInsertionOrdered(t *testing.T) {
	require := require.New(t)

	bus := NewBus()
	bus.Enqueue(Echo{Recipient: "r1", Ancestry: "rotor-A", Phase: 0.01, Strength: 1})
	bus.Enqueue(Echo{Recipient: "r1", Ancestry: "rotor-B", Phase: 0.02, Strength: 2})
	bus.Enqueue(Echo{Recipient: "r2", Ancestry: "rotor-A", Phase: 0.01, Strength: 1})

	sinks := map[string]*fakeSink{"r1": {}, "r2": {}}
	bus.Deliver(func(recipient string) (Sink, bool) {
		s, ok := sinks[recipient]
		return s, ok
	}, nil)

	require.Len(sinks["r1"].received, 2)
	require.Equal("rotor-A", sinks["r1"].received[0].Ancestry)
	require.Equal("rotor-B", sinks["r1"].received[1].Ancestry)
	require.Len(sinks["r2"].received, 1)
	require.Equal(0, bus.Pending())
}

func TestDeliverDropsUnknownRecipient(t *testing.T) {
	require := require.New(t)

	bus := NewBus()
	bus.Enqueue(Echo{Recipient: "ghost", Ancestry: "rotor-A", Phase: 0, Strength: 1})

	require.NotPanics(func() {
		bus.Deliver(func(recipient string) (Sink, bool) { return nil, false }, nil)
	})
	require.Equal(0, bus.Pending())
}

func TestDeliverRespectsAcceptsFilter(t *testing.T) {
	require := require.New(t)

	bus := NewBus()
	bus.Enqueue(Echo{Recipient: "r1", Emitter: EmitterPhoton, Ancestry: "photon", Phase: 0, Strength: 1})

	sink := &fakeSink{}
	bus.Deliver(func(recipient string) (Sink, bool) { return sink, true }, func(recipient string, emitter EmitterKind) bool {
		return emitter != EmitterPhoton
	})

	require.Empty(sink.received)
}
