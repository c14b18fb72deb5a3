// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crossnet-go/relay/internal/router"
	"github.com/crossnet-go/relay/internal/router/mocks"
	"github.com/crossnet-go/relay/pkg/metrics/disabled"
	"github.com/crossnet-go/relay/pkg/types"
	"github.com/crossnet-go/relay/pkg/wire"
)

const (
	network2 = types.NetworkID(2)

	adapterA = types.AdapterID(1)
	adapterB = types.AdapterID(2)
	adapterC = types.AdapterID(3)
)

type delivered struct {
	count  int
	source types.NetworkID
	msgs   [][]byte
}

func newTestRouter(t *testing.T) (*router.Router, *router.Configurator, *delivered) {
	basicLog, err := zap.NewDevelopment()
	require.NoError(t, err)
	r, configurator := router.New(basicLog.Sugar(), &disabled.Provider{})
	d := &delivered{}
	r.SetDeliver(func(source types.NetworkID, msgs [][]byte) {
		d.count++
		d.source = source
		d.msgs = msgs
	})
	return r, configurator, d
}

func threeAdapterRoute() router.Route {
	return router.Route{
		Adapters: []router.AdapterEntry{
			{ID: adapterA, Adapter: &mocks.Adapter{}},
			{ID: adapterB, Adapter: &mocks.Adapter{}},
			{ID: adapterC, Adapter: &mocks.Adapter{}},
		},
		Quorum:  2,
		Primary: 0,
	}
}

func packedBatch(t *testing.T, msgs ...[]byte) ([]byte, types.Hash) {
	batch, err := wire.Pack(msgs)
	require.NoError(t, err)
	return batch, types.DigestBatch(batch)
}

func TestRouteValidation(t *testing.T) {
	_, configurator, _ := newTestRouter(t)

	for _, tc := range []struct {
		name   string
		mutate func(*router.Route)
	}{
		{"no adapters", func(r *router.Route) { r.Adapters = nil }},
		{"quorum exceeds adapters", func(r *router.Route) { r.Quorum = 4 }},
		{"zero quorum", func(r *router.Route) { r.Quorum = 0 }},
		{"primary out of range", func(r *router.Route) { r.Primary = 3 }},
		{"duplicate identities", func(r *router.Route) { r.Adapters[1].ID = adapterA }},
		{"nil handle", func(r *router.Route) { r.Adapters[2].Adapter = nil }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			route := threeAdapterRoute()
			tc.mutate(&route)
			assert.Error(t, configurator.SetRoute(network2, "", route))
		})
	}

	assert.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))
}

func TestDispatchUnknownDestination(t *testing.T) {
	r, _, _ := newTestRouter(t)

	_, err := r.Quote(network2, "", []byte{1}, 100)
	assert.ErrorIs(t, err, router.ErrUnknownDestination)

	_, err = r.Dispatch(network2, "", []byte{1}, 100, "")
	assert.ErrorIs(t, err, router.ErrUnknownDestination)
}

func TestDispatchFansOutProofs(t *testing.T) {
	r, configurator, _ := newTestRouter(t)

	batch, hash := packedBatch(t, []byte{1, 2, 3}, []byte{4})
	proof := wire.PackProof(hash)

	primary := &mocks.Adapter{}
	primary.On("Send", network2, batch, uint64(100), "refund").Return(types.Receipt("a"), nil)
	secondary := &mocks.Adapter{}
	secondary.On("Send", network2, proof, uint64(100), "refund").Return(types.Receipt("b"), nil)
	tertiary := &mocks.Adapter{}
	tertiary.On("Send", network2, proof, uint64(100), "refund").Return(types.Receipt("c"), nil)

	route := router.Route{
		Adapters: []router.AdapterEntry{
			{ID: adapterA, Adapter: primary},
			{ID: adapterB, Adapter: secondary},
			{ID: adapterC, Adapter: tertiary},
		},
		Quorum:  2,
		Primary: 0,
	}
	require.NoError(t, configurator.SetRoute(network2, "", route))

	receipts, err := r.Dispatch(network2, "", batch, 100, "refund")
	require.NoError(t, err)
	assert.Equal(t, []types.Receipt{"a", "b", "c"}, receipts)

	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
	tertiary.AssertExpectations(t)
}

func TestQuoteSumsAllAdapters(t *testing.T) {
	r, configurator, _ := newTestRouter(t)

	batch, hash := packedBatch(t, []byte{1, 2, 3})
	proof := wire.PackProof(hash)

	primary := &mocks.Adapter{}
	primary.On("Estimate", network2, batch, uint64(100)).Return(uint64(50), nil)
	secondary := &mocks.Adapter{}
	secondary.On("Estimate", network2, proof, uint64(100)).Return(uint64(7), nil)
	tertiary := &mocks.Adapter{}
	tertiary.On("Estimate", network2, proof, uint64(100)).Return(uint64(7), nil)

	route := router.Route{
		Adapters: []router.AdapterEntry{
			{ID: adapterA, Adapter: primary},
			{ID: adapterB, Adapter: secondary},
			{ID: adapterC, Adapter: tertiary},
		},
		Quorum:  2,
		Primary: 0,
	}
	require.NoError(t, configurator.SetRoute(network2, "", route))

	cost, err := r.Quote(network2, "", batch, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), cost)
}

func TestSecondaryFailureTolerated(t *testing.T) {
	r, configurator, _ := newTestRouter(t)

	batch, hash := packedBatch(t, []byte{9})
	proof := wire.PackProof(hash)

	primary := &mocks.Adapter{}
	primary.On("Send", network2, batch, uint64(100), "").Return(types.Receipt("a"), nil)
	secondary := &mocks.Adapter{}
	secondary.On("Send", network2, proof, uint64(100), "").Return(types.Receipt(""), assert.AnError)
	tertiary := &mocks.Adapter{}
	tertiary.On("Send", network2, proof, uint64(100), "").Return(types.Receipt("c"), nil)

	route := router.Route{
		Adapters: []router.AdapterEntry{
			{ID: adapterA, Adapter: primary},
			{ID: adapterB, Adapter: secondary},
			{ID: adapterC, Adapter: tertiary},
		},
		Quorum:  2,
		Primary: 0,
	}
	require.NoError(t, configurator.SetRoute(network2, "", route))

	receipts, err := r.Dispatch(network2, "", batch, 100, "")
	require.NoError(t, err)
	assert.Equal(t, []types.Receipt{"a", "c"}, receipts)
}

func TestPrimaryFailureAborts(t *testing.T) {
	r, configurator, _ := newTestRouter(t)

	batch, _ := packedBatch(t, []byte{9})

	primary := &mocks.Adapter{}
	primary.On("Send", network2, batch, uint64(100), "").Return(types.Receipt(""), assert.AnError)
	secondary := &mocks.Adapter{}

	route := router.Route{
		Adapters: []router.AdapterEntry{
			{ID: adapterA, Adapter: primary},
			{ID: adapterB, Adapter: secondary},
		},
		Quorum:  1,
		Primary: 0,
	}
	require.NoError(t, configurator.SetRoute(network2, "", route))

	_, err := r.Dispatch(network2, "", batch, 100, "")
	assert.Error(t, err)
	secondary.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuorumDeliversExactlyOnce(t *testing.T) {
	r, configurator, d := newTestRouter(t)
	require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))

	batch, hash := packedBatch(t, []byte{1, 2}, []byte{3})
	proof := wire.PackProof(hash)

	// B's proof arrives first: one vote, no payload, no delivery.
	require.NoError(t, r.OnReceive(network2, adapterB, proof))
	assert.Equal(t, 0, d.count)
	count, deliveredFlag := configurator.Votes(network2, hash)
	assert.Equal(t, 1, count)
	assert.False(t, deliveredFlag)

	// A's full payload arrives: second vote, delivery fires once.
	require.NoError(t, r.OnReceive(network2, adapterA, batch))
	require.Equal(t, 1, d.count)
	assert.Equal(t, network2, d.source)
	assert.Equal(t, [][]byte{{1, 2}, {3}}, d.msgs)

	// C's late proof is an idempotent no-op.
	require.NoError(t, r.OnReceive(network2, adapterC, proof))
	assert.Equal(t, 1, d.count)

	count, deliveredFlag = configurator.Votes(network2, hash)
	assert.Equal(t, 2, count)
	assert.True(t, deliveredFlag)
}

func TestProofsOutrunPayload(t *testing.T) {
	r, configurator, d := newTestRouter(t)
	require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))

	batch, hash := packedBatch(t, []byte{42})
	proof := wire.PackProof(hash)

	// Quorum of proofs arrives before any payload: delivery must wait.
	require.NoError(t, r.OnReceive(network2, adapterB, proof))
	require.NoError(t, r.OnReceive(network2, adapterC, proof))
	assert.Equal(t, 0, d.count)

	// Payload arrival completes delivery immediately, no new votes needed.
	require.NoError(t, r.OnReceive(network2, adapterA, batch))
	assert.Equal(t, 1, d.count)
	assert.Equal(t, [][]byte{{42}}, d.msgs)
}

func TestOrderInsensitivity(t *testing.T) {
	batchMsgs := [][]byte{{1}, {2, 3}, {4}}

	orders := [][]func(r *router.Router, batch, proof []byte) error{
		{ // payload first
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterA, batch) },
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterB, proof) },
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterC, proof) },
		},
		{ // proofs first
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterB, proof) },
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterC, proof) },
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterA, batch) },
		},
		{ // interleaved with duplicates
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterB, proof) },
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterB, proof) },
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterA, batch) },
			func(r *router.Router, batch, proof []byte) error { return r.OnReceive(network2, adapterC, proof) },
		},
	}

	for i, order := range orders {
		r, configurator, d := newTestRouter(t)
		require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))
		batch, hash := packedBatch(t, batchMsgs...)
		proof := wire.PackProof(hash)

		for _, step := range order {
			require.NoError(t, step(r, batch, proof))
		}

		assert.Equal(t, 1, d.count, "order %d", i)
		assert.Equal(t, batchMsgs, d.msgs, "order %d", i)
		_, deliveredFlag := configurator.Votes(network2, hash)
		assert.True(t, deliveredFlag, "order %d", i)
	}
}

func TestDuplicateVotesNeverReachQuorum(t *testing.T) {
	r, configurator, d := newTestRouter(t)
	require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))

	batch, hash := packedBatch(t, []byte{5})

	for i := 0; i < 5; i++ {
		require.NoError(t, r.OnReceive(network2, adapterA, batch))
	}
	assert.Equal(t, 0, d.count)
	count, deliveredFlag := configurator.Votes(network2, hash)
	assert.Equal(t, 1, count)
	assert.False(t, deliveredFlag)
}

func TestUnregisteredAdapterRejected(t *testing.T) {
	r, configurator, d := newTestRouter(t)
	require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))

	batch, hash := packedBatch(t, []byte{5})

	err := r.OnReceive(network2, types.AdapterID(99), batch)
	assert.Error(t, err)
	assert.Equal(t, 0, d.count)
	count, _ := configurator.Votes(network2, hash)
	assert.Equal(t, 0, count)
}

func TestUnknownSourceRejected(t *testing.T) {
	r, _, _ := newTestRouter(t)
	err := r.OnReceive(types.NetworkID(7), adapterA, []byte{0, 1, 5})
	assert.ErrorIs(t, err, router.ErrUnknownSource)
}

func TestMalformedBatchRejected(t *testing.T) {
	r, configurator, d := newTestRouter(t)
	require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))

	// Truncated frame: no vote, nothing stored.
	err := r.OnReceive(network2, adapterA, []byte{0x00, 0x05, 0x01})
	assert.Error(t, err)
	assert.Equal(t, 0, d.count)
}

func TestManualResubmissionSuppliesPayloadNotTrust(t *testing.T) {
	r, configurator, d := newTestRouter(t)
	require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))

	batch, hash := packedBatch(t, []byte{8, 9})
	proof := wire.PackProof(hash)

	// Only C votes: 1 of 2 needed, handler never fires.
	require.NoError(t, r.OnReceive(network2, adapterC, proof))
	assert.Equal(t, 0, d.count)

	// Operator injects the payload out-of-band. Still no delivery: the
	// injection does not itself vote.
	require.NoError(t, configurator.ResubmitPayload(network2, batch))
	assert.Equal(t, 0, d.count)
	count, deliveredFlag := configurator.Votes(network2, hash)
	assert.Equal(t, 1, count)
	assert.False(t, deliveredFlag)

	// A second independent vote completes delivery.
	require.NoError(t, r.OnReceive(network2, adapterB, proof))
	assert.Equal(t, 1, d.count)
	assert.Equal(t, [][]byte{{8, 9}}, d.msgs)
}

func TestResubmissionAfterQuorumDeliversImmediately(t *testing.T) {
	r, configurator, d := newTestRouter(t)
	require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))

	batch, hash := packedBatch(t, []byte{8, 9})
	proof := wire.PackProof(hash)

	require.NoError(t, r.OnReceive(network2, adapterB, proof))
	require.NoError(t, r.OnReceive(network2, adapterC, proof))
	assert.Equal(t, 0, d.count)

	require.NoError(t, configurator.ResubmitPayload(network2, batch))
	assert.Equal(t, 1, d.count)
}

func TestReconfigurationReplacesAtomically(t *testing.T) {
	r, configurator, d := newTestRouter(t)
	require.NoError(t, configurator.SetRoute(network2, "", threeAdapterRoute()))

	// Replace the set with {C} at quorum 1: old identities lose their vote.
	require.NoError(t, configurator.SetRoute(network2, "", router.Route{
		Adapters: []router.AdapterEntry{{ID: adapterC, Adapter: &mocks.Adapter{}}},
		Quorum:   1,
		Primary:  0,
	}))

	batch, _ := packedBatch(t, []byte{1})
	err := r.OnReceive(network2, adapterA, batch)
	assert.Error(t, err)

	require.NoError(t, r.OnReceive(network2, adapterC, batch))
	assert.Equal(t, 1, d.count)
}

func TestVotesForUnknownDigest(t *testing.T) {
	_, configurator, _ := newTestRouter(t)
	count, deliveredFlag := configurator.Votes(network2, types.DigestBatch([]byte{1}))
	assert.Equal(t, 0, count)
	assert.False(t, deliveredFlag)
}
