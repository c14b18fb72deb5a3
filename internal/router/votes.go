// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package router

import (
	"github.com/crossnet-go/relay/pkg/types"
)

type voteKey struct {
	source types.NetworkID
	hash   types.Hash
}

type recordState uint8

const (
	// statePending accumulates votes; the payload may or may not be
	// present yet (proofs can outrun the full batch).
	statePending recordState = iota
	// stateDelivered is terminal. The payload is dropped; only the hash
	// lingers for replay detection.
	stateDelivered
)

// voteRecord tallies which distinct adapters reported a given digest from a
// given source network. It is written only by the router's inbound entry
// points and is never exposed for external mutation.
type voteRecord struct {
	state   recordState
	voted   map[types.AdapterID]struct{}
	payload []byte
}

func newVoteRecord() *voteRecord {
	return &voteRecord{
		voted: make(map[types.AdapterID]struct{}),
	}
}

// registerVote adds a vote and reports whether it was new. A repeated vote
// from the same adapter is a no-op.
func (v *voteRecord) registerVote(adapter types.AdapterID) bool {
	if _, hasVoted := v.voted[adapter]; hasVoted {
		return false
	}
	v.voted[adapter] = struct{}{}
	return true
}
