// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// NetworkID identifies a ledger network participating in cross-network relaying.
type NetworkID uint64

// TenantID identifies the owner of a subsidy balance and, optionally,
// a tenant-scoped route. The empty tenant selects the default route.
type TenantID string

// AdapterID identifies a registered transport adapter within a route.
// The router trusts an adapter's identity by configuration, never its content.
type AdapterID uint64

// Receipt is an opaque acknowledgment returned by an adapter's Send.
// The core never interprets it; it exists for operator correlation only.
type Receipt string

// HashSize is the width in bytes of a batch content hash.
const HashSize = sha256.Size

// Hash is a content commitment over a batch's raw bytes.
type Hash [HashSize]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// HashFromBytes copies b into a Hash. It panics if b is not HashSize bytes,
// since callers are expected to have validated frame widths already.
func HashFromBytes(b []byte) Hash {
	if len(b) != HashSize {
		panic("hash must be exactly HashSize bytes")
	}
	var h Hash
	copy(h[:], b)
	return h
}

// DigestBatch computes the content hash of a packed batch.
// Both ends of a network pair must agree on this function bit-exactly,
// since quorum is counted per digest.
func DigestBatch(batch []byte) Hash {
	return sha256.Sum256(batch)
}
