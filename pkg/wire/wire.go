// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

// Package wire implements the on-the-wire framing shared by every adapter
// on a network pair. Two frame kinds exist: a batch frame, which is the
// concatenation of length-prefixed sub-messages, and a proof frame, which
// carries only the content hash of a batch. The two are distinguishable by
// the first byte, so a receiver can route a raw blob without decoding it.
//
// Any change to this framing is a breaking protocol change across all
// deployed adapters; the proof frame carries an explicit version byte.
package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/crossnet-go/relay/pkg/types"
)

const (
	// ProofMarker opens every proof frame. Batch frames can never start
	// with it: MaxMessageSize keeps the high byte of any length prefix
	// strictly below the marker.
	ProofMarker byte = 0xFF

	// ProofVersion is the current proof frame version.
	ProofVersion byte = 0x01

	// MaxMessageSize is the largest single sub-message the codec accepts.
	MaxMessageSize = 0xFEFF

	lenPrefixSize  = 2
	proofFrameSize = 2 + types.HashSize
)

var (
	// ErrEmptyBatch is returned when packing or unpacking zero sub-messages.
	ErrEmptyBatch = errors.New("batch must contain at least one sub-message")

	// ErrTruncatedFrame is returned when a batch frame ends mid-message.
	ErrTruncatedFrame = errors.New("truncated batch frame")

	// ErrNotProofFrame is returned when proof decoding is attempted on
	// bytes that are not a well-formed proof frame.
	ErrNotProofFrame = errors.New("not a proof frame")
)

// Pack frames an ordered sequence of sub-messages into one batch.
// Unpack(Pack(msgs)) reproduces msgs exactly, boundaries included.
func Pack(msgs [][]byte) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrEmptyBatch
	}
	size := 0
	for i, m := range msgs {
		if len(m) == 0 {
			return nil, errors.Errorf("sub-message %d is empty", i)
		}
		if len(m) > MaxMessageSize {
			return nil, errors.Errorf("sub-message %d is %d bytes, limit is %d", i, len(m), MaxMessageSize)
		}
		size += lenPrefixSize + len(m)
	}
	batch := make([]byte, 0, size)
	var prefix [lenPrefixSize]byte
	for _, m := range msgs {
		binary.BigEndian.PutUint16(prefix[:], uint16(len(m)))
		batch = append(batch, prefix[:]...)
		batch = append(batch, m...)
	}
	return batch, nil
}

// Unpack decodes a batch back into its sub-message sequence.
// It fails closed: a malformed or truncated frame yields no messages at all.
func Unpack(batch []byte) ([][]byte, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}
	if IsProofFrame(batch) {
		return nil, errors.New("cannot unpack a proof frame as a batch")
	}
	var msgs [][]byte
	for off := 0; off < len(batch); {
		if len(batch)-off < lenPrefixSize {
			return nil, ErrTruncatedFrame
		}
		n := int(binary.BigEndian.Uint16(batch[off : off+lenPrefixSize]))
		if n == 0 || n > MaxMessageSize {
			return nil, errors.Errorf("invalid length prefix %d at offset %d", n, off)
		}
		off += lenPrefixSize
		if len(batch)-off < n {
			return nil, ErrTruncatedFrame
		}
		msg := make([]byte, n)
		copy(msg, batch[off:off+n])
		msgs = append(msgs, msg)
		off += n
	}
	return msgs, nil
}

// PackProof frames a batch hash as a proof frame.
func PackProof(h types.Hash) []byte {
	frame := make([]byte, 0, proofFrameSize)
	frame = append(frame, ProofMarker, ProofVersion)
	return append(frame, h[:]...)
}

// IsProofFrame reports whether raw bytes form a proof frame. It inspects
// only the fixed leading marker and the frame width, never the hash value.
func IsProofFrame(b []byte) bool {
	return len(b) == proofFrameSize && b[0] == ProofMarker && b[1] == ProofVersion
}

// ProofHash extracts the committed hash from a proof frame.
func ProofHash(b []byte) (types.Hash, error) {
	if !IsProofFrame(b) {
		return types.Hash{}, ErrNotProofFrame
	}
	return types.HashFromBytes(b[2:]), nil
}
