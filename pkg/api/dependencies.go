// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package api

import (
	"github.com/crossnet-go/relay/pkg/types"
)

// Adapter is the capability contract every transport binding satisfies.
// The core depends only on this interface, never on a transport's SDK, and
// assumes nothing about a binding's retry, ordering or latency behavior
// beyond "eventually delivers at most what was sent, or not at all".
//
// On the receive side a binding hands inbound raw bytes to the router's
// OnReceive entry point, tagged with the AdapterID it was assigned at
// registration and the declared source network.
type Adapter interface {
	// Send relays raw bytes to the remote network. The receipt is opaque.
	Send(remote types.NetworkID, payload []byte, gasLimit uint64, refundAddr string) (types.Receipt, error)

	// Estimate quotes the native-currency cost of relaying payload.
	Estimate(remote types.NetworkID, payload []byte, gasLimit uint64) (uint64, error)
}

// MessageHandler receives decoded domain sub-messages on the inbound side.
// Implementations must not re-enter the router or gateway inbound path.
// An error affects only the sub-message it was returned for; siblings in
// the same batch are still dispatched.
type MessageHandler interface {
	HandleMessage(source types.NetworkID, msg []byte) error
}

// Inbound is the router entry point adapter bindings deliver into.
type Inbound interface {
	OnReceive(source types.NetworkID, adapter types.AdapterID, raw []byte) error
}

// Logger defines the contract for logging.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Panicf(template string, args ...interface{})
}
