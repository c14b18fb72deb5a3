// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package router

import (
	"github.com/crossnet-go/relay/pkg/types"
)

// Configurator is the authorized mutation surface of a Router. It is
// handed out exactly once, at construction, to whoever wires the system;
// adapters never hold one. Route replacement is atomic: a registration is
// either the old set or the new set, never a mix.
type Configurator struct {
	router *Router
}

// SetRoute installs or atomically replaces the registration for a
// destination network. The empty tenant configures the network default,
// which is also the registration used to count inbound quorum.
func (c *Configurator) SetRoute(remote types.NetworkID, tenant types.TenantID, route Route) error {
	if err := route.validate(); err != nil {
		return err
	}
	installed := Route{
		Adapters: append([]AdapterEntry(nil), route.Adapters...),
		Quorum:   route.Quorum,
		Primary:  route.Primary,
	}
	r := c.router
	r.lock.Lock()
	defer r.lock.Unlock()
	r.routes[routeKey{remote: remote, tenant: tenant}] = &installed
	r.logger.Infof("Configured route to network %d tenant %q: %d adapters, quorum %d, primary index %d",
		remote, tenant, len(installed.Adapters), installed.Quorum, installed.Primary)
	return nil
}

// ResubmitPayload injects raw payload bytes obtained out-of-band, as if an
// adapter had delivered them, without recording any vote. Delivery still
// requires the payload's digest to reach quorum through adapter reports:
// manual resubmission supplies payload, not trust.
func (c *Configurator) ResubmitPayload(source types.NetworkID, raw []byte) error {
	msgs, err := c.router.resubmit(source, raw)
	if err != nil {
		return err
	}
	if msgs != nil {
		c.router.forward(source, msgs)
	}
	return nil
}

// Votes reports how many distinct adapters voted for a digest and whether
// it was delivered. This is the operator's window into stuck batches.
func (c *Configurator) Votes(source types.NetworkID, hash types.Hash) (count int, delivered bool) {
	r := c.router
	r.lock.Lock()
	defer r.lock.Unlock()
	record, ok := r.records[voteKey{source: source, hash: hash}]
	if !ok {
		return 0, false
	}
	return len(record.voted), record.state == stateDelivered
}
