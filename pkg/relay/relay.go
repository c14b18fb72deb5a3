// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

// Package relay wires the quorum router and the outbound gateway into one
// system. Domain logic talks to the Gateway; adapter bindings deliver into
// Inbound(); operators configure routes and recover stuck payloads through
// the Relay itself, which owns the router's configurator.
package relay

import (
	"github.com/crossnet-go/relay/internal/router"
	"github.com/crossnet-go/relay/pkg/api"
	"github.com/crossnet-go/relay/pkg/gateway"
	"github.com/crossnet-go/relay/pkg/types"
)

// AdapterRegistration binds an identity to a transport handle within a route.
type AdapterRegistration struct {
	ID      types.AdapterID
	Adapter api.Adapter
}

// RouteConfig declares the adapter set for one destination network. The
// empty Tenant configures the network default route, which also counts
// inbound quorum for that network.
type RouteConfig struct {
	Remote   types.NetworkID
	Tenant   types.TenantID
	Adapters []AdapterRegistration
	Quorum   int
	Primary  int
}

// Relay is the assembled system.
type Relay struct {
	Gateway  *gateway.Gateway
	Treasury *gateway.Treasury

	router       *router.Router
	configurator *router.Configurator
}

// New assembles a Relay: the router carries outbound fan-out and inbound
// quorum, the gateway carries batching and subsidy accounting, and the
// inbound edge between them is closed by callback registration.
func New(config gateway.Config, logger api.Logger, provider api.Provider, handler api.MessageHandler) *Relay {
	r, configurator := router.New(logger, provider)
	gw, treasury := gateway.New(config, logger, provider, r, handler)
	r.SetDeliver(gw.DispatchInbound)
	return &Relay{
		Gateway:      gw,
		Treasury:     treasury,
		router:       r,
		configurator: configurator,
	}
}

// Inbound returns the entry point adapter bindings deliver inbound raw
// bytes into, tagged with their configured identity.
func (r *Relay) Inbound() api.Inbound {
	return r.router
}

// SetRoute installs or atomically replaces a destination's registration.
func (r *Relay) SetRoute(route RouteConfig) error {
	entries := make([]router.AdapterEntry, 0, len(route.Adapters))
	for _, a := range route.Adapters {
		entries = append(entries, router.AdapterEntry{ID: a.ID, Adapter: a.Adapter})
	}
	return r.configurator.SetRoute(route.Remote, route.Tenant, router.Route{
		Adapters: entries,
		Quorum:   route.Quorum,
		Primary:  route.Primary,
	})
}

// ResubmitPayload manually injects payload bytes obtained out-of-band for
// a batch whose payload never arrived from any adapter. The payload's
// digest must still reach quorum through adapter votes before delivery.
func (r *Relay) ResubmitPayload(source types.NetworkID, raw []byte) error {
	return r.configurator.ResubmitPayload(source, raw)
}

// Votes exposes a digest's vote tally for operator inspection of stuck
// batches.
func (r *Relay) Votes(source types.NetworkID, hash types.Hash) (count int, delivered bool) {
	return r.configurator.Votes(source, hash)
}
