// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

// Package gateway is the single point domain logic calls to emit a
// cross-network event. It accumulates sub-messages per destination,
// meters a prepaid per-tenant subsidy against the quoted relay cost, and
// on the inbound side splits quorum-confirmed batches back into
// sub-messages for the registered domain handler.
package gateway

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/semaphore"

	"github.com/crossnet-go/relay/pkg/api"
	"github.com/crossnet-go/relay/pkg/types"
	"github.com/crossnet-go/relay/pkg/wire"
)

var (
	// ErrInsufficientSubsidy is returned when a flush's quoted cost
	// exceeds the tenant's balance. The flush sends nothing and the
	// pending sub-messages are retained for a future funded flush.
	ErrInsufficientSubsidy = errors.New("insufficient subsidy balance")

	// ErrPoolFull is returned when the pending pool is at capacity.
	ErrPoolFull = errors.New("pending pool is full")
)

// Transport is the outbound surface the gateway needs from the quorum
// router: a cost quote and the actual fan-out dispatch.
type Transport interface {
	Quote(remote types.NetworkID, tenant types.TenantID, batch []byte, gasLimit uint64) (uint64, error)
	Dispatch(remote types.NetworkID, tenant types.TenantID, batch []byte, gasLimit uint64, refundAddr string) ([]types.Receipt, error)
}

// Config holds the gateway parameters.
type Config struct {
	// PendingPoolSize bounds the total number of sub-messages accumulated
	// across all destinations.
	PendingPoolSize int64
	// GasLimit is passed to adapters on every estimate and send.
	GasLimit uint64
}

// DefaultConfig contains reasonable values for a gateway relaying small
// domain events.
var DefaultConfig = Config{
	PendingPoolSize: 400,
	GasLimit:        500_000,
}

type destKey struct {
	tenant types.TenantID
	remote types.NetworkID
}

type subsidy struct {
	balance    uint64
	refundAddr string
}

// Gateway accumulates outbound sub-messages and dispatches inbound ones.
// A pending destination moves through accumulating, quoted, funded and
// sent within a single Flush call, or not at all.
type Gateway struct {
	logger    api.Logger
	metrics   *Metrics
	transport Transport
	handler   api.MessageHandler
	config    Config

	lock      sync.Mutex
	pending   map[destKey][][]byte
	subsidies map[types.TenantID]*subsidy
	sem       *semaphore.Weighted
}

// New creates a Gateway together with its Treasury, the authorized handle
// for withdrawals and refund-address changes.
func New(config Config, logger api.Logger, provider api.Provider, transport Transport, handler api.MessageHandler) (*Gateway, *Treasury) {
	g := &Gateway{
		logger:    logger,
		metrics:   NewMetrics(provider),
		transport: transport,
		handler:   handler,
		config:    config,
		pending:   make(map[destKey][][]byte),
		subsidies: make(map[types.TenantID]*subsidy),
		sem:       semaphore.NewWeighted(config.PendingPoolSize),
	}
	return g, &Treasury{gateway: g}
}

// Submit accumulates one sub-message for a destination. Sub-messages for
// the same destination submitted before the next Flush travel in one
// batch, amortizing the per-batch relay cost.
func (g *Gateway) Submit(tenant types.TenantID, remote types.NetworkID, payload []byte) error {
	if len(payload) == 0 {
		return errors.New("sub-message is empty")
	}
	if len(payload) > wire.MaxMessageSize {
		return errors.Errorf("sub-message is %d bytes, limit is %d", len(payload), wire.MaxMessageSize)
	}
	if !g.sem.TryAcquire(1) {
		return ErrPoolFull
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	key := destKey{tenant: tenant, remote: remote}
	msg := append([]byte(nil), payload...)
	g.pending[key] = append(g.pending[key], msg)
	g.metrics.PendingMessages.Add(1)
	return nil
}

// SubmitEager submits one sub-message and flushes its destination in the
// same call, for callers that cannot wait for end-of-call batching.
func (g *Gateway) SubmitEager(tenant types.TenantID, remote types.NetworkID, payload []byte) (uint64, error) {
	if err := g.Submit(tenant, remote, payload); err != nil {
		return 0, err
	}
	return g.Flush(tenant, remote)
}

// Flush packs everything pending for a destination into one batch, debits
// the tenant's subsidy by the quoted cost and dispatches. On any failure
// the pending sub-messages are retained and the balance is untouched.
// Returns the debited cost.
func (g *Gateway) Flush(tenant types.TenantID, remote types.NetworkID) (uint64, error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	key := destKey{tenant: tenant, remote: remote}
	msgs := g.pending[key]
	if len(msgs) == 0 {
		return 0, nil
	}

	batch, err := wire.Pack(msgs)
	if err != nil {
		return 0, errors.Wrap(err, "failed packing batch")
	}

	cost, err := g.transport.Quote(remote, tenant, batch, g.config.GasLimit)
	if err != nil {
		return 0, errors.Wrapf(err, "failed quoting batch for network %d", remote)
	}

	sub := g.subsidies[tenant]
	if sub == nil || sub.balance < cost {
		g.metrics.CountOfUnderfundedFlushes.Add(1)
		var balance uint64
		if sub != nil {
			balance = sub.balance
		}
		return 0, errors.Wrapf(ErrInsufficientSubsidy, "tenant %q has %d, flush costs %d", tenant, balance, cost)
	}

	if _, err := g.transport.Dispatch(remote, tenant, batch, g.config.GasLimit, sub.refundAddr); err != nil {
		return 0, errors.Wrapf(err, "failed dispatching batch to network %d", remote)
	}

	// The send succeeded; only now does the balance move.
	sub.balance -= cost
	delete(g.pending, key)
	g.sem.Release(int64(len(msgs)))
	g.metrics.PendingMessages.Add(float64(-len(msgs)))
	g.metrics.CountOfFlushes.Add(1)
	g.logger.Infof("Flushed %d sub-messages (%d bytes) to network %d for tenant %q, debited %d",
		len(msgs), lo.SumBy(msgs, func(m []byte) int { return len(m) }), remote, tenant, cost)
	return cost, nil
}

// Pending reports how many sub-messages are accumulated for a destination.
func (g *Gateway) Pending(tenant types.TenantID, remote types.NetworkID) int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return len(g.pending[destKey{tenant: tenant, remote: remote}])
}

// Deposit credits a tenant's subsidy. Deposits are open to anyone wishing
// to fund a tenant.
func (g *Gateway) Deposit(tenant types.TenantID, amount uint64) {
	g.lock.Lock()
	defer g.lock.Unlock()
	sub := g.subsidies[tenant]
	if sub == nil {
		sub = &subsidy{}
		g.subsidies[tenant] = sub
	}
	sub.balance += amount
}

// Balance returns a tenant's current subsidy balance.
func (g *Gateway) Balance(tenant types.TenantID) uint64 {
	g.lock.Lock()
	defer g.lock.Unlock()
	sub := g.subsidies[tenant]
	if sub == nil {
		return 0
	}
	return sub.balance
}

// DispatchInbound delivers a quorum-confirmed batch's sub-messages to the
// domain handler in frame order. A handler failure on one sub-message is
// reported and does not block its siblings; the batch itself was validly
// delivered regardless.
//
// It is registered as the router's delivery callback and must be invoked
// at most once per batch; the router's vote records enforce that.
func (g *Gateway) DispatchInbound(source types.NetworkID, msgs [][]byte) {
	for i, msg := range msgs {
		if err := g.handler.HandleMessage(source, msg); err != nil {
			g.metrics.CountOfHandlerFailures.Add(1)
			g.logger.Errorf("Handler failed on sub-message %d of %d from network %d: %v", i+1, len(msgs), source, err)
		}
	}
	g.metrics.CountOfInboundBatches.Add(1)
	g.logger.Debugf("Dispatched inbound batch of %d sub-messages from network %d", len(msgs), source)
}
