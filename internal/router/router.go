// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package router

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/crossnet-go/relay/pkg/api"
	"github.com/crossnet-go/relay/pkg/types"
	"github.com/crossnet-go/relay/pkg/wire"
)

var (
	// ErrUnknownDestination is returned when an outbound dispatch targets a
	// network with no configured route.
	ErrUnknownDestination = errors.New("unknown destination network")

	// ErrUnknownSource is returned when inbound bytes claim a source
	// network with no configured route.
	ErrUnknownSource = errors.New("unknown source network")
)

// AdapterEntry binds a configured identity to a transport handle.
type AdapterEntry struct {
	ID      types.AdapterID
	Adapter api.Adapter
}

// Route is the adapter registration for one destination: an ordered adapter
// set, the quorum threshold, and the index of the primary adapter that
// carries full batches outbound. The primary is only the outbound default;
// inbound payload is accepted from whichever adapter delivers it first.
type Route struct {
	Adapters []AdapterEntry
	Quorum   int
	Primary  int
}

func (r *Route) validate() error {
	if len(r.Adapters) == 0 {
		return errors.New("route needs at least one adapter")
	}
	if r.Quorum < 1 || r.Quorum > len(r.Adapters) {
		return errors.Errorf("quorum %d out of range for %d adapters", r.Quorum, len(r.Adapters))
	}
	if r.Primary < 0 || r.Primary >= len(r.Adapters) {
		return errors.Errorf("primary index %d out of range for %d adapters", r.Primary, len(r.Adapters))
	}
	ids := lo.UniqBy(r.Adapters, func(e AdapterEntry) types.AdapterID { return e.ID })
	if len(ids) != len(r.Adapters) {
		return errors.New("adapter identities must be distinct")
	}
	for i, e := range r.Adapters {
		if e.Adapter == nil {
			return errors.Errorf("adapter %d has no transport handle", i)
		}
	}
	return nil
}

func (r *Route) entry(id types.AdapterID) (AdapterEntry, bool) {
	return lo.Find(r.Adapters, func(e AdapterEntry) bool { return e.ID == id })
}

type routeKey struct {
	remote types.NetworkID
	tenant types.TenantID
}

// DeliverFunc receives a quorum-confirmed, decoded batch. It is registered
// after construction to close the router -> gateway inbound edge without a
// compile-time cycle.
type DeliverFunc func(source types.NetworkID, msgs [][]byte)

// Router fans one outbound batch across a destination's adapter set and
// turns the adapters' unreliable inbound reports into an exactly-once,
// quorum-gated delivery stream per source network.
type Router struct {
	logger  api.Logger
	metrics *Metrics

	lock    sync.Mutex
	routes  map[routeKey]*Route
	records map[voteKey]*voteRecord
	deliver DeliverFunc
}

// New creates a Router together with its Configurator. The Configurator is
// the only handle through which routes can be mutated or recovery invoked;
// holding it is what authorizes those operations.
func New(logger api.Logger, provider api.Provider) (*Router, *Configurator) {
	r := &Router{
		logger:  logger,
		metrics: NewMetrics(provider),
		routes:  make(map[routeKey]*Route),
		records: make(map[voteKey]*voteRecord),
	}
	return r, &Configurator{router: r}
}

// SetDeliver registers the inbound delivery callback. It must be called
// before any adapter reports inbound bytes.
func (r *Router) SetDeliver(deliver DeliverFunc) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.deliver = deliver
}

// lookupRoute resolves a destination, falling back from the tenant-scoped
// route to the network default.
func (r *Router) lookupRoute(remote types.NetworkID, tenant types.TenantID) (*Route, bool) {
	if tenant != "" {
		if route, ok := r.routes[routeKey{remote: remote, tenant: tenant}]; ok {
			return route, true
		}
	}
	route, ok := r.routes[routeKey{remote: remote}]
	return route, ok
}

// Quote returns the summed cost of relaying batch to remote: the primary
// adapter's estimate for the full batch plus every other adapter's estimate
// for the proof frame.
func (r *Router) Quote(remote types.NetworkID, tenant types.TenantID, batch []byte, gasLimit uint64) (uint64, error) {
	r.lock.Lock()
	route, ok := r.lookupRoute(remote, tenant)
	r.lock.Unlock()
	if !ok {
		return 0, errors.Wrapf(ErrUnknownDestination, "network %d", remote)
	}

	proof := wire.PackProof(types.DigestBatch(batch))
	var total uint64
	for i, e := range route.Adapters {
		payload := proof
		if i == route.Primary {
			payload = batch
		}
		cost, err := e.Adapter.Estimate(remote, payload, gasLimit)
		if err != nil {
			return 0, errors.Wrapf(err, "adapter %d failed to estimate for network %d", e.ID, remote)
		}
		total += cost
	}
	return total, nil
}

// Dispatch sends batch to remote: the full batch through the primary
// adapter and a proof frame through every other registered adapter. A
// secondary adapter failing to accept its proof is tolerated (quorum may
// still be reachable from the rest); a primary failure aborts, since then
// no adapter carries the payload at all.
func (r *Router) Dispatch(remote types.NetworkID, tenant types.TenantID, batch []byte, gasLimit uint64, refundAddr string) ([]types.Receipt, error) {
	r.lock.Lock()
	route, ok := r.lookupRoute(remote, tenant)
	r.lock.Unlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDestination, "network %d", remote)
	}

	primary := route.Adapters[route.Primary]
	receipt, err := primary.Adapter.Send(remote, batch, gasLimit, refundAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "primary adapter %d failed to send to network %d", primary.ID, remote)
	}
	receipts := []types.Receipt{receipt}

	proof := wire.PackProof(types.DigestBatch(batch))
	for i, e := range route.Adapters {
		if i == route.Primary {
			continue
		}
		receipt, err := e.Adapter.Send(remote, proof, gasLimit, refundAddr)
		if err != nil {
			r.logger.Warnf("Adapter %d failed to send proof to network %d: %v", e.ID, remote, err)
			continue
		}
		receipts = append(receipts, receipt)
	}

	r.metrics.CountOfDispatches.Add(1)
	r.logger.Debugf("Dispatched batch of %d bytes to network %d through %d adapters, digest %s",
		len(batch), remote, len(route.Adapters), types.DigestBatch(batch))
	return receipts, nil
}

// OnReceive is the inbound entry point adapter bindings deliver into. The
// raw bytes are either a proof frame, which records a vote for the carried
// hash, or a full batch, which stores the payload and records a vote for
// its digest. Once distinct votes reach the source's quorum and the
// payload is present, the decoded batch is forwarded exactly once.
//
// Adapters may report in any order relative to each other; proofs before
// payload, payload before proofs, and any interleaving converge to the
// same final state.
func (r *Router) OnReceive(source types.NetworkID, adapter types.AdapterID, raw []byte) error {
	msgs, err := r.receive(source, adapter, raw)
	if err != nil {
		return err
	}
	if msgs != nil {
		r.forward(source, msgs)
	}
	return nil
}

// receive performs the state transition under the lock and returns the
// decoded batch when this call tipped the record into delivery.
func (r *Router) receive(source types.NetworkID, adapter types.AdapterID, raw []byte) ([][]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	route, ok := r.routes[routeKey{remote: source}]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSource, "network %d", source)
	}
	if _, ok := route.entry(adapter); !ok {
		r.metrics.CountOfRejectedReports.Add(1)
		return nil, errors.Errorf("adapter %d is not registered for network %d", adapter, source)
	}

	var hash types.Hash
	var payload []byte
	if wire.IsProofFrame(raw) {
		hash, _ = wire.ProofHash(raw)
	} else {
		// Full-payload delivery. Reject malformed framing outright so a
		// Byzantine adapter cannot park garbage behind a valid-looking vote.
		if _, err := wire.Unpack(raw); err != nil {
			r.metrics.CountOfRejectedReports.Add(1)
			return nil, errors.Wrapf(err, "malformed batch from adapter %d", adapter)
		}
		hash = types.DigestBatch(raw)
		payload = raw
	}

	record := r.record(source, hash)
	if record.state == stateDelivered {
		r.logger.Debugf("Ignoring report from adapter %d for already delivered digest %s", adapter, hash)
		return nil, nil
	}
	if payload != nil && record.payload == nil {
		// Keep our own copy; the reporting binding owns raw.
		record.payload = append([]byte(nil), payload...)
	}
	if record.registerVote(adapter) {
		r.metrics.CountOfVotes.Add(1)
		r.logger.Debugf("Recorded vote from adapter %d for digest %s on network %d, %d of %d",
			adapter, hash, source, len(record.voted), route.Quorum)
	}
	return r.tryComplete(record, route.Quorum, source, hash)
}

// resubmit injects payload obtained out-of-band. It never votes: quorum
// must still be reached through adapter reports.
func (r *Router) resubmit(source types.NetworkID, raw []byte) ([][]byte, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	route, ok := r.routes[routeKey{remote: source}]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSource, "network %d", source)
	}
	if _, err := wire.Unpack(raw); err != nil {
		return nil, errors.Wrap(err, "resubmitted payload is malformed")
	}
	hash := types.DigestBatch(raw)
	record := r.record(source, hash)
	if record.state == stateDelivered {
		return nil, nil
	}
	if record.payload == nil {
		record.payload = append([]byte(nil), raw...)
	}
	r.logger.Infof("Operator resubmitted payload for digest %s on network %d, %d of %d votes recorded",
		hash, source, len(record.voted), route.Quorum)
	return r.tryComplete(record, route.Quorum, source, hash)
}

// tryComplete checks quorum and payload presence, and transitions the
// record to delivered when both hold. Called with the lock held.
func (r *Router) tryComplete(record *voteRecord, quorum int, source types.NetworkID, hash types.Hash) ([][]byte, error) {
	if len(record.voted) < quorum || record.payload == nil {
		return nil, nil
	}
	msgs, err := wire.Unpack(record.payload)
	if err != nil {
		// Unreachable: payload framing was validated on storage.
		return nil, errors.Wrap(err, "stored payload is malformed")
	}
	record.state = stateDelivered
	record.payload = nil
	r.metrics.CountOfDeliveries.Add(1)
	r.metrics.PendingRecords.Add(-1)
	r.logger.Infof("Digest %s on network %d reached quorum, delivering %d sub-messages", hash, source, len(msgs))
	return msgs, nil
}

func (r *Router) forward(source types.NetworkID, msgs [][]byte) {
	r.lock.Lock()
	deliver := r.deliver
	r.lock.Unlock()
	if deliver == nil {
		r.logger.Panicf("No delivery callback registered for inbound batch from network %d", source)
	}
	deliver(source, msgs)
}

func (r *Router) record(source types.NetworkID, hash types.Hash) *voteRecord {
	key := voteKey{source: source, hash: hash}
	record, ok := r.records[key]
	if !ok {
		record = newVoteRecord()
		r.records[key] = record
		r.metrics.PendingRecords.Add(1)
	}
	return record
}
