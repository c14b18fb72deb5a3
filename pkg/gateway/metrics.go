// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package gateway

import (
	"github.com/crossnet-go/relay/pkg/api"
)

var countOfFlushesOpts = api.CounterOpts{
	Namespace:    "relay",
	Subsystem:    "gateway",
	Name:         "count_of_flushes",
	Help:         "Count of successfully funded and dispatched flushes.",
	StatsdFormat: "%{#fqname}",
}

var countOfUnderfundedFlushesOpts = api.CounterOpts{
	Namespace:    "relay",
	Subsystem:    "gateway",
	Name:         "count_of_underfunded_flushes",
	Help:         "Count of flushes rejected for insufficient subsidy.",
	StatsdFormat: "%{#fqname}",
}

var countOfInboundBatchesOpts = api.CounterOpts{
	Namespace:    "relay",
	Subsystem:    "gateway",
	Name:         "count_of_inbound_batches",
	Help:         "Count of quorum-confirmed batches dispatched to the handler.",
	StatsdFormat: "%{#fqname}",
}

var countOfHandlerFailuresOpts = api.CounterOpts{
	Namespace:    "relay",
	Subsystem:    "gateway",
	Name:         "count_of_handler_failures",
	Help:         "Count of sub-messages the domain handler failed on.",
	StatsdFormat: "%{#fqname}",
}

var pendingMessagesOpts = api.GaugeOpts{
	Namespace:    "relay",
	Subsystem:    "gateway",
	Name:         "pending_messages",
	Help:         "Sub-messages accumulated and not yet flushed.",
	StatsdFormat: "%{#fqname}",
}

type Metrics struct {
	CountOfFlushes            api.Counter
	CountOfUnderfundedFlushes api.Counter
	CountOfInboundBatches     api.Counter
	CountOfHandlerFailures    api.Counter
	PendingMessages           api.Gauge
}

func NewMetrics(p api.Provider) *Metrics {
	return &Metrics{
		CountOfFlushes:            p.NewCounter(countOfFlushesOpts),
		CountOfUnderfundedFlushes: p.NewCounter(countOfUnderfundedFlushesOpts),
		CountOfInboundBatches:     p.NewCounter(countOfInboundBatchesOpts),
		CountOfHandlerFailures:    p.NewCounter(countOfHandlerFailuresOpts),
		PendingMessages:           p.NewGauge(pendingMessagesOpts),
	}
}
