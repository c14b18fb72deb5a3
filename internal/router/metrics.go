// Copyright IBM Corp. All Rights Reserved.
//
// SPDX-License-Identifier: Apache-2.0
//

package router

import (
	"github.com/crossnet-go/relay/pkg/api"
)

var countOfVotesOpts = api.CounterOpts{
	Namespace:    "relay",
	Subsystem:    "router",
	Name:         "count_of_votes",
	Help:         "Count of distinct adapter votes recorded.",
	StatsdFormat: "%{#fqname}",
}

var countOfDeliveriesOpts = api.CounterOpts{
	Namespace:    "relay",
	Subsystem:    "router",
	Name:         "count_of_deliveries",
	Help:         "Count of quorum-confirmed batches forwarded inbound.",
	StatsdFormat: "%{#fqname}",
}

var countOfDispatchesOpts = api.CounterOpts{
	Namespace:    "relay",
	Subsystem:    "router",
	Name:         "count_of_dispatches",
	Help:         "Count of outbound batches fanned out across adapters.",
	StatsdFormat: "%{#fqname}",
}

var countOfRejectedReportsOpts = api.CounterOpts{
	Namespace:    "relay",
	Subsystem:    "router",
	Name:         "count_of_rejected_reports",
	Help:         "Count of inbound reports rejected for bad framing or identity.",
	StatsdFormat: "%{#fqname}",
}

var pendingRecordsOpts = api.GaugeOpts{
	Namespace:    "relay",
	Subsystem:    "router",
	Name:         "pending_vote_records",
	Help:         "Vote records that have not reached delivery.",
	StatsdFormat: "%{#fqname}",
}

type Metrics struct {
	CountOfVotes           api.Counter
	CountOfDeliveries      api.Counter
	CountOfDispatches      api.Counter
	CountOfRejectedReports api.Counter
	PendingRecords         api.Gauge
}

func NewMetrics(p api.Provider) *Metrics {
	return &Metrics{
		CountOfVotes:           p.NewCounter(countOfVotesOpts),
		CountOfDeliveries:      p.NewCounter(countOfDeliveriesOpts),
		CountOfDispatches:      p.NewCounter(countOfDispatchesOpts),
		CountOfRejectedReports: p.NewCounter(countOfRejectedReportsOpts),
		PendingRecords:         p.NewGauge(pendingRecordsOpts),
	}
}
