// Package metrics exposes pipeline counters on the default prometheus
// registry. The sensing core has no HTTP surface of its own; embedders that
// want scraping mount promhttp next to the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RawItemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventsense_raw_items_fetched_total",
		Help: "Raw items returned by an agent fetch, before normalization.",
	}, []string{"agent"})

	AgentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventsense_agent_failures_total",
		Help: "Fetch failures recovered at the driver boundary.",
	}, []string{"agent"})

	ItemsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsense_items_dropped_total",
		Help: "Raw items dropped as unprocessable during normalization.",
	})

	EventsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsense_events_merged_total",
		Help: "Events collapsed into an existing fingerprint during aggregation.",
	})

	BatchesRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventsense_batches_total",
		Help: "Completed batch runs, including partial ones.",
	})
)
