// Package sensing drives the event sensing pipeline: source agents are
// fetched concurrently, their raw events normalized into the canonical
// schema, deduplicated by content fingerprint and handed to exporters and to
// the caller as one ordered sequence.
package sensing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clearlane/eventsense/pkg/sensing/agent"
	"github.com/clearlane/eventsense/pkg/sensing/aggregate"
	"github.com/clearlane/eventsense/pkg/sensing/exporters"
	"github.com/clearlane/eventsense/pkg/sensing/log"
	"github.com/clearlane/eventsense/pkg/sensing/metrics"
	"github.com/clearlane/eventsense/pkg/sensing/model"
	"github.com/clearlane/eventsense/pkg/sensing/normalize"
)

// AgentReport summarizes one agent's contribution to a run.
type AgentReport struct {
	Agent string `json:"agent"`
	Items int    `json:"items"`
	Error string `json:"error,omitempty"`
}

// RunReport is the diagnostic summary of a batch: what each agent produced
// and what was skipped and why. Partial failures surface here, not as batch
// errors.
type RunReport struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	Elapsed      time.Duration `json:"elapsed"`
	Agents       []AgentReport `json:"agents"`
	FailedAgents int           `json:"failed_agents"`
	RawItems     int           `json:"raw_items"`
	Dropped      int           `json:"dropped"`
	Merged       int           `json:"merged"`
	Events       int           `json:"events"`
}

// Sensor orchestrates one sensing pipeline instance. Construct it with an
// explicit Config; multiple sensors with independent settings can run
// concurrently.
type Sensor struct {
	cfg        Config
	agents     []agent.Agent
	normalizer *normalize.Normalizer
	processors *processorList
	exporters  []exporters.Exporter
}

func NewSensor(cfg Config, agents ...agent.Agent) *Sensor {
	cfg = cfg.withDefaults()

	s := &Sensor{
		cfg:    cfg,
		agents: agents,
		normalizer: normalize.NewNormalizer(
			normalize.WithRules(cfg.Rules),
			normalize.WithLocationAliases(cfg.LocationAliases),
			normalize.WithBucketGranularity(cfg.BucketGranularity),
		),
		processors: &processorList{},
	}

	return s
}

func (s *Sensor) AddAgent(a agent.Agent) {
	s.agents = append(s.agents, a)
}

// AddProcessor appends a processor stage that runs after deduplication.
func (s *Sensor) AddProcessor(p ProcessorFunc) {
	s.processors.add(p)
}

func (s *Sensor) AddExporter(e exporters.Exporter) {
	s.exporters = append(s.exporters, e)
}

type fetchResult struct {
	agent string
	raws  []model.RawEvent
	err   error
}

// Run executes one batch: fetch all agents concurrently, normalize, dedup,
// export, return the ordered event sequence. Per-agent and per-item failures
// shrink the result and show up in the report; only total failure returns
// ErrNoDataAvailable.
func (s *Sensor) Run(ctx context.Context, window model.QueryWindow) ([]model.Event, *RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		report.Elapsed = time.Since(report.StartedAt)
		metrics.BatchesRun.Inc()
	}()

	if len(s.agents) == 0 {
		return nil, report, ErrNoDataAvailable
	}

	results := s.fetchAll(ctx, window)

	var raws []model.RawEvent
	for _, res := range results {
		ar := AgentReport{Agent: res.agent, Items: len(res.raws)}

		if res.err != nil {
			ferr := &AgentFetchError{Agent: res.agent, Err: res.err}
			log.Warnf("%v; continuing with remaining agents", ferr)
			metrics.AgentFailures.WithLabelValues(res.agent).Inc()
			ar.Error = ferr.Error()
			report.FailedAgents++
		} else {
			metrics.RawItemsFetched.WithLabelValues(res.agent).Add(float64(len(res.raws)))
			raws = append(raws, res.raws...)
		}

		report.Agents = append(report.Agents, ar)
	}

	if report.FailedAgents == len(s.agents) {
		return nil, report, ErrNoDataAvailable
	}

	report.RawItems = len(raws)

	events := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		evt, err := s.normalizer.Normalize(raw)
		if err != nil {
			log.Warnf("dropping item from %s: %v", raw.SourceType, err)
			metrics.ItemsDropped.Inc()
			report.Dropped++
			continue
		}
		events = append(events, evt)
	}

	normalized := len(events)
	events = aggregate.Aggregate(events)

	report.Merged = normalized - len(events)
	if report.Merged > 0 {
		metrics.EventsMerged.Add(float64(report.Merged))
	}

	events, err := s.processors.process(events)
	if err != nil {
		return nil, report, err
	}
	report.Events = len(events)

	for _, exporter := range s.exporters {
		log.Debugf("running export for %s", exporter.GetId())
		if err := exporter.Export(ctx, events); err != nil {
			log.Errorf("exporter %s failed: %v", exporter.GetId(), err)
		}
	}

	log.Infof(
		"batch %s: %d events from %d raw items (%d dropped, %d merged, %d/%d agents failed)",
		report.RunID, report.Events, report.RawItems, report.Dropped,
		report.Merged, report.FailedAgents, len(s.agents),
	)

	return events, report, nil
}

// fetchAll polls every agent concurrently. Each goroutine writes only its own
// result slot; the driver waits for all agents (or their individual timeouts)
// before aggregation starts.
func (s *Sensor) fetchAll(ctx context.Context, window model.QueryWindow) []fetchResult {
	var wg sync.WaitGroup
	results := make([]fetchResult, len(s.agents))

	for i, a := range s.agents {
		wg.Add(1)
		go func(i int, a agent.Agent) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.AgentTimeout)
			defer cancel()

			log.Debugf("running fetch for agent %s", a.Name())
			raws, err := a.FetchEvents(fetchCtx, window)
			results[i] = fetchResult{agent: a.Name(), raws: raws, err: err}
		}(i, a)
	}

	wg.Wait()
	return results
}

// Start runs batches on a recurring interval until the context is cancelled.
// The window of each batch covers the time since the previous one. A batch
// returning ErrNoDataAvailable is logged and the service keeps going;
// transient total failures should not kill a long-running sensor.
func (s *Sensor) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		_, _, err := s.Run(ctx, model.QueryWindow{
			From: time.Now().UTC().Add(-model.DefaultBucketGranularity),
			To:   time.Now().UTC(),
		})
		return err
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	last := time.Now().UTC().Add(-s.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			window := model.QueryWindow{From: last, To: now.UTC()}
			last = now.UTC()

			if _, _, err := s.Run(ctx, window); err != nil {
				log.Errorf("batch failed: %v", err)
			}
		}
	}
}
