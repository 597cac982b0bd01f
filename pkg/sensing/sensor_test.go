package sensing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearlane/eventsense/pkg/sensing/exporters"
	"github.com/clearlane/eventsense/pkg/sensing/model"
)

type stubAgent struct {
	name       string
	sourceType model.SourceType
	raws       []model.RawEvent
	err        error
}

func (a *stubAgent) Name() string                 { return a.name }
func (a *stubAgent) SourceType() model.SourceType { return a.sourceType }

func (a *stubAgent) FetchEvents(ctx context.Context, window model.QueryWindow) ([]model.RawEvent, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.raws, nil
}

func newsRaw(title, location, ref string, occurred time.Time) model.RawEvent {
	return model.RawEvent{
		SourceType: model.SourceTypeNews,
		Title:      title,
		Location:   location,
		OccurredAt: &occurred,
		SourceRef:  ref,
	}
}

func TestRunContinuesPastFailedAgent(t *testing.T) {
	occurred := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	healthy := &stubAgent{
		name:       "news",
		sourceType: model.SourceTypeNews,
		raws: []model.RawEvent{
			newsRaw("Port congestion at Singapore", "Singapore", "r1", occurred),
			newsRaw("Typhoon nears Taiwan Strait", "Taiwan Strait", "r2", occurred),
			newsRaw("Rail strike in Hamburg", "Hamburg", "r3", occurred),
		},
	}
	broken := &stubAgent{name: "weather", sourceType: model.SourceTypeWeather, err: errors.New("503 from upstream")}

	s := NewSensor(Config{}, healthy, broken)

	events, report, err := s.Run(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, 1, report.FailedAgents)
	assert.Equal(t, 3, report.RawItems)
	assert.Equal(t, 3, report.Events)

	require.Len(t, report.Agents, 2)
	for _, ar := range report.Agents {
		if ar.Agent == "weather" {
			assert.Contains(t, ar.Error, "503 from upstream")
		} else {
			assert.Empty(t, ar.Error)
		}
	}
}

func TestRunAllAgentsFailed(t *testing.T) {
	s := NewSensor(Config{},
		&stubAgent{name: "news", sourceType: model.SourceTypeNews, err: errors.New("timeout")},
		&stubAgent{name: "weather", sourceType: model.SourceTypeWeather, err: errors.New("dns failure")},
	)

	events, report, err := s.Run(context.Background(), model.QueryWindow{})

	assert.ErrorIs(t, err, ErrNoDataAvailable)
	assert.Empty(t, events)
	assert.Equal(t, 2, report.FailedAgents)
}

func TestRunWithoutAgents(t *testing.T) {
	s := NewSensor(Config{})

	_, _, err := s.Run(context.Background(), model.QueryWindow{})
	assert.ErrorIs(t, err, ErrNoDataAvailable)
}

func TestRunDropsMalformedItems(t *testing.T) {
	occurred := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	a := &stubAgent{
		name:       "news",
		sourceType: model.SourceTypeNews,
		raws: []model.RawEvent{
			newsRaw("Port congestion at Singapore", "Singapore", "r1", occurred),
			{SourceType: model.SourceTypeNews, SourceRef: "r2"},
		},
	}

	s := NewSensor(Config{}, a)

	events, report, err := s.Run(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, 2, report.RawItems)
}

func TestRunMergesDuplicatesAcrossAgents(t *testing.T) {
	occurred := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)
	later := occurred.Add(4 * time.Hour)

	news := &stubAgent{
		name:       "news",
		sourceType: model.SourceTypeNews,
		raws: []model.RawEvent{
			newsRaw("Storm halted port operations", "Rotterdam", "https://news.example/rtm", occurred),
		},
	}
	weather := &stubAgent{
		name:       "weather",
		sourceType: model.SourceTypeWeather,
		raws: []model.RawEvent{
			{
				SourceType:   model.SourceTypeWeather,
				Title:        "Severe Storm Warning",
				AlertType:    "storm",
				SeverityCode: "moderate",
				Location:     "rotterdam",
				OccurredAt:   &later,
				SourceRef:    "alert:rtm",
			},
		},
	}

	s := NewSensor(Config{}, news, weather)

	events, report, err := s.Run(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, report.Merged)
	assert.Equal(t, model.CategoryStorm, events[0].Category)
	assert.Equal(t, model.SeverityHigh, events[0].Severity, "news heuristic said high, weather said medium")
	assert.Equal(t, []string{"alert:rtm", "https://news.example/rtm"}, events[0].SourceRefs)
	assert.True(t, events[0].Timestamp.Equal(occurred))
}

func TestRunAppliesProcessorsAfterDedup(t *testing.T) {
	occurred := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	a := &stubAgent{
		name:       "news",
		sourceType: model.SourceTypeNews,
		raws: []model.RawEvent{
			newsRaw("Port terminal closed after storm", "Rotterdam", "r1", occurred),
			newsRaw("Minor fog near harbour", "Hamburg", "r2", occurred),
		},
	}

	s := NewSensor(Config{}, a)
	s.AddProcessor(func(events []model.Event) ([]model.Event, error) {
		kept := events[:0]
		for _, evt := range events {
			if evt.Severity == model.SeverityHigh {
				kept = append(kept, evt)
			}
		}
		return kept, nil
	})

	events, report, err := s.Run(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.SeverityHigh, events[0].Severity)
	assert.Equal(t, 1, report.Events)
	assert.Equal(t, 0, report.Merged, "processor filtering is not merging")
}

func TestRunProcessorErrorAbortsBatch(t *testing.T) {
	occurred := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	s := NewSensor(Config{}, &stubAgent{
		name:       "news",
		sourceType: model.SourceTypeNews,
		raws:       []model.RawEvent{newsRaw("Port congestion", "Singapore", "r1", occurred)},
	})
	s.AddProcessor(func(events []model.Event) ([]model.Event, error) {
		return nil, errors.New("enrichment backend down")
	})

	events, _, err := s.Run(context.Background(), model.QueryWindow{})

	assert.EqualError(t, err, "enrichment backend down")
	assert.Empty(t, events)
}

func TestRunDeliversEventsToExporters(t *testing.T) {
	occurred := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	s := NewSensor(Config{}, &stubAgent{
		name:       "news",
		sourceType: model.SourceTypeNews,
		raws: []model.RawEvent{
			newsRaw("Port congestion at Singapore", "Singapore", "r1", occurred),
			newsRaw("Rail strike in Hamburg", "Hamburg", "r2", occurred),
		},
	})

	var exported []model.Event
	s.AddExporter(exporters.NewExporterAdapter("capture", func(ctx context.Context, events []model.Event) error {
		exported = events
		return nil
	}))

	events, _, err := s.Run(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	assert.Equal(t, events, exported)
}

func TestRunExporterFailureIsNotFatal(t *testing.T) {
	occurred := time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)

	s := NewSensor(Config{}, &stubAgent{
		name:       "news",
		sourceType: model.SourceTypeNews,
		raws:       []model.RawEvent{newsRaw("Port congestion", "Singapore", "r1", occurred)},
	})
	s.AddExporter(exporters.NewExporterAdapter("flaky", func(ctx context.Context, events []model.Event) error {
		return errors.New("sink unavailable")
	}))

	events, _, err := s.Run(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestAgentFetchErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := &AgentFetchError{Agent: "news", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "news")
}
