package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearlane/eventsense/pkg/sensing/model"
)

func TestWeatherAgentUnwrapsFeatureEnvelopes(t *testing.T) {
	conn := &stubConnector{responses: []string{`{
		"features": [
			{
				"properties": {
					"headline": "Flash Flood Warning issued for coastal areas",
					"event": "Flash Flood",
					"severity": "Severe",
					"areaDesc": "Bangkok",
					"description": "Move to higher ground immediately.",
					"id": "https://alerts.example/flood-1",
					"onset": "2026-03-12T06:00:00Z"
				}
			}
		]
	}`}}

	a := NewWeatherAgent("https://alerts.example/active", []string{"TH"}, WithWeatherConnector(conn))

	raws, err := a.FetchEvents(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	require.Len(t, raws, 1)

	raw := raws[0]
	assert.Equal(t, model.SourceTypeWeather, raw.SourceType)
	assert.Equal(t, "Flash Flood Warning issued for coastal areas", raw.Title)
	assert.Equal(t, "Flash Flood", raw.AlertType)
	assert.Equal(t, "Severe", raw.SeverityCode)
	assert.Equal(t, "Bangkok", raw.Location)
	assert.Equal(t, "https://alerts.example/flood-1", raw.SourceRef)
	require.NotNil(t, raw.OccurredAt)
	assert.True(t, raw.OccurredAt.Equal(time.Date(2026, 3, 12, 6, 0, 0, 0, time.UTC)))
}

func TestWeatherAgentQueriesEveryRegion(t *testing.T) {
	conn := &stubConnector{responses: []string{
		`{"alerts": [{"event": "Storm", "severity": "moderate"}]}`,
		`{"alerts": [{"event": "Flood", "severity": "severe"}, {"event": "Storm", "severity": "minor"}]}`,
	}}

	a := NewWeatherAgent("https://alerts.example/active", []string{"NL", "DE"}, WithWeatherConnector(conn))

	raws, err := a.FetchEvents(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	assert.Len(t, raws, 3)

	require.Len(t, conn.urls, 2)
	assert.Contains(t, conn.urls[0], "area=NL")
	assert.Contains(t, conn.urls[1], "area=DE")
	assert.Contains(t, conn.urls[0], "status=actual")
}

func TestWeatherAgentFallsBackToConfiguredRegion(t *testing.T) {
	conn := &stubConnector{responses: []string{
		`{"alerts": [{"event": "Storm", "severity": "moderate"}]}`,
	}}

	a := NewWeatherAgent("https://alerts.example/active", []string{"Rotterdam"}, WithWeatherConnector(conn))

	raws, err := a.FetchEvents(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Rotterdam", raws[0].Location)
}

func TestWeatherAgentSkipsItemsWithoutTypeOrTitle(t *testing.T) {
	conn := &stubConnector{responses: []string{`{
		"alerts": [
			{"severity": "severe", "areaDesc": "Bangkok"},
			{"event": "Flood", "severity": "severe", "areaDesc": "Bangkok"}
		]
	}`}}

	a := NewWeatherAgent("https://alerts.example/active", []string{"TH"}, WithWeatherConnector(conn))

	raws, err := a.FetchEvents(context.Background(), model.QueryWindow{})

	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Flood", raws[0].AlertType)
	assert.Equal(t, 1, a.Skipped())
}

func TestWeatherAgentPropagatesRegionFetchError(t *testing.T) {
	conn := &stubConnector{err: errors.New("503 from upstream")}

	a := NewWeatherAgent("https://alerts.example/active", []string{"NL"}, WithWeatherConnector(conn))

	_, err := a.FetchEvents(context.Background(), model.QueryWindow{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region NL")
}

func TestWeatherAgentSkipCountResetsBetweenFetches(t *testing.T) {
	conn := &stubConnector{responses: []string{
		`{"alerts": [{"severity": "severe"}]}`,
		`{"alerts": [{"event": "Storm"}]}`,
	}}

	a := NewWeatherAgent("https://alerts.example/active", []string{"NL"}, WithWeatherConnector(conn))

	_, err := a.FetchEvents(context.Background(), model.QueryWindow{})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Skipped())

	_, err = a.FetchEvents(context.Background(), model.QueryWindow{})
	require.NoError(t, err)
	assert.Zero(t, a.Skipped())
}
