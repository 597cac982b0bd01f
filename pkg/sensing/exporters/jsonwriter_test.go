package exporters

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearlane/eventsense/pkg/sensing/model"
)

func TestJSONWriterExporterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := NewJSONWriterExporter("stdout", &buf)

	assert.Equal(t, "stdout", e.GetId())

	events := []model.Event{{
		ID:         "fp1",
		SourceType: model.SourceTypeNews,
		Category:   model.CategoryPortDisruption,
		Title:      "Port congestion at Singapore",
		Severity:   model.SeverityMedium,
		Timestamp:  time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC),
		SourceRefs: []string{"r1"},
	}}

	require.NoError(t, e.Export(context.Background(), events))

	var decoded []model.Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, events[0].ID, decoded[0].ID)
	assert.Equal(t, events[0].Category, decoded[0].Category)
	assert.True(t, decoded[0].Timestamp.Equal(events[0].Timestamp))
}

func TestExporterAdapter(t *testing.T) {
	called := false
	e := NewExporterAdapter("probe", func(ctx context.Context, events []model.Event) error {
		called = true
		return nil
	})

	assert.Equal(t, "probe", e.GetId())
	require.NoError(t, e.Export(context.Background(), nil))
	assert.True(t, called)
}
