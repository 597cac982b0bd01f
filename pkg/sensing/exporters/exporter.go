// Package exporters delivers finished event batches to downstream sinks.
package exporters

import (
	"context"

	"github.com/clearlane/eventsense/pkg/sensing/model"
)

type (
	ExporterFunc func(context.Context, []model.Event) error
)

type Exporter interface {
	GetId() string
	Export(ctx context.Context, events []model.Event) error
}

type ExporterAdapter struct {
	id       string
	exporter ExporterFunc
}

func NewExporterAdapter(id string, exporter ExporterFunc) *ExporterAdapter {
	return &ExporterAdapter{id, exporter}
}

func (e *ExporterAdapter) GetId() string {
	return e.id
}

func (e *ExporterAdapter) Export(ctx context.Context, events []model.Event) error {
	return e.exporter(ctx, events)
}
