package exporters

import (
	"context"
	"encoding/json"
	"io"

	"github.com/clearlane/eventsense/pkg/sensing/model"
)

// JSONWriterExporter writes each batch as indented JSON to a writer. The
// demo binary uses it as the stdout sink; anything accepting an io.Writer
// works.
type JSONWriterExporter struct {
	id  string
	out io.Writer
}

func NewJSONWriterExporter(id string, out io.Writer) *JSONWriterExporter {
	return &JSONWriterExporter{id: id, out: out}
}

func (e *JSONWriterExporter) GetId() string {
	return e.id
}

func (e *JSONWriterExporter) Export(_ context.Context, events []model.Event) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}
