// Package agent contains the source agents that poll external information
// sources and emit raw, pre-normalization events. New source types implement
// the Agent interface; nothing in the shared pipeline branches on a type tag.
package agent

import (
	"context"
	"io"

	"github.com/clearlane/eventsense/pkg/sensing/model"
)

// Agent is the capability every source variant provides: fetch the raw
// events visible in a query window. Implementations own their query
// parameters and response parsing; a fetch failure is scoped to the agent and
// recovered by the pipeline driver.
type Agent interface {
	Name() string
	SourceType() model.SourceType
	FetchEvents(ctx context.Context, window model.QueryWindow) ([]model.RawEvent, error)
}

// connector is the slice of the HTTP collaborator the agents need. Tests
// substitute a stub serving canned payloads.
type connector interface {
	SetUrl(url string)
	Request(ctx context.Context) (io.ReadCloser, error)
}
