// Package aggregate merges the normalized output of all agents into one
// deduplicated sequence keyed by fingerprint.
package aggregate

import (
	"sort"

	"github.com/clearlane/eventsense/pkg/sensing/model"
)

// Aggregate deduplicates events by ID in a single pass, merging collisions
// with model.Merge. Because the merge is commutative and associative the
// result set is independent of input order; the returned slice is sorted by
// timestamp ascending with ID as the tie-break so it is fully deterministic.
//
// Applying Aggregate to its own output is a no-op: IDs are unique after one
// pass and merging an event with itself yields the event.
func Aggregate(events []model.Event) []model.Event {
	if len(events) == 0 {
		return nil
	}

	byID := make(map[string]model.Event, len(events))
	for _, evt := range events {
		if existing, ok := byID[evt.ID]; ok {
			byID[evt.ID] = model.Merge(existing, evt)
			continue
		}
		byID[evt.ID] = evt
	}

	out := make([]model.Event, 0, len(byID))
	for _, evt := range byID {
		out = append(out, evt)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})

	return out
}
