package model

import "time"

// RawEvent is the source-scoped, pre-normalization payload emitted by an
// agent. Its shape follows whatever the source API returned; only the
// matching normalizer rules consume it and it never reaches downstream
// consumers.
type RawEvent struct {
	SourceType  SourceType
	Title       string
	Description string
	Location    string
	Lat         *float64
	Lon         *float64

	// Weather sources only.
	AlertType    string
	SeverityCode string

	// Occurrence time as reported by the source, if it reported one.
	OccurredAt *time.Time

	// Opaque original-source identifier or URL.
	SourceRef string

	// Decoded source object, kept for diagnostics.
	Raw map[string]any
}

// QueryWindow bounds the time range of interest for a fetch.
type QueryWindow struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window. A zero window matches
// everything.
func (w QueryWindow) Contains(t time.Time) bool {
	if w.From.IsZero() && w.To.IsZero() {
		return true
	}
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}
