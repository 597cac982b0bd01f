package model

import (
	"sort"
	"strings"
	"time"
)

// SourceType identifies the kind of external source an event came from.
type SourceType string

const (
	SourceTypeNews    SourceType = "news"
	SourceTypeWeather SourceType = "weather"
)

// Category classifies a disruption for downstream risk analysis.
type Category string

const (
	CategoryLogisticsDelay Category = "logistics_delay"
	CategoryPortDisruption Category = "port_disruption"
	CategoryTransportIssue Category = "transport_issue"
	CategoryStorm          Category = "storm"
	CategoryFlood          Category = "flood"
	CategoryCyclone        Category = "cyclone"
	CategoryOther          Category = "other"
)

// Severity is an ordinal scale. Unknown ranks below low so that any real
// signal wins a merge.
type Severity string

const (
	SeverityUnknown Severity = "unknown"
	SeverityLow     Severity = "low"
	SeverityMedium  Severity = "medium"
	SeverityHigh    Severity = "high"
)

func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// MaxSeverity returns the more severe of the two.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// GeoPoint is an optional structured coordinate attached to an event.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is the canonical disruption record produced by the sensing pipeline.
// The ID is a content fingerprint, not a source identifier: two raw events
// describing the same disruption collapse to the same ID and are merged.
// Events are immutable once handed to a consumer; Merge returns a new value.
type Event struct {
	ID                string     `json:"id"`
	SourceType        SourceType `json:"source_type"`
	Category          Category   `json:"category"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Location          string     `json:"location,omitempty"`
	Geo               *GeoPoint  `json:"geo,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
	TimestampObserved bool       `json:"timestamp_observed"`
	Severity          Severity   `json:"severity"`
	SourceRefs        []string   `json:"source_refs"`
}

// Merge combines two events sharing a fingerprint. It is commutative and
// associative so the aggregate result does not depend on agent execution
// order: every tie is broken by value, never by argument position.
//
// Rules:
//   - SourceRefs: set union, sorted.
//   - Severity: maximum ordinal.
//   - Timestamp: earliest (disruption onset estimate); the observed flag
//     follows the chosen timestamp, ORed on exact ties.
//   - Description: union of distinct segments, sorted (see mergeDescriptions).
//   - Title/Location: lexicographically smallest non-empty value.
//   - Geo: the non-nil point; smallest (lat, lon) when both are set.
func Merge(a, b Event) Event {
	out := Event{
		ID:         a.ID,
		SourceType: a.SourceType,
		Category:   a.Category,
		Severity:   MaxSeverity(a.Severity, b.Severity),
		SourceRefs: unionRefs(a.SourceRefs, b.SourceRefs),
	}

	if a.SourceType != b.SourceType {
		// Cross-source corroboration; keep the lexicographically smaller
		// tag so the choice is order independent.
		if b.SourceType < a.SourceType {
			out.SourceType = b.SourceType
		}
	}

	switch {
	case a.Timestamp.Before(b.Timestamp):
		out.Timestamp = a.Timestamp
		out.TimestampObserved = a.TimestampObserved
	case b.Timestamp.Before(a.Timestamp):
		out.Timestamp = b.Timestamp
		out.TimestampObserved = b.TimestampObserved
	default:
		out.Timestamp = a.Timestamp
		out.TimestampObserved = a.TimestampObserved || b.TimestampObserved
	}

	out.Title = pickString(a.Title, b.Title)
	out.Location = pickString(a.Location, b.Location)
	out.Description = mergeDescriptions(a.Description, b.Description)
	out.Geo = pickGeo(a.Geo, b.Geo)

	return out
}

func unionRefs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, refs := range [][]string{a, b} {
		for _, r := range refs {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// pickString prefers a non-empty value; when both are non-empty and differ it
// takes the lexicographically smaller one so merge order cannot matter.
func pickString(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if b < a {
		return b
	}
	return a
}

func pickGeo(a, b *GeoPoint) *GeoPoint {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lon < a.Lon) {
		return b
	}
	return a
}

// mergeDescriptions unions the newline-separated segments of both
// descriptions, dropping repeats. Segments are sorted so that any merge order
// over any number of contributing events yields the same text. A merged
// description splits back into the same segment set, which keeps repeated
// aggregation idempotent.
func mergeDescriptions(a, b string) string {
	if strings.TrimSpace(a) == "" {
		return b
	}
	if strings.TrimSpace(b) == "" {
		return a
	}
	seen := make(map[string]struct{})
	var segs []string
	for _, desc := range []string{a, b} {
		for _, seg := range strings.Split(desc, "\n") {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}
			if _, ok := seen[seg]; ok {
				continue
			}
			seen[seg] = struct{}{}
			segs = append(segs, seg)
		}
	}
	sort.Strings(segs)
	return strings.Join(segs, "\n")
}
