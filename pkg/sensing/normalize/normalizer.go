// Package normalize maps source-specific raw events into the canonical
// schema. Category and severity come from data-driven rule tables, the event
// ID from a content fingerprint, so two sources reporting the same disruption
// produce the same ID without sharing any identifier space.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clearlane/eventsense/pkg/sensing/model"
)

// ErrUnprocessable marks a raw event that cannot be normalized: no usable
// title or description text and no location. The driver drops the item and
// keeps the batch.
var ErrUnprocessable = errors.New("unprocessable raw event")

type normalizerOpt func(n *Normalizer)

// Normalizer converts RawEvents into canonical Events using per-source rule
// tables. It is safe for concurrent use once constructed.
type Normalizer struct {
	rules       Rules
	aliases     map[string]string
	granularity time.Duration
	now         func() time.Time
}

func NewNormalizer(opts ...normalizerOpt) *Normalizer {
	n := &Normalizer{
		rules:       DefaultRules(),
		granularity: model.DefaultBucketGranularity,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

func WithRules(rules Rules) normalizerOpt {
	return func(n *Normalizer) {
		n.rules = rules
	}
}

// WithLocationAliases installs the dedup location normalization table:
// canonicalized location -> replacement (e.g. "rotterdam nl" -> "rotterdam").
func WithLocationAliases(aliases map[string]string) normalizerOpt {
	return func(n *Normalizer) {
		canonical := make(map[string]string, len(aliases))
		for k, v := range aliases {
			canonical[model.CanonicalLocation(k)] = model.CanonicalLocation(v)
		}
		n.aliases = canonical
	}
}

// WithBucketGranularity sets the fingerprint time bucket. Coarser buckets
// merge more aggressively; finer buckets keep nearby reports distinct.
func WithBucketGranularity(granularity time.Duration) normalizerOpt {
	return func(n *Normalizer) {
		if granularity > 0 {
			n.granularity = granularity
		}
	}
}

// WithClock overrides the ingestion clock.
func WithClock(now func() time.Time) normalizerOpt {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// Normalize maps one raw event to the canonical schema. It returns an error
// wrapping ErrUnprocessable when the item carries neither usable text nor a
// location; any other raw event normalizes successfully.
func (n *Normalizer) Normalize(raw model.RawEvent) (model.Event, error) {
	title := strings.TrimSpace(raw.Title)
	description := strings.TrimSpace(raw.Description)
	location := strings.TrimSpace(raw.Location)

	if title == "" && description == "" && location == "" {
		return model.Event{}, fmt.Errorf("%w: %s item has no text and no location", ErrUnprocessable, raw.SourceType)
	}

	ts := n.now().UTC()
	observed := false
	if raw.OccurredAt != nil && !raw.OccurredAt.IsZero() {
		ts = raw.OccurredAt.UTC()
		observed = true
	}

	category := n.inferCategory(raw, title, description)
	severity := n.inferSeverity(raw, title, description)

	canonicalLoc := model.CanonicalLocation(location)
	if alias, ok := n.aliases[canonicalLoc]; ok {
		canonicalLoc = alias
	}

	id := model.Fingerprint(category, canonicalLoc, ts, n.granularity)

	ref := strings.TrimSpace(raw.SourceRef)
	if ref == "" {
		ref = fmt.Sprintf("%s:%s", raw.SourceType, id)
	}

	if title == "" {
		title = firstSegment(description)
	}

	evt := model.Event{
		ID:                id,
		SourceType:        raw.SourceType,
		Category:          category,
		Title:             title,
		Description:       description,
		Location:          location,
		Timestamp:         ts,
		TimestampObserved: observed,
		Severity:          severity,
		SourceRefs:        []string{ref},
	}

	if raw.Lat != nil && raw.Lon != nil {
		evt.Geo = &model.GeoPoint{Lat: *raw.Lat, Lon: *raw.Lon}
	}

	return evt, nil
}

func (n *Normalizer) inferCategory(raw model.RawEvent, title, description string) model.Category {
	if raw.SourceType == model.SourceTypeWeather {
		if cat, ok := n.rules.AlertTypes[strings.ToLower(strings.TrimSpace(raw.AlertType))]; ok {
			return cat
		}
		return model.CategoryOther
	}

	text := strings.ToLower(title + " " + description)
	for _, rule := range n.rules.NewsCategories {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return rule.Category
			}
		}
	}

	return model.CategoryOther
}

func (n *Normalizer) inferSeverity(raw model.RawEvent, title, description string) model.Severity {
	if raw.SourceType == model.SourceTypeWeather {
		if sev, ok := n.rules.SeverityCodes[strings.ToLower(strings.TrimSpace(raw.SeverityCode))]; ok {
			return sev
		}
		return model.SeverityUnknown
	}

	// Best-effort intensity heuristic, not authoritative.
	text := strings.ToLower(title + " " + description)
	for _, rule := range n.rules.NewsSeverity {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return rule.Severity
			}
		}
	}

	return model.SeverityLow
}

func firstSegment(text string) string {
	for _, seg := range strings.Split(text, "\n") {
		if seg = strings.TrimSpace(seg); seg != "" {
			if idx := strings.Index(seg, ". "); idx > 0 {
				return seg[:idx+1]
			}
			return seg
		}
	}
	return text
}
