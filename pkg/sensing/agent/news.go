package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/clearlane/eventsense/pkg/sensing/connectors"
	"github.com/clearlane/eventsense/pkg/sensing/log"
	"github.com/clearlane/eventsense/pkg/sensing/model"
)

type newsAgentOpt func(a *NewsAgent)

// NewsAgent queries a text/news endpoint with a keyword set tuned to
// logistics disruption vocabulary. Every matching article becomes one
// RawEvent carrying title, snippet, publish time and source URL.
type NewsAgent struct {
	endpoint string
	keywords []string
	apiKey   string
	conn     connector
	skipped  int
}

func NewNewsAgent(endpoint string, keywords []string, opts ...newsAgentOpt) *NewsAgent {
	a := &NewsAgent{
		endpoint: endpoint,
		keywords: keywords,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.conn == nil {
		c := connectors.NewHTTPGetConnector(endpoint)
		if a.apiKey != "" {
			c.SetHeaders(map[string]string{"X-Api-Key": a.apiKey})
		}
		a.conn = c
	}

	return a
}

func WithNewsConnector(conn connector) newsAgentOpt {
	return func(a *NewsAgent) {
		a.conn = conn
	}
}

func WithNewsAPIKey(key string) newsAgentOpt {
	return func(a *NewsAgent) {
		a.apiKey = key
	}
}

func (a *NewsAgent) Name() string { return "news" }

func (a *NewsAgent) SourceType() model.SourceType { return model.SourceTypeNews }

// Skipped reports how many items of the last fetch were dropped as
// malformed.
func (a *NewsAgent) Skipped() int { return a.skipped }

func (a *NewsAgent) FetchEvents(ctx context.Context, window model.QueryWindow) ([]model.RawEvent, error) {
	a.conn.SetUrl(a.queryURL(window))

	body, err := a.conn.Request(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var doc any
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding news payload: %w", err)
	}

	raws, skipped := decodeNewsItems(doc, window)
	a.skipped = skipped
	if skipped > 0 {
		log.Warnf("news agent skipped %d malformed items", skipped)
	}

	return raws, nil
}

func (a *NewsAgent) queryURL(window model.QueryWindow) string {
	q := url.Values{}
	q.Set("q", strings.Join(a.keywords, " OR "))
	if !window.From.IsZero() {
		q.Set("from", window.From.UTC().Format(time.RFC3339))
	}
	if !window.To.IsZero() {
		q.Set("to", window.To.UTC().Format(time.RFC3339))
	}
	return a.endpoint + "?" + q.Encode()
}

// decodeNewsItems maps the article list to raw events on a per-item basis: a
// malformed item is skipped and counted, never fatal to the batch.
func decodeNewsItems(doc any, window model.QueryWindow) ([]model.RawEvent, int) {
	items := itemList(doc, "articles", "items", "data", "results")

	raws := make([]model.RawEvent, 0, len(items))
	skipped := 0

	for _, m := range items {
		raw := model.RawEvent{
			SourceType:  model.SourceTypeNews,
			Title:       pickStr(m, "title", "headline", "name"),
			Description: pickStr(m, "description", "summary", "snippet", "content"),
			SourceRef:   pickStr(m, "url", "link", "permalink", "id"),
			Raw:         m,
		}

		// Structured location fields only; free text never becomes a
		// location.
		switch loc := m["location"].(type) {
		case string:
			raw.Location = loc
		case map[string]any:
			raw.Location = pickStr(loc, "name", "city", "region", "country")
			raw.Lat = pickFloat(loc, "lat", "latitude")
			raw.Lon = pickFloat(loc, "lon", "lng", "longitude")
		}

		if s := pickStr(m, "published_at", "publishedAt", "pubDate", "date"); s != "" {
			if t, err := parseTimeFlexible(s); err == nil {
				raw.OccurredAt = &t
			}
		}

		if raw.Title == "" && raw.Description == "" {
			skipped++
			continue
		}

		if raw.OccurredAt != nil && !window.Contains(*raw.OccurredAt) {
			skipped++
			continue
		}

		raws = append(raws, raw)
	}

	return raws, skipped
}
