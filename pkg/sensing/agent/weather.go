package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/clearlane/eventsense/pkg/sensing/connectors"
	"github.com/clearlane/eventsense/pkg/sensing/log"
	"github.com/clearlane/eventsense/pkg/sensing/model"
)

type weatherAgentOpt func(a *WeatherAgent)

// WeatherAgent queries a weather/alerts endpoint for the configured regions.
// Every active alert becomes one RawEvent carrying alert type, affected
// region, severity code and issue time.
type WeatherAgent struct {
	endpoint string
	regions  []string
	conn     connector
	skipped  int
}

func NewWeatherAgent(endpoint string, regions []string, opts ...weatherAgentOpt) *WeatherAgent {
	a := &WeatherAgent{
		endpoint: endpoint,
		regions:  regions,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.conn == nil {
		a.conn = connectors.NewHTTPGetConnector(endpoint)
	}

	return a
}

func WithWeatherConnector(conn connector) weatherAgentOpt {
	return func(a *WeatherAgent) {
		a.conn = conn
	}
}

func (a *WeatherAgent) Name() string { return "weather" }

func (a *WeatherAgent) SourceType() model.SourceType { return model.SourceTypeWeather }

// Skipped reports how many items of the last fetch were dropped as
// malformed.
func (a *WeatherAgent) Skipped() int { return a.skipped }

func (a *WeatherAgent) FetchEvents(ctx context.Context, window model.QueryWindow) ([]model.RawEvent, error) {
	a.skipped = 0
	all := make([]model.RawEvent, 0, len(a.regions))

	for _, region := range a.regions {
		a.conn.SetUrl(a.queryURL(region))

		body, err := a.conn.Request(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching alerts for region %s: %w", region, err)
		}

		var doc any
		err = json.NewDecoder(body).Decode(&doc)
		body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding alerts payload for region %s: %w", region, err)
		}

		raws, skipped := decodeAlertItems(doc, region)
		a.skipped += skipped
		all = append(all, raws...)
	}

	if a.skipped > 0 {
		log.Warnf("weather agent skipped %d malformed items", a.skipped)
	}

	return all, nil
}

func (a *WeatherAgent) queryURL(region string) string {
	q := url.Values{}
	q.Set("area", region)
	q.Set("status", "actual")
	return a.endpoint + "?" + q.Encode()
}

// decodeAlertItems maps an alert list to raw events per item. NWS-style
// feature envelopes are unwrapped to their properties object.
func decodeAlertItems(doc any, region string) ([]model.RawEvent, int) {
	items := itemList(doc, "alerts", "features", "items", "data")

	raws := make([]model.RawEvent, 0, len(items))
	skipped := 0

	for _, m := range items {
		if props, ok := m["properties"].(map[string]any); ok {
			m = props
		}

		raw := model.RawEvent{
			SourceType:   model.SourceTypeWeather,
			Title:        pickStr(m, "headline", "title", "event"),
			Description:  pickStr(m, "description", "instruction", "summary"),
			AlertType:    pickStr(m, "event", "alert_type", "type"),
			SeverityCode: pickStr(m, "severity", "severity_code", "level"),
			Location:     pickStr(m, "areaDesc", "area", "region"),
			SourceRef:    pickStr(m, "id", "@id", "url"),
			Raw:          m,
		}

		if raw.Location == "" {
			raw.Location = region
		}

		raw.Lat = pickFloat(m, "lat", "latitude")
		raw.Lon = pickFloat(m, "lon", "longitude")

		if s := pickStr(m, "onset", "effective", "issued", "sent"); s != "" {
			if t, err := parseTimeFlexible(s); err == nil {
				raw.OccurredAt = &t
			}
		}

		if raw.AlertType == "" && raw.Title == "" {
			skipped++
			continue
		}

		raws = append(raws, raw)
	}

	return raws, skipped
}
