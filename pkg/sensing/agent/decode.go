package agent

import (
	"fmt"
	"time"
)

// pickStr returns the first non-empty string value among the given keys.
// Source APIs disagree on field names; decoding stays tolerant instead of
// binding to one schema.
func pickStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func pickFloat(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch f := v.(type) {
			case float64:
				val := f
				return &val
			}
		}
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimeFlexible(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}

// itemList extracts the item array from the common response envelopes:
// {"articles": [...]}, {"items": [...]}, {"data": [...]}, {"alerts": [...]},
// {"features": [...]} or a top-level array.
func itemList(doc any, keys ...string) []map[string]any {
	var arr []any

	switch v := doc.(type) {
	case []any:
		arr = v
	case map[string]any:
		for _, key := range keys {
			if a, ok := v[key].([]any); ok {
				arr = a
				break
			}
		}
	}

	out := make([]map[string]any, 0, len(arr))
	for _, it := range arr {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
