package normalize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clearlane/eventsense/pkg/sensing/model"
)

// CategoryRule maps a keyword set to a category. Rules are evaluated in
// order; the first rule with any keyword present in the event text wins.
type CategoryRule struct {
	Category model.Category `yaml:"category"`
	Keywords []string       `yaml:"keywords"`
}

// SeverityRule maps intensity words to a severity for news text, where the
// source provides no severity of its own.
type SeverityRule struct {
	Severity model.Severity `yaml:"severity"`
	Keywords []string       `yaml:"keywords"`
}

// Rules holds the inference tables for the normalizer. They are data, not
// code: accuracy tuning happens in config files, not in branches.
type Rules struct {
	NewsCategories []CategoryRule            `yaml:"news_categories"`
	NewsSeverity   []SeverityRule            `yaml:"news_severity"`
	AlertTypes     map[string]model.Category `yaml:"alert_types"`
	SeverityCodes  map[string]model.Severity `yaml:"severity_codes"`
}

// DefaultRules returns the built-in tables. The keyword lists are a starting
// point tuned to logistics disruption vocabulary; deployments override them
// via a rules file.
func DefaultRules() Rules {
	return Rules{
		NewsCategories: []CategoryRule{
			{Category: model.CategoryCyclone, Keywords: []string{"cyclone", "typhoon", "hurricane"}},
			{Category: model.CategoryFlood, Keywords: []string{"flood", "flooding", "monsoon", "landslide"}},
			{Category: model.CategoryStorm, Keywords: []string{"storm", "blizzard", "snowfall"}},
			{Category: model.CategoryPortDisruption, Keywords: []string{"port", "harbour", "harbor", "dock", "terminal", "canal"}},
			{Category: model.CategoryLogisticsDelay, Keywords: []string{"delay", "backlog", "congestion", "customs", "shortage"}},
			{Category: model.CategoryTransportIssue, Keywords: []string{"strike", "rail", "highway", "truck", "freight", "shipping", "flight", "airport"}},
		},
		NewsSeverity: []SeverityRule{
			{Severity: model.SeverityHigh, Keywords: []string{"closed", "halted", "suspended", "shutdown", "blocked"}},
			{Severity: model.SeverityMedium, Keywords: []string{"delayed", "slowed", "congestion", "backlog", "disrupted"}},
		},
		AlertTypes: map[string]model.Category{
			"storm":        model.CategoryStorm,
			"thunderstorm": model.CategoryStorm,
			"winter storm": model.CategoryStorm,
			"dust storm":   model.CategoryStorm,
			"flood":        model.CategoryFlood,
			"flash flood":  model.CategoryFlood,
			"cyclone":      model.CategoryCyclone,
			"typhoon":      model.CategoryCyclone,
			"hurricane":    model.CategoryCyclone,
		},
		SeverityCodes: map[string]model.Severity{
			"minor":    model.SeverityLow,
			"moderate": model.SeverityMedium,
			"severe":   model.SeverityHigh,
			"extreme":  model.SeverityHigh,
		},
	}
}

// LoadRules reads a YAML rules file. Sections missing from the file fall
// back to the defaults so a file can override just one table.
func LoadRules(path string) (Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}

	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	defaults := DefaultRules()
	if len(r.NewsCategories) == 0 {
		r.NewsCategories = defaults.NewsCategories
	}
	if len(r.NewsSeverity) == 0 {
		r.NewsSeverity = defaults.NewsSeverity
	}
	if len(r.AlertTypes) == 0 {
		r.AlertTypes = defaults.AlertTypes
	}
	if len(r.SeverityCodes) == 0 {
		r.SeverityCodes = defaults.SeverityCodes
	}

	return r, nil
}
