package validation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is the rule list applied to one dataset.
type Preset struct {
	Label string
	Rules []Config
}

// Presets maps dataset keys ("dispensaries", "density", "tweet_sentiment") to rules.
type Presets map[string]Preset

// DefaultPresets returns the standard rules for the three bundled datasets.
func DefaultPresets() Presets {
	return Presets{
		"dispensaries": {
			Label: "Dispensaries",
			Rules: []Config{
				{Column: "Year", Rule: Year{MinYear: 2015}},
			},
		},
		"density": {
			Label: "Density",
			Rules: []Config{
				{Column: "Population", DisplayName: "Population", Rule: Positive{AllowZero: false}},
				{Column: "Dispensary_PerCapita", DisplayName: "Dispensary Density", Rule: Positive{AllowZero: true}},
			},
		},
		"tweet_sentiment": {
			Label: "Tweet Sentiment",
			Rules: []Config{
				{Column: "BERT_Sentiment", Rule: Sentiment{}},
				{Column: "Year", Rule: Year{MinYear: 2015}},
			},
		},
	}
}

// ruleSpec is the file form of a Config.
type ruleSpec struct {
	Type        string   `yaml:"type" json:"type"`
	Column      string   `yaml:"column" json:"column"`
	DisplayName string   `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	AllowZero   *bool    `yaml:"allow_zero,omitempty" json:"allow_zero,omitempty"`
	MinValue    *float64 `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue    *float64 `yaml:"max_value,omitempty" json:"max_value,omitempty"`
	MinYear     int      `yaml:"min_year,omitempty" json:"min_year,omitempty"`
	MaxYear     int      `yaml:"max_year,omitempty" json:"max_year,omitempty"`
	MinScore    *float64 `yaml:"min_score,omitempty" json:"min_score,omitempty"`
	MaxScore    *float64 `yaml:"max_score,omitempty" json:"max_score,omitempty"`
}

type presetSpec struct {
	Label string     `yaml:"label"`
	Rules []ruleSpec `yaml:"rules"`
}

func (s ruleSpec) toConfig() (Config, error) {
	cfg := Config{Column: s.Column, DisplayName: s.DisplayName}
	switch s.Type {
	case "positive":
		// allow_zero defaults to true when the file leaves it out.
		cfg.Rule = Positive{AllowZero: s.AllowZero == nil || *s.AllowZero}
	case "range":
		cfg.Rule = Range{Min: s.MinValue, Max: s.MaxValue}
	case "year":
		cfg.Rule = Year{MinYear: s.MinYear, MaxYear: s.MaxYear}
	case "sentiment":
		r := Sentiment{MinScore: DefaultMinScore, MaxScore: DefaultMaxScore}
		if s.MinScore != nil {
			r.MinScore = *s.MinScore
		}
		if s.MaxScore != nil {
			r.MaxScore = *s.MaxScore
		}
		cfg.Rule = r
	case "percentage":
		cfg.Rule = Percentage{}
	case "":
		// reported by ValidateDataset as a configuration failure
	default:
		return Config{}, fmt.Errorf("unknown validation type %q for column %q", s.Type, s.Column)
	}
	return cfg, nil
}

// ParsePresets decodes a YAML rules document keyed by dataset.
func ParsePresets(b []byte) (Presets, error) {
	var raw map[string]presetSpec
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	out := make(Presets, len(raw))
	for key, ps := range raw {
		p := Preset{Label: ps.Label}
		if p.Label == "" {
			p.Label = key
		}
		for i, rs := range ps.Rules {
			cfg, err := rs.toConfig()
			if err != nil {
				return nil, fmt.Errorf("%s rule %d: %w", key, i+1, err)
			}
			p.Rules = append(p.Rules, cfg)
		}
		out[key] = p
	}
	return out, nil
}

// LoadPresets reads a YAML rules file.
func LoadPresets(path string) (Presets, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParsePresets(b)
}

// Merge returns p with every dataset in other replacing p's entry.
func (p Presets) Merge(other Presets) Presets {
	out := make(Presets, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
