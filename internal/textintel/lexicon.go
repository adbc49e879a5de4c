// -----------------------------------------------------------------------
// Lexicons - Deterministic keyword families for text classification
// -----------------------------------------------------------------------

// Package textintel classifies filing narrative text (management
// discussion, auditor reports) with keyword lexicons. Deterministic by
// design: the same text always yields the same signal, and the
// lexicons are plain data a reviewer can audit.
package textintel

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon holds every keyword family the classifiers use. Zero-value
// fields fall back to the built-in defaults, so an override file only
// needs the families it changes.
type Lexicon struct {
	Positive     []string            `yaml:"positive"`
	Negative     []string            `yaml:"negative"`
	Hedging      []string            `yaml:"hedging"`
	MoatFamilies map[string][]string `yaml:"moat"`
	Auditor      AuditorLexicon      `yaml:"auditor"`
}

// AuditorLexicon carries the opinion-severity patterns. Boilerplate
// patterns suppress matches inside standard assurance language.
type AuditorLexicon struct {
	Qualified    []string `yaml:"qualified"`
	Adverse      []string `yaml:"adverse"`
	Disclaimer   []string `yaml:"disclaimer"`
	Emphasis     []string `yaml:"emphasis"`
	GoingConcern []string `yaml:"going_concern"`
	Boilerplate  []string `yaml:"boilerplate"`
}

// DefaultLexicon returns the built-in keyword families.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Positive: []string{
			"strong growth", "record revenue", "record profit", "margin expansion",
			"robust demand", "healthy order book", "market share gain", "deleveraging",
			"capacity expansion", "strong cash flow", "outperformed", "upgraded",
			"well positioned", "momentum", "all-time high",
		},
		Negative: []string{
			"weak demand", "margin pressure", "slowdown", "headwind", "impairment",
			"write-off", "write-down", "litigation", "penalty", "default",
			"downgrade", "restructuring", "attrition", "loss of customer",
			"pricing pressure", "inventory pile", "delayed", "underutilization",
		},
		Hedging: []string{
			"subject to", "uncertain", "may adversely", "cannot assure", "no assurance",
			"depends on", "challenging environment", "volatility", "macro uncertainty",
		},
		MoatFamilies: map[string][]string{
			"brand": {
				"brand equity", "brand recall", "flagship brand", "trusted brand",
				"premium positioning",
			},
			"switching_costs": {
				"switching cost", "long-term contract", "sticky customer", "high retention",
				"integrated into customer", "multi-year agreement",
			},
			"network_effects": {
				"network effect", "two-sided", "largest platform", "ecosystem",
				"marketplace liquidity",
			},
			"cost_advantage": {
				"lowest cost producer", "cost leadership", "economies of scale",
				"backward integration", "captive capacity",
			},
			"regulatory": {
				"license", "regulatory approval", "patent", "exclusive right",
				"entry barrier",
			},
		},
		Auditor: AuditorLexicon{
			Qualified: []string{
				"qualified opinion", "except for", "basis for qualified",
			},
			Adverse: []string{
				"adverse opinion", "do not present fairly",
			},
			Disclaimer: []string{
				"disclaimer of opinion", "unable to obtain sufficient appropriate audit evidence",
			},
			Emphasis: []string{
				"emphasis of matter", "material uncertainty", "key audit matter",
			},
			GoingConcern: []string{
				"going concern", "ability to continue as a going concern",
			},
			Boilerplate: []string{
				"reasonable assurance", "free from material misstatement",
				"in accordance with the standards on auditing",
				"true and fair view",
				"key audit matters are those matters that",
				"going concern basis of accounting is appropriate",
			},
		},
	}
}

// LoadLexicon overlays a YAML file onto the defaults. Only non-empty
// families in the file replace their default counterpart.
func LoadLexicon(path string) (*Lexicon, error) {
	base := DefaultLexicon()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file %s: %w", path, err)
	}

	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file %s: %w", path, err)
	}

	if len(override.Positive) > 0 {
		base.Positive = override.Positive
	}
	if len(override.Negative) > 0 {
		base.Negative = override.Negative
	}
	if len(override.Hedging) > 0 {
		base.Hedging = override.Hedging
	}
	if len(override.MoatFamilies) > 0 {
		base.MoatFamilies = override.MoatFamilies
	}
	if len(override.Auditor.Qualified) > 0 {
		base.Auditor.Qualified = override.Auditor.Qualified
	}
	if len(override.Auditor.Adverse) > 0 {
		base.Auditor.Adverse = override.Auditor.Adverse
	}
	if len(override.Auditor.Disclaimer) > 0 {
		base.Auditor.Disclaimer = override.Auditor.Disclaimer
	}
	if len(override.Auditor.Emphasis) > 0 {
		base.Auditor.Emphasis = override.Auditor.Emphasis
	}
	if len(override.Auditor.GoingConcern) > 0 {
		base.Auditor.GoingConcern = override.Auditor.GoingConcern
	}
	if len(override.Auditor.Boilerplate) > 0 {
		base.Auditor.Boilerplate = override.Auditor.Boilerplate
	}

	return base, nil
}

// normalize lowercases and collapses whitespace so lexicon patterns
// match across line breaks in extracted PDF text.
func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// countHits returns how many patterns occur in the normalized text,
// counting repeated occurrences of the same pattern.
func countHits(text string, patterns []string) int {
	total := 0
	for _, p := range patterns {
		total += strings.Count(text, strings.ToLower(p))
	}
	return total
}

// excerpt returns a short window around the first occurrence of
// pattern, for evidence reporting.
func excerpt(text, pattern string, radius int) string {
	idx := strings.Index(text, strings.ToLower(pattern))
	if idx < 0 {
		return ""
	}
	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + len(pattern) + radius
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}
