package textintel

import "strings"

// FlagSeverity grades an auditor finding.
type FlagSeverity string

const (
	SeverityLow      FlagSeverity = "LOW"      // emphasis of matter, key audit matter
	SeverityHigh     FlagSeverity = "HIGH"     // qualified opinion
	SeverityCritical FlagSeverity = "CRITICAL" // adverse, disclaimer, going concern
)

var severityRank = map[FlagSeverity]int{
	SeverityLow:      1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Outranks reports whether s is more severe than other.
func (s FlagSeverity) Outranks(other FlagSeverity) bool {
	return severityRank[s] > severityRank[other]
}

// AuditorFlag is one finding extracted from the auditor's report.
type AuditorFlag struct {
	Kind     string
	Severity FlagSeverity
	Excerpt  string
}

// AuditorResult is the outcome of auditor-opinion classification.
type AuditorResult struct {
	Flags        []AuditorFlag
	GoingConcern bool
}

// AuditorSeverity scans an auditor report for opinion modifications.
// Matches inside standard assurance boilerplate are suppressed: every
// clean report contains the phrase "going concern" in its description
// of the auditor's responsibilities.
func (l *Lexicon) AuditorSeverity(text string) AuditorResult {
	norm := l.stripBoilerplate(normalize(text))

	var res AuditorResult

	scan := func(kind string, severity FlagSeverity, patterns []string) {
		for _, p := range patterns {
			lp := strings.ToLower(p)
			if strings.Contains(norm, lp) {
				res.Flags = append(res.Flags, AuditorFlag{
					Kind:     kind,
					Severity: severity,
					Excerpt:  excerpt(norm, p, 70),
				})
				return
			}
		}
	}

	scan("qualified_opinion", SeverityHigh, l.Auditor.Qualified)
	scan("adverse_opinion", SeverityCritical, l.Auditor.Adverse)
	scan("disclaimer_of_opinion", SeverityCritical, l.Auditor.Disclaimer)
	scan("emphasis_of_matter", SeverityLow, l.Auditor.Emphasis)

	for _, p := range l.Auditor.GoingConcern {
		if strings.Contains(norm, strings.ToLower(p)) {
			res.GoingConcern = true
			res.Flags = append(res.Flags, AuditorFlag{
				Kind:     "going_concern",
				Severity: SeverityCritical,
				Excerpt:  excerpt(norm, p, 70),
			})
			break
		}
	}

	return res
}

// stripBoilerplate removes standard assurance sentences so their
// vocabulary cannot trigger findings.
func (l *Lexicon) stripBoilerplate(norm string) string {
	for _, b := range l.Auditor.Boilerplate {
		norm = strings.ReplaceAll(norm, strings.ToLower(b), " ")
	}
	return norm
}
