// -----------------------------------------------------------------------
// Filing text carving - narrative sections and cross-check figures
// -----------------------------------------------------------------------

package documents

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// sectionSpec locates one narrative section by its heading. Annual
// reports list headings in the table of contents as well, so the last
// occurrence of a start marker is taken; that also prefers the
// consolidated auditor's report over the standalone one.
type sectionSpec struct {
	name   string
	starts []string
	ends   []string
	maxLen int
}

var narrativeSections = []sectionSpec{
	{
		name:   "doc.auditor_report",
		starts: []string{"independent auditor's report", "independent auditors' report", "auditor's report"},
		ends:   []string{"annexure", "balance sheet as at", "statement of profit and loss"},
		maxLen: 60000,
	},
	{
		name:   "doc.mda",
		starts: []string{"management discussion and analysis", "management's discussion and analysis"},
		ends:   []string{"corporate governance report", "report on corporate governance", "directors' report", "board's report"},
		maxLen: 80000,
	},
	{
		name:   "doc.notes",
		starts: []string{"notes to the consolidated financial statements", "notes to the financial statements", "notes forming part"},
		ends:   []string{},
		maxLen: 120000,
	},
}

// sliceSections carves the narrative sections out of the filing text.
// Sections whose headings never appear come back unavailable.
func sliceSections(text string) []models.Envelope {
	lower := strings.ToLower(text)

	out := make([]models.Envelope, 0, len(narrativeSections))
	for _, spec := range narrativeSections {
		body, ok := carve(text, lower, spec)
		if !ok {
			out = append(out, models.Unavailable(spec.name, "section heading not found in filing"))
			continue
		}
		out = append(out, models.NewText(spec.name, body, models.SourceFiling))
	}
	return out
}

func carve(text, lower string, spec sectionSpec) (string, bool) {
	start := -1
	for _, marker := range spec.starts {
		if idx := strings.LastIndex(lower, marker); idx > start {
			start = idx
		}
	}
	if start < 0 {
		return "", false
	}

	end := len(text)
	for _, marker := range spec.ends {
		if idx := strings.Index(lower[start+1:], marker); idx >= 0 && start+1+idx < end {
			end = start + 1 + idx
		}
	}
	if end-start > spec.maxLen {
		end = start + spec.maxLen
	}

	body := strings.TrimSpace(text[start:end])
	if body == "" {
		return "", false
	}
	return body, true
}

// figureSpec locates one statement figure by the labels it appears
// under. PerShare figures skip the reporting-scale conversion.
type figureSpec struct {
	name     string
	labels   []*regexp.Regexp
	perShare bool
}

var crossCheckFigures = []figureSpec{
	{
		name: "doc.revenue",
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)revenue from operations`),
			regexp.MustCompile(`(?i)total income`),
		},
	},
	{
		name: "doc.net_profit",
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)profit for the year`),
			regexp.MustCompile(`(?i)profit after tax`),
			regexp.MustCompile(`(?i)net profit`),
		},
	},
	{
		name:     "doc.eps",
		perShare: true,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)basic earnings per share`),
			regexp.MustCompile(`(?i)earnings per share[^.]{0,40}basic`),
			regexp.MustCompile(`(?i)basic eps`),
		},
	},
	{
		name: "doc.operating_cashflow",
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)net cash (?:generated |flow )?from operating activities`),
			regexp.MustCompile(`(?i)cash (?:generated|flow) from operat\w+ activities`),
		},
	},
	{
		name: "doc.total_debt",
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)total borrowings`),
			regexp.MustCompile(`(?i)total debt`),
			regexp.MustCompile(`(?i)borrowings`),
		},
	},
	{
		name:     "doc.dividend_per_share",
		perShare: true,
		labels: []*regexp.Regexp{
			regexp.MustCompile(`(?i)dividend per (?:equity )?share`),
			regexp.MustCompile(`(?i)dividend of (?:rs\.?|₹)`),
		},
	},
}

// figureNumber matches an Indian-formatted amount; a leading open
// parenthesis marks it negative.
var figureNumber = regexp.MustCompile(`(\()?\s*((?:\d{1,3}(?:,\d{2,3})+|\d+)(?:\.\d+)?)`)

// figureWindow is how far past a label a figure may sit. Extracted
// table rows keep label and first-column value close together.
const figureWindow = 90

// extractFigures pulls the cross-check statement figures out of the
// filing text. The first number after the first matching label wins;
// statement-level amounts are normalized to Crore using the reporting
// scale declared in the filing.
func extractFigures(text string) []models.Envelope {
	scale := reportingScale(text)

	out := make([]models.Envelope, 0, len(crossCheckFigures))
	for _, spec := range crossCheckFigures {
		value, ok := findFigure(text, spec.labels)
		if !ok {
			out = append(out, models.Unavailable(spec.name, "figure not recovered from filing"))
			continue
		}
		unit := models.UnitCurrencyCrore
		if spec.perShare {
			unit = models.UnitCurrencyPerShare
		} else {
			value *= scale
		}
		out = append(out, models.NewScalar(spec.name, value, unit, models.SourceFiling))
	}
	return out
}

func findFigure(text string, labels []*regexp.Regexp) (float64, bool) {
	for _, label := range labels {
		loc := label.FindStringIndex(text)
		if loc == nil {
			continue
		}
		window := text[loc[1]:min(loc[1]+figureWindow, len(text))]
		m := figureNumber.FindStringSubmatch(window)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[2], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if m[1] == "(" {
			value = -value
		}
		return value, true
	}
	return 0, false
}

// reportingScale converts the filing's declared amount scale to Crore.
func reportingScale(text string) float64 {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "in lakh"), strings.Contains(lower, "in lacs"):
		return 0.01
	case strings.Contains(lower, "in million"):
		return 0.1
	default:
		// Crore is the dominant convention; an undeclared scale is
		// left for the cross-source validator to judge.
		return 1.0
	}
}
