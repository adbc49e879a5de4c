package documents

import (
	"strings"
	"testing"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

const filingText = `
Contents
Independent Auditor's Report ..... 112
Management Discussion and Analysis ..... 34

Management Discussion and Analysis
The year under review saw strong demand across segments with record
volumes. Margins expanded on softer input costs.
Corporate Governance Report
The Board met six times during the year.

Independent Auditor's Report
In our opinion the consolidated financial statements give a true and
fair view. Except for the matter described below, our opinion is not
modified.
Annexure A

Notes to the Consolidated Financial Statements
(All amounts in Lakh unless otherwise stated)
Revenue from operations 1,25,000.50
Profit for the year (4,200)
Basic earnings per share 48.20
Net cash generated from operating activities 9,800
Total borrowings 22,500
Dividend per equity share 9.00
`

func envByName(t *testing.T, envs []models.Envelope, name string) models.Envelope {
	t.Helper()
	for _, e := range envs {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no envelope %q", name)
	return models.Envelope{}
}

func TestSliceSections(t *testing.T) {
	envs := sliceSections(filingText)

	mda := envByName(t, envs, "doc.mda")
	if !mda.Available {
		t.Fatalf("doc.mda unavailable: %s", mda.Reason)
	}
	if !strings.Contains(mda.Text, "record") || strings.Contains(mda.Text, "Board met") {
		t.Errorf("MD&A not carved at the governance boundary: %q", mda.Text)
	}

	// The table of contents mentions the heading too; the last
	// occurrence is the section itself.
	auditor := envByName(t, envs, "doc.auditor_report")
	if !auditor.Available {
		t.Fatalf("doc.auditor_report unavailable: %s", auditor.Reason)
	}
	if !strings.Contains(auditor.Text, "true and") {
		t.Errorf("auditor section carved from the contents page: %q", auditor.Text)
	}
	if strings.Contains(auditor.Text, "Annexure A") {
		t.Errorf("auditor section not cut at the annexure: %q", auditor.Text)
	}
}

func TestSliceSectionsMissingHeading(t *testing.T) {
	envs := sliceSections("An unrelated circular about record dates.")
	for _, e := range envs {
		if e.Available {
			t.Errorf("%s available without its heading", e.Name)
		}
	}
}

func TestExtractFigures(t *testing.T) {
	envs := extractFigures(filingText)

	// Declared "in Lakh": statement amounts divide by 100 into Crore.
	revenue := envByName(t, envs, "doc.revenue")
	if !revenue.Available || revenue.Value != 1250.005 {
		t.Errorf("doc.revenue = %+v, want 1250.005 Crore", revenue)
	}

	profit := envByName(t, envs, "doc.net_profit")
	if !profit.Available || profit.Value != -42 {
		t.Errorf("doc.net_profit = %+v, want -42 (parenthesized loss)", profit)
	}

	// Per-share figures keep their face value regardless of scale.
	eps := envByName(t, envs, "doc.eps")
	if !eps.Available || eps.Value != 48.20 {
		t.Errorf("doc.eps = %+v, want 48.20", eps)
	}
	if eps.Unit != models.UnitCurrencyPerShare {
		t.Errorf("doc.eps unit = %s", eps.Unit)
	}

	dps := envByName(t, envs, "doc.dividend_per_share")
	if !dps.Available || dps.Value != 9 {
		t.Errorf("doc.dividend_per_share = %+v, want 9", dps)
	}
}

func TestReportingScale(t *testing.T) {
	if got := reportingScale("amounts in Lakh"); got != 0.01 {
		t.Errorf("lakh scale = %v", got)
	}
	if got := reportingScale("amounts in million"); got != 0.1 {
		t.Errorf("million scale = %v", got)
	}
	if got := reportingScale("amounts in crore"); got != 1 {
		t.Errorf("crore scale = %v", got)
	}
}
