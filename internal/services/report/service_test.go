package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

func sampleInput() *Input {
	generated := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	return &Input{
		Profile: models.Profile{
			Symbol:         "NSE:RELIANCE",
			Name:           "Reliance Industries",
			Sector:         "Refineries",
			Industry:       "Oil & Gas",
			Classification: models.ClassStandard,
		},
		Verdict: &models.Verdict{
			Symbol:           "NSE:RELIANCE",
			RunID:            "run-1234",
			Rating:           models.RatingBuy,
			PositiveFraction: 0.71,
			TrustScore:       82,
			TrustBand:        models.TrustHigh,
			Confidence:       models.ConfidenceHigh,
			VotesAvailable:   14,
			VotesRegistered:  17,
			Thesis:           []string{"Revenue compounding at 18% CAGR", "Strong cash conversion"},
			GeneratedAt:      generated,
		},
		Consensus: models.Consensus{
			Rating:           models.RatingBuy,
			PositiveFraction: 0.71,
			Positive:         10,
			Neutral:          2,
			Negative:         2,
			Available:        14,
			Registered:       17,
			Confidence:       models.ConfidenceHigh,
		},
		Trust: &models.TrustReport{
			Score: 82,
			Band:  models.TrustHigh,
			Records: []models.TrustRecord{
				{Concept: "revenue", Outcome: models.TrustMatch, PrimaryValue: 964693, SecondaryValue: 962820, DeltaPct: 0.19},
				{Concept: "eps", Outcome: models.TrustMatch, PrimaryValue: 51.2, SecondaryValue: 102.4, DeltaPct: 0.0, ScaleAdjusted: true},
				{Concept: "total_debt", Outcome: models.TrustUnverifiable, Detail: "filing side missing"},
			},
		},
		Votes: []models.Vote{
			models.PositiveVote("growth.revenue", "revenue CAGR 18.0% over 5 years"),
			models.NegativeVote("valuation.dcf", "price 30% above intrinsic value"),
			models.UnavailableVote("ownership.pledging", "shareholding data not delivered"),
		},
		Phases: []models.PhaseResult{
			{PhaseID: "growth", Status: models.PhaseComplete, Duration: 1500 * time.Microsecond,
				Modules: []models.ModuleResult{{Module: "revenue_growth", Status: models.ModuleOK}}},
			{PhaseID: "valuation", Status: models.PhasePartial, Duration: 3 * time.Millisecond,
				Modules: []models.ModuleResult{{Module: "dcf", Status: models.ModuleUnavailable}}},
		},
	}
}

func newTestService(t *testing.T, cfg common.ReportConfig) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return NewService(cfg, dir, arbor.NewLogger()), dir
}

func TestAssembleSections(t *testing.T) {
	svc, _ := newTestService(t, common.ReportConfig{IncludePhaseTrace: true})
	md := svc.Assemble(sampleInput())

	wants := []string{
		"# Equity Research: Reliance Industries (NSE:RELIANCE)",
		"**Rating: BUY** | Confidence: HIGH | Trust: 82 (HIGH)",
		"Run `run-1234`",
		"## Thesis",
		"- Revenue compounding at 18% CAGR",
		"## Signal consensus",
		"17 signals registered, 14 available",
		"positive fraction 0.710",
		"| growth.revenue | positive |",
		"| ownership.pledging | unavailable |",
		"## Cross-source validation",
		"Trust score **82 / 100** (HIGH): 2 matched, 0 mismatched, 1 unverifiable",
		"(scale-adjusted)",
		"| total_debt | unverifiable | - | - | filing side missing |",
		"## Safety gate",
		"No safety conditions tripped.",
		"## Phase trace",
		"| growth | complete |",
		"revenue_growth:ok",
	}
	for _, want := range wants {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestAssembleSuspendedBanner(t *testing.T) {
	svc, _ := newTestService(t, common.ReportConfig{})

	in := sampleInput()
	in.Verdict.Rating = models.RatingSuspended
	in.Verdict.VetoReason = "trust score 45 below floor 60"
	in.Verdict.Thesis = nil
	in.Veto = models.Veto{
		Tripped: true,
		Reason:  "trust score 45 below floor 60",
		Trips:   []string{"trust score 45 below floor 60", "critical signal pnl.revenue unavailable"},
	}

	md := svc.Assemble(in)
	if !strings.Contains(md, "> **SUSPENDED** — trust score 45 below floor 60") {
		t.Error("suspension banner missing")
	}
	if !strings.Contains(md, "- critical signal pnl.revenue unavailable") {
		t.Error("secondary trip missing from the safety section")
	}
	if strings.Contains(md, "## Thesis") {
		t.Error("suspended report must not carry a thesis")
	}
	if strings.Contains(md, "## Phase trace") {
		t.Error("phase trace rendered with the trace disabled")
	}
}

func TestAssembleWithoutTrustReport(t *testing.T) {
	svc, _ := newTestService(t, common.ReportConfig{})

	in := sampleInput()
	in.Trust = nil

	md := svc.Assemble(in)
	if !strings.Contains(md, "Validation did not run") {
		t.Error("missing trust report must be stated, not omitted")
	}
}

func TestWriteMarkdownArtifact(t *testing.T) {
	svc, dir := newTestService(t, common.ReportConfig{PDF: false})

	artifacts, err := svc.Write(sampleInput())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if artifacts.PDFPath != "" {
		t.Errorf("PDFPath = %q with PDF disabled", artifacts.PDFPath)
	}

	want := filepath.Join(dir, "NSE_RELIANCE_20260820_143000.md")
	if artifacts.MarkdownPath != want {
		t.Errorf("MarkdownPath = %q, want %q", artifacts.MarkdownPath, want)
	}
	data, err := os.ReadFile(artifacts.MarkdownPath)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if !strings.Contains(string(data), "# Equity Research") {
		t.Error("written artifact does not contain the report")
	}
}

func TestTableCell(t *testing.T) {
	if got := tableCell("a | b\nc"); got != "a / b c" {
		t.Errorf("tableCell() = %q", got)
	}
	if got := tableCell(""); got != "-" {
		t.Errorf("tableCell(empty) = %q, want -", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("NSE:RELIANCE"); got != "NSE_RELIANCE" {
		t.Errorf("sanitizeFilename() = %q", got)
	}
	if got := sanitizeFilename("BSE/500325 A"); got != "BSE_500325_A" {
		t.Errorf("sanitizeFilename() = %q", got)
	}
}
