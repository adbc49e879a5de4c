// -----------------------------------------------------------------------
// Report assembler - Markdown research report and file output
// -----------------------------------------------------------------------

// Package report renders the research report for one run: a Markdown
// document assembled from the verdict, the vote register, the trust
// report and the phase trace, optionally converted to PDF.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Input carries everything one report needs. All fields come from the
// completed run; the assembler does no computation of its own.
type Input struct {
	Profile   models.Profile
	Verdict   *models.Verdict
	Consensus models.Consensus
	Veto      models.Veto
	Trust     *models.TrustReport
	Votes     []models.Vote
	Phases    []models.PhaseResult
}

// Artifacts lists the files a report write produced.
type Artifacts struct {
	MarkdownPath string
	PDFPath      string
}

// Service assembles and writes research reports.
type Service struct {
	cfg       common.ReportConfig
	outputDir string
	logger    arbor.ILogger
}

// NewService creates the report service writing into outputDir.
func NewService(cfg common.ReportConfig, outputDir string, logger arbor.ILogger) *Service {
	return &Service{
		cfg:       cfg,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Write renders the report and writes the Markdown (and PDF when
// configured) into the output directory.
func (s *Service) Write(in *Input) (*Artifacts, error) {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report output dir: %w", err)
	}

	markdown := s.Assemble(in)

	stamp := in.Verdict.GeneratedAt.Format("20060102_150405")
	base := fmt.Sprintf("%s_%s", sanitizeFilename(in.Verdict.Symbol), stamp)

	artifacts := &Artifacts{
		MarkdownPath: filepath.Join(s.outputDir, base+".md"),
	}
	if err := os.WriteFile(artifacts.MarkdownPath, []byte(markdown), 0644); err != nil {
		return nil, fmt.Errorf("failed to write markdown report: %w", err)
	}
	s.logger.Info().
		Str("path", artifacts.MarkdownPath).
		Int("bytes", len(markdown)).
		Msg("Markdown report written")

	if s.cfg.PDF {
		pdfBytes, err := RenderPDF(markdown, s.logger)
		if err != nil {
			// A PDF failure never invalidates the markdown artifact.
			s.logger.Warn().Err(err).Msg("PDF rendering failed, markdown report stands alone")
			return artifacts, nil
		}
		artifacts.PDFPath = filepath.Join(s.outputDir, base+".pdf")
		if err := os.WriteFile(artifacts.PDFPath, pdfBytes, 0644); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to write PDF report")
			artifacts.PDFPath = ""
			return artifacts, nil
		}
		s.logger.Info().
			Str("path", artifacts.PDFPath).
			Int("bytes", len(pdfBytes)).
			Msg("PDF report written")
	}

	return artifacts, nil
}

// Assemble renders the full Markdown document.
func (s *Service) Assemble(in *Input) string {
	var sb strings.Builder

	s.writeHeader(&sb, in)
	s.writeConsensus(&sb, in)
	s.writeTrust(&sb, in)
	s.writeSafety(&sb, in)
	if s.cfg.IncludePhaseTrace {
		s.writePhaseTrace(&sb, in)
	}

	return sb.String()
}

func (s *Service) writeHeader(sb *strings.Builder, in *Input) {
	name := in.Profile.Name
	if name == "" {
		name = in.Verdict.Symbol
	}
	sb.WriteString(fmt.Sprintf("# Equity Research: %s (%s)\n\n", name, in.Verdict.Symbol))
	sb.WriteString(fmt.Sprintf("**Rating: %s** | Confidence: %s | Trust: %.0f (%s)\n\n",
		in.Verdict.Rating, in.Verdict.Confidence, in.Verdict.TrustScore, in.Verdict.TrustBand))
	sb.WriteString(fmt.Sprintf("**Generated**: %s | Run `%s`\n\n",
		in.Verdict.GeneratedAt.Format("2 January 2006 15:04 MST"), in.Verdict.RunID))

	if in.Profile.Sector != "" || in.Profile.Classification != "" {
		sb.WriteString(fmt.Sprintf("Sector: %s | Industry: %s | Entity class: %s\n\n",
			orDash(in.Profile.Sector), orDash(in.Profile.Industry), in.Profile.Classification))
	}

	if in.Verdict.Rating == models.RatingSuspended {
		sb.WriteString(fmt.Sprintf("> **SUSPENDED** — %s\n\n", in.Verdict.VetoReason))
	}

	if len(in.Verdict.Thesis) > 0 {
		sb.WriteString("## Thesis\n\n")
		for _, line := range in.Verdict.Thesis {
			sb.WriteString(fmt.Sprintf("- %s\n", line))
		}
		sb.WriteString("\n")
	}
}

func (s *Service) writeConsensus(sb *strings.Builder, in *Input) {
	c := in.Consensus
	sb.WriteString("## Signal consensus\n\n")
	sb.WriteString(fmt.Sprintf(
		"%d signals registered, %d available. %d positive / %d neutral / %d negative — positive fraction %.3f.\n\n",
		c.Registered, c.Available, c.Positive, c.Neutral, c.Negative, c.PositiveFraction))

	if len(in.Votes) == 0 {
		return
	}
	sb.WriteString("| Signal | Stance | Rationale |\n")
	sb.WriteString("|---|---|---|\n")
	for _, v := range in.Votes {
		stance := string(v.Direction)
		if !v.Available {
			stance = "unavailable"
		}
		detail := v.Rationale
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", v.Signal, stance, tableCell(detail)))
	}
	sb.WriteString("\n")
}

func (s *Service) writeTrust(sb *strings.Builder, in *Input) {
	sb.WriteString("## Cross-source validation\n\n")
	if in.Trust == nil {
		sb.WriteString("Validation did not run; no trust score for this run.\n\n")
		return
	}

	t := in.Trust
	sb.WriteString(fmt.Sprintf("Trust score **%.0f / 100** (%s): %d matched, %d mismatched, %d unverifiable.\n\n",
		t.Score, t.Band, len(t.Records)-t.Mismatches()-t.Unverifiable(), t.Mismatches(), t.Unverifiable()))

	if len(t.Records) > 0 {
		sb.WriteString("| Concept | Outcome | Scraped | Filing | Delta |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, rec := range t.Records {
			if rec.Outcome == models.TrustUnverifiable {
				sb.WriteString(fmt.Sprintf("| %s | %s | - | - | %s |\n",
					rec.Concept, rec.Outcome, tableCell(rec.Detail)))
				continue
			}
			note := fmt.Sprintf("%.1f%%", rec.DeltaPct)
			if rec.ScaleAdjusted {
				note += " (scale-adjusted)"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f | %.2f | %s |\n",
				rec.Concept, rec.Outcome, rec.PrimaryValue, rec.SecondaryValue, note))
		}
		sb.WriteString("\n")
	}

	if len(t.AuditorFlags) > 0 {
		sb.WriteString(fmt.Sprintf("Auditor flags: %s.\n\n", strings.Join(t.AuditorFlags, ", ")))
	}
	if t.GoingConcern {
		sb.WriteString("**Going concern doubt raised in the auditor's report.**\n\n")
	}
}

func (s *Service) writeSafety(sb *strings.Builder, in *Input) {
	sb.WriteString("## Safety gate\n\n")
	if !in.Veto.Tripped {
		sb.WriteString("No safety conditions tripped.\n\n")
		return
	}
	for _, trip := range in.Veto.Trips {
		sb.WriteString(fmt.Sprintf("- %s\n", trip))
	}
	sb.WriteString("\n")
}

func (s *Service) writePhaseTrace(sb *strings.Builder, in *Input) {
	if len(in.Phases) == 0 {
		return
	}
	sb.WriteString("## Phase trace\n\n")
	sb.WriteString("| Phase | Status | Duration | Modules |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, ph := range in.Phases {
		var mods []string
		for _, m := range ph.Modules {
			entry := fmt.Sprintf("%s:%s", m.Module, m.Status)
			mods = append(mods, entry)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			ph.PhaseID, ph.Status, roundDuration(ph.Duration), strings.Join(mods, ", ")))
	}
	sb.WriteString("\n")
}

// tableCell strips characters that would break a Markdown table row.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "-"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func roundDuration(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}

// sanitizeFilename keeps the symbol usable as a file name on every
// platform.
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_", " ", "_")
	return replacer.Replace(s)
}
