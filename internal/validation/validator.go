// -----------------------------------------------------------------------
// Cross-Source Validator - Scraped vs filing agreement and trust score
// -----------------------------------------------------------------------

// Package validation compares the same financial concepts across the
// scraped and filing sources, normalizing units before judging
// disagreement. A value missing on either side is unverifiable, never
// a mismatch: absence of evidence and contrary evidence carry
// different penalties.
package validation

import (
	"fmt"
	"math"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// ConceptPair maps one financial concept to its envelope name on each
// source. Primary is the scraped side, Secondary the filing side.
// PerShare concepts additionally try corporate-action multipliers
// before declaring a mismatch, since splits and bonuses change
// per-share figures without touching totals.
type ConceptPair struct {
	Concept   string
	Primary   string
	Secondary string
	PerShare  bool
}

// DefaultConceptPairs returns the concepts validated on every run.
func DefaultConceptPairs() []ConceptPair {
	return []ConceptPair{
		{Concept: "revenue", Primary: "pnl.revenue", Secondary: "doc.revenue"},
		{Concept: "net_profit", Primary: "pnl.net_profit", Secondary: "doc.net_profit"},
		{Concept: "eps", Primary: "pnl.eps", Secondary: "doc.eps", PerShare: true},
		{Concept: "operating_cashflow", Primary: "cashflow.operating", Secondary: "doc.operating_cashflow"},
		{Concept: "total_debt", Primary: "balance.total_debt", Secondary: "doc.total_debt"},
		{Concept: "dividend_per_share", Primary: "pnl.dividend_per_share", Secondary: "doc.dividend_per_share", PerShare: true},
	}
}

// Validator scores cross-source agreement into a trust report.
type Validator struct {
	cfg   common.ValidationConfig
	pairs []ConceptPair
}

// NewValidator builds a validator with the given tolerance and penalty
// configuration. A nil pairs slice uses the default concept list.
func NewValidator(cfg common.ValidationConfig, pairs []ConceptPair) *Validator {
	if pairs == nil {
		pairs = DefaultConceptPairs()
	}
	return &Validator{cfg: cfg, pairs: pairs}
}

// Validate compares every configured concept pair present in the
// envelope set and derives the trust score. Auditor findings arrive as
// envelopes from the governance phase: a flag count and a going
// concern indicator.
func (v *Validator) Validate(env models.Set) *models.TrustReport {
	report := &models.TrustReport{
		Records: make([]models.TrustRecord, 0, len(v.pairs)),
	}

	for _, pair := range v.pairs {
		report.Records = append(report.Records, v.validatePair(pair, env))
	}

	// Auditor observations feed the score but are not concept records.
	if flags, ok := env.ScalarOf("governance.auditor_flag_count"); ok && flags > 0 {
		report.AuditorFlags = collectFlagLabels(env)
		if len(report.AuditorFlags) == 0 {
			report.AuditorFlags = []string{fmt.Sprintf("%d auditor findings", int(flags))}
		}
	}
	if gc, ok := env.ScalarOf("governance.going_concern"); ok && gc > 0 {
		report.GoingConcern = true
	}

	report.Score = v.score(report)
	report.Band = v.band(report.Score)
	return report
}

// validatePair compares one concept across sources.
func (v *Validator) validatePair(pair ConceptPair, env models.Set) models.TrustRecord {
	rec := models.TrustRecord{Concept: pair.Concept}

	primary, pok := latestOrScalar(env, pair.Primary)
	secondary, sok := latestOrScalar(env, pair.Secondary)

	switch {
	case !pok && !sok:
		rec.Outcome = models.TrustUnverifiable
		rec.Detail = "both sources unavailable"
		return rec
	case !pok:
		rec.Outcome = models.TrustUnverifiable
		rec.Detail = fmt.Sprintf("%s unavailable", pair.Primary)
		return rec
	case !sok:
		rec.Outcome = models.TrustUnverifiable
		rec.Detail = fmt.Sprintf("%s unavailable", pair.Secondary)
		return rec
	}

	rec.PrimaryValue = primary
	rec.SecondaryValue = secondary
	rec.DeltaPct = deltaPct(primary, secondary)

	// Small magnitudes compare absolutely; a few paise of rounding on
	// an EPS of 3 is not a 5% disagreement.
	if math.Abs(primary) < v.cfg.AbsThreshold && math.Abs(secondary) < v.cfg.AbsThreshold {
		if math.Abs(primary-secondary) <= v.cfg.AbsTolerance {
			rec.Outcome = models.TrustMatch
			return rec
		}
	}

	if withinPct(primary, secondary, v.cfg.TolerancePct) {
		rec.Outcome = models.TrustMatch
		return rec
	}

	// Unit scale retry: one source reporting Lakhs where the other
	// reports Crores shows up as a clean factor-of-100 disagreement.
	if withinPct(primary, secondary*v.cfg.ScaleFactor, v.cfg.TolerancePct) {
		rec.Outcome = models.TrustMatch
		rec.ScaleAdjusted = true
		rec.Detail = fmt.Sprintf("secondary rescaled x%.0f", v.cfg.ScaleFactor)
		return rec
	}
	if withinPct(primary*v.cfg.ScaleFactor, secondary, v.cfg.TolerancePct) {
		rec.Outcome = models.TrustMatch
		rec.ScaleAdjusted = true
		rec.Detail = fmt.Sprintf("primary rescaled x%.0f", v.cfg.ScaleFactor)
		return rec
	}

	// Corporate action retry for per-share concepts.
	if pair.PerShare {
		for _, mult := range v.cfg.ActionMultipliers {
			if withinPct(primary*mult, secondary, v.cfg.ActionProximityPct) ||
				withinPct(primary, secondary*mult, v.cfg.ActionProximityPct) {
				rec.Outcome = models.TrustMatch
				rec.ScaleAdjusted = true
				rec.Detail = fmt.Sprintf("corporate action ratio %.0f:1", mult)
				return rec
			}
		}
	}

	rec.Outcome = models.TrustMismatch
	rec.Detail = fmt.Sprintf("%.2f vs %.2f disagree by %.1f%%", primary, secondary, rec.DeltaPct)
	return rec
}

// score applies the subtractive trust model: start at 100, subtract
// per mismatch, per unverifiable, per auditor flag (capped) and for a
// going concern, clamp to [0,100].
func (v *Validator) score(r *models.TrustReport) float64 {
	score := 100.0
	score -= float64(r.Mismatches()) * v.cfg.MismatchPenalty
	score -= float64(r.Unverifiable()) * v.cfg.UnverifiablePen

	auditorPenalty := float64(len(r.AuditorFlags)) * v.cfg.AuditorFlagPenalty
	if auditorPenalty > v.cfg.AuditorPenaltyCap {
		auditorPenalty = v.cfg.AuditorPenaltyCap
	}
	score -= auditorPenalty

	if r.GoingConcern {
		score -= v.cfg.GoingConcernPen
	}

	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return score
}

func (v *Validator) band(score float64) models.TrustBand {
	switch {
	case score >= v.cfg.BandHigh:
		return models.TrustHigh
	case score >= v.cfg.BandModerate:
		return models.TrustModerate
	default:
		return models.TrustUnreliable
	}
}

// latestOrScalar reads a comparable value from either a scalar
// envelope or the newest point of a series envelope.
func latestOrScalar(env models.Set, name string) (float64, bool) {
	if val, ok := env.ScalarOf(name); ok {
		return val, true
	}
	return env.LatestOf(name)
}

// collectFlagLabels reads the individual auditor flag labels when the
// governance phase exported them as text.
func collectFlagLabels(env models.Set) []string {
	text, ok := env.TextOf("governance.auditor_flag_labels")
	if !ok || text == "" {
		return nil
	}
	var labels []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			if i > start {
				labels = append(labels, text[start:i])
			}
			start = i + 1
		}
	}
	return labels
}

// withinPct reports whether a and b agree within tol percent of the
// larger magnitude. Signs must agree; zero matches only zero.
func withinPct(a, b, tol float64) bool {
	if a == b {
		return true
	}
	if a == 0 || b == 0 {
		return false
	}
	if (a > 0) != (b > 0) {
		return false
	}
	base := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b)/base*100 <= tol
}

// deltaPct is the disagreement size relative to the larger magnitude,
// bounded so a zero on one side cannot produce Inf in the report.
func deltaPct(primary, secondary float64) float64 {
	base := math.Max(math.Abs(primary), math.Abs(secondary))
	if base == 0 {
		return 0
	}
	return math.Abs(primary-secondary) / base * 100
}
