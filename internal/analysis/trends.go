package analysis

import (
	"context"
	"fmt"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// TrendModule judges the multi-year direction of travel: margin
// drift, ROE slope and the consistency of revenue growth over the
// configured window. It answers "is this business getting better or
// worse" rather than "is it good".
type TrendModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*TrendModule)(nil)
	_ pipeline.Voter  = (*TrendModule)(nil)
)

func NewTrendModule(cfg common.AnalysisConfig) *TrendModule {
	return &TrendModule{cfg: cfg}
}

func (m *TrendModule) Name() string       { return "trend" }
func (m *TrendModule) SignalName() string { return "trend.health" }

func (m *TrendModule) Requires() []string {
	return []string{"ratios.net_margin", "ratios.roe", "pnl.revenue"}
}

func (m *TrendModule) Produces() []string {
	return []string{"trend.margin_drift_pp", "trend.up_year_fraction"}
}

func (m *TrendModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	margins, err := needSeries(env, "ratios.net_margin", 3)
	if err != nil {
		return pipeline.Result{}, err
	}
	revenue, err := needSeries(env, "pnl.revenue", 3)
	if err != nil {
		return pipeline.Result{}, err
	}

	window := m.cfg.TrendWindowYears
	marginWindow := tail(margins, window)
	drift := marginWindow[len(marginWindow)-1].Value - marginWindow[0].Value

	upFraction := upYearFraction(tail(revenue, window))

	roeFalling := false
	if roe, ok := env.SeriesOf("ratios.roe"); ok && len(roe) >= 3 {
		values := make([]float64, 0, window)
		for _, p := range tail(roe, window) {
			values = append(values, p.Value)
		}
		if s, sok := slope(values); sok && s < 0 {
			roeFalling = true
		}
	}

	vote := m.vote(drift, upFraction, roeFalling)
	return pipeline.Result{
		Envelopes: []models.Envelope{
			scalar("trend.margin_drift_pp", drift, models.UnitPercent),
			scalar("trend.up_year_fraction", upFraction, models.UnitRatio),
		},
		Vote: &vote,
	}, nil
}

func (m *TrendModule) vote(drift, upFraction float64, roeFalling bool) models.Vote {
	switch {
	case drift <= -m.cfg.MarginDriftPp:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("net margin eroded %.1fpp over the window", -drift))
	case roeFalling && upFraction < 0.5:
		return models.NegativeVote(m.SignalName(),
			"returns falling with revenue shrinking in most years")
	case drift >= m.cfg.MarginDriftPp && upFraction >= 0.75:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("margins up %.1fpp with revenue growing in %.0f%% of years", drift, upFraction*100))
	case upFraction >= 0.75 && !roeFalling:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("steady compounding, revenue up in %.0f%% of years", upFraction*100))
	default:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("flat trajectory, margin drift %.1fpp", drift))
	}
}

// upYearFraction is the share of year-over-year revenue moves that
// were increases.
func upYearFraction(series []models.SeriesPoint) float64 {
	if len(series) < 2 {
		return 0
	}
	up := 0
	for i := 1; i < len(series); i++ {
		if series[i].Value > series[i-1].Value {
			up++
		}
	}
	return float64(up) / float64(len(series)-1)
}
