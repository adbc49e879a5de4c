package analysis

import (
	"context"
	"fmt"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// RevenueGrowthModule votes on top-line trajectory from the annual
// revenue series: CAGR over the full history plus the latest
// year-over-year move.
type RevenueGrowthModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*RevenueGrowthModule)(nil)
	_ pipeline.Voter  = (*RevenueGrowthModule)(nil)
)

func NewRevenueGrowthModule(cfg common.AnalysisConfig) *RevenueGrowthModule {
	return &RevenueGrowthModule{cfg: cfg}
}

func (m *RevenueGrowthModule) Name() string       { return "revenue_growth" }
func (m *RevenueGrowthModule) SignalName() string { return "growth.revenue" }
func (m *RevenueGrowthModule) Requires() []string { return []string{"pnl.revenue"} }
func (m *RevenueGrowthModule) Produces() []string {
	return []string{"growth.revenue_cagr", "growth.revenue_yoy"}
}

func (m *RevenueGrowthModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	series, err := needSeries(in.Envelopes, "pnl.revenue", 3)
	if err != nil {
		return pipeline.Result{}, err
	}
	return growthResult(m.cfg, m.SignalName(), "revenue", "growth.revenue_cagr", "growth.revenue_yoy", series)
}

// ProfitGrowthModule is the bottom-line twin of RevenueGrowthModule,
// run over net profit.
type ProfitGrowthModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*ProfitGrowthModule)(nil)
	_ pipeline.Voter  = (*ProfitGrowthModule)(nil)
)

func NewProfitGrowthModule(cfg common.AnalysisConfig) *ProfitGrowthModule {
	return &ProfitGrowthModule{cfg: cfg}
}

func (m *ProfitGrowthModule) Name() string       { return "profit_growth" }
func (m *ProfitGrowthModule) SignalName() string { return "growth.profit" }
func (m *ProfitGrowthModule) Requires() []string { return []string{"pnl.net_profit"} }
func (m *ProfitGrowthModule) Produces() []string {
	return []string{"growth.profit_cagr", "growth.profit_yoy"}
}

func (m *ProfitGrowthModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	series, err := needSeries(in.Envelopes, "pnl.net_profit", 3)
	if err != nil {
		return pipeline.Result{}, err
	}
	return growthResult(m.cfg, m.SignalName(), "profit", "growth.profit_cagr", "growth.profit_yoy", series)
}

func growthResult(cfg common.AnalysisConfig, signal, label, cagrName, yoyName string, series []models.SeriesPoint) (pipeline.Result, error) {
	rate, rateOK := cagr(series)
	latest, latestOK := yoy(series)

	var out []models.Envelope
	if rateOK {
		out = append(out, scalar(cagrName, rate, models.UnitPercent))
	} else {
		out = append(out, models.Unavailable(cagrName, "growth rate undefined over non-positive endpoints"))
	}
	if latestOK {
		out = append(out, scalar(yoyName, latest, models.UnitPercent))
	} else {
		out = append(out, models.Unavailable(yoyName, "previous period is zero"))
	}

	vote := growthVote(cfg, signal, label, rate, rateOK, latest, latestOK)
	return pipeline.Result{Envelopes: out, Vote: &vote}, nil
}

// growthVote grades CAGR against the strong/negative thresholds, with
// the latest year-over-year move breaking borderline cases: a strong
// multi-year rate with a shrinking latest year is momentum lost, not
// strength.
func growthVote(cfg common.AnalysisConfig, signal, label string, rate float64, rateOK bool, latest float64, latestOK bool) models.Vote {
	if !rateOK {
		if !latestOK {
			return models.UnavailableVote(signal, label+" growth undefined")
		}
		rate = latest
	}

	switch {
	case rate >= cfg.GrowthStrongPct:
		if latestOK && latest < cfg.GrowthNegativePct {
			return models.NeutralVote(signal, fmt.Sprintf("%s CAGR %.1f%% but latest year shrank %.1f%%", label, rate, latest))
		}
		return models.PositiveVote(signal, fmt.Sprintf("%s compounding at %.1f%% per year", label, rate))
	case rate < cfg.GrowthNegativePct:
		return models.NegativeVote(signal, fmt.Sprintf("%s declining at %.1f%% per year", label, rate))
	default:
		return models.NeutralVote(signal, fmt.Sprintf("%s growth %.1f%% per year is modest", label, rate))
	}
}
