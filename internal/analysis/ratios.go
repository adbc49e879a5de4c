package analysis

import (
	"context"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// RatiosModule derives the ratio families the later phases consume.
// It casts no vote: every ratio that can be computed is published,
// every ratio that cannot is published unavailable, and downstream
// modules decide what silence means for them.
type RatiosModule struct{}

var _ pipeline.Module = (*RatiosModule)(nil)

func NewRatiosModule() *RatiosModule { return &RatiosModule{} }

func (m *RatiosModule) Name() string { return "ratios" }

func (m *RatiosModule) Requires() []string { return nil }

func (m *RatiosModule) Produces() []string {
	return []string{
		"ratios.net_margin",
		"ratios.asset_turnover",
		"ratios.equity_multiplier",
		"ratios.roe",
		"ratios.roce",
		"ratios.debt_equity",
		"ratios.current_ratio",
		"ratios.interest_coverage",
		"ratios.pe",
		"ratios.payout_ratio",
	}
}

func (m *RatiosModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes
	var out []models.Envelope

	out = append(out, ratioSeries("ratios.net_margin", env, "pnl.net_profit", "pnl.revenue", 100))
	out = append(out, ratioSeries("ratios.asset_turnover", env, "pnl.revenue", "balance.total_assets", 1))
	out = append(out, ratioSeries("ratios.equity_multiplier", env, "balance.total_assets", "balance.equity", 1))
	out = append(out, ratioSeries("ratios.roe", env, "pnl.net_profit", "balance.equity", 100))

	out = append(out, m.roce(env))
	out = append(out, latestRatio("ratios.debt_equity", env, "balance.total_debt", "balance.equity", 1, models.UnitRatio))
	out = append(out, latestRatio("ratios.current_ratio", env, "balance.current_assets", "balance.current_liabilities", 1, models.UnitRatio))
	out = append(out, latestRatio("ratios.interest_coverage", env, "pnl.operating_profit", "pnl.interest", 1, models.UnitRatio))
	out = append(out, m.priceEarnings(env))
	out = append(out, latestRatio("ratios.payout_ratio", env, "pnl.dividend_per_share", "pnl.eps", 100, models.UnitPercent))

	return pipeline.Result{Envelopes: out}, nil
}

// roce uses EBIT over capital employed (equity + total debt). Banks
// carry no operating_profit line in the scraped layout, so the ratio
// degrades to unavailable there.
func (m *RatiosModule) roce(env models.Set) models.Envelope {
	ebit, err := need(env, "pnl.operating_profit")
	if err != nil {
		return models.Unavailable("ratios.roce", "pnl.operating_profit missing")
	}
	equity, err := need(env, "balance.equity")
	if err != nil {
		return models.Unavailable("ratios.roce", "balance.equity missing")
	}
	debt, _ := env.LatestOf("balance.total_debt")
	capital := equity + debt
	if capital == 0 {
		return models.Unavailable("ratios.roce", "capital employed is zero")
	}
	return scalar("ratios.roce", ebit/capital*100, models.UnitPercent)
}

func (m *RatiosModule) priceEarnings(env models.Set) models.Envelope {
	if pe, ok := env.ScalarOf("price.pe"); ok && pe > 0 {
		return scalar("ratios.pe", pe, models.UnitRatio)
	}
	price, err := need(env, "price.current")
	if err != nil {
		return models.Unavailable("ratios.pe", "price.current missing")
	}
	eps, err := need(env, "pnl.eps")
	if err != nil {
		return models.Unavailable("ratios.pe", "pnl.eps missing")
	}
	if eps <= 0 {
		return models.Unavailable("ratios.pe", "earnings per share not positive")
	}
	return scalar("ratios.pe", price/eps, models.UnitRatio)
}

// ratioSeries divides two series period by period on their common
// range, scaled (100 for percents, 1 for plain ratios).
func ratioSeries(name string, env models.Set, numName, denName string, scale float64) models.Envelope {
	num, ok := env.SeriesOf(numName)
	if !ok {
		return models.Unavailable(name, numName+" missing")
	}
	den, ok := env.SeriesOf(denName)
	if !ok {
		return models.Unavailable(name, denName+" missing")
	}

	byPeriod := make(map[string]float64, len(den))
	for _, p := range den {
		byPeriod[p.Period] = p.Value
	}

	var points []models.SeriesPoint
	for _, p := range num {
		d, found := byPeriod[p.Period]
		if !found || d == 0 {
			continue
		}
		points = append(points, models.SeriesPoint{Period: p.Period, Date: p.Date, Value: p.Value / d * scale})
	}
	if len(points) == 0 {
		return models.Unavailable(name, "no overlapping periods between "+numName+" and "+denName)
	}
	unit := models.UnitRatio
	if scale == 100 {
		unit = models.UnitPercent
	}
	return models.NewSeries(name, points, unit, models.SourceDerived)
}

// latestRatio divides the latest values of two envelopes.
func latestRatio(name string, env models.Set, numName, denName string, scale float64, unit models.Unit) models.Envelope {
	num, err := need(env, numName)
	if err != nil {
		return models.Unavailable(name, numName+" missing")
	}
	den, err := need(env, denName)
	if err != nil {
		return models.Unavailable(name, denName+" missing")
	}
	if den == 0 {
		return models.Unavailable(name, denName+" is zero")
	}
	return scalar(name, num/den*scale, unit)
}
