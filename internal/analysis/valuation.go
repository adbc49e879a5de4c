package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/rushabhkhandhar/one-stock-solution/internal/capability"
	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// DCFModule values the company with a two-stage free-cash-flow model:
// explicit projection at a capped growth rate, Gordon terminal value,
// CAPM discount rate from the market parameter feed. Free cash flow
// for lenders is not meaningful, so the module only applies to
// standard companies.
type DCFModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*DCFModule)(nil)
	_ pipeline.Voter  = (*DCFModule)(nil)
	_ pipeline.Gated  = (*DCFModule)(nil)
)

func NewDCFModule(cfg common.AnalysisConfig) *DCFModule {
	return &DCFModule{cfg: cfg}
}

func (m *DCFModule) Name() string       { return "dcf" }
func (m *DCFModule) SignalName() string { return "valuation.dcf" }

func (m *DCFModule) AppliesTo(p models.Profile) bool {
	return capability.SuitsEnterpriseValuation(p.Classification)
}

func (m *DCFModule) Requires() []string {
	// The growth scalars are consumed opportunistically (zero growth
	// is assumed without them) but still listed so the valuation
	// phase is ordered after the growth phase.
	return []string{
		"cashflow.operating",
		"params.risk_free_rate",
		"params.equity_risk_premium",
		"params.terminal_growth",
		"price.current",
		"price.shares_outstanding",
		"growth.profit_cagr",
		"growth.revenue_cagr",
	}
}

func (m *DCFModule) Produces() []string {
	return []string{"valuation.intrinsic_value", "valuation.dcf_upside_pct"}
}

func (m *DCFModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	fcf, err := m.baseFreeCashFlow(env)
	if err != nil {
		return pipeline.Result{}, err
	}
	if fcf <= 0 {
		return pipeline.Result{}, &models.UnavailableError{Input: "free cash flow (non-positive base)"}
	}

	discount, err := m.discountRate(env)
	if err != nil {
		return pipeline.Result{}, err
	}
	terminal, err := need(env, "params.terminal_growth")
	if err != nil {
		return pipeline.Result{}, err
	}
	growth := m.growthRate(env, discount)

	gap := m.cfg.DCFMinGrowthGapPct / 100
	if discount-terminal < gap {
		return pipeline.Result{}, &models.UnavailableError{
			Input: fmt.Sprintf("discount rate %.1f%% too close to terminal growth %.1f%%", discount*100, terminal*100),
		}
	}

	// Explicit stage plus Gordon terminal, both discounted to today.
	var presentValue float64
	projected := fcf
	for year := 1; year <= m.cfg.DCFProjectionYears; year++ {
		projected *= 1 + growth
		presentValue += projected / math.Pow(1+discount, float64(year))
	}
	terminalValue := projected * (1 + terminal) / (discount - terminal)
	presentValue += terminalValue / math.Pow(1+discount, float64(m.cfg.DCFProjectionYears))

	debt, _ := env.LatestOf("balance.total_debt")
	cash, _ := env.LatestOf("balance.cash")
	equityValue := presentValue - debt + cash

	shares, err := need(env, "price.shares_outstanding")
	if err != nil {
		return pipeline.Result{}, err
	}
	if shares <= 0 {
		return pipeline.Result{}, &models.UnavailableError{Input: "price.shares_outstanding (non-positive)"}
	}
	intrinsic := equityValue / shares

	price, err := need(env, "price.current")
	if err != nil {
		return pipeline.Result{}, err
	}
	if price <= 0 {
		return pipeline.Result{}, &models.UnavailableError{Input: "price.current (non-positive)"}
	}
	upside := (intrinsic - price) / price * 100

	vote := m.vote(upside, intrinsic, price)
	return pipeline.Result{
		Envelopes: []models.Envelope{
			scalar("valuation.intrinsic_value", intrinsic, models.UnitCurrencyPerShare),
			scalar("valuation.dcf_upside_pct", upside, models.UnitPercent),
		},
		Vote: &vote,
	}, nil
}

func (m *DCFModule) vote(upside, intrinsic, price float64) models.Vote {
	switch {
	case upside >= m.cfg.DCFUpsidePct:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("intrinsic value %.0f vs price %.0f, %.0f%% upside", intrinsic, price, upside))
	case upside <= -m.cfg.DCFUpsidePct:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("price %.0f runs %.0f%% above intrinsic value %.0f", price, -upside, intrinsic))
	default:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("price within %.0f%% of intrinsic value %.0f", math.Abs(upside), intrinsic))
	}
}

// baseFreeCashFlow averages CFO minus capex over the last three
// fiscal years. Capex falls back to depreciation as a maintenance
// proxy when the cash-flow detail is missing, and the result is
// capped relative to net profit so one inflated CFO year cannot carry
// the valuation.
func (m *DCFModule) baseFreeCashFlow(env models.Set) (float64, error) {
	cfoSeries, err := needSeries(env, "cashflow.operating", 1)
	if err != nil {
		return 0, err
	}

	capexSeries, hasCapex := env.SeriesOf("cashflow.capex")
	depSeries, hasDep := env.SeriesOf("pnl.depreciation")
	if !hasCapex && !hasDep {
		return 0, &models.UnavailableError{Input: "cashflow.capex or pnl.depreciation"}
	}

	window := tail(cfoSeries, 3)
	sum := 0.0
	for _, p := range window {
		capex := 0.0
		if hasCapex {
			if v, ok := valueAtPeriod(capexSeries, p.Period); ok {
				capex = math.Abs(v)
			}
		} else if v, ok := valueAtPeriod(depSeries, p.Period); ok {
			capex = v
		}
		sum += p.Value - capex
	}
	fcf := sum / float64(len(window))

	if profit, ok := env.LatestOf("pnl.net_profit"); ok && profit > 0 {
		cap := profit * m.cfg.DCFFCFConversionCap
		if fcf > cap {
			fcf = cap
		}
	}
	return fcf, nil
}

// discountRate is CAPM cost of equity. A missing beta makes the
// valuation unavailable unless a default beta is configured.
func (m *DCFModule) discountRate(env models.Set) (float64, error) {
	riskFree, err := need(env, "params.risk_free_rate")
	if err != nil {
		return 0, err
	}
	premium, err := need(env, "params.equity_risk_premium")
	if err != nil {
		return 0, err
	}
	beta, ok := env.ScalarOf("price.beta")
	if !ok || beta <= 0 {
		if m.cfg.DCFDefaultBeta <= 0 {
			return 0, &models.UnavailableError{Input: "price.beta"}
		}
		beta = m.cfg.DCFDefaultBeta
	}
	return riskFree + beta*premium, nil
}

// growthRate takes historical profit CAGR (revenue CAGR as fallback),
// capped by config and kept below the discount rate.
func (m *DCFModule) growthRate(env models.Set, discount float64) float64 {
	rate := 0.0
	if v, ok := env.ScalarOf("growth.profit_cagr"); ok {
		rate = v / 100
	} else if v, ok := env.ScalarOf("growth.revenue_cagr"); ok {
		rate = v / 100
	}
	if rate < 0 {
		rate = 0
	}
	if cap := m.cfg.DCFGrowthCapPct / 100; rate > cap {
		rate = cap
	}
	if ceiling := discount - m.cfg.DCFMinGrowthGapPct/100; rate > ceiling {
		rate = ceiling
	}
	return rate
}

func valueAtPeriod(series []models.SeriesPoint, period string) (float64, bool) {
	for _, p := range series {
		if p.Period == period {
			return p.Value, true
		}
	}
	return 0, false
}

// PeerModule compares the trailing P/E against the peer-group median
// from the scraped comparison table.
type PeerModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*PeerModule)(nil)
	_ pipeline.Voter  = (*PeerModule)(nil)
)

func NewPeerModule(cfg common.AnalysisConfig) *PeerModule {
	return &PeerModule{cfg: cfg}
}

func (m *PeerModule) Name() string       { return "peer_multiples" }
func (m *PeerModule) SignalName() string { return "valuation.peer" }

func (m *PeerModule) Requires() []string {
	return []string{"ratios.pe", "peers.median_pe"}
}

func (m *PeerModule) Produces() []string {
	return []string{"valuation.peer_premium_pct"}
}

func (m *PeerModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	pe, err := need(env, "ratios.pe")
	if err != nil {
		return pipeline.Result{}, err
	}
	median, err := need(env, "peers.median_pe")
	if err != nil {
		return pipeline.Result{}, err
	}
	if median <= 0 {
		return pipeline.Result{}, &models.UnavailableError{Input: "peers.median_pe (non-positive)"}
	}

	premium := (pe - median) / median * 100
	vote := m.vote(pe, median, premium)
	return pipeline.Result{
		Envelopes: []models.Envelope{scalar("valuation.peer_premium_pct", premium, models.UnitPercent)},
		Vote:      &vote,
	}, nil
}

func (m *PeerModule) vote(pe, median, premium float64) models.Vote {
	switch {
	case premium <= -m.cfg.PeerDiscountPct:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("P/E %.1f trades %.0f%% below the peer median %.1f", pe, -premium, median))
	case premium >= m.cfg.PeerDiscountPct:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("P/E %.1f trades %.0f%% above the peer median %.1f", pe, premium, median))
	default:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("P/E %.1f in line with peer median %.1f", pe, median))
	}
}
