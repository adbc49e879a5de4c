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

// AltmanModule computes the Z''-Score variant, the one calibrated for
// non-manufacturers and emerging markets. Deposit-funded balance
// sheets break every one of its four ratios, so the module is gated
// to standard companies.
type AltmanModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*AltmanModule)(nil)
	_ pipeline.Voter  = (*AltmanModule)(nil)
	_ pipeline.Gated  = (*AltmanModule)(nil)
)

func NewAltmanModule(cfg common.AnalysisConfig) *AltmanModule {
	return &AltmanModule{cfg: cfg}
}

func (m *AltmanModule) Name() string       { return "altman" }
func (m *AltmanModule) SignalName() string { return "health.altman" }

func (m *AltmanModule) AppliesTo(p models.Profile) bool {
	return capability.SuitsManufacturingSolvency(p.Classification)
}

func (m *AltmanModule) Requires() []string {
	return []string{
		"balance.total_assets",
		"balance.current_assets",
		"balance.current_liabilities",
		"balance.equity",
		"pnl.operating_profit",
	}
}

func (m *AltmanModule) Produces() []string {
	return []string{"health.z_score"}
}

func (m *AltmanModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	ta, err := need(env, "balance.total_assets")
	if err != nil {
		return pipeline.Result{}, err
	}
	if ta <= 0 {
		return pipeline.Result{}, &models.UnavailableError{Input: "balance.total_assets (non-positive)"}
	}
	ca, err := need(env, "balance.current_assets")
	if err != nil {
		return pipeline.Result{}, err
	}
	cl, err := need(env, "balance.current_liabilities")
	if err != nil {
		return pipeline.Result{}, err
	}
	equity, err := need(env, "balance.equity")
	if err != nil {
		return pipeline.Result{}, err
	}
	ebit, err := need(env, "pnl.operating_profit")
	if err != nil {
		return pipeline.Result{}, err
	}

	liabilities := ta - equity
	if liabilities <= 0 {
		return pipeline.Result{}, &models.UnavailableError{Input: "total liabilities (non-positive)"}
	}

	// Retained earnings come from reserves when the balance sheet
	// breaks them out, otherwise equity net of share capital.
	retained, ok := env.LatestOf("balance.reserves")
	if !ok {
		if capital, capOK := env.LatestOf("balance.equity_capital"); capOK {
			retained = equity - capital
		} else {
			retained = 0
		}
	}

	x1 := (ca - cl) / ta
	x2 := retained / ta
	x3 := ebit / ta
	x4 := equity / liabilities
	z := 6.56*x1 + 3.26*x2 + 6.72*x3 + 1.05*x4

	vote := m.vote(z)
	return pipeline.Result{
		Envelopes: []models.Envelope{scalar("health.z_score", z, models.UnitCount)},
		Vote:      &vote,
	}, nil
}

func (m *AltmanModule) vote(z float64) models.Vote {
	switch {
	case z >= m.cfg.AltmanSafe:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("Z''-Score %.2f is comfortably in the safe zone", z))
	case z < m.cfg.AltmanDistress:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("Z''-Score %.2f signals financial distress", z))
	default:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("Z''-Score %.2f sits in the grey zone", z))
	}
}

// DuPontModule decomposes return on equity into margin, turnover and
// leverage, and votes on whether the return is earned or borrowed.
type DuPontModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*DuPontModule)(nil)
	_ pipeline.Voter  = (*DuPontModule)(nil)
)

func NewDuPontModule(cfg common.AnalysisConfig) *DuPontModule {
	return &DuPontModule{cfg: cfg}
}

func (m *DuPontModule) Name() string       { return "dupont" }
func (m *DuPontModule) SignalName() string { return "health.dupont" }

func (m *DuPontModule) Requires() []string {
	return []string{"ratios.net_margin", "ratios.asset_turnover", "ratios.equity_multiplier", "ratios.roe"}
}

func (m *DuPontModule) Produces() []string {
	return []string{"health.dupont_margin", "health.dupont_turnover", "health.dupont_leverage"}
}

func (m *DuPontModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	margin, err := need(env, "ratios.net_margin")
	if err != nil {
		return pipeline.Result{}, err
	}
	turnover, err := need(env, "ratios.asset_turnover")
	if err != nil {
		return pipeline.Result{}, err
	}
	multiplier, err := need(env, "ratios.equity_multiplier")
	if err != nil {
		return pipeline.Result{}, err
	}
	roe, err := need(env, "ratios.roe")
	if err != nil {
		return pipeline.Result{}, err
	}

	vote := m.vote(env, roe, margin, multiplier)
	return pipeline.Result{
		Envelopes: []models.Envelope{
			scalar("health.dupont_margin", margin, models.UnitPercent),
			scalar("health.dupont_turnover", turnover, models.UnitRatio),
			scalar("health.dupont_leverage", multiplier, models.UnitRatio),
		},
		Vote: &vote,
	}, nil
}

func (m *DuPontModule) vote(env models.Set, roe, margin, multiplier float64) models.Vote {
	if roe < 0 {
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("ROE %.1f%% is destroying shareholder value", roe))
	}
	if roe >= m.cfg.ROEHealthyPct {
		if multiplier > m.cfg.LeverageCap {
			return models.NeutralVote(m.SignalName(),
				fmt.Sprintf("ROE %.1f%% leans on %.1fx leverage rather than margins", roe, multiplier))
		}
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("ROE %.1f%% earned from %.1f%% margins at %.1fx leverage", roe, margin, multiplier))
	}

	if series, ok := env.SeriesOf("ratios.roe"); ok && len(series) >= 3 {
		values := make([]float64, len(series))
		for i, p := range series {
			values[i] = p.Value
		}
		if s, sok := slope(values); sok && s < 0 {
			return models.NegativeVote(m.SignalName(),
				fmt.Sprintf("ROE %.1f%% is below par and falling", roe))
		}
	}
	return models.NeutralVote(m.SignalName(),
		fmt.Sprintf("ROE %.1f%% is below the %.0f%% bar but holding", roe, m.cfg.ROEHealthyPct))
}

// WorkingCapitalModule tracks the cash conversion cycle year over
// year. Lenders have no inventory-to-cash cycle, so the module is
// gated to standard companies.
type WorkingCapitalModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*WorkingCapitalModule)(nil)
	_ pipeline.Voter  = (*WorkingCapitalModule)(nil)
	_ pipeline.Gated  = (*WorkingCapitalModule)(nil)
)

func NewWorkingCapitalModule(cfg common.AnalysisConfig) *WorkingCapitalModule {
	return &WorkingCapitalModule{cfg: cfg}
}

func (m *WorkingCapitalModule) Name() string       { return "working_capital" }
func (m *WorkingCapitalModule) SignalName() string { return "health.working_capital" }

func (m *WorkingCapitalModule) AppliesTo(p models.Profile) bool {
	return capability.SuitsWorkingCapital(p.Classification)
}

func (m *WorkingCapitalModule) Requires() []string {
	return []string{"pnl.revenue", "balance.receivables", "balance.inventory", "balance.payables"}
}

func (m *WorkingCapitalModule) Produces() []string {
	return []string{"health.ccc_days", "health.ccc_trend_days"}
}

func (m *WorkingCapitalModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	current, err := m.cycleAt(env, 0)
	if err != nil {
		return pipeline.Result{}, err
	}

	out := []models.Envelope{scalar("health.ccc_days", current, models.UnitDays)}

	previous, prevErr := m.cycleAt(env, 1)
	if prevErr != nil {
		out = append(out, models.Unavailable("health.ccc_trend_days", "only one fiscal year of working-capital data"))
		vote := models.NeutralVote(m.SignalName(),
			fmt.Sprintf("cash conversion cycle %.0f days, no prior year to compare", current))
		return pipeline.Result{Envelopes: out, Vote: &vote}, nil
	}

	trend := current - previous
	out = append(out, scalar("health.ccc_trend_days", trend, models.UnitDays))
	vote := m.vote(current, trend)
	return pipeline.Result{Envelopes: out, Vote: &vote}, nil
}

func (m *WorkingCapitalModule) vote(current, trend float64) models.Vote {
	switch {
	case trend >= m.cfg.WCCDeteriorationDays:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("cash conversion cycle stretched %.0f days to %.0f", trend, current))
	case trend <= -m.cfg.WCCDeteriorationDays:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("cash conversion cycle tightened %.0f days to %.0f", -trend, current))
	default:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("cash conversion cycle steady at %.0f days", current))
	}
}

// cycleAt computes DSO + DIO - DPO for the fiscal year offset periods
// back, with revenue as the common denominator since the scraped
// statements carry no cost-of-goods split.
func (m *WorkingCapitalModule) cycleAt(env models.Set, offset int) (float64, error) {
	revenue, err := seriesAt(env, "pnl.revenue", offset)
	if err != nil {
		return 0, err
	}
	if revenue <= 0 {
		return 0, &models.UnavailableError{Input: "pnl.revenue (non-positive)"}
	}
	receivables, err := seriesAt(env, "balance.receivables", offset)
	if err != nil {
		return 0, err
	}
	inventory, err := seriesAt(env, "balance.inventory", offset)
	if err != nil {
		return 0, err
	}
	payables, err := seriesAt(env, "balance.payables", offset)
	if err != nil {
		return 0, err
	}

	dso := receivables / revenue * 365
	dio := inventory / revenue * 365
	dpo := payables / revenue * 365
	return math.Round(dso + dio - dpo), nil
}
