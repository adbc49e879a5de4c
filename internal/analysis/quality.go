package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// PiotroskiModule scores the nine Piotroski F-Score tests across the
// two latest fiscal years. Tests whose inputs are missing score zero,
// which biases the result conservative rather than optimistic; the
// margin test runs on operating margin because the scraped statements
// carry no cost-of-goods line for most companies.
type PiotroskiModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*PiotroskiModule)(nil)
	_ pipeline.Voter  = (*PiotroskiModule)(nil)
)

func NewPiotroskiModule(cfg common.AnalysisConfig) *PiotroskiModule {
	return &PiotroskiModule{cfg: cfg}
}

func (m *PiotroskiModule) Name() string       { return "piotroski" }
func (m *PiotroskiModule) SignalName() string { return "quality.piotroski" }

func (m *PiotroskiModule) Requires() []string {
	return []string{"pnl.net_profit", "balance.total_assets", "cashflow.operating"}
}

func (m *PiotroskiModule) Produces() []string {
	return []string{"quality.f_score"}
}

func (m *PiotroskiModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	niCur, err := seriesAt(env, "pnl.net_profit", 0)
	if err != nil {
		return pipeline.Result{}, err
	}
	niPrev, err := seriesAt(env, "pnl.net_profit", 1)
	if err != nil {
		return pipeline.Result{}, err
	}
	taCur, err := seriesAt(env, "balance.total_assets", 0)
	if err != nil {
		return pipeline.Result{}, err
	}
	taPrev, err := seriesAt(env, "balance.total_assets", 1)
	if err != nil {
		return pipeline.Result{}, err
	}
	cfoCur, err := seriesAt(env, "cashflow.operating", 0)
	if err != nil {
		return pipeline.Result{}, err
	}
	if taCur == 0 || taPrev == 0 {
		return pipeline.Result{}, &models.UnavailableError{Input: "balance.total_assets (zero in a compared year)"}
	}

	points := 0
	var passed, skipped []string

	award := func(name string, pass bool) {
		if pass {
			points++
			passed = append(passed, name)
		}
	}
	tryAward := func(name string, pass, ok bool) {
		if !ok {
			skipped = append(skipped, name)
			return
		}
		award(name, pass)
	}

	// Profitability.
	award("positive ROA", niCur/taCur > 0)
	award("positive CFO", cfoCur > 0)
	award("improving ROA", niCur/taCur > niPrev/taPrev)
	award("CFO exceeds net profit", cfoCur > niCur)

	// Leverage and liquidity.
	debtCur, okDC := seriesAtOK(env, "balance.total_debt", 0)
	debtPrev, okDP := seriesAtOK(env, "balance.total_debt", 1)
	tryAward("falling leverage", debtCur/taCur <= debtPrev/taPrev, okDC && okDP)

	caCur, okCAC := seriesAtOK(env, "balance.current_assets", 0)
	caPrev, okCAP := seriesAtOK(env, "balance.current_assets", 1)
	clCur, okCLC := seriesAtOK(env, "balance.current_liabilities", 0)
	clPrev, okCLP := seriesAtOK(env, "balance.current_liabilities", 1)
	liquidityOK := okCAC && okCAP && okCLC && okCLP && clCur != 0 && clPrev != 0
	tryAward("improving current ratio", liquidityOK && caCur/clCur > caPrev/clPrev, liquidityOK)

	capCur, okCC := seriesAtOK(env, "balance.equity_capital", 0)
	capPrev, okCP := seriesAtOK(env, "balance.equity_capital", 1)
	tryAward("no dilution", capCur <= capPrev, okCC && okCP)

	// Efficiency.
	revCur, okRC := seriesAtOK(env, "pnl.revenue", 0)
	revPrev, okRP := seriesAtOK(env, "pnl.revenue", 1)
	opCur, okOC := seriesAtOK(env, "pnl.operating_profit", 0)
	opPrev, okOP := seriesAtOK(env, "pnl.operating_profit", 1)
	marginOK := okRC && okRP && okOC && okOP && revCur != 0 && revPrev != 0
	tryAward("improving operating margin", marginOK && opCur/revCur > opPrev/revPrev, marginOK)
	turnoverOK := okRC && okRP
	tryAward("improving asset turnover", turnoverOK && revCur/taCur > revPrev/taPrev, turnoverOK)

	vote := m.vote(points, passed, skipped)
	return pipeline.Result{
		Envelopes: []models.Envelope{scalar("quality.f_score", float64(points), models.UnitCount)},
		Vote:      &vote,
	}, nil
}

func (m *PiotroskiModule) vote(points int, passed, skipped []string) models.Vote {
	detail := fmt.Sprintf("F-Score %d/9", points)
	if len(skipped) > 0 {
		detail += fmt.Sprintf(" (%s not evaluable)", strings.Join(skipped, ", "))
	}
	switch {
	case points >= m.cfg.FScoreStrong:
		return models.PositiveVote(m.SignalName(), detail+": fundamentals strengthening across the board")
	case points >= m.cfg.FScoreModerate:
		return models.NeutralVote(m.SignalName(), detail+": mixed fundamental momentum")
	default:
		return models.NegativeVote(m.SignalName(), detail+": fundamentals deteriorating")
	}
}

// CFOEBITDAModule checks whether reported operating profit turns into
// operating cash. Persistent shortfall is the classic sign of paper
// earnings.
type CFOEBITDAModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*CFOEBITDAModule)(nil)
	_ pipeline.Voter  = (*CFOEBITDAModule)(nil)
)

func NewCFOEBITDAModule(cfg common.AnalysisConfig) *CFOEBITDAModule {
	return &CFOEBITDAModule{cfg: cfg}
}

func (m *CFOEBITDAModule) Name() string       { return "cfo_ebitda" }
func (m *CFOEBITDAModule) SignalName() string { return "quality.cfo_ebitda" }

func (m *CFOEBITDAModule) Requires() []string {
	return []string{"cashflow.operating", "pnl.operating_profit"}
}

func (m *CFOEBITDAModule) Produces() []string {
	return []string{"quality.cfo_ebitda"}
}

func (m *CFOEBITDAModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	cfoSeries, err := needSeries(env, "cashflow.operating", 1)
	if err != nil {
		return pipeline.Result{}, err
	}
	ebitdaSeries, err := needSeries(env, "pnl.operating_profit", 1)
	if err != nil {
		return pipeline.Result{}, err
	}

	// Averaging the overlapping years smooths one-off working-capital
	// swings that make a single year's conversion meaningless.
	window := 3
	cfoSum, years := sumTail(cfoSeries, window)
	ebitdaSum, _ := sumTail(ebitdaSeries, window)
	if ebitdaSum <= 0 {
		return pipeline.Result{}, &models.UnavailableError{Input: "pnl.operating_profit (non-positive over window)"}
	}

	ratio := cfoSum / ebitdaSum
	vote := m.vote(ratio, years)
	return pipeline.Result{
		Envelopes: []models.Envelope{scalar("quality.cfo_ebitda", ratio, models.UnitRatio)},
		Vote:      &vote,
	}, nil
}

func (m *CFOEBITDAModule) vote(ratio float64, years int) models.Vote {
	switch {
	case ratio >= m.cfg.CFOEBITDAHealthy:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("%.0f%% of operating profit converts to cash over %d years", ratio*100, years))
	case ratio < m.cfg.CFOEBITDAWeak:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("only %.0f%% of operating profit converts to cash over %d years", ratio*100, years))
	default:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("cash conversion at %.0f%% of operating profit is adequate", ratio*100))
	}
}

func sumTail(series []models.SeriesPoint, n int) (float64, int) {
	part := tail(series, n)
	sum := 0.0
	for _, p := range part {
		sum += p.Value
	}
	return sum, len(part)
}
