package analysis

import (
	"context"
	"fmt"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// BeneishModule computes the eight-index Beneish M-Score from the two
// most recent fiscal years. Indices whose inputs are not in the
// scraped statements (gross margin and SG&A detail are often absent)
// fall back to their neutral value of 1.0; the four core indices are
// mandatory and their absence makes the whole score unavailable.
type BeneishModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*BeneishModule)(nil)
	_ pipeline.Voter  = (*BeneishModule)(nil)
)

func NewBeneishModule(cfg common.AnalysisConfig) *BeneishModule {
	return &BeneishModule{cfg: cfg}
}

func (m *BeneishModule) Name() string       { return "beneish" }
func (m *BeneishModule) SignalName() string { return "forensics.beneish" }

func (m *BeneishModule) Requires() []string {
	return []string{"pnl.revenue", "pnl.net_profit", "balance.total_assets", "cashflow.operating"}
}

func (m *BeneishModule) Produces() []string {
	return []string{"forensics.m_score"}
}

// beneishYear holds one fiscal year of the inputs the indices draw on.
type beneishYear struct {
	revenue     float64
	netProfit   float64
	totalAssets float64
	cfo         float64

	receivables float64
	hasRecv     bool
	currAssets  float64
	hasCA       bool
	currLiab    float64
	hasCL       bool
	totalDebt   float64
	hasDebt     bool
	netBlock    float64
	hasBlock    bool
	deprec      float64
	hasDep      bool
	cogs        float64
	hasCOGS     bool
	sga         float64
	hasSGA      bool
}

func (m *BeneishModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	cur, err := m.year(in.Envelopes, 0)
	if err != nil {
		return pipeline.Result{}, err
	}
	prev, err := m.year(in.Envelopes, 1)
	if err != nil {
		return pipeline.Result{}, err
	}

	score, detail, ok := mScore(cur, prev)
	if !ok {
		return pipeline.Result{}, &models.UnavailableError{Input: detail}
	}

	vote := m.vote(score)
	return pipeline.Result{
		Envelopes: []models.Envelope{scalar("forensics.m_score", score, models.UnitCount)},
		Vote:      &vote,
	}, nil
}

func (m *BeneishModule) vote(score float64) models.Vote {
	switch {
	case score > m.cfg.MScoreManipulation:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("M-Score %.2f is in the likely-manipulator zone (above %.2f)", score, m.cfg.MScoreManipulation))
	case score < m.cfg.MScoreSafe:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("M-Score %.2f shows no earnings-manipulation signature", score))
	default:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("M-Score %.2f sits in the grey zone between %.2f and %.2f", score, m.cfg.MScoreSafe, m.cfg.MScoreManipulation))
	}
}

// year extracts the inputs for the fiscal year offset periods before
// the latest one. The four mandatory lines error out when short;
// optional lines record presence flags.
func (m *BeneishModule) year(env models.Set, offset int) (beneishYear, error) {
	var y beneishYear
	var err error

	if y.revenue, err = seriesAt(env, "pnl.revenue", offset); err != nil {
		return y, err
	}
	if y.netProfit, err = seriesAt(env, "pnl.net_profit", offset); err != nil {
		return y, err
	}
	if y.totalAssets, err = seriesAt(env, "balance.total_assets", offset); err != nil {
		return y, err
	}
	if y.cfo, err = seriesAt(env, "cashflow.operating", offset); err != nil {
		return y, err
	}

	y.receivables, y.hasRecv = seriesAtOK(env, "balance.receivables", offset)
	y.currAssets, y.hasCA = seriesAtOK(env, "balance.current_assets", offset)
	y.currLiab, y.hasCL = seriesAtOK(env, "balance.current_liabilities", offset)
	y.totalDebt, y.hasDebt = seriesAtOK(env, "balance.total_debt", offset)
	y.netBlock, y.hasBlock = seriesAtOK(env, "balance.net_block", offset)
	y.deprec, y.hasDep = seriesAtOK(env, "pnl.depreciation", offset)
	y.cogs, y.hasCOGS = seriesAtOK(env, "pnl.cogs", offset)
	y.sga, y.hasSGA = seriesAtOK(env, "pnl.sga", offset)
	return y, nil
}

// mScore assembles the Beneish formula. DSRI, SGI, TATA and LVGI are
// mandatory; GMI, AQI, DEPI and SGAI default to 1.0 when their inputs
// are missing from the statements.
func mScore(cur, prev beneishYear) (float64, string, bool) {
	if prev.revenue == 0 || cur.revenue == 0 {
		return 0, "revenue is zero in a compared year", false
	}
	if !cur.hasRecv || !prev.hasRecv {
		return 0, "balance.receivables (two fiscal years)", false
	}
	if !cur.hasCL || !prev.hasCL || !cur.hasDebt || !prev.hasDebt {
		return 0, "balance.total_debt and balance.current_liabilities (two fiscal years)", false
	}

	dsri := safeIndex(cur.receivables/cur.revenue, prev.receivables/prev.revenue)
	sgi := cur.revenue / prev.revenue
	tata := (cur.netProfit - cur.cfo) / cur.totalAssets
	lvgi := safeIndex((cur.totalDebt+cur.currLiab)/cur.totalAssets, (prev.totalDebt+prev.currLiab)/prev.totalAssets)

	gmi := 1.0
	if cur.hasCOGS && prev.hasCOGS {
		gmi = safeIndex((prev.revenue-prev.cogs)/prev.revenue, (cur.revenue-cur.cogs)/cur.revenue)
	}

	aqi := 1.0
	if cur.hasCA && prev.hasCA && cur.hasBlock && prev.hasBlock {
		aqi = safeIndex(1-(cur.currAssets+cur.netBlock)/cur.totalAssets, 1-(prev.currAssets+prev.netBlock)/prev.totalAssets)
	}

	depi := 1.0
	if cur.hasDep && prev.hasDep && cur.hasBlock && prev.hasBlock {
		depi = safeIndex(prev.deprec/(prev.deprec+prev.netBlock), cur.deprec/(cur.deprec+cur.netBlock))
	}

	sgai := 1.0
	if cur.hasSGA && prev.hasSGA {
		sgai = safeIndex(cur.sga/cur.revenue, prev.sga/prev.revenue)
	}

	score := -4.84 +
		0.92*dsri +
		0.528*gmi +
		0.404*aqi +
		0.892*sgi +
		0.115*depi -
		0.172*sgai +
		4.679*tata -
		0.327*lvgi
	return score, "", true
}

// safeIndex guards the ratio-of-ratios indices against zero and sign
// flips in the base year, pinning them to neutral instead.
func safeIndex(num, den float64) float64 {
	if den == 0 || (num > 0) != (den > 0) {
		return 1.0
	}
	return num / den
}

// seriesAt reads the value offset periods before the latest point.
func seriesAt(env models.Set, name string, offset int) (float64, error) {
	series, ok := env.SeriesOf(name)
	if !ok {
		return 0, &models.UnavailableError{Input: name}
	}
	v, ok := prior(series, offset)
	if !ok {
		return 0, &models.UnavailableError{Input: fmt.Sprintf("%s (%d fiscal years)", name, offset+1)}
	}
	return v, nil
}

func seriesAtOK(env models.Set, name string, offset int) (float64, bool) {
	series, ok := env.SeriesOf(name)
	if !ok {
		return 0, false
	}
	return prior(series, offset)
}
