package analysis

import (
	"context"
	"fmt"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// ShareholdingModule watches what the insiders do: promoter stake
// trajectory over the quarterly disclosures and the share of that
// stake pledged as loan collateral.
type ShareholdingModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*ShareholdingModule)(nil)
	_ pipeline.Voter  = (*ShareholdingModule)(nil)
)

func NewShareholdingModule(cfg common.AnalysisConfig) *ShareholdingModule {
	return &ShareholdingModule{cfg: cfg}
}

func (m *ShareholdingModule) Name() string       { return "shareholding" }
func (m *ShareholdingModule) SignalName() string { return "shareholding.promoter" }

func (m *ShareholdingModule) Requires() []string { return []string{"shareholding.promoters"} }

func (m *ShareholdingModule) Produces() []string {
	return []string{"shareholding.promoter_trend_pp"}
}

func (m *ShareholdingModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	holdings, err := needSeries(env, "shareholding.promoters", 2)
	if err != nil {
		return pipeline.Result{}, err
	}

	// Trend over up to four quarters of disclosures.
	window := tail(holdings, 5)
	latest := window[len(window)-1].Value
	trend := latest - window[0].Value

	pledged, hasPledge := env.ScalarOf("shareholding.pledged")

	vote := m.vote(latest, trend, pledged, hasPledge)
	return pipeline.Result{
		Envelopes: []models.Envelope{scalar("shareholding.promoter_trend_pp", trend, models.UnitPercent)},
		Vote:      &vote,
	}, nil
}

func (m *ShareholdingModule) vote(latest, trend, pledged float64, hasPledge bool) models.Vote {
	if hasPledge && pledged > m.cfg.PledgeCautionPct {
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("%.1f%% of the promoter stake is pledged", pledged))
	}
	if trend <= -m.cfg.PromoterDropPp {
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("promoters cut their stake %.1fpp to %.1f%%", -trend, latest))
	}
	if latest >= m.cfg.PromoterHealthyPct && trend >= 0 {
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("promoters hold %.1f%% and are not selling", latest))
	}
	return models.NeutralVote(m.SignalName(),
		fmt.Sprintf("promoter stake %.1f%%, %.1fpp change over recent quarters", latest, trend))
}

// DividendsModule asks whether the payout survives on cash rather
// than on hope: payout ratio against earnings and coverage of the
// cash outflow by operating cash flow.
type DividendsModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*DividendsModule)(nil)
	_ pipeline.Voter  = (*DividendsModule)(nil)
)

func NewDividendsModule(cfg common.AnalysisConfig) *DividendsModule {
	return &DividendsModule{cfg: cfg}
}

func (m *DividendsModule) Name() string       { return "dividends" }
func (m *DividendsModule) SignalName() string { return "dividends.sustainability" }

func (m *DividendsModule) Requires() []string {
	return []string{"pnl.dividend_per_share", "pnl.eps"}
}

func (m *DividendsModule) Produces() []string {
	return []string{"dividends.payout_pct", "dividends.cfo_coverage"}
}

func (m *DividendsModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	dps, err := need(env, "pnl.dividend_per_share")
	if err != nil {
		return pipeline.Result{}, err
	}
	eps, err := need(env, "pnl.eps")
	if err != nil {
		return pipeline.Result{}, err
	}

	if dps <= 0 {
		vote := models.NeutralVote(m.SignalName(), "no dividend paid, nothing to sustain")
		return pipeline.Result{
			Envelopes: []models.Envelope{
				scalar("dividends.payout_pct", 0, models.UnitPercent),
				models.Unavailable("dividends.cfo_coverage", "no dividend paid"),
			},
			Vote: &vote,
		}, nil
	}
	if eps <= 0 {
		vote := models.NegativeVote(m.SignalName(), "dividend paid out of losses")
		return pipeline.Result{
			Envelopes: []models.Envelope{
				models.Unavailable("dividends.payout_pct", "earnings per share not positive"),
				models.Unavailable("dividends.cfo_coverage", "earnings per share not positive"),
			},
			Vote: &vote,
		}, nil
	}

	payout := dps / eps * 100
	out := []models.Envelope{scalar("dividends.payout_pct", payout, models.UnitPercent)}

	coverage, hasCoverage := m.cfoCoverage(env, dps)
	if hasCoverage {
		out = append(out, scalar("dividends.cfo_coverage", coverage, models.UnitRatio))
	} else {
		out = append(out, models.Unavailable("dividends.cfo_coverage", "operating cash flow or share count missing"))
	}

	vote := m.vote(payout, coverage, hasCoverage)
	return pipeline.Result{Envelopes: out, Vote: &vote}, nil
}

// cfoCoverage is operating cash flow over the total cash paid out,
// approximated as dividend per share times the share count.
func (m *DividendsModule) cfoCoverage(env models.Set, dps float64) (float64, bool) {
	cfo, ok := env.LatestOf("cashflow.operating")
	if !ok {
		return 0, false
	}
	shares, ok := env.ScalarOf("price.shares_outstanding")
	if !ok || shares <= 0 {
		return 0, false
	}
	paid := dps * shares
	if paid <= 0 {
		return 0, false
	}
	return cfo / paid, true
}

func (m *DividendsModule) vote(payout, coverage float64, hasCoverage bool) models.Vote {
	switch {
	case payout > 100:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("payout ratio %.0f%% exceeds earnings", payout))
	case hasCoverage && coverage < 1:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("operating cash covers only %.1fx of the dividend", coverage))
	case payout > m.cfg.PayoutMaxPct:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("payout ratio %.0f%% leaves little retained", payout))
	default:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("payout ratio %.0f%% is comfortably funded", payout))
	}
}
