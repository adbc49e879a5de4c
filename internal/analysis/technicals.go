package analysis

import (
	"context"
	"fmt"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
)

// TechnicalsModule reads the daily close series: moving-average
// posture for the primary direction, RSI to veto entries at
// overbought extremes.
type TechnicalsModule struct {
	cfg common.AnalysisConfig
}

var (
	_ pipeline.Module = (*TechnicalsModule)(nil)
	_ pipeline.Voter  = (*TechnicalsModule)(nil)
)

func NewTechnicalsModule(cfg common.AnalysisConfig) *TechnicalsModule {
	return &TechnicalsModule{cfg: cfg}
}

func (m *TechnicalsModule) Name() string       { return "technicals" }
func (m *TechnicalsModule) SignalName() string { return "technicals.signal" }

func (m *TechnicalsModule) Requires() []string { return []string{"price.close"} }

func (m *TechnicalsModule) Produces() []string {
	return []string{"technicals.sma_short", "technicals.sma_long", "technicals.rsi"}
}

func (m *TechnicalsModule) Run(_ context.Context, in *pipeline.Inputs) (pipeline.Result, error) {
	env := in.Envelopes

	closes, err := needSeries(env, "price.close", m.cfg.SMALongDays)
	if err != nil {
		return pipeline.Result{}, err
	}
	values := make([]float64, len(closes))
	for i, p := range closes {
		values[i] = p.Value
	}

	shortMA, okShort := sma(values, m.cfg.SMAShortDays)
	longMA, okLong := sma(values, m.cfg.SMALongDays)
	strength, okRSI := rsi(values, m.cfg.RSIPeriodDays)
	if !okShort || !okLong {
		return pipeline.Result{}, &models.UnavailableError{
			Input: fmt.Sprintf("price.close (%d closes, need %d)", len(values), m.cfg.SMALongDays),
		}
	}

	out := []models.Envelope{
		scalar("technicals.sma_short", shortMA, models.UnitCurrencyPerShare),
		scalar("technicals.sma_long", longMA, models.UnitCurrencyPerShare),
	}
	if okRSI {
		out = append(out, scalar("technicals.rsi", strength, models.UnitCount))
	} else {
		out = append(out, models.Unavailable("technicals.rsi", "not enough closes for RSI"))
	}

	last := values[len(values)-1]
	vote := m.vote(last, shortMA, longMA, strength, okRSI)
	return pipeline.Result{Envelopes: out, Vote: &vote}, nil
}

func (m *TechnicalsModule) vote(price, shortMA, longMA, strength float64, okRSI bool) models.Vote {
	aboveBoth := price > shortMA && shortMA > longMA
	belowBoth := price < shortMA && shortMA < longMA

	switch {
	case aboveBoth && okRSI && strength >= m.cfg.RSIOverbought:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("uptrend intact but RSI %.0f is overbought", strength))
	case aboveBoth:
		return models.PositiveVote(m.SignalName(),
			fmt.Sprintf("price above rising averages (%.0f > %.0f > %.0f)", price, shortMA, longMA))
	case belowBoth && okRSI && strength <= m.cfg.RSIOversold:
		return models.NeutralVote(m.SignalName(),
			fmt.Sprintf("downtrend but RSI %.0f is washed out", strength))
	case belowBoth:
		return models.NegativeVote(m.SignalName(),
			fmt.Sprintf("price below falling averages (%.0f < %.0f < %.0f)", price, shortMA, longMA))
	default:
		return models.NeutralVote(m.SignalName(), "averages crossed, no established trend")
	}
}
