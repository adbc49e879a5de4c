// -----------------------------------------------------------------------
// Market feeds - Economy-wide valuation parameters
// -----------------------------------------------------------------------

// Package feeds collects the market-level inputs the valuation models
// need: the risk-free yield, benchmark index history, and the credit
// spread. Parameters degrade individually; a feed that cannot be
// reached yields an unavailable envelope, never a failed run.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/httpclient"
	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
	"github.com/rushabhkhandhar/one-stock-solution/internal/services/ingestion"
)

// Service implements the market feed collector.
type Service struct {
	cfg     common.FeedsConfig
	fetcher *httpclient.Fetcher
	logger  arbor.ILogger
}

var _ interfaces.MarketFeedService = (*Service)(nil)

// NewService creates the feed service.
func NewService(cfg common.FeedsConfig, store interfaces.SnapshotStore, offline bool, logger arbor.ILogger) *Service {
	f := httpclient.NewFetcher(httpclient.Options{
		Timeout:       cfg.RequestTimeout,
		RatePerSecond: 2,
		Burst:         2,
		CacheTTL:      cfg.CacheTTL,
		MaxRetries:    1,
		Offline:       offline,
	}, store, logger)
	return &Service{cfg: cfg, fetcher: f, logger: logger}
}

// yieldPayload is the shape of the risk-free endpoint.
type yieldPayload struct {
	YieldPct float64 `json:"yield_pct"`
	AsOf     string  `json:"as_of"`
}

// spreadPayload is the shape of the credit-spread endpoint.
type spreadPayload struct {
	SpreadBps float64 `json:"spread_bps"`
	AsOf      string  `json:"as_of"`
}

// Parameters collects every market parameter, one envelope per name.
func (s *Service) Parameters(ctx context.Context) []models.Envelope {
	var out []models.Envelope

	riskFree, rfErr := s.riskFree(ctx)
	if rfErr != nil {
		s.logger.Warn().Err(rfErr).Msg("Risk-free feed unavailable")
		out = append(out,
			models.Unavailable("params.risk_free_rate", rfErr.Error()),
			models.Unavailable("params.terminal_growth", "risk-free rate unavailable"))
	} else {
		out = append(out,
			models.NewScalar("params.risk_free_rate", riskFree, models.UnitRatio, models.SourceMarket),
			// Long-run nominal growth proxied off the long bond.
			models.NewScalar("params.terminal_growth", riskFree-s.cfg.TerminalGapPp/100, models.UnitRatio, models.SourceMarket))
	}

	index, idxErr := s.indexHistory(ctx)
	if idxErr != nil {
		s.logger.Warn().Err(idxErr).Msg("Index feed unavailable")
		out = append(out,
			models.Unavailable("params.index_close", idxErr.Error()),
			models.Unavailable("params.equity_risk_premium", "index history unavailable"))
	} else {
		out = append(out, models.NewSeries("params.index_close", index, models.UnitCount, models.SourceMarket))
		if rfErr != nil {
			out = append(out, models.Unavailable("params.equity_risk_premium", "risk-free rate unavailable"))
		} else if premium, ok := s.equityRiskPremium(index, riskFree); ok {
			out = append(out, models.NewScalar("params.equity_risk_premium", premium, models.UnitRatio, models.SourceDerived))
		} else {
			out = append(out, models.Unavailable("params.equity_risk_premium", "index history too short to annualize"))
		}
	}

	if spread, err := s.creditSpread(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Credit spread feed unavailable")
		out = append(out, models.Unavailable("params.credit_spread", err.Error()))
	} else {
		out = append(out, models.NewScalar("params.credit_spread", spread, models.UnitRatio, models.SourceMarket))
	}

	return out
}

func (s *Service) riskFree(ctx context.Context) (float64, error) {
	if s.cfg.RiskFreeURL == "" {
		return 0, fmt.Errorf("no risk-free endpoint configured")
	}
	res, err := s.fetcher.Fetch(ctx, "feeds/risk_free", s.cfg.RiskFreeURL, "", "")
	if err != nil {
		return 0, err
	}
	var payload yieldPayload
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return 0, fmt.Errorf("risk-free payload: %w", err)
	}
	if payload.YieldPct <= 0 || payload.YieldPct > 25 {
		return 0, fmt.Errorf("risk-free yield %.2f%% outside plausible range", payload.YieldPct)
	}
	return payload.YieldPct / 100, nil
}

func (s *Service) indexHistory(ctx context.Context) ([]models.SeriesPoint, error) {
	if s.cfg.IndexURL == "" {
		return nil, fmt.Errorf("no index endpoint configured")
	}
	res, err := s.fetcher.Fetch(ctx, "feeds/index", s.cfg.IndexURL, "", "")
	if err != nil {
		return nil, err
	}
	closes, _, err := ingestion.ParseDailyCSV(res.Body)
	if err != nil {
		return nil, fmt.Errorf("index payload: %w", err)
	}
	return closes, nil
}

func (s *Service) creditSpread(ctx context.Context) (float64, error) {
	if s.cfg.CreditSpreadURL == "" {
		return 0, fmt.Errorf("no credit spread endpoint configured")
	}
	res, err := s.fetcher.Fetch(ctx, "feeds/credit_spread", s.cfg.CreditSpreadURL, "", "")
	if err != nil {
		return 0, err
	}
	var payload spreadPayload
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return 0, fmt.Errorf("credit spread payload: %w", err)
	}
	if payload.SpreadBps < 0 {
		return 0, fmt.Errorf("credit spread %.0fbps is negative", payload.SpreadBps)
	}
	return payload.SpreadBps / 10000, nil
}

// equityRiskPremium annualizes the index return over the provided
// window and subtracts the risk-free rate, clamped to the configured
// sanity band so one unusual window cannot swing every valuation.
func (s *Service) equityRiskPremium(index []models.SeriesPoint, riskFree float64) (float64, bool) {
	if len(index) < 2 {
		return 0, false
	}
	first, last := index[0], index[len(index)-1]
	days := last.Date.Sub(first.Date).Hours() / 24
	if days < 365 || first.Value <= 0 || last.Value <= 0 {
		return 0, false
	}
	annualized := math.Pow(last.Value/first.Value, 365/days) - 1

	premium := annualized - riskFree
	floor, ceiling := s.cfg.ERPFloorPct/100, s.cfg.ERPCeilingPct/100
	if premium < floor {
		premium = floor
	}
	if premium > ceiling {
		premium = ceiling
	}
	return premium, true
}

// Beta regresses daily stock returns against index returns on their
// common dates. Too little overlap means no beta, which downstream
// treats as "do not value".
func Beta(stock, index []models.SeriesPoint) (float64, bool) {
	indexByPeriod := make(map[string]float64, len(index))
	for _, p := range index {
		indexByPeriod[p.Period] = p.Value
	}

	var stockReturns, indexReturns []float64
	var prevStock, prevIndex float64
	havePrev := false
	for _, p := range stock {
		idx, ok := indexByPeriod[p.Period]
		if !ok {
			continue
		}
		if havePrev && prevStock > 0 && prevIndex > 0 {
			stockReturns = append(stockReturns, p.Value/prevStock-1)
			indexReturns = append(indexReturns, idx/prevIndex-1)
		}
		prevStock, prevIndex = p.Value, idx
		havePrev = true
	}

	// A year of overlapping sessions, or the estimate is noise.
	if len(stockReturns) < 200 {
		return 0, false
	}

	var meanS, meanI float64
	for i := range stockReturns {
		meanS += stockReturns[i]
		meanI += indexReturns[i]
	}
	n := float64(len(stockReturns))
	meanS /= n
	meanI /= n

	var cov, varI float64
	for i := range stockReturns {
		cov += (stockReturns[i] - meanS) * (indexReturns[i] - meanI)
		varI += (indexReturns[i] - meanI) * (indexReturns[i] - meanI)
	}
	if varI == 0 {
		return 0, false
	}
	return cov / varI, true
}
