// -----------------------------------------------------------------------
// Ingestion service - Fundamentals and price collection for one symbol
// -----------------------------------------------------------------------

package ingestion

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/httpclient"
	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Service collects the scraped sources for one company and maps them
// onto the seed envelope contract.
type Service struct {
	cfg     common.IngestionConfig
	fetcher *httpclient.Fetcher
	logger  arbor.ILogger
}

var _ interfaces.IngestionService = (*Service)(nil)

// NewService creates the ingestion service.
func NewService(cfg common.IngestionConfig, store interfaces.SnapshotStore, offline bool, logger arbor.ILogger) *Service {
	f := httpclient.NewFetcher(httpclient.Options{
		UserAgent:     cfg.UserAgent,
		Timeout:       cfg.RequestTimeout,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.RateBurst,
		CacheTTL:      cfg.CacheTTL,
		MaxRetries:    cfg.MaxRetries,
		Offline:       offline,
	}, store, logger)
	return &Service{
		cfg:     cfg,
		fetcher: f,
		logger:  logger,
	}
}

// Fundamentals collects and parses the company page.
func (s *Service) Fundamentals(ctx context.Context, symbol common.Symbol) (*interfaces.IngestionResult, error) {
	pageURL := fmt.Sprintf("%s/company/%s/consolidated/", strings.TrimRight(s.cfg.BaseURL, "/"), symbol.Code)
	key := "fundamentals/" + symbol.CacheKey()

	fetched, err := s.fetcher.Fetch(ctx, key, pageURL, symbol.Code, models.DataClassFundamentals)
	if err != nil {
		return nil, fmt.Errorf("fundamentals fetch for %s: %w", symbol.Code, err)
	}

	page, err := parseCompanyPage(fetched.Body, s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fundamentals parse for %s: %w", symbol.Code, err)
	}

	result := &interfaces.IngestionResult{
		Profile: models.Profile{
			Symbol:      symbol.Code,
			Name:        page.Name,
			Sector:      page.Sector,
			Industry:    page.Industry,
			Exchange:    symbol.Exchange,
			FiscalYears: page.FiscalYears,
		},
		Envelopes: s.mapFundamentals(page),
		Documents: page.Documents,
		FromCache: fetched.FromCache,
		FetchedAt: fetched.FetchedAt,
	}

	s.logger.Info().
		Str("symbol", symbol.Code).
		Str("company", page.Name).
		Int("envelopes", len(result.Envelopes)).
		Int("filings", len(result.Documents)).
		Bool("from_cache", fetched.FromCache).
		Msg("Fundamentals collected")
	return result, nil
}

// Prices collects the daily close history from the quote endpoint.
func (s *Service) Prices(ctx context.Context, symbol common.Symbol) (*interfaces.IngestionResult, error) {
	if s.cfg.QuoteURL == "" {
		return nil, fmt.Errorf("no quote endpoint configured")
	}
	quoteURL := strings.ReplaceAll(s.cfg.QuoteURL, "{symbol}", quoteSymbol(symbol))
	key := "prices/" + symbol.CacheKey()

	fetched, err := s.fetcher.Fetch(ctx, key, quoteURL, symbol.Code, models.DataClassPrices)
	if err != nil {
		return nil, fmt.Errorf("price fetch for %s: %w", symbol.Code, err)
	}

	closes, volumes, err := ParseDailyCSV(fetched.Body)
	if err != nil {
		return nil, fmt.Errorf("price parse for %s: %w", symbol.Code, err)
	}

	envelopes := []models.Envelope{
		models.NewSeries("price.close", closes, models.UnitCurrencyPerShare, models.SourceMarket),
	}
	if len(volumes) > 0 {
		envelopes = append(envelopes, models.NewSeries("price.volume", volumes, models.UnitCount, models.SourceMarket))
	}

	result := &interfaces.IngestionResult{
		Envelopes: envelopes,
		FromCache: fetched.FromCache,
		FetchedAt: fetched.FetchedAt,
	}
	s.logger.Info().
		Str("symbol", symbol.Code).
		Int("closes", len(closes)).
		Bool("from_cache", fetched.FromCache).
		Msg("Price history collected")
	return result, nil
}

// quoteSymbol maps an exchange symbol onto the quote endpoint's
// suffix convention.
func quoteSymbol(symbol common.Symbol) string {
	switch symbol.Exchange {
	case "BSE":
		return symbol.Code + ".BO"
	default:
		return symbol.Code + ".NS"
	}
}

// mapFundamentals turns the parsed page into seed envelopes. Rows the
// page does not carry simply produce no envelope; the pipeline
// substitutes Unavailable for every contract name left unfilled.
func (s *Service) mapFundamentals(page *companyPage) []models.Envelope {
	var out []models.Envelope
	emit := func(name string, section map[string][]models.SeriesPoint, unit models.Unit, aliases ...string) []models.SeriesPoint {
		series, ok := row(section, aliases...)
		if !ok {
			return nil
		}
		out = append(out, models.NewSeries(name, series, unit, models.SourceScraped))
		return series
	}

	// Profit and loss. Lender pages title the top line "revenue",
	// standard pages "sales".
	revenue := emit("pnl.revenue", page.ProfitLoss, models.UnitCurrencyCrore, "sales", "revenue")
	emit("pnl.operating_profit", page.ProfitLoss, models.UnitCurrencyCrore, "operating profit")
	emit("pnl.interest", page.ProfitLoss, models.UnitCurrencyCrore, "interest")
	emit("pnl.depreciation", page.ProfitLoss, models.UnitCurrencyCrore, "depreciation")
	emit("pnl.tax", page.ProfitLoss, models.UnitPercent, "tax %")
	emit("pnl.net_profit", page.ProfitLoss, models.UnitCurrencyCrore, "net profit")
	eps := emit("pnl.eps", page.ProfitLoss, models.UnitCurrencyPerShare, "eps in rs")

	// Expense breakup rows ship only on pages rendered with the
	// expanded schedules; the forensics ratios degrade without them.
	emit("pnl.cogs", page.ProfitLoss, models.UnitCurrencyCrore, "raw material cost", "cost of materials consumed")
	emit("pnl.sga", page.ProfitLoss, models.UnitCurrencyCrore, "selling and admin", "selling general and administration")

	// Lender pages title the interest line "revenue" and break the rest
	// out as other income; the share of interest in total income is the
	// classifier's evidence of a financing book.
	if _, lenderFormat := page.ProfitLoss["revenue"]; lenderFormat && len(revenue) > 0 {
		if other, ok := row(page.ProfitLoss, "other income"); ok {
			if share, ok := interestIncomeShare(revenue, other); ok {
				out = append(out, models.NewScalar("pnl.interest_income_share", share, models.UnitRatio, models.SourceDerived))
			}
		}
	}

	// Dividend per share is reconstructed from the payout ratio row.
	if payout, ok := row(page.ProfitLoss, "dividend payout %"); ok && len(eps) > 0 {
		if dps := dividendPerShare(eps, payout); len(dps) > 0 {
			out = append(out, models.NewSeries("pnl.dividend_per_share", dps, models.UnitCurrencyPerShare, models.SourceScraped))
		}
	}

	// Balance sheet.
	capital := emit("balance.equity_capital", page.BalanceSheet, models.UnitCurrencyCrore, "equity capital", "share capital")
	reserves := emit("balance.reserves", page.BalanceSheet, models.UnitCurrencyCrore, "reserves")
	emit("balance.total_debt", page.BalanceSheet, models.UnitCurrencyCrore, "borrowings", "borrowing")
	emit("balance.deposits", page.BalanceSheet, models.UnitCurrencyCrore, "deposits")
	emit("balance.current_liabilities", page.BalanceSheet, models.UnitCurrencyCrore, "other liabilities")
	emit("balance.current_assets", page.BalanceSheet, models.UnitCurrencyCrore, "other assets")
	emit("balance.net_block", page.BalanceSheet, models.UnitCurrencyCrore, "fixed assets")
	emit("balance.total_assets", page.BalanceSheet, models.UnitCurrencyCrore, "total assets")
	emit("balance.cash", page.BalanceSheet, models.UnitCurrencyCrore, "cash equivalents", "cash and bank")
	if equity := sumSeries(capital, reserves); len(equity) > 0 {
		out = append(out, models.NewSeries("balance.equity", equity, models.UnitCurrencyCrore, models.SourceScraped))
	}

	// Cash flow.
	emit("cashflow.operating", page.CashFlow, models.UnitCurrencyCrore, "cash from operating activity")
	emit("cashflow.investing", page.CashFlow, models.UnitCurrencyCrore, "cash from investing activity")
	emit("cashflow.financing", page.CashFlow, models.UnitCurrencyCrore, "cash from financing activity")
	// Outflow sign is preserved; the valuation takes the magnitude.
	emit("cashflow.capex", page.CashFlow, models.UnitCurrencyCrore, "fixed assets purchased")

	// Working-capital balances reconstructed from the turnover-day
	// ratios, the only place the page exposes them.
	if len(revenue) > 0 {
		emitDays := func(name, label string) {
			days, ok := row(page.Ratios, label)
			if !ok {
				return
			}
			if series := balancesFromDays(revenue, days); len(series) > 0 {
				out = append(out, models.NewSeries(name, series, models.UnitCurrencyCrore, models.SourceScraped))
			}
		}
		emitDays("balance.receivables", "debtor days")
		emitDays("balance.inventory", "inventory days")
		emitDays("balance.payables", "days payable")
	}

	// Quarterly shareholding pattern.
	emit("shareholding.promoters", page.Holdings, models.UnitPercent, "promoters")
	emit("shareholding.fii", page.Holdings, models.UnitPercent, "fiis")
	emit("shareholding.dii", page.Holdings, models.UnitPercent, "diis")

	// Only the latest pledge disclosure matters for the caution check.
	if pledge, ok := row(page.Holdings, "pledged percentage", "pledged"); ok && len(pledge) > 0 {
		out = append(out, models.NewScalar("shareholding.pledged", pledge[len(pledge)-1].Value, models.UnitPercent, models.SourceScraped))
	}

	// Headline figures.
	price, hasPrice := page.TopRatios["current price"]
	if hasPrice {
		out = append(out, models.NewScalar("price.current", price, models.UnitCurrencyPerShare, models.SourceScraped))
	}
	if mcap, ok := page.TopRatios["market cap"]; ok {
		out = append(out, models.NewScalar("price.market_cap", mcap, models.UnitCurrencyCrore, models.SourceScraped))
		// Share count carried in crore so every currency computation
		// stays in crore end to end.
		if hasPrice && price > 0 {
			out = append(out, models.NewScalar("price.shares_outstanding", mcap/price, models.UnitCount, models.SourceScraped))
		}
	}
	if pe, ok := page.TopRatios["stock p/e"]; ok {
		out = append(out, models.NewScalar("price.pe", pe, models.UnitRatio, models.SourceScraped))
	}

	if median, ok := medianOf(page.PeerPEs); ok {
		out = append(out, models.NewScalar("peers.median_pe", median, models.UnitRatio, models.SourceScraped))
	}

	return out
}

// interestIncomeShare is interest income over total income for the
// latest period both rows report.
func interestIncomeShare(interest, other []models.SeriesPoint) (float64, bool) {
	byPeriod := make(map[string]float64, len(other))
	for _, p := range other {
		byPeriod[p.Period] = p.Value
	}
	for i := len(interest) - 1; i >= 0; i-- {
		o, ok := byPeriod[interest[i].Period]
		if !ok {
			continue
		}
		total := interest[i].Value + o
		if total <= 0 {
			return 0, false
		}
		return interest[i].Value / total, true
	}
	return 0, false
}

// dividendPerShare multiplies the payout-ratio row into the EPS row
// on their common periods.
func dividendPerShare(eps, payout []models.SeriesPoint) []models.SeriesPoint {
	byPeriod := make(map[string]float64, len(payout))
	for _, p := range payout {
		byPeriod[p.Period] = p.Value
	}
	var out []models.SeriesPoint
	for _, e := range eps {
		ratio, ok := byPeriod[e.Period]
		if !ok || ratio < 0 {
			continue
		}
		out = append(out, models.SeriesPoint{Period: e.Period, Date: e.Date, Value: e.Value * ratio / 100})
	}
	return out
}

// balancesFromDays rebuilds a balance item from its turnover days:
// days x revenue / 365, per common period.
func balancesFromDays(revenue, days []models.SeriesPoint) []models.SeriesPoint {
	byPeriod := make(map[string]float64, len(revenue))
	for _, p := range revenue {
		byPeriod[p.Period] = p.Value
	}
	var out []models.SeriesPoint
	for _, d := range days {
		rev, ok := byPeriod[d.Period]
		if !ok || d.Value < 0 {
			continue
		}
		out = append(out, models.SeriesPoint{Period: d.Period, Date: d.Date, Value: d.Value * rev / 365})
	}
	return out
}

// sumSeries adds two series on their common periods.
func sumSeries(a, b []models.SeriesPoint) []models.SeriesPoint {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	byPeriod := make(map[string]float64, len(b))
	for _, p := range b {
		byPeriod[p.Period] = p.Value
	}
	var out []models.SeriesPoint
	for _, p := range a {
		v, ok := byPeriod[p.Period]
		if !ok {
			continue
		}
		out = append(out, models.SeriesPoint{Period: p.Period, Date: p.Date, Value: p.Value + v})
	}
	return out
}

func medianOf(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, true
	}
	return sorted[mid], true
}
