// -----------------------------------------------------------------------
// Phase assembly - The analysis DAG and the seed envelope contract
// -----------------------------------------------------------------------

package analysis

import (
	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/pipeline"
	"github.com/rushabhkhandhar/one-stock-solution/internal/textintel"
)

// Phases assembles the analysis phases in declaration order. The
// pipeline derives the execution layers from the envelope names the
// modules require and produce; declaration order only breaks merge
// ties.
func Phases(cfg common.AnalysisConfig, lexicon *textintel.Lexicon) []pipeline.Phase {
	return []pipeline.Phase{
		{
			ID:      "foundation",
			Title:   "Ratio Foundation",
			Modules: []pipeline.Module{NewRatiosModule()},
		},
		{
			ID:    "growth",
			Title: "Growth Trajectory",
			Modules: []pipeline.Module{
				NewRevenueGrowthModule(cfg),
				NewProfitGrowthModule(cfg),
			},
		},
		{
			ID:    "forensics",
			Title: "Earnings Forensics",
			Modules: []pipeline.Module{
				NewBeneishModule(cfg),
				NewPiotroskiModule(cfg),
				NewCFOEBITDAModule(cfg),
			},
		},
		{
			ID:    "health",
			Title: "Financial Health",
			Modules: []pipeline.Module{
				NewAltmanModule(cfg),
				NewDuPontModule(cfg),
				NewWorkingCapitalModule(cfg),
				NewTrendModule(cfg),
			},
		},
		{
			ID:    "valuation",
			Title: "Valuation",
			Modules: []pipeline.Module{
				NewDCFModule(cfg),
				NewPeerModule(cfg),
			},
		},
		{
			ID:       "technicals",
			Title:    "Price Action",
			Requires: []string{"price.close"},
			Modules:  []pipeline.Module{NewTechnicalsModule(cfg)},
		},
		{
			ID:    "ownership",
			Title: "Ownership and Payout",
			Modules: []pipeline.Module{
				NewShareholdingModule(cfg),
				NewDividendsModule(cfg),
			},
		},
		{
			ID:    "narrative",
			Title: "Filing Narrative",
			Modules: []pipeline.Module{
				NewToneModule(lexicon),
				NewMoatModule(lexicon),
				NewAuditorModule(lexicon),
			},
		},
	}
}

// SeedContract lists every envelope name ingestion, the market feeds
// and the document service may deliver. The pipeline substitutes a
// definitive Unavailable for any name missing at run start, so module
// requirement checks never distinguish "not fetched" from "not
// published".
func SeedContract() []string {
	return []string{
		// Scraped profit and loss, annual.
		"pnl.revenue",
		"pnl.net_profit",
		"pnl.eps",
		"pnl.operating_profit",
		"pnl.depreciation",
		"pnl.interest",
		"pnl.tax",
		"pnl.dividend_per_share",
		"pnl.cogs",
		"pnl.sga",
		"pnl.interest_income_share",

		// Scraped balance sheet, annual.
		"balance.total_assets",
		"balance.current_assets",
		"balance.current_liabilities",
		"balance.receivables",
		"balance.inventory",
		"balance.payables",
		"balance.equity",
		"balance.equity_capital",
		"balance.reserves",
		"balance.total_debt",
		"balance.deposits",
		"balance.cash",
		"balance.net_block",

		// Scraped cash flow, annual.
		"cashflow.operating",
		"cashflow.investing",
		"cashflow.financing",
		"cashflow.capex",

		// Market data.
		"price.close",
		"price.current",
		"price.market_cap",
		"price.shares_outstanding",
		"price.beta",
		"price.pe",

		// Quarterly shareholding disclosures.
		"shareholding.promoters",
		"shareholding.pledged",
		"shareholding.fii",
		"shareholding.dii",

		// Peer comparison table.
		"peers.median_pe",

		// Market parameter feeds.
		"params.risk_free_rate",
		"params.equity_risk_premium",
		"params.credit_spread",
		"params.terminal_growth",
		"params.index_close",

		// Extracted from the annual report filing.
		"doc.revenue",
		"doc.net_profit",
		"doc.eps",
		"doc.operating_cashflow",
		"doc.total_debt",
		"doc.dividend_per_share",
		"doc.auditor_report",
		"doc.mda",
		"doc.notes",
	}
}
