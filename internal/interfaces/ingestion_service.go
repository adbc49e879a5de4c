// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"
	"time"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// DocumentLink is a filing reference discovered on the company page,
// handed to the document service for download and extraction.
type DocumentLink struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	FiscalYear string `json:"fiscal_year,omitempty"`
}

// IngestionResult is one collection pass over the scraped sources.
type IngestionResult struct {
	// Profile carries the identity fields the capability gate reads.
	Profile models.Profile
	// Envelopes are the seed-contract names this pass delivered.
	Envelopes []models.Envelope
	// Documents lists annual-report filings found on the page.
	Documents []DocumentLink
	// FromCache reports whether the snapshot store served the page.
	FromCache bool
	// FetchedAt is when the underlying page was actually retrieved.
	FetchedAt time.Time
}

// IngestionService scrapes the fundamentals source for one company.
type IngestionService interface {
	// Fundamentals collects the company page: profile, financial
	// statement series, shareholding pattern, peer comparison and
	// filing links. Missing statement rows degrade to absent
	// envelopes, not errors; an error means the page itself was
	// unreachable and not cached.
	Fundamentals(ctx context.Context, symbol common.Symbol) (*IngestionResult, error)

	// Prices collects the daily close history and current quote.
	Prices(ctx context.Context, symbol common.Symbol) (*IngestionResult, error)
}

// MarketFeedService supplies economy-wide valuation parameters. It
// never fails the run: parameters it cannot obtain come back as
// unavailable envelopes.
type MarketFeedService interface {
	Parameters(ctx context.Context) []models.Envelope
}

// FilingService downloads annual-report PDFs and extracts the
// cross-check figures and narrative sections.
type FilingService interface {
	// Extract processes the newest usable filing from links. The
	// returned envelopes cover the doc.* names; every name the
	// extraction could not recover is present as unavailable.
	Extract(ctx context.Context, symbol common.Symbol, links []DocumentLink) ([]models.Envelope, error)
}
