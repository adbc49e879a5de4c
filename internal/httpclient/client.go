// -----------------------------------------------------------------------
// HTTP fetcher - Rate-limited retrieval backed by the snapshot cache
// -----------------------------------------------------------------------

// Package httpclient provides the polite fetch primitive every
// collecting service shares: snapshot cache first, rate-limited live
// requests otherwise, stale cache as the fallback when the network
// fails, and no network at all in offline mode.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Options configures a Fetcher.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	CacheTTL      time.Duration
	MaxRetries    int
	Offline       bool
}

// Result is a retrieved payload plus its provenance.
type Result struct {
	Body      []byte
	FromCache bool
	FetchedAt time.Time
}

// Fetcher retrieves URLs with caching, rate limiting and retries.
type Fetcher struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	store   interfaces.SnapshotStore
	logger  arbor.ILogger
}

// NewFetcher creates a fetcher over the given snapshot store.
func NewFetcher(opts Options, store interfaces.SnapshotStore, logger arbor.ILogger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Fetcher{
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		store:   store,
		logger:  logger,
	}
}

// Fetch returns the payload for url, caching under key. symbol and
// class feed the refresh log when a live fetch lands; class may be
// empty for payloads outside staleness tracking.
func (f *Fetcher) Fetch(ctx context.Context, key, url, symbol string, class models.DataClass) (*Result, error) {
	cached, cacheErr := f.store.GetSnapshot(ctx, key)
	if cacheErr == nil && time.Since(cached.FetchedAt) < f.opts.CacheTTL {
		f.logger.Debug().Str("key", key).Msg("Snapshot cache hit")
		return &Result{Body: cached.Body, FromCache: true, FetchedAt: cached.FetchedAt}, nil
	}

	if f.opts.Offline {
		if cacheErr == nil {
			f.logger.Debug().Str("key", key).Msg("Offline mode, serving stale snapshot")
			return &Result{Body: cached.Body, FromCache: true, FetchedAt: cached.FetchedAt}, nil
		}
		return nil, fmt.Errorf("offline and no cached snapshot for %s", key)
	}

	body, err := f.download(ctx, url)
	if err != nil {
		if cacheErr == nil {
			f.logger.Warn().Err(err).Str("key", key).Msg("Live fetch failed, serving stale snapshot")
			return &Result{Body: cached.Body, FromCache: true, FetchedAt: cached.FetchedAt}, nil
		}
		return nil, err
	}

	now := time.Now()
	snap := &models.Snapshot{
		Key:       key,
		Symbol:    symbol,
		SourceURL: url,
		Body:      body,
		FetchedAt: now,
	}
	if err := f.store.PutSnapshot(ctx, snap); err != nil {
		f.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache snapshot")
	}
	if class != "" {
		// Refresh logging is side work; it must not delay or fail the
		// fetch path.
		common.SafeGo(f.logger, "recordRefresh", func() {
			if err := f.store.RecordRefresh(context.Background(), &models.RefreshEvent{
				Symbol:     symbol,
				Class:      class,
				ObservedAt: now,
			}); err != nil {
				f.logger.Warn().Err(err).Str("key", key).Msg("Failed to record refresh event")
			}
		})
	}

	return &Result{Body: body, FetchedAt: now}, nil
}

// download performs the rate-limited GET with retries.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if f.opts.UserAgent != "" {
			req.Header.Set("User-Agent", f.opts.UserAgent)
		}
		req.Header.Set("Accept", "text/html,application/xhtml+xml,text/csv,application/json,application/pdf")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			f.logger.Debug().Err(err).Str("url", url).Int("attempt", attempt+1).Msg("Fetch attempt failed")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
			// Client errors will not improve on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, lastErr
			}
			continue
		}
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", readErr)
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", f.opts.MaxRetries+1, lastErr)
}
