// -----------------------------------------------------------------------
// Filing service - Annual report download, extraction and carving
// -----------------------------------------------------------------------

// Package documents turns annual-report filings into envelopes: the
// narrative sections the text models read and the statement figures
// the cross-source validator checks against scraped data. A filing
// that cannot be obtained or read degrades to unavailable envelopes,
// never a failed run.
package documents

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Service implements the filing pipeline: pick the newest usable
// annual report, download it, extract text, cache the text, carve
// envelopes out of it.
type Service struct {
	cfg       common.DocumentsConfig
	store     interfaces.SnapshotStore
	extractor interfaces.PDFExtractor
	client    *http.Client
	offline   bool
	logger    arbor.ILogger
}

var _ interfaces.FilingService = (*Service)(nil)

// NewService creates the filing service.
func NewService(cfg common.DocumentsConfig, store interfaces.SnapshotStore, extractor interfaces.PDFExtractor, offline bool, logger arbor.ILogger) *Service {
	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Service{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		client:    &http.Client{Timeout: timeout},
		offline:   offline,
		logger:    logger,
	}
}

// Extract processes the newest usable filing from links. Extracted
// text is cached in the snapshot store so repeat runs skip the
// download entirely; the PDF itself is scratch and deleted after
// extraction.
func (s *Service) Extract(ctx context.Context, symbol common.Symbol, links []interfaces.DocumentLink) ([]models.Envelope, error) {
	if len(links) == 0 {
		return unavailableFilingSet("no annual report filings listed"), nil
	}

	var lastErr error
	for _, link := range links {
		text, err := s.filingText(ctx, symbol, link)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("symbol", symbol.Raw).
				Str("filing", link.Title).
				Msg("Filing unusable, trying next")
			lastErr = err
			continue
		}
		if len(text) < s.minTextLen() {
			// Scanned reports extract to nothing; the next year's
			// filing may still be text-based.
			lastErr = fmt.Errorf("filing %q extracted to %d chars", link.Title, len(text))
			continue
		}

		s.logger.Info().
			Str("symbol", symbol.Raw).
			Str("filing", link.Title).
			Int("chars", len(text)).
			Msg("Filing text ready")

		out := sliceSections(text)
		out = append(out, extractFigures(text)...)
		return out, nil
	}

	reason := "no usable filing among listed documents"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	return unavailableFilingSet(reason), nil
}

// filingText returns the extracted text for one filing, from the
// snapshot cache when present.
func (s *Service) filingText(ctx context.Context, symbol common.Symbol, link interfaces.DocumentLink) (string, error) {
	key := filingKey(symbol, link)

	if snap, err := s.store.GetSnapshot(ctx, key); err == nil {
		s.logger.Debug().Str("key", key).Msg("Filing text cache hit")
		return string(snap.Body), nil
	}

	if s.offline {
		return "", fmt.Errorf("offline and no cached text for filing %q", link.Title)
	}

	path, contentType, err := s.download(ctx, symbol, link)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	var text string
	if isHTML(contentType) {
		// Some exchanges publish the annual report as a web page
		// rather than a PDF.
		text, err = htmlToText(path)
	} else {
		text, err = s.extractor.ExtractText(ctx, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to extract filing text: %w", err)
	}

	snap := &models.Snapshot{
		Key:         key,
		Symbol:      symbol.Raw,
		SourceURL:   link.URL,
		ContentType: "text/plain",
		Body:        []byte(text),
		FetchedAt:   time.Now(),
	}
	if err := s.store.PutSnapshot(ctx, snap); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache filing text")
	}
	if err := s.store.RecordRefresh(ctx, &models.RefreshEvent{
		Symbol:     symbol.Code,
		Class:      models.DataClassFilings,
		ObservedAt: time.Now(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record filing refresh")
	}

	return text, nil
}

// download fetches the filing into the work dir, enforcing the size
// cap while streaming. Returns the file path and the response content
// type.
func (s *Service) download(ctx context.Context, symbol common.Symbol, link interfaces.DocumentLink) (string, string, error) {
	if err := os.MkdirAll(s.cfg.WorkDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create filing work dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build filing request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to download filing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("filing download returned HTTP %d", resp.StatusCode)
	}

	maxBytes := int64(s.cfg.MaxPDFSizeMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 50 * 1024 * 1024
	}

	contentType := resp.Header.Get("Content-Type")
	ext := ".pdf"
	if isHTML(contentType) {
		ext = ".html"
	}

	path := filepath.Join(s.cfg.WorkDir, fmt.Sprintf("%s_%s%s", symbol.Code, link.FiscalYear, ext))
	out, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create filing file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to write filing file: %w", err)
	}
	if written > maxBytes {
		os.Remove(path)
		return "", "", fmt.Errorf("filing exceeds %dMB size cap", s.cfg.MaxPDFSizeMB)
	}

	s.logger.Debug().
		Str("filing", link.Title).
		Str("content_type", contentType).
		Int64("bytes", written).
		Msg("Filing downloaded")
	return path, contentType, nil
}

func isHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// htmlToText converts an HTML filing to markdown so the section
// carver sees the same plain-text shape PDF extraction yields.
func htmlToText(path string) (string, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read filing html: %w", err)
	}
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to convert filing html: %w", err)
	}
	return text, nil
}

// minTextLen is the floor below which an extraction is treated as a
// scanned (image-only) report.
func (s *Service) minTextLen() int {
	return 2000
}

// filingKey builds the snapshot key for a filing's extracted text.
func filingKey(symbol common.Symbol, link interfaces.DocumentLink) string {
	year := link.FiscalYear
	if year == "" {
		year = "latest"
	}
	return fmt.Sprintf("filings/%s/%s", symbol.Raw, year)
}

// unavailableFilingSet marks every doc.* name unavailable with one
// shared reason.
func unavailableFilingSet(reason string) []models.Envelope {
	out := make([]models.Envelope, 0, len(narrativeSections)+len(crossCheckFigures))
	for _, spec := range narrativeSections {
		out = append(out, models.Unavailable(spec.name, reason))
	}
	for _, spec := range crossCheckFigures {
		out = append(out, models.Unavailable(spec.name, reason))
	}
	return out
}
