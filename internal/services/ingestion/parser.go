// -----------------------------------------------------------------------
// Company page parser - Statement tables, holdings, peers, filings
// -----------------------------------------------------------------------

package ingestion

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rushabhkhandhar/one-stock-solution/internal/interfaces"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// companyPage is the parsed form of one fundamentals page. Row maps
// are keyed by normalized row label; every series is ordered by
// column position, which the source keeps chronological.
type companyPage struct {
	Name     string
	Sector   string
	Industry string

	TopRatios map[string]float64

	ProfitLoss   map[string][]models.SeriesPoint
	BalanceSheet map[string][]models.SeriesPoint
	CashFlow     map[string][]models.SeriesPoint
	Ratios       map[string][]models.SeriesPoint
	Holdings     map[string][]models.SeriesPoint

	PeerPEs   []float64
	Documents []interfaces.DocumentLink

	FiscalYears []string
}

var fiscalYearPattern = regexp.MustCompile(`(?i)financial year (\d{4})`)

// parseCompanyPage extracts everything the envelope mapping needs
// from the fundamentals HTML.
func parseCompanyPage(html []byte, baseURL string) (*companyPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse company page: %w", err)
	}

	page := &companyPage{
		TopRatios: make(map[string]float64),
	}

	page.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	if page.Name == "" {
		return nil, fmt.Errorf("company page has no title heading")
	}

	page.parseClassificationLinks(doc)
	page.parseTopRatios(doc)

	page.ProfitLoss = parseStatementSection(doc, "#profit-loss")
	page.BalanceSheet = parseStatementSection(doc, "#balance-sheet")
	page.CashFlow = parseStatementSection(doc, "#cash-flow")
	page.Ratios = parseStatementSection(doc, "#ratios")
	page.Holdings = parseStatementSection(doc, "#shareholding")

	page.PeerPEs = parsePeerPEs(doc)
	page.Documents = parseDocumentLinks(doc, baseURL)
	page.FiscalYears = fiscalYearLabels(page.ProfitLoss)

	return page, nil
}

// parseClassificationLinks reads the sector and industry from the
// peer-comparison links.
func (p *companyPage) parseClassificationLinks(doc *goquery.Document) {
	var texts []string
	doc.Find(`#peers a[href^="/company/compare/"]`).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			texts = append(texts, t)
		}
	})
	if len(texts) > 0 {
		p.Sector = texts[0]
	}
	if len(texts) > 1 {
		p.Industry = texts[1]
	}
}

// parseTopRatios reads the headline figure list (market cap, current
// price, stock P/E and friends).
func (p *companyPage) parseTopRatios(doc *goquery.Document) {
	doc.Find("#top-ratios li").Each(func(_ int, s *goquery.Selection) {
		name := normalizeLabel(s.Find(".name").First().Text())
		if name == "" {
			return
		}
		// Composite figures like "High / Low" carry several numbers;
		// only single-number ratios are useful here.
		var nums []float64
		s.Find(".number").Each(func(_ int, n *goquery.Selection) {
			if v, ok := parseNumber(n.Text()); ok {
				nums = append(nums, v)
			}
		})
		if len(nums) == 1 {
			p.TopRatios[name] = nums[0]
		}
	})
}

// parseStatementSection turns one statement table into label-keyed
// series. The first header cell is the empty row-label column; a
// trailing TTM column is dropped so annual series stay annual.
func parseStatementSection(doc *goquery.Document, selector string) map[string][]models.SeriesPoint {
	table := doc.Find(selector + " table.data-table").First()
	if table.Length() == 0 {
		return nil
	}

	var columns []string
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		if i == 0 {
			return
		}
		columns = append(columns, strings.TrimSpace(th.Text()))
	})
	if len(columns) == 0 {
		return nil
	}

	rows := make(map[string][]models.SeriesPoint)
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := normalizeLabel(cells.First().Text())
		if label == "" {
			return
		}

		var points []models.SeriesPoint
		cells.Slice(1, cells.Length()).Each(func(i int, td *goquery.Selection) {
			if i >= len(columns) {
				return
			}
			period := columns[i]
			if strings.EqualFold(period, "TTM") {
				return
			}
			v, ok := parseNumber(td.Text())
			if !ok {
				return
			}
			points = append(points, models.SeriesPoint{
				Period: period,
				Date:   periodDate(period),
				Value:  v,
			})
		})
		if len(points) > 0 {
			rows[label] = points
		}
	})
	return rows
}

// parsePeerPEs collects the P/E column from the peer comparison
// table. The subject company's own row is part of the peer set.
func parsePeerPEs(doc *goquery.Document) []float64 {
	table := doc.Find("#peers table").First()
	if table.Length() == 0 {
		return nil
	}

	peCol := -1
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		label := normalizeLabel(th.Text())
		if strings.HasPrefix(label, "p/e") {
			peCol = i
		}
	})
	if peCol < 0 {
		return nil
	}

	var pes []float64
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() <= peCol {
			return
		}
		if v, ok := parseNumber(cells.Eq(peCol).Text()); ok && v > 0 {
			pes = append(pes, v)
		}
	})
	return pes
}

// parseDocumentLinks collects annual-report anchors from the
// documents section.
func parseDocumentLinks(doc *goquery.Document, baseURL string) []interfaces.DocumentLink {
	base, _ := url.Parse(baseURL)

	var links []interfaces.DocumentLink
	doc.Find("#documents .annual-reports a[href], #documents a[href$=\".pdf\"]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		title := strings.Join(strings.Fields(s.Text()), " ")
		if href == "" || title == "" {
			return
		}
		resolved := href
		if base != nil {
			if u, err := url.Parse(href); err == nil {
				resolved = base.ResolveReference(u).String()
			}
		}
		link := interfaces.DocumentLink{Title: title, URL: resolved}
		if m := fiscalYearPattern.FindStringSubmatch(title); m != nil {
			link.FiscalYear = m[1]
		}
		links = append(links, link)
	})

	// Newest filing first.
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].FiscalYear > links[j].FiscalYear
	})
	return links
}

// fiscalYearLabels returns the period labels of the longest P&L row,
// which is the page's fiscal-year axis.
func fiscalYearLabels(pnl map[string][]models.SeriesPoint) []string {
	var longest []models.SeriesPoint
	for _, series := range pnl {
		if len(series) > len(longest) {
			longest = series
		}
	}
	labels := make([]string, len(longest))
	for i, p := range longest {
		labels[i] = p.Period
	}
	return labels
}

// row fetches a series by its normalized label, trying the given
// aliases in order.
func row(section map[string][]models.SeriesPoint, aliases ...string) ([]models.SeriesPoint, bool) {
	for _, alias := range aliases {
		if series, ok := section[alias]; ok {
			return series, true
		}
	}
	return nil, false
}

// normalizeLabel lowercases a row label and strips the expansion
// marker and stray whitespace the source decorates labels with.
func normalizeLabel(label string) string {
	label = strings.ReplaceAll(label, " ", " ")
	label = strings.TrimSpace(label)
	label = strings.TrimSuffix(label, "+")
	label = strings.TrimSpace(label)
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

// parseNumber reads one table cell: Indian digit grouping, currency
// and percent decorations, empty cells and dashes.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(s, "Cr.")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "--" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// periodDate parses a "Mar 2024" column label. A zero time is fine
// for series whose consumers only need ordering.
func periodDate(period string) time.Time {
	t, err := time.Parse("Jan 2006", period)
	if err != nil {
		return time.Time{}
	}
	return t
}
