package ingestion

import (
	"strings"
	"testing"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

const companyPageHTML = `
<html><body>
<h1>Acme Industries Ltd</h1>
<div id="top-ratios"><ul>
  <li><span class="name">Market Cap</span><span class="number">1,25,000</span></li>
  <li><span class="name">Stock P/E</span><span class="number">24.5</span></li>
  <li><span class="name">High / Low</span><span class="number">980</span><span class="number">610</span></li>
</ul></div>
<section id="profit-loss"><table class="data-table">
  <thead><tr><th></th><th>Mar 2022</th><th>Mar 2023</th><th>Mar 2024</th><th>TTM</th></tr></thead>
  <tbody>
    <tr><td>Sales +</td><td>1,000</td><td>1,150</td><td>1,322</td><td>1,400</td></tr>
    <tr><td>Net Profit</td><td>80</td><td>95</td><td>-</td><td>120</td></tr>
  </tbody>
</table></section>
<section id="peers">
  <p><a href="/company/compare/00000012/">Chemicals</a><a href="/company/compare/00000012-01/">Specialty Chemicals</a></p>
  <table>
    <thead><tr><th>Name</th><th>P/E</th></tr></thead>
    <tbody>
      <tr><td>Acme</td><td>24.5</td></tr>
      <tr><td>Peer One</td><td>31.0</td></tr>
      <tr><td>Loss Maker</td><td>-</td></tr>
    </tbody>
  </table>
</section>
<section id="documents"><div class="annual-reports">
  <a href="/link/ar-2024.pdf">Financial Year 2024 from bse</a>
  <a href="/link/ar-2023.pdf">Financial Year 2023 from bse</a>
</div></section>
</body></html>`

func TestParseCompanyPage(t *testing.T) {
	page, err := parseCompanyPage([]byte(companyPageHTML), "https://www.screener.in")
	if err != nil {
		t.Fatalf("parseCompanyPage() error = %v", err)
	}

	if page.Name != "Acme Industries Ltd" {
		t.Errorf("Name = %q", page.Name)
	}
	if page.Sector != "Chemicals" || page.Industry != "Specialty Chemicals" {
		t.Errorf("classification = %q / %q", page.Sector, page.Industry)
	}

	if got := page.TopRatios["stock p/e"]; got != 24.5 {
		t.Errorf("TopRatios[stock p/e] = %v", got)
	}
	if got := page.TopRatios["market cap"]; got != 125000 {
		t.Errorf("TopRatios[market cap] = %v, Indian grouping not stripped", got)
	}
	if _, ok := page.TopRatios["high / low"]; ok {
		t.Error("composite High/Low figure must not become a scalar ratio")
	}

	sales, ok := row(page.ProfitLoss, "sales")
	if !ok {
		t.Fatalf("sales row missing, have %v", keysOf(page.ProfitLoss))
	}
	// TTM column dropped, so three annual points.
	if len(sales) != 3 || sales[2].Value != 1322 {
		t.Errorf("sales series = %+v", sales)
	}
	if profit, _ := row(page.ProfitLoss, "net profit"); len(profit) != 2 {
		t.Errorf("dash cell must be skipped, net profit = %+v", profit)
	}

	if len(page.PeerPEs) != 2 {
		t.Errorf("PeerPEs = %v, want the two positive entries", page.PeerPEs)
	}

	if len(page.Documents) != 2 {
		t.Fatalf("Documents = %+v", page.Documents)
	}
	if page.Documents[0].FiscalYear != "2024" {
		t.Errorf("documents not newest first: %+v", page.Documents)
	}
	if !strings.HasPrefix(page.Documents[0].URL, "https://www.screener.in/") {
		t.Errorf("relative href not resolved: %q", page.Documents[0].URL)
	}

	if len(page.FiscalYears) != 3 || page.FiscalYears[0] != "Mar 2022" {
		t.Errorf("FiscalYears = %v", page.FiscalYears)
	}
}

func TestParseCompanyPageRejectsUntitled(t *testing.T) {
	if _, err := parseCompanyPage([]byte("<html><body><p>404</p></body></html>"), ""); err == nil {
		t.Fatal("page without a title heading must be rejected")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"1,23,456", 123456, true},
		{"₹ 1,234 Cr.", 1234, true},
		{"12.5%", 12.5, true},
		{"-48.2", -48.2, true},
		{"", 0, false},
		{"-", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.raw)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseNumber(%q) = %v %v, want %v %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct{ raw, want string }{
		{"Sales +", "sales"},
		{"  Net   Profit ", "net profit"},
		{"OPM %", "opm %"},
	}
	for _, tt := range tests {
		if got := normalizeLabel(tt.raw); got != tt.want {
			t.Errorf("normalizeLabel(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func keysOf(m map[string][]models.SeriesPoint) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
