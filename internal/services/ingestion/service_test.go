package ingestion

import (
	"math"
	"testing"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

func envNamed(t *testing.T, envs []models.Envelope, name string) models.Envelope {
	t.Helper()
	for _, e := range envs {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no envelope %q produced", name)
	return models.Envelope{}
}

func hasEnv(envs []models.Envelope, name string) bool {
	for _, e := range envs {
		if e.Name == name {
			return true
		}
	}
	return false
}

func fy(values ...float64) []models.SeriesPoint {
	points := make([]models.SeriesPoint, len(values))
	years := []string{"Mar 2023", "Mar 2024", "Mar 2025"}
	for i, v := range values {
		points[i] = models.SeriesPoint{Period: years[len(years)-len(values)+i], Value: v}
	}
	return points
}

func TestMapFundamentalsExpandedRows(t *testing.T) {
	page := &companyPage{
		Name:      "Sample Industries",
		TopRatios: map[string]float64{},
		ProfitLoss: map[string][]models.SeriesPoint{
			"sales":             fy(800, 900, 1000),
			"net profit":        fy(80, 95, 110),
			"raw material cost": fy(400, 450, 500),
			"selling and admin": fy(90, 100, 115),
		},
		BalanceSheet: map[string][]models.SeriesPoint{
			"cash equivalents": fy(200, 230, 250),
		},
		CashFlow: map[string][]models.SeriesPoint{
			"fixed assets purchased": fy(-120, -150, -180),
		},
		Holdings: map[string][]models.SeriesPoint{
			"promoters":          fy(52.1, 52.1, 51.8),
			"pledged percentage": fy(3.1, 3.1, 12.4),
		},
	}

	envs := (&Service{}).mapFundamentals(page)

	cogs := envNamed(t, envs, "pnl.cogs")
	if len(cogs.Series) != 3 || cogs.Series[2].Value != 500 {
		t.Errorf("pnl.cogs = %+v", cogs.Series)
	}
	sga := envNamed(t, envs, "pnl.sga")
	if len(sga.Series) != 3 || sga.Series[2].Value != 115 {
		t.Errorf("pnl.sga = %+v", sga.Series)
	}
	cash := envNamed(t, envs, "balance.cash")
	if len(cash.Series) != 3 || cash.Series[2].Value != 250 {
		t.Errorf("balance.cash = %+v", cash.Series)
	}

	// Outflow sign survives the mapping; consumers take the magnitude.
	capex := envNamed(t, envs, "cashflow.capex")
	if len(capex.Series) != 3 || capex.Series[2].Value != -180 {
		t.Errorf("cashflow.capex = %+v", capex.Series)
	}

	// Only the latest pledge disclosure is carried, as a scalar.
	pledged := envNamed(t, envs, "shareholding.pledged")
	if pledged.Kind != models.PayloadScalar || pledged.Value != 12.4 {
		t.Errorf("shareholding.pledged = %+v, want latest quarter 12.4", pledged)
	}

	// A "sales" top line is not a lender page: no interest share.
	if hasEnv(envs, "pnl.interest_income_share") {
		t.Error("interest income share emitted for a standard page")
	}
}

func TestMapFundamentalsLenderInterestShare(t *testing.T) {
	page := &companyPage{
		Name:      "Sample Finance",
		TopRatios: map[string]float64{},
		ProfitLoss: map[string][]models.SeriesPoint{
			"revenue":      fy(850, 900),
			"other income": fy(95, 100),
		},
	}

	envs := (&Service{}).mapFundamentals(page)

	share := envNamed(t, envs, "pnl.interest_income_share")
	if share.Kind != models.PayloadScalar {
		t.Fatalf("interest share kind = %s", share.Kind)
	}
	if math.Abs(share.Value-0.9) > 1e-9 {
		t.Errorf("interest share = %.4f, want 0.9 (900 of 1000 total income)", share.Value)
	}
}

func TestMapFundamentalsSkipsAbsentRows(t *testing.T) {
	page := &companyPage{
		Name:      "Sparse Ltd",
		TopRatios: map[string]float64{},
		ProfitLoss: map[string][]models.SeriesPoint{
			"sales": fy(900, 1000),
		},
	}

	envs := (&Service{}).mapFundamentals(page)
	for _, name := range []string{
		"pnl.cogs", "pnl.sga", "balance.cash",
		"cashflow.capex", "shareholding.pledged",
	} {
		if hasEnv(envs, name) {
			t.Errorf("%s emitted without a source row", name)
		}
	}
}
