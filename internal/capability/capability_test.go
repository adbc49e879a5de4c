package capability

import (
	"testing"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

func TestClassify(t *testing.T) {
	deposits := models.Set{}.Merge(
		models.NewScalar("balance.deposits", 85000, models.UnitCurrencyCrore, models.SourceScraped),
	)
	interestHeavy := models.Set{}.Merge(
		models.NewScalar("pnl.interest_income_share", 0.82, models.UnitRatio, models.SourceScraped),
	)
	feeHeavy := models.Set{}.Merge(
		models.NewScalar("pnl.interest_income_share", 0.2, models.UnitRatio, models.SourceScraped),
	)

	tests := []struct {
		name     string
		sector   string
		industry string
		seed     models.Set
		want     models.Classification
	}{
		{"deposits line marks a bank", "", "", deposits, models.ClassBank},
		{"bank sector text", "Private Sector Bank", "Banks", models.Set{}, models.ClassBank},
		{"financing sector with interest-driven revenue", "Finance", "Consumer Finance", interestHeavy, models.ClassNBFC},
		{"financing sector with no statement evidence", "Financial Services", "", models.Set{}, models.ClassNBFC},
		{"financing sector with fee-driven revenue", "Finance", "Broking", feeHeavy, models.ClassStandard},
		{"manufacturer", "Consumer Goods", "FMCG", models.Set{}, models.ClassStandard},
		{"empty metadata", "", "", models.Set{}, models.ClassStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.sector, tt.industry, tt.seed); got != tt.want {
				t.Errorf("Classify(%q, %q) = %s, want %s", tt.sector, tt.industry, got, tt.want)
			}
		})
	}
}

func TestSuitability(t *testing.T) {
	for _, c := range []models.Classification{models.ClassBank, models.ClassNBFC} {
		if SuitsEnterpriseValuation(c) {
			t.Errorf("DCF must not apply to %s", c)
		}
		if SuitsManufacturingSolvency(c) {
			t.Errorf("Altman must not apply to %s", c)
		}
		if SuitsWorkingCapital(c) {
			t.Errorf("working capital cycle must not apply to %s", c)
		}
	}
	if !SuitsEnterpriseValuation(models.ClassStandard) ||
		!SuitsManufacturingSolvency(models.ClassStandard) ||
		!SuitsWorkingCapital(models.ClassStandard) {
		t.Error("standard entities take the full module set")
	}
}
