// -----------------------------------------------------------------------
// Capability Gate - What analysis applies to which entity class
// -----------------------------------------------------------------------

// Package capability decides which analysis families apply to an
// entity. Banks and NBFCs fund themselves with deposits and borrowings,
// so free-cash-flow valuation, manufacturing solvency scores and
// working-capital cycles are meaningless for them: those modules are
// skipped, not failed, and never enter the consensus denominator.
package capability

import (
	"strings"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Sector strings that identify lenders when statement shape is
// inconclusive. Matched case-insensitively as substrings.
var lenderSectors = []string{
	"bank",
	"nbfc",
	"finance",
	"financial services",
	"housing finance",
}

var bankMarkers = []string{"bank"}

// Classify determines the entity class from sector metadata and the
// shape of the seeded statements. Deposits on the balance sheet mark a
// bank; a financing sector with interest-driven revenue marks an NBFC;
// everything else is standard.
func Classify(sector, industry string, seed models.Set) models.Classification {
	text := strings.ToLower(sector + " " + industry)

	hasDeposits := seed.Has("balance.deposits")
	interestShare, hasInterestShare := seed.ScalarOf("pnl.interest_income_share")

	if hasDeposits {
		return models.ClassBank
	}
	for _, marker := range bankMarkers {
		if strings.Contains(text, marker) {
			return models.ClassBank
		}
	}

	lenderSector := false
	for _, s := range lenderSectors {
		if strings.Contains(text, s) {
			lenderSector = true
			break
		}
	}
	if lenderSector {
		// A financing book shows up as interest income dominating revenue
		if hasInterestShare && interestShare >= 0.5 {
			return models.ClassNBFC
		}
		if !hasInterestShare {
			return models.ClassNBFC
		}
	}

	return models.ClassStandard
}

// SuitsEnterpriseValuation reports whether free-cash-flow valuation
// (DCF) is meaningful for the entity class.
func SuitsEnterpriseValuation(c models.Classification) bool {
	return c == models.ClassStandard
}

// SuitsManufacturingSolvency reports whether Altman-style solvency
// scoring is meaningful for the entity class.
func SuitsManufacturingSolvency(c models.Classification) bool {
	return c == models.ClassStandard
}

// SuitsWorkingCapital reports whether working-capital cycle analysis
// is meaningful for the entity class.
func SuitsWorkingCapital(c models.Classification) bool {
	return c == models.ClassStandard
}
