// -----------------------------------------------------------------------
// Trust Report - Cross-source validation outcome and trust score
// -----------------------------------------------------------------------

package models

// TrustOutcome classifies one concept comparison between sources.
type TrustOutcome string

const (
	// TrustMatch - both sources agree within tolerance after unit
	// normalization.
	TrustMatch TrustOutcome = "match"
	// TrustMismatch - both sources reported the concept and they
	// disagree beyond tolerance. Contrary evidence.
	TrustMismatch TrustOutcome = "mismatch"
	// TrustUnverifiable - one or both sources could not report the
	// concept. Absence of evidence, penalized more lightly.
	TrustUnverifiable TrustOutcome = "unverifiable"
)

// TrustBand buckets a trust score for reporting and the safety gate.
type TrustBand string

const (
	TrustHigh       TrustBand = "HIGH"
	TrustModerate   TrustBand = "MODERATE"
	TrustUnreliable TrustBand = "UNRELIABLE"
	// TrustUnknown - validation never ran, so there is no score to
	// band. Distinct from UNRELIABLE, which is a scored judgment.
	TrustUnknown TrustBand = "UNKNOWN"
)

// TrustRecord is the outcome of validating a single concept across the
// scraped and filing sources.
type TrustRecord struct {
	Concept        string       `json:"concept"`
	Outcome        TrustOutcome `json:"outcome"`
	PrimaryValue   float64      `json:"primary_value,omitempty"`
	SecondaryValue float64      `json:"secondary_value,omitempty"`
	DeltaPct       float64      `json:"delta_pct,omitempty"`
	ScaleAdjusted  bool         `json:"scale_adjusted,omitempty"` // matched only after 100x unit correction
	Detail         string       `json:"detail,omitempty"`
}

// TrustReport is the full cross-source validation result.
type TrustReport struct {
	Score        float64       `json:"score"` // 0..100
	Band         TrustBand     `json:"band"`
	Records      []TrustRecord `json:"records"`
	AuditorFlags []string      `json:"auditor_flags,omitempty"`
	GoingConcern bool          `json:"going_concern,omitempty"`
}

// Mismatches returns the number of mismatch records.
func (r TrustReport) Mismatches() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outcome == TrustMismatch {
			n++
		}
	}
	return n
}

// Unverifiable returns the number of unverifiable records.
func (r TrustReport) Unverifiable() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outcome == TrustUnverifiable {
			n++
		}
	}
	return n
}
