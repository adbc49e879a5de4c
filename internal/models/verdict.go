// -----------------------------------------------------------------------
// Verdict - Final rating schema emitted to the report
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Rating is the final recommendation label.
type Rating string

const (
	RatingBuy       Rating = "BUY"
	RatingHold      Rating = "HOLD"
	RatingSell      Rating = "SELL"
	RatingSuspended Rating = "SUSPENDED" // safety gate veto, absolute
)

// Veto is the safety gate outcome. Reason is the headline trip; Trips
// lists every condition that fired.
type Veto struct {
	Tripped bool     `json:"tripped"`
	Reason  string   `json:"reason,omitempty"`
	Trips   []string `json:"trips,omitempty"`
}

// Verdict is the single structured output of a run. The schema is
// validated before report assembly so a malformed verdict surfaces as a
// module fault instead of a bad report.
type Verdict struct {
	Symbol           string     `json:"symbol" validate:"required"`
	RunID            string     `json:"run_id" validate:"required"`
	Rating           Rating     `json:"rating" validate:"required,oneof=BUY HOLD SELL SUSPENDED"`
	PositiveFraction float64    `json:"positive_fraction" validate:"gte=0,lte=1"`
	TrustScore       float64    `json:"trust_score" validate:"gte=0,lte=100"`
	TrustBand        TrustBand  `json:"trust_band" validate:"required,oneof=HIGH MODERATE UNRELIABLE UNKNOWN"`
	Confidence       Confidence `json:"confidence" validate:"required,oneof=HIGH MEDIUM LOW"`
	VetoReason       string     `json:"veto_reason,omitempty"`
	VotesAvailable   int        `json:"votes_available" validate:"gte=0"`
	VotesRegistered  int        `json:"votes_registered" validate:"gte=0"`
	SignalsAvailable int        `json:"signals_available" validate:"gte=0"`
	SignalsMissing   int        `json:"signals_missing" validate:"gte=0"`
	Thesis           []string   `json:"thesis,omitempty"`
	GeneratedAt      time.Time  `json:"generated_at"`
}

var verdictValidator = validator.New()

// Validate checks the verdict against its schema tags plus the
// cross-field rules the tags cannot express.
func (v *Verdict) Validate() error {
	if err := verdictValidator.Struct(v); err != nil {
		return fmt.Errorf("verdict schema: %w", err)
	}
	if v.VotesAvailable > v.VotesRegistered {
		return fmt.Errorf("verdict schema: available votes %d exceed registered %d", v.VotesAvailable, v.VotesRegistered)
	}
	if v.Rating == RatingSuspended && v.VetoReason == "" {
		return fmt.Errorf("verdict schema: suspended rating requires a veto reason")
	}
	return nil
}
