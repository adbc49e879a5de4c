package synthesis

import (
	"testing"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

func defaultCfg() common.SynthesisConfig {
	return common.NewDefaultConfig().Synthesis
}

func makeVotes(positive, neutral, negative, unavailable int) []models.Vote {
	var votes []models.Vote
	add := func(n int, build func(string) models.Vote) {
		for i := 0; i < n; i++ {
			votes = append(votes, build(string(rune('a'+len(votes)))))
		}
	}
	add(positive, func(s string) models.Vote { return models.PositiveVote("sig."+s, "up") })
	add(neutral, func(s string) models.Vote { return models.NeutralVote("sig."+s, "flat") })
	add(negative, func(s string) models.Vote { return models.NegativeVote("sig."+s, "down") })
	add(unavailable, func(s string) models.Vote { return models.UnavailableVote("sig."+s, "inputs missing") })
	return votes
}

func TestSynthesizeRatings(t *testing.T) {
	tests := []struct {
		name         string
		positive     int
		neutral      int
		negative     int
		unavailable  int
		wantRating   models.Rating
		wantFraction float64
	}{
		{
			// 12 positive of 17 available = 0.706, above the 0.65 buy line.
			name: "buy", positive: 12, neutral: 3, negative: 2, unavailable: 3,
			wantRating: models.RatingBuy, wantFraction: 12.0 / 17.0,
		},
		{
			name: "hold", positive: 8, neutral: 5, negative: 3, unavailable: 0,
			wantRating: models.RatingHold, wantFraction: 0.5,
		},
		{
			name: "sell", positive: 3, neutral: 4, negative: 8, unavailable: 2,
			wantRating: models.RatingSell, wantFraction: 0.2,
		},
		{
			// Boundary inclusive: exactly 0.65 is a BUY.
			name: "buy boundary", positive: 13, neutral: 7, negative: 0, unavailable: 0,
			wantRating: models.RatingBuy, wantFraction: 0.65,
		},
		{
			// Boundary inclusive: exactly 0.45 is a HOLD.
			name: "hold boundary", positive: 9, neutral: 11, negative: 0, unavailable: 0,
			wantRating: models.RatingHold, wantFraction: 0.45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Synthesize(defaultCfg(), makeVotes(tt.positive, tt.neutral, tt.negative, tt.unavailable))
			if c.Rating != tt.wantRating {
				t.Fatalf("Rating = %s, want %s (fraction %.3f)", c.Rating, tt.wantRating, c.PositiveFraction)
			}
			if diff := c.PositiveFraction - tt.wantFraction; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("PositiveFraction = %.4f, want %.4f", c.PositiveFraction, tt.wantFraction)
			}
			wantAvailable := tt.positive + tt.neutral + tt.negative
			if c.Available != wantAvailable {
				t.Errorf("Available = %d, want %d", c.Available, wantAvailable)
			}
			if c.Registered != wantAvailable+tt.unavailable {
				t.Errorf("Registered = %d, want %d", c.Registered, wantAvailable+tt.unavailable)
			}
		})
	}
}

func TestUnavailableVotesExcludedFromBothSides(t *testing.T) {
	// 2 of 3 available positive. If the unavailable slots leaked into the
	// denominator the fraction would be 0.2 and the rating SELL.
	votes := makeVotes(2, 0, 1, 7)
	c := Synthesize(defaultCfg(), votes)

	if c.PositiveFraction < 0.666 || c.PositiveFraction > 0.667 {
		t.Fatalf("PositiveFraction = %.3f, unavailable votes leaked into the denominator", c.PositiveFraction)
	}
	if c.Rating != models.RatingBuy {
		t.Errorf("Rating = %s, want BUY", c.Rating)
	}
}

func TestZeroAvailableSuspends(t *testing.T) {
	c := Synthesize(defaultCfg(), makeVotes(0, 0, 0, 17))
	if c.Rating != models.RatingSuspended {
		t.Fatalf("Rating = %s, want SUSPENDED with no evidence", c.Rating)
	}
	if c.PositiveFraction != 0 {
		t.Errorf("PositiveFraction = %v, want 0", c.PositiveFraction)
	}

	empty := Synthesize(defaultCfg(), nil)
	if empty.Rating != models.RatingSuspended {
		t.Errorf("Rating with no votes = %s, want SUSPENDED", empty.Rating)
	}
}

func TestConfidenceFloors(t *testing.T) {
	tests := []struct {
		available int
		want      models.Confidence
	}{
		{12, models.ConfidenceHigh},
		{13, models.ConfidenceHigh},
		{11, models.ConfidenceMedium},
		{7, models.ConfidenceMedium},
		{6, models.ConfidenceLow},
		{0, models.ConfidenceLow},
	}

	for _, tt := range tests {
		c := Synthesize(defaultCfg(), makeVotes(tt.available, 0, 0, 0))
		if c.Confidence != tt.want {
			t.Errorf("confidence with %d available = %s, want %s", tt.available, c.Confidence, tt.want)
		}
	}
}

func TestDriversArgueTheRatingDirection(t *testing.T) {
	votes := []models.Vote{
		models.PositiveVote("quality.piotroski", "F-Score 8 of 9"),
		models.PositiveVote("valuation.dcf", "32% upside to intrinsic value"),
		models.NegativeVote("technicals.momentum", "below 200-day average"),
	}
	c := Synthesize(defaultCfg(), votes)
	if c.Rating != models.RatingBuy {
		t.Fatalf("Rating = %s, want BUY", c.Rating)
	}
	if len(c.Drivers) != 2 {
		t.Fatalf("Drivers = %v, want the two positive rationales", c.Drivers)
	}
	for _, d := range c.Drivers {
		if d == "technicals.momentum: below 200-day average" {
			t.Error("a negative rationale entered the BUY thesis")
		}
	}
}
