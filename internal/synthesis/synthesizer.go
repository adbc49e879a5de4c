// Package synthesis provides pure calculation functions for the
// consensus rating. All functions are stateless and perform no I/O.
package synthesis

import (
	"fmt"
	"sort"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// Synthesize folds the registered vote slots into a candidate rating.
//
// Counting rules:
//   - every vote slot counts toward Registered
//   - only votes with a stance count toward Available
//   - positive_fraction = positive / available
//   - a module whose inputs were unavailable contributes nothing to
//     either side of the fraction; it is never treated as neutral
//
// Rating (thresholds from config, boundaries inclusive):
//   - positive_fraction >= buy threshold  -> BUY
//   - positive_fraction >= hold threshold -> HOLD
//   - otherwise                           -> SELL
//
// With zero available votes there is no evidence to rate on; the
// caller suspends the verdict.
func Synthesize(cfg common.SynthesisConfig, votes []models.Vote) models.Consensus {
	c := models.Consensus{Registered: len(votes)}

	for _, v := range votes {
		if !v.Available {
			continue
		}
		c.Available++
		switch v.Direction {
		case models.VotePositive:
			c.Positive++
		case models.VoteNegative:
			c.Negative++
		default:
			c.Neutral++
		}
	}

	c.Confidence = confidence(cfg, c.Available)

	if c.Available == 0 {
		c.PositiveFraction = 0
		c.Rating = models.RatingSuspended
		return c
	}

	c.PositiveFraction = float64(c.Positive) / float64(c.Available)

	switch {
	case c.PositiveFraction >= cfg.BuyThreshold:
		c.Rating = models.RatingBuy
	case c.PositiveFraction >= cfg.HoldThreshold:
		c.Rating = models.RatingHold
	default:
		c.Rating = models.RatingSell
	}

	c.Drivers = drivers(votes, c.Rating)
	return c
}

// confidence grades evidence breadth by available vote count.
func confidence(cfg common.SynthesisConfig, available int) models.Confidence {
	switch {
	case available >= cfg.HighFloor:
		return models.ConfidenceHigh
	case available >= cfg.MediumFloor:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// drivers picks the rationales that argue the final direction, for the
// report thesis. Sorted by signal name for deterministic output.
func drivers(votes []models.Vote, rating models.Rating) []string {
	var want models.Direction
	switch rating {
	case models.RatingBuy:
		want = models.VotePositive
	case models.RatingSell:
		want = models.VoteNegative
	default:
		return nil
	}

	picked := make([]models.Vote, 0, len(votes))
	for _, v := range votes {
		if v.Available && v.Direction == want && v.Rationale != "" {
			picked = append(picked, v)
		}
	}
	sort.Slice(picked, func(i, j int) bool { return picked[i].Signal < picked[j].Signal })

	out := make([]string, 0, len(picked))
	for _, v := range picked {
		out = append(out, fmt.Sprintf("%s: %s", v.Signal, v.Rationale))
	}
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
