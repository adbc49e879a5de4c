// -----------------------------------------------------------------------
// Kill Switch - Absolute verdict override on data quality failures
// -----------------------------------------------------------------------

// Package safety implements the veto layer applied after consensus. A
// trip forces the verdict to SUSPENDED regardless of how the votes
// fell: no rating is better than a rating on data we cannot stand
// behind.
package safety

import (
	"fmt"
	"math"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/rushabhkhandhar/one-stock-solution/internal/common"
	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// KillSwitch evaluates every veto condition and reports all trips; the
// first trip becomes the headline reason.
type KillSwitch struct {
	cfg    common.SafetyConfig
	logger arbor.ILogger
}

// NewKillSwitch builds the safety gate.
func NewKillSwitch(cfg common.SafetyConfig, logger arbor.ILogger) *KillSwitch {
	return &KillSwitch{cfg: cfg, logger: logger}
}

// Check runs all veto conditions:
//
//  1. trust score below the unreliable floor
//  2. any critical envelope unavailable
//  3. latest single-period price move beyond a multiple of recent
//     volatility
//  4. any watched data class stale relative to its own observed
//     update cadence
//
// Conditions that cannot be judged (no trust report, too little price
// history, unknown cadence) abstain rather than trip.
func (k *KillSwitch) Check(env models.Set, trust *models.TrustReport, refreshes map[models.DataClass][]time.Time, now time.Time) models.Veto {
	var trips []string

	if trust != nil && trust.Score < k.cfg.TrustFloor {
		trips = append(trips, fmt.Sprintf("trust score %.0f below floor %.0f", trust.Score, k.cfg.TrustFloor))
	}

	trips = append(trips, k.checkCritical(env)...)

	if trip, tripped := k.checkPriceAnomaly(env); tripped {
		trips = append(trips, trip)
	}

	trips = append(trips, k.checkStaleness(refreshes, now)...)

	if len(trips) == 0 {
		return models.Veto{}
	}

	k.logger.Warn().
		Int("trips", len(trips)).
		Str("reason", trips[0]).
		Msg("Kill switch tripped - verdict suspended")

	return models.Veto{
		Tripped: true,
		Reason:  trips[0],
		Trips:   trips,
	}
}

// checkCritical verifies the envelopes the verdict cannot exist
// without. A critical series with no usable latest point counts as
// missing.
func (k *KillSwitch) checkCritical(env models.Set) []string {
	var trips []string
	for _, name := range k.cfg.CriticalSignals {
		e, ok := env.Get(name)
		if !ok || !e.Available {
			reason := "missing"
			if ok && e.Reason != "" {
				reason = e.Reason
			}
			trips = append(trips, fmt.Sprintf("critical signal %s unavailable (%s)", name, reason))
			continue
		}
		if e.Kind == models.PayloadSeries {
			if _, ok := e.Latest(); !ok {
				trips = append(trips, fmt.Sprintf("critical signal %s has no observations", name))
			}
		}
	}
	return trips
}

// checkPriceAnomaly compares the latest single-period return against a
// multiple of the standard deviation of recent returns. The multiple,
// not a fixed percentage, is what makes the check meaningful across
// volatility regimes.
func (k *KillSwitch) checkPriceAnomaly(env models.Set) (string, bool) {
	series, ok := env.SeriesOf("price.close")
	if !ok || len(series) < k.cfg.MinObservations {
		return "", false
	}

	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, (series[i].Value-prev)/prev)
	}
	if len(returns) < k.cfg.MinObservations-1 {
		return "", false
	}

	// Window excludes the move under test.
	latest := returns[len(returns)-1]
	window := returns[:len(returns)-1]
	if len(window) > k.cfg.AnomalyWindowDays {
		window = window[len(window)-k.cfg.AnomalyWindowDays:]
	}

	sigma := stddev(window)
	if sigma == 0 {
		return "", false
	}

	if math.Abs(latest) > k.cfg.AnomalySigma*sigma {
		return fmt.Sprintf("price moved %.1f%% in one session, %.1fx the %.2f%% recent volatility (limit %.0fx)",
			latest*100, math.Abs(latest)/sigma, sigma*100, k.cfg.AnomalySigma), true
	}
	return "", false
}

// checkStaleness judges each watched data class against its own
// historical update rhythm.
func (k *KillSwitch) checkStaleness(refreshes map[models.DataClass][]time.Time, now time.Time) []string {
	var trips []string
	for _, class := range []models.DataClass{
		models.DataClassPrices,
		models.DataClassFundamentals,
		models.DataClassShareholding,
		models.DataClassFilings,
	} {
		observations, ok := refreshes[class]
		if !ok || len(observations) == 0 {
			continue
		}
		res := common.CheckStaleness(observations, now, k.cfg.StalenessFactor, k.cfg.MinCadenceEvents)
		if res.Known && res.IsStale {
			trips = append(trips, fmt.Sprintf("%s data stale: %s", class, res.Reason))
		}
	}
	return trips
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}
