// Package common provides shared utilities across the application.
package common

import (
	"fmt"
	"sort"
	"time"
)

// Cadence is the refresh rhythm a data stream has historically shown.
// It is derived from the stream's own observation timestamps, never
// from an assumed calendar: daily price files, quarterly shareholding
// snapshots and annual filings each teach us their own rhythm.
type Cadence struct {
	// MedianGap is the median interval between consecutive observations.
	MedianGap time.Duration
	// Samples is the number of gaps the median was taken over.
	Samples int
}

// StalenessResult contains the result of a staleness check.
type StalenessResult struct {
	// IsStale indicates the stream has gone quiet for longer than its
	// own cadence allows.
	IsStale bool
	// Known is false when there were too few observations to derive a
	// cadence; the check abstains rather than guessing.
	Known bool
	// Age is the time since the newest observation.
	Age time.Duration
	// Allowed is the maximum age the cadence tolerates (factor x median gap).
	Allowed time.Duration
	// Reason provides a human-readable explanation for the decision.
	Reason string
}

// ObserveCadence derives the refresh cadence from observation
// timestamps. Returns false when fewer than minEvents observations
// exist; a cadence built on too little history is worse than none.
func ObserveCadence(observations []time.Time, minEvents int) (Cadence, bool) {
	if minEvents < 2 {
		minEvents = 2
	}
	if len(observations) < minEvents {
		return Cadence{}, false
	}

	sorted := make([]time.Time, len(observations))
	copy(sorted, observations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	gaps := make([]time.Duration, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Sub(sorted[i-1])
		if gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return Cadence{}, false
	}

	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	median := gaps[len(gaps)/2]
	if len(gaps)%2 == 0 {
		median = (gaps[len(gaps)/2-1] + gaps[len(gaps)/2]) / 2
	}

	return Cadence{MedianGap: median, Samples: len(gaps)}, true
}

// CheckStaleness decides whether a data stream has gone stale relative
// to its own observed cadence. The stream is stale when the newest
// observation is older than factor times the median historical gap.
func CheckStaleness(observations []time.Time, now time.Time, factor float64, minEvents int) StalenessResult {
	cadence, ok := ObserveCadence(observations, minEvents)
	if !ok {
		return StalenessResult{
			IsStale: false,
			Known:   false,
			Reason:  fmt.Sprintf("only %d observations, cadence unknown", len(observations)),
		}
	}
	if factor <= 0 {
		factor = 1
	}

	newest := observations[0]
	for _, t := range observations[1:] {
		if t.After(newest) {
			newest = t
		}
	}

	age := now.Sub(newest)
	allowed := time.Duration(float64(cadence.MedianGap) * factor)

	if age > allowed {
		return StalenessResult{
			IsStale: true,
			Known:   true,
			Age:     age,
			Allowed: allowed,
			Reason: fmt.Sprintf("last update %s ago exceeds %.1fx observed cadence of %s",
				age.Round(time.Minute), factor, cadence.MedianGap.Round(time.Minute)),
		}
	}

	return StalenessResult{
		IsStale: false,
		Known:   true,
		Age:     age,
		Allowed: allowed,
		Reason: fmt.Sprintf("last update %s ago within %.1fx observed cadence of %s",
			age.Round(time.Minute), factor, cadence.MedianGap.Round(time.Minute)),
	}
}
