package common

import (
	"testing"
	"time"
)

func stamps(now time.Time, daysAgo ...int) []time.Time {
	out := make([]time.Time, len(daysAgo))
	for i, d := range daysAgo {
		out[i] = now.AddDate(0, 0, -d)
	}
	return out
}

func TestObserveCadence(t *testing.T) {
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		daysAgo   []int
		minEvents int
		wantOK    bool
		wantGap   time.Duration
	}{
		{
			name:    "daily stream",
			daysAgo: []int{5, 4, 3, 2, 1}, minEvents: 4,
			wantOK: true, wantGap: 24 * time.Hour,
		},
		{
			name:    "quarterly stream",
			daysAgo: []int{270, 180, 90, 0}, minEvents: 4,
			wantOK: true, wantGap: 90 * 24 * time.Hour,
		},
		{
			name:    "unordered input",
			daysAgo: []int{1, 4, 2, 5, 3}, minEvents: 4,
			wantOK: true, wantGap: 24 * time.Hour,
		},
		{
			name:    "too few observations",
			daysAgo: []int{10, 0}, minEvents: 4,
			wantOK: false,
		},
		{
			name:    "one irregular gap does not dominate the median",
			daysAgo: []int{40, 4, 3, 2, 1, 0}, minEvents: 4,
			wantOK: true, wantGap: 24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cadence, ok := ObserveCadence(stamps(now, tt.daysAgo...), tt.minEvents)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && cadence.MedianGap != tt.wantGap {
				t.Errorf("MedianGap = %v, want %v", cadence.MedianGap, tt.wantGap)
			}
		})
	}
}

func TestCheckStaleness(t *testing.T) {
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		daysAgo   []int
		factor    float64
		wantKnown bool
		wantStale bool
	}{
		{
			name:    "fresh daily stream",
			daysAgo: []int{5, 4, 3, 2, 1},
			factor:  3, wantKnown: true, wantStale: false,
		},
		{
			name:    "quiet daily stream",
			daysAgo: []int{25, 24, 23, 22, 21},
			factor:  3, wantKnown: true, wantStale: true,
		},
		{
			// The same 21-day age is fine on a quarterly rhythm. The
			// threshold is relative to the stream's own cadence, not a
			// fixed calendar.
			name:    "quiet by daily standards, fresh by quarterly",
			daysAgo: []int{291, 201, 111, 21},
			factor:  3, wantKnown: true, wantStale: false,
		},
		{
			name:    "cadence unknown abstains",
			daysAgo: []int{400},
			factor:  3, wantKnown: false, wantStale: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckStaleness(stamps(now, tt.daysAgo...), now, tt.factor, 4)
			if res.Known != tt.wantKnown {
				t.Fatalf("Known = %v, want %v (%s)", res.Known, tt.wantKnown, res.Reason)
			}
			if res.IsStale != tt.wantStale {
				t.Errorf("IsStale = %v, want %v (%s)", res.IsStale, tt.wantStale, res.Reason)
			}
		})
	}
}
