package models

import (
	"strings"
	"testing"
	"time"
)

func TestEnvelopeArithmetic(t *testing.T) {
	revenue := NewScalar("pnl.revenue", 1200, UnitCurrencyCrore, SourceScraped)
	costs := NewScalar("pnl.costs", 900, UnitCurrencyCrore, SourceScraped)
	missing := Unavailable("pnl.other_income", "not on the fundamentals page")

	tests := []struct {
		name      string
		got       Envelope
		want      float64
		available bool
	}{
		{"add", Add("x", revenue, costs, UnitCurrencyCrore), 2100, true},
		{"sub", Sub("x", revenue, costs, UnitCurrencyCrore), 300, true},
		{"mul", Mul("x", revenue, costs, UnitCurrencyCrore), 1080000, true},
		{"div", Div("x", revenue, costs, UnitRatio), 1200.0 / 900.0, true},
		{"add with missing operand", Add("x", revenue, missing, UnitCurrencyCrore), 0, false},
		{"sub with missing operand", Sub("x", missing, costs, UnitCurrencyCrore), 0, false},
		{"div by zero", Div("x", revenue, NewScalar("z", 0, UnitCount, SourceScraped), UnitRatio), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Available != tt.available {
				t.Fatalf("Available = %v, want %v (reason %q)", tt.got.Available, tt.available, tt.got.Reason)
			}
			if tt.available && tt.got.Value != tt.want {
				t.Errorf("Value = %v, want %v", tt.got.Value, tt.want)
			}
			if !tt.available && tt.got.Reason == "" {
				t.Error("unavailable result carries no reason")
			}
		})
	}
}

func TestUnavailabilityReasonChains(t *testing.T) {
	missing := Unavailable("balance.total_debt", "not delivered by ingestion")
	derived := Add("derived.capital", missing, NewScalar("balance.equity", 500, UnitCurrencyCrore, SourceScraped), UnitCurrencyCrore)

	if derived.Available {
		t.Fatal("derived envelope should be unavailable")
	}
	if !strings.Contains(derived.Reason, "balance.total_debt") {
		t.Errorf("reason %q does not name the missing operand", derived.Reason)
	}
	if !strings.Contains(derived.Reason, "not delivered by ingestion") {
		t.Errorf("reason %q drops the original cause", derived.Reason)
	}
}

func TestGrowthPct(t *testing.T) {
	cur := NewScalar("cur", 132, UnitCurrencyCrore, SourceScraped)
	prev := NewScalar("prev", 120, UnitCurrencyCrore, SourceScraped)

	g := GrowthPct("growth", cur, prev)
	if !g.Available {
		t.Fatalf("growth unavailable: %s", g.Reason)
	}
	if g.Value < 9.99 || g.Value > 10.01 {
		t.Errorf("growth = %v, want 10", g.Value)
	}

	zeroBase := GrowthPct("growth", cur, NewScalar("prev", 0, UnitCurrencyCrore, SourceScraped))
	if zeroBase.Available {
		t.Error("growth on a zero base must be unavailable, not Inf")
	}
}

func TestSetMergeIsImmutable(t *testing.T) {
	base := Set{}.Merge(NewScalar("a", 1, UnitCount, SourceScraped))
	merged := base.Merge(NewScalar("b", 2, UnitCount, SourceScraped))

	if len(base) != 1 {
		t.Fatalf("receiver mutated: len = %d", len(base))
	}
	if len(merged) != 2 {
		t.Fatalf("merged len = %d, want 2", len(merged))
	}
	// Later envelopes for the same name win.
	merged = merged.Merge(NewScalar("a", 9, UnitCount, SourceDerived))
	if v, _ := merged.ScalarOf("a"); v != 9 {
		t.Errorf("merge did not overwrite: a = %v", v)
	}
}

func TestSetAccessorsDistinguishMissingFromUnavailable(t *testing.T) {
	s := Set{}.Merge(
		NewScalar("pnl.revenue", 1200, UnitCurrencyCrore, SourceScraped),
		Unavailable("pnl.eps", "parse failure"),
	)

	if _, ok := s.Get("pnl.eps"); !ok {
		t.Error("Get must see produced-but-unavailable envelopes")
	}
	if s.Has("pnl.eps") {
		t.Error("Has must be false for unavailable envelopes")
	}
	if _, ok := s.ScalarOf("pnl.eps"); ok {
		t.Error("ScalarOf must not return a payload for unavailable envelopes")
	}
	if _, ok := s.Get("never.produced"); ok {
		t.Error("Get must be false for names never produced")
	}

	available, unavailable := s.Counts()
	if available != 1 || unavailable != 1 {
		t.Errorf("Counts = (%d, %d), want (1, 1)", available, unavailable)
	}
}

func TestSeriesEnvelope(t *testing.T) {
	points := []SeriesPoint{
		{Date: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Value: 100},
		{Date: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), Value: 104},
	}
	e := NewSeries("price.close", points, UnitCurrencyPerShare, SourceMarket)

	latest, ok := e.Latest()
	if !ok || latest.Value != 104 {
		t.Fatalf("Latest = %v %v, want 104", latest.Value, ok)
	}

	// The constructor copies; mutating the caller's slice must not leak in.
	points[1].Value = 999
	if latest, _ := e.Latest(); latest.Value != 104 {
		t.Error("series constructor shares the caller's backing array")
	}

	empty := NewSeries("price.close", nil, UnitCurrencyPerShare, SourceMarket)
	if _, ok := empty.Latest(); ok {
		t.Error("empty series has no latest point")
	}
}
