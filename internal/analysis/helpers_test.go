package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

func fy(values ...float64) []models.SeriesPoint {
	out := make([]models.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = models.SeriesPoint{Period: "FY", Value: v}
	}
	return out
}

func TestCAGR(t *testing.T) {
	tests := []struct {
		name   string
		series []models.SeriesPoint
		want   float64
		ok     bool
		margin float64
	}{
		{"doubling over one year", fy(100, 200), 100, true, 0.01},
		{"10 percent over three years", fy(100, 110, 121, 133.1), 10, true, 0.01},
		{"flat", fy(100, 100, 100), 0, true, 0.001},
		{"decline", fy(100, 81), -19, true, 0.01},
		{"zero start undefined", fy(0, 100), 0, false, 0},
		{"negative endpoint undefined", fy(100, -20), 0, false, 0},
		{"single point undefined", fy(100), 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cagr(tt.series)
			if ok != tt.ok {
				t.Fatalf("cagr() ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > tt.margin {
				t.Errorf("cagr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYoY(t *testing.T) {
	tests := []struct {
		name   string
		series []models.SeriesPoint
		want   float64
		ok     bool
	}{
		{"growth", fy(100, 120), 20, true},
		{"decline", fy(120, 90), -25, true},
		{"loss narrowing is an improvement", fy(-100, -40), 60, true},
		{"zero base undefined", fy(0, 50), 0, false},
		{"single point undefined", fy(50), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := yoy(tt.series)
			if ok != tt.ok {
				t.Fatalf("yoy() ok = %v, want %v", ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 0.001 {
				t.Errorf("yoy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}

	if got, ok := sma(values, 3); !ok || got != 5 {
		t.Errorf("sma(3) = %v %v, want 5 over the last three values", got, ok)
	}
	if got, ok := sma(values, 6); !ok || got != 3.5 {
		t.Errorf("sma(6) = %v %v, want 3.5", got, ok)
	}
	if _, ok := sma(values, 7); ok {
		t.Error("sma must refuse a window longer than the data")
	}
}

func TestRSI(t *testing.T) {
	up := make([]float64, 20)
	down := make([]float64, 20)
	flat := make([]float64, 20)
	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 100 - float64(i)
		flat[i] = 100
	}

	if got, ok := rsi(up, 14); !ok || got != 100 {
		t.Errorf("rsi(up) = %v %v, want 100 with no losses", got, ok)
	}
	if got, ok := rsi(down, 14); !ok || got != 0 {
		t.Errorf("rsi(down) = %v %v, want 0 with no gains", got, ok)
	}
	if got, ok := rsi(flat, 14); !ok || got != 50 {
		t.Errorf("rsi(flat) = %v %v, want the 50 midpoint", got, ok)
	}
	if _, ok := rsi(up[:10], 14); ok {
		t.Error("rsi must refuse fewer than period+1 closes")
	}
}

func TestSlope(t *testing.T) {
	if got, ok := slope([]float64{1, 2, 3, 4}); !ok || math.Abs(got-1) > 1e-9 {
		t.Errorf("slope = %v %v, want 1", got, ok)
	}
	if got, ok := slope([]float64{10, 8, 6}); !ok || math.Abs(got+2) > 1e-9 {
		t.Errorf("slope = %v %v, want -2", got, ok)
	}
	if _, ok := slope([]float64{5}); ok {
		t.Error("slope undefined on one point")
	}
}

func TestNeedAccessors(t *testing.T) {
	env := models.Set{}.Merge(
		models.NewScalar("a", 7, models.UnitRatio, models.SourceScraped),
		models.NewSeries("s", fy(1, 2, 3), models.UnitCurrencyCrore, models.SourceScraped),
		models.Unavailable("gone", "not delivered"),
	)

	if v, err := need(env, "a"); err != nil || v != 7 {
		t.Errorf("need(scalar) = %v, %v", v, err)
	}
	if v, err := need(env, "s"); err != nil || v != 3 {
		t.Errorf("need(series latest) = %v, %v", v, err)
	}

	_, err := need(env, "gone")
	if err == nil {
		t.Fatal("need() must fail on unavailable input")
	}
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Errorf("need() error %v is not in the expected-degradation class", err)
	}

	if _, err := needSeries(env, "s", 5); err == nil {
		t.Error("needSeries must enforce the minimum length")
	}
}
