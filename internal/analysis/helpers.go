// Package analysis implements the pipeline's calculation modules. Each
// module is a pure function over the envelope set: no I/O, thresholds
// injected from config, missing inputs surfacing as unavailable
// outputs rather than errors.
package analysis

import (
	"fmt"
	"math"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// need reads the latest value of a series envelope, or fails the
// module with the expected unavailable error.
func need(env models.Set, name string) (float64, error) {
	if v, ok := env.LatestOf(name); ok {
		return v, nil
	}
	if v, ok := env.ScalarOf(name); ok {
		return v, nil
	}
	return 0, &models.UnavailableError{Input: name}
}

// needSeries reads a series envelope with at least min points.
func needSeries(env models.Set, name string, min int) ([]models.SeriesPoint, error) {
	series, ok := env.SeriesOf(name)
	if !ok {
		return nil, &models.UnavailableError{Input: name}
	}
	if len(series) < min {
		return nil, &models.UnavailableError{Input: fmt.Sprintf("%s (%d of %d periods)", name, len(series), min)}
	}
	return series, nil
}

// needText reads a text envelope.
func needText(env models.Set, name string) (string, error) {
	if t, ok := env.TextOf(name); ok && t != "" {
		return t, nil
	}
	return "", &models.UnavailableError{Input: name}
}

// prior returns the value n positions before the newest series point.
func prior(series []models.SeriesPoint, n int) (float64, bool) {
	idx := len(series) - 1 - n
	if idx < 0 {
		return 0, false
	}
	return series[idx].Value, true
}

// cagr computes the compound annual growth rate in percent across the
// whole series. Undefined for non-positive endpoints.
func cagr(series []models.SeriesPoint) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	first, last := series[0].Value, series[len(series)-1].Value
	if first <= 0 || last <= 0 {
		return 0, false
	}
	years := float64(len(series) - 1)
	return (math.Pow(last/first, 1/years) - 1) * 100, true
}

// yoy computes the latest year-over-year change in percent.
func yoy(series []models.SeriesPoint) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	prev := series[len(series)-2].Value
	if prev == 0 {
		return 0, false
	}
	return (series[len(series)-1].Value - prev) / math.Abs(prev) * 100, true
}

// tail returns the last n points of a series (all of them when
// shorter).
func tail(series []models.SeriesPoint, n int) []models.SeriesPoint {
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

// sma computes the simple moving average of the last n values.
func sma(values []float64, n int) (float64, bool) {
	if len(values) < n || n <= 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n), true
}

// rsi computes the Wilder relative strength index over the given
// period from a close series.
func rsi(values []float64, period int) (float64, bool) {
	if len(values) < period+1 {
		return 0, false
	}

	gains, losses := 0.0, 0.0
	start := len(values) - period
	for i := start; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, true
		}
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// slope returns the per-period linear regression slope of the series
// values, for direction-of-travel judgments.
func slope(values []float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (fn*sumXY - sumX*sumY) / denom, true
}

// scalar is shorthand for a derived scalar envelope.
func scalar(name string, value float64, unit models.Unit) models.Envelope {
	return models.NewScalar(name, value, unit, models.SourceDerived)
}
