package feeds

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// histories builds matched daily series where every stock return is
// exactly multiple times the index return.
func histories(sessions int, multiple float64) (stock, index []models.SeriesPoint) {
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stockPrice, indexLevel := 100.0, 10000.0
	for i := 0; i < sessions; i++ {
		period := fmt.Sprintf("2025-%03d", i)
		stock = append(stock, models.SeriesPoint{Period: period, Date: day, Value: stockPrice})
		index = append(index, models.SeriesPoint{Period: period, Date: day, Value: indexLevel})

		r := 0.01
		if i%2 == 0 {
			r = -0.008
		}
		indexLevel *= 1 + r
		stockPrice *= 1 + multiple*r
		day = day.AddDate(0, 0, 1)
	}
	return stock, index
}

func TestBetaTracksReturnMultiple(t *testing.T) {
	stock, index := histories(260, 1.8)

	beta, ok := Beta(stock, index)
	if !ok {
		t.Fatal("beta unavailable despite a full year of overlap")
	}
	if math.Abs(beta-1.8) > 0.01 {
		t.Errorf("beta = %.4f, want 1.8", beta)
	}
}

func TestBetaRefusesShortOverlap(t *testing.T) {
	stock, index := histories(150, 1.0)
	if _, ok := Beta(stock, index); ok {
		t.Error("beta computed from fewer than 200 overlapping sessions")
	}
}

func TestBetaRefusesDisjointDates(t *testing.T) {
	stock, _ := histories(260, 1.0)
	_, index := histories(260, 1.0)
	for i := range index {
		index[i].Period = "x" + index[i].Period
	}
	if _, ok := Beta(stock, index); ok {
		t.Error("beta computed with no common sessions")
	}
}

func TestBetaRefusesFlatIndex(t *testing.T) {
	stock, index := histories(260, 1.0)
	for i := range index {
		index[i].Value = 10000
	}
	if _, ok := Beta(stock, index); ok {
		t.Error("beta computed against a zero-variance index")
	}
}
