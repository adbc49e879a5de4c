package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rushabhkhandhar/one-stock-solution/internal/models"
)

// ParseDailyCSV reads a daily price history export: a header row
// naming at least Date and Close, one row per trading day, oldest
// first or last. Rows with null closes (trading halts) are skipped.
// The market feed service reuses it for benchmark index history.
func ParseDailyCSV(body []byte) (closes, volumes []models.SeriesPoint, err error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read quote header: %w", err)
	}

	dateCol, closeCol, volumeCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "close":
			closeCol = i
		case "volume":
			volumeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, nil, fmt.Errorf("quote export missing Date/Close columns: %v", header)
	}

	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, nil, fmt.Errorf("failed to read quote row: %w", readErr)
		}
		if len(record) <= closeCol {
			continue
		}

		day, parseErr := time.Parse("2006-01-02", strings.TrimSpace(record[dateCol]))
		if parseErr != nil {
			continue
		}
		closeVal, parseErr := strconv.ParseFloat(strings.TrimSpace(record[closeCol]), 64)
		if parseErr != nil || closeVal <= 0 {
			continue
		}

		period := day.Format("2006-01-02")
		closes = append(closes, models.SeriesPoint{Period: period, Date: day, Value: closeVal})

		if volumeCol >= 0 && len(record) > volumeCol {
			if vol, volErr := strconv.ParseFloat(strings.TrimSpace(record[volumeCol]), 64); volErr == nil {
				volumes = append(volumes, models.SeriesPoint{Period: period, Date: day, Value: vol})
			}
		}
	}

	if len(closes) == 0 {
		return nil, nil, fmt.Errorf("quote export contained no usable rows")
	}

	// Oldest first regardless of export order.
	if closes[0].Date.After(closes[len(closes)-1].Date) {
		reverse(closes)
		reverse(volumes)
	}
	return closes, volumes, nil
}

func reverse(points []models.SeriesPoint) {
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
}
