package ingestion

import "testing"

func TestParseDailyCSV(t *testing.T) {
	// Newest first, one halted day with a null close, volume column present.
	body := []byte(`Date,Open,High,Low,Close,Adj Close,Volume
2026-08-14,101,103,100,102.50,102.50,120000
2026-08-13,100,102,99,null,null,0
2026-08-12,99,101,98,100.25,100.25,95000
2026-08-11,98,100,97,99.00,99.00,110000
`)

	closes, volumes, err := ParseDailyCSV(body)
	if err != nil {
		t.Fatalf("ParseDailyCSV() error = %v", err)
	}

	if len(closes) != 3 {
		t.Fatalf("closes = %d rows, want 3 (halted day skipped)", len(closes))
	}
	if closes[0].Value != 99.00 || closes[2].Value != 102.50 {
		t.Errorf("closes not reordered oldest first: %+v", closes)
	}
	if closes[0].Period != "2026-08-11" {
		t.Errorf("Period = %q", closes[0].Period)
	}
	if len(volumes) != 3 || volumes[2].Value != 120000 {
		t.Errorf("volumes = %+v", volumes)
	}
}

func TestParseDailyCSVOldestFirstUnchanged(t *testing.T) {
	body := []byte("Date,Close\n2026-08-11,99\n2026-08-12,100\n")
	closes, _, err := ParseDailyCSV(body)
	if err != nil {
		t.Fatalf("ParseDailyCSV() error = %v", err)
	}
	if closes[0].Value != 99 {
		t.Errorf("already-ordered export reversed: %+v", closes)
	}
}

func TestParseDailyCSVErrors(t *testing.T) {
	if _, _, err := ParseDailyCSV([]byte("Timestamp,Price\n1,2\n")); err == nil {
		t.Error("export without Date/Close columns accepted")
	}
	if _, _, err := ParseDailyCSV([]byte("Date,Close\n2026-08-11,null\n")); err == nil {
		t.Error("export with no usable rows accepted")
	}
}
