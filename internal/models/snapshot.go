package models

import "time"

// Snapshot is a cached external download (fundamentals HTML, quote CSV,
// annual report PDF). The cache is the only persistence in the system;
// analysis results are never stored.
type Snapshot struct {
	Key         string    `json:"key" badgerhold:"key"` // e.g. "fundamentals/RELIANCE"
	Symbol      string    `json:"symbol" badgerholdIndex:"Symbol"`
	SourceURL   string    `json:"source_url"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// DataClass names a watched external data stream for staleness tracking.
type DataClass string

const (
	DataClassPrices       DataClass = "prices"
	DataClassFundamentals DataClass = "fundamentals"
	DataClassShareholding DataClass = "shareholding"
	DataClassFilings      DataClass = "filings"
)

// RefreshEvent records one observed update of a data class for a
// symbol. The history of these events is what the staleness check
// derives its expected cadence from.
type RefreshEvent struct {
	ID         uint64    `json:"id" badgerhold:"key"`
	Symbol     string    `json:"symbol" badgerholdIndex:"Symbol"`
	Class      DataClass `json:"class"`
	ObservedAt time.Time `json:"observed_at"` // timestamp carried by the data itself
	RecordedAt time.Time `json:"recorded_at"`
}
