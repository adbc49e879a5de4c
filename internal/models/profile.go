package models

// Classification drives the capability gate: lenders have statement
// shapes that make enterprise-cashflow analytics meaningless.
type Classification string

const (
	ClassStandard Classification = "standard"
	ClassBank     Classification = "bank"
	ClassNBFC     Classification = "nbfc"
)

// Profile describes the entity under analysis. Built once by ingestion
// and treated as read-only by everything downstream.
type Profile struct {
	Symbol         string         `json:"symbol"`
	Name           string         `json:"name"`
	Classification Classification `json:"classification"`
	Sector         string         `json:"sector,omitempty"`
	Industry       string         `json:"industry,omitempty"`
	Exchange       string         `json:"exchange,omitempty"`
	FiscalYears    []string       `json:"fiscal_years,omitempty"` // labels oldest first, e.g. "FY2021"
}

// IsLender reports whether the entity is a bank or NBFC.
func (p Profile) IsLender() bool {
	return p.Classification == ClassBank || p.Classification == ClassNBFC
}
