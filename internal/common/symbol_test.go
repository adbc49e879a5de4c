package common

import "testing"

func TestParseSymbol(t *testing.T) {
	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
	}{
		{"NSE:RELIANCE", "NSE", "RELIANCE"},
		{"bse:500325", "BSE", "500325"},
		{"BSE.500325", "BSE", "500325"},
		{"reliance", "NSE", "RELIANCE"},
		{"  TCS  ", "NSE", "TCS"},
		// Dot codes only split on known exchange prefixes.
		{"M.M", "NSE", "M.M"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseSymbol(tt.input)
			if got.Exchange != tt.wantExchange || got.Code != tt.wantCode {
				t.Errorf("ParseSymbol(%q) = %s:%s, want %s:%s",
					tt.input, got.Exchange, got.Code, tt.wantExchange, tt.wantCode)
			}
		})
	}
}

func TestSymbolString(t *testing.T) {
	if got := ParseSymbol("NSE:RELIANCE").String(); got != "NSE:RELIANCE" {
		t.Errorf("String() = %q", got)
	}
	if got := (Symbol{}).String(); got != "" {
		t.Errorf("empty String() = %q", got)
	}
}

func TestSymbolCacheKey(t *testing.T) {
	if got := ParseSymbol("BSE:500325").CacheKey(); got != "bse/500325" {
		t.Errorf("CacheKey() = %q, want bse/500325", got)
	}
	if got := ParseSymbol("reliance").CacheKey(); got != "nse/RELIANCE" {
		t.Errorf("CacheKey() = %q, want nse/RELIANCE", got)
	}
	if got := (Symbol{}).CacheKey(); got != "" {
		t.Errorf("empty CacheKey() = %q, want empty", got)
	}
}

func TestSymbolIsValid(t *testing.T) {
	if !ParseSymbol("TCS").IsValid() {
		t.Error("TCS must be valid")
	}
	if ParseSymbol("   ").IsValid() {
		t.Error("blank input must be invalid")
	}
}
