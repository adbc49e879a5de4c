// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// Symbol represents a parsed exchange-qualified stock symbol.
// Format: EXCHANGE:CODE (e.g., "NSE:RELIANCE", "BSE:500325")
type Symbol struct {
	// Exchange is the exchange code (e.g., "NSE", "BSE")
	Exchange string
	// Code is the listing code (e.g., "RELIANCE", "500325")
	Code string
	// Raw is the original symbol string
	Raw string
}

// KnownExchanges lists the exchanges the ingestion layer understands.
var KnownExchanges = map[string]bool{
	"NSE": true,
	"BSE": true,
}

// DefaultExchange is used when parsing symbols without an exchange
// prefix. Can be overridden via config during app initialization.
var DefaultExchange = "NSE"

// SetDefaultExchange sets the default exchange for parsing symbols.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

// ParseSymbol parses an exchange-qualified symbol string.
// Supports formats:
//   - "NSE:RELIANCE" -> Exchange="NSE", Code="RELIANCE"
//   - "BSE.500325"   -> Exchange="BSE", Code="500325"
//   - "reliance"     -> Exchange=DefaultExchange, Code="RELIANCE"
func ParseSymbol(symbol string) Symbol {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Symbol{}
	}

	// Exchange prefix with colon separator (EXCHANGE:CODE)
	if idx := strings.Index(symbol, ":"); idx > 0 {
		return Symbol{
			Exchange: strings.ToUpper(symbol[:idx]),
			Code:     strings.ToUpper(symbol[idx+1:]),
			Raw:      symbol,
		}
	}

	// Exchange prefix with dot separator, only for known exchanges so
	// codes containing dots don't get split
	if idx := strings.Index(symbol, "."); idx > 0 {
		if prefix := strings.ToUpper(symbol[:idx]); KnownExchanges[prefix] {
			return Symbol{
				Exchange: prefix,
				Code:     strings.ToUpper(symbol[idx+1:]),
				Raw:      symbol,
			}
		}
	}

	// No exchange prefix - use default exchange
	return Symbol{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(symbol),
		Raw:      symbol,
	}
}

// String returns the full exchange-qualified symbol string.
func (s Symbol) String() string {
	if s.Exchange == "" || s.Code == "" {
		return s.Code
	}
	return s.Exchange + ":" + s.Code
}

// CacheKey returns a standardized key fragment for snapshot storage.
// Example: "NSE:RELIANCE" -> "nse/RELIANCE"
func (s Symbol) CacheKey() string {
	if s.Code == "" {
		return ""
	}
	exchange := strings.ToLower(s.Exchange)
	if exchange == "" {
		exchange = strings.ToLower(DefaultExchange)
	}
	return exchange + "/" + s.Code
}

// IsValid reports whether the symbol has a usable code.
func (s Symbol) IsValid() bool {
	return s.Code != ""
}
