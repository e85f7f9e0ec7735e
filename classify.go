package folio

import (
	"slices"
	"strings"
)

// Classification is the asset type and location guessed for a symbol.
type Classification struct {
	Type     AssetType
	Location Location
}

// Profile is the company profile of a symbol, as reported by a provider.
type Profile struct {
	Name     string `json:"name,omitempty"`
	Country  string `json:"country,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Currency string `json:"-"`
}

// QuoteMeta is the metadata attached to a quote by a provider.
type QuoteMeta struct {
	Currency  string
	Exchange  string
	QuoteType string
}

// well known bond funds.
var bondETFs = []string{"BND", "AGG", "TLT", "IEF", "SHY", "LQD", "HYG", "MUB", "VCIT", "VCSH", "BSV", "BIV", "BLV", "VBIAX"}

// well known international (non US) funds.
var internationalETFs = []string{"VXUS", "VEA", "VWO", "IEMG", "EFA", "IXUS", "ACWI", "VTIAX"}

// cryptoMarkers are substrings that identify a crypto currency ticker.
var cryptoMarkers = []string{"-USD", "BTC", "ETH"}

// Classify guesses the type and location of symbol.
//
// The symbol alone is tried first: crypto markers, then the lists of known bond and
// international funds. Otherwise the profile country decides the location of a stock.
// The quote metadata, when given, has the last word: crypto quote types are coins, and quotes
// in a currency other than USD (or on the Korean exchange) are non US stocks.
// Without any information the symbol is a US stock.
func Classify(symbol string, profile *Profile, meta *QuoteMeta) Classification {
	c := classifySymbol(NormalizeSymbol(symbol), profile)
	if meta == nil {
		return c
	}
	switch {
	case strings.EqualFold(meta.QuoteType, "CRYPTOCURRENCY"):
		return Classification{Coin, NonUS}
	case meta.Currency != "" && !strings.EqualFold(meta.Currency, "USD"),
		strings.Contains(strings.ToUpper(meta.Exchange), "KSC"):
		return Classification{Stock, NonUS}
	}
	return c
}

func classifySymbol(symbol string, profile *Profile) Classification {
	for _, m := range cryptoMarkers {
		if strings.Contains(symbol, m) {
			return Classification{Coin, NonUS}
		}
	}
	if slices.Contains(bondETFs, symbol) {
		return Classification{Bond, US}
	}
	if slices.Contains(internationalETFs, symbol) {
		return Classification{Stock, NonUS}
	}
	// an empty profile is what providers answer for unknown symbols, it says nothing.
	if profile != nil && profile.Country != "" {
		if isUS(profile.Country) {
			return Classification{Stock, US}
		}
		return Classification{Stock, NonUS}
	}
	return Classification{Stock, US}
}

func isUS(country string) bool {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US", "USA", "UNITED STATES":
		return true
	}
	return false
}
