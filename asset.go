package folio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetType is the kind of an asset.
type AssetType string

const (
	Stock AssetType = "stock"
	Bond  AssetType = "bond"
	Coin  AssetType = "coin"
)

// AssetTypes lists all asset types in display order.
var AssetTypes = []AssetType{Stock, Bond, Coin}

// ParseAssetType parses an asset type, case-insensitively.
func ParseAssetType(s string) (AssetType, error) {
	switch t := AssetType(strings.ToLower(strings.TrimSpace(s))); t {
	case Stock, Bond, Coin:
		return t, nil
	}
	return "", fmt.Errorf("invalid asset type %q, want one of stock, bond, coin", s)
}

func (t *AssetType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseAssetType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Location tells whether an asset is exposed to the US market or not.
type Location string

const (
	US    Location = "us"
	NonUS Location = "non-us"
)

// Locations lists all locations in display order.
var Locations = []Location{US, NonUS}

// ParseLocation parses a location. It accepts "no us", the spelling of older state files.
func ParseLocation(s string) (Location, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "us":
		return US, nil
	case "non-us", "no us", "nonus", "non us":
		return NonUS, nil
	}
	return "", fmt.Errorf("invalid location %q, want us or non-us", s)
}

func (l *Location) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseLocation(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Asset is a single holding of the portfolio.
type Asset struct {
	ID       string
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal // per unit, in USD
	Type     AssetType
	Location Location
}

// Value returns quantity×price.
func (a Asset) Value() decimal.Decimal { return a.Quantity.Mul(a.Price) }

// Validate checks the asset invariants, except the id uniqueness that is the Store's business.
func (a Asset) Validate() error {
	var errs error
	if a.ID == "" {
		errs = errors.Join(errs, errors.New("missing id"))
	}
	if strings.TrimSpace(a.Symbol) == "" {
		errs = errors.Join(errs, errors.New("missing symbol"))
	}
	if a.Quantity.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("negative quantity %v", a.Quantity))
	}
	if a.Price.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("negative price %v", a.Price))
	}
	if _, err := ParseAssetType(string(a.Type)); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := ParseLocation(string(a.Location)); err != nil {
		errs = errors.Join(errs, err)
	}
	if errs != nil {
		return fmt.Errorf("invalid asset %q: %w", a.Symbol, errs)
	}
	return nil
}

func (a Asset) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", a.ID)
	w.Append("symbol", a.Symbol)
	w.Number("quantity", a.Quantity)
	w.Number("price", a.Price)
	w.Append("type", a.Type)
	w.Append("location", a.Location)
	return w.MarshalJSON()
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var j struct {
		ID       string          `json:"id"`
		Symbol   string          `json:"symbol"`
		Quantity decimal.Decimal `json:"quantity"`
		Price    decimal.Decimal `json:"price"`
		Type     AssetType       `json:"type"`
		Location Location        `json:"location"`
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*a = Asset(j)
	return nil
}

// normalize returns a copy of a with canonical symbol, type and location. Invalid types and
// locations are kept as is for Validate to report.
func (a Asset) normalize() Asset {
	a.Symbol = NormalizeSymbol(a.Symbol)
	if t, err := ParseAssetType(string(a.Type)); err == nil {
		a.Type = t
	}
	if l, err := ParseLocation(string(a.Location)); err == nil {
		a.Location = l
	}
	return a
}

// NormalizeSymbol returns the canonical upper case form of a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ParseSymbols splits a comma separated list of tickers, normalizes them and drops empty and
// duplicate entries, preserving the order of first appearance.
func ParseSymbols(list string) []string {
	var symbols []string
	seen := make(map[string]bool)
	for _, s := range strings.Split(list, ",") {
		s = NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	return symbols
}
