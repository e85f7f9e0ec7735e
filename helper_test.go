package folio

import "github.com/shopspring/decimal"

// asset is a helper for tests to create an asset from literals.
func asset(id, symbol, quantity, price string, t AssetType, l Location) Asset {
	return Asset{
		ID:       id,
		Symbol:   symbol,
		Quantity: decimal.RequireFromString(quantity),
		Price:    decimal.RequireFromString(price),
		Type:     t,
		Location: l,
	}
}

// dec is a helper for tests to create a decimal from a literal.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// priced is a helper for tests to create a successful PriceResult.
func priced(symbol, price string) PriceResult {
	return PriceResult{Symbol: symbol, Price: decimal.NewNullDecimal(dec(price))}
}
