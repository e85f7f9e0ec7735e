package folio

import "github.com/shopspring/decimal"

// SampleAssets returns the demonstration portfolio used when no state exists yet.
func SampleAssets() []Asset {
	return []Asset{
		sample("1", "voo", "479.65269", "605.93", Stock, US),
		sample("2", "nvda", "753.1816", "178.88", Stock, US),
		sample("3", "tsla", "222.238733", "391.09", Stock, US),
		sample("4", "meta", "101.60428", "594.25", Stock, US),
		sample("5", "bnd", "1118.71364", "74.52", Bond, US),
		sample("6", "GOOG", "189.95", "299.65", Stock, US),
		sample("7", "msft", "100", "472.12", Stock, US),
		sample("8", "FXAIX", "165.458", "229.71", Stock, US),
		sample("9", "amd", "151.9", "203.78", Stock, US),
		sample("10", "vxus", "307.97709", "72.92", Stock, NonUS),
		sample("11", "vbiax", "307.354", "52.17", Stock, US),
		sample("12", "oklo", "32", "88.17", Stock, US),
		sample("13", "avgo", "7", "340.2", Stock, US),
		sample("14", "bsv", "25.36", "79.04", Bond, US),
		sample("15", "crcl", "29", "71.33", Stock, US),
		sample("16", "tem", "3", "70.29", Stock, US),
		sample("17", "btc-usd", "0.12025789", "84654.23", Coin, NonUS),
	}
}

func sample(id, symbol, quantity, price string, t AssetType, l Location) Asset {
	return Asset{
		ID:       id,
		Symbol:   symbol,
		Quantity: decimal.RequireFromString(quantity),
		Price:    decimal.RequireFromString(price),
		Type:     t,
		Location: l,
	}.normalize()
}
