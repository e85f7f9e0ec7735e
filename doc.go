// Package folio tracks a personal portfolio of stocks, bonds and crypto coins.
//
// A Store holds the assets, each being a quantity of a ticker symbol at a price in USD. Prices
// are refreshed from market data providers through a Resolver, which tries a Chain of strategies
// in order and converts quotes in foreign currencies into USD. A Refresher updates many symbols
// at once, politely, one request at a time.
//
// On top of the assets, pure functions compute the summary views: total value, allocation by
// type and by location, top holdings, and the look-through exposures of funds to their underlying
// securities.
//
// Providers live in their own packages (finnhub, yahoo, eodhd), all sharing the httpcache
// package for HTTP access.
package folio
