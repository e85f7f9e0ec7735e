// Package eodhd quotes securities using the EOD Historical Data API.
//
// It is the last resort of the price resolution, and requires an API key.
// Nice to redirect users to https://eodhd.com/financial-summary/AAPL.US for details.
package eodhd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/httpcache"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the root of EODHD's API.
const DefaultBaseURL = "https://eodhd.com/api"

// Name identifies eodhd in quotes and logs.
const Name = "eodhd"

// ErrMissingKey is returned by all requests when the client has no API key.
var ErrMissingKey = errors.New("eodhd API key not configured")

// Client accesses the EODHD API. It is a folio.Strategy and a folio.RateSource.
type Client struct {
	APIKey  string
	BaseURL string

	live   *http.Client
	cached *http.Client // search results are stable for the day.
}

// New returns a client using apiKey.
func New(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		live:    httpcache.New(),
		cached:  httpcache.NewCaching(date.Daily, log),
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) get(ctx context.Context, client *http.Client, path string, data any) error {
	if c.APIKey == "" {
		return ErrMissingKey
	}
	q := url.Values{"api_token": {c.APIKey}, "fmt": {"json"}}
	addr := fmt.Sprintf("%s/%s?%s", strings.TrimSuffix(c.BaseURL, "/"), path, q.Encode())
	return httpcache.GetJSON(ctx, client, addr, data)
}

// Ticker returns the EODHD ticker of symbol, in the format "CODE.EXCHANGE".
// Symbols without an exchange are US listings, except crypto pairs that trade on the virtual
// exchange "CC".
func Ticker(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if strings.Contains(symbol, ".") {
		return symbol
	}
	if strings.HasSuffix(symbol, "-USD") {
		return symbol + ".CC"
	}
	return symbol + ".US"
}

// ForexTicker returns the ticker of the pair from/to. Its price is the number of units of to for
// one from.
func ForexTicker(from, to string) string {
	return fmt.Sprintf("%s%s.FOREX", strings.ToUpper(from), strings.ToUpper(to))
}

// FetchPrice returns the live (delayed) price of an EODHD ticker.
func (c *Client) FetchPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	// https://eodhd.com/api/real-time/AAPL.US?api_token=demo&fmt=json
	// {"code":"AAPL.US","timestamp":1760731200,"gmtoffset":0,"open":261.07,"high":263.31,
	//  "low":260.68,"close":261.74,"volume":41245021,"previousClose":262.04,"change":-0.3}
	// unknown tickers get "NA" in place of numbers.
	var info struct {
		Code  string `json:"code"`
		Close any    `json:"close"`
	}
	if err := c.get(ctx, c.live, "real-time/"+url.PathEscape(ticker), &info); err != nil {
		return decimal.Zero, fmt.Errorf("cannot quote %s: %w", ticker, err)
	}
	price, ok := info.Close.(float64)
	if !ok || price <= 0 {
		return decimal.Zero, fmt.Errorf("cannot quote %s: %w", ticker, folio.ErrNoPrice)
	}
	return decimal.NewFromFloat(price), nil
}

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code     string `json:"Code"`
	Exchange string `json:"Exchange"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	Country  string `json:"Country"`
	Currency string `json:"Currency"`
	ISIN     string `json:"ISIN"`
}

// Ticker returns the EODHD ticker of the result.
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// Search searches for securities by ticker, name or ISIN.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	var results []SearchResult
	if err := c.get(ctx, c.cached, "search/"+url.PathEscape(term), &results); err != nil {
		return nil, fmt.Errorf("cannot search %q: %w", term, err)
	}
	return results, nil
}

// Resolve quotes symbol on its default exchange, then, on failure, the best search match.
func (c *Client) Resolve(ctx context.Context, symbol string) (folio.Quote, error) {
	price, err := c.FetchPrice(ctx, Ticker(symbol))
	if err == nil {
		return folio.Quote{Symbol: symbol, Price: price, Provider: Name}, nil
	}
	if errors.Is(err, ErrMissingKey) {
		return folio.Quote{}, err
	}

	results, serr := c.Search(ctx, symbol)
	if serr != nil {
		return folio.Quote{}, errors.Join(err, serr)
	}
	if len(results) == 0 {
		return folio.Quote{}, err
	}
	best := results[0]
	price, err = c.FetchPrice(ctx, best.Ticker())
	if err != nil {
		return folio.Quote{}, err
	}
	q := folio.Quote{
		Symbol:   best.Ticker(),
		Price:    price,
		Currency: best.Currency,
		Exchange: best.Exchange,
		Provider: Name,
	}
	if best.Country != "" || best.Name != "" {
		q.Profile = &folio.Profile{Name: best.Name, Country: best.Country, Exchange: best.Exchange, Currency: best.Currency}
	}
	if best.Exchange == "CC" {
		q.QuoteType = "CRYPTOCURRENCY"
	}
	return q, nil
}

// Rate returns the number of units of currency for one USD.
func (c *Client) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	return c.FetchPrice(ctx, ForexTicker("USD", currency))
}
