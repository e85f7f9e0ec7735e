// Package finnhub quotes US securities using the finnhub.io API.
//
// An API key is required, see https://finnhub.io/dashboard.
package finnhub

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

// DefaultBaseURL is the root of finnhub's API.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Name identifies finnhub in quotes and logs.
const Name = "finnhub"

// ErrMissingKey is returned by all requests when the client has no API key.
var ErrMissingKey = errors.New("finnhub API key not configured")

// Client accesses the finnhub API.
type Client struct {
	APIKey  string
	BaseURL string

	quotes   *http.Client // never cached, prices are live.
	profiles *http.Client // profiles rarely change.
}

// New returns a client using apiKey. Profiles are cached on disk for the day.
func New(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		APIKey:   apiKey,
		BaseURL:  DefaultBaseURL,
		quotes:   httpcache.New(),
		profiles: httpcache.NewCaching(date.Daily, log),
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) get(ctx context.Context, client *http.Client, endpoint, symbol string, data any) error {
	if c.APIKey == "" {
		return ErrMissingKey
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := url.Values{"symbol": {symbol}, "token": {c.APIKey}}
	addr := fmt.Sprintf("%s/%s?%s", strings.TrimSuffix(base, "/"), endpoint, q.Encode())
	return httpcache.GetJSON(ctx, client, addr, data)
}

// FetchQuote returns the current price of symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	// {"c":261.74,"d":-0.3,"dp":-0.1145,"h":263.31,"l":260.68,"o":261.07,"pc":262.04,"t":1602705600}
	var quote struct {
		Current decimal.NullDecimal `json:"c"`
	}
	if err := c.get(ctx, c.quotes, "quote", symbol, &quote); err != nil {
		return decimal.Zero, fmt.Errorf("cannot quote %s: %w", symbol, err)
	}
	// unknown symbols get a zero price rather than an error.
	if !quote.Current.Valid || !quote.Current.Decimal.IsPositive() {
		return decimal.Zero, fmt.Errorf("cannot quote %s: %w", symbol, folio.ErrNoPrice)
	}
	return quote.Current.Decimal, nil
}

// FetchProfile returns the company profile of symbol. Funds and unknown symbols have an empty
// profile, in which case nil is returned.
func (c *Client) FetchProfile(ctx context.Context, symbol string) (*folio.Profile, error) {
	// {"country":"US","currency":"USD","exchange":"NASDAQ NMS - GLOBAL MARKET","name":"Apple Inc","ticker":"AAPL",...}
	var profile struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Exchange string `json:"exchange"`
		Currency string `json:"currency"`
	}
	if err := c.get(ctx, c.profiles, "stock/profile2", symbol, &profile); err != nil {
		return nil, fmt.Errorf("cannot fetch profile of %s: %w", symbol, err)
	}
	if profile.Name == "" && profile.Country == "" {
		return nil, nil
	}
	return &folio.Profile{
		Name:     profile.Name,
		Country:  profile.Country,
		Exchange: profile.Exchange,
		Currency: profile.Currency,
	}, nil
}

// Resolve quotes symbol and attaches its profile, when there is one.
func (c *Client) Resolve(ctx context.Context, symbol string) (folio.Quote, error) {
	price, err := c.FetchQuote(ctx, symbol)
	if err != nil {
		return folio.Quote{}, err
	}
	q := folio.Quote{Symbol: symbol, Price: price, Provider: Name}
	// the profile only refines the classification, a failure is not fatal.
	if p, err := c.FetchProfile(ctx, symbol); err == nil {
		q.Profile = p
	}
	return q, nil
}

// PriceOnly is a strategy that quotes without fetching profiles, saving one request per symbol.
type PriceOnly struct{ *Client }

func (p PriceOnly) Resolve(ctx context.Context, symbol string) (folio.Quote, error) {
	price, err := p.FetchQuote(ctx, symbol)
	if err != nil {
		return folio.Quote{}, err
	}
	return folio.Quote{Symbol: symbol, Price: price, Provider: Name}, nil
}
