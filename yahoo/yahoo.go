// Package yahoo quotes securities, searches symbols and lists fund holdings using Yahoo Finance's
// public endpoints.
//
// Responses are navigated with JSONPath expressions, as the payloads are deeply nested and
// change shape without notice.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/folio"
	"github.com/etnz/folio/date"
	"github.com/etnz/folio/httpcache"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Default hosts. Yahoo balances its API between query1 and query2.
const (
	DefaultQueryURL  = "https://query1.finance.yahoo.com"
	DefaultSearchURL = "https://query2.finance.yahoo.com"
)

// Name identifies yahoo in quotes and logs.
const Name = "yahoo"

// Client accesses Yahoo Finance.
type Client struct {
	QueryURL  string
	SearchURL string

	live   *http.Client
	cached *http.Client // for holdings, that change once a month at most.
}

// New returns a client on Yahoo's public hosts, logging its cached requests to log.
func New(log zerolog.Logger) *Client {
	return &Client{
		QueryURL:  DefaultQueryURL,
		SearchURL: DefaultSearchURL,
		live:      httpcache.New(),
		cached:    httpcache.NewCaching(date.Monthly, log),
	}
}

// get fetches addr and returns the value at path in the JSON response.
func (c *Client) get(ctx context.Context, client *http.Client, addr, path string) (any, error) {
	var jobj any
	if err := httpcache.GetJSON(ctx, client, addr, &jobj); err != nil {
		return nil, err
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}
	return jval, nil
}

// first keeps the first answer when jsonpath returns a list.
func first(jval any) any {
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil
		}
		return jlist[0]
	}
	return jval
}

// FetchQuote returns the last market price of symbol and its metadata.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (folio.Quote, error) {
	// {"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL","exchangeName":"NMS",
	//   "instrumentType":"EQUITY","regularMarketPrice":261.74,...},...}],"error":null}}
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", c.QueryURL, url.PathEscape(symbol))
	jval, err := c.get(ctx, c.live, addr, "$.chart.result[0].meta")
	if err != nil {
		return folio.Quote{}, fmt.Errorf("cannot quote %s: %w", symbol, err)
	}
	meta, ok := first(jval).(map[string]any)
	if !ok {
		return folio.Quote{}, fmt.Errorf("cannot quote %s: %w", symbol, folio.ErrNoPrice)
	}
	price, ok := meta["regularMarketPrice"].(float64)
	if !ok || price <= 0 {
		return folio.Quote{}, fmt.Errorf("cannot quote %s: %w", symbol, folio.ErrNoPrice)
	}
	q := folio.Quote{
		Symbol:   symbol,
		Price:    decimal.NewFromFloat(price),
		Provider: Name,
	}
	q.Currency, _ = meta["currency"].(string)
	q.Exchange, _ = meta["exchangeName"].(string)
	q.QuoteType, _ = meta["instrumentType"].(string)
	if s, ok := meta["symbol"].(string); ok && s != "" {
		q.Symbol = s
	}
	return q, nil
}

// Search returns the symbols matching query, best match first.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	// {"count":7,"quotes":[{"exchange":"KSC","shortname":"SamsungElec","quoteType":"EQUITY","symbol":"005930.KS",...}]}
	q := url.Values{"q": {query}, "quotesCount": {"5"}, "newsCount": {"0"}}
	addr := fmt.Sprintf("%s/v1/finance/search?%s", c.SearchURL, q.Encode())
	jval, err := c.get(ctx, c.live, addr, "$.quotes[*].symbol")
	if err != nil {
		return nil, fmt.Errorf("cannot search %q: %w", query, err)
	}
	jlist, _ := jval.([]any)
	symbols := make([]string, 0, len(jlist))
	for _, v := range jlist {
		if s, ok := v.(string); ok && s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

// Rate returns the number of units of currency for one USD.
func (c *Client) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	// yahoo names USD/XXX pairs "XXX=X".
	q, err := c.FetchQuote(ctx, strings.ToUpper(currency)+"=X")
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot fetch USD/%s: %w", currency, err)
	}
	return q.Price, nil
}

// TopHoldings returns the top holdings of fund symbol. Other securities have none.
func (c *Client) TopHoldings(ctx context.Context, symbol string) ([]folio.Holding, error) {
	// {"quoteSummary":{"result":[{"topHoldings":{"holdings":[{"symbol":"NVDA","holdingName":"NVIDIA Corp",
	//   "holdingPercent":{"raw":0.0745,"fmt":"7.45%"}},...]}}],"error":null}}
	addr := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=topHoldings", c.SearchURL, url.PathEscape(symbol))
	jval, err := c.get(ctx, c.cached, addr, "$.quoteSummary.result[0].topHoldings.holdings")
	if err != nil {
		return nil, fmt.Errorf("cannot fetch holdings of %s: %w", symbol, err)
	}
	jlist, _ := jval.([]any)
	holdings := make([]folio.Holding, 0, len(jlist))
	for _, v := range jlist {
		h, ok := v.(map[string]any)
		if !ok {
			continue
		}
		var holding folio.Holding
		holding.Symbol, _ = h["symbol"].(string)
		holding.Name, _ = h["holdingName"].(string)
		switch p := h["holdingPercent"].(type) {
		case float64:
			holding.Percent = decimal.NewFromFloat(p)
		case map[string]any:
			raw, _ := p["raw"].(float64)
			holding.Percent = decimal.NewFromFloat(raw)
		}
		holdings = append(holdings, holding)
	}
	return holdings, nil
}

// Direct is the strategy that quotes the symbol as is.
type Direct struct{ *Client }

func (Direct) Name() string { return Name }

func (d Direct) Resolve(ctx context.Context, symbol string) (folio.Quote, error) {
	return d.FetchQuote(ctx, symbol)
}

// Search is the strategy that searches for the symbol first, and quotes the best match.
// It finds listings that are not known under their US ticker, like "SAMSUNG".
type Search struct{ *Client }

func (Search) Name() string { return Name + "-search" }

func (s Search) Resolve(ctx context.Context, symbol string) (folio.Quote, error) {
	matches, err := s.Client.Search(ctx, symbol)
	if err != nil {
		return folio.Quote{}, err
	}
	if len(matches) == 0 {
		return folio.Quote{}, fmt.Errorf("no match for %s: %w", symbol, folio.ErrNoPrice)
	}
	q, err := s.FetchQuote(ctx, matches[0])
	if err != nil {
		return folio.Quote{}, err
	}
	q.Provider = s.Name()
	return q, nil
}
