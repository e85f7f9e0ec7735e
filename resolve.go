package folio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNoPrice is returned by strategies that got an answer without a usable price.
var ErrNoPrice = errors.New("no price")

// Quote is what a Strategy found for a symbol.
type Quote struct {
	Symbol    string // the symbol actually quoted, it may differ from the requested one.
	Price     decimal.Decimal
	Currency  string
	Exchange  string
	QuoteType string
	Profile   *Profile
	Provider  string
}

// meta returns the quote metadata used for classification.
func (q Quote) meta() *QuoteMeta {
	if q.Currency == "" && q.Exchange == "" && q.QuoteType == "" {
		return nil
	}
	return &QuoteMeta{Currency: q.Currency, Exchange: q.Exchange, QuoteType: q.QuoteType}
}

// Strategy is one way to quote a symbol.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, symbol string) (Quote, error)
}

// RateSource is implemented by strategies that can quote exchange rates.
type RateSource interface {
	// Rate returns the number of units of currency for one USD.
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// Chain is an ordered list of strategies. The first one to return a positive price wins.
//
// A Chain is itself a Strategy.
type Chain []Strategy

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

func (c Chain) Resolve(ctx context.Context, symbol string) (Quote, error) {
	q, _, err := c.first(ctx, symbol)
	return q, err
}

// first returns the first usable quote and the strategy that produced it.
func (c Chain) first(ctx context.Context, symbol string) (Quote, Strategy, error) {
	var errs error
	for _, s := range c {
		if err := ctx.Err(); err != nil {
			return Quote{}, nil, errors.Join(errs, err)
		}
		q, err := s.Resolve(ctx, symbol)
		if err == nil && !q.Price.IsPositive() {
			err = ErrNoPrice
		}
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if q.Provider == "" {
			q.Provider = s.Name()
		}
		if q.Symbol == "" {
			q.Symbol = symbol
		}
		return q, s, nil
	}
	if errs == nil {
		errs = fmt.Errorf("no strategy to quote %s: %w", symbol, ErrNoPrice)
	}
	return Quote{}, nil, errs
}

// Resolution is the outcome of resolving a symbol: a price in USD, if any, and a classification.
type Resolution struct {
	Symbol   string
	Price    decimal.NullDecimal // USD
	Type     AssetType
	Location Location
	Profile  *Profile
	Matched  string // provider symbol when it differs from Symbol
	Provider string
	Error    string
}

func (r Resolution) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", r.Symbol)
	w.NullNumber("price", r.Price)
	w.Append("type", r.Type)
	w.Append("location", r.Location)
	w.Append("profile", r.Profile)
	w.Optional("matched", r.Matched)
	w.Optional("provider", r.Provider)
	w.Optional("error", r.Error)
	return w.MarshalJSON()
}

// Resolver resolves symbols into prices in USD and classifications.
type Resolver struct {
	Chain Chain
	Log   zerolog.Logger
}

// Resolve never fails: on total failure the price is null, the classification is the best guess
// from the symbol alone, and Error tells what went wrong.
func (r *Resolver) Resolve(ctx context.Context, symbol string) Resolution {
	symbol = NormalizeSymbol(symbol)
	c := Classify(symbol, nil, nil)
	res := Resolution{Symbol: symbol, Type: c.Type, Location: c.Location}

	q, s, err := r.Chain.first(ctx, symbol)
	if err != nil {
		r.Log.Debug().Str("symbol", symbol).Err(err).Msg("no price")
		res.Error = err.Error()
		return res
	}

	c = Classify(symbol, q.Profile, q.meta())
	res.Type, res.Location = c.Type, c.Location
	res.Profile = q.Profile
	res.Provider = q.Provider
	if !strings.EqualFold(q.Symbol, symbol) {
		res.Matched = q.Symbol
	}

	price := q.Price
	if q.Currency != "" && !strings.EqualFold(q.Currency, "USD") {
		price = r.toUSD(ctx, s, q)
	}
	res.Price = decimal.NewNullDecimal(price)
	return res
}

// toUSD converts the quote price into USD using the strategy that quoted it.
// On failure the price is kept as quoted.
func (r *Resolver) toUSD(ctx context.Context, s Strategy, q Quote) decimal.Decimal {
	rs, ok := s.(RateSource)
	if !ok {
		r.Log.Warn().Str("symbol", q.Symbol).Str("currency", q.Currency).Str("provider", q.Provider).Msg("provider cannot quote exchange rates, price kept in its currency")
		return q.Price
	}
	rate, err := rs.Rate(ctx, q.Currency)
	if err == nil && !rate.IsPositive() {
		err = ErrNoPrice
	}
	if err != nil {
		r.Log.Warn().Str("symbol", q.Symbol).Str("currency", q.Currency).Err(err).Msg("cannot fetch exchange rate, price kept in its currency")
		return q.Price
	}
	usd := NormalizeUSD(q.Price, rate)
	r.Log.Debug().Str("symbol", q.Symbol).Str("currency", q.Currency).Stringer("rate", rate).Stringer("usd", usd).Msg("converted")
	return usd
}

// NormalizeUSD converts price into USD given rate, the number of units of the price currency per USD.
func NormalizeUSD(price, rate decimal.Decimal) decimal.Decimal {
	return price.Div(rate)
}

// Complete fills the missing fields of a: the price when zero, the type and location when empty.
// Fields already set are kept, a failed resolution leaves the price unset.
func (r *Resolver) Complete(ctx context.Context, a Asset) (Asset, Resolution) {
	res := r.Resolve(ctx, a.Symbol)
	if a.Price.IsZero() && res.Price.Valid {
		a.Price = res.Price.Decimal
	}
	if a.Type == "" {
		a.Type = res.Type
	}
	if a.Location == "" {
		a.Location = res.Location
	}
	return a, res
}
