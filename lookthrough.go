package folio

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DirectSource is the source of the exposure an asset gives to itself.
const DirectSource = "Direct"

// DefaultExposureLimit is the number of exposures kept by the look-through.
const DefaultExposureLimit = 10

// Holding is one constituent of a fund.
type Holding struct {
	Symbol  string
	Name    string
	Percent decimal.Decimal // share of the fund, in [0,1].
}

func (h Holding) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", h.Symbol)
	w.Append("name", h.Name)
	w.Number("percent", h.Percent)
	return w.MarshalJSON()
}

// Source is a contribution to an Exposure.
type Source struct {
	Symbol string // fund symbol, or DirectSource.
	Value  decimal.Decimal
}

func (s Source) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("sourceSymbol", s.Symbol)
	w.Number("value", s.Value)
	return w.MarshalJSON()
}

// Exposure is the aggregate value of an underlying security, directly held or through funds.
type Exposure struct {
	Symbol  string
	Name    string
	Value   decimal.Decimal
	Sources []Source
}

func (e Exposure) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", e.Symbol)
	w.Append("name", e.Name)
	w.Number("value", e.Value)
	w.Append("sources", e.Sources)
	return w.MarshalJSON()
}

// Direct tells whether the exposure comes, at least partly, from holding the security itself.
func (e Exposure) Direct() bool {
	return slices.ContainsFunc(e.Sources, func(s Source) bool { return s.Symbol == DirectSource })
}

// RemainderPolicy tells what happens to the part of a fund not covered by its known holdings.
type RemainderPolicy int

const (
	// DropRemainder ignores the uncovered part of funds.
	DropRemainder RemainderPolicy = iota
	// AttributeRemainder attributes the uncovered part of a fund to the fund itself.
	AttributeRemainder
)

func (p RemainderPolicy) String() string {
	if p == AttributeRemainder {
		return "attribute"
	}
	return "drop"
}

// LookThrough computes exposures through funds.
// Its zero value drops the remainder and keeps DefaultExposureLimit exposures.
type LookThrough struct {
	Remainder RemainderPolicy
	Limit     int // DefaultExposureLimit if zero, no limit if negative.
}

// Exposures computes the exposures of assets with the default LookThrough.
func Exposures(assets []Asset, holdings map[string][]Holding) []Exposure {
	return LookThrough{}.Exposures(assets, holdings)
}

// Exposures aggregates the value of assets into the securities they expose to.
//
// holdings maps upper case fund symbols to their top holdings. An asset with holdings spreads
// value×percent onto each holding; other assets are exposed to themselves. The result is sorted by
// decreasing value, then symbol, and truncated to the limit.
func (l LookThrough) Exposures(assets []Asset, holdings map[string][]Holding) []Exposure {
	byKey := make(map[string]*Exposure)
	var order []*Exposure
	add := func(symbol, name, source string, value decimal.Decimal) {
		e, ok := byKey[symbol]
		if !ok {
			e = &Exposure{Symbol: symbol, Name: name, Value: decimal.Zero}
			byKey[symbol] = e
			order = append(order, e)
		}
		// one source record per contributing asset, lots of the same fund included
		e.Value = e.Value.Add(value)
		e.Sources = append(e.Sources, Source{Symbol: source, Value: value})
	}

	for _, a := range assets {
		symbol := NormalizeSymbol(a.Symbol)
		value := a.Value()
		hs := holdings[symbol]
		if len(hs) == 0 {
			add(symbol, symbol, DirectSource, value)
			continue
		}
		covered := decimal.Zero
		for _, h := range hs {
			key := NormalizeSymbol(h.Symbol)
			name := strings.TrimSpace(h.Name)
			if key == "" {
				key = name
			}
			if key == "" {
				continue
			}
			if name == "" {
				name = key
			}
			add(key, name, symbol, value.Mul(h.Percent))
			covered = covered.Add(h.Percent)
		}
		if l.Remainder == AttributeRemainder && covered.LessThan(decimal.NewFromInt(1)) {
			add(symbol, symbol, symbol, value.Mul(decimal.NewFromInt(1).Sub(covered)))
		}
	}

	exposures := make([]Exposure, 0, len(order))
	for _, e := range order {
		exposures = append(exposures, *e)
	}
	slices.SortStableFunc(exposures, func(a, b Exposure) int {
		if c := b.Value.Cmp(a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})

	limit := l.Limit
	if limit == 0 {
		limit = DefaultExposureLimit
	}
	if limit > 0 && len(exposures) > limit {
		exposures = exposures[:limit]
	}
	return exposures
}

// HoldingsSource fetches the top holdings of a fund.
type HoldingsSource interface {
	TopHoldings(ctx context.Context, symbol string) ([]Holding, error)
}

// EtfCandidates returns the distinct symbols that may be funds: stocks and bonds.
func EtfCandidates(assets []Asset) []string {
	var symbols []string
	for _, a := range assets {
		if a.Type != Stock && a.Type != Bond {
			continue
		}
		s := NormalizeSymbol(a.Symbol)
		if !slices.Contains(symbols, s) {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// FetchHoldings fetches the holdings of every symbol. A failed fetch is logged to log and yields
// no holdings (an empty list), so that the symbol is treated as a direct holding.
func FetchHoldings(ctx context.Context, log zerolog.Logger, src HoldingsSource, symbols []string) map[string][]Holding {
	holdings := make(map[string][]Holding, len(symbols))
	for _, s := range symbols {
		s = NormalizeSymbol(s)
		hs, err := src.TopHoldings(ctx, s)
		if err != nil {
			log.Warn().Str("symbol", s).Err(err).Msg("no holdings")
		}
		if err != nil || hs == nil {
			hs = []Holding{}
		}
		holdings[s] = hs
	}
	return holdings
}

// HoldingsCache memoizes the successful fetches of a HoldingsSource.
type HoldingsCache struct {
	Source HoldingsSource

	mu    sync.Mutex
	cache map[string][]Holding
}

func (c *HoldingsCache) TopHoldings(ctx context.Context, symbol string) ([]Holding, error) {
	symbol = NormalizeSymbol(symbol)
	c.mu.Lock()
	hs, ok := c.cache[symbol]
	c.mu.Unlock()
	if ok {
		return hs, nil
	}
	hs, err := c.Source.TopHoldings(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.cache == nil {
		c.cache = make(map[string][]Holding)
	}
	c.cache[symbol] = hs
	c.mu.Unlock()
	return hs, nil
}
