package folio

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultRefreshDelay is the pause between two consecutive requests of a refresh.
const DefaultRefreshDelay = 100 * time.Millisecond

// PriceResult is the outcome of refreshing one symbol.
type PriceResult struct {
	Symbol string
	Price  decimal.NullDecimal // USD, null on failure
	Error  string
}

func (r PriceResult) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", r.Symbol)
	w.NullNumber("price", r.Price)
	w.Optional("error", r.Error)
	return w.MarshalJSON()
}

// Refresher fetches the prices of many symbols, one at a time.
type Refresher struct {
	Resolver *Resolver
	Delay    time.Duration // DefaultRefreshDelay if zero.
	Log      zerolog.Logger

	mu sync.Mutex
}

// Refresh returns one result per symbol, in the same order.
//
// Symbols are resolved sequentially with a delay between requests. Concurrent calls are
// serialized. Once ctx is done, the remaining symbols are reported as failed.
func (r *Refresher) Refresh(ctx context.Context, symbols []string) []PriceResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	delay := r.Delay
	if delay <= 0 {
		delay = DefaultRefreshDelay
	}

	results := make([]PriceResult, 0, len(symbols))
	var ok int
	for i, symbol := range symbols {
		if i > 0 && ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			results = append(results, PriceResult{Symbol: NormalizeSymbol(symbol), Error: err.Error()})
			continue
		}
		res := r.Resolver.Resolve(ctx, symbol)
		if res.Price.Valid {
			ok++
		}
		results = append(results, PriceResult{Symbol: res.Symbol, Price: res.Price, Error: res.Error})
	}
	r.Log.Info().Int("symbols", len(symbols)).Int("priced", ok).Msg("refreshed")
	return results
}
