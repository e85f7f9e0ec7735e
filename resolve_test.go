package folio

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// fakeStrategy quotes from a map, and fails for unknown symbols.
type fakeStrategy struct {
	name   string
	quotes map[string]Quote
	rates  map[string]decimal.Decimal
	calls  []string
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Resolve(ctx context.Context, symbol string) (Quote, error) {
	f.calls = append(f.calls, symbol)
	q, ok := f.quotes[symbol]
	if !ok {
		return Quote{}, errors.New("unknown symbol")
	}
	return q, nil
}

// fakeRateStrategy is a fakeStrategy that can quote exchange rates.
type fakeRateStrategy struct{ fakeStrategy }

func (f *fakeRateStrategy) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	r, ok := f.rates[currency]
	if !ok {
		return decimal.Zero, errors.New("unknown currency")
	}
	return r, nil
}

func TestChainOrder(t *testing.T) {
	a := &fakeStrategy{name: "a", quotes: map[string]Quote{
		"AAPL": {Price: dec("190")},
		"ZERO": {Price: decimal.Zero},
	}}
	b := &fakeStrategy{name: "b", quotes: map[string]Quote{
		"AAPL": {Price: dec("999")},
		"ZERO": {Price: dec("5")},
		"ONLY": {Price: dec("7")},
	}}
	c := Chain{a, b}

	tests := []struct {
		symbol   string
		want     string
		provider string
	}{
		{"AAPL", "190", "a"},
		{"ZERO", "5", "b"}, // a zero price is not an answer.
		{"ONLY", "7", "b"},
	}
	for _, test := range tests {
		q, err := c.Resolve(context.Background(), test.symbol)
		if err != nil {
			t.Errorf("Resolve(%q) unexpected error: %v", test.symbol, err)
			continue
		}
		if !q.Price.Equal(dec(test.want)) {
			t.Errorf("Resolve(%q).Price = %v, want %v", test.symbol, q.Price, test.want)
		}
		if q.Provider != test.provider {
			t.Errorf("Resolve(%q).Provider = %q, want %q", test.symbol, q.Provider, test.provider)
		}
	}

	if _, err := c.Resolve(context.Background(), "NONE"); err == nil {
		t.Errorf("Resolve(NONE) expected an error")
	}
}

func TestChainStopsOnCancel(t *testing.T) {
	a := &fakeStrategy{name: "a"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Chain{a}).Resolve(ctx, "AAPL"); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
	if len(a.calls) != 0 {
		t.Errorf("strategy called %d times after cancel, want 0", len(a.calls))
	}
}

func TestResolver(t *testing.T) {
	direct := &fakeStrategy{name: "direct", quotes: map[string]Quote{
		"AAPL": {Price: dec("190"), Currency: "USD", Profile: &Profile{Name: "Apple Inc", Country: "US"}},
		"SAP":  {Price: dec("120"), Currency: "EUR", Profile: &Profile{Name: "SAP SE", Country: "DE"}},
	}}
	search := &fakeRateStrategy{fakeStrategy{name: "search",
		quotes: map[string]Quote{
			"SAMSUNG": {Symbol: "005930.KS", Price: dec("1000"), Currency: "KRW", Exchange: "KSC"},
		},
		rates:  map[string]decimal.Decimal{"KRW": dec("1350")},
	}}
	r := &Resolver{Chain: Chain{direct, search}}

	t.Run("usd", func(t *testing.T) {
		res := r.Resolve(context.Background(), "aapl")
		if res.Symbol != "AAPL" || !res.Price.Valid || !res.Price.Decimal.Equal(dec("190")) {
			t.Errorf("Resolve(aapl) = %v %v, want AAPL 190", res.Symbol, res.Price)
		}
		if res.Type != Stock || res.Location != US {
			t.Errorf("Resolve(aapl) = %v/%v, want stock/us", res.Type, res.Location)
		}
		if res.Matched != "" {
			t.Errorf("Resolve(aapl).Matched = %q, want empty", res.Matched)
		}
	})

	t.Run("converted", func(t *testing.T) {
		res := r.Resolve(context.Background(), "SAMSUNG")
		if !res.Price.Valid {
			t.Fatalf("Resolve(SAMSUNG) has no price: %s", res.Error)
		}
		if got := res.Price.Decimal.Round(2); !got.Equal(dec("0.74")) {
			t.Errorf("Resolve(SAMSUNG).Price = %v, want 0.74", got)
		}
		if res.Location != NonUS {
			t.Errorf("Resolve(SAMSUNG).Location = %v, want non-us", res.Location)
		}
		if res.Matched != "005930.KS" {
			t.Errorf("Resolve(SAMSUNG).Matched = %q, want 005930.KS", res.Matched)
		}
	})

	t.Run("no rate source", func(t *testing.T) {
		// the direct strategy cannot convert, the price is kept as quoted.
		res := r.Resolve(context.Background(), "SAP")
		if !res.Price.Valid || !res.Price.Decimal.Equal(dec("120")) {
			t.Errorf("Resolve(SAP).Price = %v, want 120", res.Price)
		}
		if res.Location != NonUS {
			t.Errorf("Resolve(SAP).Location = %v, want non-us", res.Location)
		}
	})

	t.Run("failure", func(t *testing.T) {
		res := r.Resolve(context.Background(), "BTC-USD")
		if res.Price.Valid {
			t.Errorf("Resolve(BTC-USD).Price = %v, want null", res.Price)
		}
		if res.Error == "" {
			t.Errorf("Resolve(BTC-USD).Error is empty")
		}
		if res.Type != Coin {
			t.Errorf("Resolve(BTC-USD).Type = %v, want coin", res.Type)
		}
	})
}

func TestNormalizeUSD(t *testing.T) {
	tests := []struct {
		price, rate, want string
	}{
		{"1000", "1350", "0.74"},
		{"100", "1", "100"},
		{"92", "0.92", "100"},
	}
	for _, test := range tests {
		got := NormalizeUSD(dec(test.price), dec(test.rate)).Round(2)
		if !got.Equal(dec(test.want)) {
			t.Errorf("NormalizeUSD(%s, %s) = %v, want %v", test.price, test.rate, got, test.want)
		}
	}
}

func TestComplete(t *testing.T) {
	s := &fakeStrategy{name: "fake", quotes: map[string]Quote{
		"BND": {Price: dec("74.52")},
	}}
	r := &Resolver{Chain: Chain{s}}

	got, _ := r.Complete(context.Background(), Asset{Symbol: "bnd", Quantity: dec("10")})
	if !got.Price.Equal(dec("74.52")) || got.Type != Bond || got.Location != US {
		t.Errorf("Complete(bnd) = %v %v/%v, want 74.52 bond/us", got.Price, got.Type, got.Location)
	}

	got, _ = r.Complete(context.Background(), Asset{Symbol: "BND", Price: dec("70"), Type: Stock, Location: NonUS})
	if !got.Price.Equal(dec("70")) || got.Type != Stock || got.Location != NonUS {
		t.Errorf("Complete() changed given fields: %v %v/%v", got.Price, got.Type, got.Location)
	}

	got, res := r.Complete(context.Background(), Asset{Symbol: "NOPE"})
	if !got.Price.IsZero() || res.Error == "" {
		t.Errorf("Complete(NOPE) = %v, %q, want a zero price and an error", got.Price, res.Error)
	}
}
