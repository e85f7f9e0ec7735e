package folio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestExposures(t *testing.T) {
	assets := []Asset{
		asset("1", "VOO", "10", "500", Stock, US),  // 5000
		asset("2", "AAPL", "10", "200", Stock, US), // 2000
		asset("3", "BTC-USD", "0.1", "60000", Coin, NonUS),
	}
	holdings := map[string][]Holding{
		"VOO": {
			{Symbol: "aapl", Name: "Apple Inc", Percent: dec("0.07")},
			{Symbol: "MSFT", Name: "Microsoft Corp", Percent: dec("0.06")},
			{Symbol: "", Name: "", Percent: dec("0.01")},
		},
	}

	got := Exposures(assets, holdings)
	want := []struct {
		symbol, value string
		sources       int
	}{
		{"BTC-USD", "6000", 1},
		{"AAPL", "2350", 2},
		{"MSFT", "300", 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Exposures() returned %d exposures, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		e := got[i]
		if e.Symbol != w.symbol || !e.Value.Equal(dec(w.value)) || len(e.Sources) != w.sources {
			t.Errorf("exposure[%d] = %s %v (%d sources), want %s %s (%d sources)", i, e.Symbol, e.Value, len(e.Sources), w.symbol, w.value, w.sources)
		}
	}
	if !got[1].Direct() {
		t.Errorf("AAPL exposure should be direct")
	}
	if got[2].Direct() {
		t.Errorf("MSFT exposure should not be direct")
	}
	if got[2].Sources[0].Symbol != "VOO" {
		t.Errorf("MSFT source = %q, want VOO", got[2].Sources[0].Symbol)
	}
	// VOO itself does not appear when its remainder is dropped.
	for _, e := range got {
		if e.Symbol == "VOO" {
			t.Errorf("VOO should not appear with DropRemainder")
		}
	}
}

func TestExposuresLots(t *testing.T) {
	assets := []Asset{
		asset("1", "VOO", "1", "1000", Stock, US),
		asset("2", "VOO", "1", "1000", Stock, US),
		asset("3", "AAPL", "1", "10", Stock, US),
		asset("4", "aapl", "1", "10", Stock, US),
	}
	holdings := map[string][]Holding{"VOO": {{Symbol: "MSFT", Percent: dec("0.10")}}}

	got := Exposures(assets, holdings)
	want := []struct {
		symbol, value, source string
		sources               int
	}{
		{"MSFT", "200", "VOO", 2},
		{"AAPL", "20", DirectSource, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("Exposures() returned %d exposures, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		e := got[i]
		if e.Symbol != w.symbol || !e.Value.Equal(dec(w.value)) || len(e.Sources) != w.sources {
			t.Errorf("exposure[%d] = %s %v (%d sources), want %s %s (%d sources)", i, e.Symbol, e.Value, len(e.Sources), w.symbol, w.value, w.sources)
			continue
		}
		for _, src := range e.Sources {
			if src.Symbol != w.source || !src.Value.Equal(dec(w.value).Div(dec("2"))) {
				t.Errorf("%s source = %s %v, want %s %v", e.Symbol, src.Symbol, src.Value, w.source, dec(w.value).Div(dec("2")))
			}
		}
	}
}

func TestExposuresRemainder(t *testing.T) {
	assets := []Asset{asset("1", "VOO", "1", "1000", Stock, US)}
	holdings := map[string][]Holding{"VOO": {{Symbol: "AAPL", Percent: dec("0.25")}}}

	got := LookThrough{Remainder: AttributeRemainder}.Exposures(assets, holdings)
	if len(got) != 2 {
		t.Fatalf("Exposures() returned %d exposures, want 2", len(got))
	}
	if got[0].Symbol != "VOO" || !got[0].Value.Equal(dec("750")) {
		t.Errorf("exposure[0] = %s %v, want VOO 750", got[0].Symbol, got[0].Value)
	}
	if got[1].Symbol != "AAPL" || !got[1].Value.Equal(dec("250")) {
		t.Errorf("exposure[1] = %s %v, want AAPL 250", got[1].Symbol, got[1].Value)
	}
	if got[1].Name != "AAPL" {
		t.Errorf("exposure name = %q, want the symbol", got[1].Name)
	}
	if !Total(assets).Equal(got[0].Value.Add(got[1].Value)) {
		t.Errorf("attributed exposures should add up to the total value")
	}
}

func TestExposuresLimit(t *testing.T) {
	var assets []Asset
	for i := range 15 {
		assets = append(assets, asset(fmt.Sprint(i), fmt.Sprintf("S%02d", i), "1", fmt.Sprint(100+i), Stock, US))
	}
	// ties are broken by symbol.
	assets = append(assets, asset("x", "A", "1", "114", Stock, US))

	got := Exposures(assets, nil)
	if len(got) != DefaultExposureLimit {
		t.Fatalf("Exposures() returned %d exposures, want %d", len(got), DefaultExposureLimit)
	}
	if got[0].Symbol != "A" || got[1].Symbol != "S14" {
		t.Errorf("first exposures = %s, %s, want A, S14", got[0].Symbol, got[1].Symbol)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Value.GreaterThan(got[i-1].Value) {
			t.Errorf("exposures not sorted at %d", i)
		}
	}
	if got := (LookThrough{Limit: -1}).Exposures(assets, nil); len(got) != 16 {
		t.Errorf("unlimited Exposures() returned %d exposures, want 16", len(got))
	}
}

func TestEtfCandidates(t *testing.T) {
	assets := []Asset{
		asset("1", "VOO", "1", "1", Stock, US),
		asset("2", "voo", "1", "1", Stock, US),
		asset("3", "BND", "1", "1", Bond, US),
		asset("4", "BTC-USD", "1", "1", Coin, NonUS),
	}
	got := EtfCandidates(assets)
	if fmt.Sprint(got) != "[VOO BND]" {
		t.Errorf("EtfCandidates() = %v, want [VOO BND]", got)
	}
}

// fakeHoldings serves holdings from a map, counting calls.
type fakeHoldings struct {
	holdings map[string][]Holding
	calls    int
}

func (f *fakeHoldings) TopHoldings(ctx context.Context, symbol string) ([]Holding, error) {
	f.calls++
	hs, ok := f.holdings[symbol]
	if !ok {
		return nil, errors.New("not a fund")
	}
	return hs, nil
}

func TestFetchHoldings(t *testing.T) {
	src := &fakeHoldings{holdings: map[string][]Holding{"VOO": {{Symbol: "AAPL", Percent: dec("0.07")}}}}
	var logs bytes.Buffer
	got := FetchHoldings(context.Background(), zerolog.New(&logs), src, []string{"voo", "AAPL"})
	if len(got) != 2 {
		t.Fatalf("FetchHoldings() returned %d entries, want 2", len(got))
	}
	if len(got["VOO"]) != 1 {
		t.Errorf("VOO holdings = %v, want 1 holding", got["VOO"])
	}
	if hs, ok := got["AAPL"]; !ok || len(hs) != 0 {
		t.Errorf("AAPL holdings = %v, %v, want an empty entry", hs, ok)
	}
	if !strings.Contains(logs.String(), `"symbol":"AAPL"`) || strings.Contains(logs.String(), `"symbol":"VOO"`) {
		t.Errorf("FetchHoldings() logged %q, want a warning for AAPL only", logs.String())
	}
}

func TestHoldingsCache(t *testing.T) {
	src := &fakeHoldings{holdings: map[string][]Holding{"VOO": {{Symbol: "AAPL", Percent: dec("0.07")}}}}
	c := &HoldingsCache{Source: src}
	ctx := context.Background()
	for range 3 {
		if _, err := c.TopHoldings(ctx, "VOO"); err != nil {
			t.Fatal(err)
		}
		if _, err := c.TopHoldings(ctx, "AAPL"); err == nil {
			t.Fatal("expected an error for AAPL")
		}
	}
	// VOO once, AAPL every time since failures are not cached.
	if src.calls != 4 {
		t.Errorf("source called %d times, want 4", src.calls)
	}
}
