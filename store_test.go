package folio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStoreAdd(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Add(Asset{Symbol: " aapl ", Quantity: dec("10"), Price: dec("190"), Type: Stock, Location: US})
	if err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if a.ID == "" {
		t.Errorf("Add() did not assign an id")
	}
	if a.Symbol != "AAPL" {
		t.Errorf("Add().Symbol = %q, want AAPL", a.Symbol)
	}
	if _, err := s.Add(a); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Add(duplicate) error = %v, want ErrDuplicateID", err)
	}
	if _, err := s.Add(asset("x", "", "1", "1", Stock, US)); err == nil {
		t.Errorf("Add(no symbol) expected an error")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreCanonicalKinds(t *testing.T) {
	s, err := NewStore(asset("1", "BTC-USD", "1", "100", Coin, NonUS))
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Add(asset("2", "VXUS", "1", "100", AssetType(" Stock"), Location("no us")))
	if err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if a.Type != Stock || a.Location != NonUS {
		t.Errorf("Add() = %q/%q, want stock/non-us", a.Type, a.Location)
	}
	legacy := Location("Non US")
	if a, err = s.Update("2", AssetPatch{Location: &legacy}); err != nil || a.Location != NonUS {
		t.Errorf("Update(Non US) = %q, %v, want non-us", a.Location, err)
	}

	groups := GroupByLocation(s.Assets())
	if len(groups) != 1 || groups[0].Key != string(NonUS) || !groups[0].Value.Equal(dec("200")) {
		t.Errorf("GroupByLocation() = %v, want a single non-us group of 200", groups)
	}

	if err := s.Replace([]Asset{asset("3", "VOO", "1", "1", AssetType("STOCK"), Location("US"))}, time.Time{}); err != nil {
		t.Fatalf("Replace() unexpected error: %v", err)
	}
	if got, _ := s.Get("3"); got.Type != Stock || got.Location != US {
		t.Errorf("Replace() stored %q/%q, want stock/us", got.Type, got.Location)
	}
}

func TestStoreUpdateRemove(t *testing.T) {
	s, err := NewStore(asset("1", "AAPL", "10", "190", Stock, US), asset("2", "BND", "5", "70", Bond, US))
	if err != nil {
		t.Fatal(err)
	}

	qty := dec("12")
	loc := NonUS
	got, err := s.Update("1", AssetPatch{Quantity: &qty, Location: &loc})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if !got.Quantity.Equal(qty) || got.Location != NonUS || !got.Price.Equal(dec("190")) {
		t.Errorf("Update() = %v, want quantity 12, non-us and unchanged price", got)
	}

	neg := dec("-1")
	if _, err := s.Update("1", AssetPatch{Price: &neg}); err == nil {
		t.Errorf("Update(negative price) expected an error")
	}
	if a, _ := s.Get("1"); !a.Price.Equal(dec("190")) {
		t.Errorf("failed Update() changed the price to %v", a.Price)
	}
	if _, err := s.Update("404", AssetPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}

	if err := s.Remove("2"); err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if err := s.Remove("2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(removed) error = %v, want ErrNotFound", err)
	}
	if _, ok := s.Get("2"); ok {
		t.Errorf("Get(removed) found the asset")
	}
}

func TestStoreReplace(t *testing.T) {
	s, err := NewStore(SampleAssets()...)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Assets()

	bad := []Asset{asset("a", "AAPL", "1", "1", Stock, US), asset("a", "MSFT", "1", "1", Stock, US)}
	if err := s.Replace(bad, time.Time{}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Replace(duplicates) error = %v, want ErrDuplicateID", err)
	}
	if s.Len() != len(before) {
		t.Errorf("failed Replace() changed the store: %d assets, want %d", s.Len(), len(before))
	}

	if err := s.Replace(bad[:1], time.Time{}); err != nil {
		t.Fatalf("Replace() unexpected error: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreApplyPrices(t *testing.T) {
	s, err := NewStore(
		asset("1", "AAPL", "10", "190", Stock, US),
		asset("2", "aapl", "1", "190", Stock, US),
		asset("3", "MSFT", "1", "400", Stock, US),
		asset("4", "BND", "1", "70", Bond, US),
	)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n := s.ApplyPrices([]PriceResult{
		priced("Aapl", "200"),
		{Symbol: "MSFT", Error: "rate limited"},
		priced("BND", "0"),
	})
	if n != 2 {
		t.Errorf("ApplyPrices() = %d, want 2", n)
	}
	want := map[string]string{"1": "200", "2": "200", "3": "400", "4": "70"}
	for id, price := range want {
		a, _ := s.Get(id)
		if !a.Price.Equal(dec(price)) {
			t.Errorf("asset %s price = %v, want %s", id, a.Price, price)
		}
	}
	if !s.LastUpdated().Equal(now) {
		t.Errorf("LastUpdated() = %v, want %v", s.LastUpdated(), now)
	}
}

func TestStoreSymbols(t *testing.T) {
	s, err := NewStore(
		asset("1", "aapl", "1", "1", Stock, US),
		asset("2", "BND", "1", "1", Bond, US),
		asset("3", "AAPL", "1", "1", Stock, US),
	)
	if err != nil {
		t.Fatal(err)
	}
	got := s.Symbols()
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "BND" {
		t.Errorf("Symbols() = %v, want [AAPL BND]", got)
	}
}

func TestStoreSubscribe(t *testing.T) {
	s, err := NewStore()
	if err != nil {
		t.Fatal(err)
	}
	var kinds []ChangeKind
	var seqs []uint64
	cancel := s.Subscribe(func(c Change) {
		kinds = append(kinds, c.Kind)
		seqs = append(seqs, c.Seq)
	})

	a, err := s.Add(asset("", "AAPL", "1", "1", Stock, US))
	if err != nil {
		t.Fatal(err)
	}
	s.ApplyPrices([]PriceResult{priced("AAPL", "2")})
	if err := s.Remove(a.ID); err != nil {
		t.Fatal(err)
	}
	cancel()
	if _, err := s.Add(asset("", "MSFT", "1", "1", Stock, US)); err != nil {
		t.Fatal(err)
	}

	want := []ChangeKind{Added, Priced, Removed}
	if len(kinds) != len(want) {
		t.Fatalf("observed %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("change[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] != seqs[i-1]+1 {
			t.Errorf("change sequences = %v, want consecutive numbers", seqs)
			break
		}
	}
	if cur := s.Current(); cur.Seq != seqs[len(seqs)-1]+1 || len(cur.Assets) != 1 || cur.Kind != "" {
		t.Errorf("Current() = seq %d, %d assets, kind %q, want seq %d, 1 asset, no kind", cur.Seq, len(cur.Assets), cur.Kind, seqs[len(seqs)-1]+1)
	}
}

func TestStoreConcurrent(t *testing.T) {
	s, err := NewStore(SampleAssets()...)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.ApplyPrices([]PriceResult{priced("VOO", decimal.NewFromInt(int64(600+i)).String())})
		}()
		go func() {
			defer wg.Done()
			if got := len(s.Summary().Assets); got != 17 {
				t.Errorf("Summary() has %d assets, want 17", got)
			}
		}()
	}
	wg.Wait()
}
