package folio

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("asset not found")
	ErrDuplicateID = errors.New("duplicate asset id")
)

// ChangeKind tells what kind of mutation produced a Change.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Updated  ChangeKind = "updated"
	Removed  ChangeKind = "removed"
	Replaced ChangeKind = "replaced"
	Priced   ChangeKind = "priced"
)

// Change is sent to observers after every successful mutation of a Store.
type Change struct {
	Kind        ChangeKind
	Assets      []Asset // the whole collection after the change
	LastUpdated time.Time
	Seq         uint64 // increases with every mutation
}

// AssetPatch holds the fields to change in an asset. Nil fields are left untouched.
type AssetPatch struct {
	Symbol   *string
	Quantity *decimal.Decimal
	Price    *decimal.Decimal
	Type     *AssetType
	Location *Location
}

// Store holds the portfolio's assets.
//
// It is safe for concurrent use. Every mutation replaces the collection as a whole, so readers
// never see a partial update.
type Store struct {
	mu          sync.RWMutex
	assets      []Asset
	lastUpdated time.Time
	seq         uint64

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int

	now func() time.Time
}

// NewStore returns a store holding assets. Assets without an id get a new one.
func NewStore(assets ...Asset) (*Store, error) {
	s := &Store{now: time.Now}
	if err := s.Replace(assets, time.Time{}); err != nil {
		return nil, err
	}
	return s, nil
}

// Assets returns a copy of the assets, in insertion order.
func (s *Store) Assets() []Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.assets)
}

// Len returns the number of assets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

// LastUpdated returns the time of the last price update, zero if never.
func (s *Store) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// Get returns the asset with the given id.
func (s *Store) Get(id string) (Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return Asset{}, false
	}
	return s.assets[i], true
}

// Symbols returns the distinct symbols of the assets in order of first appearance.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	symbols := make([]string, 0, len(s.assets))
	seen := make(map[string]bool)
	for _, a := range s.assets {
		if !seen[a.Symbol] {
			seen[a.Symbol] = true
			symbols = append(symbols, a.Symbol)
		}
	}
	return symbols
}

// State returns a consistent snapshot of the assets and the last price update.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{Assets: slices.Clone(s.assets), LastUpdated: s.lastUpdated}
}

// Current returns the collection as of the latest mutation. Its Kind is empty.
func (s *Store) Current() Change {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Change{Assets: slices.Clone(s.assets), LastUpdated: s.lastUpdated, Seq: s.seq}
}

// Summary computes the portfolio summary of the current assets.
func (s *Store) Summary() Summary { return Summarize(s.Assets()) }

// Add appends an asset and returns it as stored.
func (s *Store) Add(a Asset) (Asset, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a = a.normalize()
	if err := a.Validate(); err != nil {
		return Asset{}, err
	}

	s.mu.Lock()
	if s.index(a.ID) >= 0 {
		s.mu.Unlock()
		return Asset{}, fmt.Errorf("cannot add %q: %w %q", a.Symbol, ErrDuplicateID, a.ID)
	}
	next := append(slices.Clone(s.assets), a)
	change := s.swap(Added, next, s.lastUpdated)
	s.mu.Unlock()

	s.notify(change)
	return a, nil
}

// Update applies patch to the asset with the given id and returns the updated asset.
func (s *Store) Update(id string, patch AssetPatch) (Asset, error) {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return Asset{}, fmt.Errorf("cannot update %q: %w", id, ErrNotFound)
	}
	a := s.assets[i]
	if patch.Symbol != nil {
		a.Symbol = *patch.Symbol
	}
	if patch.Quantity != nil {
		a.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		a.Price = *patch.Price
	}
	if patch.Type != nil {
		a.Type = *patch.Type
	}
	if patch.Location != nil {
		a.Location = *patch.Location
	}
	a = a.normalize()
	if err := a.Validate(); err != nil {
		s.mu.Unlock()
		return Asset{}, err
	}
	next := slices.Clone(s.assets)
	next[i] = a
	change := s.swap(Updated, next, s.lastUpdated)
	s.mu.Unlock()

	s.notify(change)
	return a, nil
}

// Remove deletes the asset with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("cannot remove %q: %w", id, ErrNotFound)
	}
	next := slices.Delete(slices.Clone(s.assets), i, i+1)
	change := s.swap(Removed, next, s.lastUpdated)
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// Replace substitutes the whole collection. Either all assets are valid and replace the current
// ones, or nothing changes.
func (s *Store) Replace(assets []Asset, lastUpdated time.Time) error {
	next := make([]Asset, 0, len(assets))
	ids := make(map[string]bool)
	var errs error
	for _, a := range assets {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a = a.normalize()
		if err := a.Validate(); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if ids[a.ID] {
			errs = errors.Join(errs, fmt.Errorf("%w %q", ErrDuplicateID, a.ID))
			continue
		}
		ids[a.ID] = true
		next = append(next, a)
	}
	if errs != nil {
		return errs
	}

	s.mu.Lock()
	change := s.swap(Replaced, next, lastUpdated)
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// ApplyPrices sets the price of every asset whose symbol matches a result with a valid positive
// price, case-insensitively. Assets without a usable result keep their previous price.
// It returns the number of assets updated.
func (s *Store) ApplyPrices(results []PriceResult) int {
	prices := make(map[string]decimal.Decimal)
	for _, r := range results {
		if r.Price.Valid && r.Price.Decimal.IsPositive() {
			prices[NormalizeSymbol(r.Symbol)] = r.Price.Decimal
		}
	}

	s.mu.Lock()
	next := slices.Clone(s.assets)
	n := 0
	for i, a := range next {
		if p, ok := prices[strings.ToUpper(a.Symbol)]; ok {
			next[i].Price = p
			n++
		}
	}
	change := s.swap(Priced, next, s.clock())
	s.mu.Unlock()

	s.notify(change)
	return n
}

// Subscribe registers fn to be called after every change. Calls happen outside of the store's
// lock, in the mutating goroutine. The returned function unregisters fn.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	if s.observers == nil {
		s.observers = make(map[int]func(Change))
	}
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

// swap installs next as the new collection. Must be called with mu held.
func (s *Store) swap(kind ChangeKind, next []Asset, lastUpdated time.Time) Change {
	s.assets = next
	s.lastUpdated = lastUpdated
	s.seq++
	return Change{Kind: kind, Assets: slices.Clone(next), LastUpdated: lastUpdated, Seq: s.seq}
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *Store) notify(c Change) {
	s.obsMu.Lock()
	fns := make([]func(Change), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// index returns the position of id or -1. Must be called with mu held.
func (s *Store) index(id string) int {
	return slices.IndexFunc(s.assets, func(a Asset) bool { return a.ID == id })
}
