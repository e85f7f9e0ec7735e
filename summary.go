package folio

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// Summary is the portfolio summary: the total value and the assets sorted by decreasing value.
type Summary struct {
	TotalValue decimal.Decimal
	Assets     []Asset
}

// Allocation is the value of a category and its share of the total.
type Allocation struct {
	Key     string
	Value   decimal.Decimal
	Percent Percent
}

func (a Allocation) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("key", a.Key)
	w.Number("value", a.Value)
	w.Append("percent", float64(a.Percent))
	return w.MarshalJSON()
}

func (s Summary) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Number("totalValue", s.TotalValue)
	w.Append("assets", s.Assets)
	return w.MarshalJSON()
}

// Total returns the sum of quantity×price of all assets.
func Total(assets []Asset) decimal.Decimal {
	total := decimal.Zero
	for _, a := range assets {
		total = total.Add(a.Value())
	}
	return total
}

// Summarize computes the summary of assets. Assets of equal value keep their relative order.
func Summarize(assets []Asset) Summary {
	return Summary{TotalValue: Total(assets), Assets: byValue(assets)}
}

// TopN returns the n assets of highest value, in decreasing value order.
func TopN(assets []Asset, n int) []Asset {
	sorted := byValue(assets)
	if n < len(sorted) {
		sorted = sorted[:max(n, 0)]
	}
	return sorted
}

// GroupByType returns the allocation per asset type.
func GroupByType(assets []Asset) []Allocation {
	return groupBy(assets, func(a Asset) string { return string(a.Type) })
}

// GroupByLocation returns the allocation per location.
func GroupByLocation(assets []Asset) []Allocation {
	return groupBy(assets, func(a Asset) string { return string(a.Location) })
}

// groupBy sums asset values per key. Allocations are sorted by decreasing value, then by key.
func groupBy(assets []Asset, key func(Asset) string) []Allocation {
	total := Total(assets)
	values := make(map[string]decimal.Decimal)
	for _, a := range assets {
		k := key(a)
		values[k] = values[k].Add(a.Value())
	}

	allocations := make([]Allocation, 0, len(values))
	for k, v := range values {
		allocations = append(allocations, Allocation{Key: k, Value: v, Percent: PercentOf(v, total)})
	}
	slices.SortFunc(allocations, func(a, b Allocation) int {
		if c := b.Value.Cmp(a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return allocations
}

// byValue returns a copy of assets sorted by decreasing value, stable.
func byValue(assets []Asset) []Asset {
	sorted := append(make([]Asset, 0, len(assets)), assets...)
	slices.SortStableFunc(sorted, func(a, b Asset) int {
		return b.Value().Cmp(a.Value())
	})
	return sorted
}
