package renderer

import (
	"time"

	"github.com/etnz/folio"
	"github.com/shopspring/decimal"
)

// AssetList is the view of all assets, largest first.
type AssetList struct {
	Total       decimal.Decimal
	Assets      []folio.Asset
	LastUpdated time.Time
}

// NewAssetList builds the view of the store content.
func NewAssetList(s folio.State) *AssetList {
	summary := folio.Summarize(s.Assets)
	return &AssetList{Total: summary.TotalValue, Assets: summary.Assets, LastUpdated: s.LastUpdated}
}

// RenderAssets renders the asset list.
func RenderAssets(v *AssetList) string {
	return renderTemplate("assets", "assets.md", map[string]string{
		"total": "total.md",
	}, v)
}

// Analytics is the view of the allocations and top holdings.
type Analytics struct {
	Total      decimal.Decimal
	ByType     []folio.Allocation
	ByLocation []folio.Allocation
	Top        []folio.Asset
}

// NewAnalytics computes the analytics of assets, keeping the top n assets.
func NewAnalytics(assets []folio.Asset, n int) *Analytics {
	return &Analytics{
		Total:      folio.Total(assets),
		ByType:     folio.GroupByType(assets),
		ByLocation: folio.GroupByLocation(assets),
		Top:        folio.TopN(assets, n),
	}
}

// RenderAnalytics renders the analytics.
func RenderAnalytics(v *Analytics) string {
	return renderTemplate("analytics", "analytics.md", map[string]string{
		"total":      "total.md",
		"allocation": "allocation.md",
	}, v)
}

// Exposures is the look-through view.
type Exposures struct {
	Total     decimal.Decimal
	Exposures []folio.Exposure
	Remainder folio.RemainderPolicy
}

// RenderExposures renders the look-through exposures.
func RenderExposures(v *Exposures) string {
	return renderTemplate("exposures", "exposures.md", nil, v)
}

// RenderRefresh renders the outcome of a price refresh.
func RenderRefresh(results []folio.PriceResult) string {
	return renderTemplate("refresh", "refresh.md", nil, results)
}

// RenderLookup renders the resolution of a symbol.
func RenderLookup(r folio.Resolution) string {
	return renderTemplate("lookup", "lookup.md", nil, r)
}

// advice is the data of the advice prompt.
type advice struct {
	*Analytics
	Assets []folio.Asset
	Custom string
}

// AdvicePrompt returns a prompt asking an assistant for advice on the portfolio. custom, if any, is
// added as specific questions or context.
func AdvicePrompt(summary folio.Summary, custom string) string {
	return renderTemplate("advice", "advice.md", nil, advice{
		Analytics: NewAnalytics(summary.Assets, 0),
		Assets:    summary.Assets,
		Custom:    custom,
	})
}

// Dropped tells whether the uncovered part of funds is missing from the exposures.
func (v *Exposures) Dropped() bool { return v.Remainder == folio.DropRemainder }

// Fund is the top holdings of a fund.
type Fund struct {
	Symbol   string
	Holdings []folio.Holding
}

// NewFunds lists the funds of holdings in the order of symbols.
func NewFunds(symbols []string, holdings map[string][]folio.Holding) []Fund {
	funds := make([]Fund, 0, len(symbols))
	for _, s := range symbols {
		s = folio.NormalizeSymbol(s)
		funds = append(funds, Fund{Symbol: s, Holdings: holdings[s]})
	}
	return funds
}

// RenderFunds renders the top holdings of funds.
func RenderFunds(funds []Fund) string {
	return renderTemplate("holdings", "holdings.md", nil, funds)
}
