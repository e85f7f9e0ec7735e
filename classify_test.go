package folio

import "testing"

func TestClassify(t *testing.T) {
	testCases := []struct {
		name    string
		symbol  string
		profile *Profile
		meta    *QuoteMeta
		want    Classification
	}{
		{"crypto pair", "BTC-USD", nil, nil, Classification{Coin, NonUS}},
		{"crypto lower case", "eth-usd", nil, nil, Classification{Coin, NonUS}},
		{"crypto marker", "WBTC", nil, nil, Classification{Coin, NonUS}},
		{"bond fund", "BND", nil, nil, Classification{Bond, US}},
		{"balanced fund listed as bond", "vbiax", nil, nil, Classification{Bond, US}},
		{"international fund", "VXUS", nil, nil, Classification{Stock, NonUS}},
		{"unknown", "NVDA", nil, nil, Classification{Stock, US}},
		{"us profile", "AAPL", &Profile{Country: "US"}, nil, Classification{Stock, US}},
		{"us profile long name", "AAPL", &Profile{Country: "United States"}, nil, Classification{Stock, US}},
		{"foreign profile", "ASML", &Profile{Country: "NL"}, nil, Classification{Stock, NonUS}},
		{"empty profile", "ZZZZ", &Profile{}, nil, Classification{Stock, US}},
		{"list beats profile", "VXUS", &Profile{Country: "US"}, nil, Classification{Stock, NonUS}},
		{"korean won quote", "005930.KS", nil, &QuoteMeta{Currency: "KRW", Exchange: "KSC"}, Classification{Stock, NonUS}},
		{"korean exchange", "005930.KS", nil, &QuoteMeta{Exchange: "KSC"}, Classification{Stock, NonUS}},
		{"crypto quote type", "SOL", nil, &QuoteMeta{QuoteType: "CRYPTOCURRENCY", Currency: "USD"}, Classification{Coin, NonUS}},
		{"usd etf quote", "BND", nil, &QuoteMeta{QuoteType: "ETF", Currency: "USD"}, Classification{Bond, US}},
		{"usd equity quote", "MSFT", nil, &QuoteMeta{QuoteType: "EQUITY", Currency: "USD"}, Classification{Stock, US}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.symbol, tc.profile, tc.meta)
			if got != tc.want {
				t.Errorf("Classify(%q, %+v, %+v) = %+v, want %+v", tc.symbol, tc.profile, tc.meta, got, tc.want)
			}
		})
	}
}
