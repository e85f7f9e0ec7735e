package folio

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyString(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"1234.5", "$1,234.50"},
		{"0.745", "$0.75"},
		{"290636.5551", "$290,636.56"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got := USD(decimal.RequireFromString(tc.in)).String()
			if got != tc.want {
				t.Errorf("USD(%s).String() = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPercentOf(t *testing.T) {
	testCases := []struct {
		name        string
		part, whole string
		want        Percent
	}{
		{"quarter", "25", "100", 25},
		{"whole", "3", "3", 100},
		{"zero total", "5", "0", 0},
		{"zero part", "0", "10", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := PercentOf(decimal.RequireFromString(tc.part), decimal.RequireFromString(tc.whole))
			if !got.Equal(tc.want) {
				t.Errorf("PercentOf(%s, %s) = %v, want %v", tc.part, tc.whole, got, tc.want)
			}
		})
	}
	if s := Percent(12.3456).String(); s != "12.35%" {
		t.Errorf("Percent.String() = %q, want %q", s, "12.35%")
	}
}
