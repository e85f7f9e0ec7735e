package agent

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/etnz/folio"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

type fakePortfolio []folio.Asset

func (p fakePortfolio) State() folio.State { return folio.State{Assets: p} }

type fakeHoldings map[string][]folio.Holding

func (f fakeHoldings) TopHoldings(ctx context.Context, symbol string) ([]folio.Holding, error) {
	return f[symbol], nil
}

func testPortfolio() fakePortfolio {
	return fakePortfolio{
		{ID: "1", Symbol: "VOO", Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(500), Type: folio.Stock, Location: folio.US},
		{ID: "2", Symbol: "BTC-USD", Quantity: decimal.RequireFromString("0.01"), Price: decimal.NewFromInt(60000), Type: folio.Coin, Location: folio.NonUS},
	}
}

func TestLibrary(t *testing.T) {
	holdings := fakeHoldings{"VOO": {{Symbol: "NVDA", Name: "NVIDIA Corp", Percent: decimal.RequireFromString("0.08")}}}
	lib := NewLibrary(AnalystFunctions(testPortfolio(), holdings))
	ctx := context.Background()

	tests := []struct {
		function string
		want     string
	}{
		{"Assets", "| VOO | stock | US |"},
		{"Allocation", "## By Location"},
		{"Exposures", "| NVDA | NVIDIA Corp | VOO |"},
	}
	for _, test := range tests {
		resp := lib(ctx, &genai.FunctionCall{ID: "42", Name: test.function})
		if resp.ID != "42" || resp.Name != test.function {
			t.Errorf("%s: response to %s/%s", test.function, resp.ID, resp.Name)
		}
		out, _ := resp.Response["output"].(string)
		if !strings.Contains(out, test.want) {
			t.Errorf("%s output = %q, want it to contain %q", test.function, out, test.want)
		}
	}

	resp := lib(ctx, &genai.FunctionCall{ID: "1", Name: "Nope"})
	if msg, _ := resp.Response["error"].(string); msg != "unknown function Nope" {
		t.Errorf("unknown function error = %q", msg)
	}
}

func TestExposuresWithoutHoldings(t *testing.T) {
	lib := NewLibrary(AnalystFunctions(testPortfolio(), nil))
	resp := lib(context.Background(), &genai.FunctionCall{Name: "Exposures"})
	if _, ok := resp.Response["error"].(string); !ok {
		t.Errorf("Exposures without holdings response = %v, want an error", resp.Response)
	}
}

func TestDeclarations(t *testing.T) {
	a := New(nil, strings.NewReader(""), NewTrader(), NewAnalyst(testPortfolio(), nil))
	decls := a.Facilitator.Config.Tools[0].FunctionDeclarations
	if len(decls) != 2 || decls[0].Name != "Trader" || decls[1].Name != "Analyst" {
		t.Errorf("facilitator declarations = %v, want Trader and Analyst", decls)
	}
	if decls[1].Parameters.Required[0] != "question" {
		t.Errorf("expert declaration should require a question")
	}
}

func TestAskNotStarted(t *testing.T) {
	if _, err := NewAdvisor().Ask(context.Background(), &genai.Part{Text: "hi"}); err == nil {
		t.Errorf("Ask() on a not started expert expected an error")
	}
}

func TestExpertCallWithoutQuestion(t *testing.T) {
	resp := NewTrader().Call(context.Background(), "7", map[string]any{})
	if msg, _ := resp.Response["error"].(string); msg != "question is required" {
		t.Errorf("Call() without a question error = %q", msg)
	}
}

func TestLoop(t *testing.T) {
	var out bytes.Buffer
	a := New(&out, strings.NewReader("\nwhat about bonds?\nhelp\nbye\nnever asked\n"), NewTrader())
	var asked []string
	ask := func(ctx context.Context, q string) (string, error) {
		asked = append(asked, q)
		return "answer to " + q, nil
	}
	if err := a.loop(context.Background(), ask, []string{"how much VOO?"}); err != nil {
		t.Fatalf("loop() unexpected error: %v", err)
	}
	if got, want := strings.Join(asked, "|"), "how much VOO?|what about bonds?"; got != want {
		t.Errorf("loop() asked %q, want %q", got, want)
	}
	for _, want := range []string{"answer to how much VOO?", "answer to what about bonds?", "**Trader**"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("loop() output does not contain %q:\n%s", want, out.String())
		}
	}
}

func TestLoopError(t *testing.T) {
	a := New(&bytes.Buffer{}, strings.NewReader(""))
	boom := errors.New("boom")
	err := a.loop(context.Background(), func(context.Context, string) (string, error) { return "", boom }, []string{"hi"})
	if !errors.Is(err, boom) {
		t.Errorf("loop() = %v, want %v", err, boom)
	}
	if err := a.loop(context.Background(), nil, nil); err != nil {
		t.Errorf("loop() on an empty input = %v, want nil", err)
	}
}
