package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
)

type refreshCmd struct {
	fallback bool
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "refresh the price of every asset" }
func (*refreshCmd) Usage() string {
	return `folio refresh [-fallback]

  Fetches the price of every symbol of the portfolio, one at a time. Symbols that cannot be
  priced keep their previous price.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.fallback, "fallback", false, "Resolve prices through the whole chain of providers")
}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	r := &folio.Refresher{Resolver: newProviders().resolver(c.fallback), Log: logger("refresh")}
	results := r.Refresh(ctx, s.Symbols())
	n := s.ApplyPrices(results)

	if err := saveStore(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderRefresh(results))
	fmt.Fprintf(stdout, "Updated %d of %d assets.\n", n, s.Len())
	return subcommands.ExitSuccess
}

type pricesCmd struct {
	symbols  string
	fallback bool
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "fetch the prices of symbols" }
func (*pricesCmd) Usage() string {
	return `folio prices -symbols <A,B,...> [-fallback]

  Fetches the prices of symbols without changing the portfolio.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "Comma separated list of symbols")
	f.BoolVar(&c.fallback, "fallback", false, "Resolve prices through the whole chain of providers")
}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := folio.ParseSymbols(strings.Join(append([]string{c.symbols}, f.Args()...), ","))
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "Error: -symbols is required.")
		return subcommands.ExitUsageError
	}
	r := &folio.Refresher{Resolver: newProviders().resolver(c.fallback), Log: logger("prices")}
	printMarkdown(renderer.RenderRefresh(r.Refresh(ctx, symbols)))
	return subcommands.ExitSuccess
}

type lookupCmd struct {
	symbol string
}

func (*lookupCmd) Name() string     { return "lookup" }
func (*lookupCmd) Synopsis() string { return "look up the price and classification of a symbol" }
func (*lookupCmd) Usage() string {
	return `folio lookup -symbol <symbol>

  Resolves a symbol through the whole chain of providers and shows its price in USD, type,
  location and profile.
`
}

func (c *lookupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "Symbol to look up")
}

func (c *lookupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbol := c.symbol
	if symbol == "" && f.NArg() == 1 {
		symbol = f.Arg(0)
	}
	if folio.NormalizeSymbol(symbol) == "" {
		fmt.Fprintln(os.Stderr, "Error: -symbol is required.")
		return subcommands.ExitUsageError
	}
	res := newProviders().fallback().Resolve(ctx, symbol)
	printMarkdown(renderer.RenderLookup(res))
	if !res.Price.Valid {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
