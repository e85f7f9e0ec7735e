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

type holdingsCmd struct {
	symbols string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the top holdings of funds" }
func (*holdingsCmd) Usage() string {
	return `folio holdings [-symbols <A,B,...>]

  Displays the top holdings of funds, by default of the stocks and bonds of the portfolio.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "Comma separated list of funds")
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := folio.ParseSymbols(strings.Join(append([]string{c.symbols}, f.Args()...), ","))
	if len(symbols) == 0 {
		s, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
			return subcommands.ExitFailure
		}
		symbols = folio.EtfCandidates(s.Assets())
	}
	holdings := folio.FetchHoldings(ctx, logger("funds"), newProviders().holdings(), symbols)
	printMarkdown(renderer.RenderFunds(renderer.NewFunds(symbols, holdings)))
	return subcommands.ExitSuccess
}

type lookthroughCmd struct {
	remainder string
	limit     int
}

func (*lookthroughCmd) Name() string     { return "lookthrough" }
func (*lookthroughCmd) Synopsis() string { return "display the exposures through funds" }
func (*lookthroughCmd) Usage() string {
	return `folio lookthrough [-remainder drop|attribute] [-limit <n>]

  Spreads the value of each fund onto its top holdings, and adds what is held directly. -limit
  must be positive, or negative to display every exposure.
`
}

func (c *lookthroughCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.remainder, "remainder", folio.DropRemainder.String(), "What to do with the value of a fund beyond its top holdings: drop or attribute")
	f.IntVar(&c.limit, "limit", folio.DefaultExposureLimit, "Number of exposures to display, all if negative")
}

func parseRemainder(s string) (folio.RemainderPolicy, error) {
	for _, p := range []folio.RemainderPolicy{folio.DropRemainder, folio.AttributeRemainder} {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("invalid remainder %q, want drop or attribute", s)
}

func (c *lookthroughCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	policy, err := parseRemainder(c.remainder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.limit == 0 {
		fmt.Fprintln(os.Stderr, "Error: -limit cannot be 0.")
		return subcommands.ExitUsageError
	}
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	assets := s.Assets()
	holdings := folio.FetchHoldings(ctx, logger("funds"), newProviders().holdings(), folio.EtfCandidates(assets))
	lt := folio.LookThrough{Remainder: policy, Limit: c.limit}
	printMarkdown(renderer.RenderExposures(&renderer.Exposures{
		Total:     folio.Total(assets),
		Exposures: lt.Exposures(assets, holdings),
		Remainder: policy,
	}))
	return subcommands.ExitSuccess
}
