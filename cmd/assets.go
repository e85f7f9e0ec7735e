package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// assetFlags are the asset fields given on the command line. Empty means not given.
type assetFlags struct {
	symbol   string
	quantity string
	price    string
	typ      string
	location string
}

func (c *assetFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "Ticker symbol, e.g. VOO or BTC-USD")
	f.StringVar(&c.quantity, "quantity", "", "Quantity held")
	f.StringVar(&c.price, "price", "", "Price in USD")
	f.StringVar(&c.typ, "type", "", "Asset type: stock, bond or coin")
	f.StringVar(&c.location, "location", "", "Asset location: us or non-us")
}

// patch parses the given fields.
func (c *assetFlags) patch() (p folio.AssetPatch, err error) {
	if c.symbol != "" {
		p.Symbol = &c.symbol
	}
	if c.quantity != "" {
		q, err := decimal.NewFromString(c.quantity)
		if err != nil {
			return p, fmt.Errorf("invalid quantity %q: %w", c.quantity, err)
		}
		p.Quantity = &q
	}
	if c.price != "" {
		price, err := decimal.NewFromString(c.price)
		if err != nil {
			return p, fmt.Errorf("invalid price %q: %w", c.price, err)
		}
		p.Price = &price
	}
	if c.typ != "" {
		t, err := folio.ParseAssetType(c.typ)
		if err != nil {
			return p, err
		}
		p.Type = &t
	}
	if c.location != "" {
		l, err := folio.ParseLocation(c.location)
		if err != nil {
			return p, err
		}
		p.Location = &l
	}
	return p, nil
}

type addCmd struct {
	assetFlags
	id string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an asset to the portfolio" }
func (*addCmd) Usage() string {
	return `folio add -symbol <symbol> -quantity <quantity> [-price <usd>] [-type <type>] [-location <location>]

  Adds an asset. The price, type and location are looked up when not given.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.assetFlags.SetFlags(f)
	f.StringVar(&c.id, "id", "", "Asset id, generated if empty")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || c.quantity == "" {
		fmt.Fprintln(os.Stderr, "Error: -symbol and -quantity are required.")
		return subcommands.ExitUsageError
	}
	p, err := c.patch()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a := folio.Asset{ID: c.id, Symbol: *p.Symbol, Quantity: *p.Quantity}
	if p.Price != nil {
		a.Price = *p.Price
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Location != nil {
		a.Location = *p.Location
	}

	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	if p.Price == nil || p.Type == nil || p.Location == nil {
		var res folio.Resolution
		a, res = newProviders().fallback().Complete(ctx, a)
		if p.Price == nil && !res.Price.Valid {
			fmt.Fprintf(os.Stderr, "Warning: no price found for %s, added with a zero price: %s\n", res.Symbol, res.Error)
		}
	}

	a, err = s.Add(a)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := saveStore(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Added %s %s at %s (id %s)\n", a.Quantity, a.Symbol, folio.USD(a.Price), a.ID)
	return subcommands.ExitSuccess
}

type editCmd struct {
	assetFlags
	id string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit an asset of the portfolio" }
func (*editCmd) Usage() string {
	return `folio edit -id <id> [-symbol <symbol>] [-quantity <quantity>] [-price <usd>] [-type <type>] [-location <location>]

  Changes the given fields of an asset.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.assetFlags.SetFlags(f)
	f.StringVar(&c.id, "id", "", "Id of the asset to edit, as printed by 'folio list'")
}

func (c *editCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required.")
		return subcommands.ExitUsageError
	}
	p, err := c.patch()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	a, err := s.Update(c.id, p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := saveStore(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Updated %s: %s at %s\n", a.ID, a.Quantity, folio.USD(a.Price))
	return subcommands.ExitSuccess
}

type removeCmd struct {
	id string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove an asset from the portfolio" }
func (*removeCmd) Usage() string {
	return `folio remove -id <id>

  Removes an asset.
`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Id of the asset to remove, as printed by 'folio list'")
}

func (c *removeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required.")
		return subcommands.ExitUsageError
	}
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := s.Remove(c.id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := saveStore(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Removed %s\n", c.id)
	return subcommands.ExitSuccess
}

type listCmd struct{}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the assets of the portfolio" }
func (*listCmd) Usage() string {
	return `folio list

  Lists all assets, largest first.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {}

func (c *listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderAssets(renderer.NewAssetList(s.State())))
	return subcommands.ExitSuccess
}

type analyticsCmd struct {
	top int
}

func (*analyticsCmd) Name() string     { return "analytics" }
func (*analyticsCmd) Synopsis() string { return "display the portfolio allocation" }
func (*analyticsCmd) Usage() string {
	return `folio analytics [-top <n>]

  Displays the total value, the allocation by type and by location, and the largest assets.
`
}

func (c *analyticsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.top, "top", 5, "Number of largest assets to display")
}

func (c *analyticsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.top < 0 {
		fmt.Fprintln(os.Stderr, "Error: -top must not be negative.")
		return subcommands.ExitUsageError
	}
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderAnalytics(renderer.NewAnalytics(s.Assets(), c.top)))
	return subcommands.ExitSuccess
}
