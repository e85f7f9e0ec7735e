// Package cmd implements the CLI application to manage a portfolio.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/folio"
	"github.com/etnz/folio/eodhd"
	"github.com/etnz/folio/finnhub"
	"github.com/etnz/folio/yahoo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	stateFile  = flag.String("state", envOr(EnvStateFile, "portfolio.json"), "Path to the portfolio state file")
	finnhubKey = flag.String("finnhub-api-key", os.Getenv(EnvFinnhubKey), "finnhub.io API key")
	eodhdKey   = flag.String("eodhd-api-key", os.Getenv(EnvEodhdKey), "eodhd.com API key, enables eodhd in the fallback chain")
	Verbose    = flag.Bool("v", envBool(EnvVerbose), "Verbose logging")
)

// stdout receives the command outputs.
var stdout io.Writer = os.Stdout

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

// SetupLogging configures the global logger, on stderr, once the flags are parsed.
func SetupLogging() {
	level := zerolog.InfoLevel
	if *Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// logger returns the global logger for a component.
func logger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// printMarkdown renders markdown for the terminal, or prints it as is if it cannot.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(stdout, out)
			return
		}
	}
	log.Debug().Err(err).Msg("cannot render markdown")
	fmt.Fprintln(stdout, md)
}

// openStore loads the portfolio from the state file. Without a state file, it starts from the
// sample portfolio.
func openStore() (*folio.Store, error) {
	s, err := folio.LoadState(*stateFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("file", *stateFile).Msg("no state file, starting from the sample portfolio")
		return folio.NewStore(folio.SampleAssets()...)
	}
	return s, err
}

// saveStore writes the portfolio to the state file.
func saveStore(s *folio.Store) error {
	return folio.SaveState(*stateFile, s)
}

// providers are the configured market data providers.
type providers struct {
	finnhub *finnhub.Client
	yahoo   *yahoo.Client
	eodhd   *eodhd.Client // nil without a key.
}

func newProviders() *providers {
	p := &providers{
		finnhub: finnhub.New(*finnhubKey, logger(finnhub.Name)),
		yahoo:   yahoo.New(logger(yahoo.Name)),
	}
	if *eodhdKey != "" {
		p.eodhd = eodhd.New(*eodhdKey, logger(eodhd.Name))
	}
	return p
}

// prices returns the resolver of quick price refreshes: finnhub quotes only.
func (p *providers) prices() *folio.Resolver {
	return &folio.Resolver{
		Chain: folio.Chain{finnhub.PriceOnly{Client: p.finnhub}},
		Log:   logger("prices"),
	}
}

// fallback returns the resolver going through every configured provider.
func (p *providers) fallback() *folio.Resolver {
	var chain folio.Chain
	if p.finnhub.APIKey != "" {
		chain = append(chain, p.finnhub)
	}
	chain = append(chain, yahoo.Direct{Client: p.yahoo}, yahoo.Search{Client: p.yahoo})
	if p.eodhd != nil {
		chain = append(chain, p.eodhd)
	}
	return &folio.Resolver{Chain: chain, Log: logger("resolver")}
}

// resolver returns the fallback resolver if asked, the quick one otherwise.
func (p *providers) resolver(fallback bool) *folio.Resolver {
	if fallback {
		return p.fallback()
	}
	return p.prices()
}

func (p *providers) holdings() folio.HoldingsSource {
	return &folio.HoldingsCache{Source: p.yahoo}
}
