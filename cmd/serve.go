package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/folio/server"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type serveCmd struct {
	addr    string
	every   time.Duration
	persist bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the portfolio over HTTP" }
func (*serveCmd) Usage() string {
	return `folio serve [-addr <addr>] [-every <duration>]

  Serves the HTTP API and the websocket feed of the portfolio. Every change is saved to the state
  file.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8080", "Server listen address")
	f.DurationVar(&c.every, "every", 0, "Refresh prices periodically, e.g. 15m. Disabled if zero")
	f.BoolVar(&c.persist, "persist", true, "Save every change to the state file")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}

	p := newProviders()
	cfg := server.Config{
		Store:    s,
		Prices:   p.prices(),
		Fallback: p.fallback(),
		Holdings: p.holdings(),
		Log:      logger("server"),
	}
	if c.persist {
		cfg.StateFile = *stateFile
	}
	apiServer := server.New(cfg)
	defer apiServer.Close()

	httpServer := &http.Server{
		Addr:              c.addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if c.every > 0 {
		go apiServer.StartPolling(ctx, c.every)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", c.addr).Str("state", cfg.StateFile).Msg("folio listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
