package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/folio/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type assistCmd struct {
	lookthrough bool
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "chat with an AI assistant about the portfolio" }
func (*assistCmd) Usage() string {
	return `folio assist [-lookthrough=false] [<question>]

  Starts a chat with Gemini, which can read the assets, the allocations and, unless disabled, the
  exposures through funds. The question, if any, is asked first. GEMINI_API_KEY must be set.
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.lookthrough, "lookthrough", true, "Let the assistant fetch the holdings of funds")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create the Gemini client: %v\n", err)
		return subcommands.ExitFailure
	}

	holdings := newProviders().holdings()
	if !c.lookthrough {
		holdings = nil
	}
	a := agent.New(stdout, os.Stdin, agent.NewTrader(), agent.NewAnalyst(s, holdings))
	a.Print = printMarkdown
	a.Log = logger("assist")

	var prompts []string
	if q := strings.TrimSpace(strings.Join(f.Args(), " ")); q != "" {
		prompts = append(prompts, q)
	}
	if err := a.Run(ctx, client, prompts...); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
