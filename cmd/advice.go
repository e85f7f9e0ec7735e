package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/folio/agent"
	"github.com/etnz/folio/renderer"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type adviceCmd struct {
	ask     bool
	context string
}

func (*adviceCmd) Name() string     { return "advice" }
func (*adviceCmd) Synopsis() string { return "prepare a prompt asking for advice on the portfolio" }
func (*adviceCmd) Usage() string {
	return `folio advice [-context <text>] [-ask]

  Prints a prompt describing the portfolio, ready to paste into an AI assistant. With -ask, the
  prompt is sent to Gemini and the answer is printed instead. GEMINI_API_KEY must be set.
`
}

func (c *adviceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.ask, "ask", false, "Send the prompt to Gemini")
	f.StringVar(&c.context, "context", "", "Specific questions or context to add to the prompt")
}

func (c *adviceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	prompt := renderer.AdvicePrompt(s.Summary(), c.context)
	if !c.ask {
		fmt.Fprint(stdout, prompt)
		return subcommands.ExitSuccess
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}
	answer, err := agent.Advise(ctx, client, prompt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error asking for advice:", err)
		return subcommands.ExitFailure
	}
	printMarkdown(answer)
	return subcommands.ExitSuccess
}
