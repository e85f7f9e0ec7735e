// Package agent chats with Gemini about the portfolio. A facilitator answers the user, asking
// questions to experts that are declared to it as functions.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// Agent is an interactive chat session on a terminal.
type Agent struct {
	out         io.Writer
	in          *bufio.Scanner
	Facilitator *Expert
	Experts     []*Expert
	// Print displays the markdown answers. They are written as is to out if nil.
	Print func(markdown string)
	Log   zerolog.Logger
}

// New returns an Agent reading the user's questions from in and answering on out.
func New(out io.Writer, in io.Reader, experts ...*Expert) *Agent {
	return &Agent{
		out:         out,
		in:          bufio.NewScanner(in),
		Experts:     experts,
		Facilitator: newFacilitator(experts...),
		Log:         zerolog.Nop(),
	}
}

// Start opens the chats of the experts and of the facilitator.
func (a *Agent) Start(ctx context.Context, client *genai.Client) error {
	for _, e := range append(a.Experts, a.Facilitator) {
		if err := e.Start(ctx, client); err != nil {
			return err
		}
	}
	return nil
}

const prompt = "folio> "

// Run chats until the user says bye or the input ends. prompts are asked first, as if typed by
// the user.
func (a *Agent) Run(ctx context.Context, client *genai.Client, prompts ...string) error {
	if !a.Facilitator.Started() {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}
	return a.loop(ctx, func(ctx context.Context, question string) (string, error) {
		content, err := a.Facilitator.Ask(ctx, &genai.Part{Text: question})
		if err != nil {
			return "", err
		}
		return text(content), nil
	}, prompts)
}

func (a *Agent) loop(ctx context.Context, ask func(context.Context, string) (string, error), prompts []string) error {
	fmt.Fprintln(a.out, "Ask anything about your portfolio. Type 'help' for help, 'bye' to exit.")
	questions := 0
	defer func() { a.Log.Debug().Int("questions", questions).Msg("session ended") }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(a.out, prompt)
		var line string
		if len(prompts) > 0 {
			line, prompts = prompts[0], prompts[1:]
			fmt.Fprintln(a.out, line)
		} else {
			if !a.in.Scan() {
				fmt.Fprintln(a.out)
				return a.in.Err() // nil on Ctrl+D
			}
			line = a.in.Text()
		}

		switch line = strings.TrimSpace(line); strings.ToLower(line) {
		case "":
			continue
		case "bye", "exit", "quit":
			return nil
		case "help":
			a.print(a.help())
			continue
		}

		questions++
		answer, err := ask(ctx, line)
		if err != nil {
			return err
		}
		a.print(answer)
	}
}

// help lists the experts the facilitator can ask.
func (a *Agent) help() string {
	var b strings.Builder
	b.WriteString("Questions are answered with the help of:\n\n")
	for _, e := range a.Experts {
		fmt.Fprintf(&b, "- **%s**: %s\n", e.Name, strings.Join(strings.Fields(e.Description), " "))
	}
	b.WriteString("\nType 'bye' to exit.\n")
	return b.String()
}

func (a *Agent) print(markdown string) {
	if a.Print != nil {
		a.Print(markdown)
		return
	}
	fmt.Fprintln(a.out, markdown)
}
