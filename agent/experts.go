package agent

import (
	"context"
	"errors"

	"github.com/etnz/folio"
	"github.com/etnz/folio/renderer"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// instruction returns a system instruction.
func instruction(s string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: s}}}
}

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: instruction(`
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is here primarily to get advice or information about the assets in their portfolio.
			Devise a plan of questions to ask to each experts and come up with the best response to the user's request.

			The user will assume that you know about their tickers, check the portfolio first to understand what they are.
		`),
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns an expert of markets, grounded on Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of all the financial products and institutions,
		about the latest news about the different funds or companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: instruction(`
			You are a expert in Trading, you can search and find about anything related to
			financial institutions, companies, markets, funds etc. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
			`),
		},
	}
}

// Portfolio gives access to the assets.
type Portfolio interface {
	State() folio.State
}

// AnalystFunctions returns the functions the analyst uses to read the portfolio. holdings may be
// nil, in which case funds are not looked through.
func AnalystFunctions(p Portfolio, holdings folio.HoldingsSource) []*Func {
	return []*Func{
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Assets",
				Description: "Assets lists all assets of the portfolio, largest first, with their quantity, price and value in USD.",
				Response:    &genai.Schema{Type: genai.TypeString, Description: "A markdown table of the assets."},
			},
			Func: func(ctx context.Context) (string, error) {
				return renderer.RenderAssets(renderer.NewAssetList(p.State())), nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Allocation",
				Description: "Allocation details the portfolio allocation by asset type (stock, bond, coin) and by location (US or not), and the top 5 assets.",
				Response:    &genai.Schema{Type: genai.TypeString, Description: "A markdown report of the allocations."},
			},
			Func: func(ctx context.Context) (string, error) {
				return renderer.RenderAnalytics(renderer.NewAnalytics(p.State().Assets, 5)), nil
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name: "Exposures",
				Description: `Exposures looks through the funds of the portfolio, and returns the 10 largest underlying
				securities, whether held directly or through funds.`,
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown table of the exposures."},
			},
			Func: func(ctx context.Context) (string, error) {
				if holdings == nil {
					return "", errors.New("fund holdings are not available")
				}
				assets := p.State().Assets
				hs := folio.FetchHoldings(ctx, log.With().Str("expert", "Analyst").Logger(), holdings, folio.EtfCandidates(assets))
				return renderer.RenderExposures(&renderer.Exposures{
					Total:     folio.Total(assets),
					Exposures: folio.Exposures(assets, hs),
				}), nil
			},
		},
	}
}

// NewAnalyst returns the expert of the user's portfolio.
func NewAnalyst(p Portfolio, holdings folio.HoldingsSource) *Expert {
	lib := AnalystFunctions(p, holdings)
	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. They are in charge of reading the user's portfolio.
		They know the assets, their values, the allocations and the exposures through funds.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: instruction(`
			You are an analyst in charge of the user's portfolio.
			You know how to use the Tools to extract relevant information about the user's portfolio.
			You are part of a team of experts, yours is everything about the user's portfolio. They might ask
			you questions about the user's portfolio, pardon their approximative language and figure out what they meant.
			`),
		},
		Library: NewLibrary(lib),
	}
}

// NewAdvisor returns a financial advisor, grounded on Google Search.
func NewAdvisor() *Expert {
	return &Expert{
		Name:        "Advisor",
		Description: "A financial advisor for long term individual investors.",
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: instruction(`
			You are a financial advisor for individual long term investors.
			Answer in markdown. Be specific and concise, and ground your recommendations on recent information.
			`),
		},
	}
}

// Advise sends prompt, as built by renderer.AdvicePrompt, to an advisor and returns its answer.
func Advise(ctx context.Context, client *genai.Client, prompt string) (string, error) {
	advisor := NewAdvisor()
	if err := advisor.Start(ctx, client); err != nil {
		return "", err
	}
	content, err := advisor.Ask(ctx, &genai.Part{Text: prompt})
	if err != nil {
		return "", err
	}
	return text(content), nil
}
