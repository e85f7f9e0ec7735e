package cmd

import (
	"flag"

	"github.com/etnz/folio"
	"github.com/etnz/folio/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of folio, built from the flags of every subcommand.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	var names predict.Set
	for _, cmds := range Commands {
		for _, c := range cmds {
			f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(f)
			root.Sub[c.Name()] = &complete.Command{
				Flags: flagPredictors(f),
				Args:  argPredictor(c.Name()),
			}
			names = append(names, c.Name())
		}
	}
	root.Sub["help"] = &complete.Command{Args: names}
	return root
}

func flagPredictors(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) { flags[fl.Name] = flagPredictor(fl) })
	return flags
}

func flagPredictor(fl *flag.Flag) complete.Predictor {
	if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch fl.Name {
	case "state", "o":
		return predict.Files("*.json")
	case "type":
		return predict.Set{string(folio.Stock), string(folio.Bond), string(folio.Coin)}
	case "location":
		return predict.Set{string(folio.US), string(folio.NonUS)}
	case "remainder":
		return predict.Set{folio.DropRemainder.String(), folio.AttributeRemainder.String()}
	}
	return predict.Something
}

func argPredictor(command string) complete.Predictor {
	switch command {
	case "import":
		return predict.Files("*.json")
	case "topic":
		return predict.Set(append(docs.Names(), docs.Index, "*"))
	}
	return nil
}
