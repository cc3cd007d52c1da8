package cmd

import (
	"flag"

	"github.com/etnz/folio"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

var signalTypes = predict.Set{string(folio.StopGain), string(folio.StopLoss), string(folio.BuyStructure), string(folio.SellStructure)}

// flag value predictions that are better than "something", by flag name or
// by command.flag name.
var predictions = map[string]complete.Predictor{
	"config":    predict.Files("*.toml"),
	"db":        predict.Dirs("*"),
	"t":         predict.Set{string(folio.Stock), string(folio.Fund), string(folio.Bond), string(folio.Cash)},
	"level":     predict.Set{string(folio.High), string(folio.Medium), string(folio.Low), string(folio.Info)},
	"scope":     predict.Set{string(folio.ScopeInstrument), string(folio.ScopeCategory), string(folio.ScopeMultiInstrument), string(folio.ScopeMultiCategory), string(folio.ScopeAllInstruments), string(folio.ScopeAllCategories)},
	"x":         predict.Set{"split:", "stock-dividend:", "spinoff:", "merger", "merger:"},
	"rebuild.t": signalTypes,
	"signals.t": signalTypes,
}

// argPredictions predicts positional arguments.
var argPredictions = map[string]complete.Predictor{
	"catalog": predict.Files("*.yaml"),
	"import":  predict.Files("*.jsonl"),
	"restore": predict.Files("*.jsonl"),
	"backup":  predict.Files("*.jsonl"),
}

// Complete runs the shell completion and exits when the shell asked for
// it, through the COMP_LINE variable. Otherwise it returns immediately.
func Complete(name string, global *flag.FlagSet) {
	Completion(global).Complete(name)
}

// Completion describes the command line for shell completion.
func Completion(global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors("", global),
	}
	for _, g := range groups() {
		for _, c := range g.commands {
			fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(fs)
			root.Sub[c.Name()] = &complete.Command{
				Flags: flagPredictors(c.Name(), fs),
				Args:  argPredictions[c.Name()],
			}
		}
	}
	return root
}

func flagPredictors(cmd string, fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if p, ok := predictions[cmd+"."+f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if p, ok := predictions[f.Name]; ok {
			flags[f.Name] = p
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}
