package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/quotes/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion runs first: when invoked by the shell it prints the
	// candidates and exits before any command logic.
	completion := &complete.Command{
		Sub: map[string]*complete.Command{
			"resolve": {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
			"income":  {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
			"fx":      {},
			"update":  {},
			"topic":   {Args: predict.Set{"readme", "resolution", "income", "cache", "regions", "*"}},
		},
		Flags: map[string]complete.Predictor{
			"cache-file": predict.Files("*.jsonl"),
			"reporting":  predict.Set{"USD", "HKD", "TWD", "EUR", "GBP", "JPY", "CNY", "SGD", "AUD", "CAD"},
			"delta":      predict.Something,
		},
	}
	completion.Complete("pq")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
