package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/quotes"
	"github.com/google/subcommands"
)

// resolveCmd holds the flags for the 'resolve' subcommand.
type resolveCmd struct {
	jsonOut bool
}

func (*resolveCmd) Name() string     { return "resolve" }
func (*resolveCmd) Synopsis() string { return "resolve the latest price of one or more symbols" }
func (*resolveCmd) Usage() string {
	return `pq resolve [-json] <symbol> [<symbol>...]

  Walks the source cascade for each symbol and prints the best price found,
  tagged with the source tier that answered it.
`
}

func (c *resolveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "print one JSON object per symbol")
}

func (c *resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Println("at least one symbol expected")
		return subcommands.ExitUsageError
	}

	cache, err := OpenCache()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		return subcommands.ExitFailure
	}

	results := NewResolver(cache).ResolveAll(ctx, f.Args())

	if c.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		for _, arg := range f.Args() {
			q := results[quotes.Classify(arg, "").Symbol]
			if err := enc.Encode(q); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
		}
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	b.WriteString("| Symbol | Name | Price | Currency | Source | As of |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, arg := range f.Args() {
		q := results[quotes.Classify(arg, "").Symbol]
		price := "-"
		if q.Priced() {
			price = q.Price.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			q.Symbol, q.Name, price, q.Currency, q.Tier, q.AsOf)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
