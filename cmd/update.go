package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type updateCmd struct{}

func (*updateCmd) Name() string { return "update" }
func (*updateCmd) Synopsis() string {
	return "refresh every symbol already present in the local cache"
}
func (*updateCmd) Usage() string              { return "pq update\n" }
func (c *updateCmd) SetFlags(f *flag.FlagSet) {}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Println("no arguments expected")
		return subcommands.ExitUsageError
	}

	cache, err := OpenCache()
	if err != nil {
		fmt.Println(err)
		return subcommands.ExitFailure
	}
	symbols := cache.Symbols()
	if len(symbols) == 0 {
		fmt.Println("cache is empty, nothing to update")
		return subcommands.ExitSuccess
	}

	// Resolve one by one: every fresh answer is written back to the cache,
	// which is the whole point of updating.
	r := NewResolver(cache)
	fresh := 0
	for _, sym := range symbols {
		q := r.Resolve(ctx, sym)
		switch {
		case !q.Priced():
			fmt.Printf("%-12s no price found\n", sym)
		case q.Stale():
			fmt.Printf("%-12s still %s (from %s)\n", sym, q.Price, q.AsOf)
		default:
			fresh++
			fmt.Printf("%-12s %s %s (%s, %s)\n", sym, q.Price, q.Currency, q.Tier, q.AsOf)
		}
	}
	fmt.Printf("updated %d of %d symbols\n", fresh, len(symbols))
	return subcommands.ExitSuccess
}
