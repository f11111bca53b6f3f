// Package cmd implements the CLI application to resolve prices and income.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/quotes"
	"github.com/etnz/quotes/yahoo"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&resolveCmd{}, "prices")
	c.Register(&updateCmd{}, "prices")

	c.Register(&fxCmd{}, "rates")
	c.Register(&incomeCmd{}, "income")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

// .env values participate in the flag defaults below, so load them first.
var _ = godotenv.Load()

var cacheFile = flag.String("cache-file", envOr("QUOTES_CACHE", "symbols.jsonl"), "Path to the local price cache (JSONL format)")
var reportingFlag = flag.String("reporting", envOr("QUOTES_REPORTING", "HKD"), "Currency every income figure is expressed in")
var deltaFlag = flag.String("delta", envOr("QUOTES_DELTA", "0.05"), "Width of the rate sensitivity band")

// envOr returns the environment value when set, the fallback otherwise.
func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// reporting returns the reporting currency, normalized.
func reporting() string { return strings.ToUpper(strings.TrimSpace(*reportingFlag)) }

// OpenCache opens the local price cache named by the -cache-file flag.
func OpenCache() (*quotes.Store, error) {
	return quotes.OpenStore(*cacheFile)
}

// NewResolver wires the full source cascade backed by the given cache.
func NewResolver(cache quotes.Cache) *quotes.Resolver {
	y := yahoo.New()
	return &quotes.Resolver{Live: y, History: y, Bulk: y, Alt: quotes.NewEastMoney(), Cache: cache}
}

// NewAnalyzer wires an income analyzer in the reporting currency.
func NewAnalyzer(cache quotes.Cache) (*quotes.Analyzer, error) {
	delta, err := decimal.NewFromString(*deltaFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid -delta %q: %w", *deltaFlag, err)
	}
	y := yahoo.New()
	return &quotes.Analyzer{
		Resolver:  &quotes.Resolver{Live: y, History: y, Bulk: y, Alt: quotes.NewEastMoney(), Cache: cache},
		Dividends: y,
		FX:        quotes.NewFXResolver(y),
		Reporting: reporting(),
		Delta:     delta,
	}, nil
}
