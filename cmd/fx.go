package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/quotes"
	"github.com/etnz/quotes/yahoo"
	"github.com/google/subcommands"
)

type fxCmd struct{}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "resolve the conversion rate of a currency pair" }
func (*fxCmd) Usage() string {
	return `pq fx <base> <quote>

  Prints the latest close of the pair over a one year lookback,
  e.g. 'pq fx USD HKD'.
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {}

func (c *fxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Println("expected exactly two currencies, e.g. 'pq fx USD HKD'")
		return subcommands.ExitUsageError
	}
	base := strings.ToUpper(strings.TrimSpace(f.Arg(0)))
	quote := strings.ToUpper(strings.TrimSpace(f.Arg(1)))

	fx := quotes.NewFXResolver(yahoo.New())
	rate, err := fx.Rate(ctx, base, quote)
	if err != nil {
		var missing *quotes.MissingRateError
		if errors.As(err, &missing) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", missing)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return subcommands.ExitFailure
	}

	fmt.Printf("1 %s = %s %s\n", base, rate, quote)
	return subcommands.ExitSuccess
}
