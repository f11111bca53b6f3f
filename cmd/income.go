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
	"github.com/shopspring/decimal"
)

// incomeCmd holds the flags for the 'income' subcommand.
type incomeCmd struct {
	jsonOut bool
}

func (*incomeCmd) Name() string     { return "income" }
func (*incomeCmd) Synopsis() string { return "report dividend income for one or more holdings" }
func (*incomeCmd) Usage() string {
	return `pq income [-json] <symbol>[=<shares>] [<symbol>[=<shares>]...]

  Values the trailing twelve month dividends of each holding in the
  reporting currency, with a sensitivity band around every converted
  figure. A bare symbol is treated as a single share.
`
}

func (c *incomeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "print the whole comparison as JSON")
}

// parseHolding reads "SYMBOL=SHARES"; a bare symbol holds one share.
func parseHolding(arg string) (quotes.Holding, error) {
	sym, shares, found := strings.Cut(arg, "=")
	if !found {
		return quotes.Holding{Symbol: sym, Shares: quotes.Q(1)}, nil
	}
	qty, err := decimal.NewFromString(shares)
	if err != nil {
		return quotes.Holding{}, fmt.Errorf("invalid share count in %q: %w", arg, err)
	}
	return quotes.Holding{Symbol: sym, Shares: quotes.Q(qty)}, nil
}

func (c *incomeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Println("at least one holding expected")
		return subcommands.ExitUsageError
	}
	holdings := make([]quotes.Holding, 0, f.NArg())
	for _, arg := range f.Args() {
		h, err := parseHolding(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		holdings = append(holdings, h)
	}

	cache, err := OpenCache()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		return subcommands.ExitFailure
	}
	a, err := NewAnalyzer(cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	cmp := a.Compare(ctx, holdings)

	if c.jsonOut {
		if err := json.NewEncoder(os.Stdout).Encode(cmp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(renderComparison(cmp, len(holdings) == 1))
	return subcommands.ExitSuccess
}

// renderComparison lays the comparison out as markdown. detailed adds the
// per-year breakdown and stability metrics, useful for a single holding.
func renderComparison(cmp quotes.Comparison, detailed bool) string {
	var b strings.Builder

	b.WriteString("| Symbol | Shares | Price | Source | Annual | Monthly | Band | Yield |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	converted := false
	for _, row := range cmp.Rows {
		price, annual, monthly, band, yield := "-", "-", "-", "-", "-"
		if row.Quote.Priced() {
			price = fmt.Sprintf("%s %s", row.Quote.Price, row.Quote.Currency)
		}
		if row.Income != nil {
			annual = row.Income.Annual.String()
			monthly = row.Income.Monthly.String()
			band = fmt.Sprintf("%s .. %s", row.Income.Low, row.Income.High)
		}
		if row.Yield != nil {
			yield = row.Yield.StringFixed(2) + "%"
		}
		note := ""
		if row.RateMissing {
			note = " (no rate)"
		}
		if row.Annual.Converted() {
			converted = true
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s%s |\n",
			row.Quote.Symbol, row.Shares, price, row.Quote.Tier, annual, monthly, band, yield, note)
	}

	fmt.Fprintf(&b, "\n**Total annual income**: %s", cmp.Total)
	fmt.Fprintf(&b, "\n**Total market value**: %s\n", cmp.Value)

	if len(cmp.ByRegion) > 0 {
		b.WriteString("\n| Region | Value | Weight |\n|---|---|---|\n")
		for _, region := range regionOrder(cmp) {
			weight := cmp.Weight(region).Mul(decimal.NewFromInt(100))
			fmt.Fprintf(&b, "| %s | %s | %s%% |\n", region, cmp.ByRegion[region], weight.StringFixed(1))
		}
	}

	if converted {
		b.WriteString("\n> Converted figures use the latest rate for every year, including past ones.\n")
	}
	if len(cmp.Unpriced) > 0 {
		fmt.Fprintf(&b, "\n> No price found for: %s\n", strings.Join(cmp.Unpriced, ", "))
	}

	if detailed && len(cmp.Rows) == 1 {
		b.WriteString(renderDetail(cmp.Rows[0]))
	}
	return b.String()
}

func renderDetail(row quotes.IncomeSummary) string {
	var b strings.Builder
	if years := row.Annual.Years(); len(years) > 0 {
		b.WriteString("\n## Annual income\n\n| Year | Income |\n|---|---|\n")
		for _, year := range years {
			fmt.Fprintf(&b, "| %d | %s |\n", year, row.Annual.ByYear[year])
		}
		if row.Annual.Converted() {
			fmt.Fprintf(&b, "\n> All years valued at the latest %s rate: %s\n",
				row.Annual.Pair, row.Annual.Rate)
		}
	}
	if row.Stability != nil {
		b.WriteString("\n## Stability\n\n")
		fmt.Fprintf(&b, "* standard deviation: %.4f\n", row.Stability.StdDev)
		if row.Stability.HasGrowth {
			fmt.Fprintf(&b, "* growth: %.1f%%\n", row.Stability.Growth)
		}
	}
	return b.String()
}

// regionOrder returns the regions of a comparison in a stable order.
func regionOrder(cmp quotes.Comparison) []quotes.Region {
	var regions []quotes.Region
	for _, row := range cmp.Rows {
		if _, ok := cmp.ByRegion[row.Region]; !ok {
			continue
		}
		seen := false
		for _, r := range regions {
			if r == row.Region {
				seen = true
				break
			}
		}
		if !seen {
			regions = append(regions, row.Region)
		}
	}
	return regions
}
