package quotes

import (
	"context"
	"log"

	"github.com/etnz/quotes/date"
	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	defaultDelta = decimal.NewFromFloat(0.05)
	twelve       = Q(12)
)

// Holding is one position: a symbol and how many shares of it.
type Holding struct {
	Symbol string
	Shares Quantity
}

// ConvertedIncome is the trailing twelve month dividend income of a holding
// in the reporting currency, with the rate-sensitivity band around it.
type ConvertedIncome struct {
	Annual  Money
	Monthly Money // Annual spread over twelve months
	Low     Money
	High    Money
}

// IncomeSummary is one holding's income picture. Pointer fields are nil when
// the underlying data was not available: no price, no dividend stream, or no
// exchange rate.
type IncomeSummary struct {
	Quote  PriceQuote
	Region Region
	Shares Quantity

	// Per-share dividends of the trailing twelve months, local currency.
	TrailingPerShare decimal.Decimal

	Income      *ConvertedIncome
	Yield       *decimal.Decimal // trailing per-share over price, percent
	MarketValue *Money
	Annual      AnnualIncome
	Stability   *Stability
	RateMissing bool
}

// Comparison lines up several holdings and totals what could be valued.
type Comparison struct {
	Rows     []IncomeSummary
	Unpriced []string // symbols no tier could price
	Total    Money    // trailing annual income, reporting currency
	Value    Money    // market value, reporting currency
	ByRegion map[Region]Money
}

// Weight returns a region's share of the total market value, 0 to 1.
func (c Comparison) Weight(r Region) decimal.Decimal {
	v, ok := c.ByRegion[r]
	if !ok || c.Value.IsZero() {
		return decimal.Decimal{}
	}
	return v.Ratio(c.Value)
}

// Analyzer wires the price resolver, the dividend source and the rate
// resolver into income reports. Reporting is the currency every figure is
// expressed in; Delta is the sensitivity width (0.05 when zero).
type Analyzer struct {
	Resolver  *Resolver
	Dividends DividendSource
	FX        *FXResolver
	Reporting string
	Delta     decimal.Decimal
}

func (a *Analyzer) delta() decimal.Decimal {
	if a.Delta.IsZero() {
		return defaultDelta
	}
	return a.Delta
}

// Income summarizes a single holding.
func (a *Analyzer) Income(ctx context.Context, symbol string, shares Quantity) IncomeSummary {
	c := Classify(symbol, a.Reporting)
	q := a.Resolver.Resolve(ctx, c.Symbol)
	return a.summarize(ctx, c, q, shares)
}

// Compare summarizes many holdings at once. Prices come from one batch
// resolution; each row then degrades on its own, so a single bad symbol or
// missing rate never empties the report.
func (a *Analyzer) Compare(ctx context.Context, holdings []Holding) Comparison {
	symbols := make([]string, len(holdings))
	for i, h := range holdings {
		symbols[i] = h.Symbol
	}
	priced := a.Resolver.ResolveAll(ctx, symbols)

	cmp := Comparison{
		Total:    M(0, a.Reporting),
		Value:    M(0, a.Reporting),
		ByRegion: make(map[Region]Money),
	}
	for _, h := range holdings {
		c := Classify(h.Symbol, a.Reporting)
		s := a.summarize(ctx, c, priced[c.Symbol], h.Shares)
		cmp.Rows = append(cmp.Rows, s)
		if !s.Quote.Priced() {
			cmp.Unpriced = append(cmp.Unpriced, c.Symbol)
		}
		if s.Income != nil {
			cmp.Total = cmp.Total.Add(s.Income.Annual)
		}
		if s.MarketValue != nil {
			cmp.Value = cmp.Value.Add(*s.MarketValue)
			cmp.ByRegion[c.Region] = cmp.ByRegion[c.Region].Add(*s.MarketValue)
		}
	}
	return cmp
}

func (a *Analyzer) summarize(ctx context.Context, c Classification, q PriceQuote, shares Quantity) IncomeSummary {
	s := IncomeSummary{Quote: q, Region: c.Region, Shares: shares}

	var events *date.History[decimal.Decimal]
	if a.Dividends != nil {
		var err error
		events, err = a.Dividends.Dividends(ctx, c.Symbol)
		if err != nil {
			log.Printf("dividend history failed for %s: %v", c.Symbol, err)
			events = nil
		}
	}
	if end, ok := LatestExDate(events); ok {
		s.TrailingPerShare = TrailingPerShare(events, end)
	}
	if st, ok := DividendStability(events); ok {
		s.Stability = &st
	}

	rate, err := a.FX.Rate(ctx, c.Currency, a.Reporting)
	if err != nil {
		s.RateMissing = true
		log.Printf("income for %s reported without conversion: %v", c.Symbol, err)
	}

	if q.Priced() {
		if !s.RateMissing {
			v := M(*q.Price, c.Currency).Mul(shares).Convert(rate, a.Reporting)
			s.MarketValue = &v
		}
		if q.Price.IsPositive() && s.TrailingPerShare.IsPositive() {
			y := s.TrailingPerShare.Div(*q.Price).Mul(hundred)
			s.Yield = &y
		}
	}

	if q.Priced() && s.TrailingPerShare.IsPositive() && !s.RateMissing {
		annual := M(s.TrailingPerShare, c.Currency).Mul(shares).Convert(rate, a.Reporting)
		low, high := SensitivityBand(annual, c.Pair, a.delta())
		s.Income = &ConvertedIncome{
			Annual:  annual,
			Monthly: annual.Div(twelve),
			Low:     low,
			High:    high,
		}
	}

	if !s.RateMissing && events != nil && events.Len() > 0 {
		if annual, err := AnnualDividendIncome(ctx, a.FX, events, shares, c.Currency, a.Reporting); err == nil {
			s.Annual = annual
		}
	}
	return s
}
