package quotes

import (
	"context"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// FXResolver turns currency pairs into conversion rates, memoizing each pair
// for its lifetime. Build one per analysis run so every figure in a report
// uses the same rate.
type FXResolver struct {
	source RateSource
	memo   map[Pair]decimal.Decimal
	calls  int
}

// NewFXResolver returns a resolver backed by source.
func NewFXResolver(source RateSource) *FXResolver {
	return &FXResolver{source: source, memo: make(map[Pair]decimal.Decimal)}
}

// Rate returns the factor that converts one unit of base into quote, taken
// from the last close of a one year lookback. An identity pair is exactly 1
// and never touches the source. When no rate exists over the whole window,
// the error is a *MissingRateError for that pair alone.
func (r *FXResolver) Rate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	if base == quote {
		return one, nil
	}
	pair := Pair{Base: base, Quote: quote}
	if rate, ok := r.memo[pair]; ok {
		return rate, nil
	}
	r.calls++
	hist, err := r.source.Rates(ctx, pair)
	if err != nil {
		return decimal.Decimal{}, &MissingRateError{Pair: pair, Err: err}
	}
	if hist == nil || hist.Len() == 0 {
		return decimal.Decimal{}, &MissingRateError{Pair: pair}
	}
	_, rate := hist.Latest()
	r.memo[pair] = rate
	return rate, nil
}

// Calls reports how many pair fetches actually reached the source. Identity
// pairs and memo hits do not count.
func (r *FXResolver) Calls() int { return r.calls }
