package quotes

import (
	"context"
	"math"
	"slices"

	"github.com/etnz/quotes/date"
	"github.com/shopspring/decimal"
)

// stabilityWindow is how many of the most recent dividend events feed the
// stability metrics. The events of busy payers span far less than 36 months.
const stabilityWindow = 36

// AnnualIncome is the per-year dividend income of one holding, every year
// valued at the same latest rate.
type AnnualIncome struct {
	ByYear map[int]Money
	Pair   Pair            // identity when no conversion happened
	Rate   decimal.Decimal // the single rate applied to every year
}

// Years returns the covered calendar years in ascending order.
func (a AnnualIncome) Years() []int {
	years := make([]int, 0, len(a.ByYear))
	for y := range a.ByYear {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}

// Converted reports whether a cross-currency rate was applied. When true,
// historical years are valued at today's rate, not the rate of their time,
// and renderers should say so.
func (a AnnualIncome) Converted() bool { return !a.Pair.Identity() }

// AnnualDividendIncome groups the per-share dividend events by the calendar
// year of their ex-date, scales each yearly total by the share count, and
// converts it into the reporting currency.
func AnnualDividendIncome(ctx context.Context, fx *FXResolver, events *date.History[decimal.Decimal], shares Quantity, local, reporting string) (AnnualIncome, error) {
	pair := Pair{Base: local, Quote: reporting}
	rate, err := fx.Rate(ctx, local, reporting)
	if err != nil {
		return AnnualIncome{}, err
	}
	perYear := make(map[int]decimal.Decimal)
	if events != nil {
		for day, amount := range events.Values() {
			y := day.Year()
			perYear[y] = perYear[y].Add(amount)
		}
	}
	out := AnnualIncome{ByYear: make(map[int]Money, len(perYear)), Pair: pair, Rate: rate}
	for y, perShare := range perYear {
		out.ByYear[y] = M(perShare, local).Mul(shares).Convert(rate, reporting)
	}
	return out, nil
}

// LatestExDate returns the most recent ex-date, or false when there are no
// dividend events at all.
func LatestExDate(events *date.History[decimal.Decimal]) (date.Date, bool) {
	if events == nil || events.Len() == 0 {
		return date.Date{}, false
	}
	day, _ := events.Latest()
	return day, true
}

// TrailingPerShare sums the per-share dividends of the trailing twelve
// months: strictly after end minus 365 days, up to and including end.
func TrailingPerShare(events *date.History[decimal.Decimal], end date.Date) decimal.Decimal {
	var sum decimal.Decimal
	if events == nil {
		return sum
	}
	cutoff := end.Add(-365)
	for day, amount := range events.Values() {
		if day.After(cutoff) && !day.After(end) {
			sum = sum.Add(amount)
		}
	}
	return sum
}

// TrailingIncome values the trailing twelve month dividends of a holding in
// the reporting currency. The window is anchored at the latest ex-date, so a
// payer whose data feed lags still gets its most recent full year.
func TrailingIncome(ctx context.Context, fx *FXResolver, events *date.History[decimal.Decimal], shares Quantity, local, reporting string) (Money, error) {
	end, ok := LatestExDate(events)
	if !ok {
		return M(0, reporting), nil
	}
	rate, err := fx.Rate(ctx, local, reporting)
	if err != nil {
		return Money{}, err
	}
	perShare := TrailingPerShare(events, end)
	return M(perShare, local).Mul(shares).Convert(rate, reporting), nil
}

// SensitivityBand brackets a converted amount with the rate shifted down and
// up by delta. An identity pair carries no rate risk, so both bounds equal
// the amount itself.
func SensitivityBand(amount Money, pair Pair, delta decimal.Decimal) (low, high Money) {
	if pair.Identity() {
		return amount, amount
	}
	return amount.Scale(one.Sub(delta)), amount.Scale(one.Add(delta))
}

// Stability describes how steady a dividend stream has been over its most
// recent events.
type Stability struct {
	StdDev    float64
	Growth    float64 // percent change from the first to the last event
	HasGrowth bool    // false when the first event is zero
}

// DividendStability computes the metrics over the last stabilityWindow
// events. ok is false when there are no events at all.
func DividendStability(events *date.History[decimal.Decimal]) (s Stability, ok bool) {
	if events == nil || events.Len() == 0 {
		return Stability{}, false
	}
	recent := events.Tail(stabilityWindow)
	values := make([]float64, 0, recent.Len())
	for _, amount := range recent.Values() {
		values = append(values, amount.InexactFloat64())
	}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		dev := v - mean
		variance += dev * dev
	}
	variance /= float64(len(values))
	s.StdDev = math.Sqrt(variance)

	if first := values[0]; first != 0 {
		s.Growth = (values[len(values)-1]/first - 1) * 100
		s.HasGrowth = true
	}
	return s, true
}
