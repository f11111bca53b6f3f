package quotes

import (
	"context"

	"github.com/etnz/quotes/date"
	"github.com/shopspring/decimal"
)

// LiveQuote is the normalized answer of a realtime source. Price or Previous
// are nil when the vendor returned no usable value; Name can still be set in
// that case, and the resolver reuses it for history-derived quotes.
type LiveQuote struct {
	Name     string
	Price    *decimal.Decimal
	Previous *decimal.Decimal
}

// Close is one daily closing price, as returned by bulk downloads.
type Close struct {
	Day   date.Date
	Price decimal.Decimal
}

// LiveSource answers realtime quote requests.
type LiveSource interface {
	Live(ctx context.Context, symbol string) (LiveQuote, error)
}

// HistorySource returns daily closes over a trailing window of roughly
// `days` calendar days. The history is chronological; an empty history
// means the source had no data, not an error.
type HistorySource interface {
	Closes(ctx context.Context, symbol string, days int) (*date.History[decimal.Decimal], error)
}

// AltSource is a regional fallback consulted when the main sources fail.
// Supports reports whether the source covers a symbol at all.
type AltSource interface {
	Supports(symbol string) bool
	Closes(ctx context.Context, symbol string) (*date.History[decimal.Decimal], error)
}

// BulkSource prices many symbols in one request. The result map only holds
// symbols that actually got a close; callers cascade the rest one by one.
type BulkSource interface {
	Bulk(ctx context.Context, symbols []string) (map[string]Close, error)
}

// RateSource returns the daily rate history of a currency pair over a one
// year lookback.
type RateSource interface {
	Rates(ctx context.Context, pair Pair) (*date.History[decimal.Decimal], error)
}

// DividendSource returns the full per-share dividend history of a symbol,
// keyed by ex-date, in the symbol's local currency.
type DividendSource interface {
	Dividends(ctx context.Context, symbol string) (*date.History[decimal.Decimal], error)
}

// Cache is the local store the resolver reads stale prices from and writes
// fresh ones to. Put returns an error wrapping ErrNotPersisted when the
// write did not reach the disk.
type Cache interface {
	Get(symbol string) (Record, bool)
	Put(symbol string, rec Record) error
}
