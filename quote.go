package quotes

import (
	"github.com/shopspring/decimal"
)

// Source tiers, in the order the resolver tries them. The tier on a
// PriceQuote names the source that actually answered, so a reader can tell
// a fresh price from a stale one.
const (
	TierLive       = "live"        // realtime quote
	TierHistory5d  = "history_5d"  // last close of a 5 day window
	TierHistory1mo = "history_1mo" // last close of a 1 month window
	TierAltDaily   = "alt_daily"   // alternate regional daily source
	TierCache      = "cache"       // stale value from the local store
	TierNone       = "none"        // every tier failed
)

// TimeFormat stamps live quotes with wall-clock time. History-derived quotes
// carry the trading date alone, in date.DateFormat.
const TimeFormat = "2006-01-02 15:04:05"

// PriceQuote is the result of resolving one symbol: the best price the
// cascade could find, or an unpriced shell (Tier "none") when every source
// failed. Price and Previous are nil when unknown.
type PriceQuote struct {
	Symbol   string           `json:"symbol"`
	Name     string           `json:"name,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Previous *decimal.Decimal `json:"previous_close,omitempty"`
	Currency string           `json:"currency"`
	Tier     string           `json:"source_tier"`
	AsOf     string           `json:"as_of,omitempty"`
}

// Priced reports whether the cascade found an actual price.
func (q PriceQuote) Priced() bool { return q.Price != nil }

// Stale reports whether the price came from the local cache rather than a
// network source. Its AsOf keeps the original observation time.
func (q PriceQuote) Stale() bool { return q.Tier == TierCache }
