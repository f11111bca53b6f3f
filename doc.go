// Package quotes resolves equity prices across markets and turns per-share
// dividend histories into income figures in a single reporting currency.
//
// The core functionalities include:
//   - Symbol Classification: Mapping vendor-style tickers ("2330.TW",
//     "0005.HK", "AAPL") to their market region and trading currency, purely
//     from the ticker suffix.
//   - Price Resolution: Finding the latest tradable price of a symbol through
//     an ordered cascade of sources (realtime quote, short history, monthly
//     history, alternate regional source, local cache), each resolution
//     tagged with the tier that answered so stale data is never mistaken for
//     fresh data.
//   - Exchange Rates: Resolving currency pair rates from a one year lookback,
//     memoized per analysis run so every figure in a report uses the same
//     rate.
//   - Dividend Aggregation: Calendar-year grouping, trailing twelve month
//     sums, rate-sensitivity bands, and stability metrics over a dividend
//     stream.
//   - Local Cache: A human-readable, line-oriented store of last known
//     prices that survives vendor outages and is written atomically.
//
// This package serves as the foundational logic for the `pq` command-line
// tool, ensuring that all operations degrade gracefully when any single
// data source is unavailable.
package quotes
