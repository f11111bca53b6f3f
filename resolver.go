package quotes

import (
	"context"
	"log"
	"maps"
	"slices"
	"time"
)

// Trailing windows the history tiers ask their source for.
const (
	shortWindowDays = 5
	longWindowDays  = 30
)

// bulkChunk is how many symbols go into one bulk request.
const bulkChunk = 40

// Resolver finds the latest tradable price of a symbol by walking a fixed
// cascade of sources: live quote, 5 day history, 1 month history, alternate
// regional daily source, then the local cache. A tier failure is logged and
// the next tier is tried; only when every tier misses does the result come
// back unpriced, with tier "none". Nil fields simply skip their tier.
type Resolver struct {
	Live    LiveSource
	History HistorySource
	Alt     AltSource
	Bulk    BulkSource
	Cache   Cache
}

// Resolve prices a single symbol. It never returns an error: the answer is
// a PriceQuote whose Tier says which source won, and whose Price is nil
// when all of them failed.
func (r *Resolver) Resolve(ctx context.Context, symbol string) PriceQuote {
	c := Classify(symbol, "")
	res := resolution{r: r, symbol: c.Symbol, currency: c.Currency}
	return res.run(ctx)
}

// ResolveAll prices many symbols: one bulk request covers most of them and
// only the misses walk the per-symbol cascade. Bulk hits are live closes
// stamped with their trading date; they are not written to the cache.
func (r *Resolver) ResolveAll(ctx context.Context, symbols []string) map[string]PriceQuote {
	normalized := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		normalized = append(normalized, Classify(sym, "").Symbol)
	}

	bulk := make(map[string]Close)
	if r.Bulk != nil {
		for chunk := range slices.Chunk(normalized, bulkChunk) {
			got, err := r.Bulk.Bulk(ctx, chunk)
			if err != nil {
				log.Printf("bulk quote failed, resolving %d symbols one by one: %v", len(chunk), err)
				continue
			}
			maps.Copy(bulk, got)
		}
	}

	out := make(map[string]PriceQuote, len(normalized))
	for _, sym := range normalized {
		if _, done := out[sym]; done {
			continue
		}
		if hit, ok := bulk[sym]; ok {
			price := hit.Price
			out[sym] = PriceQuote{
				Symbol:   sym,
				Price:    &price,
				Currency: Classify(sym, "").Currency,
				Tier:     TierLive,
				AsOf:     hit.Day.String(),
			}
			continue
		}
		out[sym] = r.Resolve(ctx, sym)
	}
	return out
}

// resolution is the per-symbol state of one cascade walk. The live tier
// captures the display name even when it has no price, and the history
// tiers reuse it.
type resolution struct {
	r        *Resolver
	symbol   string
	currency string
	name     string
}

type tier struct {
	name  string
	fetch func(ctx context.Context) (PriceQuote, error)
}

func (s *resolution) run(ctx context.Context) PriceQuote {
	tiers := []tier{
		{TierLive, s.live},
		{TierHistory5d, s.shortHistory},
		{TierHistory1mo, s.longHistory},
		{TierAltDaily, s.altDaily},
		{TierCache, s.cached},
	}
	for _, t := range tiers {
		q, err := t.fetch(ctx)
		if err != nil {
			log.Printf("%s source failed for %s, trying next tier: %v", t.name, s.symbol, err)
			continue
		}
		if q.Priced() {
			return q
		}
	}
	return PriceQuote{Symbol: s.symbol, Currency: s.currency, Tier: TierNone}
}

func (s *resolution) live(ctx context.Context) (PriceQuote, error) {
	if s.r.Live == nil {
		return PriceQuote{}, nil
	}
	lq, err := s.r.Live.Live(ctx, s.symbol)
	if err != nil {
		return PriceQuote{}, err
	}
	// The name is worth keeping even when the quote itself is empty.
	s.name = lq.Name
	if lq.Price == nil {
		return PriceQuote{}, nil
	}
	q := PriceQuote{
		Symbol:   s.symbol,
		Name:     lq.Name,
		Price:    lq.Price,
		Previous: lq.Previous,
		Currency: s.currency,
		Tier:     TierLive,
		AsOf:     time.Now().Format(TimeFormat),
	}
	s.writeCache(q)
	return q, nil
}

func (s *resolution) shortHistory(ctx context.Context) (PriceQuote, error) {
	return s.history(ctx, shortWindowDays, TierHistory5d)
}

func (s *resolution) longHistory(ctx context.Context) (PriceQuote, error) {
	return s.history(ctx, longWindowDays, TierHistory1mo)
}

func (s *resolution) history(ctx context.Context, days int, tierName string) (PriceQuote, error) {
	if s.r.History == nil {
		return PriceQuote{}, nil
	}
	closes, err := s.r.History.Closes(ctx, s.symbol, days)
	if err != nil {
		return PriceQuote{}, err
	}
	if closes == nil || closes.Len() == 0 {
		return PriceQuote{}, nil
	}
	day, last := closes.Latest()
	q := PriceQuote{
		Symbol:   s.symbol,
		Name:     s.name,
		Price:    &last,
		Currency: s.currency,
		Tier:     tierName,
		AsOf:     day.String(),
	}
	if closes.Len() > 1 {
		_, prev := closes.Tail(2).First()
		q.Previous = &prev
	}
	s.writeCache(q)
	return q, nil
}

func (s *resolution) altDaily(ctx context.Context) (PriceQuote, error) {
	alt := s.r.Alt
	if alt == nil || !alt.Supports(s.symbol) {
		return PriceQuote{}, nil
	}
	closes, err := alt.Closes(ctx, s.symbol)
	if err != nil {
		return PriceQuote{}, err
	}
	if closes == nil || closes.Len() == 0 {
		return PriceQuote{}, nil
	}
	day, last := closes.Latest()
	name := s.name
	if name == "" {
		name = s.symbol
	}
	q := PriceQuote{
		Symbol:   s.symbol,
		Name:     name,
		Price:    &last,
		Currency: s.currency,
		Tier:     TierAltDaily,
		AsOf:     day.String(),
	}
	s.writeCache(q)
	return q, nil
}

func (s *resolution) cached(ctx context.Context) (PriceQuote, error) {
	if s.r.Cache == nil {
		return PriceQuote{}, nil
	}
	rec, ok := s.r.Cache.Get(s.symbol)
	if !ok || rec.LastPrice.IsZero() {
		return PriceQuote{}, nil
	}
	price := rec.LastPrice
	return PriceQuote{
		Symbol:   s.symbol,
		Name:     rec.Name,
		Price:    &price,
		Currency: s.currency,
		Tier:     TierCache,
		AsOf:     rec.LastTimestamp,
	}, nil
}

// writeCache records a freshly priced quote. A failed write is logged and
// swallowed: the quote in hand is already good.
func (s *resolution) writeCache(q PriceQuote) {
	if s.r.Cache == nil {
		return
	}
	rec := Record{Symbol: q.Symbol, Name: q.Name, LastPrice: *q.Price, LastTimestamp: q.AsOf}
	if err := s.r.Cache.Put(q.Symbol, rec); err != nil {
		log.Printf("cache write failed for %s: %v", q.Symbol, err)
	}
}
