package quotes

import (
	"fmt"
	"sort"
	"strings"
)

// Region identifies the market a symbol trades in, derived from the
// symbol's suffix.
type Region string

const (
	TW      Region = "TW" // Taiwan
	HK      Region = "HK" // Hong Kong
	US      Region = "US" // United States, the home market (no suffix)
	JP      Region = "JP" // Japan
	SH      Region = "SH" // Shanghai
	SZ      Region = "SZ" // Shenzhen
	UK      Region = "UK" // United Kingdom
	DE      Region = "DE" // Germany
	FR      Region = "FR" // France
	SG      Region = "SG" // Singapore
	AU      Region = "AU" // Australia
	CA      Region = "CA" // Canada
	Unknown Region = "UNKNOWN"
)

// regions lists every declared Region, used to check table completeness at init.
var regions = []Region{TW, HK, US, JP, SH, SZ, UK, DE, FR, SG, AU, CA, Unknown}

// regionSuffix maps each region to its symbol suffix. The home market US has
// none, and Unknown has no entry at all.
var regionSuffix = map[Region]string{
	TW: ".TW",
	HK: ".HK",
	US: "",
	JP: ".T",
	SH: ".SS",
	SZ: ".SZ",
	UK: ".L",
	DE: ".DE",
	FR: ".PA",
	SG: ".SI",
	AU: ".AX",
	CA: ".TO",
}

// regionCurrency maps every region to its trading currency. Unknown trades in
// the home currency.
var regionCurrency = map[Region]string{
	TW:      "TWD",
	HK:      "HKD",
	US:      "USD",
	JP:      "JPY",
	SH:      "CNY",
	SZ:      "CNY",
	UK:      "GBP",
	DE:      "EUR",
	FR:      "EUR",
	SG:      "SGD",
	AU:      "AUD",
	CA:      "CAD",
	Unknown: "USD",
}

// bySuffix holds the known suffixes sorted longest first, so that a longer
// suffix can never be shadowed by a shorter one (".TW" and ".TO" before ".T").
// Ties break lexicographically to keep the match order deterministic.
var bySuffix []struct {
	suffix string
	region Region
}

func init() {
	for _, r := range regions {
		if _, ok := regionCurrency[r]; !ok {
			panic(fmt.Sprintf("region %s has no currency", r))
		}
		suffix, ok := regionSuffix[r]
		if r == Unknown {
			continue
		}
		if !ok {
			panic(fmt.Sprintf("region %s has no suffix entry", r))
		}
		if suffix == "" {
			continue // home market
		}
		bySuffix = append(bySuffix, struct {
			suffix string
			region Region
		}{suffix, r})
	}
	sort.Slice(bySuffix, func(i, j int) bool {
		a, b := bySuffix[i].suffix, bySuffix[j].suffix
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
}

// Pair is an ordered currency pair; Quote is the reporting currency.
type Pair struct{ Base, Quote string }

// Identity reports whether both sides of the pair are the same currency.
// Identity pairs convert at exactly 1 with no lookup.
func (p Pair) Identity() bool { return p.Base == p.Quote }

// Symbol returns the vendor symbol for the pair, e.g. "USDHKD".
func (p Pair) Symbol() string { return p.Base + p.Quote }

func (p Pair) String() string { return p.Base + "/" + p.Quote }

// Classification is the result of classifying a raw symbol.
type Classification struct {
	Symbol   string // trimmed, upper-cased
	Region   Region
	Currency string // the symbol's trading currency
	Pair     Pair   // trading currency against the reporting currency
}

// Classify maps a raw ticker to its region, trading currency and reporting
// pair. It is pure and total: case and surrounding whitespace are ignored, a
// symbol with no known suffix belongs to the home market, and an empty symbol
// classifies to Unknown. An empty reporting currency yields an identity pair.
func Classify(symbol, reporting string) Classification {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	region := US
	if s == "" {
		region = Unknown
	} else {
		for _, e := range bySuffix {
			if strings.HasSuffix(s, e.suffix) {
				region = e.region
				break
			}
		}
	}

	cur := regionCurrency[region]
	quote := strings.ToUpper(strings.TrimSpace(reporting))
	if quote == "" {
		quote = cur
	}
	return Classification{
		Symbol:   s,
		Region:   region,
		Currency: cur,
		Pair:     Pair{Base: cur, Quote: quote},
	}
}
