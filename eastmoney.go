package quotes

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/quotes/date"
	"github.com/shopspring/decimal"
)

/*
	{
	    "rc": 0,
	    "data": {
	        "code": "00005",
	        "market": 116,
	        "name": "...",
	        "klines": [
	            "2024-02-29,39.60",
	            "2024-03-01,39.85"
	        ]
	    }
	}
*/

const hkSuffix = ".HK"

// altWindow is how many of the most recent sessions the alternate source is
// asked for.
const altWindow = 120

// EastMoney serves Hong Kong daily closes when the main sources have nothing.
// The vendor wants the bare numeric code zero-padded to five digits, so
// "5.HK" and "0005.HK" both query "00005".
type EastMoney struct {
	baseURL string
	client  *http.Client
}

// NewEastMoney returns a source backed by the public kline endpoint, with
// responses cached for the day.
func NewEastMoney() *EastMoney {
	return &EastMoney{baseURL: "https://push2his.eastmoney.com", client: daily()}
}

// Supports reports whether the symbol is a numeric Hong Kong code.
func (e *EastMoney) Supports(symbol string) bool {
	code, ok := strings.CutSuffix(symbol, hkSuffix)
	if !ok || code == "" {
		return false
	}
	_, err := strconv.Atoi(code)
	return err == nil
}

// secid returns the vendor id of a Hong Kong symbol: market 116 plus the
// five digit code.
func secid(symbol string) string {
	n, _ := strconv.Atoi(strings.TrimSuffix(symbol, hkSuffix))
	return fmt.Sprintf("116.%05d", n)
}

// Closes returns the recent daily closes of a Hong Kong symbol, oldest first.
func (e *EastMoney) Closes(ctx context.Context, symbol string) (*date.History[decimal.Decimal], error) {
	if !e.Supports(symbol) {
		return nil, fmt.Errorf("%q is not a Hong Kong symbol", symbol)
	}
	addr := fmt.Sprintf("%s/api/qt/stock/kline/get?secid=%s&fields1=f1&fields2=f51,f53&klt=101&fqt=1&beg=0&end=20500101&lmt=%d",
		e.baseURL, secid(symbol), altWindow)

	var jobj any
	if err := jwget(ctx, e.client, addr, &jobj); err != nil {
		return nil, fmt.Errorf("error retrieving %q: %w", symbol, err)
	}
	path := "$.data.klines"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %q %w", symbol, path, err)
	}
	rows, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %q: %q is not a list: %v", symbol, path, jval)
	}

	closes := &date.History[decimal.Decimal]{}
	for _, row := range rows {
		line, ok := row.(string)
		if !ok {
			return nil, fmt.Errorf("error parsing %q: kline is not a string: %v", symbol, row)
		}
		// each kline is "date,close"
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("error parsing %q: invalid kline %q", symbol, line)
		}
		day, err := date.Parse(fields[0])
		if err != nil {
			return nil, fmt.Errorf("error parsing %q: invalid kline date %q: %w", symbol, line, err)
		}
		price, err := decimal.NewFromString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("error parsing %q: invalid kline close %q: %w", symbol, line, err)
		}
		closes.Append(day, price)
	}
	return closes, nil
}
