package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/quotes"
	"github.com/etnz/quotes/date"
	"github.com/shopspring/decimal"
)

// This file contains functions to access the chart API.

// chartResult is the inner payload every chart endpoint shares.
//
//	{
//	  "chart": {
//	    "result": [{
//	      "meta": {
//	        "currency": "USD",
//	        "symbol": "AAPL",
//	        "shortName": "Apple Inc.",
//	        "regularMarketPrice": 189.5,
//	        "previousClose": 188.0
//	      },
//	      "timestamp": [1709251200],
//	      "indicators": {"quote": [{"close": [189.5]}]}
//	    }],
//	    "error": null
//	  }
//	}
type chartResult struct {
	Meta struct {
		Currency           string           `json:"currency"`
		Symbol             string           `json:"symbol"`
		ShortName          string           `json:"shortName"`
		LongName           string           `json:"longName"`
		RegularMarketPrice *decimal.Decimal `json:"regularMarketPrice"`
		PreviousClose      *decimal.Decimal `json:"previousClose"`
		ChartPreviousClose *decimal.Decimal `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*decimal.Decimal `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
	Events struct {
		Dividends map[string]struct {
			Amount decimal.Decimal `json:"amount"`
			Date   int64           `json:"date"`
		} `json:"dividends"`
	} `json:"events"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chart fetches one chart payload.
func (c *Client) chart(ctx context.Context, client *http.Client, symbol, query string) (*chartResult, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), query)
	var content chartResponse
	if err := c.get(ctx, client, addr, &content); err != nil {
		return nil, err
	}
	if e := content.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart error for %q: %s: %s", symbol, e.Code, e.Description)
	}
	if len(content.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result for %q", symbol)
	}
	return &content.Chart.Result[0], nil
}

// Live returns the realtime quote of one symbol. Price can come back nil on
// a symbol the vendor knows but has no market data for.
func (c *Client) Live(ctx context.Context, symbol string) (quotes.LiveQuote, error) {
	res, err := c.chart(ctx, c.client, symbol, "interval=1d&range=1d")
	if err != nil {
		return quotes.LiveQuote{}, err
	}
	lq := quotes.LiveQuote{
		Name:     displayName(res),
		Price:    res.Meta.RegularMarketPrice,
		Previous: res.Meta.PreviousClose,
	}
	if lq.Previous == nil {
		lq.Previous = res.Meta.ChartPreviousClose
	}
	return lq, nil
}

func displayName(res *chartResult) string {
	if res.Meta.ShortName != "" {
		return res.Meta.ShortName
	}
	return res.Meta.LongName
}

// rangeFor maps a trailing window in days to the closest API range.
func rangeFor(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	default:
		return "1y"
	}
}

// Closes returns the daily closes over a trailing window of roughly `days`
// calendar days.
func (c *Client) Closes(ctx context.Context, symbol string, days int) (*date.History[decimal.Decimal], error) {
	res, err := c.chart(ctx, c.client, symbol, "interval=1d&range="+rangeFor(days))
	if err != nil {
		return nil, err
	}
	return closes(res), nil
}

// closes pairs the timestamp array with the close array. Sessions still in
// progress carry a null close; they are skipped.
func closes(res *chartResult) *date.History[decimal.Decimal] {
	hist := &date.History[decimal.Decimal]{}
	if len(res.Indicators.Quote) == 0 {
		return hist
	}
	prices := res.Indicators.Quote[0].Close
	for i, ts := range res.Timestamp {
		if i >= len(prices) || prices[i] == nil {
			continue
		}
		hist.Append(date.FromTime(time.Unix(ts, 0).UTC()), *prices[i])
	}
	return hist
}

// Dividends returns the full per-share dividend history of a symbol, keyed
// by ex-date, in the symbol's local currency.
func (c *Client) Dividends(ctx context.Context, symbol string) (*date.History[decimal.Decimal], error) {
	res, err := c.chart(ctx, c.daily, symbol, "interval=1mo&range=max&events=div")
	if err != nil {
		return nil, err
	}
	hist := &date.History[decimal.Decimal]{}
	for _, div := range res.Events.Dividends {
		hist.Append(date.FromTime(time.Unix(div.Date, 0).UTC()), div.Amount)
	}
	return hist, nil
}

// Rates returns one year of daily rates for a currency pair. The vendor
// symbol is the concatenated pair plus "=X", e.g. "USDHKD=X".
func (c *Client) Rates(ctx context.Context, pair quotes.Pair) (*date.History[decimal.Decimal], error) {
	res, err := c.chart(ctx, c.daily, pair.Symbol()+"=X", "interval=1d&range=1y")
	if err != nil {
		return nil, err
	}
	return closes(res), nil
}

// Bulk prices many symbols in one spark request. Only the symbols that
// actually got a close appear in the result.
func (c *Client) Bulk(ctx context.Context, symbols []string) (map[string]quotes.Close, error) {
	out := make(map[string]quotes.Close, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	addr := fmt.Sprintf("%s/v8/finance/spark?interval=1d&range=1d&symbols=%s",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	var content struct {
		Spark struct {
			Result []struct {
				Symbol   string        `json:"symbol"`
				Response []chartResult `json:"response"`
			} `json:"result"`
		} `json:"spark"`
	}
	if err := c.get(ctx, c.client, addr, &content); err != nil {
		return nil, err
	}
	for _, entry := range content.Spark.Result {
		if len(entry.Response) == 0 {
			continue
		}
		hist := closes(&entry.Response[0])
		if hist.Len() == 0 {
			continue
		}
		day, price := hist.Latest()
		out[entry.Symbol] = quotes.Close{Day: day, Price: price}
	}
	return out, nil
}
