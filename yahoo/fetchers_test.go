package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/etnz/quotes"
	"github.com/etnz/quotes/date"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testClient(srv *httptest.Server) *Client {
	return &Client{baseURL: srv.URL, client: srv.Client(), daily: srv.Client(), breaker: newBreaker("test")}
}

func TestLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{
			"currency":"USD","symbol":"AAPL","shortName":"Apple Inc.",
			"regularMarketPrice":189.5,"previousClose":188.0}}],"error":null}}`)
	}))
	defer srv.Close()

	lq, err := testClient(srv).Live(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if lq.Name != "Apple Inc." {
		t.Errorf("Name = %q", lq.Name)
	}
	if lq.Price == nil || !lq.Price.Equal(d("189.5")) {
		t.Errorf("Price = %v, want 189.5", lq.Price)
	}
	if lq.Previous == nil || !lq.Previous.Equal(d("188.0")) {
		t.Errorf("Previous = %v, want 188", lq.Previous)
	}
}

func TestLiveWithoutMarketData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"DRY","longName":"Dry Well Plc"}}],"error":null}}`)
	}))
	defer srv.Close()

	lq, err := testClient(srv).Live(context.Background(), "DRY")
	if err != nil {
		t.Fatal(err)
	}
	if lq.Price != nil {
		t.Errorf("Price = %v, want nil", lq.Price)
	}
	if lq.Name != "Dry Well Plc" {
		t.Errorf("Name = %q, the name is still worth returning", lq.Name)
	}
}

func TestCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("range"); got != "5d" {
			t.Errorf("range = %q, want 5d", got)
		}
		// 2024-02-28, 2024-02-29 (no close yet), 2024-03-01
		fmt.Fprint(w, `{"chart":{"result":[{
			"timestamp":[1709078400,1709164800,1709251200],
			"indicators":{"quote":[{"close":[188.0,null,189.5]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	hist, err := testClient(srv).Closes(context.Background(), "AAPL", 5)
	if err != nil {
		t.Fatal(err)
	}
	if hist.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (null closes are skipped)", hist.Len())
	}
	day, price := hist.Latest()
	if day != date.New(2024, 3, 1) || !price.Equal(d("189.5")) {
		t.Errorf("latest = %s @ %s, want 189.5 @ 2024-03-01", price, day)
	}
	day, price = hist.First()
	if day != date.New(2024, 2, 28) || !price.Equal(d("188.0")) {
		t.Errorf("first = %s @ %s, want 188 @ 2024-02-28", price, day)
	}
}

func TestRangeFor(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{1, "5d"},
		{5, "5d"},
		{30, "1mo"},
		{31, "1y"},
		{365, "1y"},
	}
	for _, tt := range tests {
		if got := rangeFor(tt.days); got != tt.want {
			t.Errorf("rangeFor(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestDividends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("events"); got != "div" {
			t.Errorf("events = %q, want div", got)
		}
		// out of order on purpose, the history sorts them
		fmt.Fprint(w, `{"chart":{"result":[{"events":{"dividends":{
			"1709251200":{"amount":0.25,"date":1709251200},
			"1701388800":{"amount":0.24,"date":1701388800}}}}],"error":null}}`)
	}))
	defer srv.Close()

	hist, err := testClient(srv).Dividends(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if hist.Len() != 2 {
		t.Fatalf("Len = %d, want 2", hist.Len())
	}
	if day, amount := hist.First(); day != date.New(2023, 12, 1) || !amount.Equal(d("0.24")) {
		t.Errorf("first = %s @ %s, want 0.24 @ 2023-12-01", amount, day)
	}
	if day, amount := hist.Latest(); day != date.New(2024, 3, 1) || !amount.Equal(d("0.25")) {
		t.Errorf("latest = %s @ %s, want 0.25 @ 2024-03-01", amount, day)
	}
}

func TestRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/USDHKD=X" {
			t.Errorf("path = %q, want the concatenated pair plus =X", r.URL.Path)
		}
		if got := r.URL.Query().Get("range"); got != "1y" {
			t.Errorf("range = %q, want the one year lookback", got)
		}
		fmt.Fprint(w, `{"chart":{"result":[{
			"timestamp":[1709164800,1709251200],
			"indicators":{"quote":[{"close":[7.81,7.83]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	hist, err := testClient(srv).Rates(context.Background(), quotes.Pair{Base: "USD", Quote: "HKD"})
	if err != nil {
		t.Fatal(err)
	}
	if _, rate := hist.Latest(); !rate.Equal(d("7.83")) {
		t.Errorf("latest rate = %s, want 7.83", rate)
	}
}

func TestBulk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/spark" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "AAPL,GHOST,MSFT" {
			t.Errorf("symbols = %q", got)
		}
		fmt.Fprint(w, `{"spark":{"result":[
			{"symbol":"AAPL","response":[{"timestamp":[1709251200],"indicators":{"quote":[{"close":[189.5]}]}}]},
			{"symbol":"MSFT","response":[{"timestamp":[1709251200],"indicators":{"quote":[{"close":[410.2]}]}}]},
			{"symbol":"GHOST","response":[{"timestamp":[],"indicators":{"quote":[{"close":[]}]}}]}]}}`)
	}))
	defer srv.Close()

	got, err := testClient(srv).Bulk(context.Background(), []string{"AAPL", "GHOST", "MSFT"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d closes, want 2 (GHOST has none)", len(got))
	}
	if c := got["AAPL"]; !c.Price.Equal(d("189.5")) || c.Day != date.New(2024, 3, 1) {
		t.Errorf("AAPL = %+v", c)
	}
	if _, ok := got["GHOST"]; ok {
		t.Error("a symbol with no close must not appear in the result")
	}
}

func TestChartErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv).Live(context.Background(), "GONE")
	if err == nil || !strings.Contains(err.Error(), "Not Found") {
		t.Errorf("err = %v, want the vendor error surfaced", err)
	}
}

func TestEmptyChartResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	}))
	defer srv.Close()

	if _, err := testClient(srv).Live(context.Background(), "EMPTY"); err == nil {
		t.Error("expected an error for an empty result")
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv)
	var last error
	for i := 0; i < 7; i++ {
		_, last = c.Live(context.Background(), "AAPL")
	}
	if !errors.Is(last, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want the open breaker to fail fast", last)
	}
	if hits != 5 {
		t.Errorf("the vendor was hit %d times, want 5 before the breaker opens", hits)
	}
}
