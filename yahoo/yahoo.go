// Package yahoo fetches live quotes, daily closes, dividend histories and
// exchange rates from the public chart API.
package yahoo

import (
	"context"
	"net/http"
	"time"

	"github.com/etnz/quotes"
	"github.com/sony/gobreaker/v2"
)

// Client queries the v8 chart endpoints. Use New; the zero value has no
// endpoint to talk to.
type Client struct {
	baseURL string
	client  *http.Client
	daily   *http.Client // disk-cached, for slow moving data
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// The one client covers every source role of the resolution cascade except
// the alternate regional one.
var (
	_ quotes.LiveSource     = (*Client)(nil)
	_ quotes.HistorySource  = (*Client)(nil)
	_ quotes.BulkSource     = (*Client)(nil)
	_ quotes.RateSource     = (*Client)(nil)
	_ quotes.DividendSource = (*Client)(nil)
)

// New returns a client for the public endpoint.
func New() *Client {
	return &Client{
		baseURL: "https://query1.finance.yahoo.com",
		client:  &http.Client{Timeout: 20 * time.Second},
		daily:   newDailyCachingClient(),
		breaker: newBreaker("yahoo"),
	}
}

// get performs one guarded GET. When the vendor has been failing, the breaker
// fails fast instead of adding load to it.
func (c *Client) get(ctx context.Context, client *http.Client, addr string, data any) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, jwget(ctx, client, addr, data)
	})
	return err
}
