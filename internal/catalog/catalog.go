// Package catalog fetches the product list from the upstream store API and
// decorates it with the ephemeral demo stock counter.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	defaultBaseURL = "https://fakestoreapi.com"
	defaultTimeout = 15 * time.Second
	maxBodySize    = 4 << 20 // 4MB
)

// Product is one upstream catalog entry. Stock is assigned locally on each
// fetch for demo purposes; it is never written back upstream and carries no
// durability guarantee.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
}

// DecodeError reports an upstream response body that did not match the
// expected product list schema.
type DecodeError struct {
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding product list: %v", e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// Client fetches products from the upstream catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxStock   int
	group      singleflight.Group
	randInt    func(n int) int
}

// NewClient creates a catalog client. maxStock bounds the random demo stock
// assigned to each product (inclusive).
func NewClient(baseURL string, maxStock int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxStock < 0 {
		maxStock = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxStock:   maxStock,
		randInt:    rand.IntN,
	}
}

// Fetch retrieves the full product list. Concurrent callers share a single
// upstream request. Every fetch re-rolls each product's stock; the caller
// owns caching, if any.
func (c *Client) Fetch(ctx context.Context) ([]Product, error) {
	v, err, _ := c.group.Do("products", func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	products := v.([]Product)

	// Stock is rolled per caller, outside the shared flight, so every load
	// observes a fresh value just as every page reload did.
	out := make([]Product, len(products))
	copy(out, products)
	for i := range out {
		out[i].Stock = c.randInt(c.maxStock + 1)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from product API", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading product list: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, &DecodeError{cause: err}
	}
	return products, nil
}
