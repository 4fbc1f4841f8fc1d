package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const productListJSON = `[
	{"id": 1, "title": "Backpack", "price": 109.95, "description": "A bag", "image": "https://img.example/1.jpg"},
	{"id": 2, "title": "T-Shirt", "price": 22.3, "description": "A shirt", "image": "https://img.example/2.jpg"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc, maxStock int) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, maxStock)
}

func TestFetchDecodesProducts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("path = %q, want /products", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(productListJSON))
	}, 5)

	products, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len = %d, want 2", len(products))
	}
	if products[0].ID != 1 || products[0].Title != "Backpack" {
		t.Errorf("unexpected first product: %+v", products[0])
	}
	if !products[0].Price.Equal(decimal.RequireFromString("109.95")) {
		t.Errorf("Price = %v, want 109.95", products[0].Price)
	}
}

func TestFetchAssignsStockWithinBounds(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productListJSON))
	}, 5)

	// Several fetches to exercise the roll; all values must stay in [0, 5].
	for i := 0; i < 10; i++ {
		products, err := c.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		for _, p := range products {
			if p.Stock < 0 || p.Stock > 5 {
				t.Fatalf("Stock = %d, want within [0, 5]", p.Stock)
			}
		}
	}
}

func TestFetchStockIsEphemeral(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productListJSON))
	}, 5)

	roll := 0
	c.randInt = func(n int) int {
		roll++
		return roll % n
	}

	first, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	second, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if first[0].Stock == second[0].Stock && first[1].Stock == second[1].Stock {
		t.Error("stock not re-rolled between fetches")
	}
}

func TestFetchShapeMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": "object"}`))
	}, 5)

	_, err := c.Fetch(context.Background())
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
}

func TestFetchUpstreamStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, 5)

	_, err := c.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error on upstream 502")
	}
	var de *DecodeError
	if errors.As(err, &de) {
		t.Fatalf("status error misclassified as decode error: %v", err)
	}
}

// TestFetchCollapsesConcurrentCalls verifies simultaneous fetches share one
// upstream request.
func TestFetchCollapsesConcurrentCalls(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(productListJSON))
	}, 5)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Fetch(context.Background())
		}(i)
	}

	// Let the goroutines pile onto the in-flight request, then release it.
	for hits.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
}
