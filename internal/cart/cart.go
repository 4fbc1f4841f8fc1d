// Package cart holds the shopper-local cart: a list of product lines owned
// entirely by the client session that created it. The server never reads
// or writes any of this state.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tania063/katalog-challenge/internal/catalog"
)

// Line is one product-quantity pairing in the cart. Title, price and image
// are snapshots taken when the line was created; they deliberately do not
// track later upstream changes.
type Line struct {
	ProductID int             `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

// Totals is the derived cart summary.
type Totals struct {
	Items int
	Price decimal.Decimal
}

// Manager applies cart operations and persists the result through its
// Store after every mutation. One shopper session owns one Manager; no
// locking is needed.
type Manager struct {
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// Add puts product in the cart with quantity 1. If a line for the product
// already exists its quantity is incremented instead, clamped to the
// product's stock, so no two lines ever share a product id. Gating on
// zero stock is the caller's job.
func (m *Manager) Add(p catalog.Product) error {
	lines, err := m.store.LoadCart()
	if err != nil {
		return err
	}

	for i := range lines {
		if lines[i].ProductID == p.ID {
			lines[i].Quantity = clamp(lines[i].Quantity+1, p.Stock)
			return m.store.SaveCart(lines)
		}
	}

	lines = append(lines, Line{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  1,
	})
	return m.store.SaveCart(lines)
}

// Remove deletes every line matching productID.
func (m *Manager) Remove(productID int) error {
	lines, err := m.store.LoadCart()
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, l := range lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	return m.store.SaveCart(kept)
}

// SetQuantity rewrites the line's quantity, clamped into [1, stock] where
// stock is resolved from the last-fetched product list. A product missing
// from that list (or listed with zero stock) clamps against 1, matching
// the storefront's fallback. Unknown product ids are a no-op.
//
// This is the only point where a stale quantity is re-clamped; loading the
// cart never rewrites it.
func (m *Manager) SetQuantity(productID, quantity int) error {
	lines, err := m.store.LoadCart()
	if err != nil {
		return err
	}

	stock := m.resolveStock(productID)
	changed := false
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = clamp(quantity, stock)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return m.store.SaveCart(lines)
}

// Lines returns the current cart contents. An absent cart slot is an
// empty cart, not an error.
func (m *Manager) Lines() ([]Line, error) {
	return m.store.LoadCart()
}

// ComputeTotals derives the item count and the price sum
// (Σ quantity × price snapshot), rounded to 2 decimal places.
func ComputeTotals(lines []Line) Totals {
	t := Totals{Price: decimal.Zero}
	for _, l := range lines {
		t.Items += l.Quantity
		t.Price = t.Price.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	t.Price = t.Price.Round(2)
	return t
}

// Totals loads the cart and derives its totals.
func (m *Manager) Totals() (Totals, error) {
	lines, err := m.store.LoadCart()
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(lines), nil
}

// Checkout irreversibly clears the stored cart and reports success
// unconditionally. There is no payment, no stock decrement, and no order
// record; this is the simulation boundary.
func (m *Manager) Checkout() error {
	if err := m.store.ClearCart(); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// CacheProducts replaces the locally cached product list (the clamp
// source for later quantity edits).
func (m *Manager) CacheProducts(products []catalog.Product) error {
	return m.store.SaveProducts(products)
}

// CachedProducts returns the last-fetched product list, which may be
// empty and is never validated against a live source.
func (m *Manager) CachedProducts() ([]catalog.Product, error) {
	return m.store.LoadProducts()
}

func (m *Manager) resolveStock(productID int) int {
	products, err := m.store.LoadProducts()
	if err != nil {
		return 1
	}
	for _, p := range products {
		if p.ID == productID && p.Stock > 0 {
			return p.Stock
		}
	}
	return 1
}

func clamp(quantity, stock int) int {
	if stock < 1 {
		stock = 1
	}
	if quantity < 1 {
		return 1
	}
	if quantity > stock {
		return stock
	}
	return quantity
}
