package cart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tania063/katalog-challenge/internal/catalog"
)

// Fixed slot names, the local-storage keys of this client.
const (
	cartSlot     = "cart.json"
	productsSlot = "products.json"
)

// Store persists cart state as JSON files under a per-user directory.
// Every save rewrites the whole slot; this is the cart's only durability
// mechanism.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cart state directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// LoadCart reads the cart slot. A missing slot is a normal empty cart.
func (s *Store) LoadCart() ([]Line, error) {
	var lines []Line
	if err := s.loadSlot(cartSlot, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SaveCart rewrites the cart slot with the full line list.
func (s *Store) SaveCart(lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	return s.saveSlot(cartSlot, lines)
}

// ClearCart removes the cart slot entirely. Clearing an already-empty
// cart is not an error.
func (s *Store) ClearCart() error {
	err := os.Remove(filepath.Join(s.dir, cartSlot))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadProducts reads the cached product list slot. A missing slot yields
// an empty list.
func (s *Store) LoadProducts() ([]catalog.Product, error) {
	var products []catalog.Product
	if err := s.loadSlot(productsSlot, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SaveProducts rewrites the cached product list slot.
func (s *Store) SaveProducts(products []catalog.Product) error {
	if products == nil {
		products = []catalog.Product{}
	}
	return s.saveSlot(productsSlot, products)
}

func (s *Store) loadSlot(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func (s *Store) saveSlot(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
