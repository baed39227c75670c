package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/greenbasket/greenbasket/internal/catalog"
	"github.com/greenbasket/greenbasket/internal/shared"
)

// ProductSource resolves cart rows against the live catalog.
type ProductSource interface {
	GetByID(ctx context.Context, id int64) (*catalog.Product, error)
}

// Service prices cart contents against the catalog. Rows pointing at
// removed or archived products are silently dropped so a stale cart never
// blocks the page.
type Service struct {
	store    *Store
	products ProductSource
}

// NewService builds a cart service.
func NewService(store *Store, products ProductSource) *Service {
	return &Service{store: store, products: products}
}

// Store exposes the underlying store for jobs and handlers.
func (s *Service) Store() *Store {
	return s.store
}

// Load reads and prices the cart for one session.
func (s *Service) Load(ctx context.Context, sessionID string) (Contents, error) {
	items, err := s.store.Items(ctx, sessionID)
	if err != nil {
		return Contents{}, err
	}

	contents := Contents{Lines: make([]Line, 0, len(items))}
	for productID, qty := range items {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return Contents{}, fmt.Errorf("cart: price product %d: %w", productID, err)
		}
		if !product.Active {
			continue
		}
		contents.Lines = append(contents.Lines, Line{
			ProductID:      product.ID,
			Name:           product.Name,
			Unit:           product.Unit,
			Quantity:       qty,
			PriceCents:     product.PriceCents,
			LineTotalCents: product.PriceCents * int64(qty),
		})
		contents.TotalCents += product.PriceCents * int64(qty)
	}

	sort.Slice(contents.Lines, func(i, j int) bool {
		return contents.Lines[i].Name < contents.Lines[j].Name
	})
	return contents, nil
}

// Add puts qty units of a product into the cart after checking the product
// is still purchasable.
func (s *Service) Add(ctx context.Context, sessionID string, productID int64, qty int) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.Active {
		return shared.ErrNotFound
	}
	return s.store.Add(ctx, sessionID, productID, qty)
}

// SetQuantity overwrites one line; zero removes it.
func (s *Service) SetQuantity(ctx context.Context, sessionID string, productID int64, qty int) error {
	return s.store.SetQuantity(ctx, sessionID, productID, qty)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Clear(ctx, sessionID)
}
