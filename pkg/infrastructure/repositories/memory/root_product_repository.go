package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// RootProductRepository provides in-memory root product storage
type RootProductRepository struct {
	mu       sync.RWMutex
	products []entities.RootProduct
	nextID   int64
}

// NewRootProductRepository creates an empty root product repository
func NewRootProductRepository() *RootProductRepository {
	return &RootProductRepository{nextID: 1}
}

// Verify interface compliance
var _ repositories.RootProductRepository = (*RootProductRepository)(nil)

// ListRootProducts returns root products in registration order
func (r *RootProductRepository) ListRootProducts(_ context.Context) ([]*entities.RootProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*entities.RootProduct, 0, len(r.products))
	for i := range r.products {
		product := r.products[i]
		products = append(products, &product)
	}
	return products, nil
}

// AddRootProduct registers an item as a root product
func (r *RootProductRepository) AddRootProduct(_ context.Context, itemID entities.ItemID) (*entities.RootProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.ItemID == itemID {
			return nil, fmt.Errorf("root product for item %d: %w", itemID, repositories.ErrAlreadyExists)
		}
	}
	product := entities.RootProduct{ID: r.nextID, ItemID: itemID}
	r.nextID++
	r.products = append(r.products, product)
	return &product, nil
}

// RemoveRootProduct unregisters the root product for an item
func (r *RootProductRepository) RemoveRootProduct(_ context.Context, itemID entities.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.products {
		if p.ItemID == itemID {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("root product for item %d: %w", itemID, repositories.ErrNotFound)
}

// EnsureRootProducts registers every listed item that is not yet a root product
func (r *RootProductRepository) EnsureRootProducts(ctx context.Context, itemIDs []entities.ItemID) (int, error) {
	added := 0
	for _, id := range itemIDs {
		if _, err := r.AddRootProduct(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrAlreadyExists) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}
