package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// ErrAlreadyExists is returned when a root product is registered twice
var ErrAlreadyExists = errors.New("already exists")

// RootProductRepository stores the finished products under plan
type RootProductRepository interface {
	ListRootProducts(ctx context.Context) ([]*entities.RootProduct, error)
	AddRootProduct(ctx context.Context, itemID entities.ItemID) (*entities.RootProduct, error)
	RemoveRootProduct(ctx context.Context, itemID entities.ItemID) error
	// EnsureRootProducts registers the items not yet registered and returns how many were added
	EnsureRootProducts(ctx context.Context, itemIDs []entities.ItemID) (int, error)
}
