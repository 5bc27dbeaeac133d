package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist
var ErrNotFound = errors.New("not found")

// CatalogRepository provides read access to the specification catalog.
// The explosion engine never writes through it.
type CatalogRepository interface {
	GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error)
	GetItemByCode(ctx context.Context, code string) (*entities.Item, error)

	// GetDefaultSpec returns the default specification mapped to (item, characteristic).
	// When several rows match, the one with the lowest row id wins.
	GetDefaultSpec(ctx context.Context, itemID entities.ItemID, characteristic string) (entities.SpecID, bool, error)

	// FindSpecByCodeOrName returns the highest spec id whose code equals code or whose name equals name.
	FindSpecByCodeOrName(ctx context.Context, code, name string) (entities.SpecID, bool, error)

	GetSpecification(ctx context.Context, id entities.SpecID) (*entities.Specification, error)
	GetComponents(ctx context.Context, specID entities.SpecID) ([]*entities.SpecComponent, error)
	GetOperations(ctx context.Context, specID entities.SpecID) ([]*entities.SpecOperation, error)

	ListStages(ctx context.Context) ([]*entities.ProductionStage, error)
}

// CatalogLoader bulk-loads catalog data, used by importers and test fixtures
type CatalogLoader interface {
	LoadItems(ctx context.Context, items []*entities.Item) error
	LoadStages(ctx context.Context, stages []*entities.ProductionStage) error
	LoadSpecifications(ctx context.Context, specs []*entities.Specification) error
	LoadComponents(ctx context.Context, components []*entities.SpecComponent) error
	LoadOperations(ctx context.Context, operations []*entities.SpecOperation) error
	LoadDefaultSpecs(ctx context.Context, defaults []*entities.DefaultSpecification) error
}

// SpecGraphSource exposes the whole specification graph for offline validation
type SpecGraphSource interface {
	ListItems(ctx context.Context) ([]*entities.Item, error)
	ListSpecifications(ctx context.Context) ([]*entities.Specification, error)
	ListAllComponents(ctx context.Context) ([]*entities.SpecComponent, error)
	ListDefaultSpecs(ctx context.Context) ([]*entities.DefaultSpecification, error)
}
