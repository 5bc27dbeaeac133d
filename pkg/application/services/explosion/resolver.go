package explosion

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// Resolution is the outcome of looking up the specification that governs an item
type Resolution struct {
	SpecID        entities.SpecID
	Found         bool
	UsedFallback  bool
	DefaultSpecID *entities.SpecID
}

// SpecResolver picks the specification used to explode an item.
//
// Policy, first match wins:
//  1. the default mapping for (item, characteristic), then for (item, "");
//  2. a specification whose code equals the item code or whose name equals the item name,
//     highest spec id first;
//  3. otherwise the item is a leaf.
type SpecResolver struct {
	catalog repositories.CatalogRepository
	logger  *zap.Logger
}

// NewSpecResolver creates a resolver over the catalog
func NewSpecResolver(catalog repositories.CatalogRepository, logger *zap.Logger) *SpecResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpecResolver{catalog: catalog, logger: logger}
}

// Resolve returns the specification for item. A missing specification is not an error.
func (r *SpecResolver) Resolve(ctx context.Context, item *entities.Item, characteristic string) (Resolution, error) {
	specID, ok, err := r.catalog.GetDefaultSpec(ctx, item.ID, characteristic)
	if err != nil {
		return Resolution{}, storeError(fmt.Sprintf("failed to read default specification of item %d", item.ID), err)
	}
	if !ok && characteristic != "" {
		specID, ok, err = r.catalog.GetDefaultSpec(ctx, item.ID, "")
		if err != nil {
			return Resolution{}, storeError(fmt.Sprintf("failed to read default specification of item %d", item.ID), err)
		}
	}
	if ok {
		def := specID
		return Resolution{SpecID: specID, Found: true, DefaultSpecID: &def}, nil
	}

	specID, ok, err = r.catalog.FindSpecByCodeOrName(ctx, item.Code, item.Name)
	if err != nil {
		return Resolution{}, storeError(fmt.Sprintf("failed to search specification for item %d", item.ID), err)
	}
	if !ok {
		return Resolution{}, nil
	}

	r.logger.Warn("specification resolved by code/name fallback",
		zap.Int64("item_id", int64(item.ID)),
		zap.String("item_code", item.Code),
		zap.Int64("spec_id", int64(specID)),
	)
	return Resolution{SpecID: specID, Found: true, UsedFallback: true}, nil
}

func storeError(msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(cause)
}
