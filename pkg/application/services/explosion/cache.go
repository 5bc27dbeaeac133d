package explosion

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

type resolutionKey struct {
	itemID         entities.ItemID
	characteristic string
}

// CatalogCache memoizes catalog reads for the lifetime of one explosion batch.
// It is safe for concurrent use; create a new one per request or batch.
type CatalogCache struct {
	catalog  repositories.CatalogRepository
	resolver *SpecResolver

	mu          sync.Mutex
	items       map[entities.ItemID]*entities.Item
	resolutions map[resolutionKey]Resolution
	components  map[entities.SpecID][]*entities.SpecComponent
	operations  map[entities.SpecID][]*entities.SpecOperation
	stages      map[entities.StageID]*entities.ProductionStage
}

// NewCatalogCache creates an empty cache in front of catalog
func NewCatalogCache(catalog repositories.CatalogRepository, resolver *SpecResolver) *CatalogCache {
	return &CatalogCache{
		catalog:     catalog,
		resolver:    resolver,
		items:       make(map[entities.ItemID]*entities.Item),
		resolutions: make(map[resolutionKey]Resolution),
		components:  make(map[entities.SpecID][]*entities.SpecComponent),
		operations:  make(map[entities.SpecID][]*entities.SpecOperation),
	}
}

// Item returns an item; the error wraps repositories.ErrNotFound for unknown ids
func (c *CatalogCache) Item(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	c.mu.Lock()
	item, ok := c.items[id]
	c.mu.Unlock()
	if ok {
		return item, nil
	}

	item, err := c.catalog.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[id] = item
	c.mu.Unlock()
	return item, nil
}

// Remember seeds the cache with an item loaded elsewhere
func (c *CatalogCache) Remember(item *entities.Item) {
	c.mu.Lock()
	c.items[item.ID] = item
	c.mu.Unlock()
}

// Resolve returns the specification governing item
func (c *CatalogCache) Resolve(ctx context.Context, item *entities.Item, characteristic string) (Resolution, error) {
	key := resolutionKey{itemID: item.ID, characteristic: characteristic}

	c.mu.Lock()
	res, ok := c.resolutions[key]
	c.mu.Unlock()
	if ok {
		return res, nil
	}

	res, err := c.resolver.Resolve(ctx, item, characteristic)
	if err != nil {
		return Resolution{}, err
	}

	c.mu.Lock()
	c.resolutions[key] = res
	c.mu.Unlock()
	return res, nil
}

// Components returns the component lines of a specification ordered by child item code, then line id.
// Lines whose child item is missing from the catalog sort last by child id.
func (c *CatalogCache) Components(ctx context.Context, specID entities.SpecID) ([]*entities.SpecComponent, error) {
	c.mu.Lock()
	lines, ok := c.components[specID]
	c.mu.Unlock()
	if ok {
		return lines, nil
	}

	lines, err := c.catalog.GetComponents(ctx, specID)
	if err != nil {
		return nil, storeError(fmt.Sprintf("failed to read components of specification %d", specID), err)
	}

	codes := make(map[entities.ItemID]string, len(lines))
	for _, line := range lines {
		child, err := c.Item(ctx, line.ChildItemID)
		if err == nil {
			codes[line.ChildItemID] = child.Code
		} else if !isNotFound(err) {
			return nil, storeError(fmt.Sprintf("failed to read item %d", line.ChildItemID), err)
		}
	}

	sorted := make([]*entities.SpecComponent, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		codeA, knownA := codes[a.ChildItemID]
		codeB, knownB := codes[b.ChildItemID]
		if knownA != knownB {
			return knownA
		}
		if codeA != codeB {
			return codeA < codeB
		}
		if a.ChildItemID != b.ChildItemID {
			return a.ChildItemID < b.ChildItemID
		}
		return a.ID < b.ID
	})

	c.mu.Lock()
	c.components[specID] = sorted
	c.mu.Unlock()
	return sorted, nil
}

// Operations returns the operation lines of a specification ordered by operation name, then line id
func (c *CatalogCache) Operations(ctx context.Context, specID entities.SpecID) ([]*entities.SpecOperation, error) {
	c.mu.Lock()
	lines, ok := c.operations[specID]
	c.mu.Unlock()
	if ok {
		return lines, nil
	}

	lines, err := c.catalog.GetOperations(ctx, specID)
	if err != nil {
		return nil, storeError(fmt.Sprintf("failed to read operations of specification %d", specID), err)
	}

	sorted := make([]*entities.SpecOperation, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].OperationName != sorted[j].OperationName {
			return sorted[i].OperationName < sorted[j].OperationName
		}
		return sorted[i].ID < sorted[j].ID
	})

	c.mu.Lock()
	c.operations[specID] = sorted
	c.mu.Unlock()
	return sorted, nil
}

// HasChildren reports whether the item resolves to a specification with any component or operation
func (c *CatalogCache) HasChildren(ctx context.Context, item *entities.Item, characteristic string) (bool, error) {
	res, err := c.Resolve(ctx, item, characteristic)
	if err != nil || !res.Found {
		return false, err
	}
	comps, err := c.Components(ctx, res.SpecID)
	if err != nil {
		return false, err
	}
	if len(comps) > 0 {
		return true, nil
	}
	ops, err := c.Operations(ctx, res.SpecID)
	if err != nil {
		return false, err
	}
	return len(ops) > 0, nil
}

// Stage returns a production stage; ok is false for ids missing from the catalog
func (c *CatalogCache) Stage(ctx context.Context, id entities.StageID) (*entities.ProductionStage, bool, error) {
	if err := c.loadStages(ctx); err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	stage, ok := c.stages[id]
	return stage, ok, nil
}

func (c *CatalogCache) loadStages(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.stages != nil
	c.mu.Unlock()
	if loaded {
		return nil
	}

	stages, err := c.catalog.ListStages(ctx)
	if err != nil {
		return storeError("failed to read production stages", err)
	}
	index := make(map[entities.StageID]*entities.ProductionStage, len(stages))
	for _, stage := range stages {
		index[stage.ID] = stage
	}

	c.mu.Lock()
	c.stages = index
	c.mu.Unlock()
	return nil
}
