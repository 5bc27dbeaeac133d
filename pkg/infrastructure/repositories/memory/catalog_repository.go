package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

type defaultKey struct {
	itemID         entities.ItemID
	characteristic string
}

// CatalogRepository provides in-memory specification catalog storage
type CatalogRepository struct {
	mu sync.RWMutex

	items      []entities.Item
	itemsMap   map[entities.ItemID]int
	itemsCode  map[string]int
	stages     []entities.ProductionStage
	specs      []entities.Specification
	specsMap   map[entities.SpecID]int
	components []entities.SpecComponent
	compIndex  map[entities.SpecID][]int
	operations []entities.SpecOperation
	opIndex    map[entities.SpecID][]int
	defaults   []entities.DefaultSpecification
	defaultMap map[defaultKey]int
}

// NewCatalogRepository creates an in-memory catalog sized for the expected item count
func NewCatalogRepository(expectedItems int) *CatalogRepository {
	return &CatalogRepository{
		items:      make([]entities.Item, 0, expectedItems),
		itemsMap:   make(map[entities.ItemID]int, expectedItems),
		itemsCode:  make(map[string]int, expectedItems),
		specsMap:   make(map[entities.SpecID]int),
		compIndex:  make(map[entities.SpecID][]int),
		opIndex:    make(map[entities.SpecID][]int),
		defaultMap: make(map[defaultKey]int),
	}
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)
var _ repositories.CatalogLoader = (*CatalogRepository)(nil)
var _ repositories.SpecGraphSource = (*CatalogRepository)(nil)

// AddItem adds or replaces an item
func (r *CatalogRepository) AddItem(item entities.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, exists := r.itemsMap[item.ID]; exists {
		delete(r.itemsCode, r.items[index].Code)
		r.items[index] = item
		r.itemsCode[item.Code] = index
		return
	}
	r.itemsMap[item.ID] = len(r.items)
	r.itemsCode[item.Code] = len(r.items)
	r.items = append(r.items, item)
}

// AddStage adds a production stage
func (r *CatalogRepository) AddStage(stage entities.ProductionStage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

// AddSpecification adds a specification
func (r *CatalogRepository) AddSpecification(spec entities.Specification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specsMap[spec.ID] = len(r.specs)
	r.specs = append(r.specs, spec)
}

// AddComponent adds a component line to its specification
func (r *CatalogRepository) AddComponent(comp entities.SpecComponent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := len(r.components)
	r.components = append(r.components, comp)
	r.compIndex[comp.SpecID] = append(r.compIndex[comp.SpecID], index)
}

// AddOperation adds an operation line to its specification
func (r *CatalogRepository) AddOperation(op entities.SpecOperation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := len(r.operations)
	r.operations = append(r.operations, op)
	r.opIndex[op.SpecID] = append(r.opIndex[op.SpecID], index)
}

// AddDefaultSpec records a default mapping. The row with the lowest id is kept per key.
func (r *CatalogRepository) AddDefaultSpec(def entities.DefaultSpecification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := defaultKey{itemID: def.ItemID, characteristic: def.Characteristic}
	index := len(r.defaults)
	r.defaults = append(r.defaults, def)
	if existing, ok := r.defaultMap[key]; ok && r.defaults[existing].ID <= def.ID {
		return
	}
	r.defaultMap[key] = index
}

// LoadItems loads items into the repository
func (r *CatalogRepository) LoadItems(_ context.Context, items []*entities.Item) error {
	for _, item := range items {
		r.AddItem(*item)
	}
	return nil
}

// LoadStages loads production stages into the repository
func (r *CatalogRepository) LoadStages(_ context.Context, stages []*entities.ProductionStage) error {
	for _, stage := range stages {
		r.AddStage(*stage)
	}
	return nil
}

// LoadSpecifications loads specifications into the repository
func (r *CatalogRepository) LoadSpecifications(_ context.Context, specs []*entities.Specification) error {
	for _, spec := range specs {
		r.AddSpecification(*spec)
	}
	return nil
}

// LoadComponents loads component lines into the repository
func (r *CatalogRepository) LoadComponents(_ context.Context, components []*entities.SpecComponent) error {
	for _, comp := range components {
		r.AddComponent(*comp)
	}
	return nil
}

// LoadOperations loads operation lines into the repository
func (r *CatalogRepository) LoadOperations(_ context.Context, operations []*entities.SpecOperation) error {
	for _, op := range operations {
		r.AddOperation(*op)
	}
	return nil
}

// LoadDefaultSpecs loads default specification mappings into the repository
func (r *CatalogRepository) LoadDefaultSpecs(_ context.Context, defaults []*entities.DefaultSpecification) error {
	for _, def := range defaults {
		r.AddDefaultSpec(*def)
	}
	return nil
}

// GetItem returns an item by id
func (r *CatalogRepository) GetItem(_ context.Context, id entities.ItemID) (*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.itemsMap[id]
	if !exists {
		return nil, fmt.Errorf("item %d: %w", id, repositories.ErrNotFound)
	}
	item := r.items[index]
	return &item, nil
}

// GetItemByCode returns an item by its external code
func (r *CatalogRepository) GetItemByCode(_ context.Context, code string) (*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.itemsCode[code]
	if !exists {
		return nil, fmt.Errorf("item %q: %w", code, repositories.ErrNotFound)
	}
	item := r.items[index]
	return &item, nil
}

// GetDefaultSpec returns the default specification for (item, characteristic)
func (r *CatalogRepository) GetDefaultSpec(_ context.Context, itemID entities.ItemID, characteristic string) (entities.SpecID, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.defaultMap[defaultKey{itemID: itemID, characteristic: characteristic}]
	if !exists {
		return 0, false, nil
	}
	return r.defaults[index].SpecID, true, nil
}

// FindSpecByCodeOrName returns the highest spec id matching code or name exactly
func (r *CatalogRepository) FindSpecByCodeOrName(_ context.Context, code, name string) (entities.SpecID, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best entities.SpecID
	found := false
	for i := range r.specs {
		spec := &r.specs[i]
		match := (code != "" && spec.Code == code) || (name != "" && spec.Name == name)
		if match && (!found || spec.ID > best) {
			best = spec.ID
			found = true
		}
	}
	return best, found, nil
}

// GetSpecification returns a specification by id
func (r *CatalogRepository) GetSpecification(_ context.Context, id entities.SpecID) (*entities.Specification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.specsMap[id]
	if !exists {
		return nil, fmt.Errorf("specification %d: %w", id, repositories.ErrNotFound)
	}
	spec := r.specs[index]
	return &spec, nil
}

// GetComponents returns the component lines of a specification in insertion order
func (r *CatalogRepository) GetComponents(_ context.Context, specID entities.SpecID) ([]*entities.SpecComponent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := r.compIndex[specID]
	lines := make([]*entities.SpecComponent, 0, len(indexes))
	for _, index := range indexes {
		line := r.components[index]
		lines = append(lines, &line)
	}
	return lines, nil
}

// GetOperations returns the operation lines of a specification in insertion order
func (r *CatalogRepository) GetOperations(_ context.Context, specID entities.SpecID) ([]*entities.SpecOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := r.opIndex[specID]
	lines := make([]*entities.SpecOperation, 0, len(indexes))
	for _, index := range indexes {
		line := r.operations[index]
		lines = append(lines, &line)
	}
	return lines, nil
}

// ListStages returns all production stages
func (r *CatalogRepository) ListStages(_ context.Context) ([]*entities.ProductionStage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stages := make([]*entities.ProductionStage, 0, len(r.stages))
	for i := range r.stages {
		stage := r.stages[i]
		stages = append(stages, &stage)
	}
	return stages, nil
}

// ListSpecifications returns all specifications
func (r *CatalogRepository) ListSpecifications(_ context.Context) ([]*entities.Specification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]*entities.Specification, 0, len(r.specs))
	for i := range r.specs {
		spec := r.specs[i]
		specs = append(specs, &spec)
	}
	return specs, nil
}

// ListAllComponents returns every component line
func (r *CatalogRepository) ListAllComponents(_ context.Context) ([]*entities.SpecComponent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]*entities.SpecComponent, 0, len(r.components))
	for i := range r.components {
		line := r.components[i]
		lines = append(lines, &line)
	}
	return lines, nil
}

// ListDefaultSpecs returns every default mapping row
func (r *CatalogRepository) ListDefaultSpecs(_ context.Context) ([]*entities.DefaultSpecification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defaults := make([]*entities.DefaultSpecification, 0, len(r.defaults))
	for i := range r.defaults {
		def := r.defaults[i]
		defaults = append(defaults, &def)
	}
	return defaults, nil
}

// ListItems returns all items
func (r *CatalogRepository) ListItems(_ context.Context) ([]*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*entities.Item, 0, len(r.items))
	for i := range r.items {
		item := r.items[i]
		items = append(items, &item)
	}
	return items, nil
}
