package testing

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
)

// Stage ids used by the standard scenarios
const (
	StageMachining entities.StageID = 1
	StageWelding   entities.StageID = 2
	StageAssembly  entities.StageID = 3
)

// CatalogBuilder assembles an in-memory catalog for tests
type CatalogBuilder struct {
	repo     *memory.CatalogRepository
	codes    map[entities.ItemID]string
	nextLine int64
	nextDef  int64
}

// NewCatalogBuilder creates a builder with the three standard stages
func NewCatalogBuilder() *CatalogBuilder {
	b := &CatalogBuilder{
		repo:     memory.NewCatalogRepository(16),
		codes:    make(map[entities.ItemID]string),
		nextLine: 1,
		nextDef:  1,
	}
	b.Stage(StageMachining, "Machining", 1)
	b.Stage(StageWelding, "Welding", 2)
	b.Stage(StageAssembly, "Assembly", 3)
	return b
}

// Qty parses a decimal literal, panicking on malformed input
func Qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// StagePtr returns a pointer to a stage id
func StagePtr(id entities.StageID) *entities.StageID {
	return &id
}

// Stage adds a production stage
func (b *CatalogBuilder) Stage(id entities.StageID, name string, order int) *CatalogBuilder {
	b.repo.AddStage(entities.ProductionStage{ID: id, Name: name, Order: order})
	return b
}

// Item adds an item named after its code with zero stock
func (b *CatalogBuilder) Item(id entities.ItemID, code string, method entities.ReplenishmentMethod) *CatalogBuilder {
	return b.ItemWithStock(id, code, method, "0")
}

// ItemWithStock adds an item with the given stock level
func (b *CatalogBuilder) ItemWithStock(id entities.ItemID, code string, method entities.ReplenishmentMethod, stock string) *CatalogBuilder {
	b.codes[id] = code
	b.repo.AddItem(entities.Item{
		ID:                  id,
		Code:                code,
		Name:                code,
		Unit:                "pcs",
		ReplenishmentMethod: method,
		StockQty:            Qty(stock),
	})
	return b
}

// Spec adds a specification for owner and maps it as the owner's default
func (b *CatalogBuilder) Spec(id entities.SpecID, owner entities.ItemID) *CatalogBuilder {
	b.SpecNoDefault(id, owner)
	b.repo.AddDefaultSpec(entities.DefaultSpecification{ID: b.nextDef, ItemID: owner, SpecID: id})
	b.nextDef++
	return b
}

// SpecNoDefault adds a specification coded like its owner without a default mapping
func (b *CatalogBuilder) SpecNoDefault(id entities.SpecID, owner entities.ItemID) *CatalogBuilder {
	ownerID := owner
	b.repo.AddSpecification(entities.Specification{ID: id, Code: b.codes[owner], Name: b.codes[owner], OwnerItemID: &ownerID})
	return b
}

// Component adds a component line; stage may be nil
func (b *CatalogBuilder) Component(spec entities.SpecID, child entities.ItemID, qty string, stage *entities.StageID) *CatalogBuilder {
	b.repo.AddComponent(entities.SpecComponent{
		ID:           b.nextLine,
		SpecID:       spec,
		ChildItemID:  child,
		QtyPerParent: Qty(qty),
		StageID:      stage,
	})
	b.nextLine++
	return b
}

// Operation adds an operation line; stage may be nil
func (b *CatalogBuilder) Operation(spec entities.SpecID, opID entities.OperationID, name, norm string, stage *entities.StageID) *CatalogBuilder {
	b.repo.AddOperation(entities.SpecOperation{
		ID:            b.nextLine,
		SpecID:        spec,
		OperationID:   opID,
		OperationName: name,
		TimeNorm:      Qty(norm),
		StageID:       stage,
	})
	b.nextLine++
	return b
}

// Build returns the populated repository
func (b *CatalogBuilder) Build() *memory.CatalogRepository {
	return b.repo
}

// BuildTwoLevelScenario builds R -> C (4, Assembly) -> D (2, Machining), all manufactured.
// Item ids: R=1, C=2, D=3.
func BuildTwoLevelScenario() *memory.CatalogRepository {
	return NewCatalogBuilder().
		Item(1, "R", entities.Manufactured).
		ItemWithStock(2, "C", entities.Manufactured, "5").
		ItemWithStock(3, "D", entities.Manufactured, "1.5").
		Spec(10, 1).
		Spec(20, 2).
		Component(10, 2, "4", StagePtr(StageAssembly)).
		Component(20, 3, "2", StagePtr(StageMachining)).
		Build()
}

// BuildSharedComponentScenario builds R -> C (1) and R -> E (1) -> C (2), C at Assembly.
// Item ids: R=1, C=2, E=4.
func BuildSharedComponentScenario() *memory.CatalogRepository {
	return NewCatalogBuilder().
		Item(1, "R", entities.Manufactured).
		Item(2, "C", entities.Manufactured).
		Item(4, "E", entities.Manufactured).
		Spec(10, 1).
		Spec(40, 4).
		Component(10, 2, "1", StagePtr(StageAssembly)).
		Component(10, 4, "1", StagePtr(StageWelding)).
		Component(40, 2, "2", StagePtr(StageAssembly)).
		Build()
}

// BuildCycleScenario builds A -> B (1, Assembly) -> A (1, Assembly). Item ids: A=1, B=2.
func BuildCycleScenario() *memory.CatalogRepository {
	return NewCatalogBuilder().
		Item(1, "A", entities.Manufactured).
		Item(2, "B", entities.Manufactured).
		Spec(10, 1).
		Spec(20, 2).
		Component(10, 2, "1", StagePtr(StageAssembly)).
		Component(20, 1, "1", StagePtr(StageAssembly)).
		Build()
}

// BuildChainScenario builds a linear chain of n manufactured items, each needing one of the next.
// Item ids run 1..n with codes P01, P02, ...; item k uses spec 100+k.
func BuildChainScenario(n int) *memory.CatalogRepository {
	b := NewCatalogBuilder()
	for k := 1; k <= n; k++ {
		b.Item(entities.ItemID(k), chainCode(k), entities.Manufactured)
	}
	for k := 1; k < n; k++ {
		spec := entities.SpecID(100 + k)
		b.Spec(spec, entities.ItemID(k))
		b.Component(spec, entities.ItemID(k+1), "1", StagePtr(StageMachining))
	}
	return b.Build()
}

func chainCode(k int) string {
	return "P" + string(rune('0'+k/10)) + string(rune('0'+k%10))
}
