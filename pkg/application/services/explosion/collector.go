package explosion

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// NodeVisit describes an item reached by the walk
type NodeVisit struct {
	Item     *entities.Item
	Quantity decimal.Decimal
	Depth    int
	// Cycle is set when the item already occurs among its ancestors; the walk does not descend.
	Cycle bool
	// Characteristic is only set on the root visit.
	Characteristic string
}

// ComponentEdge describes a component line being followed from Parent to Child
type ComponentEdge struct {
	Parent     *entities.Item
	Child      *entities.Item
	Line       *entities.SpecComponent
	ParentQty  decimal.Decimal
	QtyPerUnit decimal.Decimal
	TotalQty   decimal.Decimal
	StageID    *entities.StageID
	Depth      int
}

// OperationEdge describes a labor operation of Parent's specification
type OperationEdge struct {
	Parent    *entities.Item
	Operation *entities.SpecOperation
	ParentQty decimal.Decimal
	TotalTime decimal.Decimal
	StageID   *entities.StageID
	Depth     int
}

// Collector consumes the walk. Callbacks arrive in depth-first order:
// OnEnter for a node, then for each component OnComponentEdge followed by the child's subtree,
// then OnOperationEdge for each operation. Returning an error aborts the explosion.
type Collector interface {
	OnEnter(ctx context.Context, visit NodeVisit) error
	OnComponentEdge(ctx context.Context, edge ComponentEdge) error
	OnOperationEdge(ctx context.Context, edge OperationEdge) error
}
