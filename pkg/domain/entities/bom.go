package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SpecID identifies a specification
type SpecID int64

// OperationID identifies a labor operation in the operations catalog
type OperationID int64

// Specification is the recipe for producing one unit of an item
type Specification struct {
	ID          SpecID
	Code        string
	Name        string
	OwnerItemID *ItemID
}

// NewSpecification creates a validated Specification
func NewSpecification(id SpecID, code, name string, owner *ItemID) (*Specification, error) {
	if id <= 0 {
		return nil, fmt.Errorf("spec id must be positive, got %d", id)
	}
	if strings.TrimSpace(code) == "" && strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("spec %d needs a code or a name", id)
	}

	return &Specification{
		ID:          id,
		Code:        code,
		Name:        name,
		OwnerItemID: owner,
	}, nil
}

// SpecComponent is a material edge of a specification
type SpecComponent struct {
	ID            int64
	SpecID        SpecID
	ChildItemID   ItemID
	QtyPerParent  decimal.Decimal
	StageID       *StageID
	ComponentType string
}

// NewSpecComponent creates a validated SpecComponent.
// Non-positive quantities are accepted; the explosion skips them.
func NewSpecComponent(id int64, specID SpecID, child ItemID, qtyPer decimal.Decimal, stage *StageID, componentType string) (*SpecComponent, error) {
	if specID <= 0 {
		return nil, fmt.Errorf("spec id must be positive, got %d", specID)
	}
	if child <= 0 {
		return nil, fmt.Errorf("child item id must be positive, got %d", child)
	}

	return &SpecComponent{
		ID:            id,
		SpecID:        specID,
		ChildItemID:   child,
		QtyPerParent:  qtyPer,
		StageID:       stage,
		ComponentType: componentType,
	}, nil
}

// SpecOperation is a labor edge of a specification
type SpecOperation struct {
	ID            int64
	SpecID        SpecID
	OperationID   OperationID
	OperationName string
	TimeNorm      decimal.Decimal
	StageID       *StageID
}

// NewSpecOperation creates a validated SpecOperation
func NewSpecOperation(id int64, specID SpecID, opID OperationID, name string, timeNorm decimal.Decimal, stage *StageID) (*SpecOperation, error) {
	if specID <= 0 {
		return nil, fmt.Errorf("spec id must be positive, got %d", specID)
	}
	if timeNorm.IsNegative() {
		return nil, fmt.Errorf("time norm cannot be negative, got %s", timeNorm)
	}

	return &SpecOperation{
		ID:            id,
		SpecID:        specID,
		OperationID:   opID,
		OperationName: name,
		TimeNorm:      timeNorm,
		StageID:       stage,
	}, nil
}

// EffectiveTimeNorm returns the line norm, falling back to the catalog norm when the line has none
func EffectiveTimeNorm(line, catalog decimal.Decimal) decimal.Decimal {
	if line.IsPositive() {
		return line
	}
	return catalog
}

// DefaultSpecification selects the spec used when an item is exploded as a parent.
// An empty Characteristic applies to all characteristics of the item.
type DefaultSpecification struct {
	ID             int64
	ItemID         ItemID
	Characteristic string
	SpecID         SpecID
}

// RootProduct marks an item as a finished product under plan
type RootProduct struct {
	ID     int64
	ItemID ItemID
}
