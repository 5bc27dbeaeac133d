package services

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

func item(id entities.ItemID, code string, method entities.ReplenishmentMethod) *entities.Item {
	return &entities.Item{ID: id, Code: code, Name: code, ReplenishmentMethod: method}
}

func line(id int64, spec entities.SpecID, child entities.ItemID, qty int64) *entities.SpecComponent {
	return &entities.SpecComponent{ID: id, SpecID: spec, ChildItemID: child, QtyPerParent: decimal.NewFromInt(qty)}
}

func TestSpecValidator_DetectSimpleCycle(t *testing.T) {
	// A -> B -> A through default mappings
	graph := SpecGraph{
		Items: []*entities.Item{
			item(1, "A", entities.Manufactured),
			item(2, "B", entities.Manufactured),
		},
		Specifications: []*entities.Specification{{ID: 10, Code: "A"}, {ID: 20, Code: "B"}},
		Components:     []*entities.SpecComponent{line(1, 10, 2, 1), line(2, 20, 1, 1)},
		Defaults: []*entities.DefaultSpecification{
			{ID: 1, ItemID: 1, SpecID: 10},
			{ID: 2, ItemID: 2, SpecID: 20},
		},
	}

	result := NewSpecValidator().Validate(graph)

	if !result.HasCycles {
		t.Fatal("Expected cycle to be detected")
	}
	want := [][]string{{"A", "B", "A"}}
	if !reflect.DeepEqual(result.CyclePaths, want) {
		t.Errorf("Expected cycle paths %v, got %v", want, result.CyclePaths)
	}
	if result.Valid() {
		t.Error("Expected validation errors for cycles")
	}
}

func TestSpecValidator_CycleThroughCodeFallback(t *testing.T) {
	// A -> B -> C -> A where C has no default mapping
	graph := SpecGraph{
		Items: []*entities.Item{
			item(1, "A", entities.Manufactured),
			item(2, "B", entities.Manufactured),
			item(3, "C", entities.Manufactured),
		},
		Specifications: []*entities.Specification{
			{ID: 10, Code: "A"}, {ID: 20, Code: "B"}, {ID: 30, Code: "C"},
		},
		Components: []*entities.SpecComponent{
			line(1, 10, 2, 1), line(2, 20, 3, 2), line(3, 30, 1, 1),
		},
		Defaults: []*entities.DefaultSpecification{{ID: 1, ItemID: 1, SpecID: 10}},
	}

	result := NewSpecValidator().Validate(graph)

	want := [][]string{{"A", "B", "C", "A"}}
	if !reflect.DeepEqual(result.CyclePaths, want) {
		t.Errorf("Expected cycle paths %v, got %v", want, result.CyclePaths)
	}
}

func TestSpecValidator_NoCycleInSharedComponents(t *testing.T) {
	// A -> B, A -> C, B -> C is a diamond, not a cycle
	graph := SpecGraph{
		Items: []*entities.Item{
			item(1, "A", entities.Manufactured),
			item(2, "B", entities.Manufactured),
			item(3, "C", entities.Purchased),
		},
		Specifications: []*entities.Specification{{ID: 10, Code: "A"}, {ID: 20, Code: "B"}},
		Components:     []*entities.SpecComponent{line(1, 10, 2, 1), line(2, 10, 3, 1), line(3, 20, 3, 4)},
	}

	result := NewSpecValidator().Validate(graph)

	if result.HasCycles {
		t.Errorf("Expected no cycles, got %v", result.CyclePaths)
	}
	if !result.Valid() {
		t.Errorf("Expected valid graph, got errors %v", result.Errors)
	}
}

func TestSpecValidator_IgnoresNonPositiveEdges(t *testing.T) {
	graph := SpecGraph{
		Items: []*entities.Item{
			item(1, "A", entities.Manufactured),
			item(2, "B", entities.Manufactured),
		},
		Specifications: []*entities.Specification{{ID: 10, Code: "A"}, {ID: 20, Code: "B"}},
		Components:     []*entities.SpecComponent{line(1, 10, 2, 1), line(2, 20, 1, 0)},
	}

	if result := NewSpecValidator().Validate(graph); result.HasCycles {
		t.Errorf("Expected zero-quantity back edge to be ignored, got %v", result.CyclePaths)
	}
}

func TestSpecValidator_DuplicateAndDanglingLines(t *testing.T) {
	assembly := entities.StageID(3)
	dup := line(2, 10, 2, 1)
	dup.StageID = &assembly
	first := line(1, 10, 2, 1)
	first.StageID = &assembly

	graph := SpecGraph{
		Items: []*entities.Item{
			item(1, "A", entities.Manufactured),
			item(2, "B", entities.Purchased),
			item(4, "D", entities.Manufactured),
		},
		Specifications: []*entities.Specification{{ID: 10, Code: "A"}},
		Components: []*entities.SpecComponent{
			first,
			dup,
			line(3, 10, 2, 1),
			line(4, 10, 99, 1),
		},
	}

	result := NewSpecValidator().Validate(graph)

	if len(result.DuplicateLines) != 1 || result.DuplicateLines[0].ID != 2 {
		t.Errorf("Expected line 2 as the only duplicate, got %v", result.DuplicateLines)
	}
	if len(result.DanglingLines) != 1 || result.DanglingLines[0].ChildItemID != 99 {
		t.Errorf("Expected line to item 99 as dangling, got %v", result.DanglingLines)
	}
	if !reflect.DeepEqual(result.Unresolved, []entities.ItemID{4}) {
		t.Errorf("Expected item 4 unresolved, got %v", result.Unresolved)
	}
	if len(result.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %v", result.Errors)
	}
}
