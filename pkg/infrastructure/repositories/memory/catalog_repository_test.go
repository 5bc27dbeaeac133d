package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

func TestCatalogRepository_Items(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(4)

	repo.AddItem(entities.Item{ID: 1, Code: "FRAME", Name: "Frame", ReplenishmentMethod: entities.Manufactured})
	repo.AddItem(entities.Item{ID: 2, Code: "BOLT", Name: "Bolt", StockQty: decimal.NewFromInt(100)})

	item, err := repo.GetItem(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if item.Code != "BOLT" {
		t.Errorf("Expected code BOLT, got %s", item.Code)
	}

	byCode, err := repo.GetItemByCode(ctx, "FRAME")
	if err != nil {
		t.Fatalf("Failed to get item by code: %v", err)
	}
	if byCode.ID != 1 {
		t.Errorf("Expected item 1, got %d", byCode.ID)
	}

	// replacing an item updates the code index
	repo.AddItem(entities.Item{ID: 2, Code: "BOLT-M8", Name: "Bolt M8"})
	if _, err := repo.GetItemByCode(ctx, "BOLT"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for stale code, got %v", err)
	}
	if _, err := repo.GetItemByCode(ctx, "BOLT-M8"); err != nil {
		t.Errorf("Expected replaced item to be found: %v", err)
	}

	_, err = repo.GetItem(ctx, 99)
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCatalogRepository_DefaultSpecTieBreak(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(1)

	repo.AddDefaultSpec(entities.DefaultSpecification{ID: 7, ItemID: 1, SpecID: 70})
	repo.AddDefaultSpec(entities.DefaultSpecification{ID: 3, ItemID: 1, SpecID: 30})
	repo.AddDefaultSpec(entities.DefaultSpecification{ID: 9, ItemID: 1, SpecID: 90})
	repo.AddDefaultSpec(entities.DefaultSpecification{ID: 4, ItemID: 1, Characteristic: "blue", SpecID: 40})

	specID, ok, err := repo.GetDefaultSpec(ctx, 1, "")
	if err != nil || !ok {
		t.Fatalf("Expected default spec, got ok=%v err=%v", ok, err)
	}
	if specID != 30 {
		t.Errorf("Expected lowest row id to win with spec 30, got %d", specID)
	}

	specID, ok, _ = repo.GetDefaultSpec(ctx, 1, "blue")
	if !ok || specID != 40 {
		t.Errorf("Expected characteristic spec 40, got %d (ok=%v)", specID, ok)
	}

	if _, ok, _ := repo.GetDefaultSpec(ctx, 2, ""); ok {
		t.Error("Expected no default spec for unknown item")
	}
}

func TestCatalogRepository_FindSpecByCodeOrName(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(1)

	repo.AddSpecification(entities.Specification{ID: 5, Code: "FRAME", Name: "Old frame"})
	repo.AddSpecification(entities.Specification{ID: 12, Code: "FRAME-2", Name: "Frame"})
	repo.AddSpecification(entities.Specification{ID: 8, Code: "frame", Name: "frame"})

	testCases := []struct {
		name     string
		code     string
		itemName string
		expected entities.SpecID
		found    bool
	}{
		{"code only", "FRAME", "", 5, true},
		{"code or name picks highest id", "FRAME", "Frame", 12, true},
		{"case sensitive", "Frame", "FRAME", 0, false},
		{"empty never matches", "", "", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, found, err := repo.FindSpecByCodeOrName(ctx, tc.code, tc.itemName)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if found != tc.found || got != tc.expected {
				t.Errorf("Expected (%d, %v), got (%d, %v)", tc.expected, tc.found, got, found)
			}
		})
	}
}

func TestCatalogRepository_Lines(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(2)
	stage := entities.StageID(1)

	repo.AddComponent(entities.SpecComponent{ID: 1, SpecID: 10, ChildItemID: 2, QtyPerParent: decimal.NewFromInt(4), StageID: &stage})
	repo.AddComponent(entities.SpecComponent{ID: 2, SpecID: 10, ChildItemID: 3, QtyPerParent: decimal.NewFromInt(1)})
	repo.AddComponent(entities.SpecComponent{ID: 3, SpecID: 11, ChildItemID: 4, QtyPerParent: decimal.NewFromInt(1)})
	repo.AddOperation(entities.SpecOperation{ID: 1, SpecID: 10, OperationID: 5, OperationName: "Welding", TimeNorm: decimal.RequireFromString("0.5")})

	comps, err := repo.GetComponents(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to get components: %v", err)
	}
	if len(comps) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(comps))
	}
	if comps[0].ChildItemID != 2 || comps[1].ChildItemID != 3 {
		t.Errorf("Unexpected component order: %d, %d", comps[0].ChildItemID, comps[1].ChildItemID)
	}

	ops, _ := repo.GetOperations(ctx, 10)
	if len(ops) != 1 || ops[0].OperationName != "Welding" {
		t.Errorf("Expected one Welding operation, got %+v", ops)
	}

	empty, err := repo.GetComponents(ctx, 99)
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected no components for unknown spec, got %d (err=%v)", len(empty), err)
	}

	all, _ := repo.ListAllComponents(ctx)
	if len(all) != 3 {
		t.Errorf("Expected 3 component lines in total, got %d", len(all))
	}
}
