package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

func TestRootProductRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRootProductRepository()

	first, err := repo.AddRootProduct(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to add root product: %v", err)
	}
	if first.ID != 1 {
		t.Errorf("Expected id 1, got %d", first.ID)
	}
	if _, err := repo.AddRootProduct(ctx, 20); err != nil {
		t.Fatalf("Failed to add second root product: %v", err)
	}

	_, err = repo.AddRootProduct(ctx, 10)
	if !errors.Is(err, repositories.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}

	if err := repo.RemoveRootProduct(ctx, 10); err != nil {
		t.Fatalf("Failed to remove root product: %v", err)
	}
	products, _ := repo.ListRootProducts(ctx)
	if len(products) != 1 || products[0].ItemID != 20 {
		t.Errorf("Expected only item 20 to remain, got %+v", products)
	}

	if err := repo.RemoveRootProduct(ctx, 10); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second removal, got %v", err)
	}
}

func TestRootProductRepository_Ensure(t *testing.T) {
	ctx := context.Background()
	repo := NewRootProductRepository()

	if _, err := repo.AddRootProduct(ctx, 5); err != nil {
		t.Fatalf("Failed to add root product: %v", err)
	}

	added, err := repo.EnsureRootProducts(ctx, []entities.ItemID{5, 6, 7, 6})
	if err != nil {
		t.Fatalf("EnsureRootProducts failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 new root products, got %d", added)
	}

	products, _ := repo.ListRootProducts(ctx)
	if len(products) != 3 {
		t.Errorf("Expected 3 root products, got %d", len(products))
	}
}
