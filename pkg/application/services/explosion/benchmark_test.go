package explosion

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/prodplan/pkg/infrastructure/testing"
)

func BenchmarkEngine_DeepChain(b *testing.B) {
	ctx := context.Background()
	catalog := testhelpers.BuildChainScenario(15)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine, _ := newTestEngine(catalog, WithMaxDepth(MaxTreeDepth))
		if _, err := engine.Explode(ctx, Root{ItemID: 1, Quantity: decimal.NewFromInt(1)}, NewStageCollector()); err != nil {
			b.Fatalf("Explode failed: %v", err)
		}
	}
}

func BenchmarkEngine_Wide(b *testing.B) {
	ctx := context.Background()
	catalog := setupWideSpec(50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine, cache := newTestEngine(catalog)
		if _, err := engine.Explode(ctx, Root{ItemID: 1, Quantity: decimal.NewFromInt(3)}, NewTreeCollector(cache)); err != nil {
			b.Fatalf("Explode failed: %v", err)
		}
	}
}

func BenchmarkStageService_LargeScale(b *testing.B) {
	ctx := context.Background()
	catalog, roots := setupLargeScaleSpec(20, 6, 4)
	service := NewStageService(catalog, roots, nil, StageServiceConfig{MaxDepth: 15, Workers: 4}, zap.NewNop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := service.Calculate(ctx); err != nil {
			b.Fatalf("Calculate failed: %v", err)
		}
	}
}

// setupWideSpec builds one assembly with childrenCount purchased and manufactured children
func setupWideSpec(childrenCount int) *memory.CatalogRepository {
	b := testhelpers.NewCatalogBuilder().
		Item(1, "TOP_ASSEMBLY", entities.Manufactured).
		Spec(1, 1)
	for c := 0; c < childrenCount; c++ {
		id := entities.ItemID(c + 2)
		method := entities.Manufactured
		if c%2 == 0 {
			method = entities.Purchased
		}
		b.Item(id, fmt.Sprintf("COMPONENT_%03d", c), method).
			Component(1, id, "2", testhelpers.StagePtr(testhelpers.StageAssembly))
	}
	b.Operation(1, 1, "Final assembly", "1.5", testhelpers.StagePtr(testhelpers.StageAssembly))
	return b.Build()
}

// setupLargeScaleSpec builds rootCount products over a shared pool of levels x width subassemblies,
// each level consuming every part of the next one
func setupLargeScaleSpec(rootCount, levels, width int) (*memory.CatalogRepository, *memory.RootProductRepository) {
	b := testhelpers.NewCatalogBuilder()
	roots := memory.NewRootProductRepository()
	ctx := context.Background()

	partID := func(level, k int) entities.ItemID {
		return entities.ItemID(1000 + level*width + k)
	}
	stages := []entities.StageID{testhelpers.StageAssembly, testhelpers.StageWelding, testhelpers.StageMachining}

	for level := 0; level < levels; level++ {
		for k := 0; k < width; k++ {
			id := partID(level, k)
			b.Item(id, fmt.Sprintf("PART_L%d_%02d", level, k), entities.Manufactured)
			if level == levels-1 {
				continue
			}
			b.Spec(entities.SpecID(id), id)
			for n := 0; n < width; n++ {
				b.Component(entities.SpecID(id), partID(level+1, n), "1", testhelpers.StagePtr(stages[(level+1)%len(stages)]))
			}
		}
	}

	for r := 0; r < rootCount; r++ {
		id := entities.ItemID(r + 1)
		b.Item(id, fmt.Sprintf("ROOT_ASSEMBLY_%03d", r+1), entities.Manufactured).
			Spec(entities.SpecID(id), id)
		for k := 0; k < width; k++ {
			b.Component(entities.SpecID(id), partID(0, k), "2", testhelpers.StagePtr(testhelpers.StageAssembly))
		}
		if _, err := roots.AddRootProduct(ctx, id); err != nil {
			panic(err)
		}
	}
	return b.Build(), roots
}
