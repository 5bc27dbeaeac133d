package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vsinha/prodplan/pkg/application/services/explosion"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	csvloader "github.com/vsinha/prodplan/pkg/infrastructure/repositories/csv"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "prodplan.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func loadBicycle(t *testing.T, store *CatalogStore) *csvloader.Scenario {
	t.Helper()
	scenario, err := csvloader.NewLoader().LoadScenario(filepath.Join("..", "csv", "testdata", "bicycle"))
	require.NoError(t, err)
	require.NoError(t, scenario.Apply(context.Background(), store))
	return scenario
}

func TestCatalogStore_Reads(t *testing.T) {
	store := NewCatalogStore(openTestDB(t))
	loadBicycle(t, store)
	ctx := context.Background()

	bike, err := store.GetItemByCode(ctx, "BIKE")
	require.NoError(t, err)
	assert.Equal(t, entities.ItemID(1), bike.ID)
	assert.Equal(t, entities.Manufactured, bike.ReplenishmentMethod)
	assert.True(t, decimal.NewFromInt(2).Equal(bike.StockQty))

	tube, err := store.GetItem(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, entities.Purchased, tube.ReplenishmentMethod)
	assert.Equal(t, "m", tube.Unit)

	_, err = store.GetItem(ctx, 404)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = store.GetItemByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	specID, ok, err := store.GetDefaultSpec(ctx, 2, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entities.SpecID(20), specID)

	_, ok, err = store.GetDefaultSpec(ctx, 6, "")
	require.NoError(t, err)
	assert.False(t, ok)

	specID, ok, err = store.FindSpecByCodeOrName(ctx, "RIM", "Rim")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entities.SpecID(40), specID)

	_, ok, err = store.FindSpecByCodeOrName(ctx, "", "")
	require.NoError(t, err)
	assert.False(t, ok)

	comps, err := store.GetComponents(ctx, 40)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.True(t, decimal.RequireFromString("0.5").Equal(comps[0].QtyPerParent))
	require.NotNil(t, comps[0].StageID)
	assert.Equal(t, entities.StageID(1), *comps[0].StageID)

	ops, err := store.GetOperations(ctx, 30)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "Wheel truing", ops[0].OperationName)
	assert.Nil(t, ops[0].StageID)

	stages, err := store.ListStages(ctx)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "Machining", stages[0].Name)

	spec, err := store.GetSpecification(ctx, 40)
	require.NoError(t, err)
	assert.Nil(t, spec.OwnerItemID)
	_, err = store.GetSpecification(ctx, 99)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	all, err := store.ListAllComponents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
	defaults, err := store.ListDefaultSpecs(ctx)
	require.NoError(t, err)
	assert.Len(t, defaults, 3)
	specs, err := store.ListSpecifications(ctx)
	require.NoError(t, err)
	assert.Len(t, specs, 4)
}

func TestCatalogStore_ReloadReplacesRows(t *testing.T) {
	store := NewCatalogStore(openTestDB(t))
	loadBicycle(t, store)
	ctx := context.Background()

	require.NoError(t, store.LoadItems(ctx, []*entities.Item{{
		ID: 3, Code: "WHEEL", Name: "Wheel 28", Unit: "pcs",
		ReplenishmentMethod: entities.Manufactured, StockQty: decimal.RequireFromString("11.5"),
	}}))

	wheel, err := store.GetItem(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Wheel 28", wheel.Name)
	assert.True(t, decimal.RequireFromString("11.5").Equal(wheel.StockQty))

	items, err := store.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 7)
}

func TestRootProductStore_Lifecycle(t *testing.T) {
	store := NewRootProductStore(openTestDB(t))
	ctx := context.Background()

	first, err := store.AddRootProduct(ctx, 1)
	require.NoError(t, err)
	assert.Positive(t, first.ID)

	_, err = store.AddRootProduct(ctx, 1)
	assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

	added, err := store.EnsureRootProducts(ctx, []entities.ItemID{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	products, err := store.ListRootProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, entities.ItemID(1), products[0].ItemID)

	require.NoError(t, store.RemoveRootProduct(ctx, 2))
	assert.ErrorIs(t, store.RemoveRootProduct(ctx, 2), repositories.ErrNotFound)

	products, err = store.ListRootProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestPlanStore_UpsertAndQuery(t *testing.T) {
	store := NewPlanStore(openTestDB(t))
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC) }
	entry := func(item entities.ItemID, stage *entities.StageID, d int, qty string) *entities.PlanEntry {
		e, err := entities.NewPlanEntry(item, stage, day(d), decimal.RequireFromString(qty))
		require.NoError(t, err)
		return e
	}
	welding := entities.StageID(2)

	saved, err := store.UpsertPlanEntries(ctx, []*entities.PlanEntry{
		entry(1, nil, 1, "5"),
		entry(1, &welding, 1, "2"),
		entry(1, nil, 3, "1.5"),
		entry(2, nil, 1, "8"),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, saved)

	// unstaged and staged slots of the same day are updated in place
	_, err = store.UpsertPlanEntries(ctx, []*entities.PlanEntry{
		entry(1, nil, 1, "6"),
		entry(1, &welding, 1, "3"),
	})
	require.NoError(t, err)

	all, err := store.ListPlanEntries(ctx, repositories.PlanQuery{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, decimal.NewFromInt(6).Equal(all[0].PlannedQty))
	assert.Nil(t, all[0].StageID)
	assert.True(t, day(1).Equal(all[0].Date))
	assert.True(t, decimal.NewFromInt(3).Equal(all[1].PlannedQty))
	require.NotNil(t, all[1].StageID)
	assert.Equal(t, welding, *all[1].StageID)
	assert.Equal(t, entities.PlanGreen, all[1].Status)
	assert.True(t, decimal.RequireFromString("1.5").Equal(all[2].PlannedQty))

	window, err := store.ListPlanEntries(ctx, repositories.PlanQuery{
		ItemIDs: []entities.ItemID{1},
		From:    day(1),
		To:      day(3),
	})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	staged, err := store.ListPlanEntries(ctx, repositories.PlanQuery{StageID: &welding})
	require.NoError(t, err)
	assert.Len(t, staged, 1)

	deleted, err := store.DeletePlanEntries(ctx, repositories.PlanQuery{ItemIDs: []entities.ItemID{1}})
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	rest, err := store.ListPlanEntries(ctx, repositories.PlanQuery{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, entities.ItemID(2), rest[0].ItemID)
}

func TestStageAggregationOverRelationalStore(t *testing.T) {
	db := openTestDB(t)
	catalog := NewCatalogStore(db)
	roots := NewRootProductStore(db)
	loadBicycle(t, catalog)

	ctx := context.Background()
	_, err := roots.AddRootProduct(ctx, 1)
	require.NoError(t, err)

	service := explosion.NewStageService(catalog, roots, nil, explosion.StageServiceConfig{Workers: 2}, nil)
	report, err := service.Calculate(ctx)
	require.NoError(t, err)

	require.Len(t, report.Stages, 2)
	machining := report.Stages[0]
	assert.Equal(t, "Machining", machining.StageName)
	require.Len(t, machining.Products, 1)
	require.Len(t, machining.Products[0].Components, 1)
	assert.Equal(t, "RIM", machining.Products[0].Components[0].ItemCode)
	assert.Equal(t, 2.0, machining.Products[0].Components[0].QtyPerUnit)
	assert.Equal(t, 3.0, machining.Products[0].Components[0].StockQty)

	assembly := report.Stages[1]
	assert.Equal(t, "Assembly", assembly.StageName)
	components := assembly.Products[0].Components
	require.Len(t, components, 2)
	assert.Equal(t, "FRAME", components[0].ItemCode)
	assert.Equal(t, 1.0, components[0].QtyPerUnit)
	assert.Equal(t, "WHEEL", components[1].ItemCode)
	assert.Equal(t, 2.0, components[1].QtyPerUnit)
}
