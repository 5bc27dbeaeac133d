package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
)

func TestLoader_LoadScenario(t *testing.T) {
	loader := NewLoader()
	scenario, err := loader.LoadScenario(filepath.Join("testdata", "bicycle"))
	require.NoError(t, err)

	assert.Len(t, scenario.Items, 7)
	assert.Len(t, scenario.Stages, 3)
	assert.Len(t, scenario.Specifications, 4)
	assert.Len(t, scenario.Components, 8)
	assert.Len(t, scenario.Operations, 3)
	assert.Len(t, scenario.DefaultSpecs, 3)
	assert.Equal(t, []string{"BIKE"}, scenario.RootProductCodes)

	bike := scenario.Items[0]
	assert.Equal(t, "BIKE", bike.Code)
	assert.Equal(t, "BK-100", bike.Article)
	assert.Equal(t, entities.Manufactured, bike.ReplenishmentMethod)
	assert.Equal(t, entities.Purchased, scenario.Items[3].ReplenishmentMethod)

	rim := scenario.Specifications[3]
	assert.Nil(t, rim.OwnerItemID)

	// decimal comma is accepted
	assert.True(t, scenario.Components[7].QtyPerParent.Equal(decimal.RequireFromString("0.5")))

	// zero time norm falls back to the operations catalog
	welding := scenario.Operations[1]
	assert.True(t, welding.TimeNorm.Equal(decimal.RequireFromString("2.25")), "got %s", welding.TimeNorm)
	require.NotNil(t, welding.StageID)
	assert.Equal(t, entities.StageID(2), *welding.StageID)

	// blank operation name is taken from the catalog
	assert.Equal(t, "Wheel truing", scenario.Operations[2].OperationName)
	assert.Nil(t, scenario.Operations[2].StageID)
}

func TestScenario_Apply(t *testing.T) {
	ctx := context.Background()
	scenario, err := NewLoader().LoadScenario(filepath.Join("testdata", "bicycle"))
	require.NoError(t, err)

	repo := memory.NewCatalogRepository(len(scenario.Items))
	require.NoError(t, scenario.Apply(ctx, repo))

	item, err := repo.GetItemByCode(ctx, "WHEEL")
	require.NoError(t, err)
	assert.Equal(t, entities.ItemID(3), item.ID)

	specID, ok, err := repo.GetDefaultSpec(ctx, item.ID, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entities.SpecID(30), specID)
}

func TestScenario_ApplyPlan(t *testing.T) {
	ctx := context.Background()
	scenario, err := NewLoader().LoadScenario(filepath.Join("testdata", "bicycle"))
	require.NoError(t, err)
	require.Len(t, scenario.Plan, 3)
	assert.Equal(t, "BIKE", scenario.Plan[0].ItemCode)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), scenario.Plan[0].Date)
	require.NotNil(t, scenario.Plan[2].StageID)
	assert.True(t, scenario.Plan[2].PlannedQty.Equal(decimal.RequireFromString("1.5")))

	catalog := memory.NewCatalogRepository(len(scenario.Items))
	require.NoError(t, scenario.Apply(ctx, catalog))
	plans := memory.NewPlanRepository()
	saved, err := scenario.ApplyPlan(ctx, catalog, plans)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	entries, err := plans.ListPlanEntries(ctx, repositories.PlanQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, entities.ItemID(1), entries[0].ItemID)

	scenario.Plan = append(scenario.Plan, PlanLine{ItemCode: "TRIKE", Date: scenario.Plan[0].Date})
	_, err = scenario.ApplyPlan(ctx, catalog, plans)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestLoader_LoadPlanLinesErrors(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectError string
	}{
		{name: "missing code", input: ",2026-04-01,,1\n", expectError: "item_code is required"},
		{name: "bad date", input: "BIKE,01.04.2026,,1\n", expectError: "invalid plan date"},
		{name: "bad stage", input: "BIKE,2026-04-01,x,1\n", expectError: "invalid stage_id"},
		{name: "bad qty", input: "BIKE,2026-04-01,,lots\n", expectError: "invalid planned_qty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), PlanEntriesFile)
			content := "item_code,date,stage_id,planned_qty\n" + tc.input
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := NewLoader().LoadPlanLines(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectError)
		})
	}
}

func TestReadRecords_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expectError string
	}{
		{
			name:        "empty file",
			input:       "",
			expectError: "stages CSV must have a header row",
		},
		{
			name:        "header mismatch",
			input:       "id,name,order\n1,Machining,1\n",
			expectError: "stages CSV header mismatch",
		},
		{
			name:        "column count",
			input:       "stage_id,name,order\n1,Machining\n",
			expectError: "stages CSV row 2: expected 3 columns, got 2",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readRecords(strings.NewReader(tc.input), "stages", stagesHeader)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectError)
		})
	}
}

func TestReadRecords_ByteOrderMark(t *testing.T) {
	rows, err := readRecords(strings.NewReader("\ufeffitem_code\nBIKE\n"), "root products", rootProductsHeader)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BIKE", rows[0][0])
}

func TestParseComponent_Invalid(t *testing.T) {
	testCases := []struct {
		name        string
		record      []string
		expectError string
	}{
		{"bad id", []string{"x", "10", "2", "1", "", ""}, "invalid id: x"},
		{"bad quantity", []string{"1", "10", "2", "two", "", ""}, "invalid qty_per_parent: two"},
		{"bad stage", []string{"1", "10", "2", "1", "-3", ""}, "invalid stage_id: -3"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseComponent(tc.record)
			require.Error(t, err)
			assert.Equal(t, tc.expectError, err.Error())
		})
	}
}
