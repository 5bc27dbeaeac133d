package planning

import (
	"context"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/prodplan/pkg/infrastructure/testing"
)

type planFixture struct {
	service *PlanService
	roots   *memory.RootProductRepository
	plans   *memory.PlanRepository
}

func newPlanFixture(t *testing.T) planFixture {
	t.Helper()
	catalog := testhelpers.NewCatalogBuilder().
		Item(1, "WHEEL", entities.Manufactured).
		Item(2, "BIKE", entities.Manufactured).
		Item(3, "CART", entities.Manufactured).
		Build()
	roots := memory.NewRootProductRepository()
	for _, id := range []entities.ItemID{1, 2, 3} {
		_, err := roots.AddRootProduct(context.Background(), id)
		require.NoError(t, err)
	}
	plans := memory.NewPlanRepository()
	service := NewPlanService(catalog, roots, plans, nil)
	service.now = func() time.Time { return time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC) }
	return planFixture{service: service, roots: roots, plans: plans}
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func stageID(id int64) *int64 { return &id }

func TestPlanService_UpsertReplacesSlot(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.Upsert(ctx, PlanEntryInput{ItemID: 1, Date: "2026-04-10", Qty: qty("5")}))
	require.NoError(t, f.service.Upsert(ctx, PlanEntryInput{ItemID: 1, Date: "2026-04-10", Qty: qty("8")}))
	require.NoError(t, f.service.Upsert(ctx, PlanEntryInput{ItemID: 1, Date: "2026-04-10", Qty: qty("2"), StageID: stageID(3)}))

	entries, err := f.plans.ListPlanEntries(ctx, repositories.PlanQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, qty("8").Equal(entries[0].PlannedQty))
	assert.Nil(t, entries[0].StageID)
	assert.True(t, qty("2").Equal(entries[1].PlannedQty))
	require.NotNil(t, entries[1].StageID)
	assert.Equal(t, testhelpers.StageAssembly, *entries[1].StageID)
}

func TestPlanService_UpsertErrors(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		in       PlanEntryInput
		wantCode errbuilder.ErrCode
	}{
		{name: "missing item id", in: PlanEntryInput{Date: "2026-04-10", Qty: qty("1")}, wantCode: errbuilder.CodeInvalidArgument},
		{name: "bad date", in: PlanEntryInput{ItemID: 1, Date: "10.04.2026", Qty: qty("1")}, wantCode: errbuilder.CodeInvalidArgument},
		{name: "negative qty", in: PlanEntryInput{ItemID: 1, Date: "2026-04-10", Qty: qty("-1")}, wantCode: errbuilder.CodeInvalidArgument},
		{name: "unknown item", in: PlanEntryInput{ItemID: 42, Date: "2026-04-10", Qty: qty("1")}, wantCode: errbuilder.CodeNotFound},
		{name: "unknown stage", in: PlanEntryInput{ItemID: 1, Date: "2026-04-10", Qty: qty("1"), StageID: stageID(9)}, wantCode: errbuilder.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.Upsert(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errbuilder.CodeOf(err))
		})
	}

	entries, err := f.plans.ListPlanEntries(ctx, repositories.PlanQuery{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPlanService_BulkUpsertSkipsInvalid(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	result, err := f.service.BulkUpsert(ctx, []PlanEntryInput{
		{ItemID: 1, Date: "2026-04-10", Qty: qty("3")},
		{ItemID: 1, Date: "2026-04-11", Qty: qty("4")},
		{ItemID: 0, Date: "2026-04-11", Qty: qty("4")},
		{ItemID: 2, Date: "", Qty: qty("1")},
		{ItemID: 77, Date: "2026-04-11", Qty: qty("1")},
		{ItemID: 1, Date: "2026-04-10", Qty: qty("6")},
	})
	require.NoError(t, err)
	assert.Equal(t, BulkUpsertResult{Saved: 3, Skipped: 3}, result)

	entries, err := f.plans.ListPlanEntries(ctx, repositories.PlanQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, qty("6").Equal(entries[0].PlannedQty))

	empty, err := f.service.BulkUpsert(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, BulkUpsertResult{}, empty)
}

func TestPlanService_Matrix(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	_, err := f.service.BulkUpsert(ctx, []PlanEntryInput{
		{ItemID: 1, Date: "2026-04-10", Qty: qty("2.5")},
		{ItemID: 1, Date: "2026-04-10", Qty: qty("1"), StageID: stageID(1)},
		{ItemID: 1, Date: "2026-04-12", Qty: qty("4")},
		{ItemID: 2, Date: "2026-04-11", Qty: qty("10")},
		{ItemID: 2, Date: "2026-04-13", Qty: qty("99")},
		{ItemID: 3, Date: "2026-04-09", Qty: qty("7")},
	})
	require.NoError(t, err)

	matrix, err := f.service.Matrix(ctx, MatrixRequest{Days: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-04-10", "2026-04-11", "2026-04-12"}, matrix.Dates)
	assert.Equal(t, 3, matrix.Total)
	assert.Equal(t, 1, matrix.Page)
	assert.Equal(t, DefaultPlanPageSize, matrix.PageSize)
	require.Len(t, matrix.Rows, 3)

	// name order: BIKE, CART, WHEEL
	assert.Equal(t, "BIKE", matrix.Rows[0].ItemCode)
	assert.Equal(t, map[string]float64{"2026-04-10": 0, "2026-04-11": 10, "2026-04-12": 0}, matrix.Rows[0].Days)
	assert.Equal(t, 10.0, matrix.Rows[0].MonthPlan)
	assert.Equal(t, 0.0, matrix.Rows[1].MonthPlan)
	assert.Nil(t, matrix.Rows[1].ItemArticle)
	assert.Equal(t, "WHEEL", matrix.Rows[2].ItemCode)
	assert.Equal(t, 3.5, matrix.Rows[2].Days["2026-04-10"])
	assert.Equal(t, 7.5, matrix.Rows[2].MonthPlan)

	staged, err := f.service.Matrix(ctx, MatrixRequest{StartDate: "2026-04-10", Days: 3, StageID: stageID(1)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, staged.Rows[2].MonthPlan)
	assert.Equal(t, 0.0, staged.Rows[0].MonthPlan)

	byPlan, err := f.service.Matrix(ctx, MatrixRequest{StartDate: "2026-04-10", Days: 3, SortBy: "month_plan", SortDir: "desc", PageSize: 2})
	require.NoError(t, err)
	require.Len(t, byPlan.Rows, 2)
	assert.Equal(t, "BIKE", byPlan.Rows[0].ItemCode)
	assert.Equal(t, "WHEEL", byPlan.Rows[1].ItemCode)

	last, err := f.service.Matrix(ctx, MatrixRequest{StartDate: "2026-04-10", Days: 3, SortBy: "month_plan", SortDir: "desc", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last.Rows, 1)
	assert.Equal(t, "CART", last.Rows[0].ItemCode)

	beyond, err := f.service.Matrix(ctx, MatrixRequest{Page: 5})
	require.NoError(t, err)
	assert.Empty(t, beyond.Rows)
	assert.Equal(t, 3, beyond.Total)
	assert.Len(t, beyond.Dates, DefaultPlanDays)
}

func TestPlanService_MatrixRejectsBadParameters(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  MatrixRequest
	}{
		{name: "bad start", req: MatrixRequest{StartDate: "2026/04/10"}},
		{name: "negative days", req: MatrixRequest{Days: -1}},
		{name: "too many days", req: MatrixRequest{Days: MaxPlanDays + 1}},
		{name: "negative page", req: MatrixRequest{Page: -1}},
		{name: "huge page", req: MatrixRequest{PageSize: MaxPlanPageSize + 1}},
		{name: "unknown sort", req: MatrixRequest{SortBy: "weight"}},
		{name: "unknown direction", req: MatrixRequest{SortDir: "up"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Matrix(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		})
	}
}

func TestPlanService_DeleteRow(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	_, err := f.service.BulkUpsert(ctx, []PlanEntryInput{
		{ItemID: 1, Date: "2026-04-10", Qty: qty("1")},
		{ItemID: 1, Date: "2026-04-11", Qty: qty("1")},
		{ItemID: 1, Date: "2026-05-20", Qty: qty("1")},
		{ItemID: 2, Date: "2026-04-10", Qty: qty("1")},
	})
	require.NoError(t, err)

	result, err := f.service.DeleteRow(ctx, DeleteRowRequest{ItemID: 1, StartDate: "2026-04-01", Days: 30})
	require.NoError(t, err)
	assert.Equal(t, DeleteRowResult{Deleted: 2, RootDeleted: 1}, result)

	entries, err := f.plans.ListPlanEntries(ctx, repositories.PlanQuery{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	matrix, err := f.service.Matrix(ctx, MatrixRequest{StartDate: "2026-04-01"})
	require.NoError(t, err)
	assert.Equal(t, 2, matrix.Total)

	again, err := f.service.DeleteRow(ctx, DeleteRowRequest{ItemID: 1, StartDate: "2026-04-01", Days: 30})
	require.NoError(t, err)
	assert.Equal(t, DeleteRowResult{}, again)

	_, err = f.service.DeleteRow(ctx, DeleteRowRequest{ItemID: 0})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
