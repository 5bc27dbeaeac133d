package planning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// Plan matrix limits
const (
	DefaultPlanDays     = 30
	MaxPlanDays         = 366
	DefaultPlanPageSize = 30
	MaxPlanPageSize     = 1000
)

// Plan matrix sort keys
const (
	SortByItemName    = "item_name"
	SortByItemCode    = "item_code"
	SortByItemArticle = "item_article"
	SortByMonthPlan   = "month_plan"
)

// PlanEntryInput is one plan cell as sent by clients
type PlanEntryInput struct {
	ItemID  int64           `json:"item_id"`
	Date    string          `json:"date"`
	Qty     decimal.Decimal `json:"qty"`
	StageID *int64          `json:"stage_id"`
}

// BulkUpsertResult counts the entries of a bulk upsert
type BulkUpsertResult struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}

// DeleteRowRequest removes an item's plan row from a window and drops it from the plan
type DeleteRowRequest struct {
	ItemID    int64  `json:"item_id"`
	StartDate string `json:"start_date"`
	Days      int    `json:"days"`
	StageID   *int64 `json:"stage_id"`
}

// DeleteRowResult reports what a row deletion removed
type DeleteRowResult struct {
	Deleted     int `json:"deleted"`
	RootDeleted int `json:"root_deleted"`
}

// MatrixRequest selects one page of the plan matrix
type MatrixRequest struct {
	StartDate string
	Days      int
	StageID   *int64
	Page      int
	PageSize  int
	SortBy    string
	SortDir   string
}

// PlanRow is one root product across the matrix dates
type PlanRow struct {
	ItemID      int64              `json:"item_id"`
	ItemCode    string             `json:"item_code"`
	ItemName    string             `json:"item_name"`
	ItemArticle *string            `json:"item_article"`
	MonthPlan   float64            `json:"month_plan"`
	Days        map[string]float64 `json:"days"`

	total decimal.Decimal
}

// PlanMatrix is a page of plan rows over consecutive dates
type PlanMatrix struct {
	Rows     []PlanRow `json:"rows"`
	Dates    []string  `json:"dates"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// PlanService edits the production plan of root products and renders it as a date matrix
type PlanService struct {
	catalog repositories.CatalogRepository
	roots   repositories.RootProductRepository
	plans   repositories.PlanRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewPlanService creates a plan service
func NewPlanService(
	catalog repositories.CatalogRepository,
	roots repositories.RootProductRepository,
	plans repositories.PlanRepository,
	logger *zap.Logger,
) *PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{catalog: catalog, roots: roots, plans: plans, logger: logger, now: time.Now}
}

// Upsert sets the planned quantity of one (item, date, stage) slot
func (s *PlanService) Upsert(ctx context.Context, in PlanEntryInput) error {
	stages, err := s.stageSet(ctx)
	if err != nil {
		return err
	}
	entry, err := s.entry(ctx, in, stages)
	if err != nil {
		return err
	}

	if _, err := s.plans.UpsertPlanEntries(ctx, []*entities.PlanEntry{entry}); err != nil {
		return internal("failed to save plan entry", err)
	}
	s.logger.Info("plan entry saved",
		zap.Int64("item_id", in.ItemID),
		zap.String("date", entry.Date.Format(entities.PlanDateLayout)),
		zap.String("qty", entry.PlannedQty.String()),
	)
	return nil
}

// BulkUpsert saves every valid entry in one write; invalid entries are skipped and counted
func (s *PlanService) BulkUpsert(ctx context.Context, inputs []PlanEntryInput) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(inputs) == 0 {
		return result, nil
	}
	stages, err := s.stageSet(ctx)
	if err != nil {
		return result, err
	}

	entries := make([]*entities.PlanEntry, 0, len(inputs))
	for i, in := range inputs {
		entry, err := s.entry(ctx, in, stages)
		if err != nil {
			if code := errbuilder.CodeOf(err); code != errbuilder.CodeInvalidArgument && code != errbuilder.CodeNotFound {
				return result, err
			}
			s.logger.Warn("plan entry skipped", zap.Int("index", i), zap.String("reason", errorMessage(err)))
			result.Skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return result, nil
	}

	saved, err := s.plans.UpsertPlanEntries(ctx, entries)
	if err != nil {
		return BulkUpsertResult{}, internal("failed to save plan entries", err)
	}
	result.Saved = saved
	s.logger.Info("plan entries saved", zap.Int("saved", result.Saved), zap.Int("skipped", result.Skipped))
	return result, nil
}

// DeleteRow removes the item's entries inside [start, start+days) and unregisters the item
// as a root product, so the row leaves the matrix
func (s *PlanService) DeleteRow(ctx context.Context, req DeleteRowRequest) (DeleteRowResult, error) {
	var result DeleteRowResult
	if req.ItemID <= 0 {
		return result, invalidArgument(fmt.Sprintf("item_id must be positive, got %d", req.ItemID))
	}
	from, to, err := s.window(req.StartDate, req.Days)
	if err != nil {
		return result, err
	}

	itemID := entities.ItemID(req.ItemID)
	deleted, err := s.plans.DeletePlanEntries(ctx, repositories.PlanQuery{
		ItemIDs: []entities.ItemID{itemID},
		From:    from,
		To:      to,
		StageID: stageRef(req.StageID),
	})
	if err != nil {
		return result, internal(fmt.Sprintf("failed to delete plan entries of item %d", itemID), err)
	}
	result.Deleted = deleted

	if err := s.roots.RemoveRootProduct(ctx, itemID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return result, internal("failed to remove root product", err)
		}
	} else {
		result.RootDeleted = 1
	}

	s.logger.Info("plan row deleted",
		zap.Int64("item_id", req.ItemID),
		zap.Int("deleted", result.Deleted),
		zap.Int("root_deleted", result.RootDeleted),
	)
	return result, nil
}

// Matrix returns one page of root products with their planned quantity per day.
// Days without entries are present with zero.
func (s *PlanService) Matrix(ctx context.Context, req MatrixRequest) (*PlanMatrix, error) {
	from, to, err := s.window(req.StartDate, req.Days)
	if err != nil {
		return nil, err
	}
	page, pageSize, err := pageBounds(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	sortBy, desc, err := sortOrder(req.SortBy, req.SortDir)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, int(to.Sub(from).Hours()/24))
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(entities.PlanDateLayout))
	}

	rows, err := s.rootRows(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.fillDays(ctx, rows, dates, from, to, stageRef(req.StageID)); err != nil {
		return nil, err
	}
	sortRows(rows, sortBy, desc)

	matrix := &PlanMatrix{Rows: []PlanRow{}, Dates: dates, Total: len(rows), Page: page, PageSize: pageSize}
	start := (page - 1) * pageSize
	if start < len(rows) {
		end := start + pageSize
		if end > len(rows) {
			end = len(rows)
		}
		matrix.Rows = rows[start:end]
	}
	return matrix, nil
}

func (s *PlanService) rootRows(ctx context.Context) ([]PlanRow, error) {
	products, err := s.roots.ListRootProducts(ctx)
	if err != nil {
		return nil, internal("failed to list root products", err)
	}

	rows := make([]PlanRow, 0, len(products))
	for _, p := range products {
		item, err := s.catalog.GetItem(ctx, p.ItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				s.logger.Warn("root product refers to unknown item", zap.Int64("item_id", int64(p.ItemID)))
				continue
			}
			return nil, internal(fmt.Sprintf("failed to read item %d", p.ItemID), err)
		}
		row := PlanRow{ItemID: int64(item.ID), ItemCode: item.Code, ItemName: item.Name}
		if item.Article != "" {
			article := item.Article
			row.ItemArticle = &article
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *PlanService) fillDays(ctx context.Context, rows []PlanRow, dates []string, from, to time.Time, stage *entities.StageID) error {
	if len(rows) == 0 {
		return nil
	}
	index := make(map[entities.ItemID]int, len(rows))
	ids := make([]entities.ItemID, 0, len(rows))
	for i, row := range rows {
		index[entities.ItemID(row.ItemID)] = i
		ids = append(ids, entities.ItemID(row.ItemID))
	}

	entries, err := s.plans.ListPlanEntries(ctx, repositories.PlanQuery{ItemIDs: ids, From: from, To: to, StageID: stage})
	if err != nil {
		return internal("failed to read plan entries", err)
	}

	sums := make([]map[string]decimal.Decimal, len(rows))
	for _, entry := range entries {
		i := index[entry.ItemID]
		if sums[i] == nil {
			sums[i] = make(map[string]decimal.Decimal)
		}
		day := entry.Date.Format(entities.PlanDateLayout)
		sums[i][day] = sums[i][day].Add(entry.PlannedQty)
		rows[i].total = rows[i].total.Add(entry.PlannedQty)
	}

	for i := range rows {
		rows[i].Days = make(map[string]float64, len(dates))
		for _, day := range dates {
			rows[i].Days[day] = sums[i][day].Round(3).InexactFloat64()
		}
		rows[i].MonthPlan = rows[i].total.Round(3).InexactFloat64()
	}
	return nil
}

func sortRows(rows []PlanRow, sortBy string, desc bool) {
	key := func(r PlanRow) string {
		switch sortBy {
		case SortByItemCode:
			return r.ItemCode
		case SortByItemArticle:
			if r.ItemArticle == nil {
				return ""
			}
			return *r.ItemArticle
		default:
			return r.ItemName
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if sortBy == SortByMonthPlan {
			if c := a.total.Cmp(b.total); c != 0 {
				return (c < 0) != desc
			}
		} else if ka, kb := key(a), key(b); ka != kb {
			return (ka < kb) != desc
		}
		if a.ItemCode != b.ItemCode {
			return a.ItemCode < b.ItemCode
		}
		return a.ItemID < b.ItemID
	})
}

// entry validates one input against the catalog
func (s *PlanService) entry(ctx context.Context, in PlanEntryInput, stages map[entities.StageID]struct{}) (*entities.PlanEntry, error) {
	if in.ItemID <= 0 {
		return nil, invalidArgument(fmt.Sprintf("item_id must be positive, got %d", in.ItemID))
	}
	date, err := entities.ParsePlanDate(in.Date)
	if err != nil {
		return nil, invalidArgument(err.Error())
	}
	stage := stageRef(in.StageID)
	if stage != nil {
		if _, ok := stages[*stage]; !ok {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("stage %d not found", *stage))
		}
	}

	if _, err := s.catalog.GetItem(ctx, entities.ItemID(in.ItemID)); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("item %d not found", in.ItemID)).
				WithCause(err)
		}
		return nil, internal(fmt.Sprintf("failed to read item %d", in.ItemID), err)
	}

	entry, err := entities.NewPlanEntry(entities.ItemID(in.ItemID), stage, date, in.Qty)
	if err != nil {
		return nil, invalidArgument(err.Error())
	}
	return entry, nil
}

func (s *PlanService) stageSet(ctx context.Context) (map[entities.StageID]struct{}, error) {
	stages, err := s.catalog.ListStages(ctx)
	if err != nil {
		return nil, internal("failed to list stages", err)
	}
	set := make(map[entities.StageID]struct{}, len(stages))
	for _, st := range stages {
		set[st.ID] = struct{}{}
	}
	return set, nil
}

// window turns a start date and a day count into [from, to); a blank start means today
func (s *PlanService) window(startDate string, days int) (time.Time, time.Time, error) {
	from := entities.PlanDay(s.now())
	if strings.TrimSpace(startDate) != "" {
		parsed, err := entities.ParsePlanDate(startDate)
		if err != nil {
			return time.Time{}, time.Time{}, invalidArgument(err.Error())
		}
		from = parsed
	}

	if days == 0 {
		days = DefaultPlanDays
	}
	if days < 1 || days > MaxPlanDays {
		return time.Time{}, time.Time{}, invalidArgument(fmt.Sprintf("days must be between 1 and %d", MaxPlanDays))
	}
	return from, from.AddDate(0, 0, days), nil
}

func pageBounds(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPlanPageSize
	}
	if page < 1 {
		return 0, 0, invalidArgument(fmt.Sprintf("page must be positive, got %d", page))
	}
	if pageSize < 1 || pageSize > MaxPlanPageSize {
		return 0, 0, invalidArgument(fmt.Sprintf("page_size must be between 1 and %d", MaxPlanPageSize))
	}
	return page, pageSize, nil
}

func sortOrder(sortBy, sortDir string) (string, bool, error) {
	by := strings.ToLower(strings.TrimSpace(sortBy))
	switch by {
	case "":
		by = SortByItemName
	case SortByItemName, SortByItemCode, SortByItemArticle, SortByMonthPlan:
	default:
		return "", false, invalidArgument(fmt.Sprintf("unsupported sort_by %q", sortBy))
	}

	switch strings.ToLower(strings.TrimSpace(sortDir)) {
	case "", "asc":
		return by, false, nil
	case "desc":
		return by, true, nil
	default:
		return "", false, invalidArgument(fmt.Sprintf("unsupported sort_dir %q", sortDir))
	}
}

func stageRef(id *int64) *entities.StageID {
	if id == nil {
		return nil
	}
	stage := entities.StageID(*id)
	return &stage
}

func invalidArgument(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
}

func errorMessage(err error) string {
	var eb *errbuilder.ErrBuilder
	if errors.As(err, &eb) && eb.Msg != "" {
		return eb.Msg
	}
	return err.Error()
}
