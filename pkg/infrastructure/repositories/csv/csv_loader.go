package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// Scenario file names inside a scenario directory
const (
	ItemsFile          = "items.csv"
	StagesFile         = "stages.csv"
	SpecificationsFile = "specifications.csv"
	ComponentsFile     = "spec_components.csv"
	SpecOperationsFile = "spec_operations.csv"
	OperationsFile     = "operations.csv"
	DefaultSpecsFile   = "default_specs.csv"
	RootProductsFile   = "root_products.csv"
	PlanEntriesFile    = "plan_entries.csv"
)

var (
	itemsHeader          = []string{"item_id", "code", "name", "article", "unit", "replenishment_method", "stock_qty"}
	stagesHeader         = []string{"stage_id", "name", "order"}
	specificationsHeader = []string{"spec_id", "code", "name", "owner_item_id"}
	componentsHeader     = []string{"id", "spec_id", "child_item_id", "qty_per_parent", "stage_id", "component_type"}
	specOperationsHeader = []string{"id", "spec_id", "operation_id", "operation_name", "time_norm", "stage_id"}
	operationsHeader     = []string{"operation_id", "name", "time_norm"}
	defaultSpecsHeader   = []string{"id", "item_id", "characteristic", "spec_id"}
	rootProductsHeader   = []string{"item_code"}
	planEntriesHeader    = []string{"item_code", "date", "stage_id", "planned_qty"}
)

// Scenario is the full content of a scenario directory
type Scenario struct {
	Items            []*entities.Item
	Stages           []*entities.ProductionStage
	Specifications   []*entities.Specification
	Components       []*entities.SpecComponent
	Operations       []*entities.SpecOperation
	DefaultSpecs     []*entities.DefaultSpecification
	RootProductCodes []string
	Plan             []PlanLine
}

// PlanLine is a plan entry keyed by item code, resolved against the catalog on apply
type PlanLine struct {
	ItemCode   string
	Date       time.Time
	StageID    *entities.StageID
	PlannedQty decimal.Decimal
}

// Loader handles loading catalog data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario reads every scenario file in dir.
// operations.csv, root_products.csv and plan_entries.csv are optional.
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	var (
		s   Scenario
		err error
	)

	if s.Items, err = l.LoadItems(filepath.Join(dir, ItemsFile)); err != nil {
		return nil, err
	}
	if s.Stages, err = l.LoadStages(filepath.Join(dir, StagesFile)); err != nil {
		return nil, err
	}
	if s.Specifications, err = l.LoadSpecifications(filepath.Join(dir, SpecificationsFile)); err != nil {
		return nil, err
	}
	if s.Components, err = l.LoadComponents(filepath.Join(dir, ComponentsFile)); err != nil {
		return nil, err
	}

	var catalog map[entities.OperationID]operationNorm
	if path := filepath.Join(dir, OperationsFile); fileExists(path) {
		if catalog, err = l.loadOperationCatalog(path); err != nil {
			return nil, err
		}
	}
	if s.Operations, err = l.LoadSpecOperations(filepath.Join(dir, SpecOperationsFile), catalog); err != nil {
		return nil, err
	}
	if s.DefaultSpecs, err = l.LoadDefaultSpecs(filepath.Join(dir, DefaultSpecsFile)); err != nil {
		return nil, err
	}
	if path := filepath.Join(dir, RootProductsFile); fileExists(path) {
		if s.RootProductCodes, err = l.LoadRootProductCodes(path); err != nil {
			return nil, err
		}
	}
	if path := filepath.Join(dir, PlanEntriesFile); fileExists(path) {
		if s.Plan, err = l.LoadPlanLines(path); err != nil {
			return nil, err
		}
	}

	return &s, nil
}

// Apply pushes a scenario into a catalog loader
func (s *Scenario) Apply(ctx context.Context, target repositories.CatalogLoader) error {
	if err := target.LoadItems(ctx, s.Items); err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	if err := target.LoadStages(ctx, s.Stages); err != nil {
		return fmt.Errorf("failed to load stages: %w", err)
	}
	if err := target.LoadSpecifications(ctx, s.Specifications); err != nil {
		return fmt.Errorf("failed to load specifications: %w", err)
	}
	if err := target.LoadComponents(ctx, s.Components); err != nil {
		return fmt.Errorf("failed to load components: %w", err)
	}
	if err := target.LoadOperations(ctx, s.Operations); err != nil {
		return fmt.Errorf("failed to load operations: %w", err)
	}
	if err := target.LoadDefaultSpecs(ctx, s.DefaultSpecs); err != nil {
		return fmt.Errorf("failed to load default specs: %w", err)
	}
	return nil
}

// LoadItems loads items from a CSV file
func (l *Loader) LoadItems(filename string) ([]*entities.Item, error) {
	records, err := readTable(filename, "items", itemsHeader)
	if err != nil {
		return nil, err
	}

	items := make([]*entities.Item, 0, len(records))
	for i, record := range records {
		item, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadStages loads production stages from a CSV file
func (l *Loader) LoadStages(filename string) ([]*entities.ProductionStage, error) {
	records, err := readTable(filename, "stages", stagesHeader)
	if err != nil {
		return nil, err
	}

	stages := make([]*entities.ProductionStage, 0, len(records))
	for i, record := range records {
		id, err := parseID(record[0], "stage_id")
		if err != nil {
			return nil, fmt.Errorf("stages CSV row %d: %w", i+2, err)
		}
		order, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("stages CSV row %d: invalid order: %s", i+2, record[2])
		}
		stages = append(stages, &entities.ProductionStage{
			ID:    entities.StageID(id),
			Name:  strings.TrimSpace(record[1]),
			Order: order,
		})
	}
	return stages, nil
}

// LoadSpecifications loads specifications from a CSV file
func (l *Loader) LoadSpecifications(filename string) ([]*entities.Specification, error) {
	records, err := readTable(filename, "specifications", specificationsHeader)
	if err != nil {
		return nil, err
	}

	specs := make([]*entities.Specification, 0, len(records))
	for i, record := range records {
		id, err := parseID(record[0], "spec_id")
		if err != nil {
			return nil, fmt.Errorf("specifications CSV row %d: %w", i+2, err)
		}
		owner, err := parseOptionalID(record[3], "owner_item_id")
		if err != nil {
			return nil, fmt.Errorf("specifications CSV row %d: %w", i+2, err)
		}
		var ownerID *entities.ItemID
		if owner != nil {
			v := entities.ItemID(*owner)
			ownerID = &v
		}
		spec, err := entities.NewSpecification(entities.SpecID(id), record[1], record[2], ownerID)
		if err != nil {
			return nil, fmt.Errorf("specifications CSV row %d: %w", i+2, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// LoadComponents loads specification component lines from a CSV file
func (l *Loader) LoadComponents(filename string) ([]*entities.SpecComponent, error) {
	records, err := readTable(filename, "components", componentsHeader)
	if err != nil {
		return nil, err
	}

	components := make([]*entities.SpecComponent, 0, len(records))
	for i, record := range records {
		comp, err := parseComponent(record)
		if err != nil {
			return nil, fmt.Errorf("components CSV row %d: %w", i+2, err)
		}
		components = append(components, comp)
	}
	return components, nil
}

type operationNorm struct {
	name     string
	timeNorm decimal.Decimal
}

func (l *Loader) loadOperationCatalog(filename string) (map[entities.OperationID]operationNorm, error) {
	records, err := readTable(filename, "operations", operationsHeader)
	if err != nil {
		return nil, err
	}

	catalog := make(map[entities.OperationID]operationNorm, len(records))
	for i, record := range records {
		id, err := parseID(record[0], "operation_id")
		if err != nil {
			return nil, fmt.Errorf("operations CSV row %d: %w", i+2, err)
		}
		norm, err := parseDecimal(record[2], "time_norm")
		if err != nil {
			return nil, fmt.Errorf("operations CSV row %d: %w", i+2, err)
		}
		catalog[entities.OperationID(id)] = operationNorm{name: strings.TrimSpace(record[1]), timeNorm: norm}
	}
	return catalog, nil
}

// LoadSpecOperations loads specification operation lines from a CSV file.
// Lines without a positive time norm or name take them from the operations catalog when one is given.
func (l *Loader) LoadSpecOperations(filename string, catalog map[entities.OperationID]operationNorm) ([]*entities.SpecOperation, error) {
	records, err := readTable(filename, "spec operations", specOperationsHeader)
	if err != nil {
		return nil, err
	}

	operations := make([]*entities.SpecOperation, 0, len(records))
	for i, record := range records {
		op, err := parseSpecOperation(record, catalog)
		if err != nil {
			return nil, fmt.Errorf("spec operations CSV row %d: %w", i+2, err)
		}
		operations = append(operations, op)
	}
	return operations, nil
}

// LoadDefaultSpecs loads default specification mappings from a CSV file
func (l *Loader) LoadDefaultSpecs(filename string) ([]*entities.DefaultSpecification, error) {
	records, err := readTable(filename, "default specs", defaultSpecsHeader)
	if err != nil {
		return nil, err
	}

	defaults := make([]*entities.DefaultSpecification, 0, len(records))
	for i, record := range records {
		id, err := parseID(record[0], "id")
		if err != nil {
			return nil, fmt.Errorf("default specs CSV row %d: %w", i+2, err)
		}
		itemID, err := parseID(record[1], "item_id")
		if err != nil {
			return nil, fmt.Errorf("default specs CSV row %d: %w", i+2, err)
		}
		specID, err := parseID(record[3], "spec_id")
		if err != nil {
			return nil, fmt.Errorf("default specs CSV row %d: %w", i+2, err)
		}
		defaults = append(defaults, &entities.DefaultSpecification{
			ID:             id,
			ItemID:         entities.ItemID(itemID),
			Characteristic: strings.TrimSpace(record[2]),
			SpecID:         entities.SpecID(specID),
		})
	}
	return defaults, nil
}

// LoadRootProductCodes loads the item codes of root products from a CSV file
func (l *Loader) LoadRootProductCodes(filename string) ([]string, error) {
	records, err := readTable(filename, "root products", rootProductsHeader)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(records))
	for _, record := range records {
		if code := strings.TrimSpace(record[0]); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// LoadPlanLines loads production plan entries from a CSV file
func (l *Loader) LoadPlanLines(filename string) ([]PlanLine, error) {
	records, err := readTable(filename, "plan entries", planEntriesHeader)
	if err != nil {
		return nil, err
	}

	lines := make([]PlanLine, 0, len(records))
	for i, record := range records {
		code := strings.TrimSpace(record[0])
		if code == "" {
			return nil, fmt.Errorf("plan entries CSV row %d: item_code is required", i+2)
		}
		date, err := entities.ParsePlanDate(record[1])
		if err != nil {
			return nil, fmt.Errorf("plan entries CSV row %d: %w", i+2, err)
		}
		stage, err := parseStage(record[2])
		if err != nil {
			return nil, fmt.Errorf("plan entries CSV row %d: %w", i+2, err)
		}
		qty, err := parseDecimal(record[3], "planned_qty")
		if err != nil {
			return nil, fmt.Errorf("plan entries CSV row %d: %w", i+2, err)
		}
		lines = append(lines, PlanLine{ItemCode: code, Date: date, StageID: stage, PlannedQty: qty})
	}
	return lines, nil
}

// ApplyPlan resolves the plan lines against catalog and upserts them into plans
func (s *Scenario) ApplyPlan(ctx context.Context, catalog repositories.CatalogRepository, plans repositories.PlanRepository) (int, error) {
	if len(s.Plan) == 0 {
		return 0, nil
	}

	entries := make([]*entities.PlanEntry, 0, len(s.Plan))
	for _, line := range s.Plan {
		item, err := catalog.GetItemByCode(ctx, line.ItemCode)
		if err != nil {
			return 0, fmt.Errorf("plan entry for %q: %w", line.ItemCode, err)
		}
		entry, err := entities.NewPlanEntry(item.ID, line.StageID, line.Date, line.PlannedQty)
		if err != nil {
			return 0, fmt.Errorf("plan entry for %q: %w", line.ItemCode, err)
		}
		entries = append(entries, entry)
	}

	saved, err := plans.UpsertPlanEntries(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("failed to load plan entries: %w", err)
	}
	return saved, nil
}

// Helper functions for parsing CSV records

func readTable(filename, label string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", label, filename, err)
	}
	defer file.Close()

	return readRecords(file, label, expectedHeader)
}

func readRecords(r io.Reader, label string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", label, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", label)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", label, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", label, i+2, len(expectedHeader), len(record))
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		name := strings.TrimPrefix(actual[i], "\ufeff")
		if strings.ToLower(strings.TrimSpace(name)) != col {
			return false
		}
	}

	return true
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func parseID(s, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	return id, nil
}

func parseOptionalID(s, field string) (*int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := parseID(s, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseDecimal(s, field string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", field, s)
	}
	return d, nil
}

func parseStage(s string) (*entities.StageID, error) {
	id, err := parseOptionalID(s, "stage_id")
	if err != nil || id == nil {
		return nil, err
	}
	stage := entities.StageID(*id)
	return &stage, nil
}

func parseItem(record []string) (*entities.Item, error) {
	id, err := parseID(record[0], "item_id")
	if err != nil {
		return nil, err
	}
	stock, err := parseDecimal(record[6], "stock_qty")
	if err != nil {
		return nil, err
	}

	item, err := entities.NewItem(
		entities.ItemID(id),
		strings.TrimSpace(record[1]),
		strings.TrimSpace(record[2]),
		strings.TrimSpace(record[4]),
		entities.ParseReplenishmentMethod(record[5]),
		stock,
	)
	if err != nil {
		return nil, err
	}
	item.Article = strings.TrimSpace(record[3])
	return item, nil
}

func parseComponent(record []string) (*entities.SpecComponent, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, err
	}
	specID, err := parseID(record[1], "spec_id")
	if err != nil {
		return nil, err
	}
	childID, err := parseID(record[2], "child_item_id")
	if err != nil {
		return nil, err
	}
	qty, err := parseDecimal(record[3], "qty_per_parent")
	if err != nil {
		return nil, err
	}
	stage, err := parseStage(record[4])
	if err != nil {
		return nil, err
	}

	return entities.NewSpecComponent(id, entities.SpecID(specID), entities.ItemID(childID), qty, stage, strings.TrimSpace(record[5]))
}

func parseSpecOperation(record []string, catalog map[entities.OperationID]operationNorm) (*entities.SpecOperation, error) {
	id, err := parseID(record[0], "id")
	if err != nil {
		return nil, err
	}
	specID, err := parseID(record[1], "spec_id")
	if err != nil {
		return nil, err
	}
	opID, err := parseID(record[2], "operation_id")
	if err != nil {
		return nil, err
	}
	norm, err := parseDecimal(record[4], "time_norm")
	if err != nil {
		return nil, err
	}
	stage, err := parseStage(record[5])
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(record[3])
	if ref, ok := catalog[entities.OperationID(opID)]; ok {
		norm = entities.EffectiveTimeNorm(norm, ref.timeNorm)
		if name == "" {
			name = ref.name
		}
	}

	return entities.NewSpecOperation(id, entities.SpecID(specID), entities.OperationID(opID), name, norm, stage)
}
