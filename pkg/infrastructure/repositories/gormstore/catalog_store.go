package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

const loadBatchSize = 500

// CatalogStore is the relational catalog
type CatalogStore struct {
	db *gorm.DB
}

// NewCatalogStore creates a catalog store over db
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

var (
	_ repositories.CatalogRepository = (*CatalogStore)(nil)
	_ repositories.CatalogLoader     = (*CatalogStore)(nil)
	_ repositories.SpecGraphSource   = (*CatalogStore)(nil)
)

// upsert inserts rows in batches, replacing rows with the same primary key
func upsert[T any](ctx context.Context, db *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, loadBatchSize).Error
}

// LoadItems upserts items by id
func (s *CatalogStore) LoadItems(ctx context.Context, items []*entities.Item) error {
	rows := make([]ItemModel, 0, len(items))
	for _, item := range items {
		rows = append(rows, itemModel(item))
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	return nil
}

// LoadStages upserts production stages by id
func (s *CatalogStore) LoadStages(ctx context.Context, stages []*entities.ProductionStage) error {
	rows := make([]StageModel, 0, len(stages))
	for _, st := range stages {
		rows = append(rows, StageModel{ID: int64(st.ID), Name: st.Name, SortOrder: st.Order})
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("failed to load stages: %w", err)
	}
	return nil
}

// LoadSpecifications upserts specifications by id
func (s *CatalogStore) LoadSpecifications(ctx context.Context, specs []*entities.Specification) error {
	rows := make([]SpecificationModel, 0, len(specs))
	for _, spec := range specs {
		row := SpecificationModel{ID: int64(spec.ID), Code: spec.Code, Name: spec.Name}
		if spec.OwnerItemID != nil {
			owner := int64(*spec.OwnerItemID)
			row.OwnerItemID = &owner
		}
		rows = append(rows, row)
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("failed to load specifications: %w", err)
	}
	return nil
}

// LoadComponents upserts component lines by line id
func (s *CatalogStore) LoadComponents(ctx context.Context, components []*entities.SpecComponent) error {
	rows := make([]SpecComponentModel, 0, len(components))
	for _, c := range components {
		rows = append(rows, SpecComponentModel{
			ID:            c.ID,
			SpecID:        int64(c.SpecID),
			ChildItemID:   int64(c.ChildItemID),
			QtyPerParent:  c.QtyPerParent,
			StageID:       stageColumn(c.StageID),
			ComponentType: c.ComponentType,
		})
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("failed to load spec components: %w", err)
	}
	return nil
}

// LoadOperations upserts operation lines by line id
func (s *CatalogStore) LoadOperations(ctx context.Context, operations []*entities.SpecOperation) error {
	rows := make([]SpecOperationModel, 0, len(operations))
	for _, op := range operations {
		rows = append(rows, SpecOperationModel{
			ID:            op.ID,
			SpecID:        int64(op.SpecID),
			OperationID:   int64(op.OperationID),
			OperationName: op.OperationName,
			TimeNorm:      op.TimeNorm,
			StageID:       stageColumn(op.StageID),
		})
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("failed to load spec operations: %w", err)
	}
	return nil
}

// LoadDefaultSpecs upserts default specification mappings by row id
func (s *CatalogStore) LoadDefaultSpecs(ctx context.Context, defaults []*entities.DefaultSpecification) error {
	rows := make([]DefaultSpecModel, 0, len(defaults))
	for _, d := range defaults {
		rows = append(rows, DefaultSpecModel{
			ID:             d.ID,
			ItemID:         int64(d.ItemID),
			Characteristic: d.Characteristic,
			SpecID:         int64(d.SpecID),
		})
	}
	if err := upsert(ctx, s.db, rows); err != nil {
		return fmt.Errorf("failed to load default specifications: %w", err)
	}
	return nil
}

// GetItem returns an item by id
func (s *CatalogStore) GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	var row ItemModel
	err := s.db.WithContext(ctx).Where("id = ?", int64(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d: %w", id, repositories.ErrNotFound)
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// GetItemByCode returns an item by its external code
func (s *CatalogStore) GetItemByCode(ctx context.Context, code string) (*entities.Item, error) {
	var row ItemModel
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %q: %w", code, repositories.ErrNotFound)
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// ListItems returns all items ordered by code
func (s *CatalogStore) ListItems(ctx context.Context) ([]*entities.Item, error) {
	var rows []ItemModel
	if err := s.db.WithContext(ctx).Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toEntity())
	}
	return items, nil
}

// GetDefaultSpec returns the lowest-id mapping for (item, characteristic)
func (s *CatalogStore) GetDefaultSpec(ctx context.Context, itemID entities.ItemID, characteristic string) (entities.SpecID, bool, error) {
	var rows []DefaultSpecModel
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND characteristic = ?", int64(itemID), characteristic).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return entities.SpecID(rows[0].SpecID), true, nil
}

// FindSpecByCodeOrName returns the highest spec id matching code or name; blank keys never match
func (s *CatalogStore) FindSpecByCodeOrName(ctx context.Context, code, name string) (entities.SpecID, bool, error) {
	query := s.db.WithContext(ctx).Model(&SpecificationModel{})
	switch {
	case code != "" && name != "":
		query = query.Where("code = ? OR name = ?", code, name)
	case code != "":
		query = query.Where("code = ?", code)
	case name != "":
		query = query.Where("name = ?", name)
	default:
		return 0, false, nil
	}

	var rows []SpecificationModel
	if err := query.Order("id DESC").Limit(1).Find(&rows).Error; err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return entities.SpecID(rows[0].ID), true, nil
}

// GetSpecification returns a specification by id
func (s *CatalogStore) GetSpecification(ctx context.Context, id entities.SpecID) (*entities.Specification, error) {
	var row SpecificationModel
	err := s.db.WithContext(ctx).Where("id = ?", int64(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("specification %d: %w", id, repositories.ErrNotFound)
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// GetComponents returns the component lines of a specification ordered by line id
func (s *CatalogStore) GetComponents(ctx context.Context, specID entities.SpecID) ([]*entities.SpecComponent, error) {
	var rows []SpecComponentModel
	err := s.db.WithContext(ctx).
		Where("spec_id = ?", int64(specID)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	lines := make([]*entities.SpecComponent, 0, len(rows))
	for i := range rows {
		lines = append(lines, rows[i].toEntity())
	}
	return lines, nil
}

// GetOperations returns the operation lines of a specification ordered by line id
func (s *CatalogStore) GetOperations(ctx context.Context, specID entities.SpecID) ([]*entities.SpecOperation, error) {
	var rows []SpecOperationModel
	err := s.db.WithContext(ctx).
		Where("spec_id = ?", int64(specID)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	lines := make([]*entities.SpecOperation, 0, len(rows))
	for i := range rows {
		lines = append(lines, rows[i].toEntity())
	}
	return lines, nil
}

// ListStages returns all production stages ordered by stage order
func (s *CatalogStore) ListStages(ctx context.Context) ([]*entities.ProductionStage, error) {
	var rows []StageModel
	if err := s.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	stages := make([]*entities.ProductionStage, 0, len(rows))
	for _, row := range rows {
		stages = append(stages, &entities.ProductionStage{ID: entities.StageID(row.ID), Name: row.Name, Order: row.SortOrder})
	}
	return stages, nil
}

// ListSpecifications returns every specification ordered by id
func (s *CatalogStore) ListSpecifications(ctx context.Context) ([]*entities.Specification, error) {
	var rows []SpecificationModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	specs := make([]*entities.Specification, 0, len(rows))
	for i := range rows {
		specs = append(specs, rows[i].toEntity())
	}
	return specs, nil
}

// ListAllComponents returns every component line ordered by spec, then line id
func (s *CatalogStore) ListAllComponents(ctx context.Context) ([]*entities.SpecComponent, error) {
	var rows []SpecComponentModel
	if err := s.db.WithContext(ctx).Order("spec_id ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]*entities.SpecComponent, 0, len(rows))
	for i := range rows {
		lines = append(lines, rows[i].toEntity())
	}
	return lines, nil
}

// ListDefaultSpecs returns every default mapping ordered by row id
func (s *CatalogStore) ListDefaultSpecs(ctx context.Context) ([]*entities.DefaultSpecification, error) {
	var rows []DefaultSpecModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	defaults := make([]*entities.DefaultSpecification, 0, len(rows))
	for _, row := range rows {
		defaults = append(defaults, &entities.DefaultSpecification{
			ID:             row.ID,
			ItemID:         entities.ItemID(row.ItemID),
			Characteristic: row.Characteristic,
			SpecID:         entities.SpecID(row.SpecID),
		})
	}
	return defaults, nil
}
