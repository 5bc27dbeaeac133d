package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// ItemModel is the items table
type ItemModel struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement:false"`
	Code                string          `gorm:"size:64;not null;uniqueIndex"`
	Name                string          `gorm:"size:255;not null;index"`
	Article             string          `gorm:"size:128"`
	Unit                string          `gorm:"size:32"`
	ReplenishmentMethod string          `gorm:"size:32;not null;default:Unknown"`
	StockQty            decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	UpdatedAt           time.Time
}

func (ItemModel) TableName() string {
	return "items"
}

// StageModel is the production_stages table
type StageModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255"`
	SortOrder int    `gorm:"not null"`
}

func (StageModel) TableName() string {
	return "production_stages"
}

// SpecificationModel is the specifications table
type SpecificationModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	Code        string `gorm:"size:64;index"`
	Name        string `gorm:"size:255;index"`
	OwnerItemID *int64 `gorm:"index"`
}

func (SpecificationModel) TableName() string {
	return "specifications"
}

// SpecComponentModel is the spec_components table
type SpecComponentModel struct {
	ID            int64           `gorm:"primaryKey;autoIncrement:false"`
	SpecID        int64           `gorm:"not null;index"`
	ChildItemID   int64           `gorm:"not null;index"`
	QtyPerParent  decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	StageID       *int64
	ComponentType string `gorm:"size:64"`
}

func (SpecComponentModel) TableName() string {
	return "spec_components"
}

// SpecOperationModel is the spec_operations table
type SpecOperationModel struct {
	ID            int64           `gorm:"primaryKey;autoIncrement:false"`
	SpecID        int64           `gorm:"not null;index"`
	OperationID   int64           `gorm:"not null"`
	OperationName string          `gorm:"size:255"`
	TimeNorm      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	StageID       *int64
}

func (SpecOperationModel) TableName() string {
	return "spec_operations"
}

// DefaultSpecModel is the default_specifications table
type DefaultSpecModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement:false"`
	ItemID         int64  `gorm:"not null;index:idx_default_spec_item_char"`
	Characteristic string `gorm:"size:128;not null;index:idx_default_spec_item_char"`
	SpecID         int64  `gorm:"not null"`
}

func (DefaultSpecModel) TableName() string {
	return "default_specifications"
}

// RootProductModel is the root_products table
type RootProductModel struct {
	ID        int64 `gorm:"primaryKey"`
	ItemID    int64 `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}

func (RootProductModel) TableName() string {
	return "root_products"
}

// PlanEntryModel is the production_plan_entries table
type PlanEntryModel struct {
	ID           int64           `gorm:"primaryKey"`
	ItemID       int64           `gorm:"not null;index:idx_plan_item_date"`
	StageID      *int64          `gorm:"index"`
	PlanDate     time.Time       `gorm:"not null;index:idx_plan_item_date"`
	PlannedQty   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	CompletedQty decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Status       string          `gorm:"size:20;not null;default:GREEN"`
	Notes        string          `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PlanEntryModel) TableName() string {
	return "production_plan_entries"
}

// AllModels lists every table managed by Migrate
func AllModels() []interface{} {
	return []interface{}{
		&ItemModel{},
		&StageModel{},
		&SpecificationModel{},
		&SpecComponentModel{},
		&SpecOperationModel{},
		&DefaultSpecModel{},
		&RootProductModel{},
		&PlanEntryModel{},
	}
}

func stagePtr(id *int64) *entities.StageID {
	if id == nil {
		return nil
	}
	s := entities.StageID(*id)
	return &s
}

func stageColumn(id *entities.StageID) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}

func (m *ItemModel) toEntity() *entities.Item {
	return &entities.Item{
		ID:                  entities.ItemID(m.ID),
		Code:                m.Code,
		Name:                m.Name,
		Article:             m.Article,
		Unit:                m.Unit,
		ReplenishmentMethod: entities.ParseReplenishmentMethod(m.ReplenishmentMethod),
		StockQty:            m.StockQty,
	}
}

func itemModel(item *entities.Item) ItemModel {
	return ItemModel{
		ID:                  int64(item.ID),
		Code:                item.Code,
		Name:                item.Name,
		Article:             item.Article,
		Unit:                item.Unit,
		ReplenishmentMethod: item.ReplenishmentMethod.String(),
		StockQty:            item.StockQty,
	}
}

func (m *SpecificationModel) toEntity() *entities.Specification {
	spec := &entities.Specification{ID: entities.SpecID(m.ID), Code: m.Code, Name: m.Name}
	if m.OwnerItemID != nil {
		owner := entities.ItemID(*m.OwnerItemID)
		spec.OwnerItemID = &owner
	}
	return spec
}

func (m *SpecComponentModel) toEntity() *entities.SpecComponent {
	return &entities.SpecComponent{
		ID:            m.ID,
		SpecID:        entities.SpecID(m.SpecID),
		ChildItemID:   entities.ItemID(m.ChildItemID),
		QtyPerParent:  m.QtyPerParent,
		StageID:       stagePtr(m.StageID),
		ComponentType: m.ComponentType,
	}
}

func (m *SpecOperationModel) toEntity() *entities.SpecOperation {
	return &entities.SpecOperation{
		ID:            m.ID,
		SpecID:        entities.SpecID(m.SpecID),
		OperationID:   entities.OperationID(m.OperationID),
		OperationName: m.OperationName,
		TimeNorm:      m.TimeNorm,
		StageID:       stagePtr(m.StageID),
	}
}

func (m *PlanEntryModel) toEntity() *entities.PlanEntry {
	return &entities.PlanEntry{
		ID:           m.ID,
		ItemID:       entities.ItemID(m.ItemID),
		StageID:      stagePtr(m.StageID),
		Date:         entities.PlanDay(m.PlanDate),
		PlannedQty:   m.PlannedQty,
		CompletedQty: m.CompletedQty,
		Status:       entities.PlanStatus(m.Status),
		Notes:        m.Notes,
	}
}

func planEntryModel(entry *entities.PlanEntry) PlanEntryModel {
	status := string(entry.Status)
	if status == "" {
		status = string(entities.PlanGreen)
	}
	return PlanEntryModel{
		ItemID:       int64(entry.ItemID),
		StageID:      stageColumn(entry.StageID),
		PlanDate:     entities.PlanDay(entry.Date),
		PlannedQty:   entry.PlannedQty,
		CompletedQty: entry.CompletedQty,
		Status:       status,
		Notes:        entry.Notes,
	}
}
