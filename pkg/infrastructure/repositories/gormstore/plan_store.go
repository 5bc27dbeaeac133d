package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// PlanStore keeps the production plan
type PlanStore struct {
	db *gorm.DB
}

// NewPlanStore creates a plan store over db
func NewPlanStore(db *gorm.DB) *PlanStore {
	return &PlanStore{db: db}
}

var _ repositories.PlanRepository = (*PlanStore)(nil)

// UpsertPlanEntries updates the planned quantity of existing slots and inserts the rest in one transaction.
// A NULL stage is matched with IS NULL, so unstaged slots upsert like staged ones.
func (s *PlanStore) UpsertPlanEntries(ctx context.Context, entries []*entities.PlanEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			row := planEntryModel(entry)
			update := tx.Model(&PlanEntryModel{}).
				Where("item_id = ? AND plan_date = ?", row.ItemID, row.PlanDate)
			if row.StageID == nil {
				update = update.Where("stage_id IS NULL")
			} else {
				update = update.Where("stage_id = ?", *row.StageID)
			}

			result := update.Updates(map[string]interface{}{"planned_qty": row.PlannedQty})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				continue
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ListPlanEntries returns matching entries ordered by item, date, then id
func (s *PlanStore) ListPlanEntries(ctx context.Context, q repositories.PlanQuery) ([]*entities.PlanEntry, error) {
	var rows []PlanEntryModel
	err := planScope(s.db.WithContext(ctx), q).
		Order("item_id ASC").Order("plan_date ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*entities.PlanEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toEntity())
	}
	return entries, nil
}

// DeletePlanEntries removes matching entries
func (s *PlanStore) DeletePlanEntries(ctx context.Context, q repositories.PlanQuery) (int, error) {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	result := planScope(tx, q).Delete(&PlanEntryModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func planScope(tx *gorm.DB, q repositories.PlanQuery) *gorm.DB {
	if len(q.ItemIDs) > 0 {
		ids := make([]int64, 0, len(q.ItemIDs))
		for _, id := range q.ItemIDs {
			ids = append(ids, int64(id))
		}
		tx = tx.Where("item_id IN ?", ids)
	}
	if !q.From.IsZero() {
		tx = tx.Where("plan_date >= ?", entities.PlanDay(q.From))
	}
	if !q.To.IsZero() {
		tx = tx.Where("plan_date < ?", entities.PlanDay(q.To))
	}
	if q.StageID != nil {
		tx = tx.Where("stage_id = ?", int64(*q.StageID))
	}
	return tx
}
