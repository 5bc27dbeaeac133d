package repositories

import (
	"context"
	"time"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// PlanQuery selects plan entries with From <= date < To.
// Zero bounds, an empty ItemIDs list and a nil StageID do not filter.
type PlanQuery struct {
	ItemIDs []entities.ItemID
	From    time.Time
	To      time.Time
	StageID *entities.StageID
}

// Matches reports whether entry falls inside the query
func (q PlanQuery) Matches(entry *entities.PlanEntry) bool {
	if len(q.ItemIDs) > 0 {
		found := false
		for _, id := range q.ItemIDs {
			if id == entry.ItemID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !q.From.IsZero() && entry.Date.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !entry.Date.Before(q.To) {
		return false
	}
	if q.StageID != nil && (entry.StageID == nil || *entry.StageID != *q.StageID) {
		return false
	}
	return true
}

// PlanRepository stores the production plan
type PlanRepository interface {
	// UpsertPlanEntries sets the planned quantity of each (item, date, stage) slot, inserting
	// missing slots. All entries are written or none; the count of written entries is returned.
	UpsertPlanEntries(ctx context.Context, entries []*entities.PlanEntry) (int, error)
	// ListPlanEntries returns matching entries ordered by item, date, then id
	ListPlanEntries(ctx context.Context, q PlanQuery) ([]*entities.PlanEntry, error)
	// DeletePlanEntries removes matching entries and returns how many were removed
	DeletePlanEntries(ctx context.Context, q PlanQuery) (int, error)
}
