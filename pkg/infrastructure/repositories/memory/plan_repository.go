package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// PlanRepository provides in-memory production plan storage
type PlanRepository struct {
	mu      sync.RWMutex
	entries []*entities.PlanEntry
	nextID  int64
}

// NewPlanRepository creates an empty plan repository
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{nextID: 1}
}

// Verify interface compliance
var _ repositories.PlanRepository = (*PlanRepository)(nil)

// UpsertPlanEntries sets the planned quantity of each slot, inserting missing slots
func (r *PlanRepository) UpsertPlanEntries(_ context.Context, entries []*entities.PlanEntry) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		if existing := r.find(entry); existing != nil {
			existing.PlannedQty = entry.PlannedQty
			continue
		}
		stored := *entry
		stored.ID = r.nextID
		if entry.StageID != nil {
			stage := *entry.StageID
			stored.StageID = &stage
		}
		if stored.Status == "" {
			stored.Status = entities.PlanGreen
		}
		r.nextID++
		r.entries = append(r.entries, &stored)
	}
	return len(entries), nil
}

// ListPlanEntries returns copies of matching entries ordered by item, date, then id
func (r *PlanRepository) ListPlanEntries(_ context.Context, q repositories.PlanQuery) ([]*entities.PlanEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.PlanEntry
	for _, entry := range r.entries {
		if q.Matches(entry) {
			e := *entry
			result = append(result, &e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})
	return result, nil
}

// DeletePlanEntries removes matching entries
func (r *PlanRepository) DeletePlanEntries(_ context.Context, q repositories.PlanQuery) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	deleted := 0
	for _, entry := range r.entries {
		if q.Matches(entry) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	r.entries = kept
	return deleted, nil
}

func (r *PlanRepository) find(entry *entities.PlanEntry) *entities.PlanEntry {
	for _, existing := range r.entries {
		if existing.SameKey(entry) {
			return existing
		}
	}
	return nil
}
