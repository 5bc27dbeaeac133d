package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlanDateLayout is the calendar-day format of plan dates
const PlanDateLayout = "2006-01-02"

// PlanStatus flags the progress of a plan entry
type PlanStatus string

const (
	PlanGreen  PlanStatus = "GREEN"
	PlanYellow PlanStatus = "YELLOW"
	PlanRed    PlanStatus = "RED"
)

// PlanEntry is the planned output of an item on one day, optionally bound to a stage.
// (ItemID, Date, StageID) identifies an entry; a nil stage is its own key.
type PlanEntry struct {
	ID           int64
	ItemID       ItemID
	StageID      *StageID
	Date         time.Time
	PlannedQty   decimal.Decimal
	CompletedQty decimal.Decimal
	Status       PlanStatus
	Notes        string
}

// NewPlanEntry creates a validated plan entry for the calendar day of date
func NewPlanEntry(itemID ItemID, stage *StageID, date time.Time, planned decimal.Decimal) (*PlanEntry, error) {
	if itemID <= 0 {
		return nil, fmt.Errorf("item id must be positive, got %d", itemID)
	}
	if stage != nil && *stage <= 0 {
		return nil, fmt.Errorf("stage id must be positive, got %d", *stage)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("plan date is required")
	}
	if planned.IsNegative() {
		return nil, fmt.Errorf("planned quantity cannot be negative, got %s", planned)
	}

	return &PlanEntry{
		ItemID:       itemID,
		StageID:      stage,
		Date:         PlanDay(date),
		PlannedQty:   planned,
		CompletedQty: decimal.Zero,
		Status:       PlanGreen,
	}, nil
}

// PlanDay truncates t to midnight UTC of its calendar day
func PlanDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParsePlanDate parses a YYYY-MM-DD plan date
func ParsePlanDate(s string) (time.Time, error) {
	t, err := time.Parse(PlanDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid plan date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// SameKey reports whether two entries address the same (item, day, stage) slot
func (e *PlanEntry) SameKey(other *PlanEntry) bool {
	if e.ItemID != other.ItemID || !e.Date.Equal(other.Date) {
		return false
	}
	if e.StageID == nil || other.StageID == nil {
		return e.StageID == nil && other.StageID == nil
	}
	return *e.StageID == *other.StageID
}
