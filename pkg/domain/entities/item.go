package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ItemID identifies an item in the catalog
type ItemID int64

// ReplenishmentMethod tells how an item is obtained
type ReplenishmentMethod int

const (
	ReplenishmentUnknown ReplenishmentMethod = iota
	Manufactured
	Purchased
)

// String method for ReplenishmentMethod enum
func (r ReplenishmentMethod) String() string {
	switch r {
	case Manufactured:
		return "Manufactured"
	case Purchased:
		return "Purchased"
	default:
		return "Unknown"
	}
}

// ParseReplenishmentMethod maps catalog labels to a ReplenishmentMethod.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseReplenishmentMethod(s string) ReplenishmentMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "производство", "production", "manufactured", "manufacture":
		return Manufactured
	case "покупка", "purchase", "purchased":
		return Purchased
	default:
		return ReplenishmentUnknown
	}
}

// MarshalText renders the method with its String form
func (r ReplenishmentMethod) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Item represents a catalog item with its on-hand stock
type Item struct {
	ID                  ItemID
	Code                string
	Name                string
	Article             string
	Unit                string
	ReplenishmentMethod ReplenishmentMethod
	StockQty            decimal.Decimal
}

// NewItem creates a validated Item
func NewItem(id ItemID, code, name, unit string, method ReplenishmentMethod, stock decimal.Decimal) (*Item, error) {
	if id <= 0 {
		return nil, fmt.Errorf("item id must be positive, got %d", id)
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if stock.IsNegative() {
		return nil, fmt.Errorf("stock quantity cannot be negative, got %s", stock)
	}

	return &Item{
		ID:                  id,
		Code:                code,
		Name:                name,
		Unit:                unit,
		ReplenishmentMethod: method,
		StockQty:            stock,
	}, nil
}

// IsManufactured reports whether the item is produced in-house
func (i *Item) IsManufactured() bool {
	return i.ReplenishmentMethod == Manufactured
}
