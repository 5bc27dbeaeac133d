package explosion

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// StageBucketKey identifies one accumulated quantity
type StageBucketKey struct {
	StageID entities.StageID
	ItemID  entities.ItemID
}

// StageCollector sums component quantities per (stage, item) for manufactured components
// whose edge carries a stage. Manufactured sub-assemblies are still descended into.
type StageCollector struct {
	buckets map[StageBucketKey]decimal.Decimal
	keys    []StageBucketKey
}

// NewStageCollector creates an empty collector
func NewStageCollector() *StageCollector {
	return &StageCollector{buckets: make(map[StageBucketKey]decimal.Decimal)}
}

// OnEnter is a no-op; only edges carry stage data
func (c *StageCollector) OnEnter(context.Context, NodeVisit) error {
	return nil
}

// OnComponentEdge accumulates the edge quantity into its bucket
func (c *StageCollector) OnComponentEdge(_ context.Context, edge ComponentEdge) error {
	if edge.StageID == nil || !edge.Child.IsManufactured() {
		return nil
	}
	key := StageBucketKey{StageID: *edge.StageID, ItemID: edge.Child.ID}
	current, seen := c.buckets[key]
	if !seen {
		c.keys = append(c.keys, key)
	}
	c.buckets[key] = current.Add(edge.TotalQty)
	return nil
}

// OnOperationEdge is a no-op
func (c *StageCollector) OnOperationEdge(context.Context, OperationEdge) error {
	return nil
}

// Quantity returns the accumulated quantity for key
func (c *StageCollector) Quantity(key StageBucketKey) decimal.Decimal {
	return c.buckets[key]
}

// Keys returns bucket keys in first-seen order
func (c *StageCollector) Keys() []StageBucketKey {
	keys := make([]StageBucketKey, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// Len returns the number of buckets
func (c *StageCollector) Len() int {
	return len(c.keys)
}
