package explosion

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// Node warnings
const (
	WarningNoStage       = "NO_STAGE"
	WarningNoTimeNorm    = "NO_TIME_NORM"
	WarningCycleDetected = "CYCLE_DETECTED"
)

// StageRef names the stage a node belongs to
type StageRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OperationRef names the catalog operation behind an operation node
type OperationRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ItemRef identifies the item behind an item node
type ItemRef struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

// Computed holds path-multiplied values of a node
type Computed struct {
	TreeQty    *float64 `json:"treeQty,omitempty"`
	TreeTimeNh *float64 `json:"treeTimeNh,omitempty"`
}

// TreeNode is one row of the specification tree
type TreeNode struct {
	ID                  string        `json:"id"`
	ParentID            *string       `json:"parentId"`
	Type                NodeKind      `json:"type"`
	Name                string        `json:"name"`
	Article             string        `json:"article,omitempty"`
	Stage               *StageRef     `json:"stage"`
	Operation           *OperationRef `json:"operation,omitempty"`
	QtyPerParent        *float64      `json:"qtyPerParent"`
	Unit                string        `json:"unit,omitempty"`
	ReplenishmentMethod string        `json:"replenishmentMethod,omitempty"`
	TimeNormNh          *float64      `json:"timeNormNh"`
	Computed            Computed      `json:"computed"`
	HasChildren         bool          `json:"hasChildren"`
	Cycle               bool          `json:"cycle"`
	Warnings            []string      `json:"warnings"`
	Item                *ItemRef      `json:"item,omitempty"`
	Children            []*TreeNode   `json:"children,omitempty"`

	pathQty decimal.Decimal
}

// PathQuantity returns the unrounded quantity (items) or total time (operations) of the node
func (n *TreeNode) PathQuantity() decimal.Decimal {
	return n.pathQty
}

// TreeCollector materializes the walk as a tree of TreeNode
type TreeCollector struct {
	cache   *CatalogCache
	root    *TreeNode
	stack   []*TreeNode
	pending *ComponentEdge
}

// NewTreeCollector creates a collector resolving stage names and hasChildren through cache
func NewTreeCollector(cache *CatalogCache) *TreeCollector {
	return &TreeCollector{cache: cache}
}

// Root returns the root node, or nil before the walk
func (c *TreeCollector) Root() *TreeNode {
	return c.root
}

// OnEnter adds an item node under the node at the previous depth
func (c *TreeCollector) OnEnter(ctx context.Context, visit NodeVisit) error {
	item := visit.Item
	hasChildren, err := c.cache.HasChildren(ctx, item, visit.Characteristic)
	if err != nil {
		return err
	}

	node := &TreeNode{
		ID:                  ItemNodeID(item.ID, visit.Quantity),
		Type:                NodeItem,
		Name:                item.Name,
		Article:             item.Article,
		Unit:                item.Unit,
		ReplenishmentMethod: item.ReplenishmentMethod.String(),
		Computed:            Computed{TreeQty: round3(visit.Quantity)},
		HasChildren:         hasChildren,
		Cycle:               visit.Cycle,
		Warnings:            []string{},
		Item:                &ItemRef{ID: int64(item.ID), Code: item.Code},
		pathQty:             visit.Quantity,
	}

	if visit.Depth == 0 {
		c.root = node
		c.stack = append(c.stack[:0], node)
		c.pending = nil
	} else {
		if visit.Depth > len(c.stack) || c.pending == nil {
			return fmt.Errorf("tree collector: unexpected node %s at depth %d", node.ID, visit.Depth)
		}
		edge := c.pending
		c.pending = nil

		parent := c.stack[visit.Depth-1]
		parentID := parent.ID
		node.ParentID = &parentID
		node.QtyPerParent = round3(edge.QtyPerUnit)

		stage, err := c.stageRef(ctx, edge.StageID)
		if err != nil {
			return err
		}
		node.Stage = stage
		if stage == nil {
			node.Warnings = append(node.Warnings, WarningNoStage)
		}

		parent.Children = append(parent.Children, node)
		c.stack = append(c.stack[:visit.Depth], node)
	}

	if visit.Cycle {
		node.Warnings = append(node.Warnings, WarningCycleDetected)
	}
	return nil
}

// OnComponentEdge remembers the edge for the child node entered next
func (c *TreeCollector) OnComponentEdge(_ context.Context, edge ComponentEdge) error {
	c.pending = &edge
	return nil
}

// OnOperationEdge adds an operation node under its parent item node
func (c *TreeCollector) OnOperationEdge(ctx context.Context, edge OperationEdge) error {
	if edge.Depth >= len(c.stack) {
		return fmt.Errorf("tree collector: operation %d without parent at depth %d", edge.Operation.ID, edge.Depth)
	}
	parent := c.stack[edge.Depth]
	parentID := parent.ID
	op := edge.Operation

	node := &TreeNode{
		ID:         OperationNodeID(op.ID, edge.Parent.ID, edge.ParentQty),
		ParentID:   &parentID,
		Type:       NodeOperation,
		Name:       op.OperationName,
		Operation:  &OperationRef{ID: int64(op.OperationID), Name: op.OperationName},
		TimeNormNh: round3(op.TimeNorm),
		Computed:   Computed{TreeTimeNh: round3(edge.TotalTime)},
		Warnings:   []string{},
		pathQty:    edge.TotalTime,
	}

	stage, err := c.stageRef(ctx, edge.StageID)
	if err != nil {
		return err
	}
	node.Stage = stage
	if stage == nil {
		node.Warnings = append(node.Warnings, WarningNoStage)
	}
	if !op.TimeNorm.IsPositive() {
		node.Warnings = append(node.Warnings, WarningNoTimeNorm)
	}

	parent.Children = append(parent.Children, node)
	return nil
}

func (c *TreeCollector) stageRef(ctx context.Context, id *entities.StageID) (*StageRef, error) {
	if id == nil {
		return nil, nil
	}
	stage, ok, err := c.cache.Stage(ctx, *id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &StageRef{ID: int64(*id), Name: entities.UnnamedStage(*id)}, nil
	}
	return &StageRef{ID: int64(stage.ID), Name: stage.DisplayName()}, nil
}

func round3(d decimal.Decimal) *float64 {
	v := d.Round(3).InexactFloat64()
	return &v
}
