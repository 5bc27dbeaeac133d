package explosion

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// MaxTreeDepth is the largest depth a caller may request
const MaxTreeDepth = 50

const debugSampleSize = 10

// TreeRequest selects the root of a tree request.
// Either ItemID or ItemCode must be set unless ParentNodeID is given.
type TreeRequest struct {
	ItemID         *entities.ItemID
	ItemCode       string
	Characteristic string
	RootQty        decimal.Decimal
	Depth          int
	ParentNodeID   string
}

// TreeRequested echoes the resolved request
type TreeRequested struct {
	ItemCode *string `json:"item_code"`
	ItemID   int64   `json:"item_id"`
	RootQty  float64 `json:"root_qty"`
	Depth    *int    `json:"depth,omitempty"`
	MaxDepth *int    `json:"max_depth,omitempty"`
}

// TreeMeta describes a tree response
type TreeMeta struct {
	RootID    string         `json:"rootId,omitempty"`
	ParentID  string         `json:"parentId,omitempty"`
	Mode      string         `json:"mode,omitempty"`
	Requested *TreeRequested `json:"requested,omitempty"`
	Stats     *Stats         `json:"stats,omitempty"`
}

// TreeResponse is the payload of tree, full and children requests
type TreeResponse struct {
	Nodes []*TreeNode `json:"nodes"`
	Meta  TreeMeta    `json:"meta"`
}

// DebugItem identifies the inspected item
type DebugItem struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// DebugChild summarizes one first-level child
type DebugChild struct {
	ID            string   `json:"id"`
	Type          NodeKind `json:"type"`
	Name          string   `json:"name"`
	OperationName *string  `json:"operationName"`
	StageName     *string  `json:"stageName"`
}

// DebugReport explains how an item's specification was resolved
type DebugReport struct {
	Item            DebugItem        `json:"item"`
	DefaultSpecID   *entities.SpecID `json:"default_spec_id"`
	ResolvedSpecID  *entities.SpecID `json:"resolved_spec_id"`
	UsedFallback    bool             `json:"used_fallback"`
	ComponentsCount int              `json:"components_count"`
	OperationsCount int              `json:"operations_count"`
	ChildrenCount   int              `json:"children_count"`
	ChildrenSample  []DebugChild     `json:"children_sample"`
}

// TreeService builds specification trees for UI consumption
type TreeService struct {
	catalog  repositories.CatalogRepository
	maxDepth int
	logger   *zap.Logger
}

// NewTreeService creates a tree service; maxDepth caps eager expansion
func NewTreeService(catalog repositories.CatalogRepository, maxDepth int, logger *zap.Logger) *TreeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDepth <= 0 || maxDepth > MaxTreeDepth {
		maxDepth = DefaultMaxDepth
	}
	return &TreeService{catalog: catalog, maxDepth: maxDepth, logger: logger}
}

// MaxDepth returns the default depth of full trees
func (s *TreeService) MaxDepth() int {
	return s.maxDepth
}

func (s *TreeService) newCache() *CatalogCache {
	return NewCatalogCache(s.catalog, NewSpecResolver(s.catalog, s.logger))
}

// Tree returns either the root node pre-expanded to req.Depth, or, when ParentNodeID is set,
// the immediate children of that node.
func (s *TreeService) Tree(ctx context.Context, req TreeRequest) (*TreeResponse, error) {
	if strings.TrimSpace(req.ParentNodeID) != "" {
		return s.Children(ctx, req.ParentNodeID)
	}
	if req.Depth < 0 || req.Depth > s.maxDepth {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("depth must be between 0 and %d", s.maxDepth))
	}

	resp, err := s.eager(ctx, req, req.Depth)
	if err != nil {
		return nil, err
	}
	depth := req.Depth
	resp.Meta.Requested.Depth = &depth
	return resp, nil
}

// Full returns the whole tree of the root bounded by maxDepth (0 selects the configured default)
func (s *TreeService) Full(ctx context.Context, req TreeRequest, maxDepth int) (*TreeResponse, error) {
	if maxDepth == 0 {
		maxDepth = s.maxDepth
	}
	if maxDepth < 1 || maxDepth > MaxTreeDepth {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("max_depth must be between 1 and %d", MaxTreeDepth))
	}

	resp, err := s.eager(ctx, req, maxDepth)
	if err != nil {
		return nil, err
	}
	resp.Meta.Requested.MaxDepth = &maxDepth
	return resp, nil
}

func (s *TreeService) eager(ctx context.Context, req TreeRequest, depth int) (*TreeResponse, error) {
	qty, err := rootQuantity(req.RootQty)
	if err != nil {
		return nil, err
	}

	cache := s.newCache()
	item, err := s.lookupRoot(ctx, cache, req)
	if err != nil {
		return nil, err
	}

	collector := NewTreeCollector(cache)
	engine := NewEngine(cache, WithMaxDepth(depth), WithLogger(s.logger))
	stats, err := engine.Explode(ctx, Root{ItemID: item.ID, Quantity: qty, Characteristic: req.Characteristic}, collector)
	if err != nil {
		return nil, err
	}

	root := collector.Root()
	var code *string
	if req.ItemCode != "" {
		c := req.ItemCode
		code = &c
	}
	return &TreeResponse{
		Nodes: []*TreeNode{root},
		Meta: TreeMeta{
			RootID: root.ID,
			Requested: &TreeRequested{
				ItemCode: code,
				ItemID:   int64(item.ID),
				RootQty:  *round3(qty),
			},
			Stats: &stats,
		},
	}, nil
}

// Children re-derives (item, quantity) from a node id and returns one level of children.
// Only the parent itself is known as an ancestor, so a cycle is flagged when a child repeats it.
func (s *TreeService) Children(ctx context.Context, parentNodeID string) (*TreeResponse, error) {
	resp := &TreeResponse{
		Nodes: []*TreeNode{},
		Meta:  TreeMeta{ParentID: parentNodeID, Mode: "children"},
	}

	ref, err := ParseNodeID(parentNodeID)
	if err != nil {
		return nil, err
	}
	if ref.Kind != NodeItem {
		return resp, nil
	}
	if !ref.Quantity.IsPositive() {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("node id %q carries no positive quantity", parentNodeID))
	}

	cache := s.newCache()
	children, stats, err := s.children(ctx, cache, ref.ItemID, ref.Quantity, "")
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		id := parentNodeID
		child.ParentID = &id
	}
	resp.Nodes = children
	resp.Meta.Stats = &stats

	s.logger.Debug("lazy children built",
		zap.String("parent_id", parentNodeID),
		zap.Int("children", len(children)),
	)
	return resp, nil
}

func (s *TreeService) children(ctx context.Context, cache *CatalogCache, itemID entities.ItemID, qty decimal.Decimal, characteristic string) ([]*TreeNode, Stats, error) {
	collector := NewTreeCollector(cache)
	engine := NewEngine(cache, WithMaxDepth(1), WithLogger(s.logger))
	stats, err := engine.Explode(ctx, Root{ItemID: itemID, Quantity: qty, Characteristic: characteristic}, collector)
	if err != nil {
		return nil, Stats{}, err
	}
	children := collector.Root().Children
	if children == nil {
		children = []*TreeNode{}
	}
	return children, stats, nil
}

// Debug reports how the root's specification resolves and samples its first-level children
func (s *TreeService) Debug(ctx context.Context, req TreeRequest) (*DebugReport, error) {
	qty, err := rootQuantity(req.RootQty)
	if err != nil {
		return nil, err
	}

	cache := s.newCache()
	item, err := s.lookupRoot(ctx, cache, req)
	if err != nil {
		return nil, err
	}

	res, err := cache.Resolve(ctx, item, req.Characteristic)
	if err != nil {
		return nil, err
	}

	report := &DebugReport{
		Item:           DebugItem{ID: int64(item.ID), Code: item.Code, Name: item.Name, Unit: item.Unit},
		DefaultSpecID:  res.DefaultSpecID,
		UsedFallback:   res.UsedFallback,
		ChildrenSample: []DebugChild{},
	}
	if res.Found {
		specID := res.SpecID
		report.ResolvedSpecID = &specID

		comps, err := cache.Components(ctx, specID)
		if err != nil {
			return nil, err
		}
		ops, err := cache.Operations(ctx, specID)
		if err != nil {
			return nil, err
		}
		report.ComponentsCount = len(comps)
		report.OperationsCount = len(ops)
	}

	children, _, err := s.children(ctx, cache, item.ID, qty, req.Characteristic)
	if err != nil {
		return nil, err
	}
	report.ChildrenCount = len(children)
	for i, child := range children {
		if i == debugSampleSize {
			break
		}
		sample := DebugChild{ID: child.ID, Type: child.Type, Name: child.Name}
		if child.Operation != nil {
			name := child.Operation.Name
			sample.OperationName = &name
		}
		if child.Stage != nil {
			name := child.Stage.Name
			sample.StageName = &name
		}
		report.ChildrenSample = append(report.ChildrenSample, sample)
	}

	s.logger.Info("specification debug",
		zap.Int64("item_id", int64(item.ID)),
		zap.Bool("used_fallback", res.UsedFallback),
		zap.Int("components", report.ComponentsCount),
		zap.Int("operations", report.OperationsCount),
		zap.Int("children", report.ChildrenCount),
	)
	return report, nil
}

func (s *TreeService) lookupRoot(ctx context.Context, cache *CatalogCache, req TreeRequest) (*entities.Item, error) {
	var (
		item *entities.Item
		err  error
	)
	code := strings.TrimSpace(req.ItemCode)
	switch {
	case req.ItemID != nil:
		item, err = cache.Item(ctx, *req.ItemID)
	case code != "":
		item, err = s.catalog.GetItemByCode(ctx, code)
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("either item_code or item_id is required")
	}
	if err != nil {
		if isNotFound(err) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("item not found").
				WithCause(err)
		}
		return nil, storeError("failed to read item", err)
	}
	cache.Remember(item)
	return item, nil
}

func rootQuantity(qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.IsZero() {
		return decimal.NewFromInt(1), nil
	}
	if qty.IsNegative() {
		return decimal.Zero, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("root_qty must be positive, got %s", qty))
	}
	return qty, nil
}
