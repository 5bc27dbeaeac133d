package explosion

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// DefaultMaxDepth bounds recursion when no explicit limit is configured
const DefaultMaxDepth = 15

// Root is the starting point of one explosion
type Root struct {
	ItemID         entities.ItemID
	Quantity       decimal.Decimal
	Characteristic string
}

// Stats summarizes one explosion
type Stats struct {
	NodesVisited       int `json:"nodes_visited"`
	CyclesDetected     int `json:"cycles_detected"`
	DepthLimitHits     int `json:"depth_limit_hits"`
	DanglingComponents int `json:"dangling_components"`
}

// Add accumulates other into s
func (s *Stats) Add(other Stats) {
	s.NodesVisited += other.NodesVisited
	s.CyclesDetected += other.CyclesDetected
	s.DepthLimitHits += other.DepthLimitHits
	s.DanglingComponents += other.DanglingComponents
}

// Engine walks specification graphs and feeds a Collector.
// An Engine may serve concurrent explosions; each call owns its ancestor path.
type Engine struct {
	cache    *CatalogCache
	maxDepth int
	logger   *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithMaxDepth sets the recursion bound; values below zero are ignored
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth >= 0 {
			e.maxDepth = depth
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine reading through cache
func NewEngine(cache *CatalogCache, opts ...Option) *Engine {
	e := &Engine{
		cache:    cache,
		maxDepth: DefaultMaxDepth,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured recursion bound
func (e *Engine) MaxDepth() int {
	return e.maxDepth
}

// Explode walks the specification of root and reports every node and edge to collector.
// Store failures abort the walk; cycles, leaves and the depth bound do not.
func (e *Engine) Explode(ctx context.Context, root Root, collector Collector) (Stats, error) {
	if !root.Quantity.IsPositive() {
		return Stats{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("root quantity must be positive, got %s", root.Quantity))
	}

	item, err := e.cache.Item(ctx, root.ItemID)
	if err != nil {
		if isNotFound(err) {
			return Stats{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("item %d not found", root.ItemID)).
				WithCause(err)
		}
		return Stats{}, storeError(fmt.Sprintf("failed to read item %d", root.ItemID), err)
	}

	w := &walk{
		engine:         e,
		collector:      collector,
		path:           make(map[entities.ItemID]struct{}),
		characteristic: root.Characteristic,
	}
	if err := w.visit(ctx, item, root.Quantity, 0); err != nil {
		return Stats{}, err
	}

	e.logger.Debug("explosion finished",
		zap.Int64("root_item_id", int64(root.ItemID)),
		zap.String("root_qty", root.Quantity.String()),
		zap.Int("nodes", w.stats.NodesVisited),
		zap.Int("cycles", w.stats.CyclesDetected),
		zap.Int("depth_limit_hits", w.stats.DepthLimitHits),
	)
	return w.stats, nil
}

// walk holds the state of a single explosion
type walk struct {
	engine         *Engine
	collector      Collector
	path           map[entities.ItemID]struct{}
	characteristic string
	stats          Stats
}

func (w *walk) visit(ctx context.Context, item *entities.Item, multiplier decimal.Decimal, depth int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("explosion interrupted at item %d: %w", item.ID, err)
	}

	_, cycle := w.path[item.ID]
	characteristic := ""
	if depth == 0 {
		characteristic = w.characteristic
	}

	err := w.collector.OnEnter(ctx, NodeVisit{
		Item:           item,
		Quantity:       multiplier,
		Depth:          depth,
		Cycle:          cycle,
		Characteristic: characteristic,
	})
	if err != nil {
		return err
	}
	w.stats.NodesVisited++

	if cycle {
		w.stats.CyclesDetected++
		return nil
	}
	if depth >= w.engine.maxDepth {
		cut, err := w.engine.cache.HasChildren(ctx, item, characteristic)
		if err != nil {
			return err
		}
		if cut {
			w.stats.DepthLimitHits++
		}
		return nil
	}

	cache := w.engine.cache
	res, err := cache.Resolve(ctx, item, characteristic)
	if err != nil {
		return err
	}
	if !res.Found {
		return nil
	}

	components, err := cache.Components(ctx, res.SpecID)
	if err != nil {
		return err
	}

	w.path[item.ID] = struct{}{}
	for _, line := range components {
		qty := multiplier.Mul(line.QtyPerParent)
		if !qty.IsPositive() {
			continue
		}

		child, err := cache.Item(ctx, line.ChildItemID)
		if err != nil {
			if isNotFound(err) {
				w.stats.DanglingComponents++
				w.engine.logger.Warn("component refers to unknown item",
					zap.Int64("spec_id", int64(line.SpecID)),
					zap.Int64("child_item_id", int64(line.ChildItemID)),
				)
				continue
			}
			delete(w.path, item.ID)
			return storeError(fmt.Sprintf("failed to read item %d", line.ChildItemID), err)
		}

		err = w.collector.OnComponentEdge(ctx, ComponentEdge{
			Parent:     item,
			Child:      child,
			Line:       line,
			ParentQty:  multiplier,
			QtyPerUnit: line.QtyPerParent,
			TotalQty:   qty,
			StageID:    line.StageID,
			Depth:      depth,
		})
		if err == nil {
			err = w.visit(ctx, child, qty, depth+1)
		}
		if err != nil {
			delete(w.path, item.ID)
			return err
		}
	}
	delete(w.path, item.ID)

	operations, err := cache.Operations(ctx, res.SpecID)
	if err != nil {
		return err
	}
	for _, op := range operations {
		err := w.collector.OnOperationEdge(ctx, OperationEdge{
			Parent:    item,
			Operation: op,
			ParentQty: multiplier,
			TotalTime: op.TimeNorm.Mul(multiplier),
			StageID:   op.StageID,
			Depth:     depth,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
