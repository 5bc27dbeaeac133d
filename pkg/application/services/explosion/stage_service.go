package explosion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// SyncClock reports when stock levels were last synchronized
type SyncClock interface {
	LastSync() (*time.Time, error)
}

// StageReport is the per-stage aggregation over all root products
type StageReport struct {
	AsOf   *time.Time   `json:"asOf"`
	Stages []StageGroup `json:"stages"`
	Stats  Stats        `json:"-"`
}

// StageGroup lists, for one stage, the products that need components there
type StageGroup struct {
	StageID   int64          `json:"stage_id"`
	StageName string         `json:"stage_name"`
	Products  []StageProduct `json:"products"`

	order int
	known bool
}

// StageProduct lists the components one root product needs at a stage
type StageProduct struct {
	RootItemID   int64            `json:"root_item_id"`
	RootItemCode string           `json:"root_item_code"`
	RootItemName string           `json:"root_item_name"`
	Components   []StageComponent `json:"components"`
}

// StageComponent is one accumulated bucket with the component's current stock
type StageComponent struct {
	ItemID              int64   `json:"item_id"`
	ItemCode            string  `json:"item_code"`
	ItemName            string  `json:"item_name"`
	QtyPerUnit          float64 `json:"qty_per_unit"`
	StockQty            float64 `json:"stock_qty"`
	ReplenishmentMethod string  `json:"replenishment_method"`
	// no batch limits are kept in the catalog; both always encode as null
	MinBatch *float64 `json:"min_batch"`
	MaxBatch *float64 `json:"max_batch"`
}

// StageServiceConfig tunes the aggregation batch
type StageServiceConfig struct {
	MaxDepth int
	Workers  int
}

// StageService aggregates manufactured component needs per stage across all root products
type StageService struct {
	catalog repositories.CatalogRepository
	roots   repositories.RootProductRepository
	clock   SyncClock
	config  StageServiceConfig
	logger  *zap.Logger
}

// NewStageService creates a stage aggregation service; clock may be nil
func NewStageService(
	catalog repositories.CatalogRepository,
	roots repositories.RootProductRepository,
	clock SyncClock,
	config StageServiceConfig,
	logger *zap.Logger,
) *StageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	return &StageService{
		catalog: catalog,
		roots:   roots,
		clock:   clock,
		config:  config,
		logger:  logger,
	}
}

type rootResult struct {
	item      *entities.Item
	collector *StageCollector
	stats     Stats
}

// Calculate explodes every root product with quantity one and groups the buckets by stage
func (s *StageService) Calculate(ctx context.Context) (*StageReport, error) {
	start := time.Now()

	roots, err := s.roots.ListRootProducts(ctx)
	if err != nil {
		return nil, storeError("failed to list root products", err)
	}

	cache := NewCatalogCache(s.catalog, NewSpecResolver(s.catalog, s.logger))
	engine := NewEngine(cache, WithMaxDepth(s.config.MaxDepth), WithLogger(s.logger))

	results := make([]*rootResult, len(roots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i, root := range roots {
		g.Go(func() error {
			item, err := cache.Item(gctx, root.ItemID)
			if err != nil {
				if isNotFound(err) {
					s.logger.Warn("root product refers to unknown item", zap.Int64("item_id", int64(root.ItemID)))
					return nil
				}
				return storeError(fmt.Sprintf("failed to read item %d", root.ItemID), err)
			}

			collector := NewStageCollector()
			stats, err := engine.Explode(gctx, Root{ItemID: item.ID, Quantity: decimal.NewFromInt(1)}, collector)
			if err != nil {
				return err
			}
			results[i] = &rootResult{item: item, collector: collector, stats: stats}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report, err := s.buildReport(ctx, cache, results)
	if err != nil {
		return nil, err
	}

	if s.clock != nil {
		asOf, err := s.clock.LastSync()
		if err != nil {
			s.logger.Warn("stock sync time unavailable", zap.Error(err))
		}
		report.AsOf = asOf
	}

	s.logger.Info("stage aggregation finished",
		zap.Int("roots", len(roots)),
		zap.Int("stages", len(report.Stages)),
		zap.Int("nodes", report.Stats.NodesVisited),
		zap.Int("cycles", report.Stats.CyclesDetected),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

func (s *StageService) buildReport(ctx context.Context, cache *CatalogCache, results []*rootResult) (*StageReport, error) {
	report := &StageReport{Stages: []StageGroup{}}
	groups := make(map[entities.StageID]*StageGroup)

	for _, res := range results {
		if res == nil {
			continue
		}
		report.Stats.Add(res.stats)

		perStage := make(map[entities.StageID][]StageComponent)
		for _, key := range res.collector.Keys() {
			// stock is read once per component after the walk, from the batch cache
			item, err := cache.Item(ctx, key.ItemID)
			if err != nil {
				return nil, storeError(fmt.Sprintf("failed to read item %d", key.ItemID), err)
			}
			perStage[key.StageID] = append(perStage[key.StageID], StageComponent{
				ItemID:              int64(item.ID),
				ItemCode:            item.Code,
				ItemName:            item.Name,
				QtyPerUnit:          res.collector.Quantity(key).Round(3).InexactFloat64(),
				StockQty:            item.StockQty.InexactFloat64(),
				ReplenishmentMethod: item.ReplenishmentMethod.String(),
			})
		}

		for stageID, components := range perStage {
			group, ok := groups[stageID]
			if !ok {
				stage, known, err := cache.Stage(ctx, stageID)
				if err != nil {
					return nil, err
				}
				group = &StageGroup{StageID: int64(stageID), StageName: entities.UnnamedStage(stageID)}
				if known {
					group.StageName = stage.DisplayName()
					group.order = stage.Order
					group.known = true
				}
				groups[stageID] = group
			}

			sort.Slice(components, func(i, j int) bool {
				if components[i].ItemCode != components[j].ItemCode {
					return components[i].ItemCode < components[j].ItemCode
				}
				return components[i].ItemName < components[j].ItemName
			})
			group.Products = append(group.Products, StageProduct{
				RootItemID:   int64(res.item.ID),
				RootItemCode: res.item.Code,
				RootItemName: res.item.Name,
				Components:   components,
			})
		}
	}

	for _, group := range groups {
		sort.Slice(group.Products, func(i, j int) bool {
			a, b := group.Products[i], group.Products[j]
			if a.RootItemCode != b.RootItemCode {
				return a.RootItemCode < b.RootItemCode
			}
			if a.RootItemName != b.RootItemName {
				return a.RootItemName < b.RootItemName
			}
			return a.RootItemID < b.RootItemID
		})
		report.Stages = append(report.Stages, *group)
	}
	sort.Slice(report.Stages, func(i, j int) bool {
		a, b := report.Stages[i], report.Stages[j]
		if a.known != b.known {
			return a.known
		}
		if a.order != b.order {
			return a.order < b.order
		}
		if a.StageName != b.StageName {
			return a.StageName < b.StageName
		}
		return a.StageID < b.StageID
	})
	return report, nil
}
