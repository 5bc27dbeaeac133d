package commands

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vsinha/prodplan/pkg/application/services/planning"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/gormstore"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
)

// catalogStore is what every command needs from a storage backend
type catalogStore interface {
	repositories.CatalogRepository
	repositories.CatalogLoader
	repositories.SpecGraphSource
}

// stores bundles the repositories of one backend with its cleanup
type stores struct {
	catalog catalogStore
	roots   repositories.RootProductRepository
	plans   repositories.PlanRepository
	db      *gorm.DB
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return gormstore.Close(s.db)
}

// openStores loads the scenario directory into memory when one is given,
// otherwise connects to the configured database
func (a *app) openStores(ctx context.Context) (*stores, error) {
	if a.scenarioDir != "" {
		return openScenario(ctx, a.scenarioDir, a.logger)
	}
	if a.cfg.Database.Driver == config.DriverMemory {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("database.driver memory requires --scenario")
	}
	return openDatabase(a.cfg.Database, a.logger)
}

func openDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*stores, error) {
	db, err := gormstore.Open(cfg, logger)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open database").
			WithCause(err)
	}
	if err := gormstore.Migrate(db); err != nil {
		_ = gormstore.Close(db)
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to migrate database").
			WithCause(err)
	}
	return &stores{
		catalog: gormstore.NewCatalogStore(db),
		roots:   gormstore.NewRootProductStore(db),
		plans:   gormstore.NewPlanStore(db),
		db:      db,
	}, nil
}

func openScenario(ctx context.Context, dir string, logger *zap.Logger) (*stores, error) {
	scenario, err := csv.NewLoader().LoadScenario(dir)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to load scenario %s", dir)).
			WithCause(err)
	}

	s := &stores{
		catalog: memory.NewCatalogRepository(len(scenario.Items)),
		roots:   memory.NewRootProductRepository(),
		plans:   memory.NewPlanRepository(),
	}
	if err := seedScenario(ctx, s, scenario, logger); err != nil {
		return nil, err
	}
	logger.Info("scenario loaded",
		zap.String("dir", dir),
		zap.Int("items", len(scenario.Items)),
		zap.Int("specifications", len(scenario.Specifications)),
		zap.Int("root_products", len(scenario.RootProductCodes)),
		zap.Int("plan_entries", len(scenario.Plan)),
	)
	return s, nil
}

// seedScenario writes catalog rows, root products and plan entries of a scenario into s
func seedScenario(ctx context.Context, s *stores, scenario *csv.Scenario, logger *zap.Logger) error {
	if err := scenario.Apply(ctx, s.catalog); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to store scenario").
			WithCause(err)
	}
	roots := planning.NewRootProductService(s.catalog, s.roots, s.plans, logger)
	if _, err := roots.EnsureCodes(ctx, scenario.RootProductCodes); err != nil {
		return err
	}
	if _, err := scenario.ApplyPlan(ctx, s.catalog, s.plans); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to store plan entries").
			WithCause(err)
	}
	return nil
}
