package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/application/services/explosion"
	"github.com/vsinha/prodplan/pkg/application/services/planning"
	"github.com/vsinha/prodplan/pkg/infrastructure/stock"
	"github.com/vsinha/prodplan/pkg/interfaces/api"
)

func newServeCommand(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the specification tree and stage aggregation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides server.port)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if a.cfg.Server.Mode != "" {
		gin.SetMode(a.cfg.Server.Mode)
	}

	trees, stages, roots := a.services(s)
	handler := api.NewHandler(trees, stages, roots, a.planService(s), a.logger)
	router := api.NewRouter(api.RouterConfig{
		Handler:        handler,
		Logger:         a.logger,
		CORSOrigins:    a.cfg.Server.CORSOrigins,
		RequestTimeout: a.cfg.Server.RequestTimeout,
	})

	server := api.NewServer(a.cfg.Server, router, a.logger)
	a.logger.Info("prodplan API ready",
		zap.String("addr", server.Addr()),
		zap.String("driver", a.cfg.Database.Driver),
		zap.Int("max_depth", a.cfg.Explosion.MaxDepth),
	)
	return server.Run(ctx)
}

// services wires the application services over one storage backend
func (a *app) services(s *stores) (*explosion.TreeService, *explosion.StageService, *planning.RootProductService) {
	trees := explosion.NewTreeService(s.catalog, a.cfg.Explosion.MaxDepth, a.logger)
	stages := explosion.NewStageService(
		s.catalog,
		s.roots,
		stock.NewLastSyncFile(a.cfg.Stock.LastSyncFile),
		explosion.StageServiceConfig{
			MaxDepth: a.cfg.Explosion.MaxDepth,
			Workers:  a.cfg.Explosion.Workers,
		},
		a.logger,
	)
	roots := planning.NewRootProductService(s.catalog, s.roots, s.plans, a.logger)
	return trees, stages, roots
}

// planService wires the production plan editor over one storage backend
func (a *app) planService(s *stores) *planning.PlanService {
	return planning.NewPlanService(s.catalog, s.roots, s.plans, a.logger)
}
