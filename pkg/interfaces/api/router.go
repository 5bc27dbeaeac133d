package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig wires the handler and cross-cutting middleware
type RouterConfig struct {
	Handler        *Handler
	Logger         *zap.Logger
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter builds the gin engine serving /api/v1
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Logger(logger))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(Timeout(cfg.RequestTimeout))

	h := cfg.Handler
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.Health)

		spec := v1.Group("/specification")
		{
			spec.GET("/tree", h.Tree)
			spec.GET("/full", h.FullTree)
			spec.GET("/debug", h.DebugSpecification)
		}

		stages := v1.Group("/stages")
		{
			stages.GET("", h.ListStages)
			stages.POST("/calculate", h.CalculateStages)
			stages.GET("/export", h.ExportStages)
		}

		roots := v1.Group("/root-products")
		{
			roots.GET("", h.ListRootProducts)
			roots.POST("", h.AddRootProduct)
			roots.DELETE("/:item_id", h.RemoveRootProduct)
		}

		plan := v1.Group("/plan")
		{
			plan.GET("/matrix", h.PlanMatrix)
			plan.POST("/matrix", h.PlanMatrix)
			plan.GET("/export", h.ExportPlan)
			plan.POST("/export", h.ExportPlan)
			plan.POST("/upsert", h.UpsertPlanEntry)
			plan.POST("/bulk_upsert", h.BulkUpsertPlanEntries)
			plan.POST("/delete_row", h.DeletePlanRow)
		}
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
