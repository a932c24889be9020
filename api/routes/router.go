// api/routes/router.go
package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raulk/clock"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"adslot/internal/analytics"
	"adslot/internal/content"
	"adslot/internal/payments"
	"adslot/internal/placements"
	"adslot/internal/shared/config"
	"adslot/internal/shared/database"
	"adslot/internal/slots"
	"adslot/pkg/cache"
)

// Router holds all route dependencies
type Router struct {
	config       *config.Config
	db           *database.DB
	cacheService cache.Service
	contentStore content.Store
	slotService  slots.Service
	allocator    placements.Allocator
	checkout     placements.Checkout
	jobs         *placements.JobProcessor
}

// NewRouter builds the services behind the routes. events receives every
// stored placement transition.
func NewRouter(cfg *config.Config, db *database.DB, events placements.EventPublisher) (*Router, error) {
	r := &Router{
		config:       cfg,
		db:           db,
		cacheService: cache.NewService(db.Redis),
	}

	contentStore, err := newContentStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize content store: %w", err)
	}
	r.contentStore = contentStore

	r.slotService = slots.NewService(slots.NewRepository(db.PostgreSQL), r.cacheService)

	clk := clock.New()
	store, err := newSlotStore(cfg, db, contentStore, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize slot store: %w", err)
	}
	r.allocator = placements.NewAllocator(store, newLocker(cfg, db), r.slotService, events, &placements.AllocatorConfig{
		StoreTimeout:       cfg.Placement.StoreTimeout,
		SlowStoreThreshold: cfg.Placement.SlowStoreThreshold,
		Currency:           cfg.Placement.Currency,
		Clock:              clk,
	})

	facilitator := payments.NewClient(payments.ClientConfig{
		URL:     cfg.Facilitator.URL,
		Timeout: cfg.Facilitator.Timeout,
	}, nil)
	r.checkout = placements.NewCheckout(r.allocator, r.slotService, facilitator, contentStore, payments.Settings{
		Network:           cfg.Facilitator.Network,
		Asset:             cfg.Facilitator.Asset,
		MaxTimeoutSeconds: cfg.Facilitator.MaxTimeoutSeconds,
	})

	return r, nil
}

// Allocator exposes the placement allocator for background jobs
func (r *Router) Allocator() placements.Allocator {
	return r.allocator
}

// SetJobProcessor reports the expiry sweeper on /status
func (r *Router) SetJobProcessor(jobs *placements.JobProcessor) {
	r.jobs = jobs
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupSlotRoutes(api)
		r.setupPlacementRoutes(api)
		r.setupContentRoutes(api)
		r.setupAnalyticsRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "adslot-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "adslot-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		status := gin.H{
			"status":          "operational",
			"api_version":     r.config.APIVersion,
			"placement_store": r.config.Placement.StoreBackend,
			"content_store":   r.config.Content.Backend,
			"network":         r.config.Facilitator.Network,
			"timestamp":       time.Now(),
		}
		if r.jobs != nil {
			status["expiry_sweeper"] = r.jobs.GetJobStatus()
		}
		c.JSON(http.StatusOK, status)
	})
}

func (r *Router) setupSlotRoutes(rg *gin.RouterGroup) {
	slots.SetupSlotRoutes(rg, slots.NewController(r.slotService), r.config)
}

func (r *Router) setupPlacementRoutes(rg *gin.RouterGroup) {
	controller := placements.NewController(r.allocator, r.checkout, r.config.PublicURL)
	placements.SetupPlacementRoutes(rg, controller, r.config)
}

func (r *Router) setupContentRoutes(rg *gin.RouterGroup) {
	content.SetupContentRoutes(rg, content.NewController(r.contentStore, r.config.Content.MaxUploadSize))
}

func (r *Router) setupAnalyticsRoutes(rg *gin.RouterGroup) {
	analyticsService := analytics.NewService(analytics.NewRepository(r.db.PostgreSQL), r.cacheService)
	analytics.SetupAnalyticsRoutes(rg, analytics.NewController(analyticsService), r.config)
}
