// Package api exposes the publishing service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/draftwise/wp-publisher/internal/config"
	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/metrics"
	"github.com/draftwise/wp-publisher/internal/publisher"
	"github.com/draftwise/wp-publisher/internal/reconciler"
	"github.com/draftwise/wp-publisher/internal/store"
)

const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	serviceVersion       = "1.0.0"
)

// Router holds the API dependencies.
type Router struct {
	publishSvc  *publisher.Service
	reconciler  *reconciler.Reconciler
	sites       *store.SiteRepository
	tracker     *metrics.Tracker
	redisClient redis.UniversalClient
	cfg         *config.Config
	logger      logger.Logger
}

// NewRouter creates the API router.
func NewRouter(
	publishSvc *publisher.Service,
	rec *reconciler.Reconciler,
	sites *store.SiteRepository,
	tracker *metrics.Tracker,
	redisClient redis.UniversalClient,
	cfg *config.Config,
	log logger.Logger,
) *Router {
	return &Router{
		publishSvc:  publishSvc,
		reconciler:  rec,
		sites:       sites,
		tracker:     tracker,
		redisClient: redisClient,
		cfg:         cfg,
		logger:      log,
	}
}

// SetupRoutes builds the gin engine with middleware and all routes.
func (r *Router) SetupRoutes() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Health check (public, no auth)
	router.GET("/health", r.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(jwtMiddleware(r.cfg.Auth.JWTSecret))

	sites := v1.Group("/sites")
	sites.GET("", r.listSites)
	sites.POST("", r.createSite)
	sites.GET("/:id", r.getSite)
	sites.PUT("/:id", r.updateSite)
	sites.DELETE("/:id", r.deleteSite)

	articles := v1.Group("/articles")
	articles.POST("/:id/publish", r.publishArticle)

	reconcile := v1.Group("/reconcile")
	reconcile.POST("/run", r.runReconcile)

	stats := v1.Group("/stats")
	stats.GET("/overview", r.getStatsOverview)

	posts := v1.Group("/posts")
	posts.GET("/recent", r.getRecentPosts)

	return router
}

// healthCheck reports service health including backing store connectivity.
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  healthStatusHealthy,
		"service": "wp-publisher",
		"version": serviceVersion,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := true
	if err := r.sites.Ping(ctx); err != nil {
		dbConnected = false
		health["status"] = healthStatusDegraded
	}
	health["database"] = gin.H{"connected": dbConnected}

	redisConnected := true
	if err := r.redisClient.Ping(ctx).Err(); err != nil {
		redisConnected = false
		if health["status"] == healthStatusHealthy {
			health["status"] = healthStatusDegraded
		}
	}
	health["redis"] = gin.H{"connected": redisConnected}

	c.JSON(http.StatusOK, health)
}
