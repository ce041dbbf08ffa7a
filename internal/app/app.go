// Package app provides the application lifecycle for the publishing service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draftwise/wp-publisher/internal/api"
	"github.com/draftwise/wp-publisher/internal/config"
	"github.com/draftwise/wp-publisher/internal/logger"
	"github.com/draftwise/wp-publisher/internal/metrics"
	"github.com/draftwise/wp-publisher/internal/publisher"
	"github.com/draftwise/wp-publisher/internal/reconciler"
	"github.com/draftwise/wp-publisher/internal/store"
	"github.com/draftwise/wp-publisher/internal/transport"
	"github.com/draftwise/wp-publisher/internal/wordpress"
)

const (
	// DefaultShutdownTimeout bounds graceful HTTP shutdown.
	DefaultShutdownTimeout = 30 * time.Second

	pingTimeout = 5 * time.Second
)

// App wires the service dependencies and runs them until shutdown.
type App struct {
	config      *config.Config
	logger      logger.Logger
	redisClient redis.UniversalClient
	sites       *store.SiteRepository
	articles    *store.ArticleStore
	tracker     *metrics.Tracker
	publishSvc  *publisher.Service
	reconciler  *reconciler.Reconciler
	worker      *reconciler.Worker
	httpServer  *http.Server
	version     string
}

// Options configures App construction.
type Options struct {
	ConfigPath string
	Version    string
	// ServeHTTP enables the API server; the reconciler command runs without it.
	ServeHTTP bool
	// RunWorker enables the periodic reconciliation worker.
	RunWorker bool
}

// New creates an App with all dependencies initialized and connections verified.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.New(logger.Config{Development: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "wp-publisher"),
		logger.String("version", opts.Version),
	)

	db, err := store.NewPostgresConnection(cfg.Postgres)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Postgres: %w", err)
	}
	siteRepo := store.NewSiteRepository(db)

	articleStore, err := store.NewArticleStore(cfg.Elasticsearch, appLogger)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Elasticsearch: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Redis: %w", pingErr)
	}

	tracker := metrics.NewTracker(redisClient, appLogger)

	caller := transport.New(cfg.Publishing.TransportConfig(), appLogger)
	wpClient := wordpress.NewClient(caller, appLogger)

	publishSvc := publisher.NewService(publisher.Deps{
		Articles:   articleStore,
		Sites:      siteRepo,
		WP:         wpClient,
		Metrics:    tracker,
		Logger:     appLogger,
		PublishRPS: cfg.Publishing.PublishRPS,
	})

	rec := reconciler.New(articleStore, siteRepo, wpClient, tracker, appLogger)

	a := &App{
		config:      cfg,
		logger:      appLogger,
		redisClient: redisClient,
		sites:       siteRepo,
		articles:    articleStore,
		tracker:     tracker,
		publishSvc:  publishSvc,
		reconciler:  rec,
		version:     opts.Version,
	}

	if opts.RunWorker {
		a.worker = reconciler.NewWorker(rec, cfg.Publishing.ReconcileInterval, appLogger)
	}

	if opts.ServeHTTP {
		router := api.NewRouter(publishSvc, rec, siteRepo, tracker, redisClient, cfg, appLogger)
		a.httpServer = &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      router.SetupRoutes(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	return a, nil
}

// Run starts the configured components and blocks until a shutdown signal
// or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()

	serverErr := make(chan error, 1)

	if a.worker != nil {
		a.worker.Start(workerCtx)
	}

	if a.httpServer != nil {
		go func() {
			a.logger.Info("HTTP server listening", logger.String("address", a.httpServer.Addr))
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		a.logger.Info("shutting down gracefully", logger.String("signal", sig.String()))
	case err := <-serverErr:
		a.logger.Error("server error", logger.Error(err))
		runErr = err
	case <-ctx.Done():
	}

	workerCancel()
	if a.worker != nil {
		a.worker.Stop()
	}
	a.shutdownHTTPServer()

	a.logger.Info("service stopped")
	return runErr
}

func (a *App) shutdownHTTPServer() {
	if a.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("server shutdown error", logger.Error(err))
	} else {
		a.logger.Info("HTTP server stopped")
	}
}

// RunReconcileOnce performs a single reconciliation pass.
func (a *App) RunReconcileOnce(ctx context.Context) (*reconciler.Result, error) {
	return a.reconciler.Run(ctx)
}

// Close releases application resources.
func (a *App) Close() error {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close Redis client", logger.Error(err))
		}
	}
	return a.logger.Sync()
}

// Logger returns the application logger.
func (a *App) Logger() logger.Logger {
	return a.logger
}
