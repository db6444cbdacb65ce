package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/festival/internal/db"
	"github.com/nkiryanov/festival/internal/handlers"
	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/ratelimit"
	"github.com/nkiryanov/festival/internal/repository/mongo"
	"github.com/nkiryanov/festival/internal/repository/postgres"
	"github.com/nkiryanov/festival/internal/service/auth"
	"github.com/nkiryanov/festival/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/festival/internal/service/cleanup"
	"github.com/nkiryanov/festival/internal/service/content"
	"github.com/nkiryanov/festival/internal/service/upload"
	"github.com/nkiryanov/festival/internal/service/user"
	"github.com/nkiryanov/festival/internal/storage"
	"github.com/nkiryanov/festival/internal/storage/localfs"
	"github.com/nkiryanov/festival/internal/storage/minio"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger  logger.Logger
	cleanup *cleanup.Coordinator

	// Released in reverse order on stop
	closers []func(ctx context.Context) error
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration. Err: %w", err)
	}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: logger}

	// Release what was acquired if initialization failed halfway
	defer func() {
		if err != nil {
			app.close(context.Background())
		}
	}()

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { pool.Close(); return nil })

	contentDB, err := mongo.New(ctx, c.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to mongo. Err: %w", err)
	}
	app.closers = append(app.closers, contentDB.Close)

	store, err := newStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error while initializing uploads storage. Err: %w", err)
	}

	limiter, healthChecks, err := app.newLoginLimiter(ctx, c)
	if err != nil {
		return nil, err
	}
	healthChecks = append(healthChecks,
		handlers.HealthCheck{Name: "postgres", Check: pool.Ping},
		handlers.HealthCheck{Name: "mongo", Check: contentDB.Ping},
	)

	// Initialize services
	pgStorage := postgres.NewStorage(pool)

	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{StrictRefresh: c.StrictRefresh}, tokenManager, pgStorage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	userService := user.NewService(auth.DefaultHasher, pgStorage.User())
	if c.AdminEmail != "" {
		admin, created, err := userService.EnsureAdmin(ctx, c.AdminEmail, c.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("error while creating admin. Err: %w", err)
		}
		if created {
			logger.Info("Admin account created", "user_id", admin.ID, "email", admin.Email)
		}
	}

	pipeline := upload.New(store, logger.WithGroup("upload"))
	app.cleanup = cleanup.New(pipeline, logger.WithGroup("cleanup"), cleanup.DefaultTimeout)

	contentServices := content.NewServices(content.Repos{
		Bands:      contentDB.Bands(),
		News:       contentDB.News(),
		Archives:   contentDB.Archives(),
		SiteAssets: contentDB.SiteAssets(),
	}, pipeline, app.cleanup)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	routerCfg := handlers.Config{
		Registry:     registry,
		HealthChecks: healthChecks,
	}
	if limiter != nil {
		routerCfg.LoginLimiter = limiter
	}

	app.Handler = handlers.NewRouter(
		handlers.Services{
			Auth:       authService,
			Users:      userService,
			Bands:      contentServices.Bands,
			News:       contentServices.News,
			Archives:   contentServices.Archives,
			SiteAssets: contentServices.SiteAssets,
			Uploads:    pipeline,
		},
		routerCfg,
		logger,
	)

	return app, nil
}

func newStore(ctx context.Context, c *Config) (storage.Store, error) {
	switch c.StorageBackend {
	case StorageMinio:
		return minio.New(ctx, minio.Config{
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
		})
	default:
		return localfs.New(c.UploadsDir), nil
	}
}

// Redis token bucket if redis configured, nil limiter otherwise
func (app *ServerApp) newLoginLimiter(ctx context.Context, c *Config) (*ratelimit.TokenBucket, []handlers.HealthCheck, error) {
	if c.RedisAddr == "" {
		app.logger.Warn("Redis is not configured, login attempts are not limited")
		return nil, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}

	limiter, err := ratelimit.NewTokenBucket(rdb, ratelimit.Config{
		Capacity:       c.LoginRateLimit,
		RefillTokens:   c.LoginRateLimit,
		RefillInterval: time.Minute,
		Prefix:         "festival:login",
	})
	if err != nil {
		return nil, nil, err
	}

	check := handlers.HealthCheck{
		Name:  "redis",
		Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	return limiter, []handlers.HealthCheck{check}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (app *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              app.ListenAddr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			app.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		app.logger.Info("HTTP server stopped")

		// Requests are done, let their asset cleanups finish before storage is gone
		app.cleanup.Wait()
		app.close(timeoutCtx)

		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	app.logger.Info("Starting server", "address", app.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

func (app *ServerApp) close(ctx context.Context) {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			app.logger.Warn("Failed to release resource", "error", err)
		}
	}
	app.closers = nil
}
