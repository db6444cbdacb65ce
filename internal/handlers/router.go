package handlers

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nkiryanov/festival/internal/handlers/middleware"
	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/ratelimit"
	"github.com/nkiryanov/festival/internal/service/content"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// Services the router dispatches to
type Services struct {
	Auth       authService
	Users      userService
	Bands      documentService[models.Band, content.BandInput]
	News       newsService
	Archives   documentService[models.ArchiveEntry, content.ArchiveInput]
	SiteAssets siteAssetsService
	Uploads    assetOpener
}

type Config struct {
	// Limits login attempts, no limit if nil
	LoginLimiter loginLimiter

	// Metrics are collected and served on /metrics if set
	Registry *prometheus.Registry

	// Max multipart image size, 10MiB if zero
	MaxUploadBytes int64

	HealthChecks []HealthCheck
}

type loginLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

func NewRouter(s Services, cfg Config, logger logger.Logger) http.Handler {
	if cfg.LoginLimiter == nil {
		cfg.LoginLimiter = middleware.NoLimit{}
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	withAuth := middleware.Auth(s.Auth)
	withAdmin := func(h http.Handler) http.Handler {
		return chain(h, withAuth, middleware.RequireRole(models.RoleAdmin))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/register", handleRegister(s.Auth, logger))
	mux.Handle("POST /api/auth/login", chain(handleLogin(s.Auth, logger), middleware.RateLimit(cfg.LoginLimiter, logger)))
	mux.Handle("POST /api/auth/refresh", handleTokenRefresh(s.Auth, logger))
	mux.Handle("GET /api/auth/me", withAuth(handleUserMe()))
	mux.Handle("POST /api/auth/logout", withAuth(handleLogout(s.Auth, logger)))
	mux.Handle("POST /api/auth/users", withAdmin(handleCreateUser(s.Users, logger)))

	bands := newBandsResource(s.Bands, logger, cfg.MaxUploadBytes)
	mux.Handle("GET /api/bands", bands.handleList())
	mux.Handle("GET /api/bands/{id}", bands.handleGet())
	mux.Handle("POST /api/bands", withAdmin(bands.handleCreate()))
	mux.Handle("PUT /api/bands/{id}", withAdmin(bands.handleUpdate()))
	mux.Handle("DELETE /api/bands/{id}", withAdmin(bands.handleDelete()))
	mux.Handle("POST /api/bands/{id}/image", withAdmin(bands.handleUploadImage()))

	news := newNewsResource(s.News, logger, cfg.MaxUploadBytes)
	mux.Handle("GET /api/news", news.handleList())
	mux.Handle("GET /api/news/all", withAdmin(news.handleListAll()))
	mux.Handle("GET /api/news/{id}", news.handleGet())
	mux.Handle("POST /api/news", withAdmin(news.handleCreate()))
	mux.Handle("PUT /api/news/{id}", withAdmin(news.handleUpdate()))
	mux.Handle("DELETE /api/news/{id}", withAdmin(news.handleDelete()))
	mux.Handle("POST /api/news/{id}/image", withAdmin(news.handleUploadImage()))

	archives := newArchivesResource(s.Archives, logger, cfg.MaxUploadBytes)
	mux.Handle("GET /api/archives", archives.handleList())
	mux.Handle("GET /api/archives/{id}", archives.handleGet())
	mux.Handle("POST /api/archives", withAdmin(archives.handleCreate()))
	mux.Handle("PUT /api/archives/{id}", withAdmin(archives.handleUpdate()))
	mux.Handle("DELETE /api/archives/{id}", withAdmin(archives.handleDelete()))
	mux.Handle("POST /api/archives/{id}/poster", withAdmin(archives.handleUploadImage()))

	mux.Handle("GET /api/site-assets", handleGetSiteAssets(s.SiteAssets, logger))
	mux.Handle("PUT /api/site-assets/{slot}", withAdmin(handleSetSiteAsset(s.SiteAssets, logger, cfg.MaxUploadBytes)))
	mux.Handle("DELETE /api/site-assets/{slot}", withAdmin(handleClearSiteAsset(s.SiteAssets, logger)))

	mux.Handle("GET /api/uploads/{dir}/{file}", handleServeUpload(s.Uploads, logger))
	mux.Handle("GET /api/health", handleHealth(cfg.HealthChecks, logger))

	mux.Handle("/api/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.ServiceError(w, "Route not found", http.StatusNotFound)
	}))

	mds := []func(http.Handler) http.Handler{middleware.LoggerMiddleware(logger)}

	if cfg.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{Registry: cfg.Registry}))
		mds = append(mds, middleware.NewMetrics(cfg.Registry).Middleware)
	}

	return chain(mux, mds...)
}
