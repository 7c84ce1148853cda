// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// session authentication, CORS, security headers, idempotency, and rate
// limiting.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/briar-chapel-connect/docs"
	"github.com/tbourn/briar-chapel-connect/internal/auth"
	"github.com/tbourn/briar-chapel-connect/internal/config"
	"github.com/tbourn/briar-chapel-connect/internal/domain"
	"github.com/tbourn/briar-chapel-connect/internal/http/handlers"
	"github.com/tbourn/briar-chapel-connect/internal/http/middleware"
	"github.com/tbourn/briar-chapel-connect/internal/repo"
	"github.com/tbourn/briar-chapel-connect/internal/services"
	"github.com/tbourn/briar-chapel-connect/internal/storage"
)

// jsonBodyLimit caps JSON request bodies.
const jsonBodyLimit = 1 << 20

// idemStore adapts the repository idempotency functions to
// handlers.IdempotencyStore.
type idemStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Get proxies repo.GetIdempotency.
func (s idemStore) Get(ctx context.Context, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
}

// Save proxies repo.CreateIdempotency.
func (s idemStore) Save(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	return err
}

// Forget proxies repo.DeleteIdempotency.
func (s idemStore) Forget(ctx context.Context, userID, scope, key string) error {
	_, err := repo.DeleteIdempotency(ctx, s.db, userID, scope, key)
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with token scrubbing
//  4. Recovery: capture panics after logger
//  5. Authenticate: resolve the bearer session, if any
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS, security headers and gzip
//
// Body limits are applied per group: JSON routes get jsonBodyLimit, the
// upload routes get the configured file cap plus form overhead.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, ids auth.IdentityProvider, store storage.BlobStore) error {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(middleware.Authenticate(ids))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{
		"X-Request-ID", "Content-Length", "ETag",
		middleware.HeaderIdempotencyReplayed,
		"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:     cfg.Security.EnableHSTS,
		HSTSMaxAge:     cfg.Security.HSTSMaxAge,
		EnablePolicy:   true,
		PublicPrefixes: []string{"/media/"},
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/media/"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.Uploads.Backend == "local" {
		r.Static("/media", cfg.Uploads.Dir)
	}
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	uploadLimit, err := middleware.UploadLimiter(cfg.Uploads.Rate)
	if err != nil {
		return fmt.Errorf("httpapi: upload rate %q: %w", cfg.Uploads.Rate, err)
	}

	// Dependency injection: services ← repo/db/store
	gate := auth.NewGate(db)
	h := handlers.New(handlers.Services{
		Providers:   services.NewProviderService(db, gate),
		Marketplace: &services.MarketplaceService{DB: db, Gate: gate},
		Events:      &services.EventService{DB: db, Gate: gate},
		Groups:      &services.GroupService{DB: db, Gate: gate},
		Comments:    &services.CommentService{DB: db, Gate: gate},
		Reviews:     &services.ReviewService{DB: db, Gate: gate},
		Uploads:     &services.UploadService{Gate: gate, Store: store, MaxBytes: cfg.Uploads.MaxBytes},
		Idempotency: idemStore{db: db, ttl: cfg.IdempotencyTTL},
	}, !cfg.IsProduction())

	base := groupWithPrefix(r, cfg.APIBasePath)

	api := base.Group("", limitBody(jsonBodyLimit))
	{
		// Providers
		api.POST("/providers", h.CreateProvider)
		api.DELETE("/providers", h.DeleteProvider)
		api.GET("/providers", h.ListProviders)
		api.GET("/providers/search", h.SearchProviders)
		api.GET("/providers/:id", h.GetProvider)

		// Marketplace
		api.POST("/marketplace-items", h.CreateItem)
		api.DELETE("/marketplace-items", h.DeleteItem)
		api.GET("/marketplace-items", h.ListItems)
		api.GET("/marketplace-items/:id", h.GetItem)

		// Events
		api.POST("/events", h.CreateEvent)
		api.DELETE("/events", h.DeleteEvent)
		api.GET("/events", h.ListEvents)
		api.GET("/events/calendar", h.EventCalendar)
		api.GET("/events/categories", h.EventCategories)
		api.GET("/events/:id", h.GetEvent)

		// Groups
		api.POST("/groups", h.CreateGroup)
		api.DELETE("/groups", h.DeleteGroup)
		api.GET("/groups", h.ListGroups)
		api.GET("/groups/types", h.GroupTypes)
		api.GET("/groups/:id", h.GetGroup)

		// Comments
		api.GET("/comments", h.ListComments)
		api.GET("/comments/thread", h.CommentThread)
		api.POST("/comments", h.PostComment)
		api.DELETE("/comments", h.DeleteComment)

		// Reviews
		api.GET("/service-reviews", h.ListReviews)
		api.POST("/service-reviews", h.PostReview)
	}

	up := base.Group("/uploads", limitBody(cfg.Uploads.MaxBytes+jsonBodyLimit), uploadLimit)
	{
		up.POST("/comment-image", h.UploadCommentImage)
		up.POST("/provider-logo", h.UploadProviderLogo)
	}
	return nil
}

// limitBody returns a Gin middleware that caps the request body size to
// maxBytes using http.MaxBytesReader. Requests exceeding the cap cause
// downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
