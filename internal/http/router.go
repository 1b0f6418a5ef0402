// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, visitor identity, idempotency, and
// rate limiting.
//
// Routes:
//   - /health, /metrics, /swagger/*any (optional)
//   - GET|POST /api/sync             (bearer-protected sync trigger)
//   - <APIBasePath>/...              (public meal plan API)
package httpapi

import (
	"context"
	"errors"
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

	"github.com/speisly/mensa-api/docs"
	"github.com/speisly/mensa-api/internal/config"
	"github.com/speisly/mensa-api/internal/http/handlers"
	"github.com/speisly/mensa-api/internal/http/middleware"
	"github.com/speisly/mensa-api/internal/notify"
	"github.com/speisly/mensa-api/internal/repo"
	"github.com/speisly/mensa-api/internal/search"
	"github.com/speisly/mensa-api/internal/services"
)

// App carries the long-lived dependencies shared with the rest of the
// process (the sync service is also driven by the scheduler).
type App struct {
	DB       *gorm.DB
	Index    search.Index
	Sync     handlers.SyncRunner
	Notifier notify.Notifier
}

var (
	corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "ETag", "Idempotency-Replayed", "Retry-After"}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. gzip
//  8. CORS and Security headers
//
// The public API group adds visitor identity, idempotency validation and the
// rate limiter, in that order, so replays can bypass the limiter.
func RegisterRoutes(r *gin.Engine, app App, cfg config.Config) error {
	visitors, err := services.NewVisitorService(app.DB, cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm, cfg.Auth.UserTokenTTL)
	if err != nil {
		return fmt.Errorf("visitor service: %w", err)
	}

	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(handlers.Deps{
		Meals:          services.NewMealService(app.DB, app.Index),
		Ratings:        services.NewRatingService(app.DB),
		Forms:          services.NewFeedbackService(app.DB, app.Notifier),
		Visitors:       visitors,
		Sync:           app.Sync,
		DB:             app.DB,
		IdempotencyTTL: cfg.IdempotencyTTL,
		SyncToken:      cfg.Auth.APIBearerToken,
		SecureCookie:   cfg.Auth.SecureCookie,
	})

	// Sync trigger keeps its fixed path regardless of APIBasePath.
	r.GET("/api/sync", h.Sync)
	r.POST("/api/sync", h.Sync)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByVisitorOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Visitor(services.VisitorCookieName, visitors))
	api.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idempotencyLookup(app.DB)))
	api.Use(rl.Handler())
	{
		// Meal plan
		api.GET("/mensen", h.ListMensen)
		api.GET("/meals", h.ListMeals)
		api.GET("/meals/search", h.SearchMeals)
		api.GET("/meals/:id", h.GetMeal)
		api.GET("/meals/:id/availability", h.GetAvailability)

		// Ratings
		rating := api.Group("/meals/:id/rating", middleware.NoStore())
		rating.GET("", h.GetRating)
		rating.PUT("", h.PutRating)
		rating.DELETE("", h.DeleteRating)

		// Forms
		api.POST("/feedback", h.SubmitFeedback)
		api.POST("/contact", h.SubmitContact)
	}
	return nil
}

// corsMiddleware allows every origin without credentials when no allowlist
// is configured. With an allowlist, credentials are allowed so the visitor
// cookie reaches cross-origin frontends.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even without an Origin header (health checks, tests).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     corsMethods,
				AllowHeaders:     corsHeaders,
				ExposeHeaders:    corsExpose,
				AllowCredentials: false,
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// idempotencyLookup reports stored, unexpired results. A missing record is
// not an error; store failures are passed up to be logged.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, subject, scope, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, subject, scope, key, now)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		default:
			return false, fmt.Errorf("idempotency lookup: %w", err)
		}
	}
}

// limitBody caps the request body size to maxBytes using
// http.MaxBytesReader. Requests exceeding the cap fail on read.
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
