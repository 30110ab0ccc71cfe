package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	portssvc "github.com/SscSPs/herd_ledger/internal/core/ports/services"
	"github.com/SscSPs/herd_ledger/internal/dto"
	"github.com/SscSPs/herd_ledger/internal/middleware"
	"github.com/SscSPs/herd_ledger/internal/platform/config"
)

// NewRouter builds the gin engine with global middleware and every route registered.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	services *portssvc.ServiceContainer,
	metricsHandler http.Handler,
) (*gin.Engine, error) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware (logging, recovery, cors)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID", middleware.ActorHeader},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	limiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	RegisterRoutes(r, services, metricsHandler, middleware.RateLimit(limiter))
	return r, nil
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	metricsHandler http.Handler,
	apiMiddleware ...gin.HandlerFunc,
) {
	// Add health check route
	r.GET("/health", getHealth)
	r.GET("/", getHome)

	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	// Setup API v1 routes
	setupAPIV1Routes(r, services, apiMiddleware...)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	apiMiddleware ...gin.HandlerFunc,
) {
	v1 := r.Group("/api/v1", append(apiMiddleware, middleware.ActorMiddleware())...)

	RegisterAssetRoutes(v1, services.Depreciation)
}

// RegisterValidators installs the custom binding tags on gin's validator engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return dto.RegisterValidators(v)
}
