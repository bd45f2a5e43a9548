package router

import (
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/auth"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/config"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/logger"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/handler"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handlers are the endpoints of the dues API
type Handlers struct {
	System       *handler.SystemHandler
	Transactions *handler.TransactionHandler
	Obligations  *handler.ObligationHandler
	Agreements   *handler.AgreementHandler
	Callbacks    *handler.PaymentCallbackHandler
}

// Config wires the engine and its middleware chain
type Config struct {
	Handlers    Handlers
	JWTService  *auth.JWTService
	HTTP        config.HTTPConfig
	Logger      *zap.Logger
	ServiceName string

	TracingEnabled bool
	TracerProvider trace.TracerProvider
	MetricsEnabled bool
	MeterProvider  *telemetry.MeterProvider
}

// NewEngine builds the gin engine with every dues route mounted. The returned
// stop func releases the rate limiter and must be called on shutdown.
func NewEngine(cfg Config) (*gin.Engine, func(), error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, nil, err
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	engine.Use(
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			Enabled:        cfg.TracingEnabled,
			TracerProvider: cfg.TracerProvider,
		}),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: cfg.MeterProvider,
			Enabled:       cfg.MetricsEnabled,
			Logger:        log,
		}),
	)

	h := cfg.Handlers
	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	jwtCfg := middleware.DefaultJWTConfig(cfg.JWTService)
	jwtCfg.Logger = log
	chain := []gin.HandlerFunc{
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.SpanEnricher(),
	}
	stop := func() {}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		chain = append(chain, middleware.RateLimit(limiter))
		stop = limiter.Stop
	}

	NewRouter(engine, WithMiddleware(chain...)).
		Register(DuesRoutes(h)...).
		Setup()
	return engine, stop, nil
}

// DuesRoutes returns the route groups of the dues API. Reviews, settlements,
// fines, charge projection and agreements are reserved for operators.
func DuesRoutes(h Handlers) []RouteRegistrar {
	admin := middleware.RequireRole(auth.RoleAdmin)

	transactions := NewDomainGroup("transactions", "/transactions").
		POST("", h.Transactions.Create).
		GET("", h.Transactions.List).
		POST("/evidence-url", h.Transactions.RequestEvidenceUpload).
		GET("/:id", h.Transactions.Get).
		GET("/:id/evidence", h.Transactions.GetEvidence).
		POST("/:id/processing", admin, h.Transactions.MarkProcessing).
		POST("/:id/approve", admin, h.Transactions.Approve).
		POST("/:id/reject", admin, h.Transactions.Reject)

	obligations := NewDomainGroup("obligations", "/obligations").
		GET("", h.Obligations.List).
		POST("/settle", admin, h.Obligations.Settle).
		PATCH("/:id/status", admin, h.Obligations.SetStatus)

	fines := NewDomainGroup("fines", "/fines").
		POST("", admin, h.Obligations.IssueFine)

	charges := NewDomainGroup("periodic-charges", "/periodic-charges").
		POST("/ensure", admin, h.Obligations.EnsureCharge)

	agreements := NewDomainGroup("agreements", "/agreements").
		POST("", admin, h.Agreements.Build).
		GET("/:id", h.Agreements.Get)

	payments := NewDomainGroup("payments", "/payments").
		POST("/callback", h.Callbacks.Handle)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	return []RouteRegistrar{transactions, obligations, fines, charges, agreements, payments, system}
}
