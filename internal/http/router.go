package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/authhub/internal/config"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "authhub"

// credential payloads are a few hundred bytes
const maxBodyBytes = 16 << 10

type Dependencies struct {
	Config config.Config
	Auth   handlers.Authenticator
	Tokens middlewares.TokenVerifier

	// Ready reports whether the credential store is reachable. Optional.
	Ready func(ctx context.Context) error

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Limiter backs the /login and /register rate limits. Nil disables them.
	Limiter middlewares.LimitStore
}

func NewRouter(log *slog.Logger, deps Dependencies) *gin.Engine {
	if deps.Config.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	// ops
	h := handlers.NewHealthHandler(deps.Ready)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.GET("/", handlers.Index(serviceName, r.Routes))

	// public auth routes
	authHandler := handlers.NewAuthHandler(deps.Auth, log)

	public := r.Group("/", middlewares.RequireJSON())
	if deps.Limiter != nil {
		rl := middlewares.NewRateLimiter(deps.Limiter, deps.Config.RateLimitPerMinute, time.Minute, deps.Prom, log)
		public.Use(rl.RateLimiterMiddleware(middlewares.KeyByIP))
	}

	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)

	// protected routes
	authMW := middlewares.NewAuthMiddleware(deps.Tokens, deps.Prom)
	r.GET("/protected", authMW.RequireAuth(), handlers.Protected)

	return r
}
