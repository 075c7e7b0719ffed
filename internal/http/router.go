package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/fleetreg/internal/http/handlers"
	"github.com/geocoder89/fleetreg/internal/http/middlewares"
	"github.com/geocoder89/fleetreg/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterDeps struct {
	Env            string
	ServiceName    string
	Log            *slog.Logger
	Prom           *observability.Prom
	Gatherer       prometheus.Gatherer
	Registrations  handlers.RegistrationService
	Checks         map[string]handlers.Check
	Stats          func() any
	RateStore      middlewares.RateStore
	RateLimit      int
	MaxBodyBytes   int64
	AllowedOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.RateStore == nil {
		deps.RateStore = middlewares.NewMemoryRateStore()
	}
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(deps.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORS(deps.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.MaxBodyBytes))

	h := handlers.NewHealthHandler(deps.Checks, deps.Stats)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	limiter := middlewares.NewRateLimiter(deps.RateStore, deps.RateLimit, time.Minute, deps.Prom)
	writeLimit := limiter.Middleware(middlewares.KeyByIP)

	rh := handlers.NewRegistrationsHandler(deps.Registrations)

	v1 := r.Group("/api/v1/registrations")
	{
		v1.GET("/health", h.RegistrationsHealth)
		v1.POST("", writeLimit, middlewares.RequireJSON(), rh.Create)
		v1.GET("", rh.List)
		v1.GET("/:id", rh.GetByID)
		v1.POST("/:id/documents/upload-url", writeLimit, rh.IssueUploadURL)
	}

	return r
}
