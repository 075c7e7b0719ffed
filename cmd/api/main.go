package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/fleetreg/internal/cache"
	"github.com/geocoder89/fleetreg/internal/config"
	"github.com/geocoder89/fleetreg/internal/domain/registration"
	httpx "github.com/geocoder89/fleetreg/internal/http"
	"github.com/geocoder89/fleetreg/internal/http/handlers"
	"github.com/geocoder89/fleetreg/internal/notifications"
	"github.com/geocoder89/fleetreg/internal/observability"
	"github.com/geocoder89/fleetreg/internal/service"
	"github.com/geocoder89/fleetreg/internal/validation"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const serviceName = "fleetreg"

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fleetreg stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validation.Init()

	shutdownTracer, err := observability.InitTracer(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	checks := map[string]handlers.Check{}

	store, closeStore, err := openStore(ctx, cfg, prom, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	rateStore, closeRate := openRateStore(cfg, log, checks)
	defer closeRate()

	awsCfg, err := loadAWS(ctx, cfg)
	if err != nil {
		return err
	}

	presigner := buildPresigner(cfg, awsCfg, log)

	notifier, transport, closeNotifier, err := buildNotifier(cfg, awsCfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	dispatcher := notifications.NewDispatcher(
		notifications.NewProtectedNotifier(notifier, notifications.ProtectedNotifierConfig{Timeout: cfg.NotifyTimeout}),
		notifications.DispatcherConfig{
			Transport:    transport,
			Buffer:       cfg.NotifyBuffer,
			Workers:      cfg.NotifyWorkers,
			MaxAttempts:  cfg.NotifyMaxAttempts,
			DrainTimeout: cfg.NotifyDrain,
		},
		log,
		prom,
	)

	var readCache *cache.Cache[registration.Registration]
	opts := []service.Option{service.WithLogger(log), service.WithProm(prom)}
	if cfg.ReadCacheTTL > 0 {
		readCache = cache.New[registration.Registration](cfg.ReadCacheTTL)
		opts = append(opts, service.WithReadCache(readCache))
	}
	svc := service.NewRegistrations(store, dispatcher, presigner, opts...)

	router := httpx.NewRouter(httpx.RouterDeps{
		Env:            cfg.Env,
		ServiceName:    serviceName,
		Log:            log,
		Prom:           prom,
		Gatherer:       reg,
		Registrations:  svc,
		Checks:         checks,
		Stats:          func() any { return dispatcher.Stats() },
		RateStore:      rateStore,
		RateLimit:      cfg.RateLimitPerMinute,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		AllowedOrigins: cfg.CORSOrigins(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// the dispatcher outlives the server so in-flight requests can still publish
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	defer stopDispatch()

	g := new(errgroup.Group)

	g.Go(func() error {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.Storage, "notify_transport", transport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stop()
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})

	if readCache != nil {
		g.Go(func() error {
			readCache.Run(ctx)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("server shutting down")

		sctx, cancel := config.WithTimeout(cfg.ShutdownTimeout)
		defer cancel()
		defer stopDispatch()

		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
