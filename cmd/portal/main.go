package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/birthcare-portal/internal/apiclient"
	"github.com/jwalitptl/birthcare-portal/internal/calendar"
	"github.com/jwalitptl/birthcare-portal/internal/config"
	"github.com/jwalitptl/birthcare-portal/internal/crud"
	"github.com/jwalitptl/birthcare-portal/internal/handler/health"
	"github.com/jwalitptl/birthcare-portal/internal/handler/records"
	"github.com/jwalitptl/birthcare-portal/internal/handler/schedule"
	"github.com/jwalitptl/birthcare-portal/internal/middleware"
	"github.com/jwalitptl/birthcare-portal/internal/page"
	"github.com/jwalitptl/birthcare-portal/internal/resource"
	"github.com/jwalitptl/birthcare-portal/internal/router"
	"github.com/jwalitptl/birthcare-portal/pkg/logger"
	"github.com/jwalitptl/birthcare-portal/pkg/messaging"
	"github.com/jwalitptl/birthcare-portal/pkg/messaging/redis"
	"github.com/jwalitptl/birthcare-portal/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logg := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "birthcare-portal",
	})
	log.Logger = logg

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Metrics
	var reg *prometheus.Registry
	var m *metrics.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.NewMetrics(cfg.Monitoring.Namespace, reg)
	}

	// Clinic API
	client := apiclient.New(apiclient.Config{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		RetryCount:      cfg.API.RetryCount,
		RetryWait:       cfg.API.RetryWait,
		RetryMaxWait:    cfg.API.RetryMaxWait,
		BreakerFailures: cfg.API.BreakerFailures,
		BreakerTimeout:  cfg.API.BreakerTimeout,
	}, logg, m)
	visits := apiclient.NewVisits(client)
	source := calendar.NewCachedSource(visits, cfg.Calendar.CacheTTL, m, logg)

	// Visit events
	checks := map[string]health.Check{"api": client.Ready}
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		rb, err := redis.NewRedisBroker(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, logg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		checks["redis"] = rb.Ping
		broker = rb
	} else {
		broker = messaging.NewLocalBroker(logg)
	}
	defer broker.Close()

	if err := source.Watch(ctx, broker, messaging.ChannelVisitScheduled); err != nil {
		log.Fatal().Err(err).Msg("failed to watch visit events")
	}

	// Pages
	registry := page.NewRegistry(cfg.Pages.IdleTTL, m, logg)
	recordsH := records.NewHandler(resource.Kinds(), client, registry, crud.Config{
		Logger:   logg,
		Metrics:  m,
		Debounce: cfg.Pages.SearchDebounce,
	})
	scheduleH := schedule.NewHandler(source, visits, broker, registry, schedule.Config{
		Logger:     logg,
		Metrics:    m,
		Invalidate: source.Invalidate,
	})

	routerCfg := router.RouterConfig{
		Mode:          cfg.Server.Mode,
		SessionSecret: []byte(cfg.JWT.Secret),
		CookieName:    cfg.JWT.CookieName,
		Timeout:       cfg.Server.RequestTimeout,
		MetricsPrefix: cfg.Monitoring.Namespace + "_http",
		MetricsPath:   cfg.Monitoring.MetricsPath,
		Registry:      reg,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = &middleware.RateLimiterConfig{
			Rate:    rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: cfg.RateLimit.IdleTTL,
		}
	}
	r := router.NewRouter(routerCfg, health.NewHandler(checks), recordsH, scheduleH)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", cfg.API.BaseURL).Msg("starting portal")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	stop()
	registry.Close()

	log.Info().Msg("server exited")
}
