package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-printshop/internal/catalog"
	"github.com/noah-isme/backend-printshop/internal/config"
	"github.com/noah-isme/backend-printshop/internal/health"
	"github.com/noah-isme/backend-printshop/internal/obs"
	"github.com/noah-isme/backend-printshop/internal/pricing"
	"github.com/noah-isme/backend-printshop/internal/quote"
	"github.com/noah-isme/backend-printshop/internal/rateconfig"
	"github.com/noah-isme/backend-printshop/internal/ratelimit"
	"github.com/noah-isme/backend-printshop/internal/resilience"
	"github.com/noah-isme/backend-printshop/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "printshop-pricing",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	rates, err := rateconfig.Load(cfg.RatesFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.RatesFile).Msg("load rate tables")
	}
	rateStore, err := pricing.NewStore(rates)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate store")
	}
	obs.SetRatesVersion(rates.Version())
	logger.Info().Str("version", rates.Version()).Str("currency", rates.Currency()).Msg("rate tables loaded")

	reloader := &rateconfig.Reloader{Path: cfg.RatesFile, Store: rateStore, Logger: logger}
	if cfg.RatesWatch {
		watcher, err := reloader.Watch()
		if err != nil {
			logger.Fatal().Err(err).Msg("watch rate file")
		}
		defer func() { _ = watcher.Unwatch() }()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var pool *pgxpool.Pool
	var source catalog.Source
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse database config")
		}
		poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = "printshop-pricing"

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("ping database")
		}
		pgSource, err := catalog.NewPostgresSource(pool)
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise catalog")
		}
		breaker := resilience.NewBreaker(resilience.Config{Target: "catalog_postgres", Logger: logger})
		guarded, err := catalog.NewBreakerSource(pgSource, breaker)
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise catalog breaker")
		}
		source = guarded
	} else {
		memSource, err := catalog.NewMemorySource(catalog.SeedProducts()...)
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise seed catalog")
		}
		source = memSource
		logger.Warn().Msg("DATABASE_URL not set; serving the seed catalog")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
		if cfg.Obs.EnablePrometheus {
			if err := redisotel.InstrumentMetrics(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis metrics")
			}
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("ping redis")
		}
		cached, err := catalog.NewCachedSource(source, catalog.NewCache(redisClient, cfg.CatalogCacheTTL), logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise catalog cache")
		}
		source = cached
	}

	quoteSvc, err := quote.NewService(quote.ServiceConfig{
		Catalog: source,
		Engine:  pricing.NewEngine(rateStore),
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise quote service")
	}
	quoteHandler := quote.NewHandler(quote.HandlerConfig{Service: quoteSvc, MaxBodyBytes: cfg.HTTPMaxBodyBytes})

	limiterStore, err := ratelimit.NewStore(optionalRedis(redisClient), "ratelimit:quote")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	quoteLimiter, err := ratelimit.New(limiterStore, cfg.QuoteRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	limit := ratelimit.Handler{
		Limiter: quoteLimiter,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.EnableHSTS, NoStore: true}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if httpMetrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.EnablePprof {
		r.Mount("/debug", protectPprof(middleware.Profiler(), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	deps := health.Dependencies{}
	if pool != nil {
		deps.DB = pool
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}
	healthHandler := health.Handler{
		Checker:      deps,
		DBTimeout:    cfg.Obs.ReadyDBTimeout,
		RedisTimeout: cfg.Obs.ReadyRedisTimeout,
		RatesVersion: func() string { return rateStore.Current().Version() },
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limit.Middleware)
		quoteHandler.Routes(v)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	waitForShutdown(logger, signals, serveErr, reloader, cfg.RatesFile != "")

	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

// waitForShutdown blocks until a termination signal arrives or the server
// fails. SIGHUP reloads the rate file and keeps serving.
func waitForShutdown(logger zerolog.Logger, signals <-chan os.Signal, serveErr <-chan error, reloader *rateconfig.Reloader, canReload bool) {
	for {
		select {
		case err, ok := <-serveErr:
			if ok && err != nil {
				logger.Error().Err(err).Msg("server exited unexpectedly")
			}
			return
		case sig := <-signals:
			if sig != syscall.SIGHUP {
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
				return
			}
			if !canReload {
				logger.Warn().Msg("SIGHUP ignored: PRICING_RATES_FILE not set")
				continue
			}
			_, _ = reloader.Reload()
		}
	}
}

func optionalRedis(c *redis.Client) redis.UniversalClient {
	if c == nil {
		return nil
	}
	return c
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || user == "" || pass == "" || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
