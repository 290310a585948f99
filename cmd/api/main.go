package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"pawfect-match/internal/adapters/auth/introspect"
	"pawfect-match/internal/adapters/auth/jwtverifier"
	"pawfect-match/internal/adapters/geocoding/rediscache"
	pg "pawfect-match/internal/adapters/storage/postgres"
	"pawfect-match/internal/config"
	"pawfect-match/internal/middleware"
	"pawfect-match/internal/platform/logger"
	"pawfect-match/internal/ports/auth"
	"pawfect-match/internal/router"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if zl, ok := log.(*logger.ZapLogger); ok {
		defer func() { _ = zl.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := openDB(cfg, log)
	if db != nil {
		defer db.Close()
	}
	rdb := openRedis(ctx, cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	verifier, err := buildVerifier(cfg)
	if err != nil {
		log.Error("auth verifier", map[string]any{"err": err})
		os.Exit(1)
	}
	if verifier == nil {
		log.Warn("no JWT_SECRET or AUTH_INTROSPECT_URL: dev mode, identity from X-Debug-User-ID", nil)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{PerMinute: cfg.RateLimitPerMinute}, log)
	defer rl.Stop()

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Redis:        rdb,
		RateLimiter:  rl,
		Config:       cfg,
		Logger:       log,
		Registry:     reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		// sin WriteTimeout: cortaría las conexiones websocket
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "postgres": db != nil, "redis": rdb != nil})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"err": err})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", map[string]any{"err": err})
	}
}

// openDB: sin DB_DSN corre in-memory.
func openDB(cfg *config.Config, log logger.Logger) *sql.DB {
	if cfg.DBDSN == "" {
		log.Info("DB_DSN not set, using in-memory storage", nil)
		return nil
	}
	if cfg.DBMigrate {
		if err := pg.RunMigrations(cfg.DBDSN); err != nil {
			log.Error("migrations failed", map[string]any{"err": err})
			os.Exit(1)
		}
	}
	db, err := pg.Open(cfg.DBDSN)
	if err != nil {
		log.Error("postgres unavailable", map[string]any{"err": err})
		os.Exit(1)
	}
	return db
}

// openRedis: Redis es opcional; si falla el geocoding va directo al upstream.
func openRedis(ctx context.Context, cfg *config.Config, log logger.Logger) *redis.Client {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rdb, err := rediscache.Open(pingCtx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, geocode cache disabled", map[string]any{"err": err})
		return nil
	}
	return rdb
}

func buildVerifier(cfg *config.Config) (auth.AuthVerifier, error) {
	switch {
	case cfg.JWTSecret != "":
		return jwtverifier.New(cfg.JWTSecret, ""), nil
	case cfg.AuthIntrospectURL != "":
		client, err := introspect.NewClient(introspect.Config{
			BaseURL: cfg.AuthIntrospectURL,
			APIKey:  cfg.AuthAPIKey,
		})
		if err != nil {
			return nil, err
		}
		return introspect.NewVerifier(client), nil
	default:
		return nil, nil
	}
}
