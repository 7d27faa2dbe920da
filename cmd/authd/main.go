package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pathfinders/auth-service/pkg/api"
	"github.com/pathfinders/auth-service/pkg/auth"
	"github.com/pathfinders/auth-service/pkg/cache"
	"github.com/pathfinders/auth-service/pkg/config"
	"github.com/pathfinders/auth-service/pkg/mailer"
	"github.com/pathfinders/auth-service/pkg/middleware"
	"github.com/pathfinders/auth-service/pkg/observability"
	"github.com/pathfinders/auth-service/pkg/service"
	"github.com/pathfinders/auth-service/pkg/users"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.Observability.LogLevel), os.Stdout)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		logger.WithError(err).Error("failed to connect to postgres")
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := users.RunMigrations(migrateCtx, db); err != nil {
		cancel()
		logger.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}
	cancel()

	store := users.NewPostgresStore(db)

	sessionCache, cachePinger := buildCache(cfg.Cache, logger)
	defer sessionCache.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	issuer := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	svc := service.NewService(store, sessionCache, issuer, buildMailer(cfg.Mail), logger, metrics, cfg.Auth)
	guard := middleware.NewSessionGuard(issuer, store, sessionCache, logger, metrics)
	health := observability.NewHealthChecker(db, cachePinger)

	server := api.NewServer(cfg, svc, guard, health, logger, metrics, registry)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := svc.PurgeExpiredResetTokens(ctx); err != nil {
			logger.WithError(err).Warn("reset token purge failed")
		}
	}); err != nil {
		logger.WithError(err).Error("failed to schedule reset token purge")
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Pool gauges feed /metrics between scrapes
	go pollDBStats(db, metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("server exited")
			os.Exit(1)
		}
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}

// openDatabase connects to the credential store. Unlike the cache, the store
// is required: a failed ping here aborts startup.
func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// buildCache returns the configured session cache, or the no-op cache when
// no backend is set. The second return is the health probe target; nil means
// the readiness check skips the cache entirely.
func buildCache(cfg config.CacheConfig, logger *observability.Logger) (cache.SessionCache, observability.Pinger) {
	if !cfg.Enabled() {
		logger.Warn("no redis URL configured, rate limiting and token blacklist disabled")
		return cache.NewNoopCache(), nil
	}

	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		// Only a malformed URL lands here; an unreachable backend does not
		logger.WithError(err).Warn("invalid redis configuration, continuing without cache")
		return cache.NewNoopCache(), nil
	}

	return redisCache, redisCache
}

func buildMailer(cfg config.MailConfig) mailer.Mailer {
	if cfg.SMTPAddr == "" {
		return mailer.NewLogMailer(nil)
	}
	return mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.From)
}

func pollDBStats(db *sql.DB, metrics *observability.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := db.Stats()
		metrics.DBConnectionsActive.Set(float64(stats.InUse))
		metrics.DBConnectionsIdle.Set(float64(stats.Idle))
	}
}
