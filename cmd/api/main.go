// @title Vet Clinic Records API
// @version 1.0
// @description Historia clínica de mascotas: vacunas, controles parasitarios y reporte de próximas dosis.
// @BasePath /
// @securityDefinitions.apikey BearerToken
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	pg "vet-clinic-records/internal/adapters/storage/postgres"
	"vet-clinic-records/internal/adapters/storage/redisstore"
	"vet-clinic-records/internal/config"
	"vet-clinic-records/internal/domain/sessions"
	"vet-clinic-records/internal/middleware"
	"vet-clinic-records/internal/platform/logger"
	"vet-clinic-records/internal/router"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(cfg.LoggerOptions())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.UsesPostgres() {
		if cfg.Database.AutoMigrate {
			version, err := pg.Migrate(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied", map[string]any{"version": version})
		}

		pool, err = pg.Open(ctx, pg.PoolConfig{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info("storage: postgres", nil)
	} else {
		log.Warn("storage: in-memory (DATABASE_URL not set), data is lost on restart", nil)
	}

	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb, err = redisstore.Open(ctx, redisstore.Config{URL: cfg.Redis.URL, PoolSize: cfg.Redis.PoolSize})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		log.Info("sessions: redis", nil)
	} else {
		log.Warn("sessions: in-memory (REDIS_URL not set)", nil)
	}

	handler, err := router.NewRouter(ctx, router.Options{
		Logger:     log,
		Pool:       pool,
		Redis:      rdb,
		SessionTTL: cfg.Session.TTL,
		Cookie: sessions.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		},
		BcryptCost: cfg.Security.BcryptCost,
		LoginLimit: middleware.LoginLimitConfig{
			Requests: cfg.RateLimit.LoginRequests,
			Window:   cfg.RateLimit.LoginWindow,
		},
		Bootstrap: router.BootstrapAdmin{
			Username: cfg.Bootstrap.AdminUsername,
			Email:    cfg.Bootstrap.AdminEmail,
			Password: cfg.Bootstrap.AdminPassword,
		},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "env": cfg.App.Environment})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down", map[string]any{"timeout": cfg.Server.ShutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped", nil)
	return nil
}
