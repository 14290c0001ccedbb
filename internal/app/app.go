// Package app boots the storefront service with database-backed components.
package app

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/merchflow/storefront/internal/catalog"
	"github.com/merchflow/storefront/internal/config"
	"github.com/merchflow/storefront/internal/db"
	internalhttp "github.com/merchflow/storefront/internal/http"
	"github.com/merchflow/storefront/internal/logging"
	"github.com/merchflow/storefront/internal/rulecache"
	"github.com/merchflow/storefront/internal/smartrule"
	"github.com/merchflow/storefront/internal/store"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs migrations.
func Migrate(_ context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the API server and blocks until ctx is canceled.
func RunServer(ctx context.Context, cfg *config.Config) error {
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	cache, errCache := buildCache(ctx, cfg.Redis)
	if errCache != nil {
		return errCache
	}

	ruleStore := store.NewGormRuleStore(conn)
	catalogStore := catalog.NewGormStore(conn)
	engine := smartrule.NewEngine(ruleStore, catalogStore, cache)
	rules := smartrule.NewRules(ruleStore, cache)

	router := internalhttp.BuildRouter(rules, engine)
	server := &nethttp.Server{
		Addr:              cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("app: listening on %s", cfg.Server.Listen)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, nethttp.ErrServerClosed) {
			errCh <- errServe
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		return fmt.Errorf("app: serve: %w", errServe)
	}
}

// buildCache selects the result cache backend. Without a Redis address the
// service runs with a process-local cache.
func buildCache(ctx context.Context, cfg config.RedisConfig) (rulecache.Cache, error) {
	if cfg.Addr == "" {
		log.Info("app: redis not configured, using in-memory rule cache")
		return rulecache.NewMemoryCache(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if errPing := client.Ping(pingCtx).Err(); errPing != nil {
		// The engine treats cache failures as misses, so a cold Redis only
		// costs performance at startup.
		log.Warnf("app: redis ping: %v", errPing)
	}

	return rulecache.NewRedisCache(client), nil
}
