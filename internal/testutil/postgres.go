package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/persistence"
)

var (
	errMissingDSN   = errors.New("missing TEST_POSTGRES_DSN")
	errMissingRedis = errors.New("missing TEST_REDIS_ADDR")
)

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error

	redisOnce sync.Once
	rdb       *redis.Client
	redisErr  error
)

// Pool returns a migrated pool shared by the test binary, or skips the test.
func Pool(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	poolOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			poolErr = errMissingDSN
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, poolErr = pgxpool.New(ctx, dsn)
		if poolErr != nil {
			return
		}
		poolErr = persistence.RunMigrations(ctx, pool, migrationsDir(), zap.NewNop())
	})

	if errors.Is(poolErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if poolErr != nil {
		tb.Fatalf("failed to init test db: %v", poolErr)
	}
	return pool
}

// Redis returns a client for TEST_REDIS_ADDR, or skips the test.
func Redis(tb testing.TB) *redis.Client {
	tb.Helper()

	redisOnce.Do(func() {
		addr := os.Getenv("TEST_REDIS_ADDR")
		if addr == "" {
			redisErr = errMissingRedis
			return
		}
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		redisErr = rdb.Ping(ctx).Err()
	})

	if errors.Is(redisErr, errMissingRedis) {
		tb.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	if redisErr != nil {
		tb.Fatalf("failed to reach test redis: %v", redisErr)
	}
	return rdb
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
