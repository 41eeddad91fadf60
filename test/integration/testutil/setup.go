//go:build integration

package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/attaboy/bonusvalue/internal/app"
	"github.com/attaboy/bonusvalue/internal/auth"
	"github.com/attaboy/bonusvalue/internal/infra"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TestJWTSecret    = "integration-test-secret-integration-test"
	TestIngestSecret = "integration-ingest-secret-integration"
	TestDBHost       = "localhost"
	TestDBPort       = 5435
	TestDBUser       = "bonusvalue"
	TestDBPass       = "bonusvalue"
	TestDBName       = "bonusvalue_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server    *httptest.Server
	Pool      *pgxpool.Pool
	JWTMgr    *auth.JWTManager
	IngestMgr *auth.IngestTokenManager
	Services  *app.Services
	t         *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "bonusvalue")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		_, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName))
		if err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}

	return nil
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}

		quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
		if err := infra.RunMigrations(testDSN(), "", quiet); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

// NewTestEnv creates a test environment with an httptest.Server backed by the real router and test DB.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)

	cfg := &infra.Config{
		JWTSecret:          TestJWTSecret,
		DefaultBudget:      100,
		RecommendLimit:     3,
		RateLimitPerMinute: 1000,
		IdempotencyTTL:     time.Hour,
		CORSAllowedOrigins: "*",
	}
	jwtMgr := auth.NewJWTManager(TestJWTSecret, 8*time.Hour)
	ingestMgr := auth.NewIngestTokenManager(TestIngestSecret, time.Hour)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	svcs := app.NewServices(pool, cfg, jwtMgr, logger)
	router := app.NewRouter(app.RouterDeps{
		Pool:      pool,
		Config:    cfg,
		JWTMgr:    jwtMgr,
		IngestMgr: ingestMgr,
		Logger:    logger,
	}, svcs)

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server:    server,
		Pool:      pool,
		JWTMgr:    jwtMgr,
		IngestMgr: ingestMgr,
		Services:  svcs,
		t:         t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}
