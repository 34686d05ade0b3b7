package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"hours-ledger/internal/cache"
	"hours-ledger/internal/config"
	"hours-ledger/internal/database"
	"hours-ledger/internal/store"
	"hours-ledger/internal/worker"
)

func restoreGlobals() {
	loadConfig = config.Load
	newPgxPool = database.NewPgxPool
	newRedisClient = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	loadSeedFile = store.LoadSeedFile
	startServer = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	newWorkerPool = worker.NewPool
	exitFunc = func(code int) {}
}

func memoryConfig() *config.Config {
	return &config.Config{
		Env:           "test",
		LogLevel:      "error",
		HTTPAddr:      ":0",
		Store:         config.StoreConfig{Driver: config.DriverMemory, Timeout: time.Second},
		JWTSecret:     "s",
		LockTTL:       time.Second,
		Location:      time.UTC,
		ReportWorkers: 1,
	}
}

func postgresConfig() *config.Config {
	cfg := memoryConfig()
	cfg.Store.Driver = config.DriverPostgres
	cfg.Store.DatabaseURL = "db"
	cfg.Store.Migrate = true
	cfg.Redis = config.RedisConfig{Addr: "127", Password: "pw", DB: 1}
	return cfg
}

func routes(e *echo.Echo) map[string]bool {
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	return got
}

func TestCustomValidator(t *testing.T) {
	cv := &CustomValidator{validator: validator.New()}
	type s struct {
		Name string `validate:"required"`
	}
	require.NoError(t, cv.Validate(&s{Name: "ok"}))
	require.Error(t, cv.Validate(&s{}))
}

func TestRunPostgres(t *testing.T) {
	t.Cleanup(restoreGlobals)
	called := make(map[string]bool)
	loadConfig = func() (*config.Config, error) { return postgresConfig(), nil }
	newPgxPool = func(ctx context.Context, url string) (database.DB, error) {
		called["pgx"] = true
		require.Equal(t, "db", url)
		return &database.FakeDB{CloseFn: func() { called["dbClose"] = true }}, nil
	}
	newRedisClient = func(_ context.Context, addr, pwd string, db int) (cache.Cache, error) {
		called["redis"] = true
		require.Equal(t, "127", addr)
		require.Equal(t, "pw", pwd)
		require.Equal(t, 1, db)
		return &cache.FakeCache{CloseFn: func() error { called["redisClose"] = true; return nil }}, nil
	}
	runMigrationsFn = func(url string) error { called["migrate"] = true; return nil }
	startServer = func(e *echo.Echo, addr string) error {
		called["start"] = true
		require.Equal(t, ":0", addr)
		got := routes(e)
		require.True(t, got["GET /metrics"])
		require.True(t, got["GET /swagger/*"])
		require.True(t, got["POST /api/entries"])
		return nil
	}

	require.NoError(t, run())
	for _, k := range []string{"pgx", "redis", "migrate", "start", "dbClose", "redisClose"} {
		require.True(t, called[k], k)
	}
}

func TestRunMemoryWithSeed(t *testing.T) {
	t.Cleanup(restoreGlobals)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
users:
  - {id: carol, name: Carol, role: manager}
  - {id: alice, name: Alice, role: employee, manager_id: carol}
projects:
  - {id: P1, name: Platform}
`), 0o600))

	cfg := memoryConfig()
	cfg.Store.SeedFile = path
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	newPgxPool = func(context.Context, string) (database.DB, error) {
		t.Fatal("memory store must not dial postgres")
		return nil, nil
	}
	runMigrationsFn = func(string) error { t.Fatal("memory store must not migrate"); return nil }
	newRedisClient = func(context.Context, string, string, int) (cache.Cache, error) {
		t.Fatal("redis not configured")
		return nil, nil
	}
	started := false
	startServer = func(*echo.Echo, string) error { started = true; return nil }

	require.NoError(t, run())
	require.True(t, started)
}

func TestRunErrors(t *testing.T) {
	t.Cleanup(restoreGlobals)

	loadConfig = func() (*config.Config, error) { return nil, errors.New("config") }
	require.ErrorContains(t, run(), "config")

	loadConfig = func() (*config.Config, error) { return postgresConfig(), nil }
	runMigrationsFn = func(string) error { return errors.New("migrate") }
	require.ErrorContains(t, run(), "migrate")

	runMigrationsFn = func(string) error { return nil }
	newPgxPool = func(context.Context, string) (database.DB, error) { return nil, errors.New("db") }
	require.ErrorContains(t, run(), "db")

	newPgxPool = func(context.Context, string) (database.DB, error) { return &database.FakeDB{CloseFn: func() {}}, nil }
	newRedisClient = func(context.Context, string, string, int) (cache.Cache, error) { return nil, errors.New("redis") }
	require.ErrorContains(t, run(), "redis")

	newRedisClient = func(context.Context, string, string, int) (cache.Cache, error) {
		return &cache.FakeCache{
			CloseFn: func() error { return nil },
			PingFn:  func(ctx context.Context) *redis.StatusCmd { return redis.NewStatusResult("PONG", nil) },
		}, nil
	}
	startServer = func(*echo.Echo, string) error { return errors.New("start") }
	require.ErrorContains(t, run(), "start")

	cfg := memoryConfig()
	cfg.Store.SeedFile = "missing.yaml"
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	require.ErrorContains(t, run(), "seed")
}

func TestMainExit(t *testing.T) {
	t.Cleanup(restoreGlobals)
	exitCode := 0
	exitFunc = func(code int) { exitCode = code }
	loadConfig = func() (*config.Config, error) { return nil, errors.New("fail") }
	main()
	require.Equal(t, 1, exitCode)
}
