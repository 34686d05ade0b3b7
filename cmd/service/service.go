package main

import (
	"context"
	"fmt"
	"os"

	"hours-ledger/internal/cache"
	"hours-ledger/internal/config"
	"hours-ledger/internal/database"
	"hours-ledger/internal/hierarchy"
	"hours-ledger/internal/logger"
	"hours-ledger/internal/middleware"
	"hours-ledger/internal/policy"
	"hours-ledger/internal/router"
	"hours-ledger/internal/service"
	"hours-ledger/internal/store"
	"hours-ledger/internal/timerecord"
	"hours-ledger/internal/worker"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	_ "hours-ledger/docs" // 引入 swag 的 docs

	echoSwagger "github.com/swaggo/echo-swagger"
)

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var (
	loadConfig      = config.Load
	newPgxPool      = database.NewPgxPool
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	loadSeedFile    = store.LoadSeedFile
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	newWorkerPool   = worker.NewPool
	exitFunc        = os.Exit
)

// backend 是可被 seed 的儲存後端
type backend interface {
	store.Store
	store.Seeder
}

func openStore(ctx context.Context, cfg *config.Config) (backend, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		return store.NewMemory(), func() {}, nil
	}

	if cfg.Store.Migrate {
		if err := runMigrationsFn(cfg.Store.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("Migration 執行失敗: %w", err)
		}
	}
	db, err := newPgxPool(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("DB 連線失敗: %w", err)
	}
	return store.NewPostgres(db), db.Close, nil
}

func newEcho(lg zerolog.Logger, debug bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.Debug = debug
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(lg))
	e.Use(middleware.Metrics)
	return e
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("載入設定失敗: %w", err)
	}
	lg := logger.New(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})
	ctx := lg.WithContext(context.Background())

	db, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if cfg.Store.SeedFile != "" {
		seed, err := loadSeedFile(cfg.Store.SeedFile)
		if err != nil {
			return fmt.Errorf("讀取 seed 失敗: %w", err)
		}
		if err := seed.Apply(ctx, db); err != nil {
			return fmt.Errorf("套用 seed 失敗: %w", err)
		}
		lg.Info().Str("file", cfg.Store.SeedFile).Int("users", len(seed.Users)).Int("projects", len(seed.Projects)).Msg("seed applied")
	}

	var rdb cache.Cache
	var locker cache.Locker = cache.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb, err = newRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("Redis 連線失敗: %w", err)
		}
		defer rdb.Close()
		locker = cache.NewRedisLocker(rdb, cfg.LockTTL)
	} else if cfg.Store.Driver == config.DriverPostgres {
		lg.Warn().Msg("REDIS_ADDR not set, entry locks only cover this process")
	}

	st := store.WithTimeout(db, cfg.Store.Timeout)
	records := timerecord.New(st, locker, policy.NewAuthorizer(st), timerecord.Options{Location: cfg.Location})

	wp := newWorkerPool(cfg.ReportWorkers)
	defer wp.Stop()
	ledger := service.NewLedger(records, hierarchy.NewResolver(st)).WithRenderer(wp)

	e := newEcho(lg, cfg.Env == "development")
	router.Setup(e, router.Deps{
		Ledger:    ledger,
		Store:     st,
		Cache:     rdb,
		JWTSecret: cfg.JWTSecret,
	})
	e.GET(middleware.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	lg.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store.Driver).Msg("starting server")
	return startServer(e, cfg.HTTPAddr)
}
