// Package config reads the service settings from the environment (and an
// optional .env file) through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env      string
	LogLevel string
	HTTPAddr string

	Store StoreConfig
	Redis RedisConfig

	JWTSecret string
	// LockTTL is how long a per-entry write lock lives in Redis.
	LockTTL   time.Duration
	// Location decides which calendar day is "today" for future-date checks.
	Location  *time.Location

	// ReportWorkers caps concurrent report rendering.
	ReportWorkers int
}

type StoreConfig struct {
	Driver      string
	DatabaseURL string
	// SeedFile is a YAML directory fixture applied at startup.
	SeedFile    string
	Migrate     bool
	Timeout     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("store_driver", DriverPostgres)
	v.SetDefault("migrate_on_start", true)
	v.SetDefault("store_timeout", "3s")
	v.SetDefault("redis_db", 0)
	v.SetDefault("lock_ttl", "10s")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("report_workers", 4)
}

// Load reads environment variables (APP_ENV, DATABASE_URL, JWT_SECRET, ...),
// falling back to ./.env, and validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional
	return FromViper(v)
}

func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("config: TIMEZONE: %w", err)
	}

	cfg := &Config{
		Env:      v.GetString("app_env"),
		LogLevel: v.GetString("log_level"),
		HTTPAddr: v.GetString("http_addr"),
		Store: StoreConfig{
			Driver:      strings.ToLower(v.GetString("store_driver")),
			DatabaseURL: v.GetString("database_url"),
			SeedFile:    v.GetString("seed_file"),
			Migrate:     v.GetBool("migrate_on_start"),
			Timeout:     v.GetDuration("store_timeout"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		JWTSecret: v.GetString("jwt_secret"),
		LockTTL:   v.GetDuration("lock_ttl"),
		Location:  loc,

		ReportWorkers: v.GetInt("report_workers"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q: want postgres or memory", c.Store.Driver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Store.Timeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	}
	if c.ReportWorkers <= 0 {
		errs = append(errs, errors.New("REPORT_WORKERS must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
