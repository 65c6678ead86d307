// Package config loads settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/pbaille/coldstore/internal/capacity"
	"github.com/pbaille/coldstore/internal/warehouse"
)

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds every runtime setting
type Config struct {
	Backend string
	DBPath  string

	Redis struct {
		Addr   string
		DB     int
		Prefix string
	}

	CapacityRule capacity.Rule
	Duplicates   warehouse.DuplicatePolicy
	WeightPerBag decimal.Decimal

	Log struct {
		Level  string
		Format string
	}
}

// DefaultDBPath is ~/.coldstore/coldstore.db
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".coldstore", "coldstore.db")
}

// Load reads the environment, falling back to defaults
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Backend = getEnv("COLDSTORE_BACKEND", BackendSQLite)
	cfg.DBPath = getEnv("COLDSTORE_DB", DefaultDBPath())

	cfg.Redis.Addr = getEnv("COLDSTORE_REDIS_ADDR", "localhost:6379")
	cfg.Redis.Prefix = getEnv("COLDSTORE_REDIS_PREFIX", "coldstore:")
	db, err := strconv.Atoi(getEnv("COLDSTORE_REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("COLDSTORE_REDIS_DB: %w", err)
	}
	cfg.Redis.DB = db

	cfg.CapacityRule = capacity.Rule(getEnv("COLDSTORE_CAPACITY_RULE", string(capacity.RuleEntries)))
	cfg.Duplicates = warehouse.DuplicatePolicy(getEnv("COLDSTORE_DUPLICATE_POLICY", string(warehouse.DuplicateWarn)))

	w, err := decimal.NewFromString(getEnv("COLDSTORE_WEIGHT_PER_BAG", capacity.DefaultWeightPerBag.String()))
	if err != nil {
		return nil, fmt.Errorf("COLDSTORE_WEIGHT_PER_BAG: %w", err)
	}
	cfg.WeightPerBag = w

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "console")

	return cfg, nil
}

// Validate rejects unknown enum values
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendSQLite && c.DBPath == "" {
		return fmt.Errorf("database path is required for the sqlite backend")
	}
	if _, err := capacity.ParseRule(string(c.CapacityRule)); err != nil {
		return err
	}
	if _, err := warehouse.ParseDuplicatePolicy(string(c.Duplicates)); err != nil {
		return err
	}
	if !c.WeightPerBag.IsPositive() {
		return fmt.Errorf("weight per bag must be positive, got %s", c.WeightPerBag)
	}
	return nil
}

// ServiceOptions maps the config onto warehouse options
func (c *Config) ServiceOptions() warehouse.Options {
	return warehouse.Options{
		Rule:         c.CapacityRule,
		WeightPerBag: c.WeightPerBag,
		Duplicates:   c.Duplicates,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
