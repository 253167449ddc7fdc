// Package engineconfig provides configuration management for the dataflow
// engine process.
//
// This package handles loading configuration from environment variables (.env
// file) using the same precedence as the teacher it was adapted from: CLI
// flag overrides first, then environment variables, then hardcoded defaults.
// There is no settings database in this engine, so unlike the teacher there
// is no further override stage after Load.
//
// Configuration Loading Order:
// 1. Load from .env file (if exists)
// 2. Load from environment variables
//
// Data Directory Priority (highest to lowest):
// 1. --data-dir CLI flag (if provided)
// 2. ENGINE_DATA_DIR environment variable
// 3. ./data (default)
package engineconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/utils"
)

// Config holds process-wide configuration for running the engine: where to
// persist data, how verbosely to log, which port the event bridge listens
// on, and the universe of assets/timeframes the scheduled run executes
// against.
type Config struct {
	DataDir         string   // Base directory for engine state (always absolute)
	LogLevel        string   // Log level (debug, info, warn, error)
	EventBridgePort int      // Websocket event bridge listen port
	DevMode         bool     // Development mode flag (more verbose logging, pretty console output)
	CronSchedule    string   // robfig/cron expression for the periodic ExecutePipeline run
	Assets          []string // Asset ids the scheduled run executes the pipeline for
	Timeframes      []timeframe.Timeframe
}

// Load reads .env (if present) and environment variables into a Config.
//
// dataDirOverride, if provided, takes priority over ENGINE_DATA_DIR and the
// default, mirroring a --data-dir CLI flag.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("ENGINE_DATA_DIR", "./data")
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", absDataDir, err)
	}

	assets, err := parseAssets(getEnv("ENGINE_ASSETS", ""))
	if err != nil {
		return nil, err
	}
	tfs, err := parseTimeframes(getEnv("ENGINE_TIMEFRAMES", "1D"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         absDataDir,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		EventBridgePort: getEnvAsInt("ENGINE_EVENTBRIDGE_PORT", 8090),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		CronSchedule:    getEnv("ENGINE_CRON_SCHEDULE", "@every 1h"),
		Assets:          assets,
		Timeframes:      tfs,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if len(c.Timeframes) == 0 {
		return fmt.Errorf("at least one timeframe must be configured")
	}
	if c.EventBridgePort <= 0 || c.EventBridgePort > 65535 {
		return fmt.Errorf("invalid event bridge port: %d", c.EventBridgePort)
	}
	return nil
}

// parseAssets splits a comma-separated ENGINE_ASSETS value, trimming
// whitespace and dropping empty entries. An empty raw value yields an empty,
// non-nil slice rather than an error: the caller may run without a
// preconfigured asset universe.
func parseAssets(raw string) ([]string, error) {
	assets := utils.ParseCSV(raw)
	if assets == nil {
		return []string{}, nil
	}
	return assets, nil
}

// parseTimeframes splits a comma-separated ENGINE_TIMEFRAMES value (e.g.
// "1Min,1H,1D") into timeframe.Timeframe values.
func parseTimeframes(raw string) ([]timeframe.Timeframe, error) {
	parts := utils.ParseCSV(raw)
	out := make([]timeframe.Timeframe, 0, len(parts))
	for _, p := range parts {
		tf, err := timeframe.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("parsing ENGINE_TIMEFRAMES entry %q: %w", p, err)
		}
		out = append(out, tf)
	}
	return out, nil
}

// getEnv retrieves an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean with a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
