// Package config provides configuration management. Values resolve in
// precedence order: environment variables, then the config file read by
// Viper, then defaults.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultAPIBaseURL = "https://cyberpunk.fandom.com/api.php"
	DefaultUserAgent  = "wikiseed/1.0 (respectful bot; contact: local-user)"
	DefaultRateEvery  = time.Second
	DefaultTimeout    = 30 * time.Second
	DefaultAttempts   = 4
	DefaultWorkers    = 4
	DefaultOutputDir  = "out"
	DefaultSQLitePath = "wikiseed.db"
	DefaultSchedule   = "@hourly"
	DefaultLogLevel   = "info"
)

// API holds remote API client settings.
type API struct {
	BaseURL          string        `yaml:"base_url"`
	UserAgent        string        `yaml:"user_agent"`
	RateEvery        time.Duration `yaml:"rate_every"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	MaxAttempts      int           `yaml:"max_attempts"`
	RetryInitialWait time.Duration `yaml:"retry_initial_wait"`
	RetryMaxWait     time.Duration `yaml:"retry_max_wait"`
}

// Database holds relational store settings.
type Database struct {
	// URL selects PostgreSQL when set; empty falls back to SQLite.
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Pipeline holds run settings.
type Pipeline struct {
	Workers   int    `yaml:"workers"`
	OutputDir string `yaml:"output_dir"`
	Schedule  string `yaml:"schedule"`
}

// Logger holds logging settings.
type Logger struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the full application configuration.
type Config struct {
	API      API      `yaml:"api"`
	Database Database `yaml:"database"`
	Pipeline Pipeline `yaml:"pipeline"`
	Logger   Logger   `yaml:"logger"`
}

// getConfigValue retrieves a configuration value from environment or
// Viper, with a default fallback.
func getConfigValue(envKey, viperKey, defaultValue string, v *viper.Viper) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if val := v.GetString(viperKey); val != "" {
		return val
	}
	return defaultValue
}

// getDurationValue is getConfigValue for durations; unparseable values
// fall back to the default.
func getDurationValue(envKey, viperKey string, defaultValue time.Duration, v *viper.Viper) time.Duration {
	raw := getConfigValue(envKey, viperKey, "", v)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

// getIntValue is getConfigValue for integers.
func getIntValue(envKey, viperKey string, defaultValue int, v *viper.Viper) int {
	raw := getConfigValue(envKey, viperKey, "", v)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

// LoadFromViper loads the full configuration from Viper and environment
// variables. Environment variables take precedence.
func LoadFromViper(v *viper.Viper) *Config {
	return &Config{
		API: API{
			BaseURL:          getConfigValue("WIKISEED_API_URL", "api.base_url", DefaultAPIBaseURL, v),
			UserAgent:        getConfigValue("WIKISEED_USER_AGENT", "api.user_agent", DefaultUserAgent, v),
			RateEvery:        getDurationValue("WIKISEED_RATE_EVERY", "api.rate_every", DefaultRateEvery, v),
			RequestTimeout:   getDurationValue("WIKISEED_REQUEST_TIMEOUT", "api.request_timeout", DefaultTimeout, v),
			MaxAttempts:      getIntValue("WIKISEED_MAX_ATTEMPTS", "api.max_attempts", DefaultAttempts, v),
			RetryInitialWait: getDurationValue("WIKISEED_RETRY_INITIAL_WAIT", "api.retry_initial_wait", time.Second, v),
			RetryMaxWait:     getDurationValue("WIKISEED_RETRY_MAX_WAIT", "api.retry_max_wait", 30*time.Second, v),
		},
		Database: Database{
			URL:        getConfigValue("DATABASE_URL", "database.url", "", v),
			SQLitePath: getConfigValue("WIKISEED_SQLITE_PATH", "database.sqlite_path", DefaultSQLitePath, v),
		},
		Pipeline: Pipeline{
			Workers:   getIntValue("WIKISEED_WORKERS", "pipeline.workers", DefaultWorkers, v),
			OutputDir: getConfigValue("WIKISEED_OUTPUT_DIR", "pipeline.output_dir", DefaultOutputDir, v),
			Schedule:  getConfigValue("WIKISEED_SCHEDULE", "pipeline.schedule", DefaultSchedule, v),
		},
		Logger: Logger{
			Level:       getConfigValue("LOG_LEVEL", "logger.level", DefaultLogLevel, v),
			Development: v.GetBool("logger.development"),
		},
	}
}

// Load loads configuration from the global Viper instance.
func Load() *Config {
	return LoadFromViper(viper.GetViper())
}
