// Package config loads the settings that govern a graphdb engine instance:
// where it stores data, how its transactions behave, and how much it
// logs. Configuration is environment-variable driven with sensible
// defaults, plus an optional YAML overlay file for anything not worth
// setting per-process.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//
// Environment Variables:
//
//   - GRAPHDB_DATA_DIR       - on-disk data directory (default "./data")
//   - GRAPHDB_IN_MEMORY      - run entirely in RAM, no persistence
//   - GRAPHDB_SYNC_WRITES    - fsync on every commit
//   - GRAPHDB_BLOCK_CACHE_MB - KV backend block cache size
//   - GRAPHDB_COMMIT_RETRIES - commit-conflict retry budget per transaction
//   - GRAPHDB_PULL_BUDGET    - per-query executor pull-count budget, 0 disables
//   - GRAPHDB_LOG_LEVEL      - error | warn | info | debug
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all graphdb configuration loaded from environment
// variables and, optionally, a YAML overlay file.
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Transaction TransactionConfig `yaml:"transaction"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// StorageConfig controls the KV backend's on-disk behavior, mirroring
// kv.Options.
type StorageConfig struct {
	// DataDir is where the backend stores its files. Ignored if InMemory.
	DataDir string `yaml:"data_dir"`
	// InMemory runs the backend entirely in RAM; data does not survive
	// process exit. Useful for tests and ephemeral instances.
	InMemory bool `yaml:"in_memory"`
	// SyncWrites forces an fsync on every commit.
	SyncWrites bool `yaml:"sync_writes"`
	// BlockCacheMB sizes the backend's block cache, in megabytes.
	BlockCacheMB int `yaml:"block_cache_mb"`
}

// TransactionConfig controls how transactions and query execution
// behave.
type TransactionConfig struct {
	// CommitRetries bounds how many times a caller should retry a
	// transaction that failed commit with Busy or TryAgain before giving
	// up. graphdb itself never retries internally; this is advisory for
	// callers built on this package.
	CommitRetries int `yaml:"commit_retries"`
	// PullBudget caps the number of executor pulls a single query may
	// perform before it is aborted with ErrPullBudgetExceeded. Zero
	// disables the budget. See spec.md §9's open question on
	// execution-cost accounting.
	PullBudget int `yaml:"pull_budget"`
}

// LoggingConfig holds the configured log verbosity. It is validated and
// rendered by String; no code in this module reads it to adjust log
// output.
type LoggingConfig struct {
	// Level is one of "error", "warn", "info", "debug".
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with the reference defaults: on-disk
// storage under ./data, a 512MiB block cache, write-ahead sync
// disabled, 3 commit retries, no pull budget, and info-level logging.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir:      "./data",
			InMemory:     false,
			SyncWrites:   false,
			BlockCacheMB: 512,
		},
		Transaction: TransactionConfig{
			CommitRetries: 3,
			PullBudget:    0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv builds a Config starting from DefaultConfig and
// overriding each field present in the environment.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	cfg.Storage.DataDir = getEnv("GRAPHDB_DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.InMemory = getEnvBool("GRAPHDB_IN_MEMORY", cfg.Storage.InMemory)
	cfg.Storage.SyncWrites = getEnvBool("GRAPHDB_SYNC_WRITES", cfg.Storage.SyncWrites)
	cfg.Storage.BlockCacheMB = getEnvInt("GRAPHDB_BLOCK_CACHE_MB", cfg.Storage.BlockCacheMB)

	cfg.Transaction.CommitRetries = getEnvInt("GRAPHDB_COMMIT_RETRIES", cfg.Transaction.CommitRetries)
	cfg.Transaction.PullBudget = getEnvInt("GRAPHDB_PULL_BUDGET", cfg.Transaction.PullBudget)

	cfg.Logging.Level = getEnv("GRAPHDB_LOG_LEVEL", cfg.Logging.Level)

	return cfg
}

// LoadFromFile reads a YAML overlay file and applies it on top of
// DefaultConfig. Fields absent from the file keep their default value.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// LoadFromEnvOrFile loads a YAML overlay file if path is non-empty and
// exists, then applies environment variables on top of it. Environment
// variables take precedence over the file.
func LoadFromEnvOrFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := LoadFromFile(path)
			if err != nil {
				return nil, err
			}
			cfg = fileCfg
		}
	}

	cfg.Storage.DataDir = getEnvOrCurrent("GRAPHDB_DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.InMemory = getEnvBoolOrCurrent("GRAPHDB_IN_MEMORY", cfg.Storage.InMemory)
	cfg.Storage.SyncWrites = getEnvBoolOrCurrent("GRAPHDB_SYNC_WRITES", cfg.Storage.SyncWrites)
	cfg.Storage.BlockCacheMB = getEnvIntOrCurrent("GRAPHDB_BLOCK_CACHE_MB", cfg.Storage.BlockCacheMB)
	cfg.Transaction.CommitRetries = getEnvIntOrCurrent("GRAPHDB_COMMIT_RETRIES", cfg.Transaction.CommitRetries)
	cfg.Transaction.PullBudget = getEnvIntOrCurrent("GRAPHDB_PULL_BUDGET", cfg.Transaction.PullBudget)
	cfg.Logging.Level = getEnvOrCurrent("GRAPHDB_LOG_LEVEL", cfg.Logging.Level)

	return cfg, nil
}

// Validate checks the configuration for internally inconsistent or
// nonsensical values.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" && !c.Storage.InMemory {
		return fmt.Errorf("config: storage.data_dir must be set unless storage.in_memory is true")
	}
	if c.Storage.BlockCacheMB < 0 {
		return fmt.Errorf("config: storage.block_cache_mb must not be negative")
	}
	if c.Transaction.CommitRetries < 0 {
		return fmt.Errorf("config: transaction.commit_retries must not be negative")
	}
	if c.Transaction.PullBudget < 0 {
		return fmt.Errorf("config: transaction.pull_budget must not be negative")
	}
	switch c.Logging.Level {
	case "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("config: logging.level %q is not one of error|warn|info|debug", c.Logging.Level)
	}
	return nil
}

// String renders the configuration for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("data_dir=%s in_memory=%t sync_writes=%t block_cache_mb=%d commit_retries=%d pull_budget=%d log_level=%s",
		c.Storage.DataDir, c.Storage.InMemory, c.Storage.SyncWrites, c.Storage.BlockCacheMB,
		c.Transaction.CommitRetries, c.Transaction.PullBudget, c.Logging.Level)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvOrCurrent(key, current string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return current
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvIntOrCurrent(key string, current int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return current
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return parseBool(v, defaultVal)
	}
	return defaultVal
}

func getEnvBoolOrCurrent(key string, current bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		return parseBool(v, current)
	}
	return current
}

func parseBool(s string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultVal
	}
}
