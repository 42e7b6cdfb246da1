package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys: EXECMETER_LOG_LEVEL -> log_level.
const EnvPrefix = "EXECMETER_"

// Counter store kinds.
const (
	StoreRegistry = "registry"
	StoreArena    = "arena"
)

// Config holds all runtime configuration.
type Config struct {
	// Logging
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Worker pool
	Workers      int           `koanf:"workers"`
	WorkerBuffer int           `koanf:"worker_buffer"`
	CounterStore string        `koanf:"counter_store"`
	JobTimeout   time.Duration `koanf:"job_timeout"` // 0 = no timeout
	CallsPerJob  int           `koanf:"calls_per_job"`

	// Line limits per job, 0 = unlimited
	SubmissionLineLimit int64 `koanf:"submission_line_limit"`
	TotalLineLimit      int64 `koanf:"total_line_limit"`

	MetricsAddr string `koanf:"metrics_addr"` // "" = disabled
}

// defaults is the lowest-priority layer.
var defaults = map[string]any{
	"log_level":             "info",
	"log_format":            "json",
	"workers":               4,
	"worker_buffer":         64,
	"counter_store":         StoreRegistry,
	"job_timeout":           30 * time.Second,
	"calls_per_job":         1,
	"submission_line_limit": 0,
	"total_line_limit":      0,
	"metrics_addr":          "",
}

// Load reads configuration from (lowest → highest priority):
//  1. Built-in defaults
//  2. YAML file at EXECMETER_CONFIG_FILE (if set)
//  3. EXECMETER_* environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if cfgFile := os.Getenv(EnvPrefix + "CONFIG_FILE"); cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if key == "config_file" {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.LogLevel = strings.TrimSpace(strings.ToLower(cfg.LogLevel))
	cfg.LogFormat = strings.TrimSpace(strings.ToLower(cfg.LogFormat))
	cfg.CounterStore = strings.TrimSpace(strings.ToLower(cfg.CounterStore))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []string

	if c.Workers < 1 || c.Workers > 1024 {
		errs = append(errs, "EXECMETER_WORKERS must be between 1 and 1024")
	}
	if c.WorkerBuffer < 1 {
		errs = append(errs, "EXECMETER_WORKER_BUFFER must be at least 1")
	}
	if c.CounterStore != StoreRegistry && c.CounterStore != StoreArena {
		errs = append(errs, fmt.Sprintf("EXECMETER_COUNTER_STORE must be %q or %q", StoreRegistry, StoreArena))
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, `EXECMETER_LOG_FORMAT must be "json" or "text"`)
	}
	if c.JobTimeout < 0 {
		errs = append(errs, "EXECMETER_JOB_TIMEOUT must not be negative")
	}
	if c.CallsPerJob < 1 {
		errs = append(errs, "EXECMETER_CALLS_PER_JOB must be at least 1")
	}
	if c.SubmissionLineLimit < 0 {
		errs = append(errs, "EXECMETER_SUBMISSION_LINE_LIMIT must not be negative")
	}
	if c.TotalLineLimit < 0 {
		errs = append(errs, "EXECMETER_TOTAL_LINE_LIMIT must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d configuration error(s):\n  - %s", len(errs), strings.Join(errs, "\n  - "))
	}
	return nil
}
