// Package config handles Wayfarer configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/model"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WAYFARER_"

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".wayfarer")

	return &Config{
		Model: ModelConfig{
			Enabled:       true,
			BaseURL:       "http://127.0.0.1:8080",
			Name:          "qwen2.5-3b-instruct",
			Timeout:       D(120 * time.Second),
			HealthTimeout: D(2 * time.Second),
			MaxTokens:     2048,
			Temperature:   0.7,
		},
		Generation: GenerationConfig{
			Language:       "",
			Timezone:       "",
			PromptMode:     "full",
			MaxInputLength: 2000,
			PrewarmOnStart: true,
			PrewarmTimeout: D(30 * time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			Delay:          D(500 * time.Millisecond),
			AttemptTimeout: D(90 * time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Backend: "memory",
			Limit:   10,
			Window:  D(time.Minute),
			Key:     "wayfarer:ratelimit",
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		History: HistoryConfig{
			Enabled:   true,
			Path:      filepath.Join(dataDir, "history.db"),
			KeepDays:  30,
			StoreBody: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
		Paths: PathsConfig{
			DataDir: dataDir,
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, returns defaults. Environment overrides are
// applied last.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// defaults
	default:
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg = expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the first .env file found in paths into the process
// environment. Variables already set win. It reports the file used.
func LoadDotEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}

// ApplyEnv overrides cfg from WAYFARER_* variables.
func ApplyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []string
	boolean := func(name string, dst *bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, EnvPrefix+name)
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, EnvPrefix+name)
				return
			}
			*dst = n
		}
	}

	str("MODEL_URL", &cfg.Model.BaseURL)
	str("MODEL_NAME", &cfg.Model.Name)
	boolean("MODEL_ENABLED", &cfg.Model.Enabled)
	str("LANGUAGE", &cfg.Generation.Language)
	str("TIMEZONE", &cfg.Generation.Timezone)
	integer("RETRY_MAX_ATTEMPTS", &cfg.Retry.MaxAttempts)
	boolean("RATELIMIT_ENABLED", &cfg.RateLimit.Enabled)
	str("RATELIMIT_BACKEND", &cfg.RateLimit.Backend)
	integer("RATELIMIT_LIMIT", &cfg.RateLimit.Limit)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	boolean("HISTORY_ENABLED", &cfg.History.Enabled)
	str("HISTORY_PATH", &cfg.History.Path)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	str("METRICS_ADDR", &cfg.Metrics.Addr)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment overrides: %s", strings.Join(errs, ", "))
	}
	return nil
}

// Validate rejects settings the generation core cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.max_attempts must be at least 1")
	}
	if c.Retry.Delay.Duration < 0 {
		problems = append(problems, "retry.delay must not be negative")
	}
	if c.RateLimit.Limit < 1 {
		problems = append(problems, "ratelimit.limit must be at least 1")
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		problems = append(problems, fmt.Sprintf("ratelimit.backend %q is not memory or redis", c.RateLimit.Backend))
	}
	switch c.Generation.PromptMode {
	case "full", "minimal":
	default:
		problems = append(problems, fmt.Sprintf("generation.prompt_mode %q is not full or minimal", c.Generation.PromptMode))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(c)
}

// DefaultPath returns ~/.wayfarer/config.toml.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".wayfarer", "config.toml")
}

// expandPaths expands a leading ~ in paths.
func expandPaths(cfg *Config) *Config {
	homeDir, _ := os.UserHomeDir()
	expand := func(p string) string {
		if strings.HasPrefix(p, "~") {
			return filepath.Join(homeDir, p[1:])
		}
		return p
	}

	cfg.Paths.DataDir = expand(cfg.Paths.DataDir)
	cfg.History.Path = expand(cfg.History.Path)
	return cfg
}

// LlamaConfig returns the model client settings.
func (c *Config) LlamaConfig() *model.LlamaConfig {
	return &model.LlamaConfig{
		Enabled:       c.Model.Enabled,
		BaseURL:       c.Model.BaseURL,
		Model:         c.Model.Name,
		Timeout:       c.Model.Timeout.Duration,
		HealthTimeout: c.Model.HealthTimeout.Duration,
		MaxTokens:     c.Model.MaxTokens,
		Temperature:   c.Model.Temperature,
	}
}

// RetryPolicy returns the retry policy for model calls.
func (c *Config) RetryPolicy() *errors.Policy {
	p := errors.DefaultPolicy()
	p.MaxAttempts = c.Retry.MaxAttempts
	p.Delay = c.Retry.Delay.Duration
	p.AttemptTimeout = c.Retry.AttemptTimeout.Duration
	return p
}
