// Package config provides configuration types for Wayfarer.
package config

import "time"

// Config represents the main Wayfarer configuration.
type Config struct {
	Model      ModelConfig      `toml:"model"`
	Generation GenerationConfig `toml:"generation"`
	Retry      RetryConfig      `toml:"retry"`
	RateLimit  RateLimitConfig  `toml:"ratelimit"`
	Redis      RedisConfig      `toml:"redis"`
	History    HistoryConfig    `toml:"history"`
	Logging    LoggingConfig    `toml:"logging"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Paths      PathsConfig      `toml:"paths"`
}

// ModelConfig configures the local llama.cpp server.
type ModelConfig struct {
	Enabled       bool     `toml:"enabled"`
	BaseURL       string   `toml:"base_url"` // empty means no resource
	Name          string   `toml:"name"`
	Timeout       Duration `toml:"timeout"`
	HealthTimeout Duration `toml:"health_timeout"`
	MaxTokens     int      `toml:"max_tokens"`
	Temperature   float64  `toml:"temperature"`
}

// GenerationConfig contains prompt and session settings.
type GenerationConfig struct {
	Language       string   `toml:"language"`    // output language, e.g. "Italian"
	Timezone       string   `toml:"timezone"`    // for the date in the system prompt
	PromptMode     string   `toml:"prompt_mode"` // full, minimal
	MaxInputLength int      `toml:"max_input_length"`
	PrewarmOnStart bool     `toml:"prewarm_on_start"`
	PrewarmTimeout Duration `toml:"prewarm_timeout"`
}

// RetryConfig controls the fixed-delay retry around model calls.
type RetryConfig struct {
	MaxAttempts    int      `toml:"max_attempts"`
	Delay          Duration `toml:"delay"`
	AttemptTimeout Duration `toml:"attempt_timeout"` // 0 disables
}

// RateLimitConfig configures the optional caller-side limiter.
type RateLimitConfig struct {
	Enabled bool     `toml:"enabled"`
	Backend string   `toml:"backend"` // memory, redis
	Limit   int      `toml:"limit"`
	Window  Duration `toml:"window"`
	Key     string   `toml:"key"`
}

// RedisConfig configures the Redis connection used by the shared limiter.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// HistoryConfig configures the generation audit log.
type HistoryConfig struct {
	Enabled   bool   `toml:"enabled"`
	Path      string `toml:"path"`
	KeepDays  int    `toml:"keep_days"`
	StoreBody bool   `toml:"store_body"` // keep input and output JSON
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, console
}

// MetricsConfig configures the Prometheus endpoint of `wayfarer serve`.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// PathsConfig contains file system paths.
type PathsConfig struct {
	DataDir string `toml:"data_dir"`
}

// Duration is a time.Duration written as a string like "500ms" in TOML.
type Duration struct {
	time.Duration
}

// D wraps d.
func D(d time.Duration) Duration {
	return Duration{d}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}
