package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/wayfarer-app/wayfarer/internal/config"
	"github.com/wayfarer-app/wayfarer/internal/errors"
	"github.com/wayfarer-app/wayfarer/internal/generate"
	"github.com/wayfarer-app/wayfarer/internal/history"
	"github.com/wayfarer-app/wayfarer/internal/logger"
	"github.com/wayfarer-app/wayfarer/internal/metrics"
	"github.com/wayfarer-app/wayfarer/internal/model"
	"github.com/wayfarer-app/wayfarer/internal/prompt"
	"github.com/wayfarer-app/wayfarer/internal/ratelimit"
	"github.com/wayfarer-app/wayfarer/internal/stats"
)

// App is everything a command needs, built from config.
type App struct {
	Config     *config.Config
	ConfigPath string
	Log        *zap.Logger

	Resource model.Resource
	Pipeline *generate.Pipeline
	Limiter  ratelimit.Limiter // nil when disabled
	History  *history.Store    // nil when disabled

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Stats    *stats.Collector

	redis *redis.Client
}

func newApp(cmd *cobra.Command) (*App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	logLevel, _ := cmd.Flags().GetString("log-level")

	if envFile != "" {
		if _, err := config.LoadDotEnv(envFile); err != nil {
			return nil, err
		}
	}

	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		ConfigPath: configPath,
		Log:        log,
		Registry:   prometheus.NewRegistry(),
		Stats:      stats.NewCollector(),
	}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = metrics.New(app.Registry)

	builder := prompt.NewBuilder(prompt.Mode(cfg.Generation.PromptMode), cfg.Generation.Language)
	builder.Timezone = cfg.Generation.Timezone

	opts := []generate.Option{
		generate.WithLogger(log),
		generate.WithMetrics(app.Metrics),
		generate.WithStats(app.Stats),
		generate.WithPolicy(cfg.RetryPolicy()),
		generate.WithPromptBuilder(builder),
		generate.WithMaxInputLength(cfg.Generation.MaxInputLength),
		generate.WithLanguage(messageLanguage(cfg.Generation.Language)),
		generate.WithPrewarmTimeout(cfg.Generation.PrewarmTimeout.Duration),
	}

	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		app.History = store
		opts = append(opts, generate.WithHistory(store, cfg.History.StoreBody))
	}

	if cfg.RateLimit.Enabled {
		app.Limiter = app.newLimiter()
	}

	app.Resource = model.Open(cfg.LlamaConfig())
	app.Pipeline = generate.New(app.Resource, opts...)
	return app, nil
}

func (a *App) newLimiter() ratelimit.Limiter {
	rl := a.Config.RateLimit
	if rl.Backend == "redis" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		return ratelimit.NewRedisWindow(a.redis, rl.Key, rl.Limit, rl.Window.Duration, nil)
	}
	return ratelimit.NewWindow(rl.Limit, rl.Window.Duration, nil)
}

// Close waits for background work and releases resources.
func (a *App) Close() {
	a.Pipeline.Wait()
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.Log.Warn("close history", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.Log.Sync()
}

// fail shows err in its user-facing form.
func (a *App) fail(w io.Writer, err error) error {
	uf := a.Pipeline.PresentError(err)
	fmt.Fprintf(w, "%s: %s\n", uf.Title, uf.Message)
	if e := errors.Classify(err); e.Kind == errors.KindRateLimited && e.RetryAfter > 0 {
		fmt.Fprintf(w, "retry in %s\n", e.RetryAfter.Round(time.Second))
	}
	a.Log.Debug("command failed", zap.Error(err))
	return ErrReported
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// messageLanguage picks the catalog for user-facing messages from the
// configured output language, given as a tag ("it") or an English or
// native name ("Italian", "italiano").
func messageLanguage(name string) language.Tag {
	name = strings.TrimSpace(name)
	if name == "" {
		return language.English
	}
	if tag, err := language.Parse(name); err == nil {
		return tag
	}
	for _, tag := range []language.Tag{language.Italian, language.English} {
		if strings.EqualFold(display.English.Languages().Name(tag), name) ||
			strings.EqualFold(display.Self.Name(tag), name) {
			return tag
		}
	}
	return language.English
}
