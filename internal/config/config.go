// Package config reads holonet's environment configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MemoryDB selects the in-memory store instead of a SQLite file.
const MemoryDB = ":memory:"

// Config is every operator-tunable setting.
type Config struct {
	DBPath     string        `env:"HOLONET_DB_PATH"     envDefault:"data/holonet.db"`
	TickEvery  time.Duration `env:"HOLONET_TICK_EVERY"  envDefault:"1h"`
	RunOnce    bool          `env:"HOLONET_RUN_ONCE"    envDefault:"false"`
	LogLevel   string        `env:"HOLONET_LOG_LEVEL"   envDefault:"info"`
	LogFormat  string        `env:"HOLONET_LOG_FORMAT"  envDefault:"text"`
	RandomSeed int64         `env:"HOLONET_RANDOM_SEED" envDefault:"0"`

	RandomOrgKey string `env:"RANDOM_ORG_API_KEY"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`

	LLMTimeout      time.Duration `env:"HOLONET_LLM_TIMEOUT"        envDefault:"10s"`
	LLMMaxPerMinute int           `env:"HOLONET_LLM_MAX_PER_MINUTE" envDefault:"20"`

	ManifestCooldown time.Duration `env:"HOLONET_MANIFEST_COOLDOWN" envDefault:"168h"`
	ConflictNoise    float64       `env:"HOLONET_CONFLICT_NOISE"    envDefault:"0.25"`
	CascadeDepth     int           `env:"HOLONET_CASCADE_DEPTH"     envDefault:"4"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engines cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("HOLONET_DB_PATH must not be empty")
	}
	if c.TickEvery <= 0 {
		return fmt.Errorf("HOLONET_TICK_EVERY must be positive, got %s", c.TickEvery)
	}
	if c.CascadeDepth < 1 {
		return fmt.Errorf("HOLONET_CASCADE_DEPTH must be at least 1, got %d", c.CascadeDepth)
	}
	if c.ConflictNoise < 0 || c.ConflictNoise > 1 {
		return fmt.Errorf("HOLONET_CONFLICT_NOISE must be in [0, 1], got %g", c.ConflictNoise)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("HOLONET_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// InMemory reports whether the memstore was selected.
func (c Config) InMemory() bool { return c.DBPath == MemoryDB }

// NewLogger builds the process logger writing to w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("HOLONET_LOG_LEVEL: %w", err)
	}
	return level, nil
}
