package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/holonet.db", cfg.DBPath)
	assert.Equal(t, time.Hour, cfg.TickEvery)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 10*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 20, cfg.LLMMaxPerMinute)
	assert.Equal(t, 7*24*time.Hour, cfg.ManifestCooldown)
	assert.Equal(t, 0.25, cfg.ConflictNoise)
	assert.Equal(t, 4, cfg.CascadeDepth)
	assert.False(t, cfg.InMemory())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HOLONET_DB_PATH", MemoryDB)
	t.Setenv("HOLONET_TICK_EVERY", "90s")
	t.Setenv("HOLONET_RUN_ONCE", "true")
	t.Setenv("HOLONET_RANDOM_SEED", "42")
	t.Setenv("HOLONET_CASCADE_DEPTH", "2")
	t.Setenv("HOLONET_CONFLICT_NOISE", "0")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.InMemory())
	assert.Equal(t, 90*time.Second, cfg.TickEvery)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, int64(42), cfg.RandomSeed)
	assert.Equal(t, 2, cfg.CascadeDepth)
	assert.Zero(t, cfg.ConflictNoise)
	assert.Equal(t, "sk-test", cfg.AnthropicKey)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]struct{ key, value string }{
		"bad duration":  {"HOLONET_TICK_EVERY", "soon"},
		"zero tick":     {"HOLONET_TICK_EVERY", "0s"},
		"no depth":      {"HOLONET_CASCADE_DEPTH", "0"},
		"loud noise":    {"HOLONET_CONFLICT_NOISE", "2"},
		"bad level":     {"HOLONET_LOG_LEVEL", "chatty"},
		"bad format":    {"HOLONET_LOG_FORMAT", "xml"},
		"empty db path": {"HOLONET_DB_PATH", " "},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{LogLevel: "warn", LogFormat: "json"}
	log := cfg.NewLogger(&buf)

	log.Info("dropped")
	log.Warn("kept", "faction", "Hutt Cartel")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "Hutt Cartel", line["faction"])

	buf.Reset()
	Config{LogLevel: "debug", LogFormat: "text"}.NewLogger(&buf).Debug("tick", "faction", "Empire")
	assert.Contains(t, buf.String(), "msg=tick")
	assert.Contains(t, buf.String(), "faction=Empire")
}
