package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/holonet/internal/config"
	"github.com/talgya/holonet/internal/engine"
	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/force"
	"github.com/talgya/holonet/internal/llm"
	"github.com/talgya/holonet/internal/npc"
	"github.com/talgya/holonet/internal/persistence"
	"github.com/talgya/holonet/internal/persistence/memstore"
	"github.com/talgya/holonet/internal/world"
)

// app is the state shared by every subcommand.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	galaxy *engine.Galaxy
}

func (a *app) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.NewLogger(os.Stderr)
	slog.SetDefault(a.log)

	store, err := openStore(cfg, a.log)
	if err != nil {
		return err
	}

	fcfg := faction.DefaultConfig()
	fcfg.ConflictNoise = cfg.ConflictNoise
	pcfg := force.DefaultConfig()
	pcfg.ManifestCooldown = cfg.ManifestCooldown

	var dialogue npc.DialogueGenerator
	if client := llm.NewClient(cfg.AnthropicKey, llm.Options{
		Timeout:   cfg.LLMTimeout,
		MaxPerMin: cfg.LLMMaxPerMinute,
		Logger:    a.log.With("component", "llm"),
	}); client.Enabled() {
		dialogue = client
		a.log.Debug("dialogue generation enabled")
	} else {
		a.log.Debug("ANTHROPIC_API_KEY not set, NPC dialogue uses fallback lines")
	}

	a.galaxy = engine.New(store, engine.Options{
		Rand:            randomSource(cfg),
		Logger:          a.log,
		Dialogue:        dialogue,
		DialogueTimeout: cfg.LLMTimeout,
		Faction:         &fcfg,
		Force:           &pcfg,
		CascadeDepth:    cfg.CascadeDepth,
	})
	if _, err := a.galaxy.Seed(cmd.Context()); err != nil {
		a.galaxy.Close()
		return err
	}
	return nil
}

func (a *app) close() error {
	if a.galaxy == nil {
		return nil
	}
	return a.galaxy.Close()
}

func openStore(cfg config.Config, log *slog.Logger) (world.Store, error) {
	if cfg.InMemory() {
		log.Debug("using in-memory store")
		return memstore.New(), nil
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := persistence.Open(cfg.DBPath, persistence.Options{Logger: log.With("component", "store")})
	if err != nil {
		return nil, err
	}
	log.Debug("database opened", "path", cfg.DBPath)
	return store, nil
}

func randomSource(cfg config.Config) entropy.Source {
	var src entropy.Source = entropy.New()
	if cfg.RandomSeed != 0 {
		src = entropy.NewSeeded(cfg.RandomSeed)
	}
	if remote := entropy.NewRemote(cfg.RandomOrgKey, src); remote != nil {
		return remote
	}
	return src
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
