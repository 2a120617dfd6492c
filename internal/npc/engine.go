// Package npc keeps what each non-player character remembers about each
// player and derives how they feel about it.
package npc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/threat"
	"github.com/talgya/holonet/internal/world"
)

// ThreatReporter reads a player's threat profile and files reports against it.
type ThreatReporter interface {
	GetThreat(ctx context.Context, player string) (world.ThreatLevel, error)
	UpdateThreat(ctx context.Context, a threat.Action) (threat.UpdateResult, error)
}

// AlignmentReader reads a player's alignment record.
type AlignmentReader interface {
	GetAlignment(ctx context.Context, player string) (world.ForceAlignment, error)
}

// DialogueGenerator turns a dialogue briefing into speech.
type DialogueGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// DefaultDialogueTimeout bounds one call to the dialogue generator.
const DefaultDialogueTimeout = 10 * time.Second

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Clock           world.Clock
	Rand            entropy.Source
	Logger          *slog.Logger
	Threats         ThreatReporter
	Alignments      AlignmentReader
	Dialogue        DialogueGenerator
	DialogueTimeout time.Duration
}

// Engine owns NPC memories.
type Engine struct {
	store      world.NPCStore
	clock      world.Clock
	rand       entropy.Source
	log        *slog.Logger
	threats    ThreatReporter
	alignments AlignmentReader
	dialogue   DialogueGenerator
	timeout    time.Duration
}

// New creates an NPC engine over store.
func New(store world.NPCStore, opts Options) *Engine {
	e := &Engine{
		store:      store,
		clock:      opts.Clock,
		rand:       opts.Rand,
		log:        opts.Logger,
		threats:    opts.Threats,
		alignments: opts.Alignments,
		dialogue:   opts.Dialogue,
		timeout:    opts.DialogueTimeout,
	}
	if e.clock == nil {
		e.clock = world.SystemClock{}
	}
	if e.rand == nil {
		e.rand = entropy.Default()
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.timeout <= 0 {
		e.timeout = DefaultDialogueTimeout
	}
	return e
}

// GetNPC returns the memory npc holds of player.
func (e *Engine) GetNPC(ctx context.Context, npc, player string) (world.NPCMemory, error) {
	m, err := e.store.GetNPC(ctx, npc, player)
	if err != nil {
		return world.NPCMemory{}, fmt.Errorf("get npc: %w", err)
	}
	return m, nil
}

// profile is the read-only view of the player an interaction learns from.
type profile struct {
	threat    world.ThreatLevel
	hasThreat bool
	net       int
	hasForce  bool
}

func (e *Engine) profile(ctx context.Context, player string) profile {
	var p profile
	if e.threats != nil {
		t, err := e.threats.GetThreat(ctx, player)
		if err == nil {
			p.threat, p.hasThreat = t, true
		} else {
			e.log.Warn("threat profile unavailable", "player", player, "error", err)
		}
	}
	if e.alignments != nil {
		a, err := e.alignments.GetAlignment(ctx, player)
		switch {
		case err == nil:
			p.net, p.hasForce = a.Net(), true
		case !errors.Is(err, world.ErrNotFound):
			e.log.Warn("alignment unavailable", "player", player, "error", err)
		}
	}
	return p
}
