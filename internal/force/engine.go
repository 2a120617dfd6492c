// Package force owns each player's light and dark trajectory and carries its
// consequences to factions, NPCs, and the galaxy at large.
package force

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/npc"
	"github.com/talgya/holonet/internal/world"
)

// Config holds the tunables of the force engine.
type Config struct {
	// Each magnitude step of an alignment action is worth a uniform draw
	// from [PointsMin, PointsMax].
	PointsMin int
	PointsMax int

	DisturbanceMagnitude int           // actions at or above this shake the galaxy
	ManifestThreshold    int           // |net| at which alignment shows physically
	ManifestCooldown     time.Duration // minimum gap between two manifestations of a kind
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		PointsMin:            3,
		PointsMax:            8,
		DisturbanceMagnitude: 7,
		ManifestThreshold:    75,
		ManifestCooldown:     7 * 24 * time.Hour,
	}
}

// AwarenessUpdater reports Force sightings to a faction.
type AwarenessUpdater interface {
	UpdateAwareness(ctx context.Context, c faction.AwarenessChange) (faction.AwarenessResult, error)
}

// EventEmitter records galaxy-wide events.
type EventEmitter interface {
	Emit(ctx context.Context, ev world.WorldEvent) (world.WorldEvent, error)
}

// NPCReactor lets the NPCs who know a player react to the Force.
type NPCReactor interface {
	ReactToForceEvent(ctx context.Context, player string, r npc.ForceReaction) ([]string, error)
	WitnessPower(ctx context.Context, player, power, target string) ([]string, error)
}

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Clock    world.Clock
	Rand     entropy.Source
	Logger   *slog.Logger
	Config   *Config
	Factions AwarenessUpdater
	Events   EventEmitter
	NPCs     NPCReactor
}

// Engine owns ForceAlignment records.
type Engine struct {
	store    world.AlignmentStore
	clock    world.Clock
	rand     entropy.Source
	log      *slog.Logger
	cfg      Config
	factions AwarenessUpdater
	events   EventEmitter
	npcs     NPCReactor
}

// New creates a force engine over store.
func New(store world.AlignmentStore, opts Options) *Engine {
	e := &Engine{
		store:    store,
		clock:    opts.Clock,
		rand:     opts.Rand,
		log:      opts.Logger,
		cfg:      DefaultConfig(),
		factions: opts.Factions,
		events:   opts.Events,
		npcs:     opts.NPCs,
	}
	if opts.Config != nil {
		e.cfg = *opts.Config
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
	return e
}

// GetAlignment returns the player's record, or defaults when none exists yet.
func (e *Engine) GetAlignment(ctx context.Context, player string) (world.ForceAlignment, error) {
	a, err := e.store.GetAlignment(ctx, player)
	if errors.Is(err, world.ErrNotFound) {
		return world.NewForceAlignment(player), nil
	}
	if err != nil {
		return world.ForceAlignment{}, fmt.Errorf("get alignment: %w", err)
	}
	return a, nil
}

func (e *Engine) emit(ctx context.Context, pending []world.WorldEvent) []world.WorldEvent {
	if e.events == nil {
		return nil
	}
	var out []world.WorldEvent
	for _, ev := range pending {
		rec, err := e.events.Emit(ctx, ev)
		if err != nil {
			e.log.Warn("force event not recorded", "title", ev.Title, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}
