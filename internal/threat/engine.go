// Package threat tracks a player's notoriety across the galaxy and escalates
// the response as their heat rises: investigators, response teams, bounty
// hunters, and faction retaliation.
package threat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/world"
)

// AwarenessUpdater reports witness sightings to a faction.
type AwarenessUpdater interface {
	UpdateAwareness(ctx context.Context, c faction.AwarenessChange) (faction.AwarenessResult, error)
}

// EventEmitter records galaxy-wide events.
type EventEmitter interface {
	Emit(ctx context.Context, ev world.WorldEvent) (world.WorldEvent, error)
}

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Clock    world.Clock
	Rand     entropy.Source
	Logger   *slog.Logger
	Factions AwarenessUpdater
	Events   EventEmitter
}

// Engine owns ThreatLevel records.
type Engine struct {
	store    world.ThreatStore
	clock    world.Clock
	rand     entropy.Source
	log      *slog.Logger
	factions AwarenessUpdater
	events   EventEmitter
}

// New creates a threat engine over store.
func New(store world.ThreatStore, opts Options) *Engine {
	e := &Engine{
		store:    store,
		clock:    opts.Clock,
		rand:     opts.Rand,
		log:      opts.Logger,
		factions: opts.Factions,
		events:   opts.Events,
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

// GetThreat returns the player's record, or defaults when none exists yet.
func (e *Engine) GetThreat(ctx context.Context, player string) (world.ThreatLevel, error) {
	t, err := e.store.GetThreat(ctx, player)
	if errors.Is(err, world.ErrNotFound) {
		return world.NewThreatLevel(player), nil
	}
	if err != nil {
		return world.ThreatLevel{}, fmt.Errorf("get threat: %w", err)
	}
	return t, nil
}

// emit records events raised inside a committed update.
func (e *Engine) emit(ctx context.Context, pending []world.WorldEvent) []world.WorldEvent {
	if e.events == nil {
		return nil
	}
	var out []world.WorldEvent
	for _, ev := range pending {
		rec, err := e.events.Emit(ctx, ev)
		if err != nil {
			e.log.Warn("threat event not recorded", "title", ev.Title, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// report sends one witness-driven awareness change, within the cascade limit.
func (e *Engine) report(ctx context.Context, c faction.AwarenessChange) (faction.AwarenessResult, bool) {
	if e.factions == nil {
		return faction.AwarenessResult{}, false
	}
	next, ok := world.Descend(ctx)
	if !ok {
		e.log.Debug("cascade depth reached", "from", "threat", "faction", c.Faction)
		return faction.AwarenessResult{}, false
	}
	res, err := e.factions.UpdateAwareness(next, c)
	if err != nil {
		e.log.Warn("witness report failed", "faction", c.Faction, "player", c.Player, "error", err)
		return faction.AwarenessResult{}, false
	}
	return res, true
}
