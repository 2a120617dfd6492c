// Package quest generates quests from the state of the galaxy around a
// player and settles their completion or failure back into it.
package quest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/force"
	"github.com/talgya/holonet/internal/world"
)

// Factions is what the generator needs from the faction engine.
type Factions interface {
	ListFactions(ctx context.Context) ([]world.Faction, error)
	UpdateAwareness(ctx context.Context, c faction.AwarenessChange) (faction.AwarenessResult, error)
}

// Force is what the generator needs from the force engine.
type Force interface {
	GetAlignment(ctx context.Context, player string) (world.ForceAlignment, error)
	UpdateAlignment(ctx context.Context, act force.Action) (force.AlignmentResult, error)
}

// Threats reads a player's notoriety.
type Threats interface {
	GetThreat(ctx context.Context, player string) (world.ThreatLevel, error)
}

// Contacts lists the NPCs a player dealt with most recently.
type Contacts interface {
	RecentContacts(ctx context.Context, player string, n int) ([]world.NPCMemory, error)
}

// Options configures an Engine. Collaborators left nil contribute an empty
// context and receive no consequences.
type Options struct {
	Clock    world.Clock
	Rand     entropy.Source
	Logger   *slog.Logger
	Factions Factions
	Force    Force
	Threats  Threats
	Contacts Contacts
}

// Engine owns quests.
type Engine struct {
	store    world.QuestStore
	clock    world.Clock
	rand     entropy.Source
	log      *slog.Logger
	factions Factions
	force    Force
	threats  Threats
	contacts Contacts
}

// New creates a quest engine over store.
func New(store world.QuestStore, opts Options) *Engine {
	e := &Engine{
		store:    store,
		clock:    opts.Clock,
		rand:     opts.Rand,
		log:      opts.Logger,
		factions: opts.Factions,
		force:    opts.Force,
		threats:  opts.Threats,
		contacts: opts.Contacts,
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

// GetQuest returns one quest.
func (e *Engine) GetQuest(ctx context.Context, id string) (world.Quest, error) {
	q, err := e.store.GetQuest(ctx, id)
	if err != nil {
		return world.Quest{}, fmt.Errorf("get quest: %w", err)
	}
	return q, nil
}

// ListQuests returns the player's quests, newest first. An empty status
// lists them all.
func (e *Engine) ListQuests(ctx context.Context, player string, status world.QuestStatus) ([]world.Quest, error) {
	switch status {
	case "", world.QuestAvailable, world.QuestActive, world.QuestCompleted, world.QuestFailed:
	default:
		return nil, world.InvalidInput("unknown quest status %q", status)
	}
	qs, err := e.store.ListQuests(ctx, player, status)
	if err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	return qs, nil
}
