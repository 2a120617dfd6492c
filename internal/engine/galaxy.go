// Package engine wires the galaxy's engines together and drives them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/force"
	"github.com/talgya/holonet/internal/npc"
	"github.com/talgya/holonet/internal/quest"
	"github.com/talgya/holonet/internal/threat"
	"github.com/talgya/holonet/internal/world"
)

// Options configures a Galaxy. Zero fields take defaults.
type Options struct {
	Clock           world.Clock
	Rand            entropy.Source
	Logger          *slog.Logger
	Dialogue        npc.DialogueGenerator
	DialogueTimeout time.Duration
	Faction         *faction.Config
	Force           *force.Config
	CascadeDepth    int
}

// Galaxy holds the five engines over one store.
type Galaxy struct {
	Store    world.Store
	Factions *faction.Engine
	Threats  *threat.Engine
	NPCs     *npc.Engine
	Force    *force.Engine
	Quests   *quest.Engine

	log   *slog.Logger
	depth int
}

// New builds every engine and connects their cascades:
//
//	faction tick  -> threat escalation (pursuit)
//	threat        -> faction awareness, world events
//	npc           -> threat reports
//	force         -> faction awareness, world events, npc reactions
//	quest         -> faction awareness, force alignment
func New(store world.Store, opts Options) *Galaxy {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	rand := opts.Rand
	if rand == nil {
		rand = entropy.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = world.SystemClock{}
	}
	depth := opts.CascadeDepth
	if depth <= 0 {
		depth = world.DefaultCascadeDepth
	}

	g := &Galaxy{Store: store, log: log, depth: depth}
	g.Factions = faction.New(store, faction.Options{
		Clock:  clock,
		Rand:   rand,
		Logger: log.With("engine", "faction"),
		Config: opts.Faction,
	})
	g.Threats = threat.New(store, threat.Options{
		Clock:    clock,
		Rand:     rand,
		Logger:   log.With("engine", "threat"),
		Factions: g.Factions,
		Events:   g.Factions,
	})
	g.Factions.SetPursuitHandler(g.Threats)

	// NPCs read alignments straight from the store: a player the Force has
	// never touched has no record, which NPCs treat as no Force presence.
	g.NPCs = npc.New(store, npc.Options{
		Clock:           clock,
		Rand:            rand,
		Logger:          log.With("engine", "npc"),
		Threats:         g.Threats,
		Alignments:      store,
		Dialogue:        opts.Dialogue,
		DialogueTimeout: opts.DialogueTimeout,
	})
	g.Force = force.New(store, force.Options{
		Clock:    clock,
		Rand:     rand,
		Logger:   log.With("engine", "force"),
		Config:   opts.Force,
		Factions: g.Factions,
		Events:   g.Factions,
		NPCs:     g.NPCs,
	})
	g.Quests = quest.New(store, quest.Options{
		Clock:    clock,
		Rand:     rand,
		Logger:   log.With("engine", "quest"),
		Factions: g.Factions,
		Force:    g.Force,
		Threats:  g.Threats,
		Contacts: g.NPCs,
	})
	return g
}

// Context bounds the cascades started under ctx to the configured depth.
func (g *Galaxy) Context(ctx context.Context) context.Context {
	return world.WithCascadeLimit(ctx, g.depth)
}

// Seed creates the starting factions that do not exist yet.
func (g *Galaxy) Seed(ctx context.Context) ([]string, error) {
	created, err := g.Factions.Seed(ctx)
	if err != nil {
		return created, fmt.Errorf("seed galaxy: %w", err)
	}
	return created, nil
}

// Tick advances the faction simulation once.
func (g *Galaxy) Tick(ctx context.Context, force bool) (faction.TickReport, error) {
	report, err := g.Factions.RunTick(g.Context(ctx), force)
	if err != nil {
		return report, fmt.Errorf("galaxy tick: %w", err)
	}
	g.log.Info("galaxy tick",
		"ticked", report.Ticked(),
		"factions", len(report.Results),
		"conflicts", len(report.Conflicts),
	)
	return report, nil
}

// Close releases the store.
func (g *Galaxy) Close() error {
	return g.Store.Close()
}
