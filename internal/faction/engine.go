// Package faction runs the autonomous powers of the galaxy: daily ticks that
// resolve and launch operations, open conflict between hostile pairs, player
// awareness, and the effects of world events.
package faction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

// DefaultTickInterval is the minimum time between two unforced ticks of a faction.
const DefaultTickInterval = 24 * time.Hour

// Config holds the tunables of the faction engine.
type Config struct {
	TickInterval time.Duration

	// A tick emits an event when its resource or territory delta exceeds
	// the major thresholds. The minor thresholds are checked again when the
	// event is built; with the defaults they never reject anything the major
	// gate let through.
	MajorResourceDelta  int
	MajorTerritoryDelta int
	MinorResourceDelta  int
	MinorTerritoryDelta int

	ConflictScale float64 // multiplies each hostile pair's base chance
	ConflictNoise float64 // amplitude of the pressure field, 0 disables
	ConflictSeed  int64

	ResourceFloor  int // conflict and military events never push below this
	TerritoryFloor int

	PursuitCost int
	PursuitDays int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		TickInterval:        DefaultTickInterval,
		MajorResourceDelta:  500,
		MajorTerritoryDelta: 2,
		MinorResourceDelta:  200,
		MinorTerritoryDelta: 1,
		ConflictScale:       0.1,
		ConflictNoise:       0.25,
		ConflictSeed:        1977,
		ResourceFloor:       100,
		TerritoryFloor:      1,
		PursuitCost:         200,
		PursuitDays:         7,
	}
}

// Store is the persistence the faction engine needs.
type Store interface {
	world.FactionStore
	world.EventStore
}

// PursuitHandler is told when a pursuit operation against a player resolves.
type PursuitHandler interface {
	PursuitResolved(ctx context.Context, faction, player string, success bool) error
}

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Clock  world.Clock
	Rand   entropy.Source
	Logger *slog.Logger
	Config *Config
}

// Engine advances factions and applies consequences to them.
type Engine struct {
	store    Store
	clock    world.Clock
	rand     entropy.Source
	log      *slog.Logger
	cfg      Config
	pressure *Pressure
	pursuit  PursuitHandler
}

// New creates a faction engine over store.
func New(store Store, opts Options) *Engine {
	e := &Engine{
		store: store,
		clock: opts.Clock,
		rand:  opts.Rand,
		log:   opts.Logger,
		cfg:   DefaultConfig(),
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
	e.pressure = NewPressure(e.cfg.ConflictSeed, e.cfg.ConflictNoise)
	return e
}

// SetPursuitHandler registers the receiver of resolved pursuits.
func (e *Engine) SetPursuitHandler(h PursuitHandler) { e.pursuit = h }

// Seed creates the starting factions that do not exist yet and returns the
// names created.
func (e *Engine) Seed(ctx context.Context) ([]string, error) {
	var created []string
	for _, f := range SeedFactions(e.clock.Now()) {
		err := e.store.CreateFaction(ctx, f)
		if errors.Is(err, world.ErrInvalidState) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", f.Name, err)
		}
		created = append(created, f.Name)
	}
	if len(created) > 0 {
		e.log.Info("factions seeded", "count", len(created))
	}
	return created, nil
}

// GetFactionState returns the current record of a faction.
func (e *Engine) GetFactionState(ctx context.Context, name string) (world.Faction, error) {
	f, err := e.store.GetFaction(ctx, name)
	if err != nil {
		return world.Faction{}, fmt.Errorf("get faction: %w", err)
	}
	return f, nil
}

// ListFactions returns every faction.
func (e *Engine) ListFactions(ctx context.Context) ([]world.Faction, error) {
	return e.store.ListFactions(ctx)
}

// GenerateOperation picks an operation for goal from the faction's template
// bank. It returns nil when the goal has no templates, the chosen template
// costs more than the faction holds, or the operation list is full. f is not
// modified.
func (e *Engine) GenerateOperation(f *world.Faction, goal string, now time.Time) *world.Operation {
	if f.Operations.Full() {
		return nil
	}
	options := TemplatesFor(f.Category, goal)
	if len(options) == 0 {
		return nil
	}
	t := entropy.Pick(e.rand, options)
	if f.Resources < t.Cost {
		return nil
	}
	success := t.Success
	if success == 0 {
		success = DefaultSuccessChance
	}
	return &world.Operation{
		ID:            uuid.NewString(),
		Kind:          world.OperationStrategic,
		Name:          t.Name,
		Goal:          goal,
		ResourceCost:  t.Cost,
		ResourceGain:  t.ResourceGain,
		TerritoryGain: t.TerritoryGain,
		InfluenceGain: t.InfluenceGain,
		ResourceLoss:  t.ResourceLoss,
		InfluenceLoss: t.InfluenceLoss,
		SuccessChance: success,
		StartedAt:     now,
		CompletesAt:   now.Add(time.Duration(t.Days) * 24 * time.Hour),
	}
}

// newEvent stamps an event with an id and creation time.
func (e *Engine) newEvent(ev world.WorldEvent) world.WorldEvent {
	ev.ID = uuid.NewString()
	ev.CreatedAt = e.clock.Now()
	ev.Active = true
	ev.Impact = world.ClampImpact(ev.Impact)
	if ev.DurationDays == 0 {
		ev.DurationDays = 1
	}
	return ev
}

// floorAt lowers v by delta but never below floor, unless v already was.
func floorAt(v, delta, floor int) int {
	next := v - delta
	limit := floor
	if v < floor {
		limit = v
	}
	if next < limit {
		return limit
	}
	return next
}

func credits(n int) string { return humanize.Comma(int64(n)) }
