package faction_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/persistence/memstore"
	"github.com/talgya/holonet/internal/world"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memstore.Store
	clock *world.FixedClock
	eng   *faction.Engine
}

func newFixture(t *testing.T, src entropy.Source, tune ...func(*faction.Config)) fixture {
	t.Helper()
	cfg := faction.DefaultConfig()
	cfg.ConflictNoise = 0
	for _, fn := range tune {
		fn(&cfg)
	}
	fx := fixture{store: memstore.New(), clock: world.NewFixedClock(epoch)}
	fx.eng = faction.New(fx.store, faction.Options{Clock: fx.clock, Rand: src, Config: &cfg})
	_, err := fx.eng.Seed(context.Background())
	require.NoError(t, err)
	return fx
}

func TestSeedIsIdempotent(t *testing.T) {
	fx := newFixture(t, entropy.NewSeeded(1))
	created, err := fx.eng.Seed(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)

	all, err := fx.eng.ListFactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRunTickRespectsTimeGate(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.NewSeeded(3))

	first, err := fx.eng.RunTick(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Ticked())

	before, err := fx.eng.ListFactions(ctx)
	require.NoError(t, err)

	fx.clock.Advance(23 * time.Hour)
	second, err := fx.eng.RunTick(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Ticked())
	assert.Empty(t, second.Conflicts)

	after, err := fx.eng.ListFactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	fx.clock.Advance(time.Hour)
	third, err := fx.eng.RunTick(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 4, third.Ticked())
}

func TestForcedTickWithNoResourcesStartsNothing(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.Constant(0))

	for _, name := range []string{world.GalacticEmpire, world.RebelAlliance, world.HuttCartel, world.CorporateSector} {
		_, err := fx.store.UpdateFaction(ctx, name, func(f *world.Faction) error {
			f.Resources = 0
			return nil
		})
		require.NoError(t, err)
	}

	report, err := fx.eng.RunTick(ctx, true)
	require.NoError(t, err)
	for _, res := range report.Results {
		for _, op := range res.Started {
			assert.Zero(t, op.ResourceCost, "%s started %s", res.Faction, op.Name)
		}
	}
}

func TestGenerateOperationNeedsResources(t *testing.T) {
	fx := newFixture(t, entropy.Constant(0.99))
	f := world.Faction{Name: "Poor Empire", Category: world.CategoryState, Resources: 100}

	// 0.99 selects Rebel Hunt at a cost of 500.
	assert.Nil(t, fx.eng.GenerateOperation(&f, faction.GoalMaintainOrder, epoch))
	assert.Nil(t, fx.eng.GenerateOperation(&f, "Develop Superweapons", epoch))

	f.Resources = 600
	op := fx.eng.GenerateOperation(&f, faction.GoalMaintainOrder, epoch)
	require.NotNil(t, op)
	assert.Equal(t, "Rebel Hunt", op.Name)
	assert.Equal(t, 600, f.Resources, "generation must not deduct")
	assert.Equal(t, epoch.Add(14*24*time.Hour), op.CompletesAt)
}

func TestGenerateOperationRefusesFullList(t *testing.T) {
	fx := newFixture(t, entropy.Constant(0))
	f := world.Faction{Category: world.CategoryState, Resources: 100000}
	for i := 0; i < world.MaxOperations; i++ {
		require.True(t, f.Operations.Add(world.Operation{Name: "busy"}))
	}
	assert.Nil(t, fx.eng.GenerateOperation(&f, faction.GoalMaintainOrder, epoch))
}

func noConflicts(cfg *faction.Config) { cfg.ConflictScale = 0 }

func TestTickResolvesDueOperations(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.Constant(0), noConflicts)

	_, err := fx.store.UpdateFaction(ctx, world.HuttCartel, func(f *world.Faction) error {
		f.Goals = nil
		f.Operations = world.OperationList{
			{Name: "Route Enforcement", ResourceGain: 500, SuccessChance: 0.7, CompletesAt: epoch.Add(-time.Hour)},
			{Name: "Territory Expansion", TerritoryGain: 1, SuccessChance: 0.7, CompletesAt: epoch.Add(48 * time.Hour)},
		}
		return nil
	})
	require.NoError(t, err)

	report, err := fx.eng.RunTick(ctx, true)
	require.NoError(t, err)

	var hutt faction.TickResult
	for _, r := range report.Results {
		if r.Faction == world.HuttCartel {
			hutt = r
		}
	}
	require.Len(t, hutt.Resolved, 1)
	assert.True(t, hutt.Resolved[0].Success)
	assert.Equal(t, 500, hutt.ResourceDelta)
	assert.Nil(t, hutt.Event, "a delta of exactly 500 is below the event gate")

	f, err := fx.eng.GetFactionState(ctx, world.HuttCartel)
	require.NoError(t, err)
	assert.Equal(t, 5500, f.Resources)
	require.Len(t, f.Operations, 1)
	assert.Equal(t, "Territory Expansion", f.Operations[0].Name)
	assert.Equal(t, epoch, f.LastActionTime)
}

func TestTickEmitsEventForLargeSwing(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.Constant(0))

	_, err := fx.store.UpdateFaction(ctx, world.CorporateSector, func(f *world.Faction) error {
		f.Goals = nil
		f.Operations = world.OperationList{
			{Name: "Market Expansion", ResourceGain: 800, SuccessChance: 0.7, CompletesAt: epoch},
		}
		return nil
	})
	require.NoError(t, err)

	report, err := fx.eng.RunTick(ctx, true)
	require.NoError(t, err)

	var found bool
	for _, r := range report.Results {
		if r.Faction == world.CorporateSector {
			require.NotNil(t, r.Event)
			assert.Equal(t, world.EventPolitical, r.Event.Category)
			assert.Equal(t, 4, r.Event.Impact)
			found = true
		}
	}
	assert.True(t, found)

	events, err := fx.eng.ListEvents(ctx, world.EventFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}

func TestConflictTransfersFromLoser(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.Constant(0))

	for _, name := range []string{world.GalacticEmpire, world.RebelAlliance, world.HuttCartel, world.CorporateSector} {
		_, err := fx.store.UpdateFaction(ctx, name, func(f *world.Faction) error {
			f.Goals = nil
			return nil
		})
		require.NoError(t, err)
	}

	report, err := fx.eng.RunTick(ctx, true)
	require.NoError(t, err)
	require.NotEmpty(t, report.Conflicts)

	c := report.Conflicts[0]
	assert.Equal(t, world.GalacticEmpire, c.Winner)
	assert.Equal(t, world.RebelAlliance, c.Loser)
	assert.Equal(t, 200, c.ResourceTransfer)

	rebels, err := fx.eng.GetFactionState(ctx, world.RebelAlliance)
	require.NoError(t, err)
	assert.Equal(t, 1800, rebels.Resources)
	assert.GreaterOrEqual(t, rebels.Territory, 1)
}

func TestUpdateAwarenessClampsAndPursues(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.NewSeeded(9))

	res, err := fx.eng.UpdateAwareness(ctx, faction.AwarenessChange{
		Faction: world.GalacticEmpire, Player: "kira", RelationshipDelta: 40, AwarenessDelta: 60, Reason: "test",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, res.Hostility)
	assert.Equal(t, 60, res.Awareness)
	assert.True(t, res.PursuitQueued)
	assert.Contains(t, res.Consequences[0], "priority target")

	again, err := fx.eng.UpdateAwareness(ctx, faction.AwarenessChange{
		Faction: world.GalacticEmpire, Player: "kira", RelationshipDelta: 500, AwarenessDelta: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, again.Hostility)
	assert.Equal(t, 100, again.Awareness)
	assert.False(t, again.PursuitQueued, "one pursuit per player")

	f, err := fx.eng.GetFactionState(ctx, world.GalacticEmpire)
	require.NoError(t, err)
	assert.Equal(t, 10000-200, f.Resources)
	assert.True(t, f.Operations.Pursuing("kira"))

	watch, err := fx.eng.UpdateAwareness(ctx, faction.AwarenessChange{
		Faction: world.GalacticEmpire, Player: "kira", RelationshipDelta: -300,
	})
	require.NoError(t, err)
	assert.Equal(t, -100, watch.Hostility)
	require.Len(t, watch.Consequences, 1)
	assert.Contains(t, watch.Consequences[0], "actively tracking")

	_, err = fx.eng.UpdateAwareness(ctx, faction.AwarenessChange{Faction: "Trade Federation"})
	assert.ErrorIs(t, err, world.ErrNotFound)
}

func TestConcurrentAwarenessUpdatesSum(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.NewSeeded(5))

	var wg sync.WaitGroup
	for _, d := range []int{10, -30} {
		wg.Add(1)
		go func(delta int) {
			defer wg.Done()
			_, err := fx.eng.UpdateAwareness(ctx, faction.AwarenessChange{
				Faction: world.RebelAlliance, Player: "kira", RelationshipDelta: delta,
			})
			assert.NoError(t, err)
		}(d)
	}
	wg.Wait()

	f, err := fx.eng.GetFactionState(ctx, world.RebelAlliance)
	require.NoError(t, err)
	assert.Equal(t, -20, f.Hostility)
}

func TestApplyWorldEvent(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.NewSeeded(1))

	tests := []struct {
		category  world.EventCategory
		resource  int
		influence int
	}{
		{world.EventMilitary, -200, -4},
		{world.EventEconomic, 400, 0},
		{world.EventPolitical, 0, 8},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			effects, err := fx.eng.ApplyWorldEvent(ctx, world.WorldEvent{
				Title: "test", Category: tt.category, Impact: 4,
				Factions: []string{world.HuttCartel, "Nobody"},
			})
			require.NoError(t, err)
			require.Len(t, effects, 1)
			assert.Equal(t, tt.resource, effects[0].ResourceDelta)
			assert.Equal(t, tt.influence, effects[0].InfluenceDelta)
		})
	}

	_, err := fx.eng.ApplyWorldEvent(ctx, world.WorldEvent{Category: "weather"})
	assert.ErrorIs(t, err, world.ErrInvalidInput)
}

func TestMilitaryEventRespectsFloor(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.NewSeeded(1))

	_, err := fx.store.UpdateFaction(ctx, world.RebelAlliance, func(f *world.Faction) error {
		f.Resources = 150
		f.Influence = 3
		return nil
	})
	require.NoError(t, err)

	_, effects, err := fx.eng.TriggerWorldEvent(ctx, faction.EventInput{
		Title: "Battle", Category: world.EventMilitary, Impact: 10, Factions: []string{world.RebelAlliance},
	})
	require.NoError(t, err)
	require.Len(t, effects, 1)

	f, err := fx.eng.GetFactionState(ctx, world.RebelAlliance)
	require.NoError(t, err)
	assert.Equal(t, 100, f.Resources)
	assert.Equal(t, 0, f.Influence)
}

type recordingPursuit struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingPursuit) PursuitResolved(ctx context.Context, faction, player string, success bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, faction+"/"+player)
	return nil
}

func TestResolvedPursuitNotifiesHandler(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, entropy.Constant(0))
	h := &recordingPursuit{}
	fx.eng.SetPursuitHandler(h)

	_, err := fx.eng.UpdateAwareness(ctx, faction.AwarenessChange{
		Faction: world.HuttCartel, Player: "kira", RelationshipDelta: 50, AwarenessDelta: 80,
	})
	require.NoError(t, err)

	fx.clock.Advance(8 * 24 * time.Hour)
	_, err = fx.eng.RunTick(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{world.HuttCartel + "/kira"}, h.calls)
}
