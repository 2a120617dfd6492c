package force_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/force"
	"github.com/talgya/holonet/internal/npc"
	"github.com/talgya/holonet/internal/persistence/memstore"
	"github.com/talgya/holonet/internal/world"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeFactions struct {
	mu      sync.Mutex
	changes []faction.AwarenessChange
}

func (f *fakeFactions) UpdateAwareness(ctx context.Context, c faction.AwarenessChange) (faction.AwarenessResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, c)
	return faction.AwarenessResult{Faction: c.Faction, Hostility: c.RelationshipDelta, Awareness: c.AwarenessDelta}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []world.WorldEvent
}

func (f *fakeEvents) Emit(ctx context.Context, ev world.WorldEvent) (world.WorldEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return ev, nil
}

type fakeNPCs struct {
	mu        sync.Mutex
	reactions []npc.ForceReaction
	targets   []string
	witnesses []string
}

func (f *fakeNPCs) ReactToForceEvent(ctx context.Context, player string, r npc.ForceReaction) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, r)
	return nil, nil
}

func (f *fakeNPCs) WitnessPower(ctx context.Context, player, power, target string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	return f.witnesses, nil
}

type fixture struct {
	store    *memstore.Store
	clock    *world.FixedClock
	factions *fakeFactions
	events   *fakeEvents
	npcs     *fakeNPCs
	eng      *force.Engine
}

func newFixture(src entropy.Source) fixture {
	fx := fixture{
		store:    memstore.New(),
		clock:    world.NewFixedClock(epoch),
		factions: &fakeFactions{},
		events:   &fakeEvents{},
		npcs:     &fakeNPCs{},
	}
	fx.eng = force.New(fx.store, force.Options{
		Clock:    fx.clock,
		Rand:     src,
		Factions: fx.factions,
		Events:   fx.events,
		NPCs:     fx.npcs,
	})
	return fx
}

func (fx fixture) preset(t *testing.T, player string, fn func(*world.ForceAlignment)) {
	t.Helper()
	_, err := fx.store.UpdateAlignment(context.Background(), player, func(a *world.ForceAlignment) error {
		fn(a)
		return nil
	})
	require.NoError(t, err)
}

func TestDarkActionsCorruptAndUnlock(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := context.Background()

	var unlocked [][]string
	var last force.AlignmentResult
	for i := 0; i < 8; i++ {
		res, err := fx.eng.UpdateAlignment(ctx, force.Action{Player: "vex", Kind: world.Dark, Magnitude: 8})
		require.NoError(t, err)
		assert.Equal(t, -24, res.Change)
		assert.Equal(t, i == 0, res.Awakened, "update %d", i)
		unlocked = append(unlocked, res.Unlocked)
		last = res
	}

	assert.Equal(t, -100, last.Net)
	assert.Equal(t, 40, last.Corruption)
	assert.Equal(t, "Dark Side Corruption", last.Tier)
	assert.True(t, last.ForceSensitive)

	assert.Equal(t, []string{world.PowerSense}, unlocked[0])
	assert.ElementsMatch(t, []string{world.PowerPush, world.PowerChoke}, unlocked[1])
	assert.Empty(t, unlocked[2])
	assert.Empty(t, unlocked[3])
	assert.Equal(t, []string{world.PowerLightning}, unlocked[4])

	assert.Len(t, fx.events.events, 8)
	assert.Equal(t, "Dark Side Disturbance Detected", fx.events.events[0].Title)
	assert.Equal(t, world.EventForce, fx.events.events[0].Category)
	assert.Len(t, fx.npcs.reactions, 8)

	a, err := fx.eng.GetAlignment(ctx, "vex")
	require.NoError(t, err)
	assert.Equal(t, 192, a.DarkPoints)
	assert.Equal(t, 8, a.Events.Len())
	assert.Equal(t, 8, a.History.Len())
}

func TestManifestationRespectsCooldown(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := context.Background()
	const marker = "Dark Side corruption manifests physically - your eyes show hints of Sith yellow"

	first, err := fx.eng.UpdateAlignment(ctx, force.Action{Player: "vex", Kind: world.Dark, Magnitude: 3})
	require.NoError(t, err)
	assert.Contains(t, first.Consequences, marker)

	fx.clock.Advance(24 * time.Hour)
	second, err := fx.eng.UpdateAlignment(ctx, force.Action{Player: "vex", Kind: world.Dark, Magnitude: 3})
	require.NoError(t, err)
	assert.NotContains(t, second.Consequences, marker)

	fx.clock.Advance(7 * 24 * time.Hour)
	third, err := fx.eng.UpdateAlignment(ctx, force.Action{Player: "vex", Kind: world.Dark, Magnitude: 3})
	require.NoError(t, err)
	assert.Contains(t, third.Consequences, marker)
}

func TestSensitivityAwakensAtThreshold(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		res, err := fx.eng.UpdateAlignment(ctx, force.Action{Player: "ila", Kind: world.Light, Magnitude: 1})
		require.NoError(t, err)
		assert.Equal(t, i >= 5, res.ForceSensitive, "update %d", i)
		assert.Equal(t, i == 5, res.Awakened, "update %d", i)
		assert.Equal(t, 0, res.Corruption)
	}
}

func TestNeutralActionAddsNothing(t *testing.T) {
	fx := newFixture(entropy.Constant(0))

	res, err := fx.eng.UpdateAlignment(context.Background(), force.Action{Player: "ila", Kind: world.Neutral, Magnitude: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Change)
	assert.Equal(t, 0, res.Net)
	assert.Equal(t, "Balanced/Gray", res.Tier)
	assert.Empty(t, fx.events.events)
}

func TestUpdateAlignmentRejectsBadInput(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := context.Background()

	_, err := fx.eng.UpdateAlignment(ctx, force.Action{Player: "ila", Kind: "gray", Magnitude: 1})
	assert.ErrorIs(t, err, world.ErrInvalidInput)
	_, err = fx.eng.UpdateAlignment(ctx, force.Action{Player: "ila", Kind: world.Light, Magnitude: 0})
	assert.ErrorIs(t, err, world.ErrInvalidInput)
	_, err = fx.eng.UpdateAlignment(ctx, force.Action{Player: "ila", Kind: world.Light, Magnitude: 11})
	assert.ErrorIs(t, err, world.ErrInvalidInput)
}

func TestWitnessesAlertFactions(t *testing.T) {
	fx := newFixture(entropy.Constant(0))

	res, err := fx.eng.UpdateAlignment(context.Background(), force.Action{
		Player:    "vex",
		Kind:      world.Dark,
		Magnitude: 2,
		Witnesses: []string{"Imperial Officer Varn", "Rebel Scout", "Farmer"},
	})
	require.NoError(t, err)

	require.Len(t, fx.factions.changes, 2)
	imp, reb := fx.factions.changes[0], fx.factions.changes[1]
	assert.Equal(t, world.GalacticEmpire, imp.Faction)
	assert.Equal(t, 6, imp.RelationshipDelta)
	assert.Equal(t, 10, imp.AwarenessDelta)
	assert.Equal(t, "Unsanctioned Force use detected", imp.Reason)
	assert.Equal(t, world.RebelAlliance, reb.Faction)
	assert.Equal(t, -4, reb.RelationshipDelta)
	assert.Equal(t, 10, reb.AwarenessDelta)

	assert.Len(t, res.FactionResponses, 2)
	assert.Contains(t, res.Consequences, "Imperial Officer Varn reports your Force abilities to Imperial Intelligence")
	assert.Contains(t, res.Consequences, "Rebel Scout considers recruiting you for the Rebellion")
	assert.Empty(t, fx.events.events, "magnitude 2 is below the disturbance threshold")

	require.Len(t, fx.npcs.reactions, 1)
	assert.Equal(t, npc.ForceReaction{Kind: world.Dark, Net: -100, Corruption: 5}, fx.npcs.reactions[0])
}

func TestCascadeStopsAtDepthLimit(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := world.WithCascadeLimit(context.Background(), 1)
	ctx, ok := world.Descend(ctx)
	require.True(t, ok)

	res, err := fx.eng.UpdateAlignment(ctx, force.Action{
		Player: "vex", Kind: world.Dark, Magnitude: 8, Witnesses: []string{"Imperial Spy"},
	})
	require.NoError(t, err)
	assert.Empty(t, fx.factions.changes)
	assert.Empty(t, fx.npcs.reactions)
	assert.Empty(t, res.FactionResponses)
	assert.Len(t, res.Events, 1, "the galaxy still feels the disturbance")
}

func TestCheckPowerUnlocksIsMonotone(t *testing.T) {
	a := world.NewForceAlignment("ila")
	a.LightPoints = 90

	got := force.CheckPowerUnlocks(&a)
	assert.Equal(t, []string{world.PowerSense, world.PowerPush, world.PowerHeal, world.PowerMeditate}, got)
	assert.Empty(t, force.CheckPowerUnlocks(&a))

	// Falling to the dark side adds dark powers but revokes nothing.
	a.DarkPoints = 400
	got = force.CheckPowerUnlocks(&a)
	assert.Equal(t, []string{world.PowerChoke, world.PowerLightning}, got)
	assert.Len(t, a.Powers, 6)
}

func TestUnlocksNeverShrink(t *testing.T) {
	src := entropy.NewSeeded(42)
	fx := newFixture(src)
	ctx := context.Background()
	kinds := []world.AlignmentKind{world.Light, world.Dark, world.Neutral}

	var prev []string
	for i := 0; i < 200; i++ {
		_, err := fx.eng.UpdateAlignment(ctx, force.Action{
			Player:    "drift",
			Kind:      entropy.Pick(src, kinds),
			Magnitude: entropy.Between(src, 1, 10),
		})
		require.NoError(t, err)
		a, err := fx.eng.GetAlignment(ctx, "drift")
		require.NoError(t, err)
		for _, p := range prev {
			assert.True(t, a.HasPower(p), "lost %s at step %d", p, i)
		}
		assert.GreaterOrEqual(t, a.Net(), -100)
		assert.LessOrEqual(t, a.Net(), 100)
		assert.LessOrEqual(t, a.Events.Len(), world.MaxForceEvents)
		assert.LessOrEqual(t, a.History.Len(), world.MaxAlignmentHistory)
		prev = append([]string(nil), a.Powers...)
	}
}

func darkAdept(a *world.ForceAlignment) {
	a.DarkPoints = 100
	a.ForceSensitive = true
	a.Powers = []string{world.PowerSense, world.PowerPush, world.PowerChoke, world.PowerLightning}
}

func TestUsePowerFeedsBackIntoAlignment(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	fx.npcs.witnesses = []string{"Bartender"}
	fx.preset(t, "vex", darkAdept)

	res, err := fx.eng.UsePower(context.Background(), force.PowerUse{
		Player: "vex", Power: world.PowerChoke, Target: "Guard", Intent: force.IntentDark, Level: 5,
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "You constrict Guard's windpipe through the Force, demonstrating your power over life and death. The effect is strong and focused.", res.Effect)
	assert.Equal(t, -8, res.AlignmentChange)
	assert.Equal(t, 13, res.ForceCost)
	assert.Equal(t, []string{
		"Your display of deadly power intimidates witnesses",
		"The Dark Side strengthens its hold on you",
	}, res.Consequences)
	assert.Equal(t, []string{"Bartender"}, res.Witnesses)
	assert.Equal(t, []string{"Guard"}, fx.npcs.targets)

	require.NotNil(t, res.Alignment)
	assert.Equal(t, -6, res.Alignment.Change)

	a, err := fx.eng.GetAlignment(context.Background(), "vex")
	require.NoError(t, err)
	assert.Equal(t, 106, a.DarkPoints)
	assert.Equal(t, 6, a.Corruption, "one for dark intent, five for the feedback update")
	assert.Equal(t, 2, a.Events.Len())
}

func TestUsePowerFailure(t *testing.T) {
	fx := newFixture(entropy.Constant(0.99))
	fx.preset(t, "vex", darkAdept)

	res, err := fx.eng.UsePower(context.Background(), force.PowerUse{Player: "vex", Power: world.PowerSense, Level: 1})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Your attempt to use Force Sense fails. The Force does not bend to your will.", res.Effect)
	assert.Zero(t, res.AlignmentChange)
	assert.Equal(t, 2, res.ForceCost)
	assert.Equal(t, []string{"Your failed attempt draws unwanted attention"}, res.Consequences)
	assert.Nil(t, res.Alignment)
	assert.Empty(t, fx.npcs.targets)
}

func TestUsePowerPushWithoutTarget(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	fx.preset(t, "vex", darkAdept)

	res, err := fx.eng.UsePower(context.Background(), force.PowerUse{Player: "vex", Power: world.PowerPush, Level: 7})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "You unleash kinetic energy through the Force, pushing objects away with tremendous force. The power you channel is extraordinary.", res.Effect)
	assert.Zero(t, res.AlignmentChange)
	assert.Empty(t, fx.npcs.targets)
}

func TestUsePowerRejections(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := context.Background()
	fx.preset(t, "vex", darkAdept)
	fx.preset(t, "novice", func(a *world.ForceAlignment) { a.LightPoints = 3 })

	_, err := fx.eng.UsePower(ctx, force.PowerUse{Player: "vex", Power: world.PowerHeal, Level: 1})
	assert.ErrorIs(t, err, world.ErrInvalidState)
	_, err = fx.eng.UsePower(ctx, force.PowerUse{Player: "novice", Power: world.PowerSense, Level: 1})
	assert.ErrorIs(t, err, world.ErrInvalidState)
	_, err = fx.eng.UsePower(ctx, force.PowerUse{Player: "stranger", Power: world.PowerSense, Level: 1})
	assert.ErrorIs(t, err, world.ErrInvalidState)
	_, err = fx.eng.UsePower(ctx, force.PowerUse{Player: "vex", Power: "Force Juggle", Level: 1})
	assert.ErrorIs(t, err, world.ErrInvalidInput)
	_, err = fx.eng.UsePower(ctx, force.PowerUse{Player: "vex", Power: world.PowerSense, Level: 11})
	assert.ErrorIs(t, err, world.ErrInvalidInput)
	_, err = fx.eng.UsePower(ctx, force.PowerUse{Player: "vex", Power: world.PowerSense, Level: 1, Intent: "chaotic"})
	assert.ErrorIs(t, err, world.ErrInvalidInput)

	_, err = fx.eng.GetAlignment(ctx, "stranger")
	require.NoError(t, err)
	_, err = fx.store.GetAlignment(ctx, "stranger")
	assert.ErrorIs(t, err, world.ErrNotFound, "a rejected use creates no record")
}

func TestPowerStatus(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := context.Background()

	r, err := fx.eng.PowerStatus(ctx, "stranger")
	require.NoError(t, err)
	assert.False(t, r.ForceSensitive)
	assert.Equal(t, []string{"All powers locked - not Force-sensitive"}, r.Locked)

	fx.preset(t, "novice", func(a *world.ForceAlignment) { a.LightPoints = 3 })
	r, err = fx.eng.PowerStatus(ctx, "novice")
	require.NoError(t, err)
	assert.Equal(t, "Perform 15 Force-related actions", r.Requirements["Force Sensitivity"])

	fx.preset(t, "vex", func(a *world.ForceAlignment) {
		a.DarkPoints = 48
		a.ForceSensitive = true
		a.Powers = []string{world.PowerSense, world.PowerPush, world.PowerChoke}
	})
	r, err = fx.eng.PowerStatus(ctx, "vex")
	require.NoError(t, err)
	assert.True(t, r.ForceSensitive)
	assert.Equal(t, []string{world.PowerSense, world.PowerPush, world.PowerChoke}, r.Available)
	assert.Equal(t, []string{world.PowerHeal, world.PowerMeditate, world.PowerLightning, world.PowerStealth}, r.Locked)
	assert.Equal(t, "Requires Light Side alignment (+25 or higher)", r.Requirements[world.PowerHeal])
	assert.Equal(t, "Requires 80 Force experience (current: 48)", r.Requirements[world.PowerMeditate])
	assert.Equal(t, "Requires 100 Force experience (current: 48)", r.Requirements[world.PowerLightning])
	assert.Equal(t, "Requires 50 Force experience (current: 48)", r.Requirements[world.PowerStealth])
}

func TestGenerateVision(t *testing.T) {
	fx := newFixture(entropy.NewScript(0.1, 0.1, 0, 0))
	ctx := context.Background()
	fx.preset(t, "vex", darkAdept)

	v, err := fx.eng.GenerateVision(ctx, "vex", "")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, force.VisionFutureConflict, v.Category)
	assert.Equal(t, "You see flashes of starships engaged in fierce battle, the outcome uncertain.", v.Text)
	assert.Equal(t, 3, v.Magnitude)
	assert.Len(t, v.Hints, 3)
	assert.Equal(t, "meditation", v.Trigger)

	a, err := fx.eng.GetAlignment(ctx, "vex")
	require.NoError(t, err)
	last := a.Events.Last(1)
	require.Len(t, last, 1)
	assert.Equal(t, world.ForceEventVision, last[0].Kind)
}

func TestGenerateVisionWithheld(t *testing.T) {
	fx := newFixture(entropy.Constant(0.9))
	ctx := context.Background()
	fx.preset(t, "vex", darkAdept)

	v, err := fx.eng.GenerateVision(ctx, "vex", "danger")
	require.NoError(t, err)
	assert.Nil(t, v, "0.9 misses the 0.8 ceiling")

	v, err = fx.eng.GenerateVision(ctx, "stranger", "danger")
	require.NoError(t, err)
	assert.Nil(t, v)
	_, err = fx.store.GetAlignment(ctx, "stranger")
	assert.ErrorIs(t, err, world.ErrNotFound)
}

func TestMeditate(t *testing.T) {
	tests := []struct {
		name     string
		med      force.Meditation
		wantDiff int
		wantNet  int
		clarity  int
	}{
		{"balance at a temple", force.Meditation{Kind: force.MeditateBalance, Duration: "long", Location: "Jedi_Temple"}, 30, -54, 6},
		{"dark in transit", force.Meditation{Kind: force.MeditateDark, Duration: "medium", Location: "starship"}, -6, -100, 2},
		{"light in a cantina", force.Meditation{Kind: force.MeditateLight, Duration: "short", Location: "cantina"}, 0, -100, 0},
		{"light somewhere new", force.Meditation{Kind: force.MeditateLight, Duration: "short", Location: "Mos Eisley"}, 3, -94, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(entropy.Constant(0))
			fx.preset(t, "vex", darkAdept)
			tt.med.Player = "vex"

			res, err := fx.eng.Meditate(context.Background(), tt.med)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiff, res.AlignmentChange)
			assert.Equal(t, tt.wantNet, res.Net)
			assert.Equal(t, tt.clarity, res.Clarity)
			assert.Empty(t, res.Visions)
		})
	}
}

func TestMeditateSeeksVision(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	fx.preset(t, "vex", darkAdept)

	res, err := fx.eng.Meditate(context.Background(), force.Meditation{
		Player: "vex", Kind: force.MeditateVisionSeeking, Location: "force_nexus",
	})
	require.NoError(t, err)
	require.Len(t, res.Visions, 1)
	assert.Zero(t, res.AlignmentChange)
	assert.Equal(t, 2, res.LocationBonus)
	assert.Contains(t, res.Outcome, "A vision comes to you")
}

func TestMeditateRejectsBadInput(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := context.Background()

	_, err := fx.eng.Meditate(ctx, force.Meditation{Player: "vex", Kind: force.MeditateBalance, Duration: "forever"})
	assert.ErrorIs(t, err, world.ErrInvalidInput)
	_, err = fx.eng.Meditate(ctx, force.Meditation{Player: "vex", Kind: "chaos"})
	assert.ErrorIs(t, err, world.ErrInvalidInput)
}

func TestMeditateNeedsForceSensitivity(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	ctx := context.Background()

	_, err := fx.eng.Meditate(ctx, force.Meditation{Player: "stranger", Kind: force.MeditateLight})
	assert.ErrorIs(t, err, world.ErrInvalidState)
	_, err = fx.store.GetAlignment(ctx, "stranger")
	assert.ErrorIs(t, err, world.ErrNotFound, "a rejected meditation creates no record")

	fx.preset(t, "novice", func(a *world.ForceAlignment) { a.LightPoints = 5 })
	_, err = fx.eng.Meditate(ctx, force.Meditation{Player: "novice", Kind: force.MeditateVisionSeeking})
	assert.ErrorIs(t, err, world.ErrInvalidState)
	a, err := fx.store.GetAlignment(ctx, "novice")
	require.NoError(t, err)
	assert.Equal(t, 5, a.LightPoints)
}
