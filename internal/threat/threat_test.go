package threat_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/persistence/memstore"
	"github.com/talgya/holonet/internal/threat"
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
	ev.ID = "ev"
	f.events = append(f.events, ev)
	return ev, nil
}

type fixture struct {
	store    *memstore.Store
	factions *fakeFactions
	events   *fakeEvents
	eng      *threat.Engine
}

func newFixture(src entropy.Source) fixture {
	fx := fixture{store: memstore.New(), factions: &fakeFactions{}, events: &fakeEvents{}}
	fx.eng = threat.New(fx.store, threat.Options{
		Clock:    world.NewFixedClock(epoch),
		Rand:     src,
		Factions: fx.factions,
		Events:   fx.events,
	})
	return fx
}

func (fx fixture) preset(t *testing.T, player string, fn func(*world.ThreatLevel)) {
	t.Helper()
	_, err := fx.store.UpdateThreat(context.Background(), player, func(tl *world.ThreatLevel) error {
		fn(tl)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateThreatAppliesIncrements(t *testing.T) {
	fx := newFixture(entropy.Constant(0.9))

	res, err := fx.eng.UpdateThreat(context.Background(), threat.Action{
		Player: "kira", Kind: "imperial_crime", Severity: 3, Faction: world.GalacticEmpire,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, res.Notoriety)
	assert.Equal(t, 90, res.Imperial)
	assert.Equal(t, 6, res.Criminal)
	assert.Equal(t, 6000, res.Bounty)
	assert.Equal(t, 1, res.PreviousHeat)
	assert.Equal(t, 3, res.Heat)
	require.Len(t, res.Escalations, 2)
	assert.Equal(t, "imperial_crime", res.Escalations[0].Action)
	assert.Equal(t, world.GalacticEmpire, res.Escalations[0].Faction)
	assert.Equal(t, 3, res.Escalations[0].Heat)
	assert.Equal(t, "monitoring", res.Escalations[1].Action)
	assert.Empty(t, res.Deployed)
}

func TestEveryUpdateIsLogged(t *testing.T) {
	fx := newFixture(entropy.Constant(0.9))
	ctx := context.Background()
	fx.preset(t, "kira", func(tl *world.ThreatLevel) { tl.Heat = 10 })

	res, err := fx.eng.UpdateThreat(ctx, threat.Action{Player: "kira", Kind: "gossip", Severity: 1})
	require.NoError(t, err)
	require.Len(t, res.Escalations, 1, "no tier fires when heat does not rise")
	assert.Equal(t, "gossip", res.Escalations[0].Action)

	tl, err := fx.eng.GetThreat(ctx, "kira")
	require.NoError(t, err)
	assert.Equal(t, 1, tl.Escalations.Len())
}

func TestDeployKeepsAgentsStillInPlay(t *testing.T) {
	fx := newFixture(entropy.Constant(0.9))
	ctx := context.Background()
	fx.preset(t, "kira", func(tl *world.ThreatLevel) {
		tl.Notoriety, tl.ImperialAwareness, tl.CriminalReputation = 40, 40, 40
		tl.Agents.Push(world.BountyAgent{ID: "early", Name: "Dengar", Kind: world.AgentGuildHunter, Status: world.AgentEngaged})
		for i := 0; i < world.MaxBountyAgents-1; i++ {
			tl.Agents.Push(world.BountyAgent{ID: fmt.Sprintf("done-%d", i), Status: world.AgentSucceeded})
		}
	})

	res, err := fx.eng.UpdateThreat(ctx, threat.Action{Player: "kira", Kind: "smuggling", Severity: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Heat)
	require.Len(t, res.Deployed, 1)

	tl, err := fx.eng.GetThreat(ctx, "kira")
	require.NoError(t, err)
	assert.Equal(t, world.MaxBountyAgents, tl.Agents.Len())
	ids := map[string]bool{}
	for _, a := range tl.Agents.Items() {
		ids[a.ID] = true
	}
	assert.True(t, ids["early"])
	assert.True(t, ids[res.Deployed[0].ID])
	assert.False(t, ids["done-0"], "the oldest settled agent makes room")

	r, err := fx.eng.ResolveEncounter(ctx, "kira", "early", false)
	require.NoError(t, err)
	assert.Equal(t, world.AgentEvaded, r.Status)
}

func TestUpdateThreatValidatesSeverity(t *testing.T) {
	fx := newFixture(entropy.Constant(0.5))
	for _, sev := range []int{0, 11} {
		_, err := fx.eng.UpdateThreat(context.Background(), threat.Action{Player: "kira", Kind: "piracy", Severity: sev})
		assert.ErrorIs(t, err, world.ErrInvalidInput)
	}
}

func TestTopBandDeploysEverything(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	fx.preset(t, "kira", func(tl *world.ThreatLevel) {
		tl.Notoriety, tl.ImperialAwareness, tl.RebelAwareness, tl.CriminalReputation = 90, 90, 80, 80
		tl.Bounty = 20000
	})

	res, err := fx.eng.UpdateThreat(context.Background(), threat.Action{Player: "kira", Kind: "smuggling", Severity: 1})
	require.NoError(t, err)
	assert.Equal(t, 9, res.Heat)

	kinds := map[world.AgentKind]int{}
	for _, a := range res.Deployed {
		kinds[a.Kind]++
	}
	assert.Equal(t, 1, kinds[world.AgentResponseTeam])
	assert.Equal(t, 2, kinds[world.AgentGuildHunter])
	assert.Equal(t, 1, kinds[world.AgentBountyHunter])
	assert.Len(t, res.Events, 2)
	assert.Len(t, fx.events.events, 2)
}

func TestWitnessesReportToTheirFactions(t *testing.T) {
	fx := newFixture(entropy.Constant(0.9))

	_, err := fx.eng.UpdateThreat(context.Background(), threat.Action{
		Player: "kira", Kind: "smuggling", Severity: 2,
		Witnesses: []string{"Imperial Officer Vex", "Rebel Spy Tann", "Smuggler Jax", "Farmer Owen"},
	})
	require.NoError(t, err)

	require.Len(t, fx.factions.changes, 3)
	assert.Equal(t, faction.AwarenessChange{
		Faction: world.GalacticEmpire, Player: "kira", RelationshipDelta: 6, AwarenessDelta: 10,
		Reason: "Imperial Officer Vex witnessed smuggling",
	}, fx.factions.changes[0])
	assert.Equal(t, world.RebelAlliance, fx.factions.changes[1].Faction)
	assert.Equal(t, 2, fx.factions.changes[1].RelationshipDelta)
	assert.Equal(t, 6, fx.factions.changes[1].AwarenessDelta)
	assert.Equal(t, world.HuttCartel, fx.factions.changes[2].Faction)
	assert.Equal(t, -2, fx.factions.changes[2].RelationshipDelta, "smuggling pleases the cartel")
}

func TestReduceHeatFakeDeath(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	fx.preset(t, "kira", func(tl *world.ThreatLevel) {
		tl.Notoriety, tl.ImperialAwareness, tl.RebelAwareness, tl.CriminalReputation = 90, 90, 80, 80
		tl.Bounty = 20000
		tl.Heat = tl.ComputeHeat()
		tl.Agents.Push(world.BountyAgent{ID: "a1", Name: "Amateur Bounty Hunter", Threat: world.TierLow, Status: world.AgentHunting})
		tl.Agents.Push(world.BountyAgent{ID: "a2", Name: "Guild Hunter", Threat: world.TierHigh, Status: world.AgentHunting})
	})

	res, err := fx.eng.ReduceHeat(context.Background(), "kira", "fake_death", 14)
	require.NoError(t, err)
	assert.Equal(t, 9, res.OldHeat)
	assert.Less(t, res.NewHeat, res.OldHeat)
	assert.Equal(t, 5, res.NewHeat)
	assert.Equal(t, []string{"Amateur Bounty Hunter"}, res.Withdrawn)

	tl, err := fx.eng.GetThreat(context.Background(), "kira")
	require.NoError(t, err)
	assert.Equal(t, 40, tl.Notoriety)
	assert.Equal(t, 30, tl.ImperialAwareness)
	assert.Equal(t, 10000, tl.Bounty)
	require.Len(t, tl.ActiveAgents(), 1)
	assert.Equal(t, "a2", tl.ActiveAgents()[0].ID)
}

func TestReduceHeatRejectsBadInput(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	_, err := fx.eng.ReduceHeat(context.Background(), "kira", "prayer", 7)
	assert.ErrorIs(t, err, world.ErrInvalidInput)
	_, err = fx.eng.ReduceHeat(context.Background(), "kira", "laying_low", 0)
	assert.ErrorIs(t, err, world.ErrInvalidInput)
}

func TestEncountersAndResolution(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(entropy.Constant(0.3))
	fx.preset(t, "kira", func(tl *world.ThreatLevel) {
		tl.Bounty = 10000
		tl.Agents.Push(world.BountyAgent{ID: "fast", Name: "Dengar", Completion: 0.5, Status: world.AgentHunting})
		tl.Agents.Push(world.BountyAgent{ID: "slow", Name: "Rookie", Completion: 0.2, Status: world.AgentHunting})
	})

	enc, err := fx.eng.CheckBountyEncounters(ctx, "kira")
	require.NoError(t, err)
	require.Len(t, enc, 1)
	assert.Equal(t, "fast", enc[0].AgentID)
	assert.Equal(t, threat.StyleAmbush, enc[0].Style)

	res, err := fx.eng.ResolveEncounter(ctx, "kira", "fast", false)
	require.NoError(t, err)
	assert.Equal(t, world.AgentEvaded, res.Status)
	assert.Equal(t, 11000, res.Bounty)

	_, err = fx.eng.ResolveEncounter(ctx, "kira", "fast", true)
	assert.ErrorIs(t, err, world.ErrInvalidState)

	_, err = fx.eng.ResolveEncounter(ctx, "kira", "ghost", true)
	assert.ErrorIs(t, err, world.ErrNotFound)
}

func TestFactionResponseLadder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(entropy.Constant(0))
	fx.preset(t, "kira", func(tl *world.ThreatLevel) { tl.ImperialAwareness = 45 })

	res, err := fx.eng.EscalateFactionResponse(ctx, "kira", world.GalacticEmpire, "")
	require.NoError(t, err)
	assert.Equal(t, "wanted_poster", res.Action)
	assert.Equal(t, 1000, res.Bounty)

	_, err = fx.eng.EscalateFactionResponse(ctx, "kira", "Trade Federation", "")
	assert.ErrorIs(t, err, world.ErrInvalidInput)

	require.NoError(t, fx.eng.PursuitResolved(ctx, world.HuttCartel, "kira", false))
	tl, err := fx.eng.GetThreat(ctx, "kira")
	require.NoError(t, err)
	last := tl.Escalations.Last(1)
	require.Len(t, last, 1)
	assert.Equal(t, "pursuit_lost", last[0].Action)
}

func TestCurrentThreatsForUnknownPlayer(t *testing.T) {
	fx := newFixture(entropy.Constant(0))
	s, err := fx.eng.CurrentThreats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Heat)
	assert.Contains(t, s.Band, "Minimal")
}

func TestScalarsStayBounded(t *testing.T) {
	ctx := context.Background()
	src := entropy.NewSeeded(42)
	fx := newFixture(src)
	kinds := []string{"imperial_crime", "rebel_activity", "terrorism", "smuggling", "force_display", "gossip"}
	factions := []string{"", world.GalacticEmpire, world.RebelAlliance, world.HuttCartel}

	for i := 0; i < 200; i++ {
		if i%7 == 0 {
			_, err := fx.eng.ReduceHeat(ctx, "kira", "bribing_officials", entropy.Between(src, 1, 30))
			require.NoError(t, err)
			continue
		}
		_, err := fx.eng.UpdateThreat(ctx, threat.Action{
			Player:   "kira",
			Kind:     entropy.Pick(src, kinds),
			Severity: entropy.Between(src, 1, 10),
			Faction:  entropy.Pick(src, factions),
		})
		require.NoError(t, err)

		tl, err := fx.eng.GetThreat(ctx, "kira")
		require.NoError(t, err)
		for _, v := range []int{tl.Notoriety, tl.ImperialAwareness, tl.RebelAwareness, tl.CriminalReputation} {
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 100)
		}
		assert.GreaterOrEqual(t, tl.Bounty, 0)
		assert.GreaterOrEqual(t, tl.Heat, 1)
		assert.LessOrEqual(t, tl.Heat, 10)
		assert.LessOrEqual(t, tl.Escalations.Len(), world.MaxEscalations)
	}
}
