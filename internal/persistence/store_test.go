package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/holonet/internal/persistence/memstore"
	"github.com/talgya/holonet/internal/world"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "holonet.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// stores runs fn against every world.Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s world.Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, openTemp(t)) })
	t.Run("memstore", func(t *testing.T) { fn(t, memstore.New()) })
}

func TestFactions(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateFaction(ctx, world.Faction{Name: "Rebel Alliance", Resources: 2000, Goals: []string{"liberate"}}))
		require.NoError(t, s.CreateFaction(ctx, world.Faction{Name: "Galactic Empire", Resources: 10000}))

		err := s.CreateFaction(ctx, world.Faction{Name: "Galactic Empire"})
		assert.ErrorIs(t, err, world.ErrInvalidState)

		_, err = s.GetFaction(ctx, "Mandalorians")
		assert.ErrorIs(t, err, world.ErrNotFound)

		f, err := s.UpdateFaction(ctx, "Rebel Alliance", func(f *world.Faction) error {
			f.Resources += 500
			f.Goals = append(f.Goals, "recruit")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2500, f.Resources)

		got, err := s.GetFaction(ctx, "Rebel Alliance")
		require.NoError(t, err)
		assert.Equal(t, []string{"liberate", "recruit"}, got.Goals)

		all, err := s.ListFactions(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Galactic Empire", all[0].Name)

		_, err = s.UpdateFaction(ctx, "Mandalorians", func(*world.Faction) error { return nil })
		assert.ErrorIs(t, err, world.ErrNotFound)
	})
}

func TestUpdateFactionPair(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateFaction(ctx, world.Faction{Name: "A", Resources: 100}))
		require.NoError(t, s.CreateFaction(ctx, world.Faction{Name: "B", Resources: 100}))

		a, b, err := s.UpdateFactionPair(ctx, "A", "B", func(a, b *world.Faction) error {
			a.Resources += 40
			b.Resources -= 40
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 140, a.Resources)
		assert.Equal(t, 60, b.Resources)

		boom := errors.New("boom")
		_, _, err = s.UpdateFactionPair(ctx, "A", "B", func(a, b *world.Faction) error {
			a.Resources = 0
			return boom
		})
		assert.ErrorIs(t, err, boom)
		got, err := s.GetFaction(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, 140, got.Resources)

		_, _, err = s.UpdateFactionPair(ctx, "A", "A", func(a, b *world.Faction) error { return nil })
		assert.ErrorIs(t, err, world.ErrInvalidInput)
		_, _, err = s.UpdateFactionPair(ctx, "A", "Z", func(a, b *world.Faction) error { return nil })
		assert.ErrorIs(t, err, world.ErrNotFound)
	})
}

func TestAlignmentLazyCreate(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		_, err := s.GetAlignment(ctx, "luke")
		assert.ErrorIs(t, err, world.ErrNotFound)

		a, err := s.UpdateAlignment(ctx, "luke", func(a *world.ForceAlignment) error {
			a.AddPoints(30)
			a.Events.Push(world.ForceEvent{Description: "saved a droid", At: epoch})
			a.Snapshot(epoch)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 30, a.LightPoints)

		got, err := s.GetAlignment(ctx, "luke")
		require.NoError(t, err)
		assert.Equal(t, 30, got.LightPoints)
		assert.Equal(t, 1, got.Events.Len())
		assert.Equal(t, world.MaxForceEvents, got.Events.Cap())
		assert.Equal(t, world.MaxAlignmentHistory, got.History.Cap())

		// A skipped update on a missing record writes nothing.
		def, err := s.UpdateAlignment(ctx, "leia", func(*world.ForceAlignment) error { return world.ErrSkip })
		assert.ErrorIs(t, err, world.ErrSkip)
		assert.Equal(t, "leia", def.Player)
		_, err = s.GetAlignment(ctx, "leia")
		assert.ErrorIs(t, err, world.ErrNotFound)
	})
}

func TestRingCapacitySurvivesReload(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		for i := 0; i < world.MaxForceEvents+5; i++ {
			_, err := s.UpdateAlignment(ctx, "vader", func(a *world.ForceAlignment) error {
				a.Events.Push(world.ForceEvent{Magnitude: i})
				return nil
			})
			require.NoError(t, err)
		}
		got, err := s.GetAlignment(ctx, "vader")
		require.NoError(t, err)
		require.Equal(t, world.MaxForceEvents, got.Events.Len())
		items := got.Events.Items()
		assert.Equal(t, 5, items[0].Magnitude)
		assert.Equal(t, world.MaxForceEvents+4, items[len(items)-1].Magnitude)
	})
}

func TestNPCMemories(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		create := func() world.NPCMemory {
			m := world.NewNPCMemory("greedo", "han")
			m.Traits = []string{"greedy"}
			return m
		}
		m, created, err := s.UpsertNPC(ctx, "greedo", "han", create, func(m *world.NPCMemory) error {
			m.Relationship = -20
			m.Learn("shot first")
			return nil
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, -20, m.Relationship)

		m, created, err = s.UpsertNPC(ctx, "greedo", "han", create, func(m *world.NPCMemory) error {
			m.Relationship -= 10
			return nil
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, -30, m.Relationship)
		assert.True(t, m.Knows("shot first"))

		_, _, err = s.UpsertNPC(ctx, "jabba", "han", func() world.NPCMemory {
			return world.NewNPCMemory("jabba", "han")
		}, func(*world.NPCMemory) error { return nil })
		require.NoError(t, err)
		_, _, err = s.UpsertNPC(ctx, "jabba", "leia", func() world.NPCMemory {
			return world.NewNPCMemory("jabba", "leia")
		}, func(*world.NPCMemory) error { return nil })
		require.NoError(t, err)

		list, err := s.ListNPCs(ctx, "han")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "greedo", list[0].NPC)
		assert.Equal(t, "jabba", list[1].NPC)
		assert.Equal(t, world.MaxKnownFacts, list[0].KnownFacts.Cap())

		_, err = s.UpdateNPC(ctx, "boba", "han", func(*world.NPCMemory) error { return nil })
		assert.ErrorIs(t, err, world.ErrNotFound)
		_, err = s.GetNPC(ctx, "greedo", "leia")
		assert.ErrorIs(t, err, world.ErrNotFound)
	})
}

func TestThreatLazyCreate(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		th, err := s.UpdateThreat(ctx, "han", func(t *world.ThreatLevel) error {
			t.Bounty += 5000
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, th.Heat)
		assert.Equal(t, 5000, th.Bounty)

		got, err := s.GetThreat(ctx, "han")
		require.NoError(t, err)
		assert.Equal(t, 5000, got.Bounty)
		assert.Equal(t, world.MaxBountyAgents, got.Agents.Cap())
	})
}

func TestQuests(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		for i, id := range []string{"q-1", "q-2", "q-3"} {
			require.NoError(t, s.CreateQuest(ctx, world.Quest{
				ID:        id,
				Player:    "han",
				Status:    world.QuestAvailable,
				Title:     "Job " + id,
				CreatedAt: epoch.Add(time.Duration(i) * time.Hour),
			}))
		}
		require.NoError(t, s.CreateQuest(ctx, world.Quest{ID: "q-9", Player: "leia", Status: world.QuestAvailable}))
		assert.ErrorIs(t, s.CreateQuest(ctx, world.Quest{ID: "q-1"}), world.ErrInvalidState)
		assert.ErrorIs(t, s.CreateQuest(ctx, world.Quest{}), world.ErrInvalidInput)

		_, err := s.UpdateQuest(ctx, "q-2", func(q *world.Quest) error {
			q.Status = world.QuestActive
			return nil
		})
		require.NoError(t, err)

		all, err := s.ListQuests(ctx, "han", "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "q-3", all[0].ID)
		assert.Equal(t, "q-1", all[2].ID)

		active, err := s.ListQuests(ctx, "han", world.QuestActive)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "q-2", active[0].ID)

		_, err = s.GetQuest(ctx, "q-404")
		assert.ErrorIs(t, err, world.ErrNotFound)
	})
}

func TestEvents(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		events := []world.WorldEvent{
			{ID: "e-1", Title: "Blockade", Category: world.EventPolitical, Active: true, CreatedAt: epoch},
			{ID: "e-2", Title: "Ripple", Category: world.EventForce, Player: "luke", CreatedAt: epoch},
			{ID: "e-3", Title: "Skirmish", Category: world.EventMilitary, Active: true, Factions: []string{"A", "B"}, CreatedAt: epoch},
		}
		for _, e := range events {
			require.NoError(t, s.AppendEvent(ctx, e))
		}
		assert.ErrorIs(t, s.AppendEvent(ctx, world.WorldEvent{}), world.ErrInvalidInput)

		all, err := s.ListEvents(ctx, world.EventFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "e-3", all[0].ID)
		assert.Equal(t, []string{"A", "B"}, all[0].Factions)

		active, err := s.ListEvents(ctx, world.EventFilter{ActiveOnly: true, Limit: 1})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "e-3", active[0].ID)

		mine, err := s.ListEvents(ctx, world.EventFilter{Player: "luke"})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, world.EventForce, mine[0].Category)
	})
}

func TestConcurrentUpdatesAllCommit(t *testing.T) {
	stores(t, func(t *testing.T, s world.Store) {
		ctx := context.Background()
		const writers = 16
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.UpdateThreat(ctx, "han", func(t *world.ThreatLevel) error {
					t.Notoriety++
					return nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		got, err := s.GetThreat(ctx, "han")
		require.NoError(t, err)
		assert.Equal(t, writers, got.Notoriety)
	})
}

func TestVersionConflictRetries(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.UpdateThreat(ctx, "han", func(*world.ThreatLevel) error { return nil })
	require.NoError(t, err)

	// Another writer bumps the row while the first attempt is in flight.
	calls := 0
	got, err := s.UpdateThreat(ctx, "han", func(t *world.ThreatLevel) error {
		calls++
		if calls == 1 {
			if _, err := s.db.ExecContext(ctx, "UPDATE threats SET version = version + 1 WHERE player = ?", "han"); err != nil {
				return err
			}
		}
		t.Bounty = 100
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 100, got.Bounty)

	s.retries = 3
	_, err = s.UpdateThreat(ctx, "han", func(t *world.ThreatLevel) error {
		_, err := s.db.ExecContext(ctx, "UPDATE threats SET version = version + 1 WHERE player = ?", "han")
		return err
	})
	assert.ErrorIs(t, err, world.ErrConflict)
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holonet.db")
	ctx := context.Background()

	s, err := Open(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.CreateFaction(ctx, world.Faction{Name: "Hutt Cartel", Resources: 8000}))
	require.NoError(t, s.Close())

	s, err = Open(path, Options{})
	require.NoError(t, err)
	defer s.Close()
	f, err := s.GetFaction(ctx, "Hutt Cartel")
	require.NoError(t, err)
	assert.Equal(t, 8000, f.Resources)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", Options{})
	assert.Error(t, err)
}
