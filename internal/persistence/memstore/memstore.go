// Package memstore is an in-memory world.Store. Each update runs under one
// store-wide lock against a private copy that is committed only when the
// update function succeeds.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/talgya/holonet/internal/world"
)

type npcKey struct{ npc, player string }

// Store holds every entity in maps.
type Store struct {
	mu         sync.Mutex
	factions   map[string]world.Faction
	alignments map[string]world.ForceAlignment
	npcs       map[npcKey]world.NPCMemory
	threats    map[string]world.ThreatLevel
	quests     map[string]world.Quest
	events     []world.WorldEvent
}

var _ world.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		factions:   make(map[string]world.Faction),
		alignments: make(map[string]world.ForceAlignment),
		npcs:       make(map[npcKey]world.NPCMemory),
		threats:    make(map[string]world.ThreatLevel),
		quests:     make(map[string]world.Quest),
	}
}

func (s *Store) Close() error { return nil }

// ── Factions ─────────────────────────────────────────────────────────

func (s *Store) ListFactions(ctx context.Context) ([]world.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]world.Faction, 0, len(s.factions))
	for _, f := range s.factions {
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetFaction(ctx context.Context, name string) (world.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.factions[name]
	if !ok {
		return world.Faction{}, world.NotFound("faction %q", name)
	}
	return f.Clone(), nil
}

func (s *Store) CreateFaction(ctx context.Context, f world.Faction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.factions[f.Name]; ok {
		return world.InvalidState("faction %q already exists", f.Name)
	}
	s.factions[f.Name] = f.Clone()
	return nil
}

func (s *Store) UpdateFaction(ctx context.Context, name string, fn func(*world.Faction) error) (world.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.factions[name]
	if !ok {
		return world.Faction{}, world.NotFound("faction %q", name)
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur.Clone(), err
	}
	s.factions[name] = next.Clone()
	return next, nil
}

func (s *Store) UpdateFactionPair(ctx context.Context, a, b string, fn func(a, b *world.Faction) error) (world.Faction, world.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == b {
		return world.Faction{}, world.Faction{}, world.InvalidInput("faction pair needs two factions, got %q twice", a)
	}
	fa, ok := s.factions[a]
	if !ok {
		return world.Faction{}, world.Faction{}, world.NotFound("faction %q", a)
	}
	fb, ok := s.factions[b]
	if !ok {
		return world.Faction{}, world.Faction{}, world.NotFound("faction %q", b)
	}
	na, nb := fa.Clone(), fb.Clone()
	if err := fn(&na, &nb); err != nil {
		return fa.Clone(), fb.Clone(), err
	}
	s.factions[a] = na.Clone()
	s.factions[b] = nb.Clone()
	return na, nb, nil
}

// ── Alignments ───────────────────────────────────────────────────────

func (s *Store) GetAlignment(ctx context.Context, player string) (world.ForceAlignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alignments[player]
	if !ok {
		return world.ForceAlignment{}, world.NotFound("alignment for %q", player)
	}
	return a.Clone(), nil
}

func (s *Store) UpdateAlignment(ctx context.Context, player string, fn func(*world.ForceAlignment) error) (world.ForceAlignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.alignments[player]
	if !ok {
		cur = world.NewForceAlignment(player)
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur.Clone(), err
	}
	s.alignments[player] = next.Clone()
	return next, nil
}

// ── NPC memories ─────────────────────────────────────────────────────

func (s *Store) GetNPC(ctx context.Context, npc, player string) (world.NPCMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.npcs[npcKey{npc, player}]
	if !ok {
		return world.NPCMemory{}, world.NotFound("npc %q has no memory of %q", npc, player)
	}
	return m.Clone(), nil
}

func (s *Store) ListNPCs(ctx context.Context, player string) ([]world.NPCMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []world.NPCMemory
	for k, m := range s.npcs {
		if k.player == player {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NPC < out[j].NPC })
	return out, nil
}

func (s *Store) UpsertNPC(ctx context.Context, npc, player string, create func() world.NPCMemory, fn func(*world.NPCMemory) error) (world.NPCMemory, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := npcKey{npc, player}
	cur, ok := s.npcs[key]
	if !ok {
		cur = create()
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur.Clone(), !ok, err
	}
	s.npcs[key] = next.Clone()
	return next, !ok, nil
}

func (s *Store) UpdateNPC(ctx context.Context, npc, player string, fn func(*world.NPCMemory) error) (world.NPCMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := npcKey{npc, player}
	cur, ok := s.npcs[key]
	if !ok {
		return world.NPCMemory{}, world.NotFound("npc %q has no memory of %q", npc, player)
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur.Clone(), err
	}
	s.npcs[key] = next.Clone()
	return next, nil
}

// ── Threat levels ────────────────────────────────────────────────────

func (s *Store) GetThreat(ctx context.Context, player string) (world.ThreatLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threats[player]
	if !ok {
		return world.ThreatLevel{}, world.NotFound("threat level for %q", player)
	}
	return t.Clone(), nil
}

func (s *Store) UpdateThreat(ctx context.Context, player string, fn func(*world.ThreatLevel) error) (world.ThreatLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.threats[player]
	if !ok {
		cur = world.NewThreatLevel(player)
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur.Clone(), err
	}
	s.threats[player] = next.Clone()
	return next, nil
}

// ── Quests ───────────────────────────────────────────────────────────

func (s *Store) CreateQuest(ctx context.Context, q world.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == "" {
		return world.InvalidInput("quest id is required")
	}
	if _, ok := s.quests[q.ID]; ok {
		return world.InvalidState("quest %q already exists", q.ID)
	}
	s.quests[q.ID] = q.Clone()
	return nil
}

func (s *Store) GetQuest(ctx context.Context, id string) (world.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quests[id]
	if !ok {
		return world.Quest{}, world.NotFound("quest %q", id)
	}
	return q.Clone(), nil
}

func (s *Store) UpdateQuest(ctx context.Context, id string, fn func(*world.Quest) error) (world.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.quests[id]
	if !ok {
		return world.Quest{}, world.NotFound("quest %q", id)
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		return cur.Clone(), err
	}
	s.quests[id] = next.Clone()
	return next, nil
}

func (s *Store) ListQuests(ctx context.Context, player string, status world.QuestStatus) ([]world.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []world.Quest
	for _, q := range s.quests {
		if q.Player != player {
			continue
		}
		if status != "" && q.Status != status {
			continue
		}
		out = append(out, q.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ── Events ───────────────────────────────────────────────────────────

func (s *Store) AppendEvent(ctx context.Context, e world.WorldEvent) error {
	if e.ID == "" {
		return world.InvalidInput("event id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Factions = append([]string(nil), e.Factions...)
	e.Consequences = append([]string(nil), e.Consequences...)
	s.events = append(s.events, e)
	return nil
}

func (s *Store) ListEvents(ctx context.Context, filter world.EventFilter) ([]world.WorldEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []world.WorldEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if filter.ActiveOnly && !e.Active {
			continue
		}
		if filter.Player != "" && e.Player != filter.Player {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
