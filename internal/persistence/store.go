package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talgya/holonet/internal/world"
)

var (
	factions = table[world.Faction]{
		name:  "factions",
		keys:  []string{"name"},
		label: "faction",
		blank: func([]any) world.Faction { return world.Faction{} },
		clone: world.Faction.Clone,
	}
	alignments = table[world.ForceAlignment]{
		name:  "alignments",
		keys:  []string{"player"},
		label: "alignment for",
		blank: func(k []any) world.ForceAlignment { return world.NewForceAlignment(k[0].(string)) },
		clone: world.ForceAlignment.Clone,
	}
	npcs = table[world.NPCMemory]{
		name:  "npc_memories",
		keys:  []string{"npc", "player"},
		label: "npc memory",
		blank: func(k []any) world.NPCMemory { return world.NewNPCMemory(k[0].(string), k[1].(string)) },
		clone: world.NPCMemory.Clone,
	}
	threats = table[world.ThreatLevel]{
		name:  "threats",
		keys:  []string{"player"},
		label: "threat level for",
		blank: func(k []any) world.ThreatLevel { return world.NewThreatLevel(k[0].(string)) },
		clone: world.ThreatLevel.Clone,
	}
	quests = table[world.Quest]{
		name:  "quests",
		keys:  []string{"id"},
		label: "quest",
		blank: func([]any) world.Quest { return world.Quest{} },
		clone: world.Quest.Clone,
		index: func(q *world.Quest) []column {
			return []column{
				{"player", q.Player},
				{"status", string(q.Status)},
				{"created_at", q.CreatedAt.UnixNano()},
			}
		},
	}
)

// ── Factions ─────────────────────────────────────────────────────────

func (s *Store) ListFactions(ctx context.Context) ([]world.Faction, error) {
	var rows []string
	if err := s.db.SelectContext(ctx, &rows, "SELECT data FROM factions ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list factions: %w", err)
	}
	out := make([]world.Faction, 0, len(rows))
	for _, data := range rows {
		f, err := factions.decode(nil, data)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) GetFaction(ctx context.Context, name string) (world.Faction, error) {
	f, _, err := load(ctx, s.db, factions, []any{name})
	return f, err
}

func (s *Store) CreateFaction(ctx context.Context, f world.Faction) error {
	ok, err := store(ctx, s.db, factions, []any{f.Name}, f, 0)
	if err != nil {
		return err
	}
	if !ok {
		return world.InvalidState("faction %q already exists", f.Name)
	}
	return nil
}

func (s *Store) UpdateFaction(ctx context.Context, name string, fn func(*world.Faction) error) (world.Faction, error) {
	f, _, err := update(ctx, s, factions, []any{name}, nil, fn)
	return f, err
}

// UpdateFactionPair reads and writes both factions in one transaction.
func (s *Store) UpdateFactionPair(ctx context.Context, a, b string, fn func(a, b *world.Faction) error) (world.Faction, world.Faction, error) {
	if a == b {
		return world.Faction{}, world.Faction{}, world.InvalidInput("faction pair needs two factions, got %q twice", a)
	}
	unlock := s.locks.lockAll(factions.name, a, b)
	defer unlock()

	for attempt := 1; attempt <= s.retries; attempt++ {
		fa, fb, ok, err := s.tryFactionPair(ctx, a, b, fn)
		if err != nil || ok {
			return fa, fb, err
		}
		s.log.Debug("version conflict", "entity", "faction pair", "a", a, "b", b, "attempt", attempt)
	}
	return world.Faction{}, world.Faction{}, world.Conflict("factions %q and %q changed concurrently %d times", a, b, s.retries)
}

func (s *Store) tryFactionPair(ctx context.Context, a, b string, fn func(a, b *world.Faction) error) (world.Faction, world.Faction, bool, error) {
	var none world.Faction
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return none, none, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	fa, va, err := load(ctx, tx, factions, []any{a})
	if err != nil {
		return none, none, false, err
	}
	fb, vb, err := load(ctx, tx, factions, []any{b})
	if err != nil {
		return none, none, false, err
	}
	na, nb := fa.Clone(), fb.Clone()
	if err := fn(&na, &nb); err != nil {
		return fa, fb, false, err
	}
	if ok, err := store(ctx, tx, factions, []any{a}, na, va); err != nil || !ok {
		return none, none, false, err
	}
	if ok, err := store(ctx, tx, factions, []any{b}, nb, vb); err != nil || !ok {
		return none, none, false, err
	}
	if err := tx.Commit(); err != nil {
		return none, none, false, fmt.Errorf("commit: %w", err)
	}
	return na, nb, true, nil
}

// ── Alignments ───────────────────────────────────────────────────────

func (s *Store) GetAlignment(ctx context.Context, player string) (world.ForceAlignment, error) {
	a, _, err := load(ctx, s.db, alignments, []any{player})
	return a, err
}

func (s *Store) UpdateAlignment(ctx context.Context, player string, fn func(*world.ForceAlignment) error) (world.ForceAlignment, error) {
	create := func() world.ForceAlignment { return world.NewForceAlignment(player) }
	a, _, err := update(ctx, s, alignments, []any{player}, create, fn)
	return a, err
}

// ── NPC memories ─────────────────────────────────────────────────────

type npcRow struct {
	NPC  string `db:"npc"`
	Data string `db:"data"`
}

func (s *Store) GetNPC(ctx context.Context, npc, player string) (world.NPCMemory, error) {
	m, _, err := load(ctx, s.db, npcs, []any{npc, player})
	return m, err
}

func (s *Store) ListNPCs(ctx context.Context, player string) ([]world.NPCMemory, error) {
	var rows []npcRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT npc, data FROM npc_memories WHERE player = ? ORDER BY npc", player)
	if err != nil {
		return nil, fmt.Errorf("list npcs: %w", err)
	}
	out := make([]world.NPCMemory, 0, len(rows))
	for _, r := range rows {
		m, err := npcs.decode([]any{r.NPC, player}, r.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) UpsertNPC(ctx context.Context, npc, player string, create func() world.NPCMemory, fn func(*world.NPCMemory) error) (world.NPCMemory, bool, error) {
	return update(ctx, s, npcs, []any{npc, player}, create, fn)
}

func (s *Store) UpdateNPC(ctx context.Context, npc, player string, fn func(*world.NPCMemory) error) (world.NPCMemory, error) {
	m, _, err := update(ctx, s, npcs, []any{npc, player}, nil, fn)
	return m, err
}

// ── Threat levels ────────────────────────────────────────────────────

func (s *Store) GetThreat(ctx context.Context, player string) (world.ThreatLevel, error) {
	t, _, err := load(ctx, s.db, threats, []any{player})
	return t, err
}

func (s *Store) UpdateThreat(ctx context.Context, player string, fn func(*world.ThreatLevel) error) (world.ThreatLevel, error) {
	create := func() world.ThreatLevel { return world.NewThreatLevel(player) }
	t, _, err := update(ctx, s, threats, []any{player}, create, fn)
	return t, err
}

// ── Quests ───────────────────────────────────────────────────────────

func (s *Store) CreateQuest(ctx context.Context, q world.Quest) error {
	if q.ID == "" {
		return world.InvalidInput("quest id is required")
	}
	ok, err := store(ctx, s.db, quests, []any{q.ID}, q, 0)
	if err != nil {
		return err
	}
	if !ok {
		return world.InvalidState("quest %q already exists", q.ID)
	}
	return nil
}

func (s *Store) GetQuest(ctx context.Context, id string) (world.Quest, error) {
	q, _, err := load(ctx, s.db, quests, []any{id})
	return q, err
}

func (s *Store) UpdateQuest(ctx context.Context, id string, fn func(*world.Quest) error) (world.Quest, error) {
	q, _, err := update(ctx, s, quests, []any{id}, nil, fn)
	return q, err
}

// ListQuests returns player's quests, newest first. An empty status matches
// every status.
func (s *Store) ListQuests(ctx context.Context, player string, status world.QuestStatus) ([]world.Quest, error) {
	query := "SELECT data FROM quests WHERE player = ?"
	args := []any{player}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	var rows []string
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list quests: %w", err)
	}
	out := make([]world.Quest, 0, len(rows))
	for _, data := range rows {
		q, err := quests.decode(nil, data)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// ── Events ───────────────────────────────────────────────────────────

type eventRow struct {
	ID        string `db:"id"`
	Player    string `db:"player"`
	Category  string `db:"category"`
	Active    bool   `db:"active"`
	CreatedAt int64  `db:"created_at"`
	Data      string `db:"data"`
}

func (s *Store) AppendEvent(ctx context.Context, e world.WorldEvent) error {
	if e.ID == "" {
		return world.InvalidInput("event id is required")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", e.ID, err)
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO events
		(id, player, category, active, created_at, data)
		VALUES (:id, :player, :category, :active, :created_at, :data)`,
		eventRow{
			ID:        e.ID,
			Player:    e.Player,
			Category:  string(e.Category),
			Active:    e.Active,
			CreatedAt: e.CreatedAt.UnixNano(),
			Data:      string(data),
		})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return world.InvalidState("event %q already exists", e.ID)
		}
		return fmt.Errorf("append event %q: %w", e.ID, err)
	}
	return nil
}

// ListEvents returns matching events, newest first.
func (s *Store) ListEvents(ctx context.Context, filter world.EventFilter) ([]world.WorldEvent, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ActiveOnly {
		conds = append(conds, "active = 1")
	}
	if filter.Player != "" {
		conds = append(conds, "player = ?")
		args = append(args, filter.Player)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(filter.Category))
	}
	query := "SELECT data FROM events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []string
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]world.WorldEvent, 0, len(rows))
	for _, data := range rows {
		var e world.WorldEvent
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
