// Package world holds the galaxy's shared records, their bounded histories
// and the repositories every engine persists through.
package world

import (
	"context"
	"errors"
)

// ErrSkip may be returned by an update function to abandon the update
// without writing. The store returns it unchanged.
var ErrSkip = errors.New("update skipped")

// Update functions passed to the stores run while the entity is held
// exclusively and may be invoked more than once when a write races. They
// must only mutate their argument and must not call back into the store.

// FactionStore persists factions.
type FactionStore interface {
	ListFactions(ctx context.Context) ([]Faction, error)
	GetFaction(ctx context.Context, name string) (Faction, error)
	// CreateFaction returns ErrInvalidState when name already exists.
	CreateFaction(ctx context.Context, f Faction) error
	UpdateFaction(ctx context.Context, name string, fn func(*Faction) error) (Faction, error)
	// UpdateFactionPair holds both factions for one atomic update.
	UpdateFactionPair(ctx context.Context, a, b string, fn func(a, b *Faction) error) (Faction, Faction, error)
}

// AlignmentStore persists force alignments. Missing records are created
// with NewForceAlignment defaults on update.
type AlignmentStore interface {
	GetAlignment(ctx context.Context, player string) (ForceAlignment, error)
	UpdateAlignment(ctx context.Context, player string, fn func(*ForceAlignment) error) (ForceAlignment, error)
}

// NPCStore persists NPC memories keyed by (npc, player).
type NPCStore interface {
	GetNPC(ctx context.Context, npc, player string) (NPCMemory, error)
	ListNPCs(ctx context.Context, player string) ([]NPCMemory, error)
	// UpsertNPC applies fn to the existing memory, or to create() when none
	// exists. created reports which happened.
	UpsertNPC(ctx context.Context, npc, player string, create func() NPCMemory, fn func(*NPCMemory) error) (m NPCMemory, created bool, err error)
	UpdateNPC(ctx context.Context, npc, player string, fn func(*NPCMemory) error) (NPCMemory, error)
}

// ThreatStore persists threat levels. Missing records are created with
// NewThreatLevel defaults on update.
type ThreatStore interface {
	GetThreat(ctx context.Context, player string) (ThreatLevel, error)
	UpdateThreat(ctx context.Context, player string, fn func(*ThreatLevel) error) (ThreatLevel, error)
}

// QuestStore persists quests.
type QuestStore interface {
	CreateQuest(ctx context.Context, q Quest) error
	GetQuest(ctx context.Context, id string) (Quest, error)
	UpdateQuest(ctx context.Context, id string, fn func(*Quest) error) (Quest, error)
	ListQuests(ctx context.Context, player string, status QuestStatus) ([]Quest, error)
}

// EventStore persists world events.
type EventStore interface {
	AppendEvent(ctx context.Context, e WorldEvent) error
	ListEvents(ctx context.Context, filter EventFilter) ([]WorldEvent, error)
}

// Store is every repository behind one handle.
type Store interface {
	FactionStore
	AlignmentStore
	NPCStore
	ThreatStore
	QuestStore
	EventStore
	Close() error
}
