package npc

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

// NetworkEffectResult is a ripple felt by one NPC.
type NetworkEffectResult struct {
	NPC                string `json:"npc"`
	RelationshipChange int    `json:"relationship_change"`
	Reason             string `json:"reason"`
}

// NetworkEffect spreads an action against source to every other NPC who
// shares its faction. Independents have no network.
func (e *Engine) NetworkEffect(ctx context.Context, player, source string, kind world.InteractionKind) ([]NetworkEffectResult, error) {
	src, err := e.store.GetNPC(ctx, source, player)
	if err != nil {
		return nil, fmt.Errorf("network effect: %w", err)
	}
	if src.Faction == world.Independent || src.Faction == "" {
		return nil, nil
	}

	var lo, hi, sign int
	switch kind {
	case world.InteractBetrayal, world.InteractCombatAgainst, world.InteractThreat:
		lo, hi, sign = 5, 15, -1
	case world.InteractRescue, world.InteractQuestCompletion, world.InteractTrade:
		lo, hi, sign = 2, 8, 1
	default:
		return nil, nil
	}

	all, err := e.store.ListNPCs(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("network effect: %w", err)
	}

	now := e.clock.Now()
	reason := fmt.Sprintf("Faction loyalty to %s", source)
	var out []NetworkEffectResult
	for _, peer := range all {
		if peer.NPC == source || peer.Faction != src.Faction {
			continue
		}
		delta := sign * entropy.Between(e.rand, lo, hi)
		_, err := e.store.UpdateNPC(ctx, peer.NPC, player, func(m *world.NPCMemory) error {
			m.Relationship += delta
			m.Clamp()
			m.Interactions.Push(world.Interaction{
				Kind:               world.InteractNetworkEffect,
				Data:               world.InteractionData{Note: fmt.Sprintf("%s: %s", source, kind)},
				RelationshipChange: delta,
				At:                 now,
			})
			m.Mood = ComputeMood(*m)
			return nil
		})
		if err != nil {
			return out, fmt.Errorf("network effect on %s: %w", peer.NPC, err)
		}
		out = append(out, NetworkEffectResult{NPC: peer.NPC, RelationshipChange: delta, Reason: reason})
	}
	return out, nil
}

// ForceReaction describes an alignment shift NPCs may sense.
type ForceReaction struct {
	Kind       world.AlignmentKind
	Net        int
	Corruption int
}

// maxReactors bounds concurrent NPC updates in one fan-out.
const maxReactors = 8

// ReactToForceEvent lets every NPC who knows the player react to a shift in
// their alignment. Force-sensitive NPCs judge it by their own side; others
// only notice deep corruption.
func (e *Engine) ReactToForceEvent(ctx context.Context, player string, r ForceReaction) ([]string, error) {
	all, err := e.store.ListNPCs(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("force reactions: %w", err)
	}

	now := e.clock.Now()
	// Each worker writes only its own slot.
	reactions := make([]string, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxReactors)
	for i, mem := range all {
		g.Go(func() error {
			_, err := e.store.UpdateNPC(gctx, mem.NPC, player, func(m *world.NPCMemory) error {
				reactions[i] = reactToForce(m, r)
				m.Clamp()
				m.Interactions.Push(world.Interaction{
					Kind: world.InteractForceEventWitnessed,
					Data: world.InteractionData{Note: fmt.Sprintf("%s shift, net %d", r.Kind, r.Net)},
					At:   now,
				})
				m.Mood = ComputeMood(*m)
				m.LastInteractionTime = now
				return nil
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("force reactions: %w", err)
	}

	var out []string
	for _, s := range reactions {
		if s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func reactToForce(m *world.NPCMemory, r ForceReaction) string {
	light := m.HasTrait("jedi") || m.HasTrait("light_side")
	dark := m.HasTrait("sith") || m.HasTrait("dark_side")

	if !m.HasTrait("force_sensitive") {
		if r.Corruption > 50 {
			m.Fear += 5
			if r.Corruption > 80 {
				return m.NPC + " is unsettled by your changed appearance"
			}
		}
		return ""
	}

	switch r.Kind {
	case world.Dark:
		switch {
		case light:
			m.Fear += 20
			m.Relationship -= 15
			return m.NPC + " senses the darkness growing within you"
		case dark:
			m.Relationship += 10
			return m.NPC + " approves of your embrace of power"
		}
	case world.Light:
		switch {
		case light:
			m.Relationship += 10
			m.Trust += 5
			return m.NPC + " feels the Light Side strengthen in you"
		case dark:
			m.Relationship -= 10
			return m.NPC + " is disgusted by your weakness"
		}
	}
	return ""
}

// WitnessWindow is how recently an NPC must have been active to be nearby.
const WitnessWindow = time.Hour

// WitnessPower rolls which recently active NPCs saw a power used. Each one
// that did grows more afraid. It returns the witnesses' names.
func (e *Engine) WitnessPower(ctx context.Context, player, power, target string) ([]string, error) {
	all, err := e.store.ListNPCs(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("power witnesses: %w", err)
	}

	now := e.clock.Now()
	since := now.Add(-WitnessWindow)
	var witnesses []string
	for _, mem := range all {
		if !activeSince(mem, since) || !entropy.Chance(e.rand, 0.3) {
			continue
		}
		_, err := e.store.UpdateNPC(ctx, mem.NPC, player, func(m *world.NPCMemory) error {
			m.Fear += 10
			m.Clamp()
			m.Interactions.Push(world.Interaction{
				Kind:       world.InteractForceWitnessed,
				Data:       world.InteractionData{Power: power, Note: target},
				FearChange: 10,
				At:         now,
			})
			m.Mood = ComputeMood(*m)
			return nil
		})
		if err != nil {
			e.log.Warn("power witness not recorded", "npc", mem.NPC, "error", err)
			continue
		}
		witnesses = append(witnesses, mem.NPC)
	}
	return witnesses, nil
}

// RecentContacts returns up to n NPCs ordered by their last interaction.
func (e *Engine) RecentContacts(ctx context.Context, player string, n int) ([]world.NPCMemory, error) {
	all, err := e.store.ListNPCs(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("recent contacts: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].LastInteractionTime.After(all[j].LastInteractionTime)
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// NPCSummary is one row of a faction summary.
type NPCSummary struct {
	Name            string     `json:"name"`
	Relationship    int        `json:"relationship"`
	Trust           int        `json:"trust"`
	Fear            int        `json:"fear"`
	Mood            world.Mood `json:"mood"`
	LastInteraction time.Time  `json:"last_interaction"`
}

// FactionSummary aggregates the player's standing with a faction's NPCs.
type FactionSummary struct {
	Faction             string       `json:"faction"`
	Count               int          `json:"npc_count"`
	AverageRelationship float64      `json:"average_relationship"`
	AverageTrust        float64      `json:"average_trust"`
	AverageFear         float64      `json:"average_fear"`
	NPCs                []NPCSummary `json:"npcs"`
}

// FactionSummary reports how the NPCs of faction regard player.
func (e *Engine) FactionSummary(ctx context.Context, faction, player string) (FactionSummary, error) {
	all, err := e.store.ListNPCs(ctx, player)
	if err != nil {
		return FactionSummary{}, fmt.Errorf("faction summary: %w", err)
	}

	s := FactionSummary{Faction: faction}
	var rel, trust, fear int
	for _, m := range all {
		if m.Faction != faction {
			continue
		}
		s.NPCs = append(s.NPCs, NPCSummary{
			Name:            m.NPC,
			Relationship:    m.Relationship,
			Trust:           m.Trust,
			Fear:            m.Fear,
			Mood:            m.Mood,
			LastInteraction: m.LastInteractionTime,
		})
		rel += m.Relationship
		trust += m.Trust
		fear += m.Fear
	}
	s.Count = len(s.NPCs)
	if s.Count > 0 {
		s.AverageRelationship = round1(float64(rel) / float64(s.Count))
		s.AverageTrust = round1(float64(trust) / float64(s.Count))
		s.AverageFear = round1(float64(fear) / float64(s.Count))
	}
	return s, nil
}
