package npc

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/threat"
	"github.com/talgya/holonet/internal/world"
)

// baseRelationship is the starting relationship delta for each kind.
var baseRelationship = map[world.InteractionKind]int{
	world.InteractDialogue:         2,
	world.InteractTrade:            5,
	world.InteractQuestCompletion:  10,
	world.InteractQuestFailure:     -15,
	world.InteractBetrayal:         -50,
	world.InteractRescue:           25,
	world.InteractThreat:           -20,
	world.InteractBribe:            8,
	world.InteractLieDetected:      -12,
	world.InteractTruthTelling:     5,
	world.InteractForceWitnessed:   0,
	world.InteractCombatAssistance: 20,
	world.InteractCombatAgainst:    -30,
}

// InteractionResult is an NPC's state after an interaction.
type InteractionResult struct {
	NPC                string     `json:"npc"`
	Player             string     `json:"player"`
	Created            bool       `json:"created"`
	Faction            string     `json:"faction"`
	RelationshipChange int        `json:"relationship_change"`
	TrustChange        int        `json:"trust_change"`
	FearChange         int        `json:"fear_change"`
	Relationship       int        `json:"relationship"`
	Trust              int        `json:"trust"`
	Fear               int        `json:"fear"`
	Mood               world.Mood `json:"mood"`
	Learned            []string   `json:"learned,omitempty"`
	Reported           bool       `json:"reported"`
}

// RecordInteraction applies one interaction to npc's memory of player,
// creating the memory with a fresh personality on first contact.
func (e *Engine) RecordInteraction(ctx context.Context, npc, player string, kind world.InteractionKind, data world.InteractionData) (InteractionResult, error) {
	if npc == "" || player == "" {
		return InteractionResult{}, world.InvalidInput("npc and player are required")
	}
	if kind == "" {
		return InteractionResult{}, world.InvalidInput("interaction kind is required")
	}

	p := e.profile(ctx, player)
	now := e.clock.Now()
	var res InteractionResult
	report := false

	create := func() world.NPCMemory { return e.newMemory(npc, player) }
	m, created, err := e.store.UpsertNPC(ctx, npc, player, create, func(m *world.NPCMemory) error {
		report = false
		rel := relationshipDelta(m, kind, data)
		trust, fear := trustFearDelta(m, kind, data)

		m.Relationship += rel
		m.Trust += trust
		m.Fear += fear
		m.Clamp()
		m.Interactions.Push(world.Interaction{
			Kind:               kind,
			Data:               data,
			RelationshipChange: rel,
			TrustChange:        trust,
			FearChange:         fear,
			At:                 now,
		})

		var facts []string
		facts, report = e.infer(m, kind, data, p)
		var learned []string
		for _, f := range facts {
			if m.Learn(f) {
				learned = append(learned, f)
			}
		}

		m.Mood = ComputeMood(*m)
		m.LastInteractionTime = now

		res = InteractionResult{
			RelationshipChange: rel,
			TrustChange:        trust,
			FearChange:         fear,
			Learned:            learned,
		}
		return nil
	})
	if err != nil {
		return InteractionResult{}, fmt.Errorf("record interaction: %w", err)
	}

	res.NPC, res.Player, res.Created = npc, player, created
	res.Faction = m.Faction
	res.Relationship, res.Trust, res.Fear, res.Mood = m.Relationship, m.Trust, m.Fear, m.Mood
	if report {
		res.Reported = e.reportToImperials(ctx, npc, player)
	}

	e.log.Debug("npc interaction",
		"npc", npc,
		"player", player,
		"kind", kind,
		"relationship", res.Relationship,
		"mood", res.Mood,
	)
	return res, nil
}

// relationshipDelta is the base delta for kind shaped by the NPC's traits
// and dampened when the relationship is already extreme.
func relationshipDelta(m *world.NPCMemory, kind world.InteractionKind, data world.InteractionData) int {
	d := baseRelationship[kind]

	switch kind {
	case world.InteractBribe:
		if m.HasTrait("greedy") {
			d += 10
		} else if m.HasTrait("honest") {
			d -= 15
		}

	case world.InteractForceWitnessed:
		if !m.HasTrait("force_sensitive") {
			d -= 5
			break
		}
		switch {
		case m.HasTrait("jedi") || m.HasTrait("light_side"):
			switch data.Power {
			case world.PowerHeal, world.PowerSense:
				d += 10
			case world.PowerChoke, world.PowerLightning:
				d -= 20
			}
		case m.HasTrait("sith") || m.HasTrait("dark_side"):
			switch data.Power {
			case world.PowerChoke, world.PowerLightning:
				d += 15
			case world.PowerHeal:
				d -= 10
			}
		}

	case world.InteractTrade:
		if m.HasTrait("merchant") {
			d += 5
		}
		if m.HasTrait("greedy") && data.Profit > 100 {
			d += 8
		}

	case world.InteractDialogue:
		switch {
		case data.Tone == "respectful" && m.HasTrait("noble"):
			d += 5
		case data.Tone == "threatening" && m.HasTrait("cowardly"):
			d -= 10
		case data.Tone == "friendly" && m.HasTrait("friendly"):
			d += 3
		}

	case world.InteractContextualDialogue:
		d = moodNudge(m.Mood)
	}

	switch {
	case m.Relationship < -50 && d > 0:
		d = int(float64(d) * 0.5)
	case m.Relationship > 50 && d < 0:
		d = int(float64(d) * 0.7)
	}
	return d
}

// moodNudge is how a conversation shifts an NPC already in a strong mood.
func moodNudge(mood world.Mood) int {
	switch mood {
	case world.MoodEnthusiastic, world.MoodFriendly:
		return 2
	case world.MoodHostile, world.MoodVengeful:
		return -3
	}
	return 0
}

func trustFearDelta(m *world.NPCMemory, kind world.InteractionKind, data world.InteractionData) (trust, fear int) {
	switch kind {
	case world.InteractQuestCompletion:
		trust = 8
	case world.InteractQuestFailure:
		trust = -5
	case world.InteractBetrayal:
		trust = -30
	case world.InteractTruthTelling:
		trust = 5
	case world.InteractLieDetected:
		trust = -10
	case world.InteractRescue:
		trust = 15
	}

	switch kind {
	case world.InteractThreat:
		fear = 15
		if m.HasTrait("cowardly") {
			fear += 10
		}
	case world.InteractForceWitnessed:
		switch data.Power {
		case world.PowerChoke, world.PowerLightning:
			fear = 20
			if !m.HasTrait("force_sensitive") {
				fear += 10
			}
		case world.PowerHeal:
			fear = -5
		}
	case world.InteractCombatAgainst:
		fear = 25
	case world.InteractRescue:
		fear = -10
	}

	if m.HasTrait("brave") {
		fear = int(float64(fear) * 0.7)
	} else if m.HasTrait("cowardly") {
		fear = int(float64(fear) * 1.3)
	}
	if m.HasTrait("suspicious") {
		trust = int(float64(trust) * 0.8)
	} else if m.HasTrait("loyal") {
		trust = int(float64(trust) * 1.2)
	}
	return trust, fear
}

// infer returns the facts an interaction reveals and whether the NPC
// decides to report the player to the Empire.
func (e *Engine) infer(m *world.NPCMemory, kind world.InteractionKind, data world.InteractionData, p profile) ([]string, bool) {
	var facts []string
	report := false
	t := p.threat

	switch {
	case kind == world.InteractForceWitnessed:
		facts = append(facts, "Player is Force-sensitive")
		if p.hasForce && world.Abs(p.net) > 50 {
			if p.net < -50 {
				facts = append(facts, "Player is strongly aligned to the Dark Side")
			} else {
				facts = append(facts, "Player is strongly aligned to the Light Side")
			}
		}

	case kind == world.InteractDialogue && m.HasTrait("criminal"):
		if p.hasThreat && t.CriminalReputation > 30 {
			facts = append(facts, "Player has criminal connections")
		}
		if p.hasThreat && t.Bounty > 1000 {
			facts = append(facts, "Player has active bounties")
		}

	case kind == world.InteractTrade && m.HasTrait("merchant"):
		if data.Value > 5000 {
			facts = append(facts, "Player has significant resources")
		}

	case m.HasTrait("imperial_sympathizer"):
		if p.hasThreat && t.ImperialAwareness > 20 {
			facts = append(facts, "Player is wanted by Imperial authorities")
			if entropy.Chance(e.rand, 0.3) {
				facts = append(facts, "Reported player location to Imperials")
				report = true
			}
		}
	}

	if p.hasThreat {
		facts = append(facts, factionKnowledge(m.Faction, t)...)
	}
	return facts, report
}

func factionKnowledge(faction string, t world.ThreatLevel) []string {
	var out []string
	switch faction {
	case world.GalacticEmpire:
		if t.ImperialAwareness > 50 {
			out = append(out, "Player is a high-priority Imperial target")
		} else if t.ImperialAwareness > 20 {
			out = append(out, "Player is known to Imperial Intelligence")
		}
	case world.RebelAlliance:
		if t.RebelAwareness > 30 {
			out = append(out, "Player is known to Rebel Intelligence")
		}
		if t.ImperialAwareness > 40 {
			out = append(out, "Player might be useful to the Rebellion")
		}
	case world.HuttCartel:
		if t.CriminalReputation > 40 {
			out = append(out, "Player has significant underworld reputation")
		}
		if t.Bounty > 5000 {
			out = append(out, "Player has valuable bounties")
		}
	}
	return out
}

// reportToImperials files the sympathizer's report after the memory commits.
func (e *Engine) reportToImperials(ctx context.Context, npc, player string) bool {
	if e.threats == nil {
		return false
	}
	next, ok := world.Descend(ctx)
	if !ok {
		e.log.Debug("cascade depth reached", "from", "npc", "npc", npc)
		return false
	}
	_, err := e.threats.UpdateThreat(next, threat.Action{
		Player:    player,
		Kind:      "reported_by_npc",
		Severity:  2,
		Witnesses: []string{npc},
	})
	if err != nil {
		e.log.Warn("npc report failed", "npc", npc, "player", player, "error", err)
		return false
	}
	e.log.Info("npc reported player", "npc", npc, "player", player)
	return true
}

var (
	positiveKinds = map[world.InteractionKind]bool{
		world.InteractDialogue:        true,
		world.InteractTrade:           true,
		world.InteractQuestCompletion: true,
		world.InteractRescue:          true,
		world.InteractTruthTelling:    true,
	}
	negativeKinds = map[world.InteractionKind]bool{
		world.InteractBetrayal:      true,
		world.InteractThreat:        true,
		world.InteractQuestFailure:  true,
		world.InteractLieDetected:   true,
		world.InteractCombatAgainst: true,
	}
)

// ComputeMood scores relationship, trust and fear with a bonus for the
// polarity of the last five interactions.
func ComputeMood(m world.NPCMemory) world.Mood {
	score := m.Relationship + m.Trust - m.Fear
	for _, in := range m.Interactions.Last(5) {
		switch {
		case positiveKinds[in.Kind]:
			score += 10
		case negativeKinds[in.Kind]:
			score -= 15
		}
	}

	switch {
	case score >= 60:
		return world.MoodEnthusiastic
	case score >= 30:
		return world.MoodFriendly
	case score >= 10:
		return world.MoodPleased
	case score >= -10:
		return world.MoodNeutral
	case score >= -30:
		return world.MoodWary
	case score >= -60:
		return world.MoodHostile
	default:
		return world.MoodVengeful
	}
}

// activeSince reports whether m interacted with its player at or after t.
func activeSince(m world.NPCMemory, t time.Time) bool {
	return !m.LastInteractionTime.Before(t)
}
