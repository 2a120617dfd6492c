package npc

import (
	"strings"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

// Traits is the pool personalities are drawn from.
var Traits = []string{
	"friendly", "suspicious", "greedy", "loyal", "ambitious", "cowardly", "brave",
	"honest", "deceitful", "curious", "indifferent", "aggressive", "peaceful",
	"force_sensitive", "imperial_sympathizer", "rebel_sympathizer", "criminal",
	"law_abiding", "xenophobic", "tolerant", "religious", "secular", "military",
	"civilian", "merchant", "noble", "commoner", "jedi", "sith", "dark_side",
	"light_side", "bounty_hunter", "pilot", "mechanic", "doctor", "scholar",
}

// newMemory rolls a fresh personality for npc's first meeting with player.
func (e *Engine) newMemory(npc, player string) world.NPCMemory {
	m := world.NewNPCMemory(npc, player)
	m.Traits = entropy.Sample(e.rand, Traits, entropy.Between(e.rand, 2, 4))
	m.Faction = InferFaction(npc, m.Traits)
	m.Relationship = initialRelationship(m.Traits)
	m.Trust = entropy.Between(e.rand, 10, 40)
	m.Fear = entropy.Between(e.rand, 0, 20)
	m.CreatedAt = e.clock.Now()
	return m
}

// InferFaction reads an affiliation from a name first and traits second.
func InferFaction(name string, traits []string) string {
	n := strings.ToLower(name)
	if containsAny(n, "captain", "admiral", "commander", "lieutenant") {
		switch {
		case containsAny(n, "imperial", "empire"):
			return world.GalacticEmpire
		case containsAny(n, "rebel", "alliance"):
			return world.RebelAlliance
		}
	}
	if containsAny(n, "lord", "jabba", "hutt") {
		return world.HuttCartel
	}
	if containsAny(n, "corporate", "csa") {
		return world.CorporateSector
	}

	has := func(t string) bool { return hasTrait(traits, t) }
	switch {
	case has("imperial_sympathizer"):
		return world.GalacticEmpire
	case has("rebel_sympathizer"):
		return world.RebelAlliance
	case has("criminal"):
		return world.HuttCartel
	case has("merchant"):
		return world.CorporateSector
	}
	return world.Independent
}

var traitBias = map[string]int{
	"friendly":   20,
	"suspicious": -15,
	"honest":     10,
	"deceitful":  -10,
	"tolerant":   15,
	"xenophobic": -20,
}

func initialRelationship(traits []string) int {
	r := 0
	for _, t := range traits {
		r += traitBias[t]
	}
	return world.Clamp(r, -50, 50)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasTrait(traits []string, t string) bool {
	for _, x := range traits {
		if x == t {
			return true
		}
	}
	return false
}
