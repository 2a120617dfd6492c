package force

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/npc"
	"github.com/talgya/holonet/internal/world"
)

// Action is a deed that serves one side of the Force.
type Action struct {
	Player      string
	Kind        world.AlignmentKind
	Magnitude   int // 1–10
	Witnesses   []string
	Description string
}

// AlignmentResult is the player's alignment after an action and everything
// it set in motion.
type AlignmentResult struct {
	Player           string                    `json:"player"`
	Change           int                       `json:"change"`
	Net              int                       `json:"net"`
	Tier             string                    `json:"tier"`
	Corruption       int                       `json:"corruption"`
	ForceSensitive   bool                      `json:"force_sensitive"`
	Awakened         bool                      `json:"awakened"`
	Consequences     []string                  `json:"consequences,omitempty"`
	Unlocked         []string                  `json:"unlocked,omitempty"`
	Events           []world.WorldEvent        `json:"events,omitempty"`
	FactionResponses []faction.AwarenessResult `json:"faction_responses,omitempty"`
	NPCReactions     []string                  `json:"npc_reactions,omitempty"`
}

// Manifestation kinds, keyed in ForceAlignment.Manifestations.
const (
	manifestDark  = "dark_side_corruption"
	manifestLight = "light_side_aura"
)

// UpdateAlignment applies an action to the player's alignment and cascades
// the result to witnesses' factions, the galaxy, and the player's NPCs.
func (e *Engine) UpdateAlignment(ctx context.Context, act Action) (AlignmentResult, error) {
	if act.Player == "" {
		return AlignmentResult{}, world.InvalidInput("player is required")
	}
	if !act.Kind.Valid() {
		return AlignmentResult{}, world.InvalidInput("unknown alignment kind %q", act.Kind)
	}
	if act.Magnitude < 1 || act.Magnitude > 10 {
		return AlignmentResult{}, world.InvalidInput("magnitude %d outside 1-10", act.Magnitude)
	}

	now := e.clock.Now()
	var res AlignmentResult
	var pending []world.WorldEvent
	var reports []faction.AwarenessChange

	a, err := e.store.UpdateAlignment(ctx, act.Player, func(a *world.ForceAlignment) error {
		res = AlignmentResult{Player: act.Player}
		pending, reports = nil, nil

		change := 0
		switch act.Kind {
		case world.Light:
			change = act.Magnitude * entropy.Between(e.rand, e.cfg.PointsMin, e.cfg.PointsMax)
		case world.Dark:
			change = -act.Magnitude * entropy.Between(e.rand, e.cfg.PointsMin, e.cfg.PointsMax)
		}
		res.Change = change
		res.Awakened = a.AddPoints(change)

		applyCorruption(a)
		a.Events.Push(world.ForceEvent{
			Kind:        world.ForceEventAlignment,
			Action:      act.Kind,
			Magnitude:   act.Magnitude,
			Points:      change,
			Description: act.Description,
			Witnesses:   append([]string(nil), act.Witnesses...),
			At:          now,
		})
		a.Snapshot(now)
		a.LastEventTime = now

		if res.Awakened {
			res.Consequences = append(res.Consequences, "The Force awakens within you")
		}
		res.Consequences = append(res.Consequences, e.magnitudeConsequences(act, &pending)...)
		res.Consequences = append(res.Consequences, e.manifest(a, now)...)
		res.Consequences = append(res.Consequences, corruptionConsequences(a.Corruption)...)
		for _, w := range act.Witnesses {
			if c, msg, ok := witnessReport(w, act.Player, act.Magnitude); ok {
				res.Consequences = append(res.Consequences, msg)
				reports = append(reports, c)
			}
		}

		res.Unlocked = CheckPowerUnlocks(a)
		return nil
	})
	if err != nil {
		return AlignmentResult{}, fmt.Errorf("update alignment: %w", err)
	}

	res.Net = a.Net()
	res.Tier = world.AlignmentTier(res.Net)
	res.Corruption = a.Corruption
	res.ForceSensitive = a.ForceSensitive

	e.log.Info("alignment updated",
		"player", act.Player,
		"kind", act.Kind,
		"magnitude", act.Magnitude,
		"change", res.Change,
		"net", res.Net,
	)
	if res.Awakened {
		e.log.Info("force sensitivity awakened", "player", act.Player)
	}

	res.Events = e.emit(ctx, pending)
	e.cascade(ctx, a, act, reports, &res)
	return res, nil
}

// applyCorruption grows corruption with darkness beyond -50 and lets a
// light-leaning player shed it one point at a time.
func applyCorruption(a *world.ForceAlignment) {
	net := a.Net()
	switch {
	case net < -50:
		a.Corruption += (world.Abs(net) - 50) / 10
	case net > 25:
		a.Corruption--
	}
	a.Corruption = world.Clamp(a.Corruption, 0, 100)
}

func (e *Engine) magnitudeConsequences(act Action, pending *[]world.WorldEvent) []string {
	if act.Magnitude < e.cfg.DisturbanceMagnitude {
		return nil
	}
	switch act.Kind {
	case world.Dark:
		*pending = append(*pending, world.WorldEvent{
			Title:       "Dark Side Disturbance Detected",
			Description: "Force-sensitives across the galaxy feel a tremor in the Force as someone embraces the Dark Side with unusual intensity.",
			Category:    world.EventForce,
			Impact:      3,
			Player:      act.Player,
		})
		return []string{"Your use of the Dark Side sends ripples through the Force"}
	case world.Light:
		*pending = append(*pending, world.WorldEvent{
			Title:       "Light Side Resonance",
			Description: "A beacon of Light Side energy manifests, offering hope to those who can feel the Force.",
			Category:    world.EventForce,
			Impact:      2,
			Player:      act.Player,
		})
		return []string{"Your connection to the Light Side strengthens"}
	}
	return nil
}

// manifest shows an extreme alignment physically, at most once per kind per
// cooldown window.
func (e *Engine) manifest(a *world.ForceAlignment, now time.Time) []string {
	net := a.Net()
	kind := ""
	var out []string
	switch {
	case net <= -e.cfg.ManifestThreshold:
		kind = manifestDark
		out = []string{
			"Dark Side corruption manifests physically - your eyes show hints of Sith yellow",
			"Wildlife flees your presence. Technology occasionally malfunctions around you.",
		}
	case net >= e.cfg.ManifestThreshold:
		kind = manifestLight
		out = []string{
			"Your Light Side presence becomes palpable to Force-sensitives",
			"Animals are drawn to you. Healing occurs faster in your presence.",
		}
	default:
		return nil
	}
	if last, ok := a.Manifestations[kind]; ok && now.Sub(last) < e.cfg.ManifestCooldown {
		return nil
	}
	if a.Manifestations == nil {
		a.Manifestations = make(map[string]time.Time)
	}
	a.Manifestations[kind] = now
	return out
}

func corruptionConsequences(corruption int) []string {
	var out []string
	if corruption >= 50 {
		out = append(out, "Dark Side corruption affects your judgment and appearance")
		if corruption >= 80 {
			out = append(out, "Severe corruption: NPCs react with fear or reverence")
		}
	}
	return out
}

// witnessReport turns an Imperial or Rebel witness into an awareness change.
// The Empire hunts unsanctioned Force users; the Alliance wants to recruit them.
func witnessReport(witness, player string, magnitude int) (faction.AwarenessChange, string, bool) {
	switch world.ClassifyWitness(witness) {
	case world.AffiliationImperial:
		return faction.AwarenessChange{
			Faction:           world.GalacticEmpire,
			Player:            player,
			RelationshipDelta: magnitude * 3,
			AwarenessDelta:    magnitude * 5,
			Reason:            "Unsanctioned Force use detected",
		}, witness + " reports your Force abilities to Imperial Intelligence", true
	case world.AffiliationRebel:
		return faction.AwarenessChange{
			Faction:           world.RebelAlliance,
			Player:            player,
			RelationshipDelta: -magnitude * 2,
			AwarenessDelta:    magnitude * 5,
			Reason:            "Potential Force-sensitive ally identified",
		}, witness + " considers recruiting you for the Rebellion", true
	}
	return faction.AwarenessChange{}, "", false
}

// cascade runs the cross-system consequences of a committed update.
func (e *Engine) cascade(ctx context.Context, a world.ForceAlignment, act Action, reports []faction.AwarenessChange, res *AlignmentResult) {
	next, ok := world.Descend(ctx)
	if !ok {
		e.log.Debug("cascade depth reached", "from", "force", "player", act.Player)
		return
	}
	if e.factions != nil {
		for _, c := range reports {
			fr, err := e.factions.UpdateAwareness(next, c)
			if err != nil {
				e.log.Warn("force witness report failed", "faction", c.Faction, "player", act.Player, "error", err)
				continue
			}
			res.FactionResponses = append(res.FactionResponses, fr)
		}
	}
	if e.npcs != nil {
		reactions, err := e.npcs.ReactToForceEvent(next, act.Player, npc.ForceReaction{
			Kind:       act.Kind,
			Net:        a.Net(),
			Corruption: a.Corruption,
		})
		if err != nil {
			e.log.Warn("npc force reactions failed", "player", act.Player, "error", err)
		}
		res.NPCReactions = reactions
	}
}
