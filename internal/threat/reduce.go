package threat

import (
	"context"
	"fmt"
	"sort"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

// Reduction is what one 7-day unit of a cooling method takes off.
type Reduction struct {
	Notoriety int
	Imperial  int
	Bounty    int
}

// Methods are the ways to cool off.
var Methods = map[string]Reduction{
	"laying_low":         {Notoriety: 5, Imperial: 8, Bounty: 0},
	"bribing_officials":  {Notoriety: 10, Imperial: 15, Bounty: 1000},
	"fake_death":         {Notoriety: 25, Imperial: 30, Bounty: 5000},
	"faction_protection": {Notoriety: 8, Imperial: 20, Bounty: 2000},
}

// ReduceResult reports a cooling period.
type ReduceResult struct {
	Player    string    `json:"player"`
	Method    string    `json:"method"`
	Days      int       `json:"days"`
	OldHeat   int       `json:"old_heat"`
	NewHeat   int       `json:"new_heat"`
	Applied   Reduction `json:"applied"`
	Withdrawn []string  `json:"withdrawn,omitempty"`
}

// ReduceHeat applies a cooling method for days. When heat falls by more
// than one level, each active low-threat agent gives up with even odds.
func (e *Engine) ReduceHeat(ctx context.Context, player, method string, days int) (ReduceResult, error) {
	base, ok := Methods[method]
	if !ok {
		return ReduceResult{}, world.InvalidInput("unknown heat reduction method %q", method)
	}
	if days < 1 {
		return ReduceResult{}, world.InvalidInput("duration must be at least one day, got %d", days)
	}

	mult := float64(days) / 7
	if mult > 2 {
		mult = 2
	}
	applied := Reduction{
		Notoriety: scale(base.Notoriety, mult),
		Imperial:  scale(base.Imperial, mult),
		Bounty:    scale(base.Bounty, mult),
	}

	now := e.clock.Now()
	var res ReduceResult
	_, err := e.store.UpdateThreat(ctx, player, func(t *world.ThreatLevel) error {
		res = ReduceResult{Player: player, Method: method, Days: days, OldHeat: t.Heat, Applied: applied}

		t.Notoriety -= applied.Notoriety
		t.ImperialAwareness -= applied.Imperial
		t.Bounty -= applied.Bounty
		t.Clamp()
		t.Heat = t.ComputeHeat()
		res.NewHeat = t.Heat

		if res.NewHeat < res.OldHeat-1 {
			t.Agents.Update(func(a *world.BountyAgent) {
				if a.Active() && a.Threat == world.TierLow && entropy.Chance(e.rand, 0.5) {
					a.Status = world.AgentWithdrawn
					res.Withdrawn = append(res.Withdrawn, a.Name)
				}
			})
		}
		t.Escalations.Push(world.Escalation{
			Heat:        t.Heat,
			Action:      "heat_reduced",
			Description: fmt.Sprintf("%s for %d days", method, days),
			At:          now,
		})
		return nil
	})
	if err != nil {
		return ReduceResult{}, fmt.Errorf("reduce heat: %w", err)
	}

	e.log.Info("heat reduced", "player", player, "method", method, "days", days, "from", res.OldHeat, "to", res.NewHeat)
	return res, nil
}

// EncounterStyle is how a hunter confronts the player.
type EncounterStyle string

const (
	StyleConfrontation EncounterStyle = "confrontation"
	StyleAmbush        EncounterStyle = "ambush"
	StyleChase         EncounterStyle = "chase"
	StyleNegotiation   EncounterStyle = "negotiation"
)

var styles = []EncounterStyle{StyleConfrontation, StyleAmbush, StyleChase, StyleNegotiation}

// Encounter is a hunter catching up with the player. Whether the hunter
// then wins is reported separately through ResolveEncounter.
type Encounter struct {
	AgentID string           `json:"agent_id"`
	Agent   string           `json:"agent"`
	Kind    world.AgentKind  `json:"kind"`
	Threat  world.ThreatTier `json:"threat"`
	Style   EncounterStyle   `json:"style"`
}

// CheckBountyEncounters rolls every active agent against its completion
// odds. Agents that catch up become engaged and stop hunting.
func (e *Engine) CheckBountyEncounters(ctx context.Context, player string) ([]Encounter, error) {
	var out []Encounter
	_, err := e.store.UpdateThreat(ctx, player, func(t *world.ThreatLevel) error {
		out = nil
		t.Agents.Update(func(a *world.BountyAgent) {
			if !a.Active() || !entropy.Chance(e.rand, a.Completion) {
				return
			}
			a.Status = world.AgentEngaged
			out = append(out, Encounter{
				AgentID: a.ID,
				Agent:   a.Name,
				Kind:    a.Kind,
				Threat:  a.Threat,
				Style:   entropy.Pick(e.rand, styles),
			})
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check encounters: %w", err)
	}
	if len(out) > 0 {
		e.log.Info("bounty encounters", "player", player, "count", len(out))
	}
	return out, nil
}

// Resolution is the settled outcome of an encounter.
type Resolution struct {
	AgentID         string            `json:"agent_id"`
	Agent           string            `json:"agent"`
	HunterSucceeded bool              `json:"hunter_succeeded"`
	Status          world.AgentStatus `json:"status"`
	Heat            int               `json:"heat"`
	Bounty          int               `json:"bounty"`
}

// ResolveEncounter records whether an engaged hunter won. A win claims half
// the bounty and puts the player on Imperial record; an escape makes the
// player more notorious and the bounty richer.
func (e *Engine) ResolveEncounter(ctx context.Context, player, agentID string, hunterSucceeded bool) (Resolution, error) {
	var res Resolution
	found := false
	_, err := e.store.UpdateThreat(ctx, player, func(t *world.ThreatLevel) error {
		found = false
		var stateErr error
		t.Agents.Update(func(a *world.BountyAgent) {
			if a.ID != agentID {
				return
			}
			found = true
			if a.Status != world.AgentEngaged {
				stateErr = world.InvalidState("agent %s is %s, not engaged", a.Name, a.Status)
				return
			}
			res = Resolution{AgentID: a.ID, Agent: a.Name, HunterSucceeded: hunterSucceeded}
			if hunterSucceeded {
				a.Status = world.AgentSucceeded
			} else {
				a.Status = world.AgentEvaded
			}
			res.Status = a.Status
		})
		if !found {
			return world.NotFound("bounty agent %q", agentID)
		}
		if stateErr != nil {
			return stateErr
		}
		if hunterSucceeded {
			t.Bounty /= 2
			t.ImperialAwareness += 10
		} else {
			t.Notoriety += 3
			t.Bounty += t.Bounty / 10
		}
		t.Clamp()
		t.Heat = t.ComputeHeat()
		res.Heat = t.Heat
		res.Bounty = t.Bounty
		return nil
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve encounter: %w", err)
	}
	return res, nil
}

// Summary is a read-only view of the current danger.
type Summary struct {
	Player            string              `json:"player"`
	Heat              int                 `json:"heat"`
	Band              string              `json:"band"`
	Bounty            int                 `json:"bounty"`
	ActiveAgents      []world.BountyAgent `json:"active_agents,omitempty"`
	RecentEscalations []world.Escalation  `json:"recent_escalations,omitempty"`
}

// Band describes a heat level.
func Band(heat int) string {
	switch {
	case heat >= 8:
		return "Extreme: the Empire has committed elite forces to your capture"
	case heat >= 6:
		return "High: Imperial investigators and hunters are on your trail"
	case heat >= 4:
		return "Moderate: local authorities are watching for you"
	case heat >= 2:
		return "Low: your name has begun to circulate"
	default:
		return "Minimal: nobody is looking for you"
	}
}

// CurrentThreats summarizes the player's threat profile.
func (e *Engine) CurrentThreats(ctx context.Context, player string) (Summary, error) {
	t, err := e.GetThreat(ctx, player)
	if err != nil {
		return Summary{}, err
	}
	agents := t.ActiveAgents()
	sort.SliceStable(agents, func(i, j int) bool { return agents[i].Completion > agents[j].Completion })
	return Summary{
		Player:            player,
		Heat:              t.Heat,
		Band:              Band(t.Heat),
		Bounty:            t.Bounty,
		ActiveAgents:      agents,
		RecentEscalations: t.Escalations.Last(5),
	}, nil
}
