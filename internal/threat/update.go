package threat

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/world"
)

// Increment is the per-severity growth of each signal for an action kind.
type Increment struct {
	Notoriety float64
	Imperial  float64
	Rebel     float64
	Criminal  float64
	Bounty    float64
}

// Increments maps action kinds to their growth. Unknown kinds use
// DefaultIncrement.
var Increments = map[string]Increment{
	"imperial_crime":    {Notoriety: 5, Imperial: 15, Rebel: 0, Criminal: 2, Bounty: 1000},
	"rebel_activity":    {Notoriety: 3, Imperial: 20, Rebel: -5, Criminal: 0, Bounty: 2000},
	"criminal_activity": {Notoriety: 4, Imperial: 5, Rebel: 0, Criminal: 10, Bounty: 500},
	"piracy":            {Notoriety: 6, Imperial: 10, Rebel: 0, Criminal: 8, Bounty: 1500},
	"assassination":     {Notoriety: 10, Imperial: 8, Rebel: 3, Criminal: 15, Bounty: 5000},
	"terrorism":         {Notoriety: 15, Imperial: 25, Rebel: -10, Criminal: 5, Bounty: 10000},
	"smuggling":         {Notoriety: 2, Imperial: 8, Rebel: 0, Criminal: 5, Bounty: 300},
	"force_display":     {Notoriety: 8, Imperial: 20, Rebel: 5, Criminal: 3, Bounty: 0},
}

// DefaultIncrement applies to action kinds missing from Increments.
var DefaultIncrement = Increment{Notoriety: 1, Imperial: 1, Rebel: 0, Criminal: 1, Bounty: 100}

// factionModifier scales an increment when a faction is involved.
func factionModifier(name string, inc Increment) Increment {
	switch name {
	case world.GalacticEmpire:
		inc.Imperial *= 2
		inc.Bounty *= 2
	case world.RebelAlliance:
		inc.Imperial *= 1.5
		inc.Rebel *= -1
	case world.HuttCartel, world.CorporateSector:
		inc.Criminal *= 1.5
	}
	return inc
}

// Action is a reported player deed.
type Action struct {
	Player    string
	Kind      string
	Severity  int // 1–10
	Faction   string
	Witnesses []string
}

// UpdateResult is the player's threat profile after an action.
type UpdateResult struct {
	Player           string                    `json:"player"`
	PreviousHeat     int                       `json:"previous_heat"`
	Heat             int                       `json:"heat"`
	Notoriety        int                       `json:"notoriety"`
	Imperial         int                       `json:"imperial_awareness"`
	Rebel            int                       `json:"rebel_awareness"`
	Criminal         int                       `json:"criminal_reputation"`
	Bounty           int                       `json:"bounty"`
	Escalations      []world.Escalation        `json:"escalations,omitempty"`
	Deployed         []world.BountyAgent       `json:"deployed,omitempty"`
	Events           []world.WorldEvent        `json:"events,omitempty"`
	FactionResponses []faction.AwarenessResult `json:"faction_responses,omitempty"`
}

// escalation accumulates what one update set in motion.
type escalation struct {
	entries  []world.Escalation
	deployed []world.BountyAgent
	events   []world.WorldEvent
}

func (x *escalation) log(t *world.ThreatLevel, action, fac, desc string, now time.Time) {
	entry := world.Escalation{Heat: t.Heat, Action: action, Faction: fac, Description: desc, At: now}
	t.Escalations.Push(entry)
	x.entries = append(x.entries, entry)
}

// deploy adds an agent, making room by dropping settled agents before any
// still in play.
func (x *escalation) deploy(t *world.ThreatLevel, a world.BountyAgent) {
	t.Agents.PushEvicting(a, world.BountyAgent.Settled)
	x.deployed = append(x.deployed, a)
}

// UpdateThreat applies an action to the player's profile, escalating one
// tier when heat rises and reporting witnesses to their factions.
func (e *Engine) UpdateThreat(ctx context.Context, a Action) (UpdateResult, error) {
	if a.Player == "" {
		return UpdateResult{}, world.InvalidInput("player is required")
	}
	if a.Severity < 1 || a.Severity > 10 {
		return UpdateResult{}, world.InvalidInput("severity %d outside 1-10", a.Severity)
	}

	inc, ok := Increments[a.Kind]
	if !ok {
		inc = DefaultIncrement
	}
	inc = factionModifier(a.Faction, inc)
	sev := float64(a.Severity)

	now := e.clock.Now()
	var res UpdateResult
	var x escalation
	t, err := e.store.UpdateThreat(ctx, a.Player, func(t *world.ThreatLevel) error {
		x = escalation{}
		res = UpdateResult{PreviousHeat: t.Heat}

		t.Notoriety += int(inc.Notoriety * sev)
		t.ImperialAwareness += int(inc.Imperial * sev)
		t.RebelAwareness += int(inc.Rebel * sev)
		t.CriminalReputation += int(inc.Criminal * sev)
		t.Bounty += int(inc.Bounty * sev)
		t.Clamp()

		old := t.Heat
		t.Heat = t.ComputeHeat()
		x.log(t, a.Kind, a.Faction, fmt.Sprintf("%s at severity %d", a.Kind, a.Severity), now)
		if t.Heat > old {
			e.escalate(t, &x, now)
			t.LastEscalation = now
		}

		if t.Bounty >= 5000 && entropy.Chance(e.rand, 0.3) {
			e.deployHunter(t, &x, now)
		}
		return nil
	})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update threat: %w", err)
	}

	res = fill(res, t)
	res.Escalations = x.entries
	res.Deployed = x.deployed
	res.Events = e.emit(ctx, x.events)
	res.FactionResponses = e.reportWitnesses(ctx, a)

	e.log.Info("threat updated",
		"player", a.Player,
		"action", a.Kind,
		"severity", a.Severity,
		"heat", res.Heat,
		"bounty", res.Bounty,
	)
	return res, nil
}

func fill(res UpdateResult, t world.ThreatLevel) UpdateResult {
	res.Player = t.Player
	res.Heat = t.Heat
	res.Notoriety = t.Notoriety
	res.Imperial = t.ImperialAwareness
	res.Rebel = t.RebelAwareness
	res.Criminal = t.CriminalReputation
	res.Bounty = t.Bounty
	return res
}

// Bounty hunters the guild sends to the top heat band.
var guildHunters = []string{"Valance", "Boushh", "Dengar", "IG-88", "4-LOM", "Zuckuss", "Bossk"}

var specializations = []string{"tracking", "capture", "elimination", "infiltration"}

// escalate runs the one tier selected by the new heat band.
func (e *Engine) escalate(t *world.ThreatLevel, x *escalation, now time.Time) {
	switch {
	case t.Heat >= 8:
		x.deploy(t, world.BountyAgent{
			ID:             uuid.NewString(),
			Kind:           world.AgentResponseTeam,
			Name:           "ISB Response Team",
			Threat:         world.TierExtreme,
			Specialization: "tactical assault",
			Completion:     0.8,
			Status:         world.AgentHunting,
			DeployedAt:     now,
		})
		x.log(t, "isb_response_team", world.GalacticEmpire, "Imperial Security Bureau dispatches an elite response team", now)
		x.events = append(x.events, world.WorldEvent{
			Title:       "ISB Response Team Deployed",
			Description: fmt.Sprintf("An elite Imperial Security Bureau team has been dispatched to apprehend %s.", t.Player),
			Category:    world.EventMilitary,
			Factions:    []string{world.GalacticEmpire},
			Impact:      5,
			Player:      t.Player,
		})

		for _, name := range entropy.Sample(e.rand, guildHunters, entropy.Between(e.rand, 2, 4)) {
			x.deploy(t, world.BountyAgent{
				ID:             uuid.NewString(),
				Kind:           world.AgentGuildHunter,
				Name:           name,
				Threat:         world.TierHigh,
				Specialization: entropy.Pick(e.rand, specializations),
				Completion:     entropy.Uniform(e.rand, 0.4, 0.7),
				Status:         world.AgentHunting,
				DeployedAt:     now,
			})
		}
		x.log(t, "bounty_guild", "", "The Bounty Hunters' Guild accepts the contract on you", now)

		x.log(t, "system_alert", world.GalacticEmpire, "A system-wide alert carries your description to every checkpoint", now)
		x.events = append(x.events, world.WorldEvent{
			Title:       "System-Wide Alert Issued",
			Description: fmt.Sprintf("Imperial authorities broadcast the likeness of %s. Bounty: %s credits.", t.Player, humanize.Comma(int64(t.Bounty))),
			Category:    world.EventPolitical,
			Factions:    []string{world.GalacticEmpire},
			Impact:      3,
			Player:      t.Player,
		})

	case t.Heat >= 6:
		x.deploy(t, world.BountyAgent{
			ID:             uuid.NewString(),
			Kind:           world.AgentInvestigator,
			Name:           "Imperial Investigator",
			Threat:         world.TierHigh,
			Specialization: "investigation",
			Completion:     0.6,
			Status:         world.AgentHunting,
			DeployedAt:     now,
		})
		x.log(t, "imperial_investigation", world.GalacticEmpire, "An Imperial investigator opens a case on you", now)
		if entropy.Chance(e.rand, 0.6) {
			e.deployHunter(t, x, now)
		}
		x.log(t, "increased_patrols", world.GalacticEmpire, "Imperial patrols increase in your sector", now)

	case t.Heat >= 4:
		x.deploy(t, world.BountyAgent{
			ID:             uuid.NewString(),
			Kind:           world.AgentLocalSecurity,
			Name:           "Local Security Detail",
			Threat:         world.TierMedium,
			Specialization: "patrol",
			Completion:     0.3,
			Status:         world.AgentHunting,
			DeployedAt:     now,
		})
		x.log(t, "local_security", "", "Local security forces are told to watch for you", now)
		if entropy.Chance(e.rand, 0.4) {
			e.deployHunter(t, x, now)
		}
		x.log(t, "surveillance", "", "Surveillance around your known haunts increases", now)

	case t.Heat >= 2:
		x.log(t, "monitoring", "", "Your activities have been flagged for monitoring", now)
	}
}

// hunterTiers are the freelance hunters a bounty can attract.
var hunterTiers = []world.BountyAgent{
	{Name: "Freelance Tracker", Threat: world.TierMedium, Completion: 0.4, Specialization: "tracking"},
	{Name: "Guild Hunter", Threat: world.TierHigh, Completion: 0.6, Specialization: "capture"},
	{Name: "Amateur Bounty Hunter", Threat: world.TierLow, Completion: 0.2, Specialization: "opportunism"},
}

const maxActiveHunters = 3

// deployHunter adds one freelance hunter unless enough are already out.
func (e *Engine) deployHunter(t *world.ThreatLevel, x *escalation, now time.Time) {
	active := 0
	for _, a := range t.ActiveAgents() {
		if a.Kind == world.AgentBountyHunter || a.Kind == world.AgentGuildHunter {
			active++
		}
	}
	if active >= maxActiveHunters {
		x.log(t, "bounty_hunters", "", "Bounty hunter activity continues", now)
		return
	}
	h := entropy.Pick(e.rand, hunterTiers)
	h.ID = uuid.NewString()
	h.Kind = world.AgentBountyHunter
	h.Status = world.AgentHunting
	h.DeployedAt = now
	x.deploy(t, h)
	x.log(t, "bounty_hunter", "", fmt.Sprintf("A %s takes up your bounty", h.Name), now)
}

// reportWitnesses tells each witness's faction what it saw.
func (e *Engine) reportWitnesses(ctx context.Context, a Action) []faction.AwarenessResult {
	var out []faction.AwarenessResult
	sev := a.Severity
	for _, w := range a.Witnesses {
		aff := world.ClassifyWitness(w)
		c := faction.AwarenessChange{
			Faction: world.FactionFor(aff),
			Player:  a.Player,
			Reason:  fmt.Sprintf("%s witnessed %s", w, a.Kind),
		}
		switch aff {
		case world.AffiliationImperial:
			c.RelationshipDelta = sev * 3
			c.AwarenessDelta = sev * 5
		case world.AffiliationRebel:
			if a.Kind == "imperial_crime" || a.Kind == "terrorism" {
				c.RelationshipDelta = -sev * 2
			} else {
				c.RelationshipDelta = sev
			}
			c.AwarenessDelta = sev * 3
		case world.AffiliationCriminal:
			if a.Kind == "criminal_activity" || a.Kind == "smuggling" {
				c.RelationshipDelta = -sev
			} else {
				c.RelationshipDelta = sev
			}
			c.AwarenessDelta = sev * 2
		default:
			continue
		}
		if res, ok := e.report(ctx, c); ok {
			out = append(out, res)
		}
	}
	return out
}

// scale multiplies a base reduction, truncating toward zero.
func scale(base int, mult float64) int {
	return int(math.Floor(float64(base) * mult))
}
