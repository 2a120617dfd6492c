package world

import "time"

// ThreatTier is how dangerous a bounty agent is.
type ThreatTier string

const (
	TierLow     ThreatTier = "Low"
	TierMedium  ThreatTier = "Medium"
	TierHigh    ThreatTier = "High"
	TierExtreme ThreatTier = "Extreme"
)

// AgentKind tags the BountyAgent variants.
type AgentKind string

const (
	AgentResponseTeam  AgentKind = "isb_response_team"
	AgentInvestigator  AgentKind = "imperial_investigator"
	AgentLocalSecurity AgentKind = "local_security"
	AgentGuildHunter   AgentKind = "guild_hunter"
	AgentBountyHunter  AgentKind = "bounty_hunter"
)

// AgentStatus is where a bounty agent is in its hunt.
type AgentStatus string

const (
	AgentHunting AgentStatus = "hunting"
	// AgentEngaged has caught up with the player; the outcome is pending.
	AgentEngaged   AgentStatus = "engaged"
	AgentSucceeded AgentStatus = "succeeded"
	AgentEvaded    AgentStatus = "evaded"
	AgentWithdrawn AgentStatus = "withdrawn"
)

// BountyAgent is someone hunting the player.
type BountyAgent struct {
	ID             string      `json:"id"`
	Kind           AgentKind   `json:"kind"`
	Name           string      `json:"name"`
	Threat         ThreatTier  `json:"threat"`
	Specialization string      `json:"specialization,omitempty"`
	Completion     float64     `json:"completion"` // per-check catch-up probability
	Status         AgentStatus `json:"status"`
	DeployedAt     time.Time   `json:"deployed_at"`
}

// Active reports whether the agent is still hunting.
func (b BountyAgent) Active() bool { return b.Status == AgentHunting }

// Settled reports whether the agent's hunt is over.
func (b BountyAgent) Settled() bool {
	return b.Status != AgentHunting && b.Status != AgentEngaged
}

// Escalation is one entry of the escalation-trigger log.
type Escalation struct {
	Heat        int       `json:"heat"`
	Action      string    `json:"action"`
	Faction     string    `json:"faction,omitempty"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// ThreatLevel is a player's notoriety profile.
type ThreatLevel struct {
	Player             string            `json:"player"`
	Notoriety          int               `json:"notoriety"`           // 0–100
	ImperialAwareness  int               `json:"imperial_awareness"`  // 0–100
	RebelAwareness     int               `json:"rebel_awareness"`     // 0–100
	CriminalReputation int               `json:"criminal_reputation"` // 0–100
	Bounty             int               `json:"bounty"`              // ≥0, uncapped
	Heat               int               `json:"heat"`                // 1–10
	Agents             Ring[BountyAgent] `json:"agents"`
	Escalations        Ring[Escalation]  `json:"escalations"`
	LastEscalation     time.Time         `json:"last_escalation"`
}

// NewThreatLevel returns the default record for a player never seen before.
func NewThreatLevel(player string) ThreatLevel {
	return ThreatLevel{
		Player:      player,
		Heat:        1,
		Agents:      NewRing[BountyAgent](MaxBountyAgents),
		Escalations: NewRing[Escalation](MaxEscalations),
	}
}

// Clamp forces every bounded field back into range.
func (t *ThreatLevel) Clamp() {
	t.Notoriety = Clamp(t.Notoriety, 0, 100)
	t.ImperialAwareness = Clamp(t.ImperialAwareness, 0, 100)
	t.RebelAwareness = Clamp(t.RebelAwareness, 0, 100)
	t.CriminalReputation = Clamp(t.CriminalReputation, 0, 100)
	if t.Bounty < 0 {
		t.Bounty = 0
	}
	t.Heat = Clamp(t.Heat, 1, 10)
}

// ComputeHeat maps the five signals onto [1, 10].
func (t ThreatLevel) ComputeHeat() int {
	bountyScore := float64(t.Bounty) / 500
	if bountyScore > 100 {
		bountyScore = 100
	}
	score := float64(t.Notoriety)*0.3 +
		float64(t.ImperialAwareness)*0.25 +
		float64(t.RebelAwareness)*0.15 +
		float64(t.CriminalReputation)*0.2 +
		bountyScore*0.1
	return Clamp(int(score/10)+1, 1, 10)
}

// ActiveAgents returns the agents still hunting.
func (t ThreatLevel) ActiveAgents() []BountyAgent {
	var out []BountyAgent
	for _, a := range t.Agents.Items() {
		if a.Active() {
			out = append(out, a)
		}
	}
	return out
}

// Clone returns a copy that shares no storage with t.
func (t ThreatLevel) Clone() ThreatLevel {
	t.Agents = t.Agents.Clone()
	t.Escalations = t.Escalations.Clone()
	return t
}
