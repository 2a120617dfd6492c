package world

import "time"

// InteractionKind is what the player did with or near an NPC.
type InteractionKind string

const (
	InteractDialogue            InteractionKind = "dialogue"
	InteractTrade               InteractionKind = "trade"
	InteractQuestCompletion     InteractionKind = "quest_completion"
	InteractQuestFailure        InteractionKind = "quest_failure"
	InteractBetrayal            InteractionKind = "betrayal"
	InteractRescue              InteractionKind = "rescue"
	InteractThreat              InteractionKind = "threat"
	InteractBribe               InteractionKind = "bribe"
	InteractLieDetected         InteractionKind = "lie_detected"
	InteractTruthTelling        InteractionKind = "truth_telling"
	InteractForceWitnessed      InteractionKind = "force_power_witnessed"
	InteractCombatAssistance    InteractionKind = "combat_assistance"
	InteractCombatAgainst       InteractionKind = "combat_against"
	InteractContextualDialogue  InteractionKind = "contextual_dialogue"
	InteractNetworkEffect       InteractionKind = "network_effect"
	InteractForceEventWitnessed InteractionKind = "force_event_witnessed"
)

// Mood is the NPC's disposition, ordered from warmest to coldest.
type Mood string

const (
	MoodEnthusiastic Mood = "enthusiastic"
	MoodFriendly     Mood = "friendly"
	MoodPleased      Mood = "pleased"
	MoodNeutral      Mood = "neutral"
	MoodWary         Mood = "wary"
	MoodHostile      Mood = "hostile"
	MoodVengeful     Mood = "vengeful"
)

// InteractionData is the typed payload of an interaction. Fields unused by a
// kind are left zero.
type InteractionData struct {
	Tone   string `json:"tone,omitempty"`   // dialogue: respectful, threatening, friendly
	Power  string `json:"power,omitempty"`  // force_power_witnessed
	Profit int    `json:"profit,omitempty"` // trade
	Value  int    `json:"value,omitempty"`  // trade
	Note   string `json:"note,omitempty"`
}

// Interaction is one entry of an NPC's history with a player.
type Interaction struct {
	Kind               InteractionKind `json:"kind"`
	Data               InteractionData `json:"data"`
	RelationshipChange int             `json:"relationship_change"`
	TrustChange        int             `json:"trust_change"`
	FearChange         int             `json:"fear_change"`
	At                 time.Time       `json:"at"`
}

// NPCMemory is what one NPC remembers about one player.
type NPCMemory struct {
	NPC                 string            `json:"npc"`
	Player              string            `json:"player"`
	Relationship        int               `json:"relationship"` // -100–100
	Trust               int               `json:"trust"`        // 0–100
	Fear                int               `json:"fear"`         // 0–100
	Traits              []string          `json:"traits"`
	Faction             string            `json:"faction"`
	Interactions        Ring[Interaction] `json:"interactions"`
	KnownFacts          Ring[string]      `json:"known_facts"`
	Mood                Mood              `json:"mood"`
	LastInteractionTime time.Time         `json:"last_interaction_time"`
	CreatedAt           time.Time         `json:"created_at"`
}

// NewNPCMemory returns an empty memory with its bounded histories sized.
func NewNPCMemory(npc, player string) NPCMemory {
	return NPCMemory{
		NPC:          npc,
		Player:       player,
		Faction:      Independent,
		Mood:         MoodNeutral,
		Interactions: NewRing[Interaction](MaxInteractions),
		KnownFacts:   NewRing[string](MaxKnownFacts),
	}
}

// Clamp forces every bounded field back into range.
func (m *NPCMemory) Clamp() {
	m.Relationship = Clamp(m.Relationship, -100, 100)
	m.Trust = Clamp(m.Trust, 0, 100)
	m.Fear = Clamp(m.Fear, 0, 100)
}

// HasTrait reports whether the NPC carries trait.
func (m NPCMemory) HasTrait(trait string) bool {
	for _, t := range m.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// Knows reports whether fact is already recorded.
func (m NPCMemory) Knows(fact string) bool {
	return m.KnownFacts.Contains(func(f string) bool { return f == fact })
}

// Learn records fact unless already known. It reports whether it was new.
func (m *NPCMemory) Learn(fact string) bool {
	if m.Knows(fact) {
		return false
	}
	m.KnownFacts.Push(fact)
	return true
}

// Clone returns a copy that shares no storage with m.
func (m NPCMemory) Clone() NPCMemory {
	m.Traits = append([]string(nil), m.Traits...)
	m.Interactions = m.Interactions.Clone()
	m.KnownFacts = m.KnownFacts.Clone()
	return m
}
