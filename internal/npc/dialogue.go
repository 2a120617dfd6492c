package npc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/talgya/holonet/internal/world"
)

// Metadata is the numeric state behind a dialogue briefing.
type Metadata struct {
	Relationship int        `json:"relationship"`
	Trust        int        `json:"trust"`
	Fear         int        `json:"fear"`
	Mood         world.Mood `json:"mood"`
	Faction      string     `json:"faction"`
}

// DialogueContext is the briefing handed to the dialogue generator.
type DialogueContext struct {
	SystemPrompt       string   `json:"system_prompt"`
	UserPrompt         string   `json:"user_prompt"`
	Metadata           Metadata `json:"metadata"`
	RelationshipChange int      `json:"relationship_change"`
}

// BuildDialogueContext briefs the dialogue generator on who the NPC is and
// what they think of the player. A nil memory yields a neutral stranger.
func BuildDialogueContext(m *world.NPCMemory, situation, playerAction string) DialogueContext {
	if m == nil {
		return DialogueContext{
			SystemPrompt: "You are a neutral NPC in the Star Wars universe. Respond appropriately to the situation.",
			UserPrompt:   fmt.Sprintf("Situation: %s. Player action: %s", situation, playerAction),
			Metadata:     Metadata{Mood: world.MoodNeutral, Faction: world.Independent},
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, an NPC in the Star Wars universe.\n\n", m.NPC)
	fmt.Fprintf(&b, "Personality: %s\n", describePersonality(m.Traits))
	fmt.Fprintf(&b, "Faction: %s\n", m.Faction)
	fmt.Fprintf(&b, "Current mood: %s\n\n", m.Mood)
	fmt.Fprintf(&b, "Relationship with player: %s\n", describeRelationship(*m))
	fmt.Fprintf(&b, "Knowledge about player: %s\n\n", describeKnowledge(m.KnownFacts.Items()))
	b.WriteString("Respond in character, taking into account your personality, relationship with the player, and what you know about them. Keep responses concise and immersive.")

	return DialogueContext{
		SystemPrompt: b.String(),
		UserPrompt: fmt.Sprintf("Current situation: %s\nPlayer's recent action: %s\n\nHow do you respond?",
			situation, playerAction),
		Metadata: Metadata{
			Relationship: m.Relationship,
			Trust:        m.Trust,
			Fear:         m.Fear,
			Mood:         m.Mood,
			Faction:      m.Faction,
		},
		RelationshipChange: moodNudge(m.Mood),
	}
}

var traitGroups = []struct {
	label  string
	traits []string
}{
	{"Socially", []string{"friendly", "suspicious", "honest", "deceitful", "tolerant", "xenophobic"}},
	{"Behavior", []string{"greedy", "loyal", "ambitious", "cowardly", "brave", "aggressive", "peaceful"}},
	{"Affiliations", []string{"imperial_sympathizer", "rebel_sympathizer", "criminal", "law_abiding"}},
	{"Force connection", []string{"force_sensitive", "jedi", "sith", "dark_side", "light_side"}},
	{"Profession", []string{"merchant", "noble", "bounty_hunter", "pilot", "mechanic", "doctor", "scholar"}},
}

func describePersonality(traits []string) string {
	if len(traits) == 0 {
		return "A typical individual with no distinctive personality traits."
	}
	var parts []string
	for _, g := range traitGroups {
		var found []string
		for _, t := range traits {
			if hasTrait(g.traits, t) {
				found = append(found, t)
			}
		}
		if len(found) > 0 {
			parts = append(parts, g.label+": "+strings.Join(found, ", "))
		}
	}
	if len(parts) == 0 {
		return "An unremarkable individual."
	}
	return strings.Join(parts, ". ") + "."
}

func describeRelationship(m world.NPCMemory) string {
	var rel, trust, fear string
	switch {
	case m.Relationship >= 50:
		rel = "Very positive relationship - considers player a close ally"
	case m.Relationship >= 20:
		rel = "Positive relationship - friendly towards player"
	case m.Relationship >= -20:
		rel = "Neutral relationship - no strong feelings either way"
	case m.Relationship >= -50:
		rel = "Negative relationship - distrusts or dislikes player"
	default:
		rel = "Very negative relationship - considers player an enemy"
	}
	switch {
	case m.Trust >= 70:
		trust = "Trusts player completely"
	case m.Trust >= 40:
		trust = "Generally trusts player"
	case m.Trust >= 20:
		trust = "Somewhat trusts player"
	default:
		trust = "Does not trust player"
	}
	switch {
	case m.Fear >= 70:
		fear = "Terrified of player"
	case m.Fear >= 40:
		fear = "Afraid of player"
	case m.Fear >= 20:
		fear = "Wary of player"
	default:
		fear = "Not afraid of player"
	}
	return rel + ". " + trust + ". " + fear + "."
}

var knowledgeCues = []struct {
	marker, summary string
}{
	{"Force-sensitive", "knows player is Force-sensitive"},
	{"Imperial", "aware of player's Imperial entanglements"},
	{"criminal", "knows about player's criminal connections"},
	{"resources", "believes player has significant resources"},
}

func describeKnowledge(facts []string) string {
	if len(facts) == 0 {
		return "Knows very little about the player's background or activities."
	}
	var points []string
	for _, cue := range knowledgeCues {
		for _, f := range facts {
			if strings.Contains(f, cue.marker) {
				points = append(points, cue.summary)
				break
			}
		}
	}
	if len(points) == 0 {
		return "Has some knowledge about the player but nothing particularly significant."
	}
	return "Knows the following about the player: " + strings.Join(points, ", ") + "."
}

// Conversation is one exchange with an NPC.
type Conversation struct {
	NPC         string            `json:"npc"`
	Reply       string            `json:"reply"`
	Fallback    bool              `json:"fallback"`
	Context     DialogueContext   `json:"context"`
	Interaction InteractionResult `json:"interaction"`
}

var fallbackReplies = map[world.Mood]string{
	world.MoodEnthusiastic: "Good to see you again, friend! What can I do for you?",
	world.MoodFriendly:     "Ah, it's you. What brings you here?",
	world.MoodPleased:      "Hello there. Need something?",
	world.MoodNeutral:      "Yes? What do you want?",
	world.MoodWary:         "I'm keeping my eye on you. Say what you came to say.",
	world.MoodHostile:      "You've got some nerve showing your face here.",
	world.MoodVengeful:     "Get out of my sight before I make you regret it.",
}

// Converse records a conversation, then asks the dialogue generator for the
// NPC's reply. The interaction stays recorded when generation fails, and the
// reply falls back to a fixed line for the NPC's mood.
func (e *Engine) Converse(ctx context.Context, npc, player, situation, playerInput string) (Conversation, error) {
	res, err := e.RecordInteraction(ctx, npc, player, world.InteractContextualDialogue, world.InteractionData{Note: playerInput})
	if err != nil {
		return Conversation{}, err
	}
	m, err := e.store.GetNPC(ctx, npc, player)
	if err != nil {
		return Conversation{}, fmt.Errorf("converse: %w", err)
	}

	dc := BuildDialogueContext(&m, situation, playerInput)
	conv := Conversation{NPC: npc, Context: dc, Interaction: res}

	reply, err := e.generate(ctx, dc)
	if err != nil {
		e.log.Warn("dialogue generation failed", "npc", npc, "error", err)
		conv.Reply, conv.Fallback = fallbackReplies[m.Mood], true
		if conv.Reply == "" {
			conv.Reply = fallbackReplies[world.MoodNeutral]
		}
		return conv, nil
	}
	conv.Reply = reply
	return conv, nil
}

var errNoGenerator = errors.New("no dialogue generator configured")

func (e *Engine) generate(ctx context.Context, dc DialogueContext) (string, error) {
	if e.dialogue == nil {
		return "", world.External(errNoGenerator, "dialogue")
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	reply, err := e.dialogue.Generate(ctx, dc.SystemPrompt, dc.UserPrompt)
	if err != nil {
		return "", world.External(err, "dialogue")
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", world.External(errors.New("empty reply"), "dialogue")
	}
	return reply, nil
}

// DialogueHistory returns up to limit of the most recent conversations npc
// remembers having with player.
func (e *Engine) DialogueHistory(ctx context.Context, npc, player string, limit int) ([]world.Interaction, error) {
	m, err := e.store.GetNPC(ctx, npc, player)
	if errors.Is(err, world.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dialogue history: %w", err)
	}
	var out []world.Interaction
	for _, in := range m.Interactions.Items() {
		if in.Kind == world.InteractDialogue || in.Kind == world.InteractContextualDialogue {
			out = append(out, in)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
