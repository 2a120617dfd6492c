package quest

import (
	"context"
	"fmt"
	"sort"

	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/force"
	"github.com/talgya/holonet/internal/world"
)

// AcceptQuest moves an available quest to active.
func (e *Engine) AcceptQuest(ctx context.Context, id, player string) (world.Quest, error) {
	now := e.clock.Now()
	q, err := e.store.UpdateQuest(ctx, id, func(q *world.Quest) error {
		if q.Player != player {
			return world.InvalidState("quest %s was not offered to %s", id, player)
		}
		if q.Status != world.QuestAvailable {
			return world.InvalidState("quest %s is %s, not available", id, q.Status)
		}
		q.Status = world.QuestActive
		q.AcceptedAt = now
		return nil
	})
	if err != nil {
		return world.Quest{}, fmt.Errorf("accept quest: %w", err)
	}
	e.log.Info("quest accepted", "player", player, "id", id)
	return q, nil
}

// Completion describes how a quest was finished.
type Completion struct {
	Method  string   // perfect, efficient, standard, sloppy, barely, ruthless, merciful, light_side, dark_side
	Choices []string // tags such as creative_solution or betrayed_ally
}

// CompletionResult is the payout and fallout of a completed quest.
type CompletionResult struct {
	Quest          world.Quest            `json:"quest"`
	Quality        float64                `json:"completion_quality"`
	Credits        int                    `json:"credits"`
	Rewards        []string               `json:"rewards"`
	FactionChanges map[string]int         `json:"faction_changes"`
	ForceChange    int                    `json:"force_change"`
	Alignment      *force.AlignmentResult `json:"alignment,omitempty"`
	Consequences   []string               `json:"consequences"`
}

var methodModifiers = map[string]float64{
	"perfect":   0.5,
	"efficient": 0.3,
	"standard":  0,
	"sloppy":    -0.2,
	"barely":    -0.4,
}

// Quality scores a completion in [0.1, 1.5]. Unknown methods score as
// standard.
func Quality(method string, choices []string) float64 {
	q := 1 + methodModifiers[method]
	if has(choices, "creative_solution") {
		q += 0.2
	}
	if has(choices, "helped_innocents") {
		q += 0.1
	}
	if has(choices, "caused_collateral_damage") {
		q -= 0.2
	}
	return world.ClampFloat(q, 0.1, 1.5)
}

// EvaluateCompletion closes an active quest as completed, pays it out, and
// applies its faction and force impact.
func (e *Engine) EvaluateCompletion(ctx context.Context, id string, c Completion) (CompletionResult, error) {
	if c.Method == "" {
		c.Method = "standard"
	}
	q, err := e.close(ctx, id, world.QuestCompleted)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("complete quest: %w", err)
	}

	res := CompletionResult{
		Quest:          q,
		Quality:        Quality(c.Method, c.Choices),
		FactionChanges: map[string]int{},
	}
	res.Credits = int(float64(q.Reward.Credits) * res.Quality)
	res.Rewards = []string{
		fmt.Sprintf("%d credits", res.Credits),
		fmt.Sprintf("+%d reputation with quest giver", q.Reward.Reputation),
		fmt.Sprintf("%d experience points", q.Reward.Experience),
	}
	res.Rewards = append(res.Rewards, q.Reward.Extras...)
	if res.Quality > 1.2 {
		res.Rewards = append(res.Rewards, "Bonus reward for exceptional performance")
	}

	res.ForceChange = q.ForceImpact
	switch c.Method {
	case "dark_side", "ruthless":
		res.ForceChange -= 5
	case "light_side", "merciful":
		res.ForceChange += 5
	}
	res.Consequences = completionConsequences(q, c)

	e.log.Info("quest completed", "player", q.Player, "id", id, "quality", res.Quality, "credits", res.Credits)

	next, ok := world.Descend(ctx)
	if !ok {
		e.log.Debug("cascade depth reached", "from", "quest", "id", id)
		return res, nil
	}
	for _, name := range sortedKeys(q.FactionImpact) {
		impact := q.FactionImpact[name]
		if impact == 0 || e.factions == nil {
			continue
		}
		// Impact is standing, so a favourable quest lowers hostility.
		_, err := e.factions.UpdateAwareness(next, faction.AwarenessChange{
			Faction:           name,
			Player:            q.Player,
			RelationshipDelta: -impact,
			AwarenessDelta:    world.Abs(impact) / 2,
			Reason:            "Quest completion: " + q.Title,
		})
		if err != nil {
			e.log.Warn("quest faction impact failed", "faction", name, "id", id, "error", err)
			continue
		}
		res.FactionChanges[name] = impact
	}
	if res.ForceChange != 0 && e.force != nil {
		kind := world.Light
		if res.ForceChange < 0 {
			kind = world.Dark
		}
		ar, err := e.force.UpdateAlignment(next, force.Action{
			Player:      q.Player,
			Kind:        kind,
			Magnitude:   world.Clamp(world.Abs(res.ForceChange)/5, 1, 10),
			Description: "Completed quest: " + q.Title,
		})
		if err != nil {
			e.log.Warn("quest force impact failed", "id", id, "error", err)
		} else {
			res.Alignment = &ar
		}
	}
	return res, nil
}

func completionConsequences(q world.Quest, c Completion) []string {
	var out []string
	switch c.Method {
	case "ruthless":
		out = append(out, "Your ruthless methods have been noted by local authorities")
	case "merciful":
		out = append(out, "Your merciful approach has earned you respect among civilians")
	}
	if has(c.Choices, "betrayed_ally") {
		out = append(out, "Your betrayal will have lasting repercussions")
	}
	if has(c.Choices, "saved_innocents") {
		out = append(out, "The people you saved will remember your kindness")
	}
	if q.Difficulty >= 7 {
		out = append(out, fmt.Sprintf("Your actions in '%s' have attracted the attention of powerful individuals", q.Title))
	}
	return out
}

// FailureResult is the fallout of a failed quest.
type FailureResult struct {
	Quest            world.Quest    `json:"quest"`
	Consequences     []string       `json:"consequences"`
	FactionChanges   map[string]int `json:"faction_changes"`
	ReputationImpact int            `json:"reputation_impact"`
}

// failurePenalties deepen the base reputation loss by reason.
var failurePenalties = map[string]struct {
	penalty int
	text    string
}{
	"timeout":      {5, "Deadline missed - reliability questioned"},
	"player_death": {15, "Mission failure due to casualties"},
	"betrayal":     {20, "Quest giver feels betrayed"},
}

// EvaluateFailure closes an active quest as failed. Every faction the quest
// would have swayed turns against the player instead, by more than the
// quest promised.
func (e *Engine) EvaluateFailure(ctx context.Context, id, reason string) (FailureResult, error) {
	q, err := e.close(ctx, id, world.QuestFailed)
	if err != nil {
		return FailureResult{}, fmt.Errorf("fail quest: %w", err)
	}

	res := FailureResult{
		Quest:            q,
		Consequences:     []string{fmt.Sprintf("Failed to complete '%s'", q.Title)},
		FactionChanges:   map[string]int{},
		ReputationImpact: -10,
	}
	if p, ok := failurePenalties[reason]; ok {
		res.Consequences = append(res.Consequences, p.text)
		res.ReputationImpact -= p.penalty
	}
	e.log.Info("quest failed", "player", q.Player, "id", id, "reason", reason)

	next, ok := world.Descend(ctx)
	if !ok || e.factions == nil {
		return res, nil
	}
	for _, name := range sortedKeys(q.FactionImpact) {
		impact := q.FactionImpact[name]
		if impact == 0 {
			continue
		}
		loss := -(world.Abs(impact) + 5)
		_, err := e.factions.UpdateAwareness(next, faction.AwarenessChange{
			Faction:           name,
			Player:            q.Player,
			RelationshipDelta: -loss,
			AwarenessDelta:    5,
			Reason:            "Failed quest: " + q.Title,
		})
		if err != nil {
			e.log.Warn("quest failure impact failed", "faction", name, "id", id, "error", err)
			continue
		}
		res.FactionChanges[name] = loss
	}
	return res, nil
}

// close moves an active quest to a terminal status.
func (e *Engine) close(ctx context.Context, id string, to world.QuestStatus) (world.Quest, error) {
	now := e.clock.Now()
	return e.store.UpdateQuest(ctx, id, func(q *world.Quest) error {
		if q.Status != world.QuestActive {
			return world.InvalidState("quest %s is %s, not active", id, q.Status)
		}
		q.Status = to
		q.CompletedAt = now
		return nil
	})
}

func has(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
