package faction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/holonet/internal/world"
)

// AwarenessChange adjusts how closely a faction watches a player.
// RelationshipDelta is added to hostility as given.
type AwarenessChange struct {
	Faction           string
	Player            string
	RelationshipDelta int
	AwarenessDelta    int
	Reason            string
}

// AwarenessResult is the faction's standing toward the player afterwards.
type AwarenessResult struct {
	Faction       string   `json:"faction"`
	Hostility     int      `json:"hostility"`
	Awareness     int      `json:"awareness"`
	Consequences  []string `json:"consequences,omitempty"`
	PursuitQueued bool     `json:"pursuit_queued"`
}

// UpdateAwareness applies a change atomically. A faction that is both aware
// (>50) and hostile (>30) launches a pursuit of the player if it can afford
// one and is not already pursuing them.
func (e *Engine) UpdateAwareness(ctx context.Context, c AwarenessChange) (AwarenessResult, error) {
	if c.Faction == "" {
		return AwarenessResult{}, world.InvalidInput("faction is required")
	}

	now := e.clock.Now()
	var res AwarenessResult
	_, err := e.store.UpdateFaction(ctx, c.Faction, func(f *world.Faction) error {
		res = AwarenessResult{Faction: f.Name}
		f.Awareness += c.AwarenessDelta
		f.Hostility += c.RelationshipDelta
		f.Clamp()

		switch {
		case f.Awareness > 50 && f.Hostility > 30:
			res.Consequences = append(res.Consequences,
				fmt.Sprintf("%s has marked you as a priority target", f.Name))
			if c.Player != "" && !f.Operations.Pursuing(c.Player) && f.Resources >= e.cfg.PursuitCost {
				op := world.Operation{
					ID:            uuid.NewString(),
					Kind:          world.OperationPursuit,
					Name:          "Pursue " + c.Player,
					Goal:          "Eliminate Threat",
					Target:        c.Player,
					ResourceCost:  e.cfg.PursuitCost,
					SuccessChance: DefaultSuccessChance,
					StartedAt:     now,
					CompletesAt:   now.Add(time.Duration(e.cfg.PursuitDays) * 24 * time.Hour),
				}
				if f.Operations.Add(op) {
					f.Resources -= op.ResourceCost
					res.PursuitQueued = true
				}
			}
		case f.Awareness > 75:
			res.Consequences = append(res.Consequences,
				fmt.Sprintf("%s intelligence networks are actively tracking your movements", f.Name))
		}

		f.Clamp()
		res.Hostility = f.Hostility
		res.Awareness = f.Awareness
		return nil
	})
	if err != nil {
		return AwarenessResult{}, fmt.Errorf("update awareness: %w", err)
	}

	e.log.Debug("faction awareness",
		"faction", c.Faction,
		"player", c.Player,
		"hostility", res.Hostility,
		"awareness", res.Awareness,
		"reason", c.Reason,
	)
	return res, nil
}
