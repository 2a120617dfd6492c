package faction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

// HostilePair is a standing rivalry and its base odds of open conflict.
type HostilePair struct {
	A, B   string
	Chance float64
}

// HostilePairs are the rivalries resolved after every tick.
var HostilePairs = []HostilePair{
	{A: world.GalacticEmpire, B: world.RebelAlliance, Chance: 0.8},
	{A: world.HuttCartel, B: world.CorporateSector, Chance: 0.3},
	{A: world.GalacticEmpire, B: world.HuttCartel, Chance: 0.2},
}

// ConflictResult is one open conflict.
type ConflictResult struct {
	Winner            string            `json:"winner"`
	Loser             string            `json:"loser"`
	Margin            float64           `json:"margin"`
	ResourceTransfer  int               `json:"resource_transfer"`
	TerritoryTransfer int               `json:"territory_transfer"`
	Event             *world.WorldEvent `json:"event,omitempty"`
}

// strength blends resources and influence.
func strength(f *world.Faction) float64 {
	return float64(f.Resources)*0.7 + float64(f.Influence)*0.3
}

func (e *Engine) resolveConflicts(ctx context.Context, now time.Time) ([]ConflictResult, error) {
	var out []ConflictResult
	for i, pair := range HostilePairs {
		p := pair.Chance * e.cfg.ConflictScale * e.pressure.Factor(i, now)
		if !entropy.Chance(e.rand, p) {
			continue
		}
		res, err := e.resolveConflict(ctx, pair)
		if errors.Is(err, world.ErrNotFound) {
			continue
		}
		if err != nil {
			return out, fmt.Errorf("conflict %s/%s: %w", pair.A, pair.B, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (e *Engine) resolveConflict(ctx context.Context, pair HostilePair) (ConflictResult, error) {
	var res ConflictResult

	_, _, err := e.store.UpdateFactionPair(ctx, pair.A, pair.B, func(a, b *world.Faction) error {
		sa := strength(a) * entropy.Uniform(e.rand, 0.8, 1.2)
		sb := strength(b) * entropy.Uniform(e.rand, 0.8, 1.2)

		winner, loser := a, b
		ws, ls := sa, sb
		if sb > sa {
			winner, loser = b, a
			ws, ls = sb, sa
		}
		margin := (ws - ls) / math.Max(ls, 1)

		resTransfer := int(float64(loser.Resources) * math.Min(0.1, margin*0.05))
		terrTransfer := int(float64(loser.Territory) * math.Min(0.05, margin*0.02))

		before := loser.Resources
		loser.Resources = floorAt(loser.Resources, resTransfer, e.cfg.ResourceFloor)
		resTransfer = before - loser.Resources

		before = loser.Territory
		loser.Territory = floorAt(loser.Territory, terrTransfer, e.cfg.TerritoryFloor)
		terrTransfer = before - loser.Territory

		winner.Resources += resTransfer
		winner.Territory += terrTransfer
		winner.Clamp()
		loser.Clamp()

		res = ConflictResult{
			Winner:            winner.Name,
			Loser:             loser.Name,
			Margin:            margin,
			ResourceTransfer:  resTransfer,
			TerritoryTransfer: terrTransfer,
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	if res.ResourceTransfer > 200 || res.TerritoryTransfer > 1 {
		ev := e.newEvent(world.WorldEvent{
			Title: fmt.Sprintf("%s Gains Ground Against %s", res.Winner, res.Loser),
			Description: fmt.Sprintf("%s seized %s resources and %d systems from %s.",
				res.Winner, credits(res.ResourceTransfer), res.TerritoryTransfer, res.Loser),
			Category: world.EventMilitary,
			Factions: []string{res.Winner, res.Loser},
			Impact:   int(res.Margin * 5),
		})
		if err := e.store.AppendEvent(ctx, ev); err != nil {
			return res, fmt.Errorf("append event: %w", err)
		}
		res.Event = &ev
	}

	e.log.Info("faction conflict",
		"winner", res.Winner,
		"loser", res.Loser,
		"margin", fmt.Sprintf("%.2f", res.Margin),
		"resources", res.ResourceTransfer,
		"territory", res.TerritoryTransfer,
	)
	return res, nil
}
