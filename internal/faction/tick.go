package faction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

// OperationOutcome is one resolved operation.
type OperationOutcome struct {
	Operation world.Operation `json:"operation"`
	Success   bool            `json:"success"`
}

// TickResult is what one faction did during a tick.
type TickResult struct {
	Faction        string             `json:"faction"`
	Skipped        bool               `json:"skipped"`
	Resolved       []OperationOutcome `json:"resolved,omitempty"`
	Started        []world.Operation  `json:"started,omitempty"`
	ResourceDelta  int                `json:"resource_delta"`
	TerritoryDelta int                `json:"territory_delta"`
	InfluenceDelta int                `json:"influence_delta"`
	Event          *world.WorldEvent  `json:"event,omitempty"`
}

// TickReport aggregates a whole tick.
type TickReport struct {
	Results   []TickResult     `json:"results"`
	Conflicts []ConflictResult `json:"conflicts,omitempty"`
}

// Ticked reports how many factions actually ran.
func (r TickReport) Ticked() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped {
			n++
		}
	}
	return n
}

// RunTick advances every faction that is due, or all of them when force is
// set, then resolves conflicts between hostile pairs. A tick in which no
// faction was due changes nothing.
func (e *Engine) RunTick(ctx context.Context, force bool) (TickReport, error) {
	var report TickReport

	factions, err := e.store.ListFactions(ctx)
	if err != nil {
		return report, fmt.Errorf("list factions: %w", err)
	}

	now := e.clock.Now()
	for _, f := range factions {
		res, err := e.tickFaction(ctx, f.Name, now, force)
		if err != nil {
			return report, fmt.Errorf("tick %s: %w", f.Name, err)
		}
		report.Results = append(report.Results, res)
	}

	if report.Ticked() == 0 {
		return report, nil
	}

	conflicts, err := e.resolveConflicts(ctx, now)
	if err != nil {
		return report, err
	}
	report.Conflicts = conflicts

	e.log.Info("faction tick",
		"factions", report.Ticked(),
		"conflicts", len(conflicts),
		"forced", force,
	)
	return report, nil
}

func (e *Engine) tickFaction(ctx context.Context, name string, now time.Time, force bool) (TickResult, error) {
	var res TickResult

	_, err := e.store.UpdateFaction(ctx, name, func(f *world.Faction) error {
		res = TickResult{Faction: name}
		if !force && now.Sub(f.LastActionTime) < e.cfg.TickInterval {
			res.Skipped = true
			return world.ErrSkip
		}

		due, pending := f.Operations.Split(now)
		f.Operations = pending
		for _, op := range due {
			ok := entropy.Chance(e.rand, op.SuccessChance)
			if ok {
				res.ResourceDelta += op.ResourceGain
				res.TerritoryDelta += op.TerritoryGain
				res.InfluenceDelta += op.InfluenceGain
			} else {
				res.ResourceDelta -= op.ResourceLoss
				res.InfluenceDelta -= op.InfluenceLoss
			}
			res.Resolved = append(res.Resolved, OperationOutcome{Operation: op, Success: ok})
		}
		f.Resources += res.ResourceDelta
		f.Territory += res.TerritoryDelta
		f.Influence += res.InfluenceDelta
		f.Clamp()

		goals := f.Goals
		if len(goals) > 2 {
			goals = goals[:2]
		}
		for _, goal := range goals {
			op := e.GenerateOperation(f, goal, now)
			if op == nil {
				continue
			}
			f.Resources -= op.ResourceCost
			f.Operations.Add(*op)
			res.Started = append(res.Started, *op)
		}

		f.Clamp()
		f.LastActionTime = now
		return nil
	})
	if errors.Is(err, world.ErrSkip) {
		return res, nil
	}
	if err != nil {
		return res, err
	}

	if ev, ok := e.tickEvent(res); ok {
		if err := e.store.AppendEvent(ctx, ev); err != nil {
			return res, fmt.Errorf("append event: %w", err)
		}
		res.Event = &ev
	}

	for _, out := range res.Resolved {
		if out.Operation.Kind == world.OperationPursuit {
			e.notifyPursuit(ctx, name, out)
		}
	}

	e.log.Debug("faction ticked",
		"faction", name,
		"resolved", len(res.Resolved),
		"started", len(res.Started),
		"resource_delta", res.ResourceDelta,
		"territory_delta", res.TerritoryDelta,
	)
	return res, nil
}

// tickEvent builds the event for a significant tick.
func (e *Engine) tickEvent(res TickResult) (world.WorldEvent, bool) {
	dr, dt := world.Abs(res.ResourceDelta), world.Abs(res.TerritoryDelta)
	if dr <= e.cfg.MajorResourceDelta && dt <= e.cfg.MajorTerritoryDelta {
		return world.WorldEvent{}, false
	}
	if dr < e.cfg.MinorResourceDelta && dt < e.cfg.MinorTerritoryDelta {
		return world.WorldEvent{}, false
	}

	var title string
	switch {
	case res.TerritoryDelta > 0:
		title = fmt.Sprintf("%s Expands Its Reach", res.Faction)
	case res.TerritoryDelta < 0:
		title = fmt.Sprintf("%s Loses Ground", res.Faction)
	case res.ResourceDelta > 0:
		title = fmt.Sprintf("%s Fills Its Coffers", res.Faction)
	default:
		title = fmt.Sprintf("%s Suffers Setbacks", res.Faction)
	}

	desc := fmt.Sprintf("%s operations shifted %s resources and %d systems.",
		res.Faction, credits(res.ResourceDelta), res.TerritoryDelta)

	return e.newEvent(world.WorldEvent{
		Title:       title,
		Description: desc,
		Category:    world.EventPolitical,
		Factions:    []string{res.Faction},
		Impact:      dr/200 + dt,
	}), true
}

func (e *Engine) notifyPursuit(ctx context.Context, faction string, out OperationOutcome) {
	if e.pursuit == nil || out.Operation.Target == "" {
		return
	}
	next, ok := world.Descend(ctx)
	if !ok {
		e.log.Debug("cascade depth reached", "from", "pursuit", "faction", faction)
		return
	}
	if err := e.pursuit.PursuitResolved(next, faction, out.Operation.Target, out.Success); err != nil {
		e.log.Warn("pursuit cascade failed", "faction", faction, "player", out.Operation.Target, "error", err)
	}
}
