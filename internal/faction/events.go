package faction

import (
	"context"
	"errors"
	"fmt"

	"github.com/talgya/holonet/internal/world"
)

// EventEffect is what an event did to one faction.
type EventEffect struct {
	Faction        string `json:"faction"`
	ResourceDelta  int    `json:"resource_delta"`
	InfluenceDelta int    `json:"influence_delta"`
}

// ApplyWorldEvent applies the category's effect to every affected faction.
// Military events cost resources and influence, economic events add
// resources and political events add influence. Unknown factions are skipped.
func (e *Engine) ApplyWorldEvent(ctx context.Context, ev world.WorldEvent) ([]EventEffect, error) {
	if !ev.Category.Valid() {
		return nil, world.InvalidInput("unknown event category %q", ev.Category)
	}
	impact := world.ClampImpact(ev.Impact)

	var effects []EventEffect
	for _, name := range ev.Factions {
		var eff EventEffect
		_, err := e.store.UpdateFaction(ctx, name, func(f *world.Faction) error {
			eff = EventEffect{Faction: f.Name}
			res, infl := f.Resources, f.Influence
			switch ev.Category {
			case world.EventMilitary:
				f.Resources = floorAt(f.Resources, impact*50, e.cfg.ResourceFloor)
				f.Influence -= impact
			case world.EventEconomic:
				f.Resources += impact * 100
			case world.EventPolitical:
				f.Influence += impact * 2
			}
			f.Clamp()
			eff.ResourceDelta = f.Resources - res
			eff.InfluenceDelta = f.Influence - infl
			return nil
		})
		if errors.Is(err, world.ErrNotFound) {
			e.log.Warn("event names unknown faction", "event", ev.Title, "faction", name)
			continue
		}
		if err != nil {
			return effects, fmt.Errorf("apply event to %s: %w", name, err)
		}
		effects = append(effects, eff)
	}
	return effects, nil
}

// EventInput describes an operator-triggered event.
type EventInput struct {
	Title        string
	Description  string
	Category     world.EventCategory
	Factions     []string
	Impact       int
	Player       string
	DurationDays int
}

// TriggerWorldEvent records an event and applies it.
func (e *Engine) TriggerWorldEvent(ctx context.Context, in EventInput) (world.WorldEvent, []EventEffect, error) {
	if in.Title == "" {
		return world.WorldEvent{}, nil, world.InvalidInput("event title is required")
	}
	if !in.Category.Valid() {
		return world.WorldEvent{}, nil, world.InvalidInput("unknown event category %q", in.Category)
	}
	if in.Impact < 1 || in.Impact > 10 {
		return world.WorldEvent{}, nil, world.InvalidInput("impact %d outside 1-10", in.Impact)
	}

	ev := e.newEvent(world.WorldEvent{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Factions:     in.Factions,
		Impact:       in.Impact,
		Player:       in.Player,
		DurationDays: in.DurationDays,
	})
	if err := e.store.AppendEvent(ctx, ev); err != nil {
		return ev, nil, fmt.Errorf("append event: %w", err)
	}
	effects, err := e.ApplyWorldEvent(ctx, ev)
	if err != nil {
		return ev, effects, err
	}
	e.log.Info("world event triggered", "title", ev.Title, "category", ev.Category, "impact", ev.Impact)
	return ev, effects, nil
}

// Emit records an event raised by another subsystem.
func (e *Engine) Emit(ctx context.Context, ev world.WorldEvent) (world.WorldEvent, error) {
	ev = e.newEvent(ev)
	if err := e.store.AppendEvent(ctx, ev); err != nil {
		return ev, fmt.Errorf("append event: %w", err)
	}
	return ev, nil
}

// ListEvents returns recent events, newest first. Limit defaults to 20.
func (e *Engine) ListEvents(ctx context.Context, filter world.EventFilter) ([]world.WorldEvent, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return e.store.ListEvents(ctx, filter)
}
