package threat

import (
	"context"
	"fmt"

	"github.com/talgya/holonet/internal/world"
)

// response is one rung of a faction's retaliation ladder.
type response struct {
	minAwareness int // compared against the faction's own signal
	action       string
	description  string
	bounty       int
	notoriety    int
	imperial     int
	rebel        int
	criminal     int
}

// responses lists each faction's rungs from harshest to mildest.
var responses = map[string][]response{
	world.GalacticEmpire: {
		{minAwareness: 70, action: "isb_dossier", description: "The Imperial Security Bureau opens a dossier on you", bounty: 2000, imperial: 5, notoriety: 3},
		{minAwareness: 40, action: "wanted_poster", description: "Wanted posters bearing your face go up across Imperial space", bounty: 1000, imperial: 3, notoriety: 2},
		{action: "patrol_alert", description: "Imperial patrols are briefed on your description", imperial: 2},
	},
	world.RebelAlliance: {
		{minAwareness: 50, action: "cell_warning", description: "Rebel cells are warned to cut contact with you", rebel: 5, notoriety: 1},
		{action: "watch_list", description: "Alliance intelligence adds you to a watch list", rebel: 2},
	},
	world.HuttCartel: {
		{minAwareness: 50, action: "death_mark", description: "The Hutt Cartel places a death mark on you", bounty: 3000, criminal: 5, notoriety: 3},
		{action: "price_on_head", description: "The Hutts put a modest price on your head", bounty: 1500, criminal: 3},
	},
	world.CorporateSector: {
		{action: "asset_freeze", description: "The Corporate Sector Authority freezes your accounts", notoriety: 3, criminal: 1},
	},
}

// FactionResponse reports a retaliation.
type FactionResponse struct {
	Faction     string `json:"faction"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Heat        int    `json:"heat"`
	Bounty      int    `json:"bounty"`
}

// EscalateFactionResponse has a faction retaliate against the player. The
// rung is chosen by how much that faction already knows.
func (e *Engine) EscalateFactionResponse(ctx context.Context, player, factionName, reason string) (FactionResponse, error) {
	ladder, ok := responses[factionName]
	if !ok {
		return FactionResponse{}, world.InvalidInput("faction %q has no response ladder", factionName)
	}

	now := e.clock.Now()
	var res FactionResponse
	_, err := e.store.UpdateThreat(ctx, player, func(t *world.ThreatLevel) error {
		signal := t.Notoriety
		switch factionName {
		case world.GalacticEmpire:
			signal = t.ImperialAwareness
		case world.RebelAlliance:
			signal = t.RebelAwareness
		case world.HuttCartel:
			signal = t.CriminalReputation
		}

		r := ladder[len(ladder)-1]
		for _, rung := range ladder {
			if signal >= rung.minAwareness {
				r = rung
				break
			}
		}

		t.Bounty += r.bounty
		t.Notoriety += r.notoriety
		t.ImperialAwareness += r.imperial
		t.RebelAwareness += r.rebel
		t.CriminalReputation += r.criminal
		t.Clamp()
		t.Heat = t.ComputeHeat()

		desc := r.description
		if reason != "" {
			desc = fmt.Sprintf("%s (%s)", desc, reason)
		}
		t.Escalations.Push(world.Escalation{Heat: t.Heat, Action: r.action, Faction: factionName, Description: desc, At: now})

		res = FactionResponse{Faction: factionName, Action: r.action, Description: desc, Heat: t.Heat, Bounty: t.Bounty}
		return nil
	})
	if err != nil {
		return FactionResponse{}, fmt.Errorf("escalate faction response: %w", err)
	}

	e.log.Info("faction response", "player", player, "faction", factionName, "action", res.Action, "heat", res.Heat)
	return res, nil
}

// PursuitResolved turns a faction's finished pursuit into retaliation when
// it found the player, or a logged lost trail when it did not.
func (e *Engine) PursuitResolved(ctx context.Context, factionName, player string, success bool) error {
	if success {
		_, err := e.EscalateFactionResponse(ctx, player, factionName, "pursuit operation succeeded")
		return err
	}
	now := e.clock.Now()
	_, err := e.store.UpdateThreat(ctx, player, func(t *world.ThreatLevel) error {
		t.Escalations.Push(world.Escalation{
			Heat:        t.Heat,
			Action:      "pursuit_lost",
			Faction:     factionName,
			Description: fmt.Sprintf("%s agents lost your trail", factionName),
			At:          now,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("record lost pursuit: %w", err)
	}
	return nil
}
