package quest

import (
	"context"
	"math"

	"github.com/talgya/holonet/internal/world"
)

// Tension is the pressure between two factions, in [0, 1].
type Tension struct {
	A, B  string
	Level float64
}

// baseTensions are the standing rivalries of the galaxy, in evaluation order.
var baseTensions = []Tension{
	{A: world.GalacticEmpire, B: world.RebelAlliance, Level: 0.9},
	{A: world.GalacticEmpire, B: world.HuttCartel, Level: 0.3},
	{A: world.GalacticEmpire, B: world.CorporateSector, Level: 0.2},
	{A: world.RebelAlliance, B: world.HuttCartel, Level: 0.1},
	{A: world.RebelAlliance, B: world.CorporateSector, Level: 0.2},
	{A: world.HuttCartel, B: world.CorporateSector, Level: 0.4},
}

// Tensions computes every rivalry whose two factions both exist. Competition
// over resources and territory raises a pair above its base level.
func Tensions(factions []world.Faction) (pairs []Tension, highest float64) {
	byName := make(map[string]world.Faction, len(factions))
	for _, f := range factions {
		byName[f.Name] = f
	}
	for _, base := range baseTensions {
		a, okA := byName[base.A]
		b, okB := byName[base.B]
		if !okA || !okB {
			continue
		}
		resources := math.Abs(float64(a.Resources-b.Resources)) / 10000
		territory := math.Abs(float64(a.Territory-b.Territory)) / 100
		level := math.Min(1, base.Level+resources*0.3+territory*0.2)
		pairs = append(pairs, Tension{A: base.A, B: base.B, Level: level})
		highest = math.Max(highest, level)
	}
	return pairs, highest
}

// snapshot is the state of the galaxy a quest is generated against.
type snapshot struct {
	player     string
	net        int
	sensitive  bool
	heat       int
	tensions   []Tension
	maxTension float64
	contacts   []world.NPCMemory
	location   string
	preference string
}

// recentContactLimit is how many recent NPCs feed personal quests.
const recentContactLimit = 5

// snapshot gathers context from every collaborator. A collaborator that
// fails contributes defaults; quest generation never fails on context.
func (e *Engine) snapshot(ctx context.Context, req Request) snapshot {
	s := snapshot{player: req.Player, heat: 1, location: req.Location, preference: req.Difficulty}

	if e.force != nil {
		if a, err := e.force.GetAlignment(ctx, req.Player); err != nil {
			e.log.Warn("quest context: alignment unavailable", "player", req.Player, "error", err)
		} else {
			s.net, s.sensitive = a.Net(), a.ForceSensitive
		}
	}
	if e.threats != nil {
		if t, err := e.threats.GetThreat(ctx, req.Player); err != nil {
			e.log.Warn("quest context: threat unavailable", "player", req.Player, "error", err)
		} else {
			s.heat = t.Heat
		}
	}
	if e.factions != nil {
		if fs, err := e.factions.ListFactions(ctx); err != nil {
			e.log.Warn("quest context: factions unavailable", "error", err)
		} else {
			s.tensions, s.maxTension = Tensions(fs)
		}
	}
	if e.contacts != nil {
		if cs, err := e.contacts.RecentContacts(ctx, req.Player, recentContactLimit); err != nil {
			e.log.Warn("quest context: contacts unavailable", "player", req.Player, "error", err)
		} else {
			s.contacts = cs
		}
	}
	return s
}
