// Factions of the galaxy at the start of play.
package faction

import (
	"time"

	"github.com/talgya/holonet/internal/world"
)

// SeedFactions returns the four starting powers. Their last action is set a
// full tick interval before now so the first tick runs immediately.
func SeedFactions(now time.Time) []world.Faction {
	last := now.Add(-DefaultTickInterval)
	return []world.Faction{
		{
			Name:      world.GalacticEmpire,
			Category:  world.CategoryState,
			Territory: 70,
			Resources: 10000,
			Influence: 90,
			Goals: []string{
				GoalMaintainOrder,
				GoalSuppressRebellion,
				GoalExpandTerritory,
				"Develop Superweapons",
			},
			LastActionTime: last,
		},
		{
			Name:      world.RebelAlliance,
			Category:  world.CategoryRebel,
			Territory: 15,
			Resources: 2000,
			Influence: 30,
			Goals: []string{
				GoalLiberateSystems,
				GoalRecruitAllies,
				GoalSabotageEmpire,
				"Gather Intelligence",
			},
			LastActionTime: last,
		},
		{
			Name:      world.HuttCartel,
			Category:  world.CategoryCriminal,
			Territory: 10,
			Resources: 5000,
			Influence: 40,
			Goals: []string{
				GoalControlTradeRoutes,
				GoalExpandCriminalEmpire,
				"Maintain Neutrality",
				"Accumulate Wealth",
			},
			LastActionTime: last,
		},
		{
			Name:      world.CorporateSector,
			Category:  world.CategoryCorporate,
			Territory: 5,
			Resources: 3000,
			Influence: 50,
			Goals: []string{
				GoalMaximizeProfits,
				GoalExpandMarkets,
				"Maintain Autonomy",
				GoalDevelopTechnology,
			},
			LastActionTime: last,
		},
	}
}
