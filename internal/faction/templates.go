package faction

import "github.com/talgya/holonet/internal/world"

// Strategic goals that have operation templates.
const (
	GoalMaintainOrder        = "Maintain Order"
	GoalSuppressRebellion    = "Suppress Rebellion"
	GoalExpandTerritory      = "Expand Territory"
	GoalLiberateSystems      = "Liberate Systems"
	GoalRecruitAllies        = "Recruit Allies"
	GoalSabotageEmpire       = "Sabotage Empire"
	GoalControlTradeRoutes   = "Control Trade Routes"
	GoalExpandCriminalEmpire = "Expand Criminal Empire"
	GoalMaximizeProfits      = "Maximize Profits"
	GoalExpandMarkets        = "Expand Markets"
	GoalDevelopTechnology    = "Develop Technology"
)

// Template describes an operation a faction may launch for a goal.
// A zero Success means DefaultSuccessChance.
type Template struct {
	Name          string
	Days          int
	Cost          int
	ResourceGain  int
	TerritoryGain int
	InfluenceGain int
	ResourceLoss  int
	InfluenceLoss int
	Success       float64
}

// DefaultSuccessChance applies to templates and pursuits with no explicit odds.
const DefaultSuccessChance = 0.7

var templates = map[world.FactionCategory]map[string][]Template{
	world.CategoryState: {
		GoalMaintainOrder: {
			{Name: "System Patrol", Days: 7, Cost: 200, InfluenceGain: 1, Success: 0.8},
			{Name: "Rebel Hunt", Days: 14, Cost: 500, InfluenceGain: 2, InfluenceLoss: 2, Success: 0.6},
		},
		GoalSuppressRebellion: {
			{Name: "Garrison Reinforcement", Days: 14, Cost: 400, InfluenceGain: 3},
			{Name: "Informant Network", Days: 10, Cost: 250, InfluenceGain: 2, InfluenceLoss: 1, Success: 0.75},
		},
		GoalExpandTerritory: {
			{Name: "System Annexation", Days: 30, Cost: 1000, TerritoryGain: 1, InfluenceLoss: 2},
			{Name: "Diplomatic Pressure", Days: 21, Cost: 300, InfluenceGain: 5},
		},
	},
	world.CategoryRebel: {
		GoalLiberateSystems: {
			{Name: "Liberation Campaign", Days: 21, Cost: 800, TerritoryGain: 1, InfluenceLoss: 2},
			{Name: "Propaganda Operations", Days: 14, Cost: 200, InfluenceGain: 3},
		},
		GoalRecruitAllies: {
			{Name: "Recruitment Drive", Days: 14, Cost: 150, InfluenceGain: 2, ResourceGain: 100},
		},
		GoalSabotageEmpire: {
			{Name: "Supply Line Disruption", Days: 7, Cost: 150, ResourceGain: 250, ResourceLoss: 100, Success: 0.7},
			{Name: "Intelligence Gathering", Days: 10, Cost: 100, InfluenceGain: 1, Success: 0.8},
		},
	},
	world.CategoryCriminal: {
		GoalControlTradeRoutes: {
			{Name: "Route Enforcement", Days: 14, Cost: 300, ResourceGain: 500, ResourceLoss: 100},
			{Name: "Competitor Elimination", Days: 7, Cost: 200, ResourceGain: 300, InfluenceLoss: 1, Success: 0.6},
		},
		GoalExpandCriminalEmpire: {
			{Name: "Territory Expansion", Days: 21, Cost: 400, TerritoryGain: 1},
			{Name: "Corruption Network", Days: 14, Cost: 250, InfluenceGain: 2},
		},
	},
	world.CategoryCorporate: {
		GoalMaximizeProfits: {
			{Name: "Market Expansion", Days: 30, Cost: 500, ResourceGain: 800, ResourceLoss: 200},
			{Name: "Efficiency Optimization", Days: 14, Cost: 200, ResourceGain: 300},
		},
		GoalExpandMarkets: {
			{Name: "Trade Concession", Days: 21, Cost: 400, ResourceGain: 600, InfluenceGain: 1},
		},
		GoalDevelopTechnology: {
			{Name: "R&D Investment", Days: 45, Cost: 1000, InfluenceGain: 5},
			{Name: "Patent Acquisition", Days: 7, Cost: 300, ResourceGain: 200, Success: 0.8},
		},
	},
}

// TemplatesFor returns the templates a faction category can run for goal.
func TemplatesFor(category world.FactionCategory, goal string) []Template {
	return templates[category][goal]
}
