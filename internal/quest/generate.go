package quest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

// Request asks for a quest.
type Request struct {
	Player     string
	Difficulty string              // easy, medium, hard or extreme; empty is medium
	Category   world.QuestCategory // forces a category when valid
	Location   string              // optional setting for exploration quests
}

var difficultyOffsets = map[string]int{"easy": -2, "medium": 0, "hard": 2, "extreme": 4}

// template is one entry of a category's template bank.
type template struct {
	title, description, giver, kind string
}

// draft is a quest before it is stamped and stored.
type draft struct {
	template
	category      world.QuestCategory
	difficulty    int
	rewardKind    string
	factionImpact map[string]int
	forceImpact   int
	rationale     string
	prerequisites []string
}

// GenerateQuest builds a quest suited to the player's place in the galaxy
// and stores it as available. A category without eligible context falls
// back to a generic quest.
func (e *Engine) GenerateQuest(ctx context.Context, req Request) (world.Quest, error) {
	if req.Player == "" {
		return world.Quest{}, world.InvalidInput("player is required")
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}
	if _, ok := difficultyOffsets[req.Difficulty]; !ok {
		return world.Quest{}, world.InvalidInput("unknown difficulty %q", req.Difficulty)
	}

	s := e.snapshot(ctx, req)
	cat := e.selectCategory(s, req.Category)

	var d draft
	ok := false
	switch cat {
	case world.QuestFactionConflict:
		d, ok = e.factionConflict(s)
	case world.QuestForceSensitive:
		d, ok = e.forceQuest(s), true
	case world.QuestPersonalConsequence:
		d, ok = e.personal(s)
	case world.QuestExploration:
		d, ok = e.exploration(s), true
	case world.QuestReputationBased:
		d, ok = e.reputation(s), true
	}
	if !ok {
		d = e.generic(s)
	}

	now := e.clock.Now()
	q := world.Quest{
		ID:            uuid.NewString(),
		Player:        req.Player,
		Title:         d.title,
		Description:   d.description,
		Giver:         d.giver,
		Category:      d.category,
		Reward:        e.rewards(d.difficulty, d.rewardKind),
		Requirements:  requirements(d.kind, d.difficulty),
		Status:        world.QuestAvailable,
		Difficulty:    d.difficulty,
		FactionImpact: d.factionImpact,
		ForceImpact:   d.forceImpact,
		Rationale:     d.rationale,
		Prerequisites: d.prerequisites,
		CreatedAt:     now,
	}
	if q.FactionImpact == nil {
		q.FactionImpact = map[string]int{}
	}
	if err := e.store.CreateQuest(ctx, q); err != nil {
		return world.Quest{}, fmt.Errorf("generate quest: %w", err)
	}
	e.log.Info("quest generated",
		"player", q.Player,
		"id", q.ID,
		"category", q.Category,
		"difficulty", q.Difficulty,
		"title", q.Title,
	)
	return q, nil
}

// selectCategory honours a valid preference, otherwise draws from base
// weights tilted by the player's context.
func (e *Engine) selectCategory(s snapshot, pref world.QuestCategory) world.QuestCategory {
	if pref.Valid() {
		return pref
	}
	if pref != "" {
		e.log.Debug("ignoring unknown quest category", "category", pref)
	}

	conflict := 20.0
	if s.maxTension > 0.7 {
		conflict += 15
	}
	forceW := 2.0
	if s.sensitive {
		forceW = 25
	}
	personalW := 5.0
	if len(s.contacts) > 2 {
		personalW = 20
	}
	return entropy.Choose(e.rand, []entropy.Weighted[world.QuestCategory]{
		{Value: world.QuestFactionConflict, Weight: conflict},
		{Value: world.QuestExploration, Weight: 15},
		{Value: world.QuestReputationBased, Weight: 10},
		{Value: world.QuestRandom, Weight: 10},
		{Value: world.QuestForceSensitive, Weight: forceW},
		{Value: world.QuestPersonalConsequence, Weight: personalW},
	})
}

// difficulty is base plus the preference offset plus half the heat.
func difficulty(s snapshot, base int) int {
	return world.Clamp(base+difficultyOffsets[s.preference]+s.heat/2, 1, 10)
}

func (e *Engine) factionConflict(s snapshot) (draft, bool) {
	if len(s.tensions) == 0 {
		return draft{}, false
	}
	t := entropy.Pick(e.rand, s.tensions)
	tpl := entropy.Pick(e.rand, []template{
		{
			title:       fmt.Sprintf("Diplomatic Intervention in %s-%s Conflict", t.A, t.B),
			description: fmt.Sprintf("Growing tensions between %s and %s threaten to destabilize the region. Various parties seek someone to mediate or tip the balance.", t.A, t.B),
			giver:       t.A + " Representative",
			kind:        "diplomatic",
		},
		{
			title:       "Supply Line Disruption",
			description: fmt.Sprintf("The conflict between %s and %s has created opportunities to disrupt supply lines and profit from the chaos.", t.A, t.B),
			giver:       "Independent Contractor",
			kind:        "sabotage",
		},
		{
			title:       "Rescue Mission in War Zone",
			description: fmt.Sprintf("Civilians are trapped in the crossfire between %s and %s. Someone needs to extract them before it's too late.", t.A, t.B),
			giver:       "Humanitarian Contact",
			kind:        "rescue",
		},
	})
	return draft{
		template:   tpl,
		category:   world.QuestFactionConflict,
		difficulty: difficulty(s, int(t.Level*8)),
		rewardKind: tpl.kind,
		factionImpact: map[string]int{
			t.A: entropy.Between(e.rand, -20, 20),
			t.B: entropy.Between(e.rand, -20, 20),
		},
		forceImpact:   entropy.Between(e.rand, -5, 5),
		rationale:     fmt.Sprintf("Generated due to high tension (%.2f) between %s and %s", t.Level, t.A, t.B),
		prerequisites: []string{fmt.Sprintf("Faction conflict: %s vs %s", t.A, t.B)},
	}, true
}

var (
	lightForceTemplates = []template{
		{"Ancient Jedi Holocron Recovery", "An ancient Jedi holocron has been discovered in ruins on a distant world. The knowledge within must be preserved and protected from those who would misuse it.", "Jedi Spirit", "light_side"},
		{"Protect Force-Sensitive Refugees", "A group of Force-sensitive individuals seeks protection from Imperial Inquisitors. They need safe passage to a hidden sanctuary.", "Underground Network", "protection"},
	}
	darkForceTemplates = []template{
		{"Sith Artifact Acquisition", "A powerful Sith artifact has been uncovered. Its dark power calls to those strong enough to claim it, but the path is fraught with danger and temptation.", "Dark Side Cultist", "dark_side"},
		{"Eliminate Force-Sensitive Threat", "A rogue Force user is disrupting your operations and challenging your authority. They must be dealt with permanently.", "Crime Lord", "elimination"},
	}
	grayForceTemplates = []template{
		{"Force Nexus Investigation", "Strange Force disturbances have been reported at an ancient site. The cause must be investigated and the balance restored.", "Force-Sensitive Scholar", "investigation"},
		{"Mediate Force User Conflict", "Two Force users with opposing philosophies are locked in conflict. Someone must find a way to resolve their differences before innocents are harmed.", "Local Authority", "mediation"},
	}
)

func (e *Engine) forceQuest(s snapshot) draft {
	bank := grayForceTemplates
	switch {
	case s.net > 25:
		bank = lightForceTemplates
	case s.net < -25:
		bank = darkForceTemplates
	}
	tpl := entropy.Pick(e.rand, bank)
	d := draft{
		template:      tpl,
		category:      world.QuestForceSensitive,
		difficulty:    difficulty(s, 6),
		rewardKind:    "force_related",
		rationale:     fmt.Sprintf("Generated for Force-sensitive character with alignment %d", s.net),
		prerequisites: []string{"Force-sensitive character"},
	}
	switch tpl.kind {
	case "light_side":
		d.forceImpact = entropy.Between(e.rand, 5, 20)
	case "dark_side":
		d.forceImpact = entropy.Between(e.rand, -20, -5)
	default:
		d.forceImpact = entropy.Between(e.rand, -15, 15)
	}
	return d
}

func (e *Engine) personal(s snapshot) (draft, bool) {
	if len(s.contacts) == 0 {
		return draft{}, false
	}
	m := entropy.Pick(e.rand, s.contacts)
	name := m.NPC

	var bank []template
	switch {
	case m.Relationship > 30:
		bank = []template{
			{fmt.Sprintf("Aid %s's Family Crisis", name), fmt.Sprintf("%s reaches out to you in desperation. Their family is in danger and they need someone they trust to help resolve the situation.", name), name, "assistance"},
			{fmt.Sprintf("Business Opportunity with %s", name), fmt.Sprintf("%s has discovered a profitable opportunity but needs a reliable partner. They're offering you a chance to join their venture.", name), name, "partnership"},
		}
	case m.Relationship < -30:
		bank = []template{
			{fmt.Sprintf("Confrontation with %s", name), fmt.Sprintf("%s has had enough of your interference. They've issued a challenge that cannot be ignored without losing face.", name), "Neutral Messenger", "confrontation"},
			{fmt.Sprintf("Sabotage %s's Operations", name), fmt.Sprintf("Your conflict with %s has escalated. An opportunity has arisen to strike at their operations and settle the score.", name), "Anonymous Contact", "sabotage"},
		}
	default:
		bank = []template{
			{fmt.Sprintf("Test of Trust from %s", name), fmt.Sprintf("%s is considering working with you but needs proof of your reliability. They've proposed a test of your abilities and trustworthiness.", name), name, "test"},
		}
	}
	tpl := entropy.Pick(e.rand, bank)
	return draft{
		template:      tpl,
		category:      world.QuestPersonalConsequence,
		difficulty:    difficulty(s, 4),
		rewardKind:    tpl.kind,
		forceImpact:   entropy.Between(e.rand, -3, 3),
		rationale:     fmt.Sprintf("Generated based on relationship with %s (level: %d)", name, m.Relationship),
		prerequisites: []string{"Previous interaction with " + name},
	}, true
}

var explorationSites = []string{
	"Ancient Sith Temple", "Abandoned Space Station", "Uncharted Planet",
	"Derelict Star Destroyer", "Hidden Rebel Base", "Mysterious Asteroid",
	"Lost Jedi Enclave", "Corporate Research Facility", "Pirate Stronghold",
}

func (e *Engine) exploration(s snapshot) draft {
	site := s.location
	if site == "" {
		site = entropy.Pick(e.rand, explorationSites)
	}
	tpl := entropy.Pick(e.rand, []template{
		{"Explore the " + site, fmt.Sprintf("Sensors have detected unusual activity at %s. Someone needs to investigate and report back on what they find.", site), "Information Broker", "exploration"},
		{"Salvage Operation at " + site, fmt.Sprintf("The %s contains valuable salvage, but it's in a dangerous area. Skilled operators are needed to extract the goods.", site), "Salvage Company", "salvage"},
		{"Archaeological Survey of " + site, fmt.Sprintf("The %s may contain artifacts of historical significance. A thorough survey is needed to catalog any discoveries.", site), "University Researcher", "archaeology"},
	})
	return draft{
		template:    tpl,
		category:    world.QuestExploration,
		difficulty:  difficulty(s, 5),
		rewardKind:  tpl.kind,
		forceImpact: entropy.Between(e.rand, -2, 2),
		rationale:   "Generated exploration quest for " + site,
	}
}

func (e *Engine) reputation(s snapshot) draft {
	var bank []template
	switch {
	case s.heat > 5:
		bank = []template{
			{"Eliminate Bounty Hunter Threat", "Your activities have attracted the attention of professional bounty hunters. They must be dealt with before they become a serious problem.", "Criminal Contact", "elimination"},
			{"Lay Low Operation", "The heat is getting too intense. You need to find a way to reduce your profile and let things cool down.", "Underground Network", "stealth"},
		}
	case s.heat < 2:
		bank = []template{
			{"Build Criminal Reputation", "You're still small-time in the criminal underworld. An opportunity has arisen to make a name for yourself with the right people.", "Crime Boss", "reputation_building"},
			{"Prove Your Worth", "A potential employer wants to test your skills before offering you more lucrative work. This is your chance to prove yourself.", "Potential Employer", "test"},
		}
	default:
		bank = []template{
			{"Maintain the Balance", "You've reached a comfortable level of notoriety, but maintaining it requires careful management of your activities.", "Strategic Advisor", "balance"},
		}
	}
	tpl := entropy.Pick(e.rand, bank)
	return draft{
		template:      tpl,
		category:      world.QuestReputationBased,
		difficulty:    difficulty(s, s.heat),
		rewardKind:    tpl.kind,
		forceImpact:   entropy.Between(e.rand, -5, 5),
		rationale:     fmt.Sprintf("Generated based on threat level %d", s.heat),
		prerequisites: []string{fmt.Sprintf("Threat level %d", s.heat)},
	}
}

var genericTemplates = []template{
	{"Cargo Delivery Run", "A shipment needs to be delivered to a remote location. The cargo is valuable and the route may be dangerous.", "Shipping Company", "delivery"},
	{"Missing Person Investigation", "Someone has gone missing under mysterious circumstances. Their family is willing to pay well for information about their whereabouts.", "Worried Family", "investigation"},
	{"Equipment Recovery Mission", "Valuable equipment was lost during a recent incident. It needs to be recovered before it falls into the wrong hands.", "Equipment Owner", "recovery"},
}

func (e *Engine) generic(s snapshot) draft {
	tpl := entropy.Pick(e.rand, genericTemplates)
	return draft{
		template:   tpl,
		category:   world.QuestRandom,
		difficulty: difficulty(s, 3),
		rewardKind: tpl.kind,
		rationale:  "Random quest generation",
	}
}

var specialRewards = []string{"Rare equipment", "Ship upgrades", "Unique contact", "Valuable information"}

// rewards scale with difficulty. Hard quests add one special reward.
func (e *Engine) rewards(diff int, kind string) world.Reward {
	r := world.Reward{
		Credits:    diff*1000 + entropy.Between(e.rand, -200, 500),
		Reputation: diff,
		Experience: diff * 100,
	}
	switch kind {
	case "force_related", "light_side", "dark_side":
		r.Extras = append(r.Extras, "Force technique or knowledge")
	case "faction_conflict", "diplomatic":
		r.Extras = append(r.Extras, "Improved standing with sponsoring faction")
	case "exploration", "archaeology":
		r.Extras = append(r.Extras, "Potential valuable artifacts or data")
	case "elimination", "sabotage":
		r.Extras = append(r.Extras, "Increased criminal reputation")
	}
	if diff >= 7 {
		r.Extras = append(r.Extras, entropy.Pick(e.rand, specialRewards))
	}
	return r
}

var kindRequirements = map[string][]string{
	"combat":        {"Combat capability required", "Weapons permitted"},
	"stealth":       {"Stealth approach recommended", "Avoid detection"},
	"diplomatic":    {"Social skills advantageous", "Non-violent resolution preferred"},
	"force_related": {"Force sensitivity helpful", "Mental preparation required"},
	"exploration":   {"Navigation equipment needed", "Survey equipment recommended"},
	"delivery":      {"Reliable transportation required", "Cargo protection essential"},
}

func requirements(kind string, diff int) []string {
	out := []string{
		fmt.Sprintf("Complete within %d days", 7+diff),
		"Maintain operational security",
	}
	return append(out, kindRequirements[kind]...)
}
