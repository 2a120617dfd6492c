package world

import "time"

// QuestStatus is a quest's place in its lifecycle. Transitions run
// available -> active -> completed|failed and never back.
type QuestStatus string

const (
	QuestAvailable QuestStatus = "available"
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s QuestStatus) Terminal() bool {
	return s == QuestCompleted || s == QuestFailed
}

// QuestCategory is the kind of content a quest offers.
type QuestCategory string

const (
	QuestFactionConflict     QuestCategory = "faction_conflict"
	QuestForceSensitive      QuestCategory = "force_sensitive"
	QuestPersonalConsequence QuestCategory = "personal_consequence"
	QuestExploration         QuestCategory = "exploration"
	QuestReputationBased     QuestCategory = "reputation_based"
	QuestRandom              QuestCategory = "random"
)

// QuestCategories lists every category in draw order.
var QuestCategories = []QuestCategory{
	QuestFactionConflict,
	QuestForceSensitive,
	QuestPersonalConsequence,
	QuestExploration,
	QuestReputationBased,
	QuestRandom,
}

// Valid reports whether c is a known category.
func (c QuestCategory) Valid() bool {
	for _, k := range QuestCategories {
		if k == c {
			return true
		}
	}
	return false
}

// Reward is what a quest pays out.
type Reward struct {
	Credits    int      `json:"credits"`
	Reputation int      `json:"reputation"`
	Experience int      `json:"experience"`
	Extras     []string `json:"extras,omitempty"`
}

// Quest is a generated offer and its progress.
type Quest struct {
	ID            string         `json:"id"`
	Player        string         `json:"player"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Giver         string         `json:"giver"`
	Category      QuestCategory  `json:"category"`
	Reward        Reward         `json:"reward"`
	Requirements  []string       `json:"requirements"`
	Status        QuestStatus    `json:"status"`
	Difficulty    int            `json:"difficulty"` // 1–10
	FactionImpact map[string]int `json:"faction_impact"`
	ForceImpact   int            `json:"force_impact"`
	Rationale     string         `json:"rationale"`
	Prerequisites []string       `json:"prerequisites,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	AcceptedAt    time.Time      `json:"accepted_at,omitempty"`
	CompletedAt   time.Time      `json:"completed_at,omitempty"`
}

// Clone returns a copy that shares no storage with q.
func (q Quest) Clone() Quest {
	q.Reward.Extras = append([]string(nil), q.Reward.Extras...)
	q.Requirements = append([]string(nil), q.Requirements...)
	q.Prerequisites = append([]string(nil), q.Prerequisites...)
	if q.FactionImpact != nil {
		m := make(map[string]int, len(q.FactionImpact))
		for k, v := range q.FactionImpact {
			m[k] = v
		}
		q.FactionImpact = m
	}
	return q
}
