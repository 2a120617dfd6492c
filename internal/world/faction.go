// Factions: autonomous powers that run operations against each other and
// watch the player.
package world

import "time"

// Seeded faction names.
const (
	GalacticEmpire  = "Galactic Empire"
	RebelAlliance   = "Rebel Alliance"
	HuttCartel      = "Hutt Cartel"
	CorporateSector = "Corporate Sector Authority"

	// Independent marks NPCs with no faction affiliation.
	Independent = "Independent"
)

// FactionCategory is the nature of a faction.
type FactionCategory string

const (
	CategoryState     FactionCategory = "state"
	CategoryRebel     FactionCategory = "rebel"
	CategoryCriminal  FactionCategory = "criminal"
	CategoryCorporate FactionCategory = "corporate"
)

// Valid reports whether c is a known category.
func (c FactionCategory) Valid() bool {
	switch c {
	case CategoryState, CategoryRebel, CategoryCriminal, CategoryCorporate:
		return true
	}
	return false
}

// Bounds of faction scalars.
const (
	MaxTerritory = 100
	MaxInfluence = 100
	MaxAwareness = 100
	MinHostility = -100
	MaxHostility = 100
)

// Faction is one autonomous power.
type Faction struct {
	Name           string          `json:"name"`
	Category       FactionCategory `json:"category"`
	Resources      int             `json:"resources"`
	Territory      int             `json:"territory"` // 0–100
	Influence      int             `json:"influence"` // 0–100
	Awareness      int             `json:"awareness"` // 0–100
	Hostility      int             `json:"hostility"` // -100–100
	Operations     OperationList   `json:"operations"`
	Goals          []string        `json:"goals"`
	LastActionTime time.Time       `json:"last_action_time"`
}

// Clamp forces every bounded field back into range.
func (f *Faction) Clamp() {
	if f.Resources < 0 {
		f.Resources = 0
	}
	f.Territory = Clamp(f.Territory, 0, MaxTerritory)
	f.Influence = Clamp(f.Influence, 0, MaxInfluence)
	f.Awareness = Clamp(f.Awareness, 0, MaxAwareness)
	f.Hostility = Clamp(f.Hostility, MinHostility, MaxHostility)
}

// Clone returns a copy that shares no storage with f.
func (f Faction) Clone() Faction {
	f.Operations = f.Operations.Clone()
	f.Goals = append([]string(nil), f.Goals...)
	return f
}

// OperationKind tags the Operation variants.
type OperationKind string

const (
	// OperationStrategic advances one of the faction's goals.
	OperationStrategic OperationKind = "strategic"
	// OperationPursuit hunts a specific player.
	OperationPursuit OperationKind = "pursuit"
)

// Operation is a faction undertaking that resolves once its completion time
// has passed. ResourceCost was already deducted when it was created.
type Operation struct {
	ID            string        `json:"id"`
	Kind          OperationKind `json:"kind"`
	Name          string        `json:"name"`
	Goal          string        `json:"goal"`
	Target        string        `json:"target,omitempty"` // pursuit only
	ResourceCost  int           `json:"resource_cost"`
	ResourceGain  int           `json:"resource_gain"`
	TerritoryGain int           `json:"territory_gain"`
	InfluenceGain int           `json:"influence_gain"`
	ResourceLoss  int           `json:"resource_loss"`
	InfluenceLoss int           `json:"influence_loss"`
	SuccessChance float64       `json:"success_chance"`
	StartedAt     time.Time     `json:"started_at"`
	CompletesAt   time.Time     `json:"completes_at"`
}

// Due reports whether the operation is ready to resolve at now.
func (o Operation) Due(now time.Time) bool {
	return !o.CompletesAt.After(now)
}

// OperationList holds at most MaxOperations active operations. Unlike a Ring
// it refuses additions when full rather than evicting.
type OperationList []Operation

// Full reports whether no further operation fits.
func (l OperationList) Full() bool { return len(l) >= MaxOperations }

// Add appends op if there is room.
func (l *OperationList) Add(op Operation) bool {
	if l.Full() {
		return false
	}
	*l = append(*l, op)
	return true
}

// Split separates operations due at now from those still running.
func (l OperationList) Split(now time.Time) (due, pending OperationList) {
	for _, op := range l {
		if op.Due(now) {
			due = append(due, op)
		} else {
			pending = append(pending, op)
		}
	}
	return due, pending
}

// Pursuing reports whether a pursuit of player is already active.
func (l OperationList) Pursuing(player string) bool {
	for _, op := range l {
		if op.Kind == OperationPursuit && op.Target == player {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no storage with l.
func (l OperationList) Clone() OperationList {
	if l == nil {
		return nil
	}
	return append(OperationList(nil), l...)
}
