package world

import (
	"math"
	"time"
)

// AlignmentKind is the side an action serves.
type AlignmentKind string

const (
	Light   AlignmentKind = "light"
	Dark    AlignmentKind = "dark"
	Neutral AlignmentKind = "neutral"
)

// Valid reports whether k is a known kind.
func (k AlignmentKind) Valid() bool {
	return k == Light || k == Dark || k == Neutral
}

// SensitivityThreshold is the lifetime point total that awakens a player.
const SensitivityThreshold = 15

// Force powers.
const (
	PowerSense     = "Force Sense"
	PowerPush      = "Force Push"
	PowerHeal      = "Force Heal"
	PowerMeditate  = "Battle Meditation"
	PowerChoke     = "Force Choke"
	PowerLightning = "Force Lightning"
	PowerStealth   = "Force Stealth"
)

// ForceEventKind tags entries of the force-event log.
type ForceEventKind string

const (
	ForceEventAlignment  ForceEventKind = "alignment"
	ForceEventPower      ForceEventKind = "power"
	ForceEventVision     ForceEventKind = "vision"
	ForceEventMeditation ForceEventKind = "meditation"
)

// ForceEvent is one entry of a player's force-event log.
type ForceEvent struct {
	Kind        ForceEventKind `json:"kind"`
	Action      AlignmentKind  `json:"action,omitempty"`
	Magnitude   int            `json:"magnitude,omitempty"`
	Points      int            `json:"points"`
	Power       string         `json:"power,omitempty"`
	Description string         `json:"description,omitempty"`
	Witnesses   []string       `json:"witnesses,omitempty"`
	At          time.Time      `json:"at"`
}

// AlignmentSnapshot records the alignment after an update.
type AlignmentSnapshot struct {
	Light      int       `json:"light"`
	Dark       int       `json:"dark"`
	Net        int       `json:"net"`
	Corruption int       `json:"corruption"`
	At         time.Time `json:"at"`
}

// ForceAlignment is a player's light/dark trajectory.
type ForceAlignment struct {
	Player         string                  `json:"player"`
	LightPoints    int                     `json:"light_points"`
	DarkPoints     int                     `json:"dark_points"`
	Corruption     int                     `json:"corruption"` // 0–100
	ForceSensitive bool                    `json:"force_sensitive"`
	Events         Ring[ForceEvent]        `json:"events"`
	History        Ring[AlignmentSnapshot] `json:"history"`
	Powers         []string                `json:"powers"`
	Manifestations map[string]time.Time    `json:"manifestations,omitempty"`
	LastEventTime  time.Time               `json:"last_event_time"`
}

// NewForceAlignment returns the default record for a player never seen before.
func NewForceAlignment(player string) ForceAlignment {
	return ForceAlignment{
		Player:  player,
		Events:  NewRing[ForceEvent](MaxForceEvents),
		History: NewRing[AlignmentSnapshot](MaxAlignmentHistory),
	}
}

// Net is round(100*(light-dark)/max(1, light+dark)).
func (a ForceAlignment) Net() int {
	total := a.LightPoints + a.DarkPoints
	if total < 1 {
		total = 1
	}
	return int(math.Round(100 * float64(a.LightPoints-a.DarkPoints) / float64(total)))
}

// Experience is the lifetime point total.
func (a ForceAlignment) Experience() int { return a.LightPoints + a.DarkPoints }

// AddPoints credits delta points: positive to light, negative to dark.
// It reports whether this update awakened the player.
func (a *ForceAlignment) AddPoints(delta int) (awakened bool) {
	switch {
	case delta > 0:
		a.LightPoints += delta
	case delta < 0:
		a.DarkPoints += -delta
	}
	a.Corruption = Clamp(a.Corruption, 0, 100)
	if !a.ForceSensitive && a.Experience() >= SensitivityThreshold {
		a.ForceSensitive = true
		return true
	}
	return false
}

// Snapshot appends the current state to the history ring.
func (a *ForceAlignment) Snapshot(at time.Time) {
	a.History.Push(AlignmentSnapshot{
		Light:      a.LightPoints,
		Dark:       a.DarkPoints,
		Net:        a.Net(),
		Corruption: a.Corruption,
		At:         at,
	})
}

// HasPower reports whether name is unlocked.
func (a ForceAlignment) HasPower(name string) bool {
	for _, p := range a.Powers {
		if p == name {
			return true
		}
	}
	return false
}

// Unlock adds name to the power set. It reports whether it was new.
func (a *ForceAlignment) Unlock(name string) bool {
	if a.HasPower(name) {
		return false
	}
	a.Powers = append(a.Powers, name)
	return true
}

// Clone returns a copy that shares no storage with a.
func (a ForceAlignment) Clone() ForceAlignment {
	a.Events = a.Events.Clone()
	a.History = a.History.Clone()
	a.Powers = append([]string(nil), a.Powers...)
	if a.Manifestations != nil {
		m := make(map[string]time.Time, len(a.Manifestations))
		for k, v := range a.Manifestations {
			m[k] = v
		}
		a.Manifestations = m
	}
	return a
}

// AlignmentTier names a net alignment band.
func AlignmentTier(net int) string {
	switch {
	case net >= 75:
		return "Light Side Paragon"
	case net >= 25:
		return "Light Side Leaning"
	case net >= -25:
		return "Balanced/Gray"
	case net >= -75:
		return "Dark Side Leaning"
	default:
		return "Dark Side Corruption"
	}
}
