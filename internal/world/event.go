package world

import "time"

// EventCategory groups world events.
type EventCategory string

const (
	EventMilitary  EventCategory = "military"
	EventEconomic  EventCategory = "economic"
	EventPolitical EventCategory = "political"
	EventForce     EventCategory = "force"
	EventSocial    EventCategory = "social"
)

// Valid reports whether c is a known category.
func (c EventCategory) Valid() bool {
	switch c {
	case EventMilitary, EventEconomic, EventPolitical, EventForce, EventSocial:
		return true
	}
	return false
}

// WorldEvent is an immutable record of something galaxy-wide. Only Active
// changes after creation.
type WorldEvent struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     EventCategory `json:"category"`
	Factions     []string      `json:"factions"`
	Impact       int           `json:"impact"` // 1–10
	Player       string        `json:"player,omitempty"`
	Consequences []string      `json:"consequences,omitempty"`
	Active       bool          `json:"active"`
	DurationDays int           `json:"duration_days,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ClampImpact bounds an impact magnitude to [1, 10].
func ClampImpact(v int) int { return Clamp(v, 1, 10) }

// EventFilter narrows event listings.
type EventFilter struct {
	ActiveOnly bool
	Player     string
	Category   EventCategory
	Limit      int
}
