// Fixed-capacity histories. Every bounded list on an entity is a Ring, so the
// caps on force events, interactions, facts and escalations hold by type.
package world

import "encoding/json"

// Capacities of the bounded entity histories.
const (
	MaxForceEvents      = 50
	MaxAlignmentHistory = 100
	MaxInteractions     = 30
	MaxKnownFacts       = 20
	MaxEscalations      = 20
	MaxBountyAgents     = 16
	MaxOperations       = 5
)

// Ring keeps the newest Cap items; pushing onto a full ring evicts the oldest.
// The zero value has no capacity and discards everything pushed to it.
type Ring[T any] struct {
	cap   int
	items []T
}

// NewRing returns an empty ring holding at most capacity items.
func NewRing[T any](capacity int) Ring[T] {
	return Ring[T]{cap: capacity}
}

// Push appends v, evicting the oldest item when full.
func (r *Ring[T]) Push(v T) {
	if r.cap <= 0 {
		return
	}
	if len(r.items) < r.cap {
		r.items = append(r.items, v)
		return
	}
	next := make([]T, 0, r.cap)
	next = append(next, r.items[len(r.items)-r.cap+1:]...)
	r.items = append(next, v)
}

// PushEvicting appends v. When full it evicts the oldest item evictable
// accepts, or the oldest item when none does.
func (r *Ring[T]) PushEvicting(v T, evictable func(T) bool) {
	if r.cap <= 0 {
		return
	}
	if len(r.items) < r.cap {
		r.items = append(r.items, v)
		return
	}
	drop := len(r.items) - r.cap
	for i := drop; i < len(r.items); i++ {
		if evictable(r.items[i]) {
			drop = i
			break
		}
	}
	next := make([]T, 0, r.cap)
	next = append(next, r.items[len(r.items)-r.cap:drop]...)
	next = append(next, r.items[drop+1:]...)
	r.items = append(next, v)
}

// Len is the number of items held.
func (r Ring[T]) Len() int { return len(r.items) }

// Cap is the ring's capacity.
func (r Ring[T]) Cap() int { return r.cap }

// Items returns a copy of the items, oldest first.
func (r Ring[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns up to n of the newest items, oldest first.
func (r Ring[T]) Last(n int) []T {
	if n > len(r.items) {
		n = len(r.items)
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	copy(out, r.items[len(r.items)-n:])
	return out
}

// Update rewrites every item in place.
func (r *Ring[T]) Update(fn func(*T)) {
	for i := range r.items {
		fn(&r.items[i])
	}
}

// Contains reports whether any item satisfies match.
func (r Ring[T]) Contains(match func(T) bool) bool {
	for _, it := range r.items {
		if match(it) {
			return true
		}
	}
	return false
}

// Clone returns a ring that shares no storage with r.
func (r Ring[T]) Clone() Ring[T] {
	return Ring[T]{cap: r.cap, items: r.Items()}
}

func (r Ring[T]) MarshalJSON() ([]byte, error) {
	if r.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.items)
}

// UnmarshalJSON keeps the receiver's capacity and drops the oldest items
// beyond it. A ring without capacity adopts the decoded length.
func (r *Ring[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if r.cap <= 0 {
		r.cap = len(items)
	}
	if len(items) > r.cap {
		items = items[len(items)-r.cap:]
	}
	r.items = items
	return nil
}
