package world

import (
	"context"
	"strings"
)

// Affiliation is the faction category a witness identifier reveals.
type Affiliation string

const (
	AffiliationNone     Affiliation = ""
	AffiliationImperial Affiliation = "imperial"
	AffiliationRebel    Affiliation = "rebel"
	AffiliationCriminal Affiliation = "criminal"
)

// ClassifyWitness reads the faction marker embedded in a witness identifier:
// an "Imperial" or "Rebel" prefix, or "Criminal"/"Smuggler" anywhere.
func ClassifyWitness(id string) Affiliation {
	switch {
	case strings.HasPrefix(id, "Imperial"):
		return AffiliationImperial
	case strings.HasPrefix(id, "Rebel"):
		return AffiliationRebel
	case strings.Contains(id, "Criminal"), strings.Contains(id, "Smuggler"):
		return AffiliationCriminal
	}
	return AffiliationNone
}

// FactionFor returns the faction that hears from witnesses of aff.
func FactionFor(aff Affiliation) string {
	switch aff {
	case AffiliationImperial:
		return GalacticEmpire
	case AffiliationRebel:
		return RebelAlliance
	case AffiliationCriminal:
		return HuttCartel
	}
	return ""
}

// DefaultCascadeDepth bounds how many subsystem hops one call may trigger.
const DefaultCascadeDepth = 4

type depthKey struct{}
type limitKey struct{}

// WithCascadeLimit sets the cascade depth limit carried by ctx.
func WithCascadeLimit(ctx context.Context, limit int) context.Context {
	return context.WithValue(ctx, limitKey{}, limit)
}

// CascadeDepth is the number of hops already taken on ctx.
func CascadeDepth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

// Descend returns a context one hop deeper, or ok=false when the limit has
// been reached and the cascade must stop.
func Descend(ctx context.Context) (context.Context, bool) {
	limit, has := ctx.Value(limitKey{}).(int)
	if !has || limit <= 0 {
		limit = DefaultCascadeDepth
	}
	d := CascadeDepth(ctx)
	if d >= limit {
		return ctx, false
	}
	return context.WithValue(ctx, depthKey{}, d+1), true
}
