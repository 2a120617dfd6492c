package force

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

// VisionCategory is the kind of glimpse the Force offers.
type VisionCategory string

const (
	VisionFutureConflict      VisionCategory = "future_conflict"
	VisionPastEcho            VisionCategory = "past_echo"
	VisionForceNexus          VisionCategory = "force_nexus"
	VisionPersonalDestiny     VisionCategory = "personal_destiny"
	VisionGalacticConsequence VisionCategory = "galactic_consequence"
)

// Vision is a glimpse granted to a Force-sensitive player.
type Vision struct {
	Category  VisionCategory `json:"category"`
	Text      string         `json:"text"`
	Hints     []string       `json:"hints,omitempty"`
	Magnitude int            `json:"magnitude"`
	Trigger   string         `json:"trigger"`
}

type visionPool struct {
	texts  []string
	hints  []string
	lo, hi int
}

var visionPools = map[VisionCategory]visionPool{
	VisionFutureConflict: {
		texts: []string{
			"You see flashes of starships engaged in fierce battle, the outcome uncertain.",
			"A vision of worlds in flames, empires rising and falling in the galactic dance.",
			"You witness a confrontation between Force users, lightsabers clashing in darkness.",
		},
		hints: []string{"Prepare for battle", "Allies will be crucial", "Choices matter"},
		lo:    3, hi: 7,
	},
	VisionPastEcho: {
		texts: []string{
			"Ancient Jedi walk the halls of a temple long since fallen to ruin.",
			"You feel the echo of a great betrayal, Jedi turning against their masters.",
			"Sith Lords of old whisper secrets of power and domination.",
		},
		lo: 2, hi: 5,
	},
	VisionForceNexus: {
		texts: []string{
			"A hidden temple calls to you, its location just beyond clear memory.",
			"You sense a disturbance in the Force, centered on a place of great power.",
			"Dark energies swirl around an ancient stronghold, begging investigation.",
		},
		hints: []string{"Seek the hidden temple", "Power awaits the worthy"},
		lo:    4, hi: 8,
	},
	VisionGalacticConsequence: {
		texts: []string{
			"You see the ripple effects of your actions spreading across star systems.",
			"A vision of how your choices shape the fate of countless beings.",
			"You witness the long-term consequences of decisions yet to be made.",
		},
		hints: []string{"Every action has consequences", "Think beyond the immediate"},
		lo:    2, hi: 6,
	},
}

var destinyTexts = struct{ light, dark, gray []string }{
	light: []string{
		"You see yourself standing as a beacon of hope in dark times.",
		"A vision of you training others in the ways of the Light.",
		"You witness yourself making a choice that saves countless lives.",
	},
	dark: []string{
		"You see yourself wielding power over others, bending them to your will.",
		"A vision of conquest, systems falling before your might.",
		"You witness yourself standing triumphant over fallen enemies.",
	},
	gray: []string{
		"You see yourself walking a path between light and darkness.",
		"A vision of you making choices that will define your legacy.",
		"You witness yourself bringing balance to a divided galaxy.",
	},
}

func visionWeights(net int) []entropy.Weighted[VisionCategory] {
	switch {
	case net > 50:
		return []entropy.Weighted[VisionCategory]{
			{Value: VisionFutureConflict, Weight: 20},
			{Value: VisionPastEcho, Weight: 30},
			{Value: VisionPersonalDestiny, Weight: 30},
			{Value: VisionGalacticConsequence, Weight: 20},
		}
	case net < -50:
		return []entropy.Weighted[VisionCategory]{
			{Value: VisionFutureConflict, Weight: 35},
			{Value: VisionForceNexus, Weight: 25},
			{Value: VisionPersonalDestiny, Weight: 25},
			{Value: VisionGalacticConsequence, Weight: 15},
		}
	}
	return []entropy.Weighted[VisionCategory]{
		{Value: VisionPastEcho, Weight: 20},
		{Value: VisionForceNexus, Weight: 30},
		{Value: VisionPersonalDestiny, Weight: 25},
		{Value: VisionGalacticConsequence, Weight: 25},
	}
}

func (e *Engine) drawVision(net int, trigger string) Vision {
	cat := entropy.Choose(e.rand, visionWeights(net))
	v := Vision{Category: cat, Trigger: trigger}
	if cat == VisionPersonalDestiny {
		texts := destinyTexts.gray
		switch {
		case net > 25:
			texts = destinyTexts.light
		case net < -25:
			texts = destinyTexts.dark
		}
		v.Text = entropy.Pick(e.rand, texts)
		v.Magnitude = entropy.Between(e.rand, 3, 6)
		return v
	}
	pool := visionPools[cat]
	v.Text = entropy.Pick(e.rand, pool.texts)
	v.Hints = append([]string(nil), pool.hints...)
	v.Magnitude = entropy.Between(e.rand, pool.lo, pool.hi)
	return v
}

// GenerateVision may grant the player a vision. Stronger alignment in
// either direction makes one likelier. It returns nil when none comes.
func (e *Engine) GenerateVision(ctx context.Context, player, trigger string) (*Vision, error) {
	if trigger == "" {
		trigger = "meditation"
	}
	now := e.clock.Now()
	var v Vision
	_, err := e.store.UpdateAlignment(ctx, player, func(a *world.ForceAlignment) error {
		if !a.ForceSensitive {
			return world.ErrSkip
		}
		net := a.Net()
		chance := math.Min(0.8, float64(world.Abs(net))/100+0.2)
		if !entropy.Chance(e.rand, chance) {
			return world.ErrSkip
		}
		v = e.drawVision(net, trigger)
		a.Events.Push(world.ForceEvent{
			Kind:        world.ForceEventVision,
			Magnitude:   v.Magnitude,
			Description: fmt.Sprintf("%s (%s): %s", v.Category, trigger, v.Text),
			At:          now,
		})
		a.LastEventTime = now
		return nil
	})
	if errors.Is(err, world.ErrSkip) || errors.Is(err, world.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("generate vision: %w", err)
	}
	e.log.Info("force vision", "player", player, "category", v.Category, "trigger", trigger)
	return &v, nil
}

// MeditationKind is the focus of a meditation.
type MeditationKind string

const (
	MeditateBalance       MeditationKind = "balance"
	MeditateLight         MeditationKind = "light"
	MeditateDark          MeditationKind = "dark"
	MeditateVisionSeeking MeditationKind = "vision_seeking"
)

var durationTiers = map[string]int{"short": 1, "medium": 2, "long": 3}

var locationBonuses = map[string]int{
	"jedi_temple":     3,
	"sith_temple":     3,
	"force_nexus":     2,
	"peaceful_nature": 1,
	"starship":        0,
	"cantina":         -1,
	"unknown":         0,
}

// Meditation is one session of meditation.
type Meditation struct {
	Player   string
	Kind     MeditationKind
	Duration string // short, medium or long
	Location string // unknown locations give no bonus
}

// MeditationResult is what a meditation achieved.
type MeditationResult struct {
	Player          string   `json:"player"`
	Outcome         string   `json:"outcome"`
	AlignmentChange int      `json:"alignment_change"`
	Clarity         int      `json:"force_clarity"`
	LocationBonus   int      `json:"location_bonus"`
	Net             int      `json:"net"`
	Visions         []Vision `json:"visions"`
}

func notSensitive(player string) error {
	return world.InvalidState("%s is not Force-sensitive", player)
}

// requireSensitive fails with InvalidState unless the player has awakened.
func (e *Engine) requireSensitive(ctx context.Context, player string) error {
	a, err := e.store.GetAlignment(ctx, player)
	if errors.Is(err, world.ErrNotFound) {
		return notSensitive(player)
	}
	if err != nil {
		return fmt.Errorf("meditate: %w", err)
	}
	if !a.ForceSensitive {
		return notSensitive(player)
	}
	return nil
}

// Meditate centres a Force-sensitive player in the Force. Balance meditation
// pulls net alignment toward zero; light and dark push it; vision seeking may
// produce a vision instead of any alignment change.
func (e *Engine) Meditate(ctx context.Context, m Meditation) (MeditationResult, error) {
	if m.Player == "" {
		return MeditationResult{}, world.InvalidInput("player is required")
	}
	if m.Duration == "" {
		m.Duration = "short"
	}
	base, ok := durationTiers[m.Duration]
	if !ok {
		return MeditationResult{}, world.InvalidInput("unknown meditation duration %q", m.Duration)
	}
	switch m.Kind {
	case MeditateBalance, MeditateLight, MeditateDark, MeditateVisionSeeking:
	case "":
		m.Kind = MeditateBalance
	default:
		return MeditationResult{}, world.InvalidInput("unknown meditation kind %q", m.Kind)
	}

	if err := e.requireSensitive(ctx, m.Player); err != nil {
		return MeditationResult{}, err
	}

	bonus := locationBonuses[strings.ToLower(m.Location)]
	eff := base + bonus
	res := MeditationResult{
		Player:        m.Player,
		Outcome:       "You center yourself through meditation.",
		Clarity:       eff,
		LocationBonus: bonus,
		Visions:       []Vision{},
	}

	if m.Kind == MeditateVisionSeeking {
		if entropy.Chance(e.rand, math.Min(0.8, float64(eff)*0.2)) {
			v, err := e.GenerateVision(ctx, m.Player, "meditation")
			if err != nil {
				return MeditationResult{}, err
			}
			if v != nil {
				res.Outcome += " A vision comes to you: " + v.Text
				res.Visions = append(res.Visions, *v)
				return res, nil
			}
		}
		res.Outcome += " You seek visions but the Force remains silent."
		a, err := e.GetAlignment(ctx, m.Player)
		if err != nil {
			return MeditationResult{}, err
		}
		res.Net = a.Net()
		return res, nil
	}

	now := e.clock.Now()
	a, err := e.store.UpdateAlignment(ctx, m.Player, func(a *world.ForceAlignment) error {
		if !a.ForceSensitive {
			return notSensitive(m.Player)
		}
		change := 0
		net := a.Net()
		switch m.Kind {
		case MeditateBalance:
			step := min(5, world.Abs(net)/10) * eff
			switch {
			case net > 0:
				change = -step
			case net < 0:
				change = step
			}
		case MeditateLight:
			change = eff * 3
		case MeditateDark:
			change = -eff * 3
		}
		res.AlignmentChange = change
		if change == 0 {
			return world.ErrSkip
		}
		a.AddPoints(change)
		a.Events.Push(world.ForceEvent{
			Kind:        world.ForceEventMeditation,
			Points:      change,
			Description: fmt.Sprintf("%s meditation (%s) at %s", m.Kind, m.Duration, locationOrUnknown(m.Location)),
			At:          now,
		})
		a.Snapshot(now)
		a.LastEventTime = now
		return nil
	})
	if err != nil && !errors.Is(err, world.ErrSkip) {
		return MeditationResult{}, fmt.Errorf("meditate: %w", err)
	}
	switch m.Kind {
	case MeditateBalance:
		res.Outcome += " You feel more balanced in the Force."
	case MeditateLight:
		res.Outcome += " You strengthen your connection to the Light Side."
	case MeditateDark:
		res.Outcome += " You delve deeper into the Dark Side's power."
	}
	res.Net = a.Net()
	e.log.Info("meditation", "player", m.Player, "kind", m.Kind, "change", res.AlignmentChange, "net", res.Net)
	return res, nil
}

func locationOrUnknown(loc string) string {
	if loc == "" {
		return "unknown"
	}
	return loc
}
