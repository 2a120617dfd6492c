package force

import (
	"context"
	"errors"
	"fmt"

	"github.com/talgya/holonet/internal/entropy"
	"github.com/talgya/holonet/internal/world"
)

type side int

const (
	sideAny side = iota
	sideLight
	sideDark
	sideBalanced
)

// powerSpec is one rung of the unlock ladder.
type powerSpec struct {
	name      string
	exp       int  // lifetime points required
	side      side // alignment gate
	threshold int  // net bound for light/dark gates
	chance    float64
	impact    int // base alignment impact of a successful use
}

// catalogue lists every power in unlock-check order.
var catalogue = []powerSpec{
	{name: world.PowerSense, exp: 10, side: sideAny, chance: 0.9},
	{name: world.PowerPush, exp: 25, side: sideAny, chance: 0.8},
	{name: world.PowerHeal, exp: 40, side: sideLight, threshold: 25, chance: 0.7, impact: 5},
	{name: world.PowerMeditate, exp: 80, side: sideLight, threshold: 60, chance: 0.4, impact: 3},
	{name: world.PowerChoke, exp: 30, side: sideDark, threshold: -25, chance: 0.6, impact: -8},
	{name: world.PowerLightning, exp: 100, side: sideDark, threshold: -60, chance: 0.5, impact: -12},
	{name: world.PowerStealth, exp: 50, side: sideBalanced, chance: 0.7},
}

func lookupPower(name string) (powerSpec, bool) {
	for _, p := range catalogue {
		if p.name == name {
			return p, true
		}
	}
	return powerSpec{}, false
}

func (p powerSpec) sideAllows(net int) bool {
	switch p.side {
	case sideLight:
		return net >= p.threshold
	case sideDark:
		return net <= p.threshold
	case sideBalanced:
		return net >= -25 && net <= 25
	}
	return true
}

// CheckPowerUnlocks grants every power whose requirements a now meets and
// returns the newly granted names. Powers are never revoked.
func CheckPowerUnlocks(a *world.ForceAlignment) []string {
	exp, net := a.Experience(), a.Net()
	var unlocked []string
	for _, p := range catalogue {
		if a.HasPower(p.name) || exp < p.exp || !p.sideAllows(net) {
			continue
		}
		if a.Unlock(p.name) {
			unlocked = append(unlocked, p.name)
		}
	}
	return unlocked
}

// PowerReport lists what a player can and cannot yet do.
type PowerReport struct {
	Available      []string          `json:"available"`
	Locked         []string          `json:"locked"`
	Requirements   map[string]string `json:"requirements"`
	ForceSensitive bool              `json:"force_sensitive"`
}

// PowerStatus reports the player's unlocked powers and what each locked one
// still requires.
func (e *Engine) PowerStatus(ctx context.Context, player string) (PowerReport, error) {
	a, err := e.store.GetAlignment(ctx, player)
	if errors.Is(err, world.ErrNotFound) {
		return PowerReport{
			Available:    []string{},
			Locked:       []string{"All powers locked - not Force-sensitive"},
			Requirements: map[string]string{},
		}, nil
	}
	if err != nil {
		return PowerReport{}, fmt.Errorf("power status: %w", err)
	}
	if !a.ForceSensitive {
		return PowerReport{
			Available:    []string{},
			Locked:       []string{"All powers locked - Force sensitivity not awakened"},
			Requirements: map[string]string{"Force Sensitivity": fmt.Sprintf("Perform %d Force-related actions", world.SensitivityThreshold)},
		}, nil
	}

	r := PowerReport{
		Available:      append([]string{}, a.Powers...),
		Requirements:   map[string]string{},
		ForceSensitive: true,
	}
	exp, net := a.Experience(), a.Net()
	for _, p := range catalogue {
		if a.HasPower(p.name) {
			continue
		}
		r.Locked = append(r.Locked, p.name)
		switch {
		case exp < p.exp:
			r.Requirements[p.name] = fmt.Sprintf("Requires %d Force experience (current: %d)", p.exp, exp)
		case p.side == sideBalanced && !p.sideAllows(net):
			r.Requirements[p.name] = "Requires balanced alignment (-25 to +25)"
		case p.side == sideLight && !p.sideAllows(net):
			r.Requirements[p.name] = fmt.Sprintf("Requires Light Side alignment (+%d or higher)", p.threshold)
		case p.side == sideDark && !p.sideAllows(net):
			r.Requirements[p.name] = fmt.Sprintf("Requires Dark Side alignment (%d or lower)", p.threshold)
		default:
			r.Requirements[p.name] = "Requirements met - unlocks with your next Force action"
		}
	}
	return r, nil
}

// Intent is the purpose behind a power's use.
type Intent string

const (
	IntentNeutral  Intent = "neutral"
	IntentLight    Intent = "light"
	IntentDark     Intent = "dark"
	IntentSelfish  Intent = "selfish"
	IntentSelfless Intent = "selfless"
)

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	switch i {
	case IntentNeutral, IntentLight, IntentDark, IntentSelfish, IntentSelfless:
		return true
	}
	return false
}

// PowerUse is one use of a Force power.
type PowerUse struct {
	Player string
	Power  string
	Target string // "" or "self" for no outside target
	Intent Intent // defaults to neutral
	Level  int    // 1–10
}

// PowerResult is the outcome of a power use.
type PowerResult struct {
	Player          string           `json:"player"`
	Power           string           `json:"power"`
	Success         bool             `json:"success"`
	Effect          string           `json:"effect"`
	AlignmentChange int              `json:"alignment_change"`
	ForceCost       int              `json:"force_cost"`
	Consequences    []string         `json:"consequences"`
	Witnesses       []string         `json:"witnesses,omitempty"`
	Alignment       *AlignmentResult `json:"alignment,omitempty"`
}

// UsePower attempts a power the player has learned. A successful use with
// enough alignment impact feeds back into UpdateAlignment; a use against an
// outside target may be seen by nearby NPCs.
func (e *Engine) UsePower(ctx context.Context, use PowerUse) (PowerResult, error) {
	if use.Intent == "" {
		use.Intent = IntentNeutral
	}
	if use.Player == "" {
		return PowerResult{}, world.InvalidInput("player is required")
	}
	spec, ok := lookupPower(use.Power)
	if !ok {
		return PowerResult{}, world.InvalidInput("unknown power %q", use.Power)
	}
	if !use.Intent.Valid() {
		return PowerResult{}, world.InvalidInput("unknown intent %q", use.Intent)
	}
	if use.Level < 1 || use.Level > 10 {
		return PowerResult{}, world.InvalidInput("power level %d outside 1-10", use.Level)
	}

	now := e.clock.Now()
	var res PowerResult
	_, err := e.store.UpdateAlignment(ctx, use.Player, func(a *world.ForceAlignment) error {
		if !a.ForceSensitive {
			return world.InvalidState("%s is not Force-sensitive", use.Player)
		}
		if !a.HasPower(use.Power) {
			return world.InvalidState("%s has not learned %s", use.Player, use.Power)
		}

		res = PowerResult{Player: use.Player, Power: use.Power}
		res.Success = entropy.Chance(e.rand, successChance(spec, a.Net(), use.Level))
		res.Effect = powerEffect(spec.name, use.Target, use.Level, res.Success)
		res.AlignmentChange = powerImpact(spec, use.Intent, use.Level, res.Success)
		res.ForceCost = use.Level * 2
		if use.Intent == IntentDark {
			res.ForceCost += 3
			a.Corruption = world.Clamp(a.Corruption+1, 0, 100)
		}
		res.Consequences = powerConsequences(spec.name, use.Intent, use.Level, res.Success)

		a.Events.Push(world.ForceEvent{
			Kind:        world.ForceEventPower,
			Power:       use.Power,
			Magnitude:   use.Level,
			Points:      res.AlignmentChange,
			Description: fmt.Sprintf("Used %s with %s intent", use.Power, use.Intent),
			At:          now,
		})
		a.LastEventTime = now
		return nil
	})
	if errors.Is(err, world.ErrNotFound) {
		return PowerResult{}, world.InvalidState("%s is not Force-sensitive", use.Player)
	}
	if err != nil {
		return PowerResult{}, fmt.Errorf("use power: %w", err)
	}

	e.log.Info("force power used",
		"player", use.Player,
		"power", use.Power,
		"level", use.Level,
		"intent", use.Intent,
		"success", res.Success,
	)

	next, ok := world.Descend(ctx)
	if !ok {
		e.log.Debug("cascade depth reached", "from", "force power", "player", use.Player)
		return res, nil
	}
	if world.Abs(res.AlignmentChange) >= 3 {
		kind := world.Light
		if res.AlignmentChange < 0 {
			kind = world.Dark
		}
		ar, err := e.UpdateAlignment(next, Action{
			Player:      use.Player,
			Kind:        kind,
			Magnitude:   world.Clamp(world.Abs(res.AlignmentChange)/3, 1, 10),
			Description: fmt.Sprintf("Used %s with %s intent", use.Power, use.Intent),
		})
		if err != nil {
			e.log.Warn("power alignment feedback failed", "player", use.Player, "error", err)
		} else {
			res.Alignment = &ar
		}
	}
	if e.npcs != nil && use.Target != "" && use.Target != "self" {
		w, err := e.npcs.WitnessPower(next, use.Player, use.Power, use.Target)
		if err != nil {
			e.log.Warn("power witnesses failed", "player", use.Player, "error", err)
		}
		res.Witnesses = w
	}
	return res, nil
}

func successChance(p powerSpec, net, level int) float64 {
	chance := p.chance - float64(level-1)*0.1
	switch {
	case p.side == sideDark && net < -25, p.side == sideLight && net > 25:
		chance += 0.2
	case p.side == sideDark && net > 25, p.side == sideLight && net < -25:
		chance -= 0.3
	}
	return world.ClampFloat(chance, 0.1, 0.95)
}

var powerEffects = map[string]string{
	world.PowerSense:     "You extend your senses through the Force, gaining awareness of your surroundings.",
	world.PowerPush:      "You unleash kinetic energy through the Force, pushing %s away with tremendous force.",
	world.PowerHeal:      "Healing energy flows through the Force, mending wounds and restoring vitality.",
	world.PowerChoke:     "You constrict %s's windpipe through the Force, demonstrating your power over life and death.",
	world.PowerLightning: "Dark Side energy crackles from your fingertips, striking %s with deadly lightning.",
	world.PowerMeditate:  "You reach out through the Force, bolstering allies and undermining enemies in combat.",
	world.PowerStealth:   "You bend light and perception around yourself, becoming nearly invisible to observers.",
}

func powerEffect(power, target string, level int, success bool) string {
	if !success {
		return fmt.Sprintf("Your attempt to use %s fails. The Force does not bend to your will.", power)
	}
	effect := powerEffects[power]
	switch power {
	case world.PowerPush:
		if target == "" {
			target = "objects"
		}
		effect = fmt.Sprintf(effect, target)
	case world.PowerChoke, world.PowerLightning:
		effect = fmt.Sprintf(effect, target)
	}
	switch {
	case level >= 7:
		effect += " The power you channel is extraordinary."
	case level >= 4:
		effect += " The effect is strong and focused."
	}
	return effect
}

// powerImpact is the signed alignment drift of a use. Failures drift nothing.
func powerImpact(p powerSpec, intent Intent, level int, success bool) int {
	if !success {
		return 0
	}
	impact := p.impact
	switch {
	case intent == IntentDark && impact >= 0:
		impact -= 3
	case intent == IntentLight && impact <= 0:
		impact += 2
	case intent == IntentSelfish:
		impact--
	case intent == IntentSelfless:
		impact += 2
	}
	return int(float64(impact) * float64(level) / 5)
}

func powerConsequences(power string, intent Intent, level int, success bool) []string {
	if !success {
		return []string{"Your failed attempt draws unwanted attention"}
	}
	var out []string
	switch {
	case power == world.PowerLightning && level >= 5:
		out = append(out, "The destructive display marks you as a dangerous Force user")
	case power == world.PowerHeal && level >= 6:
		out = append(out, "Your healing abilities become known to those in need")
	case power == world.PowerChoke:
		out = append(out, "Your display of deadly power intimidates witnesses")
	}
	switch intent {
	case IntentDark:
		out = append(out, "The Dark Side strengthens its hold on you")
	case IntentLight:
		out = append(out, "Your connection to the Light Side deepens")
	}
	if level >= 8 {
		out = append(out, "Such displays of Force power rarely go unnoticed")
	}
	return out
}
