package faction

import (
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Pressure is a smooth field over (time, pair) that swells and slackens the
// odds of open conflict between hostile factions. A week of galactic time is
// one unit along the time axis.
type Pressure struct {
	noise     opensimplex.Noise
	amplitude float64
}

// NewPressure builds the field. An amplitude of 0 yields a flat factor of 1.
func NewPressure(seed int64, amplitude float64) *Pressure {
	if amplitude < 0 {
		amplitude = 0
	}
	if amplitude > 1 {
		amplitude = 1
	}
	return &Pressure{noise: opensimplex.NewNormalized(seed), amplitude: amplitude}
}

// Factor returns a multiplier in [1-amplitude, 1+amplitude] for the given
// hostile pair at time t.
func (p *Pressure) Factor(pair int, t time.Time) float64 {
	if p == nil || p.amplitude == 0 {
		return 1
	}
	weeks := float64(t.Unix()) / (7 * 24 * 3600)
	n := octaveNoise(p.noise, weeks, float64(pair)*3.7, 3, 0.5, 0.5)
	return 1 + p.amplitude*(2*n-1)
}

// octaveNoise layers several frequencies of normalized noise.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
