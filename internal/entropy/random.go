// Package entropy provides the random sources every stochastic draw in the
// galaxy goes through. Production code shares one process-wide source; tests
// inject a seeded or scripted one.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

// Locked is a math/rand source safe for concurrent use.
type Locked struct {
	mu sync.Mutex
	r  *mathrand.Rand
}

// NewSeeded returns a deterministic source.
func NewSeeded(seed int64) *Locked {
	return &Locked{r: mathrand.New(mathrand.NewSource(seed))}
}

// New returns a source seeded from crypto/rand.
func New() *Locked {
	return NewSeeded(CryptoSeed())
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

var (
	defaultOnce sync.Once
	defaultSrc  Source
)

// Default is the process-wide source.
func Default() Source {
	defaultOnce.Do(func() { defaultSrc = New() })
	return defaultSrc
}

// CryptoSeed draws a seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}

// Crypto draws every float straight from crypto/rand.
type Crypto struct{}

func (Crypto) Float64() float64 { return cryptoFloat() }

func cryptoFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Script replays a fixed sequence of floats, cycling when exhausted.
// Tests use it to force particular branches.
type Script struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewScript returns a source replaying values. With no values it always
// returns 0.
func NewScript(values ...float64) *Script {
	return &Script{values: values}
}

func (s *Script) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Constant always returns the same float.
type Constant float64

func (c Constant) Float64() float64 { return float64(c) }
