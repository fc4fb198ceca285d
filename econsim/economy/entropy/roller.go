// Package entropy provides the randomness source for stochastic simulation
// events. Production uses crypto/rand; tests inject a seeded source so
// outcomes are reproducible.
package entropy

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Roller yields uniform floats in [0, 1).
type Roller interface {
	Float() float64
}

type seededRoller struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeeded returns a deterministic Roller. Same seed, same roll sequence.
func NewSeeded(seed int64) Roller {
	return &seededRoller{rng: mathrand.New(mathrand.NewSource(seed))}
}

func (r *seededRoller) Float() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

type cryptoRoller struct{}

// NewCrypto returns a Roller backed by crypto/rand.
func NewCrypto() Roller {
	return cryptoRoller{}
}

func (cryptoRoller) Float() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// Should never happen; 0.5 keeps outcomes sane if it does.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
