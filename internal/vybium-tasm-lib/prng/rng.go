// Package prng provides the deterministic random stream that drives state
// generation. A stream is fully determined by its 32-byte seed.
package prng

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
)

// SeedLen is the length of a seed in bytes
const SeedLen = 32

// Seed determines a random stream
type Seed [SeedLen]byte

// String renders the seed as hex
func (s Seed) String() string {
	return hex.EncodeToString(s[:])
}

// ParseSeed parses a hex-encoded seed
func ParseSeed(s string) (Seed, error) {
	var seed Seed
	raw, err := hex.DecodeString(s)
	if err != nil {
		return seed, fmt.Errorf("invalid seed: %w", err)
	}
	if len(raw) != SeedLen {
		return seed, fmt.Errorf("seed must be %d bytes, got %d", SeedLen, len(raw))
	}
	copy(seed[:], raw)
	return seed, nil
}

// RandomSeed draws a seed from the operating system
func RandomSeed() Seed {
	var seed Seed
	if _, err := rand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("failed to read system randomness: %v", err))
	}
	return seed
}

// Rng is a SHAKE256 stream
type Rng struct {
	shake sha3.ShakeHash
}

// New creates the stream for seed
func New(seed Seed) *Rng {
	h := sha3.NewShake256()
	_, _ = h.Write([]byte("vybium-tasm-lib/prng"))
	_, _ = h.Write(seed[:])
	return &Rng{shake: h}
}

// Read fills p with stream bytes
func (r *Rng) Read(p []byte) (int, error) {
	return r.shake.Read(p)
}

// Uint64 draws a uniform 64-bit value
func (r *Rng) Uint64() uint64 {
	var b [8]byte
	_, _ = r.shake.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Uint32 draws a uniform 32-bit value
func (r *Rng) Uint32() uint32 {
	return uint32(r.Uint64())
}

// Uint64n draws a uniform value in [0, n); n must be positive
func (r *Rng) Uint64n(n uint64) uint64 {
	if n == 0 {
		panic("prng: Uint64n with n == 0")
	}
	limit := math.MaxUint64 - math.MaxUint64%n
	for {
		v := r.Uint64()
		if v < limit {
			return v % n
		}
	}
}

// Intn draws a uniform value in [0, n); n must be positive
func (r *Rng) Intn(n int) int {
	if n <= 0 {
		panic("prng: Intn with n <= 0")
	}
	return int(r.Uint64n(uint64(n)))
}

// Range draws a uniform value in [lo, hi)
func (r *Rng) Range(lo, hi uint64) uint64 {
	return lo + r.Uint64n(hi-lo)
}

// Bool draws a fair coin
func (r *Rng) Bool() bool {
	return r.Uint64()&1 == 1
}

// Element draws a uniform field element
func (r *Rng) Element() field.Element {
	for {
		v := r.Uint64()
		if v < field.P {
			return field.New(v)
		}
	}
}

// Elements draws n field elements
func (r *Rng) Elements(n int) []field.Element {
	out := make([]field.Element, n)
	for i := range out {
		out[i] = r.Element()
	}
	return out
}

// Digest draws a digest
func (r *Rng) Digest() core.Digest {
	var d core.Digest
	for i := range d {
		d[i] = r.Element()
	}
	return d
}

// Digests draws n digests
func (r *Rng) Digests(n int) []core.Digest {
	out := make([]core.Digest, n)
	for i := range out {
		out[i] = r.Digest()
	}
	return out
}

// Seed draws a fresh seed, e.g. to derive an independent stream
func (r *Rng) Seed() Seed {
	var s Seed
	_, _ = r.shake.Read(s[:])
	return s
}
