package core

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

const (
	// SpongeRate is the number of elements absorbed or squeezed per call
	SpongeRate = 10

	// SpongeStateSize is the full width of the sponge state
	SpongeStateSize = 16
)

// Sponge is the VM's sponge register. The rate occupies the first
// SpongeRate elements, the capacity the rest.
type Sponge struct {
	State [SpongeStateSize]field.Element
}

// NewSponge returns a sponge in its variable-length domain: zero rate and
// a capacity of ones.
func NewSponge() *Sponge {
	s := &Sponge{}
	for i := 0; i < SpongeRate; i++ {
		s.State[i] = field.Zero
	}
	for i := SpongeRate; i < SpongeStateSize; i++ {
		s.State[i] = field.One
	}
	return s
}

// Absorb overwrites the rate with input and permutes the state
func (s *Sponge) Absorb(input [SpongeRate]field.Element) {
	copy(s.State[:SpongeRate], input[:])
	s.permute()
}

// Squeeze returns the rate and permutes the state
func (s *Sponge) Squeeze() [SpongeRate]field.Element {
	var out [SpongeRate]field.Element
	copy(out[:], s.State[:SpongeRate])
	s.permute()
	return out
}

// PadAndAbsorbAll absorbs input of arbitrary length. The input is padded
// with a single one followed by zeros up to a multiple of the rate.
func (s *Sponge) PadAndAbsorbAll(input []field.Element) {
	padded := make([]field.Element, 0, len(input)+SpongeRate)
	padded = append(padded, input...)
	padded = append(padded, field.One)
	for len(padded)%SpongeRate != 0 {
		padded = append(padded, field.Zero)
	}
	for i := 0; i < len(padded); i += SpongeRate {
		var chunk [SpongeRate]field.Element
		copy(chunk[:], padded[i:i+SpongeRate])
		s.Absorb(chunk)
	}
}

// permute mixes the whole state through three applications of Hash10
func (s *Sponge) permute() {
	var low, high [10]field.Element
	copy(low[:], s.State[:10])
	copy(high[:], s.State[6:])

	a := Hash10(low)
	b := Hash10(high)
	c := HashPair(a, b)

	copy(s.State[0:5], a[:])
	copy(s.State[5:10], b[:])
	copy(s.State[10:15], c[:])
	s.State[15] = a[0].Add(b[0]).Add(c[0])
}

// Clone returns an independent copy of the sponge
func (s *Sponge) Clone() *Sponge {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Equal reports whether two sponges hold the same state. Two nil sponges
// are equal.
func (s *Sponge) Equal(other *Sponge) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	for i := range s.State {
		if !s.State[i].Equal(other.State[i]) {
			return false
		}
	}
	return true
}

// HashVarlen hashes a sequence of arbitrary length
func HashVarlen(input []field.Element) Digest {
	s := NewSponge()
	s.PadAndAbsorbAll(input)
	out := s.Squeeze()
	var d Digest
	copy(d[:], out[:DigestLen])
	return d
}
