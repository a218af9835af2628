// Package core holds the hashing primitives shared by the VM, the snippets
// and their reference behaviors: digests, the sponge and Merkle trees.
package core

import (
	"fmt"
	"strings"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
)

// DigestLen is the number of field elements in a digest
const DigestLen = 5

// Digest is the output of the VM's hash function
type Digest [DigestLen]field.Element

// ZeroDigest returns the all-zero digest
func ZeroDigest() Digest {
	var d Digest
	for i := range d {
		d[i] = field.Zero
	}
	return d
}

// NewDigest builds a digest from raw values
func NewDigest(values [DigestLen]uint64) Digest {
	var d Digest
	for i, v := range values {
		d[i] = field.New(v)
	}
	return d
}

// Hash10 hashes exactly ten field elements into a digest
func Hash10(input [10]field.Element) Digest {
	h := hash.Hash10(input)
	var d Digest
	for i := range d {
		d[i] = h[i]
	}
	return d
}

// HashPair computes the parent of two sibling nodes
func HashPair(left, right Digest) Digest {
	var input [10]field.Element
	copy(input[:DigestLen], left[:])
	copy(input[DigestLen:], right[:])
	return Hash10(input)
}

// Equal reports whether both digests hold the same elements
func (d Digest) Equal(other Digest) bool {
	for i := range d {
		if !d[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Elements returns the digest in memory order
func (d Digest) Elements() []field.Element {
	out := make([]field.Element, DigestLen)
	copy(out, d[:])
	return out
}

// Push places the digest on a stack whose top is the last element.
// The first digest element ends up on top.
func (d Digest) Push(stack *[]field.Element) {
	for i := DigestLen - 1; i >= 0; i-- {
		*stack = append(*stack, d[i])
	}
}

// PopDigest removes a digest from the top of the stack
func PopDigest(stack *[]field.Element) (Digest, error) {
	var d Digest
	s := *stack
	if len(s) < DigestLen {
		return d, fmt.Errorf("stack holds %d elements, need %d for a digest", len(s), DigestLen)
	}
	for i := 0; i < DigestLen; i++ {
		d[i] = s[len(s)-1-i]
	}
	*stack = s[:len(s)-DigestLen]
	return d, nil
}

// DigestFromElements reads a digest from memory-ordered elements
func DigestFromElements(elems []field.Element) (Digest, error) {
	var d Digest
	if len(elems) != DigestLen {
		return d, fmt.Errorf("digest needs %d elements, got %d", DigestLen, len(elems))
	}
	copy(d[:], elems)
	return d, nil
}

// String renders the digest as comma-separated values
func (d Digest) String() string {
	parts := make([]string, DigestLen)
	for i, e := range d {
		parts[i] = fmt.Sprintf("%d", e.Value())
	}
	return strings.Join(parts, ",")
}
