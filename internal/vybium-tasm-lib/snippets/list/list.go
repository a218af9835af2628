// Package list holds snippets over lists in memory. A list at p stores its
// length at m[p] and element i at p + 1 + i*size, each element in memory
// order.
package list

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// Words is the memory footprint of a list of n elements of size words each
func Words(n, size int) int {
	return 1 + n*size
}

// ElementAddress is where element i of the list at p starts
func ElementAddress(p field.Element, i, size int) field.Element {
	return p.Add(field.New(uint64(1 + i*size)))
}

// Store writes items as a list at p
func Store(memory snippet.Memory, p field.Element, size int, items [][]field.Element) {
	memory[p] = field.New(uint64(len(items)))
	for i, item := range items {
		base := ElementAddress(p, i, size)
		for j, w := range item {
			memory[base.Add(field.New(uint64(j)))] = w
		}
	}
}

// Load reads the list at p
func Load(memory snippet.Memory, p field.Element, size int) [][]field.Element {
	n := int(snippet.Load(memory, p).Value())
	items := make([][]field.Element, n)
	for i := range items {
		base := ElementAddress(p, i, size)
		items[i] = make([]field.Element, size)
		for j := range items[i] {
			items[i][j] = snippet.Load(memory, base.Add(field.New(uint64(j))))
		}
	}
	return items
}

// StoreDigests writes a list of digests at p
func StoreDigests(memory snippet.Memory, p field.Element, digests []core.Digest) {
	items := make([][]field.Element, len(digests))
	for i, d := range digests {
		items[i] = d.Elements()
	}
	Store(memory, p, core.DigestLen, items)
}

// LoadDigests reads a list of digests at p
func LoadDigests(memory snippet.Memory, p field.Element) []core.Digest {
	items := Load(memory, p, core.DigestLen)
	digests := make([]core.Digest, len(items))
	for i, item := range items {
		copy(digests[i][:], item)
	}
	return digests
}

// RandomPointer draws an address far from both allocators
func RandomPointer(rng *prng.Rng) field.Element {
	return datatype.VoidPointer.Random(rng)[0]
}

// Random draws a list of n random elements of type t and stores it at a
// random address
func Random(rng *prng.Rng, memory snippet.Memory, t datatype.DataType, n int) field.Element {
	p := RandomPointer(rng)
	items := make([][]field.Element, n)
	for i := range items {
		items[i] = t.Random(rng)
	}
	Store(memory, p, t.StackSize(), items)
	return p
}
