package vm

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
)

// NonDeterminism is the witness handed to a program: individual tokens
// consumed by divine, digests consumed by merkle_step, and RAM that is
// present before the first instruction runs.
type NonDeterminism struct {
	IndividualTokens []field.Element
	Digests          []core.Digest
	RAM              map[field.Element]field.Element
}

// NewNonDeterminism creates a witness from individual tokens
func NewNonDeterminism(tokens []field.Element) *NonDeterminism {
	return &NonDeterminism{
		IndividualTokens: append([]field.Element(nil), tokens...),
		Digests:          make([]core.Digest, 0),
		RAM:              make(map[field.Element]field.Element),
	}
}

// WithDigests sets the secret digests
func (nd *NonDeterminism) WithDigests(digests []core.Digest) *NonDeterminism {
	nd.Digests = append([]core.Digest(nil), digests...)
	return nd
}

// WithRAM sets the initial RAM
func (nd *NonDeterminism) WithRAM(ram map[field.Element]field.Element) *NonDeterminism {
	nd.RAM = make(map[field.Element]field.Element, len(ram))
	for k, v := range ram {
		nd.RAM[k] = v
	}
	return nd
}

// Clone returns a deep copy
func (nd *NonDeterminism) Clone() *NonDeterminism {
	if nd == nil {
		return NewNonDeterminism(nil)
	}
	return NewNonDeterminism(nd.IndividualTokens).WithDigests(nd.Digests).WithRAM(nd.RAM)
}
