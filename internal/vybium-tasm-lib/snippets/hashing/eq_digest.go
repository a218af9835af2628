// Package hashing holds snippets over digests, Merkle trees and the
// sponge.
package hashing

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// EqDigest: _ [a] [b] -> _ (a == b)
type EqDigest struct{}

var _ snippet.Closure = EqDigest{}

func (EqDigest) Entrypoint() string { return "tasmlib_hashing_eq_digest" }

func (EqDigest) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.Digest, "a"), datatype.P(datatype.Digest, "b")}
}

func (EqDigest) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.Bool, "a == b")}
}

func (s EqDigest) Code(snippet.Library) []asm.LabelledInstruction {
	code := []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.Pick(5),
		asm.Eq(),
	}
	// _ [a'] [b'] flag, where the compared words left both digests
	for k := 1; k < core.DigestLen; k++ {
		code = append(code, asm.Pick(1), asm.Pick(6-k), asm.Eq(), asm.Mul())
	}
	return append(code, asm.Return())
}

func (EqDigest) Reference(stack *[]field.Element) error {
	b, err := snippet.PopDigest(stack)
	if err != nil {
		return err
	}
	a, err := snippet.PopDigest(stack)
	if err != nil {
		return err
	}
	snippet.PushBool(stack, a.Equal(b))
	return nil
}

func (EqDigest) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ClosureInitialState {
	rng := prng.New(seed)
	a := rng.Digest()
	b := a
	if rng.Bool() {
		b[rng.Intn(core.DigestLen)] = rng.Element()
	}
	stack := snippet.EmptyStack()
	a.Push(&stack)
	b.Push(&stack)
	return snippet.ClosureInitialState{Stack: stack}
}

func (EqDigest) CornerCases() []snippet.ClosureInitialState {
	rng := prng.New(prng.Seed{})
	base := rng.Digest()
	var states []snippet.ClosureInitialState
	for i := -1; i < core.DigestLen; i++ {
		other := base
		if i >= 0 {
			other[i] = other[i].Add(field.One)
		}
		stack := snippet.EmptyStack()
		base.Push(&stack)
		other.Push(&stack)
		states = append(states, snippet.ClosureInitialState{Stack: stack})
	}
	return states
}
