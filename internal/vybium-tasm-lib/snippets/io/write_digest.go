// Package io holds snippets that talk to standard input and output
package io

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// WriteDigestToStdOut: _ [digest] -> _, writing d0 first
type WriteDigestToStdOut struct{}

var _ snippet.Procedure = WriteDigestToStdOut{}

func (WriteDigestToStdOut) Entrypoint() string { return "tasmlib_io_write_digest_to_std_out" }

func (WriteDigestToStdOut) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.Digest, "digest")}
}

func (WriteDigestToStdOut) Outputs() []datatype.Param { return nil }

func (s WriteDigestToStdOut) Code(snippet.Library) []asm.LabelledInstruction {
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.WriteIo(core.DigestLen),
		asm.Return(),
	}
}

func (WriteDigestToStdOut) Reference(stack *[]field.Element, _ snippet.Memory, _ *vm.NonDeterminism,
	_ []field.Element, _ **core.Sponge) ([]field.Element, error) {
	d, err := snippet.PopDigest(stack)
	if err != nil {
		return nil, err
	}
	return d.Elements(), nil
}

func (WriteDigestToStdOut) PseudorandomInitialState(seed prng.Seed, _ *bencher.BenchmarkCase) snippet.ProcedureInitialState {
	stack := snippet.EmptyStack()
	prng.New(seed).Digest().Push(&stack)
	return snippet.ProcedureInitialState{Stack: stack}
}
