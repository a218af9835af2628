package hashing

import (
	"fmt"
	"math"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/memory"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/list"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// LoadAuthPathFromStdIn: _ -> _ *auth_path
//
// Reads a height h and then h digests from standard input into a new list.
// Each digest is read as d4 d3 d2 d1 d0, the order that leaves d0 on top.
type LoadAuthPathFromStdIn struct{}

var _ snippet.Procedure = LoadAuthPathFromStdIn{}

func (LoadAuthPathFromStdIn) Entrypoint() string { return "tasmlib_hashing_load_auth_path_from_std_in" }

func (LoadAuthPathFromStdIn) Inputs() []datatype.Param { return nil }

func (LoadAuthPathFromStdIn) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.List(datatype.Digest), "*auth_path")}
}

func (s LoadAuthPathFromStdIn) Code(lib snippet.Library) []asm.LabelledInstruction {
	malloc := lib.Import(memory.DynMalloc{})
	loop := s.Entrypoint() + "_loop"
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.ReadIo(1),
		asm.Dup(0),
		asm.Push(core.DigestLen),
		asm.Mul(),
		asm.AddI(1),
		asm.Call(malloc),
		// _ h *list
		asm.Dup(1),
		asm.Dup(1),
		asm.WriteMem(1),
		asm.Pick(2),
		// _ *list *first h
		asm.Call(loop),
		asm.Pop(2),
		asm.Return(),

		asm.Label(loop),
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Skiz(),
		asm.Return(),
		asm.ReadIo(core.DigestLen),
		asm.Dup(6),
		asm.WriteMem(core.DigestLen),
		// _ *next k *next'
		asm.Swap(2),
		asm.Pop(1),
		asm.AddI(-1),
		asm.Recurse(),
	}
}

func (LoadAuthPathFromStdIn) Reference(stack *[]field.Element, mem snippet.Memory, _ *vm.NonDeterminism,
	stdin []field.Element, _ **core.Sponge) ([]field.Element, error) {
	if len(stdin) == 0 {
		return nil, fmt.Errorf("standard input is empty")
	}
	h := stdin[0].Value()
	if h > math.MaxUint32 || uint64(len(stdin)-1) < h*core.DigestLen {
		return nil, fmt.Errorf("standard input holds no path of height %d", h)
	}

	path := make([]core.Digest, h)
	for i := range path {
		words := stdin[1+i*core.DigestLen : 1+(i+1)*core.DigestLen]
		for j := range path[i] {
			path[i][j] = words[core.DigestLen-1-j]
		}
	}
	p := memory.Allocate(mem, uint32(list.Words(int(h), core.DigestLen)))
	list.StoreDigests(mem, p, path)
	snippet.Push(stack, p)
	return nil, nil
}

// EncodeAuthPath is the standard input LoadAuthPathFromStdIn reads path from
func EncodeAuthPath(path []core.Digest) []field.Element {
	out := []field.Element{field.New(uint64(len(path)))}
	for _, d := range path {
		for j := core.DigestLen - 1; j >= 0; j-- {
			out = append(out, d[j])
		}
	}
	return out
}

func (LoadAuthPathFromStdIn) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.ProcedureInitialState {
	rng := prng.New(seed)
	height := rng.Intn(20)
	if benchCase != nil {
		switch *benchCase {
		case bencher.CommonCase:
			height = 20
		case bencher.WorstCase:
			height = 32
		}
	}
	return snippet.ProcedureInitialState{
		Stack:       snippet.EmptyStack(),
		PublicInput: EncodeAuthPath(rng.Digests(height)),
	}
}

func (LoadAuthPathFromStdIn) CornerCases() []snippet.ProcedureInitialState {
	return []snippet.ProcedureInitialState{{
		Stack:       snippet.EmptyStack(),
		PublicInput: EncodeAuthPath(nil),
	}}
}
