package hashing

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/memory"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/list"
)

// MerkleRoot: _ *leafs -> _ [root]
//
// The leaf list length must be a power of two. Every node of the tree is
// written to a fresh region of 2n digests, node i at *nodes + 5i, so callers
// holding the region pointer can read authentication paths from it.
type MerkleRoot struct{}

var _ snippet.Function = MerkleRoot{}

func (MerkleRoot) Entrypoint() string { return "tasmlib_hashing_merkle_root" }

func (MerkleRoot) Inputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.List(datatype.Digest), "*leafs")}
}

func (MerkleRoot) Outputs() []datatype.Param {
	return []datatype.Param{datatype.P(datatype.Digest, "root")}
}

func (s MerkleRoot) Code(lib snippet.Library) []asm.LabelledInstruction {
	malloc := lib.Import(memory.DynMalloc{})
	copyLeafs := s.Entrypoint() + "_copy_leafs"
	buildNodes := s.Entrypoint() + "_build_nodes"

	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		// _ *leafs
		asm.Dup(0),
		asm.ReadMem(1),
		asm.Pop(1),
		asm.Dup(0),
		asm.Push(2 * core.DigestLen),
		asm.Mul(),
		asm.Call(malloc),
		// _ *leafs n *nodes
		asm.Dup(1),
		asm.Call(copyLeafs),
		asm.Pop(1),
		asm.Dup(1),
		asm.AddI(-1),
		asm.Call(buildNodes),
		asm.Pop(1),
		// _ *leafs n *nodes
		asm.AddI(2*core.DigestLen - 1),
		asm.ReadMem(core.DigestLen),
		asm.Pop(1),
		asm.Pick(5),
		asm.Pop(1),
		asm.Pick(5),
		asm.Pop(1),
		asm.Return(),

		// _ *leafs n *nodes k: copies leaf k-1 to node n+k-1, down to leaf 0
		asm.Label(copyLeafs),
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Skiz(),
		asm.Return(),
		asm.AddI(-1),
		asm.Dup(0),
		asm.Push(core.DigestLen),
		asm.Mul(),
		asm.Dup(4),
		asm.Add(),
		asm.AddI(core.DigestLen),
		asm.ReadMem(core.DigestLen),
		asm.Pop(1),
		// _ *leafs n *nodes j [leaf]
		asm.Dup(5),
		asm.Dup(8),
		asm.Add(),
		asm.Push(core.DigestLen),
		asm.Mul(),
		asm.Dup(7),
		asm.Add(),
		asm.WriteMem(core.DigestLen),
		asm.Pop(1),
		asm.Recurse(),

		// _ *leafs n *nodes i: node i = hash(node 2i, node 2i+1), down to 1
		asm.Label(buildNodes),
		asm.Dup(0),
		asm.Push(0),
		asm.Eq(),
		asm.Skiz(),
		asm.Return(),
		asm.Dup(0),
		asm.Push(2 * core.DigestLen),
		asm.Mul(),
		asm.Dup(2),
		asm.Add(),
		// _ *leafs n *nodes i *left
		asm.Dup(0),
		asm.AddI(2*core.DigestLen - 1),
		asm.ReadMem(core.DigestLen),
		asm.Pop(1),
		asm.Dup(5),
		asm.AddI(core.DigestLen - 1),
		asm.ReadMem(core.DigestLen),
		asm.Pop(1),
		asm.Hash(),
		// _ *leafs n *nodes i *left [parent]
		asm.Dup(6),
		asm.Push(core.DigestLen),
		asm.Mul(),
		asm.Dup(8),
		asm.Add(),
		asm.WriteMem(core.DigestLen),
		asm.Pop(2),
		asm.AddI(-1),
		asm.Recurse(),
	}
}

func (MerkleRoot) Reference(stack *[]field.Element, mem snippet.Memory) error {
	p, err := snippet.Pop(stack)
	if err != nil {
		return err
	}
	leafs := list.LoadDigests(mem, p)
	tree, err := core.NewMerkleTree(leafs)
	if err != nil {
		return fmt.Errorf("failed to build tree: %w", err)
	}

	n := len(leafs)
	nodes := memory.Allocate(mem, uint32(2*n*core.DigestLen))
	for i := 1; i < 2*n; i++ {
		node, _ := tree.Node(i)
		snippet.StoreDigest(mem, nodes.Add(field.New(uint64(i*core.DigestLen))), node)
	}
	tree.Root().Push(stack)
	return nil
}

func merkleRootState(rng *prng.Rng, height int) snippet.FunctionInitialState {
	mem := make(snippet.Memory)
	p := list.RandomPointer(rng)
	list.StoreDigests(mem, p, rng.Digests(1<<height))
	return snippet.FunctionInitialState{Stack: snippet.EmptyStack(p), Memory: mem}
}

func (MerkleRoot) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.FunctionInitialState {
	rng := prng.New(seed)
	height := rng.Intn(7)
	if benchCase != nil {
		switch *benchCase {
		case bencher.CommonCase:
			height = 6
		case bencher.WorstCase:
			height = 9
		}
	}
	return merkleRootState(rng, height)
}

func (MerkleRoot) CornerCases() []snippet.FunctionInitialState {
	rng := prng.New(prng.Seed{})
	return []snippet.FunctionInitialState{merkleRootState(rng, 0), merkleRootState(rng, 1)}
}
