// Package merkle holds snippets that verify Merkle tree membership
package merkle

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

const (
	// LeafIndexOutOfRangeErrorID is raised when leaf_index >= 2^height
	LeafIndexOutOfRangeErrorID = 300

	// RootMismatchErrorID is raised when the path does not lead to the root
	RootMismatchErrorID = 301

	// MaxHeight keeps 2^height a u32
	MaxHeight = 31
)

// AuthenticationPath is the metadata VerifyFromSecretIn preprocesses: the
// siblings from the leaf up to the root
type AuthenticationPath []core.Digest

// VerifyFromSecretIn: _ [root] height leaf_index [leaf] -> _
//
// Walks height merkle_steps with siblings divined from the secret digests
// and crashes unless the result is root.
type VerifyFromSecretIn struct{}

var (
	_ snippet.Algorithm    = VerifyFromSecretIn{}
	_ snippet.Preprocessor = VerifyFromSecretIn{}
)

func (VerifyFromSecretIn) Entrypoint() string { return "tasmlib_merkle_verify_from_secret_in" }

func (VerifyFromSecretIn) Inputs() []datatype.Param {
	return []datatype.Param{
		datatype.P(datatype.Digest, "root"),
		datatype.P(datatype.U32, "height"),
		datatype.P(datatype.U32, "leaf_index"),
		datatype.P(datatype.Digest, "leaf"),
	}
}

func (VerifyFromSecretIn) Outputs() []datatype.Param { return nil }

func (s VerifyFromSecretIn) Code(snippet.Library) []asm.LabelledInstruction {
	walk := s.Entrypoint() + "_walk"
	return []asm.LabelledInstruction{
		asm.Label(s.Entrypoint()),
		asm.Dup(6),
		asm.Push(2),
		asm.Pow(),
		// _ [root] h i [leaf] 2^h
		asm.Dup(0),
		asm.Dup(7),
		asm.Lt(),
		asm.Assert().WithErrorID(LeafIndexOutOfRangeErrorID),
		asm.Pick(6),
		asm.Add(),
		asm.Place(5),
		// _ [root] h node_index [leaf]
		asm.Call(walk),
		asm.Pick(5),
		asm.Pop(1),
		asm.Pick(5),
		asm.Pop(1),
		asm.AssertVector().WithErrorID(RootMismatchErrorID),
		asm.Pop(core.DigestLen),
		asm.Return(),

		// _ [root] h node_index [node]
		asm.Label(walk),
		asm.Dup(6),
		asm.Push(0),
		asm.Eq(),
		asm.Skiz(),
		asm.Return(),
		asm.MerkleStep(),
		asm.Pick(6),
		asm.AddI(-1),
		asm.Place(6),
		asm.Recurse(),
	}
}

// Preprocess appends the authentication path to the secret digests
func (VerifyFromSecretIn) Preprocess(meta any, nd *vm.NonDeterminism) error {
	path, ok := meta.(AuthenticationPath)
	if !ok {
		return fmt.Errorf("expected an authentication path, got %T", meta)
	}
	nd.Digests = append(nd.Digests, path...)
	return nil
}

func (VerifyFromSecretIn) Reference(stack *[]field.Element, _ snippet.Memory, nd *vm.NonDeterminism) error {
	leaf, err := snippet.PopDigest(stack)
	if err != nil {
		return err
	}
	leafIndex, err := snippet.PopU32(stack)
	if err != nil {
		return err
	}
	height, err := snippet.PopU32(stack)
	if err != nil {
		return err
	}
	root, err := snippet.PopDigest(stack)
	if err != nil {
		return err
	}

	if height > MaxHeight {
		return fmt.Errorf("height %d exceeds %d", height, MaxHeight)
	}
	if uint64(leafIndex) >= 1<<height {
		return snippet.Fail(LeafIndexOutOfRangeErrorID, "leaf index %d out of range for height %d", leafIndex, height)
	}
	if len(nd.Digests) < int(height) {
		return fmt.Errorf("need %d secret digests, have %d", height, len(nd.Digests))
	}
	computed := core.RootFromAuthenticationPath(uint64(leafIndex), leaf, nd.Digests[:height])
	if !computed.Equal(root) {
		return snippet.Fail(RootMismatchErrorID, "path leads to %s, not %s", computed, root)
	}
	return nil
}

// MembershipState builds a valid membership claim for leaf leafIndex of a
// random tree of the given height
func MembershipState(rng *prng.Rng, height, leafIndex int) snippet.AlgorithmInitialState {
	tree, err := core.NewMerkleTree(rng.Digests(1 << height))
	if err != nil {
		panic(err)
	}
	leaf, _ := tree.Leaf(leafIndex)
	path, _ := tree.AuthenticationPath(leafIndex)

	stack := snippet.EmptyStack()
	tree.Root().Push(&stack)
	snippet.Push(&stack, field.New(uint64(height)), field.New(uint64(leafIndex)))
	leaf.Push(&stack)
	return snippet.AlgorithmInitialState{
		Stack:          stack,
		NonDeterminism: vm.NewNonDeterminism(nil),
		Meta:           AuthenticationPath(path),
	}
}

func (VerifyFromSecretIn) PseudorandomInitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) snippet.AlgorithmInitialState {
	rng := prng.New(seed)
	height := rng.Intn(11)
	if benchCase != nil {
		switch *benchCase {
		case bencher.CommonCase:
			height = 10
		case bencher.WorstCase:
			height = 14
		}
	}
	return MembershipState(rng, height, rng.Intn(1<<height))
}

func (VerifyFromSecretIn) CornerCases() []snippet.AlgorithmInitialState {
	rng := prng.New(prng.Seed{})
	return []snippet.AlgorithmInitialState{
		MembershipState(rng, 0, 0),
		MembershipState(rng, 1, 0),
		MembershipState(rng, 1, 1),
		MembershipState(rng, 5, 31),
	}
}
