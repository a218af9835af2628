package core

import (
	"fmt"
	"math/bits"
)

// MerkleTree is a complete binary tree over digests. Nodes are indexed from
// 1 (the root); the children of node i are 2i and 2i+1, so the leaves sit at
// indices [n, 2n).
type MerkleTree struct {
	nodes []Digest
}

// NewMerkleTree builds a tree over the given leaves. The number of leaves
// must be a nonzero power of two.
func NewMerkleTree(leaves []Digest) (*MerkleTree, error) {
	n := len(leaves)
	if n == 0 {
		return nil, fmt.Errorf("cannot create Merkle tree with no leaves")
	}
	if n&(n-1) != 0 {
		return nil, fmt.Errorf("number of leaves must be a power of two, got %d", n)
	}

	nodes := make([]Digest, 2*n)
	nodes[0] = ZeroDigest()
	copy(nodes[n:], leaves)
	for i := n - 1; i >= 1; i-- {
		nodes[i] = HashPair(nodes[2*i], nodes[2*i+1])
	}

	return &MerkleTree{nodes: nodes}, nil
}

// Root returns the Merkle root
func (mt *MerkleTree) Root() Digest {
	return mt.nodes[1]
}

// NumLeafs returns the number of leaves
func (mt *MerkleTree) NumLeafs() int {
	return len(mt.nodes) / 2
}

// Height returns the number of layers above the leaves
func (mt *MerkleTree) Height() int {
	return bits.TrailingZeros(uint(mt.NumLeafs()))
}

// Node returns the node at the given index
func (mt *MerkleTree) Node(index int) (Digest, error) {
	if index < 1 || index >= len(mt.nodes) {
		return Digest{}, fmt.Errorf("node index %d out of range [1, %d)", index, len(mt.nodes))
	}
	return mt.nodes[index], nil
}

// Leaf returns the leaf at the given leaf index
func (mt *MerkleTree) Leaf(index int) (Digest, error) {
	if index < 0 || index >= mt.NumLeafs() {
		return Digest{}, fmt.Errorf("leaf index %d out of range [0, %d)", index, mt.NumLeafs())
	}
	return mt.nodes[mt.NumLeafs()+index], nil
}

// AuthenticationPath returns the siblings from the leaf up to the root
func (mt *MerkleTree) AuthenticationPath(leafIndex int) ([]Digest, error) {
	if leafIndex < 0 || leafIndex >= mt.NumLeafs() {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", leafIndex, mt.NumLeafs())
	}

	path := make([]Digest, 0, mt.Height())
	for node := mt.NumLeafs() + leafIndex; node > 1; node /= 2 {
		path = append(path, mt.nodes[node^1])
	}
	return path, nil
}

// RootFromAuthenticationPath recomputes the root from a leaf and its path
func RootFromAuthenticationPath(leafIndex uint64, leaf Digest, path []Digest) Digest {
	node := (uint64(1) << uint(len(path))) + leafIndex
	current := leaf
	for _, sibling := range path {
		if node%2 == 0 {
			current = HashPair(current, sibling)
		} else {
			current = HashPair(sibling, current)
		}
		node /= 2
	}
	return current
}

// VerifyAuthenticationPath checks a leaf against a root
func VerifyAuthenticationPath(root Digest, leafIndex uint64, leaf Digest, path []Digest) bool {
	if leafIndex >= uint64(1)<<uint(len(path)) {
		return false
	}
	return RootFromAuthenticationPath(leafIndex, leaf, path).Equal(root)
}

// MerkleRoot computes the root over the given leaves (convenience function)
func MerkleRoot(leaves []Digest) (Digest, error) {
	tree, err := NewMerkleTree(leaves)
	if err != nil {
		return Digest{}, err
	}
	return tree.Root(), nil
}
