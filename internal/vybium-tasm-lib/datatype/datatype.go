// Package datatype describes the values snippets take and return, and how
// they are laid out on the stack and in memory.
package datatype

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
)

// Kind enumerates the data types
type Kind int

const (
	KindBool Kind = iota + 1
	KindU32
	KindU64
	KindU128
	KindBFE
	KindXFE
	KindDigest
	KindVoidPointer
	KindList
)

// DataType is a value type. Lists carry their element type.
type DataType struct {
	Kind    Kind
	Element *DataType
}

var (
	Bool        = DataType{Kind: KindBool}
	U32         = DataType{Kind: KindU32}
	U64         = DataType{Kind: KindU64}
	U128        = DataType{Kind: KindU128}
	BFE         = DataType{Kind: KindBFE}
	XFE         = DataType{Kind: KindXFE}
	Digest      = DataType{Kind: KindDigest}
	VoidPointer = DataType{Kind: KindVoidPointer}
)

// List returns the type of a pointer to a list of elem
func List(elem DataType) DataType {
	e := elem
	return DataType{Kind: KindList, Element: &e}
}

// StackSize is the number of words the value occupies on the stack
func (d DataType) StackSize() int {
	switch d.Kind {
	case KindU64:
		return 2
	case KindXFE:
		return 3
	case KindU128:
		return 4
	case KindDigest:
		return core.DigestLen
	default:
		return 1
	}
}

// String renders the type
func (d DataType) String() string {
	switch d.Kind {
	case KindBool:
		return "bool"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindU128:
		return "u128"
	case KindBFE:
		return "bfe"
	case KindXFE:
		return "xfe"
	case KindDigest:
		return "digest"
	case KindVoidPointer:
		return "void_pointer"
	case KindList:
		if d.Element == nil {
			return "list"
		}
		return fmt.Sprintf("list<%s>", d.Element)
	default:
		return fmt.Sprintf("unknown(%d)", int(d.Kind))
	}
}

// Label renders the type for use inside an entrypoint name
func (d DataType) Label() string {
	if d.Kind == KindList && d.Element != nil {
		return "list_" + d.Element.Label()
	}
	return d.String()
}

// Equal reports whether two types are the same
func (d DataType) Equal(other DataType) bool {
	if d.Kind != other.Kind {
		return false
	}
	if d.Kind != KindList {
		return true
	}
	if d.Element == nil || other.Element == nil {
		return d.Element == nil && other.Element == nil
	}
	return d.Element.Equal(*other.Element)
}

// Random draws a value of the type, encoded in memory order: the first
// word is the one that sits on top of the stack.
func (d DataType) Random(r *prng.Rng) []field.Element {
	switch d.Kind {
	case KindBool:
		if r.Bool() {
			return []field.Element{field.One}
		}
		return []field.Element{field.Zero}
	case KindU32:
		return []field.Element{field.New(uint64(r.Uint32()))}
	case KindU64, KindU128:
		out := make([]field.Element, d.StackSize())
		for i := range out {
			out[i] = field.New(uint64(r.Uint32()))
		}
		return out
	case KindVoidPointer, KindList:
		return []field.Element{field.New(r.Range(1<<33, 1<<62))}
	default:
		return r.Elements(d.StackSize())
	}
}

// Param is a named input or output of a snippet
type Param struct {
	Type DataType
	Name string
}

// P is shorthand for building a Param
func P(t DataType, name string) Param {
	return Param{Type: t, Name: name}
}

// StackSize sums the stack sizes of params
func StackSize(params []Param) int {
	total := 0
	for _, p := range params {
		total += p.Type.StackSize()
	}
	return total
}

// PushEncoding pushes a memory-ordered encoding onto a stack
func PushEncoding(stack *[]field.Element, encoding []field.Element) {
	for i := len(encoding) - 1; i >= 0; i-- {
		*stack = append(*stack, encoding[i])
	}
}

// PopEncoding pops a value of the given type, returning it in memory order
func PopEncoding(stack *[]field.Element, t DataType) ([]field.Element, error) {
	n := t.StackSize()
	s := *stack
	if len(s) < n {
		return nil, fmt.Errorf("stack holds %d elements, need %d for %s", len(s), n, t)
	}
	out := make([]field.Element, n)
	for i := 0; i < n; i++ {
		out[i] = s[len(s)-1-i]
	}
	*stack = s[:len(s)-n]
	return out, nil
}

// U64Words splits a u64 into its (hi, lo) stack words, lo on top
func U64Words(v uint64) []field.Element {
	return []field.Element{field.New(v & 0xffffffff), field.New(v >> 32)}
}

// U64FromWords rebuilds a u64 from a memory-ordered encoding
func U64FromWords(enc []field.Element) (uint64, error) {
	if len(enc) != 2 {
		return 0, fmt.Errorf("u64 needs 2 words, got %d", len(enc))
	}
	lo, hi := enc[0].Value(), enc[1].Value()
	if lo > 0xffffffff || hi > 0xffffffff {
		return 0, fmt.Errorf("u64 limbs out of range: hi=%d lo=%d", hi, lo)
	}
	return hi<<32 | lo, nil
}
