// Package asm provides a typed builder for labelled VM code and the
// assembler that resolves labels into an executable program.
package asm

import (
	"fmt"
	"strings"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// Kind distinguishes instructions from label definitions
type Kind int

const (
	KindInstruction Kind = iota
	KindLabel
)

// LabelledInstruction is one line of assembly: an instruction, possibly
// referring to a label, or the definition of a label.
type LabelledInstruction struct {
	Kind        Kind
	Instruction vm.Instruction
	Argument    field.Element
	// Label is the defined label for KindLabel and the call target for call
	Label   string
	ErrorID *uint64
}

// String renders the line in assembly syntax
func (li LabelledInstruction) String() string {
	if li.Kind == KindLabel {
		return li.Label + ":"
	}
	var b strings.Builder
	b.WriteString(li.Instruction.String())
	switch {
	case li.Instruction == vm.Call:
		b.WriteString(" ")
		b.WriteString(li.Label)
	case li.Instruction.HasArgument():
		fmt.Fprintf(&b, " %d", li.Argument.Value())
	}
	if li.ErrorID != nil {
		fmt.Fprintf(&b, " error_id %d", *li.ErrorID)
	}
	return b.String()
}

// WithErrorID attaches an error id to an assert or assert_vector
func (li LabelledInstruction) WithErrorID(id uint64) LabelledInstruction {
	li.ErrorID = &id
	return li
}

// IsCall reports whether the line is a call
func (li LabelledInstruction) IsCall() bool {
	return li.Kind == KindInstruction && li.Instruction == vm.Call
}

func plain(inst vm.Instruction) LabelledInstruction {
	return LabelledInstruction{Kind: KindInstruction, Instruction: inst}
}

func withArg(inst vm.Instruction, arg field.Element) LabelledInstruction {
	return LabelledInstruction{Kind: KindInstruction, Instruction: inst, Argument: arg}
}

func small(inst vm.Instruction, n int) LabelledInstruction {
	return withArg(inst, field.New(uint64(n)))
}

// Element converts a signed integer to a field element
func Element(v int64) field.Element {
	if v < 0 {
		return field.Zero.Sub(field.New(uint64(-v)))
	}
	return field.New(uint64(v))
}

// Label defines a label
func Label(name string) LabelledInstruction {
	return LabelledInstruction{Kind: KindLabel, Label: name}
}

// Call calls the code at a label
func Call(label string) LabelledInstruction {
	return LabelledInstruction{Kind: KindInstruction, Instruction: vm.Call, Label: label}
}

// Push pushes a constant
func Push(v int64) LabelledInstruction { return withArg(vm.Push, Element(v)) }

// PushElement pushes a field element
func PushElement(e field.Element) LabelledInstruction { return withArg(vm.Push, e) }

// AddI adds a constant to the top of the stack
func AddI(v int64) LabelledInstruction { return withArg(vm.AddI, Element(v)) }

func Pop(n int) LabelledInstruction      { return small(vm.Pop, n) }
func Divine(n int) LabelledInstruction   { return small(vm.Divine, n) }
func Pick(i int) LabelledInstruction     { return small(vm.Pick, i) }
func Place(i int) LabelledInstruction    { return small(vm.Place, i) }
func Dup(i int) LabelledInstruction      { return small(vm.Dup, i) }
func Swap(i int) LabelledInstruction     { return small(vm.Swap, i) }
func ReadMem(n int) LabelledInstruction  { return small(vm.ReadMem, n) }
func WriteMem(n int) LabelledInstruction { return small(vm.WriteMem, n) }
func ReadIo(n int) LabelledInstruction   { return small(vm.ReadIo, n) }
func WriteIo(n int) LabelledInstruction  { return small(vm.WriteIo, n) }

func Halt() LabelledInstruction            { return plain(vm.Halt) }
func Nop() LabelledInstruction             { return plain(vm.Nop) }
func Skiz() LabelledInstruction            { return plain(vm.Skiz) }
func Return() LabelledInstruction          { return plain(vm.Return) }
func Recurse() LabelledInstruction         { return plain(vm.Recurse) }
func RecurseOrReturn() LabelledInstruction { return plain(vm.RecurseOrReturn) }
func Assert() LabelledInstruction          { return plain(vm.Assert) }
func Hash() LabelledInstruction            { return plain(vm.Hash) }
func AssertVector() LabelledInstruction    { return plain(vm.AssertVector) }
func SpongeInit() LabelledInstruction      { return plain(vm.SpongeInit) }
func SpongeAbsorb() LabelledInstruction    { return plain(vm.SpongeAbsorb) }
func SpongeAbsorbMem() LabelledInstruction { return plain(vm.SpongeAbsorbMem) }
func SpongeSqueeze() LabelledInstruction   { return plain(vm.SpongeSqueeze) }
func Add() LabelledInstruction             { return plain(vm.Add) }
func Mul() LabelledInstruction             { return plain(vm.Mul) }
func Invert() LabelledInstruction          { return plain(vm.Invert) }
func Eq() LabelledInstruction              { return plain(vm.Eq) }
func Split() LabelledInstruction           { return plain(vm.Split) }
func Lt() LabelledInstruction              { return plain(vm.Lt) }
func And() LabelledInstruction             { return plain(vm.And) }
func Xor() LabelledInstruction             { return plain(vm.Xor) }
func Log2Floor() LabelledInstruction       { return plain(vm.Log2Floor) }
func Pow() LabelledInstruction             { return plain(vm.Pow) }
func DivMod() LabelledInstruction          { return plain(vm.DivMod) }
func PopCount() LabelledInstruction        { return plain(vm.PopCount) }
func MerkleStep() LabelledInstruction      { return plain(vm.MerkleStep) }
func MerkleStepMem() LabelledInstruction   { return plain(vm.MerkleStepMem) }

// Repeat returns n copies of a sequence
func Repeat(n int, seq ...LabelledInstruction) []LabelledInstruction {
	out := make([]LabelledInstruction, 0, n*len(seq))
	for i := 0; i < n; i++ {
		out = append(out, seq...)
	}
	return out
}

// Concat joins code sequences
func Concat(parts ...[]LabelledInstruction) []LabelledInstruction {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]LabelledInstruction, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Render prints a code block, one line per instruction
func Render(block []LabelledInstruction) string {
	lines := make([]string, len(block))
	for i, li := range block {
		lines[i] = li.String()
	}
	return strings.Join(lines, "\n")
}

// Labels returns the labels a block defines, in order
func Labels(block []LabelledInstruction) []string {
	var labels []string
	for _, li := range block {
		if li.Kind == KindLabel {
			labels = append(labels, li.Label)
		}
	}
	return labels
}

// CallTargets returns the labels a block calls, in order of first use
func CallTargets(block []LabelledInstruction) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, li := range block {
		if li.IsCall() && !seen[li.Label] {
			seen[li.Label] = true
			targets = append(targets, li.Label)
		}
	}
	return targets
}
