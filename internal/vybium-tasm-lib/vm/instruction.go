// Package vm provides the instruction set architecture and interpreter of
// the stack machine targeted by the snippet library.
package vm

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Instruction represents a VM instruction
type Instruction uint32

const (
	// ========== Stack Manipulation ==========

	// Pop removes n elements from the stack
	Pop Instruction = 3

	// Push pushes a value onto the stack
	Push Instruction = 1

	// Divine non-deterministically pushes n elements (prover-supplied)
	Divine Instruction = 9

	// Pick moves stack[i] to the top
	Pick Instruction = 17

	// Place moves the top element to stack[i]
	Place Instruction = 25

	// Dup duplicates the element at stack[i] to the top
	Dup Instruction = 33

	// Swap swaps the top element with stack[i]
	Swap Instruction = 41

	// ========== Control Flow ==========

	// Halt terminates program execution
	Halt Instruction = 0

	// Nop does nothing
	Nop Instruction = 8

	// Skiz skips the next instruction if the top of the stack is zero
	Skiz Instruction = 2

	// Call calls the function at the given address
	Call Instruction = 49

	// Return returns from a function call
	Return Instruction = 16

	// Recurse jumps back to the start of the current function
	Recurse Instruction = 24

	// RecurseOrReturn returns if stack[5] == stack[6], otherwise recurses
	RecurseOrReturn Instruction = 32

	// Assert asserts that the top of the stack is 1
	Assert Instruction = 10

	// ========== Memory Access ==========

	// ReadMem reads n words from RAM, walking down from the address on top
	ReadMem Instruction = 57

	// WriteMem writes n words to RAM, walking up from the address on top
	WriteMem Instruction = 11

	// ========== Hashing ==========

	// Hash hashes stack[0..10] into a digest
	Hash Instruction = 18

	// AssertVector asserts stack[0..5] equals stack[5..10]
	AssertVector Instruction = 26

	// SpongeInit initializes the sponge state
	SpongeInit Instruction = 40

	// SpongeAbsorb absorbs 10 elements from the stack into the sponge
	SpongeAbsorb Instruction = 34

	// SpongeAbsorbMem absorbs 10 elements from RAM into the sponge
	SpongeAbsorbMem Instruction = 48

	// SpongeSqueeze squeezes 10 elements from the sponge onto the stack
	SpongeSqueeze Instruction = 56

	// ========== Base Field Arithmetic ==========

	// Add adds the top two stack elements
	Add Instruction = 42

	// AddI adds an immediate value to the top of the stack
	AddI Instruction = 65

	// Mul multiplies the top two stack elements
	Mul Instruction = 50

	// Invert replaces the top of the stack with its multiplicative inverse
	Invert Instruction = 64

	// Eq checks equality of the top two stack elements
	Eq Instruction = 58

	// ========== Bitwise Arithmetic (u32) ==========

	// Split splits the top element into high and low 32-bit parts
	Split Instruction = 4

	// Lt pushes 1 if stack[0] < stack[1], 0 otherwise
	Lt Instruction = 6

	// And performs bitwise AND on the top two stack elements
	And Instruction = 14

	// Xor performs bitwise XOR on the top two stack elements
	Xor Instruction = 22

	// Log2Floor computes floor(log2(top))
	Log2Floor Instruction = 12

	// Pow raises stack[0] to the power of stack[1]
	Pow Instruction = 30

	// DivMod computes quotient and remainder of stack[0] by stack[1]
	DivMod Instruction = 20

	// PopCount counts the number of 1 bits in the top element
	PopCount Instruction = 28

	// ========== I/O Operations ==========

	// ReadIo reads n elements from standard input
	ReadIo Instruction = 73

	// WriteIo writes n elements to standard output
	WriteIo Instruction = 19

	// ========== Merkle Operations ==========

	// MerkleStep computes one Merkle tree step with a divined sibling
	MerkleStep Instruction = 36

	// MerkleStepMem computes one Merkle tree step with a sibling from RAM
	MerkleStepMem Instruction = 44
)

// InstructionCount is the number of instructions in the ISA
const InstructionCount = 40

// InstructionInfo provides metadata about an instruction
type InstructionInfo struct {
	Opcode      Instruction
	Name        string
	Description string
	Size        int  // Number of words (1 or 2)
	HasArg      bool // Whether instruction takes an argument
}

// AllInstructions maps every opcode to its metadata
var AllInstructions = map[Instruction]InstructionInfo{
	// Stack Manipulation
	Pop:    {Pop, "pop", "Remove n elements from stack", 2, true},
	Push:   {Push, "push", "Push value onto stack", 2, true},
	Divine: {Divine, "divine", "Non-deterministically push n elements", 2, true},
	Pick:   {Pick, "pick", "Move stack[i] to top", 2, true},
	Place:  {Place, "place", "Move top to stack[i]", 2, true},
	Dup:    {Dup, "dup", "Duplicate stack[i] to top", 2, true},
	Swap:   {Swap, "swap", "Swap top with stack[i]", 2, true},

	// Control Flow
	Halt:            {Halt, "halt", "Terminate execution", 1, false},
	Nop:             {Nop, "nop", "No operation", 1, false},
	Skiz:            {Skiz, "skiz", "Skip if zero", 1, false},
	Call:            {Call, "call", "Call function", 2, true},
	Return:          {Return, "return", "Return from function", 1, false},
	Recurse:         {Recurse, "recurse", "Jump to start of current function", 1, false},
	RecurseOrReturn: {RecurseOrReturn, "recurse_or_return", "Return if st5 == st6, else recurse", 1, false},
	Assert:          {Assert, "assert", "Assert top is 1", 1, false},

	// Memory Access
	ReadMem:  {ReadMem, "read_mem", "Read n words from RAM", 2, true},
	WriteMem: {WriteMem, "write_mem", "Write n words to RAM", 2, true},

	// Hashing
	Hash:            {Hash, "hash", "Hash of stack[0..10]", 1, false},
	AssertVector:    {AssertVector, "assert_vector", "Assert vector equality", 1, false},
	SpongeInit:      {SpongeInit, "sponge_init", "Initialize sponge", 1, false},
	SpongeAbsorb:    {SpongeAbsorb, "sponge_absorb", "Absorb into sponge", 1, false},
	SpongeAbsorbMem: {SpongeAbsorbMem, "sponge_absorb_mem", "Absorb from RAM", 1, false},
	SpongeSqueeze:   {SpongeSqueeze, "sponge_squeeze", "Squeeze from sponge", 1, false},

	// Base Field Arithmetic
	Add:    {Add, "add", "Add top two elements", 1, false},
	AddI:   {AddI, "addi", "Add immediate", 2, true},
	Mul:    {Mul, "mul", "Multiply top two elements", 1, false},
	Invert: {Invert, "invert", "Multiplicative inverse", 1, false},
	Eq:     {Eq, "eq", "Check equality", 1, false},

	// Bitwise Arithmetic
	Split:     {Split, "split", "Split into high/low 32-bit", 1, false},
	Lt:        {Lt, "lt", "Less than (unsigned)", 1, false},
	And:       {And, "and", "Bitwise AND", 1, false},
	Xor:       {Xor, "xor", "Bitwise XOR", 1, false},
	Log2Floor: {Log2Floor, "log_2_floor", "Floor of log2", 1, false},
	Pow:       {Pow, "pow", "Exponentiation", 1, false},
	DivMod:    {DivMod, "div_mod", "Division with remainder", 1, false},
	PopCount:  {PopCount, "pop_count", "Count 1 bits", 1, false},

	// I/O
	ReadIo:  {ReadIo, "read_io", "Read from standard input", 2, true},
	WriteIo: {WriteIo, "write_io", "Write to standard output", 2, true},

	// Merkle
	MerkleStep:    {MerkleStep, "merkle_step", "Merkle tree step with divined sibling", 1, false},
	MerkleStepMem: {MerkleStepMem, "merkle_step_mem", "Merkle tree step with sibling from RAM", 1, false},
}

// String returns the name of the instruction
func (i Instruction) String() string {
	if info, ok := AllInstructions[i]; ok {
		return info.Name
	}
	return fmt.Sprintf("unknown(%d)", i)
}

// Info returns metadata about the instruction
func (i Instruction) Info() (InstructionInfo, error) {
	info, ok := AllInstructions[i]
	if !ok {
		return InstructionInfo{}, fmt.Errorf("unknown instruction: %d", i)
	}
	return info, nil
}

// Size returns the number of words the instruction occupies
func (i Instruction) Size() int {
	info, err := i.Info()
	if err != nil {
		return 1
	}
	return info.Size
}

// HasArgument returns whether the instruction takes an argument
func (i Instruction) HasArgument() bool {
	info, err := i.Info()
	if err != nil {
		return false
	}
	return info.HasArg
}

// EncodedInstruction represents a fully-encoded instruction with its argument
type EncodedInstruction struct {
	Instruction Instruction
	Argument    *field.Element // nil if no argument

	// ErrorID is attached to assert and assert_vector. It is not part of
	// the program words.
	ErrorID *uint64
}

// NewEncodedInstruction creates a new encoded instruction
func NewEncodedInstruction(inst Instruction, arg *field.Element) (*EncodedInstruction, error) {
	info, err := inst.Info()
	if err != nil {
		return nil, err
	}

	if info.HasArg && arg == nil {
		return nil, fmt.Errorf("instruction %s requires an argument", inst.String())
	}

	if !info.HasArg && arg != nil {
		return nil, fmt.Errorf("instruction %s does not take an argument", inst.String())
	}

	return &EncodedInstruction{
		Instruction: inst,
		Argument:    arg,
	}, nil
}

// WithErrorID attaches an assertion error id
func (ei *EncodedInstruction) WithErrorID(id uint64) *EncodedInstruction {
	ei.ErrorID = &id
	return ei
}

// Words returns the instruction as field elements for program memory
func (ei *EncodedInstruction) Words() []field.Element {
	if ei.Instruction.Size() == 1 {
		return []field.Element{field.New(uint64(ei.Instruction))}
	}
	arg := field.Zero
	if ei.Argument != nil {
		arg = *ei.Argument
	}
	return []field.Element{field.New(uint64(ei.Instruction)), arg}
}

// String renders the instruction in assembly syntax
func (ei *EncodedInstruction) String() string {
	s := ei.Instruction.String()
	if ei.Argument != nil {
		s = fmt.Sprintf("%s %d", s, ei.Argument.Value())
	}
	if ei.ErrorID != nil {
		s = fmt.Sprintf("%s error_id %d", s, *ei.ErrorID)
	}
	return s
}

// Program represents an executable program
type Program struct {
	Instructions []*EncodedInstruction
	Length       int // Total words

	addresses map[int]int // word address -> instruction index
}

// NewProgram creates a new program
func NewProgram() *Program {
	return &Program{
		Instructions: make([]*EncodedInstruction, 0),
		Length:       0,
		addresses:    make(map[int]int),
	}
}

// AddInstruction adds an instruction to the program
func (p *Program) AddInstruction(inst *EncodedInstruction) {
	p.addresses[p.Length] = len(p.Instructions)
	p.Instructions = append(p.Instructions, inst)
	p.Length += inst.Instruction.Size()
}

// InstructionAt returns the instruction starting at the given word address
func (p *Program) InstructionAt(address int) (*EncodedInstruction, bool) {
	idx, ok := p.addresses[address]
	if !ok {
		return nil, false
	}
	return p.Instructions[idx], true
}

// ToWords converts the program to field elements
func (p *Program) ToWords() []field.Element {
	words := make([]field.Element, 0, p.Length)
	for _, inst := range p.Instructions {
		words = append(words, inst.Words()...)
	}
	return words
}

// ValidateProgram validates a program for correctness
func ValidateProgram(program *Program) error {
	if len(program.Instructions) == 0 {
		return fmt.Errorf("empty program")
	}

	for i, inst := range program.Instructions {
		if inst.Instruction != Call {
			continue
		}
		target := int(inst.Argument.Value())
		if _, ok := program.InstructionAt(target); !ok {
			return fmt.Errorf("instruction %d calls address %d, which is not an instruction boundary", i, target)
		}
	}

	return nil
}
