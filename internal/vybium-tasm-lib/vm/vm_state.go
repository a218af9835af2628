package vm

import (
	"errors"
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
)

const (
	// NumOpStackRegisters is the number of on-chip op stack registers. The
	// stack never holds fewer elements than this.
	NumOpStackRegisters = 16

	// DefaultMaxCycles bounds execution when no limit is configured
	DefaultMaxCycles = 1 << 20
)

// VMState represents the complete state of the VM
type VMState struct {
	// Program memory (read-only)
	Program *Program

	// Public I/O
	PublicInput  []field.Element // Input stream
	PublicOutput []field.Element // Output stream
	InputPointer int             // Current position in public input

	// Secret inputs
	SecretInput   []field.Element // Individual tokens for divine
	SecretDigests []core.Digest   // Siblings for merkle_step
	SecretPointer int             // Current position in secret input
	DigestPointer int             // Current position in secret digests

	// Random Access Memory
	RAM map[field.Element]field.Element

	// Operational stack; the last element is st0
	Stack []field.Element

	// Jump Stack (for call/return)
	JumpStack []JumpStackEntry

	// Execution state
	CycleCount         uint64
	InstructionPointer int
	MaxCycles          uint64

	// Sponge register, nil until sponge_init
	Sponge *core.Sponge

	// Halting state
	Halting bool

	heights       TableHeights
	programDigest core.Digest
}

// JumpStackEntry represents an entry on the jump stack
type JumpStackEntry struct {
	Origin      int // Return address
	Destination int // Address jumped to
}

// InitialState is everything a program sees before its first instruction
type InitialState struct {
	// Stack must hold at least NumOpStackRegisters elements. A nil stack is
	// replaced by DefaultStack of the program digest.
	Stack          []field.Element
	PublicInput    []field.Element
	NonDeterminism *NonDeterminism
	Sponge         *core.Sponge
}

// RunOptions configures a single execution
type RunOptions struct {
	MaxCycles uint64
}

// ProgramDigest computes the digest a program is attested by
func ProgramDigest(program *Program) core.Digest {
	return core.HashVarlen(program.ToWords())
}

// DefaultStack returns the register-width stack holding the program digest
// at the bottom: st15 = d4, ..., st11 = d0.
func DefaultStack(programDigest core.Digest) []field.Element {
	stack := make([]field.Element, 0, NumOpStackRegisters)
	programDigest.Push(&stack)
	for len(stack) < NumOpStackRegisters {
		stack = append(stack, field.Zero)
	}
	return stack
}

// NewVMState creates a VM state ready to execute program
func NewVMState(program *Program, init InitialState) (*VMState, error) {
	if program == nil || len(program.Instructions) == 0 {
		return nil, fmt.Errorf("empty program")
	}

	digest := ProgramDigest(program)

	var stack []field.Element
	if init.Stack == nil {
		stack = DefaultStack(digest)
	} else {
		if len(init.Stack) < NumOpStackRegisters {
			return nil, fmt.Errorf("initial stack holds %d elements, need at least %d",
				len(init.Stack), NumOpStackRegisters)
		}
		stack = append([]field.Element(nil), init.Stack...)
	}

	nd := init.NonDeterminism.Clone()

	vm := &VMState{
		Program:       program,
		PublicInput:   append([]field.Element(nil), init.PublicInput...),
		PublicOutput:  make([]field.Element, 0),
		SecretInput:   nd.IndividualTokens,
		SecretDigests: nd.Digests,
		RAM:           nd.RAM,
		Stack:         stack,
		JumpStack:     make([]JumpStackEntry, 0),
		MaxCycles:     DefaultMaxCycles,
		Sponge:        init.Sponge.Clone(),
		programDigest: digest,
	}
	vm.heights.ProgramHash = programHashRows(program)
	vm.heights.Hash = vm.heights.ProgramHash
	return vm, nil
}

// Run executes program from the given initial state until it halts. The
// returned state is non-nil whenever the program could be loaded, also on
// execution faults.
func Run(program *Program, init InitialState, opts RunOptions) (*VMState, error) {
	vm, err := NewVMState(program, init)
	if err != nil {
		return nil, err
	}
	if opts.MaxCycles > 0 {
		vm.MaxCycles = opts.MaxCycles
	}
	return vm, vm.Run()
}

// Run executes the program until halt or error
func (vm *VMState) Run() error {
	for !vm.Halting {
		if err := vm.Step(); err != nil {
			return err
		}

		if vm.CycleCount > vm.MaxCycles {
			return &InstructionError{
				Kind:   CycleLimitExceeded,
				IP:     vm.InstructionPointer,
				Cycle:  vm.CycleCount,
				Detail: fmt.Sprintf("execution exceeded maximum cycles (%d)", vm.MaxCycles),
			}
		}
	}
	return nil
}

// Step executes one instruction
func (vm *VMState) Step() error {
	if vm.Halting {
		return &InstructionError{Kind: MachineHalted, IP: vm.InstructionPointer, Cycle: vm.CycleCount}
	}

	inst, ok := vm.Program.InstructionAt(vm.InstructionPointer)
	if !ok {
		return &InstructionError{
			Kind:   InstructionPointerOverflow,
			IP:     vm.InstructionPointer,
			Cycle:  vm.CycleCount,
			Detail: fmt.Sprintf("no instruction at address %d", vm.InstructionPointer),
		}
	}

	if err := vm.ExecuteInstruction(inst); err != nil {
		ie := &InstructionError{
			Instruction: inst.Instruction,
			IP:          vm.InstructionPointer,
			Cycle:       vm.CycleCount,
		}
		var f *fault
		if errors.As(err, &f) {
			ie.Kind = f.kind
			ie.Detail = f.detail
		} else {
			ie.Kind = InvalidArgument
			ie.Detail = err.Error()
		}
		if ie.Kind == AssertionFailed || ie.Kind == VectorAssertionFailed {
			ie.ErrorID = inst.ErrorID
		}
		return ie
	}

	vm.CycleCount++
	vm.heights.Processor = vm.CycleCount
	return nil
}

// ExecuteInstruction dispatches to the appropriate instruction handler
func (vm *VMState) ExecuteInstruction(inst *EncodedInstruction) error {
	switch inst.Instruction {
	// Stack Manipulation
	case Pop:
		return vm.execPop(inst)
	case Push:
		return vm.execPush(inst)
	case Divine:
		return vm.execDivine(inst)
	case Pick:
		return vm.execPick(inst)
	case Place:
		return vm.execPlace(inst)
	case Dup:
		return vm.execDup(inst)
	case Swap:
		return vm.execSwap(inst)

	// Control Flow
	case Halt:
		return vm.execHalt()
	case Nop:
		return vm.IncrementIP(inst)
	case Skiz:
		return vm.execSkiz(inst)
	case Call:
		return vm.execCall(inst)
	case Return:
		return vm.execReturn()
	case Recurse:
		return vm.execRecurse()
	case RecurseOrReturn:
		return vm.execRecurseOrReturn()
	case Assert:
		return vm.execAssert(inst)

	// Memory Access
	case ReadMem:
		return vm.execReadMem(inst)
	case WriteMem:
		return vm.execWriteMem(inst)

	// Hashing
	case Hash:
		return vm.execHash(inst)
	case AssertVector:
		return vm.execAssertVector(inst)
	case SpongeInit:
		return vm.execSpongeInit(inst)
	case SpongeAbsorb:
		return vm.execSpongeAbsorb(inst)
	case SpongeAbsorbMem:
		return vm.execSpongeAbsorbMem(inst)
	case SpongeSqueeze:
		return vm.execSpongeSqueeze(inst)

	// Base Field Arithmetic
	case Add:
		return vm.execAdd(inst)
	case AddI:
		return vm.execAddI(inst)
	case Mul:
		return vm.execMul(inst)
	case Invert:
		return vm.execInvert(inst)
	case Eq:
		return vm.execEq(inst)

	// Bitwise Arithmetic
	case Split:
		return vm.execSplit(inst)
	case Lt:
		return vm.execLt(inst)
	case And:
		return vm.execAnd(inst)
	case Xor:
		return vm.execXor(inst)
	case Log2Floor:
		return vm.execLog2Floor(inst)
	case Pow:
		return vm.execPow(inst)
	case DivMod:
		return vm.execDivMod(inst)
	case PopCount:
		return vm.execPopCount(inst)

	// I/O
	case ReadIo:
		return vm.execReadIo(inst)
	case WriteIo:
		return vm.execWriteIo(inst)

	// Merkle
	case MerkleStep:
		return vm.execMerkleStep(inst)
	case MerkleStepMem:
		return vm.execMerkleStepMem(inst)

	default:
		return newFault(InvalidArgument, "unknown instruction %d", inst.Instruction)
	}
}

// ============================================================================
// Stack, RAM and IP helpers
// ============================================================================

// StackPush pushes a value onto the stack
func (vm *VMState) StackPush(value field.Element) {
	vm.Stack = append(vm.Stack, value)
	vm.heights.OpStack++
}

// StackPop pops the top of the stack
func (vm *VMState) StackPop() (field.Element, error) {
	if len(vm.Stack) <= NumOpStackRegisters {
		return field.Zero, newFault(OpStackTooShallow, "cannot pop below %d elements", NumOpStackRegisters)
	}
	top := vm.Stack[len(vm.Stack)-1]
	vm.Stack = vm.Stack[:len(vm.Stack)-1]
	vm.heights.OpStack++
	return top, nil
}

// StackPeek returns st_i without removing it
func (vm *VMState) StackPeek(i int) field.Element {
	return vm.Stack[len(vm.Stack)-1-i]
}

// StackDepth returns the number of elements on the stack
func (vm *VMState) StackDepth() int {
	return len(vm.Stack)
}

// ReadRAM reads one word; unset cells read as zero
func (vm *VMState) ReadRAM(address field.Element) field.Element {
	vm.heights.RAM++
	value, ok := vm.RAM[address]
	if !ok {
		return field.Zero
	}
	return value
}

// WriteRAM writes one word
func (vm *VMState) WriteRAM(address, value field.Element) {
	vm.heights.RAM++
	vm.RAM[address] = value
}

// IncrementIP advances past the given instruction
func (vm *VMState) IncrementIP(inst *EncodedInstruction) error {
	vm.InstructionPointer += inst.Instruction.Size()
	return nil
}

// ProgramDigest returns the digest of the running program
func (vm *VMState) ProgramDigest() core.Digest {
	return vm.programDigest
}

// Heights returns the trace-table heights accumulated so far
func (vm *VMState) Heights() TableHeights {
	return vm.heights
}
