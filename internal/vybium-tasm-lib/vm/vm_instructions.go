package vm

import (
	"math"
	"math/bits"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
)

func argInt(inst *EncodedInstruction) int {
	return int(inst.Argument.Value())
}

func boolElement(b bool) field.Element {
	if b {
		return field.One
	}
	return field.Zero
}

// checkIndex validates a stack-index argument
func checkIndex(inst *EncodedInstruction) (int, error) {
	i := argInt(inst)
	if i < 0 || i >= NumOpStackRegisters {
		return 0, newFault(InvalidArgument, "invalid %s index: %d (must be 0-15)", inst.Instruction, i)
	}
	return i, nil
}

// checkCount validates an element-count argument
func checkCount(inst *EncodedInstruction) (int, error) {
	n := argInt(inst)
	if n < 1 || n > 5 {
		return 0, newFault(InvalidArgument, "invalid %s count: %d (must be 1-5)", inst.Instruction, n)
	}
	return n, nil
}

// popU32 pops the top of the stack, which must fit in 32 bits
func (vm *VMState) popU32() (uint32, error) {
	v, err := vm.StackPop()
	if err != nil {
		return 0, err
	}
	if v.Value() > math.MaxUint32 {
		return 0, newFault(FailedU32Conversion, "%d is not a u32", v.Value())
	}
	return uint32(v.Value()), nil
}

// recordU32 accounts the u32 co-processor rows of one operation
func (vm *VMState) recordU32(operands ...uint32) {
	var widest uint32
	for _, op := range operands {
		if op > widest {
			widest = op
		}
	}
	vm.heights.U32 += uint64(1 + bits.Len32(widest))
}

// ============================================================================
// Stack Manipulation Instructions
// ============================================================================

// execPop removes n elements from the stack
func (vm *VMState) execPop(inst *EncodedInstruction) error {
	n, err := checkCount(inst)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if _, err := vm.StackPop(); err != nil {
			return err
		}
	}
	return vm.IncrementIP(inst)
}

// execPush pushes a value onto the stack
func (vm *VMState) execPush(inst *EncodedInstruction) error {
	vm.StackPush(*inst.Argument)
	return vm.IncrementIP(inst)
}

// execDivine pushes n secret tokens; the first token read is pushed first
func (vm *VMState) execDivine(inst *EncodedInstruction) error {
	n, err := checkCount(inst)
	if err != nil {
		return err
	}
	if vm.SecretPointer+n > len(vm.SecretInput) {
		return newFault(EmptySecretInput, "need %d tokens, %d left", n, len(vm.SecretInput)-vm.SecretPointer)
	}
	for i := 0; i < n; i++ {
		vm.StackPush(vm.SecretInput[vm.SecretPointer])
		vm.SecretPointer++
	}
	return vm.IncrementIP(inst)
}

// execPick moves stack[i] to the top
func (vm *VMState) execPick(inst *EncodedInstruction) error {
	i, err := checkIndex(inst)
	if err != nil {
		return err
	}
	top := len(vm.Stack) - 1
	pos := top - i
	value := vm.Stack[pos]
	copy(vm.Stack[pos:], vm.Stack[pos+1:])
	vm.Stack[top] = value
	return vm.IncrementIP(inst)
}

// execPlace moves the top to stack[i]
func (vm *VMState) execPlace(inst *EncodedInstruction) error {
	i, err := checkIndex(inst)
	if err != nil {
		return err
	}
	top := len(vm.Stack) - 1
	pos := top - i
	value := vm.Stack[top]
	copy(vm.Stack[pos+1:], vm.Stack[pos:top])
	vm.Stack[pos] = value
	return vm.IncrementIP(inst)
}

// execDup duplicates stack[i] to the top
func (vm *VMState) execDup(inst *EncodedInstruction) error {
	i, err := checkIndex(inst)
	if err != nil {
		return err
	}
	vm.StackPush(vm.StackPeek(i))
	return vm.IncrementIP(inst)
}

// execSwap swaps the top with stack[i]
func (vm *VMState) execSwap(inst *EncodedInstruction) error {
	i, err := checkIndex(inst)
	if err != nil {
		return err
	}
	top := len(vm.Stack) - 1
	vm.Stack[top], vm.Stack[top-i] = vm.Stack[top-i], vm.Stack[top]
	return vm.IncrementIP(inst)
}

// ============================================================================
// Control Flow Instructions
// ============================================================================

func (vm *VMState) execHalt() error {
	vm.Halting = true
	return nil
}

// execSkiz skips the next instruction if the popped top is zero
func (vm *VMState) execSkiz(inst *EncodedInstruction) error {
	cond, err := vm.StackPop()
	if err != nil {
		return err
	}
	next := vm.InstructionPointer + inst.Instruction.Size()
	if cond.IsZero() {
		if following, ok := vm.Program.InstructionAt(next); ok {
			next += following.Instruction.Size()
		}
	}
	vm.InstructionPointer = next
	return nil
}

func (vm *VMState) execCall(inst *EncodedInstruction) error {
	destination := argInt(inst)
	vm.JumpStack = append(vm.JumpStack, JumpStackEntry{
		Origin:      vm.InstructionPointer + inst.Instruction.Size(),
		Destination: destination,
	})
	vm.heights.JumpStack++
	vm.InstructionPointer = destination
	return nil
}

func (vm *VMState) execReturn() error {
	if len(vm.JumpStack) == 0 {
		return newFault(JumpStackIsEmpty, "return without call")
	}
	entry := vm.JumpStack[len(vm.JumpStack)-1]
	vm.JumpStack = vm.JumpStack[:len(vm.JumpStack)-1]
	vm.heights.JumpStack++
	vm.InstructionPointer = entry.Origin
	return nil
}

func (vm *VMState) execRecurse() error {
	if len(vm.JumpStack) == 0 {
		return newFault(JumpStackIsEmpty, "recurse without call")
	}
	vm.InstructionPointer = vm.JumpStack[len(vm.JumpStack)-1].Destination
	return nil
}

func (vm *VMState) execRecurseOrReturn() error {
	if vm.StackPeek(5).Equal(vm.StackPeek(6)) {
		return vm.execReturn()
	}
	return vm.execRecurse()
}

// execAssert pops the top, which must be 1
func (vm *VMState) execAssert(inst *EncodedInstruction) error {
	if !vm.StackPeek(0).Equal(field.One) {
		return newFault(AssertionFailed, "expected 1, found %d", vm.StackPeek(0).Value())
	}
	if _, err := vm.StackPop(); err != nil {
		return err
	}
	return vm.IncrementIP(inst)
}

// ============================================================================
// Memory Instructions
// ============================================================================

// execReadMem: _ p -> _ m[p] m[p-1] ... m[p-n+1] (p-n)
func (vm *VMState) execReadMem(inst *EncodedInstruction) error {
	n, err := checkCount(inst)
	if err != nil {
		return err
	}
	pointer, err := vm.StackPop()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		vm.StackPush(vm.ReadRAM(pointer.Sub(field.New(uint64(i)))))
	}
	vm.StackPush(pointer.Sub(field.New(uint64(n))))
	return vm.IncrementIP(inst)
}

// execWriteMem: _ v_{n-1} ... v_1 v_0 p -> _ (p+n), with m[p+i] = v_i
func (vm *VMState) execWriteMem(inst *EncodedInstruction) error {
	n, err := checkCount(inst)
	if err != nil {
		return err
	}
	pointer, err := vm.StackPop()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		value, err := vm.StackPop()
		if err != nil {
			return err
		}
		vm.WriteRAM(pointer.Add(field.New(uint64(i))), value)
	}
	vm.StackPush(pointer.Add(field.New(uint64(n))))
	return vm.IncrementIP(inst)
}

// ============================================================================
// Hashing Instructions
// ============================================================================

func (vm *VMState) popTen() ([10]field.Element, error) {
	var input [10]field.Element
	for i := range input {
		v, err := vm.StackPop()
		if err != nil {
			return input, err
		}
		input[i] = v
	}
	return input, nil
}

func (vm *VMState) pushDigest(d core.Digest) {
	for i := core.DigestLen - 1; i >= 0; i-- {
		vm.StackPush(d[i])
	}
}

func (vm *VMState) popDigest() (core.Digest, error) {
	var d core.Digest
	for i := range d {
		v, err := vm.StackPop()
		if err != nil {
			return d, err
		}
		d[i] = v
	}
	return d, nil
}

// execHash: _ [st9..st5] [st4..st0] -> _ [digest]
func (vm *VMState) execHash(inst *EncodedInstruction) error {
	input, err := vm.popTen()
	if err != nil {
		return err
	}
	vm.pushDigest(core.Hash10(input))
	vm.heights.Hash += hashRows
	return vm.IncrementIP(inst)
}

func (vm *VMState) execAssertVector(inst *EncodedInstruction) error {
	for i := 0; i < core.DigestLen; i++ {
		if !vm.StackPeek(i).Equal(vm.StackPeek(i + core.DigestLen)) {
			return newFault(VectorAssertionFailed, "st%d = %d differs from st%d = %d",
				i, vm.StackPeek(i).Value(), i+core.DigestLen, vm.StackPeek(i+core.DigestLen).Value())
		}
	}
	for i := 0; i < core.DigestLen; i++ {
		if _, err := vm.StackPop(); err != nil {
			return err
		}
	}
	return vm.IncrementIP(inst)
}

func (vm *VMState) execSpongeInit(inst *EncodedInstruction) error {
	vm.Sponge = core.NewSponge()
	vm.heights.Hash += hashRows
	return vm.IncrementIP(inst)
}

func (vm *VMState) execSpongeAbsorb(inst *EncodedInstruction) error {
	if vm.Sponge == nil {
		return newFault(SpongeNotInitialized, "")
	}
	input, err := vm.popTen()
	if err != nil {
		return err
	}
	vm.Sponge.Absorb(input)
	vm.heights.Hash += hashRows
	return vm.IncrementIP(inst)
}

// execSpongeAbsorbMem: _ p -> _ (p+10), absorbing m[p..p+10]
func (vm *VMState) execSpongeAbsorbMem(inst *EncodedInstruction) error {
	if vm.Sponge == nil {
		return newFault(SpongeNotInitialized, "")
	}
	pointer, err := vm.StackPop()
	if err != nil {
		return err
	}
	var input [core.SpongeRate]field.Element
	for i := range input {
		input[i] = vm.ReadRAM(pointer.Add(field.New(uint64(i))))
	}
	vm.Sponge.Absorb(input)
	vm.heights.Hash += hashRows
	vm.StackPush(pointer.Add(field.New(core.SpongeRate)))
	return vm.IncrementIP(inst)
}

// execSpongeSqueeze pushes ten elements with the first squeezed on top
func (vm *VMState) execSpongeSqueeze(inst *EncodedInstruction) error {
	if vm.Sponge == nil {
		return newFault(SpongeNotInitialized, "")
	}
	out := vm.Sponge.Squeeze()
	for i := len(out) - 1; i >= 0; i-- {
		vm.StackPush(out[i])
	}
	vm.heights.Hash += hashRows
	return vm.IncrementIP(inst)
}

// ============================================================================
// Base Field Arithmetic
// ============================================================================

func (vm *VMState) popTwo() (field.Element, field.Element, error) {
	a, err := vm.StackPop()
	if err != nil {
		return field.Zero, field.Zero, err
	}
	b, err := vm.StackPop()
	if err != nil {
		return field.Zero, field.Zero, err
	}
	return a, b, nil
}

func (vm *VMState) execAdd(inst *EncodedInstruction) error {
	a, b, err := vm.popTwo()
	if err != nil {
		return err
	}
	vm.StackPush(a.Add(b))
	return vm.IncrementIP(inst)
}

func (vm *VMState) execAddI(inst *EncodedInstruction) error {
	top := len(vm.Stack) - 1
	vm.Stack[top] = vm.Stack[top].Add(*inst.Argument)
	return vm.IncrementIP(inst)
}

func (vm *VMState) execMul(inst *EncodedInstruction) error {
	a, b, err := vm.popTwo()
	if err != nil {
		return err
	}
	vm.StackPush(a.Mul(b))
	return vm.IncrementIP(inst)
}

func (vm *VMState) execInvert(inst *EncodedInstruction) error {
	top := len(vm.Stack) - 1
	if vm.Stack[top].IsZero() {
		return newFault(InverseOfZero, "")
	}
	vm.Stack[top] = vm.Stack[top].Inverse()
	return vm.IncrementIP(inst)
}

func (vm *VMState) execEq(inst *EncodedInstruction) error {
	a, b, err := vm.popTwo()
	if err != nil {
		return err
	}
	vm.StackPush(boolElement(a.Equal(b)))
	return vm.IncrementIP(inst)
}

// ============================================================================
// Bitwise Arithmetic (u32)
// ============================================================================

// execSplit: _ a -> _ hi lo
func (vm *VMState) execSplit(inst *EncodedInstruction) error {
	a, err := vm.StackPop()
	if err != nil {
		return err
	}
	hi := uint32(a.Value() >> 32)
	lo := uint32(a.Value())
	vm.StackPush(field.New(uint64(hi)))
	vm.StackPush(field.New(uint64(lo)))
	vm.recordU32(hi, lo)
	return vm.IncrementIP(inst)
}

func (vm *VMState) popTwoU32() (uint32, uint32, error) {
	a, err := vm.popU32()
	if err != nil {
		return 0, 0, err
	}
	b, err := vm.popU32()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// execLt: _ b a -> _ (a < b)
func (vm *VMState) execLt(inst *EncodedInstruction) error {
	a, b, err := vm.popTwoU32()
	if err != nil {
		return err
	}
	vm.StackPush(boolElement(a < b))
	vm.recordU32(a, b)
	return vm.IncrementIP(inst)
}

func (vm *VMState) execAnd(inst *EncodedInstruction) error {
	a, b, err := vm.popTwoU32()
	if err != nil {
		return err
	}
	vm.StackPush(field.New(uint64(a & b)))
	vm.recordU32(a, b)
	return vm.IncrementIP(inst)
}

func (vm *VMState) execXor(inst *EncodedInstruction) error {
	a, b, err := vm.popTwoU32()
	if err != nil {
		return err
	}
	vm.StackPush(field.New(uint64(a ^ b)))
	vm.recordU32(a, b)
	return vm.IncrementIP(inst)
}

func (vm *VMState) execLog2Floor(inst *EncodedInstruction) error {
	a, err := vm.popU32()
	if err != nil {
		return err
	}
	if a == 0 {
		return newFault(LogarithmOfZero, "")
	}
	vm.StackPush(field.New(uint64(bits.Len32(a) - 1)))
	vm.recordU32(a)
	return vm.IncrementIP(inst)
}

// execPow: _ exp base -> _ base^exp, where exp is a u32
func (vm *VMState) execPow(inst *EncodedInstruction) error {
	base, err := vm.StackPop()
	if err != nil {
		return err
	}
	exp, err := vm.popU32()
	if err != nil {
		return err
	}
	result := field.One
	square := base
	for e := exp; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = result.Mul(square)
		}
		square = square.Mul(square)
	}
	vm.StackPush(result)
	vm.recordU32(exp)
	return vm.IncrementIP(inst)
}

// execDivMod: _ d n -> _ (n/d) (n%d)
func (vm *VMState) execDivMod(inst *EncodedInstruction) error {
	numerator, denominator, err := vm.popTwoU32()
	if err != nil {
		return err
	}
	if denominator == 0 {
		return newFault(DivisionByZero, "")
	}
	vm.StackPush(field.New(uint64(numerator / denominator)))
	vm.StackPush(field.New(uint64(numerator % denominator)))
	vm.recordU32(numerator, denominator)
	return vm.IncrementIP(inst)
}

func (vm *VMState) execPopCount(inst *EncodedInstruction) error {
	a, err := vm.popU32()
	if err != nil {
		return err
	}
	vm.StackPush(field.New(uint64(bits.OnesCount32(a))))
	vm.recordU32(a)
	return vm.IncrementIP(inst)
}

// ============================================================================
// I/O
// ============================================================================

// execReadIo pushes n input elements; the first read is pushed first
func (vm *VMState) execReadIo(inst *EncodedInstruction) error {
	n, err := checkCount(inst)
	if err != nil {
		return err
	}
	if vm.InputPointer+n > len(vm.PublicInput) {
		return newFault(EmptyStandardInput, "need %d elements, %d left", n, len(vm.PublicInput)-vm.InputPointer)
	}
	for i := 0; i < n; i++ {
		vm.StackPush(vm.PublicInput[vm.InputPointer])
		vm.InputPointer++
	}
	return vm.IncrementIP(inst)
}

// execWriteIo pops n elements to the output, st0 first
func (vm *VMState) execWriteIo(inst *EncodedInstruction) error {
	n, err := checkCount(inst)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		v, err := vm.StackPop()
		if err != nil {
			return err
		}
		vm.PublicOutput = append(vm.PublicOutput, v)
	}
	return vm.IncrementIP(inst)
}

// ============================================================================
// Merkle Instructions
// ============================================================================

func (vm *VMState) merkleIndex() (uint32, error) {
	idx := vm.StackPeek(core.DigestLen)
	if idx.Value() > math.MaxUint32 {
		return 0, newFault(FailedU32Conversion, "node index %d is not a u32", idx.Value())
	}
	return uint32(idx.Value()), nil
}

func merkleParent(index uint32, node, sibling core.Digest) core.Digest {
	if index%2 == 0 {
		return core.HashPair(node, sibling)
	}
	return core.HashPair(sibling, node)
}

// execMerkleStep: _ i [d] -> _ (i/2) [parent], sibling from secret digests
func (vm *VMState) execMerkleStep(inst *EncodedInstruction) error {
	index, err := vm.merkleIndex()
	if err != nil {
		return err
	}
	if vm.DigestPointer >= len(vm.SecretDigests) {
		return newFault(EmptyDigestInput, "")
	}
	sibling := vm.SecretDigests[vm.DigestPointer]
	vm.DigestPointer++

	node, err := vm.popDigest()
	if err != nil {
		return err
	}
	if _, err := vm.StackPop(); err != nil {
		return err
	}
	vm.StackPush(field.New(uint64(index / 2)))
	vm.pushDigest(merkleParent(index, node, sibling))
	vm.heights.Hash += hashRows
	vm.recordU32(index)
	return vm.IncrementIP(inst)
}

// execMerkleStepMem: _ p f i [d] -> _ (p+5) f (i/2) [parent], sibling at m[p..p+5]
func (vm *VMState) execMerkleStepMem(inst *EncodedInstruction) error {
	index, err := vm.merkleIndex()
	if err != nil {
		return err
	}
	node, err := vm.popDigest()
	if err != nil {
		return err
	}
	if _, err := vm.StackPop(); err != nil {
		return err
	}
	f, err := vm.StackPop()
	if err != nil {
		return err
	}
	pointer, err := vm.StackPop()
	if err != nil {
		return err
	}
	var sibling core.Digest
	for i := range sibling {
		sibling[i] = vm.ReadRAM(pointer.Add(field.New(uint64(i))))
	}

	vm.StackPush(pointer.Add(field.New(core.DigestLen)))
	vm.StackPush(f)
	vm.StackPush(field.New(uint64(index / 2)))
	vm.pushDigest(merkleParent(index, node, sibling))
	vm.heights.Hash += hashRows
	vm.recordU32(index)
	return vm.IncrementIP(inst)
}
