package vm

// hashRows is the number of hash-table rows one permutation occupies
const hashRows = 6

// TableHeights summarizes the cost of an execution as the heights of the
// trace tables a prover would have to fill.
type TableHeights struct {
	Processor   uint64 // clock cycles
	OpStack     uint64 // op stack underflow movements
	RAM         uint64 // memory reads and writes
	JumpStack   uint64 // calls and returns
	Hash        uint64 // permutations, program attestation included
	U32         uint64 // u32 co-processor rows
	ProgramHash uint64 // program attestation rows
}

// programHashRows counts the rows needed to absorb the padded program
func programHashRows(program *Program) uint64 {
	chunks := uint64(program.Length)/10 + 1
	return chunks * hashRows
}

// Max returns the height of the tallest table
func (h TableHeights) Max() uint64 {
	tallest := h.Processor
	for _, v := range []uint64{h.OpStack, h.RAM, h.JumpStack, h.Hash, h.U32} {
		if v > tallest {
			tallest = v
		}
	}
	return tallest
}
