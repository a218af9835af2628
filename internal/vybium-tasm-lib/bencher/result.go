// Package bencher records the trace-table cost of snippets and persists it
// per entrypoint.
package bencher

import (
	"encoding/json"
	"fmt"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// BenchmarkCase selects which canonical input a benchmark runs on
type BenchmarkCase int

const (
	CommonCase BenchmarkCase = iota
	WorstCase
)

// Cases lists every benchmark case in reporting order
var Cases = []BenchmarkCase{CommonCase, WorstCase}

// String returns the name of the case
func (c BenchmarkCase) String() string {
	switch c {
	case CommonCase:
		return "CommonCase"
	case WorstCase:
		return "WorstCase"
	default:
		return fmt.Sprintf("BenchmarkCase(%d)", int(c))
	}
}

// MarshalJSON encodes the case by name
func (c BenchmarkCase) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a case name
func (c *BenchmarkCase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "CommonCase":
		*c = CommonCase
	case "WorstCase":
		*c = WorstCase
	default:
		return fmt.Errorf("unknown benchmark case %q", name)
	}
	return nil
}

// BenchmarkResult is the measured cost of one entrypoint on one case
type BenchmarkResult struct {
	Name                   string        `json:"name"`
	ClockCycleCount        uint64        `json:"clock_cycle_count"`
	HashTableHeight        uint64        `json:"hash_table_height"`
	U32TableHeight         uint64        `json:"u32_table_height"`
	OpStackTableHeight     uint64        `json:"op_stack_table_height"`
	RAMTableHeight         uint64        `json:"ram_table_height"`
	JumpStackTableHeight   uint64        `json:"jump_stack_table_height"`
	ProgramHashTableHeight uint64        `json:"program_hash_table_height"`
	Case                   BenchmarkCase `json:"case"`
	Fingerprint            string        `json:"fingerprint,omitempty"`
}

// NewBenchmarkResult builds a result from the heights of a finished run
func NewBenchmarkResult(name string, benchCase BenchmarkCase, heights vm.TableHeights, fingerprint string) BenchmarkResult {
	return BenchmarkResult{
		Name:                   name,
		ClockCycleCount:        heights.Processor,
		HashTableHeight:        heights.Hash,
		U32TableHeight:         heights.U32,
		OpStackTableHeight:     heights.OpStack,
		RAMTableHeight:         heights.RAM,
		JumpStackTableHeight:   heights.JumpStack,
		ProgramHashTableHeight: heights.ProgramHash,
		Case:                   benchCase,
		Fingerprint:            fingerprint,
	}
}

// metrics returns the named heights in a fixed order
func (r BenchmarkResult) metrics() []metric {
	return []metric{
		{"clock_cycle_count", r.ClockCycleCount},
		{"hash_table_height", r.HashTableHeight},
		{"u32_table_height", r.U32TableHeight},
		{"op_stack_table_height", r.OpStackTableHeight},
		{"ram_table_height", r.RAMTableHeight},
		{"jump_stack_table_height", r.JumpStackTableHeight},
		{"program_hash_table_height", r.ProgramHashTableHeight},
	}
}

type metric struct {
	name  string
	value uint64
}
