// Package u64 holds snippets over unsigned 64-bit integers.
//
// A u64 occupies two words on the stack, (hi, lo) with lo on top. Both
// halves are u32s.
package u64

import (
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

func u64Param(name string) datatype.Param { return datatype.P(datatype.U64, name) }

// stackWith returns an isolated-run stack holding values, the last on top
func stackWith(values ...uint64) []field.Element {
	stack := snippet.EmptyStack()
	for _, v := range values {
		snippet.PushU64(&stack, v)
	}
	return stack
}

// edgeValues are the u64s every binary snippet is checked on
var edgeValues = []uint64{0, 1, 1<<32 - 1, 1 << 32, 1<<63 - 1, 1 << 63, 1<<64 - 1}
