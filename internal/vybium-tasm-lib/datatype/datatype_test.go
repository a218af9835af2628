package datatype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
)

func TestStackSizes(t *testing.T) {
	assert.Equal(t, 1, Bool.StackSize())
	assert.Equal(t, 2, U64.StackSize())
	assert.Equal(t, 3, XFE.StackSize())
	assert.Equal(t, 4, U128.StackSize())
	assert.Equal(t, 5, Digest.StackSize())
	assert.Equal(t, 1, List(Digest).StackSize())

	params := []Param{P(U64, "a"), P(Digest, "d"), P(Bool, "b")}
	assert.Equal(t, 8, StackSize(params))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "list<digest>", List(Digest).String())
	assert.Equal(t, "list_list_u64", List(List(U64)).Label())
	assert.True(t, List(U64).Equal(List(U64)))
	assert.False(t, List(U64).Equal(List(Digest)))
	assert.False(t, U64.Equal(U32))
}

func TestU64Encoding(t *testing.T) {
	v := uint64(0x1234_5678_9abc_def0)
	enc := U64Words(v)

	var stack []field.Element
	PushEncoding(&stack, enc)
	assert.Equal(t, uint64(0x9abcdef0), stack[len(stack)-1].Value(), "lo on top")

	popped, err := PopEncoding(&stack, U64)
	require.NoError(t, err)
	got, err := U64FromWords(popped)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = PopEncoding(&stack, U64)
	assert.Error(t, err)
}

func TestRandomFitsType(t *testing.T) {
	r := prng.New(prng.Seed{3})
	for i := 0; i < 100; i++ {
		for _, w := range U64.Random(r) {
			assert.LessOrEqual(t, w.Value(), uint64(0xffffffff))
		}
		b := Bool.Random(r)[0].Value()
		assert.True(t, b == 0 || b == 1)
		assert.Len(t, Digest.Random(r), 5)
	}
}
