package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/harness"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

func TestWriteDigestToStdOut(t *testing.T) {
	harness.Test(t, WriteDigestToStdOut{})
}

func TestWriteDigestOrder(t *testing.T) {
	d := prng.New(prng.Seed{2}).Digest()
	stack := snippet.EmptyStack()
	d.Push(&stack)

	out, err := WriteDigestToStdOut{}.Reference(&stack, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i := range d {
		assert.True(t, out[i].Equal(d[i]))
	}
	assert.Len(t, stack, 16)
}
