package hashing

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/core"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// randomSponge returns an initialised sponge in a random state
func randomSponge(rng *prng.Rng) *core.Sponge {
	s := core.NewSponge()
	var chunk [core.SpongeRate]field.Element
	copy(chunk[:], rng.Elements(core.SpongeRate))
	s.Absorb(chunk)
	return s
}

func loadChunk(memory snippet.Memory, p field.Element) [core.SpongeRate]field.Element {
	var chunk [core.SpongeRate]field.Element
	for i := range chunk {
		chunk[i] = snippet.Load(memory, p.Add(field.New(uint64(i))))
	}
	return chunk
}

var errSpongeNotInitialized = fmt.Errorf("sponge is not initialized")
