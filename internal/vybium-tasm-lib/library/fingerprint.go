package library

import (
	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
)

// Fingerprint identifies the exact text of a code block
type Fingerprint [32]byte

// FingerprintOf hashes the rendered block
func FingerprintOf(block []asm.LabelledInstruction) Fingerprint {
	return blake3.Sum256([]byte(asm.Render(block)))
}

// String renders the fingerprint in base58
func (f Fingerprint) String() string {
	return base58.Encode(f[:])
}
