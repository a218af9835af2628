package vybiumtasmlib

import (
	"fmt"
	"sort"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/datatype"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/library"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/linker"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/logger"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/memory"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/arithmetic/u32"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/arithmetic/u64"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/claim"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/hashing"
	tasmio "github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/io"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/list"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippets/merkle"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// listElementTypes are the element types the list snippets are exported for
var listElementTypes = []datatype.DataType{
	datatype.BFE,
	datatype.U32,
	datatype.U64,
	datatype.XFE,
	datatype.Digest,
}

// ExportedSnippets returns every snippet of the catalog. Parameterized
// snippets appear in the instantiations programs commonly need.
func ExportedSnippets() []Snippet {
	snippets := []Snippet{
		u32.IsOdd{},
		u64.And{},
		u64.Decr{},
		u64.Eq{},
		u64.LeadingZeros{},
		u64.Pow2{},
		memory.DynMalloc{},
		list.Length{},
		hashing.EqDigest{},
		hashing.HashVarlen{},
		hashing.LoadAuthPathFromStdIn{},
		hashing.MerkleRoot{},
		hashing.SpongeAbsorb{},
		hashing.SqueezeRepeatedly{N: 1},
		hashing.SqueezeRepeatedly{N: 10},
		tasmio.WriteDigestToStdOut{},
		merkle.VerifyFromSecretIn{},
		claim.NewRecursive{InputSize: 0, OutputSize: 0},
		claim.NewRecursive{InputSize: 1, OutputSize: 1},
	}
	for _, t := range listElementTypes {
		snippets = append(snippets, list.Get{ElementType: t})
	}
	return snippets
}

// ExportedEntrypoints returns the entrypoints of the catalog, sorted
func ExportedEntrypoints() []string {
	snippets := ExportedSnippets()
	names := make([]string, len(snippets))
	for i, s := range snippets {
		names[i] = s.Entrypoint()
	}
	sort.Strings(names)
	return names
}

// NameToSnippet looks a snippet up by its entrypoint
func NameToSnippet(name string) (Snippet, error) {
	for _, s := range ExportedSnippets() {
		if s.Entrypoint() == name {
			return s, nil
		}
	}
	return nil, &LibError{Code: ErrUnknownSnippet, Message: name}
}

// Link resolves entry and its imports and returns the program text: a call
// to entry, halt, then every block.
func Link(entry Snippet) ([]Instruction, error) {
	code, err := linker.Link(entry, library.New(library.WithConflictCheck()))
	if err != nil {
		return nil, &LibError{Code: ErrLink, Message: "failed to link " + entry.Entrypoint(), Cause: err}
	}
	return code, nil
}

// Compile links and assembles entry into a runnable program
func Compile(entry Snippet) (*Program, error) {
	code, err := Link(entry)
	if err != nil {
		return nil, err
	}
	program, err := asm.Assemble(code)
	if err != nil {
		return nil, &LibError{Code: ErrLink, Message: "failed to assemble " + entry.Entrypoint(), Cause: err}
	}
	return program, nil
}

// RunIsolated links entry for an isolated run and executes it. A nil stack
// in init is replaced by the isolated-run stack of zeros; a shorter one is
// rejected with ErrInvalidInput. The final state is returned also when
// execution faults.
func RunIsolated(entry Snippet, init InitialState) (*VMState, error) {
	if init.Stack != nil && len(init.Stack) < vm.NumOpStackRegisters {
		return nil, &LibError{
			Code:    ErrInvalidInput,
			Message: fmt.Sprintf("initial stack holds %d elements, need at least %d", len(init.Stack), vm.NumOpStackRegisters),
		}
	}
	program, err := linker.LinkForIsolatedRun(entry, linker.IsolatedRunOptions{ConflictCheck: true})
	if err != nil {
		return nil, &LibError{Code: ErrLink, Message: "failed to link " + entry.Entrypoint(), Cause: err}
	}
	if init.Stack == nil {
		init.Stack = linker.InitStackForIsolatedRun()
	}

	final, err := linker.Execute(program, init, 0)
	if err != nil {
		log := logger.Logger()
		log.Debug().Err(err).Str("entrypoint", entry.Entrypoint()).Msg("isolated run failed")
		return final, &LibError{Code: ErrExecution, Message: entry.Entrypoint(), Cause: err}
	}
	return final, nil
}
