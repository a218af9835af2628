// Package linker turns an entrypoint snippet and its resolved imports into
// an executable program.
package linker

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/library"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/logger"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// Link returns call entry, halt, the entry's block and then every other
// registered block in resolution order.
func Link(entry snippet.BasicSnippet, lib *library.Library) ([]asm.LabelledInstruction, error) {
	label, err := lib.TryImport(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", entry.Entrypoint(), err)
	}
	if err := lib.ValidateClosure(); err != nil {
		return nil, fmt.Errorf("failed to link %s: %w", label, err)
	}

	entryBlock, _ := lib.Block(label)
	code := []asm.LabelledInstruction{asm.Call(label), asm.Halt()}
	code = append(code, entryBlock...)
	for _, name := range lib.Entrypoints() {
		if name == label {
			continue
		}
		block, _ := lib.Block(name)
		code = append(code, block...)
	}
	return code, nil
}

// IsolatedRunOptions configures a program that runs one snippet on its own
type IsolatedRunOptions struct {
	// StaticWords are written to the top of memory before the entry runs,
	// at [-len(StaticWords), -1]
	StaticWords []field.Element

	// ConflictCheck links with a strict library
	ConflictCheck bool
}

// LinkCodeForIsolatedRun links entry behind a prelude that places the
// static words
func LinkCodeForIsolatedRun(entry snippet.BasicSnippet, opts IsolatedRunOptions) ([]asm.LabelledInstruction, error) {
	var libOpts []library.Option
	if n := len(opts.StaticWords); n > 0 {
		libOpts = append(libOpts, library.WithPreallocatedMemory(uint32(n)))
	}
	if opts.ConflictCheck {
		libOpts = append(libOpts, library.WithConflictCheck())
	}
	lib := library.New(libOpts...)

	linked, err := Link(entry, lib)
	if err != nil {
		return nil, err
	}

	prelude := make([]asm.LabelledInstruction, 0, 4*len(opts.StaticWords))
	base := lib.PreallocatedBase()
	for i, w := range opts.StaticWords {
		prelude = append(prelude,
			asm.PushElement(w),
			asm.PushElement(base.Add(field.New(uint64(i)))),
			asm.WriteMem(1),
			asm.Pop(1),
		)
	}
	return append(prelude, linked...), nil
}

// LinkForIsolatedRun links and assembles entry for an isolated run
func LinkForIsolatedRun(entry snippet.BasicSnippet, opts IsolatedRunOptions) (*vm.Program, error) {
	code, err := LinkCodeForIsolatedRun(entry, opts)
	if err != nil {
		return nil, err
	}
	program, err := asm.Assemble(code)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble %s: %w", entry.Entrypoint(), err)
	}

	log := logger.Logger()
	log.Debug().
		Str("entrypoint", entry.Entrypoint()).
		Int("words", program.Length).
		Int("instructions", len(program.Instructions)).
		Msg("linked program")
	return program, nil
}

// InitStackForIsolatedRun returns the register-width padding every isolated
// run starts with. Its bottom five words are the program digest slot.
func InitStackForIsolatedRun() []field.Element {
	stack := make([]field.Element, vm.NumOpStackRegisters)
	for i := range stack {
		stack[i] = field.Zero
	}
	return stack
}

// Execute runs program and returns the final VM state
func Execute(program *vm.Program, init vm.InitialState, maxCycles uint64) (*vm.VMState, error) {
	return vm.Run(program, init, vm.RunOptions{MaxCycles: maxCycles})
}

// ExecuteBench runs program and additionally returns its table heights
func ExecuteBench(program *vm.Program, init vm.InitialState, maxCycles uint64) (*vm.VMState, vm.TableHeights, error) {
	final, err := Execute(program, init, maxCycles)
	if err != nil {
		return final, vm.TableHeights{}, err
	}
	return final, final.Heights(), nil
}
