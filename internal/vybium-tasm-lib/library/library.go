// Package library resolves the imports of snippets into one deduplicated
// registry of code blocks and hands out static memory.
package library

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/logger"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// MaxStaticWords bounds the static region so it never reaches the region
// handed out by the dynamic allocator
const MaxStaticWords = 1 << 32

// Allocation is one static memory reservation
type Allocation struct {
	Base field.Element
	Size uint32
}

// Option configures a Library
type Option func(*Library)

// WithConflictCheck enables strict mode: every repeated import regenerates
// the snippet and fails if its code changed.
func WithConflictCheck() Option {
	return func(l *Library) {
		l.strict = true
	}
}

// WithPreallocatedMemory reserves the topmost words of memory for data the
// caller places before the program runs.
func WithPreallocatedMemory(words uint32) Option {
	return func(l *Library) {
		l.preallocated = words
	}
}

// Library is the registry of resolved code blocks. It is not safe for
// concurrent use; create one per linking or testing request.
type Library struct {
	order  []string
	blocks map[string][]asm.LabelledInstruction
	prints map[string]Fingerprint

	// entrypoints whose code is being generated, innermost last
	generating []string

	// kmalloc results per entrypoint, replayed by the conflict check
	allocatedBy map[string][]field.Element

	freePointer  field.Element
	allocations  []Allocation
	staticWords  uint64
	preallocated uint32
	strict       bool
}

var _ snippet.Library = (*Library)(nil)

// New creates an empty library
func New(opts ...Option) *Library {
	l := &Library{
		blocks:      make(map[string][]asm.LabelledInstruction),
		prints:      make(map[string]Fingerprint),
		allocatedBy: make(map[string][]field.Element),
	}
	for _, opt := range opts {
		opt(l)
	}
	// the cursor starts at the top of the address space, -1
	l.freePointer = field.Zero.Sub(field.One).Sub(field.New(uint64(l.preallocated)))
	l.staticWords = uint64(l.preallocated)
	return l
}

// Import returns the label of s, resolving its code on first use. It
// panics on import cycles, invalid blocks and, in strict mode, conflicts.
func (l *Library) Import(s snippet.BasicSnippet) string {
	label, err := l.TryImport(s)
	if err != nil {
		panic(err)
	}
	return label
}

// TryImport is Import returning errors instead of panicking. Failures of
// nested imports surface here as well.
func (l *Library) TryImport(s snippet.BasicSnippet) (label string, err error) {
	if len(l.generating) == 0 {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			l.generating = nil
			if e, ok := r.(error); ok && isImportError(e) {
				label, err = "", e
				return
			}
			panic(r)
		}()
	}
	return l.resolve(s)
}

func isImportError(err error) bool {
	var conflict *ConflictError
	return errors.Is(err, ErrImportCycle) || errors.Is(err, ErrInvalidBlock) || errors.As(err, &conflict)
}

func (l *Library) resolve(s snippet.BasicSnippet) (string, error) {
	name := s.Entrypoint()

	for _, g := range l.generating {
		if g == name {
			return "", fmt.Errorf("%w: %s -> %s", ErrImportCycle, strings.Join(l.generating, " -> "), name)
		}
	}

	if _, ok := l.blocks[name]; ok {
		if l.strict {
			if err := l.checkConflict(s); err != nil {
				return "", err
			}
		}
		return name, nil
	}

	l.generating = append(l.generating, name)
	block := s.Code(l)
	l.generating = l.generating[:len(l.generating)-1]

	if err := validateBlock(name, block); err != nil {
		return "", err
	}

	l.order = append(l.order, name)
	l.blocks[name] = block
	l.prints[name] = FingerprintOf(block)

	log := logger.Logger()
	log.Debug().
		Str("entrypoint", name).
		Int("instructions", len(block)).
		Str("fingerprint", l.prints[name].String()).
		Msg("registered code block")

	return name, nil
}

// checkConflict regenerates s without registering anything and compares
// the result with the registered block
func (l *Library) checkConflict(s snippet.BasicSnippet) error {
	name := s.Entrypoint()
	replay := &replayLibrary{addresses: l.allocatedBy[name]}
	regenerated := FingerprintOf(s.Code(replay))
	if regenerated != l.prints[name] || replay.next != len(replay.addresses) {
		return &ConflictError{Entrypoint: name, Registered: l.prints[name], Regenerated: regenerated}
	}
	return nil
}

func validateBlock(name string, block []asm.LabelledInstruction) error {
	if len(block) == 0 {
		return fmt.Errorf("%w: %s has no code", ErrInvalidBlock, name)
	}
	if first := block[0]; first.Kind != asm.KindLabel || first.Label != name {
		return fmt.Errorf("%w: %s must start with its entrypoint label, starts with %q",
			ErrInvalidBlock, name, first.String())
	}
	if _, err := asm.LabelAddresses(block); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidBlock, name, err)
	}
	for _, label := range asm.Labels(block)[1:] {
		if !strings.HasPrefix(label, name+"_") {
			return fmt.Errorf("%w: %s defines label %s outside its namespace", ErrInvalidBlock, name, label)
		}
	}
	return nil
}

// Kmalloc reserves words of static memory. Reservations move down from the
// top of the address space and never overlap.
func (l *Library) Kmalloc(words uint32) field.Element {
	if words == 0 {
		panic("kmalloc of zero words")
	}
	if l.staticWords+uint64(words) > MaxStaticWords {
		panic(fmt.Sprintf("static memory exhausted: %d words reserved, %d requested", l.staticWords, words))
	}

	base := l.freePointer.Sub(field.New(uint64(words))).Add(field.One)
	l.freePointer = base.Sub(field.One)
	l.staticWords += uint64(words)
	l.allocations = append(l.allocations, Allocation{Base: base, Size: words})

	if n := len(l.generating); n > 0 {
		owner := l.generating[n-1]
		l.allocatedBy[owner] = append(l.allocatedBy[owner], base)
	}

	log := logger.Logger()
	log.Debug().Uint32("words", words).Uint64("base", base.Value()).Msg("kmalloc")
	return base
}

// StaticAllocations returns every reservation in order
func (l *Library) StaticAllocations() []Allocation {
	return append([]Allocation(nil), l.allocations...)
}

// PreallocatedBase returns the first address of the preallocated region
func (l *Library) PreallocatedBase() field.Element {
	return field.Zero.Sub(field.New(uint64(l.preallocated)))
}

// AllImports returns every registered block in resolution order
func (l *Library) AllImports() []asm.LabelledInstruction {
	var code []asm.LabelledInstruction
	for _, name := range l.order {
		code = append(code, l.blocks[name]...)
	}
	return code
}

// Entrypoints returns the registered entrypoints in resolution order
func (l *Library) Entrypoints() []string {
	return append([]string(nil), l.order...)
}

// Len returns the number of registered blocks
func (l *Library) Len() int {
	return len(l.order)
}

// Block returns the registered block of an entrypoint
func (l *Library) Block(name string) ([]asm.LabelledInstruction, bool) {
	block, ok := l.blocks[name]
	return block, ok
}

// Fingerprint returns the fingerprint of a registered block
func (l *Library) Fingerprint(name string) (Fingerprint, bool) {
	f, ok := l.prints[name]
	return f, ok
}

// ValidateClosure checks that every call in the registry targets a label
// defined in the registry
func (l *Library) ValidateClosure() error {
	defined := make(map[string]bool)
	for _, name := range l.order {
		for _, label := range asm.Labels(l.blocks[name]) {
			defined[label] = true
		}
	}
	for _, name := range l.order {
		for _, target := range asm.CallTargets(l.blocks[name]) {
			if !defined[target] {
				return fmt.Errorf("%w: %s calls %s", asm.ErrUndefinedLabel, name, target)
			}
		}
	}
	return nil
}

// replayLibrary answers the calls a snippet makes while its code is
// regenerated for the conflict check. Imports resolve to their entrypoint
// and static allocations repeat the addresses of the first generation.
type replayLibrary struct {
	addresses []field.Element
	next      int
}

func (r *replayLibrary) Import(s snippet.BasicSnippet) string {
	return s.Entrypoint()
}

func (r *replayLibrary) Kmalloc(words uint32) field.Element {
	if r.next >= len(r.addresses) {
		r.next++
		return field.Zero
	}
	base := r.addresses[r.next]
	r.next++
	return base
}
