// Package harness checks snippets against their reference behaviors and
// measures their cost.
//
// Every check links the snippet for an isolated run, executes it on the VM
// and applies the reference behavior to an independent copy of the same
// initial state. The two final states must agree exactly.
package harness

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/asm"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/config"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/linker"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/logger"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/memory"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// Harness runs equivalence checks and benchmarks under one configuration
type Harness struct {
	cfg *config.Config
}

// New creates a harness
func New(cfg *config.Config) (*Harness, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid harness config: %w", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid harness log level: %w", err)
	}
	return &Harness{cfg: cfg.Clone()}, nil
}

// Config returns a copy of the harness configuration
func (h *Harness) Config() *config.Config {
	return h.cfg.Clone()
}

// linked is a snippet prepared for isolated runs
type linked struct {
	code    []asm.LabelledInstruction
	program *vm.Program
}

func (h *Harness) link(shadow Shadow) (*linked, error) {
	entry := shadow.Snippet()
	code, err := linker.LinkCodeForIsolatedRun(entry, linker.IsolatedRunOptions{ConflictCheck: true})
	if err != nil {
		return nil, err
	}
	program, err := asm.Assemble(code)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble %s: %w", entry.Entrypoint(), err)
	}
	return &linked{code: code, program: program}, nil
}

func (l *linked) run(state ExecutionState, maxCycles uint64) (*vm.VMState, error) {
	return linker.Execute(l.program, state.vmInitialState(), maxCycles)
}

// callReference runs the reference behavior, turning a panic into an error
func callReference(shadow Shadow, state *ExecutionState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reference of %s panicked: %v", shadow.Snippet().Entrypoint(), r)
		}
	}()
	return shadow.Reference(state)
}

// CheckEquivalence runs the snippet and its reference behavior on state and
// reports the first disagreement
func (h *Harness) CheckEquivalence(shadow Shadow, state ExecutionState) error {
	l, err := h.link(shadow)
	if err != nil {
		return err
	}
	return h.check(l, shadow, state)
}

// CheckSeed is CheckEquivalence on the state drawn from seed
func (h *Harness) CheckSeed(shadow Shadow, seed prng.Seed) error {
	l, err := h.link(shadow)
	if err != nil {
		return err
	}
	return h.checkSeed(l, shadow, seed)
}

func (h *Harness) checkSeed(l *linked, shadow Shadow, seed prng.Seed) error {
	state, err := shadow.InitialState(seed, nil)
	if err != nil {
		return fmt.Errorf("failed to draw state for %s from seed %s: %w", shadow.Snippet().Entrypoint(), seed, err)
	}
	err = h.check(l, shadow, state)
	var mismatch *MismatchError
	if errors.As(err, &mismatch) {
		mismatch.Seed = seed.String()
	}
	return err
}

func (h *Harness) check(l *linked, shadow Shadow, initial ExecutionState) error {
	name := shadow.Snippet().Entrypoint()
	mismatch := func(aspect Aspect, format string, args ...any) error {
		return &MismatchError{Entrypoint: name, Seed: "none", Aspect: aspect, Detail: fmt.Sprintf(format, args...)}
	}

	expected := initial.Clone()
	if err := callReference(shadow, &expected); err != nil {
		return mismatch(AspectReference, "reference failed: %v", err)
	}

	final, err := l.run(initial, h.cfg.MaxCycles)
	if err != nil {
		return mismatch(AspectExecution, "VM failed: %v", err)
	}
	actual := ExecutionState{
		Stack:        final.Stack,
		Memory:       final.RAM,
		PublicOutput: final.PublicOutput,
		Sponge:       final.Sponge,
	}

	if detail := diffStacks(expected.Stack, actual.Stack); detail != "" {
		return mismatch(AspectStack, "%s", detail)
	}
	if delta, declared := len(actual.Stack)-len(initial.Stack), snippet.StackDiff(shadow.Snippet()); delta != declared {
		return mismatch(AspectStackDelta, "stack grew by %d, declared %d", delta, declared)
	}
	if detail := diffMemory(expected.Memory, actual.Memory); detail != "" {
		return mismatch(AspectMemory, "%s", detail)
	}
	if !expected.Sponge.Equal(actual.Sponge) {
		return mismatch(AspectSponge, "sponge states differ")
	}
	if detail := diffElements(expected.PublicOutput, actual.PublicOutput); detail != "" {
		return mismatch(AspectOutput, "%s", detail)
	}
	if writesAllocatedMemoryOnly(shadow.Capability()) {
		if detail := checkDiscipline(initial.Memory, actual.Memory); detail != "" {
			return mismatch(AspectMemoryDiscipline, "%s", detail)
		}
	}
	return nil
}

func diffStacks(expected, actual []field.Element) string {
	if len(expected) != len(actual) {
		return fmt.Sprintf("reference stack has %d elements, VM stack %d", len(expected), len(actual))
	}
	for i := range expected {
		st := len(expected) - 1 - i
		if !expected[st].Equal(actual[st]) {
			return fmt.Sprintf("st%d: reference %d, VM %d", i, expected[st].Value(), actual[st].Value())
		}
	}
	return ""
}

func diffElements(expected, actual []field.Element) string {
	if len(expected) != len(actual) {
		return fmt.Sprintf("reference wrote %d elements, VM %d", len(expected), len(actual))
	}
	for i := range expected {
		if !expected[i].Equal(actual[i]) {
			return fmt.Sprintf("element %d: reference %d, VM %d", i, expected[i].Value(), actual[i].Value())
		}
	}
	return ""
}

func sortedAddresses(memories ...snippet.Memory) []field.Element {
	seen := make(map[field.Element]struct{})
	var addresses []field.Element
	for _, m := range memories {
		for k := range m {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				addresses = append(addresses, k)
			}
		}
	}
	slices.SortFunc(addresses, func(a, b field.Element) int {
		switch {
		case a.Value() < b.Value():
			return -1
		case a.Value() > b.Value():
			return 1
		}
		return 0
	})
	return addresses
}

func diffMemory(expected, actual snippet.Memory) string {
	expected, actual = nonZero(expected), nonZero(actual)
	for _, addr := range sortedAddresses(expected, actual) {
		e, a := snippet.Load(expected, addr), snippet.Load(actual, addr)
		if !e.Equal(a) {
			return fmt.Sprintf("m[%d]: reference %d, VM %d", addr.Value(), e.Value(), a.Value())
		}
	}
	return ""
}

// checkDiscipline requires every changed cell to be the allocator state,
// or a cell that was empty before the run and lies at or above the
// allocation frontier. Static memory sits at the top of the address space,
// above any frontier.
func checkDiscipline(before, after snippet.Memory) string {
	frontier := snippet.Load(before, memory.DynMallocAddress)
	if frontier.IsZero() {
		frontier = memory.FirstDynamicAddress
	}
	for _, addr := range sortedAddresses(after) {
		was := snippet.Load(before, addr)
		if was.Equal(after[addr]) || addr.Equal(memory.DynMallocAddress) {
			continue
		}
		if !was.IsZero() {
			return fmt.Sprintf("m[%d] overwritten: %d -> %d", addr.Value(), was.Value(), after[addr].Value())
		}
		if addr.Value() < frontier.Value() {
			return fmt.Sprintf("m[%d] written below the allocation frontier %d", addr.Value(), frontier.Value())
		}
	}
	return ""
}

// Test checks the snippet on NumTestStates fresh seeds and on its corner
// cases, failing t on the first mismatch
func (h *Harness) Test(t testing.TB, shadow Shadow) {
	t.Helper()
	name := shadow.Snippet().Entrypoint()
	log := logger.Logger()

	l, err := h.link(shadow)
	require.NoError(t, err)

	for i := 0; i < h.cfg.NumTestStates; i++ {
		seed := prng.RandomSeed()
		log.Info().Str("entrypoint", name).Msgf("testing %s with seed %s", name, seed)
		require.NoError(t, h.checkSeed(l, shadow, seed))
	}

	corners, err := shadow.CornerCases()
	require.NoError(t, err)
	for i, state := range corners {
		err := h.check(l, shadow, state)
		var mismatch *MismatchError
		if errors.As(err, &mismatch) {
			mismatch.Seed = fmt.Sprintf("corner case %d", i)
		}
		require.NoError(t, err)
	}
}

// Default returns a harness configured from the environment
func Default(t testing.TB) *Harness {
	t.Helper()
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	h, err := New(cfg)
	require.NoError(t, err)
	return h
}

// MustWrap wraps s or fails t
func MustWrap(t testing.TB, s snippet.BasicSnippet) Shadow {
	t.Helper()
	shadow, err := Wrap(s)
	require.NoError(t, err)
	return shadow
}

// Test checks s with the default harness
func Test(t testing.TB, s snippet.BasicSnippet) {
	t.Helper()
	Default(t).Test(t, MustWrap(t, s))
}
