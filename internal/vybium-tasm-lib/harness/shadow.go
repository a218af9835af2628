package harness

import (
	"fmt"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/bencher"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/prng"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
)

// Shadow presents a snippet of any capability as code plus a reference
// behavior over ExecutionState
type Shadow interface {
	Snippet() snippet.BasicSnippet
	Capability() snippet.Capability

	// InitialState draws a state from seed. A nil benchCase asks for a
	// random size; otherwise the state is sized for that case.
	InitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) (ExecutionState, error)

	// CornerCases returns the explicit states the snippet declares
	CornerCases() ([]ExecutionState, error)

	// Reference applies the reference behavior to state in place
	Reference(state *ExecutionState) error
}

// Wrap returns the adapter matching the capability of s
func Wrap(s snippet.BasicSnippet) (Shadow, error) {
	switch v := s.(type) {
	case snippet.Procedure:
		return ShadowedProcedure{Procedure: v}, nil
	case snippet.Algorithm:
		return ShadowedAlgorithm{Algorithm: v}, nil
	case snippet.Function:
		return ShadowedFunction{Function: v}, nil
	case snippet.Closure:
		return ShadowedClosure{Closure: v}, nil
	default:
		return nil, fmt.Errorf("snippet %s implements no capability", s.Entrypoint())
	}
}

// ShadowedClosure adapts a Closure
type ShadowedClosure struct {
	Closure snippet.Closure
}

func (s ShadowedClosure) Snippet() snippet.BasicSnippet  { return s.Closure }
func (s ShadowedClosure) Capability() snippet.Capability { return snippet.CapabilityClosure }

func (s ShadowedClosure) InitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) (ExecutionState, error) {
	init := s.Closure.PseudorandomInitialState(seed, benchCase)
	return newState(init.Stack, nil, nil), nil
}

func (s ShadowedClosure) CornerCases() ([]ExecutionState, error) {
	provider, ok := s.Closure.(snippet.ClosureCornerCases)
	if !ok {
		return nil, nil
	}
	var states []ExecutionState
	for _, init := range provider.CornerCases() {
		states = append(states, newState(init.Stack, nil, nil))
	}
	return states, nil
}

func (s ShadowedClosure) Reference(state *ExecutionState) error {
	return s.Closure.Reference(&state.Stack)
}

// ShadowedFunction adapts a Function
type ShadowedFunction struct {
	Function snippet.Function
}

func (s ShadowedFunction) Snippet() snippet.BasicSnippet  { return s.Function }
func (s ShadowedFunction) Capability() snippet.Capability { return snippet.CapabilityFunction }

func (s ShadowedFunction) InitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) (ExecutionState, error) {
	init := s.Function.PseudorandomInitialState(seed, benchCase)
	return newState(init.Stack, snippet.CloneMemory(init.Memory), nil), nil
}

func (s ShadowedFunction) CornerCases() ([]ExecutionState, error) {
	provider, ok := s.Function.(snippet.FunctionCornerCases)
	if !ok {
		return nil, nil
	}
	var states []ExecutionState
	for _, init := range provider.CornerCases() {
		states = append(states, newState(init.Stack, snippet.CloneMemory(init.Memory), nil))
	}
	return states, nil
}

func (s ShadowedFunction) Reference(state *ExecutionState) error {
	return s.Function.Reference(&state.Stack, state.Memory)
}

// ShadowedAlgorithm adapts an Algorithm, running its Preprocess on states
// that carry metadata
type ShadowedAlgorithm struct {
	Algorithm snippet.Algorithm
}

func (s ShadowedAlgorithm) Snippet() snippet.BasicSnippet  { return s.Algorithm }
func (s ShadowedAlgorithm) Capability() snippet.Capability { return snippet.CapabilityAlgorithm }

// Prepare turns an initial state into an ExecutionState, running the
// preprocessor when the state carries metadata
func (s ShadowedAlgorithm) Prepare(init snippet.AlgorithmInitialState) (ExecutionState, error) {
	nd := init.NonDeterminism.Clone()
	if init.Meta != nil {
		pre, ok := s.Algorithm.(snippet.Preprocessor)
		if !ok {
			return ExecutionState{}, fmt.Errorf("%s has metadata but no preprocessor", s.Algorithm.Entrypoint())
		}
		if err := pre.Preprocess(init.Meta, nd); err != nil {
			return ExecutionState{}, fmt.Errorf("failed to preprocess %s: %w", s.Algorithm.Entrypoint(), err)
		}
	}
	return newState(init.Stack, nil, nd), nil
}

func (s ShadowedAlgorithm) InitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) (ExecutionState, error) {
	return s.Prepare(s.Algorithm.PseudorandomInitialState(seed, benchCase))
}

func (s ShadowedAlgorithm) CornerCases() ([]ExecutionState, error) {
	provider, ok := s.Algorithm.(snippet.AlgorithmCornerCases)
	if !ok {
		return nil, nil
	}
	var states []ExecutionState
	for _, init := range provider.CornerCases() {
		state, err := s.Prepare(init)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

func (s ShadowedAlgorithm) Reference(state *ExecutionState) error {
	return s.Algorithm.Reference(&state.Stack, state.Memory, state.NonDeterminism)
}

// ShadowedProcedure adapts a Procedure
type ShadowedProcedure struct {
	Procedure snippet.Procedure
}

func (s ShadowedProcedure) Snippet() snippet.BasicSnippet  { return s.Procedure }
func (s ShadowedProcedure) Capability() snippet.Capability { return snippet.CapabilityProcedure }

func fromProcedure(init snippet.ProcedureInitialState) ExecutionState {
	state := newState(init.Stack, nil, init.NonDeterminism)
	state.PublicInput = append([]field.Element(nil), init.PublicInput...)
	state.Sponge = init.Sponge.Clone()
	return state
}

func (s ShadowedProcedure) InitialState(seed prng.Seed, benchCase *bencher.BenchmarkCase) (ExecutionState, error) {
	return fromProcedure(s.Procedure.PseudorandomInitialState(seed, benchCase)), nil
}

func (s ShadowedProcedure) CornerCases() ([]ExecutionState, error) {
	provider, ok := s.Procedure.(snippet.ProcedureCornerCases)
	if !ok {
		return nil, nil
	}
	var states []ExecutionState
	for _, init := range provider.CornerCases() {
		states = append(states, fromProcedure(init))
	}
	return states, nil
}

func (s ShadowedProcedure) Reference(state *ExecutionState) error {
	output, err := s.Procedure.Reference(&state.Stack, state.Memory, state.NonDeterminism,
		state.PublicInput, &state.Sponge)
	state.PublicOutput = append(state.PublicOutput, output...)
	return err
}

// writesAllocatedMemoryOnly reports whether the capability is bound by the
// allocation discipline
func writesAllocatedMemoryOnly(c snippet.Capability) bool {
	return c == snippet.CapabilityFunction || c == snippet.CapabilityProcedure
}
