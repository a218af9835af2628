package harness

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/snippet"
	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

// failures runs both sides on state and returns their errors. A nil error
// means that side succeeded.
func (h *Harness) failures(shadow Shadow, state ExecutionState) (refErr, vmErr error, err error) {
	l, err := h.link(shadow)
	if err != nil {
		return nil, nil, err
	}
	expected := state.Clone()
	refErr = callReference(shadow, &expected)
	_, vmErr = l.run(state, h.cfg.MaxCycles)
	return refErr, vmErr, nil
}

// CheckFailure requires both the reference behavior and the VM to fail on
// state
func (h *Harness) CheckFailure(shadow Shadow, state ExecutionState) error {
	name := shadow.Snippet().Entrypoint()
	refErr, vmErr, err := h.failures(shadow, state)
	if err != nil {
		return err
	}
	if refErr == nil {
		return fmt.Errorf("reference of %s did not fail", name)
	}
	if vmErr == nil {
		return fmt.Errorf("VM run of %s did not fail", name)
	}
	return nil
}

// CheckAssertionFailure requires both sides to fail with the same id, one
// of ids
func (h *Harness) CheckAssertionFailure(shadow Shadow, state ExecutionState, ids ...uint64) error {
	name := shadow.Snippet().Entrypoint()
	refErr, vmErr, err := h.failures(shadow, state)
	if err != nil {
		return err
	}

	if refErr == nil {
		return fmt.Errorf("reference of %s did not fail", name)
	}
	refID, ok := snippet.AssertionID(refErr)
	if !ok {
		return fmt.Errorf("reference of %s failed without an error id: %w", name, refErr)
	}
	if !slices.Contains(ids, refID) {
		return fmt.Errorf("reference of %s failed with error id %d, expected one of %v", name, refID, ids)
	}

	if vmErr == nil {
		return fmt.Errorf("VM run of %s did not fail", name)
	}
	var ie *vm.InstructionError
	if !errors.As(vmErr, &ie) {
		return fmt.Errorf("VM run of %s failed outside an instruction: %w", name, vmErr)
	}
	vmID, ok := ie.AssertionID()
	if !ok {
		return fmt.Errorf("VM run of %s failed without an error id: %w", name, vmErr)
	}
	if !slices.Contains(ids, vmID) {
		return fmt.Errorf("VM run of %s failed with error id %d, expected one of %v", name, vmID, ids)
	}
	if refID != vmID {
		return fmt.Errorf("%s failed with error id %d in the reference and %d in the VM", name, refID, vmID)
	}
	return nil
}

// TestFailure fails t unless both sides fail on state
func (h *Harness) TestFailure(t testing.TB, shadow Shadow, state ExecutionState) {
	t.Helper()
	require.NoError(t, h.CheckFailure(shadow, state))
}

// TestAssertionFailure fails t unless both sides fail with one of ids
func (h *Harness) TestAssertionFailure(t testing.TB, shadow Shadow, state ExecutionState, ids ...uint64) {
	t.Helper()
	require.NoError(t, h.CheckAssertionFailure(shadow, state, ids...))
}
