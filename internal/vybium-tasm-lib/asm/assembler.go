package asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"

	"github.com/vybium/vybium-tasm-lib/internal/vybium-tasm-lib/vm"
)

var (
	// ErrUndefinedLabel is returned when a call targets an unknown label
	ErrUndefinedLabel = errors.New("undefined label")

	// ErrDuplicateLabel is returned when a label is defined twice
	ErrDuplicateLabel = errors.New("duplicate label")

	// ErrInvalidLabel is returned for empty labels or labels with whitespace
	ErrInvalidLabel = errors.New("invalid label")
)

// ValidateLabel checks that a label is usable in assembly
func ValidateLabel(label string) error {
	if label == "" || strings.ContainsAny(label, " \t\n:") {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}

// LabelAddresses maps every defined label to its word address
func LabelAddresses(code []LabelledInstruction) (map[string]int, error) {
	addresses := make(map[string]int)
	address := 0
	for _, li := range code {
		if li.Kind == KindLabel {
			if err := ValidateLabel(li.Label); err != nil {
				return nil, err
			}
			if _, ok := addresses[li.Label]; ok {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, li.Label)
			}
			addresses[li.Label] = address
			continue
		}
		address += li.Instruction.Size()
	}
	return addresses, nil
}

// Assemble resolves labels and encodes the code into a program
func Assemble(code []LabelledInstruction) (*vm.Program, error) {
	addresses, err := LabelAddresses(code)
	if err != nil {
		return nil, err
	}

	program := vm.NewProgram()
	for _, li := range code {
		if li.Kind == KindLabel {
			continue
		}

		var arg *field.Element
		switch {
		case li.IsCall():
			target, ok := addresses[li.Label]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUndefinedLabel, li.Label)
			}
			a := field.New(uint64(target))
			arg = &a
		case li.Instruction.HasArgument():
			a := li.Argument
			arg = &a
		}

		inst, err := vm.NewEncodedInstruction(li.Instruction, arg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", li, err)
		}
		if li.ErrorID != nil {
			inst.WithErrorID(*li.ErrorID)
		}
		program.AddInstruction(inst)
	}

	if err := vm.ValidateProgram(program); err != nil {
		return nil, err
	}
	return program, nil
}
