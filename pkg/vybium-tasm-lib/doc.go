// Package vybiumtasmlib is the public entry point of the snippet library for
// the Vybium STARKs VM.
//
// The library is a collection of snippets: named blocks of VM code with a
// typed calling convention, each paired with a Go reference behavior. A
// snippet is linked together with everything it imports into a program that
// runs on the VM.
//
// # Quick Start
//
// Looking up a snippet and running it in isolation:
//
//	s, err := vybiumtasmlib.NameToSnippet("tasmlib_arithmetic_u64_eq")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	stack := vybiumtasmlib.EmptyStack(
//		field.Zero, field.New(7), // lhs
//		field.Zero, field.New(7), // rhs
//	)
//	final, err := vybiumtasmlib.RunIsolated(s, vybiumtasmlib.InitialState{Stack: stack})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(final.StackPeek(0)) // 1
//
// Linking a snippet into a standalone program:
//
//	program, err := vybiumtasmlib.Compile(s)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Architecture
//
// - pkg/vybium-tasm-lib/: Public API (this package)
// - internal/vybium-tasm-lib/: Snippets, linker, VM and test harness
//
// Implementation details in internal/ can be refactored without breaking the
// public API.
package vybiumtasmlib
