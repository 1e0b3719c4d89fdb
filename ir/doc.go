// Package ir defines a register-augmented SSA intermediate representation
// for shader backends.
//
// The IR is designed to be:
//   - Backend-oriented: values are in SSA form, but mutable multi-component
//     registers are first class, accessed through load/store instructions
//   - Complete: every structural edge (def/use, block membership, instruction
//     order) is queryable and mutable
//   - Efficient: values carry dense per-function IDs usable as array
//     indices
//
// # Structure
//
// The IR is organized around a Module type that contains function bodies.
// Each Function is a list of basic blocks, and each Block is an ordered,
// doubly linked sequence of instructions. An instruction may produce a
// single Value; every Value records its consuming operand slots, so def/use
// edges can be walked and rewritten in both directions.
//
// # Registers
//
// A RegisterDecl instruction introduces a mutable storage location with a
// fixed component count. Loads and stores reference the register through
// its declaration value. Stores carry a ComponentMask selecting the
// components they write. Indirect variants take an additional dynamic
// index operand.
//
// # Normalization
//
// TrivializeRegisters rewrites a module so that every register load and
// store is trivial: translatable into a single backend instruction by
// inspecting adjacent instructions only, with no whole-function liveness
// analysis. See trivialize.go for the precise guarantees.
package ir
