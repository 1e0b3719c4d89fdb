// Package lir provides a register-augmented SSA intermediate representation
// for shader backends, together with the normalization that makes every
// register access directly translatable.
//
// The package provides a simple, high-level API for preparing a module as
// well as lower-level access to the individual stages in the ir and text
// packages.
//
// Example usage:
//
//	module, err := text.Parse(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := lir.Prepare(module); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(text.Write(module))
//
// After Prepare, every register load and store in the module is trivial:
// a backend can translate each one into a single instruction by looking at
// its immediate neighbors, without any whole-function liveness analysis.
package lir

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gogpu/lir/ir"
)

// PrepareOptions configures module preparation.
type PrepareOptions struct {
	// Validate enables structural IR validation before normalization.
	Validate bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() PrepareOptions {
	return PrepareOptions{
		Validate: true,
	}
}

// Prepare normalizes module for backend consumption using default options.
func Prepare(module *ir.Module) error {
	return PrepareWithOptions(module, DefaultOptions())
}

// PrepareWithOptions normalizes module for backend consumption.
//
// The pipeline is:
//  1. Validate the input IR (if enabled)
//  2. Rewrite the module so every register load and store is trivial
//  3. Assert the triviality postconditions
//
// Step 3 cannot fail on well-formed input; an error from it indicates a
// malformed module that slipped past step 1.
func PrepareWithOptions(module *ir.Module, opts PrepareOptions) error {
	if module == nil {
		return fmt.Errorf("module is nil")
	}

	if opts.Validate {
		validationErrors, err := ir.Validate(module)
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}
		if len(validationErrors) > 0 {
			return fmt.Errorf("validation failed: %w", validationErrors[0])
		}
	}

	log := Logger()
	var before []int
	if log.Core().Enabled(zap.DebugLevel) {
		before = instructionCounts(module)
	}

	ir.TrivializeRegisters(module)

	if violations := ir.ValidateTrivial(module); len(violations) > 0 {
		return fmt.Errorf("normalization postcondition failed: %w", violations[0])
	}

	if before != nil {
		after := instructionCounts(module)
		for i, fn := range module.Functions {
			log.Debug("trivialized registers",
				zap.String("function", fn.Name),
				zap.Int("instructions", after[i]),
				zap.Int("copies_inserted", after[i]-before[i]))
		}
	}
	return nil
}

// instructionCounts returns the instruction count of each function.
func instructionCounts(module *ir.Module) []int {
	counts := make([]int, len(module.Functions))
	for i, fn := range module.Functions {
		for _, blk := range fn.Blocks() {
			for inst := blk.First(); inst != nil; inst = inst.Next() {
				counts[i]++
			}
		}
	}
	return counts
}
