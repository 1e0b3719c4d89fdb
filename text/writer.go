// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package text

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/lir/ir"
)

// writer generates the canonical textual form of a module.
type writer struct {
	out strings.Builder

	// Per-function value names, assigned in order of appearance.
	names map[*ir.Value]string
	next  int
}

// Write returns the canonical textual form of m.
func Write(m *ir.Module) string {
	w := &writer{}
	for i, fn := range m.Functions {
		if i > 0 {
			w.out.WriteByte('\n')
		}
		w.writeFunction(fn)
	}
	return w.out.String()
}

func (w *writer) writeFunction(fn *ir.Function) {
	w.names = make(map[*ir.Value]string, fn.NumValues())
	w.next = 0

	fmt.Fprintf(&w.out, "fn %s {\n", fn.Name)
	for _, blk := range fn.Blocks() {
		fmt.Fprintf(&w.out, "b%d:\n", blk.ID())
		for inst := blk.First(); inst != nil; inst = inst.Next() {
			w.out.WriteString("  ")
			w.writeInstruction(inst)
			w.out.WriteByte('\n')
		}
	}
	w.out.WriteString("}\n")
}

// name returns the textual name of v, assigning the next number on first
// use. Definitions precede uses in block order, so numbering follows the
// printed order.
func (w *writer) name(v *ir.Value) string {
	if n, ok := w.names[v]; ok {
		return n
	}
	n := "%" + strconv.Itoa(w.next)
	w.next++
	w.names[v] = n
	return n
}

func (w *writer) writeInstruction(inst *ir.Instruction) {
	switch k := inst.Kind.(type) {
	case ir.RegisterDecl:
		fmt.Fprintf(&w.out, "%s = reg %d", w.name(inst.Result()), k.NumComponents)
	case ir.Const:
		fmt.Fprintf(&w.out, "%s = const %#x : %d", w.name(inst.Result()), k.Bits, inst.Result().NumComponents())
	case ir.Undef:
		fmt.Fprintf(&w.out, "%s = undef : %d", w.name(inst.Result()), inst.Result().NumComponents())
	case ir.LoadRegister:
		fmt.Fprintf(&w.out, "%s = load %s", w.name(inst.Result()), w.name(inst.Register()))
	case ir.LoadRegisterIndirect:
		fmt.Fprintf(&w.out, "%s = load.ind %s %s",
			w.name(inst.Result()), w.name(inst.Register()), w.name(inst.Operand(1).Value()))
	case ir.StoreRegister:
		fmt.Fprintf(&w.out, "store %s, %s, mask=%s",
			w.name(inst.Register()), w.name(inst.StoredValue()), k.WriteMask)
	case ir.StoreRegisterIndirect:
		fmt.Fprintf(&w.out, "store.ind %s, %s, %s, mask=%s",
			w.name(inst.Register()), w.name(inst.StoredValue()), w.name(inst.Operand(2).Value()), k.WriteMask)
	case ir.Alu:
		fmt.Fprintf(&w.out, "%s = %s", w.name(inst.Result()), k.Op)
		for s := 0; s < inst.NumOperands(); s++ {
			w.out.WriteByte(' ')
			w.out.WriteString(w.name(inst.Operand(s).Value()))
		}
		fmt.Fprintf(&w.out, " : %d", inst.Result().NumComponents())
	case ir.Intrinsic:
		if inst.Result() != nil {
			fmt.Fprintf(&w.out, "%s = ", w.name(inst.Result()))
		}
		fmt.Fprintf(&w.out, "intr %s", k.Name)
		for s := 0; s < inst.NumOperands(); s++ {
			w.out.WriteByte(' ')
			w.out.WriteString(w.name(inst.Operand(s).Value()))
		}
		if inst.Result() != nil {
			fmt.Fprintf(&w.out, " : %d", inst.Result().NumComponents())
		}
	case ir.Branch:
		if inst.NumOperands() == 0 {
			fmt.Fprintf(&w.out, "jmp b%d", k.Then.ID())
		} else {
			fmt.Fprintf(&w.out, "br %s b%d b%d",
				w.name(inst.Operand(0).Value()), k.Then.ID(), k.Else.ID())
		}
	default:
		panic(fmt.Sprintf("BUG: unknown instruction kind %T", inst.Kind))
	}
}
