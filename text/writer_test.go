// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package text

import (
	"testing"

	"github.com/gogpu/lir/ir"
)

func TestWrite_Canonical(t *testing.T) {
	m := &ir.Module{}
	fn := m.NewFunction("main")
	b := ir.NewBuilder(fn)
	b.SetBlock(fn.NewBlock())

	reg := b.DeclareRegister(4)
	x := b.LoadRegister(reg)
	y := b.Alu(ir.AluAdd, 4, x, x)
	b.StoreRegister(reg, y, ir.FullMask(4))

	want := `fn main {
b0:
  %0 = reg 4
  %1 = load %0
  %2 = add %1 %1 : 4
  store %0, %2, mask=xyzw
}
`
	if got := Write(m); got != want {
		t.Errorf("Write mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWrite_AllInstructionForms(t *testing.T) {
	m := &ir.Module{}
	fn := m.NewFunction("kitchen")
	b := ir.NewBuilder(fn)
	entry := fn.NewBlock()
	then := fn.NewBlock()
	els := fn.NewBlock()
	b.SetBlock(entry)

	reg := b.DeclareRegister(2)
	c := b.Const(0x3f800000, 1)
	u := b.Undef(2)
	xi := b.LoadRegisterIndirect(reg, c)
	b.StoreRegisterIndirect(reg, xi, c, 0b0001)
	b.StoreRegister(reg, u, ir.FullMask(2))
	s := b.Intrinsic("sample", 1, c).Result()
	b.Intrinsic("sync", 0)
	b.Branch(s, then, els)
	b.SetBlock(then)
	b.Jump(els)

	got := Write(m)
	want := `fn kitchen {
b0:
  %0 = reg 2
  %1 = const 0x3f800000 : 1
  %2 = undef : 2
  %3 = load.ind %0 %1
  store.ind %0, %3, %1, mask=x
  store %0, %2, mask=xy
  %4 = intr sample %1 : 1
  intr sync
  br %4 b1 b2
b1:
  jmp b2
b2:
}
`
	if got != want {
		t.Errorf("Write mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWrite_TwoFunctions(t *testing.T) {
	m := &ir.Module{}
	for _, name := range []string{"a", "b"} {
		fn := m.NewFunction(name)
		b := ir.NewBuilder(fn)
		b.SetBlock(fn.NewBlock())
		b.Undef(1)
	}

	want := `fn a {
b0:
  %0 = undef : 1
}

fn b {
b0:
  %0 = undef : 1
}
`
	if got := Write(m); got != want {
		t.Errorf("Write mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
