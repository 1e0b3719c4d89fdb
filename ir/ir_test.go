package ir

import (
	"testing"
)

func TestBuilder_Wiring(t *testing.T) {
	m, fn, b := newTestFunction(t)
	reg := b.DeclareRegister(4)
	x := b.LoadRegister(reg)
	y := b.Alu(AluAdd, 4, x, x)
	st := b.StoreRegister(reg, y, FullMask(4))

	if len(m.Functions) != 1 || m.Functions[0] != fn {
		t.Fatalf("module does not hold the function")
	}
	if got := fn.NumValues(); got != 3 {
		t.Errorf("NumValues = %d, want 3", got)
	}
	if x.NumUses() != 2 {
		t.Errorf("load result has %d uses, want 2", x.NumUses())
	}
	if y.SoleUse() == nil || y.SoleUse().Instruction() != st {
		t.Errorf("alu result is not solely used by the store")
	}
	if st.Register() != reg || st.StoredValue() != y {
		t.Errorf("store operands wired wrong")
	}
	if st.WriteMask() != FullMask(4) {
		t.Errorf("store mask = %s, want xyzw", st.WriteMask())
	}

	// IDs are dense and ordered by creation.
	if reg.ID() != 0 || x.ID() != 1 || y.ID() != 2 {
		t.Errorf("value IDs not dense: %d %d %d", reg.ID(), x.ID(), y.ID())
	}
}

func TestBlock_InstructionOrder(t *testing.T) {
	_, _, b := newTestFunction(t)
	u := b.Undef(1)
	v := b.Mov(u)
	w := b.Mov(v)

	blk := b.Block()
	got := instructions(blk)
	if len(got) != 3 {
		t.Fatalf("block has %d instructions, want 3", len(got))
	}
	if got[0] != u.Producer() || got[1] != v.Producer() || got[2] != w.Producer() {
		t.Errorf("instructions out of order")
	}
	if blk.First() != u.Producer() || blk.Last() != w.Producer() {
		t.Errorf("First/Last wrong")
	}
	if v.Producer().Prev() != u.Producer() || v.Producer().Next() != w.Producer() {
		t.Errorf("links wrong")
	}
}

func TestValue_ReplaceUsesExcept(t *testing.T) {
	_, _, b := newTestFunction(t)
	u := b.Undef(1)
	keep := b.Mov(u)
	b.Intrinsic("a", 0, u)
	b.Intrinsic("b", 0, u)

	u.replaceUsesExcept(keep, keep.Producer())

	if u.SoleUse() == nil || u.SoleUse().Instruction() != keep.Producer() {
		t.Fatalf("original value not reduced to the kept use")
	}
	if keep.NumUses() != 2 {
		t.Errorf("replacement has %d uses, want 2", keep.NumUses())
	}
}

func TestComponentMask(t *testing.T) {
	if FullMask(4) != 0b1111 || FullMask(1) != 0b0001 {
		t.Errorf("FullMask wrong")
	}
	m := ComponentMask(0b0101)
	if !m.Has(0) || m.Has(1) || !m.Has(2) || m.Has(3) {
		t.Errorf("Has wrong for %04b", m)
	}
	if m.String() != "xz" {
		t.Errorf("String = %q, want xz", m.String())
	}
}
