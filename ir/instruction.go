package ir

import (
	"fmt"
	"strings"
)

// MaxComponents is the widest register or value supported by the IR.
const MaxComponents = 4

// ComponentMask is a bitset over a register's components, bit c selecting
// component c.
type ComponentMask uint8

// FullMask returns the mask selecting all of the first n components.
func FullMask(n int) ComponentMask {
	return ComponentMask(1<<n) - 1
}

// Has reports whether component c is selected.
func (m ComponentMask) Has(c int) bool {
	return m&(1<<c) != 0
}

// String implements fmt.Stringer, e.g. "xz" for bits 0 and 2.
func (m ComponentMask) String() string {
	const names = "xyzw"
	var sb strings.Builder
	for c := 0; c < MaxComponents; c++ {
		if m.Has(c) {
			sb.WriteByte(names[c])
		}
	}
	return sb.String()
}

// AluOp enumerates arithmetic/logic operations.
type AluOp uint8

const (
	// AluMov is the identity copy. The normalization pass inserts these;
	// like every other AluOp it counts as an arithmetic/logic producer.
	AluMov AluOp = iota
	AluAdd
	AluSub
	AluMul
	AluNeg
	AluMin
	AluMax
	AluDot
	AluFma
)

// String implements fmt.Stringer.
func (op AluOp) String() string {
	switch op {
	case AluMov:
		return "mov"
	case AluAdd:
		return "add"
	case AluSub:
		return "sub"
	case AluMul:
		return "mul"
	case AluNeg:
		return "neg"
	case AluMin:
		return "min"
	case AluMax:
		return "max"
	case AluDot:
		return "dot"
	case AluFma:
		return "fma"
	}
	return fmt.Sprintf("alu(%d)", op)
}

// arity returns the operand count of the operation.
func (op AluOp) arity() int {
	switch op {
	case AluMov, AluNeg:
		return 1
	case AluFma:
		return 3
	default:
		return 2
	}
}

// InstKind represents the different kinds of instructions.
type InstKind interface {
	instKind()
}

// Alu performs an arithmetic/logic operation on its operands.
type Alu struct {
	Op AluOp
}

func (Alu) instKind() {}

// Const materializes an immediate. Bits holds the raw scalar bit pattern,
// replicated across the result components.
type Const struct {
	Bits uint64
}

func (Const) instKind() {}

// Undef produces an undefined value.
type Undef struct{}

func (Undef) instKind() {}

// RegisterDecl introduces a mutable register with NumComponents components.
// Its result is the register handle referenced by loads and stores; the
// handle itself is never mutated.
type RegisterDecl struct {
	NumComponents uint8
}

func (RegisterDecl) instKind() {}

// LoadRegister reads a register. Operand 0 is the register handle.
type LoadRegister struct{}

func (LoadRegister) instKind() {}

// LoadRegisterIndirect reads a register at a dynamic offset. Operand 0 is
// the register handle, operand 1 the index.
type LoadRegisterIndirect struct{}

func (LoadRegisterIndirect) instKind() {}

// StoreRegister writes the components selected by WriteMask. Operand 0 is
// the stored value, operand 1 the register handle.
type StoreRegister struct {
	WriteMask ComponentMask
}

func (StoreRegister) instKind() {}

// StoreRegisterIndirect writes a register at a dynamic offset. Operand 0 is
// the stored value, operand 1 the register handle, operand 2 the index.
type StoreRegisterIndirect struct {
	WriteMask ComponentMask
}

func (StoreRegisterIndirect) instKind() {}

// Branch terminates a block. With a condition operand it transfers control
// to Then or Else; without operands it is an unconditional jump to Then.
type Branch struct {
	Then *Block
	Else *Block
}

func (Branch) instKind() {}

// Intrinsic is an opaque operation with arbitrary operands and an optional
// result. It stands in for every instruction kind the normalization pass
// does not care about.
type Intrinsic struct {
	Name string
}

func (Intrinsic) instKind() {}

// Operand slot layout of register loads and stores.
const (
	loadSlotRegister = 0
	loadSlotIndex    = 1

	storeSlotValue    = 0
	storeSlotRegister = 1
	storeSlotIndex    = 2
)

// Instruction represents a single instruction. It belongs to exactly one
// block and is doubly linked with its neighbors in instruction order.
type Instruction struct {
	Kind InstKind

	block      *Block
	prev, next *Instruction
	result     *Value
	operands   []Operand
}

// newInstruction allocates an instruction with nops empty operand slots.
func newInstruction(kind InstKind, nops int) *Instruction {
	inst := &Instruction{Kind: kind}
	if nops > 0 {
		inst.operands = make([]Operand, nops)
		for i := range inst.operands {
			inst.operands[i] = Operand{inst: inst, slot: i}
		}
	}
	return inst
}

// Block returns the block this instruction belongs to.
func (i *Instruction) Block() *Block { return i.block }

// Next returns the instruction following i in its block, or nil.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the instruction preceding i in its block, or nil.
func (i *Instruction) Prev() *Instruction { return i.prev }

// Result returns the value produced by this instruction, or nil.
func (i *Instruction) Result() *Value { return i.result }

// NumOperands returns the number of operand slots.
func (i *Instruction) NumOperands() int { return len(i.operands) }

// Operand returns the n-th operand slot.
func (i *Instruction) Operand(n int) *Operand { return &i.operands[n] }

// IsRegisterLoad reports whether the instruction is a direct or indirect
// register load.
func (i *Instruction) IsRegisterLoad() bool {
	switch i.Kind.(type) {
	case LoadRegister, LoadRegisterIndirect:
		return true
	}
	return false
}

// IsRegisterStore reports whether the instruction is a direct or indirect
// register store.
func (i *Instruction) IsRegisterStore() bool {
	switch i.Kind.(type) {
	case StoreRegister, StoreRegisterIndirect:
		return true
	}
	return false
}

// Register returns the register handle operand of a load or store.
func (i *Instruction) Register() *Value {
	switch i.Kind.(type) {
	case LoadRegister, LoadRegisterIndirect:
		return i.operands[loadSlotRegister].val
	case StoreRegister, StoreRegisterIndirect:
		return i.operands[storeSlotRegister].val
	}
	panic("BUG: Register called on non register access instruction")
}

// StoredValue returns the value operand of a register store.
func (i *Instruction) StoredValue() *Value {
	if !i.IsRegisterStore() {
		panic("BUG: StoredValue called on non register store instruction")
	}
	return i.operands[storeSlotValue].val
}

// WriteMask returns the component mask of a register store.
func (i *Instruction) WriteMask() ComponentMask {
	switch k := i.Kind.(type) {
	case StoreRegister:
		return k.WriteMask
	case StoreRegisterIndirect:
		return k.WriteMask
	}
	panic("BUG: WriteMask called on non register store instruction")
}

// String implements fmt.Stringer. The text package produces the canonical
// form; this is a short tag for diagnostics.
func (i *Instruction) String() string {
	switch k := i.Kind.(type) {
	case Alu:
		return k.Op.String()
	case Const:
		return "const"
	case Undef:
		return "undef"
	case RegisterDecl:
		return "reg"
	case LoadRegister:
		return "load"
	case LoadRegisterIndirect:
		return "load.ind"
	case StoreRegister:
		return "store"
	case StoreRegisterIndirect:
		return "store.ind"
	case Branch:
		if len(i.operands) > 0 {
			return "br"
		}
		return "jmp"
	case Intrinsic:
		return "intr " + k.Name
	}
	return fmt.Sprintf("unknown(%T)", i.Kind)
}
