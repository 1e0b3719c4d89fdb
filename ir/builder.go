package ir

import "fmt"

// Builder appends instructions to a current block, wiring operands and
// results. It is the construction API used by the text parser and tests;
// the normalization pass splices its copies directly.
type Builder struct {
	fn  *Function
	blk *Block
}

// NewBuilder returns a builder for f with no current block.
func NewBuilder(f *Function) *Builder {
	return &Builder{fn: f}
}

// SetBlock sets the block instructions are appended to.
func (b *Builder) SetBlock(blk *Block) {
	if blk.fn != b.fn {
		panic("BUG: block belongs to another function")
	}
	b.blk = blk
}

// Block returns the current insertion block.
func (b *Builder) Block() *Block { return b.blk }

// emit appends an instruction with the given operands. comps > 0 attaches
// a result value with that component count.
func (b *Builder) emit(kind InstKind, comps int, args ...*Value) *Instruction {
	if b.blk == nil {
		panic("BUG: builder has no current block")
	}
	inst := newInstruction(kind, len(args))
	for i, a := range args {
		if a == nil {
			panic(fmt.Sprintf("BUG: nil operand %d for %T", i, kind))
		}
		inst.operands[i].set(a)
	}
	if comps > 0 {
		inst.result = b.fn.newValue(inst, comps)
	}
	b.blk.append(inst)
	return inst
}

// DeclareRegister emits a register declaration and returns its handle.
func (b *Builder) DeclareRegister(numComponents int) *Value {
	if numComponents < 1 || numComponents > MaxComponents {
		panic(fmt.Sprintf("BUG: register component count out of range: %d", numComponents))
	}
	return b.emit(RegisterDecl{NumComponents: uint8(numComponents)}, numComponents).result
}

// Const emits an immediate with the given bit pattern and component count.
func (b *Builder) Const(bits uint64, comps int) *Value {
	return b.emit(Const{Bits: bits}, comps).result
}

// Undef emits an undefined value.
func (b *Builder) Undef(comps int) *Value {
	return b.emit(Undef{}, comps).result
}

// LoadRegister emits a direct load of reg.
func (b *Builder) LoadRegister(reg *Value) *Value {
	requireRegister(reg)
	return b.emit(LoadRegister{}, reg.NumComponents(), reg).result
}

// LoadRegisterIndirect emits an indirect load of reg at index.
func (b *Builder) LoadRegisterIndirect(reg, index *Value) *Value {
	requireRegister(reg)
	return b.emit(LoadRegisterIndirect{}, reg.NumComponents(), reg, index).result
}

// StoreRegister emits a direct store of value to the components of reg
// selected by mask.
func (b *Builder) StoreRegister(reg, value *Value, mask ComponentMask) *Instruction {
	requireRegister(reg)
	return b.emit(StoreRegister{WriteMask: mask}, 0, value, reg)
}

// StoreRegisterIndirect emits an indirect store of value to reg at index.
func (b *Builder) StoreRegisterIndirect(reg, value, index *Value, mask ComponentMask) *Instruction {
	requireRegister(reg)
	return b.emit(StoreRegisterIndirect{WriteMask: mask}, 0, value, reg, index)
}

// Alu emits an arithmetic/logic operation.
func (b *Builder) Alu(op AluOp, comps int, args ...*Value) *Value {
	if len(args) != op.arity() {
		panic(fmt.Sprintf("BUG: %s takes %d operands, got %d", op, op.arity(), len(args)))
	}
	return b.emit(Alu{Op: op}, comps, args...).result
}

// Mov emits an identity copy of x.
func (b *Builder) Mov(x *Value) *Value {
	return b.Alu(AluMov, x.NumComponents(), x)
}

// Intrinsic emits an opaque operation. comps == 0 emits no result.
func (b *Builder) Intrinsic(name string, comps int, args ...*Value) *Instruction {
	return b.emit(Intrinsic{Name: name}, comps, args...)
}

// Branch emits a conditional branch on cond.
func (b *Builder) Branch(cond *Value, then, els *Block) {
	b.emit(Branch{Then: then, Else: els}, 0, cond)
}

// Jump emits an unconditional jump.
func (b *Builder) Jump(target *Block) {
	b.emit(Branch{Then: target}, 0)
}

func requireRegister(reg *Value) {
	if _, ok := reg.Producer().Kind.(RegisterDecl); !ok {
		panic("BUG: register operand is not a register declaration")
	}
}
