package ir

import (
	"fmt"
	"strconv"
)

// Module represents a shader module in IR form.
type Module struct {
	// Functions holds all function bodies
	Functions []*Function
}

// NewFunction creates an empty function and appends it to the module.
func (m *Module) NewFunction(name string) *Function {
	f := &Function{Name: name}
	m.Functions = append(m.Functions, f)
	return f
}

// Function represents a function body: an ordered list of basic blocks.
type Function struct {
	Name string

	blocks []*Block

	// nextValue is the dense ID handed to the next value created in this
	// function. It doubles as the capacity hint for per-block scratch
	// tables.
	nextValue ValueID
}

// Blocks returns the function's basic blocks in creation order.
func (f *Function) Blocks() []*Block {
	return f.blocks
}

// NewBlock creates an empty basic block and appends it to the function.
func (f *Function) NewBlock() *Block {
	b := &Block{fn: f, id: len(f.blocks)}
	f.blocks = append(f.blocks, b)
	return b
}

// NumValues returns the number of values created in this function so far.
// Value IDs are dense in [0, NumValues).
func (f *Function) NumValues() int {
	return int(f.nextValue)
}

// newValue allocates a value with the next dense ID.
func (f *Function) newValue(producer *Instruction, comps int) *Value {
	if comps < 1 || comps > MaxComponents {
		panic("BUG: value component count out of range: " + strconv.Itoa(comps))
	}
	v := &Value{id: f.nextValue, producer: producer, comps: uint8(comps)}
	f.nextValue++
	return v
}

// Block represents a basic block: an ordered, doubly linked sequence of
// instructions. A block is part of a control-flow graph, but instructions
// are only ever inspected and rewritten within their own block.
type Block struct {
	fn    *Function
	id    int
	first *Instruction
	last  *Instruction
}

// ID returns the block's index within its function.
func (b *Block) ID() int { return b.id }

// Function returns the function this block belongs to.
func (b *Block) Function() *Function { return b.fn }

// First returns the first instruction of the block, or nil if empty.
func (b *Block) First() *Instruction { return b.first }

// Last returns the last instruction of the block, or nil if empty.
func (b *Block) Last() *Instruction { return b.last }

// append places inst at the tail of the block.
func (b *Block) append(inst *Instruction) {
	inst.block = b
	inst.prev = b.last
	inst.next = nil
	if b.last != nil {
		b.last.next = inst
	} else {
		b.first = inst
	}
	b.last = inst
}

// insertAfter places inst immediately after pos. pos must belong to b.
func (b *Block) insertAfter(pos, inst *Instruction) {
	if pos.block != b {
		panic("BUG: insertAfter position belongs to another block")
	}
	inst.block = b
	inst.prev = pos
	inst.next = pos.next
	if pos.next != nil {
		pos.next.prev = inst
	} else {
		b.last = inst
	}
	pos.next = inst
}

// insertBefore places inst immediately before pos. pos must belong to b.
func (b *Block) insertBefore(pos, inst *Instruction) {
	if pos.block != b {
		panic("BUG: insertBefore position belongs to another block")
	}
	inst.block = b
	inst.next = pos
	inst.prev = pos.prev
	if pos.prev != nil {
		pos.prev.next = inst
	} else {
		b.first = inst
	}
	pos.prev = inst
}

// String implements fmt.Stringer.
func (b *Block) String() string {
	return fmt.Sprintf("b%d", b.id)
}
