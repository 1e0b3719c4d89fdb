package ir

import "strconv"

// ValueID is a dense per-function identifier for a Value. IDs are assigned
// at creation time and never reused, so they are stable keys for maps and
// arrays sized by Function.NumValues.
type ValueID uint32

// Value represents an SSA value: the result of exactly one instruction,
// referenced by zero or more consumer operand slots.
type Value struct {
	id       ValueID
	producer *Instruction
	comps    uint8

	// uses holds a pointer to every operand slot currently referencing
	// this value, in no particular order.
	uses []*Operand
}

// ID returns the value's dense per-function identifier.
func (v *Value) ID() ValueID { return v.id }

// Producer returns the instruction that produces this value.
func (v *Value) Producer() *Instruction { return v.producer }

// NumComponents returns the component count of this value (1 to 4).
func (v *Value) NumComponents() int { return int(v.comps) }

// NumUses returns the number of operand slots referencing this value.
func (v *Value) NumUses() int { return len(v.uses) }

// Uses returns the operand slots referencing this value. The returned
// slice is owned by the value and must not be mutated or held across
// rewrites.
func (v *Value) Uses() []*Operand { return v.uses }

// SoleUse returns the single operand referencing this value, or nil if the
// value has zero or more than one use.
func (v *Value) SoleUse() *Operand {
	if len(v.uses) != 1 {
		return nil
	}
	return v.uses[0]
}

// String implements fmt.Stringer.
func (v *Value) String() string {
	return "%" + strconv.FormatUint(uint64(v.id), 10)
}

// addUse links o into the use list.
func (v *Value) addUse(o *Operand) {
	v.uses = append(v.uses, o)
}

// removeUse unlinks o from the use list.
func (v *Value) removeUse(o *Operand) {
	for i, u := range v.uses {
		if u == o {
			last := len(v.uses) - 1
			v.uses[i] = v.uses[last]
			v.uses[last] = nil
			v.uses = v.uses[:last]
			return
		}
	}
	panic("BUG: operand missing from use list of " + v.String())
}

// replaceUsesExcept redirects every use of v to newV, except uses owned by
// the instruction except. Typically except is newV's own producer.
func (v *Value) replaceUsesExcept(newV *Value, except *Instruction) {
	for i := 0; i < len(v.uses); {
		o := v.uses[i]
		if o.inst == except {
			i++
			continue
		}
		// set unlinks o from v.uses by swapping in the tail, so do not
		// advance i here.
		o.set(newV)
	}
}

// Operand is a single operand slot of an instruction: a reference to a
// Value together with the owning instruction and slot index.
type Operand struct {
	inst *Instruction
	slot int
	val  *Value
}

// Instruction returns the instruction owning this operand slot.
func (o *Operand) Instruction() *Instruction { return o.inst }

// Slot returns the operand's index within its instruction.
func (o *Operand) Slot() int { return o.slot }

// Value returns the value currently referenced by this operand.
func (o *Operand) Value() *Value { return o.val }

// set rewires this operand to reference v, maintaining both use lists.
func (o *Operand) set(v *Value) {
	if o.val != nil {
		o.val.removeUse(o)
	}
	o.val = v
	if v != nil {
		v.addUse(o)
	}
}
