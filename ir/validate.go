package ir

import (
	"fmt"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Optional context
	Function string
	Block    int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Function != "" {
		if e.Block >= 0 {
			return fmt.Sprintf("in function %s, block b%d: %s", e.Function, e.Block, e.Message)
		}
		return fmt.Sprintf("in function %s: %s", e.Function, e.Message)
	}
	return e.Message
}

// validator validates IR modules.
type validator struct {
	errors []ValidationError

	function string
	block    int
}

// Validate checks the IR module for structural well-formedness: def/use
// symmetry, operand kinds of register accesses, write mask bounds, and
// branch placement. Returns validation errors if any, or nil if the module
// is valid.
func Validate(module *Module) ([]ValidationError, error) {
	if module == nil {
		return nil, fmt.Errorf("module is nil")
	}

	v := &validator{block: -1}
	for _, fn := range module.Functions {
		v.validateFunction(fn)
	}

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Message:  fmt.Sprintf(format, args...),
		Function: v.function,
		Block:    v.block,
	})
}

func (v *validator) validateFunction(fn *Function) {
	v.function = fn.Name
	defer func() { v.function = ""; v.block = -1 }()

	seen := make(map[ValueID]bool, fn.NumValues())
	for _, blk := range fn.Blocks() {
		v.block = blk.ID()
		for inst := blk.First(); inst != nil; inst = inst.Next() {
			v.validateInstruction(fn, blk, inst, seen)
		}
	}
}

//nolint:gocognit,gocyclo,cyclop // Instruction validation checks many kinds
func (v *validator) validateInstruction(fn *Function, blk *Block, inst *Instruction, seen map[ValueID]bool) {
	if inst.Block() != blk {
		v.addError("%s: instruction belongs to block b%d", inst, inst.Block().ID())
	}

	if r := inst.Result(); r != nil {
		if r.Producer() != inst {
			v.addError("%s: result %s has wrong producer", inst, r)
		}
		if int(r.ID()) >= fn.NumValues() {
			v.addError("%s: result %s out of ID range", inst, r)
		}
		if seen[r.ID()] {
			v.addError("%s: duplicate value ID %s", inst, r)
		}
		seen[r.ID()] = true
		if r.NumComponents() < 1 || r.NumComponents() > MaxComponents {
			v.addError("%s: result %s has %d components", inst, r, r.NumComponents())
		}
	}

	for s := 0; s < inst.NumOperands(); s++ {
		op := inst.Operand(s)
		val := op.Value()
		if val == nil {
			v.addError("%s: operand %d is nil", inst, s)
			continue
		}
		linked := false
		for _, u := range val.Uses() {
			if u == op {
				linked = true
				break
			}
		}
		if !linked {
			v.addError("%s: operand %d missing from use list of %s", inst, s, val)
		}
	}

	switch k := inst.Kind.(type) {
	case RegisterDecl:
		if int(k.NumComponents) != inst.Result().NumComponents() {
			v.addError("register %s declares %d components but result has %d",
				inst.Result(), k.NumComponents, inst.Result().NumComponents())
		}
	case LoadRegister, LoadRegisterIndirect:
		v.validateRegisterOperand(inst)
	case StoreRegister, StoreRegisterIndirect:
		v.validateRegisterOperand(inst)
		v.validateStore(inst)
	case Branch:
		if inst.Next() != nil {
			v.addError("branch is not the last instruction of the block")
		}
		if k.Then == nil {
			v.addError("branch has no target")
		}
		switch inst.NumOperands() {
		case 0:
			if k.Else != nil {
				v.addError("jump has an else target")
			}
		case 1:
			if k.Else == nil {
				v.addError("conditional branch has no else target")
			}
			if c := inst.Operand(0).Value(); c != nil && c.NumComponents() != 1 {
				v.addError("branch condition %s has %d components", c, c.NumComponents())
			}
		default:
			v.addError("branch has %d operands", inst.NumOperands())
		}
	}
}

func (v *validator) validateRegisterOperand(inst *Instruction) {
	reg := inst.Register()
	if reg == nil {
		return
	}
	if _, ok := reg.Producer().Kind.(RegisterDecl); !ok {
		v.addError("%s: register operand %s is not a register declaration", inst, reg)
	}
}

func (v *validator) validateStore(inst *Instruction) {
	reg := inst.Register()
	if reg == nil {
		return
	}
	mask := inst.WriteMask()
	if mask == 0 {
		v.addError("%s to %s has an empty write mask", inst, reg)
	}
	if mask&^FullMask(reg.NumComponents()) != 0 {
		v.addError("%s to %s writes mask %s outside the register's %d components",
			inst, reg, mask, reg.NumComponents())
	}
	if val := inst.StoredValue(); val != nil && val.NumComponents() != reg.NumComponents() {
		v.addError("%s to %s stores %d components into a %d component register",
			inst, reg, val.NumComponents(), reg.NumComponents())
	}
}

// ValidateTrivial checks the postconditions established by
// TrivializeRegisters: every register load has only same-block uses with no
// intervening store to the loaded register, and every register store's
// value is a single-use, same-block, arithmetic/logic producer with no
// intervening hazard and a defensible write mask. It is used by tests and
// by callers that want to assert the pass's contract.
func ValidateTrivial(module *Module) []ValidationError {
	v := &validator{block: -1}
	for _, fn := range module.Functions {
		v.function = fn.Name
		for _, blk := range fn.Blocks() {
			v.block = blk.ID()
			for inst := blk.First(); inst != nil; inst = inst.Next() {
				if inst.IsRegisterLoad() {
					v.checkTrivialLoad(inst)
				}
				if inst.IsRegisterStore() {
					v.checkTrivialStore(blk, inst)
				}
			}
		}
	}
	return v.errors
}

func (v *validator) checkTrivialLoad(load *Instruction) {
	reg := load.Register()
	for _, use := range load.Result().Uses() {
		if use.Instruction().Block() != load.Block() {
			v.addError("load of %s is used in block b%d", reg, use.Instruction().Block().ID())
			continue
		}
		for cur := load.Next(); cur != use.Instruction(); cur = cur.Next() {
			if cur == nil {
				v.addError("load of %s is used before it", reg)
				break
			}
			if cur.IsRegisterStore() && cur.Register() == reg {
				v.addError("store to %s intervenes between load and use", reg)
				break
			}
		}
	}
}

//nolint:gocognit // Store triviality has many independent conditions
func (v *validator) checkTrivialStore(blk *Block, store *Instruction) {
	reg := store.Register()
	val := store.StoredValue()
	producer := val.Producer()

	if val.NumUses() != 1 {
		v.addError("value %s stored to %s has %d uses", val, reg, val.NumUses())
	}
	if producer.Block() != blk {
		v.addError("value %s stored to %s is produced in block b%d", val, reg, producer.Block().ID())
		return
	}
	if isConstOrUndef(producer) {
		v.addError("value %s stored to %s is a %s", val, reg, producer)
	}
	if producer.IsRegisterLoad() {
		v.addError("value %s stored to %s is a register load", val, reg)
	}
	if store.WriteMask() != FullMask(reg.NumComponents()) && !isAlu(producer) {
		v.addError("masked store to %s has non arithmetic/logic producer %s", reg, producer)
	}

	// No hazard between the producer and the store.
	for cur := producer.Next(); cur != store; cur = cur.Next() {
		if cur == nil {
			v.addError("value %s stored to %s is produced after the store", val, reg)
			return
		}
		if cur.IsRegisterLoad() && cur.Register() == reg {
			v.addError("load of %s intervenes between producer and store", reg)
		}
		if cur.IsRegisterStore() && cur.Register() == reg && cur.WriteMask()&store.WriteMask() != 0 {
			v.addError("overlapping store to %s intervenes between producer and store", reg)
		}
	}

	// An indirect index must be live at the producer.
	if _, ok := store.Kind.(StoreRegisterIndirect); ok {
		index := store.Operand(storeSlotIndex).Value()
		if index.Producer().Block() == blk && !precedes(index.Producer(), producer) {
			v.addError("indirect index %s of store to %s is not live at the producer", index, reg)
		}
	}
}

// precedes reports whether a comes strictly before b in their block.
func precedes(a, b *Instruction) bool {
	for cur := a.Next(); cur != nil; cur = cur.Next() {
		if cur == b {
			return true
		}
	}
	return false
}
