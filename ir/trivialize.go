package ir

// If the IR contains
//
//	x = load r
//	use(x)
//
// a backend can translate use(x) by inspecting the producer of x and
// reading r directly. With an intervening store
//
//	x = load r
//	store r, y
//	use(x)
//
// that translation is wrong, since r has been overwritten, and detecting
// the hazard at translation time would need an O(n) walk per register read.
// TrivializeRegisters instead rewrites the module so every register access
// is trivial and the O(1) translation is always valid.
//
// A load is trivial if every use is in the same block with no intervening
// store to the loaded register. A store is trivial if the stored value has
// exactly one use (the store), is produced in the same block with no
// intervening load of the register (read-after-write) or overlapping store
// to it (write-after-write), the producer is an arithmetic/logic
// instruction, and for partial write masks the producer is not of a kind
// that historically could not write masked registers. Indirect accesses are
// never left in a tracked "maybe trivial" state: hazard reasoning under
// dynamic indexing would need whole-register liveness.
//
// Both rewrites are block-local single scans. Loads are handled by a
// forward scan with a per-register record of the most recent load whose
// window is still open; stores by a backward scan with a per-register
// table of candidate stores, one slot per component.

// TrivializeRegisters rewrites m in place so that every register load and
// store is trivial. The pass cannot fail; it panics on malformed input IR.
func TrivializeRegisters(m *Module) {
	for _, fn := range m.Functions {
		capacity := fn.NumValues()
		for _, blk := range fn.Blocks() {
			trivializeLoads(blk, capacity)
			trivializeStores(blk)
		}
	}
}

// copyAfterLoad makes load trivial by copying its result immediately after
// it and rewriting all other uses to read the copy. The load then has a
// single use with zero instructions in between, so no store can intervene
// on any control flow path. A load that already has that shape is left
// alone, which makes the rewrite idempotent.
func copyAfterLoad(load *Instruction) {
	def := load.result
	if u := def.SoleUse(); u != nil && u.inst == load.next {
		return
	}
	cp := newInstruction(Alu{Op: AluMov}, 1)
	cp.result = load.block.fn.newValue(cp, def.NumComponents())
	load.block.insertAfter(load, cp)
	def.replaceUsesExcept(cp.result, cp)
	cp.operands[0].set(def)

	if def.SoleUse() == nil {
		panic("BUG: load has stray uses after trivialization")
	}
}

// isolateStore makes store trivial by copying the stored value immediately
// before it and storing the copy instead. The copy's result has exactly one
// use, nothing intervenes between copy and store, the copy is an
// arithmetic/logic instruction, and any indirect index live at the store is
// also live at the copy. A store that already has that shape is left alone,
// which makes the rewrite idempotent.
func isolateStore(store *Instruction) {
	val := store.operands[storeSlotValue].val
	if u := val.SoleUse(); u != nil && u.inst == store && val.producer == store.prev && isAlu(val.producer) {
		return
	}
	cp := newInstruction(Alu{Op: AluMov}, 1)
	cp.result = store.block.fn.newValue(cp, val.NumComponents())
	cp.operands[0].set(val)
	store.block.insertBefore(store, cp)
	store.operands[storeSlotValue].set(cp.result)
}

// trivializeLoads runs the forward scan over blk. open, indexed by register
// handle ID, tracks the most recent load of each register with no
// intervening store yet: a load opens the window for its register, a store
// closes it. The window identifies the load instruction itself, not just
// the register: a later reload must not mask the hazard on an earlier
// load's use. Reads of a load whose window is not open are forced through
// a copy.
func trivializeLoads(blk *Block, capacity int) {
	open := make([]*Instruction, capacity)

	var next *Instruction
	for inst := blk.first; inst != nil; inst = next {
		next = inst.next

		for s := range inst.operands {
			trivializeOperand(&inst.operands[s], open)
		}

		switch inst.Kind.(type) {
		case LoadRegisterIndirect:
			// Indirect loads are never tracked as trivial.
			copyAfterLoad(inst)
		case LoadRegister:
			open[inst.Register().id] = inst
		case StoreRegister, StoreRegisterIndirect:
			open[inst.Register().id] = nil
		}
	}
}

// trivializeOperand copies the producer of o if it is a register load whose
// window is not open. The block-terminating branch condition is an operand
// like any other, so it takes the same path.
func trivializeOperand(o *Operand, open []*Instruction) {
	producer := o.val.producer
	if !producer.IsRegisterLoad() {
		return
	}
	if open[producer.Register().id] != producer {
		copyAfterLoad(producer)
	}
}

// trivializeStores runs the backward scan over blk. pending maps a register
// handle ID to one slot per component holding the most recently seen store
// of that component that has not yet been confirmed trivial or disproven.
// At every point of the scan, each store of the block is either already
// trivial, isolated, or present in pending.
func trivializeStores(blk *Block) {
	pending := make(map[ValueID][]*Instruction)

	var prev *Instruction
	for inst := blk.last; inst != nil; inst = prev {
		prev = inst.prev

		if inst.result != nil {
			settleUses(inst.result, blk, pending)
		}

		switch k := inst.Kind.(type) {
		case LoadRegister:
			// Read-after-write: a pending store past this load is not safe.
			isolatePending(inst.Register(), FullMask(inst.result.NumComponents()), pending)
		case LoadRegisterIndirect:
			// Dynamic index, assume the whole register is read.
			isolatePending(inst.Register(), FullMask(inst.Register().NumComponents()), pending)
		case StoreRegister:
			visitStore(inst, k.WriteMask, false, blk, pending)
		case StoreRegisterIndirect:
			visitStore(inst, k.WriteMask, true, blk, pending)
		}
	}
}

// settleUses resolves pending stores that consume def. Reaching the
// producer of a pending store's value operand proves the store trivial:
// nothing between producer and store disturbed the register. Reaching the
// register handle or the indirect index first means the value is defined
// even earlier, so a copy inserted at the store is the only placement that
// keeps every operand of the store dominated by its definition.
func settleUses(def *Value, blk *Block, pending map[ValueID][]*Instruction) {
	// isolateStore may rewire an operand of def if the stored value is
	// also used as a register index, so walk a snapshot.
	uses := append([]*Operand(nil), def.uses...)
	for _, use := range uses {
		store := use.inst
		if !store.IsRegisterStore() || store.block != blk {
			continue
		}
		if use.slot == storeSlotValue {
			if dropPending(store, pending) && def.NumUses() != 1 {
				panic("BUG: pending store value has multiple uses")
			}
		} else if dropPending(store, pending) {
			isolateStore(store)
		}
	}
}

// visitStore applies the write-after-write hazard check, then either
// isolates the store right away or registers it as the pending candidate
// for the components it writes.
func visitStore(store *Instruction, mask ComponentMask, indirect bool, blk *Block, pending map[ValueID][]*Instruction) {
	reg := store.Register()

	isolatePending(reg, mask, pending)

	val := store.operands[storeSlotValue].val
	producer := val.producer

	nontrivial := indirect ||
		// A trivial store's value must have the store as its only use.
		val.NumUses() != 1 ||
		// Written in the same block as the store.
		producer.block != blk ||
		// Immediates and undef could historically not write registers,
		// so backends expect SSA values here.
		isConstOrUndef(producer) ||
		// Partial write masks are only supported on arithmetic/logic
		// producers.
		(mask != FullMask(reg.NumComponents()) && !isAlu(producer)) ||
		// Register-to-register moves must stay explicit copies.
		producer.IsRegisterLoad()

	if nontrivial {
		isolateStore(store)
		return
	}

	slots := pending[reg.id]
	if slots == nil {
		slots = make([]*Instruction, reg.NumComponents())
		pending[reg.id] = slots
	}
	for c := range slots {
		if !mask.Has(c) {
			continue
		}
		if slots[c] != nil {
			panic("BUG: overlapping pending stores on component " + ComponentMask(1<<c).String())
		}
		slots[c] = store
	}
}

// isolatePending isolates every pending store of reg that writes a
// component in mask and removes it from the table.
func isolatePending(reg *Value, mask ComponentMask, pending map[ValueID][]*Instruction) {
	slots := pending[reg.id]
	for c := range slots {
		if !mask.Has(c) || slots[c] == nil {
			continue
		}
		store := slots[c]
		isolateStore(store)
		clearSlots(slots, store)
	}
}

// dropPending removes store from the table and reports whether it was
// pending. A store is never partially pending: either all components of
// its write mask occupy slots, or none do.
func dropPending(store *Instruction, pending map[ValueID][]*Instruction) bool {
	slots := pending[store.Register().id]
	if slots == nil {
		return false
	}
	var found ComponentMask
	for c, s := range slots {
		if s == store {
			found |= 1 << c
		}
	}
	if found == 0 {
		return false
	}
	if found != store.WriteMask() {
		panic("BUG: store is only partially pending")
	}
	clearSlots(slots, store)
	return true
}

func clearSlots(slots []*Instruction, store *Instruction) {
	for c, s := range slots {
		if s == store {
			slots[c] = nil
		}
	}
}

func isConstOrUndef(inst *Instruction) bool {
	switch inst.Kind.(type) {
	case Const, Undef:
		return true
	}
	return false
}

func isAlu(inst *Instruction) bool {
	_, ok := inst.Kind.(Alu)
	return ok
}
