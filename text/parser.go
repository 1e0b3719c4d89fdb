// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package text

import (
	"strconv"
	"strings"

	"github.com/gogpu/lir/ir"
)

// Parse parses the textual form of a module. Definitions must precede
// uses; block labels may be referenced before they are defined.
func Parse(src string) (*ir.Module, error) {
	p := &parser{lines: strings.Split(src, "\n")}
	return p.parseModule()
}

type parser struct {
	lines []string
	pos   int // index of the next line

	module  *ir.Module
	builder *ir.Builder
	blocks  map[string]*ir.Block
	values  map[string]*ir.Value
}

// line returns the current source line number, 1-based.
func (p *parser) line() int { return p.pos }

// next returns the fields of the next meaningful line, skipping blank
// lines and // comments. ok is false at end of input.
func (p *parser) next() (fields []string, ok bool) {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		p.pos++
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.ReplaceAll(line, ",", " ")
		if f := strings.Fields(line); len(f) > 0 {
			return f, true
		}
	}
	return nil, false
}

func (p *parser) parseModule() (*ir.Module, error) {
	p.module = &ir.Module{}
	for {
		fields, ok := p.next()
		if !ok {
			return p.module, nil
		}
		if len(fields) != 3 || fields[0] != "fn" || fields[2] != "{" {
			return nil, errorf(p.line(), "expected 'fn name {', got %q", strings.Join(fields, " "))
		}
		if err := p.parseFunction(fields[1]); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseFunction(name string) error {
	fn := p.module.NewFunction(name)
	p.builder = ir.NewBuilder(fn)
	p.blocks = make(map[string]*ir.Block)
	p.values = make(map[string]*ir.Value)

	// Collect labels first so branches can target any block of the
	// function and blocks are created in label order.
	start := p.pos
	for {
		fields, ok := p.next()
		if !ok {
			return errorf(p.line(), "function %s: missing closing '}'", name)
		}
		if len(fields) == 1 && fields[0] == "}" {
			break
		}
		if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
			label := strings.TrimSuffix(fields[0], ":")
			if _, dup := p.blocks[label]; dup {
				return errorf(p.line(), "duplicate block label %q", label)
			}
			p.blocks[label] = fn.NewBlock()
		}
	}
	end := p.pos
	p.pos = start

	for p.pos < end {
		fields, ok := p.next()
		if !ok || (len(fields) == 1 && fields[0] == "}") {
			break
		}
		if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
			p.builder.SetBlock(p.blocks[strings.TrimSuffix(fields[0], ":")])
			continue
		}
		if p.builder.Block() == nil {
			return errorf(p.line(), "instruction before the first block label")
		}
		if err := p.parseInstruction(fields); err != nil {
			return err
		}
	}
	p.pos = end
	return nil
}

//nolint:gocognit,gocyclo,cyclop // One arm per instruction mnemonic
func (p *parser) parseInstruction(fields []string) error {
	// Result form: "%n = mnemonic ..."
	var result string
	if len(fields) >= 3 && fields[1] == "=" {
		result = fields[0]
		if !strings.HasPrefix(result, "%") {
			return errorf(p.line(), "result name %q must start with %%", result)
		}
		if _, dup := p.values[result]; dup {
			return errorf(p.line(), "duplicate value name %q", result)
		}
		fields = fields[2:]
	}

	// Trailing ": n" component count.
	comps := -1
	if len(fields) >= 2 && fields[len(fields)-2] == ":" {
		n, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || n < 1 || n > ir.MaxComponents {
			return errorf(p.line(), "bad component count %q", fields[len(fields)-1])
		}
		comps = n
		fields = fields[:len(fields)-2]
	}

	mnemonic, args := fields[0], fields[1:]
	switch mnemonic {
	case "reg":
		n, err := p.parseCount(args)
		if err != nil {
			return err
		}
		return p.define(result, p.builder.DeclareRegister(n))

	case "const":
		if len(args) != 1 || comps < 0 {
			return errorf(p.line(), "const takes a bit pattern and ': n'")
		}
		bits, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return errorf(p.line(), "bad const bits %q", args[0])
		}
		return p.define(result, p.builder.Const(bits, comps))

	case "undef":
		if len(args) != 0 || comps < 0 {
			return errorf(p.line(), "undef takes only ': n'")
		}
		return p.define(result, p.builder.Undef(comps))

	case "load":
		reg, err := p.parseRegister(args, 1)
		if err != nil {
			return err
		}
		return p.define(result, p.builder.LoadRegister(reg))

	case "load.ind":
		reg, err := p.parseRegister(args, 2)
		if err != nil {
			return err
		}
		index, err := p.value(args[1])
		if err != nil {
			return err
		}
		return p.define(result, p.builder.LoadRegisterIndirect(reg, index))

	case "store":
		reg, val, mask, err := p.parseStoreArgs(args, 3)
		if err != nil {
			return err
		}
		p.builder.StoreRegister(reg, val, mask)
		return nil

	case "store.ind":
		reg, val, mask, err := p.parseStoreArgs(args, 4)
		if err != nil {
			return err
		}
		index, err := p.value(args[2])
		if err != nil {
			return err
		}
		p.builder.StoreRegisterIndirect(reg, val, index, mask)
		return nil

	case "intr":
		if len(args) < 1 {
			return errorf(p.line(), "intr needs a name")
		}
		if (result != "") != (comps >= 0) {
			return errorf(p.line(), "intr needs both a result name and ': n', or neither")
		}
		vals, err := p.valueList(args[1:])
		if err != nil {
			return err
		}
		inst := p.builder.Intrinsic(args[0], max(comps, 0), vals...)
		if result != "" {
			return p.define(result, inst.Result())
		}
		return nil

	case "br":
		if len(args) != 3 {
			return errorf(p.line(), "br takes a condition and two targets")
		}
		cond, err := p.value(args[0])
		if err != nil {
			return err
		}
		then, err := p.block(args[1])
		if err != nil {
			return err
		}
		els, err := p.block(args[2])
		if err != nil {
			return err
		}
		p.builder.Branch(cond, then, els)
		return nil

	case "jmp":
		if len(args) != 1 {
			return errorf(p.line(), "jmp takes one target")
		}
		target, err := p.block(args[0])
		if err != nil {
			return err
		}
		p.builder.Jump(target)
		return nil

	default:
		op, ok := aluOps[mnemonic]
		if !ok {
			return errorf(p.line(), "unknown instruction %q", mnemonic)
		}
		if comps < 0 {
			return errorf(p.line(), "%s needs a ': n' component count", mnemonic)
		}
		vals, err := p.valueList(args)
		if err != nil {
			return err
		}
		if len(vals) != aluArity[op] {
			return errorf(p.line(), "%s takes %d operands, got %d", mnemonic, aluArity[op], len(vals))
		}
		return p.define(result, p.builder.Alu(op, comps, vals...))
	}
}

var aluOps = map[string]ir.AluOp{
	"mov": ir.AluMov,
	"add": ir.AluAdd,
	"sub": ir.AluSub,
	"mul": ir.AluMul,
	"neg": ir.AluNeg,
	"min": ir.AluMin,
	"max": ir.AluMax,
	"dot": ir.AluDot,
	"fma": ir.AluFma,
}

var aluArity = map[ir.AluOp]int{
	ir.AluMov: 1,
	ir.AluAdd: 2,
	ir.AluSub: 2,
	ir.AluMul: 2,
	ir.AluNeg: 1,
	ir.AluMin: 2,
	ir.AluMax: 2,
	ir.AluDot: 2,
	ir.AluFma: 3,
}

func (p *parser) define(name string, v *ir.Value) error {
	if name == "" {
		return errorf(p.line(), "instruction produces a value but has no result name")
	}
	p.values[name] = v
	return nil
}

func (p *parser) value(name string) (*ir.Value, error) {
	v, ok := p.values[name]
	if !ok {
		return nil, errorf(p.line(), "undefined value %q", name)
	}
	return v, nil
}

func (p *parser) valueList(names []string) ([]*ir.Value, error) {
	vals := make([]*ir.Value, len(names))
	for i, n := range names {
		v, err := p.value(n)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (p *parser) block(label string) (*ir.Block, error) {
	b, ok := p.blocks[label]
	if !ok {
		return nil, errorf(p.line(), "undefined block label %q", label)
	}
	return b, nil
}

func (p *parser) parseCount(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errorf(p.line(), "expected a component count")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > ir.MaxComponents {
		return 0, errorf(p.line(), "bad component count %q", args[0])
	}
	return n, nil
}

func (p *parser) parseRegister(args []string, want int) (*ir.Value, error) {
	if len(args) != want {
		return nil, errorf(p.line(), "expected %d operands, got %d", want, len(args))
	}
	reg, err := p.value(args[0])
	if err != nil {
		return nil, err
	}
	if _, ok := reg.Producer().Kind.(ir.RegisterDecl); !ok {
		return nil, errorf(p.line(), "%s is not a register", args[0])
	}
	return reg, nil
}

// parseStoreArgs parses "reg, value, [index,] mask=..." with want total
// arguments, the mask always last.
func (p *parser) parseStoreArgs(args []string, want int) (*ir.Value, *ir.Value, ir.ComponentMask, error) {
	if len(args) != want {
		return nil, nil, 0, errorf(p.line(), "expected %d operands, got %d", want, len(args))
	}
	reg, err := p.parseRegister(args[:1], 1)
	if err != nil {
		return nil, nil, 0, err
	}
	val, err := p.value(args[1])
	if err != nil {
		return nil, nil, 0, err
	}
	mask, err := p.parseMask(args[want-1])
	if err != nil {
		return nil, nil, 0, err
	}
	return reg, val, mask, nil
}

func (p *parser) parseMask(arg string) (ir.ComponentMask, error) {
	comps, ok := strings.CutPrefix(arg, "mask=")
	if !ok {
		return 0, errorf(p.line(), "expected mask=..., got %q", arg)
	}
	var mask ir.ComponentMask
	for _, c := range comps {
		i := strings.IndexRune("xyzw", c)
		if i < 0 {
			return 0, errorf(p.line(), "bad mask component %q", c)
		}
		mask |= 1 << i
	}
	if mask == 0 {
		return 0, errorf(p.line(), "empty write mask")
	}
	return mask, nil
}
