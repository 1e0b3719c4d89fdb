// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package text

import (
	"strings"
	"testing"

	"github.com/gogpu/lir/ir"
)

const roundTripSrc = `fn main {
b0:
  %0 = reg 4
  %1 = const 0x3f800000 : 4
  %2 = load %0
  %3 = add %2 %1 : 4
  store %0, %3, mask=xyzw
  %4 = intr sample %3 : 1
  br %4 b1 b2
b1:
  %5 = undef : 4
  store %0, %5, mask=xy
  jmp b2
b2:
  %6 = load.ind %0 %1
  store.ind %0, %6, %1, mask=x
}
`

func TestParse_RoundTrip(t *testing.T) {
	m, err := Parse(roundTripSrc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := Write(m); got != roundTripSrc {
		t.Errorf("round trip mismatch:\ngot:\n%s\nwant:\n%s", got, roundTripSrc)
	}
}

func TestParse_Structure(t *testing.T) {
	m, err := Parse(roundTripSrc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(m.Functions))
	}
	fn := m.Functions[0]
	if fn.Name != "main" {
		t.Errorf("function name = %q, want main", fn.Name)
	}
	blocks := fn.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}

	var loads, stores int
	for _, blk := range blocks {
		for inst := blk.First(); inst != nil; inst = inst.Next() {
			if inst.IsRegisterLoad() {
				loads++
			}
			if inst.IsRegisterStore() {
				stores++
			}
		}
	}
	if loads != 2 || stores != 3 {
		t.Errorf("got %d loads and %d stores, want 2 and 3", loads, stores)
	}

	errs, err := ir.Validate(m)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(errs) != 0 {
		t.Errorf("parsed module fails validation: %v", errs)
	}
}

func TestParse_CommentsAndBlankLines(t *testing.T) {
	src := `
// leading comment
fn f { // trailing comment
b0:

  %0 = undef : 1 // result comment
}
`
	m, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := "fn f {\nb0:\n  %0 = undef : 1\n}\n"
	if got := Write(m); got != want {
		t.Errorf("Write = %q, want %q", got, want)
	}
}

func TestParse_ForwardBranchTarget(t *testing.T) {
	src := `fn f {
b0:
  %0 = undef : 1
  br %0 b2 b1
b1:
  jmp b2
b2:
}
`
	m, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := Write(m); got != src {
		t.Errorf("round trip mismatch:\ngot:\n%s\nwant:\n%s", got, src)
	}
}

func TestParse_TwoFunctions(t *testing.T) {
	src := `fn a {
b0:
  %0 = reg 1
}
fn b {
b0:
  %0 = reg 2
}
`
	m, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Functions) != 2 {
		t.Fatalf("got %d functions, want 2", len(m.Functions))
	}
	// Value names are scoped per function.
	if m.Functions[0].Name != "a" || m.Functions[1].Name != "b" {
		t.Errorf("function names = %q, %q", m.Functions[0].Name, m.Functions[1].Name)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "not a function header",
			src:  "blk {\n}\n",
			want: "expected 'fn name {'",
		},
		{
			name: "missing closing brace",
			src:  "fn f {\nb0:\n",
			want: "missing closing '}'",
		},
		{
			name: "instruction before label",
			src:  "fn f {\n  %0 = undef : 1\n}\n",
			want: "before the first block label",
		},
		{
			name: "duplicate label",
			src:  "fn f {\nb0:\nb0:\n}\n",
			want: "duplicate block label",
		},
		{
			name: "duplicate value name",
			src:  "fn f {\nb0:\n  %0 = undef : 1\n  %0 = undef : 1\n}\n",
			want: "duplicate value name",
		},
		{
			name: "undefined value",
			src:  "fn f {\nb0:\n  %0 = mov %9 : 1\n}\n",
			want: "undefined value",
		},
		{
			name: "undefined block label",
			src:  "fn f {\nb0:\n  jmp b7\n}\n",
			want: "undefined block label",
		},
		{
			name: "unknown mnemonic",
			src:  "fn f {\nb0:\n  %0 = frobnicate : 1\n}\n",
			want: "unknown instruction",
		},
		{
			name: "bad component count",
			src:  "fn f {\nb0:\n  %0 = reg 9\n}\n",
			want: "bad component count",
		},
		{
			name: "bad const bits",
			src:  "fn f {\nb0:\n  %0 = const zzz : 1\n}\n",
			want: "bad const bits",
		},
		{
			name: "store to non-register",
			src:  "fn f {\nb0:\n  %0 = undef : 1\n  store %0, %0, mask=x\n}\n",
			want: "not a register",
		},
		{
			name: "bad mask component",
			src:  "fn f {\nb0:\n  %0 = reg 1\n  %1 = undef : 1\n  store %0, %1, mask=q\n}\n",
			want: "bad mask component",
		},
		{
			name: "empty mask",
			src:  "fn f {\nb0:\n  %0 = reg 1\n  %1 = undef : 1\n  store %0, %1, mask=\n}\n",
			want: "empty write mask",
		},
		{
			name: "alu arity mismatch",
			src:  "fn f {\nb0:\n  %0 = undef : 1\n  %1 = add %0 : 1\n}\n",
			want: "add takes 2 operands",
		},
		{
			name: "alu missing component count",
			src:  "fn f {\nb0:\n  %0 = undef : 1\n  %1 = mov %0\n}\n",
			want: "needs a ': n' component count",
		},
		{
			name: "intr result without count",
			src:  "fn f {\nb0:\n  %0 = intr sample\n}\n",
			want: "intr needs both",
		},
		{
			name: "result without name",
			src:  "fn f {\nb0:\n  undef : 1\n}\n",
			want: "no result name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			if err == nil {
				t.Fatalf("Parse succeeded, want error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestParseError_Line(t *testing.T) {
	src := "fn f {\nb0:\n  %0 = mov %9 : 1\n}\n"
	_, err := Parse(src)
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if perr.Line != 3 {
		t.Errorf("Line = %d, want 3", perr.Line)
	}
}
