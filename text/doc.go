// Package text implements the textual form of the lir IR.
//
// The format is line oriented: one instruction per line, values written as
// %N, block labels as bN:, and functions grouped in fn name { ... } blocks.
//
//	fn main {
//	b0:
//	  %0 = reg 4
//	  %1 = load %0
//	  %2 = add %1 %1 : 4
//	  store %0, %2, mask=xyzw
//	}
//
// Write produces the canonical form: values are renumbered in order of
// appearance, so writing a parsed module reproduces the input byte for
// byte. Parse accepts // comments and blank lines.
package text
