// Package compiler turns circuit source files into ir.Definition lists.
//
// Two source formats are supported:
//
// The puzzle text format, one module per line:
//
//	broadcaster -> a, b, c
//	%a -> b
//	&inv -> a
//	%c ->
//
// A missing marker declares the broadcaster, "%" a flip-flop and "&" a
// conjunction. Blank lines and lines starting with "#" are ignored.
//
// The CUE format, where declaration order is preserved:
//
//	module: broadcaster: {kind: "broadcaster", targets: ["a"]}
//	module: a: {kind: "flipflop", targets: ["inv"]}
//	module: inv: {kind: "conjunction", targets: ["rx"]}
//
// The compiler checks syntax, and Validate checks names. Structural rules
// (one broadcaster, no duplicate definitions, no runaway loops) are enforced
// by the registry.
package compiler
