// Package bytecode provides immutable representations of compiled IPA
// programs.
//
// This package defines the output of compilation: a [Program] holding every
// compiled [Function], the constant pool and the size of the static heap.
// These types are created once by the compiler and can be shared by any
// number of runtimes.
//
// # Key Types
//
//   - [Program]: the functions, constant pool and static layout of a build
//   - [Function]: one compiled function with its frame and argument layout
//   - [Code]: the instruction stream of a function body
//   - [SourceLocation]: maps an instruction to a source position
//
// # Immutability Guarantees
//
// All fields are unexported and constructors copy their input slices.
// Collections are reached by index:
//
//	fn := program.FunctionAt(0)
//	ins := fn.Code().InstructionAt(ip)
//
// # Images
//
// [Marshal] and [Unmarshal] convert a Program to and from a canonical CBOR
// image. Instructions travel as packed uint64 values, see op.Instruction.
// Every program carries a random build id that survives the round trip.
package bytecode
