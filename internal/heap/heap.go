// Package heap declares the narrow allocation surface the reader and
// compiler need from the virtual machine. Every heap object, without
// exception, is created through these methods so that the VM's garbage
// collector -- not the reader or compiler -- decides when an object is
// linked into the sweepable object list and when a collection runs.
package heap

import "github.com/lumenlang/lumen/internal/object"

// Allocator is implemented by *vm.VM. Passing it (rather than the concrete
// VM type) to the reader and compiler keeps those packages free of an
// import-cycle dependency on package vm.
type Allocator interface {
	NewCons(car, cdr object.Value) *object.Cons
	NewArray() *object.Array
	NewSyntax(value object.Value, pos object.Position) *object.Syntax
	NewFunction(kind object.FunctionKind) *object.Function

	// InternString/InternSymbol/InternKeyword return the single interned
	// object for the given text, allocating and registering it only the
	// first time that text is seen.
	InternString(s string) *object.String
	InternSymbol(name string) *object.Symbol
	InternKeyword(s string) *object.Keyword

	// Push/Pop give the reader and compiler a way to root a partially
	// built object on the VM's value stack before making further
	// allocations that could trigger a collection.
	Push(object.Value)
	Pop() object.Value
}
