package object

// VMHost is the minimal surface a native function needs from the VM: push
// arguments onto / read them off of the value stack and raise a structured
// runtime error. It is an interface (rather than a direct dependency on
// package vm) so that package object never imports package vm.
type VMHost interface {
	Push(Value)
	Pop() Value
	RaiseError(format string, args ...interface{}) error
}

// NativeFn is the Go-side shape every native function binding implements:
// it receives the host, the argument count, and a slice pointing at the
// arguments (positional values followed by any keyword pairs) and returns
// the call's result.
type NativeFn func(host VMHost, argc int, args []Value) (Value, error)

// NativeFunction wraps a foreign callable with a name used for error
// messages and disassembly.
type NativeFunction struct {
	Header
	Name string
	Fn   NativeFn
}

func NewNativeFunction(name string, fn NativeFn) *NativeFunction {
	return &NativeFunction{Header: NewHeader(KindNativeFunction), Name: name, Fn: fn}
}

// PointerType carries optional GC hooks for an opaque foreign pointer.
type PointerType struct {
	Name     string
	MarkFunc func(ptr interface{})
	FreeFunc func(ptr interface{})
}

// Pointer wraps a foreign resource (a file handle, a database connection,
// ...) that the GC should free when the Pointer becomes unreachable.
type Pointer struct {
	Header
	Type *PointerType
	Ptr  interface{}
}

func NewPointer(typ *PointerType, ptr interface{}) *Pointer {
	return &Pointer{Header: NewHeader(KindPointer), Type: typ, Ptr: ptr}
}
