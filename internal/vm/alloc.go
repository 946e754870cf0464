package vm

import "github.com/lumenlang/lumen/internal/object"

// track links a freshly allocated object into the VM's sweepable object
// list and charges its estimated size against the GC's growth threshold.
// Every allocation path in this package funnels through it -- the reader
// and compiler reach the same discipline only via the methods below, which
// is the entire point of the heap.Allocator interface.
func (vm *VM) track(o object.Object, size int) {
	o.SetNext(vm.objects)
	vm.objects = o
	vm.bytesAllocated += size
	if vm.bytesAllocated > vm.nextGC {
		vm.CollectGarbage()
	}
}

// NewCons implements heap.Allocator.
func (vm *VM) NewCons(car, cdr object.Value) *object.Cons {
	c := object.NewCons(car, cdr)
	vm.track(c, 32)
	return c
}

// NewArray implements heap.Allocator.
func (vm *VM) NewArray() *object.Array {
	a := object.NewArray()
	vm.track(a, 24)
	return a
}

// NewSyntax implements heap.Allocator.
func (vm *VM) NewSyntax(value object.Value, pos object.Position) *object.Syntax {
	s := object.NewSyntax(value, pos)
	vm.track(s, 48)
	return s
}

// NewFunction implements heap.Allocator.
func (vm *VM) NewFunction(kind object.FunctionKind) *object.Function {
	f := object.NewFunction(kind)
	vm.track(f, 64)
	return f
}

func (vm *VM) NewClosure(fn *object.Function, module *object.Module) *object.Closure {
	c := object.NewClosure(fn, module)
	vm.track(c, 24+8*fn.UpvalueCount)
	return c
}

func (vm *VM) NewUpvalue(location int) *object.Upvalue {
	u := object.NewUpvalue(location)
	vm.track(u, 24)
	return u
}

func (vm *VM) NewModule(name *object.String) *object.Module {
	m := object.NewModule(name)
	vm.track(m, 64)
	return m
}

func (vm *VM) NewStackMarker(kind object.StackMarkerKind, frameIndex int) *object.StackMarker {
	s := object.NewStackMarker(kind, frameIndex)
	vm.track(s, 16)
	return s
}

func (vm *VM) NewContinuation(frames []object.Frame, stack []object.Value) *object.Continuation {
	c := object.NewContinuation(frames, stack)
	vm.track(c, 32+32*len(frames)+16*len(stack))
	return c
}

func (vm *VM) NewNativeFunction(name string, fn object.NativeFn) *object.NativeFunction {
	n := object.NewNativeFunction(name, fn)
	vm.track(n, 32)
	return n
}

func (vm *VM) NewPointer(typ *object.PointerType, ptr interface{}) *object.Pointer {
	p := object.NewPointer(typ, ptr)
	vm.track(p, 24)
	return p
}

func (vm *VM) NewRecord(name *object.String) *object.Record {
	r := object.NewRecord(name)
	vm.track(r, 32)
	return r
}

func (vm *VM) NewRecordField(name *object.String, def object.Value) *object.RecordField {
	f := object.NewRecordField(name, def)
	vm.track(f, 32)
	return f
}

func (vm *VM) NewRecordFieldAccessor(rt *object.Record, idx int) *object.RecordFieldAccessor {
	a := object.NewRecordFieldAccessor(rt, idx)
	vm.track(a, 24)
	return a
}

func (vm *VM) NewRecordFieldSetter(rt *object.Record, idx int) *object.RecordFieldSetter {
	s := object.NewRecordFieldSetter(rt, idx)
	vm.track(s, 24)
	return s
}

func (vm *VM) NewRecordPredicate(rt *object.Record) *object.RecordPredicate {
	p := object.NewRecordPredicate(rt)
	vm.track(p, 16)
	return p
}

func (vm *VM) NewRecordInstance(rt *object.Record) *object.RecordInstance {
	i := object.NewRecordInstance(rt)
	vm.track(i, 24+16*len(rt.Fields))
	return i
}

// NewErr allocates a structured runtime error value. Unlike RaiseError this
// doesn't unwind anything by itself -- native functions return it as an
// ordinary value and callNative recognizes the kind.
func (vm *VM) NewErr(message, file string, line int) *object.Err {
	e := object.NewErr(message, file, line)
	vm.track(e, 32+len(message)+len(file))
	return e
}

// InternString implements heap.Allocator: strings are interned so
// structural equality implies pointer identity.
func (vm *VM) InternString(s string) *object.String {
	if existing, ok := vm.strings[s]; ok {
		return existing
	}
	str := object.NewString(s)
	vm.track(str, 16+len(s))
	vm.strings[s] = str
	return str
}

// InternSymbol implements heap.Allocator.
func (vm *VM) InternSymbol(name string) *object.Symbol {
	if existing, ok := vm.symbols[name]; ok {
		return existing
	}
	// Push the backing name string while the symbol is built so that a
	// collection triggered by the symbol's own allocation can't free it.
	nameStr := vm.InternString(name)
	vm.Push(object.ObjVal(nameStr))
	sym := object.NewSymbol(nameStr)
	vm.track(sym, 24)
	vm.Pop()
	vm.symbols[name] = sym
	return sym
}

// InternKeyword implements heap.Allocator.
func (vm *VM) InternKeyword(s string) *object.Keyword {
	if existing, ok := vm.keywords[s]; ok {
		return existing
	}
	kw := object.NewKeyword(s)
	vm.track(kw, 16+len(s))
	vm.keywords[s] = kw
	return kw
}
