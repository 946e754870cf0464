package vm

import (
	"strconv"

	"github.com/lumenlang/lumen/internal/object"
)

// registerCoreModule builds the "core" module every fresh VM starts with its
// bindings already imported into "user", the same way the reference
// interpreter preloads its builtin procedure table before the first form
// ever runs. Everything here is a NativeFunction rather than compiled
// bytecode: the handful of operators the compiler itself recognizes (+,
// cons, list, ...) stay opcodes for speed, and everything else -- list and
// string utilities, conversions, the ad-hoc foreign bindings below -- is an
// ordinary call-position value like any closure. + is also bound here so
// that it can be passed as a value, e.g. to apply.
func (vm *VM) registerCoreModule() *object.Module {
	core := vm.NewModule(vm.InternString("core"))
	core.NeedsInit = false
	vm.modules["core"] = core

	def := func(name string, fn object.NativeFn) {
		nf := vm.NewNativeFunction(name, fn)
		core.Define(name, object.ObjVal(nf))
		core.Export(name)
	}

	def("+", func(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
		sum := 0.0
		for _, a := range args {
			if !a.IsNumber() {
				return object.Value{}, host.RaiseError("Operands must be numbers.")
			}
			sum += a.Num
		}
		return object.NumberVal(sum), nil
	})
	def("car", nativeCar)
	def("cdr", nativeCdr)
	def("length", nativeLength)
	def("append", nativeAppend)
	def("reverse", nativeReverse)
	def("list-ref", nativeListRef)
	def("null?", nativeNullP)
	def("pair?", nativePairP)
	def("number->string", nativeNumberToString)
	def("string->number", nativeStringToNumber)
	def("string->symbol", nativeStringToSymbol)
	def("symbol->string", nativeSymbolToString)
	def("string-append", nativeStringAppend)
	def("string-length", nativeStringLength)
	def("error", nativeError)

	return core
}

func nativeCar(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 {
		return object.Value{}, host.RaiseError("car expects a single pair argument.")
	}
	cons, ok := args[0].Obj.(*object.Cons)
	if !args[0].Is(object.KindCons) || !ok {
		return object.Value{}, host.RaiseError("car expects a pair.")
	}
	return cons.Car, nil
}

func nativeCdr(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 {
		return object.Value{}, host.RaiseError("cdr expects a single pair argument.")
	}
	cons, ok := args[0].Obj.(*object.Cons)
	if !args[0].Is(object.KindCons) || !ok {
		return object.Value{}, host.RaiseError("cdr expects a pair.")
	}
	return cons.Cdr, nil
}

func nativeLength(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 {
		return object.Value{}, host.RaiseError("length expects a single list argument.")
	}
	items, ok := object.ListToSlice(args[0])
	if !ok {
		return object.Value{}, host.RaiseError("length expects a proper list.")
	}
	return object.NumberVal(float64(len(items))), nil
}

func nativeAppend(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	var all []object.Value
	for i, a := range args {
		items, ok := object.ListToSlice(a)
		if !ok {
			return object.Value{}, host.RaiseError("append expects proper lists.")
		}
		if i == len(args)-1 && len(items) == 0 && !a.IsEmpty() {
			return object.Value{}, host.RaiseError("append expects proper lists.")
		}
		all = append(all, items...)
	}
	return object.SliceToList(all), nil
}

func nativeReverse(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 {
		return object.Value{}, host.RaiseError("reverse expects a single list argument.")
	}
	items, ok := object.ListToSlice(args[0])
	if !ok {
		return object.Value{}, host.RaiseError("reverse expects a proper list.")
	}
	reversed := make([]object.Value, len(items))
	for i, v := range items {
		reversed[len(items)-1-i] = v
	}
	return object.SliceToList(reversed), nil
}

func nativeListRef(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 2 || !args[1].IsNumber() {
		return object.Value{}, host.RaiseError("list-ref expects a list and an index.")
	}
	items, ok := object.ListToSlice(args[0])
	if !ok {
		return object.Value{}, host.RaiseError("list-ref expects a proper list.")
	}
	idx := int(args[1].Num)
	if idx < 0 || idx >= len(items) {
		return object.Value{}, host.RaiseError("list-ref index %d out of range.", idx)
	}
	return items[idx], nil
}

func nativeNullP(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 {
		return object.Value{}, host.RaiseError("null? expects a single argument.")
	}
	return object.BoolVal(args[0].IsEmpty()), nil
}

func nativePairP(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 {
		return object.Value{}, host.RaiseError("pair? expects a single argument.")
	}
	return object.BoolVal(args[0].Is(object.KindCons)), nil
}

func nativeNumberToString(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].IsNumber() {
		return object.Value{}, host.RaiseError("number->string expects a number.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("number->string requires a VM host.")
	}
	return object.ObjVal(vmHost.InternString(object.Inspect(args[0]))), nil
}

func nativeStringToNumber(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].Is(object.KindString) {
		return object.Value{}, host.RaiseError("string->number expects a string.")
	}
	n, err := strconv.ParseFloat(args[0].Obj.(*object.String).Value, 64)
	if err != nil {
		return object.BoolVal(false), nil
	}
	return object.NumberVal(n), nil
}

func nativeStringToSymbol(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].Is(object.KindString) {
		return object.Value{}, host.RaiseError("string->symbol expects a string.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("string->symbol requires a VM host.")
	}
	return object.ObjVal(vmHost.InternSymbol(args[0].Obj.(*object.String).Value)), nil
}

func nativeSymbolToString(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].Is(object.KindSymbol) {
		return object.Value{}, host.RaiseError("symbol->string expects a symbol.")
	}
	return object.ObjVal(args[0].Obj.(*object.Symbol).Name), nil
}

func nativeStringAppend(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("string-append requires a VM host.")
	}
	var out string
	for _, a := range args {
		if !a.Is(object.KindString) {
			return object.Value{}, host.RaiseError("string-append expects string arguments.")
		}
		out += a.Obj.(*object.String).Value
	}
	return object.ObjVal(vmHost.InternString(out)), nil
}

func nativeStringLength(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].Is(object.KindString) {
		return object.Value{}, host.RaiseError("string-length expects a string.")
	}
	return object.NumberVal(float64(len(args[0].Obj.(*object.String).Value))), nil
}

// nativeError builds an *object.Err from its arguments rather than calling
// RaiseError directly, exercising the callNative unwind path documented in
// errorobj.go.
func nativeError(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	msg := ""
	for i, a := range args {
		if i > 0 {
			msg += " "
		}
		msg += object.Display(a)
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("%s", msg)
	}
	file, line := "", 0
	if vmHost.frameCount > 0 {
		frame := &vmHost.frames[vmHost.frameCount-1]
		chunk := frame.Closure.Function.Chunk
		file = chunk.FileName
		if frame.IP > 0 && frame.IP-1 < len(chunk.Lines) {
			line = chunk.Lines[frame.IP-1]
		}
	}
	return object.ObjVal(vmHost.NewErr(msg, file, line)), nil
}
