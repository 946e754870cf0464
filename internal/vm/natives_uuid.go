package vm

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/object"
)

// registerUUIDNatives adds gensym and uuid-string to the core module. gensym
// returns a fresh symbol whose name is a prefix plus a real UUID rather than
// a process-global counter, so that two independently loaded modules can
// never collide.
func (vm *VM) registerUUIDNatives(core *object.Module) {
	def := func(name string, fn object.NativeFn) {
		nf := vm.NewNativeFunction(name, fn)
		core.Define(name, object.ObjVal(nf))
		core.Export(name)
	}

	def("gensym", nativeGensym)
	def("uuid-string", nativeUUIDString)
}

func nativeGensym(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc > 1 {
		return object.Value{}, host.RaiseError("gensym expects at most one prefix argument.")
	}
	prefix := "g"
	if argc == 1 {
		if !args[0].Is(object.KindString) && !args[0].Is(object.KindSymbol) {
			return object.Value{}, host.RaiseError("gensym prefix must be a string or symbol.")
		}
		prefix = object.TextOf(args[0].Obj)
		if prefix == "" {
			if sym, ok := args[0].Obj.(*object.Symbol); ok {
				prefix = sym.Name.Value
			}
		}
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("gensym requires a VM host.")
	}
	name := prefix + "-" + uuid.NewString()
	return object.ObjVal(vmHost.InternSymbol(name)), nil
}

func nativeUUIDString(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 0 {
		return object.Value{}, host.RaiseError("uuid-string expects no arguments.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("uuid-string requires a VM host.")
	}
	return object.ObjVal(vmHost.InternString(uuid.NewString())), nil
}
