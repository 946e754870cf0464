// Package embed is the host-facing embedding API: the thin surface a Go
// program links against to run Lumen source without going through the
// cmd/lumen CLI at all. It wraps *vm.VM with the operations section 6 of
// the language core's design fixes -- argv, load paths, evaluating source,
// calling closures, and swapping the current module -- without exposing
// any internal VM type to the caller.
package embed

import (
	"io"

	"github.com/lumenlang/lumen/internal/object"
	"github.com/lumenlang/lumen/internal/vm"
)

// VM is an embeddable Lumen interpreter instance.
type VM struct {
	machine *vm.VM
}

// New creates a VM with argv recorded for native code such as a future
// (command-line) binding and the core module already registered and
// imported into "user", matching what a freshly started vm.VM carries.
func New(argv []string) *VM {
	m := vm.New()
	m.SetArgv(argv)
	return &VM{machine: m}
}

// AddLoadPath appends a root directory searched when a module name is
// resolved to a .msc file.
func (v *VM) AddLoadPath(path string) { v.machine.AddLoadPath(path) }

// RegisterModule installs a host-defined module (built with
// RegisterFunc below, or constructed directly against internal/object) so
// Lumen source can `(module-import ...)` it by name.
func (v *VM) RegisterModule(name string) {
	m := object.NewModule(v.machine.InternString(name))
	m.NeedsInit = false
	v.machine.RegisterModule(name, m)
}

// RegisterFunc binds a Go function as a native procedure inside an
// already-registered module.
func (v *VM) RegisterFunc(moduleName, name string, fn func(argc int, args []Value) (Value, error)) error {
	return v.machine.RegisterNative(moduleName, name, func(host object.VMHost, argc int, rawArgs []object.Value) (object.Value, error) {
		wrapped := make([]Value, len(rawArgs))
		for i, a := range rawArgs {
			wrapped[i] = Value{v: a}
		}
		result, err := fn(argc, wrapped)
		if err != nil {
			return object.Value{}, host.RaiseError("%s", err)
		}
		return result.v, nil
	})
}

// EvalString compiles and runs source text against the current module,
// returning its last top-level form's result.
func (v *VM) EvalString(source, sourceName string) (Value, error) {
	val, err := v.machine.EvalString(source, sourceName)
	return Value{v: val}, err
}

// LoadFile compiles and runs every top-level form in a file on disk.
func (v *VM) LoadFile(path string) (Value, error) {
	val, err := v.machine.LoadFile(path)
	return Value{v: val}, err
}

// Call invokes a Lumen closure value with a pre-built argument array.
func (v *VM) Call(fn Value, args []Value) (Value, error) {
	closure, ok := fn.v.Obj.(*object.Closure)
	if !ok {
		return Value{}, v.machine.RaiseError("embed.Call expects a closure value.")
	}
	raw := make([]object.Value, len(args))
	for i, a := range args {
		raw[i] = a.v
	}
	val, err := v.machine.Call(closure, raw)
	return Value{v: val}, err
}

// CurrentModuleName returns the name of the module new top-level forms
// bind against.
func (v *VM) CurrentModuleName() string { return v.machine.CurrentModule().Name.Value }

// SetCurrentModule pins the module new top-level forms bind against to the
// named, already-loaded module.
func (v *VM) SetCurrentModule(name string) bool {
	m, ok := v.machine.Module(name)
	if !ok {
		return false
	}
	v.machine.SetCurrentModule(m)
	return true
}

// SetOutput redirects the VM's standard output port (what `display`
// writes to) to an arbitrary writer, e.g. an in-memory buffer in a test.
func (v *VM) SetOutput(w io.Writer) { v.machine.SetOutput(w) }

// Lookup resolves a binding by name in the current module, the embedding
// equivalent of a bare identifier reference.
func (v *VM) Lookup(name string) (Value, bool) {
	val, ok := v.machine.CurrentModule().Lookup(name)
	return Value{v: val}, ok
}
