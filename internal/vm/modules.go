package vm

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lumenlang/lumen/internal/compiler"
	"github.com/lumenlang/lumen/internal/object"
	"github.com/lumenlang/lumen/internal/reader"
)

// opDefineModule implements DEFINE_MODULE: it binds (creating if needed) the
// module named by the path string on top of the stack, makes it current for
// both the VM and the executing frame's closure, and leaves it as the
// form's value.
func (vm *VM) opDefineModule() error {
	frame := vm.frame()
	nameVal := vm.Pop()
	name := nameVal.Obj.(*object.String).Value

	mod, ok := vm.modules[name]
	if !ok {
		mod = vm.NewModule(vm.InternString(name))
		mod.NeedsInit = false
		vm.modules[name] = mod
	}
	vm.currentModule = mod
	frame.Closure.Module = mod
	vm.Push(object.ObjVal(mod))
	return nil
}

// opImportModule implements IMPORT_MODULE: it resolves the named module
// (loading it from a load path if this is the first reference to it) and
// copies its exported bindings into the current module's own locals, the
// way a single flat lookup table can serve both local and imported names
// without READ_GLOBAL ever having to search a module graph.
func (vm *VM) opImportModule() error {
	name := vm.Pop().Obj.(*object.String).Value
	mod, err := vm.resolveModule(name)
	if err != nil {
		return err
	}
	cur := vm.currentModule
	for exported := range mod.Exports {
		if v, ok := mod.Locals[exported]; ok {
			cur.Define(exported, v)
		}
	}
	cur.Imports = append(cur.Imports, mod)
	vm.Push(object.ObjVal(mod))
	return nil
}

// opEnterModule implements ENTER_MODULE: it switches the current module
// outright, without copying any bindings -- the form exists so a file can
// reopen a module it (or another file) already populated and keep adding
// definitions to it.
func (vm *VM) opEnterModule() error {
	frame := vm.frame()
	name := vm.Pop().Obj.(*object.String).Value
	mod, err := vm.resolveModule(name)
	if err != nil {
		return err
	}
	vm.currentModule = mod
	frame.Closure.Module = mod
	vm.Push(object.ObjVal(mod))
	return nil
}

// opLoadFile implements LOAD_FILE: it reads, compiles, and runs every
// top-level form in the named source file against the current module,
// leaving the last form's value (or unspecified, for an empty file) as
// LOAD_FILE's own result.
func (vm *VM) opLoadFile() error {
	pathVal := vm.Pop()
	str, ok := pathVal.Obj.(*object.String)
	if !ok {
		return vm.RaiseError("load-file expects a string path.")
	}
	result, err := vm.loadFile(str.Value, vm.currentModule)
	if err != nil {
		return err
	}
	vm.Push(result)
	return nil
}

// LoadFile reads, compiles, and runs every top-level form in the file at
// path against the VM's current module. It is the embedding host's entry
// point for running a whole source file, exported from the otherwise
// internal loadFile helper LOAD_FILE and module resolution also share.
func (vm *VM) LoadFile(path string) (object.Value, error) {
	return vm.loadFile(path, vm.currentModule)
}

// EvalString compiles and runs every top-level form in src, a fragment of
// source text rather than a file on the load path, against the VM's current
// module -- the embedding host's hook for evaluating a string (e.g. a REPL
// line or a value received from the host application).
func (vm *VM) EvalString(src, sourceName string) (object.Value, error) {
	r := reader.New(src, sourceName, vm)
	forms, err := r.ReadAll()
	if err != nil {
		return object.Value{}, vm.RaiseError("%s", err)
	}

	result := object.UnspecifiedVal()
	for _, form := range forms {
		c := compiler.New(vm, sourceName)
		vm.SetCompilerRoots(c)
		fn := c.Compile(form)
		vm.SetCompilerRoots(nil)
		if fn == nil {
			errs := c.Errors()
			return object.Value{}, vm.RaiseError("%s", errs[0].Error())
		}
		value, err := vm.Interpret(fn)
		if err != nil {
			return object.Value{}, err
		}
		result = value
	}
	return result, nil
}

// moduleFilePath turns a module's space-joined path ("a b c") into the
// relative file path a/b/c.msc that resolveModule searches load paths for.
func moduleFilePath(name string) string {
	parts := strings.Split(name, " ")
	return filepath.Join(parts...) + ".msc"
}

// resolveModule returns the already-registered module for name, or loads
// it by searching loadPaths for its .msc file and running the file's
// top-level forms against a freshly created module bound under name.
func (vm *VM) resolveModule(name string) (*object.Module, error) {
	if mod, ok := vm.modules[name]; ok {
		return mod, nil
	}

	relPath := moduleFilePath(name)
	for _, root := range vm.loadPaths {
		full := filepath.Join(root, relPath)
		if _, err := os.Stat(full); err != nil {
			continue
		}
		mod := vm.NewModule(vm.InternString(name))
		mod.NeedsInit = false
		vm.modules[name] = mod

		if _, err := vm.loadFile(full, mod); err != nil {
			delete(vm.modules, name)
			return nil, err
		}
		return mod, nil
	}
	return nil, vm.RaiseError("Could not find module '%s'.", name)
}

// loadFile reads, compiles, and executes every top-level form of the file
// at path against targetModule, returning the last form's value. The VM's
// current module is pinned to targetModule for the duration so every
// define and nested module operation within the file resolves against it.
func (vm *VM) loadFile(path string, targetModule *object.Module) (object.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return object.Value{}, vm.RaiseError("Could not read file '%s': %s", path, err)
	}

	r := reader.New(string(src), path, vm)
	forms, err := r.ReadAll()
	if err != nil {
		return object.Value{}, vm.RaiseError("%s", err)
	}

	savedModule := vm.currentModule
	vm.currentModule = targetModule
	defer func() { vm.currentModule = savedModule }()

	result := object.UnspecifiedVal()
	for _, form := range forms {
		c := compiler.New(vm, path)
		vm.SetCompilerRoots(c)
		fn := c.Compile(form)
		vm.SetCompilerRoots(nil)
		if fn == nil {
			errs := c.Errors()
			return object.Value{}, vm.RaiseError("%s", errs[0].Error())
		}
		value, err := vm.Interpret(fn)
		if err != nil {
			return object.Value{}, err
		}
		result = value
	}
	return result, nil
}
