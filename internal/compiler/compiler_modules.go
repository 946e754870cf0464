package compiler

import (
	"strings"

	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/object"
)

// modulePath walks a list of symbols -- a module's name is never a single
// identifier, it is a path like `(a b c)` -- and joins them with spaces
// into the single string the VM resolves modules by.
func modulePath(v object.Value) (string, bool) {
	items, ok := object.ListToSlice(v)
	if !ok || len(items) == 0 {
		return "", false
	}
	parts := make([]string, len(items))
	for i, it := range items {
		datum, _ := object.Unwrap(it)
		sym, ok := datum.Obj.(*object.Symbol)
		if !ok {
			return "", false
		}
		parts[i] = sym.Name.Value
	}
	return strings.Join(parts, " "), true
}

func (c *Compiler) emitModulePath(pathList object.Value, pos object.Position) bool {
	name, ok := modulePath(pathList)
	if !ok {
		c.errorAt(pos, "module names can only be comprised of symbols")
		return false
	}
	c.emitConstant(object.ObjVal(c.heap.InternString(name)), pos.Line)
	return true
}

// compileDefineModule compiles `(define-module (a b c) (import (x y)...)?)`.
// The module path is emitted as a single constant string; each import spec
// inside the optional `import` clause resolves and discards its own module
// so only DEFINE_MODULE's result remains on the stack.
func (c *Compiler) compileDefineModule(args []object.Value, pos object.Position) {
	if len(args) < 1 {
		c.errorAt(pos, "define-module requires a module path")
		return
	}
	if !c.emitModulePath(args[0], pos) {
		return
	}
	c.emit(bytecode.DEFINE_MODULE, pos.Line)

	if len(args) < 2 {
		return
	}
	importItems, ok := object.ListToSlice(args[1])
	if !ok || len(importItems) == 0 {
		c.errorAt(pos, "expected 'import' inside of define-module")
		return
	}
	headDatum, headPos := object.Unwrap(importItems[0])
	headSym, ok := headDatum.Obj.(*object.Symbol)
	if !ok || headSym.Name.Value != "import" {
		c.errorAt(headPos, "expected 'import' inside of define-module")
		return
	}
	for _, spec := range importItems[1:] {
		if !c.emitModulePath(spec, pos) {
			return
		}
		c.emit(bytecode.IMPORT_MODULE, pos.Line)
		c.emit(bytecode.POP, pos.Line)
	}
}

// compileModuleImport compiles the standalone `(module-import (a b c))`
// form, leaving the resolved module on the stack.
func (c *Compiler) compileModuleImport(args []object.Value, pos object.Position) {
	if len(args) != 1 {
		c.errorAt(pos, "module-import expects a single module path")
		return
	}
	if !c.emitModulePath(args[0], pos) {
		return
	}
	c.emit(bytecode.IMPORT_MODULE, pos.Line)
}

// compileModuleEnter compiles `(module-enter (a b c))`, switching the
// current module without copying any bindings.
func (c *Compiler) compileModuleEnter(args []object.Value, pos object.Position) {
	if len(args) != 1 {
		c.errorAt(pos, "module-enter expects a single module path")
		return
	}
	if !c.emitModulePath(args[0], pos) {
		return
	}
	c.emit(bytecode.ENTER_MODULE, pos.Line)
}

// compileLoadFile compiles `(load-file "path")`.
func (c *Compiler) compileLoadFile(args []object.Value, pos object.Position) {
	if len(args) != 1 {
		c.errorAt(pos, "load-file expects a single path argument")
		return
	}
	c.compileExpr(args[0], false)
	c.emit(bytecode.LOAD_FILE, pos.Line)
}
