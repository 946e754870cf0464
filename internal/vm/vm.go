// Package vm implements the bytecode virtual machine: the call-frame and
// value-stack executor, the heap allocator and garbage collector, module
// resolution, and the native-function ABI. It is the only package that
// creates heap objects during program execution -- the reader and
// compiler reach it only through the narrow heap.Allocator interface.
package vm

import (
	"io"
	"os"

	"github.com/lumenlang/lumen/internal/object"
)

const (
	// FramesMax bounds call-frame depth; exceeding it is a stack-overflow
	// runtime error rather than a Go-level panic.
	FramesMax = 64
	// UInt8Count is the number of distinct values a single byte operand can
	// address (a local slot, an upvalue slot, ...).
	UInt8Count = 256
	// StackMax is sized so that every frame could in principle fill its
	// slot space with UInt8Count values.
	StackMax = FramesMax * UInt8Count
)

// VM owns one interpreter instance: its value stack, call frames, heap,
// module registry, and intern tables. Multiple VMs may coexist in one
// process; none of them share heap objects.
type VM struct {
	stack    [StackMax]object.Value
	stackTop int

	frames     [FramesMax]object.Frame
	frameCount int

	openUpvalues *object.Upvalue

	currentModule       *object.Module
	modules             map[string]*object.Module
	currentResetMarker  *object.StackMarker
	quoteSymbol         *object.Symbol

	strings  map[string]*object.String
	symbols  map[string]*object.Symbol
	keywords map[string]*object.Keyword

	objects         object.Object
	bytesAllocated  int
	nextGC          int
	grayStack       []object.Object
	gcTargetLine    int // not written by any code path

	currentCompiler rootMarker

	loadPaths   []string
	programArgv []string

	inputPort  *object.Port
	outputPort *object.Port
	errorPort  *object.Port
}

// rootMarker lets an external compiler register its in-progress function
// contexts as GC roots without package vm importing package compiler (which
// would create an import cycle, since the compiler depends on heap.Allocator
// implemented by *VM).
type rootMarker interface {
	MarkRoots(mark func(object.Object))
}

const initialNextGC = 1 << 20 // 1MiB of tracked allocation before the first collection

// New creates a VM with standard ports wired to the process's stdin,
// stdout and stderr.
func New() *VM {
	vm := &VM{
		modules:  make(map[string]*object.Module),
		strings:  make(map[string]*object.String),
		symbols:  make(map[string]*object.Symbol),
		keywords: make(map[string]*object.Keyword),
		nextGC:   initialNextGC,
	}
	vm.inputPort = object.NewStandardPort(object.PortInput, os.Stdin, nil)
	vm.outputPort = object.NewStandardPort(object.PortOutput, nil, os.Stdout)
	vm.errorPort = object.NewStandardPort(object.PortOutput, nil, os.Stderr)
	vm.quoteSymbol = vm.InternSymbol("quote")
	vm.currentResetMarker = vm.NewStackMarker(object.StackMarkerReset, vm.frameCount)

	// Top-level forms compiled before any `define-module` runs still need
	// somewhere to bind; `user` is the implicit module a bare script or REPL
	// session starts in, the same way the reference interpreter always has
	// a current module active from the first instruction.
	vm.currentModule = vm.NewModule(vm.InternString("user"))
	vm.currentModule.NeedsInit = false
	vm.modules["user"] = vm.currentModule

	core := vm.registerCoreModule()
	vm.registerUUIDNatives(core)
	vm.registerYAMLNatives(core)
	for name, value := range core.Locals {
		if core.Exports[name] {
			vm.currentModule.Define(name, value)
		}
	}
	vm.currentModule.Imports = append(vm.currentModule.Imports, core)

	// net is registered but left out of user's default imports -- dynamic
	// RPC is opt-in via (module-import (net)), not ambient like core.
	vm.registerNetModule()

	return vm
}

// SetOutput redirects the VM's standard output port, e.g. to capture
// `display` output in a test or an embedding host.
func (vm *VM) SetOutput(w io.Writer) {
	vm.outputPort = object.NewStandardPort(object.PortOutput, nil, w)
}

// SetCompilerRoots installs the active compiler's root-marking hook so a
// collection triggered mid-compile doesn't free a function under
// construction. Passing nil clears it once compilation finishes.
func (vm *VM) SetCompilerRoots(m rootMarker) { vm.currentCompiler = m }

// AddLoadPath appends a root directory searched when resolving a module
// name to a `.msc` file.
func (vm *VM) AddLoadPath(path string) { vm.loadPaths = append(vm.loadPaths, path) }

// CurrentModule returns the module active at top level.
func (vm *VM) CurrentModule() *object.Module { return vm.currentModule }

// SetCurrentModule lets an embedding host pin the module new top-level
// forms are compiled and bound against.
func (vm *VM) SetCurrentModule(m *object.Module) { vm.currentModule = m }

// SetArgv records the program's command-line arguments for native code
// (e.g. a `(command-line)` binding) to read.
func (vm *VM) SetArgv(argv []string) { vm.programArgv = argv }

// Module looks up a registered module by its space-joined name, the same
// way DEFINE_MODULE/IMPORT_MODULE/ENTER_MODULE do.
func (vm *VM) Module(name string) (*object.Module, bool) {
	m, ok := vm.modules[name]
	return m, ok
}

// RegisterModule lets an embedding host install a Go-backed module (one it
// builds itself with NewModule/NewNativeFunction) into the VM's module
// registry under a name resolvable by (module-import name...).
func (vm *VM) RegisterModule(name string, m *object.Module) { vm.modules[name] = m }

// RegisterNative binds a single native function into an already-registered
// module, exporting it so module-import picks it up.
func (vm *VM) RegisterNative(moduleName, name string, fn object.NativeFn) error {
	m, ok := vm.modules[moduleName]
	if !ok {
		return vm.RaiseError("Cannot register native '%s': module '%s' is not registered.", name, moduleName)
	}
	nf := vm.NewNativeFunction(name, fn)
	m.Define(name, object.ObjVal(nf))
	m.Export(name)
	return nil
}

// --- value stack ---------------------------------------------------------

// Push implements heap.Allocator and is also the VM's own stack-push
// primitive; every opcode handler pushes results through it.
func (vm *VM) Push(v object.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

// Pop implements heap.Allocator.
func (vm *VM) Pop() object.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) object.Value { return vm.stack[vm.stackTop-1-distance] }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
	vm.currentResetMarker = vm.NewStackMarker(object.StackMarkerReset, vm.frameCount)
}
