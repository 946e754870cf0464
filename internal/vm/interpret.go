package vm

import (
	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/object"
)

// Interpret wraps the caller's already compiled top-level function
// (normally produced by package compiler) in a closure bound to the VM's
// current module and
// runs it to completion, returning its value.
func (vm *VM) Interpret(fn *object.Function) (object.Value, error) {
	closure := vm.NewClosure(fn, vm.currentModule)
	vm.Push(object.ObjVal(closure))
	return vm.runClosure(closure, 0, 0)
}

// Call invokes an arbitrary closure with a pre-built argument array, the
// shape the embedding API needs to call back into language-level code
// (e.g. to run a callback passed to a native function). Arguments are
// pushed positionally; keyword arguments are not supported through this
// entry point.
func (vm *VM) Call(closure *object.Closure, args []object.Value) (object.Value, error) {
	vm.Push(object.ObjVal(closure))
	for _, a := range args {
		vm.Push(a)
	}
	return vm.runClosure(closure, len(args), 0)
}

// runClosure pushes one new call frame for closure (already laid out on
// the stack as [closure, args..., kwpairs...] by the caller above) and
// drives the dispatch loop until that frame -- and everything it
// transitively calls -- has returned.
func (vm *VM) runClosure(closure *object.Closure, argc, kwc int) (object.Value, error) {
	entryFrameCount := vm.frameCount
	if err := vm.call(closure, argc, kwc, false); err != nil {
		return object.Value{}, err
	}
	return vm.run(entryFrameCount)
}

func (vm *VM) frame() *object.Frame { return &vm.frames[vm.frameCount-1] }

func (vm *VM) currentModuleOf(frame *object.Frame) *object.Module {
	if frame.Closure != nil && frame.Closure.Module != nil {
		return frame.Closure.Module
	}
	return vm.currentModule
}

func (vm *VM) readByte() byte {
	frame := vm.frame()
	b := frame.Closure.Function.Chunk.Code[frame.IP]
	frame.IP++
	return b
}

func (vm *VM) readUint16() int {
	frame := vm.frame()
	n := object.ReadUint16(frame.Closure.Function.Chunk.Code, frame.IP)
	frame.IP += 2
	return n
}

func (vm *VM) readInt16() int {
	frame := vm.frame()
	n := object.ReadInt16(frame.Closure.Function.Chunk.Code, frame.IP)
	frame.IP += 2
	return n
}

func (vm *VM) readConstant() object.Value {
	idx := vm.readUint16()
	return vm.frame().Closure.Function.Chunk.Constants[idx]
}

// run is the bytecode dispatch loop. It executes instructions starting
// from the current top frame until frameCount drops back to
// entryFrameCount, at which point the value left on the stack by the
// frame that triggered entry is the loop's result.
func (vm *VM) run(entryFrameCount int) (object.Value, error) {
	for {
		op := bytecode.Op(vm.readByte())

		switch op {
		case bytecode.NOP, bytecode.BREAK:
			// BREAK is a debugger hook in the reference; this core has no
			// debugger attached, so it's a no-op here too.

		case bytecode.CONSTANT:
			vm.Push(vm.readConstant())

		case bytecode.TRUE:
			vm.Push(object.TrueVal())

		case bytecode.FALSE:
			vm.Push(object.FalseVal())

		case bytecode.EMPTY:
			vm.Push(object.EmptyVal())

		case bytecode.POP:
			vm.Pop()

		case bytecode.POP_SCOPE:
			n := int(vm.readByte())
			result := vm.Pop()
			vm.stackTop -= n
			vm.Push(result)

		case bytecode.CONS:
			// car/cdr stay on the stack (and so stay GC roots) until after
			// the allocation that might collect, via peek rather than pop.
			cons := vm.NewCons(vm.peek(1), vm.peek(0))
			vm.stackTop -= 2
			vm.Push(object.ObjVal(cons))

		case bytecode.LIST:
			n := int(vm.readByte())
			base := vm.stackTop - n
			list := object.EmptyVal()
			for i := n - 1; i >= 0; i-- {
				cons := vm.NewCons(vm.stack[base+i], list)
				list = object.ObjVal(cons)
				// Overwrite the now-consumed slot with the growing list so
				// it stays within the rooted [0, stackTop) range across
				// the next iteration's allocation.
				vm.stack[base+i] = list
			}
			vm.stackTop = base + 1
			vm.stack[base] = list

		case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD:
			if err := vm.arith(op); err != nil {
				return object.Value{}, err
			}

		case bytecode.NOT:
			v := vm.Pop()
			vm.Push(object.BoolVal(v.IsFalsey()))

		case bytecode.GT, bytecode.GE, bytecode.LT, bytecode.LE:
			if err := vm.compare(op); err != nil {
				return object.Value{}, err
			}

		case bytecode.EQV:
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(object.BoolVal(object.Eqv(a, b)))

		case bytecode.EQUAL:
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(object.BoolVal(object.Equal(a, b)))

		case bytecode.JUMP:
			off := vm.readInt16()
			vm.frame().IP += off

		case bytecode.JUMP_IF_FALSE:
			off := vm.readInt16()
			if vm.peek(0).IsFalsey() {
				vm.frame().IP += off
			}

		case bytecode.RETURN:
			result := vm.doReturn()
			if vm.frameCount == entryFrameCount {
				return result, nil
			}

		case bytecode.CALL:
			argc := int(vm.readByte())
			kwc := int(vm.readByte())
			callee := vm.peek(argc + kwc*2)
			if err := vm.callValue(callee, argc, kwc, false); err != nil {
				return object.Value{}, err
			}

		case bytecode.TAIL_CALL:
			argc := int(vm.readByte())
			kwc := int(vm.readByte())
			callee := vm.peek(argc + kwc*2)
			if err := vm.callValue(callee, argc, kwc, true); err != nil {
				return object.Value{}, err
			}

		case bytecode.APPLY:
			n := int(vm.readByte())
			if err := vm.apply(n); err != nil {
				return object.Value{}, err
			}

		case bytecode.CLOSURE:
			if err := vm.makeClosure(); err != nil {
				return object.Value{}, err
			}

		case bytecode.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.Pop()

		case bytecode.READ_UPVALUE:
			slot := int(vm.readByte())
			up := vm.frame().Closure.Upvalues[slot]
			if up.IsClosed {
				vm.Push(up.Closed)
			} else {
				vm.Push(vm.stack[up.Location])
			}

		case bytecode.SET_UPVALUE:
			slot := int(vm.readByte())
			up := vm.frame().Closure.Upvalues[slot]
			value := vm.peek(0)
			if up.IsClosed {
				up.Closed = value
			} else {
				vm.stack[up.Location] = value
			}

		case bytecode.READ_LOCAL:
			slot := int(vm.readByte())
			vm.Push(vm.stack[vm.frame().Base+slot])

		case bytecode.SET_LOCAL:
			slot := int(vm.readByte())
			vm.stack[vm.frame().Base+slot] = vm.peek(0)

		case bytecode.READ_GLOBAL:
			frame := vm.frame()
			name := vm.readConstant().Obj.(*object.String).Value
			mod := vm.currentModuleOf(frame)
			value, ok := mod.Lookup(name)
			if !ok {
				return object.Value{}, vm.RaiseError("Undefined variable '%s'.", name)
			}
			vm.Push(value)

		case bytecode.DEFINE_GLOBAL:
			frame := vm.frame()
			name := vm.readConstant().Obj.(*object.String).Value
			mod := vm.currentModuleOf(frame)
			mod.Define(name, vm.peek(0))

		case bytecode.SET_GLOBAL:
			frame := vm.frame()
			name := vm.readConstant().Obj.(*object.String).Value
			mod := vm.currentModuleOf(frame)
			if _, ok := mod.Lookup(name); !ok {
				return object.Value{}, vm.RaiseError("Undefined variable '%s'.", name)
			}
			mod.Define(name, vm.peek(0))

		case bytecode.DEFINE_MODULE:
			if err := vm.opDefineModule(); err != nil {
				return object.Value{}, err
			}

		case bytecode.IMPORT_MODULE:
			if err := vm.opImportModule(); err != nil {
				return object.Value{}, err
			}

		case bytecode.ENTER_MODULE:
			if err := vm.opEnterModule(); err != nil {
				return object.Value{}, err
			}

		case bytecode.EXPORT_SYMBOL:
			frame := vm.frame()
			name := vm.Pop().Obj.(*object.String).Value
			vm.currentModuleOf(frame).Export(name)

		case bytecode.LOAD_FILE:
			if err := vm.opLoadFile(); err != nil {
				return object.Value{}, err
			}

		case bytecode.DEFINE_RECORD:
			n := int(vm.readByte())
			if err := vm.opDefineRecord(n); err != nil {
				return object.Value{}, err
			}

		case bytecode.RESET:
			vm.opReset()

		case bytecode.SHIFT:
			if err := vm.opShift(); err != nil {
				return object.Value{}, err
			}

		case bytecode.REIFY:
			if err := vm.opReify(); err != nil {
				return object.Value{}, err
			}

		case bytecode.DISPLAY:
			v := vm.Pop()
			vm.outputPort.WriteString(object.Display(v))
			vm.Push(object.UnspecifiedVal())

		default:
			return object.Value{}, vm.RaiseError("Unknown opcode %d.", byte(op))
		}
	}
}

func (vm *VM) arith(op bytecode.Op) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.RaiseError("Operands must be numbers.")
	}
	vm.stackTop -= 2
	switch op {
	case bytecode.ADD:
		vm.Push(object.NumberVal(a.Num + b.Num))
	case bytecode.SUB:
		vm.Push(object.NumberVal(a.Num - b.Num))
	case bytecode.MUL:
		vm.Push(object.NumberVal(a.Num * b.Num))
	case bytecode.DIV:
		if b.Num == 0 {
			return vm.RaiseError("Division by zero.")
		}
		vm.Push(object.NumberVal(a.Num / b.Num))
	case bytecode.MOD:
		if b.Num == 0 {
			return vm.RaiseError("Division by zero.")
		}
		ai, bi := int64(a.Num), int64(b.Num)
		vm.Push(object.NumberVal(float64(ai % bi)))
	}
	return nil
}

func (vm *VM) compare(op bytecode.Op) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.RaiseError("Operands must be numbers.")
	}
	vm.stackTop -= 2
	var result bool
	switch op {
	case bytecode.GT:
		result = a.Num > b.Num
	case bytecode.GE:
		result = a.Num >= b.Num
	case bytecode.LT:
		result = a.Num < b.Num
	case bytecode.LE:
		result = a.Num <= b.Num
	}
	vm.Push(object.BoolVal(result))
	return nil
}

// doReturn implements the RETURN opcode: it pops the result, closes
// upvalues owned by the returning frame, and restores the stack to the
// state the caller expects -- including, when the frame sits directly
// atop a RESET-pushed marker, restoring that marker as the VM's active
// reset delimiter and collapsing its slot into the result slot so the
// net stack effect of the whole `reset` expression is a single value.
func (vm *VM) doReturn() object.Value {
	result := vm.Pop()
	frame := vm.frame()
	vm.closeUpvalues(frame.Base)
	vm.frameCount--

	resultSlot := frame.Base
	if frame.Base-1 >= 0 {
		if marker, ok := vm.stack[frame.Base-1].Obj.(*object.StackMarker); ok {
			vm.currentResetMarker = marker
			resultSlot = frame.Base - 1
		}
	}
	vm.stackTop = resultSlot
	vm.Push(result)
	return result
}

// makeClosure implements the CLOSURE opcode: it reads the Function
// constant plus its trailing upvalue descriptors and instantiates a
// Closure bound to the module active right now -- the module a nested
// lambda or define runs against is fixed at the point its CLOSURE
// instruction executes, not at call time.
func (vm *VM) makeClosure() error {
	fnVal := vm.readConstant()
	fn := fnVal.Obj.(*object.Function)
	frame := vm.frame()
	closure := vm.NewClosure(fn, vm.currentModule)
	// Root the closure before capturing upvalues: captureUpvalue can itself
	// allocate and trigger a collection, and until now closure lives only
	// in this local variable.
	vm.Push(object.ObjVal(closure))
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte()
		index := vm.readByte()
		if isLocal != 0 {
			closure.Upvalues[i] = vm.captureUpvalue(frame.Base + int(index))
		} else {
			closure.Upvalues[i] = frame.Closure.Upvalues[index]
		}
	}
	return nil
}
