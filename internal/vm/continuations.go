package vm

import "github.com/lumenlang/lumen/internal/object"

// opReset implements RESET: it saves the currently active reset marker on
// the value stack, where it will occupy the slot directly beneath the
// thunk closure the compiler pushes immediately afterward, and installs a
// fresh marker pointing at the frame executing this instruction. RETURN
// recognizes that saved marker once the thunk's frame unwinds and restores
// it as the VM's active delimiter, so the whole `reset` expression nets
// exactly one stack value like any other compiled expression.
func (vm *VM) opReset() {
	vm.Push(object.ObjVal(vm.currentResetMarker))
	vm.currentResetMarker = vm.NewStackMarker(object.StackMarkerReset, vm.frameCount-1)
}

// opShift implements SHIFT. The one-argument closure passed to `shift` is
// already on top of the stack; SHIFT captures every frame between the
// nearest enclosing reset and the frame executing SHIFT into a
// Continuation, unwinds the live stack back to the reset point, and calls
// the shift closure with the continuation as its single argument. The CALL
// the compiler emits right after SHIFT stays inside the captured frame;
// reifyContinuation steps over it when the continuation is resumed.
func (vm *VM) opShift() error {
	// shiftClosure is read via peek rather than pop so it stays inside the
	// rooted [0, stackTop) range across the NewContinuation allocation
	// below; it's dropped from the count explicitly when slicing stackSlice.
	shiftClosure := vm.peek(0)

	marker := vm.currentResetMarker
	if marker == nil {
		return vm.RaiseError("shift used outside of reset.")
	}
	capturedStart := marker.FrameIndex + 1
	if capturedStart > vm.frameCount-1 || capturedStart < 0 {
		return vm.RaiseError("shift used outside of reset.")
	}
	stackStart := vm.frames[capturedStart].Base - 1

	outerMarker, _ := vm.stack[stackStart].Obj.(*object.StackMarker)

	frames := append([]object.Frame(nil), vm.frames[capturedStart:vm.frameCount]...)
	stackSlice := append([]object.Value(nil), vm.stack[stackStart:vm.stackTop-1]...)
	cont := vm.NewContinuation(frames, stackSlice)

	vm.closeUpvalues(stackStart)
	vm.frameCount = capturedStart
	vm.stackTop = stackStart
	vm.currentResetMarker = outerMarker

	vm.Push(shiftClosure)
	vm.Push(object.ObjVal(cont))
	return vm.callValue(shiftClosure, 1, 0, false)
}

// opReify implements REIFY. The core spec has no surface form that emits
// REIFY directly today -- continuations are invoked the same way any other
// callable is, through callValue dispatching on KindContinuation -- but the
// opcode stays available for a future `reify-continuation` primitive that
// wants to push a captured Continuation as an ordinary value rather than
// calling it immediately.
func (vm *VM) opReify() error {
	cont, ok := vm.peek(0).Obj.(*object.Continuation)
	if !ok {
		return vm.RaiseError("reify expects a captured continuation.")
	}
	_ = cont
	return nil
}

// reifyContinuation resumes a captured continuation with a single value:
// it installs a fresh reset marker as if a `reset` had just been entered
// at this call site, splices the continuation's frames back onto the live
// stack with their Base fields shifted to the new stack position, and
// advances the resumed frame's instruction pointer past the CALL that
// originally invoked the shift closure so execution falls through to the
// NOP just after it -- at which point the resume value sitting on top of
// the stack is exactly what that CALL would have produced.
func (vm *VM) reifyContinuation(cont *object.Continuation, argc int) error {
	if argc != 1 {
		return vm.RaiseError("Continuations accept exactly one argument.")
	}
	if cont.Used {
		return vm.RaiseError("Continuation already invoked; this implementation's continuations are one-shot.")
	}
	cont.Used = true
	// resumeValue is read via peek, not pop, so it stays inside the rooted
	// [0, stackTop) range across the NewStackMarker allocation below; both
	// it and the continuation are dropped from the stack explicitly once
	// that allocation is safely behind us.
	resumeValue := vm.peek(0)

	newMarker := vm.NewStackMarker(object.StackMarkerReset, vm.frameCount-1)
	vm.stackTop -= 2 // resume value and the continuation itself

	if len(cont.Frames) == 0 {
		vm.currentResetMarker = newMarker
		vm.Push(resumeValue)
		return nil
	}

	if vm.frameCount+len(cont.Frames) > FramesMax {
		return vm.RaiseError("Stack overflow.")
	}

	oldBase0 := cont.Frames[0].Base
	vm.Push(object.ObjVal(newMarker))
	delta := vm.stackTop - oldBase0

	for i := 1; i < len(cont.Stack); i++ {
		vm.Push(cont.Stack[i])
	}

	base := vm.frameCount
	for i, f := range cont.Frames {
		nf := f
		nf.Base += delta
		vm.frames[base+i] = nf
	}
	vm.frameCount += len(cont.Frames)
	vm.currentResetMarker = newMarker

	lastFrame := &vm.frames[vm.frameCount-1]
	lastFrame.IP += 3

	vm.Push(resumeValue)
	return nil
}
