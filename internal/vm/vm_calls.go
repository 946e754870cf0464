package vm

import "github.com/lumenlang/lumen/internal/object"

// captureUpvalue returns the open upvalue for the given stack location,
// creating and linking one if none exists yet. Open upvalues are kept in a
// single list ordered by descending stack location so closing a range is a
// simple prefix walk.
func (vm *VM) captureUpvalue(location int) *object.Upvalue {
	var prev *object.Upvalue
	up := vm.openUpvalues
	for up != nil && up.Location > location {
		prev = up
		up = up.Next
	}
	if up != nil && up.Location == location {
		return up
	}

	created := vm.NewUpvalue(location)
	created.Next = up
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above the given stack
// location, copying its value off the stack so it survives the frame that
// declared it returning.
func (vm *VM) closeUpvalues(location int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Location >= location {
		up := vm.openUpvalues
		up.Close(vm.stack[up.Location])
		vm.openUpvalues = up.Next
	}
}

// call invokes a closure that has argc positional and kwc keyword argument
// pairs already sitting on top of the value stack (with the closure itself
// just below them), reshuffling them into the callee's declared parameter
// slots per the arity/keyword/rest-argument rules.
func (vm *VM) call(closure *object.Closure, argc, kwc int, isTail bool) error {
	fn := closure.Function
	// fn.Arity only counts the fixed parameters before a rest symbol (the
	// rest slot itself gets its own, later local slot), unlike the
	// original reference's `arity`, which counts the rest slot too -- so
	// the minimum positional count a rest-taking function accepts is
	// fn.Arity itself, not fn.Arity-1.
	if fn.RestArgIndex == 0 && argc != fn.Arity {
		return vm.RaiseError("Expected %d arguments but got %d.", fn.Arity, argc)
	} else if fn.RestArgIndex > 0 && argc < fn.Arity {
		return vm.RaiseError("Expected at least %d arguments but got %d.", fn.Arity, argc)
	}

	argStart := vm.stackTop - (argc + kwc*2)
	numKeywordArgs := len(fn.KeywordArgs)

	if kwc > 0 {
		if numKeywordArgs == 0 {
			return vm.RaiseError("Function does not accept keyword arguments.")
		}
		keywordStart := argStart + argc
		stored := make([]object.Value, kwc*2)
		copy(stored, vm.stack[keywordStart:keywordStart+kwc*2])
		vm.stackTop = keywordStart

		for _, kwParam := range fn.KeywordArgs {
			found := false
			for j := 0; j < len(stored); j += 2 {
				if stored[j].Is(object.KindKeyword) && object.TextOf(stored[j].Obj) == kwParam.Name.Value {
					vm.Push(stored[j+1])
					found = true
				}
			}
			if found {
				continue
			}
			vm.Push(kwParam.DefaultValue)
		}
	} else if numKeywordArgs > 0 {
		for _, kwParam := range fn.KeywordArgs {
			vm.Push(kwParam.DefaultValue)
		}
	}

	// fn.Arity counts only the fixed (non-rest) parameters, so any argument
	// beyond the first fn.Arity positional values -- arity was already
	// confirmed sufficient above -- collapses into the rest list. Keyword
	// values (just reshuffled into place above, whether supplied or
	// defaulted) sit immediately after the positional arguments and must
	// slide down to immediately follow the fixed parameters, since the
	// rest list occupies the single slot after them.
	//
	// argc == fn.Arity exactly leaves nothing over for the rest parameter;
	// per the calling convention that binds it to #f, not an empty list.
	if fn.RestArgIndex > 0 {
		restValueCount := argc - fn.Arity
		restStart := argStart + fn.Arity
		list := object.FalseVal()
		if restValueCount > 0 {
			list = object.EmptyVal()
			for i := restStart + restValueCount - 1; i >= restStart; i-- {
				cons := vm.NewCons(vm.stack[i], list)
				list = object.ObjVal(cons)
				// Keep the growing list itself inside the rooted stack range
				// across the next iteration's allocation.
				vm.stack[i] = list
			}
		}
		if numKeywordArgs > 0 {
			keywordStart := argStart + argc
			copy(vm.stack[restStart:restStart+numKeywordArgs], vm.stack[keywordStart:keywordStart+numKeywordArgs])
		}
		vm.stack[restStart+numKeywordArgs] = list
		vm.stackTop = restStart + numKeywordArgs + 1
	}

	// Everything from the closure slot (argStart-1) up to the current
	// stack top is now laid out exactly as the callee's locals expect it.
	total := vm.stackTop - (argStart - 1)

	if isTail {
		frame := &vm.frames[vm.frameCount-1]
		vm.closeUpvalues(frame.Base)

		copy(vm.stack[frame.Base:frame.Base+total], vm.stack[argStart-1:argStart-1+total])
		vm.stackTop = frame.Base + total

		frame.Closure = closure
		frame.IP = 0
		frame.TotalArgCount = total - 1
		return nil
	}

	if vm.frameCount >= FramesMax {
		return vm.RaiseError("Stack overflow.")
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.Closure = closure
	frame.IP = 0
	frame.Base = argStart - 1
	frame.TotalArgCount = total - 1
	return nil
}

// callValue dispatches a call-position value to the right invocation
// strategy: closures run through call, native functions are invoked
// directly, and records/accessors/setters/predicates implement their
// auto-generated behavior inline.
func (vm *VM) callValue(callee object.Value, argc, kwc int, isTail bool) error {
	if !callee.IsObject() || callee.Obj == nil {
		return vm.RaiseError("Only functions can be called.")
	}

	switch callee.Obj.Kind() {
	case object.KindFunction:
		// A bare (unclosed) function reaches call position when a script
		// top-level value is invoked directly (e.g. from host code); wrap it
		// in a closure in place and call that instead.
		closure := vm.NewClosure(callee.Obj.(*object.Function), vm.currentModule)
		calleeSlot := vm.stackTop - (argc + kwc*2) - 1
		vm.stack[calleeSlot] = object.ObjVal(closure)
		return vm.call(closure, argc, kwc, false)
	case object.KindClosure:
		return vm.call(callee.Obj.(*object.Closure), argc, kwc, isTail)
	case object.KindNativeFunction:
		return vm.callNative(callee.Obj.(*object.NativeFunction), argc, kwc)
	case object.KindRecord:
		return vm.callRecordConstructor(callee.Obj.(*object.Record), argc, kwc)
	case object.KindRecordFieldAccessor:
		return vm.callRecordAccessor(callee.Obj.(*object.RecordFieldAccessor), argc)
	case object.KindRecordFieldSetter:
		return vm.callRecordSetter(callee.Obj.(*object.RecordFieldSetter), argc)
	case object.KindRecordPredicate:
		return vm.callRecordPredicate(callee.Obj.(*object.RecordPredicate), argc)
	case object.KindContinuation:
		return vm.reifyContinuation(callee.Obj.(*object.Continuation), argc)
	default:
		return vm.RaiseError("Only functions can be called.")
	}
}

func (vm *VM) callNative(fn *object.NativeFunction, argc, kwc int) error {
	total := argc + kwc*2
	args := make([]object.Value, total)
	copy(args, vm.stack[vm.stackTop-total:vm.stackTop])
	result, err := fn.Fn(vm, total, args)
	if err != nil {
		return err
	}
	// A native may signal failure by returning an *object.Err value instead
	// of calling back into RaiseError itself; fold it into the same unwind
	// path so callers never have to distinguish the two.
	if errObj, ok := result.Obj.(*object.Err); ok {
		vm.resetStack()
		return &RuntimeError{File: errObj.File, Line: errObj.Line, Message: errObj.Message}
	}
	vm.stackTop -= total + 1 // args plus the callee itself
	vm.Push(result)
	return nil
}

func (vm *VM) callRecordConstructor(rt *object.Record, argc, kwc int) error {
	if argc != 0 {
		return vm.RaiseError("Record constructor for '%s' only accepts keyword arguments.", rt.Name.Value)
	}
	kwStart := vm.stackTop - kwc*2
	instance := vm.NewRecordInstance(rt)
	vm.Push(object.ObjVal(instance))
	for i, f := range rt.Fields {
		value := f.DefaultValue
		for j := kwStart; j < kwStart+kwc*2; j += 2 {
			if vm.stack[j].Is(object.KindKeyword) && object.TextOf(vm.stack[j].Obj) == f.Name.Value {
				value = vm.stack[j+1]
			}
		}
		instance.FieldValues[i] = value
	}
	vm.Pop()
	vm.stackTop -= kwc*2 + 1 // keyword pairs plus the constructor itself
	vm.Push(object.ObjVal(instance))
	return nil
}

func (vm *VM) callRecordAccessor(accessor *object.RecordFieldAccessor, argc int) error {
	if argc != 1 {
		return vm.RaiseError("Record field accessor for type '%s' requires a single record instance argument.", accessor.RecordType.Name.Value)
	}
	instance, err := vm.expectRecordInstance(vm.peek(0), accessor.RecordType)
	if err != nil {
		return err
	}
	value := instance.FieldValues[accessor.FieldIndex]
	vm.stackTop -= 2 // instance and accessor
	vm.Push(value)
	return nil
}

func (vm *VM) callRecordSetter(setter *object.RecordFieldSetter, argc int) error {
	if argc != 2 {
		return vm.RaiseError("Record field setter for type '%s' requires an instance and a value.", setter.RecordType.Name.Value)
	}
	instance, err := vm.expectRecordInstance(vm.peek(1), setter.RecordType)
	if err != nil {
		return err
	}
	value := vm.peek(0)
	instance.FieldValues[setter.FieldIndex] = value
	vm.stackTop -= 3 // instance, value, and setter
	vm.Push(value)
	return nil
}

func (vm *VM) callRecordPredicate(predicate *object.RecordPredicate, argc int) error {
	if argc != 1 {
		return vm.RaiseError("Record type predicate '%s?' requires a single argument.", predicate.RecordType.Name.Value)
	}
	arg := vm.peek(0)
	result := arg.Is(object.KindRecordInstance) && arg.Obj.(*object.RecordInstance).RecordType == predicate.RecordType
	vm.stackTop -= 2 // argument and predicate
	vm.Push(object.BoolVal(result))
	return nil
}

func (vm *VM) expectRecordInstance(v object.Value, rt *object.Record) (*object.RecordInstance, error) {
	if !v.Is(object.KindRecordInstance) {
		return nil, vm.RaiseError("Expected instance of record type %s.", rt.Name.Value)
	}
	instance := v.Obj.(*object.RecordInstance)
	if instance.RecordType != rt {
		return nil, vm.RaiseError("Passed record of type %s where %s was expected.", instance.RecordType.Name.Value, rt.Name.Value)
	}
	return instance, nil
}

// apply splices a trailing list argument onto the n-1 preceding fixed
// arguments and calls proc with the result, matching the reference's
// OP_APPLY. Stack layout on entry: [proc, fixed_1, ..., fixed_{n-1}, list].
func (vm *VM) apply(n int) error {
	listValue := vm.peek(0)
	procValue := vm.stack[vm.stackTop-n-1]
	if !procValue.IsObject() {
		return vm.RaiseError("Cannot apply non-function value.")
	}
	switch procValue.Obj.Kind() {
	case object.KindClosure, object.KindNativeFunction, object.KindFunction:
	default:
		return vm.RaiseError("Cannot apply non-function value.")
	}
	if !listValue.Is(object.KindCons) && !listValue.IsEmpty() {
		return vm.RaiseError("Cannot apply function to non-list value.")
	}

	fixedArgs := append([]object.Value(nil), vm.stack[vm.stackTop-n:vm.stackTop-1]...)
	rest, ok := object.ListToSlice(listValue)
	if !ok {
		return vm.RaiseError("Cannot apply function to improper list.")
	}

	vm.stackTop -= n // drop the fixed args and the trailing list
	for _, a := range fixedArgs {
		vm.Push(a)
	}
	for _, a := range rest {
		vm.Push(a)
	}

	argc := len(fixedArgs) + len(rest)
	return vm.callValue(procValue, argc, 0, false)
}
