package vm

import "github.com/lumenlang/lumen/internal/object"

// CollectGarbage runs one stop-the-world mark-and-sweep cycle: mark every
// root, trace outgoing references to a fixed point, scrub the intern
// tables of now-unreachable keys, then sweep and free unmarked objects.
// next_gc doubles after each collection (with a floor) so programs that
// keep allocating don't collect on every single allocation once the live
// set has grown past the initial threshold.
func (vm *VM) CollectGarbage() {
	vm.markRoots()
	if vm.currentCompiler != nil {
		vm.currentCompiler.MarkRoots(vm.markObject)
	}
	vm.traceReferences()
	vm.scrubInternTable(vm.strings)
	vm.scrubSymbolTable()
	vm.scrubKeywordTable()
	vm.sweep()

	vm.nextGC = vm.bytesAllocated * 2
	if vm.nextGC < 1<<20 {
		vm.nextGC = 1 << 20
	}
}

func (vm *VM) markValue(v object.Value) {
	if v.IsObject() {
		vm.markObject(v.Obj)
	}
}

// markObject flips an object's mark bit and, unless it's a leaf kind with
// no outgoing references, pushes it onto the gray stack for darkening.
func (vm *VM) markObject(o object.Object) {
	if o == nil || o.Marked() {
		return
	}
	o.SetMarked(true)

	switch o.Kind() {
	case object.KindString, object.KindKeyword, object.KindNativeFunction:
		return
	case object.KindPointer:
		if p := o.(*object.Pointer); p.Type == nil || p.Type.MarkFunc == nil {
			return
		}
	}
	vm.grayStack = append(vm.grayStack, o)
}

func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].Closure)
	}
	for up := vm.openUpvalues; up != nil; up = up.Next {
		vm.markObject(up)
	}
	if vm.inputPort != nil {
		vm.markObject(vm.inputPort)
	}
	if vm.outputPort != nil {
		vm.markObject(vm.outputPort)
	}
	if vm.errorPort != nil {
		vm.markObject(vm.errorPort)
	}
	if vm.quoteSymbol != nil {
		vm.markObject(vm.quoteSymbol)
	}
	if vm.currentResetMarker != nil {
		vm.markObject(vm.currentResetMarker)
	}
	for _, m := range vm.modules {
		vm.markObject(m)
	}
}

// darken traces one gray object's references, pushing anything it finds
// back onto the gray stack via markObject.
func (vm *VM) darken(o object.Object) {
	switch n := o.(type) {
	case *object.Cons:
		vm.markValue(n.Car)
		vm.markValue(n.Cdr)
	case *object.Symbol:
		vm.markObject(n.Name)
	case *object.Syntax:
		vm.markValue(n.Value)
		if n.FileName != nil {
			vm.markObject(n.FileName)
		}
	case *object.Array:
		for _, item := range n.Items {
			vm.markValue(item)
		}
	case *object.Closure:
		vm.markObject(n.Function)
		vm.markObject(n.Module)
		for _, up := range n.Upvalues {
			if up != nil {
				vm.markObject(up)
			}
		}
	case *object.Continuation:
		for _, f := range n.Frames {
			vm.markObject(f.Closure)
		}
		for _, v := range n.Stack {
			vm.markValue(v)
		}
	case *object.Function:
		if n.Name != nil {
			vm.markObject(n.Name)
		}
		for _, c := range n.Chunk.Constants {
			vm.markValue(c)
		}
		for _, kw := range n.KeywordArgs {
			vm.markObject(kw.Name)
		}
	case *object.Upvalue:
		if n.IsClosed {
			vm.markValue(n.Closed)
		}
	case *object.Module:
		vm.markObject(n.Name)
		for _, v := range n.Locals {
			vm.markValue(v)
		}
		for _, imp := range n.Imports {
			vm.markObject(imp)
		}
		if n.InitFunction != nil {
			vm.markObject(n.InitFunction)
		}
	case *object.Record:
		vm.markObject(n.Name)
		for _, f := range n.Fields {
			vm.markObject(f)
		}
	case *object.RecordField:
		vm.markObject(n.Name)
		vm.markValue(n.DefaultValue)
	case *object.RecordFieldAccessor:
		vm.markObject(n.RecordType)
	case *object.RecordFieldSetter:
		vm.markObject(n.RecordType)
	case *object.RecordPredicate:
		vm.markObject(n.RecordType)
	case *object.RecordInstance:
		for _, v := range n.FieldValues {
			vm.markValue(v)
		}
		vm.markObject(n.RecordType)
	case *object.Pointer:
		if n.Type != nil && n.Type.MarkFunc != nil {
			n.Type.MarkFunc(n.Ptr)
		}
	case *object.StackMarker:
		// no outgoing references
	}
}

func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		o := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.darken(o)
	}
}

func (vm *VM) scrubInternTable(table map[string]*object.String) {
	for k, v := range table {
		if !v.Marked() {
			delete(table, k)
		}
	}
}

func (vm *VM) scrubSymbolTable() {
	for k, v := range vm.symbols {
		if !v.Marked() {
			delete(vm.symbols, k)
		}
	}
}

func (vm *VM) scrubKeywordTable() {
	for k, v := range vm.keywords {
		if !v.Marked() {
			delete(vm.keywords, k)
		}
	}
}

// sweep walks the object list, freeing every unmarked object and clearing
// the mark bit on survivors so the next cycle starts white again.
func (vm *VM) sweep() {
	var previous object.Object
	o := vm.objects
	for o != nil {
		if o.Marked() {
			o.SetMarked(false)
			previous = o
			o = o.Next()
			continue
		}
		unreached := o
		o = o.Next()
		if previous != nil {
			previous.SetNext(o)
		} else {
			vm.objects = o
		}
		vm.freeObject(unreached)
	}
}

// freeObject releases the Go-side sub-allocations an object exclusively
// owns (chunk arrays, field-value slices, ...) and charges their size back
// off bytesAllocated. There is no explicit free for the header itself --
// that's Go's own GC's job once nothing references the wrapper.
func (vm *VM) freeObject(o object.Object) {
	switch n := o.(type) {
	case *object.Function:
		vm.bytesAllocated -= 64 + len(n.Chunk.Code) + len(n.Chunk.Constants)*16
	case *object.Closure:
		vm.bytesAllocated -= 24 + 8*len(n.Upvalues)
	case *object.Module:
		vm.bytesAllocated -= 64 + 32*len(n.Locals)
	case *object.RecordInstance:
		vm.bytesAllocated -= 24 + 16*len(n.FieldValues)
	case *object.Continuation:
		vm.bytesAllocated -= 32 + 32*len(n.Frames) + 16*len(n.Stack)
	case *object.String:
		vm.bytesAllocated -= 16 + len(n.Value)
	case *object.Keyword:
		vm.bytesAllocated -= 16 + len(n.Value)
	case *object.Port:
		n.Close()
	case *object.Pointer:
		if n.Type != nil && n.Type.FreeFunc != nil {
			n.Type.FreeFunc(n.Ptr)
		}
	}
}
