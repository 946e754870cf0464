package vm

import "github.com/lumenlang/lumen/internal/object"

// opDefineRecord implements DEFINE_RECORD. The stack holds the type name
// symbol followed by n (field-name, default-value) pairs, the flat layout
// compileDefineRecordType lays down; it builds the Record descriptor and
// binds the type itself, its make-<name> constructor alias, its <name>?
// predicate, and every <name>-<field> accessor/<name>-<field>-set! setter
// into the current module.
func (vm *VM) opDefineRecord(n int) error {
	total := n*2 + 1
	base := vm.stackTop - total
	nameSym := vm.stack[base].Obj.(*object.Symbol)

	rt := vm.NewRecord(nameSym.Name)
	vm.Push(object.ObjVal(rt)) // root the type while its fields are allocated

	for i := 0; i < n; i++ {
		fieldSym := vm.stack[base+1+i*2].Obj.(*object.Symbol)
		fieldDefault := vm.stack[base+2+i*2]
		rt.Fields = append(rt.Fields, vm.NewRecordField(fieldSym.Name, fieldDefault))
	}
	vm.Pop()
	vm.stackTop = base

	mod := vm.currentModule
	typeName := nameSym.Name.Value
	mod.Define(typeName, object.ObjVal(rt))
	mod.Define("make-"+typeName, object.ObjVal(rt))
	mod.Define(typeName+"?", object.ObjVal(vm.NewRecordPredicate(rt)))
	for i, f := range rt.Fields {
		fieldName := f.Name.Value
		mod.Define(typeName+"-"+fieldName, object.ObjVal(vm.NewRecordFieldAccessor(rt, i)))
		mod.Define(typeName+"-"+fieldName+"-set!", object.ObjVal(vm.NewRecordFieldSetter(rt, i)))
	}

	vm.Push(object.ObjVal(rt))
	return nil
}
