package vm

import (
	"gopkg.in/yaml.v3"

	"github.com/lumenlang/lumen/internal/object"
)

// registerYAMLNatives adds yaml-encode/yaml-decode to the core module.
// Decoding maps YAML scalars onto the existing Number/String/Bool/Empty
// kinds, sequences onto proper lists, and mappings onto association lists
// of (symbol . value) pairs -- there's no dedicated hash-table type, and an
// alist composes with the list procedures already bound in this module.
func (vm *VM) registerYAMLNatives(core *object.Module) {
	def := func(name string, fn object.NativeFn) {
		nf := vm.NewNativeFunction(name, fn)
		core.Define(name, object.ObjVal(nf))
		core.Export(name)
	}

	def("yaml-decode", nativeYAMLDecode)
	def("yaml-encode", nativeYAMLEncode)
}

func nativeYAMLDecode(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 || !args[0].Is(object.KindString) {
		return object.Value{}, host.RaiseError("yaml-decode expects a string.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("yaml-decode requires a VM host.")
	}
	var data interface{}
	if err := yaml.Unmarshal([]byte(args[0].Obj.(*object.String).Value), &data); err != nil {
		return object.Value{}, host.RaiseError("YAML parse error: %s", err)
	}
	return vmHost.yamlToValue(data), nil
}

func nativeYAMLEncode(host object.VMHost, argc int, args []object.Value) (object.Value, error) {
	if argc != 1 {
		return object.Value{}, host.RaiseError("yaml-encode expects a single value.")
	}
	vmHost, ok := host.(*VM)
	if !ok {
		return object.Value{}, host.RaiseError("yaml-encode requires a VM host.")
	}
	goVal, err := vmHost.valueToYAML(args[0])
	if err != nil {
		return object.Value{}, host.RaiseError("%s", err)
	}
	out, err := yaml.Marshal(goVal)
	if err != nil {
		return object.Value{}, host.RaiseError("YAML encoding error: %s", err)
	}
	return object.ObjVal(vmHost.InternString(string(out))), nil
}

func (vm *VM) yamlToValue(data interface{}) object.Value {
	switch v := data.(type) {
	case nil:
		return object.EmptyVal()
	case bool:
		return object.BoolVal(v)
	case int:
		return object.NumberVal(float64(v))
	case int64:
		return object.NumberVal(float64(v))
	case float64:
		return object.NumberVal(v)
	case string:
		return object.ObjVal(vm.InternString(v))
	case []interface{}:
		items := make([]object.Value, len(v))
		for i, item := range v {
			items[i] = vm.yamlToValue(item)
		}
		return object.SliceToList(items)
	case map[string]interface{}:
		var pairs []object.Value
		for k, val := range v {
			entry := vm.NewCons(object.ObjVal(vm.InternSymbol(k)), vm.yamlToValue(val))
			pairs = append(pairs, object.ObjVal(entry))
		}
		return object.SliceToList(pairs)
	default:
		return object.EmptyVal()
	}
}

func (vm *VM) valueToYAML(v object.Value) (interface{}, error) {
	switch v.Kind {
	case object.Unspecified, object.Empty:
		return nil, nil
	case object.False:
		return false, nil
	case object.True:
		return true, nil
	case object.Number:
		return v.Num, nil
	case object.Char:
		return string(v.Ch), nil
	case object.ObjectVal:
		switch o := v.Obj.(type) {
		case *object.String:
			return o.Value, nil
		case *object.Keyword:
			return o.Value, nil
		case *object.Symbol:
			return o.Name.Value, nil
		case *object.Cons:
			return vm.consToYAML(o)
		}
	}
	return nil, vm.RaiseError("yaml-encode cannot represent this value.")
}

// consToYAML renders a list either as an association list (every element a
// (symbol . value) pair) or as a plain sequence, matching whichever shape
// yaml-decode would have produced for it.
func (vm *VM) consToYAML(head *object.Cons) (interface{}, error) {
	items, ok := object.ListToSlice(object.ObjVal(head))
	if !ok {
		return nil, vm.RaiseError("yaml-encode expects a proper list.")
	}
	if allAlistPairs(items) {
		result := make(map[string]interface{}, len(items))
		for _, item := range items {
			pair := item.Obj.(*object.Cons)
			key, ok := pair.Car.Obj.(*object.Symbol)
			if !ok {
				return nil, vm.RaiseError("yaml-encode alist keys must be symbols.")
			}
			val, err := vm.valueToYAML(pair.Cdr)
			if err != nil {
				return nil, err
			}
			result[key.Name.Value] = val
		}
		return result, nil
	}
	result := make([]interface{}, len(items))
	for i, item := range items {
		val, err := vm.valueToYAML(item)
		if err != nil {
			return nil, err
		}
		result[i] = val
	}
	return result, nil
}

func allAlistPairs(items []object.Value) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		cons, ok := item.Obj.(*object.Cons)
		if !item.Is(object.KindCons) || !ok || !cons.Car.Is(object.KindSymbol) {
			return false
		}
	}
	return true
}
