package embed

import "github.com/lumenlang/lumen/internal/object"

// Value is an opaque handle to a Lumen runtime value, letting a host
// program pass arguments to and read results from Call/EvalString without
// importing internal/object itself.
type Value struct{ v object.Value }

func Number(n float64) Value { return Value{v: object.NumberVal(n)} }
func Bool(b bool) Value      { return Value{v: object.BoolVal(b)} }
func Unspecified() Value     { return Value{v: object.UnspecifiedVal()} }

// String interns s against the owning VM so it can be compared by pointer
// identity with symbols and strings produced by Lumen source.
func (v *VM) String(s string) Value {
	return Value{v: object.ObjVal(v.machine.InternString(s))}
}

func (val Value) IsNumber() bool  { return val.v.IsNumber() }
func (val Value) IsTruthy() bool  { return val.v.IsTruthy() }
func (val Value) Float64() float64 {
	return val.v.Num
}

func (val Value) String() string {
	if s, ok := val.v.Obj.(*object.String); ok {
		return s.Value
	}
	return object.Display(val.v)
}

// Inspect renders a value the way the reader's writer form would print it,
// useful for REPL output and diagnostics.
func (val Value) Inspect() string { return object.Inspect(val.v) }
