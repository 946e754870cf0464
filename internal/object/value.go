package object

import "fmt"

// ValueKind tags the Value union.
type ValueKind uint8

const (
	Unspecified ValueKind = iota
	False
	True
	Empty
	Number
	Char
	Eof
	ObjectVal
)

// Value is the VM's stack-allocated tagged union. False is the only falsey
// value; Empty (the empty list) is a distinct value from False so list code
// never confuses "no more pairs" with "boolean false".
type Value struct {
	Kind ValueKind
	Num  float64
	Ch   byte
	Obj  Object
}

func UnspecifiedVal() Value    { return Value{Kind: Unspecified} }
func FalseVal() Value          { return Value{Kind: False} }
func TrueVal() Value           { return Value{Kind: True} }
func EmptyVal() Value          { return Value{Kind: Empty} }
func EofVal() Value            { return Value{Kind: Eof} }
func NumberVal(n float64) Value { return Value{Kind: Number, Num: n} }
func CharVal(c byte) Value     { return Value{Kind: Char, Ch: c} }
func ObjVal(o Object) Value    { return Value{Kind: ObjectVal, Obj: o} }

// BoolVal folds a Go bool into the True/False value kinds.
func BoolVal(b bool) Value {
	if b {
		return TrueVal()
	}
	return FalseVal()
}

func (v Value) IsFalsey() bool  { return v.Kind == False }
func (v Value) IsTruthy() bool  { return v.Kind != False }
func (v Value) IsNumber() bool  { return v.Kind == Number }
func (v Value) IsObject() bool  { return v.Kind == ObjectVal }
func (v Value) IsEmpty() bool   { return v.Kind == Empty }

// Is reports whether v is an ObjectVal wrapping an object of the given kind.
func (v Value) Is(k Kind) bool {
	return v.Kind == ObjectVal && v.Obj != nil && v.Obj.Kind() == k
}

// Eqv implements the reference semantics backing Scheme's eqv?: numbers and
// chars compare by value, interned objects (string/symbol/keyword) compare
// by pointer identity since equal content is always the same pointer, and
// everything else compares by identity too.
func Eqv(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Unspecified, False, True, Empty, Eof:
		return true
	case Number:
		return a.Num == b.Num
	case Char:
		return a.Ch == b.Ch
	case ObjectVal:
		return a.Obj == b.Obj
	default:
		return false
	}
}

// Equal implements structural equality: it recurses into Cons pairs and
// compares Strings/Arrays by content, falling back to Eqv for everything
// else. This resolves the spec's open question in favor of real structural
// comparison rather than reference equality.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind != ObjectVal {
		return Eqv(a, b)
	}
	ao, bo := a.Obj, b.Obj
	if ao == bo {
		return true
	}
	if ao == nil || bo == nil || ao.Kind() != bo.Kind() {
		return false
	}
	switch ao.Kind() {
	case KindCons:
		ac, bc := ao.(*Cons), bo.(*Cons)
		return Equal(ac.Car, bc.Car) && Equal(ac.Cdr, bc.Cdr)
	case KindString, KindKeyword:
		return TextOf(ao) == TextOf(bo)
	case KindArray:
		aa, ba := ao.(*Array), bo.(*Array)
		if len(aa.Items) != len(ba.Items) {
			return false
		}
		for i := range aa.Items {
			if !Equal(aa.Items[i], ba.Items[i]) {
				return false
			}
		}
		return true
	default:
		return Eqv(a, b)
	}
}

// Inspect renders a value the way the reader's writer form would print it.
func Inspect(v Value) string {
	switch v.Kind {
	case Unspecified:
		return ""
	case False:
		return "#f"
	case True:
		return "#t"
	case Empty:
		return "()"
	case Eof:
		return "#<eof>"
	case Number:
		if v.Num == float64(int64(v.Num)) {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	case Char:
		return fmt.Sprintf("#\\%c", v.Ch)
	case ObjectVal:
		if v.Obj == nil {
			return "#<nil>"
		}
		return InspectObject(v.Obj)
	default:
		return "#<?>"
	}
}
