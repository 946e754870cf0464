package object

// Cons is a pair cell. Proper lists are terminated by EmptyVal(), never by
// False -- the two are distinct values so list code can't mistake one for
// the other.
type Cons struct {
	Header
	Car Value
	Cdr Value
}

func NewCons(car, cdr Value) *Cons {
	return &Cons{Header: NewHeader(KindCons), Car: car, Cdr: cdr}
}

// ListToSlice walks a proper list into a Go slice, unwrapping each element's
// Syntax wrapper if present. ok is false if the list is improper.
func ListToSlice(v Value) (items []Value, ok bool) {
	for {
		u, _ := Unwrap(v)
		if u.IsEmpty() {
			return items, true
		}
		if !u.Is(KindCons) {
			return items, false
		}
		cons := u.Obj.(*Cons)
		items = append(items, cons.Car)
		v = cons.Cdr
	}
}

// SliceToList builds a proper list right-to-left from items.
func SliceToList(items []Value) Value {
	list := EmptyVal()
	for i := len(items) - 1; i >= 0; i-- {
		list = ObjVal(NewCons(items[i], list))
	}
	return list
}
