package object

import (
	"fmt"
	"strings"
)

// InspectObject renders a heap object the way the writer would print it
// back as source text.
func InspectObject(o Object) string {
	switch v := o.(type) {
	case *String:
		return fmt.Sprintf("%q", v.Value)
	case *Keyword:
		return ":" + v.Value
	case *Symbol:
		return v.Name.Value
	case *Syntax:
		return Inspect(v.Value)
	case *Cons:
		return inspectCons(v)
	case *Array:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = Inspect(item)
		}
		return "#(" + strings.Join(parts, " ") + ")"
	case *Function:
		name := "anonymous"
		if v.Name != nil {
			name = v.Name.Value
		}
		return "#<function " + name + ">"
	case *Closure:
		name := "anonymous"
		if v.Function != nil && v.Function.Name != nil {
			name = v.Function.Name.Value
		}
		return "#<closure " + name + ">"
	case *NativeFunction:
		return "#<native " + v.Name + ">"
	case *Module:
		return "#<module " + v.Name.Value + ">"
	case *Record:
		return "#<record-type " + v.Name.Value + ">"
	case *RecordPredicate:
		return "#<predicate " + v.RecordType.Name.Value + "?>"
	case *RecordFieldAccessor:
		return "#<accessor " + v.RecordType.Name.Value + ">"
	case *RecordFieldSetter:
		return "#<setter " + v.RecordType.Name.Value + ">"
	case *RecordInstance:
		return inspectRecordInstance(v)
	case *Continuation:
		return "#<continuation>"
	case *Port:
		return "#<port>"
	case *Pointer:
		return "#<pointer>"
	case *Err:
		return "#<error " + v.Message + ">"
	default:
		return "#<object>"
	}
}

// Display renders a value the way the `display` primitive writes it:
// like Inspect, except strings are written raw rather than quoted, since
// display's audience is a human reading a terminal, not a reader parsing
// the output back as a datum.
func Display(v Value) string {
	if v.Kind == ObjectVal && v.Obj != nil && v.Obj.Kind() == KindString {
		return v.Obj.(*String).Value
	}
	return Inspect(v)
}

func inspectCons(c *Cons) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(Inspect(c.Car))
	rest := c.Cdr
	for {
		u, _ := Unwrap(rest)
		if u.IsEmpty() {
			break
		}
		if u.Is(KindCons) {
			next := u.Obj.(*Cons)
			b.WriteByte(' ')
			b.WriteString(Inspect(next.Car))
			rest = next.Cdr
			continue
		}
		b.WriteString(" . ")
		b.WriteString(Inspect(u))
		break
	}
	b.WriteByte(')')
	return b.String()
}

func inspectRecordInstance(r *RecordInstance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#<%s", r.RecordType.Name.Value)
	for i, f := range r.RecordType.Fields {
		fmt.Fprintf(&b, " %s: %s", f.Name.Value, Inspect(r.FieldValues[i]))
	}
	b.WriteByte('>')
	return b.String()
}
