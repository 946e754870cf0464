package reader_test

import (
	"testing"

	"github.com/lumenlang/lumen/internal/object"
	"github.com/lumenlang/lumen/internal/reader"
	"github.com/lumenlang/lumen/internal/vm"
)

// readOne reads a single datum and strips the Syntax wrapper the reader
// puts around it.
func readOne(t *testing.T, src string) object.Value {
	t.Helper()
	h := vm.New()
	r := reader.New(src, "<test>", h)
	v, err := r.ReadDatum()
	if err != nil {
		t.Fatalf("ReadDatum(%q): %s", src, err)
	}
	datum, _ := object.Unwrap(v)
	return datum
}

func TestReadAtoms(t *testing.T) {
	if v := readOne(t, "42"); !v.IsNumber() || v.Num != 42 {
		t.Errorf("got %v, want number 42", v)
	}
	if v := readOne(t, "#t"); v.Kind != object.True {
		t.Errorf("got %v, want #t", v)
	}
	if v := readOne(t, `"hi"`); !v.Is(object.KindString) || v.Obj.(*object.String).Value != "hi" {
		t.Errorf("got %v, want string \"hi\"", v)
	}
}

func TestReadDottedPair(t *testing.T) {
	v := readOne(t, "(1 . 2)")
	cons, ok := v.Obj.(*object.Cons)
	if !v.Is(object.KindCons) || !ok {
		t.Fatalf("got %v, want a Cons", v)
	}
	car, _ := object.Unwrap(cons.Car)
	cdr, _ := object.Unwrap(cons.Cdr)
	if car.Num != 1 || cdr.Num != 2 {
		t.Errorf("got (%v . %v), want (1 . 2)", car, cdr)
	}
}

func TestReadProperList(t *testing.T) {
	v := readOne(t, "(1 2 3)")
	items, ok := object.ListToSlice(v)
	if !ok {
		t.Fatalf("got %v, not a proper list", v)
	}
	for i := range items {
		items[i], _ = object.Unwrap(items[i])
	}
	if len(items) != 3 || items[0].Num != 1 || items[1].Num != 2 || items[2].Num != 3 {
		t.Errorf("got %v, want (1 2 3)", items)
	}
}

func TestReadQuoteDesugarsToQuoteForm(t *testing.T) {
	v := readOne(t, "'(a b)")
	items, ok := object.ListToSlice(v)
	if !ok || len(items) != 2 {
		t.Fatalf("'(a b) should desugar to a 2-element list, got %v", v)
	}
	head, _ := object.Unwrap(items[0])
	sym, ok := head.Obj.(*object.Symbol)
	if !head.Is(object.KindSymbol) || !ok || sym.Name.Value != "quote" {
		t.Errorf("got %v, want leading 'quote symbol", head)
	}
}

func TestReadStringEscape(t *testing.T) {
	v := readOne(t, `"a\nb"`)
	s, ok := v.Obj.(*object.String)
	if !v.Is(object.KindString) || !ok {
		t.Fatalf("got %v, want a string", v)
	}
	if s.Value != "a\nb" {
		t.Errorf("got %q, want %q", s.Value, "a\nb")
	}
}

func TestReadAllMultipleForms(t *testing.T) {
	h := vm.New()
	r := reader.New("1 2 3", "<test>", h)
	forms, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %s", err)
	}
	if len(forms) != 3 {
		t.Fatalf("got %d forms, want 3", len(forms))
	}
}
