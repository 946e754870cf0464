package vm_test

import (
	"strings"
	"testing"

	"github.com/lumenlang/lumen/internal/object"
	"github.com/lumenlang/lumen/internal/vm"
)

func eval(t *testing.T, src string) object.Value {
	t.Helper()
	m := vm.New()
	v, err := m.EvalString(src, "<test>")
	if err != nil {
		t.Fatalf("EvalString(%q): %s", src, err)
	}
	return v
}

func expectNumber(t *testing.T, src string, want float64) {
	t.Helper()
	v := eval(t, src)
	if !v.IsNumber() || v.Num != want {
		t.Errorf("%q: got %s, want %g", src, object.Inspect(v), want)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"311", 311},
		{"(+ 1 2 3)", 6},
		{"(- 10 3 2)", 5},
		{"(* 2 3 4)", 24},
		{"(/ 10 2)", 5},
		{"(- 5)", -5},
		{"(+ 1 (* 2 3))", 7},
		{"(% 10 3)", 1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectNumber(t, tt.input, tt.want)
		})
	}
}

func TestComparisonAndBooleans(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"(> 3 2)", true},
		{"(< 3 2)", false},
		{"(eqv? 1 1)", true},
		{"(equal? (list 1 2) (list 1 2))", true},
		{"(eqv? (list 1 2) (list 1 2))", false},
		{"(not #f)", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := eval(t, tt.input)
			if v.IsTruthy() != tt.want {
				t.Errorf("%q: got %s, want truthy=%v", tt.input, object.Inspect(v), tt.want)
			}
		})
	}
}

func TestIfAndConditionals(t *testing.T) {
	expectNumber(t, "(if #t 1 2)", 1)
	expectNumber(t, "(if #f 1 2)", 2)
	expectNumber(t, "(or #f 2 3)", 2)
	expectNumber(t, "(and 1 2 3)", 3)
}

func TestNamedLetLoop(t *testing.T) {
	expectNumber(t, "(let loop ((i 0)) (if (>= i 5) i (loop (+ i 1))))", 5)
}

func TestNamedLetDeepRecursionStaysWithinStack(t *testing.T) {
	// A tail-recursive named let should reuse its own call frame instead of
	// growing one per iteration; without TAIL_CALL rewriting this would
	// overflow FramesMax long before reaching 10000.
	expectNumber(t, "(let loop ((i 0)) (if (>= i 10000) i (loop (+ i 1))))", 10000)
}

func TestLambdaAndClosures(t *testing.T) {
	expectNumber(t, "((lambda (x y) (+ x y)) 3 4)", 7)
	expectNumber(t, `
		(define (make-adder n) (lambda (x) (+ x n)))
		(define add5 (make-adder 5))
		(add5 10)
	`, 15)
}

func TestRestParameters(t *testing.T) {
	v := eval(t, `
		(define (f a . rest) (cons a rest))
		(f 1 2 3)
	`)
	want := eval(t, "(list 1 2 3)")
	if !object.Equal(v, want) {
		t.Errorf("got %s, want %s", object.Inspect(v), object.Inspect(want))
	}
}

func TestRestParameterIsFalseWhenNothingIsLeftOver(t *testing.T) {
	m := vm.New()
	v, err := m.EvalString(`
		(define (f a . rest) rest)
		(f 1)
	`, "<test>")
	if err != nil {
		t.Fatalf("EvalString: %s", err)
	}
	if v.Kind != object.False {
		t.Errorf("calling with exactly the fixed arguments should bind rest to #f, got %s", object.Inspect(v))
	}
}

func TestKeywordArguments(t *testing.T) {
	expectNumber(t, `
		(define (greet :name "world" :times 1) times)
		(greet :times 3)
	`, 3)
}

func TestApply(t *testing.T) {
	expectNumber(t, `(apply + (list 1 2 3))`, 6)
}

func TestDelimitedContinuationAddsThroughTheCapturedFrame(t *testing.T) {
	expectNumber(t, "(+ 1 (reset (lambda () (+ 2 (shift (lambda (k) (k 3)))))))", 6)
}

func TestDelimitedContinuationDiscardingK(t *testing.T) {
	expectNumber(t, "(+ 1 (reset (lambda () (+ 2 (shift (lambda (k) 10))))))", 11)
}

func TestContinuationIsOneShot(t *testing.T) {
	m := vm.New()
	_, err := m.EvalString(`
		(define saved #f)
		(+ 1 (reset (lambda () (+ 2 (shift (lambda (k) (set! saved k) 0))))))
		(saved 1)
	`, "<test>")
	if err != nil {
		t.Fatalf("expected the first resumption to succeed: %s", err)
	}
	_, err = m.EvalString(`(saved 1)`, "<test>")
	if err == nil {
		t.Fatalf("expected resuming a continuation twice to be a runtime error")
	}
	if !strings.Contains(err.Error(), "already invoked") {
		t.Fatalf("expected a \"Continuation already invoked\" error, got: %s", err)
	}
}

func TestRecordTypeRoundTrip(t *testing.T) {
	m := vm.New()
	v, err := m.EvalString(`
		(define-record-type point (fields x y))
		(define p (make-point :x 1 :y 2))
		(list (point? p) (point-x p) (point-y p))
	`, "<test>")
	if err != nil {
		t.Fatalf("EvalString: %s", err)
	}
	items, ok := object.ListToSlice(v)
	if !ok || len(items) != 3 {
		t.Fatalf("got %v, want a 3-element list", v)
	}
	if items[0].Kind != object.True {
		t.Errorf("point? p: got %s, want #t", object.Inspect(items[0]))
	}
	if items[1].Num != 1 || items[2].Num != 2 {
		t.Errorf("got x=%v y=%v, want x=1 y=2", items[1], items[2])
	}
}

func TestRecordSetterMutatesSharedInstance(t *testing.T) {
	v := eval(t, `
		(define-record-type point (fields x y))
		(define p (make-point :x 1 :y 2))
		(define same p)
		(point-x-set! p 99)
		(point-x same)
	`)
	if v.Num != 99 {
		t.Errorf("expected the setter to mutate the shared instance, got %v", v)
	}
}

func TestDefineModuleAndImport(t *testing.T) {
	m := vm.New()
	_, err := m.EvalString(`
		(define-module (math utils))
		(define (square x) :export (* x x))
	`, "<test>")
	if err != nil {
		t.Fatalf("define-module form: %s", err)
	}
	_, err = m.EvalString(`
		(define-module (user))
		(module-import (math utils))
		(square 6)
	`, "<test>")
	if err != nil {
		t.Fatalf("module-import form: %s", err)
	}
	v, err := m.EvalString(`(square 6)`, "<test>")
	if err != nil {
		t.Fatalf("using an imported binding: %s", err)
	}
	if v.Num != 36 {
		t.Errorf("got %v, want 36", v)
	}
}

func TestStringAndListPrimitives(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`(string-append "foo" "bar")`, "foobar"},
		{`(number->string 42)`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := eval(t, tt.input)
			s, ok := v.Obj.(*object.String)
			if !v.Is(object.KindString) || !ok || s.Value != tt.want {
				t.Errorf("got %s, want %q", object.Inspect(v), tt.want)
			}
		})
	}
	expectNumber(t, `(length (list 1 2 3))`, 3)
	expectNumber(t, `(car (list 1 2 3))`, 1)
}

func TestUUIDAndGensymNatives(t *testing.T) {
	v := eval(t, "(uuid-string)")
	if !v.Is(object.KindString) {
		t.Fatalf("uuid-string should return a string, got %s", object.Inspect(v))
	}
	g1 := eval(t, `(gensym "x")`)
	g2 := eval(t, `(gensym "x")`)
	if object.Equal(g1, g2) {
		t.Errorf("gensym should never repeat a symbol: got %s twice", object.Inspect(g1))
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	m := vm.New()
	v, err := m.EvalString(`(yaml-decode (yaml-encode (list 1 2 3)))`, "<test>")
	if err != nil {
		t.Fatalf("EvalString: %s", err)
	}
	items, ok := object.ListToSlice(v)
	if !ok || len(items) != 3 {
		t.Fatalf("got %v, want a 3-element list", v)
	}
}

func TestUndefinedVariableIsARuntimeError(t *testing.T) {
	m := vm.New()
	if _, err := m.EvalString("(+ 1 undefined-name)", "<test>"); err == nil {
		t.Fatalf("expected an undefined-variable error")
	}
}

func TestShiftOutsideResetIsAnError(t *testing.T) {
	m := vm.New()
	if _, err := m.EvalString("(shift (lambda (k) (k 1)))", "<test>"); err == nil {
		t.Fatalf("expected shift used outside of reset to be a runtime error")
	}
}

func TestGarbageCollectionReclaimsUnreachableCons(t *testing.T) {
	m := vm.New()
	for i := 0; i < 5000; i++ {
		if _, err := m.EvalString(`(list 1 2 3 4 5 6 7 8)`, "<test>"); err != nil {
			t.Fatalf("iteration %d: %s", i, err)
		}
	}
	m.CollectGarbage()
}
