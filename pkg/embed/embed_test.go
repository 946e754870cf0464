package embed_test

import (
	"bytes"
	"testing"

	"github.com/lumenlang/lumen/pkg/embed"
)

func TestEvalStringReturnsLastFormsValue(t *testing.T) {
	v := embed.New(nil)
	result, err := v.EvalString("(+ 1 2) (* 3 4)", "<test>")
	if err != nil {
		t.Fatalf("EvalString: %s", err)
	}
	if !result.IsNumber() || result.Float64() != 12 {
		t.Errorf("got %s, want 12", result.Inspect())
	}
}

func TestSetOutputCapturesDisplay(t *testing.T) {
	v := embed.New(nil)
	var buf bytes.Buffer
	v.SetOutput(&buf)
	if _, err := v.EvalString(`(display "hello")`, "<test>"); err != nil {
		t.Fatalf("EvalString: %s", err)
	}
	if buf.String() != "hello" {
		t.Errorf("got %q, want %q", buf.String(), "hello")
	}
}

func TestRegisterModuleAndFunc(t *testing.T) {
	v := embed.New(nil)
	v.RegisterModule("host")
	err := v.RegisterFunc("host", "double", func(argc int, args []embed.Value) (embed.Value, error) {
		return embed.Number(args[0].Float64() * 2), nil
	})
	if err != nil {
		t.Fatalf("RegisterFunc: %s", err)
	}

	result, err := v.EvalString(`
		(module-import (host))
		(double 21)
	`, "<test>")
	if err != nil {
		t.Fatalf("EvalString: %s", err)
	}
	if result.Float64() != 42 {
		t.Errorf("got %v, want 42", result.Float64())
	}
}

func TestCallInvokesAClosureValue(t *testing.T) {
	v := embed.New(nil)
	if _, err := v.EvalString(`(define (square x) (* x x))`, "<test>"); err != nil {
		t.Fatalf("defining square: %s", err)
	}
	fn, ok := v.Lookup("square")
	if !ok {
		t.Fatalf("expected square to be defined")
	}
	result, err := v.Call(fn, []embed.Value{embed.Number(7)})
	if err != nil {
		t.Fatalf("Call: %s", err)
	}
	if result.Float64() != 49 {
		t.Errorf("got %v, want 49", result.Float64())
	}
}

func TestCurrentModuleGetAndSet(t *testing.T) {
	v := embed.New(nil)
	if v.CurrentModuleName() != "user" {
		t.Errorf("got %q, want \"user\"", v.CurrentModuleName())
	}
	if _, err := v.EvalString(`(define-module (scratch))`, "<test>"); err != nil {
		t.Fatalf("define-module: %s", err)
	}
	if v.CurrentModuleName() != "scratch" {
		t.Errorf("got %q, want \"scratch\"", v.CurrentModuleName())
	}
	if !v.SetCurrentModule("user") {
		t.Fatalf("expected to switch back to the user module")
	}
	if v.CurrentModuleName() != "user" {
		t.Errorf("got %q, want \"user\"", v.CurrentModuleName())
	}
}
