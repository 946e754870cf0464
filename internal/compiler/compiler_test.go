package compiler_test

import (
	"testing"

	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/compiler"
	"github.com/lumenlang/lumen/internal/object"
	"github.com/lumenlang/lumen/internal/reader"
	"github.com/lumenlang/lumen/internal/vm"
)

func compileOne(t *testing.T, src string) *object.Function {
	t.Helper()
	h := vm.New()
	r := reader.New(src, "<test>", h)
	form, err := r.ReadDatum()
	if err != nil {
		t.Fatalf("ReadDatum(%q): %s", src, err)
	}
	c := compiler.New(h, "<test>")
	fn := c.Compile(form)
	if fn == nil {
		errs := c.Errors()
		t.Fatalf("Compile(%q) failed: %v", src, errs)
	}
	return fn
}

// opsOf decodes the opcode byte at each instruction boundary, skipping
// known operand widths, so a test can assert on the shape of a chunk
// without hardcoding absolute byte offsets.
func opsOf(code []byte) []bytecode.Op {
	var ops []bytecode.Op
	for i := 0; i < len(code); {
		op := bytecode.Op(code[i])
		ops = append(ops, op)
		i++
		switch op {
		// CLOSURE's own operand is just the 2-byte constant index; none of
		// these fixtures compile a closure that captures an upvalue, so
		// there are no trailing (is_local, index) pairs to skip here.
		case bytecode.CONSTANT, bytecode.JUMP, bytecode.JUMP_IF_FALSE,
			bytecode.READ_GLOBAL, bytecode.SET_GLOBAL, bytecode.CLOSURE:
			i += 2
		case bytecode.POP_SCOPE, bytecode.LIST, bytecode.CALL, bytecode.TAIL_CALL,
			bytecode.READ_UPVALUE, bytecode.SET_UPVALUE, bytecode.READ_LOCAL,
			bytecode.SET_LOCAL, bytecode.DEFINE_RECORD:
			if op == bytecode.CALL || op == bytecode.TAIL_CALL {
				i += 2
			} else {
				i++
			}
		}
	}
	return ops
}

func containsOp(ops []bytecode.Op, want bytecode.Op) bool {
	for _, op := range ops {
		if op == want {
			return true
		}
	}
	return false
}

func TestIfCompilesToConditionalJumps(t *testing.T) {
	fn := compileOne(t, "(if #t (+ 3 1) 2)")
	ops := opsOf(fn.Chunk.Code)
	if !containsOp(ops, bytecode.JUMP_IF_FALSE) || !containsOp(ops, bytecode.JUMP) {
		t.Fatalf("expected JUMP_IF_FALSE and JUMP in %v", ops)
	}
	if !containsOp(ops, bytecode.ADD) {
		t.Fatalf("expected the then-branch's ADD in %v", ops)
	}
}

func TestOrShortCircuitsWithJumpIfFalse(t *testing.T) {
	fn := compileOne(t, "(or #f 2 3)")
	ops := opsOf(fn.Chunk.Code)
	if !containsOp(ops, bytecode.JUMP_IF_FALSE) {
		t.Fatalf("expected JUMP_IF_FALSE in %v", ops)
	}
	count := 0
	for _, op := range ops {
		if op == bytecode.JUMP {
			count++
		}
	}
	if count == 0 {
		t.Fatalf("expected at least one short-circuit JUMP in %v", ops)
	}
}

// lambdaBody finds the nested Function a top-level (lambda ...) form
// compiles to, by picking the sole Function out of the wrapping script's
// constant pool -- the lambda itself is never called at top level, so its
// own CALL/TAIL_CALL instructions live in that nested chunk, not in the
// wrapping script's.
func lambdaBody(t *testing.T, fn *object.Function) *object.Function {
	t.Helper()
	for _, c := range fn.Chunk.Constants {
		if inner, ok := c.Obj.(*object.Function); ok {
			return inner
		}
	}
	t.Fatalf("expected a nested Function in the constant pool of %v", fn.Chunk.Constants)
	return nil
}

func TestTailCallRewritesFinalCallInTailPosition(t *testing.T) {
	fn := compileOne(t, "(lambda (x) (g x) (g x))")
	body := lambdaBody(t, fn)
	ops := opsOf(body.Chunk.Code)
	if containsOp(ops, bytecode.CALL) && !containsOp(ops, bytecode.TAIL_CALL) {
		t.Fatalf("expected the final call to be rewritten to TAIL_CALL, got %v", ops)
	}
	if !containsOp(ops, bytecode.TAIL_CALL) {
		t.Fatalf("expected a TAIL_CALL in tail position, got %v", ops)
	}
}

func TestLetDesugarsToAnImmediatelyInvokedLambda(t *testing.T) {
	fn := compileOne(t, "(let ((x 3) (y 4)) (+ x y))")
	ops := opsOf(fn.Chunk.Code)
	if !containsOp(ops, bytecode.CLOSURE) || !containsOp(ops, bytecode.CALL) {
		t.Fatalf("expected let to desugar into a closure call, got %v", ops)
	}

	body := lambdaBody(t, fn)
	bodyOps := opsOf(body.Chunk.Code)
	if containsOp(bodyOps, bytecode.READ_GLOBAL) {
		t.Fatalf("let-bound names should resolve as locals, not globals: %v", bodyOps)
	}
	if !containsOp(bodyOps, bytecode.ADD) {
		t.Fatalf("expected ADD in the let body, got %v", bodyOps)
	}
}

func TestConstantPoolHoldsLiterals(t *testing.T) {
	fn := compileOne(t, `(display "hello")`)
	found := false
	for _, c := range fn.Chunk.Constants {
		if s, ok := c.Obj.(*object.String); ok && s.Value == "hello" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected \"hello\" in the constant pool, got %v", fn.Chunk.Constants)
	}
}
