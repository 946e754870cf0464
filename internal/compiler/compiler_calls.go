package compiler

import (
	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/object"
)

// compileCall compiles a general function call. Arguments are compiled
// left to right; a keyword argument is written as a `:name value` pair in
// source and compiled as two stack values (the keyword object itself,
// then the value) so the callee can match them against its declared
// keyword parameters by name at run time.
func (c *Compiler) compileCall(callee object.Value, args []object.Value, pos object.Position, isTail bool) {
	mark := c.resetTailSites()
	c.compileExpr(callee, false)

	argc, kwargc := 0, 0
	for i := 0; i < len(args); i++ {
		datum, apos := object.Unwrap(args[i])
		if datum.Is(object.KindKeyword) && i+1 < len(args) {
			c.emitConstant(datum, apos.Line)
			c.compileExpr(args[i+1], false)
			i++
			kwargc++
			continue
		}
		c.compileExpr(args[i], false)
		argc++
	}
	if argc > 255 || kwargc > 255 {
		c.errorAt(pos, "too many arguments")
		return
	}
	c.discardTailSites(mark)

	c.emit(bytecode.CALL, pos.Line)
	c.emitByte(byte(argc), pos.Line)
	c.emitByte(byte(kwargc), pos.Line)
	if isTail {
		c.markTailSite()
	}
}

// compileApply compiles `(apply proc arg... arglist)`: the final argument
// must evaluate to a list, which is spliced onto the end of the
// preceding fixed arguments at call time. Unlike plain calls, apply sites
// are never rewritten into tail calls: splicing the trailing list happens
// at the APPLY opcode itself, which TAIL_CALL's frame-reuse path doesn't
// know how to do.
func (c *Compiler) compileApply(args []object.Value, pos object.Position) {
	if len(args) < 2 {
		c.errorAt(pos, "apply requires a procedure and at least one argument")
		return
	}
	c.compileExpr(args[0], false)
	for _, a := range args[1:] {
		c.compileExpr(a, false)
	}
	n := len(args) - 1
	if n > 255 {
		c.errorAt(pos, "too many arguments to apply")
		return
	}
	c.emit(bytecode.APPLY, pos.Line)
	c.emitByte(byte(n), pos.Line)
}

func (c *Compiler) compilePrimitive(sub object.SubKind, args []object.Value, pos object.Position) {
	switch sub {
	case object.SubAdd, object.SubMul:
		c.compileVariadicArith(sub, args, pos)
	case object.SubSub:
		if len(args) == 1 {
			c.emitConstant(object.NumberVal(0), pos.Line)
			c.compileExpr(args[0], false)
			c.emit(bytecode.SUB, pos.Line)
			return
		}
		c.compileVariadicArith(sub, args, pos)
	case object.SubDiv:
		if len(args) == 1 {
			c.emitConstant(object.NumberVal(1), pos.Line)
			c.compileExpr(args[0], false)
			c.emit(bytecode.DIV, pos.Line)
			return
		}
		c.compileVariadicArith(sub, args, pos)
	case object.SubMod:
		c.requireBinary(args, pos, "%")
		c.compileExpr(args[0], false)
		c.compileExpr(args[1], false)
		c.emit(bytecode.MOD, pos.Line)
	case object.SubGt, object.SubGe, object.SubLt, object.SubLe:
		c.compileComparison(sub, args, pos)
	case object.SubEqvP:
		c.requireBinary(args, pos, "eqv?")
		c.compileExpr(args[0], false)
		c.compileExpr(args[1], false)
		c.emit(bytecode.EQV, pos.Line)
	case object.SubEqualP:
		c.requireBinary(args, pos, "equal?")
		c.compileExpr(args[0], false)
		c.compileExpr(args[1], false)
		c.emit(bytecode.EQUAL, pos.Line)
	case object.SubNot:
		if len(args) != 1 {
			c.errorAt(pos, "not expects exactly one argument")
			return
		}
		c.compileExpr(args[0], false)
		c.emit(bytecode.NOT, pos.Line)
	case object.SubListOp:
		for _, a := range args {
			c.compileExpr(a, false)
		}
		if len(args) > 255 {
			c.errorAt(pos, "too many elements to list")
			return
		}
		c.emit(bytecode.LIST, pos.Line)
		c.emitByte(byte(len(args)), pos.Line)
	case object.SubConsOp:
		c.requireBinary(args, pos, "cons")
		c.compileExpr(args[0], false)
		c.compileExpr(args[1], false)
		c.emit(bytecode.CONS, pos.Line)
	case object.SubDisplayOp:
		if len(args) != 1 {
			c.errorAt(pos, "display expects exactly one argument")
			return
		}
		c.compileExpr(args[0], false)
		c.emit(bytecode.DISPLAY, pos.Line)
	}
}

func (c *Compiler) requireBinary(args []object.Value, pos object.Position, name string) {
	if len(args) != 2 {
		c.errorAt(pos, "%s expects exactly two arguments", name)
	}
}

func (c *Compiler) compileVariadicArith(sub object.SubKind, args []object.Value, pos object.Position) {
	if len(args) == 0 {
		c.errorAt(pos, "operator requires at least one argument")
		return
	}
	op := bytecode.ADD
	switch sub {
	case object.SubSub:
		op = bytecode.SUB
	case object.SubMul:
		op = bytecode.MUL
	case object.SubDiv:
		op = bytecode.DIV
	}
	c.compileExpr(args[0], false)
	for _, a := range args[1:] {
		c.compileExpr(a, false)
		c.emit(op, pos.Line)
	}
}

func (c *Compiler) compileComparison(sub object.SubKind, args []object.Value, pos object.Position) {
	if len(args) != 2 {
		c.errorAt(pos, "comparison expects exactly two arguments")
		return
	}
	op := bytecode.GT
	switch sub {
	case object.SubGe:
		op = bytecode.GE
	case object.SubLt:
		op = bytecode.LT
	case object.SubLe:
		op = bytecode.LE
	}
	c.compileExpr(args[0], false)
	c.compileExpr(args[1], false)
	c.emit(op, pos.Line)
}
