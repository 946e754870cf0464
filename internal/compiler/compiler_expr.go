package compiler

import (
	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/object"
)

// compileExpr compiles one Syntax-wrapped form. isTail is true when the
// result of this expression is returned directly from the enclosing
// function body, which is the only position tail calls are recognized in.
func (c *Compiler) compileExpr(v object.Value, isTail bool) {
	datum, pos := object.Unwrap(v)

	switch {
	case datum.Kind == object.Number, datum.Kind == object.True, datum.Kind == object.False,
		datum.Kind == object.Char, datum.Kind == object.Eof:
		c.compileLiteral(datum, pos)
	case datum.IsEmpty():
		c.emit(bytecode.EMPTY, pos.Line)
	case datum.Is(object.KindString), datum.Is(object.KindKeyword):
		c.emitConstant(datum, pos.Line)
	case datum.Is(object.KindSymbol):
		c.compileIdentifier(datum.Obj.(*object.Symbol), pos)
	case datum.Is(object.KindCons):
		c.compileForm(datum.Obj.(*object.Cons), pos, isTail)
	default:
		c.errorAt(pos, "cannot compile expression")
	}
}

func (c *Compiler) compileLiteral(datum object.Value, pos object.Position) {
	switch datum.Kind {
	case object.True:
		c.emit(bytecode.TRUE, pos.Line)
	case object.False:
		c.emit(bytecode.FALSE, pos.Line)
	default:
		c.emitConstant(datum, pos.Line)
	}
}

// compileIdentifier resolves a bare reference: local slot, enclosing
// upvalue, or (failing both) a global/module lookup by name.
func (c *Compiler) compileIdentifier(sym *object.Symbol, pos object.Position) {
	name := sym.Name.Value
	if slot := c.cur.resolveLocal(name); slot != -1 {
		c.emit(bytecode.READ_LOCAL, pos.Line)
		c.emitByte(byte(slot), pos.Line)
		return
	}
	if idx := c.cur.resolveUpvalue(name); idx != -1 {
		c.emit(bytecode.READ_UPVALUE, pos.Line)
		c.emitByte(byte(idx), pos.Line)
		return
	}
	c.emit(bytecode.READ_GLOBAL, pos.Line)
	c.emitUint16(c.cur.chunk().AddConstant(object.ObjVal(sym.Name)), pos.Line)
}

func (c *Compiler) emitUint16(idx int, line int) { c.cur.chunk().WriteUint16(idx, line) }

// compileForm dispatches a list form by its head symbol's sub-kind. Forms
// whose head is not a recognized keyword/primitive compile as an ordinary
// call, including the case where the head is itself a compound expression
// (e.g. ((lambda (x) x) 5)).
func (c *Compiler) compileForm(cons *object.Cons, pos object.Position, isTail bool) {
	headDatum, _ := object.Unwrap(cons.Car)
	var sub object.SubKind
	if headDatum.Is(object.KindSymbol) {
		sub = headDatum.Obj.(*object.Symbol).SubKind
	}

	args, ok := object.ListToSlice(cons.Cdr)
	if !ok {
		c.errorAt(pos, "improper argument list")
		return
	}

	switch sub {
	case object.SubQuote:
		c.compileQuote(args, pos)
	case object.SubIf:
		c.compileIf(args, pos, isTail)
	case object.SubAnd:
		c.compileAnd(args, pos)
	case object.SubOr:
		c.compileOr(args, pos)
	case object.SubBegin:
		c.compileBegin(args, pos, isTail)
	case object.SubLambda:
		c.compileLambdaExpr(args, pos, "")
	case object.SubDefine:
		c.compileDefine(args, pos)
	case object.SubSetBang:
		c.compileSetBang(args, pos)
	case object.SubLet:
		c.compileLet(args, pos, isTail)
	case object.SubApply:
		c.compileApply(args, pos)
	case object.SubReset:
		c.compileReset(args, pos)
	case object.SubShift:
		c.compileShift(args, pos)
	case object.SubDefineModule:
		c.compileDefineModule(args, pos)
	case object.SubModuleImport:
		c.compileModuleImport(args, pos)
	case object.SubModuleEnter:
		c.compileModuleEnter(args, pos)
	case object.SubDefineRecordType:
		c.compileDefineRecordType(args, pos)
	case object.SubLoadFile:
		c.compileLoadFile(args, pos)
	case object.SubBreak:
		c.emit(bytecode.BREAK, pos.Line)
	case object.SubAdd, object.SubSub, object.SubMul, object.SubDiv, object.SubMod,
		object.SubGt, object.SubGe, object.SubLt, object.SubLe,
		object.SubEqvP, object.SubEqualP, object.SubNot, object.SubListOp,
		object.SubConsOp, object.SubDisplayOp:
		c.compilePrimitive(sub, args, pos)
	default:
		c.compileCall(cons.Car, args, pos, isTail)
	}
}

func (c *Compiler) compileQuote(args []object.Value, pos object.Position) {
	if len(args) != 1 {
		c.errorAt(pos, "quote expects exactly one argument")
		return
	}
	// A quoted datum is emitted as a literal constant exactly as read: the
	// reader already built the Cons/Syntax/atom structure, so the value
	// simply becomes a constant-pool entry.
	c.emitConstant(args[0], pos.Line)
}

func (c *Compiler) compileIf(args []object.Value, pos object.Position, isTail bool) {
	if len(args) != 2 && len(args) != 3 {
		c.errorAt(pos, "if expects a test, then-branch, and optional else-branch")
		return
	}
	mark := c.resetTailSites()
	c.compileExpr(args[0], false)
	c.discardTailSites(mark)

	thenJump := c.emitJump(bytecode.JUMP_IF_FALSE, pos.Line)
	c.emit(bytecode.POP, pos.Line)
	c.compileExpr(args[1], isTail)
	if isTail {
		c.markTailSite()
	}
	elseJump := c.emitJump(bytecode.JUMP, pos.Line)

	c.patchJump(thenJump)
	c.emit(bytecode.POP, pos.Line)
	if len(args) == 3 {
		c.compileExpr(args[2], isTail)
		if isTail {
			c.markTailSite()
		}
	} else {
		c.emitConstant(object.UnspecifiedVal(), pos.Line)
	}
	c.patchJump(elseJump)
}

func (c *Compiler) compileAnd(args []object.Value, pos object.Position) {
	if len(args) == 0 {
		c.emit(bytecode.TRUE, pos.Line)
		return
	}
	c.compileExpr(args[0], false)
	var ends []int
	for _, a := range args[1:] {
		ends = append(ends, c.emitJump(bytecode.JUMP_IF_FALSE, pos.Line))
		c.emit(bytecode.POP, pos.Line)
		c.compileExpr(a, false)
	}
	for _, j := range ends {
		c.patchJump(j)
	}
}

func (c *Compiler) compileOr(args []object.Value, pos object.Position) {
	if len(args) == 0 {
		c.emit(bytecode.FALSE, pos.Line)
		return
	}
	c.compileExpr(args[0], false)
	var ends []int
	for _, a := range args[1:] {
		elseJump := c.emitJump(bytecode.JUMP_IF_FALSE, pos.Line)
		ends = append(ends, c.emitJump(bytecode.JUMP, pos.Line))
		c.patchJump(elseJump)
		c.emit(bytecode.POP, pos.Line)
		c.compileExpr(a, false)
	}
	for _, j := range ends {
		c.patchJump(j)
	}
}

func (c *Compiler) compileBegin(args []object.Value, pos object.Position, isTail bool) {
	if len(args) == 0 {
		c.emitConstant(object.UnspecifiedVal(), pos.Line)
		return
	}
	for i, a := range args {
		last := i == len(args)-1
		if last {
			c.compileExpr(a, isTail)
			if isTail {
				c.markTailSite()
			}
		} else {
			mark := c.resetTailSites()
			c.compileExpr(a, false)
			c.discardTailSites(mark)
			_, p := object.Unwrap(a)
			c.emit(bytecode.POP, p.Line)
		}
	}
}

func (c *Compiler) compileSetBang(args []object.Value, pos object.Position) {
	if len(args) != 2 {
		c.errorAt(pos, "set! expects a name and a value")
		return
	}
	nameDatum, namePos := object.Unwrap(args[0])
	if !nameDatum.Is(object.KindSymbol) {
		c.errorAt(namePos, "set! target must be an identifier")
		return
	}
	name := nameDatum.Obj.(*object.Symbol).Name.Value

	c.compileExpr(args[1], false)

	if slot := c.cur.resolveLocal(name); slot != -1 {
		c.emit(bytecode.SET_LOCAL, pos.Line)
		c.emitByte(byte(slot), pos.Line)
		return
	}
	if idx := c.cur.resolveUpvalue(name); idx != -1 {
		c.emit(bytecode.SET_UPVALUE, pos.Line)
		c.emitByte(byte(idx), pos.Line)
		return
	}
	c.emit(bytecode.SET_GLOBAL, pos.Line)
	c.emitUint16(c.cur.chunk().AddConstant(object.ObjVal(nameDatum.Obj.(*object.Symbol).Name)), pos.Line)
}

// compileDefine handles both `(define name expr)` and the function-sugar
// `(define (name args...) body...)`. At top scope it binds a global;
// inside a function body it declares a new local in the current slot,
// matching the reference interpreter's "a local is just a stack slot"
// discipline.
func (c *Compiler) compileDefine(args []object.Value, pos object.Position) {
	if len(args) < 1 {
		c.errorAt(pos, "define requires a target")
		return
	}
	target, targetPos := object.Unwrap(args[0])

	if target.Is(object.KindCons) {
		cons := target.Obj.(*object.Cons)
		nameDatum, namePos := object.Unwrap(cons.Car)
		if !nameDatum.Is(object.KindSymbol) {
			c.errorAt(namePos, "function name must be an identifier")
			return
		}
		name := nameDatum.Obj.(*object.Symbol)
		body, exported := stripDefineAttributes(args[1:])
		c.compileLambda(cons.Cdr, body, targetPos, name.Name.Value)
		c.bindDefine(name, pos, exported)
		return
	}

	if !target.Is(object.KindSymbol) {
		c.errorAt(targetPos, "define target must be an identifier or parameter list")
		return
	}
	name := target.Obj.(*object.Symbol)
	rest, exported := stripDefineAttributes(args[1:])
	if len(rest) >= 1 {
		c.compileExpr(rest[0], false)
	} else {
		c.emitConstant(object.UnspecifiedVal(), pos.Line)
	}
	c.bindDefine(name, pos, exported)
}

// stripDefineAttributes consumes a leading :export keyword and/or leading
// string-literal docstring from a define form's trailing forms (in either
// order), stopping as soon as a single form remains so a one-form value or
// body is never mistaken for an attribute. It returns the remaining forms
// and whether :export was seen.
func stripDefineAttributes(forms []object.Value) ([]object.Value, bool) {
	exported := false
	for len(forms) > 1 {
		datum, _ := object.Unwrap(forms[0])
		switch {
		case datum.Is(object.KindKeyword) && object.TextOf(datum.Obj) == "export":
			exported = true
			forms = forms[1:]
		case datum.Is(object.KindString):
			forms = forms[1:]
		default:
			return forms, exported
		}
	}
	return forms, exported
}

func (c *Compiler) bindDefine(name *object.Symbol, pos object.Position, exported bool) {
	if c.cur.scopeDepth == 0 {
		c.emit(bytecode.DEFINE_GLOBAL, pos.Line)
		c.emitUint16(c.cur.chunk().AddConstant(object.ObjVal(name.Name)), pos.Line)
		if exported {
			c.emitConstant(object.ObjVal(name.Name), pos.Line)
			c.emit(bytecode.EXPORT_SYMBOL, pos.Line)
		}
		return
	}
	c.cur.declareLocal(name.Name.Value)
	if exported {
		c.errorAt(pos, ":export is only valid for top-level definitions")
	}
}
