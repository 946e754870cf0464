package compiler

import (
	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/object"
)

type letBinding struct {
	name *object.Symbol
	init object.Value
}

func parseBindings(v object.Value, pos object.Position) ([]letBinding, bool) {
	items, ok := object.ListToSlice(v)
	if !ok {
		return nil, false
	}
	bindings := make([]letBinding, 0, len(items))
	for _, item := range items {
		pair, ok := object.ListToSlice(item)
		if !ok || len(pair) != 2 {
			return nil, false
		}
		nameDatum, _ := object.Unwrap(pair[0])
		sym, ok := nameDatum.Obj.(*object.Symbol)
		if !ok {
			return nil, false
		}
		bindings = append(bindings, letBinding{name: sym, init: pair[1]})
	}
	return bindings, true
}

// compileLet compiles both plain `(let ((a init)...) body...)` and named
// `(let loop ((a init)...) body...)` forms. Both desugar into an
// immediately-invoked lambda; the named form additionally reserves a
// local slot for the loop name before compiling the lambda, fills that slot
// with the closure once it exists, and calls the closure through it. Inside
// the body a self-recursive call resolves through the lambda's own slot 0,
// which compileLambda names after the loop.
func (c *Compiler) compileLet(args []object.Value, pos object.Position, isTail bool) {
	if len(args) < 1 {
		c.errorAt(pos, "let requires a binding list")
		return
	}

	var loopName *object.Symbol
	rest := args
	head, headPos := object.Unwrap(args[0])
	if head.Is(object.KindSymbol) {
		loopName = head.Obj.(*object.Symbol)
		if len(args) < 2 {
			c.errorAt(headPos, "named let requires a binding list")
			return
		}
		rest = args[1:]
	}

	bindings, ok := parseBindings(rest[0], pos)
	if !ok {
		c.errorAt(pos, "malformed let bindings")
		return
	}
	body := rest[1:]

	paramNames := make([]object.Value, len(bindings))
	for i, b := range bindings {
		paramNames[i] = object.ObjVal(b.name)
	}
	paramList := object.SliceToList(paramNames)

	if loopName == nil {
		c.compileLambda(paramList, body, pos, "")
		for _, b := range bindings {
			c.compileExpr(b.init, false)
		}
		c.emit(bytecode.CALL, pos.Line)
		c.emitByte(byte(len(bindings)), pos.Line)
		c.emitByte(0, pos.Line)
		if isTail {
			c.markTailSite()
		}
		return
	}

	c.emitConstant(object.UnspecifiedVal(), pos.Line)
	slot := c.cur.declareLocal(loopName.Name.Value)

	c.compileLambda(paramList, body, pos, loopName.Name.Value)
	c.emit(bytecode.SET_LOCAL, pos.Line)
	c.emitByte(byte(slot), pos.Line)
	c.emit(bytecode.POP, pos.Line)

	c.emit(bytecode.READ_LOCAL, pos.Line)
	c.emitByte(byte(slot), pos.Line)
	for _, b := range bindings {
		c.compileExpr(b.init, false)
	}
	c.emit(bytecode.CALL, pos.Line)
	c.emitByte(byte(len(bindings)), pos.Line)
	c.emitByte(0, pos.Line)
	if isTail {
		c.markTailSite()
	}
}
