package compiler

import (
	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/object"
)

// compileLambdaExpr compiles `(lambda params body...)` as an expression,
// leaving the resulting closure on the stack. The parameter list is passed
// through to compileLambda unsliced: it may be a proper list of symbols, a
// dotted list ending in a rest symbol, or (for an all-rest lambda) a bare
// symbol in place of the whole list.
func (c *Compiler) compileLambdaExpr(args []object.Value, pos object.Position, name string) {
	if len(args) < 1 {
		c.errorAt(pos, "lambda requires a parameter list")
		return
	}
	c.compileLambda(args[0], args[1:], pos, name)
}

// compileLambda compiles a parameter list plus body into a Function
// constant and emits CLOSURE to instantiate it. paramList is walked as a
// raw (possibly improper) Cons chain rather than pre-sliced, since a rest
// parameter is represented the ordinary Scheme way: `(x y . rest)` is a
// genuinely improper list whose final cdr is the rest symbol, and a lambda
// that binds its whole argument list is written with a bare symbol instead
// of a list at all. A keyword parameter is written as `:name default` --
// two consecutive list elements -- and contributes its own local slot plus
// a KeywordParam entry on the function.
func (c *Compiler) compileLambda(paramList object.Value, body []object.Value, pos object.Position, name string) *object.Function {
	parent := c.cur
	fn := c.heap.NewFunction(object.FunctionKindFunction)
	fn.Chunk = object.NewChunk(c.fileName)
	if name != "" {
		fn.Name = c.heap.InternString(name)
	}

	ctx := &fnCtx{parent: parent, function: fn, kind: object.FunctionKindFunction, name: name}
	ctx.addLocal(name, 0) // slot 0: the closure itself, for self-recursion
	c.cur = ctx

	restIndex := 0
	cur := paramList
	for {
		datum, ppos := object.Unwrap(cur)
		if datum.IsEmpty() {
			break
		}
		if !datum.Is(object.KindCons) {
			// An improper tail: either the rest symbol of a dotted list, or
			// (when cur is still the original paramList) an all-rest lambda.
			sym, ok := datum.Obj.(*object.Symbol)
			if !ok {
				c.errorAt(ppos, "malformed parameter list")
				break
			}
			restIndex = ctx.declareLocal(sym.Name.Value) + 1
			break
		}

		cons := datum.Obj.(*object.Cons)
		itemDatum, ipos := object.Unwrap(cons.Car)
		switch {
		case itemDatum.Is(object.KindKeyword):
			kwName := object.TextOf(itemDatum.Obj)
			var def object.Value
			nextDatum, _ := object.Unwrap(cons.Cdr)
			if nextCons, ok := nextDatum.Obj.(*object.Cons); ok {
				defDatum, _ := object.Unwrap(nextCons.Car)
				def = defDatum
				cur = nextCons.Cdr
			} else {
				def = object.UnspecifiedVal()
				cur = cons.Cdr
			}
			fn.KeywordArgs = append(fn.KeywordArgs, object.KeywordParam{
				Name:         c.heap.InternString(kwName),
				DefaultValue: def,
			})
			ctx.declareLocal(kwName)
			continue
		case itemDatum.Is(object.KindSymbol):
			sym := itemDatum.Obj.(*object.Symbol)
			fn.Arity++
			ctx.declareLocal(sym.Name.Value)
		default:
			c.errorAt(ipos, "malformed parameter")
		}
		cur = cons.Cdr
	}
	fn.RestArgIndex = restIndex

	for j, b := range body {
		last := j == len(body)-1
		if last {
			c.compileExpr(b, true)
			c.markTailSite()
		} else {
			mark := c.resetTailSites()
			c.compileExpr(b, false)
			c.discardTailSites(mark)
			_, p := object.Unwrap(b)
			c.emit(bytecode.POP, p.Line)
		}
	}
	if len(body) == 0 {
		c.emitConstant(object.UnspecifiedVal(), pos.Line)
	}
	c.emit(bytecode.RETURN, pos.Line)

	c.patchTailCalls(ctx)
	fn.UpvalueCount = ctx.upvalueCount
	upvals := ctx.upvalues
	upvalCount := ctx.upvalueCount

	c.cur = parent

	idx := c.cur.chunk().AddConstant(object.ObjVal(fn))
	c.emit(bytecode.CLOSURE, pos.Line)
	c.emitUint16(idx, pos.Line)
	for k := 0; k < upvalCount; k++ {
		if upvals[k].IsLocal {
			c.emitByte(1, pos.Line)
		} else {
			c.emitByte(0, pos.Line)
		}
		c.emitByte(upvals[k].Index, pos.Line)
	}

	return fn
}
