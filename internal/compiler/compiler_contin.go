package compiler

import (
	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/object"
)

// compileReset compiles `(reset (lambda () body...))`. RESET is emitted
// before the thunk is compiled and called: it pushes a stack marker that
// delimits the prompt, so the marker is in place by the time the thunk's
// body runs and might shift out of it. The trailing NOP keeps the CALL
// that invokes the thunk from being mistaken for this function's own
// tail call and rewritten to TAIL_CALL -- a reset boundary must stay on
// the frame stack for shift to find, which frame reuse would destroy.
func (c *Compiler) compileReset(args []object.Value, pos object.Position) {
	if len(args) != 1 {
		c.errorAt(pos, "reset expects exactly one argument")
		return
	}
	c.emit(bytecode.RESET, pos.Line)
	c.compileExpr(args[0], false)
	c.emit(bytecode.CALL, pos.Line)
	c.emitByte(0, pos.Line)
	c.emitByte(0, pos.Line)
	c.emit(bytecode.NOP, pos.Line)
}

// compileShift compiles `(shift (lambda (k) body...))`. The one-argument
// lambda is compiled and pushed first; SHIFT captures the continuation up
// to the nearest reset marker and calls the lambda with it. The CALL
// emitted after SHIFT stays in the captured frame: resuming the
// continuation steps over it to the trailing NOP, with the resume value on
// the stack in the CALL's place. As with reset, the NOP also keeps that
// CALL from being rewritten to TAIL_CALL.
func (c *Compiler) compileShift(args []object.Value, pos object.Position) {
	if len(args) != 1 {
		c.errorAt(pos, "shift expects exactly one argument")
		return
	}
	c.compileExpr(args[0], false)
	c.emit(bytecode.SHIFT, pos.Line)
	c.emit(bytecode.CALL, pos.Line)
	c.emitByte(1, pos.Line)
	c.emitByte(0, pos.Line)
	c.emit(bytecode.NOP, pos.Line)
}
