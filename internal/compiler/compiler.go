// Package compiler translates a Syntax-wrapped datum tree into bytecode.
// It is a recursive single-pass translator: there is no separate AST IR,
// and lexical analysis (locals, upvalues, tail-call discovery) happens
// inline as each form is compiled.
package compiler

import (
	"fmt"

	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/heap"
	"github.com/lumenlang/lumen/internal/object"
)

const localsMax = 256

// Local tracks one declared local variable's name, the scope depth it was
// declared at, and the stack slot it occupies.
type Local struct {
	Name       string
	Depth      int
	Slot       int
	IsCaptured bool
}

// fnCtx is one function's compilation context. Contexts form a stack
// linked via parent, mirroring the runtime's closure nesting; the VM's GC
// walks this chain (via the compiler's root-marking hook) so that
// in-progress constant pools and function objects stay alive while a form
// is mid-compile.
type fnCtx struct {
	parent   *fnCtx
	function *object.Function
	kind     object.FunctionKind

	locals     [localsMax]Local
	localCount int
	slotCount  int
	scopeDepth int

	upvalues     [localsMax]object.UpvalueDesc
	upvalueCount int

	tailSites []int

	// name is set for named lambdas (def/named-let). compileIdentifier does
	// not read it: a recursive self-reference resolves through local slot 0,
	// which compileLambda declares under the same name.
	name string
}

func (c *fnCtx) chunk() *object.Chunk { return c.function.Chunk }

// Error is a single compile diagnostic, tagged with the offending form's
// source position.
type Error struct {
	Pos     object.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Pos.File, e.Pos.Line, e.Message)
}

// Compiler compiles one source file's top-level forms. Each top-level form
// is compiled into its own zero-argument Function (TYPE_SCRIPT-ish), the
// way the reference interpreter compiles one form at a time so that a
// later top-level form can see definitions made by an earlier one.
type Compiler struct {
	heap     heap.Allocator
	cur      *fnCtx
	fileName string

	errors    []*Error
	panicMode bool
}

func New(h heap.Allocator, fileName string) *Compiler {
	return &Compiler{heap: h, fileName: fileName}
}

func (c *Compiler) Errors() []*Error { return c.errors }

// MarkRoots implements the VM's rootMarker hook: a collection triggered
// mid-compile must keep every function under construction in the active
// context chain alive, since none of them are reachable from the value
// stack until CLOSURE or RETURN makes them so.
func (c *Compiler) MarkRoots(mark func(object.Object)) {
	for ctx := c.cur; ctx != nil; ctx = ctx.parent {
		mark(ctx.function)
	}
}

// Compile compiles a single top-level Syntax-wrapped form into a Function
// of arity 0 whose body, when called, evaluates the form and returns its
// value. It returns nil and records diagnostics in Errors() on failure.
func (c *Compiler) Compile(form object.Value) *object.Function {
	fn := c.heap.NewFunction(object.FunctionKindScript)
	fn.Chunk = object.NewChunk(c.fileName)
	fn.Arity = 0

	ctx := &fnCtx{function: fn, kind: object.FunctionKindScript}
	ctx.addLocal("", 0) // slot 0: the closure itself
	c.cur = ctx

	c.panicMode = false
	_, pos := object.Unwrap(form)
	c.compileExpr(form, true)
	c.emit(bytecode.RETURN, pos.Line)

	c.patchTailCalls(ctx)
	c.cur = nil

	if len(c.errors) > 0 {
		return nil
	}
	return fn
}

func (c *Compiler) errorAt(pos object.Position, format string, args ...interface{}) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errors = append(c.errors, &Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// --- scope management -------------------------------------------------

func (c *fnCtx) addLocal(name string, slot int) {
	c.locals[c.localCount] = Local{Name: name, Depth: c.scopeDepth, Slot: slot}
	c.localCount++
	if slot >= c.slotCount {
		c.slotCount = slot + 1
	}
}

func (c *fnCtx) declareLocal(name string) int {
	for i := c.localCount - 1; i >= 0; i-- {
		if c.locals[i].Depth < c.scopeDepth {
			break
		}
		if c.locals[i].Name == name {
			return -1 // duplicate in same scope
		}
	}
	slot := c.slotCount
	c.slotCount++
	c.addLocal(name, slot)
	return slot
}

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

func (c *Compiler) endScope(line int) {
	ctx := c.cur
	ctx.scopeDepth--
	for ctx.localCount > 0 && ctx.locals[ctx.localCount-1].Depth > ctx.scopeDepth {
		if ctx.locals[ctx.localCount-1].IsCaptured {
			c.emit(bytecode.CLOSE_UPVALUE, line)
		} else {
			c.emit(bytecode.POP, line)
		}
		ctx.slotCount--
		ctx.localCount--
	}
}

func (c *fnCtx) resolveLocal(name string) int {
	for i := c.localCount - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot
		}
	}
	return -1
}

func (c *fnCtx) resolveLocalIndex(name string) (slot, idx int) {
	for i := c.localCount - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			return c.locals[i].Slot, i
		}
	}
	return -1, -1
}

func (c *fnCtx) resolveUpvalue(name string) int {
	if c.parent == nil {
		return -1
	}
	if slot, idx := c.parent.resolveLocalIndex(name); slot != -1 {
		c.parent.locals[idx].IsCaptured = true
		return c.addUpvalue(uint8(slot), true)
	}
	if up := c.parent.resolveUpvalue(name); up != -1 {
		return c.addUpvalue(uint8(up), false)
	}
	return -1
}

func (c *fnCtx) addUpvalue(index uint8, isLocal bool) int {
	for i := 0; i < c.upvalueCount; i++ {
		if c.upvalues[i].Index == index && c.upvalues[i].IsLocal == isLocal {
			return i
		}
	}
	c.upvalues[c.upvalueCount] = object.UpvalueDesc{IsLocal: isLocal, Index: index}
	c.upvalueCount++
	return c.upvalueCount - 1
}

// --- emit helpers -------------------------------------------------------

func (c *Compiler) emit(op bytecode.Op, line int) { c.cur.chunk().WriteOp(op, line) }

func (c *Compiler) emitByte(b byte, line int) { c.cur.chunk().Write(b, line) }

func (c *Compiler) emitConstant(v object.Value, line int) {
	idx := c.cur.chunk().AddConstant(v)
	c.emit(bytecode.CONSTANT, line)
	c.cur.chunk().WriteUint16(idx, line)
}

func (c *Compiler) emitJump(op bytecode.Op, line int) int {
	c.emit(op, line)
	c.emitByte(0xff, line)
	c.emitByte(0xff, line)
	return c.cur.chunk().Len() - 2
}

func (c *Compiler) patchJump(offset int) {
	chunk := c.cur.chunk()
	jump := chunk.Len() - offset - 2
	chunk.Code[offset] = byte(jump >> 8)
	chunk.Code[offset+1] = byte(jump)
}

// markTailSite records the offset of the CALL instruction just emitted, if
// the most recent instruction was in fact a CALL. It is the compiler's
// only mechanism for discovering tail calls; discardTailSites below lets
// sequential forms disavow tail sites found in non-final positions.
func (c *Compiler) markTailSite() {
	code := c.cur.chunk().Code
	n := len(code)
	if n >= 3 && bytecode.Op(code[n-3]) == bytecode.CALL {
		c.cur.tailSites = append(c.cur.tailSites, n-3)
	}
}

func (c *Compiler) resetTailSites() int { return len(c.cur.tailSites) }

func (c *Compiler) discardTailSites(mark int) { c.cur.tailSites = c.cur.tailSites[:mark] }

// patchTailCalls rewrites every recorded tail-call offset from CALL to
// TAIL_CALL once a function's body has been fully compiled.
func (c *Compiler) patchTailCalls(ctx *fnCtx) {
	code := ctx.chunk().Code
	for _, offset := range ctx.tailSites {
		code[offset] = byte(bytecode.TAIL_CALL)
	}
}
