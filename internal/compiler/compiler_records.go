package compiler

import (
	"github.com/lumenlang/lumen/internal/bytecode"
	"github.com/lumenlang/lumen/internal/object"
)

// compileDefineRecordType compiles `(define-record-type name (fields f...))`.
// It emits the type name symbol followed by, for every field, the field's
// name symbol and its default value (literal `#f` for a bare field name, or
// the second element of a `(name default)` pair); DEFINE_RECORD then reads
// that flat layout back off the stack at run time.
func (c *Compiler) compileDefineRecordType(args []object.Value, pos object.Position) {
	if len(args) != 2 {
		c.errorAt(pos, "define-record-type expects a name and a fields clause")
		return
	}
	nameDatum, namePos := object.Unwrap(args[0])
	if !nameDatum.Is(object.KindSymbol) {
		c.errorAt(namePos, "record type name must be an identifier")
		return
	}
	c.emitConstant(nameDatum, pos.Line)

	fieldItems, ok := object.ListToSlice(args[1])
	if !ok || len(fieldItems) < 1 {
		c.errorAt(pos, "expected a 'fields' clause")
		return
	}
	headDatum, headPos := object.Unwrap(fieldItems[0])
	headSym, ok := headDatum.Obj.(*object.Symbol)
	if !ok || headSym.Name.Value != "fields" {
		c.errorAt(headPos, "expected 'fields' after define-record-type name")
		return
	}

	fieldCount := 0
	for _, f := range fieldItems[1:] {
		fieldDatum, fieldPos := object.Unwrap(f)
		switch {
		case fieldDatum.Is(object.KindSymbol):
			c.emitConstant(fieldDatum, fieldPos.Line)
			c.emitConstant(object.FalseVal(), fieldPos.Line)
		case fieldDatum.Is(object.KindCons):
			pair, ok := object.ListToSlice(fieldDatum)
			if !ok || len(pair) != 2 {
				c.errorAt(fieldPos, "malformed record field")
				continue
			}
			nameD, np := object.Unwrap(pair[0])
			if !nameD.Is(object.KindSymbol) {
				c.errorAt(np, "record field name must be an identifier")
				continue
			}
			defD, dp := object.Unwrap(pair[1])
			c.emitConstant(nameD, np.Line)
			c.emitConstant(defD, dp.Line)
		default:
			c.errorAt(fieldPos, "record fields must be identifiers or (name default) pairs")
			continue
		}
		fieldCount++
	}
	if fieldCount > 255 {
		c.errorAt(pos, "too many record fields")
		return
	}
	c.emit(bytecode.DEFINE_RECORD, pos.Line)
	c.emitByte(byte(fieldCount), pos.Line)
}
