// Package object defines the tagged value union and heap object model
// shared by the reader, compiler, and virtual machine.
package object

// Kind tags a heap Object so the GC and VM can narrow an interface value
// without a type switch on every access.
type Kind uint8

const (
	KindString Kind = iota
	KindSymbol
	KindKeyword
	KindSyntax
	KindCons
	KindArray
	KindFunction
	KindClosure
	KindUpvalue
	KindStackMarker
	KindContinuation
	KindNativeFunction
	KindPointer
	KindModule
	KindPort
	KindRecord
	KindRecordField
	KindRecordFieldAccessor
	KindRecordFieldSetter
	KindRecordPredicate
	KindRecordInstance
	KindError
)

// Header is embedded in every heap object. marked is flipped by the GC's
// mark phase and cleared again on the object's next sweep survival; next
// threads every live object into one linked list so sweep can walk them all
// without a second registry.
type Header struct {
	kind   Kind
	marked bool
	next   Object
}

// Object is implemented by every heap-allocated value. Narrowing wrappers
// (AsString, AsClosure, ...) assert on the concrete type after checking Kind.
type Object interface {
	Kind() Kind
	Marked() bool
	SetMarked(bool)
	Next() Object
	SetNext(Object)
}

func NewHeader(kind Kind) Header { return Header{kind: kind} }

func (h *Header) Kind() Kind        { return h.kind }
func (h *Header) Marked() bool      { return h.marked }
func (h *Header) SetMarked(m bool)  { h.marked = m }
func (h *Header) Next() Object      { return h.next }
func (h *Header) SetNext(o Object)  { h.next = o }
