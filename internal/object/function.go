package object

// FunctionKind distinguishes the implicit top-level script function from
// ordinary lambdas; only the distinction matters to the VM's entry-frame
// bookkeeping.
type FunctionKind uint8

const (
	FunctionKindFunction FunctionKind = iota
	FunctionKindScript
)

// KeywordParam describes one keyword parameter declared by a function:
// its interned name and its default value (unspecified when the parameter
// list gives none).
type KeywordParam struct {
	Name         *String
	DefaultValue Value
}

// Function is a compiled callable: its arity/rest-arg/keyword-parameter
// shape plus the bytecode chunk implementing its body.
type Function struct {
	Header
	Arity         int
	RestArgIndex  int // 1-based slot index of the rest parameter, 0 if none
	UpvalueCount  int
	KeywordArgs   []KeywordParam
	Chunk         *Chunk
	Name          *String
	Type          FunctionKind
}

func NewFunction(kind FunctionKind) *Function {
	return &Function{Header: NewHeader(KindFunction), Type: kind}
}

// UpvalueDesc records where a closure captures one of its upvalues from:
// a local slot in the immediately enclosing function (IsLocal) or an
// upvalue already captured by that enclosing function.
type UpvalueDesc struct {
	IsLocal bool
	Index   uint8
}

// Closure pairs a compiled Function with the module it was defined in and
// the concrete upvalues it captured at creation time.
type Closure struct {
	Header
	Function *Function
	Module   *Module
	Upvalues []*Upvalue
}

func NewClosure(fn *Function, module *Module) *Closure {
	return &Closure{Header: NewHeader(KindClosure), Function: fn, Module: module, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
}

// Upvalue captures a variable that outlives the stack frame that declared
// it. While Location indexes live into the VM's value stack it is "open";
// once Close is called, Closed holds the moved value and Location no
// longer refers to the stack. The VM threads open upvalues into a single
// list ordered by descending stack address via Next.
type Upvalue struct {
	Header
	Location int
	Closed   Value
	IsClosed bool
	Next     *Upvalue
}

func NewUpvalue(location int) *Upvalue {
	return &Upvalue{Header: NewHeader(KindUpvalue), Location: location}
}

func (u *Upvalue) Close(value Value) {
	u.Closed = value
	u.IsClosed = true
}
