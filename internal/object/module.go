package object

// Module is a named scope with its own local bindings, import set, and
// export set. InitFunction is traced by the collector but never set or run
// by the VM: a module loaded from a file is initialized by running that
// file's forms when it is first resolved.
type Module struct {
	Header
	Name         *String
	Locals       map[string]Value
	Imports      []*Module
	Exports      map[string]bool
	InitFunction *Closure
	NeedsInit    bool
}

func NewModule(name *String) *Module {
	return &Module{
		Header:    NewHeader(KindModule),
		Name:      name,
		Locals:    make(map[string]Value),
		Exports:   make(map[string]bool),
		NeedsInit: true,
	}
}

func (m *Module) Export(name string) { m.Exports[name] = true }

func (m *Module) Define(name string, value Value) { m.Locals[name] = value }

func (m *Module) Lookup(name string) (Value, bool) {
	v, ok := m.Locals[name]
	return v, ok
}
