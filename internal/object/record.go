package object

// RecordField describes one field of a record type: its name and the
// default value used when a constructor call omits it.
type RecordField struct {
	Header
	Name         *String
	DefaultValue Value
}

func NewRecordField(name *String, def Value) *RecordField {
	return &RecordField{Header: NewHeader(KindRecordField), Name: name, DefaultValue: def}
}

// Record is a user-defined nominal product type: an ordered field list plus
// the auto-generated constructor/predicate/accessors/setters close over it.
type Record struct {
	Header
	Name   *String
	Fields []*RecordField
}

func NewRecord(name *String) *Record {
	return &Record{Header: NewHeader(KindRecord), Name: name}
}

func (r *Record) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name.Value == name {
			return i
		}
	}
	return -1
}

// RecordFieldAccessor is the auto-generated `<name>-<field>` reader.
type RecordFieldAccessor struct {
	Header
	RecordType *Record
	FieldIndex int
}

func NewRecordFieldAccessor(rt *Record, idx int) *RecordFieldAccessor {
	return &RecordFieldAccessor{Header: NewHeader(KindRecordFieldAccessor), RecordType: rt, FieldIndex: idx}
}

// RecordFieldSetter is the auto-generated `<name>-<field>-set!` mutator.
type RecordFieldSetter struct {
	Header
	RecordType *Record
	FieldIndex int
}

func NewRecordFieldSetter(rt *Record, idx int) *RecordFieldSetter {
	return &RecordFieldSetter{Header: NewHeader(KindRecordFieldSetter), RecordType: rt, FieldIndex: idx}
}

// RecordPredicate is the auto-generated `<name>?` type test.
type RecordPredicate struct {
	Header
	RecordType *Record
}

func NewRecordPredicate(rt *Record) *RecordPredicate {
	return &RecordPredicate{Header: NewHeader(KindRecordPredicate), RecordType: rt}
}

// RecordInstance stores field values positionally, matching RecordType's
// field order. Setters mutate the instance in place, so two closures
// sharing a reference to the same instance observe each other's writes --
// this is the spec's documented (not copy-on-write) choice.
type RecordInstance struct {
	Header
	RecordType  *Record
	FieldValues []Value
}

func NewRecordInstance(rt *Record) *RecordInstance {
	values := make([]Value, len(rt.Fields))
	for i, f := range rt.Fields {
		values[i] = f.DefaultValue
	}
	return &RecordInstance{Header: NewHeader(KindRecordInstance), RecordType: rt, FieldValues: values}
}
