package object

// String is an interned byte string. Two Strings with the same content are
// always the same pointer within a VM instance -- the intern table in
// package vm guarantees this at allocation time.
type String struct {
	Header
	Value string
	Hash  uint32
}

func NewString(value string) *String {
	s := &String{Header: NewHeader(KindString), Value: value}
	s.Hash = FNV1a(value)
	return s
}

// Keyword is byte-compatible with String (same Value/Hash shape) so that
// string-equality logic can treat either uniformly; it is kept as a
// separate kind only so the reader/compiler can distinguish `:name` literals
// from `"name"` strings.
type Keyword struct {
	Header
	Value string
	Hash  uint32
}

func NewKeyword(value string) *Keyword {
	k := &Keyword{Header: NewHeader(KindKeyword), Value: value}
	k.Hash = FNV1a(value)
	return k
}

// TextOf extracts the backing text of a String or Keyword object.
func TextOf(o Object) string {
	switch t := o.(type) {
	case *String:
		return t.Value
	case *Keyword:
		return t.Value
	default:
		return ""
	}
}

// FNV1a hashes a string the way the reference interpreter hashes interned
// strings, symbols and keywords.
func FNV1a(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}
