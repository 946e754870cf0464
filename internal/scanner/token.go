// Package scanner turns source text into a flat token stream. It knows
// nothing about list structure; that's the reader's job.
package scanner

import "github.com/lumenlang/lumen/internal/object"

type Kind uint8

const (
	LeftParen Kind = iota
	RightParen
	Quote
	Dot
	Symbol
	Number
	String
	Keyword
	Boolean
	EOF
	Error
)

// Token is a single lexical unit. SubKind is populated for Symbol tokens
// that match a recognized special form or primitive operator (see
// object.Keywords); ordinary identifiers carry object.SubNone.
type Token struct {
	Kind    Kind
	SubKind object.SubKind
	Lexeme  string // raw source text
	Text    string // unescaped text for String tokens
	Number  float64
	Bool    bool
	Line    int
	Start   int
	Length  int
	Message string // set when Kind == Error
}
