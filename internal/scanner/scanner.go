package scanner

import (
	"strconv"
	"strings"

	"github.com/lumenlang/lumen/internal/object"
)

// Scanner lexes Lumen source text one token at a time.
type Scanner struct {
	src  []byte
	pos  int
	line int
}

func New(src string) *Scanner {
	return &Scanner{src: []byte(src), line: 1}
}

func (s *Scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) peekNext() byte {
	if s.pos+1 >= len(s.src) {
		return 0
	}
	return s.src[s.pos+1]
}

func (s *Scanner) advance() byte {
	b := s.src[s.pos]
	s.pos++
	if b == '\n' {
		s.line++
	}
	return b
}

func (s *Scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		c := s.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.advance()
		case c == ';':
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSymbolStart(c byte) bool {
	switch c {
	case '(', ')', '\'', '.', '"', ':', 0, ' ', '\t', '\r', '\n', ';':
		return false
	default:
		return true
	}
}

func isSymbolChar(c byte) bool { return isSymbolStart(c) || isDigit(c) }

// Next returns the next token in the stream, advancing past it.
func (s *Scanner) Next() Token {
	s.skipWhitespaceAndComments()
	if s.atEnd() {
		return Token{Kind: EOF, Line: s.line, Start: s.pos}
	}

	start := s.pos
	line := s.line
	c := s.advance()

	switch {
	case c == '(':
		return Token{Kind: LeftParen, Lexeme: "(", Line: line, Start: start, Length: 1}
	case c == ')':
		return Token{Kind: RightParen, Lexeme: ")", Line: line, Start: start, Length: 1}
	case c == '\'':
		return Token{Kind: Quote, Lexeme: "'", Line: line, Start: start, Length: 1}
	case c == '.' && !isDigit(s.peek()):
		return Token{Kind: Dot, Lexeme: ".", Line: line, Start: start, Length: 1}
	case c == '"':
		return s.scanString(start, line)
	case c == ':':
		return s.scanKeyword(start, line)
	case c == '#':
		return s.scanHash(start, line)
	case isDigit(c) || (c == '-' && isDigit(s.peek())):
		return s.scanNumber(start, line)
	default:
		return s.scanSymbol(start, line)
	}
}

func (s *Scanner) scanString(start, line int) Token {
	var b strings.Builder
	for !s.atEnd() && s.peek() != '"' {
		c := s.advance()
		if c == '\\' && !s.atEnd() {
			esc := s.advance()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'e':
				b.WriteByte(0x1b)
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(esc)
			}
			continue
		}
		b.WriteByte(c)
	}
	if s.atEnd() {
		return Token{Kind: Error, Line: line, Start: start, Message: "unterminated string"}
	}
	s.advance() // closing quote
	return Token{Kind: String, Text: b.String(), Lexeme: string(s.src[start:s.pos]), Line: line, Start: start, Length: s.pos - start}
}

func (s *Scanner) scanKeyword(start, line int) Token {
	nameStart := s.pos
	for isSymbolChar(s.peek()) {
		s.advance()
	}
	return Token{Kind: Keyword, Text: string(s.src[nameStart:s.pos]), Lexeme: string(s.src[start:s.pos]), Line: line, Start: start, Length: s.pos - start}
}

func (s *Scanner) scanHash(start, line int) Token {
	switch s.peek() {
	case 't':
		s.advance()
		return Token{Kind: Boolean, Bool: true, Lexeme: "#t", Line: line, Start: start, Length: 2}
	case 'f':
		s.advance()
		return Token{Kind: Boolean, Bool: false, Lexeme: "#f", Line: line, Start: start, Length: 2}
	default:
		return Token{Kind: Error, Line: line, Start: start, Message: "unrecognized # syntax"}
	}
}

func (s *Scanner) scanNumber(start, line int) Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	lexeme := string(s.src[start:s.pos])
	n, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return Token{Kind: Error, Line: line, Start: start, Message: "invalid number: " + lexeme}
	}
	return Token{Kind: Number, Number: n, Lexeme: lexeme, Line: line, Start: start, Length: s.pos - start}
}

func (s *Scanner) scanSymbol(start, line int) Token {
	for isSymbolChar(s.peek()) {
		s.advance()
	}
	lexeme := string(s.src[start:s.pos])
	return Token{Kind: Symbol, SubKind: identifierSubKind(lexeme), Lexeme: lexeme, Line: line, Start: start, Length: s.pos - start}
}

// identifierSubKind resolves an identifier against the keyword table by
// looking up the whole lexeme, so e.g. "let" is SubLet while "letter" --
// sharing the same prefix but longer -- is SubNone.
func identifierSubKind(lexeme string) object.SubKind {
	if sub, ok := object.Keywords[lexeme]; ok {
		return sub
	}
	return object.SubNone
}
