// Package reader turns a scanner's token stream into a tree of
// Syntax-wrapped datums: the compiler's input.
package reader

import (
	"fmt"
	"io"

	"github.com/lumenlang/lumen/internal/heap"
	"github.com/lumenlang/lumen/internal/object"
	"github.com/lumenlang/lumen/internal/scanner"
)

// Reader reads one file's worth of source text into a forest of top-level
// Syntax-wrapped forms.
type Reader struct {
	sc   *scanner.Scanner
	heap heap.Allocator
	file string
	cur  scanner.Token
}

func New(src, file string, h heap.Allocator) *Reader {
	r := &Reader{sc: scanner.New(src), heap: h, file: file}
	r.advance()
	return r
}

func (r *Reader) advance() { r.cur = r.sc.Next() }

func (r *Reader) pos(tok scanner.Token) object.Position {
	return object.Position{File: r.file, Line: tok.Line, Position: tok.Start, Span: tok.Length}
}

// ReadAll reads every top-level form in the source text.
func (r *Reader) ReadAll() ([]object.Value, error) {
	var forms []object.Value
	for r.cur.Kind != scanner.EOF {
		d, err := r.ReadDatum()
		if err != nil {
			return forms, err
		}
		forms = append(forms, d)
	}
	return forms, nil
}

// ReadDatum reads a single datum, returning io.EOF once the source text is
// exhausted.
func (r *Reader) ReadDatum() (object.Value, error) {
	switch r.cur.Kind {
	case scanner.EOF:
		return object.Value{}, io.EOF
	case scanner.LeftParen:
		return r.readList()
	case scanner.RightParen:
		return object.Value{}, r.errorf("unexpected ')'")
	case scanner.Quote:
		return r.readQuote()
	case scanner.Error:
		return object.Value{}, r.errorf("%s", r.cur.Message)
	default:
		return r.readAtom()
	}
}

func (r *Reader) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("reader: %s (%s:%d)", fmt.Sprintf(format, args...), r.file, r.cur.Line)
}

func (r *Reader) readAtom() (object.Value, error) {
	tok := r.cur
	pos := r.pos(tok)

	var val object.Value
	switch tok.Kind {
	case scanner.Number:
		val = object.NumberVal(tok.Number)
	case scanner.String:
		val = object.ObjVal(r.heap.InternString(tok.Text))
	case scanner.Keyword:
		val = object.ObjVal(r.heap.InternKeyword(tok.Text))
	case scanner.Boolean:
		val = object.BoolVal(tok.Bool)
	case scanner.Symbol:
		val = object.ObjVal(r.heap.InternSymbol(tok.Lexeme))
	default:
		return object.Value{}, r.errorf("unexpected token")
	}
	r.advance()

	syn := r.heap.NewSyntax(val, pos)
	return object.ObjVal(syn), nil
}

// readQuote desugars 'x into (quote x), wrapping both the quote symbol and
// x in their own Syntax nodes.
func (r *Reader) readQuote() (object.Value, error) {
	pos := r.pos(r.cur)
	r.advance()

	datum, err := r.ReadDatum()
	if err != nil {
		return object.Value{}, err
	}

	quoteSym := r.heap.InternSymbol("quote")
	quoteSyn := object.ObjVal(r.heap.NewSyntax(object.ObjVal(quoteSym), pos))
	r.heap.Push(quoteSyn)
	list := r.buildList([]object.Value{quoteSyn, datum}, object.EmptyVal(), pos)
	r.heap.Pop()
	return list, nil
}

// readList consumes a parenthesized form, handling both proper and dotted
// lists. It assumes r.cur is the opening '('. Each item is pushed onto the
// VM stack as soon as it's read and popped only once the whole list has
// been read and linked by buildList, so a GC triggered by a later
// ReadDatum call (or by buildList's own allocations) never sweeps an item
// that's only reachable through the local items slice.
func (r *Reader) readList() (object.Value, error) {
	pos := r.pos(r.cur)
	r.advance()

	var items []object.Value
	pushed := 0
	defer func() {
		for i := 0; i < pushed; i++ {
			r.heap.Pop()
		}
	}()
	for {
		switch r.cur.Kind {
		case scanner.RightParen:
			r.advance()
			return r.buildList(items, object.EmptyVal(), pos), nil
		case scanner.Dot:
			r.advance()
			tail, err := r.ReadDatum()
			if err != nil {
				return object.Value{}, err
			}
			if r.cur.Kind != scanner.RightParen {
				return object.Value{}, r.errorf("expected ')' after dotted tail")
			}
			r.advance()
			return r.buildList(items, tail, pos), nil
		case scanner.EOF:
			return object.Value{}, r.errorf("unterminated list")
		default:
			item, err := r.ReadDatum()
			if err != nil {
				return object.Value{}, err
			}
			items = append(items, item)
			r.heap.Push(item)
			pushed++
		}
	}
}

// buildList links items right-to-left into a Cons chain terminated by
// tail, wrapping every Cons it allocates in a Syntax node carrying the
// list's opening position. Each new link is pushed onto the VM stack as
// soon as it's allocated and popped again once the next link has taken a
// reference to it, so a GC triggered mid-build never collects a node
// that's only reachable through a local Go variable.
func (r *Reader) buildList(items []object.Value, tail object.Value, pos object.Position) object.Value {
	cur := tail
	pushed := 0
	for i := len(items) - 1; i >= 0; i-- {
		cons := r.heap.NewCons(items[i], cur)
		syn := object.ObjVal(r.heap.NewSyntax(object.ObjVal(cons), pos))
		r.heap.Push(syn)
		pushed++
		cur = syn
	}
	for i := 0; i < pushed; i++ {
		r.heap.Pop()
	}
	return cur
}
