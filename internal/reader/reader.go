// Package reader implements HQL's Reader component (spec §4.1): tokens
// produced by internal/lexer are assembled into a sequence of
// internal/sexp.SExp, applying the literal-form desugaring table (quote,
// quasiquote, vector/map/set sugar, and the dot/dash property rewrite).
package reader

import (
	"fmt"

	"hql/internal/herrors"
	"hql/internal/lexer"
	"hql/internal/sexp"
)

// Reader turns a token stream into []sexp.SExp.
type Reader struct {
	l    *lexer.Lexer
	file string
	cur  lexer.Token
	peek lexer.Token
}

// New constructs a Reader over already-read source text.
func New(source, file string) *Reader {
	r := &Reader{l: lexer.New(source, file), file: file}
	r.cur = r.l.NextToken()
	r.peek = r.l.NextToken()
	return r
}

// NewFromBytes normalizes src (BOM + NFC) before constructing the Reader.
func NewFromBytes(src []byte, file string) *Reader {
	return New(string(lexer.Normalize(src)), file)
}

func (r *Reader) advance() {
	r.cur = r.peek
	r.peek = r.l.NextToken()
}

func (r *Reader) pos() sexp.Pos {
	return sexp.Pos{File: r.file, Line: r.cur.Line, Column: r.cur.Column, Offset: r.cur.Offset}
}

// ReadAll consumes the whole token stream, returning every top-level form.
// Total over well-formed input (spec §4.1 contract); returns a ParseError
// (wrapped via herrors) on the first malformed form.
func ReadAll(source, file string) ([]sexp.SExp, error) {
	return New(source, file).ReadAll()
}

// ReadAllBytes is ReadAll over raw bytes, normalizing first.
func ReadAllBytes(src []byte, file string) ([]sexp.SExp, error) {
	return NewFromBytes(src, file).ReadAll()
}

func (r *Reader) ReadAll() ([]sexp.SExp, error) {
	var forms []sexp.SExp
	for r.cur.Type != lexer.EOF {
		form, err := r.readForm()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, nil
}

func (r *Reader) readForm() (sexp.SExp, error) {
	switch r.cur.Type {
	case lexer.QUOTE:
		return r.readWrapped("quote")
	case lexer.BACKTICK:
		return r.readWrapped("quasiquote")
	case lexer.TILDEAT:
		return r.readWrapped("unquote-splicing")
	case lexer.TILDE:
		return r.readWrapped("unquote")
	case lexer.LPAREN:
		return r.readList()
	case lexer.LBRACKET:
		return r.readVector()
	case lexer.LBRACE:
		return r.readMap()
	case lexer.HASHBRACKET:
		return r.readSet()
	case lexer.STRING:
		pos := r.pos()
		lit := sexp.Str(r.cur.Literal, pos)
		r.advance()
		return lit, nil
	case lexer.NUMBER:
		return r.readNumber()
	case lexer.SYMBOL:
		return r.readSymbolForm()
	case lexer.RPAREN, lexer.RBRACKET, lexer.RBRACE:
		return nil, herrors.NewParseError(herrors.RDRUnexpectedClose, r.pos(), r.cur.Literal,
			fmt.Sprintf("unexpected closing delimiter %q", r.cur.Literal))
	case lexer.EOF:
		return nil, herrors.NewParseError(herrors.RDRUnexpectedEOF, r.pos(), "", "unexpected end of input")
	default:
		return nil, herrors.NewParseError(herrors.RDRUnexpectedChar, r.pos(), r.cur.Literal,
			fmt.Sprintf("unexpected character %q", r.cur.Literal))
	}
}

func (r *Reader) readWrapped(head string) (sexp.SExp, error) {
	pos := r.pos()
	r.advance()
	inner, err := r.readForm()
	if err != nil {
		return nil, err
	}
	return sexp.NewList([]sexp.SExp{sexp.Sym(head, pos), inner}, pos), nil
}

func (r *Reader) readList() (sexp.SExp, error) {
	pos := r.pos()
	r.advance() // consume '('
	var elems []sexp.SExp
	for {
		if r.cur.Type == lexer.EOF {
			return nil, herrors.NewParseError(herrors.RDRUnclosedList, pos, "", "unclosed list starting here")
		}
		if r.cur.Type == lexer.RPAREN {
			r.advance()
			return sexp.NewList(elems, pos), nil
		}
		el, err := r.readForm()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
	}
}

func (r *Reader) readVector() (sexp.SExp, error) {
	pos := r.pos()
	r.advance() // consume '['
	var elems []sexp.SExp
	for {
		if r.cur.Type == lexer.EOF {
			return nil, herrors.NewParseError(herrors.RDRUnclosedVector, pos, "", "unclosed vector starting here")
		}
		if r.cur.Type == lexer.RBRACKET {
			r.advance()
			if len(elems) == 0 {
				return sexp.NewList([]sexp.SExp{sexp.Sym("empty-array", pos)}, pos), nil
			}
			head := sexp.Sym("vector", pos)
			return sexp.NewList(append([]sexp.SExp{head}, elems...), pos), nil
		}
		el, err := r.readForm()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
	}
}

func (r *Reader) readSet() (sexp.SExp, error) {
	pos := r.pos()
	r.advance() // consume '#['
	var elems []sexp.SExp
	for {
		if r.cur.Type == lexer.EOF {
			return nil, herrors.NewParseError(herrors.RDRUnclosedSet, pos, "", "unclosed set starting here")
		}
		if r.cur.Type == lexer.RBRACKET {
			r.advance()
			head := sexp.Sym("hash-set", pos)
			return sexp.NewList(append([]sexp.SExp{head}, elems...), pos), nil
		}
		el, err := r.readForm()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
	}
}

func (r *Reader) readMap() (sexp.SExp, error) {
	pos := r.pos()
	r.advance() // consume '{'
	var elems []sexp.SExp
	for {
		if r.cur.Type == lexer.EOF {
			return nil, herrors.NewParseError(herrors.RDRUnclosedMap, pos, "", "unclosed map starting here")
		}
		if r.cur.Type == lexer.RBRACE {
			r.advance()
			if len(elems) == 0 {
				return sexp.NewList([]sexp.SExp{sexp.Sym("empty-map", pos)}, pos), nil
			}
			head := sexp.Sym("hash-map", pos)
			return sexp.NewList(append([]sexp.SExp{head}, elems...), pos), nil
		}
		key, err := r.readForm()
		if err != nil {
			return nil, err
		}
		if r.cur.Type != lexer.COLON {
			return nil, herrors.NewParseError(herrors.RDRExpectedColonInMap, r.pos(), r.cur.Literal,
				"expected ':' after map key")
		}
		r.advance() // consume ':'
		val, err := r.readForm()
		if err != nil {
			return nil, err
		}
		elems = append(elems, key, val)
	}
}

func (r *Reader) readNumber() (sexp.SExp, error) {
	pos := r.pos()
	lit := r.cur.Literal
	r.advance()
	return parseNumber(lit, pos)
}

// readSymbolForm applies the literal-keyword and dot/dash rewrite rules
// (spec §4.1 literal-forms table).
func (r *Reader) readSymbolForm() (sexp.SExp, error) {
	pos := r.pos()
	name := r.cur.Literal
	r.advance()

	switch name {
	case "true":
		return sexp.Bool(true, pos), nil
	case "false":
		return sexp.Bool(false, pos), nil
	case "nil":
		return sexp.Nil(pos), nil
	}

	return desugarDottedSymbol(name, pos)
}

// desugarDottedSymbol implements the four dotted-symbol rules:
//   .method          -> symbol, unchanged (starts with '.')
//   obj.prop         -> symbol "obj.prop", unchanged (no dash after the dot)
//   obj.dash-prop    -> (get obj "dash-prop")
//   obj.             -> ExpectedPropertyAfterDot (dot with nothing after it)
func desugarDottedSymbol(name string, pos sexp.Pos) (sexp.SExp, error) {
	if len(name) == 0 || name[0] == '.' {
		return sexp.Sym(name, pos), nil
	}
	idx := -1
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sexp.Sym(name, pos), nil
	}
	head, prop := name[:idx], name[idx+1:]
	if prop == "" {
		return nil, herrors.NewParseError(herrors.RDRExpectedPropertyAfterDot, pos, name,
			"expected property name after '.'")
	}
	hasDash := false
	for _, c := range prop {
		if c == '-' {
			hasDash = true
			break
		}
	}
	if !hasDash {
		return sexp.Sym(name, pos), nil
	}
	return sexp.NewList([]sexp.SExp{
		sexp.Sym("get", pos),
		sexp.Sym(head, pos),
		sexp.Str(prop, pos),
	}, pos), nil
}
