// Package sexp implements HQL's tagged-sum S-expression data model (spec §3):
// Symbol, Literal, and List, each carrying the source position of its first
// token. Lists are ordered; literals are immutable once constructed.
package sexp

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos is a SourcePosition: {line >= 1, column >= 1, offset >= 0}.
type Pos struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// LitKind distinguishes the five atomic literal kinds. nil is distinct from
// false (spec §3 invariant iv).
type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	BoolLit
	NilLit
)

// SExp is the common interface satisfied by Symbol, Literal, and List.
type SExp interface {
	sexpNode()
	Position() Pos
	String() string
}

// Symbol is an identifier; its name may contain '.', '-', '?', '!'.
type Symbol struct {
	Name string
	Pos  Pos
}

func (*Symbol) sexpNode()        {}
func (s *Symbol) Position() Pos  { return s.Pos }
func (s *Symbol) String() string { return s.Name }

// Literal is an atomic, immutable value: string, number, bool, or nil.
type Literal struct {
	Kind   LitKind
	Str    string  // StringLit
	Int    int64   // IntLit
	Float  float64 // FloatLit
	Bool   bool    // BoolLit
	Pos    Pos
}

func (*Literal) sexpNode()       {}
func (l *Literal) Position() Pos { return l.Pos }

func (l *Literal) String() string {
	switch l.Kind {
	case IntLit:
		return strconv.FormatInt(l.Int, 10)
	case FloatLit:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case StringLit:
		return strconv.Quote(l.Str)
	case BoolLit:
		if l.Bool {
			return "true"
		}
		return "false"
	case NilLit:
		return "nil"
	default:
		return "?lit?"
	}
}

// Truthy implements the if/cond falsiness rule: nil and false are falsy,
// everything else (including 0 and "") is truthy.
func (l *Literal) Truthy() bool {
	switch l.Kind {
	case NilLit:
		return false
	case BoolLit:
		return l.Bool
	default:
		return true
	}
}

// List is an ordered compound form; index identifies argument position.
type List struct {
	Elements []SExp
	Pos      Pos
}

func (*List) sexpNode()       {}
func (l *List) Position() Pos { return l.Pos }

func (l *List) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Constructors used pervasively by the reader and expander when synthesizing
// forms that have no single originating token (e.g. macro-generated code).

func Sym(name string, pos Pos) *Symbol { return &Symbol{Name: name, Pos: pos} }

func Str(s string, pos Pos) *Literal { return &Literal{Kind: StringLit, Str: s, Pos: pos} }

func Int(v int64, pos Pos) *Literal { return &Literal{Kind: IntLit, Int: v, Pos: pos} }

func Float(v float64, pos Pos) *Literal { return &Literal{Kind: FloatLit, Float: v, Pos: pos} }

func Bool(v bool, pos Pos) *Literal { return &Literal{Kind: BoolLit, Bool: v, Pos: pos} }

func Nil(pos Pos) *Literal { return &Literal{Kind: NilLit, Pos: pos} }

func NewList(elements []SExp, pos Pos) *List { return &List{Elements: elements, Pos: pos} }

// IsSymbolNamed reports whether expr is a *Symbol with the given name.
func IsSymbolNamed(expr SExp, name string) bool {
	s, ok := expr.(*Symbol)
	return ok && s.Name == name
}

// HeadSymbol returns the leading symbol of a non-empty list, if any.
func HeadSymbol(expr SExp) (*Symbol, bool) {
	lst, ok := expr.(*List)
	if !ok || len(lst.Elements) == 0 {
		return nil, false
	}
	s, ok := lst.Elements[0].(*Symbol)
	return s, ok
}

// Equal compares two SExps structurally, ignoring source position — used by
// the macro evaluator's = builtin.
func Equal(a, b SExp) bool {
	return Canonical(a) == Canonical(b)
}

// Canonical renders an SExp to a position-independent string form, used as
// the fixed-point comparison key and the expansion-cache key (spec §4.4,
// §9 "Fixed-point expansion").
func Canonical(e SExp) string {
	var b strings.Builder
	writeCanonical(&b, e)
	return b.String()
}

func writeCanonical(b *strings.Builder, e SExp) {
	switch v := e.(type) {
	case *Symbol:
		b.WriteByte('S')
		b.WriteString(v.Name)
	case *Literal:
		switch v.Kind {
		case IntLit:
			fmt.Fprintf(b, "I%d", v.Int)
		case FloatLit:
			fmt.Fprintf(b, "F%s", strconv.FormatFloat(v.Float, 'g', -1, 64))
		case StringLit:
			fmt.Fprintf(b, "T%q", v.Str)
		case BoolLit:
			fmt.Fprintf(b, "B%t", v.Bool)
		case NilLit:
			b.WriteString("N")
		}
	case *List:
		b.WriteByte('(')
		for i, el := range v.Elements {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeCanonical(b, el)
		}
		b.WriteByte(')')
	}
}

// CanonicalAll is Canonical extended over a sequence, used to compare whole
// programs between fixed-point iterations.
func CanonicalAll(exprs []SExp) string {
	var b strings.Builder
	for i, e := range exprs {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeCanonical(&b, e)
	}
	return b.String()
}

// Clone returns a structurally identical deep copy of e. Hygiene renaming
// does not call it: renameSymbols builds a fresh tree of its own.
func Clone(e SExp) SExp {
	switch v := e.(type) {
	case *Symbol:
		cp := *v
		return &cp
	case *Literal:
		cp := *v
		return &cp
	case *List:
		elems := make([]SExp, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = Clone(el)
		}
		return &List{Elements: elems, Pos: v.Pos}
	default:
		return e
	}
}
