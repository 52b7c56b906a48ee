package expander

import (
	"hql/internal/henv"
	"hql/internal/herrors"
	"hql/internal/sexp"
)

// evalQuasiquote implements spec §4.4 "Quasiquote semantics": list contents
// are copied verbatim except (unquote x), which evaluates x and splices its
// single value in place, and (unquote-splicing x), which evaluates x (must
// yield a list) and splices its elements in place. Nested quasiquotes
// increase depth; unquote only takes effect at depth 1.
func (x *Expander) evalQuasiquote(expr sexp.SExp, depth int, env *henv.Env) (sexp.SExp, error) {
	lst, ok := expr.(*sexp.List)
	if !ok {
		return expr, nil
	}
	if len(lst.Elements) == 0 {
		return expr, nil
	}

	if head, ok := lst.Elements[0].(*sexp.Symbol); ok {
		switch head.Name {
		case "unquote":
			if depth == 1 {
				return x.EvaluateForMacro(lst.Elements[1], env)
			}
			inner, err := x.evalQuasiquote(lst.Elements[1], depth-1, env)
			if err != nil {
				return nil, err
			}
			return sexp.NewList([]sexp.SExp{head, inner}, lst.Pos), nil
		case "quasiquote":
			inner, err := x.evalQuasiquote(lst.Elements[1], depth+1, env)
			if err != nil {
				return nil, err
			}
			return sexp.NewList([]sexp.SExp{head, inner}, lst.Pos), nil
		case "unquote-splicing":
			// Only legal as a direct element of an enclosing list; reaching
			// here means it appeared as the whole quasiquoted form.
			return nil, herrors.NewMacroError(herrors.EXPUnquoteSplicingMisplaced, lst.Pos,
				"unquote-splicing outside a list")
		}
	}

	var out []sexp.SExp
	for _, el := range lst.Elements {
		if sub, ok := el.(*sexp.List); ok && len(sub.Elements) >= 2 {
			if h, ok := sub.Elements[0].(*sexp.Symbol); ok && h.Name == "unquote-splicing" {
				if depth != 1 {
					rebuilt, err := x.evalQuasiquote(sub, depth-1, env)
					if err != nil {
						return nil, err
					}
					out = append(out, rebuilt)
					continue
				}
				spliced, err := x.EvaluateForMacro(sub.Elements[1], env)
				if err != nil {
					return nil, err
				}
				splicedList, ok := spliced.(*sexp.List)
				if !ok {
					return nil, herrors.NewMacroError(herrors.EXPUnquoteSplicingMisplaced, sub.Pos,
						"unquote-splicing expression did not evaluate to a list")
				}
				out = append(out, splicedList.Elements...)
				continue
			}
		}
		rewritten, err := x.evalQuasiquote(el, depth, env)
		if err != nil {
			return nil, err
		}
		out = append(out, rewritten)
	}
	return sexp.NewList(out, lst.Pos), nil
}
