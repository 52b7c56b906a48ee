package expander

import (
	"hql/internal/henv"
	"hql/internal/sexp"
)

// hygieneContext is the per-macro-invocation "hygiene rename map" (spec §3):
// originalName -> freshName, where freshName = originalName + "_" + gensym().
type hygieneContext struct {
	id      string
	renames map[string]string
	env     *henv.Env
}

func newHygieneContext(id string, env *henv.Env) *hygieneContext {
	return &hygieneContext{id: id, renames: make(map[string]string), env: env}
}

// fresh returns the (possibly newly minted) fresh name for name, recording
// it in the rename map the first time it's seen so every later occurrence of
// the same name maps to the same fresh name.
func (h *hygieneContext) fresh(name string) string {
	if f, ok := h.renames[name]; ok {
		return f
	}
	f := name + "_" + h.env.Gensym()
	h.renames[name] = f
	return f
}

// collectTemplateLocals walks a macro body template collecting every name
// introduced by a nested `let` binding form, so that names like `tmp` in
//
//	(defmacro swap! [a b] `(let [tmp ~a] (set! ~a ~b) (set! ~b tmp)))
//
// get hygienically renamed even though they're not macro parameters — only
// names the macro template itself introduces risk capturing a call-site
// name; substituted arguments (like `a` and `b` above) never do, because
// they carry the call site's own syntax through unquote.
//
// The walk does not descend into (unquote ...) subtrees: those evaluate
// call-site expressions, not template-introduced bindings.
func collectTemplateLocals(expr sexp.SExp, locals map[string]bool) {
	lst, ok := expr.(*sexp.List)
	if !ok || len(lst.Elements) == 0 {
		return
	}
	if head, ok := lst.Elements[0].(*sexp.Symbol); ok {
		if head.Name == "unquote" {
			return
		}
		if head.Name == "let" && len(lst.Elements) >= 2 {
			if bindings, ok := lst.Elements[1].(*sexp.List); ok {
				bindElems := bindings.Elements
				if len(bindElems) > 0 {
					if h, ok := bindElems[0].(*sexp.Symbol); ok && h.Name == "vector" {
						bindElems = bindElems[1:]
					}
				}
				for i := 0; i+1 < len(bindElems); i += 2 {
					if name, ok := bindElems[i].(*sexp.Symbol); ok {
						locals[name.Name] = true
					}
				}
			}
		}
	}
	for _, el := range lst.Elements {
		collectTemplateLocals(el, locals)
	}
}

// renameSymbols returns a clone of expr with every *Symbol whose name is a
// key of renames replaced by its mapped fresh name. A special-form keyword
// is renamed only if a macro uses it as a parameter or let-local name;
// parseParamList does not reject such names.
func renameSymbols(expr sexp.SExp, renames map[string]string) sexp.SExp {
	switch v := expr.(type) {
	case *sexp.Symbol:
		if fresh, ok := renames[v.Name]; ok {
			return sexp.Sym(fresh, v.Pos)
		}
		return v
	case *sexp.List:
		elems := make([]sexp.SExp, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = renameSymbols(el, renames)
		}
		return sexp.NewList(elems, v.Pos)
	default:
		return expr
	}
}
