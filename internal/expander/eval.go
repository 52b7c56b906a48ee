package expander

import (
	"hql/internal/henv"
	"hql/internal/herrors"
	"hql/internal/sexp"
)

// EvaluateForMacro is the "miniature Lisp interpreter" invoked only from
// within macro bodies (spec §4.4). It supports literals, symbol lookup,
// quote/quasiquote/unquote/unquote-splicing, if, cond, let (parallel
// binding in a fresh child frame), direct calls to host functions
// registered in E, and module-property access via dot notation (handled by
// henv.Env.Lookup itself). def/defn/fn evaluate to nil. Unknown heads are
// returned unevaluated so macros can build syntactic templates.
func (x *Expander) EvaluateForMacro(expr sexp.SExp, env *henv.Env) (sexp.SExp, error) {
	switch v := expr.(type) {
	case *sexp.Literal:
		return v, nil
	case *sexp.Symbol:
		return x.evalSymbol(v, env)
	case *sexp.List:
		return x.evalList(v, env)
	default:
		return expr, nil
	}
}

func (x *Expander) evalSymbol(s *sexp.Symbol, env *henv.Env) (sexp.SExp, error) {
	val, err := env.Lookup(s.Name)
	if err != nil {
		return nil, err
	}
	if sv, ok := val.(henv.SExpValue); ok {
		return sv.SExp, nil
	}
	// A bare reference to a host function or macro closure has no SExp
	// rendering; leave the symbol as syntax (it is only meaningful in call
	// position, handled in evalList).
	return s, nil
}

func (x *Expander) evalList(lst *sexp.List, env *henv.Env) (sexp.SExp, error) {
	if len(lst.Elements) == 0 {
		return lst, nil
	}
	head, isSym := lst.Elements[0].(*sexp.Symbol)
	if !isSym {
		return lst, nil
	}

	switch head.Name {
	case "quote":
		return lst.Elements[1], nil
	case "quasiquote":
		return x.evalQuasiquote(lst.Elements[1], 1, env)
	case "unquote", "unquote-splicing":
		return nil, herrors.NewMacroError(herrors.EXPUnquoteSplicingMisplaced, lst.Pos,
			head.Name+" used outside quasiquote")
	case "if":
		return x.evalIf(lst, env)
	case "cond":
		return x.evalCond(lst, env)
	case "let":
		return x.evalLet(lst, env)
	case "do":
		return x.evalBodySeq(lst.Elements[1:], env)
	case "def", "defn", "fn":
		return sexp.Nil(lst.Pos), nil
	}

	// Direct call to a host function registered in E.
	if val, err := env.Lookup(head.Name); err == nil {
		if hf, ok := val.(*henv.HostFunc); ok {
			args := make([]sexp.SExp, len(lst.Elements)-1)
			for i, a := range lst.Elements[1:] {
				r, err := x.EvaluateForMacro(a, env)
				if err != nil {
					return nil, err
				}
				args[i] = r
			}
			return hf.Fn(args)
		}
	}

	// Unknown head: preserved as-is (spec §4.4), letting macros construct
	// syntactic templates without every head needing to be "callable".
	return lst, nil
}

func isTruthy(e sexp.SExp) bool {
	if lit, ok := e.(*sexp.Literal); ok {
		return lit.Truthy()
	}
	return true
}

func (x *Expander) evalIf(lst *sexp.List, env *henv.Env) (sexp.SExp, error) {
	if len(lst.Elements) < 3 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, lst.Pos, "if requires a condition and a then-branch")
	}
	cond, err := x.EvaluateForMacro(lst.Elements[1], env)
	if err != nil {
		return nil, err
	}
	if isTruthy(cond) {
		return x.EvaluateForMacro(lst.Elements[2], env)
	}
	if len(lst.Elements) > 3 {
		return x.EvaluateForMacro(lst.Elements[3], env)
	}
	return sexp.Nil(lst.Pos), nil
}

func (x *Expander) evalCond(lst *sexp.List, env *henv.Env) (sexp.SExp, error) {
	for _, clause := range lst.Elements[1:] {
		clauseList, ok := clause.(*sexp.List)
		if !ok || len(clauseList.Elements) < 2 {
			continue
		}
		test := clauseList.Elements[0]
		if sexp.IsSymbolNamed(test, "else") {
			return x.evalBodySeq(clauseList.Elements[1:], env)
		}
		val, err := x.EvaluateForMacro(test, env)
		if err != nil {
			return nil, err
		}
		if isTruthy(val) {
			return x.evalBodySeq(clauseList.Elements[1:], env)
		}
	}
	return sexp.Nil(lst.Pos), nil
}

// evalLet implements parallel binding: all values are evaluated in the
// outer env before any are bound, then the body runs sequentially in a
// fresh child frame (spec §4.4).
func (x *Expander) evalLet(lst *sexp.List, env *henv.Env) (sexp.SExp, error) {
	if len(lst.Elements) < 2 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, lst.Pos, "let requires a binding vector")
	}
	bindingsForm, ok := lst.Elements[1].(*sexp.List)
	if !ok {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, lst.Pos, "let bindings must be a vector")
	}
	elems := bindingsForm.Elements
	if len(elems) > 0 {
		if h, ok := elems[0].(*sexp.Symbol); ok && h.Name == "vector" {
			elems = elems[1:]
		}
	}

	names := make([]string, 0, len(elems)/2)
	vals := make([]sexp.SExp, 0, len(elems)/2)
	for i := 0; i+1 < len(elems); i += 2 {
		nameSym, ok := elems[i].(*sexp.Symbol)
		if !ok {
			return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, lst.Pos, "let binding name must be a symbol")
		}
		v, err := x.EvaluateForMacro(elems[i+1], env)
		if err != nil {
			return nil, err
		}
		names = append(names, nameSym.Name)
		vals = append(vals, v)
	}

	child := env.Extend()
	for i, n := range names {
		child.DefineSExp(n, vals[i])
	}
	return x.evalBodySeq(lst.Elements[2:], child)
}

func (x *Expander) evalBodySeq(body []sexp.SExp, env *henv.Env) (sexp.SExp, error) {
	var last sexp.SExp = sexp.Nil(sexp.Pos{})
	for _, e := range body {
		r, err := x.EvaluateForMacro(e, env)
		if err != nil {
			return nil, err
		}
		last = r
	}
	return last, nil
}

// applyMacro is the hygienic macro-invocation algorithm (spec §3, §4.4):
// every formal parameter and every template-introduced `let`-local gets a
// fresh gensym-suffixed alias; both the original and fresh names are bound
// to the same argument value so either spelling resolves inside the body;
// the renamed body is then evaluated via EvaluateForMacro, do-style, and
// the final form's value is the macro's expansion.
func (x *Expander) applyMacro(fn *henv.MacroFn, args []sexp.SExp, file string) (sexp.SExp, error) {
	pos := sexp.Pos{File: file}
	if len(args) > 0 {
		pos = args[0].Position()
	}

	hctx := newHygieneContext(fn.Name+"#"+x.Env.Gensym(), x.Env)

	locals := make(map[string]bool)
	for _, b := range fn.Body {
		collectTemplateLocals(b, locals)
	}

	for _, p := range fn.Params {
		hctx.fresh(p)
	}
	if fn.RestParam != "" {
		hctx.fresh(fn.RestParam)
	}
	for name := range locals {
		hctx.fresh(name)
	}

	renamedBody := make([]sexp.SExp, len(fn.Body))
	for i, b := range fn.Body {
		renamedBody[i] = renameSymbols(b, hctx.renames)
	}

	child := fn.DefiningEnv.Extend()
	for i, p := range fn.Params {
		var val sexp.SExp = sexp.Nil(pos)
		if i < len(args) {
			val = args[i]
		}
		child.DefineSExp(p, val)
		child.DefineSExp(hctx.renames[p], val)
	}
	if fn.RestParam != "" {
		var restArgs []sexp.SExp
		if len(args) > len(fn.Params) {
			restArgs = args[len(fn.Params):]
		}
		restList := sexp.NewList(restArgs, pos)
		child.DefineSExp(fn.RestParam, restList)
		child.DefineSExp(hctx.renames[fn.RestParam], restList)
	}

	release := x.Env.SetCurrentMacroContext(hctx.id)
	defer release()

	return x.evalBodySeq(renamedBody, child)
}
