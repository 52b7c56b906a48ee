// Package expander implements HQL's Expander (spec §4.4): a fixed-point
// rewrite over S-expressions that resolves macro calls, evaluates
// quasiquote, renames bound symbols for hygiene, and strips macro-definition
// forms from the output. Grounded on the teacher's gensym/freshVar idiom
// (internal/elaborate) and, for quasiquote recursion shape, on the
// classic recursive quasiquote walk shown in the retrieval pack's sxpf
// reference file — reimplemented here over sexp.SExp's list-of-elements
// model rather than cons pairs.
package expander

import (
	"hql/internal/henv"
	"hql/internal/herrors"
	"hql/internal/sexp"
)

// specialForms the expander recognizes verbatim; these are never
// macro-definable (spec §6).
var specialForms = map[string]bool{
	"quote": true, "quasiquote": true, "unquote": true, "unquote-splicing": true,
	"if": true, "cond": true, "let": true, "fn": true, "def": true, "defn": true,
	"defmacro": true, "macro": true, "import": true, "export": true, "do": true,
}

func IsSpecialForm(name string) bool { return specialForms[name] }

// Options configures one Expand call.
type Options struct {
	MaxIterations  int // default 100 (spec §4.4)
	MaxExpandDepth int // default 100 (spec §4.4 expandOne)
}

func defaultOptions() Options { return Options{MaxIterations: 100, MaxExpandDepth: 100} }

// Expander owns the fixed-point loop and the miniature Lisp interpreter
// macro bodies run under.
type Expander struct {
	Env     *henv.Env
	Options Options

	cache          map[string]sexp.SExp
	cacheFile      map[string]string // key -> file the entry was built for
	cacheGenAtFill map[string]uint64
}

// New constructs an Expander with default iteration/depth bounds and host
// builtins registered into env's root frame.
func New(env *henv.Env) *Expander {
	RegisterBuiltins(env)
	return &Expander{
		Env:            env,
		Options:        defaultOptions(),
		cache:          make(map[string]sexp.SExp),
		cacheFile:      make(map[string]string),
		cacheGenAtFill: make(map[string]uint64),
	}
}

// RegisterMacroDefs is the expander's "first pass" (spec §4.4 step 1):
// walk top-level forms, register every defmacro as a global macro and every
// macro as a module-scoped macro bound to file. It is idempotent — calling
// it twice with the same forms re-registers the same functions.
func (x *Expander) RegisterMacroDefs(exprs []sexp.SExp, file string) error {
	for _, expr := range exprs {
		lst, ok := expr.(*sexp.List)
		if !ok || len(lst.Elements) == 0 {
			continue
		}
		head, ok := lst.Elements[0].(*sexp.Symbol)
		if !ok {
			continue
		}
		switch head.Name {
		case "defmacro":
			fn, err := parseMacroDef(lst, file, false, x.Env)
			if err != nil {
				return err
			}
			x.Env.DefineMacro(fn.Name, fn)
		case "macro":
			fn, err := parseMacroDef(lst, file, true, x.Env)
			if err != nil {
				return err
			}
			x.Env.DefineModuleMacro(file, fn.Name, fn)
		}
	}
	return nil
}

// Expand is the expander's full contract (spec §4.4): register macro defs,
// iterate expandOne to a fixed point (bounded by MaxIterations), then strip
// defmacro/macro forms from the result.
func (x *Expander) Expand(exprs []sexp.SExp, file string) ([]sexp.SExp, error) {
	if err := x.RegisterMacroDefs(exprs, file); err != nil {
		return nil, err
	}

	current := exprs
	prevKey := sexp.CanonicalAll(current)
	for i := 0; i < x.Options.MaxIterations; i++ {
		next := make([]sexp.SExp, len(current))
		for j, e := range current {
			r, err := x.expandOne(e, file, 0)
			if err != nil {
				return nil, err
			}
			next[j] = r
		}
		key := sexp.CanonicalAll(next)
		if key == prevKey {
			return stripMacroDefs(next), nil
		}
		current = next
		prevKey = key
	}
	return nil, herrors.NewMacroError(herrors.EXPMacroRecursion, sexp.Pos{File: file},
		"fixed-point expansion did not converge within MAX_ITERATIONS")
}

func stripMacroDefs(exprs []sexp.SExp) []sexp.SExp {
	out := make([]sexp.SExp, 0, len(exprs))
	for _, e := range exprs {
		if head, ok := sexp.HeadSymbol(e); ok && (head.Name == "defmacro" || head.Name == "macro") {
			continue
		}
		out = append(out, e)
	}
	return out
}

// expandOne implements spec §4.4's expandOne(expr, env, depth).
func (x *Expander) expandOne(expr sexp.SExp, file string, depth int) (sexp.SExp, error) {
	lst, ok := expr.(*sexp.List)
	if !ok {
		return expr, nil
	}
	if len(lst.Elements) == 0 {
		return expr, nil
	}
	headSym, isSym := lst.Elements[0].(*sexp.Symbol)
	if isSym && (headSym.Name == "defmacro" || headSym.Name == "macro") {
		return expr, nil
	}

	if isSym {
		if fn, ok := x.lookupApplicableMacro(headSym.Name, file); ok {
			if depth+1 > x.Options.MaxExpandDepth {
				return nil, herrors.NewMacroError(herrors.EXPMacroDepth, lst.Pos,
					"macro expansion recursion depth exceeded for "+headSym.Name)
			}

			cacheKey := file + "\x00" + sexp.Canonical(lst)
			if cached, ok := x.cache[cacheKey]; ok && x.cacheGenAtFill[cacheKey] == x.Env.MacroGeneration() {
				return cached, nil
			}

			args := lst.Elements[1:]
			result, err := x.applyMacro(fn, args, file)
			if err != nil {
				return nil, err
			}
			expanded, err := x.expandOne(result, file, depth+1)
			if err != nil {
				return nil, err
			}
			x.cache[cacheKey] = expanded
			x.cacheFile[cacheKey] = file
			x.cacheGenAtFill[cacheKey] = x.Env.MacroGeneration()
			return expanded, nil
		}
	}

	newElems := make([]sexp.SExp, len(lst.Elements))
	for i, el := range lst.Elements {
		r, err := x.expandOne(el, file, depth)
		if err != nil {
			return nil, err
		}
		newElems[i] = r
	}
	return sexp.NewList(newElems, lst.Pos), nil
}

// lookupApplicableMacro checks module-scoped macros visible to file first
// (more specific), falling back to global macros (spec I1, I3).
func (x *Expander) lookupApplicableMacro(name, file string) (*henv.MacroFn, bool) {
	if file != "" {
		if fn, ok := x.Env.GetModuleMacro(file, name); ok {
			return fn, true
		}
	}
	return x.Env.GetMacro(name)
}
