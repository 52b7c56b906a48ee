package expander

import (
	"hql/internal/henv"
	"hql/internal/herrors"
	"hql/internal/sexp"
)

// RegisterBuiltins installs the small set of host functions macro bodies can
// call directly (spec §8 scenario 2: "+ bound to integer addition"). These
// exist purely so quasiquote/unquote expressions inside macro templates have
// something to compute with; they are not part of the generated program's
// runtime and never reach the (out-of-scope) code generator.
func RegisterBuiltins(env *henv.Env) {
	env.Define("+", &henv.HostFunc{Name: "+", Fn: numFold(func(a, b float64) float64 { return a + b }, 0)})
	env.Define("-", &henv.HostFunc{Name: "-", Fn: numFoldSub})
	env.Define("*", &henv.HostFunc{Name: "*", Fn: numFold(func(a, b float64) float64 { return a * b }, 1)})
	env.Define("/", &henv.HostFunc{Name: "/", Fn: numFoldDiv})

	env.Define("=", &henv.HostFunc{Name: "=", Fn: biEq})
	env.Define("<", &henv.HostFunc{Name: "<", Fn: numCompare(func(a, b float64) bool { return a < b })})
	env.Define(">", &henv.HostFunc{Name: ">", Fn: numCompare(func(a, b float64) bool { return a > b })})
	env.Define("<=", &henv.HostFunc{Name: "<=", Fn: numCompare(func(a, b float64) bool { return a <= b })})
	env.Define(">=", &henv.HostFunc{Name: ">=", Fn: numCompare(func(a, b float64) bool { return a >= b })})

	env.Define("not", &henv.HostFunc{Name: "not", Fn: biNot})
	env.Define("list", &henv.HostFunc{Name: "list", Fn: biList})
	env.Define("cons", &henv.HostFunc{Name: "cons", Fn: biCons})
	env.Define("first", &henv.HostFunc{Name: "first", Fn: biFirst})
	env.Define("car", &henv.HostFunc{Name: "car", Fn: biFirst})
	env.Define("rest", &henv.HostFunc{Name: "rest", Fn: biRest})
	env.Define("cdr", &henv.HostFunc{Name: "cdr", Fn: biRest})
	env.Define("append", &henv.HostFunc{Name: "append", Fn: biAppend})
	env.Define("nil?", &henv.HostFunc{Name: "nil?", Fn: biNilP})
	env.Define("list?", &henv.HostFunc{Name: "list?", Fn: biListP})
	env.Define("get", &henv.HostFunc{Name: "get", Fn: biGet})
}

func asFloat(e sexp.SExp) (float64, bool) {
	lit, ok := e.(*sexp.Literal)
	if !ok {
		return 0, false
	}
	switch lit.Kind {
	case sexp.IntLit:
		return float64(lit.Int), true
	case sexp.FloatLit:
		return lit.Float, true
	}
	return 0, false
}

func allInts(args []sexp.SExp) bool {
	for _, a := range args {
		lit, ok := a.(*sexp.Literal)
		if !ok || lit.Kind != sexp.IntLit {
			return false
		}
	}
	return true
}

func numFold(op func(a, b float64) float64, identity float64) func([]sexp.SExp) (sexp.SExp, error) {
	return func(args []sexp.SExp) (sexp.SExp, error) {
		acc := identity
		for _, a := range args {
			v, ok := asFloat(a)
			if !ok {
				return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, a.Position(), "expected a number")
			}
			acc = op(acc, v)
		}
		if allInts(args) {
			return sexp.Int(int64(acc), sexp.Pos{}), nil
		}
		return sexp.Float(acc, sexp.Pos{}), nil
	}
}

func numFoldSub(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) == 0 {
		return sexp.Int(0, sexp.Pos{}), nil
	}
	first, ok := asFloat(args[0])
	if !ok {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, args[0].Position(), "expected a number")
	}
	if len(args) == 1 {
		if allInts(args) {
			return sexp.Int(int64(-first), sexp.Pos{}), nil
		}
		return sexp.Float(-first, sexp.Pos{}), nil
	}
	acc := first
	for _, a := range args[1:] {
		v, ok := asFloat(a)
		if !ok {
			return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, a.Position(), "expected a number")
		}
		acc -= v
	}
	if allInts(args) {
		return sexp.Int(int64(acc), sexp.Pos{}), nil
	}
	return sexp.Float(acc, sexp.Pos{}), nil
}

func numFoldDiv(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) == 0 {
		return sexp.Int(1, sexp.Pos{}), nil
	}
	first, ok := asFloat(args[0])
	if !ok {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, args[0].Position(), "expected a number")
	}
	if len(args) == 1 {
		return sexp.Float(1/first, sexp.Pos{}), nil
	}
	acc := first
	for _, a := range args[1:] {
		v, ok := asFloat(a)
		if !ok {
			return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, a.Position(), "expected a number")
		}
		acc /= v
	}
	return sexp.Float(acc, sexp.Pos{}), nil
}

func numCompare(cmp func(a, b float64) bool) func([]sexp.SExp) (sexp.SExp, error) {
	return func(args []sexp.SExp) (sexp.SExp, error) {
		for i := 0; i+1 < len(args); i++ {
			a, ok1 := asFloat(args[i])
			b, ok2 := asFloat(args[i+1])
			if !ok1 || !ok2 {
				return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, args[i].Position(), "expected a number")
			}
			if !cmp(a, b) {
				return sexp.Bool(false, sexp.Pos{}), nil
			}
		}
		return sexp.Bool(true, sexp.Pos{}), nil
	}
}

func biEq(args []sexp.SExp) (sexp.SExp, error) {
	for i := 1; i < len(args); i++ {
		if !sexp.Equal(args[0], args[i]) {
			return sexp.Bool(false, sexp.Pos{}), nil
		}
	}
	return sexp.Bool(true, sexp.Pos{}), nil
}

func biNot(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) != 1 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, sexp.Pos{}, "not takes exactly one argument")
	}
	return sexp.Bool(!isTruthy(args[0]), sexp.Pos{}), nil
}

func biList(args []sexp.SExp) (sexp.SExp, error) {
	return sexp.NewList(append([]sexp.SExp{}, args...), sexp.Pos{}), nil
}

func biCons(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) != 2 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, sexp.Pos{}, "cons takes exactly two arguments")
	}
	tail, ok := args[1].(*sexp.List)
	if !ok {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, args[1].Position(), "cons's second argument must be a list")
	}
	elems := append([]sexp.SExp{args[0]}, tail.Elements...)
	return sexp.NewList(elems, sexp.Pos{}), nil
}

func biFirst(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) != 1 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, sexp.Pos{}, "first takes exactly one argument")
	}
	lst, ok := args[0].(*sexp.List)
	if !ok || len(lst.Elements) == 0 {
		return sexp.Nil(sexp.Pos{}), nil
	}
	return lst.Elements[0], nil
}

func biRest(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) != 1 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, sexp.Pos{}, "rest takes exactly one argument")
	}
	lst, ok := args[0].(*sexp.List)
	if !ok || len(lst.Elements) <= 1 {
		return sexp.NewList(nil, sexp.Pos{}), nil
	}
	return sexp.NewList(append([]sexp.SExp{}, lst.Elements[1:]...), sexp.Pos{}), nil
}

func biAppend(args []sexp.SExp) (sexp.SExp, error) {
	var out []sexp.SExp
	for _, a := range args {
		lst, ok := a.(*sexp.List)
		if !ok {
			return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, a.Position(), "append's arguments must be lists")
		}
		out = append(out, lst.Elements...)
	}
	return sexp.NewList(out, sexp.Pos{}), nil
}

func biNilP(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) != 1 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, sexp.Pos{}, "nil? takes exactly one argument")
	}
	lit, ok := args[0].(*sexp.Literal)
	return sexp.Bool(ok && lit.Kind == sexp.NilLit, sexp.Pos{}), nil
}

func biListP(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) != 1 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, sexp.Pos{}, "list? takes exactly one argument")
	}
	_, ok := args[0].(*sexp.List)
	return sexp.Bool(ok, sexp.Pos{}), nil
}

// biGet implements the runtime side of the reader's dot-dash desugaring
// ((get obj "prop")): obj is a flat (key1 val1 key2 val2 ...) list, matched
// against a string-literal property name.
func biGet(args []sexp.SExp) (sexp.SExp, error) {
	if len(args) != 2 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, sexp.Pos{}, "get takes exactly two arguments")
	}
	lst, ok := args[0].(*sexp.List)
	if !ok {
		return sexp.Nil(sexp.Pos{}), nil
	}
	key, ok := args[1].(*sexp.Literal)
	if !ok || key.Kind != sexp.StringLit {
		return sexp.Nil(sexp.Pos{}), nil
	}
	for i := 0; i+1 < len(lst.Elements); i += 2 {
		k, ok := lst.Elements[i].(*sexp.Literal)
		if ok && k.Kind == sexp.StringLit && k.Str == key.Str {
			return lst.Elements[i+1], nil
		}
	}
	return sexp.Nil(sexp.Pos{}), nil
}
