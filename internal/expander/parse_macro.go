package expander

import (
	"hql/internal/henv"
	"hql/internal/herrors"
	"hql/internal/sexp"
)

// parseMacroDef parses (defmacro name [p1 p2 & rest] body...) or
// (macro name [p1 p2 & rest] body...) into a *henv.MacroFn (spec §6).
func parseMacroDef(lst *sexp.List, file string, moduleScoped bool, definingEnv *henv.Env) (*henv.MacroFn, error) {
	if len(lst.Elements) < 3 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, lst.Pos,
			"macro definition requires a name, a parameter list, and a body")
	}
	nameSym, ok := lst.Elements[1].(*sexp.Symbol)
	if !ok {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, lst.Pos, "macro name must be a symbol")
	}
	paramForm, ok := lst.Elements[2].(*sexp.List)
	if !ok {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, lst.Pos, "macro parameter list must be a vector")
	}

	params, rest, err := parseParamList(paramForm)
	if err != nil {
		return nil, err
	}

	body := lst.Elements[3:]
	if len(body) == 0 {
		return nil, herrors.NewMacroError(herrors.EXPMacroSyntax, lst.Pos, "macro definition is missing a body")
	}

	return &henv.MacroFn{
		Name:           nameSym.Name,
		Params:         params,
		RestParam:      rest,
		Body:           body,
		DefiningEnv:    definingEnv,
		SourceFile:     file,
		IsModuleScoped: moduleScoped,
	}, nil
}

// parseParamList parses a reader-produced (vector p1 p2 & rest) form (the
// sugar [p1 p2 & rest] reads as (vector p1 p2 & rest)) into an ordered
// parameter-name list plus an optional rest-parameter name. Multiple '&'
// raise MacroSyntax (spec §4.4 "Rest parameters").
func parseParamList(form *sexp.List) (params []string, rest string, err error) {
	elems := form.Elements
	if len(elems) > 0 {
		if head, ok := elems[0].(*sexp.Symbol); ok && head.Name == "vector" {
			elems = elems[1:]
		}
	}

	ampSeen := false
	for i := 0; i < len(elems); i++ {
		sym, ok := elems[i].(*sexp.Symbol)
		if !ok {
			return nil, "", herrors.NewMacroError(herrors.EXPMacroSyntax, form.Pos, "macro parameter must be a symbol")
		}
		if sym.Name == "&" {
			if ampSeen {
				return nil, "", herrors.NewMacroError(herrors.EXPMacroSyntax, form.Pos,
					"multiple rest-parameter markers ('&') in macro parameter list")
			}
			ampSeen = true
			if i+1 >= len(elems) {
				return nil, "", herrors.NewMacroError(herrors.EXPMacroSyntax, form.Pos,
					"'&' must be followed by a rest-parameter name")
			}
			restSym, ok := elems[i+1].(*sexp.Symbol)
			if !ok {
				return nil, "", herrors.NewMacroError(herrors.EXPMacroSyntax, form.Pos, "rest parameter must be a symbol")
			}
			rest = restSym.Name
			i++
			continue
		}
		params = append(params, sym.Name)
	}
	return params, rest, nil
}
