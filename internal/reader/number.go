package reader

import (
	"strconv"
	"strings"

	"hql/internal/herrors"
	"hql/internal/sexp"
)

// parseNumber converts a lexer NUMBER literal into an int or float Literal,
// choosing FloatLit when the text carries a decimal point or exponent.
func parseNumber(lit string, pos sexp.Pos) (sexp.SExp, error) {
	if strings.ContainsAny(lit, ".eE") {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, herrors.NewParseError(herrors.RDRUnexpectedChar, pos, lit, "malformed float literal: "+lit)
		}
		return sexp.Float(f, pos), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return nil, herrors.NewParseError(herrors.RDRUnexpectedChar, pos, lit, "malformed integer literal: "+lit)
	}
	return sexp.Int(i, pos), nil
}
