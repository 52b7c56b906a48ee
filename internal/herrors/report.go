package herrors

import (
	"errors"
	"fmt"

	"hql/internal/schema"
	"hql/internal/sexp"
)

// SchemaV1 is the schema version tag carried by every Report, mirroring
// ailang.error/v1 in the teacher's json_encoder.go.
const SchemaV1 = "hql.error/v1"

// Fix is an optional suggested remediation, mirrored from the teacher's
// errors.Fix (a free-form description plus optional replacement text).
type Fix struct {
	Description string `json:"description"`
	Replacement string `json:"replacement,omitempty"`
}

// Report is the canonical structured error carried by every herrors-raised
// error (spec §7 "user-visible failure": error kind, primary location,
// optional snippet, and an import chain when the error surfaced beneath a
// chain of imports).
type Report struct {
	Schema     string         `json:"schema"`
	Code       string         `json:"code"`
	Phase      string         `json:"phase"`
	Kind       string         `json:"kind"` // ParseError | ImportError | MacroError | SymbolNotFound
	Message    string         `json:"message"`
	Pos        *sexp.Pos      `json:"pos,omitempty"`
	Snippet    string         `json:"snippet,omitempty"`
	ImportChain []string      `json:"importChain,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Fix        *Fix           `json:"fix,omitempty"`
}

// ReportError wraps a Report as an error so errors.As recovers structure
// after propagation through ordinary Go error returns.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown hql error"
	}
	if e.Rep.Pos != nil {
		return fmt.Sprintf("%s: %s: %s", e.Rep.Pos.String(), e.Rep.Code, e.Rep.Message)
	}
	return fmt.Sprintf("%s: %s", e.Rep.Code, e.Rep.Message)
}

// AsReport extracts a Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as an error, or returns nil if r is nil.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// WithImportChain prepends path to the report's import chain (the loader
// calls this as a failure unwinds past each containing file).
func (r *Report) WithImportChain(path string) *Report {
	r.ImportChain = append([]string{path}, r.ImportChain...)
	return r
}

// ToJSON renders the Report as deterministic, sorted-key JSON via the schema
// package, respecting schema.CompactMode.
func (r *Report) ToJSON() (string, error) {
	data, err := schema.MarshalDeterministic(r)
	if err != nil {
		return "", err
	}
	formatted, err := schema.FormatJSON(data)
	if err != nil {
		return "", err
	}
	return string(formatted), nil
}

func newReport(code, phase, kind, msg string, pos *sexp.Pos) *Report {
	return &Report{Schema: SchemaV1, Code: code, Phase: phase, Kind: kind, Message: msg, Pos: pos}
}

// NewParseError builds a ParseError report (reader failures; spec §4.1).
func NewParseError(code string, pos sexp.Pos, snippet, msg string) error {
	r := newReport(code, PhaseReader, "ParseError", msg, &pos)
	r.Snippet = snippet
	return WrapReport(r)
}

// NewImportError builds an ImportError report (spec §7).
func NewImportError(code, path, msg string) error {
	r := newReport(code, PhaseLoader, "ImportError", msg, nil)
	r.Data = map[string]any{"path": path}
	return WrapReport(r)
}

// NewMacroError builds a MacroError report (spec §7).
func NewMacroError(code string, pos sexp.Pos, msg string) error {
	return WrapReport(newReport(code, PhaseExpander, "MacroError", msg, &pos))
}

// NewSymbolNotFound builds a SymbolNotFound report (spec §4.2, §7 — "never
// recovered locally").
func NewSymbolNotFound(name string) error {
	r := newReport(ENVSymbolNotFound, PhaseEnv, "SymbolNotFound", fmt.Sprintf("symbol not found: %s", name), nil)
	r.Data = map[string]any{"name": name}
	return WrapReport(r)
}

// IsSymbolNotFound reports whether err is (or wraps) a SymbolNotFound report.
func IsSymbolNotFound(err error) bool {
	r, ok := AsReport(err)
	return ok && r.Kind == "SymbolNotFound"
}

// IsImportError reports whether err is (or wraps) an ImportError report.
func IsImportError(err error) bool {
	r, ok := AsReport(err)
	return ok && r.Kind == "ImportError"
}
