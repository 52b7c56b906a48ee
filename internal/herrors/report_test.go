package herrors

import (
	"encoding/json"
	"errors"
	"testing"

	"hql/internal/sexp"
)

func TestNewParseError(t *testing.T) {
	pos := sexp.Pos{File: "main.hql", Line: 3, Column: 5}
	err := NewParseError(RDRUnclosedList, pos, "(foo", "unclosed list starting here")

	rep, ok := AsReport(err)
	if !ok {
		t.Fatal("expected a Report wrapped in the returned error")
	}
	if rep.Schema != SchemaV1 {
		t.Errorf("Schema = %q, want %q", rep.Schema, SchemaV1)
	}
	if rep.Code != RDRUnclosedList {
		t.Errorf("Code = %q, want %q", rep.Code, RDRUnclosedList)
	}
	if rep.Phase != PhaseReader {
		t.Errorf("Phase = %q, want %q", rep.Phase, PhaseReader)
	}
	if rep.Kind != "ParseError" {
		t.Errorf("Kind = %q, want ParseError", rep.Kind)
	}
	if rep.Pos == nil || *rep.Pos != pos {
		t.Errorf("Pos = %v, want %v", rep.Pos, pos)
	}
	if rep.Snippet != "(foo" {
		t.Errorf("Snippet = %q, want %q", rep.Snippet, "(foo")
	}
}

func TestNewImportError(t *testing.T) {
	err := NewImportError(LDRFileNotFound, "./missing.hql", "module not found")

	rep, ok := AsReport(err)
	if !ok {
		t.Fatal("expected a Report")
	}
	if rep.Kind != "ImportError" {
		t.Errorf("Kind = %q, want ImportError", rep.Kind)
	}
	if rep.Phase != PhaseLoader {
		t.Errorf("Phase = %q, want %q", rep.Phase, PhaseLoader)
	}
	if rep.Data["path"] != "./missing.hql" {
		t.Errorf("Data[path] = %v, want ./missing.hql", rep.Data["path"])
	}
	if !IsImportError(err) {
		t.Error("IsImportError should be true")
	}
	if IsSymbolNotFound(err) {
		t.Error("IsSymbolNotFound should be false for an ImportError")
	}
}

func TestNewMacroError(t *testing.T) {
	pos := sexp.Pos{File: "a.hql", Line: 1, Column: 1}
	err := NewMacroError(EXPMacroSyntax, pos, "bad params")

	rep, ok := AsReport(err)
	if !ok {
		t.Fatal("expected a Report")
	}
	if rep.Kind != "MacroError" {
		t.Errorf("Kind = %q, want MacroError", rep.Kind)
	}
	if rep.Phase != PhaseExpander {
		t.Errorf("Phase = %q, want %q", rep.Phase, PhaseExpander)
	}
}

func TestNewSymbolNotFound(t *testing.T) {
	err := NewSymbolNotFound("foo")

	rep, ok := AsReport(err)
	if !ok {
		t.Fatal("expected a Report")
	}
	if rep.Kind != "SymbolNotFound" {
		t.Errorf("Kind = %q, want SymbolNotFound", rep.Kind)
	}
	if rep.Code != ENVSymbolNotFound {
		t.Errorf("Code = %q, want %q", rep.Code, ENVSymbolNotFound)
	}
	if rep.Data["name"] != "foo" {
		t.Errorf("Data[name] = %v, want foo", rep.Data["name"])
	}
	if !IsSymbolNotFound(err) {
		t.Error("IsSymbolNotFound should be true")
	}
}

func TestAsReportOnPlainError(t *testing.T) {
	_, ok := AsReport(errors.New("not a report"))
	if ok {
		t.Error("AsReport should fail on a plain error")
	}
}

func TestWrapReportNil(t *testing.T) {
	if err := WrapReport(nil); err != nil {
		t.Errorf("WrapReport(nil) = %v, want nil", err)
	}
}

func TestReportErrorMessage(t *testing.T) {
	pos := sexp.Pos{File: "main.hql", Line: 2, Column: 1}
	err := NewParseError(RDRUnexpectedChar, pos, "@", "unexpected character")
	if err.Error() == "" {
		t.Error("Error() should not be empty when Pos is set")
	}

	noPos := NewSymbolNotFound("x")
	if noPos.Error() == "" {
		t.Error("Error() should not be empty when Pos is nil")
	}
}

func TestWithImportChainPrependsInEncounterOrder(t *testing.T) {
	err := NewImportError(LDRSymbolNotExported, "./util.hql", "symbol not exported: foo")
	rep, ok := AsReport(err)
	if !ok {
		t.Fatal("expected a Report")
	}
	rep.WithImportChain("lib/util.hql")
	rep.WithImportChain("main.hql")

	want := []string{"main.hql", "lib/util.hql"}
	if len(rep.ImportChain) != len(want) {
		t.Fatalf("ImportChain = %v, want %v", rep.ImportChain, want)
	}
	for i, p := range want {
		if rep.ImportChain[i] != p {
			t.Errorf("ImportChain[%d] = %q, want %q", i, rep.ImportChain[i], p)
		}
	}
}

func TestToJSONRoundTrips(t *testing.T) {
	pos := sexp.Pos{File: "main.hql", Line: 4, Column: 2}
	err := NewMacroError(EXPMacroDepth, pos, "recursion depth exceeded")
	rep, _ := AsReport(err)

	js, jerr := rep.ToJSON()
	if jerr != nil {
		t.Fatalf("ToJSON: %v", jerr)
	}

	var decoded map[string]any
	if uerr := json.Unmarshal([]byte(js), &decoded); uerr != nil {
		t.Fatalf("Unmarshal: %v", uerr)
	}
	if decoded["schema"] != SchemaV1 {
		t.Errorf("schema = %v, want %v", decoded["schema"], SchemaV1)
	}
	if decoded["code"] != EXPMacroDepth {
		t.Errorf("code = %v, want %v", decoded["code"], EXPMacroDepth)
	}
	if decoded["kind"] != "MacroError" {
		t.Errorf("kind = %v, want MacroError", decoded["kind"])
	}
}

func TestToJSONOmitsEmptyOptionalFields(t *testing.T) {
	err := NewSymbolNotFound("bar")
	rep, _ := AsReport(err)

	js, jerr := rep.ToJSON()
	if jerr != nil {
		t.Fatalf("ToJSON: %v", jerr)
	}
	var decoded map[string]any
	if uerr := json.Unmarshal([]byte(js), &decoded); uerr != nil {
		t.Fatalf("Unmarshal: %v", uerr)
	}
	if _, present := decoded["pos"]; present {
		t.Error("pos should be omitted when nil")
	}
	if _, present := decoded["importChain"]; present {
		t.Error("importChain should be omitted when empty")
	}
	if _, present := decoded["fix"]; present {
		t.Error("fix should be omitted when nil")
	}
}
