package schema_test

import (
	"encoding/json"
	"testing"

	"hql/internal/herrors"
	"hql/internal/schema"
	"hql/internal/sexp"
)

// TestErrorSchemaIntegration verifies a herrors.Report round-trips through
// the schema package's deterministic JSON encoding end-to-end.
func TestErrorSchemaIntegration(t *testing.T) {
	err := herrors.NewSymbolNotFound("foo")

	rep, ok := herrors.AsReport(err)
	if !ok {
		t.Fatal("expected a *herrors.Report")
	}

	jsonStr, jsonErr := rep.ToJSON()
	if jsonErr != nil {
		t.Fatalf("Failed to convert report to JSON: %v", jsonErr)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	schemaField, ok := parsed["schema"].(string)
	if !ok {
		t.Fatal("Missing or invalid schema field")
	}
	if !schema.Accepts(schemaField, schema.ErrorV1) {
		t.Errorf("Schema %q not accepted by %q", schemaField, schema.ErrorV1)
	}

	requiredFields := []string{"schema", "code", "phase", "kind", "message"}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("Missing required field: %s", field)
		}
	}
}

// TestImportChainIntegration verifies WithImportChain's accumulated path
// list survives the JSON round trip in encounter order.
func TestImportChainIntegration(t *testing.T) {
	err := herrors.NewImportError(herrors.LDRFileNotFound, "./missing.hql", "module not found")
	rep, ok := herrors.AsReport(err)
	if !ok {
		t.Fatal("expected a *herrors.Report")
	}
	rep.WithImportChain("lib/util.hql")
	rep.WithImportChain("main.hql")

	jsonStr, err2 := rep.ToJSON()
	if err2 != nil {
		t.Fatalf("Failed to convert report to JSON: %v", err2)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	chain, ok := parsed["importChain"].([]interface{})
	if !ok || len(chain) != 2 {
		t.Fatalf("expected a 2-element importChain, got %v", parsed["importChain"])
	}
	if chain[0] != "main.hql" || chain[1] != "lib/util.hql" {
		t.Errorf("unexpected import chain order: %v", chain)
	}
}

// TestCompactModeIntegration verifies compact mode works with a real Report.
func TestCompactModeIntegration(t *testing.T) {
	err := herrors.NewMacroError(herrors.EXPMacroSyntax, sexp.Pos{File: "a.hql", Line: 1, Column: 1}, "bad params")

	schema.SetCompactMode(false)
	pretty, perr := errToJSON(err)
	if perr != nil {
		t.Fatalf("Failed to generate pretty JSON: %v", perr)
	}

	schema.SetCompactMode(true)
	compact, cerr := errToJSON(err)
	if cerr != nil {
		t.Fatalf("Failed to generate compact JSON: %v", cerr)
	}

	if len(pretty) <= len(compact) {
		t.Error("Pretty JSON should be longer than compact JSON")
	}

	var prettyParsed, compactParsed interface{}
	if err := json.Unmarshal([]byte(pretty), &prettyParsed); err != nil {
		t.Fatalf("Failed to parse pretty JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(compact), &compactParsed); err != nil {
		t.Fatalf("Failed to parse compact JSON: %v", err)
	}

	schema.SetCompactMode(false)
}

func errToJSON(err error) (string, error) {
	rep, _ := herrors.AsReport(err)
	return rep.ToJSON()
}
