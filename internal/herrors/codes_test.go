package herrors

import "testing"

func TestErrorCodeTaxonomy(t *testing.T) {
	tests := []struct {
		code     string
		phase    string
		category string
	}{
		{RDRUnclosedList, PhaseReader, "ParseError"},
		{RDRExpectedPropertyAfterDot, PhaseReader, "ParseError"},
		{LDRFileNotFound, PhaseLoader, "ImportError"},
		{LDRSymbolNotExported, PhaseLoader, "ImportError"},
		{EXPMacroDepth, PhaseExpander, "MacroError"},
		{EXPSymbolCollision, PhaseExpander, "MacroError"},
		{ENVSymbolNotFound, PhaseEnv, "SymbolNotFound"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			info, ok := GetErrorInfo(tt.code)
			if !ok {
				t.Fatalf("code %s not found in registry", tt.code)
			}
			if info.Code != tt.code {
				t.Errorf("Code = %q, want %q", info.Code, tt.code)
			}
			if info.Phase != tt.phase {
				t.Errorf("Phase = %q, want %q", info.Phase, tt.phase)
			}
			if info.Category != tt.category {
				t.Errorf("Category = %q, want %q", info.Category, tt.category)
			}
		})
	}
}

// Every registered code has a non-empty description, and its registry key
// matches its ErrorInfo.Code.
func TestRegistryEntriesHaveDescriptions(t *testing.T) {
	for code, info := range Registry {
		if info.Description == "" {
			t.Errorf("code %s has an empty description", code)
		}
		if info.Code != code {
			t.Errorf("registry key %s does not match its ErrorInfo.Code %s", code, info.Code)
		}
	}
}

func TestGetErrorInfoUnknownCode(t *testing.T) {
	if _, ok := GetErrorInfo("NOPE999"); ok {
		t.Error("expected GetErrorInfo to report false for an unregistered code")
	}
}
