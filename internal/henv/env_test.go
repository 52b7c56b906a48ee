package henv

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hql/internal/sexp"
)

func TestLookupParentChain(t *testing.T) {
	root := New()
	root.DefineSExp("x", sexp.Int(1, sexp.Pos{}))

	child := root.Extend()
	v, err := child.Lookup("x")
	require.NoError(t, err)
	require.Equal(t, "1", v.String())

	child.DefineSExp("x", sexp.Int(2, sexp.Pos{}))
	v, err = child.Lookup("x")
	require.NoError(t, err)
	require.Equal(t, "2", v.String())

	// root's own binding is untouched by the child's shadow
	v, err = root.Lookup("x")
	require.NoError(t, err)
	require.Equal(t, "1", v.String())
}

func TestLookupMissingFails(t *testing.T) {
	root := New()
	_, err := root.Lookup("nope")
	require.Error(t, err)
}

func TestGlobalMacroVisibleFromAnyFrame(t *testing.T) {
	root := New()
	fn := &MacroFn{Name: "m"}
	child := root.Extend()
	child.DefineMacro("m", fn) // spec I1: always lands on the root frame

	require.True(t, root.HasMacro("m"))
	got, ok := root.GetMacro("m")
	require.True(t, ok)
	require.Same(t, fn, got)
}

func TestModuleMacroExportImport(t *testing.T) {
	root := New()
	fn := &MacroFn{Name: "incr"}
	root.DefineModuleMacro("A.hql", "incr", fn)

	// not exported yet: import must fail (spec I3)
	require.False(t, root.ImportMacro("A.hql", "incr", "B.hql", ""))

	root.ExportMacro("A.hql", "incr")
	require.True(t, root.ImportMacro("A.hql", "incr", "B.hql", ""))
	require.True(t, root.IsUserLevelMacro("incr", "B.hql"))

	got, ok := root.GetModuleMacro("B.hql", "incr")
	require.True(t, ok)
	require.Same(t, fn, got)
}

func TestExportMacroSilentWhenUndefined(t *testing.T) {
	root := New()
	root.ExportMacro("A.hql", "doesNotExist") // must not panic or error
	require.False(t, root.ImportMacro("A.hql", "doesNotExist", "B.hql", ""))
}

func TestDottedModuleLookup(t *testing.T) {
	root := New()
	root.ImportModule("ns", map[string]Value{"x": SExpValue{sexp.Int(9, sexp.Pos{})}})
	v, err := root.Lookup("ns.x")
	require.NoError(t, err)
	require.Equal(t, "9", v.String())
}

func TestScopedCurrentFileRestoration(t *testing.T) {
	root := New()
	require.Equal(t, "", root.CurrentFile())
	release := root.SetCurrentFile("A.hql")
	require.Equal(t, "A.hql", root.CurrentFile())
	release()
	require.Equal(t, "", root.CurrentFile())
}

func TestGensymMonotonicAndUnique(t *testing.T) {
	root := New()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		g := root.Gensym()
		require.False(t, seen[g], "gensym collision: %s", g)
		seen[g] = true
	}
}
