// Package loader implements HQL's Module Loader (spec §4.3): a DFS module
// graph walker that resolves imports across HQL and JS modules, expands each
// module's forms, and propagates macro visibility through import/export
// declarations. Grounded on the teacher's internal/module.Loader (white/
// gray/black load-stack cycle tracking, two-phase dependency loading,
// topological sort) and internal/loader.ModuleLoader (cache-by-canonical-id,
// LoadAll DFS, content normalization) — merged and adapted to HQL's
// S-expression forms instead of AILANG's typed AST.
package loader

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"hql/internal/expander"
	"hql/internal/henv"
	"hql/internal/herrors"
	"hql/internal/reader"
	"hql/internal/sexp"
)

// color tracks a module's DFS state, mirroring the teacher's load-stack but
// generalized to the standard white/gray/black scheme so a cycle can be
// detected without a linear scan of a stack slice.
type color int

const (
	white color = iota // unvisited
	gray               // load in progress (on the current DFS path)
	black              // fully loaded
)

// Kind classifies how a module specifier resolves to content (spec §4.3
// "path resolution order").
type Kind int

const (
	KindLocalHQL Kind = iota
	KindLocalJS
	KindRemote
)

// Module is one loaded, expanded HQL (or recorded JS) module.
type Module struct {
	Path    string      // canonical absolute path, or remote specifier
	Kind    Kind
	Forms   []sexp.SExp // fully expanded top-level forms (HQL modules only)
	Imports []ImportSpec

	// Partial is true when this Module was handed back mid-load because a
	// cyclic import reached it before its own load completed (spec §4.3:
	// "on a cycle, return whatever exports have been registered so far" —
	// deliberately NOT an error, unlike the teacher's checkCycle).
	Partial bool
}

// ImportSpec is one (import ...) declaration.
type ImportSpec struct {
	Raw     string
	Kind    Kind
	Symbols []string          // selective-vector-import names; nil for a namespace import
	Aliases map[string]string // selective name -> "as" alias, only for renamed entries
	Alias   string            // bound name for a namespace import; "" for a selective import
	Pos     sexp.Pos
}

// Fetcher retrieves remote module content (npm:/jsr:/http(s): specifiers).
// Real package resolution and bundling are out of scope (spec Non-goals);
// the default Fetcher never does network I/O, it only records that the
// specifier was referenced.
type Fetcher interface {
	Fetch(specifier string) (RemoteModule, error)
}

// RemoteModule is what survives from a remote import: just enough to
// register an identifier, since resolving and bundling real npm/jsr/http
// packages is explicitly out of scope.
type RemoteModule struct {
	Specifier string
}

// IdentifierOnlyFetcher always succeeds, recording only the specifier.
type IdentifierOnlyFetcher struct{}

func (IdentifierOnlyFetcher) Fetch(specifier string) (RemoteModule, error) {
	return RemoteModule{Specifier: specifier}, nil
}

// Loader owns the shared Environment and Expander every loaded module
// expands against, plus the DFS color/cache tables (spec §4.3 "one
// Environment per compilation").
type Loader struct {
	Env     *henv.Env
	Exp     *expander.Expander
	Fetcher Fetcher

	// StdlibPaths are searched, in order, for a local import specifier that
	// doesn't resolve relative to the importing file (hqlconfig's
	// StdlibPaths setting). Empty by default — every specifier then
	// resolves relative to fromFile exactly as before.
	StdlibPaths []string

	basePath string

	mu      sync.Mutex
	color   map[string]color
	cache   map[string]*Module
	remotes map[string]RemoteModule
}

// New constructs a Loader sharing env and exp across every module it loads.
func New(env *henv.Env, exp *expander.Expander, basePath string) *Loader {
	return &Loader{
		Env:      env,
		Exp:      exp,
		Fetcher:  IdentifierOnlyFetcher{},
		basePath: basePath,
		color:    make(map[string]color),
		cache:    make(map[string]*Module),
		remotes:  make(map[string]RemoteModule),
	}
}

// classify implements spec §4.3's path resolution order: npm:/jsr:/http(s):
// specifiers resolve remote; .hql resolves local HQL; .js/.mjs/.cjs resolve
// local JS (identifiers only); anything else is UnsupportedFileType.
func classify(spec string) (Kind, error) {
	switch {
	case strings.HasPrefix(spec, "npm:"), strings.HasPrefix(spec, "jsr:"),
		strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return KindRemote, nil
	case strings.HasSuffix(spec, ".hql"):
		return KindLocalHQL, nil
	case strings.HasSuffix(spec, ".js"), strings.HasSuffix(spec, ".mjs"), strings.HasSuffix(spec, ".cjs"):
		return KindLocalJS, nil
	default:
		return 0, herrors.NewImportError(herrors.LDRUnsupportedFileType, spec,
			"unsupported file type for import: "+spec)
	}
}

// Load resolves and loads the module at entryPath (the compilation root).
func (l *Loader) Load(entryPath string) (*Module, error) {
	abs, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, herrors.NewImportError(herrors.LDRFileNotFound, entryPath, err.Error())
	}
	return l.loadLocal(abs)
}

// loadDependency resolves spec relative to fromFile (the importing module's
// absolute path) and loads it.
func (l *Loader) loadDependency(fromFile, spec string) (*Module, error) {
	kind, err := classify(spec)
	if err != nil {
		return nil, wrapImportChain(err, fromFile)
	}
	switch kind {
	case KindRemote:
		return l.loadRemote(spec)
	case KindLocalJS:
		abs := l.resolveLocalPath(fromFile, spec)
		return l.loadLocalJS(abs)
	default: // KindLocalHQL
		abs := l.resolveLocalPath(fromFile, spec)
		mod, err := l.loadLocal(abs)
		if err != nil {
			return nil, wrapImportChain(err, fromFile)
		}
		return mod, nil
	}
}

// wrapImportChain prepends fromFile to a Report's import chain so a failure
// deep in a dependency renders with the full chain of files that led to it
// (spec §7 "import chain"). Errors that aren't Reports pass through as-is.
func wrapImportChain(err error, fromFile string) error {
	rep, ok := herrors.AsReport(err)
	if !ok {
		return err
	}
	return herrors.WrapReport(rep.WithImportChain(fromFile))
}

// resolveLocalPath joins spec against fromFile's directory. When that path
// doesn't exist and StdlibPaths is configured, each stdlib root is tried in
// order (spec §4.3's "stdlib search paths" config setting) before falling
// back to the fromFile-relative join, so a missing-file error still names
// the most intuitive candidate.
func (l *Loader) resolveLocalPath(fromFile, spec string) string {
	if filepath.IsAbs(spec) {
		return spec
	}
	dir := filepath.Dir(fromFile)
	joined := filepath.Clean(filepath.Join(dir, spec))
	if _, err := os.Stat(joined); err == nil || len(l.StdlibPaths) == 0 {
		return joined
	}
	for _, root := range l.StdlibPaths {
		candidate := filepath.Clean(filepath.Join(root, spec))
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return joined
}

// loadLocal is the DFS visit for one local HQL file (spec §4.3 algorithm).
func (l *Loader) loadLocal(absPath string) (*Module, error) {
	l.mu.Lock()
	switch l.color[absPath] {
	case black:
		mod := l.cache[absPath]
		l.mu.Unlock()
		return mod, nil
	case gray:
		// Cycle: hand back whatever this module has registered so far,
		// rather than erroring (spec §4.3 deliberately differs from the
		// teacher's checkCycle, which raises a circular-dependency error).
		mod, ok := l.cache[absPath]
		l.mu.Unlock()
		partial := &Module{Path: absPath, Kind: KindLocalHQL}
		if ok {
			cp := *mod
			partial = &cp
		}
		partial.Partial = true
		return partial, nil
	}
	l.color[absPath] = gray
	mod := &Module{Path: absPath, Kind: KindLocalHQL}
	l.cache[absPath] = mod
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.color[absPath] = black
		l.mu.Unlock()
	}()

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, herrors.NewImportError(herrors.LDRFileNotFound, absPath, err.Error())
	}

	forms, err := reader.ReadAllBytes(content, absPath)
	if err != nil {
		return nil, err
	}

	release := l.Env.SetCurrentFile(absPath)
	defer release()

	// Phase 1 of two-phase registration: macros first, so that later
	// imports (including ones that cycle back here) see this file's macro
	// table as it stands, and def/defn names are pre-registered as nil
	// placeholders so forward/cyclic module.prop references resolve to
	// *something* rather than SymbolNotFound.
	if err := l.Exp.RegisterMacroDefs(forms, absPath); err != nil {
		return nil, err
	}
	for _, name := range topLevelDefNames(forms) {
		placeholder := henv.SExpValue{SExp: sexp.Nil(sexp.Pos{File: absPath})}
		l.Env.DefineExport(absPath, name, placeholder)
		// Also bind the bare name directly, not just file.name, so a macro
		// appearing earlier in the same file can reference it unqualified
		// (spec §4.3 step 1: "later macros able to reference such symbols
		// even if they appear textually earlier").
		l.Env.Define(name, placeholder)
	}

	imports := extractImportSpecs(forms)
	local, remote := splitImports(imports)

	// Sequential local imports (spec §4.3): each must fully settle (or
	// partially settle, on a cycle) before the next starts, since later
	// local imports in the same file may depend on macros the earlier ones
	// export.
	for i := range local {
		if err := l.resolveImport(absPath, &local[i]); err != nil {
			return nil, err
		}
	}

	// Parallel remote imports: remote fetches are I/O-bound and
	// independent of each other and of local macro visibility, so they run
	// concurrently (spec §4.3).
	if err := l.resolveImportsParallel(absPath, remote); err != nil {
		return nil, err
	}

	mod.Imports = append(append([]ImportSpec{}, local...), remote...)

	expanded, err := l.Exp.Expand(forms, absPath)
	if err != nil {
		return nil, err
	}
	mod.Forms = expanded

	if err := l.registerExports(absPath, expanded); err != nil {
		return nil, err
	}

	return mod, nil
}

func (l *Loader) loadLocalJS(absPath string) (*Module, error) {
	// JS modules are recorded as an opaque namespace (spec Non-goals: "JS
	// package plugin loading" is out of scope beyond recording the
	// identifier); no parsing of JS source happens here.
	l.Env.ImportModule(absPath, map[string]henv.Value{})
	return &Module{Path: absPath, Kind: KindLocalJS}, nil
}

func (l *Loader) loadRemote(specifier string) (*Module, error) {
	rm, err := l.Fetcher.Fetch(specifier)
	if err != nil {
		return nil, herrors.NewImportError(herrors.LDRRemoteFetchFailed, specifier, err.Error())
	}
	l.mu.Lock()
	l.remotes[specifier] = rm
	l.mu.Unlock()
	l.Env.ImportModule(specifier, map[string]henv.Value{})
	return &Module{Path: specifier, Kind: KindRemote}, nil
}

// resolveImport loads spec.Raw and wires visible exports/macros into the
// importing file's environment, per spec §6's two wire forms.
func (l *Loader) resolveImport(fromFile string, spec *ImportSpec) error {
	dep, err := l.loadDependency(fromFile, spec.Raw)
	if err != nil {
		return err
	}
	depPath := dep.Path

	if spec.Symbols == nil {
		// Namespace import: `(import ns from "path")` binds ns to the whole
		// export object; member access is ns.x. Macros never become
		// callable unqualified this way — I3 requires a name explicitly
		// requested in a selective import vector.
		l.Env.ImportModule(spec.Alias, l.Env.ExportsOf(depPath))
		return nil
	}

	exports := l.Env.ExportsOf(depPath)
	for _, name := range spec.Symbols {
		alias := spec.Aliases[name]
		if alias == "" {
			alias = name
		}
		if l.Env.ImportMacro(depPath, name, fromFile, alias) {
			continue
		}
		if v, ok := exports[name]; ok {
			l.Env.Define(alias, v)
			continue
		}
		if !dep.Partial {
			return herrors.NewImportError(herrors.LDRSymbolNotExported, spec.Raw,
				"symbol not exported: "+name)
		}
		// Partial module from a cycle: the symbol may simply not have
		// registered yet. Leave it unresolved rather than erroring; a
		// later full load of depPath will have populated it for anyone
		// importing afterward.
	}
	return nil
}

func (l *Loader) resolveImportsParallel(fromFile string, specs []ImportSpec) error {
	if len(specs) == 0 {
		return nil
	}
	errs := make([]error, len(specs))
	var wg sync.WaitGroup
	for i := range specs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.resolveImport(fromFile, &specs[i])
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// topLevelDefNames collects the names def/defn would bind, used for phase-1
// forward-reference placeholders.
func topLevelDefNames(forms []sexp.SExp) []string {
	var names []string
	for _, f := range forms {
		lst, ok := f.(*sexp.List)
		if !ok || len(lst.Elements) < 2 {
			continue
		}
		head, ok := lst.Elements[0].(*sexp.Symbol)
		if !ok {
			continue
		}
		if head.Name != "def" && head.Name != "defn" {
			continue
		}
		if name, ok := lst.Elements[1].(*sexp.Symbol); ok {
			names = append(names, name.Name)
		}
	}
	return names
}

// extractImportSpecs scans top-level import forms against spec §6's two wire
// shapes:
//
//	(import [a, b as c, d] from "path")   ; selective import, "as" renames
//	(import ns from "path")               ; namespace import
func extractImportSpecs(forms []sexp.SExp) []ImportSpec {
	var specs []ImportSpec
	for _, f := range forms {
		lst, ok := f.(*sexp.List)
		if !ok || len(lst.Elements) != 4 {
			continue
		}
		head, ok := lst.Elements[0].(*sexp.Symbol)
		if !ok || head.Name != "import" {
			continue
		}
		fromKw, ok := lst.Elements[2].(*sexp.Symbol)
		if !ok || fromKw.Name != "from" {
			continue
		}
		pathLit, ok := lst.Elements[3].(*sexp.Literal)
		if !ok || pathLit.Kind != sexp.StringLit {
			continue
		}

		spec := ImportSpec{Raw: pathLit.Str, Pos: lst.Pos}
		if k, err := classify(pathLit.Str); err == nil {
			spec.Kind = k
		}

		switch binder := lst.Elements[1].(type) {
		case *sexp.List:
			if !isVectorForm(binder) {
				continue
			}
			elems := binder.Elements[1:]
			for i := 0; i < len(elems); i++ {
				name, ok := elems[i].(*sexp.Symbol)
				if !ok {
					continue
				}
				spec.Symbols = append(spec.Symbols, name.Name)
				if i+2 < len(elems) {
					if asKw, ok := elems[i+1].(*sexp.Symbol); ok && asKw.Name == "as" {
						if alias, ok := elems[i+2].(*sexp.Symbol); ok {
							if spec.Aliases == nil {
								spec.Aliases = make(map[string]string)
							}
							spec.Aliases[name.Name] = alias.Name
							i += 2
						}
					}
				}
			}
		case *sexp.Symbol:
			spec.Alias = binder.Name
		default:
			continue
		}

		specs = append(specs, spec)
	}
	return specs
}

func splitImports(specs []ImportSpec) (local, remote []ImportSpec) {
	for _, s := range specs {
		if s.Kind == KindRemote {
			remote = append(remote, s)
		} else {
			local = append(local, s)
		}
	}
	return local, remote
}

// registerExports implements spec §4.3/§6's export registration:
//
//	(export [a, b])         ; each name must be a macro or a currently-bound
//	                        ; value; a missing name raises SymbolNotFound
//	(export "name" expr)    ; legacy — expr is evaluated for macro and the
//	                        ; result stored under "name"
func (l *Loader) registerExports(file string, forms []sexp.SExp) error {
	modEnv := l.Env.Extend()
	for _, f := range forms {
		lst, ok := f.(*sexp.List)
		if !ok || len(lst.Elements) < 2 {
			continue
		}
		head, ok := lst.Elements[0].(*sexp.Symbol)
		if !ok || head.Name != "export" {
			continue
		}

		if vec, ok := lst.Elements[1].(*sexp.List); ok && isVectorForm(vec) {
			for _, e := range vec.Elements[1:] {
				name, ok := e.(*sexp.Symbol)
				if !ok {
					continue
				}
				if l.Env.HasModuleMacro(file, name.Name) {
					l.Env.ExportMacro(file, name.Name)
					continue
				}
				if !l.Env.Has(name.Name) {
					return herrors.NewSymbolNotFound(name.Name)
				}
				val, err := l.Env.Lookup(name.Name)
				if err != nil {
					return err
				}
				l.Env.DefineExport(file, name.Name, val)
			}
			continue
		}

		// Legacy form: (export "name" expr).
		if nameLit, ok := lst.Elements[1].(*sexp.Literal); ok && nameLit.Kind == sexp.StringLit && len(lst.Elements) >= 3 {
			val, err := l.Exp.EvaluateForMacro(lst.Elements[2], modEnv)
			if err != nil {
				return err
			}
			l.Env.DefineExport(file, nameLit.Str, henv.SExpValue{SExp: val})
		}
	}
	return nil
}

func isVectorForm(lst *sexp.List) bool {
	if len(lst.Elements) == 0 {
		return false
	}
	h, ok := lst.Elements[0].(*sexp.Symbol)
	return ok && h.Name == "vector"
}

// DependencyGraph returns path -> import specifiers (as written in the
// module's import forms) for every local HQL module loaded so far (spec §4.3's "graph" inspection operation, exposed to the repl/CLI
// `graph` subcommand).
func (l *Loader) DependencyGraph() map[string][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	graph := make(map[string][]string)
	for path, mod := range l.cache {
		var deps []string
		for _, imp := range mod.Imports {
			deps = append(deps, imp.Raw)
		}
		graph[path] = deps
	}
	return graph
}

// TopologicalSort orders loaded modules so each appears after its
// dependencies, tolerating cycles (Kahn's algorithm; any node left with a
// nonzero in-degree after the main pass is appended in cache order, since a
// cycle has no valid total order and spec §4.3 treats cycles as partial
// resolution rather than failure).
func (l *Loader) TopologicalSort() []string {
	graph := l.DependencyGraph()
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)
	for node := range graph {
		if _, ok := inDegree[node]; !ok {
			inDegree[node] = 0
		}
		for _, dep := range graph[node] {
			if k, err := classify(dep); err == nil && k != KindRemote {
				dep = l.resolveLocalPath(node, dep)
			}
			if _, loaded := graph[dep]; !loaded {
				continue // remote or JS import: not a node of the graph
			}
			inDegree[node]++
			dependents[dep] = append(dependents[dep], node)
		}
	}

	var queue []string
	for node, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, node)
		}
	}

	var order []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, dependent := range dependents[n] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) < len(graph) {
		seen := make(map[string]bool, len(order))
		for _, n := range order {
			seen[n] = true
		}
		for node := range graph {
			if !seen[node] {
				order = append(order, node)
			}
		}
	}
	return order
}

// Cached returns the module loaded for absPath, if any.
func (l *Loader) Cached(absPath string) (*Module, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	mod, ok := l.cache[absPath]
	return mod, ok
}
