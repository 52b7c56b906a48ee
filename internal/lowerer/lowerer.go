// Package lowerer defines the boundary the expander hands off to: turning
// fully macro-expanded S-expressions into an IR and then JS source. That
// transformation itself is out of scope (spec Non-goals — "the AST→IR→JS
// code generator"); this package only fixes the seam so a future
// implementation has somewhere concrete to attach, the way the teacher's
// internal/pipeline separates elaboration from linking via narrow
// interfaces rather than one monolithic pass.
package lowerer

import "hql/internal/sexp"

// Lowerer turns a module's fully expanded forms into emittable output.
// HQL ships no implementation of this interface; callers that need one are
// outside this module's scope.
type Lowerer interface {
	Lower(forms []sexp.SExp, modulePath string) (Unit, error)
}

// Unit is whatever a Lowerer implementation decides to produce (e.g. JS
// source text, a source map, or an intermediate IR tree). HQL's compiler
// front end never inspects this value; it only threads it through.
type Unit struct {
	ModulePath string
	Payload    any
}
