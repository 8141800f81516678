package index

import "rubyscope/internal/fqn"

// Event is one element of the per-file ordered event stream produced by an
// AST walker. The index consumes events, never raw AST nodes, so any
// parser that can emit this stream can feed the index.
type Event interface {
	event()
}

// NamespaceKind distinguishes class and module declarations.
type NamespaceKind string

const (
	ClassNamespace  NamespaceKind = "class"
	ModuleNamespace NamespaceKind = "module"
)

// NamespaceOpen begins a class or module body. Ref is the declared
// constant path as written ("Foo", "Foo::Bar", "::Foo"); Superclass is the
// textual superclass operand for classes, nil when omitted.
type NamespaceOpen struct {
	Kind       NamespaceKind
	Ref        fqn.MixinRef
	Superclass *fqn.MixinRef
	Location   Location
}

// NamespaceClose ends the innermost open namespace body.
type NamespaceClose struct{}

// MethodDef records a def (or a synthesized accessor / dynamic stub).
// Singleton is true for `def self.name`.
type MethodDef struct {
	Name       string
	Singleton  bool
	Parameters []Parameter
	Location   Location
	Dynamic    bool
}

// ConstantAssign records `NAME = expr` at the current nesting.
type ConstantAssign struct {
	Name     string
	Value    string
	Location Location
}

// MixinCall records an include/extend/prepend call with its raw operand.
type MixinCall struct {
	Kind     MixinKind
	Ref      fqn.MixinRef
	Location Location
}

// VisibilitySet records public/private/protected. With no Names the
// default visibility of subsequent defs in this body changes; with Names
// it retroactively applies to the named methods.
type VisibilitySet struct {
	Visibility Visibility
	Names      []string
}

// ModuleFunctionCall records module_function. With no Names every later
// def in this module body is a module function; with Names it applies
// retroactively to the named methods.
type ModuleFunctionCall struct {
	Names []string
}

// AliasDef records `alias new old` / `alias_method :new, :old`. The new
// name becomes a best-effort entry owned by the current namespace.
type AliasDef struct {
	NewName  string
	OldName  string
	Location Location
}

// ConstantRef records a constant path read outside a declaration head,
// used for reference tracking.
type ConstantRef struct {
	Ref      fqn.MixinRef
	Location Location
}

// MethodRef records a method call site by name, used for best-effort
// reference tracking.
type MethodRef struct {
	Name     string
	Location Location
}

func (NamespaceOpen) event()      {}
func (NamespaceClose) event()     {}
func (MethodDef) event()          {}
func (ConstantAssign) event()     {}
func (MixinCall) event()          {}
func (VisibilitySet) event()      {}
func (ModuleFunctionCall) event() {}
func (AliasDef) event()           {}
func (ConstantRef) event()        {}
func (MethodRef) event()          {}
