// Package index implements the in-memory Ruby symbol index: per-file entry
// sets, the definition and reference maps, the reverse mixin index, the
// ancestor chain builder, and the method/constant resolver. All shared
// state lives behind a single reader-writer lock; see index.go.
package index

import "rubyscope/internal/fqn"

// Location is a source range inside a file. Lines and columns are 0-based,
// matching tree-sitter points.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Visibility of a method or constant declaration.
type Visibility string

const (
	Public    Visibility = "public"
	Protected Visibility = "protected"
	Private   Visibility = "private"
)

// MethodKind distinguishes how a method was declared.
type MethodKind string

const (
	InstanceMethod  MethodKind = "instance"
	ClassMethod     MethodKind = "class"
	SingletonMethod MethodKind = "singleton"
	ModuleFunction  MethodKind = "module_function"
)

// MixinKind distinguishes the three mixin operations.
type MixinKind string

const (
	Include MixinKind = "include"
	Extend  MixinKind = "extend"
	Prepend MixinKind = "prepend"
)

// OriginKind records how a resolved method reached its receiver.
type OriginKind string

const (
	OriginDirect    OriginKind = "direct"
	OriginInherited OriginKind = "inherited"
	OriginIncluded  OriginKind = "included"
	OriginExtended  OriginKind = "extended"
	OriginPrepended OriginKind = "prepended"
)

// Origin pairs an OriginKind with the declaring definition, when the
// method came from somewhere other than the receiver itself.
type Origin struct {
	Kind OriginKind
	From fqn.FQN // declaring method FQN; zero for OriginDirect
}

// Parameter is one formal parameter of a method definition.
type Parameter struct {
	Name string
	Kind string // "required", "optional", "rest", "keyword", "keyword_rest", "block"
}

// EntryKind is the tagged payload of an Entry. Exactly one of the four
// concrete kinds below is carried by any Entry.
type EntryKind interface {
	entryKind()
}

// ClassEntry is the payload of a class declaration. Superclass holds the
// textual operand (nil only for ::BasicObject itself; classes with no
// explicit superclass carry an implicit absolute ::Object ref). Mixin
// operands are kept in declaration order.
type ClassEntry struct {
	Superclass *fqn.MixinRef
	Includes   []fqn.MixinRef
	Extends    []fqn.MixinRef
	Prepends   []fqn.MixinRef
}

// ModuleEntry is the payload of a module declaration.
type ModuleEntry struct {
	Includes []fqn.MixinRef
	Extends  []fqn.MixinRef
	Prepends []fqn.MixinRef
}

// MethodEntry is the payload of a method definition. Dynamic marks
// best-effort entries recovered from define_method and friends.
type MethodEntry struct {
	Kind       MethodKind
	Owner      fqn.FQN
	Visibility Visibility
	Parameters []Parameter
	Dynamic    bool
}

// ConstantEntry is the payload of a constant assignment. Value is the
// source text of the right-hand side when statically recoverable.
type ConstantEntry struct {
	Value      string
	Visibility Visibility
}

func (ClassEntry) entryKind()    {}
func (ModuleEntry) entryKind()   {}
func (MethodEntry) entryKind()   {}
func (ConstantEntry) entryKind() {}

// Entry is one recorded definition. A file owns every Entry it declared;
// multiple entries may share an FQN (reopened classes, redefinitions) and
// the index keeps all of them in discovery order.
type Entry struct {
	FQN      fqn.FQN
	Location Location
	Kind     EntryKind
	Metadata map[string]string
}

// mixins returns the entry's mixin operand lists for namespace entries,
// nil otherwise.
func (e *Entry) mixins() (includes, extends, prepends []fqn.MixinRef) {
	switch k := e.Kind.(type) {
	case ClassEntry:
		return k.Includes, k.Extends, k.Prepends
	case ModuleEntry:
		return k.Includes, k.Extends, k.Prepends
	}
	return nil, nil, nil
}

// isNamespace reports whether the entry declares a class or module.
func (e *Entry) isNamespace() bool {
	switch e.Kind.(type) {
	case ClassEntry, ModuleEntry:
		return true
	}
	return false
}

// RawReference is an unresolved reference collected during file indexing:
// either a constant path (Const non-nil) or a bare method name.
type RawReference struct {
	Const      *fqn.MixinRef
	MethodName string
	Scope      fqn.FQN // lexical namespace the reference appeared in
	Location   Location
}

// ReceiverKind describes the receiver of a method lookup.
type ReceiverKind int

const (
	// ReceiverNone is an implicit self call resolved lexically.
	ReceiverNone ReceiverKind = iota
	// ReceiverInstance looks up instance methods of the receiver type.
	ReceiverInstance
	// ReceiverClass looks up class (singleton) methods of the receiver.
	ReceiverClass
)

// Receiver pairs a ReceiverKind with the receiver namespace, when present.
type Receiver struct {
	Kind ReceiverKind
	FQN  fqn.FQN
}

// NoReceiver is the implicit-self receiver.
var NoReceiver = Receiver{Kind: ReceiverNone}

// InstanceOf builds an instance receiver.
func InstanceOf(f fqn.FQN) Receiver { return Receiver{Kind: ReceiverInstance, FQN: f} }

// ClassOf builds a class receiver.
func ClassOf(f fqn.FQN) Receiver { return Receiver{Kind: ReceiverClass, FQN: f} }

// MethodResolution is one answer from FindMethod: the method FQN
// synthesized on the receiver, the declaring entry, and how it got there.
type MethodResolution struct {
	FQN        fqn.FQN
	Entry      *Entry
	Origin     Origin
	Visibility Visibility
}
