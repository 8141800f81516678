// Package fqn defines the validated identifier and fully-qualified-name
// model for Ruby declarations. FQNs are comparable value types so they can
// key maps directly; identical textual FQNs from different files compare
// equal.
package fqn

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidIdentifier reports a raw name that does not satisfy Ruby's
// lexical rules for its identifier class. Callers skip the offending
// declaration and continue.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Separator joins namespace path segments in textual form.
const Separator = "::"

// Namespace is a single validated class or module name: leading uppercase,
// no path separator.
type Namespace string

// Method is a validated method name: leading lowercase letter or
// underscore, with an optional trailing ?, ! or =.
type Method string

// Constant is a validated constant name: leading uppercase.
type Constant string

// NewNamespace validates raw as a class/module name.
func NewNamespace(raw string) (Namespace, error) {
	if raw == "" || strings.Contains(raw, Separator) {
		return "", fmt.Errorf("namespace %q: %w", raw, ErrInvalidIdentifier)
	}
	if !leadingUpper(raw) || !identifierBody(raw[1:]) {
		return "", fmt.Errorf("namespace %q: %w", raw, ErrInvalidIdentifier)
	}
	return Namespace(raw), nil
}

// NewMethod validates raw as a method name.
func NewMethod(raw string) (Method, error) {
	if raw == "" {
		return "", fmt.Errorf("method %q: %w", raw, ErrInvalidIdentifier)
	}
	first := rune(raw[0])
	if !unicode.IsLower(first) && first != '_' {
		return "", fmt.Errorf("method %q: %w", raw, ErrInvalidIdentifier)
	}
	body := raw[1:]
	// ?, ! and = are legal only as the final rune.
	if n := len(body); n > 0 && strings.ContainsAny(body[n-1:], "?!=") {
		body = body[:n-1]
	}
	if !identifierBody(body) {
		return "", fmt.Errorf("method %q: %w", raw, ErrInvalidIdentifier)
	}
	return Method(raw), nil
}

// NewConstant validates raw as a constant name.
func NewConstant(raw string) (Constant, error) {
	if raw == "" || strings.Contains(raw, Separator) {
		return "", fmt.Errorf("constant %q: %w", raw, ErrInvalidIdentifier)
	}
	if !leadingUpper(raw) || !identifierBody(raw[1:]) {
		return "", fmt.Errorf("constant %q: %w", raw, ErrInvalidIdentifier)
	}
	return Constant(raw), nil
}

func leadingUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

// identifierBody accepts letters, digits and underscores.
func identifierBody(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// Kind tags the FQN variants.
type Kind int

const (
	KindNamespace Kind = iota
	KindInstanceMethod
	KindClassMethod
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindInstanceMethod:
		return "instance_method"
	case KindClassMethod:
		return "class_method"
	case KindConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// FQN is a structured, unique identifier for a Ruby definition. Path holds
// the "::"-joined namespace path; Name holds the local method or constant
// name (empty for KindNamespace). FQN is comparable, so equality and map
// keying are structural.
type FQN struct {
	Kind Kind
	Path string
	Name string
}

// Root is the empty top-level namespace.
var Root = FQN{Kind: KindNamespace}

// NamespaceFQN builds a namespace FQN from validated path segments.
func NamespaceFQN(parts ...Namespace) FQN {
	return FQN{Kind: KindNamespace, Path: joinParts(parts)}
}

// InstanceMethodFQN builds the FQN of an instance method on path.
func InstanceMethodFQN(path string, name Method) FQN {
	return FQN{Kind: KindInstanceMethod, Path: path, Name: string(name)}
}

// ClassMethodFQN builds the FQN of a class (singleton) method on path.
func ClassMethodFQN(path string, name Method) FQN {
	return FQN{Kind: KindClassMethod, Path: path, Name: string(name)}
}

// ConstantFQN builds the FQN of a constant defined under path.
func ConstantFQN(path string, name Constant) FQN {
	return FQN{Kind: KindConstant, Path: path, Name: string(name)}
}

func joinParts(parts []Namespace) string {
	ss := make([]string, len(parts))
	for i, p := range parts {
		ss[i] = string(p)
	}
	return strings.Join(ss, Separator)
}

// IsRoot reports whether f is the top-level namespace.
func (f FQN) IsRoot() bool {
	return f.Kind == KindNamespace && f.Path == ""
}

// Parts returns the namespace path segments, nil for the top level.
func (f FQN) Parts() []string {
	if f.Path == "" {
		return nil
	}
	return strings.Split(f.Path, Separator)
}

// EnclosingNamespace strips one trailing path segment, mirroring Ruby's
// outward lexical scope walk. The top-level namespace encloses itself.
func (f FQN) EnclosingNamespace() FQN {
	parts := f.Parts()
	if len(parts) == 0 {
		return Root
	}
	return FQN{Kind: KindNamespace, Path: strings.Join(parts[:len(parts)-1], Separator)}
}

// Namespace returns the namespace FQN that owns f: for methods and
// constants the owner path, for namespaces f itself.
func (f FQN) Namespace() FQN {
	return FQN{Kind: KindNamespace, Path: f.Path}
}

// Child returns the namespace FQN for a nested segment under f.
func (f FQN) Child(name string) FQN {
	if f.Path == "" {
		return FQN{Kind: KindNamespace, Path: name}
	}
	return FQN{Kind: KindNamespace, Path: f.Path + Separator + name}
}

// String renders the Ruby-conventional textual form: "A::B" for
// namespaces and constants, "A::B#m" for instance methods, "A::B.m" for
// class methods. Top-level methods render as "#m" / ".m".
func (f FQN) String() string {
	switch f.Kind {
	case KindInstanceMethod:
		return f.Path + "#" + f.Name
	case KindClassMethod:
		return f.Path + "." + f.Name
	case KindConstant:
		if f.Path == "" {
			return f.Name
		}
		return f.Path + Separator + f.Name
	default:
		return f.Path
	}
}

// MixinRef is an unresolved include/extend/prepend or superclass operand:
// the raw constant path with its absolute-vs-relative form preserved, so
// scoped lookup can distinguish "::Inner" from "Inner".
type MixinRef struct {
	Parts    []Constant
	Absolute bool
}

// ParseConstantPath parses a textual constant path such as "A::B" or
// "::A::B" into a MixinRef, validating each segment.
func ParseConstantPath(raw string) (MixinRef, error) {
	ref := MixinRef{}
	if strings.HasPrefix(raw, Separator) {
		ref.Absolute = true
		raw = strings.TrimPrefix(raw, Separator)
	}
	if raw == "" {
		return MixinRef{}, fmt.Errorf("constant path %q: %w", raw, ErrInvalidIdentifier)
	}
	for _, seg := range strings.Split(raw, Separator) {
		c, err := NewConstant(seg)
		if err != nil {
			return MixinRef{}, err
		}
		ref.Parts = append(ref.Parts, c)
	}
	return ref, nil
}

// String renders the ref in source form.
func (r MixinRef) String() string {
	ss := make([]string, len(r.Parts))
	for i, p := range r.Parts {
		ss[i] = string(p)
	}
	s := strings.Join(ss, Separator)
	if r.Absolute {
		return Separator + s
	}
	return s
}

// JoinedPath returns the ref's parts joined without a leading separator.
func (r MixinRef) JoinedPath() string {
	ss := make([]string, len(r.Parts))
	for i, p := range r.Parts {
		ss[i] = string(p)
	}
	return strings.Join(ss, Separator)
}

// Under returns the namespace FQN formed by appending the ref's parts to
// the candidate scope.
func (r MixinRef) Under(scope FQN) FQN {
	out := scope.Namespace()
	for _, p := range r.Parts {
		out = out.Child(string(p))
	}
	return out
}

// Parse is the inverse of String: it accepts "A::B" (namespace or
// constant), "A::B#m" (instance method) and "A::B.m" (class method).
// A bare "A::B" parses as a namespace; callers that also want constant
// definitions should retry with ConstantFQN on the same segments.
func Parse(raw string) (FQN, error) {
	if i := strings.Index(raw, "#"); i >= 0 {
		m, err := NewMethod(raw[i+1:])
		if err != nil {
			return FQN{}, err
		}
		path, err := parsePath(raw[:i])
		if err != nil {
			return FQN{}, err
		}
		return InstanceMethodFQN(path, m), nil
	}
	if i := strings.LastIndex(raw, "."); i >= 0 {
		m, err := NewMethod(raw[i+1:])
		if err != nil {
			return FQN{}, err
		}
		path, err := parsePath(raw[:i])
		if err != nil {
			return FQN{}, err
		}
		return ClassMethodFQN(path, m), nil
	}
	path, err := parsePath(raw)
	if err != nil {
		return FQN{}, err
	}
	return FQN{Kind: KindNamespace, Path: path}, nil
}

func parsePath(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	parts := strings.Split(raw, Separator)
	for _, p := range parts {
		if _, err := NewConstant(p); err != nil {
			return "", err
		}
	}
	return strings.Join(parts, Separator), nil
}
