package rubyscope

import (
	"fmt"

	"rubyscope/internal/fqn"
	"rubyscope/internal/index"
)

// QueryBuilder provides the read API over a committed index. All methods
// take consistent point-in-time views; concurrent indexing never yields
// partial answers.
type QueryBuilder struct {
	idx *index.Index
}

// Definitions finds every definition of a symbol named in display form:
// "A::B" for classes, modules and constants, "A::B#m" for instance
// methods, "A::B.m" for class methods. A reopened class yields one entry
// per declaration site.
func (q *QueryBuilder) Definitions(name string) ([]*Entry, error) {
	f, err := fqn.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("definitions: %w", err)
	}
	entries := q.idx.DefinitionsOf(f)
	if len(entries) == 0 && f.Kind == fqn.KindNamespace && !f.IsRoot() {
		// "A::B" also names the constant B under A.
		parts := f.Parts()
		entries = q.idx.DefinitionsOf(fqn.FQN{
			Kind: fqn.KindConstant,
			Path: f.EnclosingNamespace().Path,
			Name: parts[len(parts)-1],
		})
	}
	return entries, nil
}

// References finds the recorded reference locations of a symbol named in
// display form. Method references are matched by name across receivers.
func (q *QueryBuilder) References(name string) ([]Location, error) {
	f, err := fqn.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}
	return q.idx.ReferencesOf(f), nil
}

// Ancestors returns the linearized ancestor chain of a class or module.
// With classMethods true the chain is the singleton-side one, where
// extends contribute. An undefined namespace yields an empty chain.
func (q *QueryBuilder) Ancestors(name string, classMethods bool) ([]fqn.FQN, error) {
	f, err := fqn.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("ancestors: %w", err)
	}
	if f.Kind != fqn.KindNamespace {
		return nil, fmt.Errorf("ancestors: %q is not a class or module", name)
	}
	return q.idx.AncestorChain(f, classMethods), nil
}

// FindMethod resolves a method call. receiver is the display-form
// namespace the call is sent to; empty means an implicit self call
// resolved lexically from within scope (also display form, empty for top
// level). classMethod selects the singleton side of the receiver.
func (q *QueryBuilder) FindMethod(method, receiver, scope string, classMethod bool) ([]MethodResolution, error) {
	recv := index.NoReceiver
	if receiver != "" {
		rf, err := fqn.Parse(receiver)
		if err != nil {
			return nil, fmt.Errorf("find method: receiver: %w", err)
		}
		if rf.Kind != fqn.KindNamespace {
			return nil, fmt.Errorf("find method: receiver %q is not a class or module", receiver)
		}
		if classMethod {
			recv = index.ClassOf(rf)
		} else {
			recv = index.InstanceOf(rf)
		}
	}

	current := fqn.Root
	if scope != "" {
		sf, err := fqn.Parse(scope)
		if err != nil {
			return nil, fmt.Errorf("find method: scope: %w", err)
		}
		current = sf
	}

	return q.idx.FindMethod(method, recv, current), nil
}

// ResolveConstant resolves a constant path ("Inner", "A::B", "::Top") as
// seen from within scope, following Ruby's lexical-then-ancestor lookup.
func (q *QueryBuilder) ResolveConstant(path, scope string) (fqn.FQN, []*Entry, bool, error) {
	current := fqn.Root
	if scope != "" {
		sf, err := fqn.Parse(scope)
		if err != nil {
			return fqn.FQN{}, nil, false, fmt.Errorf("resolve constant: scope: %w", err)
		}
		current = sf
	}
	target, entries, ok := q.idx.ResolveConstant(path, current)
	return target, entries, ok, nil
}

// ReverseMixins lists the namespaces that include, extend or prepend the
// named module.
func (q *QueryBuilder) ReverseMixins(name string) ([]fqn.FQN, error) {
	f, err := fqn.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("reverse mixins: %w", err)
	}
	return q.idx.ReverseMixinsOf(f), nil
}

// MethodsNamed lists every method entry with the given bare name,
// regardless of owner. Used for name-keyed call site navigation.
func (q *QueryBuilder) MethodsNamed(name string) []*Entry {
	return q.idx.MethodsNamed(name)
}
