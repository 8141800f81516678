package index

import "rubyscope/internal/fqn"

// FindMethod answers "first visible definition of name from this
// receiver". The receiver's ancestor chain is walked in MRO order and the
// first ancestor defining the name wins; every entry sharing that FQN is
// returned in discovery order (redefinitions are the caller's policy).
// The returned FQN is synthesized on the receiver; Origin points at the
// declaring definition when it lives elsewhere in the chain.
//
// With no receiver, resolution walks outward through current's lexical
// enclosing scopes first, then falls back to the ancestor chain of the
// innermost enclosing class or module.
func (ix *Index) FindMethod(name string, receiver Receiver, current fqn.FQN) []MethodResolution {
	method, err := fqn.NewMethod(name)
	if err != nil {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	switch receiver.Kind {
	case ReceiverInstance:
		return ix.findInChainLocked(method, receiver.FQN.Namespace(), false)
	case ReceiverClass:
		return ix.findInChainLocked(method, receiver.FQN.Namespace(), true)
	default:
		scope := current.Namespace()
		for {
			if res := ix.directMethodLocked(method, scope); res != nil {
				return res
			}
			if scope.IsRoot() {
				break
			}
			scope = scope.EnclosingNamespace()
		}
		return ix.findInChainLocked(method, current.Namespace(), false)
	}
}

// findInChainLocked walks the receiver's ancestor chain and returns the
// first ancestor's matching entries.
func (ix *Index) findInChainLocked(method fqn.Method, receiver fqn.FQN, forClass bool) []MethodResolution {
	for _, link := range ix.chainLinksLocked(receiver, forClass) {
		entries, declared := ix.methodEntriesLocked(method, link, forClass)
		if len(entries) == 0 {
			continue
		}

		synth := fqn.InstanceMethodFQN(receiver.Path, method)
		if forClass {
			synth = fqn.ClassMethodFQN(receiver.Path, method)
		}

		out := make([]MethodResolution, 0, len(entries))
		for _, e := range entries {
			res := MethodResolution{FQN: synth, Entry: e, Visibility: Public}
			if mk, ok := e.Kind.(MethodEntry); ok {
				res.Visibility = mk.Visibility
				// module_function methods surface as private instance
				// methods on every includer.
				if mk.Kind == ModuleFunction && !forClass && link.Via != OriginDirect {
					res.Visibility = Private
				}
			}
			if link.Via != OriginDirect || link.FQN != receiver {
				res.Origin = Origin{Kind: link.Via, From: declared}
			} else {
				res.Origin = Origin{Kind: OriginDirect}
			}
			out = append(out, res)
		}
		return out
	}
	return nil
}

// methodEntriesLocked returns the method entries an ancestor contributes
// for the requested context, plus the declaring FQN they were found under.
//
// In a class-method context an ancestor matches via its class-method
// definitions first; failing that, its instance methods count when the
// ancestor entered the chain through extend (extend lifts a module's
// instance methods onto the receiver's singleton) or when the method was
// declared with module_function.
func (ix *Index) methodEntriesLocked(method fqn.Method, link chainLink, forClass bool) ([]*Entry, fqn.FQN) {
	if !forClass {
		f := fqn.InstanceMethodFQN(link.FQN.Path, method)
		return ix.definitions[f], f
	}

	f := fqn.ClassMethodFQN(link.FQN.Path, method)
	if entries := ix.definitions[f]; len(entries) > 0 {
		return entries, f
	}

	inst := fqn.InstanceMethodFQN(link.FQN.Path, method)
	var matched []*Entry
	for _, e := range ix.definitions[inst] {
		mk, ok := e.Kind.(MethodEntry)
		if !ok {
			continue
		}
		if mk.Kind == ModuleFunction || link.Via == OriginExtended {
			matched = append(matched, e)
		}
	}
	return matched, inst
}

// directMethodLocked returns resolutions for methods declared directly in
// scope, used by the implicit-receiver lexical walk.
func (ix *Index) directMethodLocked(method fqn.Method, scope fqn.FQN) []MethodResolution {
	f := fqn.InstanceMethodFQN(scope.Path, method)
	entries := ix.definitions[f]
	if len(entries) == 0 {
		return nil
	}
	out := make([]MethodResolution, 0, len(entries))
	for _, e := range entries {
		res := MethodResolution{FQN: f, Entry: e, Origin: Origin{Kind: OriginDirect}, Visibility: Public}
		if mk, ok := e.Kind.(MethodEntry); ok {
			res.Visibility = mk.Visibility
		}
		out = append(out, res)
	}
	return out
}

// ResolveConstant resolves a textual constant path ("CONST", "A::B",
// "::A::B") from the given position: lexical enclosing scopes innermost
// first, then the ancestor chain of the innermost enclosing namespace —
// Ruby's constant lookup order. Both namespaces and plain constants
// satisfy the lookup. Returns the resolved FQN and its entries, or false.
func (ix *Index) ResolveConstant(raw string, current fqn.FQN) (fqn.FQN, []*Entry, bool) {
	ref, err := fqn.ParseConstantPath(raw)
	if err != nil {
		return fqn.FQN{}, nil, false
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ref.Absolute {
		if f, entries, ok := ix.constantAtLocked(ref, fqn.Root); ok {
			return f, entries, ok
		}
		return fqn.FQN{}, nil, false
	}

	scope := current.Namespace()
	for {
		if f, entries, ok := ix.constantAtLocked(ref, scope); ok {
			return f, entries, ok
		}
		if scope.IsRoot() {
			break
		}
		scope = scope.EnclosingNamespace()
	}

	// Single-segment lookups continue into the ancestor chain: constants
	// are inherited and mixed in like methods.
	if len(ref.Parts) == 1 {
		for _, link := range ix.chainLinksLocked(current.Namespace(), false) {
			if link.FQN == current.Namespace() {
				continue // already covered by the lexical walk
			}
			if f, entries, ok := ix.constantAtLocked(ref, link.FQN); ok {
				return f, entries, ok
			}
		}
	}
	return fqn.FQN{}, nil, false
}

// constantAtLocked tests a candidate scope for the referenced constant,
// first as a namespace, then as a plain constant entry.
func (ix *Index) constantAtLocked(ref fqn.MixinRef, scope fqn.FQN) (fqn.FQN, []*Entry, bool) {
	asNamespace := ref.Under(scope)
	if ix.hasNamespaceLocked(asNamespace) {
		return asNamespace, ix.definitions[asNamespace], true
	}

	parent := scope.Namespace()
	for _, p := range ref.Parts[:len(ref.Parts)-1] {
		parent = parent.Child(string(p))
	}
	asConstant := fqn.FQN{Kind: fqn.KindConstant, Path: parent.Path, Name: string(ref.Parts[len(ref.Parts)-1])}
	if entries := ix.definitions[asConstant]; len(entries) > 0 {
		return asConstant, entries, true
	}
	return fqn.FQN{}, nil, false
}
