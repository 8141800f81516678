package index

import "rubyscope/internal/fqn"

// resolveMixinRefLocked resolves a textual constant-path operand against
// the definitions map using Ruby's lexical constant lookup: the declaring
// namespace first, then each enclosing namespace obtained by stripping one
// trailing path segment, ending at the top level. A module nested in the
// declaring namespace therefore shadows a same-named top-level module.
//
// Absolute operands ("::Foo") resolve only against the top level.
// Returns false when no candidate is defined: an unresolved reference,
// handled gracefully downstream.
//
// Callers must hold at least the read lock.
func (ix *Index) resolveMixinRefLocked(ref fqn.MixinRef, declaring fqn.FQN) (fqn.FQN, bool) {
	if len(ref.Parts) == 0 {
		return fqn.FQN{}, false
	}
	if ref.Absolute {
		target := ref.Under(fqn.Root)
		if ix.hasNamespaceLocked(target) {
			return target, true
		}
		return fqn.FQN{}, false
	}

	scope := declaring.Namespace()
	for {
		target := ref.Under(scope)
		if ix.hasNamespaceLocked(target) {
			return target, true
		}
		if scope.IsRoot() {
			return fqn.FQN{}, false
		}
		scope = scope.EnclosingNamespace()
	}
}

// hasNamespaceLocked reports whether f has at least one class or module
// entry. A constant of the same name does not satisfy a mixin operand.
func (ix *Index) hasNamespaceLocked(f fqn.FQN) bool {
	for _, e := range ix.definitions[f] {
		if e.isNamespace() {
			return true
		}
	}
	return false
}

// ResolveMixinRef is the exported, read-locked form of the scoped lookup,
// for callers outside the index's own commit path.
func (ix *Index) ResolveMixinRef(ref fqn.MixinRef, declaring fqn.FQN) (fqn.FQN, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.resolveMixinRefLocked(ref, declaring)
}
