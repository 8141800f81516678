package index

import (
	"sync"

	"rubyscope/internal/fqn"
)

// chainLink is one ancestor plus the edge kind that introduced it during
// the traversal. The public chain is the flattened FQN sequence; the link
// kinds feed origin classification in the resolver.
type chainLink struct {
	FQN fqn.FQN
	Via OriginKind
}

// AncestorChain returns the ordered, duplicate-free method resolution
// order starting at f, reproducing Ruby's runtime order: extended modules
// (class-method chains only, at the entry point), prepended modules
// nearest-last-prepended first, the namespace itself, included modules
// nearest-last-included first, then the superclass chain. Cycles are
// truncated at the first repeated namespace; unresolved mixin operands are
// skipped silently. An undefined namespace yields an empty chain.
func (ix *Index) AncestorChain(f fqn.FQN, forClassMethods bool) []fqn.FQN {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	links := ix.chainLinksLocked(f.Namespace(), forClassMethods)
	out := make([]fqn.FQN, len(links))
	for i, l := range links {
		out[i] = l.FQN
	}
	return out
}

// chainLinksLocked computes or retrieves the cached chain for f.
// Cache mutation is safe under the index read lock: invalidation only
// happens under the write lock, so it can never interleave with a
// computation, and the cache's own mutex serializes concurrent readers.
func (ix *Index) chainLinksLocked(f fqn.FQN, forClassMethods bool) []chainLink {
	key := chainKey{f: f, class: forClassMethods}
	if links, ok := ix.chains.get(key); ok {
		return links
	}

	b := &chainBuilder{ix: ix, visited: map[fqn.FQN]struct{}{}}
	if ix.hasNamespaceLocked(f) {
		b.visit(f, forClassMethods, true, OriginDirect)
	}
	ix.chains.put(key, b.links, b.visited)
	return b.links
}

// chainBuilder performs the depth-first traversal with a visited set
// seeded empty per call. Entering a namespace already in visited returns
// immediately: self-referential or mutually-referential mixin graphs
// contribute nothing beyond the first visit.
type chainBuilder struct {
	ix      *Index
	visited map[fqn.FQN]struct{}
	links   []chainLink
}

func (b *chainBuilder) visit(f fqn.FQN, forClassMethods, outermost bool, via OriginKind) {
	if _, seen := b.visited[f]; seen {
		return
	}
	b.visited[f] = struct{}{}

	isClass, superclass, includes, extends, prepends := b.ix.mergedNamespaceLocked(f)

	// extend participates only at the entry point of a class-method
	// chain; it is not reinjected at every recursive level.
	if forClassMethods && outermost {
		for i := len(extends) - 1; i >= 0; i-- {
			if target, ok := b.ix.resolveMixinRefLocked(extends[i], f); ok {
				b.visit(target, false, false, OriginExtended)
			}
		}
	}

	for i := len(prepends) - 1; i >= 0; i-- {
		if target, ok := b.ix.resolveMixinRefLocked(prepends[i], f); ok {
			b.visit(target, false, false, OriginPrepended)
		}
	}

	b.links = append(b.links, chainLink{FQN: f, Via: via})

	for i := len(includes) - 1; i >= 0; i-- {
		if target, ok := b.ix.resolveMixinRefLocked(includes[i], f); ok {
			b.visit(target, false, false, OriginIncluded)
		}
	}

	if isClass && superclass != nil {
		if target, ok := b.ix.resolveMixinRefLocked(*superclass, f); ok {
			b.visit(target, false, false, OriginInherited)
		}
	}
}

// mergedNamespaceLocked merges the declaration data of every entry sharing
// f (reopened classes and modules): mixin operand lists concatenate in
// discovery order, and the first declared superclass wins.
func (ix *Index) mergedNamespaceLocked(f fqn.FQN) (isClass bool, superclass *fqn.MixinRef, includes, extends, prepends []fqn.MixinRef) {
	for _, e := range ix.definitions[f] {
		switch k := e.Kind.(type) {
		case ClassEntry:
			isClass = true
			if superclass == nil {
				superclass = k.Superclass
			}
			includes = append(includes, k.Includes...)
			extends = append(extends, k.Extends...)
			prepends = append(prepends, k.Prepends...)
		case ModuleEntry:
			includes = append(includes, k.Includes...)
			extends = append(extends, k.Extends...)
			prepends = append(prepends, k.Prepends...)
		}
	}
	return isClass, superclass, includes, extends, prepends
}

// chainKey identifies a cached chain: (fqn, for_class_methods).
type chainKey struct {
	f     fqn.FQN
	class bool
}

type cachedChain struct {
	links   []chainLink
	visited map[fqn.FQN]struct{}
}

// chainCache memoizes computed chains. Entries record every namespace the
// traversal visited so invalidation can drop exactly the chains a
// re-indexed file can affect. When a re-index introduces definitions for
// a previously undefined FQN the whole cache is cleared: forward
// references that failed to resolve in a cached chain may now resolve.
type chainCache struct {
	mu      sync.Mutex
	entries map[chainKey]cachedChain
}

func newChainCache() *chainCache {
	return &chainCache{entries: map[chainKey]cachedChain{}}
}

func (c *chainCache) get(key chainKey) ([]chainLink, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	return entry.links, ok
}

func (c *chainCache) put(key chainKey, links []chainLink, visited map[fqn.FQN]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedChain{links: links, visited: visited}
}

// invalidate is called under the index write lock after a file swap.
func (c *chainCache) invalidate(affected map[fqn.FQN]struct{}, clearAll bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if clearAll {
		c.entries = map[chainKey]cachedChain{}
		return
	}
	for key, entry := range c.entries {
		for f := range affected {
			if _, hit := entry.visited[f]; hit {
				delete(c.entries, key)
				break
			}
		}
	}
}
