package index

import (
	"sync"

	"rubyscope/internal/fqn"
)

// mixinEdge is one reverse-mixin edge: Source mixes the map key in, and
// the edge is owned by the file whose entry declared it, so re-indexing
// that file drops exactly its edges.
type mixinEdge struct {
	Source fqn.FQN
	Kind   MixinKind
	File   string
}

// Index is the process-wide Ruby symbol index. One writer (the editing
// session) applies file-scoped deltas; any number of readers query
// concurrently. Every map is guarded by mu; no method performs I/O while
// holding it. A reader never observes a mid-swap state: ApplyFile removes
// and re-inserts a file's entries under one write lock.
type Index struct {
	mu sync.RWMutex

	fileEntries   map[string][]*Entry
	fileRefs      map[string][]RawReference
	definitions   map[fqn.FQN][]*Entry
	methodsByName map[string][]*Entry

	// references holds resolved constant references; methodRefs holds
	// call sites keyed by bare method name (best-effort, name-based).
	references map[fqn.FQN][]Location
	methodRefs map[string][]Location

	reverseMixins map[fqn.FQN][]mixinEdge

	chains *chainCache
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		fileEntries:   map[string][]*Entry{},
		fileRefs:      map[string][]RawReference{},
		definitions:   map[fqn.FQN][]*Entry{},
		methodsByName: map[string][]*Entry{},
		references:    map[fqn.FQN][]Location{},
		methodRefs:    map[string][]Location{},
		reverseMixins: map[fqn.FQN][]mixinEdge{},
		chains:        newChainCache(),
	}
}

// IndexFile replays a file's event stream and commits the result,
// replacing whatever the file previously contributed.
func (ix *Index) IndexFile(file string, events []Event) FileResult {
	// Entry construction happens before the lock is taken; only the
	// commit of the finished delta is serialized.
	res := BuildEntries(file, events)
	ix.Apply(res)
	return res
}

// Apply atomically replaces a file's contribution with the given result.
func (ix *Index) Apply(res FileResult) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	// A definition for a previously unknown FQN may heal forward
	// references in any cached chain, so check against pre-removal state.
	newNames := false
	for _, e := range res.Entries {
		if len(ix.definitions[e.FQN]) == 0 {
			newNames = true
			break
		}
	}

	affected := ix.removeFileLocked(res.File)

	for _, e := range res.Entries {
		ix.fileEntries[res.File] = append(ix.fileEntries[res.File], e)
		ix.definitions[e.FQN] = append(ix.definitions[e.FQN], e)
		if _, ok := e.Kind.(MethodEntry); ok {
			ix.methodsByName[e.FQN.Name] = append(ix.methodsByName[e.FQN.Name], e)
		}
		affected[e.FQN.Namespace()] = struct{}{}
	}

	// Recompute this file's mixin edges and references from the freshly
	// inserted entries. Resolution failures are silent: forward references
	// resolve on a later re-index or at chain-build time.
	for _, e := range ix.fileEntries[res.File] {
		includes, extends, prepends := e.mixins()
		ix.addMixinEdgesLocked(e, Include, includes)
		ix.addMixinEdgesLocked(e, Extend, extends)
		ix.addMixinEdgesLocked(e, Prepend, prepends)
	}
	for _, ref := range res.Refs {
		ix.fileRefs[res.File] = append(ix.fileRefs[res.File], ref)
		if ref.Const != nil {
			if target, ok := ix.resolveMixinRefLocked(*ref.Const, ref.Scope); ok {
				ix.references[target] = append(ix.references[target], ref.Location)
			}
			continue
		}
		if ref.MethodName != "" {
			ix.methodRefs[ref.MethodName] = append(ix.methodRefs[ref.MethodName], ref.Location)
		}
	}

	ix.chains.invalidate(affected, newNames)
}

// Reresolve rebuilds the reverse-mixin and constant-reference maps from
// every file's raw declarations. Apply resolves operands against the
// definitions known at commit time, so a batch indexed in an arbitrary
// order can miss edges whose targets arrive in later files; callers run
// Reresolve once after a bulk index to pick those up.
func (ix *Index) Reresolve() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.reverseMixins = map[fqn.FQN][]mixinEdge{}
	ix.references = map[fqn.FQN][]Location{}

	for _, entries := range ix.fileEntries {
		for _, e := range entries {
			includes, extends, prepends := e.mixins()
			ix.addMixinEdgesLocked(e, Include, includes)
			ix.addMixinEdgesLocked(e, Extend, extends)
			ix.addMixinEdgesLocked(e, Prepend, prepends)
		}
	}
	for _, refs := range ix.fileRefs {
		for _, ref := range refs {
			if ref.Const == nil {
				continue
			}
			if target, ok := ix.resolveMixinRefLocked(*ref.Const, ref.Scope); ok {
				ix.references[target] = append(ix.references[target], ref.Location)
			}
		}
	}
}

// RemoveFile drops everything a file contributed.
func (ix *Index) RemoveFile(file string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	affected := ix.removeFileLocked(file)
	ix.chains.invalidate(affected, false)
}

// removeFileLocked strips a file's entries, references and mixin edges
// from every map and returns the namespaces the removal touched.
func (ix *Index) removeFileLocked(file string) map[fqn.FQN]struct{} {
	affected := map[fqn.FQN]struct{}{}

	for _, e := range ix.fileEntries[file] {
		ix.definitions[e.FQN] = dropEntriesFromFile(ix.definitions[e.FQN], file)
		if len(ix.definitions[e.FQN]) == 0 {
			delete(ix.definitions, e.FQN)
		}
		if _, ok := e.Kind.(MethodEntry); ok {
			ix.methodsByName[e.FQN.Name] = dropEntriesFromFile(ix.methodsByName[e.FQN.Name], file)
			if len(ix.methodsByName[e.FQN.Name]) == 0 {
				delete(ix.methodsByName, e.FQN.Name)
			}
		}
		affected[e.FQN.Namespace()] = struct{}{}
	}
	delete(ix.fileEntries, file)

	for target, edges := range ix.reverseMixins {
		kept := edges[:0]
		for _, edge := range edges {
			if edge.File != file {
				kept = append(kept, edge)
			}
		}
		if len(kept) == 0 {
			delete(ix.reverseMixins, target)
		} else {
			ix.reverseMixins[target] = kept
		}
	}

	for target, locs := range ix.references {
		ix.references[target] = dropLocationsFromFile(locs, file)
		if len(ix.references[target]) == 0 {
			delete(ix.references, target)
		}
	}
	for name, locs := range ix.methodRefs {
		ix.methodRefs[name] = dropLocationsFromFile(locs, file)
		if len(ix.methodRefs[name]) == 0 {
			delete(ix.methodRefs, name)
		}
	}
	delete(ix.fileRefs, file)

	return affected
}

// addMixinEdgesLocked resolves each operand and records a reverse edge on
// success. Unresolved operands are no-ops, never errors.
func (ix *Index) addMixinEdgesLocked(e *Entry, kind MixinKind, refs []fqn.MixinRef) {
	for _, ref := range refs {
		target, ok := ix.resolveMixinRefLocked(ref, e.FQN)
		if !ok {
			continue
		}
		ix.reverseMixins[target] = append(ix.reverseMixins[target], mixinEdge{
			Source: e.FQN,
			Kind:   kind,
			File:   e.Location.File,
		})
	}
}

// DefinitionsOf returns every entry recorded for f, in discovery order.
// Multiple entries per FQN are not an error; which one "wins" is the
// caller's policy.
func (ix *Index) DefinitionsOf(f fqn.FQN) []*Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]*Entry(nil), ix.definitions[f]...)
}

// ReferencesOf returns recorded reference locations for f. Method FQNs
// fall back to the name-keyed call-site map.
func (ix *Index) ReferencesOf(f fqn.FQN) []Location {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if f.Kind == fqn.KindInstanceMethod || f.Kind == fqn.KindClassMethod {
		return append([]Location(nil), ix.methodRefs[f.Name]...)
	}
	return append([]Location(nil), ix.references[f]...)
}

// MethodsNamed returns every method entry with the given short name,
// across all namespaces. Used for completion and workspace-symbol style
// queries.
func (ix *Index) MethodsNamed(name string) []*Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]*Entry(nil), ix.methodsByName[name]...)
}

// ReverseMixinsOf returns every namespace that directly declares an
// include/extend/prepend resolving to f. Transitive mixins surface via
// their own edges, not here.
func (ix *Index) ReverseMixinsOf(f fqn.FQN) []fqn.FQN {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []fqn.FQN
	seen := map[fqn.FQN]struct{}{}
	for _, edge := range ix.reverseMixins[f] {
		if _, dup := seen[edge.Source]; dup {
			continue
		}
		seen[edge.Source] = struct{}{}
		out = append(out, edge.Source)
	}
	return out
}

// Files returns the indexed file paths in no particular order.
func (ix *Index) Files() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.fileEntries))
	for f := range ix.fileEntries {
		out = append(out, f)
	}
	return out
}

// Stats summarizes index contents for status output.
type Stats struct {
	Files       int
	Entries     int
	Definitions int
	MixinEdges  int
}

// Stats returns current index counters.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	st := Stats{Files: len(ix.fileEntries), Definitions: len(ix.definitions)}
	for _, es := range ix.fileEntries {
		st.Entries += len(es)
	}
	for _, edges := range ix.reverseMixins {
		st.MixinEdges += len(edges)
	}
	return st
}

func dropEntriesFromFile(entries []*Entry, file string) []*Entry {
	kept := entries[:0]
	for _, e := range entries {
		if e.Location.File != file {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func dropLocationsFromFile(locs []Location, file string) []Location {
	kept := locs[:0]
	for _, l := range locs {
		if l.File != file {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// Snapshot is a point-in-time copy of the committed index, taken under
// the read lock. Entries are shared pointers; callers must not mutate
// them.
type Snapshot struct {
	Files        map[string][]*Entry
	ConstantRefs map[fqn.FQN][]Location
	MethodRefs   map[string][]Location
}

// TakeSnapshot copies the committed state for export.
func (ix *Index) TakeSnapshot() Snapshot {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	snap := Snapshot{
		Files:        make(map[string][]*Entry, len(ix.fileEntries)),
		ConstantRefs: make(map[fqn.FQN][]Location, len(ix.references)),
		MethodRefs:   make(map[string][]Location, len(ix.methodRefs)),
	}
	for file, entries := range ix.fileEntries {
		snap.Files[file] = append([]*Entry(nil), entries...)
	}
	for f, locs := range ix.references {
		snap.ConstantRefs[f] = append([]Location(nil), locs...)
	}
	for name, locs := range ix.methodRefs {
		snap.MethodRefs[name] = append([]Location(nil), locs...)
	}
	return snap
}
