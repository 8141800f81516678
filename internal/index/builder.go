package index

import (
	"rubyscope/internal/fqn"
)

// FileResult is the outcome of converting one file's event stream:
// the entries the file owns, the raw references it contains, and how many
// declarations were skipped for malformed identifiers.
type FileResult struct {
	File    string
	Entries []*Entry
	Refs    []RawReference
	Skipped int
}

// frame is one open namespace body during event replay.
type frame struct {
	f             fqn.FQN
	kind          NamespaceKind
	entry         *Entry // the declaration entry for this body, nil at top level
	visibility    Visibility
	moduleFn      bool
	skipped       bool // namespace head was malformed; suppress owned declarations
	methodsByName map[string][]*Entry // methods declared directly in this body
}

// BuildEntries replays a file's ordered event stream into entries and raw
// references. Malformed identifiers skip the declaration and indexing
// continues; the stream itself is trusted to be well nested (a spurious
// NamespaceClose at top level is ignored).
func BuildEntries(file string, events []Event) FileResult {
	res := FileResult{File: file}
	stack := []*frame{{f: fqn.Root, visibility: Public, methodsByName: map[string][]*Entry{}}}
	top := func() *frame { return stack[len(stack)-1] }

	for _, ev := range events {
		switch ev := ev.(type) {
		case NamespaceOpen:
			var (
				fr    *frame
				entry *Entry
				ok    bool
			)
			if !top().skipped {
				fr, entry, ok = openNamespace(top(), ev, file)
			}
			if !ok {
				res.Skipped++
				// Push a frame anyway so the matching close stays balanced;
				// declarations inside a skipped namespace are skipped too.
				stack = append(stack, &frame{f: top().f, visibility: Public, skipped: true, methodsByName: map[string][]*Entry{}})
				continue
			}
			res.Entries = append(res.Entries, entry)
			stack = append(stack, fr)

		case NamespaceClose:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case MethodDef:
			if top().skipped {
				continue
			}
			entry, ok := buildMethod(top(), ev, file)
			if !ok {
				res.Skipped++
				continue
			}
			res.Entries = append(res.Entries, entry)
			top().methodsByName[ev.Name] = append(top().methodsByName[ev.Name], entry)

		case ConstantAssign:
			if top().skipped {
				continue
			}
			name, err := fqn.NewConstant(ev.Name)
			if err != nil {
				res.Skipped++
				continue
			}
			res.Entries = append(res.Entries, &Entry{
				FQN:      fqn.ConstantFQN(top().f.Path, name),
				Location: withFile(ev.Location, file),
				Kind:     ConstantEntry{Value: ev.Value, Visibility: Public},
			})

		case MixinCall:
			applyMixin(top(), ev)
			// A mixin operand is also a reference to the mixed-in module.
			res.Refs = append(res.Refs, RawReference{
				Const:    refCopy(ev.Ref),
				Scope:    top().f,
				Location: withFile(ev.Location, file),
			})

		case VisibilitySet:
			if len(ev.Names) == 0 {
				top().visibility = ev.Visibility
				continue
			}
			for _, n := range ev.Names {
				for _, m := range top().methodsByName[n] {
					if mk, ok := m.Kind.(MethodEntry); ok {
						mk.Visibility = ev.Visibility
						m.Kind = mk
					}
				}
			}

		case ModuleFunctionCall:
			if len(ev.Names) == 0 {
				top().moduleFn = true
				continue
			}
			for _, n := range ev.Names {
				for _, m := range top().methodsByName[n] {
					if mk, ok := m.Kind.(MethodEntry); ok {
						mk.Kind = ModuleFunction
						m.Kind = mk
					}
				}
			}

		case AliasDef:
			if top().skipped {
				continue
			}
			entry, ok := buildAlias(top(), ev, file)
			if !ok {
				res.Skipped++
				continue
			}
			res.Entries = append(res.Entries, entry)
			top().methodsByName[ev.NewName] = append(top().methodsByName[ev.NewName], entry)

		case ConstantRef:
			res.Refs = append(res.Refs, RawReference{
				Const:    refCopy(ev.Ref),
				Scope:    top().f,
				Location: withFile(ev.Location, file),
			})

		case MethodRef:
			res.Refs = append(res.Refs, RawReference{
				MethodName: ev.Name,
				Scope:      top().f,
				Location:   withFile(ev.Location, file),
			})
		}
	}
	return res
}

// openNamespace validates the declared path and builds the frame and entry
// for a class/module body.
func openNamespace(parent *frame, ev NamespaceOpen, file string) (*frame, *Entry, bool) {
	for _, p := range ev.Ref.Parts {
		if _, err := fqn.NewNamespace(string(p)); err != nil {
			return nil, nil, false
		}
	}
	base := parent.f
	if ev.Ref.Absolute {
		base = fqn.Root
	}
	f := ev.Ref.Under(base)

	entry := &Entry{
		FQN:      f,
		Location: withFile(ev.Location, file),
	}
	switch ev.Kind {
	case ClassNamespace:
		ce := ClassEntry{Superclass: ev.Superclass}
		if ce.Superclass == nil && f.Path != "Object" && f.Path != "BasicObject" {
			// Implicit root-object parent; skipped silently when core
			// stubs are not indexed.
			obj, _ := fqn.NewConstant("Object")
			ce.Superclass = &fqn.MixinRef{Parts: []fqn.Constant{obj}, Absolute: true}
		}
		entry.Kind = ce
	default:
		entry.Kind = ModuleEntry{}
	}

	return &frame{
		f:             f,
		kind:          ev.Kind,
		entry:         entry,
		visibility:    Public,
		methodsByName: map[string][]*Entry{},
	}, entry, true
}

// buildMethod converts a MethodDef into a method entry owned by the
// current namespace.
func buildMethod(fr *frame, ev MethodDef, file string) (*Entry, bool) {
	name, err := fqn.NewMethod(ev.Name)
	if err != nil {
		return nil, false
	}

	kind := InstanceMethod
	f := fqn.InstanceMethodFQN(fr.f.Path, name)
	vis := fr.visibility
	switch {
	case ev.Singleton:
		kind = ClassMethod
		f = fqn.ClassMethodFQN(fr.f.Path, name)
		vis = Public
	case fr.moduleFn && fr.kind == ModuleNamespace:
		kind = ModuleFunction
	}

	return &Entry{
		FQN:      f,
		Location: withFile(ev.Location, file),
		Kind: MethodEntry{
			Kind:       kind,
			Owner:      fr.f,
			Visibility: vis,
			Parameters: ev.Parameters,
			Dynamic:    ev.Dynamic,
		},
	}, true
}

// buildAlias synthesizes a method entry for the alias's new name.
func buildAlias(fr *frame, ev AliasDef, file string) (*Entry, bool) {
	name, err := fqn.NewMethod(ev.NewName)
	if err != nil {
		return nil, false
	}
	if _, err := fqn.NewMethod(ev.OldName); err != nil {
		return nil, false
	}
	return &Entry{
		FQN:      fqn.InstanceMethodFQN(fr.f.Path, name),
		Location: withFile(ev.Location, file),
		Kind: MethodEntry{
			Kind:       InstanceMethod,
			Owner:      fr.f,
			Visibility: fr.visibility,
		},
		Metadata: map[string]string{"alias_of": ev.OldName},
	}, true
}

// applyMixin appends the operand to the namespace entry's declaration
// list. Mixin calls at the top level are ignored (no entry to attach to).
func applyMixin(fr *frame, ev MixinCall) {
	if fr.entry == nil {
		return
	}
	switch k := fr.entry.Kind.(type) {
	case ClassEntry:
		switch ev.Kind {
		case Include:
			k.Includes = append(k.Includes, ev.Ref)
		case Extend:
			k.Extends = append(k.Extends, ev.Ref)
		case Prepend:
			k.Prepends = append(k.Prepends, ev.Ref)
		}
		fr.entry.Kind = k
	case ModuleEntry:
		switch ev.Kind {
		case Include:
			k.Includes = append(k.Includes, ev.Ref)
		case Extend:
			k.Extends = append(k.Extends, ev.Ref)
		case Prepend:
			k.Prepends = append(k.Prepends, ev.Ref)
		}
		fr.entry.Kind = k
	}
}

func withFile(loc Location, file string) Location {
	loc.File = file
	return loc
}

func refCopy(r fqn.MixinRef) *fqn.MixinRef {
	c := r
	c.Parts = append([]fqn.Constant(nil), r.Parts...)
	return &c
}
