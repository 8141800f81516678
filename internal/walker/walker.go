// Package walker turns Ruby source into the ordered event stream the
// index consumes. It parses with tree-sitter's Ruby grammar and walks the
// concrete syntax tree, emitting namespace, method, mixin, visibility and
// reference events. Dynamic constructs (define_method) yield best-effort
// events when the symbol name is statically recoverable.
package walker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"rubyscope/internal/fqn"
	"rubyscope/internal/index"
)

// rubyBasenames are extensionless files treated as Ruby.
var rubyBasenames = map[string]bool{
	"Rakefile": true,
	"Gemfile":  true,
}

// SupportedFile reports whether path looks like Ruby source.
func SupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rb", ".rake", ".gemspec", ".ru":
		return true
	}
	return rubyBasenames[filepath.Base(path)]
}

// Events parses src and returns its event stream. A fresh parser is
// created per call so concurrent extraction workers never share one.
func Events(ctx context.Context, src []byte) ([]index.Event, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(ruby.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("walker: parse: %w", err)
	}
	defer tree.Close()

	w := &walk{src: src}
	w.node(tree.RootNode())
	return w.events, nil
}

type walk struct {
	src    []byte
	events []index.Event
}

func (w *walk) emit(ev index.Event) {
	w.events = append(w.events, ev)
}

// node dispatches one CST node and decides whether to descend.
func (w *walk) node(n *sitter.Node) {
	switch n.Type() {
	case "class":
		w.classNode(n)
	case "module":
		w.moduleNode(n)
	case "singleton_class":
		// class << self: treat the body as the enclosing namespace's
		// singleton surface; defs inside become class methods.
		w.singletonClassNode(n)
	case "method":
		w.methodNode(n, false)
	case "singleton_method":
		w.singletonMethodNode(n)
	case "assignment":
		w.assignmentNode(n)
		w.children(n.ChildByFieldName("right"))
	case "call":
		w.callNode(n)
	case "alias":
		w.aliasNode(n)
	case "constant", "scope_resolution":
		w.constantRefNode(n)
	case "identifier":
		w.identifierNode(n)
	default:
		w.children(n)
	}
}

// identifierNode handles the modifiers Ruby accepts with no arguments:
// the grammar parses a bare `private` or `module_function` as a plain
// identifier, not a call.
func (w *walk) identifierNode(n *sitter.Node) {
	switch w.text(n) {
	case "public":
		w.emit(index.VisibilitySet{Visibility: index.Public})
	case "private":
		w.emit(index.VisibilitySet{Visibility: index.Private})
	case "protected":
		w.emit(index.VisibilitySet{Visibility: index.Protected})
	case "module_function":
		w.emit(index.ModuleFunctionCall{})
	}
}

func (w *walk) children(n *sitter.Node) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.node(n.NamedChild(i))
	}
}

func (w *walk) classNode(n *sitter.Node) {
	ref, ok := w.constantPath(n.ChildByFieldName("name"))
	if !ok {
		return
	}
	var superclass *fqn.MixinRef
	if sup := n.ChildByFieldName("superclass"); sup != nil {
		// The superclass node wraps the operand expression.
		for i := 0; i < int(sup.NamedChildCount()); i++ {
			if r, ok := w.constantPath(sup.NamedChild(i)); ok {
				superclass = &r
				break
			}
		}
	}
	w.emit(index.NamespaceOpen{
		Kind:       index.ClassNamespace,
		Ref:        ref,
		Superclass: superclass,
		Location:   w.loc(n),
	})
	w.children(n.ChildByFieldName("body"))
	w.emit(index.NamespaceClose{})
}

func (w *walk) moduleNode(n *sitter.Node) {
	ref, ok := w.constantPath(n.ChildByFieldName("name"))
	if !ok {
		return
	}
	w.emit(index.NamespaceOpen{Kind: index.ModuleNamespace, Ref: ref, Location: w.loc(n)})
	w.children(n.ChildByFieldName("body"))
	w.emit(index.NamespaceClose{})
}

func (w *walk) singletonClassNode(n *sitter.Node) {
	value := n.ChildByFieldName("value")
	if value == nil || value.Type() != "self" {
		w.children(n)
		return
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() == "method" {
			w.methodNode(child, true)
			continue
		}
		w.node(child)
	}
}

func (w *walk) methodNode(n *sitter.Node, singleton bool) {
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	w.emit(index.MethodDef{
		Name:       w.text(name),
		Singleton:  singleton,
		Parameters: w.parameters(n.ChildByFieldName("parameters")),
		Location:   w.loc(n),
	})
	// Method bodies still contribute references.
	w.children(n.ChildByFieldName("body"))
}

func (w *walk) singletonMethodNode(n *sitter.Node) {
	object := n.ChildByFieldName("object")
	if object == nil || object.Type() != "self" {
		// def Foo.bar outside Foo's body is rare and receiver-dependent;
		// skip rather than misattribute it.
		return
	}
	name := n.ChildByFieldName("name")
	if name == nil {
		return
	}
	w.emit(index.MethodDef{
		Name:       w.text(name),
		Singleton:  true,
		Parameters: w.parameters(n.ChildByFieldName("parameters")),
		Location:   w.loc(n),
	})
	w.children(n.ChildByFieldName("body"))
}

func (w *walk) assignmentNode(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	if left == nil || left.Type() != "constant" {
		return
	}
	value := ""
	if right := n.ChildByFieldName("right"); right != nil {
		value = w.text(right)
	}
	w.emit(index.ConstantAssign{Name: w.text(left), Value: value, Location: w.loc(n)})
}

func (w *walk) aliasNode(n *sitter.Node) {
	if n.NamedChildCount() < 2 {
		return
	}
	w.emit(index.AliasDef{
		NewName:  methodNameText(w, n.NamedChild(0)),
		OldName:  methodNameText(w, n.NamedChild(1)),
		Location: w.loc(n),
	})
}

// callNode handles the declaration-shaped calls Ruby uses as keywords:
// mixins, visibility modifiers, module_function, attr_* accessors,
// alias_method and define_method. Anything else becomes a method
// reference.
func (w *walk) callNode(n *sitter.Node) {
	method := n.ChildByFieldName("method")
	receiver := n.ChildByFieldName("receiver")
	args := n.ChildByFieldName("arguments")

	if method == nil || receiver != nil {
		w.children(n)
		return
	}

	switch w.text(method) {
	case "include":
		w.mixinCall(index.Include, args)
	case "extend":
		w.mixinCall(index.Extend, args)
	case "prepend":
		w.mixinCall(index.Prepend, args)
	case "public":
		w.visibilityCall(index.Public, args)
	case "private":
		w.visibilityCall(index.Private, args)
	case "protected":
		w.visibilityCall(index.Protected, args)
	case "module_function":
		w.emit(index.ModuleFunctionCall{Names: w.symbolArgs(args)})
	case "attr_reader":
		w.attrCall(args, true, false)
	case "attr_writer":
		w.attrCall(args, false, true)
	case "attr_accessor":
		w.attrCall(args, true, true)
	case "alias_method":
		names := w.symbolArgs(args)
		if len(names) == 2 {
			w.emit(index.AliasDef{NewName: names[0], OldName: names[1], Location: w.loc(n)})
		}
	case "define_method":
		names := w.symbolArgs(args)
		if len(names) > 0 {
			w.emit(index.MethodDef{Name: names[0], Location: w.loc(n), Dynamic: true})
		}
		w.blockChildren(n)
	default:
		w.emit(index.MethodRef{Name: w.text(method), Location: w.loc(method)})
		w.children(args)
		w.blockChildren(n)
	}
}

func (w *walk) mixinCall(kind index.MixinKind, args *sitter.Node) {
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if ref, ok := w.constantPath(arg); ok {
			w.emit(index.MixinCall{Kind: kind, Ref: ref, Location: w.loc(arg)})
		}
	}
}

// visibilityCall emits the modifier, descending first into any inline
// `private def foo` argument so the def exists before the modifier names
// it.
func (w *walk) visibilityCall(vis index.Visibility, args *sitter.Node) {
	var names []string
	if args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			switch arg.Type() {
			case "method":
				w.methodNode(arg, false)
				if name := arg.ChildByFieldName("name"); name != nil {
					names = append(names, w.text(name))
				}
			case "singleton_method":
				w.singletonMethodNode(arg)
			default:
				if s, ok := w.symbolText(arg); ok {
					names = append(names, s)
				}
			}
		}
	}
	w.emit(index.VisibilitySet{Visibility: vis, Names: names})
}

func (w *walk) attrCall(args *sitter.Node, reader, writer bool) {
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		s, ok := w.symbolText(arg)
		if !ok {
			continue
		}
		if reader {
			w.emit(index.MethodDef{Name: s, Location: w.loc(arg)})
		}
		if writer {
			w.emit(index.MethodDef{Name: s + "=", Location: w.loc(arg)})
		}
	}
}

// parameters flattens a method_parameters node into the index's
// parameter list.
func (w *walk) parameters(n *sitter.Node) []index.Parameter {
	if n == nil {
		return nil
	}
	var params []index.Parameter
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		kind := ""
		switch p.Type() {
		case "identifier":
			kind = "required"
		case "optional_parameter":
			kind = "optional"
		case "splat_parameter":
			kind = "rest"
		case "keyword_parameter":
			kind = "keyword"
		case "hash_splat_parameter":
			kind = "keyword_rest"
		case "block_parameter":
			kind = "block"
		default:
			continue
		}
		name := p
		if nn := p.ChildByFieldName("name"); nn != nil {
			name = nn
		}
		params = append(params, index.Parameter{Name: w.text(name), Kind: kind})
	}
	return params
}

// blockChildren walks a call's block argument, if any.
func (w *walk) blockChildren(n *sitter.Node) {
	if block := n.ChildByFieldName("block"); block != nil {
		w.children(block)
	}
}

func (w *walk) constantRefNode(n *sitter.Node) {
	if ref, ok := w.constantPath(n); ok {
		w.emit(index.ConstantRef{Ref: ref, Location: w.loc(n)})
	}
}

// constantPath converts a constant or scope_resolution node into a
// MixinRef, preserving the absolute form of "::Foo".
func (w *walk) constantPath(n *sitter.Node) (fqn.MixinRef, bool) {
	if n == nil {
		return fqn.MixinRef{}, false
	}
	switch n.Type() {
	case "constant", "scope_resolution":
		ref, err := fqn.ParseConstantPath(w.text(n))
		if err != nil {
			return fqn.MixinRef{}, false
		}
		return ref, true
	}
	return fqn.MixinRef{}, false
}

// symbolArgs extracts symbol/string argument names. A bare call
// (module_function with no arguments) yields nil.
func (w *walk) symbolArgs(args *sitter.Node) []string {
	if args == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if s, ok := w.symbolText(args.NamedChild(i)); ok {
			names = append(names, s)
		}
	}
	return names
}

// symbolText returns the bare name of a symbol or string literal node.
func (w *walk) symbolText(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "simple_symbol":
		return strings.TrimPrefix(w.text(n), ":"), true
	case "string":
		return strings.Trim(w.text(n), `"'`), true
	}
	return "", false
}

func methodNameText(w *walk, n *sitter.Node) string {
	if s, ok := w.symbolText(n); ok {
		return s
	}
	return w.text(n)
}

func (w *walk) text(n *sitter.Node) string {
	return n.Content(w.src)
}

func (w *walk) loc(n *sitter.Node) index.Location {
	return index.Location{
		StartLine: int(n.StartPoint().Row),
		StartCol:  int(n.StartPoint().Column),
		EndLine:   int(n.EndPoint().Row),
		EndCol:    int(n.EndPoint().Column),
	}
}
