// Package rubyscope provides static symbol indexing and ancestor-chain
// resolution for Ruby codebases, built on tree-sitter. It answers where
// symbols are defined, how a class's method resolution order is
// linearized, and which method a call site lands on, without executing
// any Ruby.
//
// # Pipeline
//
// Rubyscope operates in two phases per file:
//
//  1. Extract: parse the file with tree-sitter's Ruby grammar and walk
//     the syntax tree into an ordered event stream of namespace, method,
//     mixin, visibility and reference events.
//
//  2. Commit: fold the event stream into entries and apply them to the
//     in-memory index atomically, replacing the file's previous
//     contributions.
//
// # Usage
//
// Create an Engine, index a project, and query:
//
//	e := rubyscope.New()
//
//	ctx := context.Background()
//	err := e.IndexDirectory(ctx, "path/to/project")
//
//	q := e.Query()
//	chain, err := q.Ancestors("App::Service", false)
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides the read
// operations:
//
//   - [QueryBuilder.Definitions] — every declaration site of a class,
//     module, method or constant.
//   - [QueryBuilder.References] — recorded reference locations of a
//     symbol.
//   - [QueryBuilder.Ancestors] — the linearized ancestor chain
//     (prepends, self, includes, superclass; extends on the singleton
//     side).
//   - [QueryBuilder.FindMethod] — which definition a method call
//     resolves to, with origin and visibility.
//   - [QueryBuilder.ResolveConstant] — Ruby's lexical-then-ancestor
//     constant lookup from a given scope.
//   - [QueryBuilder.ReverseMixins] — which namespaces mix in a module.
//   - [QueryBuilder.MethodsNamed] — name-keyed method search across
//     receivers.
//
// # Incremental Indexing
//
// [Engine.IndexFiles] detects unchanged files via content hashing and
// skips them. Re-indexing a file atomically replaces its previous
// contributions; derived state (reverse mixin edges, cached ancestor
// chains) is invalidated only where the change can be observed.
//
// # Snapshots
//
// [Engine.ExportSnapshot] writes the committed index to a SQLite
// database for offline inspection. The export is a full rewrite inside
// one transaction.
package rubyscope
