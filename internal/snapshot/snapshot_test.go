package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubyscope/internal/fqn"
	"rubyscope/internal/index"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// buildSnapshot indexes a small project in memory and takes its snapshot.
func buildSnapshot(t *testing.T) index.Snapshot {
	t.Helper()
	ix := index.New()
	ix.IndexFile("logging.rb", []index.Event{
		index.NamespaceOpen{Kind: index.ModuleNamespace, Ref: mref(t, "Logging")},
		index.MethodDef{Name: "log"},
		index.NamespaceClose{},
	})
	ix.IndexFile("app.rb", []index.Event{
		index.NamespaceOpen{Kind: index.ClassNamespace, Ref: mref(t, "App")},
		index.MixinCall{Kind: index.Include, Ref: mref(t, "Logging")},
		index.ConstantAssign{Name: "VERSION", Value: `"1.0"`},
		index.MethodRef{Name: "log", Location: index.Location{StartLine: 7}},
		index.NamespaceClose{},
	})
	return ix.TakeSnapshot()
}

func mref(t *testing.T, path string) fqn.MixinRef {
	t.Helper()
	r, err := fqn.ParseConstantPath(path)
	require.NoError(t, err)
	return r
}

func count(t *testing.T, s *Store, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestOpen_CreatesParentDirAndSchema(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, 0, count(t, s, "SELECT COUNT(*) FROM symbols"))
	assert.Equal(t, 0, count(t, s, "SELECT COUNT(*) FROM mixins"))
}

func TestExport_WritesSymbolsMixinsAndRefs(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Export(buildSnapshot(t)))

	// Logging, Logging#log, App, App::VERSION.
	assert.Equal(t, 4, count(t, s, "SELECT COUNT(*) FROM symbols"))

	var entryKind, kind string
	require.NoError(t, s.db.QueryRow(
		"SELECT entry_kind, kind FROM symbols WHERE fqn = ?", "Logging#log",
	).Scan(&entryKind, &kind))
	assert.Equal(t, "method", entryKind)
	assert.Equal(t, "instance_method", kind)

	var superclass string
	require.NoError(t, s.db.QueryRow(
		"SELECT superclass FROM symbols WHERE fqn = ?", "App",
	).Scan(&superclass))
	assert.Equal(t, "::Object", superclass)

	var operand, mixinKind string
	require.NoError(t, s.db.QueryRow(
		"SELECT m.operand, m.kind FROM mixins m JOIN symbols sy ON sy.id = m.symbol_id WHERE sy.fqn = ?", "App",
	).Scan(&operand, &mixinKind))
	assert.Equal(t, "Logging", operand)
	assert.Equal(t, "include", mixinKind)

	assert.Equal(t, 1, count(t, s, "SELECT COUNT(*) FROM constant_refs WHERE fqn = ?", "Logging"))
	assert.Equal(t, 1, count(t, s, "SELECT COUNT(*) FROM method_refs WHERE name = ?", "log"))
}

func TestExport_ReplacesPreviousContents(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Export(buildSnapshot(t)))
	before := count(t, s, "SELECT COUNT(*) FROM symbols")
	require.Positive(t, before)

	// A second export of a smaller index fully replaces the first.
	ix := index.New()
	ix.IndexFile("app.rb", []index.Event{
		index.NamespaceOpen{Kind: index.ClassNamespace, Ref: mref(t, "App")},
		index.NamespaceClose{},
	})
	require.NoError(t, s.Export(ix.TakeSnapshot()))

	assert.Equal(t, 1, count(t, s, "SELECT COUNT(*) FROM symbols"))
	assert.Equal(t, 0, count(t, s, "SELECT COUNT(*) FROM mixins"))
	assert.Equal(t, 0, count(t, s, "SELECT COUNT(*) FROM constant_refs"))
	assert.Equal(t, 0, count(t, s, "SELECT COUNT(*) FROM method_refs"))
}

func TestExport_EmptySnapshot(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Export(index.New().TakeSnapshot()))
	assert.Equal(t, 0, count(t, s, "SELECT COUNT(*) FROM symbols"))
}
