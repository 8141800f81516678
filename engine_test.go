package rubyscope

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRuby drops a Ruby file into dir and returns its path.
func writeRuby(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIndexFiles_Serial(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeRuby(t, dir, "app.rb", `
class App
  def run
  end
end
`)

	e := New(WithParallel(false))
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

	entries, err := e.Query().Definitions("App")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, path, entries[0].Location.File)
}

func TestIndexFiles_MultipleIncludesMostRecentNearest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeRuby(t, dir, "c.rb", `
module A
end

module B
end

class C
  include A
  include B
end
`)

	e := New(WithParallel(false))
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

	// C.ancestors puts the later include nearest.
	chain, err := e.Query().Ancestors("C", false)
	require.NoError(t, err)
	names := make([]string, len(chain))
	for i, f := range chain {
		names[i] = f.String()
	}
	assert.Equal(t, []string{"C", "B", "A"}, names)
}

func TestIndexFiles_ParallelMatchesSerial(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.rb", "b.rb", "c.rb"} {
		paths = append(paths, writeRuby(t, dir, name, `
module M`+name[:1]+`
  def helper_`+name[:1]+`
  end
end
`))
	}

	serial := New(WithParallel(false))
	require.NoError(t, serial.IndexFiles(context.Background(), paths))

	parallel := New(WithParallelism(2))
	require.NoError(t, parallel.IndexFiles(context.Background(), paths))

	assert.Equal(t, serial.Stats(), parallel.Stats())
}

func TestIndexFiles_SkipsUnsupportedFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeRuby(t, dir, "notes.txt", "class NotRuby\nend\n")

	e := New()
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))
	assert.Equal(t, 0, e.Stats().Files)
}

func TestIndexFiles_MissingFileIsAnError(t *testing.T) {
	t.Parallel()
	e := New(WithParallel(false))
	err := e.IndexFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.rb")})
	require.Error(t, err)
}

func TestIndexFiles_UnreadableFileDoesNotAbortParallelBatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	good := writeRuby(t, dir, "good.rb", "class Good\nend\n")
	missing := filepath.Join(dir, "missing.rb")

	e := New(WithParallelism(2))
	err := e.IndexFiles(context.Background(), []string{missing, good})
	require.Error(t, err)

	// The readable file still commits.
	entries, qerr := e.Query().Definitions("Good")
	require.NoError(t, qerr)
	assert.Len(t, entries, 1)
}

func TestIndexFiles_UnchangedContentSkipped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeRuby(t, dir, "app.rb", "class App\nend\n")

	e := New(WithParallel(false))
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))
	assert.Equal(t, 1, e.Stats().Files)

	// Changed content replaces the file's old entries.
	writeRuby(t, dir, "app.rb", "class Renamed\nend\n")
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

	entries, err := e.Query().Definitions("App")
	require.NoError(t, err)
	assert.Empty(t, entries)
	entries, err = e.Query().Definitions("Renamed")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRemoveFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeRuby(t, dir, "app.rb", "class App\nend\n")

	e := New()
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))
	e.RemoveFile(path)

	assert.Equal(t, 0, e.Stats().Files)

	// A removed file indexes from scratch even with unchanged content.
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))
	assert.Equal(t, 1, e.Stats().Files)
}

func TestIndexDirectory_WalkSkipsHiddenAndExcluded(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeRuby(t, dir, "lib/app.rb", "class App\nend\n")
	writeRuby(t, dir, "vendor/gem.rb", "class Vendored\nend\n")
	writeRuby(t, dir, ".hidden/hook.rb", "class Hook\nend\n")

	e := New(WithExcludes("vendor"))
	require.NoError(t, e.IndexDirectory(context.Background(), dir))

	assert.Equal(t, 1, e.Stats().Files)
	entries, err := e.Query().Definitions("Vendored")
	require.NoError(t, err)
	assert.Empty(t, entries)
	entries, err = e.Query().Definitions("Hook")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportSnapshot_WritesDatabase(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeRuby(t, dir, "app.rb", "class App\nend\n")

	e := New()
	require.NoError(t, e.IndexFiles(context.Background(), []string{path}))

	dbPath := filepath.Join(dir, ".rubyscope", "index.db")
	require.NoError(t, e.ExportSnapshot(dbPath))

	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExcluded_PrefixSemantics(t *testing.T) {
	t.Parallel()
	e := New(WithExcludes("vendor", "spec/fixtures"))

	assert.True(t, e.excluded("vendor"))
	assert.True(t, e.excluded("vendor/gems/a.rb"))
	assert.True(t, e.excluded(filepath.Join("spec", "fixtures", "x.rb")))
	assert.False(t, e.excluded("vendored/a.rb"))
	assert.False(t, e.excluded("lib/vendor.rb"))
}
