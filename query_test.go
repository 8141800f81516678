package rubyscope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubyscope/internal/index"
)

// newFixtureQuery indexes the acme fixture project and returns its query
// surface.
func newFixtureQuery(t *testing.T) *QueryBuilder {
	t.Helper()
	e := New(WithExcludes("vendor"))
	require.NoError(t, e.IndexDirectory(context.Background(), "testdata/ruby"))
	return e.Query()
}

func TestQueryDefinitions_DisplayForms(t *testing.T) {
	t.Parallel()
	q := newFixtureQuery(t)

	entries, err := q.Definitions("Acme::App")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = q.Definitions("Acme::App#run")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = q.Definitions("Acme::Base.create")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// A bare path also finds plain constants.
	entries, err = q.Definitions("Acme::VERSION")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, `"1.2.0"`, entries[0].Kind.(index.ConstantEntry).Value)
}

func TestQueryDefinitions_InvalidName(t *testing.T) {
	t.Parallel()
	q := newFixtureQuery(t)
	_, err := q.Definitions("not a name")
	require.Error(t, err)
}

func TestQueryAncestors(t *testing.T) {
	t.Parallel()
	q := newFixtureQuery(t)

	chain, err := q.Ancestors("Acme::App", false)
	require.NoError(t, err)
	var got []string
	for _, f := range chain {
		got = append(got, f.String())
	}
	assert.Equal(t, []string{"Acme::Patch", "Acme::App", "Acme::Logging", "Acme::Base"}, got)

	classSide, err := q.Ancestors("Acme::App", true)
	require.NoError(t, err)
	got = nil
	for _, f := range classSide {
		got = append(got, f.String())
	}
	assert.Equal(t, []string{"Acme::Helpers", "Acme::Patch", "Acme::App", "Acme::Logging", "Acme::Base"}, got)

	_, err = q.Ancestors("Acme::App#run", false)
	require.Error(t, err)
}

func TestQueryFindMethod(t *testing.T) {
	t.Parallel()
	q := newFixtureQuery(t)

	// prepend wins over the class's own definition.
	res, err := q.FindMethod("run", "Acme::App", "", false)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Acme::App#run", res[0].FQN.String())
	assert.Equal(t, index.OriginPrepended, res[0].Origin.Kind)
	assert.Equal(t, "Acme::Patch#run", res[0].Origin.From.String())

	// module_function through an includer is a private instance method.
	res, err = q.FindMethod("log", "Acme::App", "", false)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, index.Private, res[0].Visibility)

	// extend lifts Helpers' instance methods onto App's class side.
	res, err = q.FindMethod("build_default", "Acme::App", "", true)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Acme::App.build_default", res[0].FQN.String())
	assert.Equal(t, index.OriginExtended, res[0].Origin.Kind)

	// Implicit self call resolved lexically from inside Acme::Base#save.
	res, err = q.FindMethod("validate", "", "Acme::Base#save", false)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, index.Private, res[0].Visibility)
}

func TestQueryResolveConstant(t *testing.T) {
	t.Parallel()
	q := newFixtureQuery(t)

	f, entries, ok, err := q.ResolveConstant("MAX_RETRIES", "Acme::App#run")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Acme::App::MAX_RETRIES", f.String())
	require.Len(t, entries, 1)

	// VERSION sits one lexical scope out.
	f, _, ok, err = q.ResolveConstant("VERSION", "Acme::App#run")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Acme::VERSION", f.String())

	_, _, ok, err = q.ResolveConstant("GHOST", "Acme::App")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryReverseMixins(t *testing.T) {
	t.Parallel()
	q := newFixtureQuery(t)

	sources, err := q.ReverseMixins("Acme::Logging")
	require.NoError(t, err)
	var got []string
	for _, f := range sources {
		got = append(got, f.String())
	}
	assert.Equal(t, []string{"Acme::App"}, got)
}

func TestQueryReferences(t *testing.T) {
	t.Parallel()
	q := newFixtureQuery(t)

	// Logging is referenced by App's include.
	locs, err := q.References("Acme::Logging")
	require.NoError(t, err)
	require.Len(t, locs, 1)

	// Method references are name-keyed: Patch#run and App#run both call log.
	locs, err = q.References("Acme::Logging#log")
	require.NoError(t, err)
	assert.Len(t, locs, 2)
}

func TestQueryMethodsNamed(t *testing.T) {
	t.Parallel()
	q := newFixtureQuery(t)

	// Patch#run, App#run, and the alias App#call -> run stay distinct.
	entries := q.MethodsNamed("run")
	assert.Len(t, entries, 2)
	entries = q.MethodsNamed("call")
	require.Len(t, entries, 1)
	assert.Equal(t, "run", entries[0].Metadata["alias_of"])
}
