package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Chain ordering
// =============================================================================

func TestAncestorChain_LinearInheritance(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("animals.rb", []Event{
		openClass("Animal"), NamespaceClose{},
		openClassUnder("Mammal", "Animal"), NamespaceClose{},
		openClassUnder("Dog", "Mammal"), NamespaceClose{},
	})

	assert.Equal(t, []string{"Dog", "Mammal", "Animal"}, chainPaths(ix, "Dog", false))
}

func TestAncestorChain_IncludesNearestLastIncluded(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("First"), NamespaceClose{},
		openModule("Second"), NamespaceClose{},
		openClass("App"),
		mix(Include, "First"),
		mix(Include, "Second"),
		NamespaceClose{},
	})

	// The most recently included module wins lookup, matching
	// App.ancestors at runtime.
	assert.Equal(t, []string{"App", "Second", "First"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_PrependsNearestLastPrepended(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("PatchA"), NamespaceClose{},
		openModule("PatchB"), NamespaceClose{},
		openClass("App"),
		mix(Prepend, "PatchA"),
		mix(Prepend, "PatchB"),
		NamespaceClose{},
	})

	assert.Equal(t, []string{"PatchB", "PatchA", "App"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_IncludesBeforeSuperclass(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openClass("Base"), NamespaceClose{},
		openModule("Logging"), NamespaceClose{},
		openClassUnder("App", "Base"),
		mix(Include, "Logging"),
		NamespaceClose{},
	})

	assert.Equal(t, []string{"App", "Logging", "Base"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_TransitiveIncludes(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("Core"), NamespaceClose{},
		openModule("Logging"), mix(Include, "Core"), NamespaceClose{},
		openClass("App"), mix(Include, "Logging"), NamespaceClose{},
	})

	assert.Equal(t, []string{"App", "Logging", "Core"}, chainPaths(ix, "App", false))
}

// =============================================================================
// Class-method chains
// =============================================================================

func TestAncestorChain_ExtendOnlyOnClassSide(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("Helpers"), NamespaceClose{},
		openClass("App"), mix(Extend, "Helpers"), NamespaceClose{},
	})

	assert.Equal(t, []string{"Helpers", "App"}, chainPaths(ix, "App", true))
	assert.Equal(t, []string{"App"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_ExtendNotInheritedThroughSuperclass(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("Helpers"), NamespaceClose{},
		openClass("Base"), mix(Extend, "Helpers"), NamespaceClose{},
		openClassUnder("App", "Base"), NamespaceClose{},
	})

	// extend participates only at the entry point of the chain.
	assert.Equal(t, []string{"App", "Base"}, chainPaths(ix, "App", true))
}

func TestAncestorChain_ExtendsReverseDeclarationOrder(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("HelpA"), NamespaceClose{},
		openModule("HelpB"), NamespaceClose{},
		openClass("App"),
		mix(Extend, "HelpA"),
		mix(Extend, "HelpB"),
		NamespaceClose{},
	})

	assert.Equal(t, []string{"HelpB", "HelpA", "App"}, chainPaths(ix, "App", true))
}

// =============================================================================
// Degenerate inputs
// =============================================================================

func TestAncestorChain_UndefinedNamespaceIsEmpty(t *testing.T) {
	t.Parallel()
	ix := New()
	assert.Empty(t, ix.AncestorChain(ns("Ghost"), false))
}

func TestAncestorChain_UnresolvedMixinSkipped(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openClass("App"), mix(Include, "Missing"), NamespaceClose{},
	})

	assert.Equal(t, []string{"App"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_MutualIncludesTerminate(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("Ping"), mix(Include, "Pong"), NamespaceClose{},
		openModule("Pong"), mix(Include, "Ping"), NamespaceClose{},
	})

	assert.Equal(t, []string{"Ping", "Pong"}, chainPaths(ix, "Ping", false))
	assert.Equal(t, []string{"Pong", "Ping"}, chainPaths(ix, "Pong", false))
}

func TestAncestorChain_SelfInheritanceTerminates(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openClassUnder("Loop", "Loop"), NamespaceClose{},
	})

	assert.Equal(t, []string{"Loop"}, chainPaths(ix, "Loop", false))
}

// =============================================================================
// Reopenings and scoped operand resolution
// =============================================================================

func TestAncestorChain_ReopeningsMerge(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("logging.rb", []Event{openModule("Logging"), NamespaceClose{}})
	ix.IndexFile("metrics.rb", []Event{openModule("Metrics"), NamespaceClose{}})
	ix.IndexFile("app.rb", []Event{
		openClass("App"), mix(Include, "Logging"), NamespaceClose{},
	})
	ix.IndexFile("app_metrics.rb", []Event{
		openClass("App"), mix(Include, "Metrics"), NamespaceClose{},
	})

	// Includes concatenate across reopenings in discovery order, so the
	// later reopening's module sits nearest.
	assert.Equal(t, []string{"App", "Metrics", "Logging"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_FirstSuperclassWins(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openClass("Base"), NamespaceClose{},
		openClass("Other"), NamespaceClose{},
		openClassUnder("App", "Base"), NamespaceClose{},
		openClassUnder("App", "Other"), NamespaceClose{},
	})

	assert.Equal(t, []string{"App", "Base"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_NestedOperandShadowsTopLevel(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("Logging"), NamespaceClose{},
		openModule("Outer"),
		openModule("Logging"), NamespaceClose{},
		openClass("App"), mix(Include, "Logging"), NamespaceClose{},
		NamespaceClose{},
	})

	assert.Equal(t, []string{"Outer::App", "Outer::Logging"}, chainPaths(ix, "Outer::App", false))
}

func TestAncestorChain_AbsoluteOperandSkipsShadowing(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("a.rb", []Event{
		openModule("Logging"), NamespaceClose{},
		openModule("Outer"),
		openModule("Logging"), NamespaceClose{},
		openClass("App"), mix(Include, "::Logging"), NamespaceClose{},
		NamespaceClose{},
	})

	assert.Equal(t, []string{"Outer::App", "Logging"}, chainPaths(ix, "Outer::App", false))
}

// =============================================================================
// Cache behavior across re-indexing
// =============================================================================

func TestAncestorChain_ForwardReferenceHeals(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("app.rb", []Event{
		openClass("App"), mix(Include, "Logging"), NamespaceClose{},
	})
	require.Equal(t, []string{"App"}, chainPaths(ix, "App", false))

	// Defining the missing module must drop the cached chain even though
	// the new file never mentions App.
	ix.IndexFile("logging.rb", []Event{openModule("Logging"), NamespaceClose{}})
	assert.Equal(t, []string{"App", "Logging"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_InvalidatedWhenAncestorReindexed(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("base.rb", []Event{openClass("Base"), NamespaceClose{}})
	ix.IndexFile("app.rb", []Event{openClassUnder("App", "Base"), NamespaceClose{}})
	require.Equal(t, []string{"App", "Base"}, chainPaths(ix, "App", false))

	ix.IndexFile("logging.rb", []Event{openModule("Logging"), NamespaceClose{}})
	ix.IndexFile("base.rb", []Event{
		openClass("Base"), mix(Include, "Logging"), NamespaceClose{},
	})

	assert.Equal(t, []string{"App", "Base", "Logging"}, chainPaths(ix, "App", false))
}

func TestAncestorChain_EmptyAfterDefinitionRemoved(t *testing.T) {
	t.Parallel()
	ix := New()
	ix.IndexFile("app.rb", []Event{openClass("App"), NamespaceClose{}})
	require.Equal(t, []string{"App"}, chainPaths(ix, "App", false))

	ix.RemoveFile("app.rb")
	assert.Empty(t, ix.AncestorChain(ns("App"), false))
}
