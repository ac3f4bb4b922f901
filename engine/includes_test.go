package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restpack/restpack/adapter/memory"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/schema"
)

func includedIDs(pack *document.Pack) []string {
	ids := make([]string, len(pack.Included))
	for i, doc := range pack.Included {
		ids[i] = doc.ID
	}
	return ids
}

func TestIncludes(t *testing.T) {
	e, _ := peopleEngine(t)

	t.Run("single path expands one level", func(t *testing.T) {
		pack, err := e.Show(background(), "people", ByID("1"), &Options{Include: []string{"children"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"3", "4"}, includedIDs(pack))
	})

	t.Run("primary data is never duplicated into included", func(t *testing.T) {
		// The spouse's spouse points straight back at the primary document.
		pack, err := e.Show(background(), "people", ByID("1"), &Options{Include: []string{"spouse+spouse"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, includedIDs(pack))
	})

	t.Run("overlapping expressions deduplicate", func(t *testing.T) {
		pack, err := e.Show(background(), "people", ByID("1"), &Options{
			Include: []string{"children", "spouse+children"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"3", "4", "2"}, includedIDs(pack))
	})

	t.Run("cyclic paths terminate", func(t *testing.T) {
		pack, err := e.Show(background(), "people", ByID("1"), &Options{
			Include: []string{"children+parents+spouse+children"},
		})
		require.NoError(t, err)
		// Children first, then the one parent that is not the primary
		// document; the walk bottoms out once every branch is collected.
		assert.Equal(t, []string{"3", "4", "2"}, includedIDs(pack))
	})

	t.Run("unknown path is ignored", func(t *testing.T) {
		pack, err := e.Show(background(), "people", ByID("1"), &Options{Include: []string{"ghost"}})
		require.NoError(t, err)
		assert.Empty(t, pack.Included)
	})

	t.Run("list seeds exclude the entire primary collection", func(t *testing.T) {
		pack, err := e.List(background(), "people", nil, &Options{Include: []string{"spouse", "children"}})
		require.NoError(t, err)
		// Every reachable entity is already primary data.
		assert.Empty(t, pack.Included)
	})

	t.Run("include fetches stay within scope", func(t *testing.T) {
		rc := withParams(map[string]interface{}{"parent": "1"})
		pack, err := e.Show(rc, "people", ByID("3"), &Options{Include: []string{"parents"}})
		require.NoError(t, err)
		// Ann and Bob are the parents, but neither is itself scoped to
		// parent 1, so the batch fetch returns nothing.
		assert.Empty(t, pack.Included)
	})
}

func TestAutoIncludes(t *testing.T) {
	people := memory.New()
	people.Seed(
		memory.Record{"id": "u1", "name": "Ann", "posts": []string{"p1"}},
		memory.Record{"id": "u2", "name": "Bob", "posts": []string{}},
	)
	posts := memory.New()
	posts.Seed(
		memory.Record{"id": "p1", "title": "Hello", "author": "u1", "editor": "u2"},
	)

	registry := schema.NewRegistry()
	require.NoError(t, registry.Register(&schema.Definition{
		Type:       "people",
		Adapter:    people,
		Attributes: map[string]*schema.Attribute{"id": {}, "name": {}},
		Relationships: map[string]*schema.Relationship{
			"posts": {Target: "posts", Plural: true, Include: schema.IncludeAlways},
		},
	}))
	require.NoError(t, registry.Register(&schema.Definition{
		Type:       "posts",
		Adapter:    posts,
		Attributes: map[string]*schema.Attribute{"id": {}, "title": {}},
		Relationships: map[string]*schema.Relationship{
			"author": {Target: "people", Include: schema.IncludeAlways},
			"editor": {Target: "people", Include: schema.IncludeDetail},
		},
	}))
	e := New(registry)

	t.Run("forced includes need no expression", func(t *testing.T) {
		pack, err := e.Show(background(), "posts", ByID("p1"), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, includedIDs(pack))
	})

	t.Run("detail view widens the forced set", func(t *testing.T) {
		pack, err := e.Show(background(), "posts", ByID("p1"), &Options{Detail: true})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"u1", "u2"}, includedIDs(pack))
	})

	t.Run("caller's include slice is never written to", func(t *testing.T) {
		// Spare capacity in the caller's slice must not receive the forced
		// include expressions.
		backing := make([]string, 2, 8)
		backing[0] = "author"
		backing[1] = "sentinel"

		_, err := e.Show(background(), "posts", ByID("p1"), &Options{Include: backing[:1]})
		require.NoError(t, err)
		assert.Equal(t, "sentinel", backing[1])
	})

	t.Run("mutually forced resources do not amplify", func(t *testing.T) {
		// People force posts, posts force people; each type expands once.
		pack, err := e.Show(background(), "people", ByID("u1"), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1"}, includedIDs(pack))
	})
}
