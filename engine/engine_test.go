package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/adapter/memory"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
	"github.com/restpack/restpack/schema"
)

// peopleEngine builds an engine over a seeded in-memory family graph: Ann and
// Bob are spouses with children Cal and Dee.
func peopleEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()

	store := memory.New()
	store.Seed(
		memory.Record{"id": "1", "name": "Ann", "role": "admin", "code": "A1", "secret": "s1",
			"spouse": "2", "children": []string{"3", "4"}, "parents": []string{}},
		memory.Record{"id": "2", "name": "Bob", "role": "user",
			"spouse": "1", "children": []string{"3", "4"}, "parents": []string{}},
		memory.Record{"id": "3", "name": "Cal", "role": "user", "parents": []string{"1", "2"}},
		memory.Record{"id": "4", "name": "Dee", "role": "user", "parents": []string{"1", "2"}},
	)

	def := &schema.Definition{
		Type:     "people",
		Plural:   "people",
		Singular: "person",
		Adapter:  store,
		PageSize: 10,
		Attributes: map[string]*schema.Attribute{
			"id":     {},
			"name":   {},
			"role":   {},
			"secret": {Detail: true},
			"code":   {Writable: schema.CreateOnly()},
		},
		Relationships: map[string]*schema.Relationship{
			"spouse":   {Target: "people"},
			"children": {Target: "people", Plural: true},
			"parents":  {Target: "people", Plural: true},
		},
		Scope: &schema.Scope{
			Apply: func(rc *request.Context, q adapter.Query) (adapter.Query, error) {
				if parent := rc.ParamString("parent"); parent != "" {
					q = store.ApplyFilter(q, "parents", []interface{}{parent})
				}
				return q, nil
			},
			Ensure: func(rc *request.Context, entity interface{}) error {
				if parent := rc.ParamString("parent"); parent != "" {
					return store.SetAttribute(entity, "parents", []string{parent})
				}
				return nil
			},
		},
		Filters: map[string]schema.FilterFunc{
			"name": func(rc *request.Context, q adapter.Query, values []interface{}) (adapter.Query, error) {
				return store.ApplyFilter(q, "name", values), nil
			},
		},
		Sorts: map[string]schema.SortFunc{
			"name": func(rc *request.Context, q adapter.Query) (adapter.Query, error) {
				return store.ApplySort(q, "name", false), nil
			},
		},
		Labels: map[string]schema.LabelFunc{
			"admins": func(rc *request.Context, q adapter.Query) (adapter.Query, error) {
				return store.ApplyFilter(q, "role", []interface{}{"admin"}), nil
			},
		},
		Singletons: map[string]schema.SingletonFunc{
			"first": func(rc *request.Context, q adapter.Query) (interface{}, error) {
				q = store.ApplySort(q, "id", false)
				q = store.ApplyPagination(q, 0, 1)
				result, err := store.List(rc.Context(), q, adapter.ListParams{})
				if err != nil || len(result.Data) == 0 {
					return nil, err
				}
				return result.Data[0], nil
			},
		},
		CollectionActions: map[string]schema.CollectionActionFunc{
			"headcount": func(rc *request.Context, q adapter.Query, payload interface{}) (*document.Pack, error) {
				result, err := store.List(rc.Context(), q, adapter.ListParams{})
				if err != nil {
					return nil, err
				}
				pack := document.NewPack(nil)
				pack.SetMeta("headcount", len(result.Data))
				return pack, nil
			},
		},
		DocumentActions: map[string]schema.DocumentActionFunc{
			"greet": func(rc *request.Context, entity interface{}, payload interface{}) (*document.Pack, error) {
				pack := document.NewPack(nil)
				pack.SetMeta("greeting", fmt.Sprintf("hello %v", entity.(memory.Record)["name"]))
				return pack, nil
			},
		},
		Meta: map[string]interface{}{"resource": "people"},
	}

	registry := schema.NewRegistry()
	require.NoError(t, registry.Register(def))
	require.NoError(t, registry.ValidateAll())

	return New(registry), store
}

func background() *Context {
	return NewContext(context.Background(), nil)
}

func withParams(params map[string]interface{}) *Context {
	return NewContext(context.Background(), params)
}

func intp(v int) *int { return &v }

func docIDs(c document.Collection) []string {
	ids := make([]string, len(c))
	for i, d := range c {
		ids[i] = d.ID
	}
	return ids
}

func TestList(t *testing.T) {
	e, _ := peopleEngine(t)

	t.Run("lists the whole collection", func(t *testing.T) {
		pack, err := e.List(background(), "people", nil, nil)
		require.NoError(t, err)

		collection := pack.Data.(document.Collection)
		assert.Equal(t, []string{"1", "2", "3", "4"}, docIDs(collection))
		assert.Equal(t, "people", pack.Meta["resource"])
	})

	t.Run("scope narrows before client filters", func(t *testing.T) {
		rc := withParams(map[string]interface{}{"parent": "1"})
		pack, err := e.List(rc, "people", &Selector{
			Filters: map[string][]interface{}{"name": {"Ann", "Cal"}},
		}, nil)
		require.NoError(t, err)

		// Ann matches the filter but sits outside the scope boundary.
		collection := pack.Data.(document.Collection)
		assert.Equal(t, []string{"3"}, docIDs(collection))
	})

	t.Run("named sort and label", func(t *testing.T) {
		pack, err := e.List(background(), "people", &Selector{Sorts: []string{"name"}}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3", "4"}, docIDs(pack.Data.(document.Collection)))

		pack, err = e.List(background(), "people", &Selector{Label: "admins"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, docIDs(pack.Data.(document.Collection)))
	})

	t.Run("unknown filter is a request error", func(t *testing.T) {
		_, err := e.List(background(), "people", &Selector{
			Filters: map[string][]interface{}{"age": {30}},
		}, nil)
		assert.True(t, IsRequest(err))
	})

	t.Run("unknown sort is a request error", func(t *testing.T) {
		_, err := e.List(background(), "people", &Selector{Sorts: []string{"age"}}, nil)
		assert.True(t, IsRequest(err))
	})

	t.Run("unknown label is not found", func(t *testing.T) {
		_, err := e.List(background(), "people", &Selector{Label: "minors"}, nil)
		assert.True(t, IsNotFound(err))
	})

	t.Run("pagination metadata with totals", func(t *testing.T) {
		pack, err := e.List(background(), "people", &Selector{
			Offset: intp(3),
			Limit:  intp(2),
		}, &Options{Totals: true})
		require.NoError(t, err)

		assert.Len(t, pack.Data.(document.Collection), 1)

		page := pack.Meta["page"].(*PageMeta)
		assert.Equal(t, 3, page.Offset)
		assert.Equal(t, 1, page.Count)
		assert.Nil(t, page.NextOffset)
		require.NotNil(t, page.IsFirst)
		require.NotNil(t, page.IsLast)
		assert.False(t, *page.IsFirst)
		assert.True(t, *page.IsLast)
	})

	t.Run("search narrows the collection", func(t *testing.T) {
		pack, err := e.List(background(), "people", &Selector{Search: "ann"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, docIDs(pack.Data.(document.Collection)))
	})

	t.Run("unregistered resource is not found", func(t *testing.T) {
		_, err := e.List(background(), "aliens", nil, nil)
		assert.True(t, IsNotFound(err))
	})
}

func TestShow(t *testing.T) {
	e, _ := peopleEngine(t)

	t.Run("by id", func(t *testing.T) {
		pack, err := e.Show(background(), "people", ByID("1"), nil)
		require.NoError(t, err)

		doc := pack.Data.(*document.Document)
		assert.Equal(t, "people", doc.Type)
		assert.Equal(t, "1", doc.ID)
		assert.Equal(t, "Ann", doc.Attributes["name"])
	})

	t.Run("missing id is not found", func(t *testing.T) {
		_, err := e.Show(background(), "people", ByID("99"), nil)
		assert.True(t, IsNotFound(err))
	})

	t.Run("out of scope id is not found", func(t *testing.T) {
		rc := withParams(map[string]interface{}{"parent": "1"})
		_, err := e.Show(rc, "people", ByID("1"), nil)
		assert.True(t, IsNotFound(err))
	})

	t.Run("named singleton receives the scoped query", func(t *testing.T) {
		rc := withParams(map[string]interface{}{"parent": "1"})
		pack, err := e.Show(rc, "people", BySingleton("first"), nil)
		require.NoError(t, err)
		assert.Equal(t, "3", pack.Data.(*document.Document).ID)
	})

	t.Run("unknown singleton is not found", func(t *testing.T) {
		_, err := e.Show(background(), "people", BySingleton("last"), nil)
		assert.True(t, IsNotFound(err))
	})
}
