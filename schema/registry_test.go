package schema

import (
	"context"
	"testing"

	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/request"
)

// nopAdapter satisfies adapter.Adapter for registry tests.
type nopAdapter struct{}

func (nopAdapter) NewQuery(context.Context) adapter.Query { return nil }
func (nopAdapter) ApplyFilter(q adapter.Query, _ string, _ []interface{}) adapter.Query {
	return q
}
func (nopAdapter) ClearFilters(q adapter.Query) adapter.Query                 { return q }
func (nopAdapter) ApplySort(q adapter.Query, _ string, _ bool) adapter.Query  { return q }
func (nopAdapter) ClearSorts(q adapter.Query) adapter.Query                   { return q }
func (nopAdapter) ApplySearch(q adapter.Query, _ string) adapter.Query        { return q }
func (nopAdapter) ApplyPagination(q adapter.Query, _, _ int) adapter.Query    { return q }
func (nopAdapter) List(context.Context, adapter.Query, adapter.ListParams) (*adapter.ListResult, error) {
	return &adapter.ListResult{}, nil
}
func (nopAdapter) Get(context.Context, adapter.Query, string) (interface{}, error) {
	return nil, adapter.ErrNotFound
}
func (nopAdapter) Create(context.Context, adapter.Mutator) (interface{}, error) { return nil, nil }
func (nopAdapter) Update(_ context.Context, e interface{}, _ adapter.Mutator) (interface{}, error) {
	return e, nil
}
func (nopAdapter) Replace(_ context.Context, e interface{}, _ adapter.Mutator) (interface{}, error) {
	return e, nil
}
func (nopAdapter) Delete(context.Context, adapter.Query) ([]interface{}, error) {
	return nil, nil
}

func personDefinition() *Definition {
	return &Definition{
		Type:    "people",
		Adapter: nopAdapter{},
		Attributes: map[string]*Attribute{
			"name": {},
		},
		Relationships: map[string]*Relationship{
			"spouse": {Target: "people"},
		},
	}
}

func TestRegistry(t *testing.T) {
	t.Run("register and get definition", func(t *testing.T) {
		registry := NewRegistry()

		if err := registry.Register(personDefinition()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		def, exists := registry.Get("people")
		if !exists {
			t.Fatal("definition should exist")
		}
		if def.Type != "people" {
			t.Errorf("expected people, got %s", def.Type)
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		registry := NewRegistry()

		registry.Register(personDefinition())
		if err := registry.Register(personDefinition()); err == nil {
			t.Error("expected error for duplicate registration")
		}
	})

	t.Run("rejects missing type and adapter", func(t *testing.T) {
		registry := NewRegistry()

		if err := registry.Register(&Definition{Adapter: nopAdapter{}}); err == nil {
			t.Error("expected error for missing type")
		}
		if err := registry.Register(&Definition{Type: "pets"}); err == nil {
			t.Error("expected error for missing adapter")
		}
	})

	t.Run("fills names from map keys", func(t *testing.T) {
		registry := NewRegistry()

		def := personDefinition()
		registry.Register(def)

		if def.Attributes["name"].Name != "name" {
			t.Error("attribute name should be filled from its map key")
		}
		if def.Relationships["spouse"].Name != "spouse" {
			t.Error("relationship name should be filled from its map key")
		}
	})

	t.Run("list and count", func(t *testing.T) {
		registry := NewRegistry()

		for _, name := range []string{"people", "pets", "houses"} {
			def := personDefinition()
			def.Type = name
			def.Relationships = nil
			if err := registry.Register(def); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if registry.Count() != 3 {
			t.Errorf("expected 3 resources, got %d", registry.Count())
		}
		if len(registry.List()) != 3 {
			t.Errorf("expected 3 names, got %d", len(registry.List()))
		}
		if !registry.Exists("pets") {
			t.Error("pets should exist")
		}
	})

	t.Run("validate all catches dangling targets", func(t *testing.T) {
		registry := NewRegistry()

		def := personDefinition()
		def.Relationships["employer"] = &Relationship{Target: "companies"}
		registry.Register(def)

		if err := registry.ValidateAll(); err == nil {
			t.Error("expected error for unregistered relationship target")
		}

		companies := personDefinition()
		companies.Type = "companies"
		companies.Relationships = nil
		registry.Register(companies)

		if err := registry.ValidateAll(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("polymorphic targets are exempt", func(t *testing.T) {
		registry := NewRegistry()

		def := personDefinition()
		def.Relationships["owner"] = &Relationship{}
		registry.Register(def)

		if err := registry.ValidateAll(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestWritability(t *testing.T) {
	t.Run("defaults to writable", func(t *testing.T) {
		attr := &Attribute{Name: "name"}
		if !attr.WritableFor(nil, WriteCreate) || !attr.WritableFor(nil, WriteUpdate) {
			t.Error("attribute without rule should be writable")
		}
	})

	t.Run("read-only by inference", func(t *testing.T) {
		attr := &Attribute{
			Name: "computed",
			Get: func(*request.Context, interface{}) (interface{}, error) {
				return "x", nil
			},
		}
		if attr.WritableFor(nil, WriteUpdate) {
			t.Error("getter without setter should infer read-only")
		}
	})

	t.Run("create only", func(t *testing.T) {
		attr := &Attribute{Name: "code", Writable: CreateOnly()}
		if !attr.WritableFor(nil, WriteCreate) {
			t.Error("create-only attribute should accept creation writes")
		}
		if attr.WritableFor(nil, WriteUpdate) || attr.WritableFor(nil, WriteReplace) {
			t.Error("create-only attribute should reject update and replace writes")
		}
	})
}
