package schema

import (
	"testing"

	"github.com/restpack/restpack/request"
)

func TestMerge(t *testing.T) {
	t.Run("override scalars win when set", func(t *testing.T) {
		base := &Definition{Type: "people", Plural: "people", PageSize: 10}
		override := &Definition{Plural: "persons", PageSize: 50}

		merged := Merge(base, override)
		if merged.Type != "people" {
			t.Errorf("expected base type, got %s", merged.Type)
		}
		if merged.Plural != "persons" {
			t.Errorf("expected override plural, got %s", merged.Plural)
		}
		if merged.PageSize != 50 {
			t.Errorf("expected override page size, got %d", merged.PageSize)
		}
	})

	t.Run("declarative override keeps base functions", func(t *testing.T) {
		base := &Definition{
			Type: "people",
			Attributes: map[string]*Attribute{
				"name": {
					Name: "name",
					Get: func(*request.Context, interface{}) (interface{}, error) {
						return "from-base", nil
					},
					Set: func(*request.Context, interface{}, interface{}) error { return nil },
				},
			},
		}
		override := &Definition{
			Attributes: map[string]*Attribute{
				"name": {Name: "name", Detail: true},
			},
		}

		merged := Merge(base, override)
		attr := merged.Attributes["name"]
		if !attr.Detail {
			t.Error("override flag should win")
		}
		if attr.Get == nil || attr.Set == nil {
			t.Error("base getter and setter should survive a declarative override")
		}
		v, _ := attr.Get(nil, nil)
		if v != "from-base" {
			t.Errorf("unexpected getter result: %v", v)
		}
	})

	t.Run("relationship targets inherit", func(t *testing.T) {
		base := &Definition{
			Relationships: map[string]*Relationship{
				"spouse": {Name: "spouse", Target: "people"},
			},
		}
		override := &Definition{
			Relationships: map[string]*Relationship{
				"spouse":   {Name: "spouse", Detail: true},
				"children": {Name: "children", Target: "people", Plural: true},
			},
		}

		merged := Merge(base, override)
		if merged.Relationships["spouse"].Target != "people" {
			t.Error("base target should survive")
		}
		if !merged.Relationships["spouse"].Detail {
			t.Error("override flag should win")
		}
		if _, ok := merged.Relationships["children"]; !ok {
			t.Error("override-only relationship should be merged in")
		}
	})

	t.Run("inputs stay untouched", func(t *testing.T) {
		base := &Definition{
			Type: "people",
			Meta: map[string]interface{}{"version": 1},
		}
		override := &Definition{
			Meta: map[string]interface{}{"version": 2},
		}

		merged := Merge(base, override)
		if merged.Meta["version"] != 2 {
			t.Errorf("expected override meta, got %v", merged.Meta["version"])
		}
		if base.Meta["version"] != 1 {
			t.Error("base meta was mutated")
		}
	})

	t.Run("nil inputs", func(t *testing.T) {
		if Merge(nil, nil) != nil {
			t.Error("merging two nils should yield nil")
		}
		merged := Merge(nil, &Definition{Type: "pets"})
		if merged == nil || merged.Type != "pets" {
			t.Error("merging with a nil base should keep the override")
		}
	})
}
