package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// definitionFile is the YAML shape of the declarative subset of a resource
// definition. Getters, setters, predicates, scopes, and actions are code-only
// and are supplied by merging with a code-built definition.
type definitionFile struct {
	Type        string                      `yaml:"type"`
	Plural      string                      `yaml:"plural"`
	Singular    string                      `yaml:"singular"`
	IDAttribute string                      `yaml:"id_attribute"`
	PageSize    int                         `yaml:"page_size"`
	Attributes  map[string]attributeFile    `yaml:"attributes"`
	Relations   map[string]relationshipFile `yaml:"relationships"`
	Meta        map[string]interface{}      `yaml:"meta"`
}

type attributeFile struct {
	ReadOnly   bool `yaml:"read_only"`
	CreateOnly bool `yaml:"create_only"`
	Detail     bool `yaml:"detail"`
}

type relationshipFile struct {
	Target  string `yaml:"target"`
	Plural  bool   `yaml:"plural"`
	Detail  bool   `yaml:"detail"`
	Include string `yaml:"include"` // "", "always", or "detail"
}

// LoadDefinition parses the declarative subset of a resource definition from
// YAML. The result is typically merged over a code-built definition carrying
// the functional configuration.
func LoadDefinition(r io.Reader) (*Definition, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading definition: %w", err)
	}

	var file definitionFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing definition: %w", err)
	}
	if file.Type == "" {
		return nil, fmt.Errorf("definition has no type")
	}

	def := &Definition{
		Type:        file.Type,
		Plural:      file.Plural,
		Singular:    file.Singular,
		IDAttribute: file.IDAttribute,
		PageSize:    file.PageSize,
		Meta:        file.Meta,
	}

	if len(file.Attributes) > 0 {
		def.Attributes = make(map[string]*Attribute, len(file.Attributes))
		for name, a := range file.Attributes {
			attr := &Attribute{Name: name, Detail: a.Detail}
			switch {
			case a.ReadOnly:
				attr.Writable = Never()
			case a.CreateOnly:
				attr.Writable = CreateOnly()
			}
			def.Attributes[name] = attr
		}
	}

	if len(file.Relations) > 0 {
		def.Relationships = make(map[string]*Relationship, len(file.Relations))
		for name, rf := range file.Relations {
			rel := &Relationship{
				Name:   name,
				Target: rf.Target,
				Plural: rf.Plural,
				Detail: rf.Detail,
			}
			switch rf.Include {
			case "":
				rel.Include = IncludeNever
			case "always":
				rel.Include = IncludeAlways
			case "detail":
				rel.Include = IncludeDetail
			default:
				return nil, fmt.Errorf("relationship %s: unknown include policy %q", name, rf.Include)
			}
			def.Relationships[name] = rel
		}
	}

	return def, nil
}

// LoadDefinitionFile reads a declarative definition from disk.
func LoadDefinitionFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening definition file: %w", err)
	}
	defer f.Close()
	return LoadDefinition(f)
}
