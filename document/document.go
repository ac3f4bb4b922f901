// Package document defines the serializable document graph produced by the
// resource engine: documents, relationships, linkages, and the Pack envelope
// that wraps a response.
package document

import (
	"encoding/json"
	"fmt"
)

// Linkage is the minimal cross-reference to another resource's identity.
type Linkage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// String returns the linkage in "type:id" form, used for log output and map keys.
func (l Linkage) String() string {
	return fmt.Sprintf("%s:%s", l.Type, l.ID)
}

// Relationship is a named edge from a document to one (singular) or many
// (plural) linkages. Construct with ToOne or ToMany so that a singular
// relationship can never carry array data and a plural one always does.
type Relationship struct {
	plural bool
	one    *Linkage
	many   []Linkage

	Meta map[string]interface{}
}

// ToOne creates a singular relationship. A nil linkage serializes as null data.
func ToOne(l *Linkage) *Relationship {
	return &Relationship{one: l}
}

// ToMany creates a plural relationship. A nil slice serializes as an empty array.
func ToMany(ls []Linkage) *Relationship {
	if ls == nil {
		ls = []Linkage{}
	}
	return &Relationship{plural: true, many: ls}
}

// Plural reports whether the relationship carries array data.
func (r *Relationship) Plural() bool {
	return r.plural
}

// One returns the singular linkage, or nil for empty or plural relationships.
func (r *Relationship) One() *Linkage {
	return r.one
}

// Many returns the plural linkages; nil for singular relationships.
func (r *Relationship) Many() []Linkage {
	return r.many
}

// Linkages returns every linkage the relationship carries, regardless of plurality.
func (r *Relationship) Linkages() []Linkage {
	if r.plural {
		return r.many
	}
	if r.one == nil {
		return nil
	}
	return []Linkage{*r.one}
}

// MarshalJSON serializes the relationship as {"data": ..., "meta": ...} with
// data being a single linkage, null, or an array.
func (r *Relationship) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 2)
	if r.plural {
		out["data"] = r.many
	} else if r.one != nil {
		out["data"] = r.one
	} else {
		out["data"] = nil
	}
	if len(r.Meta) > 0 {
		out["meta"] = r.Meta
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses a {"data": ..., "meta": ...} relationship envelope.
// Array data yields a plural relationship, an object a singular one, and
// null or absent data an empty singular one.
func (r *Relationship) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data json.RawMessage        `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch {
	case len(raw.Data) == 0 || string(raw.Data) == "null":
		*r = *ToOne(nil)
	case raw.Data[0] == '[':
		var many []Linkage
		if err := json.Unmarshal(raw.Data, &many); err != nil {
			return err
		}
		*r = *ToMany(many)
	default:
		var one Linkage
		if err := json.Unmarshal(raw.Data, &one); err != nil {
			return err
		}
		*r = *ToOne(&one)
	}
	r.Meta = raw.Meta
	return nil
}

// Document is the serializable projection of one entity.
type Document struct {
	Type          string                   `json:"type"`
	ID            string                   `json:"id"`
	Attributes    map[string]interface{}   `json:"attributes,omitempty"`
	Relationships map[string]*Relationship `json:"relationships,omitempty"`
	Meta          map[string]interface{}   `json:"meta,omitempty"`
}

// Identity returns the document's linkage.
func (d *Document) Identity() Linkage {
	return Linkage{Type: d.Type, ID: d.ID}
}

// Relationship returns the named relationship, or nil if the document does not
// carry it.
func (d *Document) Relationship(name string) *Relationship {
	if d.Relationships == nil {
		return nil
	}
	return d.Relationships[name]
}

// Collection is an ordered sequence of documents. Order is response order.
type Collection []*Document

// Identities returns the linkages of every document in the collection.
func (c Collection) Identities() []Linkage {
	out := make([]Linkage, len(c))
	for i, d := range c {
		out[i] = d.Identity()
	}
	return out
}
