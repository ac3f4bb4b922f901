// Package schema provides the static, author-supplied configuration for each
// resource type and a registry for managing the configured set. Definitions
// are immutable after registration.
package schema

import (
	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
)

// GetterFunc resolves a value off an entity.
type GetterFunc func(rc *request.Context, entity interface{}) (interface{}, error)

// SetterFunc assigns a value onto an entity.
type SetterFunc func(rc *request.Context, entity interface{}, value interface{}) error

// PredicateFunc decides availability of an attribute or relationship for the
// current request.
type PredicateFunc func(rc *request.Context, entity interface{}) (bool, error)

// WriteMode distinguishes the three mutation flows for writability rules.
type WriteMode int

const (
	// WriteCreate is attribute assignment during entity creation.
	WriteCreate WriteMode = iota
	// WriteReplace is full attribute rebinding of an existing entity.
	WriteReplace
	// WriteUpdate is partial attribute assignment of an existing entity.
	WriteUpdate
)

// String returns the string representation of the write mode.
func (m WriteMode) String() string {
	switch m {
	case WriteCreate:
		return "create"
	case WriteReplace:
		return "replace"
	case WriteUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// WritableRule decides whether an attribute accepts writes for a given mode.
// A nil rule falls back to inference: writable, unless the attribute has a
// getter but no setter.
type WritableRule func(rc *request.Context, mode WriteMode) bool

// Always returns a rule accepting writes in every mode.
func Always() WritableRule {
	return func(*request.Context, WriteMode) bool { return true }
}

// Never returns a rule rejecting all writes.
func Never() WritableRule {
	return func(*request.Context, WriteMode) bool { return false }
}

// CreateOnly returns a rule accepting writes only at creation.
func CreateOnly() WritableRule {
	return func(_ *request.Context, mode WriteMode) bool { return mode == WriteCreate }
}

// Attribute configures one document attribute: how its value is resolved,
// whether it is available and writable, and whether it is detail-gated.
type Attribute struct {
	Name string

	// Get resolves the value explicitly. When nil, the adapter's
	// AttributeAccessor hook is tried, then the bare-property fallback.
	Get GetterFunc
	// Set assigns the value explicitly, with the same fallback chain.
	Set SetterFunc
	// If gates availability per request; nil means always available.
	If PredicateFunc
	// Writable overrides write permission; nil means inferred.
	Writable WritableRule
	// Detail suppresses the attribute unless the detail view was requested.
	Detail bool
}

// IncludePolicy controls automatic compound-include of a relationship.
type IncludePolicy int

const (
	// IncludeNever leaves inclusion entirely to the caller.
	IncludeNever IncludePolicy = iota
	// IncludeAlways appends the relationship to every include set.
	IncludeAlways
	// IncludeDetail appends the relationship only under the detail view.
	IncludeDetail
)

// Relationship configures a named edge to another resource type.
type Relationship struct {
	Name string

	// Plural relationships always project array data; singular ones never do.
	Plural bool
	// Target names the linked resource type. Empty means polymorphic: the
	// getter must then yield explicit linkages, since a bare id cannot be
	// promoted without a type.
	Target string

	Get GetterFunc
	Set SetterFunc
	If  PredicateFunc

	Detail  bool
	Include IncludePolicy
}

// ScopeFunc narrows a query to the authorized subset for the request.
type ScopeFunc func(rc *request.Context, q adapter.Query) (adapter.Query, error)

// EnsureFunc reasserts scope-identifying fields on a mutated entity. It runs
// after attribute assignment and may mutate the entity in place.
type EnsureFunc func(rc *request.Context, entity interface{}) error

// Scope is the resource's security boundary: Apply narrows every query before
// any user-controlled criteria, Ensure overwrites ownership fields after
// writes so last-writer-wins favors the scope.
type Scope struct {
	Apply  ScopeFunc
	Ensure EnsureFunc
}

// FilterFunc is a named filter modifier taking caller-supplied values.
type FilterFunc func(rc *request.Context, q adapter.Query, values []interface{}) (adapter.Query, error)

// SortFunc is a named sort modifier.
type SortFunc func(rc *request.Context, q adapter.Query) (adapter.Query, error)

// LabelFunc is a named query modifier selecting a labeled subset.
type LabelFunc func(rc *request.Context, q adapter.Query) (adapter.Query, error)

// SingletonFunc resolves a named single entity from an already-scoped query.
// Returning a nil entity signals absence.
type SingletonFunc func(rc *request.Context, q adapter.Query) (interface{}, error)

// CollectionActionFunc implements a custom collection-level action. The query
// passed in is already scoped.
type CollectionActionFunc func(rc *request.Context, q adapter.Query, payload interface{}) (*document.Pack, error)

// DocumentActionFunc implements a custom document-level action on an entity
// that was located within scope.
type DocumentActionFunc func(rc *request.Context, entity interface{}, payload interface{}) (*document.Pack, error)

// HandlerFunc fully replaces a default action flow.
type HandlerFunc func(rc *request.Context, req *request.ActionRequest) (*document.Pack, error)

// Override customizes one of the engine's default actions. Disabled rejects
// the action with a not-available error; a non-nil Handle replaces the
// default flow entirely.
type Override struct {
	Disabled bool
	Handle   HandlerFunc
}

// DefaultPageSize bounds list responses when the caller supplies no limit and
// the definition declares none.
const DefaultPageSize = 25

// Definition is the static configuration of one resource type. Immutable
// after registration.
type Definition struct {
	// Type is the registry key and the document type emitted on the wire.
	Type     string
	Plural   string
	Singular string

	// IDAttribute names the attribute the entity id is resolved through.
	// Defaults to "id".
	IDAttribute string

	// Adapter is the persistence boundary serving this resource.
	Adapter adapter.Adapter

	Attributes    map[string]*Attribute
	Relationships map[string]*Relationship

	Scope *Scope

	Labels  map[string]LabelFunc
	Sorts   map[string]SortFunc
	Filters map[string]FilterFunc

	Singletons map[string]SingletonFunc

	CollectionActions map[string]CollectionActionFunc
	DocumentActions   map[string]DocumentActionFunc

	// Overrides customizes default actions, keyed by action name
	// ("list", "show", "create", "replace", "update", "delete").
	Overrides map[string]*Override

	// PageSize is the forced pagination default for list actions.
	PageSize int

	// Meta is resource-declared metadata merged into every response envelope.
	Meta map[string]interface{}
}

// IDAttributeName returns the configured id attribute, defaulting to "id".
func (d *Definition) IDAttributeName() string {
	if d.IDAttribute == "" {
		return "id"
	}
	return d.IDAttribute
}

// DefaultLimit returns the forced pagination default for this resource.
func (d *Definition) DefaultLimit() int {
	if d.PageSize > 0 {
		return d.PageSize
	}
	return DefaultPageSize
}

// Attribute returns the named attribute config.
func (d *Definition) Attribute(name string) (*Attribute, bool) {
	a, ok := d.Attributes[name]
	return a, ok
}

// RelationshipByName returns the named relationship config.
func (d *Definition) RelationshipByName(name string) (*Relationship, bool) {
	r, ok := d.Relationships[name]
	return r, ok
}

// Override returns the override configured for the named action, if any.
func (d *Definition) Override(action string) *Override {
	if d.Overrides == nil {
		return nil
	}
	return d.Overrides[action]
}

// WritableFor reports whether the attribute accepts writes for the given mode,
// applying the inference rule when no explicit rule is configured.
func (a *Attribute) WritableFor(rc *request.Context, mode WriteMode) bool {
	if a.Writable != nil {
		return a.Writable(rc, mode)
	}
	// Read-only by inference: a computed attribute with no way to write back.
	if a.Get != nil && a.Set == nil {
		return false
	}
	return true
}

// Available evaluates the availability predicate, defaulting to true.
func (a *Attribute) Available(rc *request.Context, entity interface{}) (bool, error) {
	if a.If == nil {
		return true, nil
	}
	return a.If(rc, entity)
}

// Available evaluates the availability predicate, defaulting to true.
func (r *Relationship) Available(rc *request.Context, entity interface{}) (bool, error) {
	if r.If == nil {
		return true, nil
	}
	return r.If(rc, entity)
}

// AutoIncluded reports whether the relationship is appended to the include
// set automatically for the given view.
func (r *Relationship) AutoIncluded(detail bool) bool {
	switch r.Include {
	case IncludeAlways:
		return true
	case IncludeDetail:
		return detail
	default:
		return false
	}
}
