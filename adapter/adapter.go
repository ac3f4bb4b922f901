// Package adapter defines the persistence boundary of the resource engine.
// An Adapter supplies raw entities and translates abstract filter, sort,
// search, and pagination operations into real queries. The engine treats the
// Query value as opaque and immutable by convention: every Apply* call
// returns a new Query rather than mutating its receiver.
package adapter

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no entity matches the given id within
// the query's bounds.
var ErrNotFound = errors.New("entity not found")

// Query is an opaque, adapter-defined value threaded through scope, filter,
// sort, and pagination modifiers.
type Query interface{}

// ListParams carries per-call execution options for List. Pagination bounds
// travel inside the query itself via ApplyPagination.
type ListParams struct {
	// Totals asks the adapter to count the full, unpaginated result set.
	Totals bool
}

// ListResult is the outcome of a List call. Total is nil when the adapter was
// not asked for, or cannot produce, a full count.
type ListResult struct {
	Data  []interface{}
	Total *int
}

// Mutator is the write callback handed to Create, Update, and Replace. The
// adapter supplies the entity (fresh for Create, the loaded one otherwise)
// and persists it after the mutator returns without error.
type Mutator func(entity interface{}) error

// Adapter is the pluggable persistence contract. One adapter instance serves
// one resource type.
type Adapter interface {
	// NewQuery returns an unconstrained query over the adapter's resource.
	NewQuery(ctx context.Context) Query

	// ApplyFilter narrows the query to entities whose field matches any of
	// the given values.
	ApplyFilter(q Query, field string, values []interface{}) Query

	// ClearFilters drops all filters from the query.
	ClearFilters(q Query) Query

	// ApplySort appends an ordering on field; desc reverses it.
	ApplySort(q Query, field string, desc bool) Query

	// ClearSorts drops all orderings from the query.
	ClearSorts(q Query) Query

	// ApplySearch narrows the query with a free-text search term. Adapters
	// that cannot search may return the query unchanged.
	ApplySearch(q Query, term string) Query

	// ApplyPagination bounds the query to limit entities starting at offset.
	ApplyPagination(q Query, offset, limit int) Query

	// List executes the query and returns matching entities.
	List(ctx context.Context, q Query, params ListParams) (*ListResult, error)

	// Get returns the single entity with the given id within the query's
	// bounds, or ErrNotFound.
	Get(ctx context.Context, q Query, id string) (interface{}, error)

	// Create allocates a fresh entity, applies the mutator, and persists it.
	Create(ctx context.Context, mutate Mutator) (interface{}, error)

	// Update applies the mutator to the previously loaded entity and persists
	// the changed fields.
	Update(ctx context.Context, entity interface{}, mutate Mutator) (interface{}, error)

	// Replace applies the mutator to the previously loaded entity and persists
	// it wholesale.
	Replace(ctx context.Context, entity interface{}, mutate Mutator) (interface{}, error)

	// Delete removes every entity matching the query and returns the removed
	// entities. A query matching nothing returns an empty slice, not an error.
	Delete(ctx context.Context, q Query) ([]interface{}, error)
}

// AttributeAccessor is an optional reflection hook. When an adapter implements
// it, the engine prefers it over the bare-property fallback for attributes
// that have no explicit getter or setter configured.
type AttributeAccessor interface {
	GetAttribute(entity interface{}, name string) (interface{}, bool)
	SetAttribute(entity interface{}, name string, value interface{}) error
}

// RelationshipAccessor is the relationship counterpart of AttributeAccessor.
type RelationshipAccessor interface {
	GetRelationship(entity interface{}, name string) (interface{}, bool)
}
