// Package request defines the request-side types shared by resource
// configuration and the engine: the request context, action options, and the
// locator/selector values that address entities.
package request

import (
	"context"

	"github.com/restpack/restpack/document"
)

// Context carries one request's deadline-bearing context.Context plus the
// arbitrary named parameters the transport layer extracted (route params,
// authenticated principal, tenant id). Every configured modifier and handler
// receives it explicitly.
type Context struct {
	ctx    context.Context
	params map[string]interface{}
}

// NewContext wraps ctx with the given named parameters. A nil params map is
// treated as empty.
func NewContext(ctx context.Context, params map[string]interface{}) *Context {
	if params == nil {
		params = make(map[string]interface{})
	}
	return &Context{ctx: ctx, params: params}
}

// Context returns the underlying context.Context for adapter calls.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Param returns the named request parameter, or nil.
func (c *Context) Param(name string) interface{} {
	return c.params[name]
}

// ParamString returns the named parameter as a string; the empty string when
// absent or not a string.
func (c *Context) ParamString(name string) string {
	s, _ := c.params[name].(string)
	return s
}

// Options is the per-action options bag.
type Options struct {
	// Include lists the compound-include path expressions, each a "+"-joined
	// chain of relationship names.
	Include []string
	// Detail requests the detail view, unsuppressing detail-gated attributes
	// and relationships.
	Detail bool
	// Totals asks list actions for a full result count so pagination metadata
	// can carry first/last flags.
	Totals bool
}

// Locator addresses a single entity: by id, or by a resource-declared named
// singleton lookup. Exactly one of the two fields is set.
type Locator struct {
	ID        string
	Singleton string
}

// ByID locates an entity by its id.
func ByID(id string) Locator {
	return Locator{ID: id}
}

// BySingleton locates an entity through a named singleton lookup.
func BySingleton(name string) Locator {
	return Locator{Singleton: name}
}

// Selector addresses a subset of a collection for list and bulk-delete
// actions. For delete, IDs and filter/search criteria are mutually exclusive.
type Selector struct {
	IDs     []string
	Filters map[string][]interface{}
	Search  string
	Label   string
	Sorts   []string
	Offset  *int
	Limit   *int
}

// HasCriteria reports whether the selector carries any filter or search
// criteria (as opposed to explicit ids).
func (s *Selector) HasCriteria() bool {
	return len(s.Filters) > 0 || s.Search != ""
}

// ActionRequest is the full request handed to a resource-level action
// override. Fields irrelevant to the overridden action are zero.
type ActionRequest struct {
	Action   string
	ID       string
	Document *document.Document
	Payload  interface{}
	Selector *Selector
	Locator  Locator
	Options  *Options
}
