// Package engine implements the resource engine: entity-to-document
// projection, scope enforcement, compound-include resolution, pagination
// metadata, and the CRUD/custom-action orchestration over a pluggable
// persistence adapter.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
	"github.com/restpack/restpack/schema"
)

// Context carries the request context and named parameters. It is the request
// package's Context, re-exported for callers of the engine.
type Context = request.Context

// Options is the per-action options bag.
type Options = request.Options

// Locator addresses a single entity.
type Locator = request.Locator

// Selector addresses a subset of a collection.
type Selector = request.Selector

// NewContext wraps ctx with the given named request parameters.
func NewContext(ctx context.Context, params map[string]interface{}) *Context {
	return request.NewContext(ctx, params)
}

// ByID locates an entity by its id.
func ByID(id string) Locator { return request.ByID(id) }

// BySingleton locates an entity through a named singleton lookup.
func BySingleton(name string) Locator { return request.BySingleton(name) }

// Engine orchestrates requests against the registered resources. It holds no
// per-request state; each action call composes fresh scope, projection,
// include, and pagination work over the shared immutable registry.
type Engine struct {
	registry *schema.Registry
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an engine over the given resource registry.
func New(registry *schema.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's resource registry.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// definition resolves a resource type or fails with a not-found error.
func (e *Engine) definition(resourceType string) (*schema.Definition, error) {
	def, ok := e.registry.Get(resourceType)
	if !ok {
		return nil, NotFound("resource %s is not registered", resourceType)
	}
	return def, nil
}

// override dispatches a configured action override. The bool result reports
// whether the override consumed the action.
func (e *Engine) override(rc *Context, def *schema.Definition, req *request.ActionRequest) (*document.Pack, bool, error) {
	ov := def.Override(req.Action)
	if ov == nil {
		return nil, false, nil
	}
	if ov.Disabled {
		return nil, true, NotAvailable("action %s is not available on resource %s", req.Action, def.Type)
	}
	if ov.Handle != nil {
		e.logger.Debug("dispatching action override",
			zap.String("resource", def.Type),
			zap.String("action", req.Action))
		pack, err := ov.Handle(rc, req)
		return pack, true, err
	}
	return nil, false, nil
}

// selectorQuery builds a query for a list-shaped selector. The scope runs
// first on every construction so user-controlled criteria can only narrow the
// authorized subset; the order thereafter is filters, search, label, sorts.
func (e *Engine) selectorQuery(rc *Context, def *schema.Definition, sel *Selector) (adapter.Query, error) {
	q, err := e.scopedQuery(rc, def)
	if err != nil {
		return nil, err
	}

	if sel == nil {
		return q, nil
	}

	for name, values := range sel.Filters {
		filter, ok := def.Filters[name]
		if !ok {
			return nil, BadRequest("unknown filter %s on resource %s", name, def.Type)
		}
		if q, err = filter(rc, q, values); err != nil {
			return nil, err
		}
	}

	if sel.Search != "" {
		q = def.Adapter.ApplySearch(q, sel.Search)
	}

	if sel.Label != "" {
		label, ok := def.Labels[sel.Label]
		if !ok {
			return nil, NotFound("unknown label %s on resource %s", sel.Label, def.Type)
		}
		if q, err = label(rc, q); err != nil {
			return nil, err
		}
	}

	for _, name := range sel.Sorts {
		sort, ok := def.Sorts[name]
		if !ok {
			return nil, BadRequest("unknown sort %s on resource %s", name, def.Type)
		}
		if q, err = sort(rc, q); err != nil {
			return nil, err
		}
	}

	return q, nil
}
