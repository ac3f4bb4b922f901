package engine

import (
	"errors"

	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
)

// Show fetches a single entity by id or named singleton within scope,
// projects it, and expands requested includes.
func (e *Engine) Show(rc *Context, resourceType string, loc Locator, opts *Options) (*document.Pack, error) {
	def, err := e.definition(resourceType)
	if err != nil {
		return nil, err
	}
	opts = normalized(opts)

	if pack, done, err := e.override(rc, def, &request.ActionRequest{
		Action:  "show",
		ID:      loc.ID,
		Locator: loc,
		Options: opts,
	}); done {
		return pack, err
	}

	q, err := e.scopedQuery(rc, def)
	if err != nil {
		return nil, err
	}

	var entity interface{}
	if loc.Singleton != "" {
		lookup, ok := def.Singletons[loc.Singleton]
		if !ok {
			return nil, NotFound("unknown singleton %s on resource %s", loc.Singleton, def.Type)
		}
		entity, err = lookup(rc, q)
		if err != nil {
			return nil, err
		}
		if entity == nil {
			return nil, NotFound("singleton %s on resource %s has no entity", loc.Singleton, def.Type)
		}
	} else {
		entity, err = def.Adapter.Get(rc.Context(), q, loc.ID)
		if err != nil {
			if errors.Is(err, adapter.ErrNotFound) {
				return nil, NotFound("resource %s with id %s not found", def.Type, loc.ID)
			}
			return nil, err
		}
	}

	doc, err := e.toDocument(rc, def, entity, opts)
	if err != nil {
		return nil, err
	}

	pack := document.NewPack(doc)
	if err := e.resolveIncludes(rc, def, pack, document.Collection{doc}, opts); err != nil {
		return nil, err
	}
	pack.MergeMeta(def.Meta)
	return pack, nil
}
