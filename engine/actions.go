package engine

import (
	"errors"

	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
)

// CollectionAction dispatches a resource-declared custom action over the
// scoped collection query.
func (e *Engine) CollectionAction(rc *Context, resourceType, name string, payload interface{}, opts *Options) (*document.Pack, error) {
	def, err := e.definition(resourceType)
	if err != nil {
		return nil, err
	}
	opts = normalized(opts)

	if pack, done, err := e.override(rc, def, &request.ActionRequest{
		Action:  name,
		Payload: payload,
		Options: opts,
	}); done {
		return pack, err
	}

	action, ok := def.CollectionActions[name]
	if !ok {
		return nil, NotFound("unknown collection action %s on resource %s", name, def.Type)
	}

	q, err := e.scopedQuery(rc, def)
	if err != nil {
		return nil, err
	}

	pack, err := action(rc, q, payload)
	if err != nil {
		return nil, err
	}
	if pack != nil {
		pack.MergeMeta(def.Meta)
	}
	return pack, nil
}

// DocumentAction locates an entity within scope and dispatches a
// resource-declared custom action on it.
func (e *Engine) DocumentAction(rc *Context, resourceType, id, name string, payload interface{}, opts *Options) (*document.Pack, error) {
	def, err := e.definition(resourceType)
	if err != nil {
		return nil, err
	}
	opts = normalized(opts)

	if pack, done, err := e.override(rc, def, &request.ActionRequest{
		Action:  name,
		ID:      id,
		Payload: payload,
		Options: opts,
	}); done {
		return pack, err
	}

	action, ok := def.DocumentActions[name]
	if !ok {
		return nil, NotFound("unknown document action %s on resource %s", name, def.Type)
	}

	q, err := e.scopedQuery(rc, def)
	if err != nil {
		return nil, err
	}
	entity, err := def.Adapter.Get(rc.Context(), q, id)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return nil, NotFound("resource %s with id %s not found", def.Type, id)
		}
		return nil, err
	}

	pack, err := action(rc, entity, payload)
	if err != nil {
		return nil, err
	}
	if pack != nil {
		pack.MergeMeta(def.Meta)
	}
	return pack, nil
}
