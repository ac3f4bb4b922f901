package engine

import (
	"errors"

	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
	"github.com/restpack/restpack/schema"
)

// Replace fully rebinds an existing entity from the inbound document:
// writable attributes absent from the document are cleared.
func (e *Engine) Replace(rc *Context, resourceType, id string, doc *document.Document, opts *Options) (*document.Pack, error) {
	return e.mutate(rc, resourceType, id, doc, opts, "replace", schema.WriteReplace)
}

// Update assigns only the fields the inbound document supplies.
func (e *Engine) Update(rc *Context, resourceType, id string, doc *document.Document, opts *Options) (*document.Pack, error) {
	return e.mutate(rc, resourceType, id, doc, opts, "update", schema.WriteUpdate)
}

func (e *Engine) mutate(rc *Context, resourceType, id string, doc *document.Document, opts *Options, action string, mode schema.WriteMode) (*document.Pack, error) {
	def, err := e.definition(resourceType)
	if err != nil {
		return nil, err
	}
	opts = normalized(opts)

	if pack, done, err := e.override(rc, def, &request.ActionRequest{
		Action:   action,
		ID:       id,
		Document: doc,
		Options:  opts,
	}); done {
		return pack, err
	}

	if err := validateDocument(def, doc); err != nil {
		return nil, err
	}
	if doc.ID != "" && doc.ID != id {
		return nil, Conflict("document id %s does not match endpoint id %s", doc.ID, id)
	}

	// Load within scope before mutating, so an out-of-scope id 404s exactly
	// like a missing one.
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

	mutator := func(entity interface{}) error {
		if err := e.assignDocument(rc, def, entity, doc, mode, opts); err != nil {
			return err
		}
		return ensureScope(rc, def, entity)
	}

	var mutated interface{}
	if mode == schema.WriteReplace {
		mutated, err = def.Adapter.Replace(rc.Context(), entity, mutator)
	} else {
		mutated, err = def.Adapter.Update(rc.Context(), entity, mutator)
	}
	if err != nil {
		return nil, err
	}

	out, err := e.toDocument(rc, def, mutated, opts)
	if err != nil {
		return nil, err
	}

	pack := document.NewPack(out)
	pack.MergeMeta(def.Meta)
	return pack, nil
}
