package engine

import (
	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
	"github.com/restpack/restpack/schema"
)

// Create validates the inbound document against the resource type, delegates
// to the adapter with a mutator applying attribute and relationship
// assignment followed by scope enforcement, and projects the created entity.
func (e *Engine) Create(rc *Context, resourceType string, doc *document.Document, opts *Options) (*document.Pack, error) {
	def, err := e.definition(resourceType)
	if err != nil {
		return nil, err
	}
	opts = normalized(opts)

	if pack, done, err := e.override(rc, def, &request.ActionRequest{
		Action:   "create",
		Document: doc,
		Options:  opts,
	}); done {
		return pack, err
	}

	if err := validateDocument(def, doc); err != nil {
		return nil, err
	}

	entity, err := def.Adapter.Create(rc.Context(), func(entity interface{}) error {
		if doc.ID != "" {
			if err := e.assignID(rc, def, entity, doc.ID); err != nil {
				return err
			}
		}
		if err := e.assignDocument(rc, def, entity, doc, schema.WriteCreate, opts); err != nil {
			return err
		}
		return ensureScope(rc, def, entity)
	})
	if err != nil {
		return nil, err
	}

	created, err := e.toDocument(rc, def, entity, opts)
	if err != nil {
		return nil, err
	}

	pack := document.NewPack(created)
	pack.MergeMeta(def.Meta)
	return pack, nil
}

// assignID writes a client-supplied id onto a fresh entity through the id
// attribute's setter chain.
func (e *Engine) assignID(rc *Context, def *schema.Definition, entity interface{}, id string) error {
	idAttr := def.IDAttributeName()
	if attr, ok := def.Attributes[idAttr]; ok && attr.Set != nil {
		return attr.Set(rc, entity, id)
	}
	if accessor, ok := def.Adapter.(adapter.AttributeAccessor); ok {
		return accessor.SetAttribute(entity, idAttr, id)
	}
	return bareSet(entity, idAttr, id)
}

// validateDocument checks the inbound document's shape against the target
// resource. A type mismatch is a conflict, raised before any mutation.
func validateDocument(def *schema.Definition, doc *document.Document) error {
	if doc == nil {
		return BadRequest("request carries no document")
	}
	if doc.Type != def.Type {
		return Conflict("document type %s does not match resource %s", doc.Type, def.Type)
	}
	return nil
}
