package engine

import (
	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
)

// Delete removes the entities a bulk selector addresses, either by explicit
// ids or by filter/search criteria, never both. The scope bounds the deletion
// regardless of how the selector was expressed. The response carries the
// linkages of the deleted entities and a deletedCount; matching nothing is a
// success with an empty array.
func (e *Engine) Delete(rc *Context, resourceType string, sel *Selector, opts *Options) (*document.Pack, error) {
	def, err := e.definition(resourceType)
	if err != nil {
		return nil, err
	}
	opts = normalized(opts)
	if sel == nil {
		sel = &Selector{}
	}

	if pack, done, err := e.override(rc, def, &request.ActionRequest{
		Action:   "delete",
		Selector: sel,
		Options:  opts,
	}); done {
		return pack, err
	}

	hasIDs := len(sel.IDs) > 0
	if hasIDs && sel.HasCriteria() {
		return nil, BadRequest("delete selector cannot mix explicit ids with filter or search criteria")
	}
	if !hasIDs && !sel.HasCriteria() {
		return nil, BadRequest("delete selector requires explicit ids or filter/search criteria")
	}

	var q adapter.Query
	if hasIDs {
		if q, err = e.scopedQuery(rc, def); err != nil {
			return nil, err
		}
		values := make([]interface{}, len(sel.IDs))
		for i, id := range sel.IDs {
			values[i] = id
		}
		q = def.Adapter.ApplyFilter(q, def.IDAttributeName(), values)
	} else {
		criteria := &Selector{Filters: sel.Filters, Search: sel.Search}
		if q, err = e.selectorQuery(rc, def, criteria); err != nil {
			return nil, err
		}
	}

	deleted, err := def.Adapter.Delete(rc.Context(), q)
	if err != nil {
		return nil, err
	}

	linkages := make([]document.Linkage, 0, len(deleted))
	for _, entity := range deleted {
		id, err := e.entityID(rc, def, entity)
		if err != nil {
			return nil, err
		}
		linkages = append(linkages, document.Linkage{Type: def.Type, ID: id})
	}

	pack := document.NewPack(linkages)
	pack.SetMeta("deletedCount", len(linkages))
	pack.MergeMeta(def.Meta)
	return pack, nil
}
