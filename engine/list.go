package engine

import (
	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/request"
)

// List fetches the authorized, filtered, sorted, paginated collection of a
// resource, expands requested includes, and annotates pagination metadata.
func (e *Engine) List(rc *Context, resourceType string, sel *Selector, opts *Options) (*document.Pack, error) {
	def, err := e.definition(resourceType)
	if err != nil {
		return nil, err
	}
	opts = normalized(opts)
	if sel == nil {
		sel = &Selector{}
	}

	if pack, done, err := e.override(rc, def, &request.ActionRequest{
		Action:   "list",
		Selector: sel,
		Options:  opts,
	}); done {
		return pack, err
	}

	q, err := e.selectorQuery(rc, def, sel)
	if err != nil {
		return nil, err
	}

	// Forced pagination default: an unbounded list never reaches the adapter.
	offset := 0
	if sel.Offset != nil {
		if *sel.Offset < 0 {
			return nil, BadRequest("offset must not be negative")
		}
		offset = *sel.Offset
	}
	limit := def.DefaultLimit()
	if sel.Limit != nil {
		if *sel.Limit <= 0 {
			return nil, BadRequest("limit must be positive")
		}
		limit = *sel.Limit
	}
	q = def.Adapter.ApplyPagination(q, offset, limit)

	result, err := def.Adapter.List(rc.Context(), q, adapter.ListParams{Totals: opts.Totals})
	if err != nil {
		return nil, err
	}

	collection, err := e.toCollection(rc, def, result.Data, opts)
	if err != nil {
		return nil, err
	}

	pack := document.NewPack(collection)
	if err := e.resolveIncludes(rc, def, pack, collection, opts); err != nil {
		return nil, err
	}

	pack.SetMeta("page", pageMeta(len(collection), offset, result.Total))
	pack.MergeMeta(def.Meta)
	return pack, nil
}

// normalized makes a nil options bag safe to read.
func normalized(opts *Options) *Options {
	if opts == nil {
		return &Options{}
	}
	return opts
}
