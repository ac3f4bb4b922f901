package engine

import (
	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/schema"
)

// scopedQuery builds a fresh query for the resource and immediately narrows
// it with the resource's scope. Every query the engine constructs goes
// through here before any user-controlled modifier touches it, including the
// queries feeding include resolution and load-before-mutate reads.
func (e *Engine) scopedQuery(rc *Context, def *schema.Definition) (adapter.Query, error) {
	q := def.Adapter.NewQuery(rc.Context())
	if def.Scope == nil || def.Scope.Apply == nil {
		return q, nil
	}
	return def.Scope.Apply(rc, q)
}

// ensureScope reasserts the scope's ownership fields on a mutated entity. It
// runs after attribute and relationship assignment so that when the client
// attempted to set a scope-identifying field, the scope's value wins.
func ensureScope(rc *Context, def *schema.Definition, entity interface{}) error {
	if def.Scope == nil || def.Scope.Ensure == nil {
		return nil
	}
	return def.Scope.Ensure(rc, entity)
}
