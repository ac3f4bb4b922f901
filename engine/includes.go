package engine

import (
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/schema"
)

// includeResolver builds the compound "included" set for one request. It owns
// a memo of every (type, id) already materialized, seeded with the primary
// response so primary data is never duplicated into included, and a per-type
// guard against mutually auto-including resources amplifying each other.
type includeResolver struct {
	eng       *Engine
	rc        *Context
	opts      *Options
	collected map[document.Linkage]struct{}
	expanded  map[string]struct{}
	included  document.Collection
}

func (e *Engine) newIncludeResolver(rc *Context, opts *Options) *includeResolver {
	return &includeResolver{
		eng:       e,
		rc:        rc,
		opts:      opts,
		collected: make(map[document.Linkage]struct{}),
		expanded:  make(map[string]struct{}),
	}
}

// resolveIncludes expands the requested include expressions for the seed
// documents and attaches the result to the pack.
func (e *Engine) resolveIncludes(rc *Context, def *schema.Definition, pack *document.Pack, seeds document.Collection, opts *Options) error {
	resolver := e.newIncludeResolver(rc, opts)
	included, err := resolver.collect(def, seeds, opts.Include)
	if err != nil {
		return err
	}
	pack.Included = included
	return nil
}

// collect walks every include expression over the seed set. Expressions are
// processed left to right, path segments in order; results are deduplicated
// by (type, id) across expressions. Cycle safety falls out of the memo:
// already-collected entities are excluded from every fetch, so the frontier
// of a fully-visited branch empties and the walk bottoms out.
func (r *includeResolver) collect(def *schema.Definition, seeds document.Collection, expressions []string) (document.Collection, error) {
	for _, doc := range seeds {
		r.collected[doc.Identity()] = struct{}{}
	}

	// The requested slice belongs to the caller; never append into its
	// backing array.
	expressions = append(append([]string(nil), expressions...), r.autoIncludes(def, "")...)

	for _, expr := range expressions {
		if expr == "" {
			continue
		}
		if err := r.walk(seeds, strings.Split(expr, "+")); err != nil {
			return nil, err
		}
	}
	return r.included, nil
}

// autoIncludes collects the include expressions the resource configuration
// forces, prefixed to record path depth, expanding transitively into target
// resources. The expanded set caps mutual auto-includes at one visit per
// resource type per request.
func (r *includeResolver) autoIncludes(def *schema.Definition, prefix string) []string {
	if _, done := r.expanded[def.Type]; done {
		return nil
	}
	r.expanded[def.Type] = struct{}{}

	names := make([]string, 0, len(def.Relationships))
	for name := range def.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		rel := def.Relationships[name]
		if !rel.AutoIncluded(r.opts.Detail) {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "+" + name
		}
		out = append(out, path)
		if rel.Target == "" {
			continue
		}
		if target, ok := r.eng.registry.Get(rel.Target); ok {
			out = append(out, r.autoIncludes(target, path)...)
		}
	}
	return out
}

// walk resolves one path segment across the whole frontier, batching one
// adapter list per target type rather than one per document, then recurses
// into the tail with the freshly fetched documents as the new frontier.
func (r *includeResolver) walk(frontier document.Collection, segments []string) error {
	if len(segments) == 0 || len(frontier) == 0 {
		return nil
	}
	name := segments[0]

	// Flatten linkages across the frontier, grouped by target type, skipping
	// everything already collected. A document without the named relationship
	// is ignored: the path may be valid for other types reachable through
	// polymorphic relationships.
	idsByType := make(map[string][]string)
	seen := make(map[document.Linkage]struct{})
	for _, doc := range frontier {
		rel := doc.Relationship(name)
		if rel == nil {
			r.eng.logger.Debug("include path not present on document, ignoring",
				zap.String("relationship", name),
				zap.String("document", doc.Identity().String()))
			continue
		}
		for _, l := range rel.Linkages() {
			if _, collected := r.collected[l]; collected {
				continue
			}
			if _, dup := seen[l]; dup {
				continue
			}
			seen[l] = struct{}{}
			idsByType[l.Type] = append(idsByType[l.Type], l.ID)
		}
	}

	types := make([]string, 0, len(idsByType))
	for t := range idsByType {
		types = append(types, t)
	}
	sort.Strings(types)

	// Per-type fetches target disjoint buckets, so they run concurrently;
	// appending in sorted-type order keeps the output deterministic.
	fetched := make([]document.Collection, len(types))
	var g errgroup.Group
	for i, t := range types {
		i, t := i, t
		g.Go(func() error {
			docs, err := r.fetch(t, idsByType[t])
			if err != nil {
				return err
			}
			fetched[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var next document.Collection
	for _, docs := range fetched {
		for _, doc := range docs {
			identity := doc.Identity()
			if _, dup := r.collected[identity]; dup {
				continue
			}
			r.collected[identity] = struct{}{}
			r.included = append(r.included, doc)
			next = append(next, doc)
		}
	}

	return r.walk(next, segments[1:])
}

// fetch materializes the documents of one target type by id, through a
// freshly scoped, id-filtered, unpaginated query.
func (r *includeResolver) fetch(resourceType string, ids []string) (document.Collection, error) {
	def, ok := r.eng.registry.Get(resourceType)
	if !ok {
		r.eng.logger.Debug("include target type not registered, ignoring",
			zap.String("type", resourceType))
		return nil, nil
	}

	q, err := r.eng.scopedQuery(r.rc, def)
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	q = def.Adapter.ApplyFilter(q, def.IDAttributeName(), values)

	result, err := def.Adapter.List(r.rc.Context(), q, adapter.ListParams{})
	if err != nil {
		return nil, err
	}

	return r.eng.toCollection(r.rc, def, result.Data, r.opts)
}
