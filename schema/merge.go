package schema

// Merge combines a base definition with an override, returning a new
// definition. Scalars from the override win when set; map entries are merged
// key-wise with the override taking precedence. Neither input is mutated, so
// shared base definitions stay safe to reuse.
func Merge(base, override *Definition) *Definition {
	if base == nil && override == nil {
		return nil
	}
	if base == nil {
		base = &Definition{}
	}
	if override == nil {
		override = &Definition{}
	}

	out := &Definition{
		Type:        pick(override.Type, base.Type),
		Plural:      pick(override.Plural, base.Plural),
		Singular:    pick(override.Singular, base.Singular),
		IDAttribute: pick(override.IDAttribute, base.IDAttribute),
		PageSize:    base.PageSize,
		Adapter:     base.Adapter,
		Scope:       base.Scope,
	}
	if override.PageSize > 0 {
		out.PageSize = override.PageSize
	}
	if override.Adapter != nil {
		out.Adapter = override.Adapter
	}
	if override.Scope != nil {
		out.Scope = override.Scope
	}

	out.Attributes = mergeMaps(base.Attributes, override.Attributes, mergeAttribute)
	out.Relationships = mergeMaps(base.Relationships, override.Relationships, mergeRelationship)
	out.Labels = mergeMaps(base.Labels, override.Labels, nil)
	out.Sorts = mergeMaps(base.Sorts, override.Sorts, nil)
	out.Filters = mergeMaps(base.Filters, override.Filters, nil)
	out.Singletons = mergeMaps(base.Singletons, override.Singletons, nil)
	out.CollectionActions = mergeMaps(base.CollectionActions, override.CollectionActions, nil)
	out.DocumentActions = mergeMaps(base.DocumentActions, override.DocumentActions, nil)
	out.Overrides = mergeMaps(base.Overrides, override.Overrides, nil)

	if len(base.Meta) > 0 || len(override.Meta) > 0 {
		out.Meta = make(map[string]interface{}, len(base.Meta)+len(override.Meta))
		for k, v := range base.Meta {
			out.Meta[k] = v
		}
		for k, v := range override.Meta {
			out.Meta[k] = v
		}
	}

	return out
}

// mergeAttribute fills unset functional fields of the override from the base,
// so a declarative override (flags only) keeps the base's getters and setters.
func mergeAttribute(base, override *Attribute) *Attribute {
	merged := *override
	if merged.Name == "" {
		merged.Name = base.Name
	}
	if merged.Get == nil {
		merged.Get = base.Get
	}
	if merged.Set == nil {
		merged.Set = base.Set
	}
	if merged.If == nil {
		merged.If = base.If
	}
	if merged.Writable == nil {
		merged.Writable = base.Writable
	}
	return &merged
}

func mergeRelationship(base, override *Relationship) *Relationship {
	merged := *override
	if merged.Name == "" {
		merged.Name = base.Name
	}
	if merged.Target == "" {
		merged.Target = base.Target
	}
	if merged.Get == nil {
		merged.Get = base.Get
	}
	if merged.Set == nil {
		merged.Set = base.Set
	}
	if merged.If == nil {
		merged.If = base.If
	}
	return &merged
}

func pick(override, base string) string {
	if override != "" {
		return override
	}
	return base
}

// mergeMaps merges two maps key-wise. When both carry a key and combine is
// non-nil, combine(base, override) decides the merged value; otherwise the
// override entry wins.
func mergeMaps[V any](base, override map[string]V, combine func(base, override V) V) map[string]V {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]V, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if existing, ok := out[k]; ok && combine != nil {
			out[k] = combine(existing, v)
		} else {
			out[k] = v
		}
	}
	return out
}
