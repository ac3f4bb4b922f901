package engine

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/restpack/restpack/adapter"
	"github.com/restpack/restpack/document"
	"github.com/restpack/restpack/schema"
)

// toDocument projects one entity into a document, honoring availability,
// detail-level, and plurality rules. It is a pure function of
// entity+definition+context; nothing is cached between calls.
func (e *Engine) toDocument(rc *Context, def *schema.Definition, entity interface{}, opts *Options) (*document.Document, error) {
	id, err := e.entityID(rc, def, entity)
	if err != nil {
		return nil, err
	}

	doc := &document.Document{
		Type:          def.Type,
		ID:            id,
		Attributes:    make(map[string]interface{}),
		Relationships: make(map[string]*document.Relationship),
	}

	for name, attr := range def.Attributes {
		if name == def.IDAttributeName() {
			continue
		}
		if attr.Detail && !opts.Detail {
			continue
		}
		available, err := attr.Available(rc, entity)
		if err != nil {
			return nil, err
		}
		if !available {
			continue
		}
		value, err := e.attributeValue(rc, def, attr, entity)
		if err != nil {
			return nil, err
		}
		doc.Attributes[name] = value
	}

	for name, rel := range def.Relationships {
		if rel.Detail && !opts.Detail {
			continue
		}
		available, err := rel.Available(rc, entity)
		if err != nil {
			return nil, err
		}
		if !available {
			continue
		}
		projected, err := e.relationshipValue(rc, def, rel, entity)
		if err != nil {
			return nil, err
		}
		doc.Relationships[name] = projected
	}

	return doc, nil
}

// toCollection projects a batch of entities in order.
func (e *Engine) toCollection(rc *Context, def *schema.Definition, entities []interface{}, opts *Options) (document.Collection, error) {
	out := make(document.Collection, 0, len(entities))
	for _, entity := range entities {
		doc, err := e.toDocument(rc, def, entity, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// entityID resolves the entity's id through the configured id attribute,
// using the same getter chain as any other attribute.
func (e *Engine) entityID(rc *Context, def *schema.Definition, entity interface{}) (string, error) {
	idAttr := def.IDAttributeName()

	var raw interface{}
	var err error
	if attr, ok := def.Attributes[idAttr]; ok && attr.Get != nil {
		raw, err = attr.Get(rc, entity)
	} else {
		raw, err = e.fallbackGet(def, entity, idAttr)
	}
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", Integrity("entity of resource %s has no %s value", def.Type, idAttr)
	}

	return stringifyID(raw), nil
}

// attributeValue resolves an attribute through the priority chain: explicit
// getter, adapter-supplied getter, bare property.
func (e *Engine) attributeValue(rc *Context, def *schema.Definition, attr *schema.Attribute, entity interface{}) (interface{}, error) {
	if attr.Get != nil {
		return attr.Get(rc, entity)
	}
	return e.fallbackGet(def, entity, attr.Name)
}

// fallbackGet reads a named value via the adapter's reflection hook when it
// implements one, then via the bare property of the entity itself.
func (e *Engine) fallbackGet(def *schema.Definition, entity interface{}, name string) (interface{}, error) {
	if accessor, ok := def.Adapter.(adapter.AttributeAccessor); ok {
		if v, found := accessor.GetAttribute(entity, name); found {
			return v, nil
		}
	}
	v, _ := bareGet(entity, name)
	return v, nil
}

// relationshipValue resolves a relationship and coerces the raw result into a
// projected relationship, enforcing plurality and promoting raw ids.
func (e *Engine) relationshipValue(rc *Context, def *schema.Definition, rel *schema.Relationship, entity interface{}) (*document.Relationship, error) {
	var raw interface{}
	var err error
	switch {
	case rel.Get != nil:
		raw, err = rel.Get(rc, entity)
	default:
		if accessor, ok := def.Adapter.(adapter.RelationshipAccessor); ok {
			if v, found := accessor.GetRelationship(entity, rel.Name); found {
				raw = v
				break
			}
		}
		raw, _ = bareGet(entity, rel.Name)
	}
	if err != nil {
		return nil, err
	}

	if rel.Plural {
		if raw == nil {
			return document.ToMany(nil), nil
		}
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, Integrity("resource %s: relationship %s is plural but does not yield an array", def.Type, rel.Name)
		}
		linkages := make([]document.Linkage, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			l, err := coerceLinkage(def, rel, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			if l != nil {
				linkages = append(linkages, *l)
			}
		}
		return document.ToMany(linkages), nil
	}

	if raw == nil {
		return document.ToOne(nil), nil
	}
	if rv := reflect.ValueOf(raw); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return nil, Integrity("resource %s: relationship %s is singular but yields an array", def.Type, rel.Name)
	}
	l, err := coerceLinkage(def, rel, raw)
	if err != nil {
		return nil, err
	}
	return document.ToOne(l), nil
}

// coerceLinkage promotes a raw relationship element to a linkage. Explicit
// linkages pass through; bare ids take the relationship's configured target
// type. A polymorphic relationship yielding a bare id is a configuration
// error, since the target type cannot be inferred.
func coerceLinkage(def *schema.Definition, rel *schema.Relationship, raw interface{}) (*document.Linkage, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case document.Linkage:
		return &v, nil
	case *document.Linkage:
		return v, nil
	}
	if rel.Target == "" {
		return nil, Integrity("resource %s: polymorphic relationship %s yields a bare id; target type cannot be inferred", def.Type, rel.Name)
	}
	return &document.Linkage{Type: rel.Target, ID: stringifyID(raw)}, nil
}

// assignDocument writes an inbound document's attributes and relationships
// onto an entity for the given write mode. Replace clears writable attributes
// absent from the document; update assigns only supplied fields. Detail-gated
// attributes are only cleared under the detail view: outside it the
// projection never showed them, so their absence from the document carries no
// intent and a projected document replaces back without change.
func (e *Engine) assignDocument(rc *Context, def *schema.Definition, entity interface{}, doc *document.Document, mode schema.WriteMode, opts *Options) error {
	idAttr := def.IDAttributeName()

	for name, value := range doc.Attributes {
		attr, ok := def.Attributes[name]
		if !ok {
			return BadRequest("unknown attribute %s on resource %s", name, def.Type)
		}
		available, err := attr.Available(rc, entity)
		if err != nil {
			return err
		}
		if !available {
			return Forbidden("attribute %s is not available on resource %s", name, def.Type)
		}
		if !attr.WritableFor(rc, mode) {
			return Forbidden("attribute %s is not writable for %s on resource %s", name, mode, def.Type)
		}
		if err := e.assignAttribute(rc, def, attr, entity, value); err != nil {
			return err
		}
	}

	if mode == schema.WriteReplace {
		for name, attr := range def.Attributes {
			if name == idAttr {
				continue
			}
			if _, supplied := doc.Attributes[name]; supplied {
				continue
			}
			if attr.Detail && !opts.Detail {
				continue
			}
			if !attr.WritableFor(rc, mode) {
				continue
			}
			available, err := attr.Available(rc, entity)
			if err != nil {
				return err
			}
			if !available {
				continue
			}
			if err := e.assignAttribute(rc, def, attr, entity, nil); err != nil {
				return err
			}
		}
	}

	for name, relData := range doc.Relationships {
		rel, ok := def.Relationships[name]
		if !ok {
			return BadRequest("unknown relationship %s on resource %s", name, def.Type)
		}
		available, err := rel.Available(rc, entity)
		if err != nil {
			return err
		}
		if !available {
			return Forbidden("relationship %s is not available on resource %s", name, def.Type)
		}
		if relData != nil && relData.Plural() != rel.Plural {
			return BadRequest("relationship %s on resource %s has the wrong plurality", name, def.Type)
		}
		if err := e.assignRelationship(rc, def, rel, entity, relData); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) assignAttribute(rc *Context, def *schema.Definition, attr *schema.Attribute, entity, value interface{}) error {
	if attr.Set != nil {
		return attr.Set(rc, entity, value)
	}
	if accessor, ok := def.Adapter.(adapter.AttributeAccessor); ok {
		return accessor.SetAttribute(entity, attr.Name, value)
	}
	return bareSet(entity, attr.Name, value)
}

// assignRelationship writes relationship data back as ids: a plural
// relationship receives a []string, a singular one a string or nil.
func (e *Engine) assignRelationship(rc *Context, def *schema.Definition, rel *schema.Relationship, entity interface{}, data *document.Relationship) error {
	var value interface{}
	if data != nil {
		if rel.Plural {
			ids := make([]string, 0, len(data.Many()))
			for _, l := range data.Many() {
				ids = append(ids, l.ID)
			}
			value = ids
		} else if one := data.One(); one != nil {
			value = one.ID
		}
	} else if rel.Plural {
		value = []string{}
	}

	if rel.Set != nil {
		return rel.Set(rc, entity, value)
	}
	if accessor, ok := def.Adapter.(adapter.AttributeAccessor); ok {
		return accessor.SetAttribute(entity, rel.Name, value)
	}
	return bareSet(entity, rel.Name, value)
}

// bareGet reads a property straight off the entity: a map key for map
// entities, an exported struct field (exact name, then case-insensitive) for
// struct entities.
func bareGet(entity interface{}, name string) (interface{}, bool) {
	switch v := entity.(type) {
	case map[string]interface{}:
		value, ok := v[name]
		return value, ok
	}

	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	if f := structField(rv, name); f.IsValid() {
		return f.Interface(), true
	}
	return nil, false
}

// bareSet writes a property straight onto the entity.
func bareSet(entity interface{}, name string, value interface{}) error {
	switch v := entity.(type) {
	case map[string]interface{}:
		v[name] = value
		return nil
	}

	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return Integrity("cannot assign %s: entity is not a map or struct pointer", name)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return Integrity("cannot assign %s: entity is not a map or struct pointer", name)
	}
	f := structField(rv, name)
	if !f.IsValid() || !f.CanSet() {
		return Integrity("cannot assign %s: no settable field on %T", name, entity)
	}
	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	if !vv.Type().AssignableTo(f.Type()) {
		if !vv.Type().ConvertibleTo(f.Type()) {
			return BadRequest("attribute %s: cannot assign %T", name, value)
		}
		vv = vv.Convert(f.Type())
	}
	f.Set(vv)
	return nil
}

func structField(rv reflect.Value, name string) reflect.Value {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Name == name {
			return rv.Field(i)
		}
	}
	for i := 0; i < t.NumField(); i++ {
		if strings.EqualFold(t.Field(i).Name, name) {
			return rv.Field(i)
		}
	}
	return reflect.Value{}
}

// stringifyID renders any supported id value at the document boundary.
func stringifyID(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return fmt.Sprintf("%v", raw)
}
