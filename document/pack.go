package document

import "encoding/json"

// Pack is the top-level response envelope: primary data, compound included
// documents, and response metadata. Data holds a *Document, a Collection, a
// []Linkage, or nil. Meta accumulates pagination info, deletion counts, and
// resource-declared metadata before serialization.
type Pack struct {
	Data     interface{}
	Included Collection
	Meta     map[string]interface{}
}

// NewPack creates an envelope around primary data with an empty meta map.
func NewPack(data interface{}) *Pack {
	return &Pack{Data: data, Meta: make(map[string]interface{})}
}

// SetMeta records a metadata entry on the envelope.
func (p *Pack) SetMeta(key string, value interface{}) {
	if p.Meta == nil {
		p.Meta = make(map[string]interface{})
	}
	p.Meta[key] = value
}

// MergeMeta copies every entry of m into the envelope's metadata. Existing
// keys are not overwritten, so engine-computed metadata wins over
// resource-declared metadata.
func (p *Pack) MergeMeta(m map[string]interface{}) {
	for k, v := range m {
		if p.Meta == nil {
			p.Meta = make(map[string]interface{})
		}
		if _, exists := p.Meta[k]; !exists {
			p.Meta[k] = v
		}
	}
}

// MarshalJSON produces the wire document: {"data": ..., "included": ..., "meta": ...}.
// Data is always present, even when nil; included and meta are omitted when empty.
func (p *Pack) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 3)
	out["data"] = p.Data
	if len(p.Included) > 0 {
		out["included"] = p.Included
	}
	if len(p.Meta) > 0 {
		out["meta"] = p.Meta
	}
	return json.Marshal(out)
}

// Serialize returns the wire document as JSON bytes.
func (p *Pack) Serialize() ([]byte, error) {
	return json.Marshal(p)
}
