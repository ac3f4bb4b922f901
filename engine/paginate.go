package engine

// PageMeta is the pagination metadata derived from an already-fetched result
// set. When the total is unknown, NextOffset is reported as offset+count and
// the first/last flags are omitted, since the engine cannot know whether more
// data exists.
type PageMeta struct {
	Offset     int   `json:"offset"`
	Count      int   `json:"count"`
	NextOffset *int  `json:"nextOffset"`
	IsFirst    *bool `json:"isFirst,omitempty"`
	IsLast     *bool `json:"isLast,omitempty"`
}

// pageMeta computes pagination metadata for count results fetched at offset.
// total is nil when the adapter did not produce a full count. The query is
// never consulted; the metadata is purely derived.
func pageMeta(count, offset int, total *int) *PageMeta {
	meta := &PageMeta{Offset: offset, Count: count}

	if total == nil {
		next := offset + count
		meta.NextOffset = &next
		return meta
	}

	if offset+count < *total {
		next := offset + count
		meta.NextOffset = &next
	}
	first := offset == 0
	last := meta.NextOffset == nil
	meta.IsFirst = &first
	meta.IsLast = &last
	return meta
}
