// Package memory provides an in-memory reference adapter. Entities are
// map[string]interface{} records held in insertion order; queries are pure
// values copied on every modifier application. It backs tests and small
// deployments that do not need durable storage.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/restpack/restpack/adapter"
)

// Record is the entity shape the memory adapter stores.
type Record = map[string]interface{}

type filterSpec struct {
	field  string
	values []interface{}
}

type sortSpec struct {
	field string
	desc  bool
}

// query is the adapter's opaque query value. Modifiers copy before changing.
type query struct {
	filters  []filterSpec
	search   string
	sorts    []sortSpec
	offset   int
	limit    int
	paginate bool
}

func (q query) clone() query {
	out := q
	out.filters = append([]filterSpec(nil), q.filters...)
	out.sorts = append([]sortSpec(nil), q.sorts...)
	return out
}

// Store is an in-memory adapter serving one resource type.
type Store struct {
	mu      sync.RWMutex
	idAttr  string
	records map[string]Record
	order   []string
}

// Option configures a Store.
type Option func(*Store)

// WithIDAttribute overrides the record key treated as the entity id.
func WithIDAttribute(name string) Option {
	return func(s *Store) { s.idAttr = name }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		idAttr:  "id",
		records: make(map[string]Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts records directly, assigning ids to records that lack one.
// Intended for tests and bootstrap data.
func (s *Store) Seed(records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		id := stringify(r[s.idAttr])
		if id == "" {
			id = uuid.NewString()
			r[s.idAttr] = id
		}
		if _, exists := s.records[id]; !exists {
			s.order = append(s.order, id)
		}
		s.records[id] = cloneRecord(r)
	}
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// NewQuery returns an unconstrained query.
func (s *Store) NewQuery(context.Context) adapter.Query {
	return query{}
}

// ApplyFilter narrows the query to records whose field matches any value.
func (s *Store) ApplyFilter(q adapter.Query, field string, values []interface{}) adapter.Query {
	out := q.(query).clone()
	out.filters = append(out.filters, filterSpec{field: field, values: values})
	return out
}

// ClearFilters drops all filters.
func (s *Store) ClearFilters(q adapter.Query) adapter.Query {
	out := q.(query).clone()
	out.filters = nil
	return out
}

// ApplySort appends an ordering on field.
func (s *Store) ApplySort(q adapter.Query, field string, desc bool) adapter.Query {
	out := q.(query).clone()
	out.sorts = append(out.sorts, sortSpec{field: field, desc: desc})
	return out
}

// ClearSorts drops all orderings.
func (s *Store) ClearSorts(q adapter.Query) adapter.Query {
	out := q.(query).clone()
	out.sorts = nil
	return out
}

// ApplySearch narrows the query to records with a string value containing the
// term, case-insensitively.
func (s *Store) ApplySearch(q adapter.Query, term string) adapter.Query {
	out := q.(query).clone()
	out.search = term
	return out
}

// ApplyPagination bounds the query.
func (s *Store) ApplyPagination(q adapter.Query, offset, limit int) adapter.Query {
	out := q.(query).clone()
	out.offset = offset
	out.limit = limit
	out.paginate = true
	return out
}

// List executes the query.
func (s *Store) List(_ context.Context, aq adapter.Query, params adapter.ListParams) (*adapter.ListResult, error) {
	q := aq.(query)

	s.mu.RLock()
	matched := s.matchLocked(q)
	s.mu.RUnlock()

	s.sortRecords(matched, q.sorts)

	result := &adapter.ListResult{}
	if params.Totals {
		total := len(matched)
		result.Total = &total
	}

	if q.paginate {
		if q.offset >= len(matched) {
			matched = nil
		} else {
			end := q.offset + q.limit
			if q.limit <= 0 || end > len(matched) {
				end = len(matched)
			}
			matched = matched[q.offset:end]
		}
	}

	result.Data = make([]interface{}, len(matched))
	for i, r := range matched {
		result.Data[i] = cloneRecord(r)
	}
	return result, nil
}

// Get returns the record with the given id if it matches the query's bounds.
func (s *Store) Get(_ context.Context, aq adapter.Query, id string) (interface{}, error) {
	q := aq.(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok || !s.matches(r, q) {
		return nil, adapter.ErrNotFound
	}
	return cloneRecord(r), nil
}

// Create allocates a fresh record, applies the mutator, assigns an id when
// the mutator did not, and stores it.
func (s *Store) Create(_ context.Context, mutate adapter.Mutator) (interface{}, error) {
	r := Record{}
	if err := mutate(r); err != nil {
		return nil, err
	}

	id := stringify(r[s.idAttr])
	if id == "" {
		id = uuid.NewString()
		r[s.idAttr] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[id]; exists {
		return nil, fmt.Errorf("record %s already exists", id)
	}
	s.records[id] = cloneRecord(r)
	s.order = append(s.order, id)
	return r, nil
}

// Update applies the mutator to the loaded record and persists it. For map
// records partial and full persistence coincide.
func (s *Store) Update(ctx context.Context, entity interface{}, mutate adapter.Mutator) (interface{}, error) {
	return s.persist(entity, mutate)
}

// Replace applies the mutator to the loaded record and persists it wholesale.
func (s *Store) Replace(ctx context.Context, entity interface{}, mutate adapter.Mutator) (interface{}, error) {
	return s.persist(entity, mutate)
}

func (s *Store) persist(entity interface{}, mutate adapter.Mutator) (interface{}, error) {
	r, ok := entity.(Record)
	if !ok {
		return nil, fmt.Errorf("memory adapter expects a record entity, got %T", entity)
	}
	if err := mutate(r); err != nil {
		return nil, err
	}

	id := stringify(r[s.idAttr])
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[id]; !exists {
		return nil, adapter.ErrNotFound
	}
	s.records[id] = cloneRecord(r)
	return r, nil
}

// Delete removes every record matching the query and returns the removed
// records. Matching nothing returns an empty slice.
func (s *Store) Delete(_ context.Context, aq adapter.Query) ([]interface{}, error) {
	q := aq.(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]interface{}, 0)
	kept := s.order[:0]
	for _, id := range s.order {
		r := s.records[id]
		if s.matches(r, q) {
			removed = append(removed, cloneRecord(r))
			delete(s.records, id)
		} else {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return removed, nil
}

// GetAttribute implements the adapter reflection hook for record entities.
func (s *Store) GetAttribute(entity interface{}, name string) (interface{}, bool) {
	r, ok := entity.(Record)
	if !ok {
		return nil, false
	}
	v, ok := r[name]
	return v, ok
}

// SetAttribute implements the adapter reflection hook for record entities.
func (s *Store) SetAttribute(entity interface{}, name string, value interface{}) error {
	r, ok := entity.(Record)
	if !ok {
		return fmt.Errorf("memory adapter expects a record entity, got %T", entity)
	}
	r[name] = value
	return nil
}

// GetRelationship reads relationship data off the record by name.
func (s *Store) GetRelationship(entity interface{}, name string) (interface{}, bool) {
	return s.GetAttribute(entity, name)
}

func (s *Store) matchLocked(q query) []Record {
	matched := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		if r := s.records[id]; s.matches(r, q) {
			matched = append(matched, r)
		}
	}
	return matched
}

func (s *Store) matches(r Record, q query) bool {
	for _, f := range q.filters {
		if !matchesFilter(r[f.field], f.values) {
			return false
		}
	}
	if q.search != "" && !matchesSearch(r, q.search) {
		return false
	}
	return true
}

// matchesFilter matches a scalar field against any of the values; a slice
// field matches when any element does.
func matchesFilter(fieldValue interface{}, values []interface{}) bool {
	rv := reflect.ValueOf(fieldValue)
	if fieldValue != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		for i := 0; i < rv.Len(); i++ {
			if matchesFilter(rv.Index(i).Interface(), values) {
				return true
			}
		}
		return false
	}
	have := stringify(fieldValue)
	for _, v := range values {
		if stringify(v) == have {
			return true
		}
	}
	return false
}

func matchesSearch(r Record, term string) bool {
	needle := strings.ToLower(term)
	for _, v := range r {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func (s *Store) sortRecords(records []Record, sorts []sortSpec) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, sp := range sorts {
			a, b := records[i][sp.field], records[j][sp.field]
			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if sp.desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b interface{}) int {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(stringify(a), stringify(b))
}

func asFloat(v interface{}) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func cloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		if vs, ok := v.([]string); ok {
			v = append([]string(nil), vs...)
		}
		out[k] = v
	}
	return out
}
