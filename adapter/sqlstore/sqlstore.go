// Package sqlstore provides a database/sql adapter building its queries with
// squirrel. One Store serves one resource table; entities are
// map[string]interface{} records keyed by column name.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/restpack/restpack/adapter"
)

// Record is the entity shape the SQL adapter produces and persists.
type Record = map[string]interface{}

type sortSpec struct {
	column string
	desc   bool
}

// query accumulates the abstract operations until execution. Modifiers copy
// before changing, keeping the value immutable by convention.
type query struct {
	conjuncts []sq.Sqlizer
	search    string
	sorts     []sortSpec
	offset    int
	limit     int
	paginate  bool
}

func (q query) clone() query {
	out := q
	out.conjuncts = append([]sq.Sqlizer(nil), q.conjuncts...)
	out.sorts = append([]sortSpec(nil), q.sorts...)
	return out
}

// Store is a SQL-backed adapter for one resource table.
type Store struct {
	db            *sql.DB
	table         string
	idColumn      string
	columns       []string
	searchColumns []string
	placeholder   sq.PlaceholderFormat
}

// Option configures a Store.
type Option func(*Store)

// WithIDColumn overrides the id column, which defaults to "id".
func WithIDColumn(name string) Option {
	return func(s *Store) { s.idColumn = name }
}

// WithSearchColumns names the columns free-text search matches against. With
// none configured, ApplySearch leaves the query unchanged.
func WithSearchColumns(columns ...string) Option {
	return func(s *Store) { s.searchColumns = columns }
}

// WithPlaceholder sets the SQL placeholder format; the default is Postgres
// dollar placeholders.
func WithPlaceholder(f sq.PlaceholderFormat) Option {
	return func(s *Store) { s.placeholder = f }
}

// New creates a store over db for the given table and column set. The column
// set bounds both scanning and persistence.
func New(db *sql.DB, table string, columns []string, opts ...Option) *Store {
	s := &Store{
		db:          db,
		table:       table,
		idColumn:    "id",
		columns:     columns,
		placeholder: sq.Dollar,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewQuery returns an unconstrained query over the table.
func (s *Store) NewQuery(context.Context) adapter.Query {
	return query{}
}

// ApplyFilter narrows the query to rows whose column is any of the values.
func (s *Store) ApplyFilter(q adapter.Query, field string, values []interface{}) adapter.Query {
	out := q.(query).clone()
	out.conjuncts = append(out.conjuncts, sq.Eq{field: values})
	return out
}

// ClearFilters drops all filters.
func (s *Store) ClearFilters(q adapter.Query) adapter.Query {
	out := q.(query).clone()
	out.conjuncts = nil
	return out
}

// ApplySort appends an ordering on the column.
func (s *Store) ApplySort(q adapter.Query, field string, desc bool) adapter.Query {
	out := q.(query).clone()
	out.sorts = append(out.sorts, sortSpec{column: field, desc: desc})
	return out
}

// ClearSorts drops all orderings.
func (s *Store) ClearSorts(q adapter.Query) adapter.Query {
	out := q.(query).clone()
	out.sorts = nil
	return out
}

// ApplySearch narrows the query with a case-insensitive substring match over
// the configured search columns.
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

func (s *Store) selectBuilder(q query) sq.SelectBuilder {
	b := sq.Select(s.columns...).From(s.table).PlaceholderFormat(s.placeholder)
	b = s.applyWhere(b, q)
	for _, sp := range q.sorts {
		dir := "ASC"
		if sp.desc {
			dir = "DESC"
		}
		b = b.OrderBy(fmt.Sprintf("%s %s", sp.column, dir))
	}
	if q.paginate {
		b = b.Offset(uint64(q.offset))
		if q.limit > 0 {
			b = b.Limit(uint64(q.limit))
		}
	}
	return b
}

func (s *Store) applyWhere(b sq.SelectBuilder, q query) sq.SelectBuilder {
	for _, c := range q.conjuncts {
		b = b.Where(c)
	}
	if q.search != "" && len(s.searchColumns) > 0 {
		or := make(sq.Or, 0, len(s.searchColumns))
		for _, col := range s.searchColumns {
			or = append(or, sq.ILike{col: "%" + q.search + "%"})
		}
		b = b.Where(or)
	}
	return b
}

// List executes the query and scans matching rows into records.
func (s *Store) List(ctx context.Context, aq adapter.Query, params adapter.ListParams) (*adapter.ListResult, error) {
	q := aq.(query)

	stmt, args, err := s.selectBuilder(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, convertError(err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, convertError(err)
	}

	result := &adapter.ListResult{Data: make([]interface{}, len(records))}
	for i, r := range records {
		result.Data[i] = r
	}

	if params.Totals {
		count := sq.Select("COUNT(*)").From(s.table).PlaceholderFormat(s.placeholder)
		count = s.applyWhere(count, q)
		stmt, args, err := count.ToSql()
		if err != nil {
			return nil, fmt.Errorf("building count query: %w", err)
		}
		var total int
		if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
			return nil, convertError(err)
		}
		result.Total = &total
	}

	return result, nil
}

// Get returns the row with the given id within the query's bounds.
func (s *Store) Get(ctx context.Context, aq adapter.Query, id string) (interface{}, error) {
	q := aq.(query).clone()
	q.conjuncts = append(q.conjuncts, sq.Eq{s.idColumn: id})
	q.paginate = true
	q.limit = 1
	q.offset = 0

	stmt, args, err := s.selectBuilder(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, convertError(err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, convertError(err)
	}
	if len(records) == 0 {
		return nil, adapter.ErrNotFound
	}
	return records[0], nil
}

// Create builds a fresh record, applies the mutator, and inserts it,
// generating an id when the mutator did not supply one.
func (s *Store) Create(ctx context.Context, mutate adapter.Mutator) (interface{}, error) {
	r := Record{}
	if err := mutate(r); err != nil {
		return nil, err
	}
	if r[s.idColumn] == nil || r[s.idColumn] == "" {
		r[s.idColumn] = uuid.NewString()
	}

	columns := persistedColumns(r)
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = r[c]
	}

	stmt, args, err := sq.Insert(s.table).
		Columns(columns...).
		Values(values...).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, convertError(err)
	}
	return r, nil
}

// Update applies the mutator and persists every non-id column the record
// carries.
func (s *Store) Update(ctx context.Context, entity interface{}, mutate adapter.Mutator) (interface{}, error) {
	return s.persist(ctx, entity, mutate)
}

// Replace applies the mutator and persists the record wholesale. The engine
// has already cleared absent attributes on the record, so the same statement
// shape serves both flows.
func (s *Store) Replace(ctx context.Context, entity interface{}, mutate adapter.Mutator) (interface{}, error) {
	return s.persist(ctx, entity, mutate)
}

func (s *Store) persist(ctx context.Context, entity interface{}, mutate adapter.Mutator) (interface{}, error) {
	r, ok := entity.(Record)
	if !ok {
		return nil, fmt.Errorf("sqlstore expects a record entity, got %T", entity)
	}
	if err := mutate(r); err != nil {
		return nil, err
	}

	update := sq.Update(s.table).PlaceholderFormat(s.placeholder)
	for _, c := range persistedColumns(r) {
		if c == s.idColumn {
			continue
		}
		update = update.Set(c, r[c])
	}
	update = update.Where(sq.Eq{s.idColumn: r[s.idColumn]})

	stmt, args, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, convertError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, adapter.ErrNotFound
	}
	return r, nil
}

// Delete selects the matching rows, removes them, and returns the removed
// records. Matching nothing returns an empty slice.
func (s *Store) Delete(ctx context.Context, aq adapter.Query) ([]interface{}, error) {
	q := aq.(query)

	result, err := s.List(ctx, q, adapter.ListParams{})
	if err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return []interface{}{}, nil
	}

	ids := make([]interface{}, 0, len(result.Data))
	for _, e := range result.Data {
		ids = append(ids, e.(Record)[s.idColumn])
	}

	stmt, args, err := sq.Delete(s.table).
		Where(sq.Eq{s.idColumn: ids}).
		PlaceholderFormat(s.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, convertError(err)
	}
	return result.Data, nil
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
		return fmt.Errorf("sqlstore expects a record entity, got %T", entity)
	}
	r[name] = value
	return nil
}

// persistedColumns returns the record's keys in sorted order so generated SQL
// is deterministic.
func persistedColumns(r Record) []string {
	columns := make([]string, 0, len(r))
	for c := range r {
		columns = append(columns, c)
	}
	sort.Strings(columns)
	return columns
}
