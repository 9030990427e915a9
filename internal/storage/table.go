package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/mentha-app/mentha/internal/domain"
)

// scanner is the shared surface of sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Op is one filter condition on a column. Build them with Eq, Gt, Lt,
// Ge, Le, In, Between and Like.
type Op struct {
	field string
	expr  string
	terms []any
}

func simpleOp(field, op string, term any) Op {
	return Op{field: field, expr: op + " ?", terms: []any{flatten(term)}}
}

// Eq filters rows where field = term.
func Eq(field string, term any) Op { return simpleOp(field, "=", term) }

// Gt filters rows where field > term.
func Gt(field string, term any) Op { return simpleOp(field, ">", term) }

// Lt filters rows where field < term.
func Lt(field string, term any) Op { return simpleOp(field, "<", term) }

// Ge filters rows where field >= term.
func Ge(field string, term any) Op { return simpleOp(field, ">=", term) }

// Le filters rows where field <= term.
func Le(field string, term any) Op { return simpleOp(field, "<=", term) }

// In filters rows where field is one of terms. Duplicate terms collapse.
func In(field string, terms ...any) Op {
	seen := make(map[any]struct{}, len(terms))
	var unique []any
	for _, t := range terms {
		t = flatten(t)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(unique)), ", ")
	return Op{field: field, expr: "IN (" + placeholders + ")", terms: unique}
}

// Between filters rows where lower <= field <= upper.
func Between(field string, lower, upper any) Op {
	return Op{field: field, expr: "BETWEEN ? AND ?", terms: []any{flatten(lower), flatten(upper)}}
}

// Like filters rows where field matches a SQL LIKE pattern.
func Like(field, pattern string) Op {
	return Op{field: field, expr: "LIKE ?", terms: []any{pattern}}
}

// flatten turns values sqlite has no native type for into their stored
// text form.
func flatten(term any) any {
	if id, ok := term.(uuid.UUID); ok {
		return id.String()
	}
	return term
}

// Sort orders query results by a column.
type Sort struct {
	Field string
	Desc  bool
}

// QueryOpts shapes one Query call. A zero PageSize disables paging and
// returns everything.
type QueryOpts struct {
	Page     int
	PageSize int
	Sorts    []Sort
	Filters  []Op
}

// PagedResults is one page of query results plus enough bookkeeping to
// drive pagination.
type PagedResults[T any] struct {
	Results       []T  `json:"results"`
	HitCount      int  `json:"hitCount"`
	TotalHitCount int  `json:"totalHitCount"`
	Page          int  `json:"page"`
	PageSize      int  `json:"pageSize"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

// Table gives one entity's sqlite table a typed CRUD and query surface.
// Columns[0] is always the primary key.
type Table[T any] struct {
	db      *sql.DB
	name    string
	columns []string
	id      func(T) uuid.UUID
	values  func(T) []any
	scan    func(scanner) (T, error)
}

// NewTable wires a typed table. values returns a record's column values
// in column order; scan reads them back in the same order.
func NewTable[T any](
	db *sql.DB,
	name string,
	columns []string,
	id func(T) uuid.UUID,
	values func(T) []any,
	scan func(scanner) (T, error),
) *Table[T] {
	return &Table[T]{db: db, name: name, columns: columns, id: id, values: values, scan: scan}
}

// Name returns the underlying table name.
func (t *Table[T]) Name() string { return t.name }

// ID returns a record's primary key.
func (t *Table[T]) ID(model T) uuid.UUID { return t.id(model) }

// Get fetches one record by id, or false when no record exists.
func (t *Table[T]) Get(ctx context.Context, id uuid.UUID) (T, bool, error) {
	var zero T
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ?",
		strings.Join(t.columns, ", "), t.name, t.columns[0],
	)
	row := t.db.QueryRowContext(ctx, query, id.String())
	model, err := t.scan(row)
	if err == sql.ErrNoRows {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return model, true, nil
}

// Insert writes one or more records in a single transaction.
func (t *Table[T]) Insert(ctx context.Context, models ...T) error {
	if len(models) == 0 {
		return nil
	}
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ") + ")"
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		t.name, strings.Join(t.columns, ", "), placeholders,
	)
	return WithTx(t.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, model := range models {
			if _, err := stmt.ExecContext(ctx, t.values(model)...); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update overwrites the record with the model's id.
func (t *Table[T]) Update(ctx context.Context, model T) error {
	sets := make([]string, 0, len(t.columns)-1)
	for _, col := range t.columns[1:] {
		sets = append(sets, col+" = ?")
	}
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		t.name, strings.Join(sets, ", "), t.columns[0],
	)
	args := append(t.values(model)[1:], t.id(model).String())
	_, err := t.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes the record with the given id. Deleting an id that does
// not exist is not an error.
func (t *Table[T]) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.name, t.columns[0])
	_, err := t.db.ExecContext(ctx, query, id.String())
	return err
}

// column resolves a query field to its column, rejecting anything that
// is not a column of this table. Field names reach here straight from
// request query strings and must never be interpolated unchecked.
func (t *Table[T]) column(field string) (string, error) {
	col := snakeCase(field)
	for _, c := range t.columns {
		if c == col {
			return col, nil
		}
	}
	return "", &domain.ValidationError{
		Msg: fmt.Sprintf("no field %q on %s", field, t.name),
	}
}

func (t *Table[T]) whereClause(filters []Op) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	var (
		clauses []string
		args    []any
	)
	for _, f := range filters {
		col, err := t.column(f.field)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, col+" "+f.expr)
		args = append(args, f.terms...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// Query runs a filtered, sorted, paged select. Results always report the
// total hit count across all pages; with a PageSize, one extra row is
// fetched to decide HasNext and then dropped.
func (t *Table[T]) Query(ctx context.Context, opts QueryOpts) (PagedResults[T], error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}

	total, err := t.Count(ctx, opts.Filters...)
	if err != nil {
		return PagedResults[T]{}, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.columns, ", "), t.name)
	where, args, err := t.whereClause(opts.Filters)
	if err != nil {
		return PagedResults[T]{}, err
	}
	query += where
	if len(opts.Sorts) > 0 {
		var orders []string
		for _, s := range opts.Sorts {
			order, err := t.column(s.Field)
			if err != nil {
				return PagedResults[T]{}, err
			}
			if s.Desc {
				order += " DESC"
			}
			orders = append(orders, order)
		}
		query += " ORDER BY " + strings.Join(orders, ", ")
	}
	if opts.PageSize > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.PageSize+1, (page-1)*opts.PageSize)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return PagedResults[T]{}, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		model, err := t.scan(rows)
		if err != nil {
			return PagedResults[T]{}, err
		}
		results = append(results, model)
	}
	if err := rows.Err(); err != nil {
		return PagedResults[T]{}, err
	}

	hasNext := false
	if opts.PageSize > 0 {
		hasNext = page*opts.PageSize < total
		if len(results) > opts.PageSize {
			results = results[:opts.PageSize]
		}
	}
	return PagedResults[T]{
		Results:       results,
		HitCount:      len(results),
		TotalHitCount: total,
		Page:          page,
		PageSize:      opts.PageSize,
		HasNext:       hasNext,
		HasPrev:       page > 1,
	}, nil
}

// Count returns the number of records matching the filters.
func (t *Table[T]) Count(ctx context.Context, filters ...Op) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(%s) FROM %s", t.columns[0], t.name)
	where, args, err := t.whereClause(filters)
	if err != nil {
		return 0, err
	}
	query += where
	var count int
	if err := t.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// PageThrough walks every page of a query, calling visit with each page
// of results until the pages run out or visit returns an error.
func PageThrough[T any](ctx context.Context, t *Table[T], opts QueryOpts, visit func([]T) error) error {
	if opts.Page < 1 {
		opts.Page = 1
	}
	for {
		page, err := t.Query(ctx, opts)
		if err != nil {
			return err
		}
		if err := visit(page.Results); err != nil {
			return err
		}
		if !page.HasNext {
			return nil
		}
		opts.Page++
	}
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// snakeCase converts a camelCase field name to its snake_case column.
func snakeCase(field string) string {
	return strings.ToLower(camelBoundary.ReplaceAllString(field, "${1}_${2}"))
}
