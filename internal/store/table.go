// Package store implements listview storage over the SQLite catalog tables.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stockmaster/internal/listview"
)

// TrashedFilter is the filter key that selects soft-deleted rows. Its values are
// "only" (trashed rows only) and "with" (live and trashed rows).
const TrashedFilter = "trashed"

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Spec describes how one record type maps onto SQL.
type Spec[T any] struct {
	// Resource is the name used in errors.
	Resource string
	// Table is the base table for writes.
	Table string
	// From is the FROM clause for reads, which may join other tables.
	From string
	// Columns is the select list read by Scan.
	Columns string
	// ID is the qualified id column used in reads.
	ID string
	// SoftDelete is the qualified deleted_at column, empty for hard deletes.
	SoftDelete string
	// Searchable columns are OR-ed together with LIKE.
	Searchable []string
	// Orderable maps sort keys to SQL expressions.
	Orderable map[string]string
	// Filters maps filter keys to SQL expressions compared with "=".
	Filters map[string]string
	// InsertColumns and Values describe inserts into Table.
	InsertColumns []string
	Values        func(T) []any
	Scan          func(RowScanner) (T, error)
}

// Table is a listview.Store over one SQL table.
type Table[T any] struct {
	db   *sql.DB
	spec Spec[T]
}

// NewTable returns a store for spec backed by db.
func NewTable[T any](db *sql.DB, spec Spec[T]) *Table[T] {
	return &Table[T]{db: db, spec: spec}
}

// DB returns the underlying handle.
func (t *Table[T]) DB() *sql.DB { return t.db }

// Spec returns the table description.
func (t *Table[T]) Spec() Spec[T] { return t.spec }

// CheckFilter reports whether value is usable for the filter key.
func (t *Table[T]) CheckFilter(key, value string) error {
	if key == TrashedFilter && t.spec.SoftDelete != "" {
		switch value {
		case "", "only", "with":
			return nil
		}
		return fmt.Errorf("unknown trashed filter %q", value)
	}
	if _, ok := t.spec.Filters[key]; !ok {
		return fmt.Errorf("unknown filter %q", key)
	}
	return nil
}

func (t *Table[T]) where(q listview.QuerySpec) (string, []any, error) {
	var conds []string
	var args []any

	trashed := ""
	if t.spec.SoftDelete != "" {
		trashed = q.Filters[TrashedFilter]
		switch trashed {
		case "":
			conds = append(conds, t.spec.SoftDelete+" IS NULL")
		case "only":
			conds = append(conds, t.spec.SoftDelete+" IS NOT NULL")
		case "with":
		default:
			return "", nil, listview.Invalid("query", fmt.Errorf("unknown trashed filter %q", trashed))
		}
	}

	if term := strings.TrimSpace(q.Search); term != "" && len(t.spec.Searchable) > 0 {
		like := "%" + escapeLike(term) + "%"
		parts := make([]string, len(t.spec.Searchable))
		for i, col := range t.spec.Searchable {
			parts[i] = col + ` LIKE ? ESCAPE '\'`
			args = append(args, like)
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}

	for key, val := range sortedFilters(q.Filters) {
		if key == TrashedFilter && t.spec.SoftDelete != "" {
			continue
		}
		col, ok := t.spec.Filters[key]
		if !ok {
			return "", nil, listview.Invalid("query", fmt.Errorf("unknown filter %q", key))
		}
		conds = append(conds, col+" = ?")
		args = append(args, val)
	}

	if len(conds) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (t *Table[T]) orderBy(q listview.QuerySpec) (string, error) {
	col, ok := t.spec.Orderable[q.SortColumn]
	if !ok {
		return "", listview.Invalid("query", fmt.Errorf("column %q is not sortable", q.SortColumn))
	}
	dir := q.SortDirection.SQL()
	clause := " ORDER BY " + col + " " + dir
	if col != t.spec.ID {
		// Tie-break on id so pages do not overlap.
		clause += ", " + t.spec.ID + " " + dir
	}
	return clause, nil
}

// Page runs q and returns one page of records with the total match count.
func (t *Table[T]) Page(ctx context.Context, q listview.QuerySpec) (listview.Page[T], error) {
	where, args, err := t.where(q)
	if err != nil {
		return listview.Page[T]{}, err
	}
	order, err := t.orderBy(q)
	if err != nil {
		return listview.Page[T]{}, err
	}
	if q.PageSize < 1 {
		return listview.Page[T]{}, listview.Invalid("query", fmt.Errorf("page size must be positive"))
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	var total int
	if err := t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.spec.From+where, args...).Scan(&total); err != nil {
		return listview.Page[T]{}, fmt.Errorf("count %s: %w", t.spec.Resource, err)
	}

	query := "SELECT " + t.spec.Columns + " FROM " + t.spec.From + where + order + " LIMIT ? OFFSET ?"
	items, err := t.list(ctx, query, append(args, q.PageSize, (page-1)*q.PageSize)...)
	if err != nil {
		return listview.Page[T]{}, err
	}
	return listview.Page[T]{Items: items, Page: page, PageSize: q.PageSize, TotalItems: total}, nil
}

// Count returns the number of rows matching q.
func (t *Table[T]) Count(ctx context.Context, q listview.QuerySpec) (int, error) {
	where, args, err := t.where(q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := t.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.spec.From+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.spec.Resource, err)
	}
	return n, nil
}

// MatchingIDs returns the id of every row matching q in q's order.
func (t *Table[T]) MatchingIDs(ctx context.Context, q listview.QuerySpec) ([]int64, error) {
	where, args, err := t.where(q)
	if err != nil {
		return nil, err
	}
	order, err := t.orderBy(q)
	if err != nil {
		return nil, err
	}
	return t.ids(ctx, "SELECT "+t.spec.ID+" FROM "+t.spec.From+where+order, args...)
}

// Matching returns every row matching q in q's order.
func (t *Table[T]) Matching(ctx context.Context, q listview.QuerySpec) ([]T, error) {
	where, args, err := t.where(q)
	if err != nil {
		return nil, err
	}
	order, err := t.orderBy(q)
	if err != nil {
		return nil, err
	}
	return t.list(ctx, "SELECT "+t.spec.Columns+" FROM "+t.spec.From+where+order, args...)
}

// Existing returns the ids that still refer to live rows.
func (t *Table[T]) Existing(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	in, args := inClause(ids)
	query := "SELECT " + t.spec.ID + " FROM " + t.spec.From + " WHERE " + t.spec.ID + " IN " + in + t.live()
	return t.ids(ctx, query, args...)
}

// Find returns the live rows for ids in the order the ids were given.
func (t *Table[T]) Find(ctx context.Context, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	in, args := inClause(ids)
	query := "SELECT " + t.spec.Columns + ", " + t.spec.ID + " FROM " + t.spec.From + " WHERE " + t.spec.ID + " IN " + in + t.live()
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.spec.Resource, err)
	}
	defer rows.Close()

	byID := make(map[int64]T, len(ids))
	for rows.Next() {
		var id int64
		rec, err := t.spec.Scan(trailingID{rows, &id})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.spec.Resource, err)
		}
		byID[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", t.spec.Resource, err)
	}

	out := make([]T, 0, len(byID))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
			delete(byID, id)
		}
	}
	return out, nil
}

// Get returns one live row, or a NotFound error.
func (t *Table[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	query := "SELECT " + t.spec.Columns + " FROM " + t.spec.From + " WHERE " + t.spec.ID + " = ?" + t.live()
	rec, err := t.spec.Scan(t.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, listview.NotFound(t.spec.Resource, id)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s %d: %w", t.spec.Resource, id, err)
	}
	return rec, nil
}

// Delete removes the rows, soft-deleting when the table supports it.
func (t *Table[T]) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inClause(ids)
	var query string
	if t.spec.SoftDelete != "" {
		query = "UPDATE " + t.spec.Table + " SET deleted_at = CURRENT_TIMESTAMP WHERE id IN " + in + " AND deleted_at IS NULL"
	} else {
		query = "DELETE FROM " + t.spec.Table + " WHERE id IN " + in
	}
	return t.exec(ctx, "delete", query, args...)
}

// Restore brings back a soft-deleted row.
func (t *Table[T]) Restore(ctx context.Context, id int64) error {
	if t.spec.SoftDelete == "" {
		return listview.Invalid("restore", fmt.Errorf("%s does not support restore", t.spec.Resource))
	}
	n, err := t.exec(ctx, "restore", "UPDATE "+t.spec.Table+" SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return listview.NotFound(t.spec.Resource, id)
	}
	return nil
}

// ForceDelete permanently removes a row, trashed or not.
func (t *Table[T]) ForceDelete(ctx context.Context, id int64) error {
	n, err := t.exec(ctx, "force delete", "DELETE FROM "+t.spec.Table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return listview.NotFound(t.spec.Resource, id)
	}
	return nil
}

// Insert writes rec through ex, which may be a transaction, and returns the new id.
func (t *Table[T]) Insert(ctx context.Context, ex Execer, rec T) (int64, error) {
	if ex == nil {
		ex = t.db
	}
	cols := t.spec.InsertColumns
	query := "INSERT INTO " + t.spec.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(len(cols)) + ")"
	res, err := ex.ExecContext(ctx, query, t.spec.Values(rec)...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.spec.Resource, err)
	}
	return res.LastInsertId()
}

func (t *Table[T]) live() string {
	if t.spec.SoftDelete == "" {
		return ""
	}
	return " AND " + t.spec.SoftDelete + " IS NULL"
}

func (t *Table[T]) list(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.spec.Resource, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		rec, err := t.spec.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.spec.Resource, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", t.spec.Resource, err)
	}
	return out, nil
}

func (t *Table[T]) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s ids: %w", t.spec.Resource, err)
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (t *Table[T]) exec(ctx context.Context, op, query string, args ...any) (int, error) {
	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", op, t.spec.Resource, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", op, t.spec.Resource, err)
	}
	return int(n), nil
}

// trailingID appends one extra scan destination for the id column that Find
// adds after the spec's columns.
type trailingID struct {
	rows *sql.Rows
	id   *int64
}

func (s trailingID) Scan(dest ...any) error {
	return s.rows.Scan(append(dest, s.id)...)
}
