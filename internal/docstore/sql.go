// ABOUTME: database/sql Driver shared by the SQLite and Postgres backends
// ABOUTME: Documents live in one table keyed by (collection, id) with a JSON body

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// dialect isolates the SQL that differs between engines.
type dialect interface {
	name() string
	placeholder(n int) string
	// field renders a JSON body field as a comparable scalar expression.
	field(name string) string
	// arg converts a filter value into a bind parameter.
	arg(v any) any
	// setFields renders the new body for a partial update.
	setFields(q *query, fields Fields) (string, error)
	addToSet(q *query, field, value string, at time.Time) string
	pull(q *query, field, value string, at time.Time) string
	// bodyParam wraps the placeholder for the inserted body.
	bodyParam(ph string) string
	uniqueIndex(collection string, idx Index) string
	isUniqueViolation(err error) bool
}

// SQLDriver implements Driver over database/sql.
type SQLDriver struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Ensure SQLDriver implements Driver.
var _ Driver = (*SQLDriver)(nil)

// DB exposes the underlying handle, for health checks.
func (d *SQLDriver) DB() *sql.DB { return d.db }

// query accumulates SQL text and bind arguments.
type query struct {
	d    dialect
	args []any
}

// bind adds a parameter and returns its placeholder.
func (q *query) bind(v any) string {
	q.args = append(q.args, v)
	return q.d.placeholder(len(q.args))
}

// where renders the collection scope plus the filter, keys in sorted order.
func (q *query) where(collection string, filter Filter) string {
	parts := []string{"collection = " + q.bind(collection)}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		expr := "id"
		if k != IDField {
			expr = q.d.field(k)
		}

		if set, ok := filter[k].(Membership); ok {
			if len(set) == 0 {
				parts = append(parts, "1 = 0")
				continue
			}
			ph := make([]string, len(set))
			for i, v := range set {
				ph[i] = q.bind(q.d.arg(v))
			}
			parts = append(parts, expr+" IN ("+strings.Join(ph, ", ")+")")
			continue
		}
		parts = append(parts, expr+" = "+q.bind(q.d.arg(filter[k])))
	}
	return strings.Join(parts, " AND ")
}

// targetOne narrows a statement to the first matching row.
func (q *query) targetOne(collection string, filter Filter) string {
	c := q.bind(collection)
	return "collection = " + c + " AND id IN (SELECT id FROM documents WHERE " + q.where(collection, filter) + " LIMIT 1)"
}

func (q *query) orderBy(opts FindOptions) string {
	if len(opts.Sort) == 0 {
		return ""
	}
	terms := make([]string, len(opts.Sort))
	for i, s := range opts.Sort {
		expr := "id"
		if s.Field != IDField {
			expr = q.d.field(s.Field)
		}
		if s.Desc {
			expr += " DESC"
		}
		terms[i] = expr
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// Register creates the unique indexes for a collection.
func (d *SQLDriver) Register(ctx context.Context, collection string, indexes []Index) error {
	if err := checkIndexes(collection, indexes); err != nil {
		return err
	}
	for _, idx := range indexes {
		if _, err := d.db.ExecContext(ctx, d.dialect.uniqueIndex(collection, idx)); err != nil {
			return fmt.Errorf("creating index %s: %w", idx.Name, err)
		}
	}
	return nil
}

// Insert writes a new document.
func (d *SQLDriver) Insert(ctx context.Context, collection, id string, body []byte) error {
	q := &query{d: d.dialect}
	stmt := "INSERT INTO documents (collection, id, body) VALUES (" +
		q.bind(collection) + ", " + q.bind(id) + ", " + d.dialect.bodyParam(q.bind(string(body))) + ")"

	if _, err := d.db.ExecContext(ctx, stmt, q.args...); err != nil {
		if d.dialect.isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, collection)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindOne returns the first matching body.
func (d *SQLDriver) FindOne(ctx context.Context, collection string, filter Filter) ([]byte, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	q := &query{d: d.dialect}
	stmt := "SELECT body FROM documents WHERE " + q.where(collection, filter) + " LIMIT 1"

	var body []byte
	err := d.db.QueryRowContext(ctx, stmt, q.args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return body, nil
}

// Find returns every matching body.
func (d *SQLDriver) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([][]byte, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}
	for _, s := range opts.Sort {
		if err := checkName("sort field", s.Field); err != nil {
			return nil, err
		}
	}

	q := &query{d: d.dialect}
	stmt := "SELECT body FROM documents WHERE " + q.where(collection, filter) + q.orderBy(opts)
	if opts.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := d.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := [][]byte{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		out = append(out, body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return out, nil
}

// Update applies a partial update to the first match.
func (d *SQLDriver) Update(ctx context.Context, collection string, filter Filter, fields Fields) (bool, error) {
	if err := checkFilter(filter); err != nil {
		return false, err
	}
	for k := range fields {
		if err := checkName("field", k); err != nil {
			return false, err
		}
	}

	q := &query{d: d.dialect}
	set, err := d.dialect.setFields(q, fields)
	if err != nil {
		return false, err
	}
	stmt := "UPDATE documents SET body = " + set + " WHERE " + q.targetOne(collection, filter)
	return d.execMatched(ctx, stmt, q.args)
}

// Delete removes the first match.
func (d *SQLDriver) Delete(ctx context.Context, collection string, filter Filter) (bool, error) {
	if err := checkFilter(filter); err != nil {
		return false, err
	}
	q := &query{d: d.dialect}
	stmt := "DELETE FROM documents WHERE " + q.targetOne(collection, filter)
	return d.execMatched(ctx, stmt, q.args)
}

// DeleteMany removes every match.
func (d *SQLDriver) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	if err := checkFilter(filter); err != nil {
		return 0, err
	}
	q := &query{d: d.dialect}
	stmt := "DELETE FROM documents WHERE " + q.where(collection, filter)

	result, err := d.db.ExecContext(ctx, stmt, q.args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

// AddToSet appends value to a list field in a single statement.
func (d *SQLDriver) AddToSet(ctx context.Context, collection string, filter Filter, field, value string, at time.Time) (bool, error) {
	if err := checkFilter(filter); err != nil {
		return false, err
	}
	if err := checkName("field", field); err != nil {
		return false, err
	}
	q := &query{d: d.dialect}
	set := d.dialect.addToSet(q, field, value, at)
	stmt := "UPDATE documents SET body = " + set + " WHERE " + q.targetOne(collection, filter)
	return d.execMatched(ctx, stmt, q.args)
}

// Pull removes value from a list field in a single statement.
func (d *SQLDriver) Pull(ctx context.Context, collection string, filter Filter, field, value string, at time.Time) (bool, error) {
	if err := checkFilter(filter); err != nil {
		return false, err
	}
	if err := checkName("field", field); err != nil {
		return false, err
	}
	q := &query{d: d.dialect}
	set := d.dialect.pull(q, field, value, at)
	stmt := "UPDATE documents SET body = " + set + " WHERE " + q.targetOne(collection, filter)
	return d.execMatched(ctx, stmt, q.args)
}

func (d *SQLDriver) execMatched(ctx context.Context, stmt string, args []any) (bool, error) {
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		if d.dialect.isUniqueViolation(err) {
			return true, ErrDuplicate
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return n > 0, nil
}

// Close closes the database.
func (d *SQLDriver) Close() error {
	d.logger.Info("closing document store", "dialect", d.dialect.name())
	return d.db.Close()
}

// encodeJSON marshals a field value for embedding in a JSON update.
func encodeJSON(v any) (string, error) {
	if t, ok := v.(time.Time); ok {
		v = t.UTC().Format(time.RFC3339Nano)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// argString renders a scalar filter value in its JSON text form.
func argString(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case time.Time:
		// same text encodeJSON and json.Marshal store
		return t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
