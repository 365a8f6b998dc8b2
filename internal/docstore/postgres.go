// ABOUTME: Postgres backend for the document store via pgx's database/sql driver
// ABOUTME: Bodies are jsonb; the schema is applied with goose from embedded migrations

package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/2389/folio/internal/docstore/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresDriver connects to dsn and applies pending migrations.
func NewPostgresDriver(ctx context.Context, dsn string) (*SQLDriver, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	d, err := newPostgresDriver(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func newPostgresDriver(ctx context.Context, db *sql.DB) (*SQLDriver, error) {
	logger := slog.Default().With("component", "docstore")

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return nil, fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("Postgres document store initialized")
	return &SQLDriver{db: db, dialect: postgresDialect{}, logger: logger}, nil
}

type postgresDialect struct{}

func (postgresDialect) name() string { return "postgres" }

func (postgresDialect) placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) field(name string) string {
	return "(body->>'" + name + "')"
}

// arg compares in text form, which is what ->> yields.
func (postgresDialect) arg(v any) any { return argString(v) }

func (postgresDialect) setFields(q *query, fields Fields) (string, error) {
	if len(fields) == 0 {
		return "body", nil
	}
	patch := make(map[string]any, len(fields))
	for k, v := range fields {
		if t, ok := v.(time.Time); ok {
			v = t.UTC().Format(time.RFC3339Nano)
		}
		patch[k] = v
	}
	b, err := json.Marshal(patch)
	if err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}
	return "body || " + q.bind(string(b)) + "::jsonb", nil
}

func (postgresDialect) addToSet(q *query, field, value string, at time.Time) string {
	list := "coalesce(body->'" + field + "', '[]'::jsonb)"
	present := list + " @> jsonb_build_array(" + q.bind(value) + "::text)"
	appended := "jsonb_set(body, '{" + field + "}', " + list + " || to_jsonb(" + q.bind(value) + "::text))"
	stamp := "jsonb_build_object('dateUpdated', " + q.bind(at.UTC().Format(time.RFC3339Nano)) + "::text)"
	return "CASE WHEN " + present + " THEN body ELSE " + appended + " || " + stamp + " END"
}

func (postgresDialect) pull(q *query, field, value string, at time.Time) string {
	list := "coalesce(body->'" + field + "', '[]'::jsonb)"
	kept := "jsonb_set(body, '{" + field + "}', " + list + " - " + q.bind(value) + "::text)"
	stamp := "jsonb_build_object('dateUpdated', " + q.bind(at.UTC().Format(time.RFC3339Nano)) + "::text)"
	return kept + " || " + stamp
}

func (postgresDialect) bodyParam(ph string) string { return ph + "::jsonb" }

func (postgresDialect) uniqueIndex(collection string, idx Index) string {
	exprs := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		exprs[i] = "(body->>'" + f + "')"
	}
	return fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS "%s_%s" ON documents (%s) WHERE collection = '%s'`,
		collection, idx.Name, strings.Join(exprs, ", "), collection)
}

func (postgresDialect) isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
