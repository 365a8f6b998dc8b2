// ABOUTME: SQLite backend for the document store using modernc.org/sqlite
// ABOUTME: JSON1 functions provide field filters, atomic list appends and unique indexes

package docstore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		body       TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
`

// NewSQLiteDriver opens (creating if needed) a SQLite database at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteDriver(path string) (*SQLDriver, error) {
	logger := slog.Default().With("component", "docstore")

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serialises writers and keeps :memory: databases
	// from splitting across connections.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite document store initialized", "path", path)
	return &SQLDriver{db: db, dialect: sqliteDialect{}, logger: logger}, nil
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) placeholder(int) string { return "?" }

func (sqliteDialect) field(name string) string {
	return "json_extract(body, '$." + name + "')"
}

func (sqliteDialect) arg(v any) any {
	switch t := v.(type) {
	case bool:
		// json_extract yields 1/0 for JSON booleans
		if t {
			return 1
		}
		return 0
	case string, int, int64, float64:
		return t
	default:
		return argString(v)
	}
}

func (sqliteDialect) setFields(q *query, fields Fields) (string, error) {
	if len(fields) == 0 {
		return "body", nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		enc, err := encodeJSON(fields[k])
		if err != nil {
			return "", fmt.Errorf("encoding field %s: %w", k, err)
		}
		parts = append(parts, "'$."+k+"', json("+q.bind(enc)+")")
	}
	return "json_set(body, " + strings.Join(parts, ", ") + ")", nil
}

func (sqliteDialect) addToSet(q *query, field, value string, at time.Time) string {
	path := "'$." + field + "'"
	present := "EXISTS (SELECT 1 FROM json_each(documents.body, " + path + ") WHERE json_each.value = " + q.bind(value) + ")"
	list := "coalesce(json_extract(body, " + path + "), '[]')"
	appended := "json_insert(" + list + ", '$[#]', " + q.bind(value) + ")"
	stamp := q.bind(at.UTC().Format(time.RFC3339Nano))
	return "CASE WHEN " + present + " THEN body ELSE json_set(body, " + path + ", " + appended + ", '$.dateUpdated', " + stamp + ") END"
}

func (sqliteDialect) pull(q *query, field, value string, at time.Time) string {
	path := "'$." + field + "'"
	kept := "json((SELECT coalesce(json_group_array(json_each.value), '[]') FROM json_each(documents.body, " + path + ") WHERE json_each.value <> " + q.bind(value) + "))"
	stamp := q.bind(at.UTC().Format(time.RFC3339Nano))
	return "json_set(body, " + path + ", " + kept + ", '$.dateUpdated', " + stamp + ")"
}

func (sqliteDialect) bodyParam(ph string) string { return ph }

func (sqliteDialect) uniqueIndex(collection string, idx Index) string {
	exprs := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		exprs[i] = "json_extract(body, '$." + f + "')"
	}
	return fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS "%s_%s" ON documents(%s) WHERE collection = '%s'`,
		collection, idx.Name, strings.Join(exprs, ", "), collection)
}

func (sqliteDialect) isUniqueViolation(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
