// ABOUTME: Document store contract shared by every concept collection
// ABOUTME: Defines BaseDoc, Filter/Fields, indexes, sentinel errors and the Driver interface

package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrNoMatch is returned when an update-style operation matched no document.
var ErrNoMatch = errors.New("no document matched filter")

// ErrDuplicate is returned when a write would violate a unique index.
var ErrDuplicate = errors.New("duplicate document")

// ErrInvalidName is returned for collection, index or field names that are not identifiers.
var ErrInvalidName = errors.New("invalid name")

// IDField addresses the document identifier in filters and sorts.
const IDField = "_id"

// BaseDoc carries the store-assigned fields every document has.
type BaseDoc struct {
	ID          string    `json:"_id"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// Base returns the embedded BaseDoc so the store can stamp it.
func (b *BaseDoc) Base() *BaseDoc { return b }

// Document is satisfied by pointers to structs embedding BaseDoc.
type Document[T any] interface {
	*T
	Base() *BaseDoc
}

// Filter selects documents by field equality. A Membership value matches
// when the field equals any of its values.
type Filter map[string]any

// Membership is a filter value matching any of the listed values.
type Membership []any

// In builds a Membership filter value.
func In[V any](values ...V) Membership {
	m := make(Membership, len(values))
	for i, v := range values {
		m[i] = v
	}
	return m
}

// Fields is a partial update. Keys missing from the map are left untouched;
// keys present with a zero value are written explicitly.
type Fields map[string]any

// SetIfPresent writes *v under key only when v is non-nil.
func SetIfPresent[V any](f Fields, key string, v *V) {
	if v != nil {
		f[key] = *v
	}
}

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions controls ReadMany ordering and size.
type FindOptions struct {
	Sort  []SortField
	Limit int
}

// SortNewestFirst orders by identifier descending. Identifiers are UUIDv7,
// so this is creation order, newest first.
var SortNewestFirst = FindOptions{Sort: []SortField{{Field: IDField, Desc: true}}}

// Index declares a uniqueness constraint over one or more document fields.
// Documents missing any of the fields are not constrained.
type Index struct {
	Name   string
	Fields []string
}

// Driver is the persistence engine behind collections. Bodies are JSON
// objects that include the BaseDoc fields. Each call is atomic on its own;
// no call spans more than one collection.
type Driver interface {
	// Register prepares a collection and its unique indexes. Safe to repeat.
	Register(ctx context.Context, collection string, indexes []Index) error
	Insert(ctx context.Context, collection, id string, body []byte) error
	// FindOne returns ErrNoMatch when nothing matches.
	FindOne(ctx context.Context, collection string, filter Filter) ([]byte, error)
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([][]byte, error)
	// Update applies fields to at most one matching document.
	Update(ctx context.Context, collection string, filter Filter, fields Fields) (bool, error)
	// Delete removes at most one matching document.
	Delete(ctx context.Context, collection string, filter Filter) (bool, error)
	DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error)
	// AddToSet appends value to the string list field unless already present.
	// It reports whether a document matched, not whether the list changed.
	AddToSet(ctx context.Context, collection string, filter Filter, field, value string, at time.Time) (bool, error)
	// Pull removes every occurrence of value from the string list field.
	Pull(ctx context.Context, collection string, filter Filter, field, value string, at time.Time) (bool, error)
	Close() error
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkName rejects names that cannot be embedded in SQL or JSON paths.
func checkName(kind, name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidName, kind, name)
	}
	return nil
}

func checkFilter(f Filter) error {
	for k := range f {
		if err := checkName("field", k); err != nil {
			return err
		}
	}
	return nil
}

func checkIndexes(collection string, indexes []Index) error {
	if err := checkName("collection", collection); err != nil {
		return err
	}
	for _, idx := range indexes {
		if err := checkName("index", idx.Name); err != nil {
			return err
		}
		if len(idx.Fields) == 0 {
			return fmt.Errorf("%w: index %q has no fields", ErrInvalidName, idx.Name)
		}
		for _, f := range idx.Fields {
			if err := checkName("field", f); err != nil {
				return err
			}
		}
	}
	return nil
}
