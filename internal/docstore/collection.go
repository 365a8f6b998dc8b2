// ABOUTME: Typed collection wrapper implementing the concept store contract
// ABOUTME: Handles id/timestamp assignment, JSON encoding and find-or-create

package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection is the typed store a concept wraps. P is always *T.
type Collection[T any, P Document[T]] struct {
	name   string
	driver Driver
	now    func() time.Time
	newID  func() string
}

// Option configures a Collection.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

// NewCollection registers name (and its unique indexes) with the driver.
func NewCollection[T any, P Document[T]](ctx context.Context, d Driver, name string, indexes []Index, opts ...Option) (*Collection[T, P], error) {
	if err := d.Register(ctx, name, indexes); err != nil {
		return nil, fmt.Errorf("registering collection %s: %w", name, err)
	}

	o := options{now: time.Now, newID: newUUIDv7}
	for _, opt := range opts {
		opt(&o)
	}

	return &Collection[T, P]{name: name, driver: d, now: o.now, newID: o.newID}, nil
}

func newUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Name returns the collection name.
func (c *Collection[T, P]) Name() string { return c.name }

// CreateOne assigns an id and timestamps, runs Validate when the document
// defines it, and persists the document.
func (c *Collection[T, P]) CreateOne(ctx context.Context, doc P) (string, error) {
	if v, ok := any(doc).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return "", err
		}
	}

	now := c.now().UTC()
	base := doc.Base()
	base.ID = c.newID()
	base.DateCreated = now
	base.DateUpdated = now

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding %s document: %w", c.name, err)
	}

	if err := c.driver.Insert(ctx, c.name, base.ID, body); err != nil {
		return "", err
	}
	return base.ID, nil
}

// ReadOne returns the first match, or nil without error when none matches.
func (c *Collection[T, P]) ReadOne(ctx context.Context, filter Filter) (P, error) {
	body, err := c.driver.FindOne(ctx, c.name, filter)
	if errors.Is(err, ErrNoMatch) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.decode(body)
}

// ReadMany returns every match. The slice is never nil.
func (c *Collection[T, P]) ReadMany(ctx context.Context, filter Filter, opts FindOptions) ([]T, error) {
	bodies, err := c.driver.Find(ctx, c.name, filter, opts)
	if err != nil {
		return nil, err
	}

	docs := make([]T, 0, len(bodies))
	for _, b := range bodies {
		d, err := c.decode(b)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, nil
}

// PartialUpdateOne writes only the keys present in fields and stamps
// dateUpdated. ErrNoMatch when nothing matched.
func (c *Collection[T, P]) PartialUpdateOne(ctx context.Context, filter Filter, fields Fields) error {
	set := make(Fields, len(fields)+1)
	for k, v := range fields {
		switch k {
		case IDField, "dateCreated", "dateUpdated":
			return fmt.Errorf("%w: field %q is store-managed", ErrInvalidName, k)
		}
		set[k] = v
	}
	set["dateUpdated"] = c.now().UTC()

	matched, err := c.driver.Update(ctx, c.name, filter, set)
	if err != nil {
		return err
	}
	if !matched {
		return ErrNoMatch
	}
	return nil
}

// DeleteOne removes at most one match. Deleting nothing is not an error.
func (c *Collection[T, P]) DeleteOne(ctx context.Context, filter Filter) error {
	_, err := c.driver.Delete(ctx, c.name, filter)
	return err
}

// DeleteMany removes every match and returns how many were removed.
func (c *Collection[T, P]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	return c.driver.DeleteMany(ctx, c.name, filter)
}

// AddToSet atomically appends value to a list field unless present.
func (c *Collection[T, P]) AddToSet(ctx context.Context, filter Filter, field, value string) error {
	matched, err := c.driver.AddToSet(ctx, c.name, filter, field, value, c.now().UTC())
	if err != nil {
		return err
	}
	if !matched {
		return ErrNoMatch
	}
	return nil
}

// Pull atomically removes value from a list field.
func (c *Collection[T, P]) Pull(ctx context.Context, filter Filter, field, value string) error {
	matched, err := c.driver.Pull(ctx, c.name, filter, field, value, c.now().UTC())
	if err != nil {
		return err
	}
	if !matched {
		return ErrNoMatch
	}
	return nil
}

// FindOrCreate inserts doc, or returns the document already holding its
// unique key. The unique index decides, not a prior read.
func (c *Collection[T, P]) FindOrCreate(ctx context.Context, filter Filter, doc P) (P, bool, error) {
	for attempt := 0; attempt < 3; attempt++ {
		_, err := c.CreateOne(ctx, doc)
		if err == nil {
			return doc, true, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return nil, false, err
		}

		existing, err := c.ReadOne(ctx, filter)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
		// holder was deleted between our insert and read; try again
	}
	return nil, false, fmt.Errorf("find-or-create in %s: %w", c.name, ErrDuplicate)
}

func (c *Collection[T, P]) decode(body []byte) (P, error) {
	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s document: %w", c.name, err)
	}
	return &doc, nil
}
