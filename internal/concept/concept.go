// ABOUTME: Helpers shared by every concept: the ownership guard and id checks
// ABOUTME: Keeps NotFound/OwnerMismatch semantics identical across entity types

// Package concept holds the conventions every concept package follows.
package concept

import (
	"context"

	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
	"github.com/google/uuid"
)

// Owned is a document pointer that names its author.
type Owned[T any] interface {
	docstore.Document[T]
	AuthorID() string
}

// AssertOwner reads id from c and checks that user authored it.
// A missing document is a NotFoundError; another author is an OwnerMismatchError.
func AssertOwner[T any, P Owned[T]](ctx context.Context, c *docstore.Collection[T, P], entity, id, user string) error {
	doc, err := c.ReadOne(ctx, docstore.Filter{docstore.IDField: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return &fault.NotFoundError{Entity: entity, ID: id}
	}
	if doc.AuthorID() != user {
		return &fault.OwnerMismatchError{Entity: entity, User: user, ID: id}
	}
	return nil
}

// MustGet reads id from c, turning a miss into a NotFoundError.
func MustGet[T any, P docstore.Document[T]](ctx context.Context, c *docstore.Collection[T, P], entity, id string) (P, error) {
	doc, err := c.ReadOne(ctx, docstore.Filter{docstore.IDField: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &fault.NotFoundError{Entity: entity, ID: id}
	}
	return doc, nil
}

// CheckID rejects identifiers that are not UUIDs.
func CheckID(field, id string) error {
	if id == "" {
		return fault.Required(field)
	}
	if _, err := uuid.Parse(id); err != nil {
		return &fault.ValidationError{Field: field, Reason: "is not a valid id"}
	}
	return nil
}
