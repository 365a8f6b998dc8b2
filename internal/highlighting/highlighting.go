// ABOUTME: Highlight concept: comments on a post with an optional quoted passage
// ABOUTME: Provides CRUD, per-post listing, cascade deletion and the ownership guard

package highlighting

import (
	"context"
	"errors"

	"github.com/2389/folio/internal/concept"
	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
)

// Entity names highlights in errors.
const Entity = "Highlight"

// HighlightDoc is a stored highlight. Quote is omitted when not given.
type HighlightDoc struct {
	docstore.BaseDoc
	Author  string  `json:"author"`
	Post    string  `json:"post"`
	Comment string  `json:"comment"`
	Quote   *string `json:"quote,omitempty"`
}

// AuthorID implements concept.Owned.
func (h *HighlightDoc) AuthorID() string { return h.Author }

// Validate implements the collection's pre-insert check.
func (h *HighlightDoc) Validate() error {
	if h.Author == "" {
		return fault.Required("author")
	}
	if h.Post == "" {
		return fault.Required("post")
	}
	if h.Comment == "" {
		return fault.Required("comment")
	}
	return nil
}

// Concept manages highlights.
type Concept struct {
	highlights *docstore.Collection[HighlightDoc, *HighlightDoc]
}

// New registers the highlights collection.
func New(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (*Concept, error) {
	highlights, err := docstore.NewCollection[HighlightDoc](ctx, d, "highlights", nil, opts...)
	if err != nil {
		return nil, err
	}
	return &Concept{highlights: highlights}, nil
}

// Create stores a highlight and returns it.
func (c *Concept) Create(ctx context.Context, author, post, comment string, quote *string) (*HighlightDoc, error) {
	doc := &HighlightDoc{Author: author, Post: post, Comment: comment, Quote: quote}
	if _, err := c.highlights.CreateOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetHighlights lists every highlight, newest first.
func (c *Concept) GetHighlights(ctx context.Context) ([]HighlightDoc, error) {
	return c.highlights.ReadMany(ctx, docstore.Filter{}, docstore.SortNewestFirst)
}

// GetByPost lists the highlights on post, newest first.
func (c *Concept) GetByPost(ctx context.Context, post string) ([]HighlightDoc, error) {
	return c.highlights.ReadMany(ctx, docstore.Filter{"post": post}, docstore.SortNewestFirst)
}

// Update writes the non-nil fields. Callers guard ownership first.
func (c *Concept) Update(ctx context.Context, id string, comment, quote *string) error {
	if comment != nil && *comment == "" {
		return fault.Required("comment")
	}
	f := docstore.Fields{}
	docstore.SetIfPresent(f, "comment", comment)
	docstore.SetIfPresent(f, "quote", quote)

	err := c.highlights.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, f)
	if errors.Is(err, docstore.ErrNoMatch) {
		return &fault.NotFoundError{Entity: Entity, ID: id}
	}
	return err
}

// Delete removes a highlight. Deleting a missing highlight is a no-op.
func (c *Concept) Delete(ctx context.Context, id string) error {
	return c.highlights.DeleteOne(ctx, docstore.Filter{docstore.IDField: id})
}

// DeleteByPost removes every highlight on any of posts.
func (c *Concept) DeleteByPost(ctx context.Context, posts ...string) (int64, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	return c.highlights.DeleteMany(ctx, docstore.Filter{"post": docstore.In(posts...)})
}

// AssertOwnerIsUser fails unless user authored highlight id.
func (c *Concept) AssertOwnerIsUser(ctx context.Context, id, user string) error {
	return concept.AssertOwner(ctx, c.highlights, Entity, id, user)
}
