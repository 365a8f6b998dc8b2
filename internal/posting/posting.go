// ABOUTME: Post concept: markdown entries that each belong to one journal
// ABOUTME: Provides CRUD, author/journal lookups and the ownership guard

package posting

import (
	"context"
	"errors"

	"github.com/2389/folio/internal/concept"
	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
)

// Entity names posts in errors.
const Entity = "Post"

// PostDoc is a stored post.
type PostDoc struct {
	docstore.BaseDoc
	Author  string `json:"author"`
	Journal string `json:"journal"`
	Content string `json:"content"`
}

// AuthorID implements concept.Owned.
func (p *PostDoc) AuthorID() string { return p.Author }

// Validate implements the collection's pre-insert check.
func (p *PostDoc) Validate() error {
	if p.Author == "" {
		return fault.Required("author")
	}
	if p.Journal == "" {
		return fault.Required("journal")
	}
	if p.Content == "" {
		return fault.Required("content")
	}
	return nil
}

// Concept manages posts.
type Concept struct {
	posts *docstore.Collection[PostDoc, *PostDoc]
}

// New registers the posts collection.
func New(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (*Concept, error) {
	posts, err := docstore.NewCollection[PostDoc](ctx, d, "posts", nil, opts...)
	if err != nil {
		return nil, err
	}
	return &Concept{posts: posts}, nil
}

// Create stores a post and returns it.
func (c *Concept) Create(ctx context.Context, author, journal, content string) (*PostDoc, error) {
	doc := &PostDoc{Author: author, Journal: journal, Content: content}
	if _, err := c.posts.CreateOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetPosts lists every post, newest first.
func (c *Concept) GetPosts(ctx context.Context) ([]PostDoc, error) {
	return c.posts.ReadMany(ctx, docstore.Filter{}, docstore.SortNewestFirst)
}

// GetByAuthor lists an author's posts, newest first.
func (c *Concept) GetByAuthor(ctx context.Context, author string) ([]PostDoc, error) {
	return c.posts.ReadMany(ctx, docstore.Filter{"author": author}, docstore.SortNewestFirst)
}

// GetByJournal lists a journal's posts, newest first.
func (c *Concept) GetByJournal(ctx context.Context, journal string) ([]PostDoc, error) {
	return c.posts.ReadMany(ctx, docstore.Filter{"journal": journal}, docstore.SortNewestFirst)
}

// GetByID returns the post or a NotFoundError.
func (c *Concept) GetByID(ctx context.Context, id string) (*PostDoc, error) {
	return concept.MustGet(ctx, c.posts, Entity, id)
}

// GetByIDs returns the listed posts that exist, in one read.
func (c *Concept) GetByIDs(ctx context.Context, ids []string) ([]PostDoc, error) {
	if len(ids) == 0 {
		return []PostDoc{}, nil
	}
	return c.posts.ReadMany(ctx, docstore.Filter{docstore.IDField: docstore.In(ids...)}, docstore.FindOptions{})
}

// Update writes the non-nil fields. Callers guard ownership first.
func (c *Concept) Update(ctx context.Context, id string, journal, content *string) error {
	if content != nil && *content == "" {
		return fault.Required("content")
	}
	f := docstore.Fields{}
	docstore.SetIfPresent(f, "journal", journal)
	docstore.SetIfPresent(f, "content", content)

	err := c.posts.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, f)
	if errors.Is(err, docstore.ErrNoMatch) {
		return &fault.NotFoundError{Entity: Entity, ID: id}
	}
	return err
}

// Delete removes a post. Deleting a missing post is a no-op.
func (c *Concept) Delete(ctx context.Context, id string) error {
	return c.posts.DeleteOne(ctx, docstore.Filter{docstore.IDField: id})
}

// DeleteByJournal removes every post in journal.
func (c *Concept) DeleteByJournal(ctx context.Context, journal string) (int64, error) {
	return c.posts.DeleteMany(ctx, docstore.Filter{"journal": journal})
}

// AssertOwnerIsUser fails unless user authored post id.
func (c *Concept) AssertOwnerIsUser(ctx context.Context, id, user string) error {
	return concept.AssertOwner(ctx, c.posts, Entity, id, user)
}
