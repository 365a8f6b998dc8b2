// ABOUTME: Journal concept: named, optionally private, ordered lists of post ids
// ABOUTME: Appends and removals are single atomic store operations

package journaling

import (
	"context"
	"errors"

	"github.com/2389/folio/internal/concept"
	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
)

// Entity names journals in errors.
const Entity = "Journal"

// JournalDoc is a stored journal. Items holds post ids in append order.
type JournalDoc struct {
	docstore.BaseDoc
	Author  string   `json:"author"`
	Name    string   `json:"name"`
	Privacy bool     `json:"privacy"`
	Items   []string `json:"items"`
}

// AuthorID implements concept.Owned.
func (j *JournalDoc) AuthorID() string { return j.Author }

// Validate implements the collection's pre-insert check.
func (j *JournalDoc) Validate() error {
	if j.Author == "" {
		return fault.Required("author")
	}
	if j.Name == "" {
		return fault.Required("name")
	}
	return nil
}

// VisibleTo reports whether user may read the journal.
func (j *JournalDoc) VisibleTo(user string) bool {
	return !j.Privacy || j.Author == user
}

// Concept manages journals.
type Concept struct {
	journals *docstore.Collection[JournalDoc, *JournalDoc]
}

// New registers the journals collection.
func New(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (*Concept, error) {
	journals, err := docstore.NewCollection[JournalDoc](ctx, d, "journals", nil, opts...)
	if err != nil {
		return nil, err
	}
	return &Concept{journals: journals}, nil
}

// Create stores an empty journal and returns it.
func (c *Concept) Create(ctx context.Context, author, name string, privacy bool) (*JournalDoc, error) {
	doc := &JournalDoc{Author: author, Name: name, Privacy: privacy, Items: []string{}}
	if _, err := c.journals.CreateOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetJournals lists every journal, newest first.
func (c *Concept) GetJournals(ctx context.Context) ([]JournalDoc, error) {
	return c.journals.ReadMany(ctx, docstore.Filter{}, docstore.SortNewestFirst)
}

// GetByAuthor lists an author's journals, newest first.
func (c *Concept) GetByAuthor(ctx context.Context, author string) ([]JournalDoc, error) {
	return c.journals.ReadMany(ctx, docstore.Filter{"author": author}, docstore.SortNewestFirst)
}

// GetByID returns the journal or a NotFoundError.
func (c *Concept) GetByID(ctx context.Context, id string) (*JournalDoc, error) {
	return concept.MustGet(ctx, c.journals, Entity, id)
}

// GetByIDs returns the listed journals that exist, in one read.
func (c *Concept) GetByIDs(ctx context.Context, ids []string) ([]JournalDoc, error) {
	if len(ids) == 0 {
		return []JournalDoc{}, nil
	}
	return c.journals.ReadMany(ctx, docstore.Filter{docstore.IDField: docstore.In(ids...)}, docstore.FindOptions{})
}

// Update writes the non-nil settings. Callers guard ownership first.
func (c *Concept) Update(ctx context.Context, id string, name *string, privacy *bool) error {
	if name != nil && *name == "" {
		return fault.Required("name")
	}
	f := docstore.Fields{}
	docstore.SetIfPresent(f, "name", name)
	docstore.SetIfPresent(f, "privacy", privacy)
	return c.notFound(id, c.journals.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, f))
}

// Delete removes a journal. Deleting a missing journal is a no-op.
func (c *Concept) Delete(ctx context.Context, id string) error {
	return c.journals.DeleteOne(ctx, docstore.Filter{docstore.IDField: id})
}

// Append adds post to the journal's items unless already present.
func (c *Concept) Append(ctx context.Context, id, post string) error {
	return c.notFound(id, c.journals.AddToSet(ctx, docstore.Filter{docstore.IDField: id}, "items", post))
}

// Remove drops post from the journal's items.
func (c *Concept) Remove(ctx context.Context, id, post string) error {
	return c.notFound(id, c.journals.Pull(ctx, docstore.Filter{docstore.IDField: id}, "items", post))
}

// AssertOwnerIsUser fails unless user authored journal id.
func (c *Concept) AssertOwnerIsUser(ctx context.Context, id, user string) error {
	return concept.AssertOwner(ctx, c.journals, Entity, id, user)
}

func (c *Concept) notFound(id string, err error) error {
	if errors.Is(err, docstore.ErrNoMatch) {
		return &fault.NotFoundError{Entity: Entity, ID: id}
	}
	return err
}
