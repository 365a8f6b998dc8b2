// ABOUTME: Bookmark concept: one folder of post ids per author
// ABOUTME: The folder is found-or-created through a unique author index

package bookmarking

import (
	"context"
	"errors"

	"github.com/2389/folio/internal/concept"
	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
)

// Entity names bookmark folders in errors.
const Entity = "Bookmark"

// FolderDoc is an author's bookmark folder.
type FolderDoc struct {
	docstore.BaseDoc
	Author string   `json:"author"`
	Items  []string `json:"items"`
}

// AuthorID implements concept.Owned.
func (f *FolderDoc) AuthorID() string { return f.Author }

// Validate implements the collection's pre-insert check.
func (f *FolderDoc) Validate() error {
	if f.Author == "" {
		return fault.Required("author")
	}
	return nil
}

// Concept manages bookmark folders.
type Concept struct {
	folders *docstore.Collection[FolderDoc, *FolderDoc]
}

// New registers the bookmarks collection with one folder per author.
func New(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (*Concept, error) {
	folders, err := docstore.NewCollection[FolderDoc](ctx, d, "bookmarks",
		[]docstore.Index{{Name: "author", Fields: []string{"author"}}}, opts...)
	if err != nil {
		return nil, err
	}
	return &Concept{folders: folders}, nil
}

// EnsureFolder returns the author's folder, creating it if needed.
// Concurrent callers for the same author always get the same folder.
func (c *Concept) EnsureFolder(ctx context.Context, author string) (*FolderDoc, bool, error) {
	return c.folders.FindOrCreate(ctx, docstore.Filter{"author": author},
		&FolderDoc{Author: author, Items: []string{}})
}

// GetByAuthor returns the author's folder, or nil when they have none.
func (c *Concept) GetByAuthor(ctx context.Context, author string) (*FolderDoc, error) {
	return c.folders.ReadOne(ctx, docstore.Filter{"author": author})
}

// GetFolders lists every folder, newest first.
func (c *Concept) GetFolders(ctx context.Context) ([]FolderDoc, error) {
	return c.folders.ReadMany(ctx, docstore.Filter{}, docstore.SortNewestFirst)
}

// Append bookmarks post for author, creating the folder on first use.
func (c *Concept) Append(ctx context.Context, author, post string) error {
	if _, _, err := c.EnsureFolder(ctx, author); err != nil {
		return err
	}
	err := c.folders.AddToSet(ctx, docstore.Filter{"author": author}, "items", post)
	if errors.Is(err, docstore.ErrNoMatch) {
		// folder deleted between ensure and append
		return &fault.NotFoundError{Entity: Entity, ID: author}
	}
	return err
}

// Remove unbookmarks post. Fails with NotFoundError when author has no folder.
func (c *Concept) Remove(ctx context.Context, author, post string) error {
	err := c.folders.Pull(ctx, docstore.Filter{"author": author}, "items", post)
	if errors.Is(err, docstore.ErrNoMatch) {
		return &fault.NotFoundError{Entity: Entity, ID: author}
	}
	return err
}

// RemoveEverywhere drops posts from every folder that holds them, reading
// the folders once.
func (c *Concept) RemoveEverywhere(ctx context.Context, posts ...string) error {
	if len(posts) == 0 {
		return nil
	}
	gone := make(map[string]bool, len(posts))
	for _, p := range posts {
		gone[p] = true
	}

	folders, err := c.folders.ReadMany(ctx, docstore.Filter{}, docstore.FindOptions{})
	if err != nil {
		return err
	}
	for _, f := range folders {
		for _, item := range f.Items {
			if !gone[item] {
				continue
			}
			err := c.folders.Pull(ctx, docstore.Filter{docstore.IDField: f.ID}, "items", item)
			if errors.Is(err, docstore.ErrNoMatch) {
				// folder deleted since the read
				break
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete removes the author's folder.
func (c *Concept) Delete(ctx context.Context, author string) error {
	return c.folders.DeleteOne(ctx, docstore.Filter{"author": author})
}

// AssertOwnerIsUser fails unless user owns folder id.
func (c *Concept) AssertOwnerIsUser(ctx context.Context, id, user string) error {
	return concept.AssertOwner(ctx, c.folders, Entity, id, user)
}
