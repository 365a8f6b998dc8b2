// ABOUTME: Sticker concept: small payloads users attach to a post
// ABOUTME: Provides CRUD, per-post listing, cascade deletion and the ownership guard

package sticking

import (
	"context"
	"errors"

	"github.com/2389/folio/internal/concept"
	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
)

// Entity names stickers in errors.
const Entity = "Sticker"

// StickerDoc is a stored sticker.
type StickerDoc struct {
	docstore.BaseDoc
	Author  string `json:"author"`
	Post    string `json:"post"`
	Sticker string `json:"sticker"`
}

// AuthorID implements concept.Owned.
func (s *StickerDoc) AuthorID() string { return s.Author }

func (s *StickerDoc) Validate() error {
	if s.Author == "" {
		return fault.Required("author")
	}
	if s.Post == "" {
		return fault.Required("post")
	}
	if s.Sticker == "" {
		return fault.Required("sticker")
	}
	return nil
}

// Concept manages stickers.
type Concept struct {
	stickers *docstore.Collection[StickerDoc, *StickerDoc]
}

// New registers the stickers collection.
func New(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (*Concept, error) {
	stickers, err := docstore.NewCollection[StickerDoc](ctx, d, "stickers", nil, opts...)
	if err != nil {
		return nil, err
	}
	return &Concept{stickers: stickers}, nil
}

func (c *Concept) Create(ctx context.Context, author, post, sticker string) (*StickerDoc, error) {
	doc := &StickerDoc{Author: author, Post: post, Sticker: sticker}
	if _, err := c.stickers.CreateOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByPost lists the stickers on post, newest first.
func (c *Concept) GetByPost(ctx context.Context, post string) ([]StickerDoc, error) {
	return c.stickers.ReadMany(ctx, docstore.Filter{"post": post}, docstore.SortNewestFirst)
}

func (c *Concept) Update(ctx context.Context, id string, sticker *string) error {
	if sticker != nil && *sticker == "" {
		return fault.Required("sticker")
	}
	f := docstore.Fields{}
	docstore.SetIfPresent(f, "sticker", sticker)

	err := c.stickers.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, f)
	if errors.Is(err, docstore.ErrNoMatch) {
		return &fault.NotFoundError{Entity: Entity, ID: id}
	}
	return err
}

func (c *Concept) Delete(ctx context.Context, id string) error {
	return c.stickers.DeleteOne(ctx, docstore.Filter{docstore.IDField: id})
}

// DeleteByPost removes every sticker on any of posts.
func (c *Concept) DeleteByPost(ctx context.Context, posts ...string) (int64, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	return c.stickers.DeleteMany(ctx, docstore.Filter{"post": docstore.In(posts...)})
}

func (c *Concept) AssertOwnerIsUser(ctx context.Context, id, user string) error {
	return concept.AssertOwner(ctx, c.stickers, Entity, id, user)
}
