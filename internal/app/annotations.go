// ABOUTME: Highlight and sticker operations on posts
// ABOUTME: Annotating requires the post to exist; edits require owning the annotation

package app

import (
	"context"

	"github.com/2389/folio/internal/highlighting"
	"github.com/2389/folio/internal/responses"
	"github.com/2389/folio/internal/sessioning"
	"github.com/2389/folio/internal/sticking"
)

// HighlightCreated is returned by CreateHighlight.
type HighlightCreated struct {
	Msg       string               `json:"msg"`
	Highlight *responses.Highlight `json:"highlight"`
}

// StickerCreated is returned by CreateSticker.
type StickerCreated struct {
	Msg     string             `json:"msg"`
	Sticker *responses.Sticker `json:"sticker"`
}

// GetHighlights lists the highlights on a post, or every highlight when post
// is empty. Highlights on posts the viewer may not read are left out.
func (a *App) GetHighlights(ctx context.Context, s *sessioning.SessionDoc, post string) ([]responses.Highlight, error) {
	if post != "" {
		if err := checkIDs("postid", post); err != nil {
			return nil, err
		}
		if err := a.checkPostVisible(ctx, s, post, false); err != nil {
			return nil, err
		}
		hs, err := a.c.Highlights.GetByPost(ctx, post)
		if err != nil {
			return nil, err
		}
		return a.views.Highlights(ctx, hs)
	}

	hs, err := a.c.Highlights.GetHighlights(ctx)
	if err != nil {
		return nil, err
	}
	posts := make([]string, len(hs))
	for i, h := range hs {
		posts[i] = h.Post
	}
	hidden, err := a.hiddenPosts(ctx, s.User, posts)
	if err != nil {
		return nil, err
	}
	visible := make([]highlighting.HighlightDoc, 0, len(hs))
	for _, h := range hs {
		if !hidden[h.Post] {
			visible = append(visible, h)
		}
	}
	return a.views.Highlights(ctx, visible)
}

// CreateHighlight comments on a post, optionally quoting part of it.
func (a *App) CreateHighlight(ctx context.Context, s *sessioning.SessionDoc, post, comment string, quote *string) (*HighlightCreated, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := a.requirePost(ctx, s, post); err != nil {
		return nil, err
	}
	h, err := a.c.Highlights.Create(ctx, user, post, comment, quote)
	if err != nil {
		return nil, err
	}
	views, err := a.views.Highlights(ctx, []highlighting.HighlightDoc{*h})
	if err != nil {
		return nil, err
	}
	return &HighlightCreated{Msg: "Highlight created!", Highlight: &views[0]}, nil
}

// UpdateHighlight edits a highlight the user wrote.
func (a *App) UpdateHighlight(ctx context.Context, s *sessioning.SessionDoc, id string, comment, quote *string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("id", id); err != nil {
		return nil, err
	}
	if err := a.c.Highlights.AssertOwnerIsUser(ctx, id, user); err != nil {
		return nil, err
	}
	if err := a.c.Highlights.Update(ctx, id, comment, quote); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Highlight successfully updated!"}, nil
}

// DeleteHighlight removes a highlight the user wrote.
func (a *App) DeleteHighlight(ctx context.Context, s *sessioning.SessionDoc, id string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("id", id); err != nil {
		return nil, err
	}
	if err := a.c.Highlights.AssertOwnerIsUser(ctx, id, user); err != nil {
		return nil, err
	}
	if err := a.c.Highlights.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Highlight deleted successfully!"}, nil
}

// GetStickers lists the stickers on a post the viewer may read.
func (a *App) GetStickers(ctx context.Context, s *sessioning.SessionDoc, post string) ([]responses.Sticker, error) {
	if err := checkIDs("postid", post); err != nil {
		return nil, err
	}
	if err := a.checkPostVisible(ctx, s, post, false); err != nil {
		return nil, err
	}
	ss, err := a.c.Stickers.GetByPost(ctx, post)
	if err != nil {
		return nil, err
	}
	return a.views.Stickers(ctx, ss)
}

// CreateSticker attaches a sticker to a post.
func (a *App) CreateSticker(ctx context.Context, s *sessioning.SessionDoc, post, sticker string) (*StickerCreated, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := a.requirePost(ctx, s, post); err != nil {
		return nil, err
	}
	st, err := a.c.Stickers.Create(ctx, user, post, sticker)
	if err != nil {
		return nil, err
	}
	views, err := a.views.Stickers(ctx, []sticking.StickerDoc{*st})
	if err != nil {
		return nil, err
	}
	return &StickerCreated{Msg: "Sticker created!", Sticker: &views[0]}, nil
}

// UpdateSticker swaps the sticker on an annotation the user made.
func (a *App) UpdateSticker(ctx context.Context, s *sessioning.SessionDoc, id string, sticker *string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("id", id); err != nil {
		return nil, err
	}
	if err := a.c.Stickers.AssertOwnerIsUser(ctx, id, user); err != nil {
		return nil, err
	}
	if err := a.c.Stickers.Update(ctx, id, sticker); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Sticker successfully updated!"}, nil
}

// DeleteSticker removes a sticker the user made.
func (a *App) DeleteSticker(ctx context.Context, s *sessioning.SessionDoc, id string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("id", id); err != nil {
		return nil, err
	}
	if err := a.c.Stickers.AssertOwnerIsUser(ctx, id, user); err != nil {
		return nil, err
	}
	if err := a.c.Stickers.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Sticker deleted successfully!"}, nil
}
