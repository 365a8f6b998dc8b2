// ABOUTME: Post operations that keep journal item lists in step with the post store
// ABOUTME: A post that cannot be filed in its journal is deleted again

package app

import (
	"context"
	"errors"

	"github.com/2389/folio/internal/fault"
	"github.com/2389/folio/internal/posting"
	"github.com/2389/folio/internal/responses"
	"github.com/2389/folio/internal/sessioning"
)

// PostCreated is returned by CreatePost.
type PostCreated struct {
	Msg  string          `json:"msg"`
	Post *responses.Post `json:"post"`
}

// GetPosts lists posts, optionally for one author, newest first. Posts in
// private journals are omitted unless the viewer wrote them.
func (a *App) GetPosts(ctx context.Context, s *sessioning.SessionDoc, author string) ([]responses.Post, error) {
	var posts []posting.PostDoc
	var err error
	if author != "" {
		id, uerr := a.userID(ctx, author)
		if uerr != nil {
			return nil, uerr
		}
		posts, err = a.c.Posts.GetByAuthor(ctx, id)
	} else {
		posts, err = a.c.Posts.GetPosts(ctx)
	}
	if err != nil {
		return nil, err
	}
	if posts, err = a.visiblePosts(ctx, s.User, posts); err != nil {
		return nil, err
	}
	return a.views.Posts(ctx, posts)
}

// CreatePost writes a post into one of the user's journals. The journal must
// exist and belong to the user before anything is written.
func (a *App) CreatePost(ctx context.Context, s *sessioning.SessionDoc, journal, content string) (*PostCreated, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("journalid", journal); err != nil {
		return nil, err
	}
	if err := a.c.Journals.AssertOwnerIsUser(ctx, journal, user); err != nil {
		return nil, err
	}

	post, err := a.c.Posts.Create(ctx, user, journal, content)
	if err != nil {
		return nil, err
	}
	if err := a.c.Posts.AssertOwnerIsUser(ctx, post.ID, user); err != nil {
		return nil, err
	}

	if err := a.c.Journals.Append(ctx, journal, post.ID); err != nil {
		if derr := a.c.Posts.Delete(ctx, post.ID); derr != nil {
			a.logger.Error("failed to remove unfiled post", "post_id", post.ID, "error", derr)
			return nil, &fault.PartialFailureError{
				Operation: "create post",
				Completed: []string{"create post"},
				Failed:    "append to journal",
				Cause:     errors.Join(err, derr),
			}
		}
		return nil, err
	}

	view, err := a.views.Post(ctx, post)
	if err != nil {
		return nil, err
	}
	return &PostCreated{Msg: "Post successfully created!", Post: view}, nil
}

// UpdatePost edits content and/or moves the post to another of the user's journals.
func (a *App) UpdatePost(ctx context.Context, s *sessioning.SessionDoc, id string, journal, content *string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("id", id); err != nil {
		return nil, err
	}
	if err := a.c.Posts.AssertOwnerIsUser(ctx, id, user); err != nil {
		return nil, err
	}

	current, err := a.c.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	moving := journal != nil && *journal != current.Journal
	if moving {
		if err := checkIDs("journalid", *journal); err != nil {
			return nil, err
		}
		if err := a.c.Journals.AssertOwnerIsUser(ctx, *journal, user); err != nil {
			return nil, err
		}
	}

	c := a.cascade("update post")
	if err := c.step("update post", func() error { return a.c.Posts.Update(ctx, id, journal, content) }); err != nil {
		return nil, err
	}
	if moving {
		if err := c.step("remove from old journal", func() error {
			return ignoreNotFound(a.c.Journals.Remove(ctx, current.Journal, id))
		}); err != nil {
			return nil, err
		}
		if err := c.step("append to new journal", func() error {
			return a.c.Journals.Append(ctx, *journal, id)
		}); err != nil {
			return nil, err
		}
	}
	return &Msg{Msg: "Post successfully updated!"}, nil
}

// DeletePost removes a post along with its journal entry, annotations and bookmarks.
func (a *App) DeletePost(ctx context.Context, s *sessioning.SessionDoc, id string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("id", id); err != nil {
		return nil, err
	}
	if err := a.c.Posts.AssertOwnerIsUser(ctx, id, user); err != nil {
		return nil, err
	}
	post, err := a.c.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c := a.cascade("delete post")
	steps := []struct {
		name string
		fn   func() error
	}{
		{"remove from journal", func() error { return ignoreNotFound(a.c.Journals.Remove(ctx, post.Journal, id)) }},
		{"delete highlights", func() error { _, err := a.c.Highlights.DeleteByPost(ctx, id); return err }},
		{"delete stickers", func() error { _, err := a.c.Stickers.DeleteByPost(ctx, id); return err }},
		{"remove bookmarks", func() error { return a.c.Bookmarks.RemoveEverywhere(ctx, id) }},
		{"delete post", func() error { return a.c.Posts.Delete(ctx, id) }},
	}
	for _, st := range steps {
		if err := c.step(st.name, st.fn); err != nil {
			return nil, err
		}
	}
	return &Msg{Msg: "Post deleted successfully!"}, nil
}

// ignoreNotFound treats a missing parent as already detached.
func ignoreNotFound(err error) error {
	var nf *fault.NotFoundError
	if errors.As(err, &nf) {
		return nil
	}
	return err
}
