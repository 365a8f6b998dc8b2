// ABOUTME: Read-side privacy for content filed in private journals
// ABOUTME: Posts, annotations and bookmarks are filtered with one batched journal read per listing

package app

import (
	"context"

	"github.com/2389/folio/internal/fault"
	"github.com/2389/folio/internal/posting"
	"github.com/2389/folio/internal/sessioning"
)

// hiddenJournals returns the ids among journals that user may not read.
// Journals that no longer exist are not hidden.
func (a *App) hiddenJournals(ctx context.Context, user string, journals []string) (map[string]bool, error) {
	docs, err := a.c.Journals.GetByIDs(ctx, distinct(journals))
	if err != nil {
		return nil, err
	}
	hidden := map[string]bool{}
	for _, j := range docs {
		if !j.VisibleTo(user) {
			hidden[j.ID] = true
		}
	}
	return hidden, nil
}

// visiblePosts drops the posts filed in journals user may not read.
func (a *App) visiblePosts(ctx context.Context, user string, posts []posting.PostDoc) ([]posting.PostDoc, error) {
	journals := make([]string, len(posts))
	for i, p := range posts {
		journals[i] = p.Journal
	}
	hidden, err := a.hiddenJournals(ctx, user, journals)
	if err != nil {
		return nil, err
	}
	out := make([]posting.PostDoc, 0, len(posts))
	for _, p := range posts {
		if !hidden[p.Journal] {
			out = append(out, p)
		}
	}
	return out, nil
}

// hiddenPosts returns the ids among posts that user may not read. Posts
// that no longer exist are not hidden.
func (a *App) hiddenPosts(ctx context.Context, user string, posts []string) (map[string]bool, error) {
	docs, err := a.c.Posts.GetByIDs(ctx, distinct(posts))
	if err != nil {
		return nil, err
	}
	visible, err := a.visiblePosts(ctx, user, docs)
	if err != nil {
		return nil, err
	}
	hidden := make(map[string]bool, len(docs)-len(visible))
	for _, p := range docs {
		hidden[p.ID] = true
	}
	for _, p := range visible {
		delete(hidden, p.ID)
	}
	return hidden, nil
}

// requirePost fails with NotFound unless post exists and s may read it.
func (a *App) requirePost(ctx context.Context, s *sessioning.SessionDoc, post string) error {
	if err := checkIDs("postid", post); err != nil {
		return err
	}
	return a.checkPostVisible(ctx, s, post, true)
}

// checkPostVisible reports a post in a journal s may not read as missing.
// A post that does not exist is an error only when mustExist is set.
func (a *App) checkPostVisible(ctx context.Context, s *sessioning.SessionDoc, post string, mustExist bool) error {
	if mustExist {
		if _, err := a.c.Posts.GetByID(ctx, post); err != nil {
			return err
		}
	}
	hidden, err := a.hiddenPosts(ctx, s.User, []string{post})
	if err != nil {
		return err
	}
	if hidden[post] {
		return &fault.NotFoundError{Entity: posting.Entity, ID: post}
	}
	return nil
}

func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
