// ABOUTME: Journal operations, including the cascade that removes a journal's posts
// ABOUTME: Private journals are visible only to their authors

package app

import (
	"context"

	"github.com/2389/folio/internal/fault"
	"github.com/2389/folio/internal/journaling"
	"github.com/2389/folio/internal/responses"
	"github.com/2389/folio/internal/sessioning"
)

// JournalCreated is returned by CreateJournal.
type JournalCreated struct {
	Msg     string             `json:"msg"`
	Journal *responses.Journal `json:"journal"`
}

// CreateJournal creates an empty journal for the logged-in user.
func (a *App) CreateJournal(ctx context.Context, s *sessioning.SessionDoc, name string, privacy bool) (*JournalCreated, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	j, err := a.c.Journals.Create(ctx, user, name, privacy)
	if err != nil {
		return nil, err
	}
	view, err := a.views.Journal(ctx, j)
	if err != nil {
		return nil, err
	}
	return &JournalCreated{Msg: "Journal created!", Journal: view}, nil
}

// GetJournals lists journals, optionally for one author. Private journals
// are omitted unless the viewer wrote them.
func (a *App) GetJournals(ctx context.Context, s *sessioning.SessionDoc, author string) ([]responses.Journal, error) {
	var journals []journaling.JournalDoc
	var err error
	if author != "" {
		id, uerr := a.userID(ctx, author)
		if uerr != nil {
			return nil, uerr
		}
		journals, err = a.c.Journals.GetByAuthor(ctx, id)
	} else {
		journals, err = a.c.Journals.GetJournals(ctx)
	}
	if err != nil {
		return nil, err
	}

	visible := journals[:0]
	for _, j := range journals {
		if j.VisibleTo(s.User) {
			visible = append(visible, j)
		}
	}
	return a.views.Journals(ctx, visible)
}

// GetJournal returns one journal. A private journal reads as missing to
// anyone but its author.
func (a *App) GetJournal(ctx context.Context, s *sessioning.SessionDoc, id string) (*responses.Journal, error) {
	if err := checkIDs("id", id); err != nil {
		return nil, err
	}
	j, err := a.c.Journals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !j.VisibleTo(s.User) {
		return nil, &fault.NotFoundError{Entity: journaling.Entity, ID: id}
	}
	return a.views.Journal(ctx, j)
}

// UpdateJournal changes a journal's name and/or privacy.
func (a *App) UpdateJournal(ctx context.Context, s *sessioning.SessionDoc, id string, name *string, privacy *bool) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("journalid", id); err != nil {
		return nil, err
	}
	if err := a.c.Journals.AssertOwnerIsUser(ctx, id, user); err != nil {
		return nil, err
	}
	if err := a.c.Journals.Update(ctx, id, name, privacy); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Journal successfully updated!"}, nil
}

// DeleteJournal removes a journal, its posts and everything attached to
// them. Posts go before the journal so an interrupted run never leaves posts
// whose journal is gone without saying so.
func (a *App) DeleteJournal(ctx context.Context, s *sessioning.SessionDoc, id string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("journalid", id); err != nil {
		return nil, err
	}
	if err := a.c.Journals.AssertOwnerIsUser(ctx, id, user); err != nil {
		return nil, err
	}

	posts, err := a.c.Posts.GetByJournal(ctx, id)
	if err != nil {
		return nil, err
	}
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	c := a.cascade("delete journal")
	steps := []struct {
		name string
		fn   func() error
	}{
		{"delete highlights", func() error { _, err := a.c.Highlights.DeleteByPost(ctx, postIDs...); return err }},
		{"delete stickers", func() error { _, err := a.c.Stickers.DeleteByPost(ctx, postIDs...); return err }},
		{"remove bookmarks", func() error { return a.c.Bookmarks.RemoveEverywhere(ctx, postIDs...) }},
		{"delete posts", func() error { _, err := a.c.Posts.DeleteByJournal(ctx, id); return err }},
		{"delete journal", func() error { return a.c.Journals.Delete(ctx, id) }},
	}
	for _, st := range steps {
		if err := c.step(st.name, st.fn); err != nil {
			return nil, err
		}
	}

	a.logger.Info("journal deleted", "journal_id", id, "posts", len(postIDs))
	return &Msg{Msg: "Journal deleted successfully!"}, nil
}
