// ABOUTME: Bookmark operations over each user's single bookmark folder
// ABOUTME: The folder is created on first use through the store's unique author index

package app

import (
	"context"

	"github.com/2389/folio/internal/bookmarking"
	"github.com/2389/folio/internal/responses"
	"github.com/2389/folio/internal/sessioning"
)

// GetBookmarks lists bookmark folders, optionally only the named author's.
// Bookmarked posts the viewer may not read are left out of the items.
func (a *App) GetBookmarks(ctx context.Context, s *sessioning.SessionDoc, author string) ([]responses.Folder, error) {
	var folders []bookmarking.FolderDoc
	if author != "" {
		id, err := a.userID(ctx, author)
		if err != nil {
			return nil, err
		}
		f, err := a.c.Bookmarks.GetByAuthor(ctx, id)
		if err != nil {
			return nil, err
		}
		if f != nil {
			folders = []bookmarking.FolderDoc{*f}
		}
	} else {
		var err error
		if folders, err = a.c.Bookmarks.GetFolders(ctx); err != nil {
			return nil, err
		}
	}

	var items []string
	for _, f := range folders {
		items = append(items, f.Items...)
	}
	hidden, err := a.hiddenPosts(ctx, s.User, items)
	if err != nil {
		return nil, err
	}
	if len(hidden) > 0 {
		for i := range folders {
			kept := make([]string, 0, len(folders[i].Items))
			for _, id := range folders[i].Items {
				if !hidden[id] {
					kept = append(kept, id)
				}
			}
			folders[i].Items = kept
		}
	}
	return a.views.Folders(ctx, folders)
}

// AddBookmark bookmarks an existing post.
func (a *App) AddBookmark(ctx context.Context, s *sessioning.SessionDoc, post string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := a.requirePost(ctx, s, post); err != nil {
		return nil, err
	}
	if err := a.c.Bookmarks.Append(ctx, user, post); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Bookmarked!"}, nil
}

// RemoveBookmark unbookmarks a post.
func (a *App) RemoveBookmark(ctx context.Context, s *sessioning.SessionDoc, post string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := checkIDs("postid", post); err != nil {
		return nil, err
	}
	if err := a.c.Bookmarks.Remove(ctx, user, post); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Removed bookmark!"}, nil
}
