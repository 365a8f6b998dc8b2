// ABOUTME: Converts stored documents into display documents for the API
// ABOUTME: Author ids become usernames with one batched lookup per list; posts gain rendered HTML

package responses

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/folio/internal/bookmarking"
	"github.com/2389/folio/internal/friending"
	"github.com/2389/folio/internal/highlighting"
	"github.com/2389/folio/internal/journaling"
	"github.com/2389/folio/internal/posting"
	"github.com/2389/folio/internal/sticking"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// UserNamer resolves user ids to display names positionally.
type UserNamer interface {
	IDsToUsernames(ctx context.Context, ids []string) ([]string, error)
}

// Post is a post with its author's username and rendered content.
type Post struct {
	ID          string    `json:"_id"`
	Author      string    `json:"author"`
	Journal     string    `json:"journal"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"contentHtml"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// Journal is a journal with its author's username.
type Journal struct {
	ID          string    `json:"_id"`
	Author      string    `json:"author"`
	Name        string    `json:"name"`
	Privacy     bool      `json:"privacy"`
	Items       []string  `json:"items"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// Highlight is a highlight with its author's username.
type Highlight struct {
	ID          string    `json:"_id"`
	Author      string    `json:"author"`
	Post        string    `json:"post"`
	Comment     string    `json:"comment"`
	Quote       *string   `json:"quote,omitempty"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// Sticker is a sticker with its author's username.
type Sticker struct {
	ID          string    `json:"_id"`
	Author      string    `json:"author"`
	Post        string    `json:"post"`
	Sticker     string    `json:"sticker"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// Folder is a bookmark folder with its owner's username.
type Folder struct {
	ID          string    `json:"_id"`
	Author      string    `json:"author"`
	Items       []string  `json:"items"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// FriendRequest is a request with both parties as usernames.
type FriendRequest struct {
	ID          string    `json:"_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Status      string    `json:"status"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// Projector builds display documents.
type Projector struct {
	names  UserNamer
	md     goldmark.Markdown
	logger *slog.Logger
}

// New creates a Projector that resolves names through names.
func New(names UserNamer) *Projector {
	return &Projector{
		names:  names,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: slog.Default().With("component", "responses"),
	}
}

// resolve looks up every author in one call.
func resolve[D any](ctx context.Context, names UserNamer, docs []D, author func(*D) string) ([]string, error) {
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = author(&docs[i])
	}
	out, err := names.IDsToUsernames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving authors: %w", err)
	}
	if len(out) != len(ids) {
		return nil, fmt.Errorf("resolving authors: got %d names for %d ids", len(out), len(ids))
	}
	return out, nil
}

func (p *Projector) render(content string) string {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(content), &buf); err != nil {
		p.logger.Error("failed to convert markdown", "error", err)
		return ""
	}
	return buf.String()
}

// Post projects a single post. A nil post projects to nil.
func (p *Projector) Post(ctx context.Context, post *posting.PostDoc) (*Post, error) {
	if post == nil {
		return nil, nil
	}
	out, err := p.Posts(ctx, []posting.PostDoc{*post})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Posts projects posts, preserving order.
func (p *Projector) Posts(ctx context.Context, posts []posting.PostDoc) ([]Post, error) {
	authors, err := resolve(ctx, p.names, posts, func(d *posting.PostDoc) string { return d.Author })
	if err != nil {
		return nil, err
	}
	out := make([]Post, len(posts))
	for i, d := range posts {
		out[i] = Post{
			ID: d.ID, Author: authors[i], Journal: d.Journal,
			Content: d.Content, ContentHTML: p.render(d.Content),
			DateCreated: d.DateCreated, DateUpdated: d.DateUpdated,
		}
	}
	return out, nil
}

// Journal projects a single journal. A nil journal projects to nil.
func (p *Projector) Journal(ctx context.Context, j *journaling.JournalDoc) (*Journal, error) {
	if j == nil {
		return nil, nil
	}
	out, err := p.Journals(ctx, []journaling.JournalDoc{*j})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Journals projects journals, preserving order.
func (p *Projector) Journals(ctx context.Context, journals []journaling.JournalDoc) ([]Journal, error) {
	authors, err := resolve(ctx, p.names, journals, func(d *journaling.JournalDoc) string { return d.Author })
	if err != nil {
		return nil, err
	}
	out := make([]Journal, len(journals))
	for i, d := range journals {
		items := d.Items
		if items == nil {
			items = []string{}
		}
		out[i] = Journal{
			ID: d.ID, Author: authors[i], Name: d.Name, Privacy: d.Privacy, Items: items,
			DateCreated: d.DateCreated, DateUpdated: d.DateUpdated,
		}
	}
	return out, nil
}

// Highlights projects highlights, preserving order.
func (p *Projector) Highlights(ctx context.Context, hs []highlighting.HighlightDoc) ([]Highlight, error) {
	authors, err := resolve(ctx, p.names, hs, func(d *highlighting.HighlightDoc) string { return d.Author })
	if err != nil {
		return nil, err
	}
	out := make([]Highlight, len(hs))
	for i, d := range hs {
		out[i] = Highlight{
			ID: d.ID, Author: authors[i], Post: d.Post, Comment: d.Comment, Quote: d.Quote,
			DateCreated: d.DateCreated, DateUpdated: d.DateUpdated,
		}
	}
	return out, nil
}

// Stickers projects stickers, preserving order.
func (p *Projector) Stickers(ctx context.Context, ss []sticking.StickerDoc) ([]Sticker, error) {
	authors, err := resolve(ctx, p.names, ss, func(d *sticking.StickerDoc) string { return d.Author })
	if err != nil {
		return nil, err
	}
	out := make([]Sticker, len(ss))
	for i, d := range ss {
		out[i] = Sticker{
			ID: d.ID, Author: authors[i], Post: d.Post, Sticker: d.Sticker,
			DateCreated: d.DateCreated, DateUpdated: d.DateUpdated,
		}
	}
	return out, nil
}

// Folders projects bookmark folders, preserving order.
func (p *Projector) Folders(ctx context.Context, fs []bookmarking.FolderDoc) ([]Folder, error) {
	authors, err := resolve(ctx, p.names, fs, func(d *bookmarking.FolderDoc) string { return d.Author })
	if err != nil {
		return nil, err
	}
	out := make([]Folder, len(fs))
	for i, d := range fs {
		items := d.Items
		if items == nil {
			items = []string{}
		}
		out[i] = Folder{
			ID: d.ID, Author: authors[i], Items: items,
			DateCreated: d.DateCreated, DateUpdated: d.DateUpdated,
		}
	}
	return out, nil
}

// FriendRequests projects requests with one lookup covering both parties.
func (p *Projector) FriendRequests(ctx context.Context, rs []friending.FriendRequestDoc) ([]FriendRequest, error) {
	ids := make([]string, 0, 2*len(rs))
	for _, r := range rs {
		ids = append(ids, r.From)
	}
	for _, r := range rs {
		ids = append(ids, r.To)
	}
	names, err := p.names.IDsToUsernames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving request parties: %w", err)
	}
	if len(names) != len(ids) {
		return nil, fmt.Errorf("resolving request parties: got %d names for %d ids", len(names), len(ids))
	}

	out := make([]FriendRequest, len(rs))
	for i, r := range rs {
		out[i] = FriendRequest{
			ID: r.ID, From: names[i], To: names[i+len(rs)], Status: r.Status,
			DateCreated: r.DateCreated, DateUpdated: r.DateUpdated,
		}
	}
	return out, nil
}

// Usernames resolves a list of user ids, such as a friend list.
func (p *Projector) Usernames(ctx context.Context, ids []string) ([]string, error) {
	return p.names.IDsToUsernames(ctx, ids)
}
