// ABOUTME: Session concept: ties a transport session to at most one logged-in user
// ABOUTME: Sessions persist in their own collection and idle ones are swept

package sessioning

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
)

// SessionDoc is one login. An anonymous session has no ID and no User.
type SessionDoc struct {
	docstore.BaseDoc
	User string `json:"user"`
}

// LoggedIn reports whether the session holds a user.
func (s *SessionDoc) LoggedIn() bool { return s != nil && s.User != "" }

// Concept manages sessions.
type Concept struct {
	sessions *docstore.Collection[SessionDoc, *SessionDoc]
	now      func() time.Time
	logger   *slog.Logger
}

// New registers the sessions collection.
func New(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (*Concept, error) {
	sessions, err := docstore.NewCollection[SessionDoc](ctx, d, "sessions", nil, opts...)
	if err != nil {
		return nil, err
	}
	return &Concept{
		sessions: sessions,
		now:      time.Now,
		logger:   slog.Default().With("component", "sessioning"),
	}, nil
}

// Load returns the stored session for id and marks it active. An empty or
// unknown id yields an anonymous session.
func (c *Concept) Load(ctx context.Context, id string) (*SessionDoc, error) {
	if id == "" {
		return &SessionDoc{}, nil
	}
	s, err := c.sessions.ReadOne(ctx, docstore.Filter{docstore.IDField: id})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &SessionDoc{}, nil
	}
	err = c.sessions.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, docstore.Fields{})
	if errors.Is(err, docstore.ErrNoMatch) {
		// ended between the read and the touch
		return &SessionDoc{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start logs user into s.
func (c *Concept) Start(ctx context.Context, s *SessionDoc, user string) error {
	if err := c.IsLoggedOut(s); err != nil {
		return err
	}
	doc := &SessionDoc{User: user}
	if _, err := c.sessions.CreateOne(ctx, doc); err != nil {
		return err
	}
	*s = *doc
	c.logger.Debug("session started", "session_id", s.ID, "user_id", user)
	return nil
}

// End logs s out.
func (c *Concept) End(ctx context.Context, s *SessionDoc) error {
	if !s.LoggedIn() {
		return &fault.AlreadyLoggedOutError{}
	}
	if err := c.sessions.DeleteOne(ctx, docstore.Filter{docstore.IDField: s.ID}); err != nil {
		return err
	}
	c.logger.Debug("session ended", "session_id", s.ID)
	*s = SessionDoc{}
	return nil
}

// EndAllForUser removes every session held by user.
func (c *Concept) EndAllForUser(ctx context.Context, user string) (int64, error) {
	return c.sessions.DeleteMany(ctx, docstore.Filter{"user": user})
}

// GetUser returns the logged-in user or an UnauthenticatedError.
func (c *Concept) GetUser(s *SessionDoc) (string, error) {
	if !s.LoggedIn() {
		return "", &fault.UnauthenticatedError{}
	}
	return s.User, nil
}

// IsLoggedOut fails with AlreadyLoggedInError when s holds a user.
func (c *Concept) IsLoggedOut(s *SessionDoc) error {
	if s.LoggedIn() {
		return &fault.AlreadyLoggedInError{}
	}
	return nil
}

// Sweep removes sessions idle for longer than maxIdle and returns how many.
// A session touched by Load after the scan has a newer dateUpdated than any
// it was read with, so the delete no longer matches it.
func (c *Concept) Sweep(ctx context.Context, maxIdle time.Duration) (int64, error) {
	all, err := c.sessions.ReadMany(ctx, docstore.Filter{}, docstore.FindOptions{})
	if err != nil {
		return 0, err
	}

	cutoff := c.now().Add(-maxIdle)
	var stale []string
	var stamps []time.Time
	for _, s := range all {
		if s.DateUpdated.Before(cutoff) {
			stale = append(stale, s.ID)
			stamps = append(stamps, s.DateUpdated)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	n, err := c.sessions.DeleteMany(ctx, docstore.Filter{
		docstore.IDField: docstore.In(stale...),
		"dateUpdated":    docstore.In(stamps...),
	})
	if err != nil {
		return 0, err
	}
	c.logger.Info("swept idle sessions", "count", n)
	return n, nil
}
