// ABOUTME: Orchestrator composing the concepts into one operation per API route
// ABOUTME: Owns cross-concept rules: guards first, cascades as named steps, compensation on failure

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/folio/internal/bookmarking"
	"github.com/2389/folio/internal/concept"
	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/errorreg"
	"github.com/2389/folio/internal/fault"
	"github.com/2389/folio/internal/friending"
	"github.com/2389/folio/internal/highlighting"
	"github.com/2389/folio/internal/identity"
	"github.com/2389/folio/internal/journaling"
	"github.com/2389/folio/internal/posting"
	"github.com/2389/folio/internal/responses"
	"github.com/2389/folio/internal/sessioning"
	"github.com/2389/folio/internal/sticking"
)

// Concepts is the set of concept instances the App composes.
type Concepts struct {
	Identity   *identity.Concept
	Sessions   *sessioning.Concept
	Posts      *posting.Concept
	Journals   *journaling.Concept
	Highlights *highlighting.Concept
	Stickers   *sticking.Concept
	Bookmarks  *bookmarking.Concept
	Friends    *friending.Concept
}

// OpenConcepts constructs every concept on d.
func OpenConcepts(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (Concepts, error) {
	var c Concepts
	var err error

	if c.Identity, err = identity.New(ctx, d, opts...); err != nil {
		return Concepts{}, fmt.Errorf("identity: %w", err)
	}
	if c.Sessions, err = sessioning.New(ctx, d, opts...); err != nil {
		return Concepts{}, fmt.Errorf("sessioning: %w", err)
	}
	if c.Posts, err = posting.New(ctx, d, opts...); err != nil {
		return Concepts{}, fmt.Errorf("posting: %w", err)
	}
	if c.Journals, err = journaling.New(ctx, d, opts...); err != nil {
		return Concepts{}, fmt.Errorf("journaling: %w", err)
	}
	if c.Highlights, err = highlighting.New(ctx, d, opts...); err != nil {
		return Concepts{}, fmt.Errorf("highlighting: %w", err)
	}
	if c.Stickers, err = sticking.New(ctx, d, opts...); err != nil {
		return Concepts{}, fmt.Errorf("sticking: %w", err)
	}
	if c.Bookmarks, err = bookmarking.New(ctx, d, opts...); err != nil {
		return Concepts{}, fmt.Errorf("bookmarking: %w", err)
	}
	if c.Friends, err = friending.New(ctx, d, opts...); err != nil {
		return Concepts{}, fmt.Errorf("friending: %w", err)
	}
	return c, nil
}

// App is the orchestrator. All dependencies arrive through New.
type App struct {
	c      Concepts
	views  *responses.Projector
	errs   *errorreg.Registry
	logger *slog.Logger
}

// New creates an App over c.
func New(c Concepts) *App {
	return &App{
		c:      c,
		views:  responses.New(c.Identity),
		errs:   errorreg.NewDefault(c.Identity),
		logger: slog.Default().With("component", "app"),
	}
}

// Sessions exposes the session concept to the transport layer.
func (a *App) Sessions() *sessioning.Concept { return a.c.Sessions }

// Errors exposes the error registry to the transport layer.
func (a *App) Errors() *errorreg.Registry { return a.errs }

// Msg is the acknowledgement returned by mutating operations.
type Msg struct {
	Msg string `json:"msg"`
}

func (a *App) currentUser(s *sessioning.SessionDoc) (string, error) {
	return a.c.Sessions.GetUser(s)
}

// userID resolves a username from a request to its id.
func (a *App) userID(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", fault.Required("username")
	}
	u, err := a.c.Identity.GetUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func checkIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := concept.CheckID(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// cascade runs the steps of a multi-concept operation in order. Once a step
// has been applied, a later failure is reported as a PartialFailureError
// naming what was applied.
type cascade struct {
	op     string
	done   []string
	logger *slog.Logger
}

func (a *App) cascade(op string) *cascade {
	return &cascade{op: op, logger: a.logger}
}

func (c *cascade) step(name string, fn func() error) error {
	if err := fn(); err != nil {
		if len(c.done) == 0 {
			return err
		}
		c.logger.Error("operation partially applied", "operation", c.op, "completed", c.done, "failed", name, "error", err)
		return &fault.PartialFailureError{
			Operation: c.op,
			Completed: append([]string(nil), c.done...),
			Failed:    name,
			Cause:     err,
		}
	}
	c.done = append(c.done, name)
	return nil
}
