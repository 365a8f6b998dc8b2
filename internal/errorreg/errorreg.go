// ABOUTME: Error resolution registry: maps error kinds to formatters run at the response boundary
// ABOUTME: Formatters swap raw user ids in domain errors for usernames

package errorreg

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/2389/folio/internal/bookmarking"
	"github.com/2389/folio/internal/fault"
	"github.com/2389/folio/internal/highlighting"
	"github.com/2389/folio/internal/journaling"
	"github.com/2389/folio/internal/posting"
	"github.com/2389/folio/internal/sticking"
)

// GenericMessage is sent for errors that are not domain errors.
const GenericMessage = "internal server error"

// Formatter renders a domain error for display.
type Formatter func(ctx context.Context, err error) (string, error)

// UserNamer resolves user ids to display names positionally.
type UserNamer interface {
	IDsToUsernames(ctx context.Context, ids []string) ([]string, error)
}

// Resolved is an error ready for the wire. Detail is for logs only.
type Resolved struct {
	Status  int
	Message string
	Kind    string
	Detail  string
}

// Registry maps error kinds to formatters. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	logger     *slog.Logger
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
		logger:     slog.Default().With("component", "errorreg"),
	}
}

// Register installs f for kind, replacing any earlier formatter.
func (r *Registry) Register(kind string, f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[kind] = f
}

func (r *Registry) lookup(kind string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[kind]
	return f, ok
}

// Resolve turns err into a status and display message.
func (r *Registry) Resolve(ctx context.Context, err error) Resolved {
	var fe fault.Error
	if !errors.As(err, &fe) {
		r.logger.Error("unclassified error", "error", err)
		return Resolved{
			Status:  http.StatusInternalServerError,
			Message: GenericMessage,
			Detail:  err.Error(),
		}
	}

	res := Resolved{
		Status:  fe.Class().Status(),
		Message: fe.Error(),
		Kind:    fe.Kind(),
		Detail:  err.Error(),
	}

	f, ok := r.lookup(res.Kind)
	if !ok {
		return res
	}
	msg, ferr := f(ctx, fe)
	if ferr != nil {
		r.logger.Warn("error formatter failed", "kind", res.Kind, "error", ferr)
		return res
	}
	res.Message = msg
	return res
}

// NewDefault creates a Registry with formatters for every owner-mismatch
// kind and the friend errors, resolving ids through names.
func NewDefault(names UserNamer) *Registry {
	r := New()

	for _, entity := range []string{posting.Entity, journaling.Entity, highlighting.Entity, sticking.Entity, bookmarking.Entity} {
		r.Register(fault.OwnerMismatchKind(entity), ownerMismatch(names))
	}
	for _, kind := range []string{
		fault.KindFriendRequestAlreadyExists,
		fault.KindAlreadyFriends,
		fault.KindFriendNotFound,
		fault.KindFriendRequestNotFound,
	} {
		r.Register(kind, userPair(names))
	}
	return r
}

func ownerMismatch(names UserNamer) Formatter {
	return func(ctx context.Context, err error) (string, error) {
		var om *fault.OwnerMismatchError
		if !errors.As(err, &om) {
			return "", errors.New("not an owner mismatch error")
		}
		resolved, lerr := names.IDsToUsernames(ctx, []string{om.User})
		if lerr != nil {
			return "", lerr
		}
		return om.FormatWith(resolved[0], om.ID), nil
	}
}

func userPair(names UserNamer) Formatter {
	return func(ctx context.Context, err error) (string, error) {
		var pe fault.PairError
		if !errors.As(err, &pe) {
			return "", errors.New("not a user pair error")
		}
		a, b := pe.Users()
		resolved, lerr := names.IDsToUsernames(ctx, []string{a, b})
		if lerr != nil {
			return "", lerr
		}
		return pe.FormatWith(resolved[0], resolved[1]), nil
	}
}
