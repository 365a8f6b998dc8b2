// ABOUTME: Request context carrying the caller's session through handlers
// ABOUTME: Provides WithSession/FromContext, anonymous when nothing was attached

package auth

import (
	"context"

	"github.com/2389/folio/internal/sessioning"
)

// sessionContextKey is the key type for storing the session in context.Context.
type sessionContextKey struct{}

// WithSession returns a new context with s attached.
func WithSession(ctx context.Context, s *sessioning.SessionDoc) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext returns the attached session, or a fresh anonymous one.
func FromContext(ctx context.Context) *sessioning.SessionDoc {
	s, ok := ctx.Value(sessionContextKey{}).(*sessioning.SessionDoc)
	if !ok || s == nil {
		return &sessioning.SessionDoc{}
	}
	return s
}
