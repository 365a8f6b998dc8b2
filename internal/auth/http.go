// ABOUTME: HTTP middleware resolving the session cookie to a stored session
// ABOUTME: Also issues and clears the cookie when the session changes

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/2389/folio/internal/sessioning"
)

// CookieName is the session cookie.
const CookieName = "folio_session"

// SessionLoader loads a stored session by id. Unknown ids yield an anonymous session.
type SessionLoader interface {
	Load(ctx context.Context, id string) (*sessioning.SessionDoc, error)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// requestToken prefers the session cookie and falls back to a bearer token.
func requestToken(r *http.Request) (token string, fromCookie bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	token, _ = extractBearerToken(r.Header.Get("Authorization"))
	return token, false
}

// SessionMiddleware attaches the caller's session to the request context.
// Requests without a valid token proceed as anonymous. When refresh is
// non-nil, a logged-in session presented by cookie gets a freshly issued
// cookie, so the cookie expires session_ttl after the last request.
func SessionMiddleware(sessions SessionLoader, verifier TokenVerifier, refresh *CookieIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			token, fromCookie := requestToken(r)
			if token != "" {
				id, err := verifier.Verify(token)
				if err != nil {
					logger.Debug("ignoring session token", "error", err)
				} else {
					sessionID = id
				}
			}

			s, err := sessions.Load(r.Context(), sessionID)
			if err != nil {
				logger.Error("failed to load session", "error", err)
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"message":"internal server error"}`, http.StatusInternalServerError)
				return
			}
			if refresh != nil && fromCookie && s.LoggedIn() {
				if err := refresh.Set(w, s); err != nil {
					logger.Warn("failed to refresh session cookie", "error", err)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// CookieIssuer writes the session cookie.
type CookieIssuer struct {
	verifier *JWTVerifier
	ttl      time.Duration
	secure   bool
}

// NewCookieIssuer creates an issuer whose tokens and cookies live for ttl.
func NewCookieIssuer(verifier *JWTVerifier, ttl time.Duration, secure bool) *CookieIssuer {
	return &CookieIssuer{verifier: verifier, ttl: ttl, secure: secure}
}

// Set issues a cookie for s, or clears it when s is anonymous.
func (c *CookieIssuer) Set(w http.ResponseWriter, s *sessioning.SessionDoc) error {
	if !s.LoggedIn() {
		c.Clear(w)
		return nil
	}
	token, err := c.verifier.Generate(s.ID, c.ttl)
	if err != nil {
		return err
	}
	replaceCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the cookie.
func (c *CookieIssuer) Clear(w http.ResponseWriter) {
	replaceCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// replaceCookie sets c, dropping any session cookie queued earlier in the
// same response so a handler's login or logout wins over the refresh.
func replaceCookie(w http.ResponseWriter, c *http.Cookie) {
	h := w.Header()
	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, c.Name+"=") {
			kept = append(kept, v)
		}
	}
	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}
	http.SetCookie(w, c)
}
