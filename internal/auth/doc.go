// Package auth binds HTTP requests to stored sessions.
//
// # Session Tokens
//
// A logged-in client holds the folio_session cookie. Its value is an HS256
// JWT whose sub claim is the session id:
//
//	verifier, err := NewJWTVerifier(secret) // secret >= MinSecretLength bytes
//	token, err := verifier.Generate(sessionID, ttl)
//	sessionID, err := verifier.Verify(token)
//
// The token only names the session. Whether the session is still live is
// decided by the session store, so logging out or deleting an account takes
// effect immediately even while the cookie has not expired.
//
// # Middleware
//
// SessionMiddleware verifies the cookie (or an Authorization: Bearer header),
// loads the session and attaches it to the request context:
//
//	s := FromContext(r.Context())
//
// Missing, expired or forged tokens yield an anonymous session rather than an
// error; operations that need a user fail later with "Must be logged in!".
//
// CookieIssuer writes the cookie after login and clears it after logout. Given
// an issuer, the middleware also reissues the cookie on each request made with
// a logged-in cookie, so an active browser is never logged out mid-use.
package auth
