// Package gateway is the HTTP boundary of folio.
//
// # Overview
//
// Gateway owns the document store driver, the app orchestrator and the HTTP
// server. Run serves until its context is canceled, then shuts the server
// down gracefully and closes the store. An idle-session sweeper runs beside
// the server in the same errgroup.
//
// # HTTP API
//
// Every /api route maps to one app operation. Arguments are read by name
// from the path, the query string and a JSON object body, in that order of
// precedence. Successful calls answer 200 with the operation's JSON result.
// Failures answer with the status resolved by the error registry and a body
// of the form:
//
//	{"message": "Journal 0192... does not exist!"}
//
// Routes:
//
//   - GET /api/session, GET /api/users, GET /api/users/{username}
//   - POST /api/users, PATCH /api/users/username, PATCH /api/users/password, DELETE /api/users
//   - POST /api/login, POST /api/logout
//   - GET /api/friends, DELETE /api/friends/{friend}
//   - GET /api/friend/requests, POST|DELETE /api/friend/requests/{to}
//   - PUT /api/friend/accept/{from}, PUT /api/friend/reject/{from}
//   - GET|POST|PATCH|DELETE /api/journals, GET /api/journals/{id}
//   - GET|POST /api/posts, PATCH|DELETE /api/posts/{id}
//   - GET|POST /api/highlights, PATCH|DELETE /api/highlights/{id}
//   - GET|POST|PATCH|DELETE /api/stickers
//   - GET|POST /api/bookmarks, DELETE /api/bookmarks/{id}
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (pings SQL stores)
//
// # Sessions
//
// The folio_session cookie is issued on login and cleared on logout and
// account deletion. See package auth.
package gateway
