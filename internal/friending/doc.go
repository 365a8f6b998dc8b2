// Package friending manages friend requests and friendships.
//
// # Overview
//
// A request is directed (from, to) and unique per ordered pair. A
// friendship is stored once with its two users in canonical order, so
// lookups from either side find the same link. Sending a request fails when
// the users are already friends or a request exists in either direction.
package friending
