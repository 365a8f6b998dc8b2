// Package sessioning ties transport sessions to logged-in users.
//
// Sessions live in their own collection. Load marks a session active on
// every request and Sweep removes sessions that have been idle longer than
// the configured TTL.
package sessioning
