// Package errorreg turns domain errors into HTTP statuses and display messages.
//
// # Resolution
//
// Errors from the fault package carry raw user ids. Formatters registered
// per error kind resolve those ids to usernames before rendering. A
// formatter that fails falls back to the error's own message, and errors
// outside the fault taxonomy resolve to a generic 500 whose detail is kept
// for logging only.
package errorreg
