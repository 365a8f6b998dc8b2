// ABOUTME: Structured domain errors shared by every concept and the orchestrator
// ABOUTME: Errors keep raw identifiers; display names are resolved later by errorreg

// Package fault defines the domain error taxonomy. Each error reports a Kind
// (used to look up a formatter) and a Class (used to pick a status code).
package fault

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Class groups error kinds by how the boundary should answer them.
type Class int

const (
	Internal Class = iota
	NotFound
	Forbidden
	Unauthorized
	Conflict
	Invalid
)

// Status maps a class to its HTTP status code.
func (c Class) Status() int {
	switch c {
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	case Conflict:
		return http.StatusConflict
	case Invalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (c Class) String() string {
	switch c {
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case Unauthorized:
		return "unauthorized"
	case Conflict:
		return "conflict"
	case Invalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is implemented by every domain error in this package.
type Error interface {
	error
	Kind() string
	Class() Class
}

// Error kinds that are not tied to an entity.
const (
	KindNotFound                   = "NotFound"
	KindAlreadyExists              = "AlreadyExists"
	KindValidation                 = "Validation"
	KindUnauthenticated            = "Unauthenticated"
	KindAlreadyLoggedIn            = "AlreadyLoggedIn"
	KindAlreadyLoggedOut           = "AlreadyLoggedOut"
	KindInvalidCredentials         = "InvalidCredentials"
	KindFriendRequestAlreadyExists = "FriendRequestAlreadyExists"
	KindAlreadyFriends             = "AlreadyFriends"
	KindFriendNotFound             = "FriendNotFound"
	KindFriendRequestNotFound      = "FriendRequestNotFound"
	KindPartialFailure             = "PartialFailure"
)

// OwnerMismatchKind returns the kind reported by OwnerMismatchError for entity.
func OwnerMismatchKind(entity string) string {
	return entity + "AuthorNotMatch"
}

// ClassOf returns the class of err, or Internal when err is not a domain error.
func ClassOf(err error) Class {
	var fe Error
	if errors.As(err, &fe) {
		return fe.Class()
	}
	return Internal
}

// KindOf returns the kind of err, or "" when err is not a domain error.
func KindOf(err error) string {
	var fe Error
	if errors.As(err, &fe) {
		return fe.Kind()
	}
	return ""
}

// NotFoundError reports a missing document.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s does not exist!", e.Entity)
	}
	return fmt.Sprintf("%s %s does not exist!", e.Entity, e.ID)
}
func (e *NotFoundError) Kind() string { return KindNotFound }
func (e *NotFoundError) Class() Class { return NotFound }

// OwnerMismatchError reports that User is not the author of the entity ID.
type OwnerMismatchError struct {
	Entity string
	User   string
	ID     string
}

func (e *OwnerMismatchError) Error() string { return e.FormatWith(e.User, e.ID) }
func (e *OwnerMismatchError) Kind() string  { return OwnerMismatchKind(e.Entity) }
func (e *OwnerMismatchError) Class() Class  { return Forbidden }

// FormatWith renders the message with display values in place of raw ids.
func (e *OwnerMismatchError) FormatWith(user, id string) string {
	return fmt.Sprintf("%s is not the author of %s %s!", user, strings.ToLower(e.Entity), id)
}

// AlreadyExistsError reports a uniqueness violation, such as a taken username.
type AlreadyExistsError struct {
	Entity string
	Field  string
	Value  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with %s %s already exists!", e.Entity, e.Field, e.Value)
}
func (e *AlreadyExistsError) Kind() string { return KindAlreadyExists }
func (e *AlreadyExistsError) Class() Class { return Conflict }

// ValidationError reports a bad or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
func (e *ValidationError) Kind() string { return KindValidation }
func (e *ValidationError) Class() Class { return Invalid }

// Required builds the ValidationError for a missing field.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "must be non-empty!"}
}

// UnauthenticatedError is returned when an operation needs a logged-in user.
type UnauthenticatedError struct{}

func (e *UnauthenticatedError) Error() string { return "Must be logged in!" }
func (e *UnauthenticatedError) Kind() string  { return KindUnauthenticated }
func (e *UnauthenticatedError) Class() Class  { return Unauthorized }

// AlreadyLoggedInError is returned when an operation needs a logged-out session.
type AlreadyLoggedInError struct{}

func (e *AlreadyLoggedInError) Error() string { return "Must be logged out!" }
func (e *AlreadyLoggedInError) Kind() string  { return KindAlreadyLoggedIn }
func (e *AlreadyLoggedInError) Class() Class  { return Forbidden }

// AlreadyLoggedOutError is returned when ending a session nobody holds.
type AlreadyLoggedOutError struct{}

func (e *AlreadyLoggedOutError) Error() string { return "Already logged out!" }
func (e *AlreadyLoggedOutError) Kind() string  { return KindAlreadyLoggedOut }
func (e *AlreadyLoggedOutError) Class() Class  { return Forbidden }

// InvalidCredentialsError is returned when a username/password pair is rejected.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string { return "Username or password is incorrect." }
func (e *InvalidCredentialsError) Kind() string  { return KindInvalidCredentials }
func (e *InvalidCredentialsError) Class() Class  { return Unauthorized }

// PairError is implemented by errors that name two users by raw id.
type PairError interface {
	Error
	Users() (string, string)
	FormatWith(a, b string) string
}

// FriendRequestAlreadyExistsError reports a pending request between two users.
type FriendRequestAlreadyExistsError struct {
	From string
	To   string
}

func (e *FriendRequestAlreadyExistsError) Error() string { return e.FormatWith(e.From, e.To) }
func (e *FriendRequestAlreadyExistsError) Kind() string  { return KindFriendRequestAlreadyExists }
func (e *FriendRequestAlreadyExistsError) Class() Class  { return Conflict }
func (e *FriendRequestAlreadyExistsError) Users() (string, string) {
	return e.From, e.To
}
func (e *FriendRequestAlreadyExistsError) FormatWith(from, to string) string {
	return fmt.Sprintf("Friend request between %s and %s already exists!", from, to)
}

// AlreadyFriendsError reports an existing friendship.
type AlreadyFriendsError struct {
	User1 string
	User2 string
}

func (e *AlreadyFriendsError) Error() string { return e.FormatWith(e.User1, e.User2) }
func (e *AlreadyFriendsError) Kind() string  { return KindAlreadyFriends }
func (e *AlreadyFriendsError) Class() Class  { return Conflict }
func (e *AlreadyFriendsError) Users() (string, string) {
	return e.User1, e.User2
}
func (e *AlreadyFriendsError) FormatWith(a, b string) string {
	return fmt.Sprintf("%s and %s are already friends!", a, b)
}

// FriendNotFoundError reports a missing friendship.
type FriendNotFoundError struct {
	User1 string
	User2 string
}

func (e *FriendNotFoundError) Error() string { return e.FormatWith(e.User1, e.User2) }
func (e *FriendNotFoundError) Kind() string  { return KindFriendNotFound }
func (e *FriendNotFoundError) Class() Class  { return NotFound }
func (e *FriendNotFoundError) Users() (string, string) {
	return e.User1, e.User2
}
func (e *FriendNotFoundError) FormatWith(a, b string) string {
	return fmt.Sprintf("Friendship between %s and %s does not exist!", a, b)
}

// FriendRequestNotFoundError reports a missing pending request.
type FriendRequestNotFoundError struct {
	From string
	To   string
}

func (e *FriendRequestNotFoundError) Error() string { return e.FormatWith(e.From, e.To) }
func (e *FriendRequestNotFoundError) Kind() string  { return KindFriendRequestNotFound }
func (e *FriendRequestNotFoundError) Class() Class  { return NotFound }
func (e *FriendRequestNotFoundError) Users() (string, string) {
	return e.From, e.To
}
func (e *FriendRequestNotFoundError) FormatWith(from, to string) string {
	return fmt.Sprintf("Friend request from %s to %s does not exist!", from, to)
}

// PartialFailureError reports a multi-step operation that stopped midway.
// Completed lists the steps that were applied and stay applied.
type PartialFailureError struct {
	Operation string
	Completed []string
	Failed    string
	Cause     error
}

func (e *PartialFailureError) Error() string {
	done := "nothing"
	if len(e.Completed) > 0 {
		done = strings.Join(e.Completed, ", ")
	}
	return fmt.Sprintf("%s partially applied: completed %s; failed at %s: %v", e.Operation, done, e.Failed, e.Cause)
}
func (e *PartialFailureError) Kind() string  { return KindPartialFailure }
func (e *PartialFailureError) Class() Class  { return Internal }
func (e *PartialFailureError) Unwrap() error { return e.Cause }
