// ABOUTME: Tests for the domain error taxonomy
// ABOUTME: Verifies kinds, classes, status codes and wrapped-error lookup

package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		class  Class
		status int
	}{
		{"not found", &NotFoundError{Entity: "Post", ID: "p1"}, NotFound, http.StatusNotFound},
		{"owner mismatch", &OwnerMismatchError{Entity: "Post", User: "u1", ID: "p1"}, Forbidden, http.StatusForbidden},
		{"already exists", &AlreadyExistsError{Entity: "User", Field: "username", Value: "alice"}, Conflict, http.StatusConflict},
		{"validation", Required("username"), Invalid, http.StatusBadRequest},
		{"unauthenticated", &UnauthenticatedError{}, Unauthorized, http.StatusUnauthorized},
		{"logged in", &AlreadyLoggedInError{}, Forbidden, http.StatusForbidden},
		{"credentials", &InvalidCredentialsError{}, Unauthorized, http.StatusUnauthorized},
		{"already friends", &AlreadyFriendsError{User1: "a", User2: "b"}, Conflict, http.StatusConflict},
		{"friend missing", &FriendNotFoundError{User1: "a", User2: "b"}, NotFound, http.StatusNotFound},
		{"partial", &PartialFailureError{Operation: "delete journal", Failed: "x", Cause: errors.New("boom")}, Internal, http.StatusInternalServerError},
		{"plain", errors.New("boom"), Internal, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", &NotFoundError{Entity: "Journal", ID: "j1"}), NotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.class, ClassOf(tt.err))
			assert.Equal(t, tt.status, ClassOf(tt.err).Status())
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "PostAuthorNotMatch", KindOf(&OwnerMismatchError{Entity: "Post"}))
	assert.Equal(t, KindFriendRequestAlreadyExists, KindOf(&FriendRequestAlreadyExistsError{}))
	assert.Equal(t, "", KindOf(errors.New("plain")))
}

func TestMessagesCarryRawIDs(t *testing.T) {
	err := &OwnerMismatchError{Entity: "Journal", User: "u-1", ID: "j-9"}
	assert.Equal(t, "u-1 is not the author of journal j-9!", err.Error())
	assert.Equal(t, "alice is not the author of journal j-9!", err.FormatWith("alice", "j-9"))

	pair := &FriendRequestAlreadyExistsError{From: "u-1", To: "u-2"}
	a, b := pair.Users()
	assert.Equal(t, "u-1", a)
	assert.Equal(t, "u-2", b)
	assert.Equal(t, "Friend request between alice and bob already exists!", pair.FormatWith("alice", "bob"))

	assert.Equal(t, "Journal j-1 does not exist!", (&NotFoundError{Entity: "Journal", ID: "j-1"}).Error())
}

func TestPartialFailureError(t *testing.T) {
	cause := errors.New("disk full")
	err := &PartialFailureError{
		Operation: "delete journal",
		Completed: []string{"delete highlights", "delete stickers"},
		Failed:    "delete posts",
		Cause:     cause,
	}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t,
		"delete journal partially applied: completed delete highlights, delete stickers; failed at delete posts: disk full",
		err.Error())

	empty := &PartialFailureError{Operation: "create post", Failed: "append", Cause: cause}
	assert.Contains(t, empty.Error(), "completed nothing")
}

func TestPairErrorsImplementInterface(t *testing.T) {
	var _ PairError = &FriendRequestAlreadyExistsError{}
	var _ PairError = &AlreadyFriendsError{}
	var _ PairError = &FriendNotFoundError{}
	var _ PairError = &FriendRequestNotFoundError{}
}
