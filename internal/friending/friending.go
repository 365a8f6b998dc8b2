// ABOUTME: Friend concept: pending requests and accepted, symmetric friendships
// ABOUTME: Unique indexes on request pairs and ordered friend pairs prevent duplicates

package friending

import (
	"context"
	"errors"
	"log/slog"

	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
)

// StatusPending marks a request awaiting an answer.
const StatusPending = "pending"

// FriendDoc is an accepted friendship. User1 < User2 always.
type FriendDoc struct {
	docstore.BaseDoc
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

// FriendRequestDoc is a pending request from From to To.
type FriendRequestDoc struct {
	docstore.BaseDoc
	From   string `json:"from"`
	To     string `json:"to"`
	Status string `json:"status"`
}

// Concept manages friend requests and friendships.
type Concept struct {
	friends  *docstore.Collection[FriendDoc, *FriendDoc]
	requests *docstore.Collection[FriendRequestDoc, *FriendRequestDoc]
	logger   *slog.Logger
}

// New registers the friends and friend_requests collections.
func New(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (*Concept, error) {
	friends, err := docstore.NewCollection[FriendDoc](ctx, d, "friends",
		[]docstore.Index{{Name: "pair", Fields: []string{"user1", "user2"}}}, opts...)
	if err != nil {
		return nil, err
	}
	requests, err := docstore.NewCollection[FriendRequestDoc](ctx, d, "friend_requests",
		[]docstore.Index{{Name: "pair", Fields: []string{"from", "to"}}}, opts...)
	if err != nil {
		return nil, err
	}
	return &Concept{
		friends:  friends,
		requests: requests,
		logger:   slog.Default().With("component", "friending"),
	}, nil
}

func ordered(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func pairFilter(a, b string) docstore.Filter {
	u1, u2 := ordered(a, b)
	return docstore.Filter{"user1": u1, "user2": u2}
}

// SendRequest records a request from from to to.
func (c *Concept) SendRequest(ctx context.Context, from, to string) (*FriendRequestDoc, error) {
	if from == to {
		return nil, &fault.ValidationError{Field: "to", Reason: "cannot befriend yourself"}
	}
	if err := c.assertNotFriends(ctx, from, to); err != nil {
		return nil, err
	}
	for _, pair := range [][2]string{{from, to}, {to, from}} {
		existing, err := c.requests.ReadOne(ctx, docstore.Filter{"from": pair[0], "to": pair[1]})
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, &fault.FriendRequestAlreadyExistsError{From: from, To: to}
		}
	}

	doc := &FriendRequestDoc{From: from, To: to, Status: StatusPending}
	if _, err := c.requests.CreateOne(ctx, doc); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, &fault.FriendRequestAlreadyExistsError{From: from, To: to}
		}
		return nil, err
	}
	return doc, nil
}

// AcceptRequest removes the pending request and creates the friendship.
func (c *Concept) AcceptRequest(ctx context.Context, from, to string) error {
	if err := c.takeRequest(ctx, from, to); err != nil {
		return err
	}
	if err := c.addFriend(ctx, from, to); err != nil {
		return err
	}
	c.logger.Debug("friend request accepted", "from", from, "to", to)
	return nil
}

// RejectRequest removes the pending request without creating a friendship.
func (c *Concept) RejectRequest(ctx context.Context, from, to string) error {
	return c.takeRequest(ctx, from, to)
}

// RemoveRequest withdraws a request the sender no longer wants.
func (c *Concept) RemoveRequest(ctx context.Context, from, to string) error {
	return c.takeRequest(ctx, from, to)
}

// RemoveFriend ends the friendship between user and friend.
func (c *Concept) RemoveFriend(ctx context.Context, user, friend string) error {
	existing, err := c.friends.ReadOne(ctx, pairFilter(user, friend))
	if err != nil {
		return err
	}
	if existing == nil {
		return &fault.FriendNotFoundError{User1: user, User2: friend}
	}
	return c.friends.DeleteOne(ctx, docstore.Filter{docstore.IDField: existing.ID})
}

// GetRequests lists requests sent or received by user, newest first.
func (c *Concept) GetRequests(ctx context.Context, user string) ([]FriendRequestDoc, error) {
	sent, err := c.requests.ReadMany(ctx, docstore.Filter{"from": user}, docstore.SortNewestFirst)
	if err != nil {
		return nil, err
	}
	received, err := c.requests.ReadMany(ctx, docstore.Filter{"to": user}, docstore.SortNewestFirst)
	if err != nil {
		return nil, err
	}
	return mergeNewestFirst(sent, received), nil
}

// GetFriends lists the ids of user's friends.
func (c *Concept) GetFriends(ctx context.Context, user string) ([]string, error) {
	first, err := c.friends.ReadMany(ctx, docstore.Filter{"user1": user}, docstore.SortNewestFirst)
	if err != nil {
		return nil, err
	}
	second, err := c.friends.ReadMany(ctx, docstore.Filter{"user2": user}, docstore.SortNewestFirst)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(first)+len(second))
	for _, f := range first {
		out = append(out, f.User2)
	}
	for _, f := range second {
		out = append(out, f.User1)
	}
	return out, nil
}

// RemoveUser drops every request and friendship involving user.
func (c *Concept) RemoveUser(ctx context.Context, user string) error {
	for _, f := range []docstore.Filter{{"from": user}, {"to": user}} {
		if _, err := c.requests.DeleteMany(ctx, f); err != nil {
			return err
		}
	}
	for _, f := range []docstore.Filter{{"user1": user}, {"user2": user}} {
		if _, err := c.friends.DeleteMany(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Concept) assertNotFriends(ctx context.Context, a, b string) error {
	existing, err := c.friends.ReadOne(ctx, pairFilter(a, b))
	if err != nil {
		return err
	}
	if existing != nil {
		return &fault.AlreadyFriendsError{User1: a, User2: b}
	}
	return nil
}

func (c *Concept) addFriend(ctx context.Context, a, b string) error {
	u1, u2 := ordered(a, b)
	_, err := c.friends.CreateOne(ctx, &FriendDoc{User1: u1, User2: u2})
	if errors.Is(err, docstore.ErrDuplicate) {
		return &fault.AlreadyFriendsError{User1: a, User2: b}
	}
	return err
}

// takeRequest deletes the pending request from -> to, failing if absent.
func (c *Concept) takeRequest(ctx context.Context, from, to string) error {
	existing, err := c.requests.ReadOne(ctx, docstore.Filter{"from": from, "to": to})
	if err != nil {
		return err
	}
	if existing == nil {
		return &fault.FriendRequestNotFoundError{From: from, To: to}
	}
	return c.requests.DeleteOne(ctx, docstore.Filter{docstore.IDField: existing.ID})
}

func mergeNewestFirst(a, b []FriendRequestDoc) []FriendRequestDoc {
	out := make([]FriendRequestDoc, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].ID > b[j].ID {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
