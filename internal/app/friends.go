// ABOUTME: Friend operations addressed by username at the API
// ABOUTME: Usernames are resolved to ids before calling the friend concept

package app

import (
	"context"

	"github.com/2389/folio/internal/responses"
	"github.com/2389/folio/internal/sessioning"
)

// GetFriends lists the usernames of the logged-in user's friends.
func (a *App) GetFriends(ctx context.Context, s *sessioning.SessionDoc) ([]string, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	ids, err := a.c.Friends.GetFriends(ctx, user)
	if err != nil {
		return nil, err
	}
	return a.views.Usernames(ctx, ids)
}

// RemoveFriend ends a friendship.
func (a *App) RemoveFriend(ctx context.Context, s *sessioning.SessionDoc, friend string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	friendID, err := a.userID(ctx, friend)
	if err != nil {
		return nil, err
	}
	if err := a.c.Friends.RemoveFriend(ctx, user, friendID); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Unfriended!"}, nil
}

// GetRequests lists requests sent or received by the logged-in user.
func (a *App) GetRequests(ctx context.Context, s *sessioning.SessionDoc) ([]responses.FriendRequest, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	reqs, err := a.c.Friends.GetRequests(ctx, user)
	if err != nil {
		return nil, err
	}
	return a.views.FriendRequests(ctx, reqs)
}

// SendFriendRequest asks to befriend the user named to.
func (a *App) SendFriendRequest(ctx context.Context, s *sessioning.SessionDoc, to string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	toID, err := a.userID(ctx, to)
	if err != nil {
		return nil, err
	}
	if _, err := a.c.Friends.SendRequest(ctx, user, toID); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Sent request!"}, nil
}

// RemoveFriendRequest withdraws a request sent to to.
func (a *App) RemoveFriendRequest(ctx context.Context, s *sessioning.SessionDoc, to string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	toID, err := a.userID(ctx, to)
	if err != nil {
		return nil, err
	}
	if err := a.c.Friends.RemoveRequest(ctx, user, toID); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Removed request!"}, nil
}

// AcceptFriendRequest accepts the request from from.
func (a *App) AcceptFriendRequest(ctx context.Context, s *sessioning.SessionDoc, from string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	fromID, err := a.userID(ctx, from)
	if err != nil {
		return nil, err
	}
	if err := a.c.Friends.AcceptRequest(ctx, fromID, user); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Accepted request!"}, nil
}

// RejectFriendRequest rejects the request from from.
func (a *App) RejectFriendRequest(ctx context.Context, s *sessioning.SessionDoc, from string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	fromID, err := a.userID(ctx, from)
	if err != nil {
		return nil, err
	}
	if err := a.c.Friends.RejectRequest(ctx, fromID, user); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Rejected request!"}, nil
}
