// ABOUTME: Account and session operations: registration, login/logout, profile changes
// ABOUTME: Deleting an account ends its sessions and drops its friendships

package app

import (
	"context"

	"github.com/2389/folio/internal/identity"
	"github.com/2389/folio/internal/sessioning"
)

// UserCreated is returned by CreateUser.
type UserCreated struct {
	Msg  string         `json:"msg"`
	User *identity.User `json:"user"`
}

// GetSessionUser returns the logged-in user.
func (a *App) GetSessionUser(ctx context.Context, s *sessioning.SessionDoc) (*identity.User, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	return a.c.Identity.GetUserByID(ctx, user)
}

// GetUsers lists every user.
func (a *App) GetUsers(ctx context.Context) ([]identity.User, error) {
	return a.c.Identity.GetUsers(ctx)
}

// GetUser looks a user up by username.
func (a *App) GetUser(ctx context.Context, username string) (*identity.User, error) {
	return a.c.Identity.GetUserByUsername(ctx, username)
}

// CreateUser registers an account. The session must be logged out.
func (a *App) CreateUser(ctx context.Context, s *sessioning.SessionDoc, username, password string) (*UserCreated, error) {
	if err := a.c.Sessions.IsLoggedOut(s); err != nil {
		return nil, err
	}
	u, err := a.c.Identity.Create(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &UserCreated{Msg: "User created successfully!", User: u}, nil
}

// UpdateUsername renames the logged-in user.
func (a *App) UpdateUsername(ctx context.Context, s *sessioning.SessionDoc, username string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := a.c.Identity.UpdateUsername(ctx, user, username); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Updated username successfully!"}, nil
}

// UpdatePassword changes the logged-in user's password.
func (a *App) UpdatePassword(ctx context.Context, s *sessioning.SessionDoc, current, next string) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}
	if err := a.c.Identity.UpdatePassword(ctx, user, current, next); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Updated password successfully!"}, nil
}

// DeleteUser ends the session, then removes the account. Content the user
// authored stays and displays as a deleted user.
func (a *App) DeleteUser(ctx context.Context, s *sessioning.SessionDoc) (*Msg, error) {
	user, err := a.currentUser(s)
	if err != nil {
		return nil, err
	}

	c := a.cascade("delete user")
	if err := c.step("end session", func() error { return a.c.Sessions.End(ctx, s) }); err != nil {
		return nil, err
	}
	if err := c.step("end other sessions", func() error {
		_, err := a.c.Sessions.EndAllForUser(ctx, user)
		return err
	}); err != nil {
		return nil, err
	}
	if err := c.step("remove friendships", func() error { return a.c.Friends.RemoveUser(ctx, user) }); err != nil {
		return nil, err
	}
	if err := c.step("delete bookmarks", func() error { return a.c.Bookmarks.Delete(ctx, user) }); err != nil {
		return nil, err
	}
	if err := c.step("delete user", func() error { return a.c.Identity.Delete(ctx, user) }); err != nil {
		return nil, err
	}

	a.logger.Info("user deleted", "user_id", user)
	return &Msg{Msg: "Deleted user!"}, nil
}

// LogIn authenticates and starts the session.
func (a *App) LogIn(ctx context.Context, s *sessioning.SessionDoc, username, password string) (*Msg, error) {
	if err := a.c.Sessions.IsLoggedOut(s); err != nil {
		return nil, err
	}
	u, err := a.c.Identity.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := a.c.Sessions.Start(ctx, s, u.ID); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Logged in!"}, nil
}

// LogOut ends the session.
func (a *App) LogOut(ctx context.Context, s *sessioning.SessionDoc) (*Msg, error) {
	if err := a.c.Sessions.End(ctx, s); err != nil {
		return nil, err
	}
	return &Msg{Msg: "Logged out!"}, nil
}
