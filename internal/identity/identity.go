// ABOUTME: Identity concept: user accounts with bcrypt passwords and unique usernames
// ABOUTME: Also resolves author ids to display names in one batched read

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/folio/internal/concept"
	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
	"golang.org/x/crypto/bcrypt"
)

// Entity names users in errors.
const Entity = "User"

// DeletedUser is shown for ids that no longer resolve to a user.
const DeletedUser = "DELETED_USER"

// hashCost is the bcrypt cost; tests lower it.
var hashCost = bcrypt.DefaultCost

// dummyHash keeps Authenticate timing flat for unknown usernames.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserDoc is the stored account.
type UserDoc struct {
	docstore.BaseDoc
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate implements the collection's pre-insert check.
func (u *UserDoc) Validate() error {
	if u.Username == "" {
		return fault.Required("username")
	}
	if u.Password == "" {
		return fault.Required("password")
	}
	return nil
}

// User is the public projection of a UserDoc; it never carries the hash.
type User struct {
	ID          string    `json:"_id"`
	Username    string    `json:"username"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

func project(u *UserDoc) *User {
	return &User{ID: u.ID, Username: u.Username, DateCreated: u.DateCreated, DateUpdated: u.DateUpdated}
}

// Concept manages user accounts.
type Concept struct {
	users  *docstore.Collection[UserDoc, *UserDoc]
	logger *slog.Logger
}

// New registers the users collection with a unique username index.
func New(ctx context.Context, d docstore.Driver, opts ...docstore.Option) (*Concept, error) {
	users, err := docstore.NewCollection[UserDoc](ctx, d, "users",
		[]docstore.Index{{Name: "username", Fields: []string{"username"}}}, opts...)
	if err != nil {
		return nil, err
	}
	return &Concept{users: users, logger: slog.Default().With("component", "identity")}, nil
}

// Create registers a user. The unique index rejects taken usernames.
func (c *Concept) Create(ctx context.Context, username, password string) (*User, error) {
	if username == "" {
		return nil, fault.Required("username")
	}
	if password == "" {
		return nil, fault.Required("password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	doc := &UserDoc{Username: username, Password: string(hash)}
	if _, err := c.users.CreateOne(ctx, doc); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, &fault.AlreadyExistsError{Entity: Entity, Field: "username", Value: username}
		}
		return nil, err
	}

	c.logger.Info("user created", "user_id", doc.ID)
	return project(doc), nil
}

// GetUserByID returns the user or a NotFoundError.
func (c *Concept) GetUserByID(ctx context.Context, id string) (*User, error) {
	doc, err := concept.MustGet(ctx, c.users, Entity, id)
	if err != nil {
		return nil, err
	}
	return project(doc), nil
}

// GetUserByUsername returns the user or a NotFoundError.
func (c *Concept) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	doc, err := c.users.ReadOne(ctx, docstore.Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &fault.NotFoundError{Entity: Entity, ID: username}
	}
	return project(doc), nil
}

// GetUsers lists every user ordered by username.
func (c *Concept) GetUsers(ctx context.Context) ([]User, error) {
	docs, err := c.users.ReadMany(ctx, docstore.Filter{},
		docstore.FindOptions{Sort: []docstore.SortField{{Field: "username"}}})
	if err != nil {
		return nil, err
	}
	out := make([]User, len(docs))
	for i := range docs {
		out[i] = *project(&docs[i])
	}
	return out, nil
}

// IDsToUsernames maps ids to usernames positionally with a single read.
// Ids with no user map to DeletedUser.
func (c *Concept) IDsToUsernames(ctx context.Context, ids []string) ([]string, error) {
	out := make([]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	docs, err := c.users.ReadMany(ctx, docstore.Filter{docstore.IDField: docstore.In(ids...)}, docstore.FindOptions{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.Username
	}

	for i, id := range ids {
		name, ok := names[id]
		if !ok {
			name = DeletedUser
		}
		out[i] = name
	}
	return out, nil
}

// Authenticate checks a username/password pair.
func (c *Concept) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, fault.Required("username and password")
	}

	doc, err := c.users.ReadOne(ctx, docstore.Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, &fault.InvalidCredentialsError{}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(doc.Password), []byte(password)); err != nil {
		return nil, &fault.InvalidCredentialsError{}
	}
	return project(doc), nil
}

// UpdateUsername renames user id.
func (c *Concept) UpdateUsername(ctx context.Context, id, username string) error {
	if username == "" {
		return fault.Required("username")
	}
	err := c.users.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, docstore.Fields{"username": username})
	switch {
	case errors.Is(err, docstore.ErrDuplicate):
		return &fault.AlreadyExistsError{Entity: Entity, Field: "username", Value: username}
	case errors.Is(err, docstore.ErrNoMatch):
		return &fault.NotFoundError{Entity: Entity, ID: id}
	}
	return err
}

// UpdatePassword replaces the password after checking the current one.
func (c *Concept) UpdatePassword(ctx context.Context, id, current, next string) error {
	if next == "" {
		return fault.Required("newPassword")
	}
	doc, err := concept.MustGet(ctx, c.users, Entity, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(doc.Password), []byte(current)); err != nil {
		return &fault.InvalidCredentialsError{}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), hashCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return c.users.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, docstore.Fields{"password": string(hash)})
}

// Delete removes user id. Deleting a missing user is a no-op.
func (c *Concept) Delete(ctx context.Context, id string) error {
	if err := c.users.DeleteOne(ctx, docstore.Filter{docstore.IDField: id}); err != nil {
		return err
	}
	c.logger.Info("user deleted", "user_id", id)
	return nil
}
