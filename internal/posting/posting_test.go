// ABOUTME: Tests for the post concept
// ABOUTME: Covers CRUD, partial updates, listings and the ownership guard

package posting

import (
	"context"
	"testing"

	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConcept(t *testing.T) *Concept {
	t.Helper()
	c, err := New(context.Background(), docstore.NewMemoryDriver())
	require.NoError(t, err)
	return c
}

func ptr[V any](v V) *V { return &v }

func TestCreateAndGet(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	p, err := c.Create(ctx, "alice", "j1", "hello")
	require.NoError(t, err)

	got, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Author)
	assert.Equal(t, "j1", got.Journal)
	assert.Equal(t, "hello", got.Content)
}

func TestCreate_RequiresContent(t *testing.T) {
	c := newTestConcept(t)

	_, err := c.Create(context.Background(), "alice", "j1", "")
	assert.IsType(t, &fault.ValidationError{}, err)
}

func TestListings(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	a, err := c.Create(ctx, "alice", "j1", "one")
	require.NoError(t, err)
	b, err := c.Create(ctx, "bob", "j2", "two")
	require.NoError(t, err)
	d, err := c.Create(ctx, "alice", "j1", "three")
	require.NoError(t, err)

	all, err := c.GetPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID, b.ID, a.ID}, ids(all))

	byAlice, err := c.GetByAuthor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{d.ID, a.ID}, ids(byAlice))

	inJ2, err := c.GetByJournal(ctx, "j2")
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(inJ2))
}

func TestUpdate_OmittedFieldsUntouched(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	p, err := c.Create(ctx, "alice", "j1", "draft")
	require.NoError(t, err)

	require.NoError(t, c.Update(ctx, p.ID, nil, ptr("final")))
	got, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "j1", got.Journal)
	assert.Equal(t, "final", got.Content)

	require.NoError(t, c.Update(ctx, p.ID, ptr("j2"), nil))
	got, err = c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "j2", got.Journal)
	assert.Equal(t, "final", got.Content)

	assert.IsType(t, &fault.NotFoundError{}, c.Update(ctx, "ghost", nil, ptr("x")))
	assert.IsType(t, &fault.ValidationError{}, c.Update(ctx, p.ID, nil, ptr("")))
}

func TestDelete(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	p, err := c.Create(ctx, "alice", "j1", "bye")
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, p.ID))
	require.NoError(t, c.Delete(ctx, p.ID))

	_, err = c.GetByID(ctx, p.ID)
	assert.IsType(t, &fault.NotFoundError{}, err)
}

func TestDeleteByJournal(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	for _, j := range []string{"j1", "j1", "j2"} {
		_, err := c.Create(ctx, "alice", j, "x")
		require.NoError(t, err)
	}

	n, err := c.DeleteByJournal(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := c.GetPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestAssertOwnerIsUser(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	p, err := c.Create(ctx, "alice", "j1", "mine")
	require.NoError(t, err)

	assert.NoError(t, c.AssertOwnerIsUser(ctx, p.ID, "alice"))

	err = c.AssertOwnerIsUser(ctx, p.ID, "bob")
	var om *fault.OwnerMismatchError
	require.ErrorAs(t, err, &om)
	assert.Equal(t, Entity, om.Entity)
}

func ids(posts []PostDoc) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
