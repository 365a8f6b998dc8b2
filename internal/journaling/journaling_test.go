// ABOUTME: Tests for the journal concept
// ABOUTME: Covers creation, partial updates, privacy and concurrent appends

package journaling

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
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

func TestCreateThenRead(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		privacy bool
	}{
		{"diary", false},
		{"secret notes", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := c.Create(ctx, "alice", tt.name, tt.privacy)
			require.NoError(t, err)

			got, err := c.GetByID(ctx, j.ID)
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Author)
			assert.Equal(t, tt.name, got.Name)
			assert.Equal(t, tt.privacy, got.Privacy)
			assert.Equal(t, []string{}, got.Items)
		})
	}
}

func TestCreate_RequiresName(t *testing.T) {
	c := newTestConcept(t)
	_, err := c.Create(context.Background(), "alice", "", false)
	assert.IsType(t, &fault.ValidationError{}, err)
}

func TestUpdate_NameOnlyLeavesPrivacyAndItems(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	j, err := c.Create(ctx, "alice", "diary", true)
	require.NoError(t, err)
	require.NoError(t, c.Append(ctx, j.ID, "p1"))

	require.NoError(t, c.Update(ctx, j.ID, ptr("journal"), nil))

	got, err := c.GetByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "journal", got.Name)
	assert.True(t, got.Privacy)
	assert.Equal(t, []string{"p1"}, got.Items)

	require.NoError(t, c.Update(ctx, j.ID, nil, ptr(false)))
	got, err = c.GetByID(ctx, j.ID)
	require.NoError(t, err)
	assert.False(t, got.Privacy, "explicit false must be written")
}

func TestAppendAndRemove(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	j, err := c.Create(ctx, "alice", "diary", false)
	require.NoError(t, err)

	require.NoError(t, c.Append(ctx, j.ID, "p1"))
	require.NoError(t, c.Append(ctx, j.ID, "p2"))
	require.NoError(t, c.Remove(ctx, j.ID, "p1"))

	got, err := c.GetByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, got.Items)

	assert.IsType(t, &fault.NotFoundError{}, c.Append(ctx, "ghost", "p1"))
}

func TestConcurrentAppendsKeepBothItems(t *testing.T) {
	sqlite, err := docstore.NewSQLiteDriver(filepath.Join(t.TempDir(), "journals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	for name, d := range map[string]docstore.Driver{"memory": docstore.NewMemoryDriver(), "sqlite": sqlite} {
		t.Run(name, func(t *testing.T) {
			c, err := New(context.Background(), d)
			require.NoError(t, err)
			ctx := context.Background()

			j, err := c.Create(ctx, "alice", "diary", false)
			require.NoError(t, err)

			for round := 0; round < 10; round++ {
				a, b := fmt.Sprintf("a%d", round), fmt.Sprintf("b%d", round)
				var wg sync.WaitGroup
				wg.Add(2)
				go func() { defer wg.Done(); assert.NoError(t, c.Append(ctx, j.ID, a)) }()
				go func() { defer wg.Done(); assert.NoError(t, c.Append(ctx, j.ID, b)) }()
				wg.Wait()

				got, err := c.GetByID(ctx, j.ID)
				require.NoError(t, err)
				assert.Contains(t, got.Items, a)
				assert.Contains(t, got.Items, b)
			}
		})
	}
}

func TestVisibleTo(t *testing.T) {
	public := &JournalDoc{Author: "alice"}
	private := &JournalDoc{Author: "alice", Privacy: true}

	assert.True(t, public.VisibleTo("bob"))
	assert.True(t, private.VisibleTo("alice"))
	assert.False(t, private.VisibleTo("bob"))
	assert.False(t, private.VisibleTo(""))
}

func TestOwnershipGuard(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	j, err := c.Create(ctx, "alice", "diary", false)
	require.NoError(t, err)

	err = c.AssertOwnerIsUser(ctx, j.ID, "bob")
	assert.IsType(t, &fault.OwnerMismatchError{}, err)

	err = c.AssertOwnerIsUser(ctx, "ghost", "alice")
	assert.IsType(t, &fault.NotFoundError{}, err)
}

func TestDeleteIsIdempotent(t *testing.T) {
	c := newTestConcept(t)
	ctx := context.Background()

	require.NoError(t, c.Delete(ctx, "never-existed"))

	j, err := c.Create(ctx, "alice", "diary", false)
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, j.ID))
	require.NoError(t, c.Delete(ctx, j.ID))

	all, err := c.GetJournals(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
