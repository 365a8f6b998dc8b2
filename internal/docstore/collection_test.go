// ABOUTME: Contract tests run against every in-process Driver
// ABOUTME: Covers CRUD, partial updates, unique indexes and concurrent list edits

package docstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	BaseDoc
	Owner  string   `json:"owner"`
	Title  string   `json:"title"`
	Public bool     `json:"public"`
	Rank   int      `json:"rank"`
	Tags   []string `json:"tags"`
}

func (n *note) Validate() error {
	if n.Owner == "" {
		return errors.New("owner required")
	}
	return nil
}

var noteIndexes = []Index{{Name: "owner_title", Fields: []string{"owner", "title"}}}

// drivers returns a fresh instance of every driver that runs without external services.
func drivers(t *testing.T) map[string]Driver {
	t.Helper()

	sqlite, err := NewSQLiteDriver(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Driver{
		"memory": NewMemoryDriver(),
		"sqlite": sqlite,
	}
}

func newNotes(t *testing.T, d Driver) *Collection[note, *note] {
	t.Helper()
	c, err := NewCollection[note](context.Background(), d, "notes", noteIndexes)
	require.NoError(t, err)
	return c
}

func forEachDriver(t *testing.T, fn func(t *testing.T, notes *Collection[note, *note])) {
	for name, d := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, newNotes(t, d))
		})
	}
}

func TestCollection_CreateAndRead(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()

		id, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "first", Tags: []string{"a"}})
		require.NoError(t, err)
		assert.NotEmpty(t, id)

		got, err := notes.ReadOne(ctx, Filter{IDField: id})
		require.NoError(t, err)
		require.NotNil(t, got)

		assert.Equal(t, id, got.ID)
		assert.Equal(t, "first", got.Title)
		assert.False(t, got.DateCreated.IsZero())
		assert.Equal(t, got.DateCreated, got.DateUpdated)
		if diff := cmp.Diff([]string{"a"}, got.Tags); diff != "" {
			t.Errorf("tags mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCollection_CreateRunsValidate(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		_, err := notes.CreateOne(context.Background(), &note{Title: "orphan"})
		assert.EqualError(t, err, "owner required")
	})
}

func TestCollection_ReadOneMissing(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		got, err := notes.ReadOne(context.Background(), Filter{IDField: "nope"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCollection_ReadManyFilters(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()

		a, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "a", Public: true, Rank: 2})
		require.NoError(t, err)
		b, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "b", Rank: 1})
		require.NoError(t, err)
		c, err := notes.CreateOne(ctx, &note{Owner: "u2", Title: "c", Public: true, Rank: 3})
		require.NoError(t, err)

		byOwner, err := notes.ReadMany(ctx, Filter{"owner": "u1"}, FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, ids(byOwner))

		public, err := notes.ReadMany(ctx, Filter{"public": true}, FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{a, c}, ids(public))

		ranked, err := notes.ReadMany(ctx, Filter{"rank": 1}, FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{b}, ids(ranked))

		in, err := notes.ReadMany(ctx, Filter{IDField: In(a, c, "missing")}, FindOptions{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a, c}, ids(in))

		empty, err := notes.ReadMany(ctx, Filter{IDField: In[string]()}, FindOptions{})
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		newest, err := notes.ReadMany(ctx, Filter{}, SortNewestFirst)
		require.NoError(t, err)
		assert.Equal(t, []string{c, b, a}, ids(newest))

		limited, err := notes.ReadMany(ctx, Filter{}, FindOptions{Sort: SortNewestFirst.Sort, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{c, b}, ids(limited))
	})
}

func TestCollection_PartialUpdate(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()

		id, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "draft", Public: true, Rank: 5})
		require.NoError(t, err)
		before, err := notes.ReadOne(ctx, Filter{IDField: id})
		require.NoError(t, err)

		time.Sleep(2 * time.Millisecond)

		var title *string
		public := false
		f := Fields{}
		SetIfPresent(f, "title", title)
		SetIfPresent(f, "public", &public)
		require.NoError(t, notes.PartialUpdateOne(ctx, Filter{IDField: id}, f))

		after, err := notes.ReadOne(ctx, Filter{IDField: id})
		require.NoError(t, err)
		assert.Equal(t, "draft", after.Title, "absent field must be untouched")
		assert.False(t, after.Public, "present zero value must be written")
		assert.Equal(t, 5, after.Rank)
		assert.Equal(t, before.DateCreated, after.DateCreated)
		assert.True(t, after.DateUpdated.After(before.DateUpdated))
	})
}

func TestCollection_PartialUpdateNoMatch(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		err := notes.PartialUpdateOne(context.Background(), Filter{IDField: "ghost"}, Fields{"title": "x"})
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}

func TestCollection_PartialUpdateRejectsManagedFields(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		err := notes.PartialUpdateOne(context.Background(), Filter{IDField: "x"}, Fields{IDField: "y"})
		assert.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestCollection_RejectsBadFieldNames(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		_, err := notes.ReadMany(context.Background(), Filter{"owner') OR 1=1 --": "x"}, FindOptions{})
		assert.ErrorIs(t, err, ErrInvalidName)
	})
}

func TestCollection_Delete(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()

		keep, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "keep"})
		require.NoError(t, err)
		_, err = notes.CreateOne(ctx, &note{Owner: "u2", Title: "x"})
		require.NoError(t, err)
		_, err = notes.CreateOne(ctx, &note{Owner: "u2", Title: "y"})
		require.NoError(t, err)

		n, err := notes.DeleteMany(ctx, Filter{"owner": "u2"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		require.NoError(t, notes.DeleteOne(ctx, Filter{IDField: keep}))
		require.NoError(t, notes.DeleteOne(ctx, Filter{IDField: keep}), "deleting twice is not an error")

		all, err := notes.ReadMany(ctx, Filter{}, FindOptions{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestCollection_FilterByTimestamp(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()

		id, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "stamped"})
		require.NoError(t, err)
		before, err := notes.ReadOne(ctx, Filter{IDField: id})
		require.NoError(t, err)

		got, err := notes.ReadOne(ctx, Filter{"dateUpdated": before.DateUpdated})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, id, got.ID)

		require.NoError(t, notes.PartialUpdateOne(ctx, Filter{IDField: id}, Fields{"title": "touched"}))

		n, err := notes.DeleteMany(ctx, Filter{IDField: In(id), "dateUpdated": In(before.DateUpdated)})
		require.NoError(t, err)
		assert.Zero(t, n, "a stale timestamp no longer matches after an update")

		left, err := notes.ReadOne(ctx, Filter{IDField: id})
		require.NoError(t, err)
		require.NotNil(t, left)
		assert.Equal(t, "touched", left.Title)
	})
}

func TestCollection_UniqueIndex(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()

		_, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "same"})
		require.NoError(t, err)

		_, err = notes.CreateOne(ctx, &note{Owner: "u1", Title: "same"})
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = notes.CreateOne(ctx, &note{Owner: "u2", Title: "same"})
		assert.NoError(t, err)
	})
}

func TestCollection_AddToSetAndPull(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()

		id, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "t"})
		require.NoError(t, err)
		filter := Filter{IDField: id}

		require.NoError(t, notes.AddToSet(ctx, filter, "tags", "x"))
		require.NoError(t, notes.AddToSet(ctx, filter, "tags", "y"))
		require.NoError(t, notes.AddToSet(ctx, filter, "tags", "x"))

		got, err := notes.ReadOne(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, got.Tags)

		require.NoError(t, notes.Pull(ctx, filter, "tags", "x"))
		require.NoError(t, notes.Pull(ctx, filter, "tags", "absent"))

		got, err = notes.ReadOne(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, got.Tags)

		assert.ErrorIs(t, notes.AddToSet(ctx, Filter{IDField: "ghost"}, "tags", "x"), ErrNoMatch)
		assert.ErrorIs(t, notes.Pull(ctx, Filter{IDField: "ghost"}, "tags", "x"), ErrNoMatch)
	})
}

func TestCollection_ConcurrentAddToSetKeepsEveryValue(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()

		id, err := notes.CreateOne(ctx, &note{Owner: "u1", Title: "shared"})
		require.NoError(t, err)

		const writers = 20
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- notes.AddToSet(ctx, Filter{IDField: id}, "tags", fmt.Sprintf("tag-%02d", i))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := notes.ReadOne(ctx, Filter{IDField: id})
		require.NoError(t, err)
		assert.Len(t, got.Tags, writers)
	})
}

func TestCollection_FindOrCreate(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()
		filter := Filter{"owner": "u1", "title": "inbox"}

		first, created, err := notes.FindOrCreate(ctx, filter, &note{Owner: "u1", Title: "inbox"})
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := notes.FindOrCreate(ctx, filter, &note{Owner: "u1", Title: "inbox"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})
}

func TestCollection_ConcurrentFindOrCreateYieldsOneDocument(t *testing.T) {
	forEachDriver(t, func(t *testing.T, notes *Collection[note, *note]) {
		ctx := context.Background()
		filter := Filter{"owner": "u1", "title": "inbox"}

		const callers = 10
		var wg sync.WaitGroup
		got := make([]string, callers)
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				doc, _, err := notes.FindOrCreate(ctx, filter, &note{Owner: "u1", Title: "inbox"})
				errs[i] = err
				if doc != nil {
					got[i] = doc.ID
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, got[0], got[i])
		}

		all, err := notes.ReadMany(ctx, filter, FindOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestCollection_FixedClockAndIDs(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewCollection[note](context.Background(), NewMemoryDriver(), "notes", nil,
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "fixed-id" }))
	require.NoError(t, err)

	id, err := c.CreateOne(context.Background(), &note{Owner: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	got, err := c.ReadOne(context.Background(), Filter{IDField: id})
	require.NoError(t, err)
	assert.True(t, fixed.Equal(got.DateCreated))
}

func TestNewCollection_InvalidNames(t *testing.T) {
	_, err := NewCollection[note](context.Background(), NewMemoryDriver(), "bad-name", nil)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewCollection[note](context.Background(), NewMemoryDriver(), "notes",
		[]Index{{Name: "empty"}})
	assert.ErrorIs(t, err, ErrInvalidName)
}

func ids(docs []note) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
