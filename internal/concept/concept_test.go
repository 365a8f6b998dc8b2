// ABOUTME: Tests for the shared ownership guard and id helpers
// ABOUTME: Uses a throwaway collection on the memory driver

package concept

import (
	"context"
	"testing"

	"github.com/2389/folio/internal/docstore"
	"github.com/2389/folio/internal/fault"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	docstore.BaseDoc
	Author string `json:"author"`
	Label  string `json:"label"`
}

func (w *widget) AuthorID() string { return w.Author }

func newWidgets(t *testing.T) *docstore.Collection[widget, *widget] {
	t.Helper()
	c, err := docstore.NewCollection[widget](context.Background(), docstore.NewMemoryDriver(), "widgets", nil)
	require.NoError(t, err)
	return c
}

func TestAssertOwner(t *testing.T) {
	widgets := newWidgets(t)
	ctx := context.Background()

	id, err := widgets.CreateOne(ctx, &widget{Author: "alice", Label: "w"})
	require.NoError(t, err)

	assert.NoError(t, AssertOwner(ctx, widgets, "Widget", id, "alice"))

	err = AssertOwner(ctx, widgets, "Widget", id, "bob")
	var om *fault.OwnerMismatchError
	require.ErrorAs(t, err, &om)
	assert.Equal(t, "bob", om.User)
	assert.Equal(t, id, om.ID)
	assert.Equal(t, "WidgetAuthorNotMatch", om.Kind())

	err = AssertOwner(ctx, widgets, "Widget", "missing", "alice")
	var nf *fault.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Widget", nf.Entity)
}

func TestAssertOwner_FailureLeavesDocumentUnchanged(t *testing.T) {
	widgets := newWidgets(t)
	ctx := context.Background()

	id, err := widgets.CreateOne(ctx, &widget{Author: "alice", Label: "before"})
	require.NoError(t, err)

	// the guarded path: only update when the guard passes
	if err := AssertOwner(ctx, widgets, "Widget", id, "bob"); err == nil {
		require.NoError(t, widgets.PartialUpdateOne(ctx, docstore.Filter{docstore.IDField: id}, docstore.Fields{"label": "after"}))
	}

	got, err := MustGet(ctx, widgets, "Widget", id)
	require.NoError(t, err)
	assert.Equal(t, "before", got.Label)
}

func TestMustGet_NotFound(t *testing.T) {
	_, err := MustGet(context.Background(), newWidgets(t), "Widget", "nope")
	assert.IsType(t, &fault.NotFoundError{}, err)
}

func TestCheckID(t *testing.T) {
	assert.NoError(t, CheckID("id", uuid.NewString()))
	assert.IsType(t, &fault.ValidationError{}, CheckID("id", ""))
	assert.IsType(t, &fault.ValidationError{}, CheckID("id", "not-a-uuid"))
}
