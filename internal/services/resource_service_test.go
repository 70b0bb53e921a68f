package services

import (
	"context"
	"testing"

	"github.com/isdelr/studentily-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

type resourceFixture struct {
	svc   *ResourceService
	alice string
	bob   string
}

func newResourceFixture(t *testing.T) resourceFixture {
	t.Helper()
	ctx := context.Background()
	st := setupStore(t)
	users := NewUserService(st)

	alice, err := users.Register(ctx, "Alice", "alice@example.com", "pw")
	require.NoError(t, err)
	bob, err := users.Register(ctx, "Bob", "bob@example.com", "pw")
	require.NoError(t, err)

	return resourceFixture{svc: NewResourceService(st), alice: alice.ID, bob: bob.ID}
}

func TestCreate_Defaults(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	note, err := f.svc.Create(ctx, models.KindNote, f.alice, models.ResourceFields{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)
	assert.Equal(t, f.alice, note.OwnerID)
	assert.False(t, note.Pinned)
	assert.Equal(t, []string{}, note.Tags)

	todo, err := f.svc.Create(ctx, models.KindTodo, f.alice, models.ResourceFields{Title: "call mom"})
	require.NoError(t, err)
	assert.False(t, todo.Pinned)
	assert.False(t, todo.Completed)
	assert.Nil(t, todo.Tags)
}

func TestCreate_Validation(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    models.Kind
		fields  models.ResourceFields
		message string
	}{
		{"note without title", models.KindNote, models.ResourceFields{Body: "b"}, "Please enter a title"},
		{"note without body", models.KindNote, models.ResourceFields{Title: "t"}, "Please enter some content"},
		{"journal without body", models.KindJournal, models.ResourceFields{Title: "t", Body: "  "}, "Please enter some content"},
		{"todo without title", models.KindTodo, models.ResourceFields{}, "Please enter a Todo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.kind, f.alice, tt.fields)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message)
		})
	}

	_, err := f.svc.Create(ctx, models.Kind("calendar"), f.alice, models.ResourceFields{Title: "t"})
	assert.Error(t, err)
}

func TestListAll_PinnedFirst(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		r, err := f.svc.Create(ctx, models.KindNote, f.alice, models.ResourceFields{Title: title, Body: "x"})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err := f.svc.SetPinned(ctx, models.KindNote, f.alice, ids[1], true)
	require.NoError(t, err)

	list, err := f.svc.ListAll(ctx, models.KindNote, f.alice)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[1], list[0].ID)
	assert.True(t, list[0].Pinned)
	assert.Equal(t, []string{ids[0], ids[2]}, []string{list[1].ID, list[2].ID})

	empty, err := f.svc.ListAll(ctx, models.KindNote, f.bob)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCrossOwnerAccessIsNotFound(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	todo, err := f.svc.Create(ctx, models.KindTodo, f.alice, models.ResourceFields{Title: "mine"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, models.KindTodo, f.bob, todo.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.svc.Update(ctx, models.KindTodo, f.bob, todo.ID, models.ResourcePatch{Title: strPtr("theirs")})
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.svc.SetPinned(ctx, models.KindTodo, f.bob, todo.ID, true)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = f.svc.SetCompleted(ctx, f.bob, todo.ID, true)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, models.KindTodo, f.bob, todo.ID), models.ErrNotFound)

	got, err := f.svc.Get(ctx, models.KindTodo, f.alice, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
	assert.False(t, got.Pinned)
	assert.False(t, got.Completed)
}

func TestUpdate(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	note, err := f.svc.Create(ctx, models.KindNote, f.alice, models.ResourceFields{Title: "t", Body: "b", Tags: []string{"x"}})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, models.KindNote, f.alice, note.ID, models.ResourcePatch{Title: strPtr("")})
	assert.ErrorIs(t, err, models.ErrNoChanges)

	_, err = f.svc.Update(ctx, models.KindNote, f.alice, "missing-id", models.ResourcePatch{})
	assert.ErrorIs(t, err, models.ErrNoChanges)

	updated, err := f.svc.Update(ctx, models.KindNote, f.alice, note.ID, models.ResourcePatch{
		Body:   strPtr("new body"),
		Tags:   []string{"y", "z"},
		Pinned: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "t", updated.Title)
	assert.Equal(t, "new body", updated.Body)
	assert.Equal(t, []string{"y", "z"}, updated.Tags)
	assert.True(t, updated.Pinned)

	unpinned, err := f.svc.Update(ctx, models.KindNote, f.alice, note.ID, models.ResourcePatch{Pinned: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, unpinned.Pinned)

	stored, err := f.svc.Get(ctx, models.KindNote, f.alice, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "new body", stored.Body)
	assert.False(t, stored.Pinned)

	_, err = f.svc.Update(ctx, models.KindNote, f.alice, "missing-id", models.ResourcePatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdate_TodoCompleted(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	todo, err := f.svc.Create(ctx, models.KindTodo, f.alice, models.ResourceFields{Title: "t"})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, models.KindTodo, f.alice, todo.ID, models.ResourcePatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
}

func TestSetPinned_Idempotent(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	j, err := f.svc.Create(ctx, models.KindJournal, f.alice, models.ResourceFields{Title: "day 1", Body: "b"})
	require.NoError(t, err)

	first, err := f.svc.SetPinned(ctx, models.KindJournal, f.alice, j.ID, true)
	require.NoError(t, err)
	second, err := f.svc.SetPinned(ctx, models.KindJournal, f.alice, j.ID, true)
	require.NoError(t, err)

	assert.True(t, first.Pinned)
	assert.Equal(t, first, second)
}

func TestSetCompleted(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	todo, err := f.svc.Create(ctx, models.KindTodo, f.alice, models.ResourceFields{Title: "t"})
	require.NoError(t, err)

	done, err := f.svc.SetCompleted(ctx, f.alice, todo.ID, true)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	undone, err := f.svc.SetCompleted(ctx, f.alice, todo.ID, false)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
}

func TestDelete(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()

	note, err := f.svc.Create(ctx, models.KindNote, f.alice, models.ResourceFields{Title: "t", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, models.KindNote, f.alice, note.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, models.KindNote, f.alice, note.ID), models.ErrNotFound)
	_, err = f.svc.Get(ctx, models.KindNote, f.alice, note.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
