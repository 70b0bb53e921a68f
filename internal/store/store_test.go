package store

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/studentily-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore runs the behaviour every Store implementation must share.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	createUser := func(t *testing.T, st Store, email string) models.User {
		t.Helper()
		u := models.User{Username: "User " + email, Email: email, PasswordHash: "hash", CreatedAt: now}
		require.NoError(t, st.CreateAccount(ctx, &u))
		require.NotEmpty(t, u.ID)
		return u
	}

	t.Run("accounts", func(t *testing.T) {
		st := newStore(t)
		u := createUser(t, st, "ada@example.com")

		byEmail, err := st.FindAccountByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)
		assert.True(t, now.Equal(byEmail.CreatedAt))

		byID, err := st.FindAccountByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)

		dup := models.User{Username: "Other", Email: "ada@example.com", PasswordHash: "x", CreatedAt: now}
		assert.ErrorIs(t, st.CreateAccount(ctx, &dup), models.ErrDuplicateIdentity)

		_, err = st.FindAccountByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, st.DeleteAccount(ctx, u.ID))
		assert.ErrorIs(t, st.DeleteAccount(ctx, u.ID), models.ErrNotFound)
		_, err = st.FindAccountByID(ctx, u.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("resources are owner scoped", func(t *testing.T) {
		st := newStore(t)
		alice := createUser(t, st, "alice@example.com")
		bob := createUser(t, st, "bob@example.com")

		note := models.Resource{Kind: models.KindNote, OwnerID: alice.ID, Title: "t", Body: "b", Tags: []string{"x", "y"}, CreatedAt: now}
		require.NoError(t, st.InsertResource(ctx, &note))
		require.NotEmpty(t, note.ID)

		got, err := st.FindResource(ctx, models.KindNote, alice.ID, note.ID)
		require.NoError(t, err)
		assert.Equal(t, note.Title, got.Title)
		assert.Equal(t, []string{"x", "y"}, got.Tags)
		assert.Equal(t, models.KindNote, got.Kind)
		assert.True(t, now.Equal(got.CreatedAt))

		_, err = st.FindResource(ctx, models.KindNote, bob.ID, note.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		_, err = st.FindResource(ctx, models.KindJournal, alice.ID, note.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = st.SetResourceFlag(ctx, models.KindNote, bob.ID, note.ID, FlagPinned, true)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.ErrorIs(t, st.DeleteResource(ctx, models.KindNote, bob.ID, note.ID), models.ErrNotFound)

		foreign := got
		foreign.OwnerID = bob.ID
		foreign.Title = "hijacked"
		assert.ErrorIs(t, st.SaveResource(ctx, foreign), models.ErrNotFound)

		list, err := st.ListResources(ctx, models.KindNote, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, list)

		got, err = st.FindResource(ctx, models.KindNote, alice.ID, note.ID)
		require.NoError(t, err)
		assert.Equal(t, "t", got.Title)
		assert.False(t, got.Pinned)
	})

	t.Run("save and flags", func(t *testing.T) {
		st := newStore(t)
		u := createUser(t, st, "carol@example.com")

		todo := models.Resource{Kind: models.KindTodo, OwnerID: u.ID, Title: "buy milk", CreatedAt: now}
		require.NoError(t, st.InsertResource(ctx, &todo))

		done, err := st.SetResourceFlag(ctx, models.KindTodo, u.ID, todo.ID, FlagCompleted, true)
		require.NoError(t, err)
		assert.True(t, done.Completed)

		again, err := st.SetResourceFlag(ctx, models.KindTodo, u.ID, todo.ID, FlagCompleted, true)
		require.NoError(t, err)
		assert.True(t, again.Completed)

		pinned, err := st.SetResourceFlag(ctx, models.KindTodo, u.ID, todo.ID, FlagPinned, true)
		require.NoError(t, err)
		assert.True(t, pinned.Pinned)
		assert.True(t, pinned.Completed)

		pinned.Title = "buy oat milk"
		pinned.Completed = false
		require.NoError(t, st.SaveResource(ctx, pinned))

		got, err := st.FindResource(ctx, models.KindTodo, u.ID, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, "buy oat milk", got.Title)
		assert.False(t, got.Completed)
		assert.True(t, got.Pinned)

		note := models.Resource{Kind: models.KindNote, OwnerID: u.ID, Title: "n", Body: "b", CreatedAt: now}
		require.NoError(t, st.InsertResource(ctx, &note))
		_, err = st.SetResourceFlag(ctx, models.KindNote, u.ID, note.ID, FlagCompleted, true)
		assert.Error(t, err)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		st := newStore(t)
		u := createUser(t, st, "dave@example.com")

		var ids []string
		for _, title := range []string{"a", "b", "c"} {
			r := models.Resource{Kind: models.KindJournal, OwnerID: u.ID, Title: title, Body: "x", CreatedAt: now}
			require.NoError(t, st.InsertResource(ctx, &r))
			ids = append(ids, r.ID)
		}

		list, err := st.ListResources(ctx, models.KindJournal, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, r := range list {
			assert.Equal(t, ids[i], r.ID)
			assert.Equal(t, []string{}, r.Tags)
		}
	})

	t.Run("purge orphans", func(t *testing.T) {
		st := newStore(t)
		keep := createUser(t, st, "keep@example.com")
		gone := createUser(t, st, "gone@example.com")

		for _, owner := range []string{keep.ID, gone.ID, gone.ID} {
			r := models.Resource{Kind: models.KindNote, OwnerID: owner, Title: "t", Body: "b", CreatedAt: now}
			require.NoError(t, st.InsertResource(ctx, &r))
		}
		require.NoError(t, st.DeleteAccount(ctx, gone.ID))

		n, err := st.PurgeOrphans(ctx, models.KindNote)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		list, err := st.ListResources(ctx, models.KindNote, keep.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		n, err = st.PurgeOrphans(ctx, models.KindNote)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
