package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/isdelr/studentily-be/internal/database"
	"github.com/isdelr/studentily-be/internal/store"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := database.New("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	st := store.NewSQLiteStore(db)
	t.Cleanup(func() { _ = st.Close() })
	return st
}
