package services

import (
	"context"
	"testing"

	"github.com/isdelr/studentily-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesAccountWithHashedPassword(t *testing.T) {
	ctx := context.Background()
	st := setupStore(t)
	svc := NewUserService(st)

	user, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())

	stored, err := st.FindAccountByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.True(t, svc.VerifyPassword("s3cret", stored.PasswordHash))
	assert.False(t, svc.VerifyPassword("wrong", stored.PasswordHash))
}

func TestRegister_Validation(t *testing.T) {
	svc := NewUserService(setupStore(t))

	tests := []struct {
		name, username, email, password, message string
	}{
		{"missing name", "", "a@b.c", "pw", "Please type in your complete name"},
		{"missing email", "Ada", "  ", "pw", "Please type in your E-Mail"},
		{"missing password", "Ada", "a@b.c", "", "Please type in your password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(setupStore(t))

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Someone Else", "ada@example.com", "other")
	assert.ErrorIs(t, err, models.ErrDuplicateIdentity)
}

func TestFindByIdentity(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(setupStore(t))

	missing, err := svc.FindByIdentity(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.Register(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	found, err := svc.FindByIdentity(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Ada", found.Username)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(setupStore(t))

	registered, err := svc.Register(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Authenticate(ctx, "ada@example.com", "nope")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestGetUserByIDAndDeleteAccount(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(setupStore(t))

	registered, err := svc.Register(ctx, "Ada", "ada@example.com", "pw")
	require.NoError(t, err)

	user, err := svc.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.Email, user.Email)
	assert.Equal(t, registered.Username, user.Username)
	assert.True(t, registered.CreatedAt.Equal(user.CreatedAt))
	assert.Empty(t, user.PasswordHash)

	require.NoError(t, svc.DeleteAccount(ctx, registered.ID))
	_, err = svc.GetUserByID(ctx, registered.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteAccount(ctx, registered.ID), models.ErrNotFound)
}
