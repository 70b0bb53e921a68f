package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/studentily-be/internal/models"
	"github.com/isdelr/studentily-be/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for password hashes.
const bcryptCost = 10

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
	FindByIdentity(ctx context.Context, email string) (*models.User, error)
	VerifyPassword(rawPassword, storedHash string) bool
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	DeleteAccount(ctx context.Context, id string) error
}

// UserService provides business logic for account management.
type UserService struct {
	store store.AccountStore
	now   func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(accounts store.AccountStore) *UserService {
	return &UserService{store: accounts, now: time.Now}
}

// Register validates the input, hashes the password and creates the account.
func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case username == "":
		return models.User{}, models.NewValidationError("username", "Please type in your complete name")
	case email == "":
		return models.User{}, models.NewValidationError("email", "Please type in your E-Mail")
	case password == "":
		return models.User{}, models.NewValidationError("password", "Please type in your password")
	}

	existing, err := s.FindByIdentity(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if existing != nil {
		return models.User{}, models.ErrDuplicateIdentity
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	// The unique index still guards against a concurrent registration.
	if err := s.store.CreateAccount(ctx, &user); err != nil {
		return models.User{}, err
	}

	return user.Public(), nil
}

// FindByIdentity looks up an account by email. It returns nil when none exists.
func (s *UserService) FindByIdentity(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// VerifyPassword compares a raw password against a stored bcrypt hash.
func (s *UserService) VerifyPassword(rawPassword, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(rawPassword)) == nil
}

// Authenticate verifies a user's credentials. Unknown email and wrong password
// both yield models.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.FindByIdentity(ctx, strings.TrimSpace(email))
	if err != nil {
		return models.User{}, err
	}
	if user == nil || !s.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, models.ErrInvalidCredentials
	}
	return user.Public(), nil
}

// GetUserByID retrieves an account without its password hash.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	return user.Public(), nil
}

// DeleteAccount removes the account. Its resources become unreachable and are
// removed later by the orphan purger.
func (s *UserService) DeleteAccount(ctx context.Context, id string) error {
	return s.store.DeleteAccount(ctx, id)
}
