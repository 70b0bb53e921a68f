// Package store persists accounts and owned resources.
//
// Every ResourceStore method takes the owner ID alongside the resource ID and puts
// both into the query predicate. No method loads a resource by its ID alone.
package store

import (
	"context"

	"github.com/isdelr/studentily-be/internal/models"
)

// AccountStore persists user accounts.
type AccountStore interface {
	// CreateAccount assigns an ID and inserts the user.
	// Returns models.ErrDuplicateIdentity if the email is taken.
	CreateAccount(ctx context.Context, user *models.User) error
	// FindAccountByEmail returns models.ErrNotFound if no account matches.
	FindAccountByEmail(ctx context.Context, email string) (models.User, error)
	// FindAccountByID returns models.ErrNotFound if no account matches.
	FindAccountByID(ctx context.Context, id string) (models.User, error)
	// DeleteAccount returns models.ErrNotFound if no account was removed.
	DeleteAccount(ctx context.Context, id string) error
}

// Flag names a boolean resource column that can be overwritten in place.
type Flag string

const (
	FlagPinned    Flag = "pinned"
	FlagCompleted Flag = "completed"
)

// ResourceStore persists notes, todos and journal entries, always scoped to an owner.
type ResourceStore interface {
	// InsertResource assigns an ID and inserts r.
	InsertResource(ctx context.Context, r *models.Resource) error
	// ListResources returns the owner's resources in store order.
	ListResources(ctx context.Context, kind models.Kind, ownerID string) ([]models.Resource, error)
	// FindResource returns models.ErrNotFound when the resource is missing or foreign.
	FindResource(ctx context.Context, kind models.Kind, ownerID, id string) (models.Resource, error)
	// SaveResource overwrites the mutable fields of r, matched on r.ID and r.OwnerID.
	SaveResource(ctx context.Context, r models.Resource) error
	// SetResourceFlag overwrites one boolean and returns the updated resource.
	SetResourceFlag(ctx context.Context, kind models.Kind, ownerID, id string, flag Flag, value bool) (models.Resource, error)
	// DeleteResource returns models.ErrNotFound when nothing matched.
	DeleteResource(ctx context.Context, kind models.Kind, ownerID, id string) error
	// PurgeOrphans removes resources whose owner account no longer exists.
	PurgeOrphans(ctx context.Context, kind models.Kind) (int64, error)
}

// Store bundles both stores plus a liveness check.
type Store interface {
	AccountStore
	ResourceStore
	Ping(ctx context.Context) error
	Close() error
}
