package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/isdelr/studentily-be/internal/models"
	"github.com/isdelr/studentily-be/internal/store"
)

// ResourceServiceProvider defines the interface for owner-scoped resource services.
type ResourceServiceProvider interface {
	Create(ctx context.Context, kind models.Kind, ownerID string, fields models.ResourceFields) (models.Resource, error)
	ListAll(ctx context.Context, kind models.Kind, ownerID string) ([]models.Resource, error)
	Get(ctx context.Context, kind models.Kind, ownerID, id string) (models.Resource, error)
	Update(ctx context.Context, kind models.Kind, ownerID, id string, patch models.ResourcePatch) (models.Resource, error)
	SetPinned(ctx context.Context, kind models.Kind, ownerID, id string, pinned bool) (models.Resource, error)
	SetCompleted(ctx context.Context, ownerID, id string, completed bool) (models.Resource, error)
	Delete(ctx context.Context, kind models.Kind, ownerID, id string) error
}

// ResourceService implements notes, todos and journal entries with one code path.
// Kind-specific behaviour comes from models.KindSpec.
type ResourceService struct {
	store store.ResourceStore
	now   func() time.Time
}

// NewResourceService creates a new ResourceService.
func NewResourceService(resources store.ResourceStore) *ResourceService {
	return &ResourceService{store: resources, now: time.Now}
}

func lookupSpec(kind models.Kind) (models.KindSpec, error) {
	spec, ok := models.SpecFor(kind)
	if !ok {
		return models.KindSpec{}, fmt.Errorf("unknown resource kind %q", kind)
	}
	return spec, nil
}

// Create validates the fields for the kind and stores a new unpinned resource.
func (s *ResourceService) Create(ctx context.Context, kind models.Kind, ownerID string, fields models.ResourceFields) (models.Resource, error) {
	spec, err := lookupSpec(kind)
	if err != nil {
		return models.Resource{}, err
	}
	if ownerID == "" {
		return models.Resource{}, fmt.Errorf("create %s: owner id is required", kind)
	}

	if strings.TrimSpace(fields.Title) == "" {
		return models.Resource{}, models.NewValidationError("title", spec.TitleMessage)
	}
	if spec.BodyRequired && strings.TrimSpace(fields.Body) == "" {
		return models.Resource{}, models.NewValidationError("textContent", "Please enter some content")
	}

	r := models.Resource{
		Kind:      kind,
		OwnerID:   ownerID,
		Title:     fields.Title,
		Body:      fields.Body,
		Pinned:    false,
		Completed: false,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if spec.HasTags {
		r.Tags = append([]string{}, fields.Tags...)
	}

	if err := s.store.InsertResource(ctx, &r); err != nil {
		return models.Resource{}, err
	}
	return r, nil
}

// ListAll returns every resource of the owner with pinned ones first. Within each
// group the store order is kept; callers must not rely on anything finer.
func (s *ResourceService) ListAll(ctx context.Context, kind models.Kind, ownerID string) ([]models.Resource, error) {
	if _, err := lookupSpec(kind); err != nil {
		return nil, err
	}

	resources, err := s.store.ListResources(ctx, kind, ownerID)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(resources, func(a, b models.Resource) int {
		switch {
		case a.Pinned == b.Pinned:
			return 0
		case a.Pinned:
			return -1
		default:
			return 1
		}
	})
	return resources, nil
}

// Get returns models.ErrNotFound for missing and foreign resources alike.
func (s *ResourceService) Get(ctx context.Context, kind models.Kind, ownerID, id string) (models.Resource, error) {
	if _, err := lookupSpec(kind); err != nil {
		return models.Resource{}, err
	}
	return s.store.FindResource(ctx, kind, ownerID, id)
}

// Update applies a partial update. A patch with nothing applicable is rejected with
// models.ErrNoChanges before the resource is even looked up.
func (s *ResourceService) Update(ctx context.Context, kind models.Kind, ownerID, id string, patch models.ResourcePatch) (models.Resource, error) {
	spec, err := lookupSpec(kind)
	if err != nil {
		return models.Resource{}, err
	}
	if !patch.HasChanges(spec) {
		return models.Resource{}, models.ErrNoChanges
	}

	r, err := s.store.FindResource(ctx, kind, ownerID, id)
	if err != nil {
		return models.Resource{}, err
	}

	patch.ApplyTo(&r, spec)

	if err := s.store.SaveResource(ctx, r); err != nil {
		return models.Resource{}, err
	}
	return r, nil
}

// SetPinned overwrites the pinned flag unconditionally.
func (s *ResourceService) SetPinned(ctx context.Context, kind models.Kind, ownerID, id string, pinned bool) (models.Resource, error) {
	if _, err := lookupSpec(kind); err != nil {
		return models.Resource{}, err
	}
	return s.store.SetResourceFlag(ctx, kind, ownerID, id, store.FlagPinned, pinned)
}

// SetCompleted overwrites a todo's completed flag unconditionally.
func (s *ResourceService) SetCompleted(ctx context.Context, ownerID, id string, completed bool) (models.Resource, error) {
	return s.store.SetResourceFlag(ctx, models.KindTodo, ownerID, id, store.FlagCompleted, completed)
}

// Delete removes an owned resource; missing and foreign resources yield models.ErrNotFound.
func (s *ResourceService) Delete(ctx context.Context, kind models.Kind, ownerID, id string) error {
	if _, err := lookupSpec(kind); err != nil {
		return err
	}
	return s.store.DeleteResource(ctx, kind, ownerID, id)
}
