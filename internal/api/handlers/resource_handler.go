package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/studentily-be/internal/auth"
	"github.com/isdelr/studentily-be/internal/models"
	"github.com/isdelr/studentily-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ResourceHandler serves the CRUD routes of one resource kind.
type ResourceHandler struct {
	service services.ResourceServiceProvider
	spec    models.KindSpec
}

// NewResourceHandler creates a handler for the given kind spec.
func NewResourceHandler(service services.ResourceServiceProvider, spec models.KindSpec) *ResourceHandler {
	return &ResourceHandler{service: service, spec: spec}
}

// CreatePayload defines the structure for create requests.
type CreatePayload struct {
	Title       string   `json:"title"`
	TextContent string   `json:"textContent"`
	Tags        []string `json:"tags"`
}

// EditPayload defines the structure for partial updates. Absent fields are nil.
type EditPayload struct {
	Title       *string  `json:"title"`
	TextContent *string  `json:"textContent"`
	Tags        []string `json:"tags"`
	IsPinned    *bool    `json:"isPinned"`
	IsCompleted *bool    `json:"isCompleted"`
}

// PinnedPayload defines the structure for update-pinned requests.
type PinnedPayload struct {
	IsPinned *bool `json:"isPinned"`
}

func (h *ResourceHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return user.ID, true
}

// fail maps service errors onto responses. Details stay in the log.
func (h *ResourceHandler) fail(w http.ResponseWriter, err error, ownerID, id, action string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, models.ErrNoChanges):
		writeError(w, http.StatusBadRequest, "No changes were made")
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, h.spec.Label+" could not be found")
	default:
		log.Error().Err(err).
			Str("kind", string(h.spec.Kind)).
			Str("user_id", ownerID).
			Str("id", id).
			Msgf("Failed to %s resource", action)
		writeError(w, http.StatusInternalServerError, serverErrorMessage)
	}
}

// Create handles creating a resource for the caller.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var payload CreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.service.Create(r.Context(), h.spec.Kind, ownerID, models.ResourceFields{
		Title: payload.Title,
		Body:  payload.TextContent,
		Tags:  payload.Tags,
	})
	if err != nil {
		h.fail(w, err, ownerID, "", "create")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"error":        false,
		h.spec.JSONKey: res,
		"message":      h.spec.Label + " was created, success!",
	})
}

// Edit handles partial updates of a resource.
func (h *ResourceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var payload EditPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.service.Update(r.Context(), h.spec.Kind, ownerID, id, models.ResourcePatch{
		Title:     payload.Title,
		Body:      payload.TextContent,
		Tags:      payload.Tags,
		Pinned:    payload.IsPinned,
		Completed: payload.IsCompleted,
	})
	if err != nil {
		h.fail(w, err, ownerID, id, "update")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"error":        false,
		h.spec.JSONKey: res,
		"message":      h.spec.Label + " was updated successfully",
	})
}

// GetAll lists the caller's resources, pinned first.
func (h *ResourceHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListAll(r.Context(), h.spec.Kind, ownerID)
	if err != nil {
		h.fail(w, err, ownerID, "", "list")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"error":              false,
		h.spec.JSONKeyPlural: list,
		"message":            "All " + h.spec.LabelPlural + " successfully received",
	})
}

// Delete handles deleting a resource.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), h.spec.Kind, ownerID, id); err != nil {
		h.fail(w, err, ownerID, id, "delete")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"error":   false,
		"message": h.spec.Label + " deleted, success!",
	})
}

// UpdatePinned overwrites the pinned flag. isPinned is required.
func (h *ResourceHandler) UpdatePinned(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var payload PinnedPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.IsPinned == nil {
		writeError(w, http.StatusBadRequest, "No changes were made")
		return
	}

	res, err := h.service.SetPinned(r.Context(), h.spec.Kind, ownerID, id, *payload.IsPinned)
	if err != nil {
		h.fail(w, err, ownerID, id, "pin")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"error":        false,
		h.spec.JSONKey: res,
		"message":      h.spec.Label + " was updated successfully",
	})
}

// MarkCompleted sets a todo's completed flag.
func (h *ResourceHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, true)
}

// MarkUncompleted clears a todo's completed flag.
func (h *ResourceHandler) MarkUncompleted(w http.ResponseWriter, r *http.Request) {
	h.setCompleted(w, r, false)
}

func (h *ResourceHandler) setCompleted(w http.ResponseWriter, r *http.Request, completed bool) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	res, err := h.service.SetCompleted(r.Context(), ownerID, id, completed)
	if err != nil {
		h.fail(w, err, ownerID, id, "complete")
		return
	}

	writeJSON(w, http.StatusOK, envelope{h.spec.JSONKey: res})
}
