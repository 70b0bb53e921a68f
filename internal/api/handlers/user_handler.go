package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/studentily-be/internal/auth"
	"github.com/isdelr/studentily-be/internal/models"
	"github.com/isdelr/studentily-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(user models.User) (string, error)
}

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  TokenIssuer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens TokenIssuer) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAccount registers a user and returns a fresh session token.
func (h *UserHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, models.ErrDuplicateIdentity):
			writeError(w, http.StatusConflict, "Username already exists")
		default:
			log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
			writeError(w, http.StatusInternalServerError, "Failed to create account")
		}
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"error":       false,
		"user":        user,
		"secretToken": token,
		"message":     "Your registration was successful",
	})
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Email == "" {
		writeError(w, http.StatusBadRequest, "Please enter your email")
		return
	}
	if payload.Password == "" {
		writeError(w, http.StatusBadRequest, "Please enter your password")
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
			writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to authenticate user")
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"error":       false,
		"message":     "Login was successful",
		"email":       user.Email,
		"secretToken": token,
	})
}

// GetUser returns the caller's account, re-read from the store.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), caller.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn().Str("user_id", caller.ID).Msg("User from token not found in DB")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Str("user_id", caller.ID).Msg("Failed to get user")
		writeError(w, http.StatusInternalServerError, serverErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"user": user, "message": ""})
}

// DeleteAccount removes the caller's account.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), caller.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User could not be found")
			return
		}
		log.Error().Err(err).Str("user_id", caller.ID).Msg("Failed to delete account")
		writeError(w, http.StatusInternalServerError, "Error deleting account")
		return
	}

	log.Info().Str("user_id", caller.ID).Msg("Account deleted")
	writeJSON(w, http.StatusOK, envelope{"message": "Account deleted successfully"})
}
