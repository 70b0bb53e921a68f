package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/isdelr/studentily-be/internal/models"
	"github.com/rs/zerolog/log"
)

type contextKey string

// userContextKey is the context key for the authenticated user snapshot.
const userContextKey = contextKey("user")

// Verifier validates a raw token string.
type Verifier interface {
	Verify(tokenStr string) (*Claims, error)
}

// FailureRecorder counts rejected requests by reason.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// JWTMiddleware rejects requests without a valid bearer token and stores the token's
// user snapshot in the request context. It never touches the store.
func JWTMiddleware(verifier Verifier, recorder FailureRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifier.Verify(BearerToken(r))
			if err != nil {
				reason := Reason(err)
				if recorder != nil {
					recorder.RecordAuthFailure(reason)
				}
				log.Debug().Err(err).Str("reason", reason).Str("path", r.URL.Path).Msg("Rejected request")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := ContextWithUser(r.Context(), claims.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// It returns "" when the header is absent or uses another scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserFromContext returns the user attached by JWTMiddleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	if !ok || user.ID == "" {
		return models.User{}, false
	}
	return user, true
}

// ContextWithUser attaches a user snapshot to ctx.
func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
