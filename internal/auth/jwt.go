package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/studentily-be/internal/models"
)

// DefaultTokenTTL is how long an issued session token stays valid.
const DefaultTokenTTL = 20 * 24 * time.Hour

var (
	ErrTokenMissing          = errors.New("token missing")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
)

// Claims defines the JWT claims structure. User is a snapshot taken at issuance and is
// never refreshed; a changed account needs a new token.
type Claims struct {
	User models.User `json:"user"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens with a fixed secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService creates a TokenService. An empty secret is rejected.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// Issue creates a new token embedding the user. The password hash is left out.
func (s *TokenService) Issue(user models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		User: user.Public(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature first and only then decodes and validates the claims,
// so tampering anywhere in the signed content reports ErrTokenSignatureInvalid.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenMissing
	}

	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return nil, ErrTokenMalformed
	}

	sig, err := s.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, ErrTokenSignatureInvalid
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, s.secret); err != nil {
		return nil, ErrTokenSignatureInvalid
	}

	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrTokenSignatureInvalid
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case !token.Valid:
		return nil, ErrTokenMalformed
	}
	if claims.User.ID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// Reason maps a Verify error to a short label for logs and metrics.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return "missing"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignatureInvalid):
		return "signature_invalid"
	default:
		return "malformed"
	}
}
