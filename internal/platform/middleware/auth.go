package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"gavel/pkg/domain"
)

// PrincipalClaims are the claims the gateway puts in access tokens. The
// capability list is what the permission gate evaluates downstream.
type PrincipalClaims struct {
	Email        string   `json:"email,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidator validates a bearer token into a principal.
type TokenValidator interface {
	ValidateToken(tokenString string) (domain.Principal, error)
}

// HMACValidator validates HS256 tokens signed with the shared gateway key.
type HMACValidator struct {
	SigningKey []byte
}

func NewHMACValidator(signingKey string) *HMACValidator {
	return &HMACValidator{SigningKey: []byte(signingKey)}
}

func (v *HMACValidator) ValidateToken(tokenString string) (domain.Principal, error) {
	claims := &PrincipalClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.SigningKey, nil
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return domain.Principal{}, fmt.Errorf("invalid token")
	}
	principalID, err := domain.ParsePrincipalID(claims.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("invalid subject: %w", err)
	}
	return domain.Principal{
		ID:           principalID,
		Email:        claims.Email,
		Capabilities: claims.Capabilities,
	}, nil
}

type principalKey struct{}

// ContextKeyPrincipal is exported for handler tests that inject a principal
// without running the auth middleware.
var ContextKeyPrincipal = principalKey{}

// GetPrincipal retrieves the authenticated principal from the context.
// Handlers read it here and pass it to services as an explicit argument.
func GetPrincipal(ctx context.Context) domain.Principal {
	if p, ok := ctx.Value(ContextKeyPrincipal).(domain.Principal); ok {
		return p
	}
	return domain.Principal{}
}

// WithPrincipal injects a principal into the context (middleware and tests).
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved principal in the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			principal, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, description)
}
