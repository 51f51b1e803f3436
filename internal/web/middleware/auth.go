package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const adminContextKey contextKey = "admin"

// RoleAdmin is the role claim required by the admin API.
const RoleAdmin = "admin"

// AdminClaims are the JWT claims accepted by RequireAdmin.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var (
	errMissingToken = errors.New("missing bearer token")
	errNotAdmin     = errors.New("token does not carry the admin role")
)

// NewAdminToken signs an HS256 admin token for subject, valid for ttl.
func NewAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("admin JWT secret is not configured")
	}
	now := time.Now()
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// parseAdminToken validates the token signature, expiry and role.
func parseAdminToken(secret, raw string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if claims.Role != RoleAdmin {
		return nil, errNotAdmin
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}

// RequireAdmin is middleware that requires a valid admin bearer token.
// With an empty secret the admin API is disabled and answers 503.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeAuthError(w, http.StatusServiceUnavailable, "admin API is disabled")
				return
			}
			raw, err := bearerToken(r)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			claims, err := parseAdminToken(secret, raw)
			if errors.Is(err, errNotAdmin) {
				writeAuthError(w, http.StatusForbidden, "forbidden")
				return
			}
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminFromContext retrieves the admin claims from the request context
func GetAdminFromContext(ctx context.Context) *AdminClaims {
	claims, ok := ctx.Value(adminContextKey).(*AdminClaims)
	if !ok {
		return nil
	}
	return claims
}

// SetAdminInContext adds admin claims to the context.
// This is primarily for testing - use RequireAdmin middleware in production.
func SetAdminInContext(ctx context.Context, claims *AdminClaims) context.Context {
	return context.WithValue(ctx, adminContextKey, claims)
}
