// internal/app/system/auth/auth.go

// Package auth issues and verifies the bearer tokens the API authenticates
// with, and exposes the current user through the request context.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenUser is the authenticated user injected into the request context.
// The middleware re-fetches the backing user document on every request so
// role changes and disabled accounts take effect immediately.
type TokenUser struct {
	ID         primitive.ObjectID
	FullName   string
	Email      string
	Role       string
	CompanyID  *primitive.ObjectID
	PositionID *primitive.ObjectID
}

// UserFetcher loads a fresh TokenUser by id hex. It returns nil when the
// user does not exist or is disabled.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *TokenUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user and a found flag.
func CurrentUser(r *http.Request) (*TokenUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*TokenUser)
	return u, ok
}

func withUser(r *http.Request, u *TokenUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user into the request context, bypassing token
// verification. For handler tests only.
func WithTestUser(r *http.Request, u *TokenUser) *http.Request {
	return withUser(r, u)
}

// Claims is the JWT payload. Subject is the user id hex; Role and
// CompanyID are informational and re-validated against the stored user on
// every request.
type Claims struct {
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and parses bearer tokens and carries the middleware
// dependencies.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	fetcher UserFetcher
	log     *zap.Logger
}

// NewTokenManager constructs a TokenManager. ttl bounds token lifetime.
func NewTokenManager(secret string, ttl time.Duration, fetcher UserFetcher, log *zap.Logger) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, fetcher: fetcher, log: log}
}

// Issue signs a token for the user.
func (m *TokenManager) Issue(u *TokenUser) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if u.CompanyID != nil {
		claims.CompanyID = u.CompanyID.Hex()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies a token string and returns its claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// LoadTokenUser is middleware that resolves a Bearer token to a fresh
// TokenUser in the request context. Requests without a token (or with an
// invalid one) proceed unauthenticated; protected routes are gated by
// RequireSignedIn/RequireRole downstream.
func (m *TokenManager) LoadTokenUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.Parse(parts[1])
		if err != nil {
			m.log.Debug("rejecting invalid bearer token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if u := m.fetcher.FetchUser(r.Context(), claims.Subject); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects unauthenticated requests with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose user holds none of the allowed roles
// with 403 (or 401 when unauthenticated).
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, ok := set[strings.ToLower(u.Role)]; !ok {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
