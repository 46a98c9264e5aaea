// Package auth identifies the calling user.
//
// Authentication screens live with the external identity provider; this
// service only sees the provider-issued session token as a bearer JWT. The
// middleware verifies it and puts the provider user ID into the request
// context for handlers to pick up via CurrentUserID.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// Verifier validates session tokens and injects identity into context.
type Verifier struct {
	secret []byte
	log    *zap.Logger
}

// NewVerifier builds a Verifier for tokens signed with the shared secret.
func NewVerifier(secret string, logger *zap.Logger) *Verifier {
	return &Verifier{secret: []byte(secret), log: logger}
}

// CurrentUserID returns the provider user ID for the request, if signed in.
func CurrentUserID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(currentUserKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a request whose context carries the given user ID.
// Used by tests to stand in for the middleware.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, userID))
}

// LoadUser parses the Authorization bearer token, if present, and stores the
// subject claim in the request context. Invalid tokens are treated as
// anonymous (RequireSignedIn decides whether that is fatal).
func (v *Verifier) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims := jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return v.secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || claims.Subject == "" {
			v.log.Debug("rejected session token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, WithUserID(r, claims.Subject))
	})
}

// RequireSignedIn rejects requests without a verified user with a JSON 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserID(r); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
