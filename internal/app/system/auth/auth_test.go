package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/threadhive/threadhive/internal/app/system/auth"
	"go.uber.org/zap"
)

const testSecret = "test-signing-secret"

func signedToken(t *testing.T, secret, subject string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.CurrentUserID(r)
		_, _ = w.Write([]byte(id))
	})
}

func TestLoadUser_ValidToken(t *testing.T) {
	v := auth.NewVerifier(testSecret, zap.NewNop())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, "user_abc"))
	rec := httptest.NewRecorder()

	v.LoadUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != "user_abc" {
		t.Errorf("expected user_abc in context, got %q", rec.Body.String())
	}
}

func TestLoadUser_WrongKeyIsAnonymous(t *testing.T) {
	v := auth.NewVerifier(testSecret, zap.NewNop())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "other-secret", "user_abc"))
	rec := httptest.NewRecorder()

	v.LoadUser(echoUser()).ServeHTTP(rec, req)

	if rec.Body.String() != "" {
		t.Errorf("expected anonymous, got %q", rec.Body.String())
	}
}

func TestRequireSignedIn_Unauthorized(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	auth.RequireSignedIn(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSignedIn_PassesThrough(t *testing.T) {
	req := auth.WithUserID(httptest.NewRequest("GET", "/", nil), "user_1")
	rec := httptest.NewRecorder()

	auth.RequireSignedIn(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "user_1" {
		t.Errorf("expected pass-through, got %d %q", rec.Code, rec.Body.String())
	}
}
