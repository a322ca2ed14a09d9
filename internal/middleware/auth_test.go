package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/simp/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func setupAuthMiddleware(t *testing.T) (*auth.TokenManager, *fakeRevocations, http.Handler) {
	t.Helper()
	tokens := auth.NewTokenManager(testSecret, time.Hour, nil)
	revoked := &fakeRevocations{revoked: map[string]bool{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RequireAuth(tokens, revoked, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Error("expected AuthContext in handler")
		}
		w.Header().Set("X-Person", ac.Username)
		w.WriteHeader(http.StatusOK)
	}))
	return tokens, revoked, handler
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestRequireAuthNoToken(t *testing.T) {
	_, _, handler := setupAuthMiddleware(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if msg := errorBody(t, rec); msg != auth.ErrMissingToken.Error() {
		t.Errorf("error = %q, want %q", msg, auth.ErrMissingToken.Error())
	}
}

func TestRequireAuthBearer(t *testing.T) {
	tokens, _, handler := setupAuthMiddleware(t)
	token, _, err := tokens.Issue(auth.Claims{PersonID: 1, Username: "adaobi"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("X-Person"); got != "adaobi" {
		t.Errorf("person = %q, want %q", got, "adaobi")
	}
}

func TestRequireAuthCookie(t *testing.T) {
	tokens, _, handler := setupAuthMiddleware(t)
	token, _, _ := tokens.Issue(auth.Claims{PersonID: 2, Username: "benobi"})
	value, err := tokens.CookieValue(token)
	if err != nil {
		t.Fatalf("cookie value: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: value})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("X-Person"); got != "benobi" {
		t.Errorf("person = %q, want %q", got, "benobi")
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	_, _, handler := setupAuthMiddleware(t)

	for _, header := range []string{"Bearer invalid-token", "Basic abc", "Bearer "} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireAuthRevoked(t *testing.T) {
	tokens, revoked, handler := setupAuthMiddleware(t)
	token, claims, _ := tokens.Issue(auth.Claims{PersonID: 1, Username: "adaobi"})
	revoked.revoked[claims.ID] = true

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if msg := errorBody(t, rec); msg != auth.ErrRevokedToken.Error() {
		t.Errorf("error = %q, want %q", msg, auth.ErrRevokedToken.Error())
	}
}

func TestRequireAuthRevocationLookupFails(t *testing.T) {
	tokens, revoked, handler := setupAuthMiddleware(t)
	token, _, _ := tokens.Issue(auth.Claims{PersonID: 1})
	revoked.err = errors.New("db down")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
