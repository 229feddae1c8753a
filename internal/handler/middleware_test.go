package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/msomdec/strikkeguide/internal/handler"
)

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, "valid@example.com", "Valid User", "password123", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := env.auth.Login(ctx, "valid@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	token := sess.Token

	tests := []struct {
		name   string
		cookie string
		want   int
	}{
		{"valid token", token, http.StatusOK},
		{"missing cookie", "", http.StatusUnauthorized},
		{"garbage token", "invalid.jwt.token", http.StatusUnauthorized},
		{"tampered token", token[:len(token)-1] + "X", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if user := handler.UserFromContext(r.Context()); user != nil {
					gotUser = user.DisplayName
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "auth_token", Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			handler.RequireAuth(env.auth, inner).ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if tc.want == http.StatusOK && gotUser != "Valid User" {
				t.Fatalf("expected user 'Valid User', got %q", gotUser)
			}
			if tc.want == http.StatusUnauthorized && w.Header().Get("Content-Type") != "application/json" {
				t.Fatalf("expected JSON error, got %q", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, "opt@example.com", "Optional", "password123", "password123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := env.auth.Login(ctx, "opt@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	token := sess.Token

	for _, tc := range []struct {
		name   string
		cookie string
		want   string
	}{
		{"with token", token, "Optional"},
		{"without token", "", ""},
		{"bad token", "nope", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if user := handler.UserFromContext(r.Context()); user != nil {
					got = user.DisplayName
				}
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "auth_token", Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			handler.OptionalAuth(env.auth, inner).ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if got != tc.want {
				t.Fatalf("expected user %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	w := httptest.NewRecorder()
	handler.SecurityHeaders(inner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := w.Header().Get(header); got != want {
			t.Fatalf("%s: expected %q, got %q", header, want, got)
		}
	}
}
