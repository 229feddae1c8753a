package handler_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestHandleHome(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := env.server(t)

	owner, err := env.auth.Register(context.Background(), "designer@example.com", "Designer", "password123", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	p, err := env.projects.Create(context.Background(), owner.ID, sweaterDocument())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.projects.SetPublished(context.Background(), owner.ID, p.ID, true); err != nil {
		t.Fatalf("SetPublished: %v", err)
	}

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Solsikkegenser") {
		t.Fatalf("published pattern missing from home page:\n%s", body)
	}
}

func TestHandleHomeNotFound(t *testing.T) {
	srv := newTestEnv(t, nil).server(t)

	resp, err := http.Get(srv.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
