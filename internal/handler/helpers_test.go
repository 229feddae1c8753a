package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/msomdec/strikkeguide/internal/acquire"
	"github.com/msomdec/strikkeguide/internal/domain"
	"github.com/msomdec/strikkeguide/internal/extract"
	"github.com/msomdec/strikkeguide/internal/handler"
	"github.com/msomdec/strikkeguide/internal/repository/sqlite"
	"github.com/msomdec/strikkeguide/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests"

// textAcquirer treats every upload as plain text, or fails with err.
type textAcquirer struct {
	err error
}

func (a textAcquirer) Acquire(_ context.Context, src acquire.Source) (acquire.Result, error) {
	if a.err != nil {
		return acquire.Result{}, a.err
	}
	return acquire.Result{Text: string(src.Data), Format: acquire.FormatText, Method: acquire.MethodText}, nil
}

type testEnv struct {
	db       *sqlite.DB
	auth     *service.AuthService
	projects *service.ProjectService
	services handler.Services
}

func newTestEnv(t *testing.T, acq acquire.Acquirer) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if acq == nil {
		acq = textAcquirer{}
	}
	auth := service.NewAuthService(db.Users(), testJWTSecret, 4)
	projects := service.NewProjectService(db.Projects(), db.Counters(), db.Files(), db.Users())
	progress := service.NewProgressService(db.Projects(), db.Counters())
	extraction := service.NewExtractionService(acq, extract.NewPipeline(extract.DefaultOptions(), nil), nil, service.ModeDeterministic, nil)
	imports := service.NewImportService(extraction, projects, db.Files(), nil, nil)

	return &testEnv{
		db:       db,
		auth:     auth,
		projects: projects,
		services: handler.Services{Auth: auth, Projects: projects, Progress: progress, Imports: imports, DB: db},
	}
}

// withModel rebuilds the import service around model in the given mode.
func (e *testEnv) withModel(model service.TextExtractor, mode service.ExtractMode) {
	extraction := service.NewExtractionService(textAcquirer{}, extract.NewPipeline(extract.DefaultOptions(), nil), model, mode, nil)
	e.services.Imports = service.NewImportService(extraction, e.projects, e.db.Files(), nil, nil)
}

// failingModel is a language model that always returns err.
type failingModel struct {
	err error
}

func (m failingModel) Extract(context.Context, string) (*domain.PatternDocument, error) {
	return nil, m.err
}

func (e *testEnv) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, e.services, false)
	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)
	return srv
}

// signIn registers email and returns a client carrying its session cookie.
func (e *testEnv) signIn(t *testing.T, srv *httptest.Server, email string) (*http.Client, *domain.User) {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/register", map[string]string{
		"email": email, "displayName": "Strikker", "password": "password123", "confirmPassword": "password123",
	})
	expectStatus(t, resp, http.StatusCreated)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"email": email, "password": "password123",
	})
	expectStatus(t, resp, http.StatusOK)

	user, err := e.db.Users().GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	return client, user
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func ptr[T any](v T) *T { return &v }

func sweaterDocument() *domain.PatternDocument {
	return &domain.PatternDocument{
		Title:      "Solsikkegenser",
		Difficulty: domain.DifficultyIntermediate,
		Sizes:      []string{"S", "M", "L"},
		Gauge:      domain.Gauge{StitchesPer10cm: ptr(22.0)},
		Steps: []domain.Step{
			{
				Title:       "Halskant",
				Description: "Legg opp {count_0} masker.",
				SizeSpecificValues: []domain.SizeSpecificValue{
					{Placeholder: "{count_0}", Values: domain.SizeBinding{"S": 96, "M": 104, "L": 112}},
				},
			},
			{Title: "Montering", Description: "Fest alle tråder."},
		},
	}
}
