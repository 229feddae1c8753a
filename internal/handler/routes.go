package handler

import (
	"net/http"

	"github.com/msomdec/strikkeguide/internal/service"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth     *service.AuthService
	Projects *service.ProjectService
	Progress *service.ProgressService
	Imports  *service.ImportService
	// DB is pinged by /healthz; nil skips the check.
	DB Pinger
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, svc Services, cookieSecure bool) {
	authH := NewAuthHandler(svc.Auth, cookieSecure)
	projectH := NewProjectHandler(svc.Projects)
	progressH := NewProgressHandler(svc.Progress)
	importH := NewImportHandler(svc.Imports)
	guideH := NewGuideHandler(svc.Projects, svc.Progress)
	homeH := NewHomeHandler(svc.Projects)

	requireAuth := func(h http.HandlerFunc) http.Handler { return RequireAuth(svc.Auth, h) }
	optionalAuth := func(h http.HandlerFunc) http.Handler { return OptionalAuth(svc.Auth, h) }

	mux.HandleFunc("GET /healthz", NewHealthHandler(svc.DB).HandleHealthz)

	mux.HandleFunc("POST /api/auth/register", authH.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", authH.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authH.HandleLogout)
	mux.Handle("GET /api/auth/me", optionalAuth(authH.HandleMe))

	mux.Handle("POST /api/extract", requireAuth(importH.HandleExtract))
	mux.Handle("POST /api/projects/import", requireAuth(importH.HandleImport))

	mux.Handle("POST /api/projects", requireAuth(projectH.HandleCreate))
	mux.Handle("GET /api/projects", requireAuth(projectH.HandleList))
	mux.HandleFunc("GET /api/patterns", projectH.HandleListPublished)
	mux.Handle("GET /api/projects/{id}", optionalAuth(projectH.HandleGet))
	mux.Handle("PUT /api/projects/{id}", requireAuth(projectH.HandleUpdate))
	mux.Handle("DELETE /api/projects/{id}", requireAuth(projectH.HandleDelete))
	mux.Handle("POST /api/projects/{id}/copy", requireAuth(projectH.HandleCopy))
	mux.Handle("GET /api/projects/{id}/original", requireAuth(projectH.HandleOriginal))

	mux.Handle("GET /api/projects/{id}/steps/{index}", optionalAuth(progressH.HandleStep))
	mux.Handle("PUT /api/projects/{id}/progress", requireAuth(progressH.HandleSetProgress))
	mux.Handle("PUT /api/projects/{id}/status", requireAuth(progressH.HandleSetStatus))
	mux.Handle("POST /api/projects/{id}/counters", requireAuth(progressH.HandleAddCounter))
	mux.Handle("POST /api/counters/{id}/increment", requireAuth(progressH.HandleIncrement(1)))
	mux.Handle("POST /api/counters/{id}/decrement", requireAuth(progressH.HandleIncrement(-1)))
	mux.Handle("DELETE /api/counters/{id}", requireAuth(progressH.HandleDeleteCounter))

	mux.Handle("GET /projects/{id}", optionalAuth(guideH.HandlePage))
	mux.Handle("GET /projects/{id}/guide", optionalAuth(guideH.HandleFragment))
	mux.Handle("GET /projects/{id}/sizes.xlsx", optionalAuth(guideH.HandleSizeChart))
	mux.Handle("GET /projects/{id}/print", optionalAuth(guideH.HandlePrint))

	mux.Handle("GET /", optionalAuth(homeH.HandleHome))
}
