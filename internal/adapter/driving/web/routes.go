package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Page routes answer htmx requests with the swapped fragment only; actions
// that change state live under /app.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Sign-in.
	mux.HandleFunc("GET /login", h.Login)
	mux.HandleFunc("GET /auth/github", h.StartOAuth)
	mux.HandleFunc("GET /auth/callback", h.OAuthCallback)
	mux.HandleFunc("POST /logout", h.csrf(h.Logout))

	// Pages.
	mux.HandleFunc("GET /{$}", h.Dashboard)
	mux.HandleFunc("GET /repos", h.Repos)
	mux.HandleFunc("GET /repos/{id}/settings", h.Settings)
	mux.HandleFunc("GET /review", h.ReviewForm)
	mux.HandleFunc("GET /profile", h.Profile)

	// Partials.
	mux.HandleFunc("POST /app/repos/{id}/settings/{section}/{field}", h.csrf(h.SetField))
	mux.HandleFunc("POST /app/repos/{id}/settings/save", h.csrf(h.SaveSettings))
	mux.HandleFunc("POST /app/repos/{id}/settings/reset", h.csrf(h.ResetSettings))
	mux.HandleFunc("POST /app/review", h.csrf(h.Review))
}
