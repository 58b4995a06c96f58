// Package httphandler is the JSON API driving adapter.
package httphandler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

// Services bundles the application services the API exposes.
type Services struct {
	Sessions *application.SessionManager
	Repos    *application.RepositoryService
	PRs      *application.PRService
	Settings *application.SettingsFlow
	Reviews  *application.ReviewService
	Health   *application.HealthService
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	svc    Services
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterAPIRoutes registers the /api/v1 routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/me", h.Me)
	mux.HandleFunc("GET /api/v1/repos", h.ListRepos)
	mux.HandleFunc("GET /api/v1/repos/{id}", h.GetRepo)
	mux.HandleFunc("GET /api/v1/prs", h.ListPRs)
	mux.HandleFunc("GET /api/v1/settings/schema", h.SettingsSchema)
	mux.HandleFunc("GET /api/v1/repos/{id}/settings", h.GetSettings)
	mux.HandleFunc("PATCH /api/v1/repos/{id}/settings/{section}/{field}", h.SetSetting)
	mux.HandleFunc("POST /api/v1/repos/{id}/settings/save", h.SaveSettings)
	mux.HandleFunc("DELETE /api/v1/repos/{id}/settings", h.ResetSettings)
	mux.HandleFunc("POST /api/v1/review", h.Review)
}

// NewServeMux creates an http.Handler serving only the API, wrapped with
// the standard middleware chain.
func NewServeMux(h *Handler, opts MiddlewareOptions, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, opts, logger)
}

// session resolves the caller's session. A bearer header carries a backend
// credential directly and yields an in-memory session; otherwise the
// session cookie is looked up.
func (h *Handler) session(r *http.Request) (*application.Session, error) {
	if token, ok := bearerToken(r); ok {
		sum := sha256.Sum256([]byte(token))
		sess := application.NewSession("bearer-"+hex.EncodeToString(sum[:8]), nil)
		if err := sess.Start(r.Context(), application.UserFromToken(token), token); err != nil {
			return nil, err
		}
		return sess, nil
	}

	cookie, err := r.Cookie(application.SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, application.ErrAuthenticationMissing
	}
	return h.svc.Sessions.Get(r.Context(), cookie.Value)
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// repoID parses the {id} path value.
func repoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryInt returns the integer query parameter name, or def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// Health reports process and dependency health. It answers 503 when a
// required dependency is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.svc.Health.Check(r.Context())
	status := http.StatusOK
	if report.Status != application.HealthOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Me returns the signed-in user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	user, ok := sess.User()
	if !ok {
		h.writeServiceError(w, application.ErrAuthenticationMissing)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
