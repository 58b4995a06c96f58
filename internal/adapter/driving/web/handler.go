// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/codeguardian/internal/application"
)

// Services bundles the application services the GUI uses.
type Services struct {
	Sessions *application.SessionManager
	Auth     *application.AuthService
	Repos    *application.RepositoryService
	PRs      *application.PRService
	Settings *application.SettingsFlow
	Reviews  *application.ReviewService
}

// Options configures cookie behaviour.
type Options struct {
	// SecureCookies marks cookies Secure; set when served over HTTPS.
	SecureCookies bool
	// SessionTTL is the lifetime of the session cookie.
	SessionTTL time.Duration
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	svc    Services
	opts   Options
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(svc Services, opts Options, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, opts: opts, logger: logger}
}

// isPartial reports whether r is an htmx request for a page fragment.
// History restores need the full page.
func isPartial(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-History-Restore-Request") != "true"
}

// currentSession resolves the session cookie to a signed-in session.
func (h *Handler) currentSession(r *http.Request) (*application.Session, error) {
	cookie, err := r.Cookie(application.SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, application.ErrAuthenticationMissing
	}
	sess, err := h.svc.Sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, application.ErrAuthenticationMissing
	}
	return sess, nil
}

// requireSession returns the signed-in session or answers the request with
// a redirect to the sign-in page.
func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) (*application.Session, bool) {
	sess, err := h.currentSession(r)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return sess, true
}

// fail answers r with err. Authentication errors redirect to the sign-in
// page; anything else renders an error page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrSessionExpired):
		h.clearCookie(w, application.SessionCookie, "/")
		h.redirect(w, r, "/login?expired=1")
	case errors.Is(err, application.ErrAuthenticationMissing):
		h.redirect(w, r, "/login")
	case errors.Is(err, application.ErrRepositoryNotFound):
		h.render(w, r, http.StatusNotFound, templates.ErrorPage(vm.ErrorViewModel{Status: http.StatusNotFound, Message: "Repository not found."}))
	default:
		h.logger.Error("web request failed", "path", r.URL.Path, "error", err)
		h.render(w, r, http.StatusBadGateway, templates.ErrorPage(vm.ErrorViewModel{Status: http.StatusBadGateway, Message: errorMessage(err)}))
	}
}

// redirect sends the browser to target. htmx requests get an HX-Redirect
// header so the whole page navigates instead of the swap target.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render component", "path", r.URL.Path, "error", err)
	}
}

// page renders body inside the layout for sess.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, sess *application.Session, title, active string, body templ.Component) {
	nav := vm.NavViewModel{Title: title, Active: active, CSRFToken: h.csrfToken(w, r)}
	if sess != nil {
		if u, ok := sess.User(); ok {
			nav.Username = u.Username
			nav.AvatarURL = u.AvatarURL
			if nav.Username == "" {
				nav.Username = "Signed in"
			}
		}
	}
	h.render(w, r, http.StatusOK, templates.Layout(nav, body))
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value, path string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.opts.SecureCookies,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.opts.SecureCookies,
	})
}

func repoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// errorMessage turns an application error into text for an inline panel.
func errorMessage(err error) string {
	var (
		loadErr *application.LoadError
		saveErr *application.SaveError
	)
	switch {
	case errors.As(err, &loadErr):
		return "Failed to load settings: " + loadErr.Error()
	case errors.As(err, &saveErr):
		return "Failed to save settings: " + saveErr.Error()
	case errors.Is(err, application.ErrSuperseded):
		return "These settings were replaced by a newer request. Reload the page."
	default:
		return err.Error()
	}
}
