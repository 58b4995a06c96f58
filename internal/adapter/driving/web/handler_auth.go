package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/codeguardian/internal/application"
)

const (
	oauthStateCookie = "oauth_state"
	oauthCookiePath  = "/auth"
	oauthStateTTL    = 10 * time.Minute
)

var loginErrors = map[string]string{
	"state":    "Sign-in failed: the login request expired or did not match. Please try again.",
	"exchange": "Sign-in failed: the authorization code was not accepted.",
	"denied":   "Sign-in was cancelled on GitHub.",
	"session":  "Sign-in failed: could not start a session.",
}

// Login renders the sign-in page. Signed-in users go to the dashboard.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if _, err := h.currentSession(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	h.page(w, r, nil, "Sign in", "", templates.LoginPage(vm.LoginViewModel{
		Expired:    q.Get("expired") == "1",
		Error:      loginErrors[q.Get("error")],
		Configured: h.svc.Auth.Configured(),
	}))
}

// StartOAuth redirects to GitHub's authorization page with a fresh state
// value remembered in a short-lived cookie.
func (h *Handler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	target, err := h.svc.Auth.AuthorizeURL(state)
	if err != nil {
		h.logger.Warn("oauth sign-in requested but not configured", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.setCookie(w, oauthStateCookie, state, oauthCookiePath, oauthStateTTL)
	http.Redirect(w, r, target, http.StatusFound)
}

// OAuthCallback validates the state, exchanges the code with the backend
// and starts a session.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cookie, cookieErr := r.Cookie(oauthStateCookie)
	h.clearCookie(w, oauthStateCookie, oauthCookiePath)

	if q.Get("error") != "" {
		http.Redirect(w, r, "/login?error=denied", http.StatusSeeOther)
		return
	}
	if cookieErr != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		h.logger.Warn("oauth state mismatch")
		http.Redirect(w, r, "/login?error=state", http.StatusSeeOther)
		return
	}

	user, token, err := h.svc.Auth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		http.Redirect(w, r, "/login?error=exchange", http.StatusSeeOther)
		return
	}

	sess, err := h.svc.Sessions.Create(r.Context(), user, token)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		http.Redirect(w, r, "/login?error=session", http.StatusSeeOther)
		return
	}

	h.setCookie(w, application.SessionCookie, sess.ID(), "/", h.opts.SessionTTL)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout signs the session out, discarding unsaved settings edits.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(application.SessionCookie); err == nil && cookie.Value != "" {
		h.svc.Settings.Close(application.NewSession(cookie.Value, nil))
		if err := h.svc.Sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.Error("failed to destroy session", "error", err)
		}
	}
	h.clearCookie(w, application.SessionCookie, "/")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
