package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/codeguardian/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/codeguardian/internal/application"
)

const dateLayout = "2006-01-02"

// Dashboard renders the PR activity dashboard. htmx requests from the
// filters and pager receive only the results fragment.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	q := prQueryFromRequest(r)
	dash, err := h.svc.PRs.Fetch(r.Context(), sess, q)
	if application.IsAuthError(err) {
		h.fail(w, r, err)
		return
	}
	v := toDashboardViewModel(q, dash, err)

	if isPartial(r) {
		h.render(w, r, http.StatusOK, templates.PRResults(v))
		return
	}
	h.page(w, r, sess, "Dashboard", "dashboard", templates.DashboardPage(v))
}

// prQueryFromRequest reads the dashboard query. Invalid values fall back to
// their defaults.
func prQueryFromRequest(r *http.Request) application.PRQuery {
	q := application.PRQuery{Page: 1, Limit: application.DefaultPageSize}
	v := r.URL.Query()

	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		q.Page = n
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && application.ValidPageSize(n) {
		q.Limit = n
	}
	q.Name = v.Get("name")
	if t, err := time.Parse(dateLayout, v.Get("from")); err == nil {
		q.From = t
	}
	if t, err := time.Parse(dateLayout, v.Get("to")); err == nil {
		q.To = t
	}
	return q
}

// Repos renders the repository list. The whole collection is fetched and
// filtered and paged locally.
func (h *Handler) Repos(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	v := r.URL.Query()
	filter := v.Get("q")
	page, _ := strconv.Atoi(v.Get("page"))
	size, err := strconv.Atoi(v.Get("limit"))
	if err != nil || !application.ValidPageSize(size) {
		size = application.DefaultPageSize
	}

	listing, err := h.svc.Repos.List(r.Context(), sess, filter, max(page, 1), size)
	if application.IsAuthError(err) {
		h.fail(w, r, err)
		return
	}
	list := toRepoListViewModel(filter, listing, size, err)

	if isPartial(r) {
		h.render(w, r, http.StatusOK, templates.RepoList(list))
		return
	}
	h.page(w, r, sess, "Repositories", "repos", templates.ReposPage(list))
}

// ReviewForm renders the code review page.
func (h *Handler) ReviewForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	h.page(w, r, sess, "Code Review", "review", templates.ReviewPage(vm.ReviewViewModel{
		Available: h.svc.Reviews.Available(),
		CanFetch:  h.svc.Reviews.CanFetchSource(),
	}))
}

// Review runs a review of the pasted code, or of the referenced repository
// file when one is given, and renders the result fragment.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSession(w, r); !ok {
		return
	}

	code := r.FormValue("code")
	source := r.FormValue("source")

	var (
		res application.ReviewResult
		err error
	)
	if source != "" {
		ref, perr := application.ParseSourceRef(source)
		if perr != nil {
			err = perr
		} else {
			res, err = h.svc.Reviews.ReviewSource(r.Context(), ref)
		}
	} else {
		res, err = h.svc.Reviews.Review(r.Context(), code)
	}

	h.render(w, r, http.StatusOK, templates.ReviewResult(toReviewViewModel(res, err)))
}

// Profile renders the signed-in user's details.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	h.page(w, r, sess, "Profile", "profile", templates.ProfilePage(toProfileViewModel(sess), h.csrfToken(w, r)))
}
