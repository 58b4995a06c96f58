package httphandler

import (
	"net/http"
	"time"

	"github.com/ericfisherdev/codeguardian/internal/application"
)

// dateLayout is the format of the from/to query parameters.
const dateLayout = "2006-01-02"

// ListRepos returns one page of the signed-in user's repositories, filtered
// by the optional q parameter.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	size, err := queryInt(r, "limit", application.DefaultPageSize)
	if err != nil || !application.ValidPageSize(size) {
		writeError(w, http.StatusBadRequest, "limit must be one of 5, 10, 20, 50")
		return
	}

	sess, err := h.session(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	listing, err := h.svc.Repos.List(r.Context(), sess, r.URL.Query().Get("q"), page, size)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRepositoryListResponse(listing))
}

// GetRepo returns one repository by id.
func (h *Handler) GetRepo(w http.ResponseWriter, r *http.Request) {
	id, ok := repoID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}
	sess, err := h.session(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	repo, err := h.svc.Repos.Find(r.Context(), sess, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRepositoryResponse(repo))
}

// ListPRs returns one server-side page of pull request summaries with the
// dashboard stat totals.
func (h *Handler) ListPRs(w http.ResponseWriter, r *http.Request) {
	q, err := parsePRQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.session(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	dash, err := h.svc.PRs.Fetch(r.Context(), sess, q)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPRDashboardResponse(dash))
}

func parsePRQuery(r *http.Request) (application.PRQuery, error) {
	var q application.PRQuery
	var err error

	if q.Page, err = queryInt(r, "page", 1); err != nil || q.Page < 1 {
		return q, errBadParam("page must be a positive integer")
	}
	if q.Limit, err = queryInt(r, "limit", application.DefaultPageSize); err != nil || !application.ValidPageSize(q.Limit) {
		return q, errBadParam("limit must be one of 5, 10, 20, 50")
	}
	q.Name = r.URL.Query().Get("name")

	if q.From, err = queryDate(r, "from"); err != nil {
		return q, errBadParam("from must be a date (YYYY-MM-DD)")
	}
	if q.To, err = queryDate(r, "to"); err != nil {
		return q, errBadParam("to must be a date (YYYY-MM-DD)")
	}
	return q, nil
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, raw)
}

type errBadParam string

func (e errBadParam) Error() string { return string(e) }
