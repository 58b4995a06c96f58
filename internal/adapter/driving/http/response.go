package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body. Section and Status are
// set for settings load and save failures.
type errorResponse struct {
	Error   string   `json:"error"`
	Section string   `json:"section,omitempty"`
	Status  int      `json:"status,omitempty"`
	Failed  []string `json:"failed_sections,omitempty"`
	Landed  []string `json:"saved_sections,omitempty"`
}

// writeServiceError maps an application error onto an HTTP status.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		loadErr   *application.LoadError
		saveErr   *application.SaveError
		statusErr *driven.StatusError
	)

	switch {
	case application.IsAuthError(err):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &loadErr):
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   err.Error(),
			Section: string(loadErr.Section),
			Status:  loadErr.Status,
		})
	case errors.As(err, &saveErr):
		resp := errorResponse{Error: err.Error(), Failed: sectionNames(saveErr.Sections()), Landed: sectionNames(saveErr.Landed)}
		if len(saveErr.Failures) > 0 {
			resp.Section = string(saveErr.Failures[0].Section)
			resp.Status = saveErr.Failures[0].Status
		}
		writeJSON(w, http.StatusBadGateway, resp)
	case errors.Is(err, settings.ErrUnknownSection), errors.Is(err, settings.ErrUnknownField),
		errors.Is(err, application.ErrRepositoryNotFound), errors.Is(err, driven.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, settings.ErrInvalidValue):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, application.ErrNoWorkspace), errors.Is(err, application.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, application.ErrEmptyCode), errors.Is(err, application.ErrInvalidSourceRef):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrReviewUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &statusErr):
		h.logger.Error("backend request failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "backend request failed", Status: statusErr.Status})
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func sectionNames(ss []settings.Section) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// UserResponse is the JSON representation of the signed-in user.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, AvatarURL: u.AvatarURL}
}

// RepositoryResponse is the JSON representation of a repository.
type RepositoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Owner       string `json:"owner"`
	Private     bool   `json:"private"`
}

func toRepositoryResponse(r model.Repository) RepositoryResponse {
	return RepositoryResponse{
		ID:          r.ID,
		Name:        r.Name,
		FullName:    r.FullName,
		Description: r.DescriptionOr(""),
		HTMLURL:     r.HTMLURL,
		Owner:       r.Owner,
		Private:     r.Private,
	}
}

// PaginationResponse describes the returned page.
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int   `json:"total"`
	TotalPages int   `json:"total_pages"`
	Pages      []int `json:"pages"` // Page links; 0 marks an ellipsis.
}

func toPagination(page, limit, total, totalPages int, links []application.PageLink) PaginationResponse {
	pages := make([]int, len(links))
	for i, l := range links {
		if !l.Ellipsis {
			pages[i] = l.Number
		}
	}
	return PaginationResponse{Page: page, Limit: limit, Total: total, TotalPages: totalPages, Pages: pages}
}

// RepositoryListResponse is one page of repositories.
type RepositoryListResponse struct {
	Repositories []RepositoryResponse `json:"repositories"`
	Pagination   PaginationResponse   `json:"pagination"`
}

func toRepositoryListResponse(l application.RepositoryListing) RepositoryListResponse {
	repos := make([]RepositoryResponse, 0, len(l.Repositories))
	for _, r := range l.Repositories {
		repos = append(repos, toRepositoryResponse(r))
	}
	return RepositoryListResponse{
		Repositories: repos,
		Pagination:   toPagination(l.Page, l.PageSize, l.Total, l.TotalPages, l.Links),
	}
}

// PRSummaryResponse is the JSON representation of a pull request summary.
type PRSummaryResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	URL            string `json:"url"`
	PullRequestURL string `json:"url_pull_request"`
	Commits        int    `json:"commits"`
	Comments       int    `json:"comments"`
	ReviewComments int    `json:"review_comments"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// TotalsResponse holds the dashboard stat cards.
type TotalsResponse struct {
	PullRequests   int `json:"pull_requests"`
	Commits        int `json:"commits"`
	Comments       int `json:"comments"`
	ReviewComments int `json:"review_comments"`
}

// PRDashboardResponse is one page of the PR dashboard.
type PRDashboardResponse struct {
	Data       []PRSummaryResponse `json:"data"`
	Totals     TotalsResponse      `json:"totals"`
	Pagination PaginationResponse  `json:"pagination"`
}

func toPRDashboardResponse(d application.PRDashboard) PRDashboardResponse {
	data := make([]PRSummaryResponse, 0, len(d.Page.Data))
	for _, s := range d.Page.Data {
		data = append(data, PRSummaryResponse{
			ID:             s.ID,
			Name:           s.Name,
			URL:            s.URL,
			PullRequestURL: s.PullRequestURL,
			Commits:        s.Commits,
			Comments:       s.Comments,
			ReviewComments: s.ReviewComments,
			CreatedAt:      formatTime(s.CreatedAt),
			UpdatedAt:      formatTime(s.UpdatedAt),
		})
	}
	p := d.Page.Pagination
	return PRDashboardResponse{
		Data: data,
		Totals: TotalsResponse{
			PullRequests:   d.Totals.PullRequests,
			Commits:        d.Totals.Commits,
			Comments:       d.Totals.Comments,
			ReviewComments: d.Totals.ReviewComments,
		},
		Pagination: toPagination(p.Page, p.Limit, p.Total, p.TotalPages, d.Links),
	}
}

// SettingsResponse is the open settings of a repository.
type SettingsResponse struct {
	RepositoryID int64                     `json:"repository_id"`
	Dirty        bool                      `json:"dirty"`
	Saved        bool                      `json:"saved"` // Within the saved-indicator window.
	Sections     map[string]map[string]any `json:"sections"`
}

func toSettingsResponse(ed *settings.Editor) SettingsResponse {
	agg := ed.Snapshot()
	sections := make(map[string]map[string]any, len(agg))
	for _, s := range settings.Sections() {
		sections[string(s)] = settings.EncodeSection(s, agg[s])
	}
	return SettingsResponse{
		RepositoryID: ed.RepositoryID(),
		Dirty:        ed.Dirty(),
		Saved:        ed.ShowSaved(time.Now()),
		Sections:     sections,
	}
}

// FieldResponse describes one settings field.
type FieldResponse struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Enum        string   `json:"enum,omitempty"`
	Options     []string `json:"options,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Default     any      `json:"default"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Group       string   `json:"group,omitempty"`
}

// SectionSchemaResponse describes one settings section.
type SectionSchemaResponse struct {
	Section     string          `json:"section"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Fields      []FieldResponse `json:"fields"`
}

func toSchemaResponse() []SectionSchemaResponse {
	out := make([]SectionSchemaResponse, 0, len(settings.Sections()))
	for _, s := range settings.Sections() {
		schema := settings.Schema(s)
		fields := make([]FieldResponse, 0, len(schema))
		for _, f := range schema {
			fields = append(fields, FieldResponse{
				Name:        f.Name,
				Kind:        f.Kind.String(),
				Enum:        string(f.Enum),
				Options:     f.Options,
				Suggestions: f.Suggestions,
				Default:     f.Default,
				Label:       f.Label,
				Description: f.Description,
				Placeholder: f.Placeholder,
				Group:       f.Group,
			})
		}
		out = append(out, SectionSchemaResponse{
			Section:     string(s),
			Title:       s.Title(),
			Description: s.Description(),
			Fields:      fields,
		})
	}
	return out
}

// ReviewResponse is a finished code review.
type ReviewResponse struct {
	Markdown string   `json:"markdown"`
	HTML     string   `json:"html"`
	Headings []string `json:"headings"`
	Source   string   `json:"source,omitempty"`
}

func toReviewResponse(r application.ReviewResult) ReviewResponse {
	resp := ReviewResponse{Markdown: r.Markdown, HTML: r.HTML, Headings: r.Document.Headings()}
	if resp.Headings == nil {
		resp.Headings = []string{}
	}
	if r.Source != nil {
		resp.Source = r.Source.String()
	}
	return resp
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
