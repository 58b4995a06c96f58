package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/codeguardian/internal/adapter/driving/http"
	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// --- Mock implementations ---

type fakeBackend struct {
	mu       sync.Mutex
	repos    []model.Repository
	prPage   model.PullRequestPage
	prOpts   driven.PullRequestListOptions
	getErr   error
	putErr   map[string]error
	puts     map[string]map[string]any
	tokens   []string
	settings map[string]json.RawMessage
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		putErr:   make(map[string]error),
		puts:     make(map[string]map[string]any),
		settings: make(map[string]json.RawMessage),
	}
}

func (f *fakeBackend) record(token string) {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
}

func (f *fakeBackend) ListRepositories(_ context.Context, token string, _ driven.RepositoryListOptions) (model.RepositoryPage, error) {
	f.record(token)
	return model.RepositoryPage{Repositories: f.repos, Total: len(f.repos)}, nil
}

func (f *fakeBackend) ListPullRequestSummaries(_ context.Context, token string, opts driven.PullRequestListOptions) (model.PullRequestPage, error) {
	f.record(token)
	f.mu.Lock()
	f.prOpts = opts
	f.mu.Unlock()
	return f.prPage, nil
}

func (f *fakeBackend) GetSettingsSection(_ context.Context, token string, _ int64, section string) (json.RawMessage, error) {
	f.record(token)
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if raw, ok := f.settings[section]; ok {
		return raw, nil
	}
	return nil, driven.ErrNotFound
}

func (f *fakeBackend) PutSettingsSection(_ context.Context, token string, _ int64, section string, data map[string]any) error {
	f.record(token)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.putErr[section]; err != nil {
		return err
	}
	f.puts[section] = data
	return nil
}

func (f *fakeBackend) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func (m *memSessionStore) Save(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memSessionStore) Load(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

type fakeReviewer struct {
	text string
	err  error
}

func (f *fakeReviewer) Review(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

// --- Helpers ---

type testEnv struct {
	backend  *fakeBackend
	sessions *application.SessionManager
	reviewer *fakeReviewer
	handler  http.Handler
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := newFakeBackend()
	sessions := application.NewSessionManager(&memSessionStore{sessions: make(map[string]model.Session)}, 0)
	reviewer := &fakeReviewer{text: "## Overall Summary\n\nLooks fine."}
	logger := slog.Default()

	svc := httphandler.Services{
		Sessions: sessions,
		Repos:    application.NewRepositoryService(backend, logger),
		PRs:      application.NewPRService(backend, logger),
		Settings: application.NewSettingsFlow(application.NewSettingsService(backend, logger), application.NewWorkspaces(), logger),
		Reviews:  application.NewReviewService(reviewer, nil, logger),
		Health:   application.NewHealthService(nil, true, false),
	}
	h := httphandler.NewHandler(svc, logger)

	return &testEnv{
		backend:  backend,
		sessions: sessions,
		reviewer: reviewer,
		handler:  httphandler.NewServeMux(h, httphandler.MiddlewareOptions{}, logger),
	}
}

// signIn creates a browser session and returns its cookie.
func (e *testEnv) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	sess, err := e.sessions.Create(context.Background(), model.User{ID: 7, Username: "octocat"}, "backend-token")
	require.NoError(t, err)
	return &http.Cookie{Name: application.SessionCookie, Value: sess.ID()}
}

func (e *testEnv) do(t *testing.T, method, path, body string, auth func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != nil {
		auth(req)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func reposNamed(names ...string) []model.Repository {
	out := make([]model.Repository, len(names))
	for i, n := range names {
		out[i] = model.Repository{ID: int64(i + 1), Name: n, FullName: "acme/" + n}
	}
	return out
}

// --- Tests ---

func TestHealth(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	var report application.HealthReport
	decodeJSON(t, rec, &report)
	assert.Equal(t, application.HealthOK, report.Status)
}

func TestMe(t *testing.T) {
	env := setupEnv(t)

	t.Run("signed out", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown cookie", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/me", "", withCookie(&http.Cookie{Name: application.SessionCookie, Value: "nope"}))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("signed in", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/me", "", withCookie(env.signIn(t)))
		require.Equal(t, http.StatusOK, rec.Code)
		var user httphandler.UserResponse
		decodeJSON(t, rec, &user)
		assert.Equal(t, "octocat", user.Username)
		assert.Equal(t, int64(7), user.ID)
	})
}

func TestListRepos(t *testing.T) {
	env := setupEnv(t)
	names := make([]string, 25)
	for i := range names {
		names[i] = "repo-" + strconv.Itoa(i+1)
	}
	env.backend.repos = reposNamed(names...)
	cookie := env.signIn(t)

	t.Run("second page", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/repos?page=2&limit=10", "", withCookie(cookie))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp httphandler.RepositoryListResponse
		decodeJSON(t, rec, &resp)
		require.Len(t, resp.Repositories, 10)
		assert.Equal(t, int64(11), resp.Repositories[0].ID)
		assert.Equal(t, 3, resp.Pagination.TotalPages)
		assert.Equal(t, 25, resp.Pagination.Total)
	})

	t.Run("filtered", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/repos?q=REPO-2", "", withCookie(cookie))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp httphandler.RepositoryListResponse
		decodeJSON(t, rec, &resp)
		// repo-2 and repo-20..25
		assert.Equal(t, 7, resp.Pagination.Total)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/repos?limit=7", "", withCookie(cookie))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bearer token is forwarded", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/repos", "", withBearer("direct-token"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, env.backend.tokens, "direct-token")
	})
}

func TestGetRepo_NotFound(t *testing.T) {
	env := setupEnv(t)
	env.backend.repos = reposNamed("a")

	rec := env.do(t, http.MethodGet, "/api/v1/repos/99", "", withCookie(env.signIn(t)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPRs(t *testing.T) {
	env := setupEnv(t)
	env.backend.prPage = model.PullRequestPage{
		Data: []model.PullRequestSummary{
			{ID: 1, Name: "api", Commits: 3, Comments: 2, ReviewComments: 1},
			{ID: 2, Name: "web", Commits: 4, Comments: 0, ReviewComments: 5},
		},
		Pagination: model.Pagination{Page: 1, Limit: 10, Total: 42},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/prs?name=api&from=2025-01-01&limit=20", "", withCookie(env.signIn(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httphandler.PRDashboardResponse
	decodeJSON(t, rec, &resp)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 42, resp.Totals.PullRequests)
	assert.Equal(t, 7, resp.Totals.Commits)
	assert.Equal(t, 6, resp.Totals.ReviewComments)
	assert.Equal(t, 3, resp.Pagination.TotalPages)

	assert.Equal(t, "api", env.backend.prOpts.Name)
	assert.Equal(t, 20, env.backend.prOpts.Limit)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), env.backend.prOpts.From)
}

func TestListPRs_BadDate(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/prs?from=yesterday", "", withCookie(env.signIn(t)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsSchema(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/settings/schema", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []httphandler.SectionSchemaResponse
	decodeJSON(t, rec, &resp)
	require.Len(t, resp, 8)
	assert.Equal(t, "general", resp[0].Section)
	assert.Equal(t, "review_language", resp[0].Fields[0].Name)
}

func TestGetSettings(t *testing.T) {
	env := setupEnv(t)
	env.backend.settings["general"] = json.RawMessage(`{"id":3,"review_language":"fr","early_access":true}`)

	rec := env.do(t, http.MethodGet, "/api/v1/repos/12/settings", "", withCookie(env.signIn(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httphandler.SettingsResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, int64(12), resp.RepositoryID)
	assert.False(t, resp.Dirty)
	require.Len(t, resp.Sections, 8)
	assert.Equal(t, "fr", resp.Sections["general"]["review_language"])
	assert.Equal(t, true, resp.Sections["general"]["early_access"])
	assert.NotContains(t, resp.Sections["general"], "id")
	assert.Equal(t, true, resp.Sections["auto_review"]["automatic_review"])
}

func TestGetSettings_Errors(t *testing.T) {
	tests := []struct {
		name       string
		getErr     error
		wantStatus int
		wantBody   string
	}{
		{"unauthorized", driven.ErrUnauthorized, http.StatusUnauthorized, "session has expired"},
		{"backend failure", &driven.StatusError{Method: "GET", Path: "/api/repo-settings", Status: 500}, http.StatusBadGateway, `"status":500`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			env.backend.getErr = tt.getErr

			rec := env.do(t, http.MethodGet, "/api/v1/repos/1/settings", "", withCookie(env.signIn(t)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestSetSetting(t *testing.T) {
	env := setupEnv(t)
	cookie := env.signIn(t)

	t.Run("valid value marks dirty", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/api/v1/repos/5/settings/tools/timeout_ms", `{"value": 1000}`, withCookie(cookie))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp httphandler.SettingsResponse
		decodeJSON(t, rec, &resp)
		assert.True(t, resp.Dirty)
		assert.EqualValues(t, 1000, resp.Sections["tools"]["timeout_ms"])
	})

	t.Run("null clears nullable field", func(t *testing.T) {
		rec := env.do(t, http.MethodPatch, "/api/v1/repos/5/settings/general/tone_instructions", `{"value": "be brief"}`, withCookie(cookie))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPatch, "/api/v1/repos/5/settings/general/tone_instructions", `{"value": null}`, withCookie(cookie))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp httphandler.SettingsResponse
		decodeJSON(t, rec, &resp)
		assert.Contains(t, resp.Sections["general"], "tone_instructions")
		assert.Nil(t, resp.Sections["general"]["tone_instructions"])
	})

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"wrong kind", "/api/v1/repos/5/settings/chat/auto_reply", `{"value": "yes"}`, http.StatusUnprocessableEntity},
		{"bad enum", "/api/v1/repos/5/settings/review/profile", `{"value": "strict"}`, http.StatusUnprocessableEntity},
		{"unknown section", "/api/v1/repos/5/settings/billing/plan", `{"value": 1}`, http.StatusNotFound},
		{"unknown field", "/api/v1/repos/5/settings/chat/nope", `{"value": true}`, http.StatusNotFound},
		{"bad body", "/api/v1/repos/5/settings/chat/auto_reply", `true`, http.StatusBadRequest},
		{"missing value", "/api/v1/repos/5/settings/chat/auto_reply", `{}`, http.StatusBadRequest},
		{"bad id", "/api/v1/repos/abc/settings/chat/auto_reply", `{"value": true}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPatch, tt.path, tt.body, withCookie(cookie))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestSaveSettings(t *testing.T) {
	env := setupEnv(t)
	cookie := env.signIn(t)

	rec := env.do(t, http.MethodPatch, "/api/v1/repos/5/settings/general/review_language", `{"value": "de"}`, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/repos/5/settings/save", "", withCookie(cookie))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httphandler.SettingsResponse
	decodeJSON(t, rec, &resp)
	assert.False(t, resp.Dirty)
	assert.True(t, resp.Saved)
	assert.Equal(t, 8, env.backend.putCount())
	assert.Equal(t, "de", env.backend.puts["general"]["review_language"])
}

func TestSaveSettings_PartialFailure(t *testing.T) {
	env := setupEnv(t)
	env.backend.putErr["chat"] = &driven.StatusError{Method: "PUT", Path: "/api/repo-settings", Status: 500}
	cookie := env.signIn(t)

	rec := env.do(t, http.MethodGet, "/api/v1/repos/5/settings", "", withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/repos/5/settings/save", "", withCookie(cookie))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]any
	decodeJSON(t, rec, &body)
	assert.Equal(t, "chat", body["section"])
	assert.EqualValues(t, 500, body["status"])
	assert.Len(t, body["saved_sections"], 7)
}

func TestSaveSettings_NothingOpen(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/repos/5/settings/save", "", withCookie(env.signIn(t)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResetSettings(t *testing.T) {
	env := setupEnv(t)
	env.backend.settings["general"] = json.RawMessage(`{"review_language":"ja"}`)

	rec := env.do(t, http.MethodDelete, "/api/v1/repos/5/settings", "", withCookie(env.signIn(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", env.backend.puts["general"]["review_language"])
	assert.Equal(t, 8, env.backend.putCount())
}

func TestReview(t *testing.T) {
	env := setupEnv(t)

	t.Run("success", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/review", `{"code":"func main() {}"}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp httphandler.ReviewResponse
		decodeJSON(t, rec, &resp)
		assert.Equal(t, []string{"Overall Summary"}, resp.Headings)
		assert.Contains(t, resp.HTML, "<h2")
	})

	t.Run("blank code", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/review", `{"code":"   "}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "please enter some code to review")
	})

	t.Run("source without fetcher", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/review", `{"source":"acme/api/main.go"}`, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("reviewer failure", func(t *testing.T) {
		env.reviewer.err = errors.New("quota exceeded")
		defer func() { env.reviewer.err = nil }()

		rec := env.do(t, http.MethodPost, "/api/v1/review", `{"code":"x := 1"}`, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestApplyMiddleware_RecoversPanics(t *testing.T) {
	h := httphandler.ApplyMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), httphandler.MiddlewareOptions{}, slog.Default())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestApplyMiddleware_CORS(t *testing.T) {
	h := httphandler.ApplyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), httphandler.MiddlewareOptions{AllowedOrigins: []string{"https://app.example.com"}}, slog.Default())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/repos", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplyMiddleware_EchoesRequestID(t *testing.T) {
	h := httphandler.ApplyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), httphandler.MiddlewareOptions{}, slog.Default())

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("forwarded from client", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
	})
}
