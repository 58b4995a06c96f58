package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeguardian/internal/adapter/driven/backend"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *backend.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := backend.NewClient(server.URL, server.Client())
	require.NoError(t, err)
	return client
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := backend.NewClient("localhost:3000", nil)
	assert.Error(t, err)
}

func TestListRepositories_PaginationQueryAndBearer(t *testing.T) {
	var gotQuery, gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/repos", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"repositories":[{"id":11,"name":"r11","full_name":"acme/r11","description":null,"html_url":"https://github.com/acme/r11","owner":"acme","private":true}],"total":25,"totalPages":3}`)
	})
	client := newTestClient(t, mux)

	page, err := client.ListRepositories(context.Background(), "tok", driven.RepositoryListOptions{Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "limit=10&page=2", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Repositories, 1)
	repo := page.Repositories[0]
	assert.Equal(t, int64(11), repo.ID)
	assert.Nil(t, repo.Description)
	assert.True(t, repo.Private)
}

func TestListRepositories_NoParamsForFullCollection(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/repos", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{"repositories":[],"total":0}`)
	})
	client := newTestClient(t, mux)

	page, err := client.ListRepositories(context.Background(), "tok", driven.RepositoryListOptions{})
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
	assert.Empty(t, page.Repositories)
}

func TestListRepositories_InvalidStructure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/repos", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"items":[]}`)
	})
	client := newTestClient(t, mux)

	_, err := client.ListRepositories(context.Background(), "tok", driven.RepositoryListOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API response structure")
}

func TestListPullRequestSummaries_DatesAsUnixSeconds(t *testing.T) {
	var q map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pr-summary", func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		_, _ = io.WriteString(w, `{"data":[{"id":1,"user_id":2,"name":"api","url":"u","url_pull_request":"p","commits":3,"comments":4,"review_comments":5,"created_at":"2025-01-02T03:04:05Z","updated_at":"2025-01-03T03:04:05Z"}],"pagination":{"page":1,"limit":5,"total":1,"totalPages":1}}`)
	})
	client := newTestClient(t, mux)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	page, err := client.ListPullRequestSummaries(context.Background(), "tok", driven.PullRequestListOptions{
		Page: 1, Limit: 5, Name: "api", From: from,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, q["page"])
	assert.Equal(t, []string{"5"}, q["limit"])
	assert.Equal(t, []string{"api"}, q["name"])
	assert.Equal(t, []string{"1735689600"}, q["from_date"])
	assert.NotContains(t, q, "to_date")

	require.Len(t, page.Data, 1)
	pr := page.Data[0]
	assert.Equal(t, "p", pr.PullRequestURL)
	assert.Equal(t, 5, pr.ReviewComments)
	assert.Equal(t, 1, page.Pagination.TotalPages)
}

func TestGetSettingsSection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/repo-settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("type") {
		case "general":
			assert.Equal(t, "7", r.URL.Query().Get("repository_id"))
			_, _ = io.WriteString(w, `{"review_language":"fr"}`)
		default:
			http.NotFound(w, r)
		}
	})
	client := newTestClient(t, mux)

	raw, err := client.GetSettingsSection(context.Background(), "tok", 7, "general")
	require.NoError(t, err)
	assert.JSONEq(t, `{"review_language":"fr"}`, string(raw))

	_, err = client.GetSettingsSection(context.Background(), "tok", 7, "tools")
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestPutSettingsSection_Body(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/repo-settings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, mux)

	err := client.PutSettingsSection(context.Background(), "tok", 7, "chat", map[string]any{"auto_reply": true})
	require.NoError(t, err)

	assert.Equal(t, float64(7), body["repository_id"])
	assert.Equal(t, "chat", body["type"])
	assert.Equal(t, map[string]any{"auto_reply": true}, body["data"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, driven.ErrUnauthorized)
			assert.Equal(t, 401, driven.StatusCode(err))
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			var se *driven.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, 500, se.Status)
			assert.Equal(t, http.MethodPut, se.Method)
			assert.Contains(t, se.Body, "boom")
		}},
		{"conflict", http.StatusConflict, func(t *testing.T, err error) {
			assert.Equal(t, 409, driven.StatusCode(err))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("PUT /api/repo-settings", func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", tt.status)
			})
			client := newTestClient(t, mux)

			err := client.PutSettingsSection(context.Background(), "tok", 1, "general", map[string]any{})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestExchangeOAuthCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/github", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc", req["code"])
		_, _ = io.WriteString(w, `{"user":{"id":5,"username":"octo","email":"o@example.com","avatar_url":"https://a"},"token":"jwt"}`)
	})
	client := newTestClient(t, mux)

	user, token, err := client.ExchangeOAuthCode(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
	assert.Equal(t, int64(5), user.ID)
	assert.Equal(t, "octo", user.Username)
}

func TestExchangeOAuthCode_MissingToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/github", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"user":{"id":5}}`)
	})
	client := newTestClient(t, mux)

	_, _, err := client.ExchangeOAuthCode(context.Background(), "abc")
	assert.Error(t, err)
}
