package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/codeguardian/internal/adapter/driving/cli"
	"github.com/ericfisherdev/codeguardian/internal/application"
	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

// --- Mock implementations ---

type fakeBackend struct {
	mu       sync.Mutex
	repos    []model.Repository
	prTotal  int
	prPages  []int
	stored   map[string]json.RawMessage
	puts     map[string]map[string]any
	putErr   map[string]error
	codeSeen string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		stored: make(map[string]json.RawMessage),
		puts:   make(map[string]map[string]any),
		putErr: make(map[string]error),
	}
}

func (f *fakeBackend) ListRepositories(context.Context, string, driven.RepositoryListOptions) (model.RepositoryPage, error) {
	return model.RepositoryPage{Repositories: f.repos, Total: len(f.repos)}, nil
}

func (f *fakeBackend) ListPullRequestSummaries(_ context.Context, _ string, opts driven.PullRequestListOptions) (model.PullRequestPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prPages = append(f.prPages, opts.Page)
	return model.PullRequestPage{
		Data:       []model.PullRequestSummary{{ID: int64(opts.Page), Name: "payments-api", Commits: 2, Comments: 1}},
		Pagination: model.Pagination{Page: opts.Page, Limit: opts.Limit, Total: f.prTotal},
	}, nil
}

func (f *fakeBackend) requestedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.prPages...)
}

func (f *fakeBackend) GetSettingsSection(_ context.Context, _ string, _ int64, section string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if raw, ok := f.stored[section]; ok {
		return raw, nil
	}
	return nil, driven.ErrNotFound
}

func (f *fakeBackend) PutSettingsSection(_ context.Context, _ string, _ int64, section string, data map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.putErr[section]; err != nil {
		return err
	}
	f.puts[section] = data
	return nil
}

func (f *fakeBackend) ExchangeOAuthCode(_ context.Context, code string) (model.User, string, error) {
	f.codeSeen = code
	return model.User{ID: 9, Username: "octocat"}, "token-" + code, nil
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

type fakeReviewer struct{ got string }

func (f *fakeReviewer) Review(_ context.Context, code string) (string, error) {
	f.got = code
	return "## Overall Summary\n\nLooks **fine**.", nil
}

// --- Helpers ---

type testEnv struct {
	backend  *fakeBackend
	store    *memSessionStore
	reviewer *fakeReviewer
	svc      *cli.Services
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.Default()
	backend := newFakeBackend()
	store := &memSessionStore{sessions: make(map[string]model.Session)}
	reviewer := &fakeReviewer{}

	svc := &cli.Services{
		Session:  application.NewSession("default", store),
		Auth:     application.NewAuthService(backend, "client-123", "user:email", "", logger),
		Repos:    application.NewRepositoryService(backend, logger),
		PRs:      application.NewPRService(backend, logger),
		Settings: application.NewSettingsFlow(application.NewSettingsService(backend, logger), application.NewWorkspaces(), logger),
		Reviews:  application.NewReviewService(reviewer, nil, logger),
	}
	return &testEnv{backend: backend, store: store, reviewer: reviewer, svc: svc}
}

func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, e.svc.Session.Start(context.Background(), model.User{ID: 1, Username: "octocat"}, "backend-token"))
}

// run executes guardianctl with args and returns stdout, stderr and the
// command error.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	factory := func(context.Context, string) (*cli.Services, error) { return e.svc, nil }
	root := cli.NewRootCommand(factory, "test", cli.WithSearchDelay(time.Second))

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// --- Tests ---

func TestLogin_PrintsAuthorizeURL(t *testing.T) {
	env := setupEnv(t)

	out, _, err := env.run(t, "", "login")

	require.NoError(t, err)
	assert.Contains(t, out, "https://github.com/login/oauth/authorize?")
	assert.Contains(t, out, "client_id=client-123")
	assert.False(t, env.svc.Session.Authenticated())
}

func TestLogin_Code(t *testing.T) {
	env := setupEnv(t)

	out, _, err := env.run(t, "", "login", "--code", "abc")

	require.NoError(t, err)
	assert.Equal(t, "abc", env.backend.codeSeen)
	assert.Contains(t, out, "octocat")

	stored, err := env.store.Load(context.Background(), "default")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "token-abc", stored.Token)
}

func TestLogin_Token(t *testing.T) {
	env := setupEnv(t)

	t.Run("reads identity from claims", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"id": 42, "username": "hubot", "exp": time.Now().Add(time.Hour).Unix()})

		_, _, err := env.run(t, "", "login", "--token", token)
		require.NoError(t, err)

		out, _, err := env.run(t, "", "whoami", "--json")
		require.NoError(t, err)
		var user map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &user))
		assert.Equal(t, "hubot", user["username"])
		assert.EqualValues(t, 42, user["id"])
	})

	t.Run("rejects an expired credential", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"id": 42, "exp": time.Now().Add(-time.Hour).Unix()})

		_, _, err := env.run(t, "", "login", "--token", token)

		require.ErrorIs(t, err, application.ErrSessionExpired)
		assert.False(t, env.svc.Session.Authenticated())
	})
}

func TestWhoami_SignedOut(t *testing.T) {
	env := setupEnv(t)

	_, _, err := env.run(t, "", "whoami")

	assert.ErrorIs(t, err, application.ErrAuthenticationMissing)
}

func TestLogout(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)

	out, _, err := env.run(t, "", "logout")

	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
	stored, err := env.store.Load(context.Background(), "default")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRepos(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)
	for i := 1; i <= 12; i++ {
		env.backend.repos = append(env.backend.repos, model.Repository{ID: int64(i), Name: "svc", FullName: "acme/svc-" + string(rune('a'+i-1))})
	}
	env.backend.repos = append(env.backend.repos, model.Repository{ID: 99, Name: "docs", FullName: "acme/docs"})

	t.Run("filter and page", func(t *testing.T) {
		out, _, err := env.run(t, "", "repos", "--filter", "SVC", "--page", "2", "--json")
		require.NoError(t, err)

		var list struct {
			Repositories []struct {
				ID int64 `json:"id"`
			} `json:"repositories"`
			Total      int `json:"total"`
			Page       int `json:"page"`
			TotalPages int `json:"total_pages"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &list))
		assert.Equal(t, 12, list.Total)
		assert.Equal(t, 2, list.Page)
		assert.Equal(t, 2, list.TotalPages)
		require.Len(t, list.Repositories, 2)
		assert.Equal(t, int64(11), list.Repositories[0].ID)
	})

	t.Run("text", func(t *testing.T) {
		out, _, err := env.run(t, "", "repos", "--filter", "docs")
		require.NoError(t, err)
		assert.Contains(t, out, "acme/docs")
		assert.Contains(t, out, "Page 1/1 (1 repositories)")
	})

	t.Run("invalid page size", func(t *testing.T) {
		_, _, err := env.run(t, "", "repos", "--limit", "7")
		assert.ErrorContains(t, err, "--limit must be one of 5, 10, 20, 50")
	})
}

func TestPRs(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)
	env.backend.prTotal = 31

	out, _, err := env.run(t, "", "prs", "--page", "2")

	require.NoError(t, err)
	assert.Contains(t, out, "Pull requests: 31")
	assert.Contains(t, out, "payments-api")
	assert.Contains(t, out, "Page 2/4 (31 pull requests)  1 [2] 3 4")
	assert.Equal(t, []int{2}, env.backend.requestedPages())
}

func TestPRs_BadDate(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)

	_, _, err := env.run(t, "", "prs", "--from", "03/01/2024")

	assert.ErrorContains(t, err, "want YYYY-MM-DD")
}

func TestPRs_Interactive(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)
	env.backend.prTotal = 31

	out, _, err := env.run(t, "n\ng 4\nn\ng 9\nbogus\nq\n", "prs", "--interactive")

	require.NoError(t, err)
	// Moving past the last page and out-of-range jumps do not fetch.
	assert.Equal(t, []int{1, 2, 4}, env.backend.requestedPages())
	assert.Contains(t, out, "Page 4/4")
	assert.Contains(t, out, `Unknown command "bogus"`)
}

func TestPRs_InteractiveNameFilter(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)
	env.backend.prTotal = 31

	_, _, err := env.run(t, "g 3\nname pay\nname payments\n", "prs", "--interactive")

	require.NoError(t, err)
	// The debounced filter is still pending at EOF and is cancelled.
	assert.Equal(t, []int{1, 3}, env.backend.requestedPages())
}

func TestSettingsShow(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)
	env.backend.stored["chat"] = json.RawMessage(`{"id": 5, "auto_reply": false, "jira": "ENABLED"}`)

	out, _, err := env.run(t, "", "settings", "show", "4", "--section", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "Chat (chat)")
	assert.Regexp(t, `auto_reply\s+false`, out)
	assert.Regexp(t, `jira\s+ENABLED`, out)
	assert.NotContains(t, out, "General")
}

func TestSettingsSet(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)

	t.Run("saves every section", func(t *testing.T) {
		out, _, err := env.run(t, "", "settings", "set", "4", "chat", "auto_reply", "false")

		require.NoError(t, err)
		assert.Contains(t, out, "Saved chat.auto_reply = false")
		assert.Len(t, env.backend.puts, len(settings.Sections()))
		assert.Equal(t, false, env.backend.puts["chat"]["auto_reply"])
	})

	t.Run("invalid value", func(t *testing.T) {
		_, _, err := env.run(t, "", "settings", "set", "4", "chat", "jira", "sometimes")
		assert.ErrorIs(t, err, settings.ErrInvalidValue)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, _, err := env.run(t, "", "settings", "set", "4", "chat", "nope", "1")
		assert.ErrorIs(t, err, settings.ErrUnknownField)
	})

	t.Run("partial failure", func(t *testing.T) {
		env.backend.putErr["tools"] = &driven.StatusError{Method: "PUT", Path: "/api/repo-settings", Status: 500}
		defer delete(env.backend.putErr, "tools")

		_, stderr, err := env.run(t, "", "settings", "set", "4", "chat", "auto_reply", "true")

		var saveErr *application.SaveError
		require.ErrorAs(t, err, &saveErr)
		assert.Contains(t, stderr, "failed: tools")
		assert.Contains(t, stderr, "saved:  chat")
	})
}

func TestSettingsExportImport(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)

	out, _, err := env.run(t, "", "settings", "export", "4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "general:"), "sections are written in tab order")
	assert.Contains(t, out, "auto_reply: true")

	edited := strings.Replace(out, "auto_reply: true", "auto_reply: false", 1)
	_, _, err = env.run(t, edited, "settings", "import", "4", "-")
	require.NoError(t, err)
	assert.Equal(t, false, env.backend.puts["chat"]["auto_reply"])
}

func TestImportYAML(t *testing.T) {
	base := settings.Defaults()

	t.Run("overlays sections present in the file", func(t *testing.T) {
		base := base.Clone()
		base[settings.General]["review_language"] = "de"

		agg, err := cli.ImportYAML(base, []byte("chat:\n  auto_reply: false\n  id: 12\n"))

		require.NoError(t, err)
		assert.Equal(t, false, agg[settings.Chat]["auto_reply"])
		assert.Equal(t, "de", agg[settings.General]["review_language"])
		assert.NotContains(t, agg[settings.Chat], "id")
	})

	t.Run("unknown section", func(t *testing.T) {
		_, err := cli.ImportYAML(base, []byte("bogus:\n  a: 1\n"))
		assert.ErrorIs(t, err, settings.ErrUnknownSection)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := cli.ImportYAML(base, []byte("chat:\n  a: 1\n"))
		assert.ErrorIs(t, err, settings.ErrUnknownField)
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := cli.ImportYAML(base, []byte("chat:\n  auto_reply: maybe\n"))
		assert.ErrorIs(t, err, settings.ErrInvalidValue)
	})

	t.Run("round trip", func(t *testing.T) {
		data, err := cli.ExportYAML(base)
		require.NoError(t, err)

		agg, err := cli.ImportYAML(settings.Defaults(), data)
		require.NoError(t, err)
		assert.Equal(t, base, agg)
	})
}

func TestSettingsReset(t *testing.T) {
	env := setupEnv(t)
	env.signIn(t)
	env.backend.stored["chat"] = json.RawMessage(`{"auto_reply": false}`)

	_, _, err := env.run(t, "", "settings", "reset", "4")
	require.ErrorContains(t, err, "--yes")
	assert.Empty(t, env.backend.puts)

	_, _, err = env.run(t, "", "settings", "reset", "4", "--yes")
	require.NoError(t, err)
	assert.Equal(t, true, env.backend.puts["chat"]["auto_reply"])
}

func TestReview(t *testing.T) {
	env := setupEnv(t)

	t.Run("stdin", func(t *testing.T) {
		out, _, err := env.run(t, "func f() {}", "review")

		require.NoError(t, err)
		assert.Equal(t, "func f() {}", env.reviewer.got)
		assert.Contains(t, out, "## Overall Summary")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := env.run(t, "x := 1", "review", "-", "--json")
		require.NoError(t, err)

		var res struct {
			HTML     string   `json:"html"`
			Headings []string `json:"headings"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Contains(t, res.HTML, "<strong>fine</strong>")
		assert.Equal(t, []string{"Overall Summary"}, res.Headings)
	})

	t.Run("blank input", func(t *testing.T) {
		_, _, err := env.run(t, "   \n", "review")
		assert.ErrorIs(t, err, application.ErrEmptyCode)
	})

	t.Run("source without fetcher", func(t *testing.T) {
		_, _, err := env.run(t, "", "review", "--source", "acme/api/main.go")
		assert.ErrorIs(t, err, application.ErrReviewUnavailable)
	})
}

func TestExecute_JSONError(t *testing.T) {
	env := setupEnv(t)
	factory := func(context.Context, string) (*cli.Services, error) { return env.svc, nil }
	root := cli.NewRootCommand(factory, "test")
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"whoami", "--json"})

	code := cli.Execute(context.Background(), root)

	assert.Equal(t, 1, code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &body))
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "not signed in (run: guardianctl login)", body["message"])
}
