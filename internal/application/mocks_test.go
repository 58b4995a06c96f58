package application_test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// --- SettingsAPI ---

type putCall struct {
	token   string
	repoID  int64
	section string
	data    map[string]any
}

type mockSettingsAPI struct {
	mu     sync.Mutex
	get    func(section string) (json.RawMessage, error)
	put    func(section string) error
	gets   []string
	puts   []putCall
	tokens []string
}

func (m *mockSettingsAPI) GetSettingsSection(_ context.Context, token string, _ int64, section string) (json.RawMessage, error) {
	m.mu.Lock()
	m.gets = append(m.gets, section)
	m.tokens = append(m.tokens, token)
	m.mu.Unlock()
	if m.get == nil {
		return nil, driven.ErrNotFound
	}
	return m.get(section)
}

func (m *mockSettingsAPI) PutSettingsSection(_ context.Context, token string, repoID int64, section string, data map[string]any) error {
	m.mu.Lock()
	m.puts = append(m.puts, putCall{token: token, repoID: repoID, section: section, data: data})
	m.mu.Unlock()
	if m.put == nil {
		return nil
	}
	return m.put(section)
}

func (m *mockSettingsAPI) putFor(section string) (putCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.puts {
		if p.section == section {
			return p, true
		}
	}
	return putCall{}, false
}

func (m *mockSettingsAPI) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.gets) + len(m.puts)
}

// --- SessionStore ---

type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	deleted  []string
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]model.Session)}
}

func (m *mockSessionStore) Save(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStore) Load(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// --- RepositoryAPI ---

type mockRepositoryAPI struct {
	repos []model.Repository
	err   error
	opts  []driven.RepositoryListOptions
}

func (m *mockRepositoryAPI) ListRepositories(_ context.Context, _ string, opts driven.RepositoryListOptions) (model.RepositoryPage, error) {
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return model.RepositoryPage{}, m.err
	}
	if opts.Limit == 0 {
		return model.RepositoryPage{Repositories: m.repos, Total: len(m.repos)}, nil
	}
	start := (max(opts.Page, 1) - 1) * opts.Limit
	end := min(start+opts.Limit, len(m.repos))
	var page []model.Repository
	if start < len(m.repos) {
		page = m.repos[start:end]
	}
	return model.RepositoryPage{Repositories: page, Total: len(m.repos)}, nil
}

// --- PullRequestAPI ---

type mockPullRequestAPI struct {
	page model.PullRequestPage
	err  error
	opts []driven.PullRequestListOptions
}

func (m *mockPullRequestAPI) ListPullRequestSummaries(_ context.Context, _ string, opts driven.PullRequestListOptions) (model.PullRequestPage, error) {
	m.opts = append(m.opts, opts)
	return m.page, m.err
}

// --- AuthAPI ---

type mockAuthAPI struct {
	user  model.User
	token string
	err   error
	codes []string
}

func (m *mockAuthAPI) ExchangeOAuthCode(_ context.Context, code string) (model.User, string, error) {
	m.codes = append(m.codes, code)
	return m.user, m.token, m.err
}

// --- CodeReviewer / SourceFetcher ---

type mockReviewer struct {
	reply string
	err   error
	codes []string
}

func (m *mockReviewer) Review(_ context.Context, code string) (string, error) {
	m.codes = append(m.codes, code)
	return m.reply, m.err
}

type mockFetcher struct {
	files map[string]string
	refs  []driven.SourceRef
}

func (m *mockFetcher) FetchFile(_ context.Context, ref driven.SourceRef) (string, error) {
	m.refs = append(m.refs, ref)
	content, ok := m.files[ref.Path]
	if !ok {
		return "", driven.ErrNotFound
	}
	return content, nil
}

func reposNamed(n int) []model.Repository {
	out := make([]model.Repository, n)
	for i := range out {
		id := int64(i + 1)
		out[i] = model.Repository{ID: id, Name: "repo-" + strconv.Itoa(i+1), FullName: "acme/repo-" + strconv.Itoa(i+1), Owner: "acme"}
	}
	return out
}
