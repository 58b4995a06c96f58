// Package backend implements the backend API ports over the product's REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.RepositoryAPI  = (*Client)(nil)
	_ driven.PullRequestAPI = (*Client)(nil)
	_ driven.SettingsAPI    = (*Client)(nil)
	_ driven.AuthAPI        = (*Client)(nil)
)

// maxErrorBody bounds how much of an error response body is kept for logs.
const maxErrorBody = 4 << 10

// Client talks to the backend REST API. Every call except the OAuth code
// exchange carries the caller's bearer credential.
type Client struct {
	http    *http.Client
	baseURL *url.URL
}

// NewClient creates a Client for the backend at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing backend URL: %q is not absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, baseURL: u}, nil
}

// ListRepositories fetches repositories. Pagination parameters are sent only
// when set; without them the backend returns the whole collection.
func (c *Client) ListRepositories(ctx context.Context, token string, opts driven.RepositoryListOptions) (model.RepositoryPage, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}

	var page model.RepositoryPage
	var probe struct {
		Repositories json.RawMessage `json:"repositories"`
	}
	body, err := c.do(ctx, http.MethodGet, "/api/repos", q, token, nil)
	if err != nil {
		return page, err
	}
	if err := json.Unmarshal(body, &probe); err != nil || len(probe.Repositories) == 0 || string(probe.Repositories) == "null" {
		return page, fmt.Errorf("decoding repositories: invalid API response structure")
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return page, fmt.Errorf("decoding repositories: %w", err)
	}
	return page, nil
}

// ListPullRequestSummaries fetches one page of PR summaries. Dates are sent
// as Unix seconds.
func (c *Client) ListPullRequestSummaries(ctx context.Context, token string, opts driven.PullRequestListOptions) (model.PullRequestPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(max(opts.Page, 1)))
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	if !opts.From.IsZero() {
		q.Set("from_date", strconv.FormatInt(opts.From.Unix(), 10))
	}
	if !opts.To.IsZero() {
		q.Set("to_date", strconv.FormatInt(opts.To.Unix(), 10))
	}

	var page model.PullRequestPage
	body, err := c.do(ctx, http.MethodGet, "/api/pr-summary", q, token, nil)
	if err != nil {
		return page, err
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return page, fmt.Errorf("decoding pull request summaries: %w", err)
	}
	if page.Data == nil {
		page.Data = []model.PullRequestSummary{}
	}
	return page, nil
}

// GetSettingsSection returns the stored JSON object for one section.
func (c *Client) GetSettingsSection(ctx context.Context, token string, repoID int64, section string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("repository_id", strconv.FormatInt(repoID, 10))
	q.Set("type", section)

	body, err := c.do(ctx, http.MethodGet, "/api/repo-settings", q, token, nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// settingsWrite is the PUT /api/repo-settings request body.
type settingsWrite struct {
	RepositoryID int64          `json:"repository_id"`
	Type         string         `json:"type"`
	Data         map[string]any `json:"data"`
}

// PutSettingsSection persists one section.
func (c *Client) PutSettingsSection(ctx context.Context, token string, repoID int64, section string, data map[string]any) error {
	payload := settingsWrite{RepositoryID: repoID, Type: section, Data: data}
	_, err := c.do(ctx, http.MethodPut, "/api/repo-settings", nil, token, payload)
	return err
}

// oauthExchange is the POST /api/auth/github response body.
type oauthExchange struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// ExchangeOAuthCode hands the GitHub authorization code to the backend and
// returns the authenticated user with a fresh bearer credential.
func (c *Client) ExchangeOAuthCode(ctx context.Context, code string) (model.User, string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/auth/github", nil, "", map[string]string{"code": code})
	if err != nil {
		return model.User{}, "", err
	}

	var resp oauthExchange
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.User{}, "", fmt.Errorf("decoding oauth exchange: %w", err)
	}
	if resp.Token == "" {
		return model.User{}, "", fmt.Errorf("decoding oauth exchange: response carried no token")
	}
	return resp.User, resp.Token, nil
}

// do performs one request and returns the body of a 2xx response. 401 maps
// to driven.ErrUnauthorized, 404 to driven.ErrNotFound, anything else
// non-2xx to *driven.StatusError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, payload any) ([]byte, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", method, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%s %s: %w", method, path, driven.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, driven.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &driven.StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}
