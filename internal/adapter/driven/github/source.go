// Package github fetches source files from GitHub for code review using the
// go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SourceFetcher = (*SourceClient)(nil)

// MaxFileSize is the largest file the fetcher will return for review.
const MaxFileSize = 512 << 10

// ErrNotAFile is returned when a path names a directory or symlink.
var ErrNotAFile = errors.New("path is not a regular file")

// SourceClient implements driven.SourceFetcher over the GitHub contents API.
type SourceClient struct {
	gh *gh.Client
}

// NewSourceClient creates a fetcher with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, PAT auth when token is set)
//
// An empty token makes unauthenticated requests, which only see public
// repositories and have a much lower rate limit.
func NewSourceClient(token string) *SourceClient {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &SourceClient{gh: client}
}

// NewSourceClientWithHTTPClient creates a SourceClient with a custom
// http.Client and base URL. Intended for tests against an httptest server.
func NewSourceClientWithHTTPClient(httpClient *http.Client, baseURL string) (*SourceClient, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &SourceClient{gh: client}, nil
}

// FetchFile returns the decoded contents of one file. A missing repository,
// path or ref returns driven.ErrNotFound.
func (c *SourceClient) FetchFile(ctx context.Context, ref driven.SourceRef) (string, error) {
	var opts *gh.RepositoryContentGetOptions
	if ref.Ref != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: ref.Ref}
	}

	file, dir, resp, err := c.gh.Repositories.GetContents(ctx, ref.Owner, ref.Repo, ref.Path, opts)
	logRateLimit(resp, ref)
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%s/%s/%s: %w", ref.Owner, ref.Repo, ref.Path, driven.ErrNotFound)
		}
		return "", fmt.Errorf("getting contents of %s/%s/%s: %w", ref.Owner, ref.Repo, ref.Path, err)
	}
	if dir != nil || file == nil || file.GetType() != "file" {
		return "", fmt.Errorf("%s/%s/%s: %w", ref.Owner, ref.Repo, ref.Path, ErrNotAFile)
	}
	if file.GetSize() > MaxFileSize {
		return "", fmt.Errorf("%s/%s/%s is %d bytes, over the %d byte review limit",
			ref.Owner, ref.Repo, ref.Path, file.GetSize(), MaxFileSize)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s/%s/%s: %w", ref.Owner, ref.Repo, ref.Path, err)
	}
	return content, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, ref driven.SourceRef) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", "contents",
		"repo", ref.Owner+"/"+ref.Repo,
		"path", ref.Path,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
