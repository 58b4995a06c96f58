package driven

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
)

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the backend rejects the bearer credential (401).
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is returned for any other non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Status)
}

// StatusCode extracts the HTTP status carried by a backend error, or 0.
func StatusCode(err error) int {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return se.Status
	case errors.Is(err, ErrUnauthorized):
		return 401
	case errors.Is(err, ErrNotFound):
		return 404
	}
	return 0
}

// RepositoryListOptions filters the repository listing. A zero Page and
// Limit request the full collection.
type RepositoryListOptions struct {
	Page  int
	Limit int
	Name  string
}

// PullRequestListOptions filters the PR summary listing. Zero dates are omitted.
type PullRequestListOptions struct {
	Page  int
	Limit int
	Name  string
	From  time.Time
	To    time.Time
}

// RepositoryAPI lists the repositories connected to the product.
type RepositoryAPI interface {
	ListRepositories(ctx context.Context, token string, opts RepositoryListOptions) (model.RepositoryPage, error)
}

// PullRequestAPI lists pull-request activity summaries.
type PullRequestAPI interface {
	ListPullRequestSummaries(ctx context.Context, token string, opts PullRequestListOptions) (model.PullRequestPage, error)
}

// SettingsAPI reads and writes one settings section at a time.
type SettingsAPI interface {
	// GetSettingsSection returns the raw JSON object stored for a section.
	// Returns ErrNotFound when nothing is stored.
	GetSettingsSection(ctx context.Context, token string, repoID int64, section string) (json.RawMessage, error)
	// PutSettingsSection persists the full field set of a section.
	PutSettingsSection(ctx context.Context, token string, repoID int64, section string, data map[string]any) error
}

// AuthAPI exchanges an OAuth authorization code for a user and bearer credential.
type AuthAPI interface {
	ExchangeOAuthCode(ctx context.Context, code string) (model.User, string, error)
}
