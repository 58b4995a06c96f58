package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/codeguardian/internal/domain/model"
	"github.com/ericfisherdev/codeguardian/internal/domain/port/driven"
)

// RepositoryListing is one page of the filtered repository list.
type RepositoryListing struct {
	Repositories []model.Repository
	Total        int // Matches after filtering.
	Page         int
	PageSize     int
	TotalPages   int
	Links        []PageLink
}

// RepositoryService serves the repository list. The list view fetches the
// whole collection and filters and pages it locally.
type RepositoryService struct {
	api    driven.RepositoryAPI
	logger *slog.Logger
}

// NewRepositoryService creates a RepositoryService.
func NewRepositoryService(api driven.RepositoryAPI, logger *slog.Logger) *RepositoryService {
	return &RepositoryService{api: api, logger: logger}
}

// All fetches every repository of the signed-in user.
func (s *RepositoryService) All(ctx context.Context, sess *Session) ([]model.Repository, error) {
	token, err := sess.Credential(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.api.ListRepositories(ctx, token, driven.RepositoryListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", checkAuth(ctx, sess, err))
	}
	return page.Repositories, nil
}

// List fetches every repository, keeps those whose name or full name
// contains filter (case-insensitive), and returns the requested page.
// Out-of-range pages fall back to the first page.
func (s *RepositoryService) List(ctx context.Context, sess *Session, filter string, page, pageSize int) (RepositoryListing, error) {
	all, err := s.All(ctx, sess)
	if err != nil {
		return RepositoryListing{}, err
	}

	matches := FilterRepositories(all, filter)
	pager := NewPager(pageSize, len(matches))
	pager.GoTo(page)

	return RepositoryListing{
		Repositories: Slice(matches, pager.Page(), pager.PageSize()),
		Total:        len(matches),
		Page:         pager.Page(),
		PageSize:     pager.PageSize(),
		TotalPages:   pager.TotalPages(),
		Links:        pager.PageNumbers(),
	}, nil
}

// Page requests one server-paginated page. Used by API clients that page
// through the backend directly.
func (s *RepositoryService) Page(ctx context.Context, sess *Session, opts driven.RepositoryListOptions) (model.RepositoryPage, error) {
	token, err := sess.Credential(ctx)
	if err != nil {
		return model.RepositoryPage{}, err
	}
	page, err := s.api.ListRepositories(ctx, token, opts)
	if err != nil {
		return model.RepositoryPage{}, fmt.Errorf("listing repositories: %w", checkAuth(ctx, sess, err))
	}
	if page.TotalPages == 0 && opts.Limit > 0 {
		page.TotalPages = TotalPages(page.Total, opts.Limit)
	}
	return page, nil
}

// Find returns the repository with the given id.
func (s *RepositoryService) Find(ctx context.Context, sess *Session, id int64) (model.Repository, error) {
	all, err := s.All(ctx, sess)
	if err != nil {
		return model.Repository{}, err
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Repository{}, fmt.Errorf("repository %d: %w", id, ErrRepositoryNotFound)
}

// FilterRepositories returns the repositories whose name or full name
// contains filter, ignoring case. An empty filter matches everything.
func FilterRepositories(repos []model.Repository, filter string) []model.Repository {
	needle := strings.ToLower(strings.TrimSpace(filter))
	if needle == "" {
		return repos
	}
	out := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		if strings.Contains(strings.ToLower(r.Name), needle) || strings.Contains(strings.ToLower(r.FullName), needle) {
			out = append(out, r)
		}
	}
	return out
}
